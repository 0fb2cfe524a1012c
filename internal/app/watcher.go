package app

import (
	"context"
	"log/slog"

	"github.com/corey/tsbuild/internal/ports"
)

// Watch builds once, then rebuilds after every change to a grammar input
// until ctx is done. Builds run one at a time on the calling goroutine; the
// watcher callback only signals. Build failures are logged and watching
// continues.
func (a *App) Watch(ctx context.Context, w ports.Watcher) error {
	a.rebuild(ctx, "")

	changed := make(chan string, 1)
	err := w.Watch(a.Paths.GrammarDir, func(path string) {
		select {
		case changed <- path:
		default: // a rebuild is already pending
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	a.log.Info("watching grammar", slog.String("dir", a.Paths.GrammarDir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changed:
			a.rebuild(ctx, path)
		}
	}
}

func (a *App) rebuild(ctx context.Context, trigger string) {
	if trigger != "" {
		a.log.Info("grammar changed", slog.String("path", trigger))
	}
	if _, err := a.Build(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		a.log.Error("build failed", slog.Any("error", err))
	}
}
