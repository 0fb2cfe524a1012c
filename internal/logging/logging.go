// Package logging builds the slog loggers used by tsbuild.
//
// Logs always go to stderr: stdout belongs to build-system directives, and a
// stray log line there would be read by cargo or make as a directive.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Supported output formats.
const (
	FormatAuto   = "auto" // resolved by the caller, see cmd/tsbuild
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Formats lists the formats New accepts.
var Formats = []string{FormatPretty, FormatText, FormatJSON}

// ValidFormat reports whether format is FormatAuto or one of Formats.
func ValidFormat(format string) bool {
	if format == FormatAuto {
		return true
	}
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New returns a logger writing to w in the given format.
// An empty format selects pretty output.
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch format {
	case "", FormatPretty:
		h = newPrettyHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want one of %s)",
			format, strings.Join(Formats, ", "))
	}
	return slog.New(h), nil
}

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying log.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return slog.Default()
}
