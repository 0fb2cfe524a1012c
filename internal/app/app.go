// Package app wires configuration, adapters and the orchestrator together.
// It owns the per-invocation resources: the directive sink and the build
// ledger.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/corey/tsbuild/internal/adapters/bbolt"
	"github.com/corey/tsbuild/internal/adapters/cc"
	"github.com/corey/tsbuild/internal/adapters/directives"
	"github.com/corey/tsbuild/internal/adapters/treesitter"
	"github.com/corey/tsbuild/internal/domain/orchestrator"
	"github.com/corey/tsbuild/internal/ports"
)

// ErrHistoryDisabled is returned by History when the ledger is turned off.
var ErrHistoryDisabled = errors.New("build history is disabled")

// Options carries the process-level inputs of an App.
type Options struct {
	WorkDir string
	Stdout  io.Writer // directive output
	Log     *slog.Logger
}

// App is one configured tsbuild invocation.
type App struct {
	Config       *Config
	Paths        *Paths
	Orchestrator *orchestrator.Orchestrator
	Ledger       ports.Ledger // nil when history is disabled or unavailable

	ledgerErr error
	log       *slog.Logger
}

// New validates cfg and wires the adapters. The ledger is opened here; if it
// cannot be opened the build still proceeds without history.
func New(cfg *Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}

	paths := NewPaths(workDir, cfg)
	sink, err := directives.New(cfg.Directives.Format, stdout, paths.Depfile)
	if err != nil {
		return nil, err
	}

	gen := treesitter.NewGenerator(cfg.Generator.Command)
	compiler := cc.NewCompiler(cc.Toolchain{
		CC:    cfg.Compiler.CC,
		AR:    cfg.Compiler.AR,
		Flags: cfg.Compiler.Flags,
	})

	var output string
	if cfg.Generator.Output != "" {
		output = paths.SourceDir
	}
	orch := orchestrator.New(orchestrator.Config{
		GrammarDir:     paths.GrammarDir,
		GrammarFile:    cfg.GrammarFile,
		SourceDir:      cfg.SourceDir,
		OutputOverride: output,
		Sources:        cfg.Sources,
		LibraryName:    cfg.LibraryName,
		LibraryDir:     paths.OutputDir,
		ABIVersion:     cfg.Generator.ABIVersion,
		StrictABI:      cfg.Generator.StrictABI,
		GeneratorArgs:  cfg.Generator.Args,
	}, gen, compiler, sink, log)

	a := &App{
		Config:       cfg,
		Paths:        paths,
		Orchestrator: orch,
		log:          log,
	}
	if cfg.History.Enabled {
		ledger, err := bbolt.NewLedger(paths.HistoryDB)
		if err != nil {
			log.Warn("build history unavailable", slog.String("path", paths.HistoryDB), slog.Any("error", err))
			a.ledgerErr = err
		} else {
			a.Ledger = ledger
		}
	}
	return a, nil
}

// Close releases the ledger.
func (a *App) Close() error {
	if a.Ledger == nil {
		return nil
	}
	err := a.Ledger.Close()
	a.Ledger = nil
	return err
}

// Build runs generate and compile, then records the run.
func (a *App) Build(ctx context.Context) (*orchestrator.Report, error) {
	rec := &ports.BuildRecord{
		Started:     time.Now(),
		GrammarFile: a.Paths.GrammarFile,
		ABIVersion:  a.Config.Generator.ABIVersion,
	}
	if sum, err := fileDigest(a.Paths.GrammarFile); err == nil {
		rec.GrammarSHA256 = sum
	}

	rep, err := a.Orchestrator.Run(ctx)
	rec.Finished = time.Now()
	if err != nil {
		rec.FailedStage = string(orchestrator.FailedStage(err))
		rec.Error = err.Error()
	} else {
		rec.Sources = digests(rep.Generated)
		rec.Artifact = rep.Artifact.Path
		if sum, derr := fileDigest(rep.Artifact.Path); derr == nil {
			rec.ArtifactSHA = sum
		}
		a.log.Info("build finished",
			slog.String("library", rep.Artifact.Path),
			slog.Duration("generate", rep.GenerateDur),
			slog.Duration("compile", rep.CompileDur))
	}
	a.record(rec)
	return rep, err
}

// Generate runs only the generation stage.
func (a *App) Generate(ctx context.Context) (*ports.GenerateResult, error) {
	return a.Orchestrator.Generate(ctx)
}

// Compile runs only the compilation stage against the source on disk.
func (a *App) Compile(ctx context.Context) (*ports.Artifact, error) {
	return a.Orchestrator.Compile(ctx)
}

// History returns up to limit recorded runs, newest first.
func (a *App) History(limit int) ([]*ports.BuildRecord, error) {
	if a.ledgerErr != nil {
		return nil, fmt.Errorf("open build history: %w", a.ledgerErr)
	}
	if a.Ledger == nil {
		return nil, ErrHistoryDisabled
	}
	return a.Ledger.Recent(limit)
}

// record compares rec with the previous success and appends it. Ledger
// failures only produce warnings.
func (a *App) record(rec *ports.BuildRecord) {
	if a.Ledger == nil {
		return
	}
	if rec.OK() {
		prev, err := a.Ledger.LastSuccess(rec.GrammarFile)
		if err != nil {
			a.log.Warn("build history lookup failed", slog.Any("error", err))
		} else if prev != nil {
			a.compare(prev, rec)
		}
	}
	if err := a.Ledger.Record(rec); err != nil {
		a.log.Warn("build not recorded", slog.Any("error", err))
		return
	}
	a.log.Debug("build recorded", slog.Uint64("run", rec.ID))
}

func (a *App) compare(prev, cur *ports.BuildRecord) {
	switch {
	case maps.Equal(prev.Sources, cur.Sources):
		a.log.Info("generated source unchanged", slog.Uint64("since_run", prev.ID))
	case prev.GrammarSHA256 != "" && prev.GrammarSHA256 == cur.GrammarSHA256 &&
		prev.ABIVersion == cur.ABIVersion:
		a.log.Warn("generator output changed for an unchanged grammar",
			slog.Uint64("previous_run", prev.ID))
	}
}

// digests hashes every generated file.
func digests(res *ports.GenerateResult) map[string]string {
	if res == nil {
		return nil
	}
	out := make(map[string]string, len(res.Files))
	for _, name := range res.Files {
		if sum, err := fileDigest(filepath.Join(res.SourceDir, name)); err == nil {
			out[name] = sum
		}
	}
	return out
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
