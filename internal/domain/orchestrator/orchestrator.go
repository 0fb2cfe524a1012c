// Package orchestrator turns a grammar directory into a static parser library.
//
// A run is strictly sequential: declare the grammar as a rebuild trigger,
// generate parser source, then compile that source. Generation must succeed
// before the compiler is ever invoked. There is no retry and no fallback
// artifact; any tool failure ends the run with a StageError.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/corey/tsbuild/internal/ports"
)

// Config holds the conventional paths and names for one grammar.
// Relative paths resolve against the process working directory.
type Config struct {
	GrammarDir     string   // e.g. "grammar"
	GrammarFile    string   // e.g. "grammar.js"
	SourceDir      string   // generated-source subdirectory of GrammarDir, e.g. "src"
	OutputOverride string   // optional generator output directory, replaces GrammarDir/SourceDir
	Sources        []string // translation units inside the generated dir, e.g. ["parser.c"]
	LibraryName    string   // e.g. "tree-sitter-grammar"
	LibraryDir     string   // where the archive is written
	ABIVersion     int
	StrictABI      bool
	GeneratorArgs  []string
}

// GrammarPath returns the grammar definition file.
func (c Config) GrammarPath() string {
	return filepath.Join(c.GrammarDir, c.GrammarFile)
}

// GeneratedDir returns the directory holding generated source.
func (c Config) GeneratedDir() string {
	if c.OutputOverride != "" {
		return c.OutputOverride
	}
	return filepath.Join(c.GrammarDir, c.SourceDir)
}

// Report summarizes a run.
type Report struct {
	GrammarFile string
	Generated   *ports.GenerateResult
	Artifact    *ports.Artifact
	GenerateDur time.Duration
	CompileDur  time.Duration
}

// Orchestrator runs the generate → compile sequence against its ports.
type Orchestrator struct {
	cfg  Config
	gen  ports.Generator
	cc   ports.Compiler
	sink ports.DirectiveSink
	log  *slog.Logger
}

// New wires an orchestrator. A nil sink discards directives; a nil logger
// uses slog.Default().
func New(cfg Config, gen ports.Generator, cc ports.Compiler, sink ports.DirectiveSink, log *slog.Logger) *Orchestrator {
	if sink == nil {
		sink = discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{cfg: cfg, gen: gen, cc: cc, sink: sink, log: log}
}

// Config returns the orchestrator's configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Run performs the whole build step.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	grammar := o.cfg.GrammarPath()
	rep := &Report{GrammarFile: grammar}

	if err := o.sink.DependOn(grammar); err != nil {
		o.log.Warn("rebuild trigger not declared", slog.String("path", grammar), slog.Any("error", err))
	}

	// A failing run must not leave an earlier library for the build to pick up.
	stale := o.cc.ArtifactPath(o.compileRequest())
	if err := os.Remove(stale); err == nil {
		o.log.Debug("removed previous library", slog.String("path", stale))
	} else if !os.IsNotExist(err) {
		o.log.Warn("could not remove previous library", slog.String("path", stale), slog.Any("error", err))
	}

	start := time.Now()
	gen, err := o.Generate(ctx)
	rep.GenerateDur = time.Since(start)
	if err != nil {
		return rep, err
	}
	rep.Generated = gen

	start = time.Now()
	art, err := o.Compile(ctx)
	rep.CompileDur = time.Since(start)
	if err != nil {
		return rep, err
	}
	rep.Artifact = art

	if err := o.sink.LinkLibrary(*art); err != nil {
		o.log.Warn("library directive not emitted", slog.String("library", art.Name), slog.Any("error", err))
	}
	if err := o.sink.Flush(); err != nil {
		o.log.Warn("directives not flushed", slog.Any("error", err))
	}
	return rep, nil
}

// Generate runs only the generation stage.
func (o *Orchestrator) Generate(ctx context.Context) (*ports.GenerateResult, error) {
	req := ports.GenerateRequest{
		GrammarDir:  o.cfg.GrammarDir,
		GrammarFile: o.cfg.GrammarFile,
		SourceDir:   o.cfg.SourceDir,
		OutputDir:   o.cfg.OutputOverride,
		ABIVersion:  o.cfg.ABIVersion,
		StrictABI:   o.cfg.StrictABI,
		ExtraArgs:   o.cfg.GeneratorArgs,
	}
	o.log.Info("generating parser",
		slog.String("grammar", o.cfg.GrammarPath()),
		slog.Int("abi", req.ABIVersion))

	res, err := o.gen.Generate(ctx, req)
	if err != nil {
		return nil, &StageError{Stage: StageGenerate, Err: err}
	}
	if res.SourceDir == "" {
		res.SourceDir = o.cfg.GeneratedDir()
	}
	o.log.Debug("generated", slog.String("dir", res.SourceDir), slog.Any("files", res.Files))
	return res, nil
}

// Compile runs only the compilation stage against whatever source is on disk.
func (o *Orchestrator) Compile(ctx context.Context) (*ports.Artifact, error) {
	req := o.compileRequest()
	if len(req.Sources) == 0 {
		return nil, &StageError{Stage: StageCompile, Err: fmt.Errorf("no translation units configured")}
	}
	o.log.Info("compiling parser",
		slog.String("library", req.LibraryName),
		slog.Any("sources", req.Sources))

	art, err := o.cc.Compile(ctx, req)
	if err != nil {
		return nil, &StageError{Stage: StageCompile, Err: err}
	}
	o.log.Info("built library", slog.String("path", art.Path))
	return art, nil
}

func (o *Orchestrator) compileRequest() ports.CompileRequest {
	srcDir := o.cfg.GeneratedDir()
	sources := make([]string, 0, len(o.cfg.Sources))
	for _, s := range o.cfg.Sources {
		sources = append(sources, filepath.Join(srcDir, s))
	}
	return ports.CompileRequest{
		IncludeDirs: []string{srcDir},
		Sources:     sources,
		SourceDir:   srcDir,
		LibraryName: o.cfg.LibraryName,
		OutputDir:   o.cfg.LibraryDir,
	}
}

type discard struct{}

func (discard) DependOn(string) error            { return nil }
func (discard) LinkLibrary(ports.Artifact) error { return nil }
func (discard) Flush() error                     { return nil }
