package app

import (
	"path/filepath"

	"github.com/corey/tsbuild/internal/adapters/cc"
)

// DefaultOutputDir is used when neither output_dir nor OUT_DIR is set.
const DefaultOutputDir = "build"

// Paths holds every resolved filesystem path for one build.
// All paths are absolute.
type Paths struct {
	WorkDir     string // -C / cwd
	GrammarDir  string // grammar/
	GrammarFile string // grammar/grammar.js
	SourceDir   string // grammar/src/ or generator.output
	OutputDir   string // build/ or OUT_DIR
	Artifact    string // build/libtree-sitter-grammar.a
	Depfile     string // build/libtree-sitter-grammar.d

	StateDir  string // .tsbuild/
	HistoryDB string // .tsbuild/history.db
}

// NewPaths resolves cfg against workDir.
func NewPaths(workDir string, cfg *Config) *Paths {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(workDir, p)
	}

	grammarDir := abs(cfg.GrammarDir)
	srcDir := filepath.Join(grammarDir, cfg.SourceDir)
	if cfg.Generator.Output != "" {
		srcDir = abs(cfg.Generator.Output)
	}
	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	outDir = abs(outDir)
	lib := cc.LibraryFile(cfg.LibraryName)

	depfile := filepath.Join(outDir, lib[:len(lib)-len(filepath.Ext(lib))]+".d")
	if cfg.Directives.Depfile != "" {
		depfile = abs(cfg.Directives.Depfile)
	}

	state := filepath.Join(workDir, ".tsbuild")
	history := filepath.Join(state, "history.db")
	if cfg.History.Path != "" {
		history = abs(cfg.History.Path)
	}

	return &Paths{
		WorkDir:     workDir,
		GrammarDir:  grammarDir,
		GrammarFile: filepath.Join(grammarDir, cfg.GrammarFile),
		SourceDir:   srcDir,
		OutputDir:   outDir,
		Artifact:    filepath.Join(outDir, lib),
		Depfile:     depfile,
		StateDir:    state,
		HistoryDB:   history,
	}
}
