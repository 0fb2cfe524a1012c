package ports

import "context"

// Generator materializes parser source code from a grammar definition.
// The concrete implementation (tree-sitter CLI) lives in
// internal/adapters/treesitter.
type Generator interface {
	// Generate reads the grammar in req.GrammarDir and writes parser source
	// into the conventional source subdirectory (or req.OutputDir when set).
	// Blocks until the generator exits. Any failure, including a malformed
	// grammar, is returned with the generator's diagnostic text intact.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest is the parameter tuple for one generation call.
// It is built fresh for every build; nothing about it is persisted.
type GenerateRequest struct {
	GrammarDir  string   // directory holding the grammar definition
	GrammarFile string   // grammar file name inside GrammarDir, e.g. "grammar.js"
	SourceDir   string   // conventional output subdirectory name, e.g. "src"
	OutputDir   string   // optional override for the output directory; "" = GrammarDir/SourceDir
	ABIVersion  int      // language ABI version the generated parser targets
	StrictABI   bool     // require the generated parser to declare exactly ABIVersion
	ExtraArgs   []string // optional generator-specific options, passed through verbatim
}

// GenerateResult describes the files a successful generation produced.
type GenerateResult struct {
	SourceDir string   // absolute or working-dir-relative directory holding the output
	Files     []string // generated files, relative to SourceDir, sorted
}
