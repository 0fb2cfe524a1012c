// Package treesitter drives the tree-sitter CLI as the parser generator.
// It turns a grammar directory into C parser source (parser.c plus the
// tree_sitter/ headers) and knows the ABI range of the tree-sitter runtime.
package treesitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/corey/tsbuild/internal/adapters/toolexec"
	"github.com/corey/tsbuild/internal/ports"
)

// DefaultCommand is the generator executable looked up on PATH.
const DefaultCommand = "tree-sitter"

// ParserFile is the translation unit the generator always emits.
const ParserFile = "parser.c"

// generatedFiles lists what a generate run can leave in the source dir.
// scanner.c is hand-written but lives alongside and is reported when present.
var generatedFiles = []string{
	ParserFile,
	"scanner.c",
	"grammar.json",
	"node-types.json",
	filepath.Join("tree_sitter", "parser.h"),
	filepath.Join("tree_sitter", "alloc.h"),
	filepath.Join("tree_sitter", "array.h"),
}

// Generator implements ports.Generator by running `tree-sitter generate`.
type Generator struct {
	command string
}

// NewGenerator returns a generator that runs command (DefaultCommand if empty).
func NewGenerator(command string) *Generator {
	if command == "" {
		command = DefaultCommand
	}
	return &Generator{command: command}
}

// Command returns the executable the generator runs.
func (g *Generator) Command() string {
	return g.command
}

// Args builds the generator command line for req. The grammar file is passed
// relative to req.GrammarDir, which becomes the working directory.
func (g *Generator) Args(req ports.GenerateRequest) []string {
	args := []string{"generate", "--abi=" + strconv.Itoa(req.ABIVersion)}
	if req.OutputDir != "" {
		args = append(args, "-o", absOr(req.OutputDir))
	}
	args = append(args, req.ExtraArgs...)
	return append(args, req.GrammarFile)
}

// Generate runs the generator and returns what it wrote.
func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResult, error) {
	if req.GrammarFile == "" {
		return nil, fmt.Errorf("no grammar file given")
	}

	cmd := toolexec.Command{
		Path: g.command,
		Args: g.Args(req),
		Dir:  req.GrammarDir,
	}
	if _, err := toolexec.Run(ctx, cmd); err != nil {
		return nil, err
	}

	srcDir := SourceDir(req)
	parser := filepath.Join(srcDir, ParserFile)
	if req.StrictABI {
		got, err := ParserABIVersion(parser)
		if err != nil {
			return nil, err
		}
		if got != req.ABIVersion {
			return nil, fmt.Errorf("%s declares abi %d, want %d", parser, got, req.ABIVersion)
		}
	}

	res := &ports.GenerateResult{SourceDir: srcDir}
	for _, name := range generatedFiles {
		if _, err := os.Stat(filepath.Join(srcDir, name)); err == nil {
			res.Files = append(res.Files, name)
		}
	}
	sort.Strings(res.Files)
	return res, nil
}

// SourceDir returns the directory generation writes into for req.
func SourceDir(req ports.GenerateRequest) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}
	return filepath.Join(req.GrammarDir, req.SourceDir)
}

func absOr(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
