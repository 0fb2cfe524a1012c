package treesitter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/corey/tsbuild/internal/adapters/toolexec"
	"github.com/corey/tsbuild/internal/ports"
	"github.com/corey/tsbuild/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(grammarDir string) ports.GenerateRequest {
	return ports.GenerateRequest{
		GrammarDir:  grammarDir,
		GrammarFile: "grammar.js",
		SourceDir:   "src",
		ABIVersion:  LanguageVersion(),
	}
}

func TestABIRange(t *testing.T) {
	assert.LessOrEqual(t, MinCompatibleLanguageVersion(), LanguageVersion())
	assert.NoError(t, CheckABIVersion(LanguageVersion()))
	assert.NoError(t, CheckABIVersion(MinCompatibleLanguageVersion()))
	assert.Error(t, CheckABIVersion(LanguageVersion()+1))
	assert.Error(t, CheckABIVersion(MinCompatibleLanguageVersion()-1))
}

func TestGenerator_Args(t *testing.T) {
	g := NewGenerator("")
	assert.Equal(t, DefaultCommand, g.Command())

	req := request("grammar")
	req.ABIVersion = 14
	assert.Equal(t, []string{"generate", "--abi=14", "grammar.js"}, g.Args(req))

	req.ExtraArgs = []string{"--report-states-for-rule", "-"}
	req.OutputDir = "/tmp/out"
	assert.Equal(t,
		[]string{"generate", "--abi=14", "-o", "/tmp/out", "--report-states-for-rule", "-", "grammar.js"},
		g.Args(req))
}

func TestSourceDir(t *testing.T) {
	req := request("grammar")
	assert.Equal(t, filepath.Join("grammar", "src"), SourceDir(req))
	req.OutputDir = "elsewhere"
	assert.Equal(t, "elsewhere", SourceDir(req))
}

func TestGenerator_WritesParserSource(t *testing.T) {
	tc := testutil.FakeToolchain(t)
	dir := testutil.WriteGrammar(t, t.TempDir(), testutil.TwoTokenGrammar)

	res, err := NewGenerator(tc.Generator).Generate(context.Background(), request(dir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "src"), res.SourceDir)
	assert.Contains(t, res.Files, ParserFile)
	assert.Contains(t, res.Files, "grammar.json")
	assert.Contains(t, res.Files, filepath.Join("tree_sitter", "parser.h"))
	assert.NotContains(t, res.Files, "scanner.c")

	v, err := ParserABIVersion(filepath.Join(res.SourceDir, ParserFile))
	require.NoError(t, err)
	assert.Equal(t, LanguageVersion(), v)

	calls := testutil.Calls(t, tc.GenLog)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "generate")
}

func TestGenerator_MalformedGrammarSurfacesDiagnostic(t *testing.T) {
	tc := testutil.FakeToolchain(t)
	dir := testutil.WriteGrammar(t, t.TempDir(), "module.exports = "+testutil.BadGrammarMarker)

	_, err := NewGenerator(tc.Generator).Generate(context.Background(), request(dir))
	require.Error(t, err)

	var te *toolexec.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.ExitCode)
	assert.Contains(t, te.Output, "Unexpected token in grammar.js")

	_, statErr := os.Stat(filepath.Join(dir, "src", ParserFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerator_MissingGrammarDir(t *testing.T) {
	tc := testutil.FakeToolchain(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewGenerator(tc.Generator).Generate(context.Background(), request(missing))
	assert.Error(t, err)
}

func TestGenerator_OutputOverride(t *testing.T) {
	tc := testutil.FakeToolchain(t)
	root := t.TempDir()
	dir := testutil.WriteGrammar(t, root, testutil.TwoTokenGrammar)
	out := filepath.Join(root, "generated")

	req := request(dir)
	req.OutputDir = out
	res, err := NewGenerator(tc.Generator).Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, out, res.SourceDir)
	assert.FileExists(t, filepath.Join(out, ParserFile))
	assert.NoFileExists(t, filepath.Join(dir, "src", ParserFile))
}

func TestGenerator_StrictABIMismatch(t *testing.T) {
	testutil.RequireShell(t)
	bin := t.TempDir()
	gen := testutil.WriteScript(t, bin, "tree-sitter", `
mkdir -p src
echo "#define LANGUAGE_VERSION 1" > src/parser.c
`)
	dir := testutil.WriteGrammar(t, t.TempDir(), testutil.TwoTokenGrammar)

	req := request(dir)
	_, err := NewGenerator(gen).Generate(context.Background(), req)
	require.NoError(t, err, "non-strict generation ignores the declared abi")

	req.StrictABI = true
	_, err = NewGenerator(gen).Generate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares abi 1")
}

func TestParserABIVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parser.c")

	require.NoError(t, os.WriteFile(path, []byte("#include <stdint.h>\n\n#define LANGUAGE_VERSION 14\n#define STATE_COUNT 9\n"), 0o644))
	v, err := ParserABIVersion(path)
	require.NoError(t, err)
	assert.Equal(t, 14, v)

	require.NoError(t, os.WriteFile(path, []byte("#define LANGUAGE_VERSION abc\n"), 0o644))
	_, err = ParserABIVersion(path)
	assert.ErrorContains(t, err, "malformed")

	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
	_, err = ParserABIVersion(path)
	assert.ErrorContains(t, err, "no LANGUAGE_VERSION")

	_, err = ParserABIVersion(filepath.Join(dir, "missing.c"))
	assert.Error(t, err)
}
