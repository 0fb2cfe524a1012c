package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/corey/tsbuild/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// events is shared by the fakes so tests can assert cross-port ordering.
type events []string

type fakeGenerator struct {
	ev   *events
	reqs []ports.GenerateRequest
	err  error
}

func (g *fakeGenerator) Generate(_ context.Context, req ports.GenerateRequest) (*ports.GenerateResult, error) {
	*g.ev = append(*g.ev, "generate")
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &ports.GenerateResult{Files: []string{"parser.c"}}, nil
}

type fakeCompiler struct {
	ev   *events
	reqs []ports.CompileRequest
	err  error
}

func (c *fakeCompiler) ArtifactPath(req ports.CompileRequest) string {
	return filepath.Join(req.OutputDir, "lib"+req.LibraryName+".a")
}

func (c *fakeCompiler) Compile(_ context.Context, req ports.CompileRequest) (*ports.Artifact, error) {
	*c.ev = append(*c.ev, "compile")
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return nil, c.err
	}
	path := c.ArtifactPath(req)
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte("!<arch>\n"), 0o644); err != nil {
		return nil, err
	}
	return &ports.Artifact{Name: req.LibraryName, Dir: req.OutputDir, Path: path}, nil
}

type recordingSink struct {
	ev  *events
	err error
}

func (s *recordingSink) DependOn(path string) error {
	*s.ev = append(*s.ev, "depend "+path)
	return s.err
}

func (s *recordingSink) LinkLibrary(lib ports.Artifact) error {
	*s.ev = append(*s.ev, "link "+lib.Name)
	return s.err
}

func (s *recordingSink) Flush() error {
	*s.ev = append(*s.ev, "flush")
	return s.err
}

type harness struct {
	ev   *events
	gen  *fakeGenerator
	cc   *fakeCompiler
	sink *recordingSink
	cfg  Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ev := &events{}
	root := t.TempDir()
	return &harness{
		ev:   ev,
		gen:  &fakeGenerator{ev: ev},
		cc:   &fakeCompiler{ev: ev},
		sink: &recordingSink{ev: ev},
		cfg: Config{
			GrammarDir:  filepath.Join(root, "grammar"),
			GrammarFile: "grammar.js",
			SourceDir:   "src",
			Sources:     []string{"parser.c"},
			LibraryName: "tree-sitter-grammar",
			LibraryDir:  filepath.Join(root, "out"),
			ABIVersion:  15,
		},
	}
}

func (h *harness) orchestrator() *Orchestrator {
	return New(h.cfg, h.gen, h.cc, h.sink, nil)
}

func TestConfig_Paths(t *testing.T) {
	cfg := Config{GrammarDir: "grammar", GrammarFile: "grammar.js", SourceDir: "src"}
	assert.Equal(t, filepath.Join("grammar", "grammar.js"), cfg.GrammarPath())
	assert.Equal(t, filepath.Join("grammar", "src"), cfg.GeneratedDir())

	cfg.OutputOverride = "gen"
	assert.Equal(t, "gen", cfg.GeneratedDir())
}

func TestRun_Success(t *testing.T) {
	h := newHarness(t)

	rep, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	grammar := filepath.Join(h.cfg.GrammarDir, "grammar.js")
	assert.Equal(t, events{
		"depend " + grammar,
		"generate",
		"compile",
		"link tree-sitter-grammar",
		"flush",
	}, *h.ev)

	assert.Equal(t, grammar, rep.GrammarFile)
	require.NotNil(t, rep.Generated)
	assert.Equal(t, filepath.Join(h.cfg.GrammarDir, "src"), rep.Generated.SourceDir)
	require.NotNil(t, rep.Artifact)
	assert.FileExists(t, rep.Artifact.Path)
}

func TestRun_GenerationRequest(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, h.gen.reqs, 1)
	req := h.gen.reqs[0]
	assert.Equal(t, h.cfg.GrammarDir, req.GrammarDir)
	assert.Equal(t, "grammar.js", req.GrammarFile)
	assert.Empty(t, req.OutputDir, "no output override by default")
	assert.Equal(t, 15, req.ABIVersion)
	assert.False(t, req.StrictABI, "abi compatibility stays non-strict by default")
	assert.Empty(t, req.ExtraArgs)
}

func TestRun_CompileRequest(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, h.cc.reqs, 1)
	src := filepath.Join(h.cfg.GrammarDir, "src")
	assert.Equal(t, ports.CompileRequest{
		IncludeDirs: []string{src},
		Sources:     []string{filepath.Join(src, "parser.c")},
		SourceDir:   src,
		LibraryName: "tree-sitter-grammar",
		OutputDir:   h.cfg.LibraryDir,
	}, h.cc.reqs[0])
}

func TestRun_OutputOverrideFeedsCompiler(t *testing.T) {
	h := newHarness(t)
	h.cfg.OutputOverride = filepath.Join(t.TempDir(), "gen")
	h.cfg.Sources = []string{"parser.c", "scanner.c"}

	_, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, h.cfg.OutputOverride, h.gen.reqs[0].OutputDir)
	assert.Equal(t, []string{h.cfg.OutputOverride}, h.cc.reqs[0].IncludeDirs)
	assert.Equal(t, []string{
		filepath.Join(h.cfg.OutputOverride, "parser.c"),
		filepath.Join(h.cfg.OutputOverride, "scanner.c"),
	}, h.cc.reqs[0].Sources)
}

func TestRun_GenerationFailureSkipsCompilation(t *testing.T) {
	h := newHarness(t)
	h.gen.err = errors.New("tree-sitter exited with status 1:\nError: Unexpected token")

	rep, err := h.orchestrator().Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StageGenerate, FailedStage(err))
	assert.Equal(t, "generate parser: tree-sitter exited with status 1:\nError: Unexpected token", err.Error())
	assert.ErrorIs(t, err, h.gen.err)
	assert.Empty(t, h.cc.reqs, "compiler must not run after a generation failure")
	assert.NotContains(t, *h.ev, "flush")
	assert.Nil(t, rep.Artifact)
}

func TestRun_GenerationFailureRemovesPreviousLibrary(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(h.cfg.LibraryDir, 0o755))
	old := filepath.Join(h.cfg.LibraryDir, "libtree-sitter-grammar.a")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	h.gen.err = errors.New("boom")

	_, err := h.orchestrator().Run(context.Background())
	require.Error(t, err)

	assert.NoFileExists(t, old)
}

func TestRun_CompileFailureIsDistinct(t *testing.T) {
	h := newHarness(t)
	h.cc.err = errors.New("cc exited with status 1:\nparser.c:1:1: error: expected identifier")

	rep, err := h.orchestrator().Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StageCompile, FailedStage(err))
	assert.NotEqual(t, StageGenerate, FailedStage(err))
	assert.Contains(t, err.Error(), "compile parser: ")
	assert.Contains(t, err.Error(), "parser.c:1:1: error: expected identifier")
	assert.NotNil(t, rep.Generated)
	assert.Nil(t, rep.Artifact)
	assert.Equal(t, events{"depend " + filepath.Join(h.cfg.GrammarDir, "grammar.js"), "generate", "compile"}, *h.ev)
}

func TestRun_SinkFailuresAreNotFatal(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("stdout closed")

	rep, err := h.orchestrator().Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rep.Artifact)
}

func TestRun_NilSink(t *testing.T) {
	h := newHarness(t)

	_, err := New(h.cfg, h.gen, h.cc, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, events{"generate", "compile"}, *h.ev)
}

func TestCompile_NoSources(t *testing.T) {
	h := newHarness(t)
	h.cfg.Sources = nil

	_, err := h.orchestrator().Compile(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageCompile, FailedStage(err))
	assert.Empty(t, h.cc.reqs)
}

func TestFailedStage(t *testing.T) {
	assert.Equal(t, Stage(""), FailedStage(nil))
	assert.Equal(t, Stage(""), FailedStage(errors.New("plain")))

	wrapped := errors.Join(errors.New("outer"), &StageError{Stage: StageCompile, Err: errors.New("x")})
	assert.Equal(t, StageCompile, FailedStage(wrapped))
}
