package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/tsbuild/internal/adapters/treesitter"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "grammar", cfg.GrammarDir)
	assert.Equal(t, "grammar.js", cfg.GrammarFile)
	assert.Equal(t, []string{"parser.c"}, cfg.Sources)
	assert.Equal(t, "tree-sitter-grammar", cfg.LibraryName)
	assert.Equal(t, treesitter.LanguageVersion(), cfg.Generator.ABIVersion)
	assert.False(t, cfg.Generator.StrictABI)
	assert.Equal(t, "cargo", cfg.Directives.Format)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFile), false)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "custom.yaml"), true)
	assert.Error(t, err)
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
grammar_dir: grammars/toml
sources: [parser.c, scanner.c]
generator:
  strict_abi: true
compiler:
  cc: clang
directives:
  format: make
`), 0o644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "grammars/toml", cfg.GrammarDir)
	assert.Equal(t, []string{"parser.c", "scanner.c"}, cfg.Sources)
	assert.True(t, cfg.Generator.StrictABI)
	assert.Equal(t, "clang", cfg.Compiler.CC)
	assert.Equal(t, "make", cfg.Directives.Format)

	// Untouched keys keep their defaults.
	assert.Equal(t, "grammar.js", cfg.GrammarFile)
	assert.Equal(t, treesitter.DefaultCommand, cfg.Generator.Command)
	assert.Equal(t, treesitter.LanguageVersion(), cfg.Generator.ABIVersion)
	assert.Equal(t, "ar", cfg.Compiler.AR)
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("grammar_path: x\n"), 0o644))

	_, err := LoadConfig(path, true)
	assert.Error(t, err)
}

func TestLoadConfig_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvGenerator:  "/opt/ts/tree-sitter",
		EnvCC:         "clang",
		EnvAR:         "llvm-ar",
		EnvCFlags:     "-g  -Wall",
		EnvOutDir:     "/tmp/out",
		EnvDirectives: "none",
	}
	cfg := Defaults()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "/opt/ts/tree-sitter", cfg.Generator.Command)
	assert.Equal(t, "clang", cfg.Compiler.CC)
	assert.Equal(t, "llvm-ar", cfg.Compiler.AR)
	assert.Equal(t, []string{"-std=c11", "-fPIC", "-O2", "-g", "-Wall"}, cfg.Compiler.Flags)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "none", cfg.Directives.Format)
}

func TestApplyEnv_OutDirDoesNotOverrideConfig(t *testing.T) {
	cfg := Defaults()
	cfg.OutputDir = "lib"
	cfg.ApplyEnv(func(k string) string {
		if k == EnvOutDir {
			return "/cargo/out"
		}
		return ""
	})
	assert.Equal(t, "lib", cfg.OutputDir)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty grammar dir":   func(c *Config) { c.GrammarDir = "" },
		"nested grammar file": func(c *Config) { c.GrammarFile = filepath.Join("a", "grammar.js") },
		"empty library":       func(c *Config) { c.LibraryName = "" },
		"library with slash":  func(c *Config) { c.LibraryName = "a/b" },
		"no sources":          func(c *Config) { c.Sources = nil },
		"empty source":        func(c *Config) { c.Sources = []string{""} },
		"absolute source":     func(c *Config) { c.Sources = []string{"/etc/parser.c"} },
		"escaping source":     func(c *Config) { c.Sources = []string{filepath.Join("..", "parser.c")} },
		"abi too new":         func(c *Config) { c.Generator.ABIVersion = treesitter.LanguageVersion() + 1 },
		"abi too old":         func(c *Config) { c.Generator.ABIVersion = treesitter.MinCompatibleLanguageVersion() - 1 },
		"unknown directives":  func(c *Config) { c.Directives.Format = "bazel" },
		"unknown log level":   func(c *Config) { c.Log.Level = "chatty" },
		"no compiler":         func(c *Config) { c.Compiler.CC = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_NestedSourceAllowed(t *testing.T) {
	cfg := Defaults()
	cfg.Sources = []string{"parser.c", filepath.Join("ext", "scanner.c")}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Generator.Args = []string{"--no-bindings"}

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "grammar_dir: grammar")
	assert.Contains(t, string(data), "library_name: tree-sitter-grammar")

	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	back, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
