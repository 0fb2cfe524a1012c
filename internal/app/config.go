package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/corey/tsbuild/internal/adapters/cc"
	"github.com/corey/tsbuild/internal/adapters/directives"
	"github.com/corey/tsbuild/internal/adapters/treesitter"
	"github.com/corey/tsbuild/internal/logging"
)

// ConfigFile is the config file looked up in the working directory.
const ConfigFile = "tsbuild.yaml"

// Environment variables consulted by ApplyEnv.
const (
	EnvGenerator  = "TREE_SITTER_CLI"
	EnvCC         = "CC"
	EnvAR         = "AR"
	EnvCFlags     = "CFLAGS"
	EnvOutDir     = "OUT_DIR"
	EnvDirectives = "TSBUILD_DIRECTIVES"
)

// Config is the resolved build configuration.
// Relative paths are interpreted against the working directory.
type Config struct {
	GrammarDir  string   `yaml:"grammar_dir"`
	GrammarFile string   `yaml:"grammar_file"`
	SourceDir   string   `yaml:"source_dir"`
	Sources     []string `yaml:"sources"`
	LibraryName string   `yaml:"library_name"`
	OutputDir   string   `yaml:"output_dir,omitempty"`

	Generator  GeneratorConfig  `yaml:"generator"`
	Compiler   CompilerConfig   `yaml:"compiler"`
	Directives DirectivesConfig `yaml:"directives"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

// GeneratorConfig configures the tree-sitter CLI.
type GeneratorConfig struct {
	Command    string   `yaml:"command"`
	ABIVersion int      `yaml:"abi_version"`
	StrictABI  bool     `yaml:"strict_abi"`
	Output     string   `yaml:"output,omitempty"` // overrides <grammar_dir>/<source_dir>
	Args       []string `yaml:"args,omitempty"`
}

// CompilerConfig configures the C toolchain.
type CompilerConfig struct {
	CC    string   `yaml:"cc"`
	AR    string   `yaml:"ar"`
	Flags []string `yaml:"flags"`
}

// DirectivesConfig selects where build-system directives go.
type DirectivesConfig struct {
	Format  string `yaml:"format"`
	Depfile string `yaml:"depfile,omitempty"`
}

// HistoryConfig configures the build ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the conventional configuration.
func Defaults() *Config {
	return &Config{
		GrammarDir:  "grammar",
		GrammarFile: "grammar.js",
		SourceDir:   "src",
		Sources:     []string{treesitter.ParserFile},
		LibraryName: "tree-sitter-grammar",
		Generator: GeneratorConfig{
			Command:    treesitter.DefaultCommand,
			ABIVersion: treesitter.LanguageVersion(),
		},
		Compiler: CompilerConfig{
			CC:    cc.DefaultCC,
			AR:    cc.DefaultAR,
			Flags: append([]string(nil), cc.DefaultFlags...),
		},
		Directives: DirectivesConfig{Format: directives.FormatCargo},
		History:    HistoryConfig{Enabled: true},
		Log:        LogConfig{Level: "info", Format: logging.FormatAuto},
	}
}

// LoadConfig reads path over the defaults. When explicit is false a missing
// file is not an error.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment settings. OUT_DIR only fills an unset
// output_dir since cargo always exports it.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvGenerator); v != "" {
		c.Generator.Command = v
	}
	if v := getenv(EnvCC); v != "" {
		c.Compiler.CC = v
	}
	if v := getenv(EnvAR); v != "" {
		c.Compiler.AR = v
	}
	if v := getenv(EnvCFlags); v != "" {
		c.Compiler.Flags = append(c.Compiler.Flags, strings.Fields(v)...)
	}
	if v := getenv(EnvOutDir); v != "" && c.OutputDir == "" {
		c.OutputDir = v
	}
	if v := getenv(EnvDirectives); v != "" {
		c.Directives.Format = v
	}
}

// Validate checks the configuration before any tool runs.
func (c *Config) Validate() error {
	if c.GrammarDir == "" {
		return fmt.Errorf("grammar_dir is empty")
	}
	if c.GrammarFile == "" {
		return fmt.Errorf("grammar_file is empty")
	}
	if strings.ContainsRune(c.GrammarFile, filepath.Separator) {
		return fmt.Errorf("grammar_file %q must be a file name inside grammar_dir", c.GrammarFile)
	}
	if c.SourceDir == "" && c.Generator.Output == "" {
		return fmt.Errorf("source_dir is empty")
	}
	if c.LibraryName == "" {
		return fmt.Errorf("library_name is empty")
	}
	if strings.ContainsAny(c.LibraryName, `/\ `) {
		return fmt.Errorf("library_name %q must be a bare name", c.LibraryName)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources is empty")
	}
	for _, s := range c.Sources {
		if err := checkSourceName(s); err != nil {
			return err
		}
	}
	if c.Generator.Command == "" {
		return fmt.Errorf("generator.command is empty")
	}
	if err := treesitter.CheckABIVersion(c.Generator.ABIVersion); err != nil {
		return fmt.Errorf("generator.abi_version: %w", err)
	}
	if c.Compiler.CC == "" || c.Compiler.AR == "" {
		return fmt.Errorf("compiler.cc and compiler.ar must be set")
	}
	if !directives.Valid(c.Directives.Format) {
		return fmt.Errorf("directives.format %q: want one of %s",
			c.Directives.Format, strings.Join(directives.Formats, ", "))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("log.format %q: want auto or one of %s",
			c.Log.Format, strings.Join(logging.Formats, ", "))
	}
	return nil
}

// checkSourceName rejects translation units outside the generated directory.
func checkSourceName(s string) error {
	if s == "" {
		return fmt.Errorf("sources: empty entry")
	}
	if filepath.IsAbs(s) {
		return fmt.Errorf("sources: %q must be relative to the generated directory", s)
	}
	clean := filepath.Clean(s)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("sources: %q escapes the generated directory", s)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
