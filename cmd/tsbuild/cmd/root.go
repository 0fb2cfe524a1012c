package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/corey/tsbuild/internal/app"
	"github.com/corey/tsbuild/internal/logging"
)

// Global flags.
var (
	configPath string
	workDir    string
	logLevel   string
	logFormat  string
)

var flags buildFlags

// Resolved by the root PersistentPreRunE before any command runs.
var (
	cfg     *app.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "tsbuild",
	Short: "tsbuild — build a tree-sitter grammar into a static library",
	Long: "Generates parser source from grammar/grammar.js with the tree-sitter CLI,\n" +
		"compiles it into lib<name>.a and declares rebuild triggers to the calling\n" +
		"build system. Without a subcommand, tsbuild runs build.",
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runBuild,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the context that
// running tools are started with.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default <dir>/"+app.ConfigFile+")")
	pf.StringVarP(&workDir, "dir", "C", "", "run as if started in `dir`")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "auto, pretty, text or json")
	flags.bind(pf)

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup layers defaults, config file, environment and flags, then installs
// the logger.
func setup(cmd *cobra.Command, _ []string) error {
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	path, explicit := configPath, configPath != ""
	if !explicit {
		path = filepath.Join(dir, app.ConfigFile)
	}
	c, err := app.LoadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.ApplyEnv(os.Getenv)
	flags.apply(cmd.Flags(), c)
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}

	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), level, resolveLogFormat(c.Log.Format, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	cmd.SetContext(logging.WithLogger(cmd.Context(), log))

	cfg, rootDir = c, dir
	return nil
}

// newApp wires an App for the resolved configuration. Directives go to the
// command's stdout.
func newApp(cmd *cobra.Command) (*app.App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.New(cfg, app.Options{
		WorkDir: rootDir,
		Stdout:  cmd.OutOrStdout(),
		Log:     logging.FromContext(cmd.Context()),
	})
}

// buildFlags are the per-build overrides shared by every command.
type buildFlags struct {
	grammarDir string
	libName    string
	outDir     string
	abi        int
	strictABI  bool
	directives string
	depfile    string
	noHistory  bool
}

func (f *buildFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.grammarDir, "grammar-dir", "", "grammar directory (default grammar)")
	fs.StringVar(&f.libName, "lib-name", "", "library name, produces lib<name>.a")
	fs.StringVar(&f.outDir, "out-dir", "", "library output directory (default $OUT_DIR or build)")
	fs.IntVar(&f.abi, "abi", 0, "tree-sitter ABI version to generate")
	fs.BoolVar(&f.strictABI, "strict-abi", false, "fail unless parser.c declares exactly --abi")
	fs.StringVar(&f.directives, "directives", "", "directive format: cargo, make or none")
	fs.StringVar(&f.depfile, "depfile", "", "depfile path for --directives=make")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not record the build")
}

// apply overlays the flags that were set explicitly.
func (f *buildFlags) apply(fs *pflag.FlagSet, c *app.Config) {
	if fs.Changed("grammar-dir") {
		c.GrammarDir = f.grammarDir
	}
	if fs.Changed("lib-name") {
		c.LibraryName = f.libName
	}
	if fs.Changed("out-dir") {
		c.OutputDir = f.outDir
	}
	if fs.Changed("abi") {
		c.Generator.ABIVersion = f.abi
	}
	if fs.Changed("strict-abi") {
		c.Generator.StrictABI = f.strictABI
	}
	if fs.Changed("directives") {
		c.Directives.Format = f.directives
	}
	if fs.Changed("depfile") {
		c.Directives.Depfile = f.depfile
	}
	if fs.Changed("no-history") && f.noHistory {
		c.History.Enabled = false
	}
}
