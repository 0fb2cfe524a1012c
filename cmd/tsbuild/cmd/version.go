package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/tsbuild/internal/adapters/treesitter"
)

// Version is set at link time with -ldflags "-X ...cmd.Version=v1.2.3".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and supported tree-sitter ABI range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "tsbuild %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "tree-sitter ABI %d..%d (default %d)\n",
			treesitter.MinCompatibleLanguageVersion(),
			treesitter.LanguageVersion(),
			treesitter.LanguageVersion())
		return nil
	},
}
