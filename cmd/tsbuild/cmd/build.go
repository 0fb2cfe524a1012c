package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate and compile the grammar (default)",
	Long: "Declares the grammar as a rebuild trigger, runs tree-sitter generate,\n" +
		"compiles the generated source into lib<name>.a and emits link directives.\n" +
		"Exit status 2 means generation failed, 3 means compilation failed.",
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.Build(cmd.Context())
	return err
}
