package cmd

import (
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile previously generated source into the library",
	Long:  "Compiles whatever is in the generated source directory. Run generate first.",
	Args:  cobra.NoArgs,
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.Compile(cmd.Context())
	return err
}
