package cmd

import (
	"github.com/spf13/cobra"

	fsw "github.com/corey/tsbuild/internal/adapters/fsnotify"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever the grammar changes",
	Long: "Builds once, then watches the grammar directory and rebuilds after each\n" +
		"change to a .js or .json grammar input. Generated source is ignored.\n" +
		"Stop with Ctrl-C.",
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := fsw.NewWatcher(a.Paths.SourceDir, a.Paths.OutputDir, a.Paths.StateDir)
	if err != nil {
		return err
	}
	defer w.Stop()
	return a.Watch(cmd.Context(), w)
}
