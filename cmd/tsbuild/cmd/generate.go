package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/corey/tsbuild/internal/logging"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run only the parser generator",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Generate(cmd.Context())
	if err != nil {
		return err
	}
	logging.FromContext(cmd.Context()).Info("generated parser source",
		slog.String("dir", res.SourceDir),
		slog.Any("files", res.Files))
	return nil
}
