package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	bberrors "go.etcd.io/bbolt/errors"

	"github.com/corey/tsbuild/internal/domain/orchestrator"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1 // configuration, flags, history
	ExitGenerate = 2
	ExitCompile  = 3
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch orchestrator.FailedStage(err) {
	case orchestrator.StageGenerate:
		return ExitGenerate
	case orchestrator.StageCompile:
		return ExitCompile
	}
	return ExitFailure
}

// ReportError writes err to the root command's stderr as plain text. Tool
// diagnostics wrapped in err keep their line breaks and quoting.
func ReportError(err error) {
	if err == nil {
		return
	}
	if stage := orchestrator.FailedStage(err); stage != "" {
		slog.Debug("build stage failed", slog.String("stage", string(stage)), slog.Int("exit", ExitCode(err)))
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "tsbuild: %v\n", err)
}

// isDBLockError returns true if the error chain contains a bbolt lock timeout,
// meaning another process holds the history database.
func isDBLockError(err error) bool {
	return errors.Is(err, bberrors.ErrTimeout)
}

// explainHistoryError adds guidance when the history database is held by
// another tsbuild process.
func explainHistoryError(err error, dbPath string) error {
	if !isDBLockError(err) {
		return err
	}
	return errors.Join(err, fmt.Errorf("history database %s is locked by another tsbuild process\n"+
		"  → a `tsbuild watch` may be running in this directory\n"+
		"  → stop it, or run builds with --no-history", dbPath))
}
