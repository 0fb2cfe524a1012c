package cmd

import (
	"io"
	"os"

	"github.com/corey/tsbuild/internal/logging"
)

// isTTY returns true if w is a file connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// resolveLogFormat turns "auto" into pretty on a terminal and text otherwise,
// so logs captured by cargo or make stay plain.
func resolveLogFormat(format string, stderr io.Writer) string {
	if format != logging.FormatAuto {
		return format
	}
	if isTTY(stderr) {
		return logging.FormatPretty
	}
	return logging.FormatText
}
