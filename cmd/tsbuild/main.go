// tsbuild turns a tree-sitter grammar into a static C library.
// It runs as a build step: go generate, Make, Ninja or a cargo build script.
package main

import (
	"os"

	"github.com/corey/tsbuild/cmd/tsbuild/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.ReportError(err)
		os.Exit(cmd.ExitCode(err))
	}
}
