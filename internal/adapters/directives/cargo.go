package directives

import (
	"fmt"
	"io"

	"github.com/corey/tsbuild/internal/ports"
)

// Cargo writes cargo build-script directives, one per line, as they arrive.
type Cargo struct {
	w io.Writer
}

// NewCargo returns a sink writing to w (normally stdout).
func NewCargo(w io.Writer) *Cargo {
	return &Cargo{w: w}
}

// DependOn emits cargo:rerun-if-changed.
func (c *Cargo) DependOn(path string) error {
	_, err := fmt.Fprintf(c.w, "cargo:rerun-if-changed=%s\n", absPath(path))
	return err
}

// LinkLibrary emits the search path and static link lines, as the cc crate does.
func (c *Cargo) LinkLibrary(lib ports.Artifact) error {
	if _, err := fmt.Fprintf(c.w, "cargo:rustc-link-search=native=%s\n", absPath(lib.Dir)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.w, "cargo:rustc-link-lib=static=%s\n", lib.Name)
	return err
}

// Flush is a no-op; lines are written immediately.
func (c *Cargo) Flush() error { return nil }
