// Package directives implements ports.DirectiveSink for the build tools that
// can drive tsbuild: cargo build scripts, Make/Ninja depfiles, or nothing.
package directives

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/corey/tsbuild/internal/ports"
)

// Supported sink formats.
const (
	FormatCargo = "cargo"
	FormatMake  = "make"
	FormatNone  = "none"
)

// Formats lists every accepted format name.
var Formats = []string{FormatCargo, FormatMake, FormatNone}

// Valid reports whether format names a sink.
func Valid(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// New returns the sink for format. Cargo directives go to w; the make sink
// writes its depfile to depfile on Flush.
func New(format string, w io.Writer, depfile string) (ports.DirectiveSink, error) {
	switch format {
	case FormatCargo, "":
		return NewCargo(w), nil
	case FormatMake:
		if depfile == "" {
			return nil, fmt.Errorf("make directives need a depfile path")
		}
		return NewDepfile(depfile), nil
	case FormatNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown directive format %q (want one of %v)", format, Formats)
	}
}

// Discard drops every directive.
type Discard struct{}

func (Discard) DependOn(string) error            { return nil }
func (Discard) LinkLibrary(ports.Artifact) error { return nil }
func (Discard) Flush() error                     { return nil }

// absPath makes directive paths independent of the consumer's working dir.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// uniqueSorted returns the distinct values of set in order.
func uniqueSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
