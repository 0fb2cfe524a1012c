package directives

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/tsbuild/internal/ports"
)

// Depfile collects dependencies and writes a Make-style depfile
// ("target: dep dep…") on Flush. Ninja reads the same format.
type Depfile struct {
	path    string
	deps    map[string]struct{}
	targets []string
}

// NewDepfile returns a sink that will write to path.
func NewDepfile(path string) *Depfile {
	return &Depfile{path: path, deps: make(map[string]struct{})}
}

// DependOn records a prerequisite.
func (d *Depfile) DependOn(path string) error {
	d.deps[absPath(path)] = struct{}{}
	return nil
}

// LinkLibrary records the archive as the depfile target.
func (d *Depfile) LinkLibrary(lib ports.Artifact) error {
	target := absPath(lib.Path)
	for _, t := range d.targets {
		if t == target {
			return nil
		}
	}
	d.targets = append(d.targets, target)
	return nil
}

// Flush writes the depfile. With no target recorded there is nothing to
// declare and no file is written.
func (d *Depfile) Flush() error {
	if len(d.targets) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create depfile dir: %w", err)
	}
	return os.WriteFile(d.path, []byte(d.Render()), 0o644)
}

// Render returns the depfile content.
func (d *Depfile) Render() string {
	var b strings.Builder
	deps := uniqueSorted(d.deps)
	for _, target := range d.targets {
		b.WriteString(escapeMake(target))
		b.WriteByte(':')
		for _, dep := range deps {
			b.WriteString(" \\\n  ")
			b.WriteString(escapeMake(dep))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// escapeMake escapes characters Make treats specially in rule lines.
func escapeMake(p string) string {
	r := strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")
	return r.Replace(p)
}
