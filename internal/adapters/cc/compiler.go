// Package cc compiles C translation units into a static library with the
// host toolchain: one `cc -c` per source, then `ar crs` over the objects.
package cc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/tsbuild/internal/adapters/toolexec"
	"github.com/corey/tsbuild/internal/ports"
)

// Toolchain defaults, overridden by CC / AR / CFLAGS or config.
const (
	DefaultCC = "cc"
	DefaultAR = "ar"
)

// DefaultFlags are passed to every compile before user flags.
var DefaultFlags = []string{"-std=c11", "-fPIC", "-O2"}

// Toolchain names the tools and flags used for a build.
type Toolchain struct {
	CC    string
	AR    string
	Flags []string
}

// Compiler implements ports.Compiler.
type Compiler struct {
	tc Toolchain
}

// NewCompiler returns a compiler for tc, filling empty fields with defaults.
func NewCompiler(tc Toolchain) *Compiler {
	if tc.CC == "" {
		tc.CC = DefaultCC
	}
	if tc.AR == "" {
		tc.AR = DefaultAR
	}
	if tc.Flags == nil {
		tc.Flags = DefaultFlags
	}
	return &Compiler{tc: tc}
}

// Toolchain returns the resolved toolchain.
func (c *Compiler) Toolchain() Toolchain {
	return c.tc
}

// LibraryFile returns the archive file name for a library identifier.
func LibraryFile(name string) string {
	return "lib" + name + ".a"
}

// ArtifactPath returns the archive path Compile writes for req.
func (c *Compiler) ArtifactPath(req ports.CompileRequest) string {
	return filepath.Join(req.OutputDir, LibraryFile(req.LibraryName))
}

// ObjectPath returns the object file a source compiles to. The name follows
// the source's path below srcDir, so ext/parser.c becomes ext_parser.o.
// Sources outside srcDir are named by their base name.
func ObjectPath(outDir, srcDir, src string) string {
	name := filepath.Base(src)
	if srcDir != "" {
		if rel, err := filepath.Rel(srcDir, src); err == nil && rel != ".." &&
			!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			name = rel
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(filepath.ToSlash(name), "/", "_")
	return filepath.Join(outDir, name+".o")
}

// ObjectPaths returns one distinct object file per source, in order. Sources
// that still map to the same name (parser.c and parser.cc) get a numeric
// suffix.
func ObjectPaths(outDir, srcDir string, sources []string) []string {
	objs := make([]string, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		obj := ObjectPath(outDir, srcDir, src)
		if seen[obj] {
			stem := strings.TrimSuffix(obj, ".o")
			for i := 2; seen[obj]; i++ {
				obj = fmt.Sprintf("%s_%d.o", stem, i)
			}
		}
		seen[obj] = true
		objs = append(objs, obj)
	}
	return objs
}

// CompileArgs builds the compiler command line for one translation unit.
func (c *Compiler) CompileArgs(req ports.CompileRequest, src, obj string) []string {
	args := make([]string, 0, len(c.tc.Flags)+2*len(req.IncludeDirs)+4)
	args = append(args, c.tc.Flags...)
	for _, inc := range req.IncludeDirs {
		args = append(args, "-I", inc)
	}
	return append(args, "-c", src, "-o", obj)
}

// Compile builds each source in order and archives the objects.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) (*ports.Artifact, error) {
	if req.LibraryName == "" {
		return nil, fmt.Errorf("no library name given")
	}
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no sources to compile")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	objs := ObjectPaths(req.OutputDir, req.SourceDir, req.Sources)
	for i, src := range req.Sources {
		cmd := toolexec.Command{Path: c.tc.CC, Args: c.CompileArgs(req, src, objs[i])}
		if _, err := toolexec.Run(ctx, cmd); err != nil {
			return nil, err
		}
	}

	lib := c.ArtifactPath(req)
	// ar appends to an existing archive; start clean so stale members never survive.
	if err := os.Remove(lib); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove old archive: %w", err)
	}
	cmd := toolexec.Command{Path: c.tc.AR, Args: append([]string{"crs", lib}, objs...)}
	if _, err := toolexec.Run(ctx, cmd); err != nil {
		return nil, err
	}

	return &ports.Artifact{
		Name: req.LibraryName,
		Dir:  req.OutputDir,
		Path: lib,
	}, nil
}
