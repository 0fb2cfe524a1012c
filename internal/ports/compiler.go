package ports

import "context"

// Compiler turns translation units into a statically linkable library.
// The concrete implementation drives the host C toolchain (internal/adapters/cc).
type Compiler interface {
	// Compile builds every source in req.Sources, in order, and archives the
	// objects into a static library named req.LibraryName inside req.OutputDir.
	// Blocks until the toolchain exits. A compiler or archiver failure is
	// returned with the tool's diagnostic text intact.
	Compile(ctx context.Context, req CompileRequest) (*Artifact, error)

	// ArtifactPath returns where Compile would write the library for req,
	// without touching the filesystem.
	ArtifactPath(req CompileRequest) string
}

// CompileRequest is the parameter tuple for one compilation call.
type CompileRequest struct {
	IncludeDirs []string // header search path, in order
	Sources     []string // translation units, compiled in order
	SourceDir   string   // directory Sources live under; object names derive from it
	LibraryName string   // library identifier without "lib" prefix or extension
	OutputDir   string   // where objects and the archive are written
}

// Artifact is the compiled static library handed to the surrounding build.
type Artifact struct {
	Name string // library identifier, e.g. "tree-sitter-grammar"
	Dir  string // directory containing the archive
	Path string // full path of the archive, e.g. Dir/libtree-sitter-grammar.a
}
