package ports

// DirectiveSink receives build-system declarations emitted by a build step.
// Implementations translate them into whatever the surrounding build tool
// understands (cargo directives, a Make depfile, nothing at all).
//
// Directives are hints. A sink failure is reported to the caller but the
// orchestrator treats it as non-fatal.
type DirectiveSink interface {
	// DependOn declares that the step's output depends on the content of path.
	DependOn(path string) error

	// LinkLibrary declares a static library downstream targets should link.
	LinkLibrary(lib Artifact) error

	// Flush writes any buffered declarations. Called once after a
	// successful build.
	Flush() error
}
