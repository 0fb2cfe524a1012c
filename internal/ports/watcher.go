package ports

// Watcher monitors a grammar directory and reports changes to grammar inputs.
// The adapter (fsnotify) filters out generated output (src/, bindings, build
// dirs) before invoking onChange so a rebuild never retriggers itself.
// Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir recursively. onChange is called with the
	// absolute path of each changed grammar input. The callback may be invoked
	// from any goroutine. Returns an error if the directory doesn't exist or
	// permissions are insufficient.
	Watch(dir string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
