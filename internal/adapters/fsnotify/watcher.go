// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches a grammar directory, skips generated output and
// tooling directories, and debounces rapid events (editors often trigger
// multiple writes per save).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Directories to ignore when watching. src/ is where the generator writes,
// so watching it would retrigger every build.
var ignoreDirs = map[string]bool{
	"src":          true,
	"bindings":     true,
	"node_modules": true,
	"build":        true,
	"target":       true,
	".git":         true,
	".tsbuild":     true,
}

// Grammar inputs: grammar.js and the modules it requires, or a grammar.json.
var grammarExts = map[string]bool{
	".js":   true,
	".cjs":  true,
	".mjs":  true,
	".json": true,
}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	skip    []string // absolute dirs excluded besides ignoreDirs
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher. skipDirs are excluded along
// with everything below them, e.g. a generator output directory that is not
// named src.
func NewWatcher(skipDirs ...string) (*Watcher, error) {
	skip := make([]string, 0, len(skipDirs))
	for _, d := range skipDirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, err
		}
		skip = append(skip, abs)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		skip: skip,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring dir recursively.
// onChange is called with the absolute path of each changed grammar input.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		return err
	}
	skip := below(absPath, w.skip)

	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if path != absPath && (shouldIgnoreDir(info.Name()) || underAny(path, skip)) {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Debounce state: track last event time per file
	debounce := make(map[string]time.Time)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New subdirectories (e.g. a grammar split into modules) join the watch.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() {
						if !shouldIgnoreDir(info.Name()) && !underAny(path, skip) {
							w.fw.Add(path)
						}
						continue
					}
				}

				if !isGrammarInput(absPath, path, skip) {
					continue
				}

				now := time.Now()
				if last, seen := debounce[path]; seen && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[path] = now

				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					onChange(path)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers from transient errors on its own

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// shouldIgnoreDir returns true if the directory name should be skipped.
func shouldIgnoreDir(name string) bool {
	return ignoreDirs[name]
}

// underAny reports whether path is one of dirs or below one of them.
func underAny(path string, dirs []string) bool {
	for _, d := range dirs {
		rel, err := filepath.Rel(d, path)
		if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
			return true
		}
	}
	return false
}

// below returns the dirs strictly inside root. A skip dir that contains root
// (an output directory of ".") must not hide the grammar itself.
func below(root string, dirs []string) []string {
	var out []string
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			out = append(out, d)
		}
	}
	return out
}

// isGrammarInput reports whether path, below root and outside skip, can
// influence generation.
func isGrammarInput(root, path string, skip []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") || underAny(path, skip) {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if ignoreDirs[part] {
			return false
		}
	}
	base := parts[len(parts)-1]
	if strings.HasPrefix(base, ".") {
		return false // editor swap and backup files
	}
	return grammarExts[filepath.Ext(base)]
}
