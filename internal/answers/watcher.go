// Package answers resolves pending blockers from answer files dropped into
// the project's .conductor/answers directory. A human (or another process)
// answers a blocker by writing its answer text to <blocker-id>.txt.
package answers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Resolver marks a pending blocker as answered. *store.DB satisfies it.
type Resolver interface {
	AnswerBlocker(id, answer string) error
}

// Watcher monitors the answers directory and applies answer files as they
// appear. If the filesystem watcher cannot be established it degrades to
// explicit Sweep calls.
type Watcher struct {
	dir      string
	resolver Resolver
	watcher  *fsnotify.Watcher
	done     chan struct{}
	debugLog func(format string, args ...interface{})
}

// NewWatcher creates the answers directory under projectRoot and starts
// watching it. Answer files present before the watcher started are applied
// by an initial sweep.
func NewWatcher(projectRoot string, resolver Resolver) (*Watcher, error) {
	dir := filepath.Join(projectRoot, ".conductor", "answers")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		resolver: resolver,
		done:     make(chan struct{}),
		debugLog: func(format string, args ...interface{}) {},
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher, callers fall back to Sweep.
		return w, nil
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return w, nil
	}
	w.watcher = fsw

	go w.watch()

	// Catch up on files written before the watch started.
	w.Sweep()

	return w, nil
}

// SetDebugLog sets the debug logging function.
func (w *Watcher) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		w.debugLog = fn
	}
}

// Dir returns the watched answers directory.
func (w *Watcher) Dir() string {
	return w.dir
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.apply(event.Name)
			}
		case <-w.watcher.Errors:
			// Keep watching; Sweep covers missed events.
		}
	}
}

// Sweep applies every answer file currently in the directory. Used as the
// polling fallback and at startup. Files for blockers that are no longer
// pending are ignored.
func (w *Watcher) Sweep() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.apply(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// apply reads one answer file and resolves the blocker named by it.
func (w *Watcher) apply(path string) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".txt") {
		return
	}
	blockerID := strings.TrimSuffix(base, ".txt")
	if blockerID == "" {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	answer := strings.TrimSpace(string(content))
	if answer == "" {
		return
	}

	if err := w.resolver.AnswerBlocker(blockerID, answer); err != nil {
		// Already resolved or unknown; either way the file is stale.
		w.debugLog("[answers] blocker %s: %v", blockerID, err)
		return
	}
	w.debugLog("[answers] blocker %s resolved from %s", blockerID, base)
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
