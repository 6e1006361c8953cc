// Package watcher triggers dataset reloads when local files change, and on a
// schedule for remote datasets.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before the handler runs
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a handler when one of a set of files changes.
// The parent directory of each file is watched rather than the file
// itself, so files replaced by editors or rsync keep being tracked.
type Watcher struct {
	onChange func(path string)
	debounce time.Duration

	mu     sync.Mutex
	fs     *fsnotify.Watcher
	files  map[string]struct{}
	dirs   map[string]int
	timers map[string]*time.Timer
}

// New creates a watcher calling onChange with the absolute path of a changed file
func New(onChange func(path string)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		onChange: onChange,
		debounce: DefaultDebounce,
		fs:       fs,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
	return w
}

// Add starts tracking a file. Adding the same file twice is a no-op.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; ok {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = struct{}{}

	log.Printf("Watching %s for changes", abs)
	return nil
}

// Remove stops tracking a file
func (w *Watcher) Remove(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; !ok {
		return
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.fs.Remove(dir); err != nil {
			log.Printf("Failed to unwatch directory %s: %v", dir, err)
		}
	}

	if timer, ok := w.timers[abs]; ok {
		timer.Stop()
		delete(w.timers, abs)
	}
}

// Watching reports whether a file is tracked
func (w *Watcher) Watching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

// Run dispatches change events until the context is cancelled.
// It closes the underlying fsnotify watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			w.mu.Lock()
			for path, timer := range w.timers {
				timer.Stop()
				delete(w.timers, path)
			}
			w.mu.Unlock()
			return ctx.Err()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// Removal is followed by a Create when the file is replaced
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; !ok {
		return
	}

	if timer, ok := w.timers[abs]; ok {
		timer.Stop()
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		_, still := w.files[abs]
		delete(w.timers, abs)
		w.mu.Unlock()

		if still {
			log.Printf("File changed: %s", abs)
			w.onChange(abs)
		}
	})
}
