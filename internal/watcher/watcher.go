// Package watcher notifies when the open document changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/yedit/internal/log"
)

// Watcher monitors one file and sends a debounced signal when it changes.
// It watches the parent directory so atomic replace-by-rename is seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}

	mu     sync.Mutex
	path   string
	dir    string
	closed bool
}

// Config holds watcher configuration options.
type Config struct {
	Debounce time.Duration
}

// DefaultConfig returns the debounce used by the editor.
func DefaultConfig() Config {
	return Config{Debounce: 300 * time.Millisecond}
}

// New creates a watcher that is not yet watching anything.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  cfg.Debounce,
		onChange:  make(chan string, 1),
		done:      make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes receives the watched path after it changed.
func (w *Watcher) Changes() <-chan string {
	return w.onChange
}

// Watch switches the watched file to path. An empty path stops watching.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("watcher closed")
	}

	var dir string
	if path != "" {
		path = filepath.Clean(path)
		dir = filepath.Dir(path)
	}
	if dir != w.dir {
		if w.dir != "" {
			_ = w.fsWatcher.Remove(w.dir)
		}
		if dir != "" {
			if err := w.fsWatcher.Add(dir); err != nil {
				w.dir, w.path = "", ""
				return fmt.Errorf("watching directory %s: %w", dir, err)
			}
		}
		w.dir = dir
	}
	w.path = path
	log.Debug(log.CatWatcher, "watching file", "path", path)
	return nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.done)
	return w.fsWatcher.Close()
}

// loop coalesces bursts of events on the watched file into one signal sent
// once the file has been quiet for the debounce interval.
func (w *Watcher) loop() {
	var (
		quiet   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if quiet != nil {
			quiet.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			pending = filepath.Clean(ev.Name)
			if quiet != nil {
				quiet.Stop()
			}
			quiet = time.NewTimer(w.debounce)
			fire = quiet.C

		case <-fire:
			fire = nil
			// Drop the signal if the app has not consumed the last one.
			select {
			case w.onChange <- pending:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err)
		}
	}
}

// matches reports writes, creates and renames onto the watched file.
// Removal alone is ignored; an editor that saves by rename produces a
// Create for the new inode.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path != "" && filepath.Clean(ev.Name) == w.path
}
