// Package watcher reports new media files under a source tree, batched
// after a quiet period, so a long-running process can re-run the organizer.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/snapsort/pkg/snapsort/logging"
	"github.com/jamesainslie/snapsort/pkg/snapsort/media"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree recursively. Symlinks are not followed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	skip   []string
	paths  map[string]bool
	mu     sync.Mutex
	closed bool
}

// New creates a watcher that never descends into the skip directories.
func New(skip ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs := make([]string, 0, len(skip))
	for _, s := range skip {
		if a, err := filepath.Abs(s); err == nil {
			abs = append(abs, a)
		}
	}
	return &Watcher{fsw: fsw, skip: abs, paths: make(map[string]bool)}, nil
}

// Watch adds root and every directory below it.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: absRoot, Err: fs.ErrInvalid}
	}
	_, err = w.addTree(absRoot)
	return err
}

// Paths returns the watched directories, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// addTree watches dir and its subdirectories and returns the media files
// already present in them.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if w.skipped(path) {
				return filepath.SkipDir
			}
			return w.addWatch(path)
		}
		if d.Type().IsRegular() && media.IsCandidate(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

func (w *Watcher) skipped(path string) bool {
	for _, s := range w.skip {
		if path == s {
			return true
		}
	}
	return false
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) dropTree(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path := range w.paths {
		if path == root || isSubPath(path, root) {
			_ = w.fsw.Remove(path)
			delete(w.paths, path)
		}
	}
}

// Run delivers batches of changed media paths to onBatch once no new event
// has arrived for debounce. onBatch runs on the event loop, so events that
// arrive meanwhile are collected into the next batch. Run returns when ctx
// is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onBatch func(ctx context.Context, paths []string)) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := logging.Get("watcher")

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			changed := w.handleEvent(event)
			if len(changed) == 0 {
				continue
			}
			for _, p := range changed {
				pending[p] = true
			}
			timer.Reset(debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			log.Debug("batch ready", "files", len(batch))
			onBatch(ctx, batch)
		}
	}
}

// handleEvent updates the watch set and returns the media files the event
// makes worth organizing.
func (w *Watcher) handleEvent(event fsnotify.Event) []string {
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Lstat(event.Name)
		if err != nil || info.Mode()&fs.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			if w.skipped(event.Name) {
				return nil
			}
			found, _ := w.addTree(event.Name)
			return found
		}
		if info.Mode().IsRegular() && media.IsCandidate(event.Name) {
			return []string{event.Name}
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.dropTree(event.Name)
	}
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
