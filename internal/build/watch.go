package build

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds when files under the milestone store change. Rapid save
// bursts are debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	rebuild  func() error
	log      func(format string, args ...interface{})
	stopCh   chan struct{}
}

// NewWatcher watches dir (and its immediate subdirectories) and calls
// rebuild after changes settle.
func NewWatcher(dir string, rebuild func() error, log func(format string, args ...interface{})) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		debounce: 500 * time.Millisecond,
		rebuild:  rebuild,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fw.Add(filepath.Join(dir, entry.Name())); err != nil {
				fw.Close()
				return nil, fmt.Errorf("watch %s: %w", entry.Name(), err)
			}
		}
	}

	return w, nil
}

// Watch blocks, rebuilding after each settled change, until Stop is called.
func (w *Watcher) Watch() error {
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-w.stopCh:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log("change detected: %s", event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log("watch error: %v", err)
		case <-pending:
			if err := w.rebuild(); err != nil {
				// Keep watching; a broken intermediate state will often be
				// fixed by the next save.
				w.log("rebuild failed: %v", err)
			}
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}
