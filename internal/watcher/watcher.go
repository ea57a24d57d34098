// Package watcher provides fsnotify-backed, debounced change
// notification for cmd/monitor-preview's chart-file hot reload.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// chartExtensions lists the chart-file suffixes the preview tool reloads
// on save.
var chartExtensions = map[string]bool{
	".bin": true, // already-parsed chart, as served by chartcache
	".pec": true,
	".rpe": true,
	".pgr": true,
	".pbc": true,
}

// IsChartFile reports whether a file path has a recognized chart
// extension.
func IsChartFile(path string) bool {
	return chartExtensions[filepath.Ext(path)]
}

// RebuildFunc is called with a list of changed file paths.
type RebuildFunc func(changed []string) error

// Watcher watches chart files for changes and triggers a debounced
// reload.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debounce  time.Duration
	onRebuild RebuildFunc
	done      chan struct{}
}

// New creates a new Watcher.
func New(debounce time.Duration, onRebuild RebuildFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:       fsw,
		debounce:  debounce,
		onRebuild: onRebuild,
		done:      make(chan struct{}),
	}, nil
}

// WatchDir recursively watches a directory for chart file changes.
func (w *Watcher) WatchDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// WatchFile watches a single chart file's directory (fsnotify has no
// single-file mode on most platforms). Events are not filtered down to
// path: a change to any chart file in that directory is reported.
func (w *Watcher) WatchFile(path string) error {
	return w.fsw.Add(filepath.Dir(path))
}

// Start begins watching for file changes. Blocks until Stop is called.
func (w *Watcher) Start() {
	var mu sync.Mutex
	pending := map[string]struct{}{}
	var timer *time.Timer

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !IsChartFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			pending[event.Name] = struct{}{}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				files := make([]string, 0, len(pending))
				for f := range pending {
					files = append(files, f)
				}
				pending = map[string]struct{}{}
				mu.Unlock()

				if err := w.onRebuild(files); err != nil {
					log.Printf("reload error: %v", err)
				}
			})
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// Stop signals the watcher to stop.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}
