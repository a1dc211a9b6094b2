package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// RulesWatcher watches a planner rules file and invokes a callback when it
// changes, so a long-running host can pick up edited decomposition rules
// without a restart.
type RulesWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchRules starts watching the rules file at path. onChange runs on every
// write or create of the file; it must be safe to call from another goroutine.
func WatchRules(path string, onChange func()) (*RulesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rules watcher: %w", err)
	}

	// Watch the directory: editors replace the file on save, which would
	// drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch rules directory: %w", err)
	}

	rw := &RulesWatcher{
		path:    path,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go rw.loop(onChange)
	return rw, nil
}

func (rw *RulesWatcher) loop(onChange func()) {
	for {
		select {
		case <-rw.done:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(rw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case <-rw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Close stops the watcher.
func (rw *RulesWatcher) Close() {
	close(rw.done)
	rw.watcher.Close()
}
