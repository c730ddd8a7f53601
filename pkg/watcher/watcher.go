// Package watcher provides recursive source watching for watch mode
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crucible-build/crucible/pkg/logger"
)

// defaultExclusions are path segments that never trigger a rerun: build
// artifacts and VCS metadata churn during the run itself.
var defaultExclusions = []string{"target", ".git", "node_modules"}

// Watcher watches a workspace tree recursively and invokes a callback once
// per settled batch of changes. A burst of events within the settling window
// collapses into a single callback.
type Watcher struct {
	watcher    *fsnotify.Watcher
	logger     logger.Logger
	exclusions []string
	settling   time.Duration

	mu          sync.Mutex
	lastEventAt time.Time
	pending     bool
}

// New creates a watcher with the default settling delay.
func New(log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:    fw,
		logger:     log,
		exclusions: defaultExclusions,
		settling:   500 * time.Millisecond,
	}, nil
}

// SetSettlingDelay sets the delay for event settling
func (w *Watcher) SetSettlingDelay(delay time.Duration) {
	w.mu.Lock()
	w.settling = delay
	w.mu.Unlock()
}

// Close closes the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch watches root recursively and calls onChange after each settled batch
// of changes. It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, root string, onChange func()) error {
	if err := w.addTree(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w.logger.Info("Watching for changes", logger.WithField("root", root))

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if w.isExcluded(event.Name) {
				continue
			}

			// New directories join the watch set.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory",
							logger.WithField("path", event.Name),
							logger.WithField("error", err))
					}
				}
			}

			w.mu.Lock()
			w.lastEventAt = time.Now()
			w.pending = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logger.WithField("error", err))

		case <-ticker.C:
			w.mu.Lock()
			settled := w.pending && time.Since(w.lastEventAt) >= w.settling
			if settled {
				w.pending = false
			}
			w.mu.Unlock()

			if settled {
				onChange()
			}
		}
	}
}

// addTree adds dir and all non-excluded subdirectories to the watch set.
func (w *Watcher) addTree(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if w.isExcluded(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch directory",
					logger.WithField("path", path),
					logger.WithField("error", err))
			}
		}

		return nil
	})
}

func (w *Watcher) isExcluded(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, excluded := range w.exclusions {
			if part == excluded {
				return true
			}
		}
	}
	return false
}
