package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the reloader waits after the last write.
const DefaultDebounce = 500 * time.Millisecond

// Reloader watches the config file for changes and triggers hot-reload.
type Reloader struct {
	watcher  *fsnotify.Watcher
	server   *Server
	paths    []string
	debounce time.Duration
}

// NewReloader creates a file watcher for the given paths. Paths that do not
// exist are skipped.
func NewReloader(server *Server, paths []string, debounce time.Duration) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
		watched = append(watched, p)
	}

	return &Reloader{
		watcher:  watcher,
		server:   server,
		paths:    watched,
		debounce: debounce,
	}, nil
}

// Paths returns the files being watched.
func (r *Reloader) Paths() []string {
	return r.paths
}

// Run watches for file changes and reloads the rules. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	logger := r.server.logger

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(r.debounce, func() {
					if err := r.server.Reload(); err != nil {
						logger.Error("hot-reload failed", "error", err)
					} else {
						logger.Info("hot-reload: rules reloaded", "file", event.Name)
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)
		}
	}
}
