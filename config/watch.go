package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file and delivers freshly loaded, validated
// configs to a callback. A config that fails validation is dropped; the
// running agent keeps its current one. The callback receives a value, never
// a shared pointer, so the watcher cannot mutate a live engine.
type Watcher struct {
	Path     string
	Cooldown time.Duration // min interval between reloads, debounces editor save storms
}

// Start blocks until ctx is cancelled, invoking onUpdate for each valid
// reload. Errors creating the underlying watcher are returned immediately.
func (w Watcher) Start(ctx context.Context, onUpdate func(AgentConfig)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors replace files on save, which drops the
	// watch if it points at the file itself.
	dir := filepath.Dir(w.Path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cooldown := w.Cooldown
	if cooldown <= 0 {
		cooldown = time.Second
	}
	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.Path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < cooldown {
				continue
			}
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				continue
			}
			lastReload = time.Now()
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}
