// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces rapid successive writes to the same document.
// Atomic renames produce a Create and a Write back to back.
const watchDebounce = 200 * time.Millisecond

// WatchDataDir watches the store's data directory and reloads the affected
// observable state when a document changes on disk (external edit, another
// process). Runs until ctx is canceled. The orchestrator's own writes also
// trigger reloads, which is harmless: reloading is idempotent.
func (o *Orchestrator) WatchDataDir(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(o.store.BaseDir()); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		defer func() {
			if r := recover(); r != nil {
				o.log.Error().Interface("panic", r).Msg("data watcher panicked")
			}
		}()

		pending := map[string]time.Time{}
		ticker := time.NewTicker(watchDebounce)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				pending[filepath.Base(event.Name)] = time.Now()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				o.log.Warn().Err(err).Msg("data watcher error")

			case now := <-ticker.C:
				for name, at := range pending {
					if now.Sub(at) < watchDebounce {
						continue
					}
					delete(pending, name)
					o.reloadDocument(name)
				}
			}
		}
	}()

	return nil
}

// reloadDocument refreshes the in-memory state backed by one document.
func (o *Orchestrator) reloadDocument(name string) {
	switch name {
	case "config.json":
		cfg := o.store.GetConfig()
		o.mu.Lock()
		o.config = cfg
		o.mu.Unlock()
		o.publish(EventConfig)
	case "history.json":
		o.reloadStatistics()
	case "history_items.json":
		o.LoadHistory()
	}
}
