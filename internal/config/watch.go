// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to fn. A reload that fails to parse or validate is passed as an
// error, and the caller keeps its previous config.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temp file over the original are seen. Removing the
// file does not trigger a reload. Watch returns once
// the watcher is set up; watching stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					debounce = time.After(watchDebounce)
				}

			case <-debounce:
				debounce = nil
				fn(Load(path))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("config watcher: %w", err))
			}
		}
	}()

	return nil
}
