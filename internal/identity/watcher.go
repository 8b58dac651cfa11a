// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the identity store when another process edits the file,
// so a sign-out from a second terminal takes effect here too.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onChange func(Identity, error)
}

// Watch starts watching the store's file and invokes onChange with the
// reloaded record after every change. The callback also fires with
// ErrNotSignedIn when the file is removed. Watching stops when ctx is done.
func Watch(ctx context.Context, store *Store, onChange func(Identity, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the parent directory: the file itself may not exist yet, and
	// atomic writes replace it via rename, which drops a direct file watch.
	dir := filepath.Dir(store.Path())
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{store: store, watcher: fsw, onChange: onChange}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.watcher.Close()
	target := filepath.Clean(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id, err := w.store.Reload()
			w.onChange(id, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("identity watcher error: %v", err)
		}
	}
}
