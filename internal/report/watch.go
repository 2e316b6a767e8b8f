package report

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch notifies on the returned channel whenever a report document is
// created, removed, or rewritten in the store directory, until ctx is
// cancelled. The TUI report manager uses this to refresh its list when
// the archive changes underneath it.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".json") {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
					// Coalesce bursts: a pending notification is enough.
					select {
					case changed <- struct{}{}:
					default:
					}
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are non-fatal; keep watching.
			}
		}
	}()
	return changed, nil
}
