package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watch syncs dir once and then again whenever files in it change, until
// ctx is cancelled. A kind whose last file is removed ends up empty.
// Bursts of events within debounce trigger a single re-import. Import
// errors are logged and watching continues.
func (l *Loader) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	l.reimport(ctx, dir)
	l.logger.Info("watching directory", "dir", dir, "debounce", debounce)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watch error", "dir", dir, "error", err)
		case <-timer.C:
			l.reimport(ctx, dir)
		}
	}
}

func (l *Loader) reimport(ctx context.Context, dir string) {
	if _, err := l.SyncDirectory(ctx, dir); err != nil && ctx.Err() == nil {
		l.logger.Warn("directory import failed", "dir", dir, "error", err)
	}
}

func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
