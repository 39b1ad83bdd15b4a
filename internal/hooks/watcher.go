package hooks

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a hooks file for changes and invokes a callback so the
// owner can reload the registry. The callback runs on the watcher goroutine;
// owners on an event loop should post the reload there.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc

	onChange func()
}

// NewWatcher creates a watcher for path. Call Start in a goroutine.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		watcher:  watcher,
		ctx:      ctx,
		cancel:   cancel,
		onChange: onChange,
	}, nil
}

// Start begins watching. The containing directory is watched rather than the
// file itself so atomic rewrites (tmp + rename) are seen.
func (w *Watcher) Start() {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		hookLog.Warn("hooks_watch_mkdir_failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		hookLog.Warn("hooks_watch_add_failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}

	// Debounce timer: coalesce rapid file events into one reload.
	var debounce *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				hookLog.Debug("hooks_file_changed", slog.String("path", w.path))
				w.onChange()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			hookLog.Warn("hooks_watch_error", slog.String("error", err.Error()))
		}
	}
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
}
