package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval collapses bursts of write events into one callback.
const DebounceInterval = 500 * time.Millisecond

// Watcher re-runs a callback whenever a Mermaid source file is written.
type Watcher struct {
	file     string
	callback func(ctx context.Context) error
	onError  func(error)
	watcher  *fsnotify.Watcher
}

// NewWatcher watches file. Errors from the callback or from fsnotify are
// passed to onError; they never stop the watch.
func NewWatcher(file string, callback func(ctx context.Context) error, onError func(error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Editors often replace files, so watch the directory.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		onError:  onError,
		watcher:  watcher,
	}, nil
}

// Run invokes the callback once, then after every debounced change, until
// ctx is done. It closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(ctx); err != nil {
		w.onError(err)
	}

	debounce := time.NewTimer(DebounceInterval)
	debounce.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, err := filepath.Abs(event.Name); err == nil && p == w.file {
				debounce.Reset(DebounceInterval)
				debounceCh = debounce.C
			}

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(ctx); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(fmt.Errorf("watch error: %w", err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
