// Package watch reruns a build when any of its input files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses editor save bursts into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls a function after watched files settle.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger
}

// New watches the given files. Empty paths are ignored.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{files: make(map[string]bool), debounce: debounce, logger: logger}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
	}
	if len(w.files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	return w, nil
}

// Files returns the absolute paths being watched.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Run blocks until ctx is done, calling fn once per settled burst of
// changes. Errors from fn are logged and watching continues.
//
// Parent directories are watched rather than the files themselves, so
// atomic rename-on-save is seen as a create of the watched name.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if err := fn(ctx); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}
