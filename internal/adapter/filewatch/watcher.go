// Package filewatch turns changes to the input CSV files into render triggers.
package filewatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// Watcher emits a trigger once the watched files have been quiet for the
// debounce period. A burst of writes produces a single trigger.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	triggers chan struct{}

	mu    sync.Mutex
	timer clockwork.Timer
}

// New watches the given file paths. Their parent directories are watched
// rather than the files, so editors that save via rename are still seen.
func New(paths []string, debounce time.Duration, clock clockwork.Clock, logger *slog.Logger) (*Watcher, error) {
	w := newWatcher(paths, debounce, clock, logger)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		dirs[filepath.Dir(filepath.Clean(p))] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw
	return w, nil
}

func newWatcher(paths []string, debounce time.Duration, clock clockwork.Clock, logger *slog.Logger) *Watcher {
	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		files[filepath.Clean(p)] = struct{}{}
	}
	return &Watcher{
		files:    files,
		debounce: debounce,
		clock:    clock,
		logger:   logger,
		triggers: make(chan struct{}, 1),
	}
}

// Triggers delivers one value per settled change. Pending triggers are
// coalesced when the consumer is busy.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// Run forwards file events until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	defer w.stopTimer()

	w.logger.Info("file watcher started", "files", len(w.files), "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if _, ok := w.files[filepath.Clean(ev.Name)]; !ok {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.logger.Debug("input file changed", "file", ev.Name, "op", ev.Op.String())
	w.schedule()
}

// schedule restarts the quiet-period timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case w.triggers <- struct{}{}:
	default:
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
