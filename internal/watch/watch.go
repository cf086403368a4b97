// Package watch re-runs photo sessions whenever the pipeline file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"photobox/internal/core"
	"photobox/internal/pipeline"
)

// Watcher triggers a session on start and after every config write.
type Watcher struct {
	Runner   *pipeline.Runner
	Debounce time.Duration
	Logger   *slog.Logger
	OnDone   func(*core.Summary)

	mu      sync.Mutex
	pending bool // a change arrived while a session was running
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	// editors replace files on save, so the directory is watched
	cfgPath, err := filepath.Abs(w.Runner.ConfigPath())
	if err != nil {
		return fmt.Errorf("watch: resolve config: %w", err)
	}
	if err := fw.Add(filepath.Dir(cfgPath)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(cfgPath), err)
	}

	w.trigger(ctx, log)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cfgPath || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			log.Debug("watch: config changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch: watcher error", "error", err)
		case <-fire:
			fire = nil
			w.trigger(ctx, log)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, log *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	_, err := w.Runner.Start(ctx, func(sum *core.Summary) { w.done(ctx, log, sum) })
	switch {
	case errors.Is(err, pipeline.ErrSessionRunning):
		w.setPending()
		log.Info("watch: session still running, change queued")
		// the session may have finished before the flag was set
		if !w.Runner.Running() && w.takePending() {
			w.trigger(ctx, log)
		}
	case err != nil:
		log.Error("watch: cannot start session", "error", err)
	}
}

func (w *Watcher) done(ctx context.Context, log *slog.Logger, sum *core.Summary) {
	if w.OnDone != nil {
		w.OnDone(sum)
	}
	if w.takePending() {
		log.Info("watch: running queued change")
		w.trigger(ctx, log)
	}
}

func (w *Watcher) setPending() {
	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
}

// takePending clears the flag and reports whether it was set.
func (w *Watcher) takePending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.pending
	w.pending = false
	return p
}
