package rulepack

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for a burst of file
// events to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a rule pack into a Holder whenever the file changes.
// A pack that fails to load is logged and the previous engines stay in
// effect.
type Watcher struct {
	path    string
	holder  *Holder
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	// Debounce coalesces events arriving within the window into one
	// reload. Set before Start; zero means DefaultDebounce.
	Debounce time.Duration

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)
}

// NewWatcher creates a watcher for path. Start must be called to begin
// watching.
func NewWatcher(path string, holder *Holder, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("rule pack path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving rule pack path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating rule pack watcher: %w", err)
	}
	return &Watcher{
		path:    abs,
		holder:  holder,
		logger:  logger,
		watcher: fsw,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the pack's directory, so editors that replace the file by
// rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.started = true
	go w.run(ctx)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	if w.started {
		<-w.done
	}
}

// Reload loads the pack and swaps it into the holder.
func (w *Watcher) Reload() error {
	engines, err := LoadEngines(w.path, w.logger)
	if err != nil {
		w.logger.Warn("rule pack reload failed, keeping previous rules",
			zap.String("path", w.path),
			zap.Error(err),
		)
	} else {
		w.holder.Store(engines)
		w.logger.Info("rule pack reloaded", zap.String("path", w.path))
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			_ = w.Reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rule pack watcher error", zap.Error(err))
		}
	}
}
