package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
	"github.com/fenggwsx/StartupMatch/internal/schedule"
)

// ReloadDelay is the quiet period after the last file event before the
// configuration is reloaded.
const ReloadDelay = 500 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and passes
// the new configuration to registered callbacks.
type Watcher struct {
	path      string
	logger    *zap.Logger
	fs        *fsnotify.Watcher
	reload    *schedule.Func[string]
	mu        sync.RWMutex
	current   Config
	callbacks []func(Config)
}

// NewWatcher watches the directory containing path. Editors that save by
// rename replace the file, so the directory is watched rather than the file.
func NewWatcher(path string, initial Config, logger *zap.Logger, c clock.Clock) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		logger:  logger,
		fs:      fsw,
		current: initial,
	}
	w.reload = schedule.NewFunc(w.reloadConfig, ReloadDelay, schedule.Options{Clock: c})
	return w, nil
}

// OnChange registers fn to receive each configuration that differs from the
// previous one.
func (w *Watcher) OnChange(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.reload.Close()
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("config file changed",
		zap.String("file", event.Name),
		zap.String("op", event.Op.String()),
	)
	w.reload.Call(event.Name)
}

func (w *Watcher) reloadConfig(path string) {
	next, err := LoadFile(path)
	if err != nil {
		w.logger.Error("config reload failed", zap.String("file", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	if equal.Deep(w.current, next) {
		w.mu.Unlock()
		w.logger.Debug("config unchanged after reload")
		return
	}
	w.current = next
	callbacks := slices.Clone(w.callbacks)
	w.mu.Unlock()

	w.logger.Info("config reloaded",
		zap.String("file", path),
		zap.String("log_level", next.Log.Level),
	)
	for _, fn := range callbacks {
		fn(next)
	}
}
