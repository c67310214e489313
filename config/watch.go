package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file on write events. A cooldown absorbs the
// bursts editors and atomic-save tools produce.
type Watcher struct {
	path     string
	cooldown time.Duration
	log      *zap.Logger
	fsw      *fsnotify.Watcher

	mu         sync.Mutex
	lastReload time.Time
}

// NewWatcher creates a watcher for path. log may be nil.
func NewWatcher(path string, cooldown time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cooldown <= 0 {
		cooldown = time.Second
	}
	return &Watcher{path: path, cooldown: cooldown, log: log, fsw: fsw}, nil
}

// Run blocks until ctx is done, invoking onUpdate with each config that
// reloads and validates cleanly. Invalid intermediate states are logged
// and skipped; the previous config stays live.
func (w *Watcher) Run(ctx context.Context, onUpdate func(EngineConfig)) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.pastCooldown() {
				continue
			}
			cfg, err := LoadWithEnvOverrides(w.path)
			if err != nil {
				w.log.Warn("config reload rejected", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.log.Info("config reloaded", zap.String("path", w.path))
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) pastCooldown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if now.Sub(w.lastReload) < w.cooldown {
		return false
	}
	w.lastReload = now
	return true
}
