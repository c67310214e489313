package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDeliversReload(t *testing.T) {
	path := writeConfig(t, sampleYAML)

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan EngineConfig, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(cfg EngineConfig) {
			select {
			case got <- cfg:
			default:
			}
		})
	}()

	// Give the watch loop a beat before touching the file.
	time.Sleep(100 * time.Millisecond)
	updated := sampleYAML + "\nmetrics:\n  addr: \":7070\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-got:
		assert.Equal(t, ":7070", cfg.Metrics.Addr)
	case <-ctx.Done():
		t.Fatal("no reload delivered")
	}
	cancel()
	<-done
}

func TestWatcherKeepsOldConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, sampleYAML)

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := make(chan EngineConfig, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(cfg EngineConfig) { got <- cfg })
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("env: \"\"\n"), 0o644))

	// The invalid write must not reach the callback.
	select {
	case cfg := <-got:
		t.Fatalf("unexpected reload delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
	cancel()
	<-done
}

func TestNewWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher("/nonexistent/engine.yaml", time.Second, nil)
	assert.Error(t, err)
}
