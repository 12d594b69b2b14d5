package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// --- Constructor ---

func TestNewReloader_RequiresPath(t *testing.T) {
	_, err := NewReloader(nil, nil)
	assert.Error(t, err)

	_, err = NewReloader(NewLoader(), nil)
	assert.Error(t, err)
}

func TestNewReloader_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	initial := DefaultConfig()
	r, err := NewReloader(NewLoader().WithConfigPath(path), initial)
	require.NoError(t, err)

	assert.Same(t, initial, r.Current())
	assert.Equal(t, time.Second, r.pollInterval)
	assert.Equal(t, 100*time.Millisecond, r.debounceDelay)
	assert.False(t, r.IsRunning())
}

// --- Reload ---

func TestReloader_ReloadInvokesCallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	r, err := NewReloader(NewLoader().WithConfigPath(path), DefaultConfig())
	require.NoError(t, err)

	var got []string
	r.OnReload(func(cfg *Config) { got = append(got, cfg.Log.Level) })

	writeConfig(t, path, "log:\n  level: debug\n")
	cfg, err := r.Reload()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"debug"}, got)
	assert.Same(t, cfg, r.Current())
}

func TestReloader_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	initial := DefaultConfig()
	r, err := NewReloader(NewLoader().WithConfigPath(path), initial)
	require.NoError(t, err)

	called := false
	r.OnReload(func(*Config) { called = true })

	writeConfig(t, path, "log:\n  level: verbose\n")
	_, err = r.Reload()
	assert.Error(t, err)

	writeConfig(t, path, "log: [broken")
	_, err = r.Reload()
	assert.Error(t, err)

	assert.False(t, called)
	assert.Same(t, initial, r.Current())
}

// --- Run ---

func TestReloader_RunDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	r, err := NewReloader(NewLoader().WithConfigPath(path), DefaultConfig(),
		WithPollInterval(10*time.Millisecond),
		WithDebounceDelay(20*time.Millisecond),
		WithReloaderLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)

	var mu sync.Mutex
	var levels []string
	r.OnReload(func(cfg *Config) {
		mu.Lock()
		levels = append(levels, cfg.Log.Level)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	require.Eventually(t, r.IsRunning, time.Second, 5*time.Millisecond)

	writeConfig(t, path, "log:\n  level: error\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "error"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "error", r.Current().Log.Level)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, r.IsRunning())
}

func TestReloader_RunTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "")

	r, err := NewReloader(NewLoader().WithConfigPath(path), DefaultConfig(),
		WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	require.Eventually(t, r.IsRunning, time.Second, 5*time.Millisecond)

	assert.Error(t, r.Run(ctx))

	cancel()
	require.NoError(t, <-done)
}

func TestReloader_ObserveIgnoresRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neige.yaml")
	writeConfig(t, path, "a: 1\n")

	r, err := NewReloader(NewLoader().WithConfigPath(path), DefaultConfig())
	require.NoError(t, err)
	assert.False(t, r.observe())

	require.NoError(t, os.Remove(path))
	assert.False(t, r.observe())

	writeConfig(t, path, "a: 1\n")
	assert.True(t, r.observe())
}
