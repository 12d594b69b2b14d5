package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/neige/config"
	"github.com/BaSui01/neige/testutil"
	"github.com/BaSui01/neige/testutil/fixtures"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestInitLogger(t *testing.T) {
	cfg := config.DefaultLogConfig()
	cfg.Level = "warn"
	cfg.OutputPaths = []string{"stderr"}

	logger, level := initLogger(cfg)
	require.NotNil(t, logger)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestApp_ApplyConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	a := &App{cfg: cfg, logger: zaptest.NewLogger(t), level: level}

	next := config.DefaultConfig()
	next.Log.Level = "debug"
	a.applyConfig(next)
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestApp_Run(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.Port = 0
	cfg.Engine.PollInterval = time.Millisecond
	cfg.Ops.Addr = "127.0.0.1:0"
	cfg.Ops.MetricsNamespace = "neige_cmd_test"

	logger := zaptest.NewLogger(t)
	a, err := NewApp(cfg, config.NewLoader(), logger, zap.NewAtomicLevel())
	require.NoError(t, err)
	assert.Nil(t, a.reloader, "no config file, no reloader")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	testutil.AssertEventuallyTrue(t, func() bool {
		return a.engine.Addr() != nil && a.ops.Addr() != "127.0.0.1:0"
	}, 5*time.Second)

	resp := testutil.RoundTrip(t, a.engine.Addr().String(), fixtures.GetRoot)
	assert.Contains(t, resp, "GET / HTTP/1.1")

	r, err := http.Get("http://" + a.ops.Addr() + "/ready")
	require.NoError(t, err)
	_ = r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	cancel()
	err, ok := testutil.WaitForChannel(done, 10*time.Second)
	require.True(t, ok, "Run did not return")
	assert.NoError(t, err)

	assert.ErrorIs(t, a.engineReady(context.Background()), errEngineStopped)
}
