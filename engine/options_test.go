package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/neige/config"
	"github.com/BaSui01/neige/internal/pool"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	require.NoError(t, o.validate())

	assert.Equal(t, 1, o.capacity)
	assert.False(t, o.obstructing)
	assert.Equal(t, ShutdownDrain, o.shutdownPolicy)
	assert.Equal(t, PanicRecover, o.panicPolicy)
	assert.Equal(t, 5*time.Millisecond, o.pollInterval)
	assert.Equal(t, 30*time.Second, o.shutdownTimeout)
	assert.Equal(t, pool.DefaultBufferSize, o.bufferSize)
	assert.Zero(t, o.errorBuffer)
	assert.NotNil(t, o.logger)
	assert.Nil(t, o.meterProvider)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr error
	}{
		{name: "zero capacity", opt: WithPoolCapacity(0), wantErr: pool.ErrInvalidCapacity},
		{name: "negative capacity", opt: WithPoolCapacity(-3), wantErr: pool.ErrInvalidCapacity},
		{name: "zero buffer", opt: WithBufferSize(0)},
		{name: "negative max line", opt: WithMaxHeaderLineBytes(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			err := o.validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestOptions_PollIntervalClamped(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second, time.Microsecond} {
		o := defaultOptions()
		WithPollInterval(d)(&o)
		require.NoError(t, o.validate())
		assert.Equal(t, MinPollInterval, o.pollInterval, "poll %v", d)
	}

	o := defaultOptions()
	WithPollInterval(20 * time.Millisecond)(&o)
	require.NoError(t, o.validate())
	assert.Equal(t, 20*time.Millisecond, o.pollInterval)
}

func TestOptions_NilLoggerReplaced(t *testing.T) {
	o := defaultOptions()
	WithLogger(nil)(&o)
	require.NoError(t, o.validate())
	assert.NotNil(t, o.logger)
}

func TestWithConfig(t *testing.T) {
	cfg := config.EngineConfig{
		PoolCapacity:       4,
		Obstructing:        true,
		ShutdownPolicy:     "abandon",
		PanicPolicy:        "crash",
		PollInterval:       10 * time.Millisecond,
		ShutdownTimeout:    time.Second,
		BufferSize:         4096,
		MaxHeaderLineBytes: 1024,
		ErrorBuffer:        8,
	}

	o := defaultOptions()
	WithConfig(cfg)(&o)
	require.NoError(t, o.validate())

	assert.Equal(t, 4, o.capacity)
	assert.True(t, o.obstructing)
	assert.Equal(t, ShutdownAbandon, o.shutdownPolicy)
	assert.Equal(t, PanicCrash, o.panicPolicy)
	assert.Equal(t, 10*time.Millisecond, o.pollInterval)
	assert.Equal(t, time.Second, o.shutdownTimeout)
	assert.Equal(t, 4096, o.bufferSize)
	assert.Equal(t, 1024, o.maxHeaderLine)
	assert.Equal(t, 8, o.errorBuffer)
}

func TestWithConfig_ZeroShutdownTimeoutKeepsDefault(t *testing.T) {
	cfg := config.DefaultConfig().Engine
	cfg.ShutdownTimeout = 0

	o := defaultOptions()
	WithConfig(cfg)(&o)
	require.NoError(t, o.validate())
	assert.Equal(t, 30*time.Second, o.shutdownTimeout)
}

func TestWithConfig_BadPolicies(t *testing.T) {
	cfg := config.DefaultConfig().Engine
	cfg.ShutdownPolicy = "later"
	o := defaultOptions()
	WithConfig(cfg)(&o)
	assert.ErrorContains(t, o.validate(), "shutdown policy")

	cfg = config.DefaultConfig().Engine
	cfg.PanicPolicy = "ignore"
	o = defaultOptions()
	WithConfig(cfg)(&o)
	assert.ErrorContains(t, o.validate(), "panic policy")
}

func TestParsePanicPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    PanicPolicy
		wantErr bool
	}{
		{in: "", want: PanicRecover},
		{in: "recover", want: PanicRecover},
		{in: "crash", want: PanicCrash},
		{in: "Crash", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePanicPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got.String(), map[PanicPolicy]string{PanicRecover: "recover", PanicCrash: "crash"}[got])
	}
	assert.Equal(t, "unknown", PanicPolicy(9).String())
}
