package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/neige/config"
)

// keepGlobals 测试结束时恢复全局 provider
func keepGlobals(t *testing.T) {
	t.Helper()
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func enabledConfig(name string) config.TelemetryConfig {
	return config.TelemetryConfig{
		Enabled:        true,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    name,
		SampleRate:     1,
		MetricInterval: time.Hour,
	}
}

// shutdownQuietly 没有 collector 时导出会失败，只要求按时返回
func shutdownQuietly(t *testing.T, p *Providers) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NotPanics(t, func() { _ = p.Shutdown(ctx) })
}

// --- Init ---

func TestInit_DisabledKeepsNoop(t *testing.T) {
	keepGlobals(t)

	p, err := Init(config.TelemetryConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "neige.connection")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestInit_NilLogger(t *testing.T) {
	keepGlobals(t)

	p, err := Init(config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
}

func TestInit_EnabledInstallsSDKProviders(t *testing.T) {
	keepGlobals(t)

	p, err := Init(enabledConfig("neige-test"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { shutdownQuietly(t, p) })

	assert.True(t, p.Enabled())
	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.IsType(t, &sdkmetric.MeterProvider{}, otel.GetMeterProvider())

	_, span := Tracer().Start(context.Background(), "neige.connection")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestInit_InstrumentsCreatedBeforeInitExport(t *testing.T) {
	keepGlobals(t)

	// 全局 meter 先于 Init 创建的仪表在 Init 后转发到 SDK
	inst, err := NewInstruments(nil)
	require.NoError(t, err)

	p, err := Init(enabledConfig("neige-early"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { shutdownQuietly(t, p) })

	assert.NotPanics(t, func() { inst.ConnAccepted(context.Background()) })
}

// --- Providers ---

func TestProviders_ShutdownNil(t *testing.T) {
	var p *Providers
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviders_ShutdownReal(t *testing.T) {
	keepGlobals(t)

	p, err := Init(enabledConfig("neige-shutdown"), zaptest.NewLogger(t))
	require.NoError(t, err)
	shutdownQuietly(t, p)
}

func TestBuildVersion(t *testing.T) {
	assert.Equal(t, "dev", buildVersion())
}
