package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualInstruments(t *testing.T) (*Instruments, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	inst, err := NewInstruments(mp)
	require.NoError(t, err)
	return inst, reader
}

// collectMetric 读取一次并按名称取出指标
func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not collected", name)
	return metricdata.Metrics{}
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInstruments_Counters(t *testing.T) {
	inst, reader := newManualInstruments(t)
	ctx := context.Background()

	inst.ConnAccepted(ctx)
	inst.ConnAccepted(ctx)
	inst.ParseError(ctx, "bad_request_line")

	assert.Equal(t, int64(2), sumOf(t, collectMetric(t, reader, "neige.connections.accepted")))

	m := collectMetric(t, reader, "neige.request.parse_errors")
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	kind, ok := sum.DataPoints[0].Attributes.Value("error.type")
	require.True(t, ok)
	assert.Equal(t, "bad_request_line", kind.AsString())
}

func TestInstruments_ActiveConnections(t *testing.T) {
	inst, reader := newManualInstruments(t)
	ctx := context.Background()

	inst.ConnStarted(ctx)
	inst.ConnStarted(ctx)
	assert.Equal(t, int64(2), sumOf(t, collectMetric(t, reader, "neige.connections.active")))

	inst.ConnEnded(ctx)
	inst.ConnEnded(ctx)
	assert.Equal(t, int64(0), sumOf(t, collectMetric(t, reader, "neige.connections.active")))
}

func TestInstruments_RequestDuration(t *testing.T) {
	inst, reader := newManualInstruments(t)

	inst.RequestServed(context.Background(), "GET", "1.1", "ok", 20*time.Millisecond)

	m := collectMetric(t, reader, "neige.connection.duration")
	assert.Equal(t, "s", m.Unit)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 0.02, dp.Sum, 1e-9)
	method, _ := dp.Attributes.Value("http.request.method")
	assert.Equal(t, "GET", method.AsString())
	outcome, _ := dp.Attributes.Value("neige.outcome")
	assert.Equal(t, "ok", outcome.AsString())
}

func TestInstruments_NilSafe(t *testing.T) {
	var inst *Instruments
	ctx := context.Background()
	assert.NotPanics(t, func() {
		inst.ConnAccepted(ctx)
		inst.ParseError(ctx, "no_target_line")
		inst.ConnStarted(ctx)
		inst.ConnEnded(ctx)
		inst.RequestServed(ctx, "GET", "1.1", "ok", time.Millisecond)
	})
}
