package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// outcomeKey sink 调用结果: ok, error, panic
const outcomeKey = attribute.Key("neige.outcome")

// Instruments 引擎的 OTel 指标仪表。所有方法对 nil 接收者安全。
type Instruments struct {
	accepted    metric.Int64Counter
	parseErrors metric.Int64Counter
	active      metric.Int64UpDownCounter
	duration    metric.Float64Histogram
}

// NewInstruments 在 mp 上创建仪表，mp 为 nil 时使用全局 MeterProvider。
// 全局 provider 在 Init 之前创建的仪表会在 Init 之后开始导出。
func NewInstruments(mp metric.MeterProvider) (*Instruments, error) {
	meter := Meter()
	if mp != nil {
		meter = mp.Meter(ScopeName, metric.WithInstrumentationVersion(buildVersion()))
	}

	var (
		inst Instruments
		err  error
	)
	if inst.accepted, err = meter.Int64Counter("neige.connections.accepted",
		metric.WithDescription("Connections accepted by the engine"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("create accepted counter: %w", err)
	}
	if inst.parseErrors, err = meter.Int64Counter("neige.request.parse_errors",
		metric.WithDescription("Request heads rejected by the parser"),
		metric.WithUnit("{error}")); err != nil {
		return nil, fmt.Errorf("create parse error counter: %w", err)
	}
	if inst.active, err = meter.Int64UpDownCounter("neige.connections.active",
		metric.WithDescription("Connections currently owned by a worker"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("create active counter: %w", err)
	}
	if inst.duration, err = meter.Float64Histogram("neige.connection.duration",
		metric.WithDescription("Time from dispatch to the sink returning"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30)); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return &inst, nil
}

// ConnAccepted 记录一次成功的 accept
func (i *Instruments) ConnAccepted(ctx context.Context) {
	if i == nil {
		return
	}
	i.accepted.Add(ctx, 1)
}

// ParseError 按错误类别记录请求头解析失败
func (i *Instruments) ParseError(ctx context.Context, kind string) {
	if i == nil {
		return
	}
	i.parseErrors.Add(ctx, 1, metric.WithAttributes(semconv.ErrorTypeKey.String(kind)))
}

// ConnStarted worker 开始处理连接
func (i *Instruments) ConnStarted(ctx context.Context) {
	if i == nil {
		return
	}
	i.active.Add(ctx, 1)
}

// ConnEnded worker 结束处理连接
func (i *Instruments) ConnEnded(ctx context.Context) {
	if i == nil {
		return
	}
	i.active.Add(ctx, -1)
}

// RequestServed 记录一次 sink 调用的耗时与结果
func (i *Instruments) RequestServed(ctx context.Context, method, version, outcome string, d time.Duration) {
	if i == nil {
		return
	}
	i.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.NetworkProtocolVersionKey.String(version),
		outcomeKey.String(outcome),
	))
}
