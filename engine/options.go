package engine

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/BaSui01/neige/config"
	"github.com/BaSui01/neige/internal/metrics"
	"github.com/BaSui01/neige/internal/pool"
)

// ShutdownPolicy 决定关闭时排队任务的去向
type ShutdownPolicy = pool.ShutdownPolicy

const (
	// ShutdownDrain 执行完所有排队任务后退出
	ShutdownDrain = pool.ShutdownDrain
	// ShutdownAbandon 丢弃排队任务并关闭其连接，执行中的任务照常完成
	ShutdownAbandon = pool.ShutdownAbandon
)

// PanicPolicy 决定 sink panic 的处理方式
type PanicPolicy int

const (
	// PanicRecover 捕获 panic，记录日志与指标并关闭连接
	PanicRecover PanicPolicy = iota
	// PanicCrash 不捕获 panic，进程随之退出
	PanicCrash
)

// String 返回策略名称
func (p PanicPolicy) String() string {
	switch p {
	case PanicRecover:
		return "recover"
	case PanicCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// ParsePanicPolicy 解析配置中的策略名称
func ParsePanicPolicy(s string) (PanicPolicy, error) {
	switch s {
	case "", "recover":
		return PanicRecover, nil
	case "crash":
		return PanicCrash, nil
	default:
		return PanicRecover, fmt.Errorf("unknown panic policy %q", s)
	}
}

// MinPollInterval accept 轮询间隔下限，更小的值按此处理
const MinPollInterval = time.Millisecond

type options struct {
	capacity        int
	obstructing     bool
	logger          *zap.Logger
	metrics         *metrics.Collector
	meterProvider   metric.MeterProvider
	shutdownPolicy  ShutdownPolicy
	panicPolicy     PanicPolicy
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	bufferSize      int
	maxHeaderLine   int
	errorBuffer     int

	err error
}

func defaultOptions() options {
	return options{
		capacity:        1,
		logger:          zap.NewNop(),
		shutdownPolicy:  ShutdownDrain,
		panicPolicy:     PanicRecover,
		pollInterval:    5 * time.Millisecond,
		shutdownTimeout: 30 * time.Second,
		bufferSize:      pool.DefaultBufferSize,
	}
}

func (o *options) validate() error {
	if o.err != nil {
		return o.err
	}
	if o.capacity < 1 {
		return pool.ErrInvalidCapacity
	}
	if o.bufferSize < 1 {
		return fmt.Errorf("engine: buffer size must be at least 1, got %d", o.bufferSize)
	}
	if o.maxHeaderLine < 0 {
		return fmt.Errorf("engine: max header line bytes must not be negative, got %d", o.maxHeaderLine)
	}
	if o.pollInterval < MinPollInterval {
		o.pollInterval = MinPollInterval
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return nil
}

// Option 配置 Server
type Option func(*options)

// WithPoolCapacity 设置 worker 数量，至少为 1
func WithPoolCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithObstructing 为 true 时 Launch 在调用方 goroutine 上运行 accept 循环，
// 直到 Server 关闭才返回
func WithObstructing(b bool) Option {
	return func(o *options) { o.obstructing = b }
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics 设置指标收集器，nil 表示不记录
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithMeterProvider 设置 OTel 指标的 MeterProvider，默认使用全局 provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithShutdownPolicy 设置关闭策略
func WithShutdownPolicy(p ShutdownPolicy) Option {
	return func(o *options) { o.shutdownPolicy = p }
}

// WithPanicPolicy 设置 sink panic 策略
func WithPanicPolicy(p PanicPolicy) Option {
	return func(o *options) { o.panicPolicy = p }
}

// WithPollInterval 设置 accept 轮询间隔，即 Close 后 acceptor 退出的最长延迟
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// WithShutdownTimeout 设置关闭时等待 worker 的最长时间
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// WithBufferSize 设置每个连接的读缓冲大小
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithMaxHeaderLineBytes 限制单个请求头行的长度，0 表示不限制
func WithMaxHeaderLineBytes(n int) Option {
	return func(o *options) { o.maxHeaderLine = n }
}

// WithErrorBuffer 启用容量为 n 的 Errors 通道，0 表示关闭
func WithErrorBuffer(n int) Option {
	return func(o *options) { o.errorBuffer = n }
}

// WithConfig 从配置文件的 engine 段应用全部选项，端口除外
func WithConfig(cfg config.EngineConfig) Option {
	return func(o *options) {
		shutdownPolicy, err := pool.ParseShutdownPolicy(cfg.ShutdownPolicy)
		if err != nil {
			o.err = err
			return
		}
		panicPolicy, err := ParsePanicPolicy(cfg.PanicPolicy)
		if err != nil {
			o.err = err
			return
		}

		o.capacity = cfg.PoolCapacity
		o.obstructing = cfg.Obstructing
		o.shutdownPolicy = shutdownPolicy
		o.panicPolicy = panicPolicy
		o.pollInterval = cfg.PollInterval
		if cfg.ShutdownTimeout > 0 {
			o.shutdownTimeout = cfg.ShutdownTimeout
		}
		o.bufferSize = cfg.BufferSize
		o.maxHeaderLine = cfg.MaxHeaderLineBytes
		o.errorBuffer = cfg.ErrorBuffer
	}
}
