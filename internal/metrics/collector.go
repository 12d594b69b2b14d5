// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。nil *Collector 的所有记录方法均为空操作。
type Collector struct {
	// 连接指标
	connectionsAccepted prometheus.Counter
	acceptErrors        prometheus.Counter
	connectionsActive   prometheus.Gauge

	// 请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	parseErrors     *prometheus.CounterVec
	sinkFailures    *prometheus.CounterVec

	// 工作池指标
	poolWorkers    prometheus.Gauge
	poolQueueDepth prometheus.Gauge
	poolHealed     prometheus.Counter
	poolDropped    *prometheus.CounterVec

	// 运维 HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer, namespace, logger)
}

// NewCollectorWith 创建指标收集器，注册到指定 Registerer
func NewCollectorWith(reg prometheus.Registerer, namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 连接指标
	c.connectionsAccepted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted connections",
		},
	)

	c.acceptErrors = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Total number of swallowed accept errors",
		},
	)

	c.connectionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of connections currently served by a worker",
		},
	)

	// 请求指标
	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of parsed requests handed to the sink",
		},
		[]string{"method", "version", "outcome"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from job start to connection close in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	c.parseErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total number of request heads that failed to parse",
		},
		[]string{"kind"},
	)

	c.sinkFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Total number of sink calls that returned an error or panicked",
		},
		[]string{"reason"}, // reason: error, panic
	)

	// 工作池指标
	c.poolWorkers = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_workers",
			Help:      "Number of live pool workers",
		},
	)

	c.poolQueueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_queue_depth",
			Help:      "Number of jobs waiting for a worker",
		},
	)

	c.poolHealed = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_workers_healed_total",
			Help:      "Total number of respawned workers",
		},
	)

	c.poolDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_jobs_dropped_total",
			Help:      "Total number of jobs dropped without running",
		},
		[]string{"reason"}, // reason: rejected, abandoned
	)

	// 运维 HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ops_http_requests_total",
			Help:      "Total number of ops endpoint requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ops_http_request_duration_seconds",
			Help:      "Ops endpoint request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🔌 连接指标记录
// =============================================================================

// RecordAccept 记录一次成功 accept
func (c *Collector) RecordAccept() {
	if c == nil {
		return
	}
	c.connectionsAccepted.Inc()
}

// RecordAcceptError 记录一次被吞掉的 accept 错误
func (c *Collector) RecordAcceptError() {
	if c == nil {
		return
	}
	c.acceptErrors.Inc()
}

// ConnectionStarted 活跃连接数 +1
func (c *Collector) ConnectionStarted() {
	if c == nil {
		return
	}
	c.connectionsActive.Inc()
}

// ConnectionFinished 活跃连接数 -1
func (c *Collector) ConnectionFinished() {
	if c == nil {
		return
	}
	c.connectionsActive.Dec()
}

// =============================================================================
// 📨 请求指标记录
// =============================================================================

// RecordRequest 记录一次交给 sink 的请求
func (c *Collector) RecordRequest(method, version, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(method, version, outcome).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordParseError 记录请求头解析失败
func (c *Collector) RecordParseError(kind string) {
	if c == nil {
		return
	}
	c.parseErrors.WithLabelValues(kind).Inc()
}

// RecordSinkFailure 记录 sink 返回错误或 panic
func (c *Collector) RecordSinkFailure(reason string) {
	if c == nil {
		return
	}
	c.sinkFailures.WithLabelValues(reason).Inc()
}

// =============================================================================
// 🧵 工作池指标记录
// =============================================================================

// RecordPool 记录工作池快照
func (c *Collector) RecordPool(workers, queued int) {
	if c == nil {
		return
	}
	c.poolWorkers.Set(float64(workers))
	c.poolQueueDepth.Set(float64(queued))
}

// RecordHealed 记录被重新拉起的 worker 数
func (c *Collector) RecordHealed(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.poolHealed.Add(float64(n))
}

// RecordDropped 记录未执行即被丢弃的任务
func (c *Collector) RecordDropped(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.poolDropped.WithLabelValues(reason).Add(float64(n))
}

// =============================================================================
// 🎯 运维 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录运维端点请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
