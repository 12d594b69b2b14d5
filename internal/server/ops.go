package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/neige/internal/metrics"
)

// OpsOptions 运维端点的依赖
type OpsOptions struct {
	// Gatherer 为 nil 时使用 prometheus.DefaultGatherer
	Gatherer  prometheus.Gatherer
	Collector *metrics.Collector
	Health    *HealthHandler
	Logger    *zap.Logger

	Version   string
	BuildTime string
	GitCommit string
}

// NewOpsHandler 构建运维路由：/metrics、/health、/healthz、/ready、/readyz、/version
func NewOpsHandler(opts OpsOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	health := opts.Health
	if health == nil {
		health = NewHealthHandler(logger)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", health.HandleHealth)
	mux.HandleFunc("/healthz", health.HandleHealth)
	mux.HandleFunc("/ready", health.HandleReady)
	mux.HandleFunc("/readyz", health.HandleReady)
	mux.HandleFunc("/version", health.HandleVersion(opts.Version, opts.BuildTime, opts.GitCommit))

	return Chain(mux,
		Recovery(logger),
		Tracing(),
		Metrics(opts.Collector),
		RequestLogger(logger),
	)
}
