package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/neige/config"
	"github.com/BaSui01/neige/engine"
	"github.com/BaSui01/neige/internal/metrics"
	"github.com/BaSui01/neige/internal/server"
	"github.com/BaSui01/neige/internal/telemetry"
)

// telemetryShutdownTimeout 刷新遥测数据的最长时间
const telemetryShutdownTimeout = 5 * time.Second

var (
	errEngineNotLaunched = errors.New("engine not launched")
	errEngineStopped     = errors.New("engine stopped")
)

// =============================================================================
// 🖥️ App 结构
// =============================================================================

// App 组合引擎、运维端点与配置热更新
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	level  zap.AtomicLevel

	engine    *engine.Server
	ops       *server.Manager
	reloader  *config.Reloader
	collector *metrics.Collector
	otel      *telemetry.Providers
}

// NewApp 创建所有组件，不绑定任何端口
func NewApp(cfg *config.Config, loader *config.Loader, logger *zap.Logger, level zap.AtomicLevel) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		level:  level,
	}

	// 1. 遥测
	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	a.otel = providers

	// 2. 指标
	if cfg.Ops.Enabled {
		a.collector = metrics.NewCollector(cfg.Ops.MetricsNamespace, logger)
	}

	// 3. 引擎
	a.engine, err = engine.New(newEchoSink(logger),
		engine.WithConfig(cfg.Engine),
		engine.WithLogger(logger),
		engine.WithMetrics(a.collector),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	// 4. 运维端点
	if cfg.Ops.Enabled {
		health := server.NewHealthHandler(logger)
		health.RegisterCheck(server.NewFuncCheck("engine", a.engineReady))
		handler := server.NewOpsHandler(server.OpsOptions{
			Collector: a.collector,
			Health:    health,
			Logger:    logger,
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		})
		a.ops = server.NewManager(handler, server.ConfigFromOps(cfg.Ops), logger)
	}

	// 5. 配置热更新
	if loader.ConfigPath() != "" {
		a.reloader, err = config.NewReloader(loader, cfg, config.WithReloaderLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create config reloader: %w", err)
		}
		a.reloader.OnReload(a.applyConfig)
	}

	return a, nil
}

// =============================================================================
// 🚀 运行
// =============================================================================

// Run 启动所有组件并阻塞到 ctx 结束或任一组件失败
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// 阻塞模式下 Launch 直到 Close 才返回，两种模式都由下面的 goroutine 负责关闭
	g.Go(func() error {
		if err := a.engine.Launch(a.cfg.Engine.Port); err != nil {
			return fmt.Errorf("launch engine: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return a.engine.Close()
		case <-a.engine.Done():
			return multierr.Append(errEngineStopped, a.engine.Close())
		}
	})

	if errs := a.engine.Errors(); errs != nil {
		g.Go(func() error {
			a.drainErrors(gctx, errs)
			return nil
		})
	}

	if a.ops != nil {
		g.Go(func() error {
			return a.ops.Run(gctx)
		})
	}

	if a.reloader != nil {
		g.Go(func() error {
			return a.reloader.Run(gctx)
		})
	}

	a.logger.Info("all components started",
		zap.Uint16("engine_port", a.cfg.Engine.Port),
		zap.Bool("ops_enabled", a.ops != nil),
		zap.Bool("hot_reload_enabled", a.reloader != nil),
	)

	err := g.Wait()
	return multierr.Append(err, a.shutdownTelemetry())
}

func (a *App) drainErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			a.logger.Debug("connection error", zap.Error(err))
		}
	}
}

func (a *App) shutdownTelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	return a.otel.Shutdown(ctx)
}

// engineReady 就绪检查：引擎已绑定端口且未停止
func (a *App) engineReady(context.Context) error {
	if a.engine.Addr() == nil {
		return errEngineNotLaunched
	}
	select {
	case <-a.engine.Done():
		return errEngineStopped
	default:
		return nil
	}
}

// applyConfig 热更新回调。日志级别立即生效，引擎参数需要重启。
func (a *App) applyConfig(cfg *config.Config) {
	level := parseLevel(cfg.Log.Level)
	if level != a.level.Level() {
		a.level.SetLevel(level)
		a.logger.Info("log level changed", zap.String("level", level.String()))
	}
	if cfg.Engine != a.cfg.Engine {
		a.logger.Warn("engine configuration changed, restart required to apply")
	}
}
