// 配置文件热重载实现。
//
// 轮询配置文件的修改时间与大小，防抖后重新加载并触发回调。
package config

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// --- 重载器类型定义 ---

// Reloader polls one configuration file and reloads it on change
type Reloader struct {
	loader *Loader

	// 配置
	pollInterval  time.Duration
	debounceDelay time.Duration

	// 状态
	mu      sync.RWMutex
	current *Config
	running bool

	// 回调
	callbacks []func(*Config)

	// 记录器
	logger *zap.Logger

	// 最近一次观察到的文件状态
	lastMod  time.Time
	lastSize int64
	exists   bool
}

// ReloaderOption configures the Reloader
type ReloaderOption func(*Reloader)

// WithPollInterval sets how often the file is checked
func WithPollInterval(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithDebounceDelay sets how long the file must stay unchanged before reload
func WithDebounceDelay(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d >= 0 {
			r.debounceDelay = d
		}
	}
}

// WithReloaderLogger sets the logger for the reloader
func WithReloaderLogger(logger *zap.Logger) ReloaderOption {
	return func(r *Reloader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// --- 重载器实现 ---

// NewReloader creates a reloader for the loader's config file. initial is
// the configuration currently in effect.
func NewReloader(loader *Loader, initial *Config, opts ...ReloaderOption) (*Reloader, error) {
	if loader == nil || loader.ConfigPath() == "" {
		return nil, errors.New("reloader requires a loader with a config path")
	}

	r := &Reloader{
		loader:        loader,
		pollInterval:  time.Second,
		debounceDelay: 100 * time.Millisecond,
		current:       initial,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "config_reloader"))

	r.observe()
	return r, nil
}

// OnReload registers a callback invoked with every successfully reloaded config
func (r *Reloader) OnReload(callback func(*Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// Current returns the configuration currently in effect
func (r *Reloader) Current() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// IsRunning returns whether Run is active
func (r *Reloader) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Run polls until ctx is done. It returns nil on cancellation.
func (r *Reloader) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("reloader already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.logger.Info("config reloader started",
		zap.String("path", r.loader.ConfigPath()),
		zap.Duration("poll_interval", r.pollInterval),
		zap.Duration("debounce_delay", r.debounceDelay))

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var (
		pending   bool
		changedAt time.Time
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("config reloader stopped")
			return nil
		case now := <-ticker.C:
			if r.observe() {
				pending = true
				changedAt = now
				continue
			}
			if pending && now.Sub(changedAt) >= r.debounceDelay {
				pending = false
				r.Reload()
			}
		}
	}
}

// Reload loads the file now. On failure the current configuration is kept.
func (r *Reloader) Reload() (*Config, error) {
	cfg, err := r.loader.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		r.logger.Warn("config reload failed, keeping current config", zap.Error(err))
		return nil, err
	}

	r.mu.Lock()
	r.current = cfg
	callbacks := make([]func(*Config), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	r.logger.Info("config reloaded", zap.String("path", r.loader.ConfigPath()))
	for _, cb := range callbacks {
		cb(cfg)
	}
	return cfg, nil
}

// observe stats the file and reports whether it appeared or changed since
// the last call. A removed file is not a change.
func (r *Reloader) observe() bool {
	info, err := os.Stat(r.loader.ConfigPath())
	if err != nil {
		if r.exists {
			r.logger.Debug("config file disappeared", zap.String("path", r.loader.ConfigPath()))
		}
		r.exists = false
		return false
	}

	changed := !r.exists ||
		!info.ModTime().Equal(r.lastMod) ||
		info.Size() != r.lastSize
	r.exists = true
	r.lastMod = info.ModTime()
	r.lastSize = info.Size()
	return changed
}
