// =============================================================================
// 📦 neige 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Engine:    DefaultEngineConfig(),
		Ops:       DefaultOpsConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultEngineConfig 返回默认引擎配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Port:               8080,
		PoolCapacity:       1,
		Obstructing:        false,
		ShutdownPolicy:     "drain",
		PanicPolicy:        "recover",
		PollInterval:       5 * time.Millisecond,
		ShutdownTimeout:    30 * time.Second,
		BufferSize:         8 * 1024,
		MaxHeaderLineBytes: 0,
		ErrorBuffer:        64,
	}
}

// DefaultOpsConfig 返回默认运维端点配置
func DefaultOpsConfig() OpsConfig {
	return OpsConfig{
		Enabled:          true,
		Addr:             "127.0.0.1:9091",
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
		ShutdownTimeout:  5 * time.Second,
		MetricsNamespace: "neige",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    "neige",
		SampleRate:     0.1,
		MetricInterval: 15 * time.Second,
	}
}
