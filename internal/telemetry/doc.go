// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 neige 引擎提供集中式的 TracerProvider 和 MeterProvider 配置。
// 当遥测功能禁用时，使用 noop 实现，不连接任何外部服务。
// 引擎的连接 span 通过 Tracer 创建，连接指标通过 Instruments 记录，
// 两者都经由 Init 注册的全局 provider 以 OTLP gRPC 导出。
package telemetry
