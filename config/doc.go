// Package config 提供 neige 的配置管理功能。
//
// 包含配置加载、默认值、校验与基于文件轮询的热重载。
// 支持从 YAML 文件和环境变量加载配置。
package config
