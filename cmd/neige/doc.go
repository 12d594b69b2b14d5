// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 neige 服务端程序入口。

# 概述

cmd/neige 以内置 echo sink 运行引擎，同时提供运维端点、健康检查和版本
查询等子命令。程序支持 YAML 配置文件加载、结构化日志（zap）、
Prometheus 指标采集以及日志级别热更新。

# 核心类型

  - App      : 组合引擎、运维 HTTP 服务器与配置热更新，用 errgroup 统一运行
  - echoSink : 回显请求行、头部与请求体；请求头解析失败时返回 400

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 运维端点：/metrics（Prometheus）、/health、/ready、/version
  - 配置热更新：Reloader 轮询配置文件，日志级别立即生效
  - 优雅关闭：SIGINT/SIGTERM → 关闭引擎（按关闭策略处理队列）→
    关闭运维服务器 → 刷新遥测数据
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
