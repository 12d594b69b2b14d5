// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供运维 HTTP 端点及其生命周期管理。

# 概述

引擎本身只处理原始 TCP 连接，指标、健康检查等运维能力由独立的
net/http 服务器提供。本包通过 Manager 封装 http.Server，统一管理
监听、服务、关闭与错误传播流程。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Run/Shutdown 等生命周期方法。
  - Config：服务器配置，可由 ConfigFromOps 从配置文件的 ops 段构建。
  - HealthHandler：/health 存活检查与 /ready 就绪检查，就绪检查
    运行所有已注册的 HealthCheck。
  - Middleware：Recovery、Tracing、Metrics、RequestLogger，用 Chain 串联。

# 主要能力

  - NewOpsHandler 组装 /metrics（promhttp）、/health、/ready、/version。
  - Run 阻塞到 context 结束，适合放进 errgroup。
  - 未知路径在指标中统一归为 other，标签基数有界。
*/
package server
