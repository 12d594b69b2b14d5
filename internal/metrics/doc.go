// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的引擎指标采集能力，覆盖连接、
请求、工作池与运维端点四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，默认使用 promauto
自动注册到全局 Registry，也可通过 NewCollectorWith 注册到自定义
Registerer。所有指标按 namespace 隔离。nil *Collector 上的记录方法
均为空操作，引擎在未配置指标时无需判空。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 指标，按业务域分组管理。

# 主要能力

  - 连接指标：accept 成功与失败计数、活跃连接数。
  - 请求指标：按 method/version/outcome 分组的请求总数与耗时，
    按错误类型分组的解析失败数，sink 错误与 panic 计数。
  - 工作池指标：存活 worker 数、队列深度、重新拉起与丢弃任务计数。
  - 运维 HTTP 指标：/metrics、/health 等端点的请求总数与耗时，
    状态码归类为 2xx/3xx/4xx/5xx。
*/
package metrics
