// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 engine 提供可嵌入的 HTTP/1.x 服务器引擎：宿主提供 RequestSink，
引擎负责监听、accept 循环、连接分发与请求头解析。

# 概述

Server 在 Launch 时同步绑定 127.0.0.1:<port>，随后由 acceptor 以
非阻塞方式（带超时的 accept 轮询）接收连接。每个连接被包装为一个任务
提交到有界工作池，由某个 worker 解析请求头、调用 sink 恰好一次，
之后无论结果如何都关闭连接。每个连接只处理一次请求-响应。

Close 将 Server 的 LifeSignal 置为 Die，acceptor 在一个轮询间隔内
退出循环、关闭监听端口并按关闭策略停止工作池。

# 核心类型

  - Server：引擎实例，持有监听器、LifeSignal 与配置。
  - RequestSink / SinkFunc：宿主回调，每个连接调用一次。
  - ErrorSink：可选接口，接收请求头解析失败的连接。
  - Conn：交给宿主的连接能力，sink 返回后即被回收，
    之后的操作返回 ErrConnReleased。
  - Registry / Handle：以不透明句柄管理多个 Server 的进程级注册表。

# 主要能力

  - 工作池：固定容量、无界 FIFO 队列，worker 异常退出后在下一次
    accept 时自动重新拉起。
  - 关闭策略：ShutdownDrain 执行完队列中的任务，ShutdownAbandon
    丢弃排队任务并关闭其连接。
  - panic 策略：PanicRecover 捕获 sink panic 并关闭连接，
    PanicCrash 保留 panic 使进程退出。
  - 可观测性：zap 结构化日志、Prometheus 指标、OpenTelemetry span，
    以及可选的聚合错误通道 Errors()。
*/
package engine
