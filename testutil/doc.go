// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 neige 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现
相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue / WaitFor / WaitForChannel，
    支持超时轮询等待条件满足
  - 原始客户端: Dial / Send / RoundTrip，以原始字节与引擎对话，
    连接在测试结束时自动关闭

# 子包

  - testutil/fixtures: 预置请求头样例，包括合法请求、畸形请求行、
    畸形头部与带请求体的 POST

# 使用示例

	resp := testutil.RoundTrip(t, srv.Addr().String(), fixtures.GetRoot)
	assert.Contains(t, resp, "200 OK")
*/
package testutil
