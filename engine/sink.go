package engine

import (
	"context"

	"github.com/BaSui01/neige/request"
)

// RequestSink 宿主回调。每个被接受且请求头解析成功的连接恰好调用一次
// ServeConn，调用发生在 worker goroutine 上。sink 可以通过 c 继续读取
// 请求体并写回响应；返回后连接被关闭，c 失效。
type RequestSink interface {
	ServeConn(ctx context.Context, req *request.Request, c *Conn) error
}

// SinkFunc 将函数适配为 RequestSink
type SinkFunc func(ctx context.Context, req *request.Request, c *Conn) error

// ServeConn 调用 f
func (f SinkFunc) ServeConn(ctx context.Context, req *request.Request, c *Conn) error {
	return f(ctx, req, c)
}

// ErrorSink 可选接口。sink 实现它时，请求头解析失败的连接交给
// ServeError 处理（例如写回 400），否则直接关闭。
type ErrorSink interface {
	ServeError(ctx context.Context, err error, c *Conn) error
}
