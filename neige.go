// Package neige provides a handle-based entry point to the embeddable
// HTTP/1.x server engine.
//
// Usage:
//
//	import "github.com/BaSui01/neige"
//
//	h, err := neige.Create(neige.SinkFunc(func(ctx context.Context, req *neige.Request, c *neige.Conn) error {
//		_, err := c.WriteString("HTTP/1.1 204 No Content\r\n\r\n")
//		return err
//	}))
//	_ = neige.SetPoolCapacity(h, 4)
//	_ = neige.Launch(h, 8080)
//	defer neige.Close(h)
//
// This is a thin wrapper around [engine.DefaultRegistry]. Use the engine
// package directly to manage [engine.Server] values without handles.
package neige

import (
	"github.com/BaSui01/neige/engine"
	"github.com/BaSui01/neige/request"
)

// Handle identifies a server created by [Create].
type Handle = engine.Handle

// Request is a parsed request head.
type Request = request.Request

// Conn is the connection handed to a sink.
type Conn = engine.Conn

// RequestSink receives every connection whose head parsed.
type RequestSink = engine.RequestSink

// SinkFunc adapts a function to [RequestSink].
type SinkFunc = engine.SinkFunc

// Option configures a server created by [Create].
type Option = engine.Option

// Create registers a new server and returns its handle.
func Create(sink RequestSink, opts ...Option) (Handle, error) {
	return engine.DefaultRegistry.Create(sink, opts...)
}

// SetPoolCapacity sets the worker count. It fails once the server launched.
func SetPoolCapacity(h Handle, n int) error {
	return engine.DefaultRegistry.SetPoolCapacity(h, n)
}

// PoolCapacity returns the worker count.
func PoolCapacity(h Handle) (int, error) {
	return engine.DefaultRegistry.PoolCapacity(h)
}

// SetObstructing chooses whether Launch blocks the caller.
func SetObstructing(h Handle, b bool) error {
	return engine.DefaultRegistry.SetObstructing(h, b)
}

// Obstructing reports whether Launch blocks the caller.
func Obstructing(h Handle) (bool, error) {
	return engine.DefaultRegistry.Obstructing(h)
}

// Launch binds 127.0.0.1:port and starts accepting.
func Launch(h Handle, port uint16) error {
	return engine.DefaultRegistry.Launch(h, port)
}

// Close stops the server and forgets the handle.
func Close(h Handle) error {
	return engine.DefaultRegistry.Close(h)
}

// CloseAll stops every registered server.
func CloseAll() error {
	return engine.DefaultRegistry.CloseAll()
}

// Re-export engine options so callers never need to import engine/.

// WithPoolCapacity sets the worker count.
var WithPoolCapacity = engine.WithPoolCapacity

// WithObstructing chooses whether Launch blocks the caller.
var WithObstructing = engine.WithObstructing

// WithLogger sets the zap logger.
var WithLogger = engine.WithLogger

// WithShutdownPolicy sets what happens to queued connections on close.
var WithShutdownPolicy = engine.WithShutdownPolicy

// WithPanicPolicy sets how sink panics are handled.
var WithPanicPolicy = engine.WithPanicPolicy
