package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNilSink         = errors.New("engine: sink is nil")
	ErrAlreadyLaunched = errors.New("engine: server already launched")
	ErrServerClosed    = errors.New("engine: server is closed")
	ErrConnReleased    = errors.New("engine: connection released")
	ErrHandleNotFound  = errors.New("engine: handle not found")
	ErrSinkPanic       = errors.New("engine: sink panicked")
)

// ConnError 单个连接上的失败，通过 Server.Errors 上报
type ConnError struct {
	ConnID string
	// Op 失败阶段: accept, parse, sink, dispatch
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	if e.ConnID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("conn %s: %s: %v", e.ConnID, e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
