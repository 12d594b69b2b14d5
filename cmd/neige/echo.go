package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/neige/engine"
	"github.com/BaSui01/neige/request"
)

const (
	// maxEchoBody 回显请求体的上限
	maxEchoBody = 1 << 20
	// bodyReadTimeout 读取请求体的超时
	bodyReadTimeout = 10 * time.Second
)

// echoSink 回显请求行、头部与请求体
type echoSink struct {
	logger *zap.Logger
}

func newEchoSink(logger *zap.Logger) *echoSink {
	return &echoSink{logger: logger.With(zap.String("component", "echo_sink"))}
}

// ServeConn 实现 engine.RequestSink
func (s *echoSink) ServeConn(ctx context.Context, req *request.Request, c *engine.Conn) error {
	body, err := readBody(req, c)
	if err != nil {
		_ = writeResponse(c, 400, "Bad Request", err.Error()+"\n")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", req.Method, req.Target, req.Proto())
	for _, name := range slices.Sorted(maps.Keys(req.Header)) {
		fmt.Fprintf(&b, "%s: %s\n", request.Canonical(name), req.Header[name])
	}
	b.WriteString("\n")
	b.Write(body)

	s.logger.Debug("echo",
		zap.String("conn_id", c.ID()),
		zap.String("method", req.Method),
		zap.String("target", req.Target),
		zap.Int("body_bytes", len(body)),
	)
	return writeResponse(c, 200, "OK", b.String())
}

// ServeError 实现 engine.ErrorSink
func (s *echoSink) ServeError(ctx context.Context, err error, c *engine.Conn) error {
	return writeResponse(c, 400, "Bad Request", request.Kind(err)+"\n")
}

// readBody 按 content-length 读取请求体，没有该头部时视为空
func readBody(req *request.Request, c *engine.Conn) ([]byte, error) {
	raw, ok := req.Header.Lookup("content-length")
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid content-length %q", raw)
	}
	if n > maxEchoBody {
		return nil, fmt.Errorf("content-length %d exceeds %d", n, maxEchoBody)
	}

	if err := c.SetReadDeadline(time.Now().Add(bodyReadTimeout)); err != nil {
		return nil, err
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(c, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func writeResponse(c *engine.Conn, code int, reason, body string) error {
	_, err := fmt.Fprintf(c,
		"HTTP/1.1 %d %s\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		code, reason, len(body), body)
	return err
}
