package testutil

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clientTimeout 原始客户端单次往返的超时
const clientTimeout = 5 * time.Second

// Dial 连接 addr，测试结束时关闭
func Dial(t *testing.T, addr string) *net.TCPConn {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, clientTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.SetDeadline(time.Now().Add(clientTimeout)))
	return c.(*net.TCPConn)
}

// RoundTrip 写入 raw，关闭写方向，读取到对端关闭为止
func RoundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	c := Dial(t, addr)

	_, err := io.WriteString(c, raw)
	require.NoError(t, err)
	require.NoError(t, c.CloseWrite())

	resp, err := io.ReadAll(c)
	require.NoError(t, err)
	return string(resp)
}

// Send 写入 raw 但保持连接打开，返回连接供后续读取
func Send(t *testing.T, addr, raw string) *net.TCPConn {
	t.Helper()
	c := Dial(t, addr)
	_, err := io.WriteString(c, raw)
	require.NoError(t, err)
	return c
}
