package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/BaSui01/neige/internal/conn"
)

// AddrInfo 拆分后的套接字地址
type AddrInfo = conn.AddrInfo

// Conn 交给 sink 的连接能力。sink 返回后引擎回收它，之后的所有操作
// 返回 ErrConnReleased。
//
// 读操作之间互相串行，写操作之间互相串行；读与写可以在不同 goroutine 中
// 同时进行，阻塞中的读不会挡住写。
type Conn struct {
	id string

	inner *conn.Conn

	rmu      sync.Mutex
	wmu      sync.Mutex
	released atomic.Bool

	remote AddrInfo
	local  AddrInfo
}

func newConn(id string, c *conn.Conn) *Conn {
	return &Conn{
		id:     id,
		inner:  c,
		remote: c.RemoteAddrInfo(),
		local:  c.LocalAddrInfo(),
	}
}

// ID 返回连接 ID
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr 返回对端地址
func (c *Conn) RemoteAddr() AddrInfo {
	return c.remote
}

// LocalAddr 返回本端地址
func (c *Conn) LocalAddr() AddrInfo {
	return c.local
}

// Read 先返回缓冲中剩余的请求体字节，再从连接读取
func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()
	if c.released.Load() {
		return 0, ErrConnReleased
	}
	return c.inner.Read(p)
}

// ReadChunk 读取至多 n 个字节
func (c *Conn) ReadChunk(n int) ([]byte, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	return c.inner.ReadChunk(n)
}

// Buffered 返回缓冲中尚未读取的字节数
func (c *Conn) Buffered() int {
	c.rmu.Lock()
	defer c.rmu.Unlock()
	if c.released.Load() {
		return 0
	}
	return c.inner.Buffered()
}

// Write 原样写入连接
func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.released.Load() {
		return 0, ErrConnReleased
	}
	return c.inner.Write(p)
}

// WriteString 原样写入字符串
func (c *Conn) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// SetReadDeadline 设置读超时
func (c *Conn) SetReadDeadline(t time.Time) error {
	if c.released.Load() {
		return ErrConnReleased
	}
	return c.inner.SetReadDeadline(t)
}

// SetWriteDeadline 设置写超时
func (c *Conn) SetWriteDeadline(t time.Time) error {
	if c.released.Load() {
		return ErrConnReleased
	}
	return c.inner.SetWriteDeadline(t)
}

// Close 提前关闭连接，阻塞中的读写立即返回。引擎在 sink 返回后仍会回收 Conn。
func (c *Conn) Close() error {
	if c.released.Load() {
		return ErrConnReleased
	}
	_ = c.inner.SetDeadline(time.Now())

	c.rmu.Lock()
	defer c.rmu.Unlock()
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.released.Load() {
		return ErrConnReleased
	}
	return c.inner.Close()
}

// release 回收能力。先让阻塞中的读写立即超时，再等待持锁的调用返回。
func (c *Conn) release() {
	_ = c.inner.SetDeadline(time.Now())

	c.rmu.Lock()
	c.wmu.Lock()
	c.released.Store(true)
	c.wmu.Unlock()
	c.rmu.Unlock()
}
