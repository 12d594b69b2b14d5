// Package conn wraps an accepted stream with a fixed-size read buffer and the
// line reading used to parse request heads.
package conn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BaSui01/neige/internal/pool"
)

// maxEmptyReads matches the limit bufio applies to misbehaving readers.
const maxEmptyReads = 100

var (
	ErrLineTooLong = errors.New("line exceeds maximum length")
	ErrClosed      = errors.New("connection is closed")
)

// Conn is a buffered connection. It is owned by exactly one goroutine at a
// time and is not safe for concurrent use, except for Close.
//
// The read window is buf[pos:filled] with 0 <= pos <= filled <= len(buf).
type Conn struct {
	stream net.Conn

	bufPool *pool.BufferPool
	bufp    *[]byte
	buf     []byte
	pos     int
	filled  int

	maxLine int

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Option configures a Conn.
type Option func(*options)

type options struct {
	capacity int
	bufPool  *pool.BufferPool
	maxLine  int
}

// WithCapacity sets the read buffer size. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.capacity = n
		}
	}
}

// WithBufferPool draws the read buffer from bp. The buffer size is bp.Size().
func WithBufferPool(bp *pool.BufferPool) Option {
	return func(o *options) {
		o.bufPool = bp
	}
}

// WithMaxLineBytes caps the length of a line returned by ReadLine, terminator
// excluded. 0 means unlimited.
func WithMaxLineBytes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxLine = n
		}
	}
}

// New wraps c. The default buffer is pool.DefaultBufferSize bytes.
func New(c net.Conn, opts ...Option) *Conn {
	o := options{capacity: pool.DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	bp := o.bufPool
	if bp == nil {
		bp = pool.Buffers(o.capacity)
	}

	bufp := bp.Get()
	return &Conn{
		stream:  c,
		bufPool: bp,
		bufp:    bufp,
		buf:     *bufp,
		maxLine: o.maxLine,
	}
}

// Capacity returns the size of the read buffer.
func (c *Conn) Capacity() int {
	return len(c.buf)
}

// Buffered returns the number of unread bytes in the buffer.
func (c *Conn) Buffered() int {
	return c.filled - c.pos
}

// Peek returns the unread window without consuming it.
func (c *Conn) Peek() []byte {
	return c.buf[c.pos:c.filled]
}

// Consume marks n unread bytes as read. n is clamped to the window.
func (c *Conn) Consume(n int) {
	if n < 0 {
		return
	}
	c.pos = min(c.pos+n, c.filled)
}

// Fill returns the unread window, reading from the stream first when the
// window is empty. Empty reads without an error are retried; end of stream
// is reported as io.EOF.
func (c *Conn) Fill() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.pos < c.filled {
		return c.Peek(), nil
	}

	c.pos, c.filled = 0, 0
	n, err := c.readStream(c.buf)
	c.filled = n
	if n > 0 {
		return c.Peek(), nil
	}
	return nil, err
}

// readStream reads at least one byte or returns an error. After
// maxEmptyReads consecutive (0, nil) reads it gives up with io.ErrNoProgress.
func (c *Conn) readStream(p []byte) (int, error) {
	for range maxEmptyReads {
		n, err := c.stream.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.ErrNoProgress
}

// ReadLine returns the next line without its "\n" or "\r\n" terminator.
// Invalid UTF-8 is replaced with U+FFFD. At end of stream it returns the
// bytes accumulated so far, or io.EOF when there are none.
func (c *Conn) ReadLine() (string, error) {
	var line []byte
	for {
		window, err := c.Fill()
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return decode(line), nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
				return "", err
			}
			return "", fmt.Errorf("read line: %w", err)
		}

		i := bytes.IndexByte(window, '\n')
		if i >= 0 {
			line = append(line, window[:i]...)
			c.Consume(i + 1)
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			if c.maxLine > 0 && len(line) > c.maxLine {
				return "", ErrLineTooLong
			}
			return decode(line), nil
		}

		line = append(line, window...)
		c.Consume(len(window))
		// a trailing '\r' may still belong to the terminator
		if c.maxLine > 0 && len(line) > c.maxLine+1 {
			return "", ErrLineTooLong
		}
	}
}

// Lines iterates over lines until end of stream. A read error is yielded
// once and ends the sequence. The sequence is single-pass.
func (c *Conn) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := c.ReadLine()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}

// Read serves buffered bytes first, then reads from the stream.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if c.pos < c.filled {
		n := copy(p, c.buf[c.pos:c.filled])
		c.pos += n
		return n, nil
	}
	return c.readStream(p)
}

// ReadChunk reads up to n bytes. It returns io.EOF only when nothing was read.
func (c *Conn) ReadChunk(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	chunk := make([]byte, n)
	read, err := c.Read(chunk)
	if read > 0 {
		return chunk[:read], nil
	}
	if err == nil {
		err = io.EOF
	}
	return nil, err
}

// Write writes p to the stream.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.stream.Write(p)
}

// WriteString writes s to the stream.
func (c *Conn) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// Close shuts down both directions and releases the read buffer. Only the
// first call has an effect; later calls return its result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if tc, ok := c.stream.(*net.TCPConn); ok {
			_ = tc.CloseRead()
			_ = tc.CloseWrite()
		}
		c.closeErr = c.stream.Close()

		c.pos, c.filled = 0, 0
		c.buf = nil
		c.bufPool.Put(c.bufp)
		c.bufp = nil
	})
	return c.closeErr
}

// SetDeadline sets the read and write deadlines of the stream. It is safe to
// call concurrently with Read and Write and unblocks them once passed.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.stream.SetDeadline(t)
}

// SetReadDeadline sets the read deadline of the stream.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.stream.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline of the stream.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.stream.SetWriteDeadline(t)
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.stream.RemoteAddr()
}

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() net.Addr {
	return c.stream.LocalAddr()
}

// RemoteAddrInfo describes the peer address.
func (c *Conn) RemoteAddrInfo() AddrInfo {
	return NewAddrInfo(c.stream.RemoteAddr())
}

// LocalAddrInfo describes the local address.
func (c *Conn) LocalAddrInfo() AddrInfo {
	return NewAddrInfo(c.stream.LocalAddr())
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
