package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic object pool.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)

	// Metrics
	gets atomic.Int64
	puts atomic.Int64
	news atomic.Int64
}

// NewPool creates a new object pool.
func NewPool[T any](newFunc func() T, resetFunc func(*T)) *Pool[T] {
	p := &Pool[T]{reset: resetFunc}
	p.pool.New = func() any {
		p.news.Add(1)
		return newFunc()
	}
	return p
}

// Get retrieves an object from the pool.
func (p *Pool[T]) Get() T {
	p.gets.Add(1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool.
func (p *Pool[T]) Put(obj T) {
	p.puts.Add(1)
	if p.reset != nil {
		p.reset(&obj)
	}
	p.pool.Put(obj)
}

// Stats returns pool statistics.
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Gets: p.gets.Load(),
		Puts: p.puts.Load(),
		News: p.news.Load(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Gets int64 `json:"gets"`
	Puts int64 `json:"puts"`
	News int64 `json:"news"`
}

// HitRate returns the share of Get calls served without allocating.
func (s PoolStats) HitRate() float64 {
	if s.Gets == 0 {
		return 0
	}
	return float64(s.Gets-s.News) / float64(s.Gets)
}

// DefaultBufferSize is the read buffer size of a connection.
const DefaultBufferSize = 8 * 1024

// BufferPool hands out fixed-size read buffers.
type BufferPool struct {
	size int
	pool *Pool[*[]byte]
}

// NewBufferPool creates a pool of buffers of exactly size bytes.
func NewBufferPool(size int) *BufferPool {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &BufferPool{
		size: size,
		pool: NewPool(func() *[]byte {
			b := make([]byte, size)
			return &b
		}, nil),
	}
}

// Size returns the length of every buffer handed out.
func (p *BufferPool) Size() int {
	return p.size
}

// Get returns a buffer of Size bytes. Its contents are unspecified.
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get()
}

// Put returns a buffer. Buffers of a foreign size are dropped.
func (p *BufferPool) Put(b *[]byte) {
	if b == nil || len(*b) != p.size {
		return
	}
	p.pool.Put(b)
}

// Stats returns pool statistics.
func (p *BufferPool) Stats() PoolStats {
	return p.pool.Stats()
}

var (
	buffersMu sync.Mutex
	buffers   = map[int]*BufferPool{}
)

// Buffers returns the process-wide buffer pool for size.
func Buffers(size int) *BufferPool {
	if size < 1 {
		size = DefaultBufferSize
	}
	buffersMu.Lock()
	defer buffersMu.Unlock()

	bp, ok := buffers[size]
	if !ok {
		bp = NewBufferPool(size)
		buffers[size] = bp
	}
	return bp
}
