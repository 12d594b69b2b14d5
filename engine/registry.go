package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Handle 宿主持有的不透明服务器句柄，0 永远无效
type Handle uint64

// Registry 句柄到 Server 的进程内映射
type Registry struct {
	mu      sync.RWMutex
	servers map[Handle]*Server
	next    atomic.Uint64
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{servers: make(map[Handle]*Server)}
}

// DefaultRegistry 根包 neige 使用的全局注册表
var DefaultRegistry = NewRegistry()

// Create 创建 Server 并返回其句柄
func (r *Registry) Create(sink RequestSink, opts ...Option) (Handle, error) {
	srv, err := New(sink, opts...)
	if err != nil {
		return 0, err
	}
	h := Handle(r.next.Add(1))

	r.mu.Lock()
	r.servers[h] = srv
	r.mu.Unlock()
	return h, nil
}

// Get 返回句柄对应的 Server
func (r *Registry) Get(h Handle) (*Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	srv, ok := r.servers[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrHandleNotFound, h)
	}
	return srv, nil
}

// SetPoolCapacity 见 Server.SetPoolCapacity
func (r *Registry) SetPoolCapacity(h Handle, n int) error {
	srv, err := r.Get(h)
	if err != nil {
		return err
	}
	return srv.SetPoolCapacity(n)
}

// PoolCapacity 见 Server.PoolCapacity
func (r *Registry) PoolCapacity(h Handle) (int, error) {
	srv, err := r.Get(h)
	if err != nil {
		return 0, err
	}
	return srv.PoolCapacity(), nil
}

// SetObstructing 见 Server.SetObstructing
func (r *Registry) SetObstructing(h Handle, b bool) error {
	srv, err := r.Get(h)
	if err != nil {
		return err
	}
	return srv.SetObstructing(b)
}

// Obstructing 见 Server.Obstructing
func (r *Registry) Obstructing(h Handle) (bool, error) {
	srv, err := r.Get(h)
	if err != nil {
		return false, err
	}
	return srv.Obstructing(), nil
}

// Launch 见 Server.Launch。阻塞模式下不持有注册表锁。
func (r *Registry) Launch(h Handle, port uint16) error {
	srv, err := r.Get(h)
	if err != nil {
		return err
	}
	return srv.Launch(port)
}

// Close 关闭 Server 并移除句柄。再次关闭同一句柄返回 ErrHandleNotFound。
func (r *Registry) Close(h Handle) error {
	r.mu.Lock()
	srv, ok := r.servers[h]
	delete(r.servers, h)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrHandleNotFound, h)
	}
	return srv.Close()
}

// CloseAll 关闭并移除所有 Server
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	servers := r.servers
	r.servers = make(map[Handle]*Server)
	r.mu.Unlock()

	var errs error
	for h, srv := range servers {
		if err := srv.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("handle %d: %w", h, err))
		}
	}
	return errs
}

// Len 返回注册的 Server 数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}
