package engine

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/BaSui01/neige/internal/pool"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server 一个引擎实例：监听 127.0.0.1 上的一个端口，把每个连接交给
// RequestSink。生命周期为 New -> Launch -> Close，每个阶段至多一次。
type Server struct {
	id   string
	sink RequestSink
	life *pool.LifeSignal

	mu       sync.Mutex
	opts     options
	launched bool
	closed   bool
	listener *net.TCPListener

	acc atomic.Pointer[acceptor]

	done     chan struct{}
	doneOnce sync.Once
	runErr   error

	errs   chan error
	logger *zap.Logger
}

// New 创建 Server。sink 不能为 nil。
func New(sink RequestSink, opts ...Option) (*Server, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		id:   uuid.NewString(),
		sink: sink,
		life: pool.NewLifeSignal(),
		opts: o,
		done: make(chan struct{}),
	}
	if o.errorBuffer > 0 {
		s.errs = make(chan error, o.errorBuffer)
	}
	s.logger = o.logger.With(zap.String("component", "server"), zap.String("server_id", s.id))
	s.opts.logger = s.logger
	return s, nil
}

// ID 返回实例 ID
func (s *Server) ID() string {
	return s.id
}

// SetPoolCapacity 设置 worker 数量，仅在 Launch 之前有效
func (s *Server) SetPoolCapacity(n int) error {
	if n < 1 {
		return pool.ErrInvalidCapacity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return ErrAlreadyLaunched
	}
	s.opts.capacity = n
	return nil
}

// PoolCapacity 返回 worker 数量
func (s *Server) PoolCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.capacity
}

// SetObstructing 设置 Launch 是否阻塞调用方，仅在 Launch 之前有效
func (s *Server) SetObstructing(b bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return ErrAlreadyLaunched
	}
	s.opts.obstructing = b
	return nil
}

// Obstructing 返回 Launch 是否阻塞调用方
func (s *Server) Obstructing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.obstructing
}

// Launch 绑定 127.0.0.1:port 并启动 accept 循环。port 为 0 时由系统分配。
// 绑定失败在启动任何 goroutine 之前返回。阻塞模式下直到 accept 循环
// 结束才返回，返回值为关闭过程中的错误。
func (s *Server) Launch(port uint16) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.launched {
		s.mu.Unlock()
		return ErrAlreadyLaunched
	}

	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(port)})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("bind 127.0.0.1:%d: %w", port, err)
	}

	opts := s.opts
	acc, err := newAcceptor(s, ln, opts)
	if err != nil {
		s.mu.Unlock()
		return multierr.Combine(err, ln.Close())
	}

	s.launched = true
	s.listener = ln
	s.acc.Store(acc)
	s.mu.Unlock()

	s.logger.Info("server launched",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("obstructing", opts.obstructing),
	)

	if opts.obstructing {
		return s.finish(acc.run())
	}
	go func() {
		_ = s.finish(acc.run())
	}()
	return nil
}

func (s *Server) finish(err error) error {
	s.doneOnce.Do(func() {
		s.runErr = err
		close(s.done)
	})
	return err
}

// Addr 返回监听地址，Launch 之前为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop 通知 accept 循环退出，不等待。可以在 sink 内调用。
func (s *Server) Stop() {
	s.life.Die()
}

// Close 停止服务器并等待 accept 循环与工作池结束，之后端口可被重新绑定。
// 重复调用返回 nil。不能在 sink 内调用，否则 drain 策略下会等待自身。
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	launched := s.launched
	s.mu.Unlock()

	s.life.Die()
	if !launched {
		s.finish(nil)
		return nil
	}

	<-s.done
	s.logger.Info("server closed", zap.Error(s.runErr))
	return s.runErr
}

// Done 在 accept 循环完全停止后关闭
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Errors 返回连接级错误通道，未启用 WithErrorBuffer 时为 nil。
// 通道满时新错误被丢弃，通道不会被关闭。
func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) reportError(err error) {
	if s.errs == nil {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}

// Stats 返回工作池统计，Launch 之前为零值
func (s *Server) Stats() pool.WorkerPoolStats {
	acc := s.acc.Load()
	if acc == nil {
		return pool.WorkerPoolStats{}
	}
	return acc.stats()
}
