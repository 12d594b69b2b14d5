package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/neige/internal/conn"
	"github.com/BaSui01/neige/internal/metrics"
	"github.com/BaSui01/neige/internal/pool"
	"github.com/BaSui01/neige/internal/telemetry"
)

// acceptErrorLogInterval 同类 accept 错误日志的最小间隔
const acceptErrorLogInterval = time.Second

// =============================================================================
// 🔌 Acceptor
// =============================================================================

// acceptor 独占监听套接字与工作池。它轮询 accept，把每个连接作为一个
// 任务提交给工作池，直到服务器的 LifeSignal 变为 Die。
type acceptor struct {
	srv     *Server
	ln      *net.TCPListener
	life    *pool.LifeSignal
	pool    *pool.WorkerPool
	opts    options
	logger  *zap.Logger
	metrics *metrics.Collector
	otel    *telemetry.Instruments
	buffers *pool.BufferPool

	errLog rate.Sometimes
}

func newAcceptor(srv *Server, ln *net.TCPListener, opts options) (*acceptor, error) {
	inst, err := telemetry.NewInstruments(opts.meterProvider)
	if err != nil {
		return nil, err
	}

	a := &acceptor{
		srv:     srv,
		ln:      ln,
		life:    srv.life,
		opts:    opts,
		logger:  opts.logger.With(zap.String("component", "acceptor")),
		metrics: opts.metrics,
		otel:    inst,
		buffers: pool.Buffers(opts.bufferSize),
		errLog:  rate.Sometimes{Interval: acceptErrorLogInterval},
	}

	var onPanic func(any)
	if opts.panicPolicy == PanicRecover {
		onPanic = func(r any) {
			a.srv.reportError(&ConnError{Op: "dispatch", Err: fmt.Errorf("%w: %v", ErrSinkPanic, r)})
		}
	}

	wp, err := pool.NewWorkerPool(pool.WorkerPoolConfig{
		Capacity:     opts.capacity,
		PanicHandler: onPanic,
		Logger:       opts.logger,
	})
	if err != nil {
		return nil, err
	}
	a.pool = wp
	a.metrics.RecordPool(wp.Capacity(), 0)
	return a, nil
}

// run 执行 accept 循环，返回前关闭监听套接字并关闭工作池
func (a *acceptor) run() error {
	a.logger.Info("accept loop started",
		zap.String("addr", a.ln.Addr().String()),
		zap.Int("pool_capacity", a.opts.capacity),
		zap.Duration("poll_interval", a.opts.pollInterval),
	)

	for !a.life.IsDie() {
		if err := a.ln.SetDeadline(time.Now().Add(a.opts.pollInterval)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			a.acceptFailed(err)
			continue
		}

		tc, err := a.ln.AcceptTCP()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			a.acceptFailed(err)
			// 持续失败（如 EMFILE）时避免空转
			time.Sleep(a.opts.pollInterval)
			continue
		}

		a.dispatch(tc)
	}

	return a.shutdown()
}

func (a *acceptor) acceptFailed(err error) {
	a.metrics.RecordAcceptError()
	a.errLog.Do(func() {
		a.logger.Warn("accept failed", zap.Error(err))
	})
	a.srv.reportError(&ConnError{Op: "accept", Err: err})
}

// dispatch 包装连接并提交任务
func (a *acceptor) dispatch(tc *net.TCPConn) {
	id := uuid.NewString()
	c := conn.New(tc,
		conn.WithBufferPool(a.buffers),
		conn.WithMaxLineBytes(a.opts.maxHeaderLine),
	)
	a.metrics.RecordAccept()
	a.otel.ConnAccepted(context.Background())

	if n := a.pool.Heal(); n > 0 {
		a.metrics.RecordHealed(n)
	}

	// 被拒绝的任务已由工作池关闭连接
	if err := a.pool.Execute(newConnJob(a, id, c)); err != nil {
		a.metrics.RecordDropped("rejected", 1)
		a.srv.reportError(&ConnError{ConnID: id, Op: "dispatch", Err: err})
	}

	st := a.pool.Stats()
	a.metrics.RecordPool(st.Workers, st.Queued)
}

// shutdown 先释放端口，再按策略关闭工作池
func (a *acceptor) shutdown() error {
	var errs error
	if err := a.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = multierr.Append(errs, fmt.Errorf("close listener: %w", err))
	}

	ctx := context.Background()
	if a.opts.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.shutdownTimeout)
		defer cancel()
	}

	if err := a.pool.Shutdown(ctx, a.opts.shutdownPolicy); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("shutdown worker pool: %w", err))
	}

	st := a.pool.Stats()
	a.metrics.RecordDropped("abandoned", int(st.Discarded))
	a.metrics.RecordPool(st.Workers, st.Queued)

	a.logger.Info("accept loop stopped",
		zap.String("policy", a.opts.shutdownPolicy.String()),
		zap.Int64("completed", st.Completed),
		zap.Int64("discarded", st.Discarded),
		zap.Error(errs),
	)
	return errs
}

// stats 返回工作池统计
func (a *acceptor) stats() pool.WorkerPoolStats {
	return a.pool.Stats()
}
