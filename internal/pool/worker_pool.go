// Package pool provides the bounded worker pool that executes connection jobs,
// the LifeSignal used for cooperative shutdown, and pooled read buffers.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrPoolClosed      = errors.New("pool is closed")
	ErrInvalidCapacity = errors.New("pool capacity must be at least 1")
	ErrUnknownWorker   = errors.New("unknown worker")
)

// Job represents a unit of work. It runs at most once, on exactly one worker.
type Job interface {
	Run()
}

// JobFunc adapts a function to Job.
type JobFunc func()

// Run calls f.
func (f JobFunc) Run() { f() }

// Discarder is implemented by jobs owning resources that must be released
// when the job is dropped without running.
type Discarder interface {
	Discard()
}

// ShutdownPolicy decides what happens to queued jobs on shutdown.
type ShutdownPolicy int

const (
	// ShutdownDrain lets workers run every queued job before exiting.
	ShutdownDrain ShutdownPolicy = iota
	// ShutdownAbandon kills workers and discards queued jobs. In-flight jobs
	// still run to completion.
	ShutdownAbandon
)

// String returns the policy name used in configuration.
func (p ShutdownPolicy) String() string {
	switch p {
	case ShutdownDrain:
		return "drain"
	case ShutdownAbandon:
		return "abandon"
	default:
		return "unknown"
	}
}

// ParseShutdownPolicy maps a configuration value to a policy.
func ParseShutdownPolicy(s string) (ShutdownPolicy, error) {
	switch s {
	case "", "drain":
		return ShutdownDrain, nil
	case "abandon":
		return ShutdownAbandon, nil
	default:
		return ShutdownDrain, fmt.Errorf("unknown shutdown policy %q", s)
	}
}

// WorkerPool owns a fixed set of workers sharing one job queue.
type WorkerPool struct {
	capacity int
	queue    *jobQueue
	workers  []*worker
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool

	activeCount atomic.Int32

	// Metrics
	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	rejected  atomic.Int64
	discarded atomic.Int64
	abnormal  atomic.Int64

	panicHandler func(any)
	logger       *zap.Logger
}

// WorkerPoolConfig configures the pool.
type WorkerPoolConfig struct {
	Capacity int `json:"capacity"`

	// PanicHandler, when set, receives panics escaping a job. The worker that
	// ran the job then exits abnormally and is respawned by Heal. When nil the
	// panic propagates and ends the process.
	PanicHandler func(any) `json:"-"`

	Logger *zap.Logger `json:"-"`
}

// DefaultWorkerPoolConfig returns a single-worker configuration.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{Capacity: 1}
}

// NewWorkerPool creates the queue and spawns config.Capacity workers.
func NewWorkerPool(config WorkerPoolConfig) (*WorkerPool, error) {
	if config.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &WorkerPool{
		capacity:     config.Capacity,
		queue:        newJobQueue(),
		workers:      make([]*worker, 0, config.Capacity),
		panicHandler: config.PanicHandler,
		logger:       logger.With(zap.String("component", "worker_pool")),
	}

	p.mu.Lock()
	for i := 0; i < config.Capacity; i++ {
		w := newWorker(i, p)
		p.workers = append(p.workers, w)
		w.spawn()
	}
	p.mu.Unlock()

	p.logger.Debug("worker pool started", zap.Int("capacity", config.Capacity))
	return p, nil
}

// Execute queues a job. It fails with ErrPoolClosed once the pool is shut
// down; the job is then dropped and discarded if it implements Discarder.
func (p *WorkerPool) Execute(job Job) error {
	if job == nil {
		return errors.New("nil job")
	}
	if !p.queue.push(job) {
		p.rejected.Add(1)
		discard(job)
		return ErrPoolClosed
	}
	p.submitted.Add(1)
	return nil
}

// runJob executes one job. It reports false when a panic was recovered, in
// which case the calling worker must exit.
func (p *WorkerPool) runJob(workerID int, job Job) (ok bool) {
	p.activeCount.Add(1)
	defer p.activeCount.Add(-1)

	if p.panicHandler != nil {
		defer func() {
			if r := recover(); r != nil {
				p.panicked.Add(1)
				p.logger.Error("job panicked",
					zap.Int("worker_id", workerID),
					zap.Any("panic", r),
				)
				p.panicHandler(r)
				ok = false
			}
		}()
	}

	job.Run()
	p.completed.Add(1)
	return true
}

// Heal respawns every worker whose goroutine ended and which was not killed.
// It returns the number of respawned workers.
func (p *WorkerPool) Heal() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0
	}

	healed := 0
	for _, w := range p.workers {
		if w.spawn() {
			healed++
		}
	}
	if healed > 0 {
		p.logger.Info("workers respawned", zap.Int("count", healed))
	}
	return healed
}

// KillWorker sets the worker-local signal of one worker to Die. A worker
// parked on the queue only observes it after its next job.
func (p *WorkerPool) KillWorker(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= len(p.workers) {
		return fmt.Errorf("%w: %d", ErrUnknownWorker, id)
	}
	p.workers[id].kill()
	return nil
}

// Shutdown stops the pool according to policy and waits for the worker
// goroutines until ctx is done. It is safe to call more than once.
//
// Jobs still queued once every worker goroutine has exited are discarded,
// whatever the policy. Under ShutdownDrain that happens when all workers died
// abnormally or were killed and nothing healed them.
func (p *WorkerPool) Shutdown(ctx context.Context, policy ShutdownPolicy) error {
	p.mu.Lock()
	first := !p.closed
	p.closed = true
	p.mu.Unlock()

	if first {
		switch policy {
		case ShutdownAbandon:
			for _, w := range p.workers {
				w.kill()
			}
			n := p.discardPending()
			p.logger.Debug("worker pool abandoned", zap.Int("discarded", n))
		default:
			p.queue.close()
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		if n := p.discardPending(); n > 0 {
			p.logger.Warn("queued jobs left without workers", zap.Int("discarded", n))
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capacity returns the configured number of workers.
func (p *WorkerPool) Capacity() int {
	return p.capacity
}

// Live returns the number of workers with a running goroutine.
func (p *WorkerPool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, w := range p.workers {
		if w.isRunning() {
			n++
		}
	}
	return n
}

// Stats returns pool statistics.
func (p *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Capacity:  p.capacity,
		Workers:   p.Live(),
		Active:    int(p.activeCount.Load()),
		Queued:    p.queue.len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Rejected:  p.rejected.Load(),
		Discarded: p.discarded.Load(),
		Abnormal:  p.abnormal.Load(),
	}
}

// WorkerPoolStats contains pool statistics.
type WorkerPoolStats struct {
	Capacity  int   `json:"capacity"`
	Workers   int   `json:"workers"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Panicked  int64 `json:"panicked"`
	Rejected  int64 `json:"rejected"`
	Discarded int64 `json:"discarded"`
	Abnormal  int64 `json:"abnormal"`
}

// discardPending empties the queue and discards every job in it.
func (p *WorkerPool) discardPending() int {
	pending := p.queue.abandon()
	for _, job := range pending {
		p.discarded.Add(1)
		discard(job)
	}
	return len(pending)
}

func discard(job Job) {
	if d, ok := job.(Discarder); ok {
		d.Discard()
	}
}
