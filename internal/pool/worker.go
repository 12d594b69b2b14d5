package pool

import (
	"sync"

	"go.uber.org/zap"
)

// worker is one persistent goroutine pulling jobs from the pool queue. It owns
// a LifeSignal distinct from the server's; a killed worker never restarts.
type worker struct {
	id   int
	pool *WorkerPool
	life *LifeSignal

	mu      sync.Mutex
	running bool
}

func newWorker(id int, p *WorkerPool) *worker {
	return &worker{
		id:   id,
		pool: p,
		life: NewLifeSignal(),
	}
}

// spawn starts a goroutine unless the worker is killed or already has one.
// The caller holds p.mu.
func (w *worker) spawn() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isKilled() || w.running {
		return false
	}
	w.running = true
	w.pool.wg.Add(1)
	go w.loop()
	return true
}

func (w *worker) loop() {
	clean := false
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()

		if !clean {
			w.pool.abnormal.Add(1)
			w.pool.logger.Warn("worker exited abnormally", zap.Int("worker_id", w.id))
		}
		w.pool.wg.Done()
	}()

	for {
		// Die is only observed here, before the next blocking pop.
		if w.life.IsDie() {
			clean = true
			return
		}

		job, ok := w.pool.queue.pop()
		if !ok {
			clean = true
			return
		}

		if !w.pool.runJob(w.id, job) {
			return
		}
	}
}

func (w *worker) kill() {
	w.life.Die()
}

func (w *worker) isKilled() bool {
	return w.life.IsDie()
}

func (w *worker) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
