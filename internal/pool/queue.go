package pool

import "sync"

// jobQueue is an unbounded FIFO shared by every worker of a pool. Push never
// blocks beyond the lock; pop blocks until a job arrives or the queue closes.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Job
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a job. It reports false when the queue is already closed.
func (q *jobQueue) push(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return true
}

// pop returns the oldest job. ok is false once the queue is closed and empty.
func (q *jobQueue) pop() (job Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}

	job = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

// close stops new submissions and wakes every parked consumer. Jobs already
// queued are still handed out by pop.
func (q *jobQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// abandon closes the queue and returns the jobs nobody will run.
func (q *jobQueue) abandon() []Job {
	q.mu.Lock()
	q.closed = true
	pending := q.items
	q.items = nil
	q.mu.Unlock()
	q.cond.Broadcast()
	return pending
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
