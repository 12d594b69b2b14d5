package pool

import (
	"sync"
	"sync/atomic"
)

// LifeState is the state of a LifeSignal.
type LifeState int32

const (
	// Life means the holder keeps running.
	Life LifeState = iota
	// Die means the holder must stop at its next check.
	Die
)

// String returns the state name.
func (s LifeState) String() string {
	switch s {
	case Life:
		return "life"
	case Die:
		return "die"
	default:
		return "unknown"
	}
}

// LifeSignal is a monotonic Life -> Die flag shared by pointer between
// goroutines. Once Die it never reverts.
type LifeSignal struct {
	state atomic.Int32
	once  sync.Once
	done  chan struct{}
}

// NewLifeSignal returns a signal in the Life state.
func NewLifeSignal() *LifeSignal {
	return &LifeSignal{done: make(chan struct{})}
}

// Die moves the signal to Die. Calling it more than once is a no-op.
func (l *LifeSignal) Die() {
	l.once.Do(func() {
		l.state.Store(int32(Die))
		close(l.done)
	})
}

// State returns the current state.
func (l *LifeSignal) State() LifeState {
	return LifeState(l.state.Load())
}

// IsDie reports whether the signal reached Die.
func (l *LifeSignal) IsDie() bool {
	return l.State() == Die
}

// Done returns a channel closed on the Life -> Die transition.
func (l *LifeSignal) Done() <-chan struct{} {
	return l.done
}
