package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifeSignal_StartsAlive(t *testing.T) {
	l := NewLifeSignal()
	assert.Equal(t, Life, l.State())
	assert.False(t, l.IsDie())

	select {
	case <-l.Done():
		t.Fatal("done closed before Die")
	default:
	}
}

func TestLifeSignal_DieIsMonotonic(t *testing.T) {
	l := NewLifeSignal()
	l.Die()
	l.Die()

	assert.Equal(t, Die, l.State())
	assert.True(t, l.IsDie())

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Die")
	}
}

func TestLifeSignal_SharedAcrossGoroutines(t *testing.T) {
	l := NewLifeSignal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-l.Done()
			assert.True(t, l.IsDie())
		}()
	}

	var dieWg sync.WaitGroup
	for i := 0; i < 4; i++ {
		dieWg.Add(1)
		go func() {
			defer dieWg.Done()
			l.Die()
		}()
	}
	dieWg.Wait()
	wg.Wait()
}

func TestLifeState_String(t *testing.T) {
	assert.Equal(t, "life", Life.String())
	assert.Equal(t, "die", Die.String())
	assert.Equal(t, "unknown", LifeState(7).String())
}
