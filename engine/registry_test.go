package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/neige/testutil"
	"github.com/BaSui01/neige/testutil/fixtures"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	t.Cleanup(func() { _ = r.CloseAll() })

	h, err := r.Create(echoSink(), WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.SetPoolCapacity(h, 3))
	n, err := r.PoolCapacity(h)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	obstructing, err := r.Obstructing(h)
	require.NoError(t, err)
	assert.False(t, obstructing)

	require.NoError(t, r.Launch(h, 0))
	srv, err := r.Get(h)
	require.NoError(t, err)

	resp := testutil.RoundTrip(t, srv.Addr().String(), fixtures.GetRoot)
	assert.Contains(t, resp, "200 OK")

	require.NoError(t, r.Close(h))
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, r.Close(h), ErrHandleNotFound)
}

func TestRegistry_CreateNilSink(t *testing.T) {
	r := NewRegistry()
	h, err := r.Create(nil)
	assert.ErrorIs(t, err, ErrNilSink)
	assert.Zero(t, h)
	assert.Zero(t, r.Len())
}

func TestRegistry_UnknownHandle(t *testing.T) {
	r := NewRegistry()
	const h = Handle(42)

	_, err := r.Get(h)
	assert.ErrorIs(t, err, ErrHandleNotFound)
	assert.ErrorIs(t, r.SetPoolCapacity(h, 2), ErrHandleNotFound)
	assert.ErrorIs(t, r.SetObstructing(h, true), ErrHandleNotFound)
	assert.ErrorIs(t, r.Launch(h, 0), ErrHandleNotFound)
	_, err = r.PoolCapacity(h)
	assert.ErrorIs(t, err, ErrHandleNotFound)
	_, err = r.Obstructing(h)
	assert.ErrorIs(t, err, ErrHandleNotFound)
}

func TestRegistry_HandlesAreDistinct(t *testing.T) {
	r := NewRegistry()
	t.Cleanup(func() { _ = r.CloseAll() })

	const n = 50
	handles := make(chan Handle, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Create(echoSink())
			if err == nil {
				handles <- h
			}
		}()
	}
	wg.Wait()
	close(handles)

	seen := make(map[Handle]bool)
	for h := range handles {
		assert.False(t, seen[h], "duplicate handle %d", h)
		seen[h] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, r.Len())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()

	var handles []Handle
	for range 3 {
		h, err := r.Create(echoSink(), WithPollInterval(time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, r.Launch(h, 0))
		handles = append(handles, h)
	}
	// 未启动的实例也能关闭
	_, err := r.Create(echoSink())
	require.NoError(t, err)

	require.NoError(t, r.CloseAll())
	assert.Zero(t, r.Len())
	for _, h := range handles {
		assert.ErrorIs(t, r.Close(h), ErrHandleNotFound)
	}
}
