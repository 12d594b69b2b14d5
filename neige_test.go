package neige

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/BaSui01/neige/engine"
	"github.com/BaSui01/neige/testutil"
	"github.com/BaSui01/neige/testutil/fixtures"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHandleLifecycle(t *testing.T) {
	h, err := Create(SinkFunc(func(_ context.Context, req *Request, c *Conn) error {
		_, err := c.WriteString("HTTP/1.1 204 No Content\r\nX-Target: " + req.Target + "\r\n\r\n")
		return err
	}), engine.WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseAll() })

	require.NoError(t, SetPoolCapacity(h, 2))
	n, err := PoolCapacity(h)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, SetObstructing(h, false))
	obstructing, err := Obstructing(h)
	require.NoError(t, err)
	assert.False(t, obstructing)

	require.NoError(t, Launch(h, 0))
	srv, err := engine.DefaultRegistry.Get(h)
	require.NoError(t, err)

	resp := testutil.RoundTrip(t, srv.Addr().String(), fixtures.Get("/ping"))
	assert.Contains(t, resp, "204 No Content")
	assert.Contains(t, resp, "X-Target: /ping")

	require.NoError(t, Close(h))
	err = Close(h)
	assert.True(t, errors.Is(err, engine.ErrHandleNotFound))
}

func TestCreate_NilSink(t *testing.T) {
	_, err := Create(nil)
	assert.ErrorIs(t, err, engine.ErrNilSink)
}
