package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	_, ok := ConnID(ctx)
	assert.False(t, ok)

	ctx = WithConnID(ctx, "c-1")
	ctx = WithTraceID(ctx, "t-1")
	ctx = WithRemoteAddr(ctx, "127.0.0.1:5000")

	id, ok := ConnID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "c-1", id)

	trace, ok := TraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t-1", trace)

	addr, ok := RemoteAddr(ctx)
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1:5000", addr)
}

func TestContextKeys_EmptyIsAbsent(t *testing.T) {
	ctx := WithConnID(context.Background(), "")
	_, ok := ConnID(ctx)
	assert.False(t, ok)
}
