package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestXAddExplicitIDThenXLen(t *testing.T) {
	ctx := newCtx()
	f := exec(t, ctx, "XADD", "s", "1-1", "field", "value")
	assert.Equal(t, resp.BulkString([]byte("1-1")), f)
	assert.Equal(t, resp.Integer(1), exec(t, ctx, "XLEN", "s"))
}

func TestXAddOutOfOrderIDErrors(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "XADD", "s", "5-0", "f", "v")
	f := exec(t, ctx, "XADD", "s", "1-0", "f", "v")
	assert.True(t, f.IsError())
}

func TestXRangeReturnsEntries(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "XADD", "s", "1-1", "f", "v1")
	exec(t, ctx, "XADD", "s", "2-1", "f", "v2")
	f := exec(t, ctx, "XRANGE", "s", "-", "+")
	assert.Len(t, f.Array, 2)
	assert.Equal(t, "1-1", string(f.Array[0].Array[0].Str))
}

func TestXGroupCreateAndXReadGroup(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "XADD", "s", "1-1", "f", "v")
	created := exec(t, ctx, "XGROUP", "CREATE", "s", "g", "0")
	assert.Equal(t, resp.OK(), created)

	f := exec(t, ctx, "XREADGROUP", "GROUP", "g", "c1", "STREAMS", "s", ">")
	stream := f.Array[0].Array
	assert.Equal(t, "s", string(stream[0].Str))
	entries := stream[1].Array
	assert.Len(t, entries, 1)
}

func TestXAckRemovesPending(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "XADD", "s", "1-1", "f", "v")
	exec(t, ctx, "XGROUP", "CREATE", "s", "g", "0")
	exec(t, ctx, "XREADGROUP", "GROUP", "g", "c1", "STREAMS", "s", ">")
	f := exec(t, ctx, "XACK", "s", "g", "1-1")
	assert.Equal(t, resp.Integer(1), f)
}

func TestXPendingSummaryAfterDelivery(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "XADD", "s", "1-1", "f", "v")
	exec(t, ctx, "XGROUP", "CREATE", "s", "g", "0")
	exec(t, ctx, "XREADGROUP", "GROUP", "g", "c1", "STREAMS", "s", ">")
	f := exec(t, ctx, "XPENDING", "s", "g")
	assert.Equal(t, resp.Integer(1), f.Array[0])
}
