package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestPushAndRange(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "RPUSH", "l", "a", "b", "c")
	f := exec(t, ctx, "LRANGE", "l", "0", "-1")
	want := []string{"a", "b", "c"}
	for i, w := range want {
		assert.Equal(t, w, string(f.Array[i].Str))
	}
}

func TestLPushXNoopOnMissingKey(t *testing.T) {
	f := exec(t, newCtx(), "LPUSHX", "missing", "v")
	assert.Equal(t, resp.Integer(0), f)
}

func TestLPopWithCountReturnsArray(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "RPUSH", "l", "a", "b", "c")
	f := exec(t, ctx, "LPOP", "l", "2")
	assert.Equal(t, resp.KindArray, f.Kind)
	assert.Len(t, f.Array, 2)
}

func TestLPopSingleOnEmptyListIsNull(t *testing.T) {
	f := exec(t, newCtx(), "LPOP", "missing")
	assert.True(t, f.IsNil())
}

func TestLIndexAndLSet(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "RPUSH", "l", "a", "b")
	exec(t, ctx, "LSET", "l", "1", "z")
	f := exec(t, ctx, "LINDEX", "l", "1")
	assert.Equal(t, resp.BulkString([]byte("z")), f)
}

func TestLRemRemovesMatches(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "RPUSH", "l", "a", "b", "a")
	f := exec(t, ctx, "LREM", "l", "0", "a")
	assert.Equal(t, resp.Integer(2), f)
}

func TestLInsertBeforePivot(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "RPUSH", "l", "a", "c")
	f := exec(t, ctx, "LINSERT", "l", "BEFORE", "c", "b")
	assert.Equal(t, resp.Integer(3), f)
	got := exec(t, ctx, "LRANGE", "l", "0", "-1")
	assert.Equal(t, "b", string(got.Array[1].Str))
}
