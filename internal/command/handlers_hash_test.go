package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestHSetAndHGet(t *testing.T) {
	ctx := newCtx()
	f := exec(t, ctx, "HSET", "h", "f1", "v1", "f2", "v2")
	assert.Equal(t, resp.Integer(2), f)
	assert.Equal(t, resp.BulkString([]byte("v1")), exec(t, ctx, "HGET", "h", "f1"))
}

func TestHSetNXSkipsExisting(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "HSET", "h", "f", "v1")
	f := exec(t, ctx, "HSETNX", "h", "f", "v2")
	assert.Equal(t, resp.Integer(0), f)
	assert.Equal(t, resp.BulkString([]byte("v1")), exec(t, ctx, "HGET", "h", "f"))
}

func TestHGetAllReturnsAllPairs(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "HSET", "h", "a", "1", "b", "2")
	f := exec(t, ctx, "HGETALL", "h")
	assert.Len(t, f.Array, 4)
}

func TestHDelRemovesFields(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "HSET", "h", "a", "1")
	f := exec(t, ctx, "HDEL", "h", "a")
	assert.Equal(t, resp.Integer(1), f)
	assert.Equal(t, resp.Integer(0), exec(t, ctx, "HEXISTS", "h", "a"))
}

func TestHIncrByCreatesField(t *testing.T) {
	f := exec(t, newCtx(), "HINCRBY", "h", "counter", "5")
	assert.Equal(t, resp.Integer(5), f)
}
