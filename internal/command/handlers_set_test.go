package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestSAddAndSIsMember(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SADD", "s", "a", "b")
	assert.Equal(t, resp.Integer(1), exec(t, ctx, "SISMEMBER", "s", "a"))
	assert.Equal(t, resp.Integer(0), exec(t, ctx, "SISMEMBER", "s", "z"))
}

func TestSInterAndSUnion(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SADD", "s1", "a", "b")
	exec(t, ctx, "SADD", "s2", "b", "c")
	inter := exec(t, ctx, "SINTER", "s1", "s2")
	assert.Len(t, inter.Array, 1)
	union := exec(t, ctx, "SUNION", "s1", "s2")
	assert.Len(t, union.Array, 3)
}

func TestSInterStoreWritesDest(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SADD", "s1", "a", "b")
	exec(t, ctx, "SADD", "s2", "b", "c")
	f := exec(t, ctx, "SINTERSTORE", "dest", "s1", "s2")
	assert.Equal(t, resp.Integer(1), f)
	assert.Equal(t, resp.Integer(1), exec(t, ctx, "SCARD", "dest"))
}

func TestSPopRemovesMember(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SADD", "s", "only")
	f := exec(t, ctx, "SPOP", "s")
	assert.Equal(t, resp.BulkString([]byte("only")), f)
	assert.Equal(t, resp.Integer(0), exec(t, ctx, "SCARD", "s"))
}

func TestSRandMemberDoesNotRemove(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SADD", "s", "only")
	exec(t, ctx, "SRANDMEMBER", "s")
	assert.Equal(t, resp.Integer(1), exec(t, ctx, "SCARD", "s"))
}
