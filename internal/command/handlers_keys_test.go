package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestExistsCountsDuplicates(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "a", "1")
	f := exec(t, ctx, "EXISTS", "a", "a", "missing")
	assert.Equal(t, resp.Integer(2), f)
}

func TestDelRemovesAndCounts(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "a", "1")
	exec(t, ctx, "SET", "b", "1")
	f := exec(t, ctx, "DEL", "a", "b", "c")
	assert.Equal(t, resp.Integer(2), f)
}

func TestExpireAndTTL(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "k", "v")
	f := exec(t, ctx, "EXPIRE", "k", "100")
	assert.Equal(t, resp.Integer(1), f)
	ttl := exec(t, ctx, "TTL", "k")
	assert.Equal(t, resp.KindInteger, ttl.Kind)
	assert.Greater(t, ttl.Int, int64(0))
}

func TestPersistRemovesTTL(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "k", "v")
	exec(t, ctx, "EXPIRE", "k", "100")
	f := exec(t, ctx, "PERSIST", "k")
	assert.Equal(t, resp.Integer(1), f)
	ttl := exec(t, ctx, "TTL", "k")
	assert.Equal(t, resp.Integer(-1), ttl)
}

func TestTypeReportsKind(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "LPUSH", "k", "v")
	f := exec(t, ctx, "TYPE", "k")
	assert.Equal(t, resp.SimpleString("list"), f)
}

func TestTypeOnMissingKeyIsNone(t *testing.T) {
	f := exec(t, newCtx(), "TYPE", "missing")
	assert.Equal(t, resp.SimpleString("none"), f)
}

func TestRenameMovesValue(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "a", "1")
	f := exec(t, ctx, "RENAME", "a", "b")
	assert.Equal(t, resp.OK(), f)
	assert.False(t, ctx.Store.Exists(0, "a"))
	assert.True(t, ctx.Store.Exists(0, "b"))
}

func TestRenameMissingSourceErrors(t *testing.T) {
	f := exec(t, newCtx(), "RENAME", "missing", "dest")
	assert.True(t, f.IsError())
}

func TestRenameNXFailsWhenDestExists(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "a", "1")
	exec(t, ctx, "SET", "b", "2")
	f := exec(t, ctx, "RENAMENX", "a", "b")
	assert.Equal(t, resp.Integer(0), f)
}

func TestFlushDBAndDBSize(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "a", "1")
	exec(t, ctx, "SET", "b", "1")
	assert.Equal(t, resp.Integer(2), exec(t, ctx, "DBSIZE"))
	exec(t, ctx, "FLUSHDB")
	assert.Equal(t, resp.Integer(0), exec(t, ctx, "DBSIZE"))
}

func TestKeysGlobMatch(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "foo", "1")
	exec(t, ctx, "SET", "bar", "1")
	f := exec(t, ctx, "KEYS", "fo*")
	assert.Len(t, f.Array, 1)
	assert.Equal(t, "foo", string(f.Array[0].Str))
}

func TestScanPaginates(t *testing.T) {
	ctx := newCtx()
	for _, k := range []string{"a", "b", "c"} {
		exec(t, ctx, "SET", k, "1")
	}
	seen := map[string]bool{}
	cursor := "0"
	for {
		f := exec(t, ctx, "SCAN", cursor, "COUNT", "1")
		cursor = string(f.Array[0].Str)
		for _, k := range f.Array[1].Array {
			seen[string(k.Str)] = true
		}
		if cursor == "0" {
			break
		}
	}
	assert.Len(t, seen, 3)
}
