package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/script"
	"github.com/dreamware/redcore/internal/shard"
)

func newCtx(eng *script.Engine) *command.Context {
	return command.NewContext(shard.New(16, 0), eng)
}

func TestEvalReturnsLuaValue(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	f, err := eng.Eval(ctx, `return 1 + 2`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.Int)
}

func TestEvalCanCallIntoStore(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	f, err := eng.Eval(ctx, `return redis.call("SET", KEYS[1], ARGV[1])`, [][]byte{[]byte("foo")}, [][]byte{[]byte("bar")})
	require.NoError(t, err)
	assert.False(t, f.IsError())

	got, err := ctx.Store.GetString(0, "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", string(got))
}

func TestEvalShaRoundTrip(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	sha, err := eng.Load(`return "hi"`)
	require.NoError(t, err)

	f, err := eng.EvalSha(ctx, sha, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(f.Str))
}

func TestEvalShaMissingReturnsNoScript(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	f, err := eng.EvalSha(ctx, "0000000000000000000000000000000000000000", nil, nil)
	require.NoError(t, err)
	require.True(t, f.IsError())
	assert.Contains(t, string(f.Str), "NOSCRIPT")
}

func TestExistsReflectsCacheContents(t *testing.T) {
	eng := script.NewEngine()
	sha, err := eng.Load(`return 1`)
	require.NoError(t, err)

	got := eng.Exists([]string{sha, "deadbeef"})
	require.Len(t, got, 2)
	assert.True(t, got[0])
	assert.False(t, got[1])
}

func TestFlushClearsCache(t *testing.T) {
	eng := script.NewEngine()
	sha, err := eng.Load(`return 1`)
	require.NoError(t, err)
	eng.Flush()

	got := eng.Exists([]string{sha})
	assert.False(t, got[0])
}

func TestKillWithNothingRunningIsNotBusy(t *testing.T) {
	eng := script.NewEngine()
	err := eng.Kill()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTBUSY")
}

func TestEvalRollsBackOnError(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	_, err := eng.Eval(ctx, `return redis.call("SET", KEYS[1], ARGV[1])`, [][]byte{[]byte("k")}, [][]byte{[]byte("orig")})
	require.NoError(t, err)

	f, err := eng.Eval(ctx, `
		redis.call("SET", KEYS[1], ARGV[1])
		error("boom")
	`, [][]byte{[]byte("k")}, [][]byte{[]byte("changed")})
	require.NoError(t, err)
	assert.True(t, f.IsError())

	got, err := ctx.Store.GetString(0, "k")
	require.NoError(t, err)
	assert.Equal(t, "orig", string(got))
}

func TestEvalRollsBackDeleteWhenKeyDidNotExist(t *testing.T) {
	eng := script.NewEngine()
	ctx := newCtx(eng)

	f, err := eng.Eval(ctx, `
		redis.call("SET", KEYS[1], ARGV[1])
		error("boom")
	`, [][]byte{[]byte("fresh")}, [][]byte{[]byte("v")})
	require.NoError(t, err)
	assert.True(t, f.IsError())

	_, err = ctx.Store.GetString(0, "fresh")
	assert.Error(t, err)
}
