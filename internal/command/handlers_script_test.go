package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/script"
	"github.com/dreamware/redcore/internal/shard"
)

func newScriptedCtx() *command.Context {
	return command.NewContext(shard.New(16, 0), script.NewEngine())
}

func TestEvalWithoutScriptEngineErrors(t *testing.T) {
	f := exec(t, newCtx(), "EVAL", "return 1", "0")
	assert.True(t, f.IsError())
}

func TestEvalReturnsScriptResult(t *testing.T) {
	f := exec(t, newScriptedCtx(), "EVAL", "return 1 + 1", "0")
	assert.Equal(t, resp.Integer(2), f)
}

func TestEvalPassesKeysAndArgv(t *testing.T) {
	ctx := newScriptedCtx()
	f := exec(t, ctx, "EVAL", `return redis.call("SET", KEYS[1], ARGV[1])`, "1", "foo", "bar")
	require.False(t, f.IsError())

	got, err := ctx.Store.GetString(0, "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", string(got))
}

func TestEvalRejectsNumkeysGreaterThanArgs(t *testing.T) {
	f := exec(t, newScriptedCtx(), "EVAL", "return 1", "5", "onlyone")
	assert.True(t, f.IsError())
}

func TestScriptLoadExistsFlush(t *testing.T) {
	ctx := newScriptedCtx()
	loaded := exec(t, ctx, "SCRIPT", "LOAD", "return 1")
	require.False(t, loaded.IsError())
	sha := string(loaded.Str)

	existsFrame := exec(t, ctx, "SCRIPT", "EXISTS", sha, "deadbeef")
	require.Len(t, existsFrame.Array, 2)
	assert.Equal(t, resp.Integer(1), existsFrame.Array[0])
	assert.Equal(t, resp.Integer(0), existsFrame.Array[1])

	assert.Equal(t, resp.OK(), exec(t, ctx, "SCRIPT", "FLUSH"))

	afterFlush := exec(t, ctx, "SCRIPT", "EXISTS", sha)
	assert.Equal(t, resp.Integer(0), afterFlush.Array[0])
}

func TestEvalShaAfterLoad(t *testing.T) {
	ctx := newScriptedCtx()
	loaded := exec(t, ctx, "SCRIPT", "LOAD", `return "hi"`)
	sha := string(loaded.Str)

	f := exec(t, ctx, "EVALSHA", sha, "0")
	assert.Equal(t, resp.BulkString([]byte("hi")), f)
}

func TestEvalShaMissingIsNoScript(t *testing.T) {
	f := exec(t, newScriptedCtx(), "EVALSHA", "0000000000000000000000000000000000000000", "0")
	require.True(t, f.IsError())
	assert.Contains(t, string(f.Str), "NOSCRIPT")
}

func TestScriptKillWithNothingRunning(t *testing.T) {
	f := exec(t, newScriptedCtx(), "SCRIPT", "KILL")
	assert.True(t, f.IsError())
}
