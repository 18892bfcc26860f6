package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func newCtx() *command.Context {
	return command.NewContext(shard.New(16, 0), nil)
}

func exec(t *testing.T, ctx *command.Context, name string, args ...string) resp.Frame {
	t.Helper()
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return command.Execute(ctx, command.Command{Name: name, Args: raw})
}

func TestExecuteUnknownCommand(t *testing.T) {
	f := exec(t, newCtx(), "NOTACOMMAND")
	assert.True(t, f.IsError())
}

func TestExecuteSetThenGet(t *testing.T) {
	ctx := newCtx()
	require.Equal(t, resp.OK(), exec(t, ctx, "SET", "k", "v"))
	got := exec(t, ctx, "GET", "k")
	assert.Equal(t, resp.BulkString([]byte("v")), got)
}

func TestMultiQueuesInsteadOfRunning(t *testing.T) {
	ctx := newCtx()
	require.Equal(t, resp.OK(), exec(t, ctx, "MULTI"))
	queued := exec(t, ctx, "SET", "k", "v")
	assert.Equal(t, resp.SimpleString("QUEUED"), queued)
	assert.True(t, ctx.Txn.InMulti)
	assert.Len(t, ctx.Txn.Queued, 1)
	// not yet applied
	assert.False(t, ctx.Store.Exists(0, "k"))
}

func TestExecRunsQueuedCommandsInOrder(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "MULTI")
	exec(t, ctx, "SET", "k", "1")
	exec(t, ctx, "INCR", "k")
	result := exec(t, ctx, "EXEC")
	require.Equal(t, resp.KindArray, result.Kind)
	require.Len(t, result.Array, 2)
	assert.Equal(t, resp.OK(), result.Array[0])
	assert.Equal(t, resp.Integer(2), result.Array[1])
	assert.False(t, ctx.Txn.InMulti)
}

func TestExecAbortsOnWatchedKeyMutation(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "k", "1")
	exec(t, ctx, "WATCH", "k")
	exec(t, ctx, "MULTI")
	exec(t, ctx, "SET", "k", "2")

	// another connection mutates k between WATCH and EXEC
	_, _, _, err := ctx.Store.SetString(0, "k", []byte("tampered"), shard.SetOptions{})
	require.NoError(t, err)

	result := exec(t, ctx, "EXEC")
	assert.True(t, result.IsNil())
}

func TestExecWithoutMultiErrors(t *testing.T) {
	f := exec(t, newCtx(), "EXEC")
	assert.True(t, f.IsError())
}

func TestMultiCannotNest(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "MULTI")
	f := exec(t, ctx, "MULTI")
	assert.True(t, f.IsError())
}

func TestImmediateCommandsRunWhileQueuing(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SET", "k", "1")
	exec(t, ctx, "WATCH", "k")
	f := exec(t, ctx, "MULTI")
	assert.Equal(t, resp.OK(), f)
	// WATCH/MULTI/DISCARD run immediately rather than being queued even
	// while InMulti is true; data commands still queue.
	queued := exec(t, ctx, "GET", "k")
	assert.Equal(t, resp.SimpleString("QUEUED"), queued)
	assert.Equal(t, resp.OK(), exec(t, ctx, "DISCARD"))
	assert.False(t, ctx.Txn.InMulti)
}
