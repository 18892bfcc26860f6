package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/resp"
)

func TestPingWithoutArgument(t *testing.T) {
	assert.Equal(t, resp.SimpleString("PONG"), exec(t, newCtx(), "PING"))
}

func TestPingEchoesArgument(t *testing.T) {
	assert.Equal(t, resp.BulkString([]byte("hello")), exec(t, newCtx(), "PING", "hello"))
}

func TestEchoReturnsArgument(t *testing.T) {
	assert.Equal(t, resp.BulkString([]byte("hi")), exec(t, newCtx(), "ECHO", "hi"))
}

func TestTimeReturnsTwoElementArray(t *testing.T) {
	f := exec(t, newCtx(), "TIME")
	assert.Len(t, f.Array, 2)
}

func TestSelectSwitchesDatabase(t *testing.T) {
	ctx := newCtx()
	assert.Equal(t, resp.OK(), exec(t, ctx, "SELECT", "1"))
	exec(t, ctx, "SET", "k", "v1")
	exec(t, ctx, "SELECT", "0")
	assert.True(t, exec(t, ctx, "GET", "k").IsNil())
}

func TestSelectOutOfRangeErrors(t *testing.T) {
	f := exec(t, newCtx(), "SELECT", "999")
	assert.True(t, f.IsError())
}

func TestResetClearsTransactionAndDatabase(t *testing.T) {
	ctx := newCtx()
	exec(t, ctx, "SELECT", "2")
	exec(t, ctx, "MULTI")
	f := exec(t, ctx, "RESET")
	assert.Equal(t, resp.SimpleString("RESET"), f)
	assert.Equal(t, 0, ctx.DB)
	assert.Equal(t, resp.Error("ERR EXEC without MULTI"), exec(t, ctx, "EXEC"))
}

func TestCommandCountMatchesRegistrySize(t *testing.T) {
	ctx := newCtx()
	f := exec(t, ctx, "COMMAND", "COUNT")
	assert.Equal(t, resp.KindInteger, f.Kind)
	assert.Greater(t, f.Int, int64(0))
	assert.Equal(t, int64(len(exec(t, ctx, "COMMAND").Array)), f.Int)
}
