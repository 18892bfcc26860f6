package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("PING", handlePing)
	register("ECHO", handleEcho)
	register("TIME", handleTime)
	register("SELECT", handleSelect)
	register("COMMAND", handleCommand)
	register("SHUTDOWN", handleShutdown)
	register("RESET", handleReset)
}

func handlePing(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return resp.SimpleString("PONG")
	}
	if len(args) == 1 {
		return resp.BulkString(args[0])
	}
	return arityError("ping")
}

func handleEcho(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("echo")
	}
	return resp.BulkString(args[0])
}

func handleTime(ctx *Context, args [][]byte) resp.Frame {
	now := time.Now()
	return resp.Array([]resp.Frame{
		resp.BulkString([]byte(strconv.FormatInt(now.Unix(), 10))),
		resp.BulkString([]byte(strconv.FormatInt(now.UnixMicro()%1_000_000, 10))),
	})
}

func handleSelect(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("select")
	}
	n, err := shard.ParseInt(args[0])
	if err != nil {
		return errFrame(err)
	}
	if int(n) < 0 || int(n) >= ctx.Store.NumDatabases() {
		return resp.Error("ERR DB index is out of range")
	}
	ctx.DB = int(n)
	return resp.OK()
}

func handleCommand(ctx *Context, args [][]byte) resp.Frame {
	if len(args) > 0 && strings.ToUpper(string(args[0])) == "COUNT" {
		return resp.Integer(int64(len(registry)))
	}
	out := make([]resp.Frame, 0, len(registry))
	for name := range registry {
		out = append(out, resp.BulkString([]byte(strings.ToLower(name))))
	}
	return resp.Array(out)
}

func handleShutdown(ctx *Context, args [][]byte) resp.Frame {
	return resp.OK()
}

func handleReset(ctx *Context, args [][]byte) resp.Frame {
	ctx.Txn.Discard(ctx.Store)
	ctx.DB = 0
	return resp.SimpleString("RESET")
}
