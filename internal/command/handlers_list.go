package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("LPUSH", handleLPush)
	register("RPUSH", handleRPush)
	register("LPUSHX", handleLPushX)
	register("RPUSHX", handleRPushX)
	register("LPOP", handleLPop)
	register("RPOP", handleRPop)
	register("LLEN", handleLLen)
	register("LINDEX", handleLIndex)
	register("LSET", handleLSet)
	register("LRANGE", handleLRange)
	register("LTRIM", handleLTrim)
	register("LREM", handleLRem)
	register("LINSERT", handleLInsert)
}

func handleLPush(ctx *Context, args [][]byte) resp.Frame {
	return pushHelper(ctx, args, "lpush", shard.Left, false)
}

func handleRPush(ctx *Context, args [][]byte) resp.Frame {
	return pushHelper(ctx, args, "rpush", shard.Right, false)
}

func handleLPushX(ctx *Context, args [][]byte) resp.Frame {
	return pushHelper(ctx, args, "lpushx", shard.Left, true)
}

func handleRPushX(ctx *Context, args [][]byte) resp.Frame {
	return pushHelper(ctx, args, "rpushx", shard.Right, true)
}

func pushHelper(ctx *Context, args [][]byte, name string, dir shard.PushDirection, onlyIfExists bool) resp.Frame {
	if len(args) < 2 {
		return arityError(name)
	}
	n, err := ctx.Store.Push(ctx.DB, string(args[0]), dir, onlyIfExists, args[1:]...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleLPop(ctx *Context, args [][]byte) resp.Frame {
	return popHelper(ctx, args, "lpop", shard.Left)
}

func handleRPop(ctx *Context, args [][]byte) resp.Frame {
	return popHelper(ctx, args, "rpop", shard.Right)
}

func popHelper(ctx *Context, args [][]byte, name string, dir shard.PushDirection) resp.Frame {
	if len(args) < 1 || len(args) > 2 {
		return arityError(name)
	}
	count := 1
	multi := false
	if len(args) == 2 {
		n, err := shard.ParseInt(args[1])
		if err != nil {
			return errFrame(err)
		}
		count = int(n)
		multi = true
	}
	out, err := ctx.Store.Pop(ctx.DB, string(args[0]), dir, count)
	if err != nil {
		return errFrame(err)
	}
	if !multi {
		if len(out) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(out[0])
	}
	if out == nil {
		return resp.NullArray()
	}
	return resp.Array(resp.BulkStrings(out))
}

func handleLLen(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("llen")
	}
	n, err := ctx.Store.LLen(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleLIndex(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("lindex")
	}
	idx, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	v, ok, err := ctx.Store.LIndex(ctx.DB, string(args[0]), int(idx))
	if err != nil {
		return errFrame(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(v)
}

func handleLSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("lset")
	}
	idx, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	if err := ctx.Store.LSet(ctx.DB, string(args[0]), int(idx), args[2]); err != nil {
		return errFrame(err)
	}
	return resp.OK()
}

func handleLRange(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("lrange")
	}
	start, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	stop, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	out, err := ctx.Store.LRange(ctx.DB, string(args[0]), int(start), int(stop))
	if err != nil {
		return errFrame(err)
	}
	return resp.Array(resp.BulkStrings(out))
}

func handleLTrim(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("ltrim")
	}
	start, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	stop, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	if err := ctx.Store.LTrim(ctx.DB, string(args[0]), int(start), int(stop)); err != nil {
		return errFrame(err)
	}
	return resp.OK()
}

func handleLRem(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("lrem")
	}
	count, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.LRem(ctx.DB, string(args[0]), int(count), args[2])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleLInsert(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 4 {
		return arityError("linsert")
	}
	var before bool
	switch upper(args[1]) {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return resp.Error("ERR syntax error")
	}
	n, err := ctx.Store.LInsert(ctx.DB, string(args[0]), before, args[2], args[3])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}
