package command

import (
	"strings"
	"time"

	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("GET", handleGet)
	register("SET", handleSet)
	register("MGET", handleMGet)
	register("MSET", handleMSet)
	register("INCR", handleIncr)
	register("INCRBY", handleIncrBy)
	register("DECR", handleDecr)
	register("DECRBY", handleDecrBy)
	register("INCRBYFLOAT", handleIncrByFloat)
	register("APPEND", handleAppend)
	register("STRLEN", handleStrLen)
	register("GETRANGE", handleGetRange)
	register("SETRANGE", handleSetRange)
	register("GETSET", handleGetSet)
	register("GETDEL", handleGetDel)
}

func handleGet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("get")
	}
	v, err := ctx.Store.GetString(ctx.DB, string(args[0]))
	if err == shard.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString(v)
}

func handleSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("set")
	}
	key, val := string(args[0]), args[1]
	var opts shard.SetOptions
	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "GET":
			opts.Get = true
		case "KEEPTTL":
			opts.KeepTTL = true
		case "EX":
			i++
			if i >= len(args) {
				return arityError("set")
			}
			n, err := shard.ParseInt(args[i])
			if err != nil {
				return errFrame(err)
			}
			opts.HasTTL, opts.TTL = true, time.Duration(n)*time.Second
		case "PX":
			i++
			if i >= len(args) {
				return arityError("set")
			}
			n, err := shard.ParseInt(args[i])
			if err != nil {
				return errFrame(err)
			}
			opts.HasTTL, opts.TTL = true, time.Duration(n)*time.Millisecond
		default:
			return resp.Error("ERR syntax error")
		}
	}
	if opts.NX && opts.XX {
		return resp.Error("ERR syntax error")
	}

	prev, hadPrev, applied, err := ctx.Store.SetString(ctx.DB, key, val, opts)
	if err != nil {
		return errFrame(err)
	}
	if opts.Get {
		if !hadPrev {
			return resp.NullBulk()
		}
		return resp.BulkString(prev)
	}
	if !applied {
		return resp.NullBulk()
	}
	return resp.OK()
}

func handleMGet(ctx *Context, args [][]byte) resp.Frame {
	out := make([]resp.Frame, len(args))
	for i, k := range args {
		v, err := ctx.Store.GetString(ctx.DB, string(k))
		if err != nil {
			out[i] = resp.NullBulk()
			continue
		}
		out[i] = resp.BulkString(v)
	}
	return resp.Array(out)
}

func handleMSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 || len(args)%2 != 0 {
		return arityError("mset")
	}
	for i := 0; i < len(args); i += 2 {
		if _, _, _, err := ctx.Store.SetString(ctx.DB, string(args[i]), args[i+1], shard.SetOptions{}); err != nil {
			return errFrame(err)
		}
	}
	return resp.OK()
}

func handleIncr(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("incr")
	}
	return incrByHelper(ctx, string(args[0]), 1)
}

func handleDecr(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("decr")
	}
	return incrByHelper(ctx, string(args[0]), -1)
}

func handleIncrBy(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("incrby")
	}
	n, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	return incrByHelper(ctx, string(args[0]), n)
}

func handleDecrBy(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("decrby")
	}
	n, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	return incrByHelper(ctx, string(args[0]), -n)
}

func incrByHelper(ctx *Context, key string, delta int64) resp.Frame {
	n, err := ctx.Store.IncrBy(ctx.DB, key, delta)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(n)
}

func handleIncrByFloat(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("incrbyfloat")
	}
	delta, err := shard.ParseFloat(args[1])
	if err != nil {
		return errFrame(err)
	}
	f, err := ctx.Store.IncrByFloat(ctx.DB, string(args[0]), delta)
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString([]byte(shard.FormatFloat(f)))
}

func handleAppend(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("append")
	}
	n, err := ctx.Store.Append(ctx.DB, string(args[0]), args[1])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleStrLen(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("strlen")
	}
	n, err := ctx.Store.StrLen(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleGetRange(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("getrange")
	}
	start, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	end, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	v, err := ctx.Store.GetRange(ctx.DB, string(args[0]), int(start), int(end))
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString(v)
}

func handleSetRange(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("setrange")
	}
	offset, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.SetRange(ctx.DB, string(args[0]), int(offset), args[2])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleGetSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("getset")
	}
	prev, err := ctx.Store.GetSet(ctx.DB, string(args[0]), args[1])
	if err != nil {
		return errFrame(err)
	}
	if prev == nil {
		return resp.NullBulk()
	}
	return resp.BulkString(prev)
}

func handleGetDel(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("getdel")
	}
	v, err := ctx.Store.GetDel(ctx.DB, string(args[0]))
	if err == shard.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString(v)
}
