package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("HSET", handleHSet)
	register("HMSET", handleHMSet)
	register("HSETNX", handleHSetNX)
	register("HGET", handleHGet)
	register("HMGET", handleHMGet)
	register("HDEL", handleHDel)
	register("HEXISTS", handleHExists)
	register("HLEN", handleHLen)
	register("HKEYS", handleHKeys)
	register("HVALS", handleHVals)
	register("HGETALL", handleHGetAll)
	register("HINCRBY", handleHIncrBy)
	register("HINCRBYFLOAT", handleHIncrByFloat)
}

func pairsFromArgs(args [][]byte) ([][2][]byte, bool) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, false
	}
	pairs := make([][2][]byte, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[i/2] = [2][]byte{args[i], args[i+1]}
	}
	return pairs, true
}

func handleHSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return arityError("hset")
	}
	pairs, ok := pairsFromArgs(args[1:])
	if !ok {
		return resp.Error("ERR wrong number of arguments for HMSET")
	}
	n, err := ctx.Store.HSet(ctx.DB, string(args[0]), pairs)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleHMSet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return arityError("hmset")
	}
	pairs, ok := pairsFromArgs(args[1:])
	if !ok {
		return resp.Error("ERR wrong number of arguments for HMSET")
	}
	if _, err := ctx.Store.HSet(ctx.DB, string(args[0]), pairs); err != nil {
		return errFrame(err)
	}
	return resp.OK()
}

func handleHSetNX(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("hsetnx")
	}
	ok, err := ctx.Store.HSetNX(ctx.DB, string(args[0]), args[1], args[2])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(boolInt(ok))
}

func handleHGet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("hget")
	}
	v, ok, err := ctx.Store.HGet(ctx.DB, string(args[0]), args[1])
	if err != nil {
		return errFrame(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(v)
}

func handleHMGet(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("hmget")
	}
	out := make([]resp.Frame, len(args)-1)
	for i, f := range args[1:] {
		v, ok, err := ctx.Store.HGet(ctx.DB, string(args[0]), f)
		if err != nil {
			return errFrame(err)
		}
		if !ok {
			out[i] = resp.NullBulk()
			continue
		}
		out[i] = resp.BulkString(v)
	}
	return resp.Array(out)
}

func handleHDel(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("hdel")
	}
	n, err := ctx.Store.HDel(ctx.DB, string(args[0]), args[1:]...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleHExists(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("hexists")
	}
	ok, err := ctx.Store.HExists(ctx.DB, string(args[0]), args[1])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(boolInt(ok))
}

func handleHLen(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("hlen")
	}
	n, err := ctx.Store.HLen(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleHKeys(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("hkeys")
	}
	all, err := ctx.Store.HGetAll(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	out := make([]resp.Frame, 0, len(all))
	for k := range all {
		out = append(out, resp.BulkString([]byte(k)))
	}
	return resp.Array(out)
}

func handleHVals(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("hvals")
	}
	all, err := ctx.Store.HGetAll(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	out := make([]resp.Frame, 0, len(all))
	for _, v := range all {
		out = append(out, resp.BulkString(v))
	}
	return resp.Array(out)
}

func handleHGetAll(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("hgetall")
	}
	all, err := ctx.Store.HGetAll(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	out := make([]resp.Frame, 0, len(all)*2)
	for k, v := range all {
		out = append(out, resp.BulkString([]byte(k)), resp.BulkString(v))
	}
	return resp.Array(out)
}

func handleHIncrBy(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("hincrby")
	}
	delta, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.HIncrBy(ctx.DB, string(args[0]), args[1], delta)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(n)
}

func handleHIncrByFloat(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("hincrbyfloat")
	}
	delta, err := shard.ParseFloat(args[2])
	if err != nil {
		return errFrame(err)
	}
	f, err := ctx.Store.HIncrByFloat(ctx.DB, string(args[0]), args[1], delta)
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString([]byte(shard.FormatFloat(f)))
}
