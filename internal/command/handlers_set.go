package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("SADD", handleSAdd)
	register("SREM", handleSRem)
	register("SISMEMBER", handleSIsMember)
	register("SMEMBERS", handleSMembers)
	register("SCARD", handleSCard)
	register("SINTER", handleSInter)
	register("SUNION", handleSUnion)
	register("SDIFF", handleSDiff)
	register("SINTERSTORE", handleSInterStore)
	register("SUNIONSTORE", handleSUnionStore)
	register("SDIFFSTORE", handleSDiffStore)
	register("SPOP", handleSPop)
	register("SRANDMEMBER", handleSRandMember)
}

func handleSAdd(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("sadd")
	}
	n, err := ctx.Store.SAdd(ctx.DB, string(args[0]), args[1:]...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleSRem(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("srem")
	}
	n, err := ctx.Store.SRem(ctx.DB, string(args[0]), args[1:]...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleSIsMember(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("sismember")
	}
	ok, err := ctx.Store.SIsMember(ctx.DB, string(args[0]), args[1])
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(boolInt(ok))
}

func handleSMembers(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("smembers")
	}
	members, err := ctx.Store.SMembers(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Array(resp.BulkStrings(members))
}

func handleSCard(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("scard")
	}
	n, err := ctx.Store.SCard(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func keyStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func handleSInter(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("sinter")
	}
	members, err := ctx.Store.SInter(ctx.DB, keyStrings(args)...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Array(resp.BulkStrings(members))
}

func handleSUnion(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("sunion")
	}
	members, err := ctx.Store.SUnion(ctx.DB, keyStrings(args)...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Array(resp.BulkStrings(members))
}

func handleSDiff(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("sdiff")
	}
	members, err := ctx.Store.SDiff(ctx.DB, keyStrings(args)...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Array(resp.BulkStrings(members))
}

func handleSInterStore(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("sinterstore")
	}
	n, err := ctx.Store.SInterStore(ctx.DB, string(args[0]), keyStrings(args[1:])...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleSUnionStore(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("sunionstore")
	}
	n, err := ctx.Store.SUnionStore(ctx.DB, string(args[0]), keyStrings(args[1:])...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleSDiffStore(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("sdiffstore")
	}
	n, err := ctx.Store.SDiffStore(ctx.DB, string(args[0]), keyStrings(args[1:])...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleSPop(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 1 || len(args) > 2 {
		return arityError("spop")
	}
	count, multi := 1, false
	if len(args) == 2 {
		n, err := shard.ParseInt(args[1])
		if err != nil {
			return errFrame(err)
		}
		count, multi = int(n), true
	}
	out, err := ctx.Store.SPop(ctx.DB, string(args[0]), count)
	if err != nil {
		return errFrame(err)
	}
	if !multi {
		if len(out) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(out[0])
	}
	return resp.Array(resp.BulkStrings(out))
}

func handleSRandMember(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 1 || len(args) > 2 {
		return arityError("srandmember")
	}
	count, multi := 1, false
	if len(args) == 2 {
		n, err := shard.ParseInt(args[1])
		if err != nil {
			return errFrame(err)
		}
		count, multi = int(n), true
	}
	out, err := ctx.Store.SRandMember(ctx.DB, string(args[0]), count)
	if err != nil {
		return errFrame(err)
	}
	if !multi {
		if len(out) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(out[0])
	}
	return resp.Array(resp.BulkStrings(out))
}
