package command

import (
	"strings"

	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/skiplist"
)

func init() {
	register("ZADD", handleZAdd)
	register("ZREM", handleZRem)
	register("ZSCORE", handleZScore)
	register("ZCARD", handleZCard)
	register("ZRANK", handleZRank)
	register("ZREVRANK", handleZRevRank)
	register("ZRANGE", handleZRange)
	register("ZREVRANGE", handleZRevRange)
	register("ZRANGEBYSCORE", handleZRangeByScore)
	register("ZREVRANGEBYSCORE", handleZRevRangeByScore)
	register("ZCOUNT", handleZCount)
	register("ZINCRBY", handleZIncrBy)
	register("ZPOPMIN", handleZPopMin)
	register("ZPOPMAX", handleZPopMax)
	register("ZREMRANGEBYRANK", handleZRemRangeByRank)
	register("ZREMRANGEBYSCORE", handleZRemRangeByScore)
}

func handleZAdd(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return arityError("zadd")
	}
	var opts shard.ZAddOptions
	i := 1
loop:
	for ; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "GT":
			opts.GT = true
		case "LT":
			opts.LT = true
		case "CH":
			opts.Ch = true
		case "INCR":
			opts.Incr = true
		default:
			break loop
		}
	}
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.Error("ERR syntax error")
	}
	if (opts.NX && opts.XX) || (opts.NX && (opts.GT || opts.LT)) {
		return resp.Error("ERR GT, LT, and/or NX options at the same time are not compatible")
	}
	members := make([]skiplist.Entry, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		score, err := shard.ParseFloat(rest[j])
		if err != nil {
			return errFrame(err)
		}
		members[j/2] = skiplist.Entry{Score: score, Member: string(rest[j+1])}
	}
	if opts.Incr && len(members) != 1 {
		return resp.Error("ERR INCR option supports a single increment-element pair")
	}
	res, err := ctx.Store.ZAdd(ctx.DB, string(args[0]), opts, members)
	if err != nil {
		return errFrame(err)
	}
	if opts.Incr {
		if res.Skipped {
			return resp.NullBulk()
		}
		return resp.BulkString([]byte(shard.FormatFloat(res.NewScore)))
	}
	if opts.Ch {
		return resp.Integer(int64(res.Added + res.Changed))
	}
	return resp.Integer(int64(res.Added))
}

func handleZRem(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("zrem")
	}
	n, err := ctx.Store.ZRem(ctx.DB, string(args[0]), keyStrings(args[1:])...)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleZScore(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("zscore")
	}
	sc, ok, err := ctx.Store.ZScore(ctx.DB, string(args[0]), string(args[1]))
	if err != nil {
		return errFrame(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString([]byte(shard.FormatFloat(sc)))
}

func handleZCard(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("zcard")
	}
	n, err := ctx.Store.ZCard(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleZRank(ctx *Context, args [][]byte) resp.Frame {
	return zRankHelper(ctx, args, "zrank", false)
}

func handleZRevRank(ctx *Context, args [][]byte) resp.Frame {
	return zRankHelper(ctx, args, "zrevrank", true)
}

func zRankHelper(ctx *Context, args [][]byte, name string, reverse bool) resp.Frame {
	if len(args) != 2 {
		return arityError(name)
	}
	r, ok, err := ctx.Store.ZRank(ctx.DB, string(args[0]), string(args[1]), reverse)
	if err != nil {
		return errFrame(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Integer(int64(r))
}

func zEntriesFrame(entries []skiplist.Entry, withScores bool) resp.Frame {
	out := make([]resp.Frame, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, resp.BulkString([]byte(e.Member)))
		if withScores {
			out = append(out, resp.BulkString([]byte(shard.FormatFloat(e.Score))))
		}
	}
	return resp.Array(out)
}

func parseWithScores(args [][]byte) bool {
	for _, a := range args {
		if strings.ToUpper(string(a)) == "WITHSCORES" {
			return true
		}
	}
	return false
}

func handleZRange(ctx *Context, args [][]byte) resp.Frame {
	return zRangeByRankHelper(ctx, args, "zrange", false)
}

func handleZRevRange(ctx *Context, args [][]byte) resp.Frame {
	return zRangeByRankHelper(ctx, args, "zrevrange", true)
}

func zRangeByRankHelper(ctx *Context, args [][]byte, name string, reverse bool) resp.Frame {
	if len(args) < 3 {
		return arityError(name)
	}
	start, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	stop, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	entries, err := ctx.Store.ZRangeByRank(ctx.DB, string(args[0]), int(start), int(stop), reverse)
	if err != nil {
		return errFrame(err)
	}
	return zEntriesFrame(entries, parseWithScores(args[3:]))
}

func handleZRangeByScore(ctx *Context, args [][]byte) resp.Frame {
	return zRangeByScoreHelper(ctx, args, "zrangebyscore", false)
}

func handleZRevRangeByScore(ctx *Context, args [][]byte) resp.Frame {
	return zRangeByScoreHelper(ctx, args, "zrevrangebyscore", true)
}

func zRangeByScoreHelper(ctx *Context, args [][]byte, name string, reverse bool) resp.Frame {
	if len(args) < 3 {
		return arityError(name)
	}
	minArg, maxArg := args[1], args[2]
	if reverse {
		minArg, maxArg = args[2], args[1]
	}
	min, err := shard.ParseFloat(minArg)
	if err != nil {
		return errFrame(err)
	}
	max, err := shard.ParseFloat(maxArg)
	if err != nil {
		return errFrame(err)
	}
	entries, err := ctx.Store.ZRangeByScore(ctx.DB, string(args[0]), min, max, reverse)
	if err != nil {
		return errFrame(err)
	}
	return zEntriesFrame(entries, parseWithScores(args[3:]))
}

func handleZCount(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("zcount")
	}
	min, err := shard.ParseFloat(args[1])
	if err != nil {
		return errFrame(err)
	}
	max, err := shard.ParseFloat(args[2])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.ZCount(ctx.DB, string(args[0]), min, max)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleZIncrBy(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("zincrby")
	}
	delta, err := shard.ParseFloat(args[1])
	if err != nil {
		return errFrame(err)
	}
	f, err := ctx.Store.ZIncrBy(ctx.DB, string(args[0]), string(args[2]), delta)
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString([]byte(shard.FormatFloat(f)))
}

func handleZPopMin(ctx *Context, args [][]byte) resp.Frame {
	return zPopHelper(ctx, args, "zpopmin", ctx.Store.ZPopMin)
}

func handleZPopMax(ctx *Context, args [][]byte) resp.Frame {
	return zPopHelper(ctx, args, "zpopmax", ctx.Store.ZPopMax)
}

func zPopHelper(ctx *Context, args [][]byte, name string, fn func(db int, key string, count int) ([]skiplist.Entry, error)) resp.Frame {
	if len(args) < 1 || len(args) > 2 {
		return arityError(name)
	}
	count := 1
	if len(args) == 2 {
		n, err := shard.ParseInt(args[1])
		if err != nil {
			return errFrame(err)
		}
		count = int(n)
	}
	entries, err := fn(ctx.DB, string(args[0]), count)
	if err != nil {
		return errFrame(err)
	}
	return zEntriesFrame(entries, true)
}

func handleZRemRangeByRank(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("zremrangebyrank")
	}
	start, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	stop, err := shard.ParseInt(args[2])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.ZRemRangeByRank(ctx.DB, string(args[0]), int(start), int(stop))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleZRemRangeByScore(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 3 {
		return arityError("zremrangebyscore")
	}
	min, err := shard.ParseFloat(args[1])
	if err != nil {
		return errFrame(err)
	}
	max, err := shard.ParseFloat(args[2])
	if err != nil {
		return errFrame(err)
	}
	n, err := ctx.Store.ZRemRangeByScore(ctx.DB, string(args[0]), min, max)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}
