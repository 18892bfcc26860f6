package command

import (
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
)

func init() {
	register("EXISTS", handleExists)
	register("DEL", handleDel)
	register("UNLINK", handleDel)
	register("EXPIRE", handleExpire)
	register("PEXPIRE", handlePExpire)
	register("TTL", handleTTL)
	register("PTTL", handlePTTL)
	register("PERSIST", handlePersist)
	register("TYPE", handleType)
	register("RENAME", handleRename)
	register("RENAMENX", handleRenameNX)
	register("KEYS", handleKeys)
	register("RANDOMKEY", handleRandomKey)
	register("SCAN", handleScan)
	register("FLUSHDB", handleFlushDB)
	register("FLUSHALL", handleFlushAll)
	register("DBSIZE", handleDBSize)
}

// handleExists counts existing keys, fanning out across an errgroup
// when given more than one key the way a real multi-shard lookup would
// benefit from concurrency (the per-key work here is a single shard
// lock, so this mirrors the fan-out shape the engine uses for the
// heavier multi-key set operations).
func handleExists(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("exists")
	}
	counts := make([]int, len(args))
	var g errgroup.Group
	for i, k := range args {
		i, k := i, k
		g.Go(func() error {
			if ctx.Store.Exists(ctx.DB, string(k)) {
				counts[i] = 1
			}
			return nil
		})
	}
	_ = g.Wait()
	total := 0
	for _, c := range counts {
		total += c
	}
	return resp.Integer(int64(total))
}

func handleDel(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("del")
	}
	removed := 0
	for _, k := range args {
		if ctx.Store.Delete(ctx.DB, string(k)) {
			removed++
		}
	}
	return resp.Integer(int64(removed))
}

func handleExpire(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("expire")
	}
	secs, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	ok := ctx.Store.Expire(ctx.DB, string(args[0]), time.Now().Add(time.Duration(secs)*time.Second))
	return resp.Integer(boolInt(ok))
}

func handlePExpire(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("pexpire")
	}
	ms, err := shard.ParseInt(args[1])
	if err != nil {
		return errFrame(err)
	}
	ok := ctx.Store.Expire(ctx.DB, string(args[0]), time.Now().Add(time.Duration(ms)*time.Millisecond))
	return resp.Integer(boolInt(ok))
}

func handleTTL(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("ttl")
	}
	d, res := ctx.Store.TTL(ctx.DB, string(args[0]))
	if res != 0 {
		return resp.Integer(int64(res))
	}
	return resp.Integer(int64(d / time.Second))
}

func handlePTTL(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("pttl")
	}
	d, res := ctx.Store.TTL(ctx.DB, string(args[0]))
	if res != 0 {
		return resp.Integer(int64(res))
	}
	return resp.Integer(int64(d / time.Millisecond))
}

func handlePersist(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("persist")
	}
	return resp.Integer(boolInt(ctx.Store.Persist(ctx.DB, string(args[0]))))
}

func handleType(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("type")
	}
	sv, err := ctx.Store.Get(ctx.DB, string(args[0]))
	if err != nil {
		return resp.SimpleString("none")
	}
	return resp.SimpleString(sv.Kind.String())
}

func handleRename(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("rename")
	}
	if err := ctx.Store.Rename(ctx.DB, string(args[0]), string(args[1])); err != nil {
		return errFrame(err)
	}
	return resp.OK()
}

func handleRenameNX(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 2 {
		return arityError("renamenx")
	}
	if ctx.Store.Exists(ctx.DB, string(args[1])) {
		return resp.Integer(0)
	}
	if err := ctx.Store.Rename(ctx.DB, string(args[0]), string(args[1])); err != nil {
		return errFrame(err)
	}
	return resp.Integer(1)
}

func handleKeys(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("keys")
	}
	keys := ctx.Store.Keys(ctx.DB, string(args[0]))
	out := make([]resp.Frame, len(keys))
	for i, k := range keys {
		out[i] = resp.BulkString([]byte(k))
	}
	return resp.Array(out)
}

func handleRandomKey(ctx *Context, args [][]byte) resp.Frame {
	k, ok := ctx.Store.RandomKey(ctx.DB)
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString([]byte(k))
}

func handleScan(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 1 {
		return arityError("scan")
	}
	cursor, err := strconv.ParseUint(string(args[0]), 10, 64)
	if err != nil {
		return resp.Error("ERR invalid cursor")
	}
	pattern, typeFilter, count := "*", "", 10
	for i := 1; i < len(args); i++ {
		switch upper(args[i]) {
		case "MATCH":
			i++
			if i >= len(args) {
				return arityError("scan")
			}
			pattern = string(args[i])
		case "COUNT":
			i++
			if i >= len(args) {
				return arityError("scan")
			}
			n, err := shard.ParseInt(args[i])
			if err != nil {
				return errFrame(err)
			}
			count = int(n)
		case "TYPE":
			i++
			if i >= len(args) {
				return arityError("scan")
			}
			typeFilter = string(args[i])
		default:
			return resp.Error("ERR syntax error")
		}
	}
	res := ctx.Store.Scan(ctx.DB, cursor, pattern, typeFilter, count)
	keyFrames := make([]resp.Frame, len(res.Keys))
	for i, k := range res.Keys {
		keyFrames[i] = resp.BulkString([]byte(k))
	}
	return resp.Array([]resp.Frame{
		resp.BulkString([]byte(strconv.FormatUint(res.Cursor, 10))),
		resp.Array(keyFrames),
	})
}

func handleFlushDB(ctx *Context, args [][]byte) resp.Frame {
	ctx.Store.FlushDB(ctx.DB)
	return resp.OK()
}

func handleFlushAll(ctx *Context, args [][]byte) resp.Frame {
	ctx.Store.FlushAll()
	return resp.OK()
}

func handleDBSize(ctx *Context, args [][]byte) resp.Frame {
	return resp.Integer(int64(ctx.Store.DBSize(ctx.DB)))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func upper(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
