package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/stream"
)

func init() {
	register("XADD", handleXAdd)
	register("XLEN", handleXLen)
	register("XRANGE", handleXRange)
	register("XREVRANGE", handleXRevRange)
	register("XREAD", handleXRead)
	register("XTRIM", handleXTrim)
	register("XDEL", handleXDel)
	register("XGROUP", handleXGroup)
	register("XREADGROUP", handleXReadGroup)
	register("XACK", handleXAck)
	register("XPENDING", handleXPending)
	register("XCLAIM", handleXClaim)
	register("XAUTOCLAIM", handleXAutoClaim)
}

func entryFrame(e stream.Entry) resp.Frame {
	fields := make([]resp.Frame, 0, len(e.Fields)*2)
	for _, kv := range e.Fields {
		fields = append(fields, resp.BulkString(kv[0]), resp.BulkString(kv[1]))
	}
	return resp.Array([]resp.Frame{
		resp.BulkString([]byte(e.ID.String())),
		resp.Array(fields),
	})
}

func entriesFrame(entries []stream.Entry) resp.Frame {
	out := make([]resp.Frame, len(entries))
	for i, e := range entries {
		out[i] = entryFrame(e)
	}
	return resp.Array(out)
}

func pendingEntryFrame(pe *stream.PendingEntry) resp.Frame {
	return resp.Array([]resp.Frame{
		resp.BulkString([]byte(pe.ID.String())),
		resp.BulkString([]byte(pe.Consumer)),
		resp.Integer(pe.DeliveredAt.UnixMilli()),
		resp.Integer(int64(pe.DeliveryCount)),
	})
}

func pendingEntriesFrame(entries []*stream.PendingEntry) resp.Frame {
	out := make([]resp.Frame, len(entries))
	for i, pe := range entries {
		out[i] = pendingEntryFrame(pe)
	}
	return resp.Array(out)
}

func handleXAdd(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 4 {
		return arityError("xadd")
	}
	key := string(args[0])
	idArg := string(args[1])
	rest := args[2:]
	if len(rest)%2 != 0 {
		return resp.Error("ERR wrong number of arguments for XADD")
	}
	fields := make([][2][]byte, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields[i/2] = [2][]byte{rest[i], rest[i+1]}
	}
	auto := idArg == "*"
	var id stream.ID
	if !auto {
		parsed, err := stream.ParseID(idArg, 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		id = parsed
	}
	assigned, err := ctx.Store.XAdd(ctx.DB, key, id, auto, fields)
	if err != nil {
		return errFrame(err)
	}
	return resp.BulkString([]byte(assigned.String()))
}

func handleXLen(ctx *Context, args [][]byte) resp.Frame {
	if len(args) != 1 {
		return arityError("xlen")
	}
	n, err := ctx.Store.XLen(ctx.DB, string(args[0]))
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleXRange(ctx *Context, args [][]byte) resp.Frame {
	return xRangeHelper(ctx, args, "xrange", false)
}

func handleXRevRange(ctx *Context, args [][]byte) resp.Frame {
	return xRangeHelper(ctx, args, "xrevrange", true)
}

func xRangeHelper(ctx *Context, args [][]byte, name string, reverse bool) resp.Frame {
	if len(args) < 3 {
		return arityError(name)
	}
	startArg, endArg := string(args[1]), string(args[2])
	if reverse {
		startArg, endArg = endArg, startArg
	}
	start, err := stream.ParseID(startArg, 0)
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	end, err := stream.ParseID(endArg, ^uint64(0))
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	count := -1
	if len(args) == 5 && strings.ToUpper(string(args[3])) == "COUNT" {
		n, err := shard.ParseInt(args[4])
		if err != nil {
			return errFrame(err)
		}
		count = int(n)
	}
	entries, err := ctx.Store.XRange(ctx.DB, string(args[0]), start, end, count, reverse)
	if err != nil {
		return errFrame(err)
	}
	return entriesFrame(entries)
}

func handleXRead(ctx *Context, args [][]byte) resp.Frame {
	count := -1
	i := 0
	for i < len(args) && strings.ToUpper(string(args[i])) != "STREAMS" {
		if strings.ToUpper(string(args[i])) == "COUNT" {
			i++
			if i >= len(args) {
				return arityError("xread")
			}
			n, err := shard.ParseInt(args[i])
			if err != nil {
				return errFrame(err)
			}
			count = int(n)
		}
		i++
	}
	if i >= len(args) {
		return resp.Error("ERR syntax error")
	}
	rest := args[i+1:]
	if len(rest)%2 != 0 {
		return resp.Error("ERR Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified.")
	}
	numStreams := len(rest) / 2
	keys := rest[:numStreams]
	ids := rest[numStreams:]

	var out []resp.Frame
	for idx, k := range keys {
		afterID, err := streamReadID(ctx, string(k), ids[idx])
		if err != nil {
			return errFrame(err)
		}
		entries, err := ctx.Store.XRead(ctx.DB, string(k), afterID, count)
		if err != nil {
			return errFrame(err)
		}
		if len(entries) == 0 {
			continue
		}
		out = append(out, resp.Array([]resp.Frame{
			resp.BulkString(k),
			entriesFrame(entries),
		}))
	}
	if out == nil {
		return resp.NullArray()
	}
	return resp.Array(out)
}

func streamReadID(ctx *Context, key string, idArg []byte) (stream.ID, error) {
	if string(idArg) == "$" {
		entries, err := ctx.Store.XRange(ctx.DB, key, stream.MinID, stream.MaxID, -1, true)
		if err != nil || len(entries) == 0 {
			return stream.MinID, err
		}
		return entries[0].ID, nil
	}
	return stream.ParseID(string(idArg), 0)
}

func handleXTrim(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return arityError("xtrim")
	}
	strategy := strings.ToUpper(string(args[1]))
	switch strategy {
	case "MAXLEN":
		thresholdArg := args[2]
		if string(thresholdArg) == "~" || string(thresholdArg) == "=" {
			if len(args) < 4 {
				return arityError("xtrim")
			}
			thresholdArg = args[3]
		}
		n, err := shard.ParseInt(thresholdArg)
		if err != nil {
			return errFrame(err)
		}
		removed, err := ctx.Store.XTrimByCount(ctx.DB, string(args[0]), int(n))
		if err != nil {
			return errFrame(err)
		}
		return resp.Integer(int64(removed))
	case "MINID":
		idArg := args[2]
		if string(idArg) == "~" || string(idArg) == "=" {
			if len(args) < 4 {
				return arityError("xtrim")
			}
			idArg = args[3]
		}
		id, err := stream.ParseID(string(idArg), 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		removed, err := ctx.Store.XTrimByMinID(ctx.DB, string(args[0]), id)
		if err != nil {
			return errFrame(err)
		}
		return resp.Integer(int64(removed))
	default:
		return resp.Error("ERR syntax error")
	}
}

func handleXDel(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("xdel")
	}
	ids := make([]stream.ID, len(args)-1)
	for i, a := range args[1:] {
		id, err := stream.ParseID(string(a), 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		ids[i] = id
	}
	n, err := ctx.Store.XDel(ctx.DB, string(args[0]), ids)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleXGroup(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 1 {
		return arityError("xgroup")
	}
	switch strings.ToUpper(string(args[0])) {
	case "CREATE":
		if len(args) < 4 {
			return arityError("xgroup")
		}
		mkStream := false
		for _, a := range args[4:] {
			if strings.ToUpper(string(a)) == "MKSTREAM" {
				mkStream = true
			}
		}
		idArg := string(args[3])
		var id stream.ID
		var err error
		if idArg == "$" {
			id = stream.MaxID
		} else {
			id, err = stream.ParseID(idArg, 0)
			if err != nil {
				return resp.Error("ERR Invalid stream ID specified as stream command argument")
			}
		}
		if err := ctx.Store.XGroupCreate(ctx.DB, string(args[1]), string(args[2]), id, mkStream); err != nil {
			return errFrame(err)
		}
		return resp.OK()
	case "DESTROY":
		if len(args) != 3 {
			return arityError("xgroup")
		}
		existed, err := ctx.Store.XGroupDestroy(ctx.DB, string(args[1]), string(args[2]))
		if err != nil {
			return errFrame(err)
		}
		return resp.Integer(boolInt(existed))
	case "SETID":
		if len(args) != 4 {
			return arityError("xgroup")
		}
		id, err := stream.ParseID(string(args[3]), 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		if err := ctx.Store.XGroupSetID(ctx.DB, string(args[1]), string(args[2]), id); err != nil {
			return errFrame(err)
		}
		return resp.OK()
	case "CREATECONSUMER":
		if len(args) != 4 {
			return arityError("xgroup")
		}
		created, err := ctx.Store.XGroupCreateConsumer(ctx.DB, string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return errFrame(err)
		}
		return resp.Integer(boolInt(created))
	case "DELCONSUMER":
		if len(args) != 4 {
			return arityError("xgroup")
		}
		n, err := ctx.Store.XGroupDelConsumer(ctx.DB, string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return errFrame(err)
		}
		return resp.Integer(int64(n))
	default:
		return resp.Error("ERR unknown XGROUP subcommand")
	}
}

func handleXReadGroup(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 6 || strings.ToUpper(string(args[0])) != "GROUP" {
		return arityError("xreadgroup")
	}
	group, consumer := string(args[1]), string(args[2])
	i := 3
	count := -1
	noAck := false
	for i < len(args) && strings.ToUpper(string(args[i])) != "STREAMS" {
		switch strings.ToUpper(string(args[i])) {
		case "COUNT":
			i++
			if i >= len(args) {
				return arityError("xreadgroup")
			}
			n, err := shard.ParseInt(args[i])
			if err != nil {
				return errFrame(err)
			}
			count = int(n)
		case "NOACK":
			noAck = true
		}
		i++
	}
	if i >= len(args) {
		return resp.Error("ERR syntax error")
	}
	rest := args[i+1:]
	if len(rest)%2 != 0 {
		return resp.Error("ERR Unbalanced XREADGROUP list of streams")
	}
	numStreams := len(rest) / 2
	keys := rest[:numStreams]
	ids := rest[numStreams:]

	var out []resp.Frame
	for idx, k := range keys {
		key := string(k)
		if string(ids[idx]) == ">" {
			entries, err := ctx.Store.XReadGroupNew(ctx.DB, key, group, consumer, count, noAck)
			if err != nil {
				return errFrame(err)
			}
			out = append(out, resp.Array([]resp.Frame{resp.BulkString(k), entriesFrame(entries)}))
			continue
		}
		from, err := stream.ParseID(string(ids[idx]), 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		pending, err := ctx.Store.XReadGroupHistory(ctx.DB, key, group, consumer, from)
		if err != nil {
			return errFrame(err)
		}
		out = append(out, resp.Array([]resp.Frame{resp.BulkString(k), pendingEntriesFrame(pending)}))
	}
	return resp.Array(out)
}

func handleXAck(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return arityError("xack")
	}
	ids := make([]stream.ID, len(args)-2)
	for i, a := range args[2:] {
		id, err := stream.ParseID(string(a), 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		ids[i] = id
	}
	n, err := ctx.Store.XAck(ctx.DB, string(args[0]), string(args[1]), ids)
	if err != nil {
		return errFrame(err)
	}
	return resp.Integer(int64(n))
}

func handleXPending(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return arityError("xpending")
	}
	key, group := string(args[0]), string(args[1])
	if len(args) == 2 {
		total, min, max, perConsumer, err := ctx.Store.XPendingSummary(ctx.DB, key, group)
		if err != nil {
			return errFrame(err)
		}
		if total == 0 {
			return resp.Array([]resp.Frame{resp.Integer(0), resp.NullBulk(), resp.NullBulk(), resp.NullArray()})
		}
		consumerFrames := make([]resp.Frame, 0, len(perConsumer))
		for name, count := range perConsumer {
			consumerFrames = append(consumerFrames, resp.Array([]resp.Frame{
				resp.BulkString([]byte(name)),
				resp.BulkString([]byte(strconv.Itoa(count))),
			}))
		}
		return resp.Array([]resp.Frame{
			resp.Integer(int64(total)),
			resp.BulkString([]byte(min.String())),
			resp.BulkString([]byte(max.String())),
			resp.Array(consumerFrames),
		})
	}
	if len(args) < 4 {
		return arityError("xpending")
	}
	start, err := stream.ParseID(string(args[2]), 0)
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	end, err := stream.ParseID(string(args[3]), ^uint64(0))
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	count := -1
	if len(args) >= 5 {
		n, err := shard.ParseInt(args[4])
		if err != nil {
			return errFrame(err)
		}
		count = int(n)
	}
	consumer := ""
	if len(args) >= 6 {
		consumer = string(args[5])
	}
	entries, err := ctx.Store.XPendingRange(ctx.DB, key, group, start, end, count, consumer)
	if err != nil {
		return errFrame(err)
	}
	return pendingEntriesFrame(entries)
}

func handleXClaim(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 5 {
		return arityError("xclaim")
	}
	key, group, consumer := string(args[0]), string(args[1]), string(args[2])
	minIdleMs, err := shard.ParseInt(args[3])
	if err != nil {
		return errFrame(err)
	}
	var ids []stream.ID
	i := 4
	for ; i < len(args); i++ {
		id, perr := stream.ParseID(string(args[i]), 0)
		if perr != nil {
			break
		}
		ids = append(ids, id)
	}
	force := false
	for ; i < len(args); i++ {
		if strings.ToUpper(string(args[i])) == "FORCE" {
			force = true
		}
	}
	claimed, err := ctx.Store.XClaim(ctx.DB, key, group, consumer, time.Duration(minIdleMs)*time.Millisecond, ids, force)
	if err != nil {
		return errFrame(err)
	}
	return pendingEntriesFrame(claimed)
}

func handleXAutoClaim(ctx *Context, args [][]byte) resp.Frame {
	if len(args) < 5 {
		return arityError("xautoclaim")
	}
	key, group, consumer := string(args[0]), string(args[1]), string(args[2])
	minIdleMs, err := shard.ParseInt(args[3])
	if err != nil {
		return errFrame(err)
	}
	cursor, err := stream.ParseID(string(args[4]), 0)
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	count := 100
	if len(args) >= 7 && strings.ToUpper(string(args[5])) == "COUNT" {
		n, perr := shard.ParseInt(args[6])
		if perr != nil {
			return errFrame(perr)
		}
		count = int(n)
	}
	claimed, next, err := ctx.Store.XAutoClaim(ctx.DB, key, group, consumer, time.Duration(minIdleMs)*time.Millisecond, cursor, count)
	if err != nil {
		return errFrame(err)
	}
	return resp.Array([]resp.Frame{
		resp.BulkString([]byte(next.String())),
		pendingEntriesFrame(claimed),
		resp.Array(nil),
	})
}
