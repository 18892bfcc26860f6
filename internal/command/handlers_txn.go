package command

import (
	"github.com/dreamware/redcore/internal/resp"
)

func init() {
	register("WATCH", handleWatch)
	register("UNWATCH", handleUnwatch)
	register("MULTI", handleMulti)
	register("DISCARD", handleDiscard)
	register("EXEC", handleExec)
}

func handleWatch(ctx *Context, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return arityError("watch")
	}
	if ctx.Txn.InMulti {
		return resp.Error("ERR WATCH inside MULTI is not allowed")
	}
	for _, k := range args {
		ctx.Txn.Watch(ctx.Store, ctx.DB, string(k))
	}
	return resp.OK()
}

func handleUnwatch(ctx *Context, args [][]byte) resp.Frame {
	ctx.Txn.Unwatch(ctx.Store)
	return resp.OK()
}

func handleMulti(ctx *Context, args [][]byte) resp.Frame {
	if ctx.Txn.InMulti {
		return resp.Error("ERR MULTI calls can not be nested")
	}
	ctx.Txn.Multi()
	return resp.OK()
}

func handleDiscard(ctx *Context, args [][]byte) resp.Frame {
	if !ctx.Txn.InMulti {
		return resp.Error("ERR DISCARD without MULTI")
	}
	ctx.Txn.Discard(ctx.Store)
	return resp.OK()
}

// handleExec runs the queued commands as one batch: a mutated watched
// key aborts the whole transaction with a null array, a prior queuing
// error aborts it with EXECABORT, and otherwise each queued command
// runs in order with its own result collected into the reply array.
func handleExec(ctx *Context, args [][]byte) resp.Frame {
	if !ctx.Txn.InMulti {
		return resp.Error("ERR EXEC without MULTI")
	}
	if ctx.Txn.Aborted {
		ctx.Txn.EndExec(ctx.Store)
		return resp.Error("EXECABORT Transaction discarded because of previous errors.")
	}
	if ctx.Txn.WatchersChanged(ctx.Store) {
		ctx.Txn.EndExec(ctx.Store)
		return resp.NullArray()
	}

	queued := ctx.Txn.Queued
	out := make([]resp.Frame, len(queued))
	for i, qc := range queued {
		h, ok := registry[qc.Name]
		if !ok {
			out[i] = unknownCommandError(qc.Name, qc.Args)
			continue
		}
		out[i] = h(ctx, qc.Args)
	}
	ctx.Txn.EndExec(ctx.Store)
	return resp.Array(out)
}
