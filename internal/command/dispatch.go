package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/txn"
)

// Handler executes one parsed command against ctx and returns its
// response frame. Handlers never return a Go error for command-level
// failures — those are encoded as resp.Error frames — only a Go error
// for state the caller cannot otherwise represent (there are none at
// present; the signature returns only a Frame to keep the registry
// uniform with an http.HandlerFunc-shaped route table).
type Handler func(ctx *Context, args [][]byte) resp.Frame

// registry maps upper-cased verb name to its handler. Populated by the
// per-family register*() functions below, each called from init().
var registry = make(map[string]Handler)

func register(name string, h Handler) {
	registry[name] = h
}

// immediateInMulti is the small set of connection-management verbs
// that execute immediately even while queuing: only data/read/write
// commands are queued; MULTI/EXEC/DISCARD/WATCH/UNWATCH/QUIT/RESET are
// always immediate.
var immediateInMulti = map[string]bool{
	"MULTI":   true,
	"EXEC":    true,
	"DISCARD": true,
	"WATCH":   true,
	"UNWATCH": true,
	"QUIT":    true,
	"RESET":   true,
}

// Execute runs cmd against ctx, honoring the MULTI queuing rule: while
// a transaction is open, data commands are parsed (already done by the
// time Execute is called) and queued rather than run, and QUEUED is
// returned instead of the command's real result.
func Execute(ctx *Context, cmd Command) resp.Frame {
	h, ok := registry[cmd.Name]
	if !ok {
		return unknownCommandError(cmd.Name, cmd.Args)
	}

	if ctx.Txn.InMulti && !immediateInMulti[cmd.Name] {
		ctx.Txn.Enqueue(txn.QueuedCommand{Name: cmd.Name, Args: cmd.Args})
		return resp.SimpleString("QUEUED")
	}

	return h(ctx, cmd.Args)
}

// Dispatch runs name/args against ctx's handler directly, bypassing the
// MULTI queuing rule — the same direct-call shape handleExec uses to
// run a transaction's queued commands. A script's redis.call needs this
// rather than Execute: by the time a script is running (itself reached
// either immediately or as one of EXEC's queued commands), any further
// InMulti check would just re-queue the nested command instead of
// running it.
func Dispatch(ctx *Context, name string, args [][]byte) resp.Frame {
	h, ok := registry[name]
	if !ok {
		return unknownCommandError(name, args)
	}
	return h(ctx, args)
}
