// Package script implements EVAL/EVALSHA/SCRIPT around the Lua
// compiler, VM, and Redis bridge: a process-wide lock serializing
// script execution, a sha1-keyed compiled-script cache, and a
// reverse-operation log that rolls back a script's writes if it errors
// or is killed mid-run.
//
// Grounded on the reference script engine's acquire/run/commit-or-
// rollback shape and its kill-flag/timeout interaction.
package script

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/lua/bridge"
	"github.com/dreamware/redcore/internal/lua/compiler"
	"github.com/dreamware/redcore/internal/lua/heap"
	"github.com/dreamware/redcore/internal/lua/vm"
	"github.com/dreamware/redcore/internal/resp"
)

// ExecutionInfo describes the script currently holding the GIL, so
// SCRIPT KILL can find it and clients can observe what is running.
type ExecutionInfo struct {
	CorrelationID string
	Sha           string
	StartedAt     time.Time
	DB            int
}

// Engine implements command.ScriptEngine: EVAL/EVALSHA compile-and-run,
// SCRIPT manages the cache, SCRIPT KILL aborts whatever is running.
type Engine struct {
	cache *cache
	gil   gil

	mu      sync.Mutex
	running *ExecutionInfo
	vm      *vm.VM // the VM currently holding the GIL, for Kill() to reach
}

func NewEngine() *Engine {
	return &Engine{cache: newCache()}
}

// Load compiles source and caches it, returning its sha1 digest.
func (e *Engine) Load(source string) (string, error) {
	return e.cache.put(source)
}

// Exists reports, per sha, whether it is present in the cache.
func (e *Engine) Exists(shas []string) []bool {
	return e.cache.exists(shas)
}

// Flush empties the cache.
func (e *Engine) Flush() {
	e.cache.flush()
}

// Kill sets the kill flag on the currently running script, if any.
func (e *Engine) Kill() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running == nil {
		return fmt.Errorf("NOTBUSY No scripts in execution right now.")
	}
	v := e.vm
	if v != nil {
		v.Kill()
	}
	return nil
}

// Eval compiles (or reuses the cached compile of) source and runs it.
func (e *Engine) Eval(c *command.Context, source string, keys, argv [][]byte) (resp.Frame, error) {
	sha, proto, err := e.cache.compile(source)
	if err != nil {
		return resp.Error("ERR Error compiling script (new function): " + err.Error()), nil
	}
	return e.run(c, sha, proto, keys, argv)
}

// EvalSha runs the script already cached under sha, or NOSCRIPT if
// the cache has no such entry.
func (e *Engine) EvalSha(c *command.Context, sha string, keys, argv [][]byte) (resp.Frame, error) {
	proto, ok := e.cache.get(sha)
	if !ok {
		return resp.Error("NOSCRIPT No matching script. Please use EVAL."), nil
	}
	return e.run(c, sha, proto, keys, argv)
}

func (e *Engine) run(c *command.Context, sha string, proto *compiler.FunctionProto, keys, argv [][]byte) (resp.Frame, error) {
	e.gil.acquire()
	defer e.gil.release()

	h := heap.New()
	machine := vm.New(h)

	info := &ExecutionInfo{
		CorrelationID: uuid.NewString(),
		Sha:           sha,
		StartedAt:     time.Now(),
		DB:            c.DB,
	}
	e.mu.Lock()
	e.running = info
	e.vm = machine
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = nil
		e.vm = nil
		e.mu.Unlock()
	}()

	log.Info().Str("correlation_id", info.CorrelationID).Str("sha", sha).Msg("script started")

	opLog := &txnLog{}
	invoke := func(name string, args [][]byte) (resp.Frame, error) {
		upper := upperName(name)
		opLog.capture(c.Store, c.DB, upper, args)
		return command.Dispatch(c, upper, args), nil
	}
	logFn := func(level int, msg string) {
		emitScriptLog(info.CorrelationID, level, msg)
	}

	if err := bridge.Install(machine, keys, argv, invoke, logFn); err != nil {
		return resp.Frame{}, err
	}

	results, err := machine.Run(proto, nil)
	if err != nil {
		opLog.rollback(c.Store)
		logScriptRollback(info.CorrelationID, "rolled back after error: "+err.Error())
		if _, killed := err.(vm.ScriptKilled); killed {
			return resp.Error("ERR Script killed by user with SCRIPT KILL..."), nil
		}
		return resp.Error("ERR " + err.Error()), nil
	}

	var out heap.Value
	if len(results) > 0 {
		out = results[0]
	} else {
		out = heap.Nil()
	}
	return bridge.LuaToRESP(h, out), nil
}

func upperName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func emitScriptLog(correlationID string, level int, msg string) {
	evt := log.Info()
	switch level {
	case bridge.LogWarning:
		evt = log.Warn()
	case bridge.LogNotice:
		evt = log.Info()
	case bridge.LogVerbose, bridge.LogDebug:
		evt = log.Debug()
	}
	evt.Str("correlation_id", correlationID).Msg(msg)
}

func logScriptRollback(correlationID, msg string) {
	log.Info().Str("correlation_id", correlationID).Msg(msg)
}
