// Package bridge wires a Lua VM into the Redis command surface: it
// installs the sandboxed KEYS/ARGV globals and the redis.call/pcall
// table a script runs against, and converts values across the RESP
// and Lua representations in both directions.
//
// Grounded on the reference Lua/Redis binding's call/pcall/KEYS/ARGV
// wiring shape and the value-mapping table it implements between RESP
// frames and Lua values.
package bridge

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/dreamware/redcore/internal/lua/heap"
	"github.com/dreamware/redcore/internal/lua/vm"
	"github.com/dreamware/redcore/internal/resp"
)

// Log levels for redis.log, matching the reference constants.
const (
	LogDebug   = 0
	LogVerbose = 1
	LogNotice  = 2
	LogWarning = 3
)

// Invoker runs one Redis command and returns its RESP reply, or an
// error if the command itself could not be parsed/dispatched (as
// opposed to returning a RESP Error frame, which is a normal reply).
type Invoker func(cmdName string, args [][]byte) (resp.Frame, error)

// Logger receives redis.log(level, msg) calls.
type Logger func(level int, msg string)

// Install populates vm's existing global table with KEYS, ARGV,
// and the redis table, sandboxing the script to just those plus the
// language's own control structures (no io/os/require are ever
// installed, so there is nothing to strip).
func Install(v *vm.VM, keys, argv [][]byte, invoke Invoker, logf Logger) error {
	h := v.Heap
	globals, ok := h.Table(v.Globals)
	if !ok {
		return fmt.Errorf("vm globals table missing")
	}

	globals.Set(heap.StringVal(h.InternString("KEYS")), heap.TableVal(stringArray(h, keys)))
	globals.Set(heap.StringVal(h.InternString("ARGV")), heap.TableVal(stringArray(h, argv)))

	redisTable := h.NewTable()
	rt, _ := h.Table(redisTable)

	rt.Set(heap.StringVal(h.InternString("LOG_DEBUG")), heap.Number(LogDebug))
	rt.Set(heap.StringVal(h.InternString("LOG_VERBOSE")), heap.Number(LogVerbose))
	rt.Set(heap.StringVal(h.InternString("LOG_NOTICE")), heap.Number(LogNotice))
	rt.Set(heap.StringVal(h.InternString("LOG_WARNING")), heap.Number(LogWarning))

	callHandle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		reply, cmdErr := doCall(h, invoke, args)
		if cmdErr != nil {
			return nil, cmdErr
		}
		if reply.IsError() {
			return nil, fmt.Errorf("%s", string(reply.Str))
		}
		return []heap.Value{RESPToLua(h, reply)}, nil
	})
	pcallHandle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		reply, cmdErr := doCall(h, invoke, args)
		if cmdErr != nil {
			return []heap.Value{errorTable(h, cmdErr.Error())}, nil
		}
		if reply.IsError() {
			return []heap.Value{errorTable(h, string(reply.Str))}, nil
		}
		return []heap.Value{RESPToLua(h, reply)}, nil
	})
	errorReplyHandle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		msg := argString(h, args, 0)
		return []heap.Value{errorTable(h, msg)}, nil
	})
	statusReplyHandle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		msg := argString(h, args, 0)
		t := h.NewTable()
		tbl, _ := h.Table(t)
		tbl.Set(heap.StringVal(h.InternString("ok")), heap.StringVal(h.InternString(msg)))
		return []heap.Value{heap.TableVal(t)}, nil
	})
	sha1Handle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		msg := argString(h, args, 0)
		return []heap.Value{heap.StringVal(h.InternString(Sha1Hex(msg)))}, nil
	})
	logHandle := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		if len(args) < 2 || logf == nil {
			return nil, nil
		}
		level := int(args[0].Number)
		msg := argString(h, args, 1)
		logf(level, msg)
		return nil, nil
	})

	rt.Set(heap.StringVal(h.InternString("call")), heap.NativeVal(callHandle))
	rt.Set(heap.StringVal(h.InternString("pcall")), heap.NativeVal(pcallHandle))
	rt.Set(heap.StringVal(h.InternString("error_reply")), heap.NativeVal(errorReplyHandle))
	rt.Set(heap.StringVal(h.InternString("status_reply")), heap.NativeVal(statusReplyHandle))
	rt.Set(heap.StringVal(h.InternString("sha1hex")), heap.NativeVal(sha1Handle))
	rt.Set(heap.StringVal(h.InternString("log")), heap.NativeVal(logHandle))

	globals.Set(heap.StringVal(h.InternString("redis")), heap.TableVal(redisTable))
	return nil
}

func doCall(h *heap.Heap, invoke Invoker, args []heap.Value) (resp.Frame, error) {
	if len(args) == 0 {
		return resp.Frame{}, fmt.Errorf("Please specify at least one argument for this redis lib call")
	}
	name, ok := h.GetString(args[0].Str)
	if args[0].Kind != heap.KindString || !ok {
		return resp.Frame{}, fmt.Errorf("Lua redis lib command arguments must be strings or integers")
	}
	rest := make([][]byte, 0, len(args)-1)
	for _, a := range args[1:] {
		s, ok := argToBytes(h, a)
		if !ok {
			return resp.Frame{}, fmt.Errorf("Lua redis lib command arguments must be strings or integers")
		}
		rest = append(rest, s)
	}
	return invoke(name, rest)
}

func argToBytes(h *heap.Heap, v heap.Value) ([]byte, bool) {
	switch v.Kind {
	case heap.KindString:
		s, ok := h.GetString(v.Str)
		return []byte(s), ok
	case heap.KindNumber:
		return []byte(formatLuaNumber(v.Number)), true
	}
	return nil, false
}

func argString(h *heap.Heap, args []heap.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := h.GetString(args[i].Str)
	return s
}

func errorTable(h *heap.Heap, msg string) heap.Value {
	t := h.NewTable()
	tbl, _ := h.Table(t)
	tbl.Set(heap.StringVal(h.InternString("err")), heap.StringVal(h.InternString(msg)))
	return heap.TableVal(t)
}

func stringArray(h *heap.Heap, items [][]byte) heap.TableHandle {
	th := h.NewTable()
	tbl, _ := h.Table(th)
	for i, item := range items {
		tbl.Set(heap.Number(float64(i+1)), heap.StringVal(h.InternString(string(item))))
	}
	return th
}

// Sha1Hex returns the lowercase hex SHA-1 digest of s, used both by
// redis.sha1hex and by the script cache's EVAL/SCRIPT LOAD keying.
func Sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func formatLuaNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
