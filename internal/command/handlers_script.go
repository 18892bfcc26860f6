package command

import (
	"strconv"
	"strings"

	"github.com/dreamware/redcore/internal/resp"
)

func init() {
	register("EVAL", handleEval)
	register("EVALSHA", handleEvalSha)
	register("SCRIPT", handleScript)
}

// noScriptEngine is the error returned when a node was wired up without
// a scripting backend at all (never the case for a fully assembled
// engine, but a handler shouldn't panic on a nil interface).
func noScriptEngine() resp.Frame {
	return resp.Error("ERR this instance has no scripting engine configured")
}

func handleEval(ctx *Context, args [][]byte) resp.Frame {
	if ctx.Scripts == nil {
		return noScriptEngine()
	}
	if len(args) < 2 {
		return arityError("eval")
	}
	keys, argv, ferr := splitScriptArgs(args[1:])
	if ferr != nil {
		return *ferr
	}
	f, err := ctx.Scripts.Eval(ctx, string(args[0]), keys, argv)
	if err != nil {
		return errFrame(err)
	}
	return f
}

func handleEvalSha(ctx *Context, args [][]byte) resp.Frame {
	if ctx.Scripts == nil {
		return noScriptEngine()
	}
	if len(args) < 2 {
		return arityError("evalsha")
	}
	keys, argv, ferr := splitScriptArgs(args[1:])
	if ferr != nil {
		return *ferr
	}
	f, err := ctx.Scripts.EvalSha(ctx, string(args[0]), keys, argv)
	if err != nil {
		return errFrame(err)
	}
	return f
}

// splitScriptArgs parses EVAL/EVALSHA's "numkeys key [key ...] arg
// [arg ...]" tail into its KEYS and ARGV slices.
func splitScriptArgs(args [][]byte) (keys, argv [][]byte, errOut *resp.Frame) {
	n, err := strconv.Atoi(string(args[0]))
	if err != nil || n < 0 {
		f := resp.Error("ERR value is not an integer or out of range")
		return nil, nil, &f
	}
	rest := args[1:]
	if n > len(rest) {
		f := resp.Error("ERR Number of keys can't be greater than number of args")
		return nil, nil, &f
	}
	return rest[:n], rest[n:], nil
}

func handleScript(ctx *Context, args [][]byte) resp.Frame {
	if ctx.Scripts == nil {
		return noScriptEngine()
	}
	if len(args) == 0 {
		return arityError("script")
	}
	switch strings.ToUpper(string(args[0])) {
	case "LOAD":
		if len(args) != 2 {
			return arityError("script|load")
		}
		sha, err := ctx.Scripts.Load(string(args[1]))
		if err != nil {
			return resp.Error("ERR Error compiling script (new function): " + err.Error())
		}
		return resp.BulkString([]byte(sha))
	case "EXISTS":
		if len(args) < 2 {
			return arityError("script|exists")
		}
		shas := make([]string, len(args)-1)
		for i, a := range args[1:] {
			shas[i] = string(a)
		}
		found := ctx.Scripts.Exists(shas)
		out := make([]resp.Frame, len(found))
		for i, ok := range found {
			if ok {
				out[i] = resp.Integer(1)
			} else {
				out[i] = resp.Integer(0)
			}
		}
		return resp.Array(out)
	case "FLUSH":
		ctx.Scripts.Flush()
		return resp.OK()
	case "KILL":
		if err := ctx.Scripts.Kill(); err != nil {
			return errFrame(err)
		}
		return resp.OK()
	default:
		return resp.Error("ERR Unknown SCRIPT subcommand or wrong number of arguments for '" + string(args[0]) + "'")
	}
}
