// Package command turns RESP frames into typed, dispatchable operations
// against the engine: one public entry point parses an array of bulk
// strings into a Command, a registry dispatches it to a handler, and
// the handler returns the response frame.
//
// Grounded on cmd/node/main.go's route-table dispatch (one handler per
// HTTP verb), generalized from HTTP methods to the ~90 Redis verbs this
// engine understands.
package command

import (
	"strings"

	"github.com/dreamware/redcore/internal/resp"
)

// Command is a parsed request: an upper-cased verb and its raw argument
// bytes (the verb itself is not included in Args).
type Command struct {
	Name string
	Args [][]byte
}

// arityError formats the wrong-number-of-arguments error for one
// command; every handler uses it as the common message shape.
func arityError(name string) resp.Frame {
	return resp.Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}

func unknownCommandError(name string, args [][]byte) resp.Frame {
	var b strings.Builder
	b.WriteString("ERR unknown command '")
	b.WriteString(name)
	b.WriteString("', with args beginning with: ")
	for i, a := range args {
		if i > 3 {
			break
		}
		b.WriteByte('\'')
		b.Write(a)
		b.WriteString("', ")
	}
	return resp.Error(b.String())
}

// Parse converts a request frame (must be a non-null Array of
// BulkStrings — the shape every incoming request frame takes) into a
// Command.
func Parse(f resp.Frame) (Command, error) {
	if f.Kind != resp.KindArray || f.Null || len(f.Array) == 0 {
		return Command{}, resp.ErrProtocol
	}
	name := strings.ToUpper(string(f.Array[0].Str))
	args := make([][]byte, 0, len(f.Array)-1)
	for _, item := range f.Array[1:] {
		args = append(args, item.Str)
	}
	return Command{Name: name, Args: args}, nil
}
