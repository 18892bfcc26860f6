// Command redcore-server is a thin demonstration driver for the
// engine package: it constructs one Engine from the process
// environment, runs a short scripted sequence of commands against it
// to prove the stack end to end, then waits for a shutdown signal.
//
// It does not open a network listener or speak RESP over the wire —
// that wire loop is out of scope here, the same way cmd/node/main.go's
// HTTP routes are the thing this binary deliberately does not grow.
//
// Required environment: none; every Config field has a default.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/engine"
)

func main() {
	cfg, err := engine.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	eng := engine.New(cfg)
	defer eng.Close()

	demo(eng)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	eng.Log.Info().Msg("redcore-server stopped")
}

// demo runs a handful of commands, including one EVAL, to exercise the
// store, the command dispatcher, and the scripting engine from a single
// connection-shaped Context.
func demo(eng *engine.Engine) {
	ctx := eng.NewContext()

	run := func(name string, args ...string) {
		raw := make([][]byte, len(args))
		for i, a := range args {
			raw[i] = []byte(a)
		}
		f := eng.Execute(ctx, command.Command{Name: name, Args: raw})
		eng.Log.Info().Str("command", name).Interface("reply", f).Msg("demo command")
	}

	run("SET", "greeting", "hello")
	run("GET", "greeting")
	run("EVAL", `return redis.call("GET", KEYS[1]) .. " from lua"`, "1", "greeting")
	run("LPUSH", "queue", "a", "b", "c")
	run("LRANGE", "queue", "0", "-1")
}
