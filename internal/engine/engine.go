// Package engine assembles the sharded store, the background reaper,
// the Lua scripting engine, and the command dispatcher into the single
// object an embedding program drives: construct once, call Execute per
// incoming command, Close on shutdown.
//
// Grounded on cmd/node/main.go's Node type (construct, wire
// dependencies, serve until signaled, shut down), generalized from one
// HTTP-routed shard map to the full command/script/reaper stack.
package engine

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/reaper"
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/script"
	"github.com/dreamware/redcore/internal/shard"
)

// Engine is one embedded instance: a sharded store, its reaper, and a
// Lua scripting engine, reachable through per-connection Contexts.
type Engine struct {
	Store   *shard.Store
	Scripts *script.Engine
	Log     zerolog.Logger

	reaper *reaper.Reaper
}

// New builds an Engine from cfg: a Store sized per cfg.Databases and
// cfg.MaxMemoryBytes, a script engine, and a reaper sweeping at
// cfg.ReapInterval. The reaper is started immediately; call Close to
// stop it.
func New(cfg Config) *Engine {
	logger := newLogger(cfg.LogLevel)

	store := shard.New(cfg.Databases, cfg.MaxMemoryBytes)
	scripts := script.NewEngine()

	r := reaper.New(store, cfg.ReapInterval, logger)
	r.Start()

	logger.Info().
		Int("databases", cfg.Databases).
		Int64("max_memory_bytes", cfg.MaxMemoryBytes).
		Dur("reap_interval", cfg.ReapInterval).
		Msg("engine started")

	return &Engine{
		Store:   store,
		Scripts: scripts,
		Log:     logger,
		reaper:  r,
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// NewContext opens a fresh per-connection Context against this
// engine's store and scripting engine, starting on database 0.
func (e *Engine) NewContext() *command.Context {
	return command.NewContext(e.Store, e.Scripts)
}

// Execute runs one already-parsed command against ctx.
func (e *Engine) Execute(ctx *command.Context, cmd command.Command) resp.Frame {
	return command.Execute(ctx, cmd)
}

// Close stops the background reaper. Safe to call once; the Engine is
// not usable afterward.
func (e *Engine) Close() {
	e.reaper.Stop()
	e.Log.Info().Msg("engine stopped")
}
