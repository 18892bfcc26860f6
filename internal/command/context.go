package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/txn"
)

// ScriptEngine is the narrow surface EVAL/EVALSHA/SCRIPT need from the
// scripting subsystem. Declared here, implemented by internal/script,
// so this package never imports the Lua stack directly — the same
// inversion used for the storage backend interface.
type ScriptEngine interface {
	Eval(c *Context, source string, keys, argv [][]byte) (resp.Frame, error)
	EvalSha(c *Context, sha string, keys, argv [][]byte) (resp.Frame, error)
	Load(source string) (sha string, err error)
	Exists(shas []string) []bool
	Flush()
	Kill() error
}

// Context is the per-connection state a command executes against: the
// shared store, the selected database, the WATCH/MULTI/EXEC state
// machine, and (optionally) the script engine.
type Context struct {
	Store   *shard.Store
	DB      int
	Txn     *txn.State
	Scripts ScriptEngine
}

// NewContext builds a fresh per-connection Context against store,
// starting on database 0.
func NewContext(store *shard.Store, scripts ScriptEngine) *Context {
	return &Context{Store: store, DB: 0, Txn: txn.NewState(), Scripts: scripts}
}
