package script

import (
	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/value"
)

// writeCommands is the set of verbs a script's redis.call can issue
// that mutate a key, keyed by command name. Every one of them except
// XGROUP takes the key as its first argument, the common shape across
// the engine's string/list/set/hash/sorted-set/stream families; XGROUP
// takes it right after its subcommand.
var writeCommands = map[string]bool{
	"SET": true, "SETNX": true, "SETEX": true, "PSETEX": true, "GETSET": true,
	"APPEND": true, "INCR": true, "DECR": true, "INCRBY": true, "DECRBY": true,
	"INCRBYFLOAT": true, "DEL": true, "EXPIRE": true, "PEXPIRE": true,
	"EXPIREAT": true, "PERSIST": true, "RENAME": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true, "LSET": true, "LTRIM": true, "LREM": true,
	"SADD": true, "SREM": true, "SPOP": true,
	"HSET": true, "HDEL": true, "HINCRBY": true, "HINCRBYFLOAT": true, "HSETNX": true,
	"ZADD": true, "ZREM": true, "ZINCRBY": true,
	"XADD": true, "XDEL": true, "XTRIM": true, "XGROUP": true, "XACK": true, "XCLAIM": true,
}

// reverseOp captures a key's value before a mutating call so it can be
// restored if the surrounding script errors or is killed. Scripts run
// with no time limit, so there is no timeout case.
type reverseOp struct {
	db      int
	key     string
	existed bool
	value   *value.StoredValue
}

// txnLog accumulates reverseOps for one script invocation.
type txnLog struct {
	ops []reverseOp
}

// capture snapshots key's current value if name is a recognized write
// command, so rollback can restore it later.
func (l *txnLog) capture(store *shard.Store, db int, name string, args [][]byte) {
	if !writeCommands[name] || len(args) == 0 {
		return
	}
	keyArg := args[0]
	if name == "XGROUP" {
		if len(args) < 2 {
			return
		}
		keyArg = args[1]
	}
	key := string(keyArg)
	sv, err := store.Get(db, key)
	if err != nil {
		l.ops = append(l.ops, reverseOp{db: db, key: key, existed: false})
		return
	}
	l.ops = append(l.ops, reverseOp{db: db, key: key, existed: true, value: sv})
}

// rollback replays the log in reverse: restore keys that existed,
// delete keys that didn't.
func (l *txnLog) rollback(store *shard.Store) {
	for i := len(l.ops) - 1; i >= 0; i-- {
		op := l.ops[i]
		if op.existed {
			_ = store.SetValue(op.db, op.key, op.value)
		} else {
			store.Delete(op.db, op.key)
		}
	}
}
