package command

import (
	"github.com/dreamware/redcore/internal/resp"
	"github.com/dreamware/redcore/internal/stream"
)

// errFrame converts an engine-layer error into its RESP error frame.
// Sentinel errors from internal/shard already carry their Redis-style
// prefix in Error(); this only needs to add a prefix for the few error
// types that don't (e.g. stream busy-group/out-of-order).
func errFrame(err error) resp.Frame {
	switch e := err.(type) {
	case stream.ErrBusyGroup:
		return resp.Error(e.Error())
	case stream.ErrIDOutOfOrder:
		return resp.Error(e.Error())
	}
	msg := err.Error()
	if len(msg) > 0 && (msg[0] == 'E' || msg[0] == 'W' || msg[0] == 'N' || msg[0] == 'B' || msg[0] == 'O') && hasKnownPrefix(msg) {
		return resp.Error(msg)
	}
	return resp.Error("ERR " + msg)
}

func hasKnownPrefix(msg string) bool {
	for _, p := range []string{"ERR", "WRONGTYPE", "NOSCRIPT", "NOGROUP", "BUSYGROUP", "NOTBUSY", "OOM"} {
		if len(msg) >= len(p) && msg[:len(p)] == p {
			return true
		}
	}
	return false
}
