package script

import "sync"

// gil is the process-wide lock serializing script execution: only one
// Lua VM ever runs at a time, so concurrent EVAL calls queue rather
// than interleave.
type gil struct {
	mu sync.Mutex
}

func (g *gil) acquire() { g.mu.Lock() }
func (g *gil) release() { g.mu.Unlock() }
