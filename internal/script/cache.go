package script

import (
	"sync"

	"github.com/dreamware/redcore/internal/lua/bridge"
	"github.com/dreamware/redcore/internal/lua/compiler"
)

// cache maps a script's sha1 hex digest to its compiled prototype, the
// backing store for EVAL/EVALSHA/SCRIPT LOAD/EXISTS/FLUSH.
type cache struct {
	mu      sync.RWMutex
	entries map[string]*compiler.FunctionProto
}

func newCache() *cache {
	return &cache{entries: make(map[string]*compiler.FunctionProto)}
}

// compile compiles source, caching the result under its sha1 digest,
// and returns both the digest and the prototype.
func (c *cache) compile(source string) (string, *compiler.FunctionProto, error) {
	sha := bridge.Sha1Hex(source)
	c.mu.RLock()
	if proto, ok := c.entries[sha]; ok {
		c.mu.RUnlock()
		return sha, proto, nil
	}
	c.mu.RUnlock()

	block, err := compiler.ParseChunk(source)
	if err != nil {
		return sha, nil, err
	}
	proto, err := compiler.Compile(block, sha)
	if err != nil {
		return sha, nil, err
	}

	c.mu.Lock()
	c.entries[sha] = proto
	c.mu.Unlock()
	return sha, proto, nil
}

func (c *cache) get(sha string) (*compiler.FunctionProto, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	proto, ok := c.entries[sha]
	return proto, ok
}

func (c *cache) put(source string) (string, error) {
	sha, _, err := c.compile(source)
	return sha, err
}

func (c *cache) exists(shas []string) []bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]bool, len(shas))
	for i, sha := range shas {
		_, out[i] = c.entries[sha]
	}
	return out
}

func (c *cache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*compiler.FunctionProto)
}
