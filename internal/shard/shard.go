// Package shard implements the sharded database engine: N databases of
// 16 shards each, selected by FNV-1a hash of the key, holding the
// tagged value model behind a per-shard lock, with on-access
// expiration and the watch-epoch substrate WATCH relies on.
//
// Same pluggable-store shape and atomic operation counters as the
// original single-key-type store, same FNV-1a key hashing for
// ownership, widened from one key type ([]byte) to the six-kind
// value.StoredValue, and layered with a watch tracker.
package shard

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreamware/redcore/internal/memtrack"
	"github.com/dreamware/redcore/internal/value"
)

// NumShards is the fixed per-database shard count.
const NumShards = 16

// OperationStats holds per-shard operation counts, read atomically by
// Stats. Nothing in this package increments them, so Stats reports zeros.
type OperationStats struct {
	Gets    uint64
	Sets    uint64
	Deletes uint64
}

// Shard owns one partition of a database's keyspace: its data, its
// expiring-key index, and its watch tracker.
type Shard struct {
	mu       sync.RWMutex
	data     map[string]*value.StoredValue
	expiring map[string]time.Time
	watch    WatchTracker
	stats    OperationStats
	mem      *memtrack.Accountant
}

func newShard(mem *memtrack.Accountant) *Shard {
	return &Shard{
		data:     make(map[string]*value.StoredValue),
		expiring: make(map[string]time.Time),
		mem:      mem,
	}
}

// shardIndex computes the deterministic FNV-1a shard assignment for key.
func shardIndex(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % n
}

// evictIfExpired removes key from data/expiring if it has passed its
// TTL, as of now. Caller must hold the write lock. Returns true if an
// eviction happened.
func (s *Shard) evictIfExpired(key string, now time.Time) bool {
	sv, ok := s.data[key]
	if !ok {
		return false
	}
	if !sv.ExpiredAt(now) {
		return false
	}
	s.removeLocked(key)
	return true
}

// removeLocked deletes key from data/expiring and accounts the freed
// memory. Caller must hold the write lock.
func (s *Shard) removeLocked(key string) {
	sv, ok := s.data[key]
	if !ok {
		return
	}
	delete(s.data, key)
	delete(s.expiring, key)
	if s.mem != nil {
		s.mem.Sub(estimateSize(key, sv))
	}
	s.watch.OnMutation()
}

// setLocked stores sv under key, indexing its TTL and accounting memory.
// Caller must hold the write lock.
func (s *Shard) setLocked(key string, sv *value.StoredValue) {
	if old, ok := s.data[key]; ok && s.mem != nil {
		s.mem.Sub(estimateSize(key, old))
	}
	s.data[key] = sv
	if sv.HasTTL() {
		s.expiring[key] = sv.ExpiresAt
	} else {
		delete(s.expiring, key)
	}
	if s.mem != nil {
		s.mem.Add(estimateSize(key, sv))
	}
	s.watch.OnMutation()
}

// deleteIfEmptyLocked removes key if its container value has become
// empty — container emptying always deletes the key. Caller must hold
// the write lock.
func (s *Shard) deleteIfEmptyLocked(key string) {
	sv, ok := s.data[key]
	if !ok {
		return
	}
	if sv.IsEmptyContainer() {
		s.removeLocked(key)
	}
}

func estimateSize(key string, sv *value.StoredValue) int64 {
	base := int64(len(key)) + 48
	switch sv.Kind {
	case value.KindString:
		return base + int64(len(sv.Str))
	case value.KindList:
		n := int64(0)
		for _, e := range sv.List.All() {
			n += int64(len(e)) + memtrack.EntryOverhead
		}
		return base + n
	case value.KindSet:
		n := int64(0)
		for _, m := range sv.Set.Members() {
			n += int64(len(m)) + memtrack.EntryOverhead
		}
		return base + n
	case value.KindHash:
		n := int64(0)
		for f, v := range sv.Hash.All() {
			n += int64(len(f)+len(v)) + memtrack.EntryOverhead
		}
		return base + n
	case value.KindSortedSet:
		return base + sv.ZSet.Memory()
	case value.KindStream:
		return base + sv.Stm.Memory()
	default:
		return base
	}
}

// Stats returns a snapshot of this shard's operation counters.
func (s *Shard) Stats() OperationStats {
	return OperationStats{
		Gets:    atomic.LoadUint64(&s.stats.Gets),
		Sets:    atomic.LoadUint64(&s.stats.Sets),
		Deletes: atomic.LoadUint64(&s.stats.Deletes),
	}
}
