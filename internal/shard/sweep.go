package shard

import "time"

// SweepExpired evicts every key past its TTL across all databases and
// shards, returning the total count evicted. Active expiration: this is
// what lets a key with no further reads still get reclaimed, rather
// than relying solely on the on-access eviction in Get/Touch.
func (s *Store) SweepExpired() int {
	now := time.Now()
	total := 0
	for _, db := range s.dbs {
		for _, sh := range db.shards {
			total += sh.sweepLocked(now)
		}
	}
	return total
}

func (sh *Shard) sweepLocked(now time.Time) int {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	evicted := 0
	for key, deadline := range sh.expiring {
		if !now.Before(deadline) {
			sh.removeLocked(key)
			evicted++
		}
	}
	return evicted
}
