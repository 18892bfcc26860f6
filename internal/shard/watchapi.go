package shard

// GetEpoch returns the current watch epoch of key's shard.
func (s *Store) GetEpoch(dbn int, key string) uint64 {
	sh := s.db(dbn).shardFor(key)
	return sh.watch.Epoch()
}

// ChangedSince reports whether key's shard has mutated since baseline
// was captured. False positives across keys sharing a shard are
// acceptable; false negatives on the watched key itself are not.
func (s *Store) ChangedSince(dbn int, key string, baseline uint64) bool {
	return s.GetEpoch(dbn, key) != baseline
}

// RegisterWatch registers a watcher on key's shard and returns the
// baseline epoch to compare against at EXEC time.
func (s *Store) RegisterWatch(dbn int, key string) uint64 {
	sh := s.db(dbn).shardFor(key)
	return sh.watch.RegisterWatcher()
}

// UnregisterWatch removes a previously registered watcher from key's
// shard.
func (s *Store) UnregisterWatch(dbn int, key string) {
	sh := s.db(dbn).shardFor(key)
	sh.watch.UnregisterWatcher()
}
