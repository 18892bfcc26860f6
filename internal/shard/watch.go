package shard

import "sync/atomic"

// WatchTracker is the near-zero-overhead modification-tracking substrate
// for WATCH. It shifts cost to the rare WATCH path: a shard's epoch
// only advances when at least one watcher is registered against it, so
// unwatched shards pay nothing beyond an atomic load on every mutation.
//
// A plain lock-free counter rather than a mutex-guarded struct, in the
// same style as Shard's atomic OperationStats.
type WatchTracker struct {
	activeWatchers int64
	epoch          int64
}

// RegisterWatcher marks one more watcher active on this shard and
// returns the current epoch as the caller's baseline.
func (w *WatchTracker) RegisterWatcher() uint64 {
	atomic.AddInt64(&w.activeWatchers, 1)
	return uint64(atomic.LoadInt64(&w.epoch))
}

// UnregisterWatcher marks one watcher as no longer active.
func (w *WatchTracker) UnregisterWatcher() {
	for {
		cur := atomic.LoadInt64(&w.activeWatchers)
		if cur <= 0 {
			return
		}
		if atomic.CompareAndSwapInt64(&w.activeWatchers, cur, cur-1) {
			return
		}
	}
}

// OnMutation is called by every shard mutation; it bumps the epoch iff
// a watcher is registered.
func (w *WatchTracker) OnMutation() {
	if atomic.LoadInt64(&w.activeWatchers) > 0 {
		atomic.AddInt64(&w.epoch, 1)
	}
}

// Epoch returns the current epoch.
func (w *WatchTracker) Epoch() uint64 {
	return uint64(atomic.LoadInt64(&w.epoch))
}
