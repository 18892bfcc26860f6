// Package txn implements the per-connection WATCH/MULTI/EXEC state
// machine: optimistic-concurrency transactions layered on top of the
// sharded store's per-shard watch epochs.
//
// Deliberately independent of internal/command's Command type (a
// structurally identical QueuedCommand lives here instead) so the two
// packages don't form an import cycle — the command executor is the
// only place that needs both.
package txn

import "github.com/dreamware/redcore/internal/shard"

// QueuedCommand is one command captured between MULTI and EXEC.
type QueuedCommand struct {
	Name string
	Args [][]byte
}

// WatchKey identifies one watched key within one database.
type WatchKey struct {
	DB  int
	Key string
}

// State is the transaction state of a single connection.
type State struct {
	InMulti  bool
	Aborted  bool
	Queued   []QueuedCommand
	Watching map[WatchKey]uint64 // baseline epoch per watched key
}

// NewState returns a fresh, non-transactional connection state.
func NewState() *State {
	return &State{Watching: make(map[WatchKey]uint64)}
}

// Watch registers a baseline epoch for (db, key) against store. WATCH
// inside a transaction is an error; callers check InMulti before
// calling this.
func (s *State) Watch(store *shard.Store, db int, key string) {
	baseline := store.RegisterWatch(db, key)
	s.Watching[WatchKey{DB: db, Key: key}] = baseline
}

// Unwatch clears all watched keys, unregistering each from its shard.
func (s *State) Unwatch(store *shard.Store) {
	for wk := range s.Watching {
		store.UnregisterWatch(wk.DB, wk.Key)
	}
	s.Watching = make(map[WatchKey]uint64)
}

// Multi begins queuing, clearing any queued commands and the abort
// flag. It does not check whether a transaction is already open; the
// command layer rejects a nested MULTI before calling it.
func (s *State) Multi() {
	s.InMulti = true
	s.Aborted = false
	s.Queued = nil
}

// Enqueue appends a parsed command to the queue.
func (s *State) Enqueue(cmd QueuedCommand) {
	s.Queued = append(s.Queued, cmd)
}

// Abort marks the transaction as doomed (a queued command failed to
// parse); EXEC will fail it without running anything.
func (s *State) Abort() {
	s.Aborted = true
}

// Discard clears all transaction and watch state.
func (s *State) Discard(store *shard.Store) {
	s.Unwatch(store)
	s.InMulti = false
	s.Aborted = false
	s.Queued = nil
}

// WatchersChanged reports whether any watched key's shard has mutated
// since its baseline was captured.
func (s *State) WatchersChanged(store *shard.Store) bool {
	for wk, baseline := range s.Watching {
		if store.ChangedSince(wk.DB, wk.Key, baseline) {
			return true
		}
	}
	return false
}

// EndExec resets multi/queue/watch state after EXEC has run (or been
// aborted), regardless of outcome.
func (s *State) EndExec(store *shard.Store) {
	s.Unwatch(store)
	s.InMulti = false
	s.Aborted = false
	s.Queued = nil
}
