package txn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/txn"
)

func TestWatchDetectsMutation(t *testing.T) {
	store := shard.New(16, 0)
	s := txn.NewState()

	s.Watch(store, 0, "k")
	assert.False(t, s.WatchersChanged(store))

	_, _, _, err := store.SetString(0, "k", []byte("v"), shard.SetOptions{})
	require.NoError(t, err)

	assert.True(t, s.WatchersChanged(store))
}

func TestMultiQueuesAndDiscardResets(t *testing.T) {
	store := shard.New(16, 0)
	s := txn.NewState()

	s.Multi()
	assert.True(t, s.InMulti)
	s.Enqueue(txn.QueuedCommand{Name: "SET", Args: [][]byte{[]byte("k"), []byte("v")}})
	assert.Len(t, s.Queued, 1)

	s.Discard(store)
	assert.False(t, s.InMulti)
	assert.Empty(t, s.Queued)
}

func TestAbortedTransactionStaysAborted(t *testing.T) {
	s := txn.NewState()
	s.Multi()
	s.Abort()
	assert.True(t, s.Aborted)

	s.Enqueue(txn.QueuedCommand{Name: "GET", Args: [][]byte{[]byte("k")}})
	assert.True(t, s.Aborted)
}

func TestEndExecClearsWatchesEvenOnAbort(t *testing.T) {
	store := shard.New(16, 0)
	s := txn.NewState()
	s.Watch(store, 0, "k")
	s.Multi()
	s.Abort()

	s.EndExec(store)
	assert.False(t, s.InMulti)
	assert.False(t, s.Aborted)
	assert.Empty(t, s.Watching)
}
