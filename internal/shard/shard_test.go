package shard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/shard"
	"github.com/dreamware/redcore/internal/skiplist"
	"github.com/dreamware/redcore/internal/value"
)

func TestSetAndGetString(t *testing.T) {
	s := shard.New(16, 0)
	_, _, applied, err := s.SetString(0, "k", []byte("v"), shard.SetOptions{})
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := s.GetString(0, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSetNXFailsWhenPresent(t *testing.T) {
	s := shard.New(16, 0)
	_, _, applied, err := s.SetString(0, "k", []byte("v1"), shard.SetOptions{})
	require.NoError(t, err)
	assert.True(t, applied)

	_, _, applied, err = s.SetString(0, "k", []byte("v2"), shard.SetOptions{NX: true})
	require.NoError(t, err)
	assert.False(t, applied)

	got, _ := s.GetString(0, "k")
	assert.Equal(t, []byte("v1"), got)
}

func TestGetWrongTypeErrors(t *testing.T) {
	s := shard.New(16, 0)
	_, err := s.SAdd(0, "k", []byte("a"))
	require.NoError(t, err)

	_, err = s.GetString(0, "k")
	assert.ErrorIs(t, err, shard.ErrWrongType)
}

func TestExpireAndTTL(t *testing.T) {
	s := shard.New(16, 0)
	_, _, _, err := s.SetString(0, "k", []byte("v"), shard.SetOptions{})
	require.NoError(t, err)

	ok := s.Expire(0, "k", time.Now().Add(-time.Second))
	assert.True(t, ok)
	assert.False(t, s.Exists(0, "k"))

	_, res := s.TTL(0, "k")
	assert.Equal(t, shard.TTLMiss, res)
}

func TestRenameAcrossShards(t *testing.T) {
	s := shard.New(16, 0)
	_, _, _, err := s.SetString(0, "a", []byte("v"), shard.SetOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Rename(0, "a", "b"))
	assert.False(t, s.Exists(0, "a"))
	got, err := s.GetString(0, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRenameMissingKey(t *testing.T) {
	s := shard.New(16, 0)
	err := s.Rename(0, "nope", "dest")
	assert.ErrorIs(t, err, shard.ErrNoSuchKey)
}

func TestListPushPop(t *testing.T) {
	s := shard.New(16, 0)
	n, err := s.Push(0, "l", shard.Right, false, []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Push(0, "l", shard.Left, false, []byte("z"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out, err := s.LRange(0, "l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("z"), []byte("a"), []byte("b")}, out)
}

func TestListPushXOnMissingKeyIsNoop(t *testing.T) {
	s := shard.New(16, 0)
	n, err := s.Push(0, "nope", shard.Left, true, []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, s.Exists(0, "nope"))
}

func TestListPopEmptiesAndDeletesKey(t *testing.T) {
	s := shard.New(16, 0)
	_, err := s.Push(0, "l", shard.Right, false, []byte("a"))
	require.NoError(t, err)

	out, err := s.Pop(0, "l", shard.Right, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a")}, out)
	assert.False(t, s.Exists(0, "l"))
}

func TestSetOperations(t *testing.T) {
	s := shard.New(16, 0)
	added, err := s.SAdd(0, "s1", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = s.SAdd(0, "s2", []byte("b"), []byte("c"), []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	inter, err := s.SInter(0, "s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("b"), []byte("c")}, inter)

	diff, err := s.SDiff(0, "s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("a")}, diff)
}

func TestHashSetGetDel(t *testing.T) {
	s := shard.New(16, 0)
	created, err := s.HSet(0, "h", [][2][]byte{{[]byte("f1"), []byte("v1")}})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	v, ok, err := s.HGet(0, "h", []byte("f1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	removed, err := s.HDel(0, "h", []byte("f1"))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, s.Exists(0, "h"))
}

func TestZAddAndRange(t *testing.T) {
	s := shard.New(16, 0)
	res, err := s.ZAdd(0, "z", shard.ZAddOptions{}, []skiplist.Entry{
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
		{Member: "c", Score: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)

	out, err := s.ZRangeByRank(0, "z", 0, -1, false)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Member)
	assert.Equal(t, "c", out[2].Member)

	rev, err := s.ZRangeByRank(0, "z", 0, -1, true)
	require.NoError(t, err)
	assert.Equal(t, "c", rev[0].Member)
}

func TestZAddNXSkipsExisting(t *testing.T) {
	s := shard.New(16, 0)
	_, err := s.ZAdd(0, "z", shard.ZAddOptions{}, []skiplist.Entry{{Member: "a", Score: 1}})
	require.NoError(t, err)

	res, err := s.ZAdd(0, "z", shard.ZAddOptions{NX: true}, []skiplist.Entry{{Member: "a", Score: 99}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 0, res.Changed)

	score, ok, err := s.ZScore(0, "z", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(1), score)
}

func TestIncrByOnMissingKeyStartsAtZero(t *testing.T) {
	s := shard.New(16, 0)
	n, err := s.IncrBy(0, "counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = s.IncrBy(0, "counter", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIncrByOnNonIntegerErrors(t *testing.T) {
	s := shard.New(16, 0)
	_, _, _, err := s.SetString(0, "k", []byte("not-a-number"), shard.SetOptions{})
	require.NoError(t, err)

	_, err = s.IncrBy(0, "k", 1)
	assert.ErrorIs(t, err, shard.ErrNotInteger)
}

func TestFlushDBAndDBSize(t *testing.T) {
	s := shard.New(16, 0)
	_, _, _, err := s.SetString(0, "a", []byte("1"), shard.SetOptions{})
	require.NoError(t, err)
	_, _, _, err = s.SetString(0, "b", []byte("2"), shard.SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.DBSize(0))

	s.FlushDB(0)
	assert.Equal(t, 0, s.DBSize(0))
}

func TestKeysGlobMatch(t *testing.T) {
	s := shard.New(16, 0)
	_, _, _, err := s.SetString(0, "user:1", []byte("a"), shard.SetOptions{})
	require.NoError(t, err)
	_, _, _, err = s.SetString(0, "user:2", []byte("b"), shard.SetOptions{})
	require.NoError(t, err)
	_, _, _, err = s.SetString(0, "other", []byte("c"), shard.SetOptions{})
	require.NoError(t, err)

	keys := s.Keys(0, "user:*")
	assert.ElementsMatch(t, []string{"user:1", "user:2"}, keys)
}

func TestWatchEpochChangesOnMutation(t *testing.T) {
	s := shard.New(16, 0)
	baseline := s.RegisterWatch(0, "k")
	assert.False(t, s.ChangedSince(0, "k", baseline))

	_, _, _, err := s.SetString(0, "k", []byte("v"), shard.SetOptions{})
	require.NoError(t, err)

	assert.True(t, s.ChangedSince(0, "k", baseline))
}

func TestEncodingHintMissingKeyIsNotFound(t *testing.T) {
	s := shard.New(16, 0)
	hint, err := s.EncodingHint(0, "nope")
	assert.ErrorIs(t, err, shard.ErrNotFound)
	assert.Equal(t, value.Encoding(""), hint)
}
