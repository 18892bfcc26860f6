package stream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/stream"
)

func field(k, v string) [2][]byte { return [2][]byte{[]byte(k), []byte(v)} }

func TestAddAutoStrictlyIncreasing(t *testing.T) {
	s := stream.New()
	id1 := s.AddAuto([][2][]byte{field("f", "v1")}, 1000)
	id2 := s.AddAuto([][2][]byte{field("f", "v2")}, 1000)
	id3 := s.AddAuto([][2][]byte{field("f", "v3")}, 1001)

	assert.True(t, id1.Less(id2))
	assert.True(t, id2.Less(id3))
	assert.Equal(t, uint64(0), id1.Seq)
	assert.Equal(t, uint64(1), id2.Seq)
	assert.Equal(t, uint64(0), id3.Seq)
}

func TestAddWithIDRejectsOutOfOrder(t *testing.T) {
	s := stream.New()
	require.NoError(t, s.AddWithID(stream.ID{Millis: 5, Seq: 0}, nil))

	err := s.AddWithID(stream.ID{Millis: 5, Seq: 0}, nil)
	require.Error(t, err)

	err = s.AddWithID(stream.ID{Millis: 4, Seq: 9}, nil)
	require.Error(t, err)

	require.NoError(t, s.AddWithID(stream.ID{Millis: 5, Seq: 1}, nil))
	assert.Equal(t, 2, s.Len())
}

func TestRangeInclusiveAndReverse(t *testing.T) {
	s := stream.New()
	ids := make([]stream.ID, 0, 3)
	for i := uint64(1); i <= 3; i++ {
		id := stream.ID{Millis: i, Seq: 0}
		require.NoError(t, s.AddWithID(id, [][2][]byte{field("n", "x")}))
		ids = append(ids, id)
	}

	got := s.Range(stream.MinID, stream.MaxID, -1, false)
	require.Len(t, got, 3)
	assert.Equal(t, ids[0], got[0].ID)

	rev := s.Range(stream.MinID, stream.MaxID, -1, true)
	require.Len(t, rev, 3)
	assert.Equal(t, ids[2], rev[0].ID)
}

func TestRangeAfterExclusive(t *testing.T) {
	s := stream.New()
	a := s.AddAuto(nil, 1)
	b := s.AddAuto(nil, 2)

	after := s.RangeAfter(a, -1)
	require.Len(t, after, 1)
	assert.Equal(t, b, after[0].ID)
}

func TestTrimByCountAndMinID(t *testing.T) {
	s := stream.New()
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.AddWithID(stream.ID{Millis: i}, nil))
	}

	removed := s.TrimByCount(3)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 3, s.Len())

	removed = s.TrimByMinID(stream.ID{Millis: 4})
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, s.Len())
}

func TestGroupDeliverAndAck(t *testing.T) {
	s := stream.New()
	id1 := s.AddAuto([][2][]byte{field("f", "1")}, 1)
	id2 := s.AddAuto([][2][]byte{field("f", "2")}, 2)

	require.NoError(t, s.CreateGroup("g", stream.MinID))
	g, ok := s.Group("g")
	require.True(t, ok)

	entries := s.EntriesAfterForGroup(g.LastDeliveredID, -1)
	require.Len(t, entries, 2)
	g.Deliver("c1", entries, false)

	total, min, max, perConsumer := g.PendingSummary()
	assert.Equal(t, 2, total)
	assert.Equal(t, id1, min)
	assert.Equal(t, id2, max)
	assert.Equal(t, 2, perConsumer["c1"])

	acked := g.Ack([]stream.ID{id1})
	assert.Equal(t, 1, acked)

	total, _, _, _ = g.PendingSummary()
	assert.Equal(t, 1, total)
}

func TestGroupCreateBusy(t *testing.T) {
	s := stream.New()
	require.NoError(t, s.CreateGroup("g", stream.MinID))
	err := s.CreateGroup("g", stream.MinID)
	require.Error(t, err)
	assert.IsType(t, stream.ErrBusyGroup{}, err)
}

func TestGroupClaimRespectsMinIdle(t *testing.T) {
	s := stream.New()
	id1 := s.AddAuto(nil, 1)
	require.NoError(t, s.CreateGroup("g", stream.MinID))
	g, _ := s.Group("g")
	g.Deliver("c1", s.EntriesAfterForGroup(stream.MinID, -1), false)

	claimed := g.Claim(s, "c2", time.Hour, []stream.ID{id1}, false)
	assert.Empty(t, claimed, "idle time hasn't elapsed yet")

	claimed = g.Claim(s, "c2", 0, []stream.ID{id1}, false)
	require.Len(t, claimed, 1)
	assert.Equal(t, "c2", claimed[0].Consumer)
}

func TestGroupClaimForceInsertsAbsent(t *testing.T) {
	s := stream.New()
	id1 := s.AddAuto(nil, 1)
	require.NoError(t, s.CreateGroup("g", stream.MinID))
	g, _ := s.Group("g")

	claimed := g.Claim(s, "c1", 0, []stream.ID{id1}, false)
	assert.Empty(t, claimed, "without FORCE, absent ids are skipped")

	claimed = g.Claim(s, "c1", 0, []stream.ID{id1}, true)
	require.Len(t, claimed, 1)
}

func TestGroupAutoClaimCursor(t *testing.T) {
	s := stream.New()
	var ids []stream.ID
	for i := uint64(1); i <= 3; i++ {
		ids = append(ids, s.AddAuto(nil, i))
	}
	require.NoError(t, s.CreateGroup("g", stream.MinID))
	g, _ := s.Group("g")
	g.Deliver("c1", s.EntriesAfterForGroup(stream.MinID, -1), false)

	claimed, next := g.AutoClaim(s, "c2", 0, stream.MinID, 2)
	require.Len(t, claimed, 2)
	assert.Equal(t, ids[2], next)

	claimed, next = g.AutoClaim(s, "c2", 0, next, 2)
	require.Len(t, claimed, 1)
	assert.Equal(t, stream.MinID, next, "exhausted scan returns 0-0")
}

func TestGroupDeleteConsumerRemovesPending(t *testing.T) {
	s := stream.New()
	s.AddAuto(nil, 1)
	require.NoError(t, s.CreateGroup("g", stream.MinID))
	g, _ := s.Group("g")
	g.Deliver("c1", s.EntriesAfterForGroup(stream.MinID, -1), false)

	removed := g.DeleteConsumer("c1")
	assert.Equal(t, 1, removed)
	total, _, _, _ := g.PendingSummary()
	assert.Equal(t, 0, total)
}
