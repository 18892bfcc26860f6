package skiplist_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/skiplist"
)

func TestInsertScoreRank(t *testing.T) {
	s := skiplist.New()

	s.Insert("a", 1)
	s.Insert("b", 2)
	s.Insert("c", 3)

	sc, ok := s.Score("b")
	require.True(t, ok)
	assert.Equal(t, 2.0, sc)

	rank, ok := s.Rank("b")
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	_, ok = s.Rank("missing")
	assert.False(t, ok)
}

func TestInsertUpdateReturnsOldScore(t *testing.T) {
	s := skiplist.New()
	_, had := s.Insert("a", 1)
	assert.False(t, had)

	old, had := s.Insert("a", 5)
	assert.True(t, had)
	assert.Equal(t, 1.0, old)

	sc, _ := s.Score("a")
	assert.Equal(t, 5.0, sc)
	assert.Equal(t, 1, s.Len())
}

func TestRangeByRankAndScore(t *testing.T) {
	s := skiplist.New()
	s.Insert("a", 1)
	s.Insert("b", 2)
	s.Insert("c", 3)

	all := s.RangeByRank(0, -1)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Member)
	assert.Equal(t, "c", all[2].Member)

	mid := s.RangeByScore(2, 3)
	require.Len(t, mid, 2)
	assert.Equal(t, "b", mid[0].Member)
}

func TestEmptyRangeYieldsEmpty(t *testing.T) {
	s := skiplist.New()
	assert.Empty(t, s.RangeByRank(0, -1))
	assert.Empty(t, s.RangeByScore(0, 10))
}

func TestTiesBrokenByMember(t *testing.T) {
	s := skiplist.New()
	s.Insert("zeta", 1)
	s.Insert("alpha", 1)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Member)
	assert.Equal(t, "zeta", all[1].Member)
}

func TestNaNSortsAfterNonNaN(t *testing.T) {
	s := skiplist.New()
	s.Insert("nan-member", math.NaN())
	s.Insert("normal", 100)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "normal", all[0].Member)
	assert.Equal(t, "nan-member", all[1].Member)
}

func TestRemove(t *testing.T) {
	s := skiplist.New()
	s.Insert("a", 1)
	s.Insert("b", 2)

	score, ok := s.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Remove("a")
	assert.False(t, ok)
}

func TestByRankOutOfRange(t *testing.T) {
	s := skiplist.New()
	s.Insert("a", 1)

	_, ok := s.ByRank(5)
	assert.False(t, ok)

	e, ok := s.ByRank(0)
	require.True(t, ok)
	assert.Equal(t, "a", e.Member)
}
