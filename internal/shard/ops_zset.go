package shard

import (
	"github.com/dreamware/redcore/internal/skiplist"
	"github.com/dreamware/redcore/internal/value"
)

// ZAddOptions mirrors the ZADD option table (NX/XX/GT/LT/CH).
type ZAddOptions struct {
	NX, XX   bool
	GT, LT   bool
	Ch       bool
	Incr     bool
}

// ZAddResult reports what ZAdd did, enough to render either the "added"
// or "changed" count, or (for INCR) the resulting score.
type ZAddResult struct {
	Added, Changed int
	NewScore       float64
	Skipped        bool // INCR with NX/XX guard failing
}

// ZAdd adds or updates members in key's sorted set per opts.
func (s *Store) ZAdd(dbn int, key string, opts ZAddOptions, members []skiplist.Entry) (ZAddResult, error) {
	var res ZAddResult
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var zs *skiplist.Skiplist
		if exists {
			if sv.Kind != value.KindSortedSet {
				return nil, ErrWrongType
			}
			zs = sv.ZSet
		} else {
			zs = skiplist.New()
		}
		for _, m := range members {
			oldScore, had := zs.Score(m.Member)
			if opts.NX && had {
				if opts.Incr {
					res.Skipped = true
				}
				continue
			}
			if opts.XX && !had {
				if opts.Incr {
					res.Skipped = true
				}
				continue
			}
			newScore := m.Score
			if opts.Incr {
				newScore = oldScore + m.Score
			}
			if had && opts.GT && newScore <= oldScore {
				continue
			}
			if had && opts.LT && newScore >= oldScore {
				continue
			}
			zs.Insert(m.Member, newScore)
			if !had {
				res.Added++
			} else if oldScore != newScore {
				res.Changed++
			}
			res.NewScore = newScore
		}
		return &value.StoredValue{Kind: value.KindSortedSet, ZSet: zs, ExpiresAt: expiresOf(sv)}, nil
	})
	return res, err
}

// ZScore returns the score of member in key's sorted set.
func (s *Store) ZScore(dbn int, key string, member string) (float64, bool, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if sv.Kind != value.KindSortedSet {
		return 0, false, ErrWrongType
	}
	sc, ok := sv.ZSet.Score(member)
	return sc, ok, nil
}

// ZRem removes members from key's sorted set, returning the count
// removed.
func (s *Store) ZRem(dbn int, key string, members ...string) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSortedSet {
			return nil, ErrWrongType
		}
		for _, m := range members {
			if _, ok := sv.ZSet.Remove(m); ok {
				removed++
			}
		}
		return sv, nil
	})
	return removed, err
}

// ZCard reports the cardinality of key's sorted set (0 if absent).
func (s *Store) ZCard(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindSortedSet {
		return 0, ErrWrongType
	}
	return sv.ZSet.Len(), nil
}

// ZRank returns the zero-based ascending rank of member, or false if
// absent. If reverse is true, rank is measured from the highest score.
func (s *Store) ZRank(dbn int, key string, member string, reverse bool) (int, bool, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if sv.Kind != value.KindSortedSet {
		return 0, false, ErrWrongType
	}
	r, ok := sv.ZSet.Rank(member)
	if !ok {
		return 0, false, nil
	}
	if reverse {
		r = sv.ZSet.Len() - 1 - r
	}
	return r, true, nil
}

// ZRangeByRank returns entries with rank in [start, stop], optionally
// reversed (ZREVRANGE).
func (s *Store) ZRangeByRank(dbn int, key string, start, stop int, reverse bool) ([]skiplist.Entry, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindSortedSet {
		return nil, ErrWrongType
	}
	if !reverse {
		return sv.ZSet.RangeByRank(start, stop), nil
	}
	n := sv.ZSet.Len()
	lo, hi := n-1-stop, n-1-start
	entries := sv.ZSet.RangeByRank(lo, hi)
	reverseEntries(entries)
	return entries, nil
}

// ZRangeByScore returns entries with score in [min, max], optionally
// reversed (ZREVRANGEBYSCORE).
func (s *Store) ZRangeByScore(dbn int, key string, min, max float64, reverse bool) ([]skiplist.Entry, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindSortedSet {
		return nil, ErrWrongType
	}
	entries := sv.ZSet.RangeByScore(min, max)
	if reverse {
		reverseEntries(entries)
	}
	return entries, nil
}

// ZCount returns the number of members with score in [min, max].
func (s *Store) ZCount(dbn int, key string, min, max float64) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindSortedSet {
		return 0, ErrWrongType
	}
	return sv.ZSet.CountByScore(min, max), nil
}

// ZIncrBy adds delta to member's score, creating the member/set as
// needed, and returns the resulting score.
func (s *Store) ZIncrBy(dbn int, key string, member string, delta float64) (float64, error) {
	var result float64
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var zs *skiplist.Skiplist
		if exists {
			if sv.Kind != value.KindSortedSet {
				return nil, ErrWrongType
			}
			zs = sv.ZSet
		} else {
			zs = skiplist.New()
		}
		old, _ := zs.Score(member)
		result = old + delta
		zs.Insert(member, result)
		return &value.StoredValue{Kind: value.KindSortedSet, ZSet: zs, ExpiresAt: expiresOf(sv)}, nil
	})
	return result, err
}

// ZPopMin removes and returns up to count members with the lowest
// scores.
func (s *Store) ZPopMin(dbn int, key string, count int) ([]skiplist.Entry, error) {
	return s.zPop(dbn, key, count, false)
}

// ZPopMax removes and returns up to count members with the highest
// scores.
func (s *Store) ZPopMax(dbn int, key string, count int) ([]skiplist.Entry, error) {
	return s.zPop(dbn, key, count, true)
}

func (s *Store) zPop(dbn int, key string, count int, fromMax bool) ([]skiplist.Entry, error) {
	var out []skiplist.Entry
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSortedSet {
			return nil, ErrWrongType
		}
		for i := 0; i < count; i++ {
			var e skiplist.Entry
			var ok bool
			if fromMax {
				e, ok = sv.ZSet.ByRank(sv.ZSet.Len() - 1)
			} else {
				e, ok = sv.ZSet.ByRank(0)
			}
			if !ok {
				break
			}
			sv.ZSet.Remove(e.Member)
			out = append(out, e)
		}
		return sv, nil
	})
	return out, err
}

// ZRemRangeByRank removes members with rank in [start, stop], returning
// the count removed.
func (s *Store) ZRemRangeByRank(dbn int, key string, start, stop int) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSortedSet {
			return nil, ErrWrongType
		}
		victims := sv.ZSet.RangeByRank(start, stop)
		for _, e := range victims {
			if _, ok := sv.ZSet.Remove(e.Member); ok {
				removed++
			}
		}
		return sv, nil
	})
	return removed, err
}

// ZRemRangeByScore removes members with score in [min, max], returning
// the count removed.
func (s *Store) ZRemRangeByScore(dbn int, key string, min, max float64) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSortedSet {
			return nil, ErrWrongType
		}
		victims := sv.ZSet.RangeByScore(min, max)
		for _, e := range victims {
			if _, ok := sv.ZSet.Remove(e.Member); ok {
				removed++
			}
		}
		return sv, nil
	})
	return removed, err
}

func reverseEntries(e []skiplist.Entry) {
	for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
		e[i], e[j] = e[j], e[i]
	}
}
