package shard

import (
	"math/rand"

	"github.com/dreamware/redcore/internal/value"
)

// SAdd inserts members into key's set, creating it if absent, and
// returns the number newly added.
func (s *Store) SAdd(dbn int, key string, members ...[]byte) (int, error) {
	var added int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var set *value.Set
		if exists {
			if sv.Kind != value.KindSet {
				return nil, ErrWrongType
			}
			set = sv.Set
		} else {
			set = value.NewSet()
		}
		added = set.Add(members...)
		return &value.StoredValue{Kind: value.KindSet, Set: set, ExpiresAt: expiresOf(sv)}, nil
	})
	return added, err
}

// SRem removes members from key's set, returning the number actually
// removed.
func (s *Store) SRem(dbn int, key string, members ...[]byte) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSet {
			return nil, ErrWrongType
		}
		removed = sv.Set.Remove(members...)
		return sv, nil
	})
	return removed, err
}

// SIsMember reports whether m belongs to key's set.
func (s *Store) SIsMember(dbn int, key string, m []byte) (bool, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sv.Kind != value.KindSet {
		return false, ErrWrongType
	}
	return sv.Set.Contains(m), nil
}

// SMembers returns every member of key's set, in unspecified order.
func (s *Store) SMembers(dbn int, key string) ([][]byte, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindSet {
		return nil, ErrWrongType
	}
	return sv.Set.Members(), nil
}

// SCard reports the cardinality of key's set (0 if absent).
func (s *Store) SCard(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindSet {
		return 0, ErrWrongType
	}
	return sv.Set.Len(), nil
}

// setOf loads key's set members as a lookup map, treating a missing key
// as empty. Used by the SINTER/SUNION/SDIFF family below.
func (s *Store) setOf(dbn int, key string) (map[string]struct{}, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindSet {
		return nil, ErrWrongType
	}
	out := make(map[string]struct{}, sv.Set.Len())
	for _, m := range sv.Set.Members() {
		out[string(m)] = struct{}{}
	}
	return out, nil
}

// SInter returns the intersection of the named sets.
func (s *Store) SInter(dbn int, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	acc, err := s.setOf(dbn, keys[0])
	if err != nil {
		return nil, err
	}
	for _, k := range keys[1:] {
		next, err := s.setOf(dbn, k)
		if err != nil {
			return nil, err
		}
		for m := range acc {
			if _, ok := next[m]; !ok {
				delete(acc, m)
			}
		}
	}
	return setKeys(acc), nil
}

// SUnion returns the union of the named sets.
func (s *Store) SUnion(dbn int, keys ...string) ([][]byte, error) {
	acc := make(map[string]struct{})
	for _, k := range keys {
		next, err := s.setOf(dbn, k)
		if err != nil {
			return nil, err
		}
		for m := range next {
			acc[m] = struct{}{}
		}
	}
	return setKeys(acc), nil
}

// SDiff returns the members of the first set absent from every other
// named set.
func (s *Store) SDiff(dbn int, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	acc, err := s.setOf(dbn, keys[0])
	if err != nil {
		return nil, err
	}
	for _, k := range keys[1:] {
		next, err := s.setOf(dbn, k)
		if err != nil {
			return nil, err
		}
		for m := range next {
			delete(acc, m)
		}
	}
	return setKeys(acc), nil
}

// SInterStore/SUnionStore/SDiffStore variants write the combined result
// to dest and return its cardinality.

// SInterStore computes SInter and stores it at dest.
func (s *Store) SInterStore(dbn int, dest string, keys ...string) (int, error) {
	return s.storeSetResult(dbn, dest, s.SInter(dbn, keys...))
}

// SUnionStore computes SUnion and stores it at dest.
func (s *Store) SUnionStore(dbn int, dest string, keys ...string) (int, error) {
	return s.storeSetResult(dbn, dest, s.SUnion(dbn, keys...))
}

// SDiffStore computes SDiff and stores it at dest.
func (s *Store) SDiffStore(dbn int, dest string, keys ...string) (int, error) {
	return s.storeSetResult(dbn, dest, s.SDiff(dbn, keys...))
}

func (s *Store) storeSetResult(dbn int, dest string, members [][]byte, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		s.Delete(dbn, dest)
		return 0, nil
	}
	set := value.NewSet()
	set.Add(members...)
	if err := s.SetValue(dbn, dest, &value.StoredValue{Kind: value.KindSet, Set: set}); err != nil {
		return 0, err
	}
	return set.Len(), nil
}

// SPop removes and returns up to count arbitrary members from key's set,
// deleting the key once emptied.
func (s *Store) SPop(dbn int, key string, count int) ([][]byte, error) {
	var out [][]byte
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindSet {
			return nil, ErrWrongType
		}
		members := sv.Set.Members()
		if count > len(members) {
			count = len(members)
		}
		rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		out = members[:count]
		sv.Set.Remove(out...)
		return sv, nil
	})
	return out, err
}

// SRandMember returns up to count arbitrary members without removing
// them. A negative count allows repeats and always returns |count|
// members (or none if the set is empty).
func (s *Store) SRandMember(dbn int, key string, count int) ([][]byte, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindSet {
		return nil, ErrWrongType
	}
	members := sv.Set.Members()
	if len(members) == 0 {
		return nil, nil
	}
	if count < 0 {
		n := -count
		out := make([][]byte, n)
		for i := range out {
			out[i] = members[rand.Intn(len(members))]
		}
		return out, nil
	}
	if count > len(members) {
		count = len(members)
	}
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	return members[:count], nil
}

func setKeys(m map[string]struct{}) [][]byte {
	out := make([][]byte, 0, len(m))
	for k := range m {
		out = append(out, []byte(k))
	}
	return out
}
