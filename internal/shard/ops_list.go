package shard

import (
	"time"

	"github.com/dreamware/redcore/internal/value"
)

// PushDirection selects which end of a list LPUSH/RPUSH/LPOP/RPOP act on.
type PushDirection int

const (
	Left PushDirection = iota
	Right
)

// Push appends or prepends elems to key's list, creating it if absent,
// and returns the resulting length. onlyIfExists implements the X
// variants (LPUSHX/RPUSHX), which are no-ops on a missing key.
func (s *Store) Push(dbn int, key string, dir PushDirection, onlyIfExists bool, elems ...[]byte) (int, error) {
	var newLen int
	var missing bool
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists && onlyIfExists {
			missing = true
			return nil, nil
		}
		var l *value.List
		if exists {
			if sv.Kind != value.KindList {
				return nil, ErrWrongType
			}
			l = sv.List
		} else {
			l = value.NewList()
		}
		if dir == Left {
			l.PushLeft(elems...)
		} else {
			l.PushRight(elems...)
		}
		newLen = l.Len()
		return &value.StoredValue{Kind: value.KindList, List: l, ExpiresAt: expiresOf(sv)}, nil
	})
	if missing {
		return 0, nil
	}
	return newLen, err
}

// Pop removes and returns up to count elements from one end of key's
// list.
func (s *Store) Pop(dbn int, key string, dir PushDirection, count int) ([][]byte, error) {
	var out [][]byte
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindList {
			return nil, ErrWrongType
		}
		for i := 0; i < count; i++ {
			var v []byte
			var ok bool
			if dir == Left {
				v, ok = sv.List.PopLeft()
			} else {
				v, ok = sv.List.PopRight()
			}
			if !ok {
				break
			}
			out = append(out, v)
		}
		return sv, nil
	})
	return out, err
}

// LLen reports the length of key's list (0 if absent).
func (s *Store) LLen(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindList {
		return 0, ErrWrongType
	}
	return sv.List.Len(), nil
}

// LIndex returns the element at idx, or (nil, false) if out of range or
// the key is absent.
func (s *Store) LIndex(dbn int, key string, idx int) ([]byte, bool, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if sv.Kind != value.KindList {
		return nil, false, ErrWrongType
	}
	v, ok := sv.List.Index(idx)
	return v, ok, nil
}

// LSet overwrites the element at idx, returning ErrIndexOutOfRange if
// out of bounds.
func (s *Store) LSet(dbn int, key string, idx int, v []byte) error {
	return s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, ErrNoSuchKey
		}
		if sv.Kind != value.KindList {
			return nil, ErrWrongType
		}
		if !sv.List.Set(idx, v) {
			return nil, ErrIndexOutOfRange
		}
		return sv, nil
	})
}

// LRange returns a copy of the elements in [start, stop] inclusive.
func (s *Store) LRange(dbn int, key string, start, stop int) ([][]byte, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindList {
		return nil, ErrWrongType
	}
	return sv.List.Range(start, stop), nil
}

// LTrim keeps only the elements in [start, stop] inclusive, deleting the
// key if that range is empty.
func (s *Store) LTrim(dbn int, key string, start, stop int) error {
	return s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindList {
			return nil, ErrWrongType
		}
		sv.List.Trim(start, stop)
		return sv, nil
	})
}

// LRem removes up to count occurrences of v (semantics per List.RemoveMatching)
// and returns how many were removed.
func (s *Store) LRem(dbn int, key string, count int, v []byte) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindList {
			return nil, ErrWrongType
		}
		removed = sv.List.RemoveMatching(count, v)
		return sv, nil
	})
	return removed, err
}

// LInsert inserts v immediately before or after the first occurrence of
// pivot, returning the new length, 0 if pivot was not found, or -1 if
// the key does not exist.
func (s *Store) LInsert(dbn int, key string, before bool, pivot, v []byte) (int, error) {
	result := -1
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindList {
			return nil, ErrWrongType
		}
		elems := sv.List.All()
		idx := -1
		for i, e := range elems {
			if string(e) == string(pivot) {
				idx = i
				break
			}
		}
		if idx < 0 {
			result = 0
			return sv, nil
		}
		insertAt := idx
		if !before {
			insertAt = idx + 1
		}
		next := value.NewList()
		next.PushRight(elems[:insertAt]...)
		next.PushRight(v)
		next.PushRight(elems[insertAt:]...)
		result = next.Len()
		return &value.StoredValue{Kind: value.KindList, List: next, ExpiresAt: sv.ExpiresAt}, nil
	})
	return result, err
}

func expiresOf(sv *value.StoredValue) time.Time {
	if sv == nil {
		return time.Time{}
	}
	return sv.ExpiresAt
}
