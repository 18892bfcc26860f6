package shard

import "github.com/dreamware/redcore/internal/value"

// HSet stores field/value pairs in key's hash, creating it if absent,
// and returns the number of fields newly created.
func (s *Store) HSet(dbn int, key string, pairs [][2][]byte) (int, error) {
	var created int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var h *value.Hash
		if exists {
			if sv.Kind != value.KindHash {
				return nil, ErrWrongType
			}
			h = sv.Hash
		} else {
			h = value.NewHash()
		}
		for _, p := range pairs {
			if h.Set(p[0], p[1]) {
				created++
			}
		}
		return &value.StoredValue{Kind: value.KindHash, Hash: h, ExpiresAt: expiresOf(sv)}, nil
	})
	return created, err
}

// HSetNX stores field=v only if field does not already exist, reporting
// whether it was set.
func (s *Store) HSetNX(dbn int, key string, field, v []byte) (bool, error) {
	var set bool
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var h *value.Hash
		if exists {
			if sv.Kind != value.KindHash {
				return nil, ErrWrongType
			}
			h = sv.Hash
			if _, ok := h.Get(field); ok {
				return sv, nil
			}
		} else {
			h = value.NewHash()
		}
		h.Set(field, v)
		set = true
		return &value.StoredValue{Kind: value.KindHash, Hash: h, ExpiresAt: expiresOf(sv)}, nil
	})
	return set, err
}

// HGet returns the value of field in key's hash.
func (s *Store) HGet(dbn int, key string, field []byte) ([]byte, bool, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if sv.Kind != value.KindHash {
		return nil, false, ErrWrongType
	}
	v, ok := sv.Hash.Get(field)
	return v, ok, nil
}

// HDel removes fields from key's hash, returning the count removed.
func (s *Store) HDel(dbn int, key string, fields ...[]byte) (int, error) {
	var removed int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if !exists {
			return nil, nil
		}
		if sv.Kind != value.KindHash {
			return nil, ErrWrongType
		}
		removed = sv.Hash.Delete(fields...)
		return sv, nil
	})
	return removed, err
}

// HExists reports whether field is present in key's hash.
func (s *Store) HExists(dbn int, key string, field []byte) (bool, error) {
	_, ok, err := s.HGet(dbn, key, field)
	return ok, err
}

// HLen reports the number of fields in key's hash (0 if absent).
func (s *Store) HLen(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindHash {
		return 0, ErrWrongType
	}
	return sv.Hash.Len(), nil
}

// HGetAll returns every field/value pair in key's hash.
func (s *Store) HGetAll(dbn int, key string) (map[string][]byte, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindHash {
		return nil, ErrWrongType
	}
	return sv.Hash.All(), nil
}

// HIncrBy adds delta to the integer stored in field, creating the
// field/hash as needed.
func (s *Store) HIncrBy(dbn int, key string, field []byte, delta int64) (int64, error) {
	var result int64
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var h *value.Hash
		if exists {
			if sv.Kind != value.KindHash {
				return nil, ErrWrongType
			}
			h = sv.Hash
		} else {
			h = value.NewHash()
		}
		var cur int64
		if v, ok := h.Get(field); ok {
			n, perr := ParseInt(v)
			if perr != nil {
				return nil, perr
			}
			cur = n
		}
		result = cur + delta
		h.Set(field, []byte(FormatFloat(float64(result))))
		return &value.StoredValue{Kind: value.KindHash, Hash: h, ExpiresAt: expiresOf(sv)}, nil
	})
	return result, err
}

// HIncrByFloat adds delta to the float stored in field, creating the
// field/hash as needed.
func (s *Store) HIncrByFloat(dbn int, key string, field []byte, delta float64) (float64, error) {
	var result float64
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var h *value.Hash
		if exists {
			if sv.Kind != value.KindHash {
				return nil, ErrWrongType
			}
			h = sv.Hash
		} else {
			h = value.NewHash()
		}
		var cur float64
		if v, ok := h.Get(field); ok {
			f, perr := ParseFloat(v)
			if perr != nil {
				return nil, perr
			}
			cur = f
		}
		result = cur + delta
		h.Set(field, []byte(FormatFloat(result)))
		return &value.StoredValue{Kind: value.KindHash, Hash: h, ExpiresAt: expiresOf(sv)}, nil
	})
	return result, err
}
