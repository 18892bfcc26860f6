package shard

import (
	"time"

	"github.com/dreamware/redcore/internal/value"
)

// SetOptions mirrors the SET command's option table.
type SetOptions struct {
	NX, XX, KeepTTL, Get bool
	HasTTL               bool
	TTL                  time.Duration
}

// SetString implements SET with its full option set. It returns the
// previous value (if Get was requested and it existed) and whether the
// set actually happened (false for a failed NX/XX guard).
func (s *Store) SetString(dbn int, key string, val []byte, opts SetOptions) (prev []byte, hadPrev bool, applied bool, err error) {
	err = s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if exists && opts.Get {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			prev, hadPrev = sv.Str, true
		}
		if opts.NX && exists {
			applied = false
			return nil, nil
		}
		if opts.XX && !exists {
			applied = false
			return nil, nil
		}
		applied = true
		next := value.NewString(val)
		if opts.HasTTL {
			next.ExpiresAt = time.Now().Add(opts.TTL)
		} else if opts.KeepTTL && exists {
			next.ExpiresAt = sv.ExpiresAt
		}
		return next, nil
	})
	return prev, hadPrev, applied, err
}

// GetString returns the string value at key.
func (s *Store) GetString(dbn int, key string) ([]byte, error) {
	sv, err := s.GetTyped(dbn, key, value.KindString)
	if err != nil {
		return nil, err
	}
	return sv.Str, nil
}

// GetDel returns and deletes the string value at key in one step
// (supplemented GETDEL, SPEC_FULL.md).
func (s *Store) GetDel(dbn int, key string) ([]byte, error) {
	sv, err := s.GetTyped(dbn, key, value.KindString)
	if err != nil {
		return nil, err
	}
	s.Delete(dbn, key)
	return sv.Str, nil
}

// GetSet atomically replaces the string at key and returns its previous
// value (nil, no error if absent).
func (s *Store) GetSet(dbn int, key string, val []byte) ([]byte, error) {
	var prev []byte
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		if exists {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			prev = sv.Str
		}
		return value.NewString(val), nil
	})
	return prev, err
}

// Append appends suffix to key's string value (creating it if absent),
// returning the resulting length.
func (s *Store) Append(dbn int, key string, suffix []byte) (int, error) {
	var newLen int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var base []byte
		if exists {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			base = sv.Str
		}
		combined := append(append([]byte{}, base...), suffix...)
		newLen = len(combined)
		return value.NewString(combined), nil
	})
	return newLen, err
}

// StrLen returns the byte length of key's string (0 if absent).
func (s *Store) StrLen(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindString {
		return 0, ErrWrongType
	}
	return len(sv.Str), nil
}

// GetRange returns the substring in [start, end] inclusive, Redis-style
// clamped and negative-index aware.
func (s *Store) GetRange(dbn int, key string, start, end int) ([]byte, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindString {
		return nil, ErrWrongType
	}
	n := len(sv.Str)
	if n == 0 {
		return nil, nil
	}
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end || start >= n {
		return nil, nil
	}
	out := make([]byte, end-start+1)
	copy(out, sv.Str[start:end+1])
	return out, nil
}

// SetRange overwrites key's string starting at offset (zero-padding if
// needed), returning the resulting length.
func (s *Store) SetRange(dbn int, key string, offset int, val []byte) (int, error) {
	var newLen int
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var base []byte
		if exists {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			base = append([]byte{}, sv.Str...)
		}
		needed := offset + len(val)
		if len(base) < needed {
			padded := make([]byte, needed)
			copy(padded, base)
			base = padded
		}
		copy(base[offset:], val)
		newLen = len(base)
		return value.NewString(base), nil
	})
	return newLen, err
}

// IncrBy adds delta to the integer value at key (creating it as "0"
// first if absent), returning the new value.
func (s *Store) IncrBy(dbn int, key string, delta int64) (int64, error) {
	var result int64
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var cur int64
		if exists {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			n, perr := ParseInt(sv.Str)
			if perr != nil {
				return nil, perr
			}
			cur = n
		}
		result = cur + delta
		next := value.NewString([]byte(FormatFloat(float64(result))))
		if exists {
			next.ExpiresAt = sv.ExpiresAt
		}
		return next, nil
	})
	return result, err
}

// IncrByFloat adds delta to the float value at key, returning the new
// value.
func (s *Store) IncrByFloat(dbn int, key string, delta float64) (float64, error) {
	var result float64
	err := s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var cur float64
		if exists {
			if sv.Kind != value.KindString {
				return nil, ErrWrongType
			}
			f, perr := ParseFloat(sv.Str)
			if perr != nil {
				return nil, perr
			}
			cur = f
		}
		result = cur + delta
		next := value.NewString([]byte(FormatFloat(result)))
		if exists {
			next.ExpiresAt = sv.ExpiresAt
		}
		return next, nil
	})
	return result, err
}
