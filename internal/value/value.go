// Package value defines the tagged value model shared by every database
// shard: the six Redis value kinds, the per-entry metadata that rides
// alongside them, and the advisory encoding hints kept for each value
// (readable through shard.Store.EncodingHint; no OBJECT command exists).
//
// None of the types here lock anything or know about shards; they are the
// plain data the shard package stores behind its per-shard mutex.
package value

import (
	"time"

	"github.com/dreamware/redcore/internal/genutil"
	"github.com/dreamware/redcore/internal/skiplist"
	"github.com/dreamware/redcore/internal/stream"
)

// Kind tags the six value variants a key can hold.
type Kind int

const (
	// KindString holds an opaque byte string.
	KindString Kind = iota
	// KindList holds an ordered sequence of byte strings.
	KindList
	// KindSet holds a set of byte strings.
	KindSet
	// KindHash holds a byte-string to byte-string mapping.
	KindHash
	// KindSortedSet holds a skiplist ordered by (score, member).
	KindSortedSet
	// KindStream holds a time-ordered log of entries plus consumer groups.
	KindStream
)

// String renders the wire name TYPE reports for a kind ("none" has no
// Kind value — callers check for a missing key before calling this).
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindSortedSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// Encoding is the advisory hint returned by shard.Store.EncodingHint. It
// never affects correctness, only what a caller is told about internal
// representation.
type Encoding string

const (
	EncodingRaw    Encoding = "raw"
	EncodingInt    Encoding = "int"
	EncodingEmbstr Encoding = "embstr"
)

// List is the backing type for KindList: an ordered, mutable sequence of
// byte strings. Implemented as a plain slice — LINSERT/LREM/LTRIM are rare
// enough relative to LPUSH/RPUSH/LINDEX that a slice with occasional
// O(n) shifts beats a doubly-linked list's per-node allocation overhead.
type List struct {
	elems [][]byte
}

// NewList returns an empty list.
func NewList() *List { return &List{} }

// Len reports the number of elements.
func (l *List) Len() int { return len(l.elems) }

// PushLeft prepends elements, preserving argument order as Redis does:
// LPUSH k a b c leaves the list as c b a ...
func (l *List) PushLeft(elems ...[]byte) {
	for _, e := range elems {
		l.elems = append([][]byte{e}, l.elems...)
	}
}

// PushRight appends elements in argument order.
func (l *List) PushRight(elems ...[]byte) {
	l.elems = append(l.elems, elems...)
}

// PopLeft removes and returns the first element, if any.
func (l *List) PopLeft() ([]byte, bool) {
	if len(l.elems) == 0 {
		return nil, false
	}
	v := l.elems[0]
	l.elems = l.elems[1:]
	return v, true
}

// PopRight removes and returns the last element, if any.
func (l *List) PopRight() ([]byte, bool) {
	if len(l.elems) == 0 {
		return nil, false
	}
	v := l.elems[len(l.elems)-1]
	l.elems = l.elems[:len(l.elems)-1]
	return v, true
}

// Index returns the element at a Redis-style index (negative counts from
// the end) and whether it was in range.
func (l *List) Index(idx int) ([]byte, bool) {
	i := l.resolve(idx)
	if i < 0 || i >= len(l.elems) {
		return nil, false
	}
	return l.elems[i], true
}

// Set overwrites the element at idx, returning false if out of range.
func (l *List) Set(idx int, v []byte) bool {
	i := l.resolve(idx)
	if i < 0 || i >= len(l.elems) {
		return false
	}
	l.elems[i] = v
	return true
}

func (l *List) resolve(idx int) int {
	if idx < 0 {
		return len(l.elems) + idx
	}
	return idx
}

// Range returns a copy of elements in [start, stop] inclusive, Redis-style
// clamped and negative-index aware.
func (l *List) Range(start, stop int) [][]byte {
	n := len(l.elems)
	s := clampIndex(start, n)
	e := clampIndex(stop, n)
	if s > e || n == 0 || start >= n || stop < -n {
		return nil
	}
	out := make([][]byte, e-s+1)
	copy(out, l.elems[s:e+1])
	return out
}

// Trim keeps only elements in [start, stop] inclusive.
func (l *List) Trim(start, stop int) {
	n := len(l.elems)
	s := clampIndex(start, n)
	e := clampIndex(stop, n)
	if s > e || n == 0 || start >= n || stop < -n {
		l.elems = nil
		return
	}
	kept := make([][]byte, e-s+1)
	copy(kept, l.elems[s:e+1])
	l.elems = kept
}

// RemoveMatching removes up to count occurrences of v (count==0 means
// all, count<0 scans from the tail) and returns how many were removed.
func (l *List) RemoveMatching(count int, v []byte) int {
	match := func(b []byte) bool { return string(b) == string(v) }
	removed := 0
	if count >= 0 {
		limit := count
		out := l.elems[:0:0]
		for _, e := range l.elems {
			if match(e) && (limit == 0 || removed < limit) {
				removed++
				continue
			}
			out = append(out, e)
		}
		l.elems = out
		return removed
	}
	limit := -count
	out := make([][]byte, 0, len(l.elems))
	for i := len(l.elems) - 1; i >= 0; i-- {
		e := l.elems[i]
		if match(e) && removed < limit {
			removed++
			continue
		}
		out = append(out, e)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	l.elems = out
	return removed
}

// All returns the underlying slice; callers must not retain/mutate it.
func (l *List) All() [][]byte { return l.elems }

func clampIndex(idx, n int) int {
	if idx < 0 {
		idx += n
	}
	return genutil.Clamp(idx, 0, n-1)
}

// Set is the backing type for KindSet: an unordered set of byte strings.
type Set struct {
	members map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set { return &Set{members: make(map[string]struct{})} }

// Add inserts members, returning the count actually added (new ones).
func (s *Set) Add(members ...[]byte) int {
	added := 0
	for _, m := range members {
		key := string(m)
		if _, ok := s.members[key]; !ok {
			s.members[key] = struct{}{}
			added++
		}
	}
	return added
}

// Remove deletes members, returning the count actually removed.
func (s *Set) Remove(members ...[]byte) int {
	removed := 0
	for _, m := range members {
		key := string(m)
		if _, ok := s.members[key]; ok {
			delete(s.members, key)
			removed++
		}
	}
	return removed
}

// Contains reports whether m is a member.
func (s *Set) Contains(m []byte) bool {
	_, ok := s.members[string(m)]
	return ok
}

// Len reports the number of members.
func (s *Set) Len() int { return len(s.members) }

// Members returns all members in unspecified order.
func (s *Set) Members() [][]byte {
	out := make([][]byte, 0, len(s.members))
	for m := range s.members {
		out = append(out, []byte(m))
	}
	return out
}

// Hash is the backing type for KindHash: a byte-string to byte-string map.
type Hash struct {
	fields map[string][]byte
}

// NewHash returns an empty hash.
func NewHash() *Hash { return &Hash{fields: make(map[string][]byte)} }

// Set stores field=v, reporting whether the field was newly created.
func (h *Hash) Set(field, v []byte) bool {
	_, existed := h.fields[string(field)]
	h.fields[string(field)] = v
	return !existed
}

// Get returns the value for field, if present.
func (h *Hash) Get(field []byte) ([]byte, bool) {
	v, ok := h.fields[string(field)]
	return v, ok
}

// Delete removes fields, returning the count actually removed.
func (h *Hash) Delete(fields ...[]byte) int {
	removed := 0
	for _, f := range fields {
		key := string(f)
		if _, ok := h.fields[key]; ok {
			delete(h.fields, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of fields.
func (h *Hash) Len() int { return len(h.fields) }

// All returns every field/value pair in unspecified order.
func (h *Hash) All() map[string][]byte { return h.fields }

// StoredValue wraps one of the six kinds with its TTL and encoding hint.
// Exactly one of the payload fields is meaningful, selected by Kind.
type StoredValue struct {
	// ExpiresAt is the absolute expiry time; zero means no TTL.
	ExpiresAt time.Time

	Str  []byte
	List *List
	Set  *Set
	Hash *Hash
	ZSet *skiplist.Skiplist
	Stm  *stream.Stream

	Kind     Kind
	Encoding Encoding
}

// HasTTL reports whether the value carries an expiration: ExpiresAt is
// present iff the key is in the shard's expiring index — this method
// is the single place that decides "present".
func (sv *StoredValue) HasTTL() bool {
	return !sv.ExpiresAt.IsZero()
}

// ExpiredAt reports whether the value is expired as of now.
func (sv *StoredValue) ExpiredAt(now time.Time) bool {
	return sv.HasTTL() && !now.Before(sv.ExpiresAt)
}

// IsEmptyContainer reports whether a container-kind value has become
// empty and should be deleted: every mutating op on a container value
// removes the key once the container becomes empty.
func (sv *StoredValue) IsEmptyContainer() bool {
	switch sv.Kind {
	case KindList:
		return sv.List == nil || sv.List.Len() == 0
	case KindSet:
		return sv.Set == nil || sv.Set.Len() == 0
	case KindHash:
		return sv.Hash == nil || sv.Hash.Len() == 0
	case KindSortedSet:
		return sv.ZSet == nil || sv.ZSet.Len() == 0
	case KindStream:
		return false // a stream with zero entries still exists (groups may remain)
	default:
		return false
	}
}

// NewString builds a StoredValue of KindString with an encoding hint
// chosen the way Redis does: integers get "int", short strings "embstr",
// everything else "raw".
func NewString(b []byte) *StoredValue {
	return &StoredValue{Kind: KindString, Str: b, Encoding: encodingFor(b)}
}

func encodingFor(b []byte) Encoding {
	if looksInt(b) {
		return EncodingInt
	}
	if len(b) <= 44 {
		return EncodingEmbstr
	}
	return EncodingRaw
}

func looksInt(b []byte) bool {
	if len(b) == 0 || len(b) > 20 {
		return false
	}
	i := 0
	if b[0] == '-' {
		i = 1
		if len(b) == 1 {
			return false
		}
	}
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return false
		}
	}
	if b[0] == '0' && len(b) > 1 && !(b[0] == '-') {
		return len(b) == 1
	}
	return true
}
