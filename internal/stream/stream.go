package stream

import (
	"sort"
	"time"
)

// Entry is one stream record: an id plus its field/value pairs.
type Entry struct {
	ID     ID
	Fields [][2][]byte // preserves field insertion order, unlike a map
}

// FieldsMap returns the entry's fields as a map for callers (the Lua
// bridge, XRANGE response building) that don't care about order.
func (e Entry) FieldsMap() map[string][]byte {
	m := make(map[string][]byte, len(e.Fields))
	for _, kv := range e.Fields {
		m[string(kv[0])] = kv[1]
	}
	return m
}

// Stream is an ordered, append-mostly log of entries keyed by strictly
// increasing ID, plus the consumer groups reading it.
//
// Not safe for concurrent use on its own; the shard engine serializes
// access the same way it does for every other value kind.
type Stream struct {
	entries []Entry // kept sorted by ID; append is the common case
	lastID  ID
	groups  map[string]*Group
	mem     int64
}

// New returns an empty stream.
func New() *Stream {
	return &Stream{groups: make(map[string]*Group)}
}

// Len reports the number of entries currently retained.
func (s *Stream) Len() int { return len(s.entries) }

// LastID returns the most recently assigned id (zero value if the
// stream has never had an entry added).
func (s *Stream) LastID() ID { return s.lastID }

// Memory estimates the byte footprint of all retained entries.
func (s *Stream) Memory() int64 { return s.mem }

func entrySize(e Entry) int64 {
	n := int64(16) // id
	for _, kv := range e.Fields {
		n += int64(len(kv[0]) + len(kv[1]) + 16)
	}
	return n
}

// AddAuto assigns the next strictly-increasing id and appends fields,
// returning the assigned id.
func (s *Stream) AddAuto(fields [][2][]byte, nowMillis uint64) ID {
	var id ID
	if nowMillis > s.lastID.Millis {
		id = ID{Millis: nowMillis, Seq: 0}
	} else {
		id = ID{Millis: s.lastID.Millis, Seq: s.lastID.Seq + 1}
	}
	s.append(Entry{ID: id, Fields: fields})
	return id
}

// ErrIDOutOfOrder is returned by AddWithID when id is not strictly
// greater than the stream's last id, or already present.
type ErrIDOutOfOrder struct{ ID ID }

func (e ErrIDOutOfOrder) Error() string {
	return "ERR The ID specified in XADD is equal or smaller than the target stream top item"
}

// AddWithID appends an explicit id, failing if it is not strictly
// greater than the last id, or equals the zero id.
func (s *Stream) AddWithID(id ID, fields [][2][]byte) error {
	if id == (ID{}) {
		return ErrIDOutOfOrder{ID: id}
	}
	if !s.lastID.Less(id) {
		return ErrIDOutOfOrder{ID: id}
	}
	s.append(Entry{ID: id, Fields: fields})
	return nil
}

func (s *Stream) append(e Entry) {
	s.entries = append(s.entries, e)
	s.lastID = e.ID
	s.mem += entrySize(e)
}

func (s *Stream) searchFrom(id ID) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].ID.Less(id)
	})
}

// Range returns entries with id in [start, end] inclusive, oldest to
// newest unless reverse is set, limited to count entries if count >= 0.
func (s *Stream) Range(start, end ID, count int, reverse bool) []Entry {
	lo := s.searchFrom(start)
	hi := sort.Search(len(s.entries), func(i int) bool {
		return end.Less(s.entries[i].ID)
	})
	if lo >= hi {
		return nil
	}
	window := s.entries[lo:hi]
	if !reverse {
		if count >= 0 && count < len(window) {
			window = window[:count]
		}
		out := make([]Entry, len(window))
		copy(out, window)
		return out
	}
	n := len(window)
	if count >= 0 && count < n {
		n = count
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = window[len(window)-1-i]
	}
	return out
}

// RangeAfter returns entries strictly greater than id, used by XREAD.
func (s *Stream) RangeAfter(id ID, count int) []Entry {
	lo := s.searchFrom(id.Next())
	window := s.entries[lo:]
	if count >= 0 && count < len(window) {
		window = window[:count]
	}
	out := make([]Entry, len(window))
	copy(out, window)
	return out
}

// First returns the oldest retained entry, if any.
func (s *Stream) First() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Last returns the newest retained entry, if any.
func (s *Stream) Last() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// TrimByCount removes the oldest entries until at most n remain,
// returning the number removed.
func (s *Stream) TrimByCount(n int) int {
	if n < 0 || len(s.entries) <= n {
		return 0
	}
	removed := len(s.entries) - n
	s.removePrefix(removed)
	return removed
}

// TrimByMinID removes entries strictly less than id, returning the
// number removed.
func (s *Stream) TrimByMinID(id ID) int {
	cut := s.searchFrom(id)
	s.removePrefix(cut)
	return cut
}

func (s *Stream) removePrefix(n int) {
	for i := 0; i < n; i++ {
		s.mem -= entrySize(s.entries[i])
	}
	s.entries = append([]Entry(nil), s.entries[n:]...)
}

// Delete removes the given ids (wherever found), returning the count
// actually removed.
func (s *Stream) Delete(ids []ID) int {
	if len(ids) == 0 {
		return 0
	}
	want := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := s.entries[:0:0]
	removed := 0
	for _, e := range s.entries {
		if _, ok := want[e.ID]; ok {
			removed++
			s.mem -= entrySize(e)
			continue
		}
		out = append(out, e)
	}
	s.entries = out
	return removed
}

// Get returns entries by id, preserving nil for ids not present.
func (s *Stream) Get(ids []ID) []*Entry {
	out := make([]*Entry, len(ids))
	for i, id := range ids {
		idx := s.searchFrom(id)
		if idx < len(s.entries) && s.entries[idx].ID == id {
			e := s.entries[idx]
			out[i] = &e
		}
	}
	return out
}

// Group looks up a consumer group by name.
func (s *Stream) Group(name string) (*Group, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// Groups returns all groups, keyed by name.
func (s *Stream) Groups() map[string]*Group { return s.groups }

// ErrBusyGroup is returned by CreateGroup when the name already exists.
type ErrBusyGroup struct{ Name string }

func (e ErrBusyGroup) Error() string {
	return "BUSYGROUP Consumer Group name already exists"
}

// CreateGroup creates a new consumer group starting delivery after
// startID (use MaxID for "$").
func (s *Stream) CreateGroup(name string, startID ID) error {
	if _, ok := s.groups[name]; ok {
		return ErrBusyGroup{Name: name}
	}
	s.groups[name] = newGroup(name, startID)
	return nil
}

// DestroyGroup removes a group, reporting whether it existed.
func (s *Stream) DestroyGroup(name string) bool {
	if _, ok := s.groups[name]; !ok {
		return false
	}
	delete(s.groups, name)
	return true
}

// EntriesAfterForGroup is a helper used by XREADGROUP's ">" form: it
// returns up to count entries strictly after 'after', to be delivered
// and added to the group's PEL by the caller.
func (s *Stream) EntriesAfterForGroup(after ID, count int) []Entry {
	return s.RangeAfter(after, count)
}

// EntryByID fetches a single entry by id from the stream. Claim uses it
// with FORCE to check that an id absent from the PEL names an entry
// that still exists (entries may have been XDEL'd).
func (s *Stream) EntryByID(id ID) (Entry, bool) {
	idx := s.searchFrom(id)
	if idx < len(s.entries) && s.entries[idx].ID == id {
		return s.entries[idx], true
	}
	return Entry{}, false
}

// Now returns the current time; a var so tests can override it without
// a full clock abstraction.
var Now = time.Now
