package shard

import (
	"time"

	"github.com/dreamware/redcore/internal/stream"
	"github.com/dreamware/redcore/internal/value"
)

// withStream runs fn on the stream at key and stores the result, creating
// a new stream if createIfAbsent is set and the key is missing; a missing
// key otherwise gives ErrNoSuchKey.
func (s *Store) withStream(dbn int, key string, createIfAbsent bool, fn func(st *stream.Stream) error) error {
	return s.Touch(dbn, key, func(sv *value.StoredValue, exists bool) (*value.StoredValue, error) {
		var st *stream.Stream
		switch {
		case exists && sv.Kind == value.KindStream:
			st = sv.Stm
		case exists:
			return nil, ErrWrongType
		case createIfAbsent:
			st = stream.New()
		default:
			return nil, ErrNoSuchKey
		}
		if err := fn(st); err != nil {
			return nil, err
		}
		return &value.StoredValue{Kind: value.KindStream, Stm: st, ExpiresAt: expiresOf(sv)}, nil
	})
}

// XAdd appends fields under id (or, when auto is set, under an id
// assigned as for "*", ignoring id) and returns the assigned id.
func (s *Store) XAdd(dbn int, key string, id stream.ID, auto bool, fields [][2][]byte) (stream.ID, error) {
	var assigned stream.ID
	err := s.withStream(dbn, key, true, func(st *stream.Stream) error {
		if auto {
			assigned = st.AddAuto(fields, uint64(time.Now().UnixMilli()))
			return nil
		}
		if err := st.AddWithID(id, fields); err != nil {
			return err
		}
		assigned = id
		return nil
	})
	return assigned, err
}

// XLen reports the number of entries retained in key's stream.
func (s *Store) XLen(dbn int, key string) (int, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sv.Kind != value.KindStream {
		return 0, ErrWrongType
	}
	return sv.Stm.Len(), nil
}

// XRange returns entries with id in [start, end], optionally reversed.
func (s *Store) XRange(dbn int, key string, start, end stream.ID, count int, reverse bool) ([]stream.Entry, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindStream {
		return nil, ErrWrongType
	}
	return sv.Stm.Range(start, end, count, reverse), nil
}

// XRead returns entries strictly after afterID, for the non-group read
// path.
func (s *Store) XRead(dbn int, key string, afterID stream.ID, count int) ([]stream.Entry, error) {
	sv, err := s.Get(dbn, key)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sv.Kind != value.KindStream {
		return nil, ErrWrongType
	}
	return sv.Stm.RangeAfter(afterID, count), nil
}

// XDel removes the given ids from key's stream, returning the count
// removed.
func (s *Store) XDel(dbn int, key string, ids []stream.ID) (int, error) {
	var removed int
	err := s.withStream(dbn, key, false, func(st *stream.Stream) error {
		removed = st.Delete(ids)
		return nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	return removed, err
}

// XTrimByCount trims key's stream to at most n entries, returning the
// count removed.
func (s *Store) XTrimByCount(dbn int, key string, n int) (int, error) {
	var removed int
	err := s.withStream(dbn, key, false, func(st *stream.Stream) error {
		removed = st.TrimByCount(n)
		return nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	return removed, err
}

// XTrimByMinID trims entries strictly less than id, returning the count
// removed.
func (s *Store) XTrimByMinID(dbn int, key string, id stream.ID) (int, error) {
	var removed int
	err := s.withStream(dbn, key, false, func(st *stream.Stream) error {
		removed = st.TrimByMinID(id)
		return nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	return removed, err
}

// XGroupCreate creates a consumer group on key's stream.
func (s *Store) XGroupCreate(dbn int, key string, group string, startID stream.ID, mkStream bool) error {
	return s.withStream(dbn, key, mkStream, func(st *stream.Stream) error {
		return st.CreateGroup(group, startID)
	})
}

// XGroupDestroy removes a consumer group, reporting whether it existed.
func (s *Store) XGroupDestroy(dbn int, key string, group string) (bool, error) {
	var existed bool
	err := s.withStream(dbn, key, false, func(st *stream.Stream) error {
		existed = st.DestroyGroup(group)
		return nil
	})
	if err == ErrNoSuchKey {
		return false, nil
	}
	return existed, err
}

// XGroupSetID overrides a group's delivery cursor.
func (s *Store) XGroupSetID(dbn int, key string, group string, id stream.ID) error {
	return s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		g.SetID(id)
		return nil
	})
}

// XGroupCreateConsumer ensures a named consumer exists, reporting
// whether it was newly created.
func (s *Store) XGroupCreateConsumer(dbn int, key, group, consumer string) (bool, error) {
	var created bool
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		_, created = g.EnsureConsumer(consumer)
		return nil
	})
	return created, err
}

// XGroupDelConsumer removes a consumer, returning its pending-entry
// count.
func (s *Store) XGroupDelConsumer(dbn int, key, group, consumer string) (int, error) {
	var removed int
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		removed = g.DeleteConsumer(consumer)
		return nil
	})
	return removed, err
}

// ErrNoSuchGroup is returned when a group operation targets a group
// that does not exist.
type ErrNoSuchGroup struct{ Group string }

func (e ErrNoSuchGroup) Error() string {
	return "NOGROUP No such consumer group"
}

func (s *Store) withGroup(dbn int, key, group string, fn func(st *stream.Stream, g *stream.Group) error) error {
	return s.withStream(dbn, key, false, func(st *stream.Stream) error {
		g, ok := st.Group(group)
		if !ok {
			return ErrNoSuchGroup{Group: group}
		}
		return fn(st, g)
	})
}

// XReadGroupNew delivers up to count new (">") entries to consumer in
// group, adding them to the PEL unless noAck.
func (s *Store) XReadGroupNew(dbn int, key, group, consumer string, count int, noAck bool) ([]stream.Entry, error) {
	var entries []stream.Entry
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		entries = st.EntriesAfterForGroup(g.LastDeliveredID, count)
		g.Deliver(consumer, entries, noAck)
		return nil
	})
	return entries, err
}

// XReadGroupHistory returns consumer's own pending entries with id >=
// from, for XREADGROUP's explicit-id re-read form.
func (s *Store) XReadGroupHistory(dbn int, key, group, consumer string, from stream.ID) ([]*stream.PendingEntry, error) {
	var out []*stream.PendingEntry
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		out = g.PendingForConsumerFrom(consumer, from)
		return nil
	})
	return out, err
}

// XAck acknowledges ids in group's PEL, returning the count actually
// acknowledged.
func (s *Store) XAck(dbn int, key, group string, ids []stream.ID) (int, error) {
	var acked int
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		acked = g.Ack(ids)
		return nil
	})
	return acked, err
}

// XClaim transfers ownership of pending ids idle >= minIdle to consumer.
func (s *Store) XClaim(dbn int, key, group, consumer string, minIdle time.Duration, ids []stream.ID, force bool) ([]*stream.PendingEntry, error) {
	var claimed []*stream.PendingEntry
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		claimed = g.Claim(st, consumer, minIdle, ids, force)
		return nil
	})
	return claimed, err
}

// XAutoClaim scans the PEL from cursor, claiming entries idle >= minIdle
// up to count, returning the next scan cursor.
func (s *Store) XAutoClaim(dbn int, key, group, consumer string, minIdle time.Duration, cursor stream.ID, count int) ([]*stream.PendingEntry, stream.ID, error) {
	var claimed []*stream.PendingEntry
	var next stream.ID
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		claimed, next = g.AutoClaim(st, consumer, minIdle, cursor, count)
		return nil
	})
	return claimed, next, err
}

// XPendingSummary implements the short form of XPENDING.
func (s *Store) XPendingSummary(dbn int, key, group string) (total int, min, max stream.ID, perConsumer map[string]int, err error) {
	err = s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		total, min, max, perConsumer = g.PendingSummary()
		return nil
	})
	return
}

// XPendingRange implements the range form of XPENDING.
func (s *Store) XPendingRange(dbn int, key, group string, start, end stream.ID, count int, consumer string) ([]*stream.PendingEntry, error) {
	var out []*stream.PendingEntry
	err := s.withGroup(dbn, key, group, func(st *stream.Stream, g *stream.Group) error {
		out = g.PendingRange(start, end, count, consumer)
		return nil
	})
	return out, err
}
