package stream

import (
	"sort"
	"time"
)

// PendingEntry records one delivered-but-unacknowledged entry.
type PendingEntry struct {
	ID            ID
	Consumer      string
	DeliveredAt   time.Time
	DeliveryCount uint64
}

// IdleSince reports how long the entry has been pending as of now.
func (p PendingEntry) IdleSince(now time.Time) time.Duration {
	return now.Sub(p.DeliveredAt)
}

// Consumer tracks one named reader within a group.
type Consumer struct {
	Name       string
	LastSeen   time.Time
	PendingIDs map[ID]struct{}
}

// Group is a named consumer group reading one stream.
type Group struct {
	Name             string
	LastDeliveredID  ID
	Pending          map[ID]*PendingEntry
	Consumers        map[string]*Consumer
}

func newGroup(name string, startID ID) *Group {
	return &Group{
		Name:            name,
		LastDeliveredID: startID,
		Pending:         make(map[ID]*PendingEntry),
		Consumers:       make(map[string]*Consumer),
	}
}

// SetID overrides the group's last-delivered cursor (XGROUP SETID).
func (g *Group) SetID(id ID) { g.LastDeliveredID = id }

// EnsureConsumer returns the named consumer, creating it if absent, and
// reports whether it was newly created.
func (g *Group) EnsureConsumer(name string) (*Consumer, bool) {
	if c, ok := g.Consumers[name]; ok {
		return c, false
	}
	c := &Consumer{Name: name, LastSeen: Now(), PendingIDs: make(map[ID]struct{})}
	g.Consumers[name] = c
	return c, true
}

// DeleteConsumer removes a consumer and its pending entries, dropping
// them from the group's PEL along with the consumer, and returns the
// count of pending entries removed.
func (g *Group) DeleteConsumer(name string) int {
	c, ok := g.Consumers[name]
	if !ok {
		return 0
	}
	removed := len(c.PendingIDs)
	for id := range c.PendingIDs {
		delete(g.Pending, id)
	}
	delete(g.Consumers, name)
	return removed
}

// Deliver delivers entries to consumer as the result of XREADGROUP ... >,
// advancing LastDeliveredID and, unless noAck, adding each to the PEL
// under consumer's ownership.
func (g *Group) Deliver(consumerName string, entries []Entry, noAck bool) {
	c, _ := g.EnsureConsumer(consumerName)
	c.LastSeen = Now()
	for _, e := range entries {
		if g.LastDeliveredID.Less(e.ID) {
			g.LastDeliveredID = e.ID
		}
		if noAck {
			continue
		}
		pe := &PendingEntry{ID: e.ID, Consumer: consumerName, DeliveredAt: Now(), DeliveryCount: 1}
		g.Pending[e.ID] = pe
		c.PendingIDs[e.ID] = struct{}{}
	}
}

// PendingForConsumerFrom returns the consumer's own pending entries with
// id >= from, used by XREADGROUP's explicit-id re-delivery form.
func (g *Group) PendingForConsumerFrom(consumerName string, from ID) []*PendingEntry {
	c, ok := g.Consumers[consumerName]
	if !ok {
		return nil
	}
	var out []*PendingEntry
	for id := range c.PendingIDs {
		if from.LessEq(id) {
			if pe, ok := g.Pending[id]; ok {
				out = append(out, pe)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// Ack removes the given ids from the PEL (and from whichever consumer
// owns them), regardless of which name is acking: any consumer in the
// group may acknowledge. Returns the count actually acknowledged.
func (g *Group) Ack(ids []ID) int {
	acked := 0
	for _, id := range ids {
		pe, ok := g.Pending[id]
		if !ok {
			continue
		}
		if c, ok := g.Consumers[pe.Consumer]; ok {
			delete(c.PendingIDs, id)
		}
		delete(g.Pending, id)
		acked++
	}
	return acked
}

// Claim transfers ownership of each id present in the PEL whose idle
// time is >= minIdle to newConsumer, bumping delivery count and resetting
// delivered-at. With force, ids absent from the PEL are inserted by
// looking them up in the stream (entry must exist); without force,
// absent ids are silently skipped.
func (g *Group) Claim(s *Stream, newConsumer string, minIdle time.Duration, ids []ID, force bool) []*PendingEntry {
	now := Now()
	nc, _ := g.EnsureConsumer(newConsumer)
	nc.LastSeen = now

	var claimed []*PendingEntry
	for _, id := range ids {
		pe, ok := g.Pending[id]
		if !ok {
			if !force {
				continue
			}
			if _, exists := s.EntryByID(id); !exists {
				continue
			}
			pe = &PendingEntry{ID: id, Consumer: newConsumer, DeliveryCount: 0}
			g.Pending[id] = pe
		} else {
			if pe.IdleSince(now) < minIdle {
				continue
			}
			if oc, ok := g.Consumers[pe.Consumer]; ok {
				delete(oc.PendingIDs, id)
			}
		}
		pe.Consumer = newConsumer
		pe.DeliveredAt = now
		pe.DeliveryCount++
		nc.PendingIDs[id] = struct{}{}
		claimed = append(claimed, pe)
	}
	return claimed
}

// AutoClaim scans the PEL in ascending id order starting at cursor,
// claiming up to count entries idle for at least minIdle, returning the
// claimed entries and the cursor to resume from (MinID-equivalent "0-0"
// when the scan is exhausted).
func (g *Group) AutoClaim(s *Stream, newConsumer string, minIdle time.Duration, cursor ID, count int) (claimed []*PendingEntry, next ID) {
	ids := make([]ID, 0, len(g.Pending))
	for id := range g.Pending {
		if cursor.LessEq(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	now := Now()
	nc, _ := g.EnsureConsumer(newConsumer)
	nc.LastSeen = now

	scanned := 0
	for _, id := range ids {
		if len(claimed) >= count {
			next = id
			return claimed, next
		}
		pe := g.Pending[id]
		scanned++
		if pe.IdleSince(now) < minIdle {
			continue
		}
		if oc, ok := g.Consumers[pe.Consumer]; ok {
			delete(oc.PendingIDs, id)
		}
		pe.Consumer = newConsumer
		pe.DeliveredAt = now
		pe.DeliveryCount++
		nc.PendingIDs[id] = struct{}{}
		claimed = append(claimed, pe)
	}
	return claimed, MinID
}

// PendingSummary implements the short form of XPENDING: total pending,
// min/max id present, and a per-consumer count.
func (g *Group) PendingSummary() (total int, min, max ID, perConsumer map[string]int) {
	total = len(g.Pending)
	if total == 0 {
		return 0, ID{}, ID{}, nil
	}
	perConsumer = make(map[string]int)
	first := true
	for id, pe := range g.Pending {
		if first || id.Less(min) {
			min = id
		}
		if first || max.Less(id) {
			max = id
		}
		first = false
		perConsumer[pe.Consumer]++
	}
	return total, min, max, perConsumer
}

// PendingRange implements the range form of XPENDING: up to count
// entries with id in [start, end], optionally filtered to one consumer.
func (g *Group) PendingRange(start, end ID, count int, consumer string) []*PendingEntry {
	var out []*PendingEntry
	for id, pe := range g.Pending {
		if id.Less(start) || end.Less(id) {
			continue
		}
		if consumer != "" && pe.Consumer != consumer {
			continue
		}
		out = append(out, pe)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	if count >= 0 && len(out) > count {
		out = out[:count]
	}
	return out
}
