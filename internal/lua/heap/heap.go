// Package heap implements the generational arena the Lua VM allocates
// strings, tables, and closures from, plus an incremental mark-sweep
// collector driven by a per-step work budget.
package heap

import "hash/fnv"

// GcPhase is the current step of an in-progress collection cycle.
type GcPhase int

const (
	PhaseIdle GcPhase = iota
	PhaseMarkRoots
	PhasePropagate
	PhaseSweep
)

// Stats tracks heap occupancy for GC triggering and diagnostics.
type Stats struct {
	Allocated int64
	Strings   int
	Tables    int
	Closures  int
}

// GcState is the collector's progress through one cycle.
type GcState struct {
	Phase     GcPhase
	Gray      []grayObject
	Threshold int64
}

type grayKind int

const (
	grayTable grayKind = iota
	grayClosure
)

type grayObject struct {
	kind  grayKind
	table TableHandle
	clo   ClosureHandle
}

// Heap owns every Lua string/table/closure allocated during one script
// run plus the intern table and collector state.
type Heap struct {
	strings  *Arena[StringObject]
	tables   *Arena[TableObject]
	closures *Arena[ClosureObject]

	interner map[uint64]StringHandle
	natives  []GoFunc

	GC    GcState
	Stats Stats
}

const initialThreshold = 1 << 20 // 1MB, mirroring the reference heap's initial threshold

func New() *Heap {
	return &Heap{
		strings:  NewArena[StringObject](),
		tables:   NewArena[TableObject](),
		closures: NewArena[ClosureObject](),
		interner: make(map[uint64]StringHandle),
		GC:       GcState{Threshold: initialThreshold},
	}
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// InternString returns the handle for s, allocating and interning it
// if this is the first time s's bytes have been seen.
func (h *Heap) InternString(s string) StringHandle {
	b := []byte(s)
	hv := hashBytes(b)
	if handle, ok := h.interner[hv]; ok {
		if obj, ok := h.strings.Get(Handle(handle)); ok && string(obj.Bytes) == s {
			return handle
		}
	}
	raw := h.strings.Insert(StringObject{Bytes: b, Hash: hv})
	handle := StringHandle(raw)
	h.interner[hv] = handle
	h.Stats.Allocated += int64(len(b)) + 32
	h.Stats.Strings++
	h.maybeStartGC()
	return handle
}

// GetString dereferences a string handle.
func (h *Heap) GetString(sh StringHandle) (string, bool) {
	obj, ok := h.strings.Get(Handle(sh))
	if !ok {
		return "", false
	}
	return string(obj.Bytes), true
}

// NewTable allocates an empty table and returns its handle.
func (h *Heap) NewTable() TableHandle {
	raw := h.tables.Insert(*newTable())
	handle := TableHandle(raw)
	h.Stats.Allocated += 64
	h.Stats.Tables++
	h.maybeStartGC()
	return handle
}

// Table dereferences a table handle.
func (h *Heap) Table(th TableHandle) (*TableObject, bool) {
	return h.tables.Get(Handle(th))
}

// NewClosure allocates a closure wrapping proto and its captured upvalues.
func (h *Heap) NewClosure(proto interface{}, upvalues []*Value) ClosureHandle {
	raw := h.closures.Insert(ClosureObject{Proto: proto, Upvalues: upvalues})
	handle := ClosureHandle(raw)
	h.Stats.Allocated += 96
	h.Stats.Closures++
	h.maybeStartGC()
	return handle
}

// Closure dereferences a closure handle.
func (h *Heap) Closure(ch ClosureHandle) (*ClosureObject, bool) {
	return h.closures.Get(Handle(ch))
}

// RegisterNative adds fn to the native-function registry and returns a
// handle to it, usable as a Value via NativeVal.
func (h *Heap) RegisterNative(fn GoFunc) NativeHandle {
	h.natives = append(h.natives, fn)
	return NativeHandle(len(h.natives) - 1)
}

// Native dereferences a native-function handle.
func (h *Heap) Native(nh NativeHandle) (GoFunc, bool) {
	if int(nh) < 0 || int(nh) >= len(h.natives) {
		return nil, false
	}
	return h.natives[nh], true
}

func (h *Heap) maybeStartGC() {
	if h.GC.Phase == PhaseIdle && h.Stats.Allocated >= h.GC.Threshold {
		h.GC.Phase = PhaseMarkRoots
		h.GC.Gray = h.GC.Gray[:0]
	}
}

// Step advances the collector by one budget's worth of work. Roots are
// the values currently reachable from the VM (value stack, globals,
// open upvalues); callers re-supply them every call since a GC cycle
// spans many VM steps and new roots can appear mid-cycle.
func (h *Heap) Step(budget int, roots []Value) (done bool) {
	switch h.GC.Phase {
	case PhaseIdle:
		if h.Stats.Allocated < h.GC.Threshold {
			return true
		}
		h.GC.Phase = PhaseMarkRoots
		return false
	case PhaseMarkRoots:
		for _, r := range roots {
			h.markValue(r)
		}
		h.GC.Phase = PhasePropagate
		return false
	case PhasePropagate:
		for i := 0; i < budget; i++ {
			if len(h.GC.Gray) == 0 {
				h.GC.Phase = PhaseSweep
				return false
			}
			obj := h.GC.Gray[len(h.GC.Gray)-1]
			h.GC.Gray = h.GC.Gray[:len(h.GC.Gray)-1]
			h.scan(obj)
		}
		return false
	case PhaseSweep:
		h.sweep()
		h.GC.Threshold = int64(float64(h.Stats.Allocated) * 1.5)
		if h.GC.Threshold < initialThreshold {
			h.GC.Threshold = initialThreshold
		}
		h.GC.Phase = PhaseIdle
		return true
	}
	return true
}

func (h *Heap) markValue(v Value) {
	switch v.Kind {
	case KindString:
		if obj, ok := h.strings.Get(Handle(v.Str)); ok {
			obj.Mark = Black
		}
	case KindTable:
		h.markTable(v.Table)
	case KindClosure:
		h.markClosure(v.Closure)
	}
}

func (h *Heap) markTable(th TableHandle) {
	obj, ok := h.tables.Get(Handle(th))
	if !ok || obj.Mark != White {
		return
	}
	obj.Mark = Gray
	h.GC.Gray = append(h.GC.Gray, grayObject{kind: grayTable, table: th})
}

func (h *Heap) markClosure(ch ClosureHandle) {
	obj, ok := h.closures.Get(Handle(ch))
	if !ok || obj.Mark != White {
		return
	}
	obj.Mark = Gray
	h.GC.Gray = append(h.GC.Gray, grayObject{kind: grayClosure, clo: ch})
}

func (h *Heap) scan(g grayObject) {
	switch g.kind {
	case grayTable:
		obj, ok := h.tables.Get(Handle(g.table))
		if !ok {
			return
		}
		obj.Mark = Black
		for _, v := range obj.Array {
			h.markValue(v)
		}
		for k, v := range obj.Hash {
			h.markValue(k)
			h.markValue(v)
		}
		if obj.HasMeta {
			h.markTable(obj.Metatable)
		}
	case grayClosure:
		obj, ok := h.closures.Get(Handle(g.clo))
		if !ok {
			return
		}
		obj.Mark = Black
		for _, uv := range obj.Upvalues {
			if uv != nil {
				h.markValue(*uv)
			}
		}
	}
}

func (h *Heap) sweep() {
	var deadStrings []Handle
	h.strings.Each(func(handle Handle, obj *StringObject) bool {
		if obj.Mark == White {
			deadStrings = append(deadStrings, handle)
		} else {
			obj.Mark = White
		}
		return true
	})
	for _, handle := range deadStrings {
		if obj, ok := h.strings.Get(handle); ok {
			h.Stats.Allocated -= int64(len(obj.Bytes)) + 32
			h.Stats.Strings--
			delete(h.interner, obj.Hash)
		}
		h.strings.Remove(handle)
	}

	var deadTables []Handle
	h.tables.Each(func(handle Handle, obj *TableObject) bool {
		if obj.Mark == White {
			deadTables = append(deadTables, handle)
		} else {
			obj.Mark = White
		}
		return true
	})
	for _, handle := range deadTables {
		h.Stats.Allocated -= 64
		h.Stats.Tables--
		h.tables.Remove(handle)
	}

	var deadClosures []Handle
	h.closures.Each(func(handle Handle, obj *ClosureObject) bool {
		if obj.Mark == White {
			deadClosures = append(deadClosures, handle)
		} else {
			obj.Mark = White
		}
		return true
	})
	for _, handle := range deadClosures {
		h.Stats.Allocated -= 96
		h.Stats.Closures--
		h.closures.Remove(handle)
	}
}
