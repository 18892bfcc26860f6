package heap

// slot holds one arena entry: the object itself, its generation, and
// whether the slot is currently occupied.
type slot[T any] struct {
	obj      T
	gen      uint32
	occupied bool
}

// Arena is a generational object pool indexed by (index, generation):
// a freed slot is reused by later inserts, but old handles pointing at
// it fail their generation check instead of aliasing the new object.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
}

// Handle identifies one live object in an Arena at the time it was
// obtained; it goes stale once that slot is freed and reused.
type Handle struct {
	Index uint32
	Gen   uint32
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores obj in a free slot (or appends a new one) and returns
// its handle.
func (a *Arena[T]) Insert(obj T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.obj = obj
		s.occupied = true
		return Handle{Index: idx, Gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{obj: obj, gen: 1, occupied: true})
	return Handle{Index: uint32(len(a.slots) - 1), Gen: 1}
}

// Get returns the object at h, or false if h is stale or out of range.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.occupied || s.gen != h.Gen {
		return nil, false
	}
	return &s.obj, true
}

// Remove frees h's slot, bumping its generation so existing handles to
// it become stale.
func (a *Arena[T]) Remove(h Handle) bool {
	if int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	if !s.occupied || s.gen != h.Gen {
		return false
	}
	var zero T
	s.obj = zero
	s.occupied = false
	s.gen++
	a.free = append(a.free, h.Index)
	return true
}

// Len returns the number of live (occupied) objects.
func (a *Arena[T]) Len() int {
	return len(a.slots) - len(a.free)
}

// Each calls fn for every occupied slot, stopping early if fn returns false.
func (a *Arena[T]) Each(fn func(h Handle, obj *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(Handle{Index: uint32(i), Gen: s.gen}, &s.obj) {
			return
		}
	}
}
