package heap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/redcore/internal/lua/heap"
)

func TestInternStringDeduplicates(t *testing.T) {
	h := heap.New()
	a := h.InternString("hello")
	b := h.InternString("hello")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, h.Stats.Strings)
}

func TestInternStringDistinctBytes(t *testing.T) {
	h := heap.New()
	a := h.InternString("hello")
	b := h.InternString("world")
	assert.NotEqual(t, a, b)
}

func TestTableArrayAndHashParts(t *testing.T) {
	h := heap.New()
	th := h.NewTable()
	tbl, ok := h.Table(th)
	assert.True(t, ok)

	tbl.Set(heap.Number(1), heap.Number(10))
	tbl.Set(heap.Number(2), heap.Number(20))
	tbl.Set(heap.StringVal(h.InternString("k")), heap.Number(99))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, float64(10), tbl.Get(heap.Number(1)).Number)
	assert.Equal(t, float64(99), tbl.Get(heap.StringVal(h.InternString("k"))).Number)
}

func TestTableSetNilRemoves(t *testing.T) {
	h := heap.New()
	th := h.NewTable()
	tbl, _ := h.Table(th)
	key := heap.StringVal(h.InternString("k"))
	tbl.Set(key, heap.Number(1))
	tbl.Set(key, heap.Nil())
	assert.True(t, tbl.Get(key).IsNil())
}

func TestArenaHandleStaleAfterRemove(t *testing.T) {
	a := heap.NewArena[int]()
	h1 := a.Insert(42)
	a.Remove(h1)
	h2 := a.Insert(7)
	_, ok := a.Get(h1)
	assert.False(t, ok)
	v, ok := a.Get(h2)
	assert.True(t, ok)
	assert.Equal(t, 7, *v)
}

func TestGCStepReclaimsUnreachableTable(t *testing.T) {
	h := heap.New()
	keep := h.NewTable()
	_ = h.NewTable() // unreachable once GC runs

	h.GC.Threshold = 0 // force a cycle to start immediately
	for !h.Step(1000, []heap.Value{heap.TableVal(keep)}) {
	}

	assert.Equal(t, 1, h.Stats.Tables)
	_, ok := h.Table(keep)
	assert.True(t, ok)
}

func TestNativeFunctionRoundTrip(t *testing.T) {
	h := heap.New()
	called := false
	nh := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		called = true
		return nil, nil
	})
	fn, ok := h.Native(nh)
	assert.True(t, ok)
	_, _ = fn(nil, nil)
	assert.True(t, called)
}
