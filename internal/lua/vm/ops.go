package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dreamware/redcore/internal/lua/compiler"
	"github.com/dreamware/redcore/internal/lua/heap"
)

func (v *VM) numberOf(val heap.Value) (float64, bool) {
	if val.Kind == heap.KindNumber {
		return val.Number, true
	}
	if val.Kind == heap.KindString {
		if s, ok := v.Heap.GetString(val.Str); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func (v *VM) toDisplayString(val heap.Value) (string, bool) {
	switch val.Kind {
	case heap.KindString:
		s, ok := v.Heap.GetString(val.Str)
		return s, ok
	case heap.KindNumber:
		return formatNumber(val.Number), true
	case heap.KindBool:
		if val.Bool {
			return "true", true
		}
		return "false", true
	case heap.KindNil:
		return "nil", true
	}
	return "", false
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func (v *VM) metatableOf(val heap.Value) (*heap.TableObject, bool) {
	if val.Kind != heap.KindTable {
		return nil, false
	}
	tbl, ok := v.Heap.Table(val.Table)
	if !ok || !tbl.HasMeta {
		return nil, false
	}
	meta, ok := v.Heap.Table(tbl.Metatable)
	return meta, ok
}

func (v *VM) metamethod(val heap.Value, name string) (heap.Value, bool) {
	meta, ok := v.metatableOf(val)
	if !ok {
		return heap.Nil(), false
	}
	mm := meta.Get(heap.StringVal(v.Heap.InternString(name)))
	if mm.IsNil() {
		return heap.Nil(), false
	}
	return mm, true
}

var arithMeta = map[compiler.Op]string{
	compiler.OpAdd: "__add", compiler.OpSub: "__sub", compiler.OpMul: "__mul",
	compiler.OpDiv: "__div", compiler.OpMod: "__mod", compiler.OpPow: "__pow",
}

func (v *VM) arith(op compiler.Op, a, b heap.Value) (heap.Value, error) {
	na, aok := v.numberOf(a)
	nb, bok := v.numberOf(b)
	if aok && bok {
		switch op {
		case compiler.OpAdd:
			return heap.Number(na + nb), nil
		case compiler.OpSub:
			return heap.Number(na - nb), nil
		case compiler.OpMul:
			return heap.Number(na * nb), nil
		case compiler.OpDiv:
			return heap.Number(na / nb), nil
		case compiler.OpMod:
			return heap.Number(na - float64(int64(na/nb))*nb), nil
		case compiler.OpPow:
			return heap.Number(math.Pow(na, nb)), nil
		}
	}
	name := arithMeta[op]
	if mm, ok := v.metamethod(a, name); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res), err
	}
	if mm, ok := v.metamethod(b, name); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res), err
	}
	return heap.Nil(), fmt.Errorf("attempt to perform arithmetic on a %s value", pickBadOperand(a, b).TypeName())
}

func pickBadOperand(a, b heap.Value) heap.Value {
	if a.Kind != heap.KindNumber && a.Kind != heap.KindString {
		return a
	}
	return b
}

func first(vals []heap.Value) heap.Value {
	if len(vals) == 0 {
		return heap.Nil()
	}
	return vals[0]
}

func (v *VM) index(obj, key heap.Value) (heap.Value, error) {
	if obj.Kind == heap.KindTable {
		tbl, _ := v.Heap.Table(obj.Table)
		val := tbl.Get(key)
		if !val.IsNil() {
			return val, nil
		}
		if mm, ok := v.metamethod(obj, "__index"); ok {
			if mm.Kind == heap.KindClosure || mm.Kind == heap.KindGoFunc {
				res, err := v.callValue(mm, []heap.Value{obj, key})
				return first(res), err
			}
			return v.index(mm, key)
		}
		return heap.Nil(), nil
	}
	if mm, ok := v.metamethod(obj, "__index"); ok {
		if mm.Kind == heap.KindClosure || mm.Kind == heap.KindGoFunc {
			res, err := v.callValue(mm, []heap.Value{obj, key})
			return first(res), err
		}
		return v.index(mm, key)
	}
	return heap.Nil(), fmt.Errorf("attempt to index a %s value", obj.TypeName())
}

func (v *VM) newindex(obj, key, val heap.Value) error {
	if obj.Kind != heap.KindTable {
		return fmt.Errorf("attempt to index a %s value", obj.TypeName())
	}
	tbl, _ := v.Heap.Table(obj.Table)
	if tbl.Get(key).IsNil() {
		if mm, ok := v.metamethod(obj, "__newindex"); ok {
			if mm.Kind == heap.KindClosure || mm.Kind == heap.KindGoFunc {
				_, err := v.callValue(mm, []heap.Value{obj, key, val})
				return err
			}
			return v.newindex(mm, key, val)
		}
	}
	tbl.Set(key, val)
	return nil
}

func (v *VM) length(val heap.Value) heap.Value {
	switch val.Kind {
	case heap.KindString:
		s, _ := v.Heap.GetString(val.Str)
		return heap.Number(float64(len(s)))
	case heap.KindTable:
		if mm, ok := v.metamethod(val, "__len"); ok {
			res, _ := v.callValue(mm, []heap.Value{val})
			return first(res)
		}
		tbl, _ := v.Heap.Table(val.Table)
		return heap.Number(float64(tbl.Len()))
	}
	return heap.Number(0)
}

func (v *VM) concat(a, b heap.Value) (heap.Value, error) {
	sa, aok := v.toDisplayString(a)
	sb, bok := v.toDisplayString(b)
	if aok && bok && a.Kind != heap.KindNil && b.Kind != heap.KindNil && a.Kind != heap.KindBool && b.Kind != heap.KindBool {
		return heap.StringVal(v.Heap.InternString(sa + sb)), nil
	}
	if mm, ok := v.metamethod(a, "__concat"); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res), err
	}
	if mm, ok := v.metamethod(b, "__concat"); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res), err
	}
	return heap.Nil(), fmt.Errorf("attempt to concatenate a %s value", pickBadOperand(a, b).TypeName())
}

func (v *VM) equal(a, b heap.Value) bool {
	if a.Equal(b) {
		return true
	}
	if a.Kind == heap.KindTable && b.Kind == heap.KindTable {
		if mm, ok := v.metamethod(a, "__eq"); ok {
			res, err := v.callValue(mm, []heap.Value{a, b})
			if err == nil {
				return first(res).Truthy()
			}
		}
	}
	return false
}

func (v *VM) less(a, b heap.Value, orEqual bool) (bool, error) {
	if a.Kind == heap.KindNumber && b.Kind == heap.KindNumber {
		if orEqual {
			return a.Number <= b.Number, nil
		}
		return a.Number < b.Number, nil
	}
	if a.Kind == heap.KindString && b.Kind == heap.KindString {
		sa, _ := v.Heap.GetString(a.Str)
		sb, _ := v.Heap.GetString(b.Str)
		if orEqual {
			return sa <= sb, nil
		}
		return sa < sb, nil
	}
	name := "__lt"
	if orEqual {
		name = "__le"
	}
	if mm, ok := v.metamethod(a, name); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res).Truthy(), err
	}
	if mm, ok := v.metamethod(b, name); ok {
		res, err := v.callValue(mm, []heap.Value{a, b})
		return first(res).Truthy(), err
	}
	return false, fmt.Errorf("attempt to compare two %s values", a.TypeName())
}
