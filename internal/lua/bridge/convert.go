package bridge

import (
	"strconv"

	"github.com/dreamware/redcore/internal/lua/heap"
	"github.com/dreamware/redcore/internal/resp"
)

// RESPToLua converts a reply received by redis.call/pcall into the
// Lua value a script sees, following the standard RESP-to-Lua
// conversion rules (status replies become {ok=...} tables, errors
// become {err=...} tables, bulk/integer/array map directly).
func RESPToLua(h *heap.Heap, f resp.Frame) heap.Value {
	switch f.Kind {
	case resp.KindSimpleString:
		t := h.NewTable()
		tbl, _ := h.Table(t)
		tbl.Set(heap.StringVal(h.InternString("ok")), heap.StringVal(h.InternString(string(f.Str))))
		return heap.TableVal(t)
	case resp.KindError:
		t := h.NewTable()
		tbl, _ := h.Table(t)
		tbl.Set(heap.StringVal(h.InternString("err")), heap.StringVal(h.InternString(string(f.Str))))
		return heap.TableVal(t)
	case resp.KindInteger:
		return heap.Number(float64(f.Int))
	case resp.KindBulkString:
		if f.Null {
			return heap.Bool(false)
		}
		return heap.StringVal(h.InternString(string(f.Str)))
	case resp.KindArray, resp.KindSet:
		if f.Null {
			return heap.Bool(false)
		}
		th := h.NewTable()
		tbl, _ := h.Table(th)
		for i, item := range f.Array {
			tbl.Set(heap.Number(float64(i+1)), RESPToLua(h, item))
		}
		return heap.TableVal(th)
	case resp.KindNull:
		return heap.Bool(false)
	case resp.KindBoolean:
		return heap.Bool(f.Bool)
	case resp.KindDouble:
		return heap.Number(f.Double)
	case resp.KindMap:
		// Flattens to the same 1-indexed array shape a RESP2 array would
		// produce, since Lua has no distinct map value type.
		arr := h.NewTable()
		atbl, _ := h.Table(arr)
		n := 1
		for i := range f.MapKeys {
			atbl.Set(heap.Number(float64(n)), RESPToLua(h, f.MapKeys[i]))
			n++
			atbl.Set(heap.Number(float64(n)), RESPToLua(h, f.MapVals[i]))
			n++
		}
		return heap.TableVal(arr)
	default:
		return heap.Nil()
	}
}

// LuaToRESP converts a script's final return value to its RESP reply,
// following the standard Lua-to-RESP conversion rules (false/nil become
// a null bulk reply, a table with an "ok"/"err" field becomes a status
// or error reply, a numeric-indexed table becomes an array).
func LuaToRESP(h *heap.Heap, v heap.Value) resp.Frame {
	switch v.Kind {
	case heap.KindNil:
		return resp.NullBulk()
	case heap.KindBool:
		if !v.Bool {
			return resp.NullBulk()
		}
		return resp.Integer(1)
	case heap.KindNumber:
		if v.Number == float64(int64(v.Number)) {
			return resp.Integer(int64(v.Number))
		}
		return resp.BulkString([]byte(strconv.FormatFloat(v.Number, 'f', -1, 64)))
	case heap.KindString:
		s, _ := h.GetString(v.Str)
		return resp.BulkString([]byte(s))
	case heap.KindTable:
		tbl, ok := h.Table(v.Table)
		if !ok {
			return resp.NullBulk()
		}
		if errVal := tbl.Get(heap.StringVal(h.InternString("err"))); !errVal.IsNil() {
			s, _ := h.GetString(errVal.Str)
			return resp.Error(s)
		}
		if okVal := tbl.Get(heap.StringVal(h.InternString("ok"))); !okVal.IsNil() {
			s, _ := h.GetString(okVal.Str)
			return resp.SimpleString(s)
		}
		var items []resp.Frame
		for i := 1; ; i++ {
			elem := tbl.Get(heap.Number(float64(i)))
			if elem.IsNil() {
				break
			}
			items = append(items, LuaToRESP(h, elem))
		}
		return resp.Array(items)
	default:
		return resp.NullBulk()
	}
}
