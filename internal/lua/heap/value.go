package heap

import "fmt"

// ValueKind tags the Lua dynamic type of a Value.
type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindTable
	KindClosure
	KindGoFunc
)

// Value is a Lua value. Exactly the field matching Kind is meaningful;
// strings/tables/closures/native functions live in the heap and are
// referenced by handle, which keeps Value itself a comparable type
// (it is used directly as a Lua table key).
type Value struct {
	Kind    ValueKind
	Bool    bool
	Number  float64
	Str     StringHandle
	Table   TableHandle
	Closure ClosureHandle
	Native  NativeHandle
}

// GoFunc is a native function callable from Lua: it reads its
// arguments and the VM/heap from ctx and returns its results.
type GoFunc func(ctx CallContext, args []Value) ([]Value, error)

// CallContext is the narrow surface a GoFunc needs from its caller —
// the heap to allocate strings/tables in, and a kill-flag check so
// long-running native calls cooperate with SCRIPT KILL the same way
// bytecode loops do.
type CallContext interface {
	Heap() *Heap
	Killed() bool
}

func Nil() Value                       { return Value{Kind: KindNil} }
func Bool(b bool) Value                { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value           { return Value{Kind: KindNumber, Number: n} }
func StringVal(h StringHandle) Value   { return Value{Kind: KindString, Str: h} }
func TableVal(h TableHandle) Value     { return Value{Kind: KindTable, Table: h} }
func ClosureVal(h ClosureHandle) Value { return Value{Kind: KindClosure, Closure: h} }
func NativeVal(h NativeHandle) Value   { return Value{Kind: KindGoFunc, Native: h} }

// IsNil reports whether v is Lua nil.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Truthy implements Lua truthiness: everything except nil and false.
func (v Value) Truthy() bool {
	if v.Kind == KindNil {
		return false
	}
	if v.Kind == KindBool {
		return v.Bool
	}
	return true
}

// Equal implements Lua's raw equality (no metamethods): same kind and
// same underlying value; table/closure/string handles compare by handle.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Number == o.Number
	case KindString:
		return v.Str == o.Str
	case KindTable:
		return v.Table == o.Table
	case KindClosure:
		return v.Closure == o.Closure
	default:
		return false
	}
}

// TypeName returns the Lua type() string for v.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindClosure, KindGoFunc:
		return "function"
	default:
		return "userdata"
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindNumber:
		return fmt.Sprintf("%v", v.Number)
	default:
		return v.TypeName()
	}
}
