// Package vm implements a register-windowed tree-walking interpreter
// for the instruction lists compiler.FunctionProto produces: an
// explicit value stack indexed by each call frame's base register,
// metatable-aware arithmetic/indexing, upvalue capture, and a
// cooperative kill-flag checked at loop backedges and call boundaries.
package vm

import (
	"fmt"
	"sync/atomic"

	"github.com/dreamware/redcore/internal/lua/compiler"
	"github.com/dreamware/redcore/internal/lua/heap"
)

// ScriptKilled is raised when the kill flag is observed at a safe point.
type ScriptKilled struct{}

func (ScriptKilled) Error() string { return "script killed" }

type frame struct {
	proto   *compiler.FunctionProto
	closure heap.ClosureHandle
	base    int
	pc      int
	varargs []heap.Value
}

// VM executes compiled Lua function prototypes against a shared heap.
type VM struct {
	Heap    *heap.Heap
	Globals heap.TableHandle

	stack  []*heap.Value
	frames []frame
	killed int32
}

func New(h *heap.Heap) *VM {
	v := &VM{Heap: h}
	v.Globals = h.NewTable()
	return v
}

func (v *VM) Kill()         { atomic.StoreInt32(&v.killed, 1) }
func (v *VM) Killed() bool  { return atomic.LoadInt32(&v.killed) != 0 }
func (v *VM) ResetKill()    { atomic.StoreInt32(&v.killed, 0) }

func (v *VM) reg(base, idx int) *heap.Value {
	for len(v.stack) <= base+idx {
		v.stack = append(v.stack, new(heap.Value))
	}
	return v.stack[base+idx]
}

// Run executes proto as a fresh top-level call with the given
// arguments (used for vararg access via VARARG) and returns its
// results.
func (v *VM) Run(proto *compiler.FunctionProto, args []heap.Value) ([]heap.Value, error) {
	base := len(v.stack)
	for i := range proto.Params {
		val := heap.Nil()
		if i < len(args) {
			val = args[i]
		}
		*v.reg(base, i) = val
	}
	var varargs []heap.Value
	if proto.IsVararg && len(args) > len(proto.Params) {
		varargs = append(varargs, args[len(proto.Params):]...)
	}
	v.frames = append(v.frames, frame{proto: proto, base: base, varargs: varargs})
	results, err := v.execFrame()
	v.frames = v.frames[:len(v.frames)-1]
	return results, err
}

// callCtx adapts a VM to heap.CallContext for native Go functions.
type callCtx struct{ v *VM }

func (c callCtx) Heap() *heap.Heap { return c.v.Heap }
func (c callCtx) Killed() bool     { return c.v.Killed() }

func (v *VM) execFrame() ([]heap.Value, error) {
	fr := &v.frames[len(v.frames)-1]
	proto := fr.proto
	for {
		if fr.pc >= len(proto.Code) {
			return nil, nil
		}
		in := proto.Code[fr.pc]
		switch in.Op {
		case compiler.OpMove:
			*v.reg(fr.base, in.A) = *v.reg(fr.base, in.B)
		case compiler.OpLoadK:
			*v.reg(fr.base, in.A) = constToValue(v, proto.Constants[in.B])
		case compiler.OpLoadBool:
			*v.reg(fr.base, in.A) = heap.Bool(in.B != 0)
		case compiler.OpLoadNil:
			*v.reg(fr.base, in.A) = heap.Nil()
		case compiler.OpGetGlobal:
			name := proto.Constants[in.B].Str
			tbl, _ := v.Heap.Table(v.Globals)
			*v.reg(fr.base, in.A) = tbl.Get(heap.StringVal(v.Heap.InternString(name)))
		case compiler.OpSetGlobal:
			name := proto.Constants[in.B].Str
			tbl, _ := v.Heap.Table(v.Globals)
			tbl.Set(heap.StringVal(v.Heap.InternString(name)), *v.reg(fr.base, in.A))
		case compiler.OpGetUpval:
			clo, ok := v.Heap.Closure(fr.closure)
			if !ok || in.B >= len(clo.Upvalues) {
				*v.reg(fr.base, in.A) = heap.Nil()
			} else {
				*v.reg(fr.base, in.A) = *clo.Upvalues[in.B]
			}
		case compiler.OpSetUpval:
			clo, ok := v.Heap.Closure(fr.closure)
			if ok && in.B < len(clo.Upvalues) {
				*clo.Upvalues[in.B] = *v.reg(fr.base, in.A)
			}
		case compiler.OpGetTable:
			obj := *v.reg(fr.base, in.B)
			key := *v.reg(fr.base, in.C)
			result, err := v.index(obj, key)
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A) = result
		case compiler.OpSetTable:
			obj := *v.reg(fr.base, in.A)
			key := *v.reg(fr.base, in.B)
			val := *v.reg(fr.base, in.C)
			if err := v.newindex(obj, key, val); err != nil {
				return nil, err
			}
		case compiler.OpNewTable:
			*v.reg(fr.base, in.A) = heap.TableVal(v.Heap.NewTable())
		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod, compiler.OpPow:
			res, err := v.arith(in.Op, *v.reg(fr.base, in.B), *v.reg(fr.base, in.C))
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A) = res
		case compiler.OpUnm:
			n, ok := v.numberOf(*v.reg(fr.base, in.B))
			if !ok {
				return nil, fmt.Errorf("attempt to perform arithmetic on a non-number value")
			}
			*v.reg(fr.base, in.A) = heap.Number(-n)
		case compiler.OpNot:
			*v.reg(fr.base, in.A) = heap.Bool(!v.reg(fr.base, in.B).Truthy())
		case compiler.OpLen:
			*v.reg(fr.base, in.A) = v.length(*v.reg(fr.base, in.B))
		case compiler.OpConcat:
			s, err := v.concat(*v.reg(fr.base, in.B), *v.reg(fr.base, in.C))
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A) = s
		case compiler.OpEq:
			*v.reg(fr.base, in.A) = heap.Bool(v.equal(*v.reg(fr.base, in.B), *v.reg(fr.base, in.C)))
		case compiler.OpLt:
			lt, err := v.less(*v.reg(fr.base, in.B), *v.reg(fr.base, in.C), false)
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A) = heap.Bool(lt)
		case compiler.OpLe:
			le, err := v.less(*v.reg(fr.base, in.B), *v.reg(fr.base, in.C), true)
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A) = heap.Bool(le)
		case compiler.OpTest:
			// Skips the following (unconditional) Jmp when the tested
			// value's truthiness does not match C, mirroring Lua 5.1's
			// "if not (R(A) <=> C) then pc++" TEST semantics.
			want := in.C != 0
			if v.reg(fr.base, in.A).Truthy() != want {
				fr.pc++
			}
		case compiler.OpJmp:
			if v.Killed() {
				return nil, ScriptKilled{}
			}
			fr.pc += in.Sbx
		case compiler.OpCall, compiler.OpTailCall:
			results, err := v.call(fr, in.A, in.B)
			if err != nil {
				return nil, err
			}
			wanted := in.C - 1
			if wanted < 0 {
				wanted = len(results)
			}
			for i := 0; i < wanted; i++ {
				val := heap.Nil()
				if i < len(results) {
					val = results[i]
				}
				*v.reg(fr.base, in.A+i) = val
			}
			if v.Killed() {
				return nil, ScriptKilled{}
			}
		case compiler.OpReturn:
			n := in.B - 1
			if n < 0 {
				n = 0
			}
			out := make([]heap.Value, n)
			for i := 0; i < n; i++ {
				out[i] = *v.reg(fr.base, in.A+i)
			}
			return out, nil
		case compiler.OpForPrep:
			// Tests the initial value so a loop whose start is already
			// out of range (e.g. `for i=5,1 do`) skips its body entirely.
			start, _ := v.numberOf(*v.reg(fr.base, in.A))
			limit, _ := v.numberOf(*v.reg(fr.base, in.A+1))
			step, _ := v.numberOf(*v.reg(fr.base, in.A+2))
			inRange := (step >= 0 && start <= limit) || (step < 0 && start >= limit)
			if !inRange {
				fr.pc += in.Sbx
			}
		case compiler.OpForLoop:
			limit, _ := v.numberOf(*v.reg(fr.base, in.A+1))
			step, _ := v.numberOf(*v.reg(fr.base, in.A+2))
			idx, _ := v.numberOf(*v.reg(fr.base, in.A+3))
			idx += step
			inRange := (step >= 0 && idx <= limit) || (step < 0 && idx >= limit)
			if inRange {
				if v.Killed() {
					return nil, ScriptKilled{}
				}
				*v.reg(fr.base, in.A+3) = heap.Number(idx)
				fr.pc += in.Sbx
			}
		case compiler.OpTForLoop:
			iterFn := *v.reg(fr.base, in.A)
			state := *v.reg(fr.base, in.A+1)
			ctrl := *v.reg(fr.base, in.A+2)
			results, err := v.callValue(iterFn, []heap.Value{state, ctrl})
			if err != nil {
				return nil, err
			}
			if len(results) == 0 || results[0].IsNil() {
				// fall through to the following unconditional Jmp, which exits the loop
			} else {
				for i := 0; i < in.C; i++ {
					val := heap.Nil()
					if i < len(results) {
						val = results[i]
					}
					*v.reg(fr.base, in.A+3+i) = val
				}
				*v.reg(fr.base, in.A+2) = results[0]
				fr.pc += 2 // skip the exit Jmp, enter the loop body
				continue
			}
		case compiler.OpClosure:
			proto := proto.Protos[in.B]
			upvals := make([]*heap.Value, len(proto.Upvalues))
			for i, uv := range proto.Upvalues {
				if uv.FromStack {
					upvals[i] = v.reg(fr.base, uv.Index)
				} else {
					if clo, ok := v.Heap.Closure(fr.closure); ok && uv.Index < len(clo.Upvalues) {
						upvals[i] = clo.Upvalues[uv.Index]
					} else {
						upvals[i] = new(heap.Value)
					}
				}
			}
			ch := v.Heap.NewClosure(proto, upvals)
			*v.reg(fr.base, in.A) = heap.ClosureVal(ch)
		case compiler.OpVararg:
			n := in.B - 1
			if n < 0 {
				n = len(fr.varargs)
			}
			for i := 0; i < n; i++ {
				val := heap.Nil()
				if i < len(fr.varargs) {
					val = fr.varargs[i]
				}
				*v.reg(fr.base, in.A+i) = val
			}
		case compiler.OpSelf:
			obj := *v.reg(fr.base, in.B)
			method, err := v.index(obj, constToValue(v, proto.Constants[in.C]))
			if err != nil {
				return nil, err
			}
			*v.reg(fr.base, in.A+1) = obj
			*v.reg(fr.base, in.A) = method
		default:
			return nil, fmt.Errorf("unimplemented opcode %v", in.Op)
		}
		fr.pc++
	}
}

func constToValue(v *VM, c compiler.Const) heap.Value {
	switch c.Kind {
	case compiler.ConstNil:
		return heap.Nil()
	case compiler.ConstTrue:
		return heap.Bool(true)
	case compiler.ConstFalse:
		return heap.Bool(false)
	case compiler.ConstNumber:
		return heap.Number(c.Num)
	case compiler.ConstString:
		return heap.StringVal(v.Heap.InternString(c.Str))
	}
	return heap.Nil()
}

// call invokes the callable in register base, with B-1 arguments in
// the following registers (B==0 means "through top of stack", not
// supported by this compiler's fixed-arity call sites).
func (v *VM) call(fr *frame, base, b int) ([]heap.Value, error) {
	fn := *v.reg(fr.base, base)
	nargs := b - 1
	args := make([]heap.Value, nargs)
	for i := 0; i < nargs; i++ {
		args[i] = *v.reg(fr.base, base+1+i)
	}
	if v.Killed() {
		return nil, ScriptKilled{}
	}
	return v.callValue(fn, args)
}

func (v *VM) callValue(fn heap.Value, args []heap.Value) ([]heap.Value, error) {
	switch fn.Kind {
	case heap.KindGoFunc:
		native, ok := v.Heap.Native(fn.Native)
		if !ok {
			return nil, fmt.Errorf("attempt to call an invalid native function")
		}
		return native(callCtx{v}, args)
	case heap.KindClosure:
		clo, ok := v.Heap.Closure(fn.Closure)
		if !ok {
			return nil, fmt.Errorf("attempt to call an invalid function")
		}
		proto, ok := clo.Proto.(*compiler.FunctionProto)
		if !ok {
			return nil, fmt.Errorf("closure has no compiled prototype")
		}
		base := len(v.stack)
		for i := range proto.Params {
			val := heap.Nil()
			if i < len(args) {
				val = args[i]
			}
			*v.reg(base, i) = val
		}
		var varargs []heap.Value
		if proto.IsVararg && len(args) > len(proto.Params) {
			varargs = append(varargs, args[len(proto.Params):]...)
		}
		v.frames = append(v.frames, frame{proto: proto, closure: fn.Closure, base: base, varargs: varargs})
		results, err := v.execFrame()
		v.frames = v.frames[:len(v.frames)-1]
		return results, err
	default:
		return nil, fmt.Errorf("attempt to call a %s value", fn.TypeName())
	}
}
