package compiler

import "fmt"

type localVar struct {
	name string
	reg  int
}

// funcState holds the in-progress compilation state for one function
// body (the top-level chunk, or a nested function/closure).
type funcState struct {
	parent   *funcState
	proto    *FunctionProto
	locals   []localVar
	scopes   []int // stack of len(locals) marks, popped at block exit
	freeReg  int
	breaks   [][]int // per enclosing loop, pending jump indices to patch to loop exit
	constMap map[Const]int
}

func newFuncState(parent *funcState, params []string, vararg bool) *funcState {
	fs := &funcState{
		parent: parent,
		proto: &FunctionProto{
			Params:   params,
			IsVararg: vararg,
		},
		constMap: make(map[Const]int),
	}
	for _, p := range params {
		fs.declareLocal(p)
	}
	return fs
}

func (fs *funcState) declareLocal(name string) int {
	reg := fs.freeReg
	fs.locals = append(fs.locals, localVar{name: name, reg: reg})
	fs.freeReg++
	if fs.freeReg > fs.proto.NumRegs {
		fs.proto.NumRegs = fs.freeReg
	}
	return reg
}

func (fs *funcState) resolveLocal(name string) (int, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return fs.locals[i].reg, true
		}
	}
	return 0, false
}

// resolveUpval finds name in an enclosing function, recording the
// capture chain as UpvalDesc entries along the way, and returns the
// upvalue index in fs, or false if name is a global.
func (fs *funcState) resolveUpval(name string) (int, bool) {
	if fs.parent == nil {
		return 0, false
	}
	for i, uv := range fs.proto.Upvalues {
		if uv.Name == name {
			return i, true
		}
	}
	if reg, ok := fs.parent.resolveLocal(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalDesc{Name: name, FromStack: true, Index: reg})
		return len(fs.proto.Upvalues) - 1, true
	}
	if idx, ok := fs.parent.resolveUpval(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalDesc{Name: name, FromStack: false, Index: idx})
		return len(fs.proto.Upvalues) - 1, true
	}
	return 0, false
}

func (fs *funcState) enterScope() {
	fs.scopes = append(fs.scopes, len(fs.locals))
}

func (fs *funcState) leaveScope() {
	n := len(fs.scopes)
	mark := fs.scopes[n-1]
	fs.scopes = fs.scopes[:n-1]
	if mark < len(fs.locals) {
		fs.freeReg = fs.locals[mark].reg
	}
	fs.locals = fs.locals[:mark]
}

func (fs *funcState) emit(in Instruction) int {
	fs.proto.Code = append(fs.proto.Code, in)
	return len(fs.proto.Code) - 1
}

func (fs *funcState) constIndex(c Const) int {
	if idx, ok := fs.constMap[c]; ok {
		return idx
	}
	fs.proto.Constants = append(fs.proto.Constants, c)
	idx := len(fs.proto.Constants) - 1
	fs.constMap[c] = idx
	return idx
}

func (fs *funcState) reserveReg() int {
	r := fs.freeReg
	fs.freeReg++
	if fs.freeReg > fs.proto.NumRegs {
		fs.proto.NumRegs = fs.freeReg
	}
	return r
}

// Compile compiles a parsed chunk into a top-level FunctionProto,
// vararg (it receives the script's ARGV-style extra arguments) with
// no declared parameters.
func Compile(block *Block, source string) (*FunctionProto, error) {
	fs := newFuncState(nil, nil, true)
	fs.proto.Source = source
	c := &compilerCtx{}
	if err := c.compileBlock(fs, block); err != nil {
		return nil, err
	}
	fs.emit(Instruction{Op: OpReturn, A: 0, B: 1})
	return fs.proto, nil
}

type compilerCtx struct{}

func (c *compilerCtx) compileBlock(fs *funcState, b *Block) error {
	fs.enterScope()
	defer fs.leaveScope()
	for _, st := range b.Stmts {
		if err := c.compileStmt(fs, st); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilerCtx) compileStmt(fs *funcState, st Stmt) error {
	switch s := st.(type) {
	case *LocalStmt:
		return c.compileLocal(fs, s)
	case *AssignStmt:
		return c.compileAssign(fs, s)
	case *CallStmt:
		_, err := c.compileExprTo(fs, s.Call, fs.freeReg)
		return err
	case *IfStmt:
		return c.compileIf(fs, s)
	case *WhileStmt:
		return c.compileWhile(fs, s)
	case *RepeatStmt:
		return c.compileRepeat(fs, s)
	case *NumForStmt:
		return c.compileNumFor(fs, s)
	case *GenForStmt:
		return c.compileGenFor(fs, s)
	case *FuncStmt:
		return c.compileFuncStmt(fs, s)
	case *LocalFuncStmt:
		return c.compileLocalFunc(fs, s)
	case *ReturnStmt:
		return c.compileReturn(fs, s)
	case *BreakStmt:
		if len(fs.breaks) == 0 {
			return fmt.Errorf("break outside loop")
		}
		idx := fs.emit(Instruction{Op: OpJmp})
		top := len(fs.breaks) - 1
		fs.breaks[top] = append(fs.breaks[top], idx)
		return nil
	case *DoStmt:
		return c.compileBlock(fs, s.Body)
	default:
		return fmt.Errorf("unsupported statement %T", st)
	}
}

func (c *compilerCtx) compileLocal(fs *funcState, s *LocalStmt) error {
	base := fs.freeReg
	if err := c.compileExprListTo(fs, s.Exprs, base, len(s.Names)); err != nil {
		return err
	}
	fs.freeReg = base
	for i, name := range s.Names {
		reg := fs.declareLocal(name)
		_ = reg
		_ = i
	}
	return nil
}

// compileExprListTo evaluates exprs into want consecutive registers
// starting at base, padding with nils or discarding extras as needed.
// Only the final expression in the list may yield extra multi-values;
// here it is simply discharged to one register, matching the common
// EVAL-script use case of scalar assignments.
func (c *compilerCtx) compileExprListTo(fs *funcState, exprs []Expr, base int, want int) error {
	n := len(exprs)
	for i := 0; i < want; i++ {
		reg := base + i
		if reg >= fs.freeReg {
			fs.reserveReg()
		}
		if i < n {
			if _, err := c.compileExprTo(fs, exprs[i], reg); err != nil {
				return err
			}
		} else {
			fs.emit(Instruction{Op: OpLoadNil, A: reg})
		}
	}
	for i := want; i < n; i++ {
		tmp := fs.reserveReg()
		if _, err := c.compileExprTo(fs, exprs[i], tmp); err != nil {
			return err
		}
		fs.freeReg--
	}
	return nil
}

func (c *compilerCtx) compileAssign(fs *funcState, s *AssignStmt) error {
	base := fs.freeReg
	if err := c.compileExprListTo(fs, s.Exprs, base, len(s.Targets)); err != nil {
		return err
	}
	fs.freeReg = base
	for i, target := range s.Targets {
		reg := base + i
		if err := c.compileAssignTo(fs, target, reg); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilerCtx) compileAssignTo(fs *funcState, target Expr, valueReg int) error {
	switch t := target.(type) {
	case *NameExpr:
		if reg, ok := fs.resolveLocal(t.Name); ok {
			fs.emit(Instruction{Op: OpMove, A: reg, B: valueReg})
			return nil
		}
		if idx, ok := fs.resolveUpval(t.Name); ok {
			fs.emit(Instruction{Op: OpSetUpval, A: valueReg, B: idx})
			return nil
		}
		k := fs.constIndex(Const{Kind: ConstString, Str: t.Name})
		fs.emit(Instruction{Op: OpSetGlobal, A: valueReg, B: k})
		return nil
	case *IndexExpr:
		objReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, t.Obj, objReg); err != nil {
			return err
		}
		keyReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, t.Key, keyReg); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpSetTable, A: objReg, B: keyReg, C: valueReg})
		fs.freeReg -= 2
		return nil
	default:
		return fmt.Errorf("invalid assignment target %T", target)
	}
}

func (c *compilerCtx) compileIf(fs *funcState, s *IfStmt) error {
	var endJumps []int
	for i, cond := range s.Conds {
		condReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, cond, condReg); err != nil {
			return err
		}
		fs.freeReg--
		fs.emit(Instruction{Op: OpTest, A: condReg, C: 0})
		jmpToNext := fs.emit(Instruction{Op: OpJmp})
		if err := c.compileBlock(fs, s.Blocks[i]); err != nil {
			return err
		}
		jmpToEnd := fs.emit(Instruction{Op: OpJmp})
		endJumps = append(endJumps, jmpToEnd)
		fs.patchJump(jmpToNext)
	}
	if s.Else != nil {
		if err := c.compileBlock(fs, s.Else); err != nil {
			return err
		}
	}
	for _, j := range endJumps {
		fs.patchJump(j)
	}
	return nil
}

func (fs *funcState) patchJump(idx int) {
	fs.proto.Code[idx].Sbx = len(fs.proto.Code) - idx - 1
}

func (c *compilerCtx) compileWhile(fs *funcState, s *WhileStmt) error {
	start := len(fs.proto.Code)
	condReg := fs.reserveReg()
	if _, err := c.compileExprTo(fs, s.Cond, condReg); err != nil {
		return err
	}
	fs.freeReg--
	fs.emit(Instruction{Op: OpTest, A: condReg, C: 0})
	exitJmp := fs.emit(Instruction{Op: OpJmp})

	fs.breaks = append(fs.breaks, nil)
	if err := c.compileBlock(fs, s.Body); err != nil {
		return err
	}
	backIdx := fs.emit(Instruction{Op: OpJmp})
	fs.proto.Code[backIdx].Sbx = start - backIdx - 1
	fs.patchJump(exitJmp)
	for _, b := range fs.breaks[len(fs.breaks)-1] {
		fs.patchJump(b)
	}
	fs.breaks = fs.breaks[:len(fs.breaks)-1]
	return nil
}

func (c *compilerCtx) compileRepeat(fs *funcState, s *RepeatStmt) error {
	start := len(fs.proto.Code)
	fs.breaks = append(fs.breaks, nil)
	fs.enterScope()
	for _, st := range s.Body.Stmts {
		if err := c.compileStmt(fs, st); err != nil {
			return err
		}
	}
	condReg := fs.reserveReg()
	if _, err := c.compileExprTo(fs, s.Cond, condReg); err != nil {
		return err
	}
	fs.freeReg--
	fs.emit(Instruction{Op: OpTest, A: condReg, C: 0})
	backIdx := fs.emit(Instruction{Op: OpJmp})
	fs.proto.Code[backIdx].Sbx = start - backIdx - 1
	fs.leaveScope()
	for _, b := range fs.breaks[len(fs.breaks)-1] {
		fs.patchJump(b)
	}
	fs.breaks = fs.breaks[:len(fs.breaks)-1]
	return nil
}

func (c *compilerCtx) compileNumFor(fs *funcState, s *NumForStmt) error {
	base := fs.freeReg
	startReg := fs.reserveReg()
	stopReg := fs.reserveReg()
	stepReg := fs.reserveReg()
	if _, err := c.compileExprTo(fs, s.Start, startReg); err != nil {
		return err
	}
	if _, err := c.compileExprTo(fs, s.Stop, stopReg); err != nil {
		return err
	}
	if s.Step != nil {
		if _, err := c.compileExprTo(fs, s.Step, stepReg); err != nil {
			return err
		}
	} else {
		fs.emit(Instruction{Op: OpLoadK, A: stepReg, B: fs.constIndex(Const{Kind: ConstNumber, Num: 1})})
	}
	prepIdx := fs.emit(Instruction{Op: OpForPrep, A: base})

	fs.enterScope()
	loopVar := fs.declareLocal(s.Var) // lands at base+3, matching the counter/limit/step/var layout
	fs.emit(Instruction{Op: OpMove, A: loopVar, B: startReg})
	fs.breaks = append(fs.breaks, nil)
	loopStart := len(fs.proto.Code)
	if err := c.compileBlock(fs, s.Body); err != nil {
		return err
	}
	loopIdx := fs.emit(Instruction{Op: OpForLoop, A: base})
	fs.proto.Code[loopIdx].Sbx = loopStart - loopIdx - 1
	fs.proto.Code[prepIdx].Sbx = loopIdx - prepIdx
	fs.leaveScope()
	for _, b := range fs.breaks[len(fs.breaks)-1] {
		fs.patchJump(b)
	}
	fs.breaks = fs.breaks[:len(fs.breaks)-1]
	fs.freeReg = base
	return nil
}

func (c *compilerCtx) compileGenFor(fs *funcState, s *GenForStmt) error {
	base := fs.freeReg
	if err := c.compileExprListTo(fs, s.Exprs, base, 3); err != nil {
		return err
	}
	fs.freeReg = base + 3

	fs.enterScope()
	varBase := fs.freeReg
	for _, name := range s.Names {
		fs.declareLocal(name)
	}
	fs.breaks = append(fs.breaks, nil)
	loopStart := len(fs.proto.Code)
	fs.emit(Instruction{Op: OpTForLoop, A: base, C: len(s.Names)})
	exitJmp := fs.emit(Instruction{Op: OpJmp})
	_ = varBase
	if err := c.compileBlock(fs, s.Body); err != nil {
		return err
	}
	backIdx := fs.emit(Instruction{Op: OpJmp})
	fs.proto.Code[backIdx].Sbx = loopStart - backIdx - 1
	fs.patchJump(exitJmp)
	fs.leaveScope()
	for _, b := range fs.breaks[len(fs.breaks)-1] {
		fs.patchJump(b)
	}
	fs.breaks = fs.breaks[:len(fs.breaks)-1]
	fs.freeReg = base
	return nil
}

func (c *compilerCtx) compileFuncStmt(fs *funcState, s *FuncStmt) error {
	reg := fs.reserveReg()
	if err := c.compileFuncExpr(fs, s.Fn, reg); err != nil {
		return err
	}
	fs.freeReg--
	return c.compileAssignTo(fs, s.Target, reg)
}

func (c *compilerCtx) compileLocalFunc(fs *funcState, s *LocalFuncStmt) error {
	reg := fs.declareLocal(s.Name)
	return c.compileFuncExpr(fs, s.Fn, reg)
}

func (c *compilerCtx) compileReturn(fs *funcState, s *ReturnStmt) error {
	base := fs.freeReg
	for _, e := range s.Exprs {
		reg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, e, reg); err != nil {
			return err
		}
	}
	fs.emit(Instruction{Op: OpReturn, A: base, B: len(s.Exprs) + 1})
	return nil
}

func (c *compilerCtx) compileFuncExpr(fs *funcState, fn *FuncExpr, dst int) error {
	child := newFuncState(fs, fn.Params, fn.Vararg)
	if err := c.compileBlock(child, fn.Body); err != nil {
		return err
	}
	child.emit(Instruction{Op: OpReturn, A: 0, B: 1})
	fs.proto.Protos = append(fs.proto.Protos, child.proto)
	fs.emit(Instruction{Op: OpClosure, A: dst, B: len(fs.proto.Protos) - 1})
	return nil
}

// compileExprTo evaluates e and places the result in register dst,
// returning dst for call-chaining convenience.
func (c *compilerCtx) compileExprTo(fs *funcState, e Expr, dst int) (int, error) {
	switch ex := e.(type) {
	case *NilExpr:
		fs.emit(Instruction{Op: OpLoadNil, A: dst})
	case *TrueExpr:
		fs.emit(Instruction{Op: OpLoadBool, A: dst, B: 1})
	case *FalseExpr:
		fs.emit(Instruction{Op: OpLoadBool, A: dst, B: 0})
	case *VarargExpr:
		fs.emit(Instruction{Op: OpVararg, A: dst, B: 2})
	case *NumberExpr:
		fs.emit(Instruction{Op: OpLoadK, A: dst, B: fs.constIndex(Const{Kind: ConstNumber, Num: ex.Value})})
	case *StringExpr:
		fs.emit(Instruction{Op: OpLoadK, A: dst, B: fs.constIndex(Const{Kind: ConstString, Str: ex.Value})})
	case *NameExpr:
		if reg, ok := fs.resolveLocal(ex.Name); ok {
			if reg != dst {
				fs.emit(Instruction{Op: OpMove, A: dst, B: reg})
			}
		} else if idx, ok := fs.resolveUpval(ex.Name); ok {
			fs.emit(Instruction{Op: OpGetUpval, A: dst, B: idx})
		} else {
			k := fs.constIndex(Const{Kind: ConstString, Str: ex.Name})
			fs.emit(Instruction{Op: OpGetGlobal, A: dst, B: k})
		}
	case *IndexExpr:
		if _, err := c.compileExprTo(fs, ex.Obj, dst); err != nil {
			return dst, err
		}
		keyReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.Key, keyReg); err != nil {
			return dst, err
		}
		fs.emit(Instruction{Op: OpGetTable, A: dst, B: dst, C: keyReg})
		fs.freeReg--
	case *FuncExpr:
		return dst, c.compileFuncExpr(fs, ex, dst)
	case *CallExpr:
		return c.compileCall(fs, ex.Fn, nil, ex.Args, dst)
	case *MethodCallExpr:
		return c.compileMethodCall(fs, ex, dst)
	case *BinExpr:
		return dst, c.compileBinExpr(fs, ex, dst)
	case *UnExpr:
		return dst, c.compileUnExpr(fs, ex, dst)
	case *TableExpr:
		return dst, c.compileTableExpr(fs, ex, dst)
	default:
		return dst, fmt.Errorf("unsupported expression %T", e)
	}
	return dst, nil
}

func (c *compilerCtx) compileCall(fs *funcState, fnExpr Expr, selfObj Expr, args []Expr, dst int) (int, error) {
	base := dst
	if _, err := c.compileExprTo(fs, fnExpr, base); err != nil {
		return dst, err
	}
	fs.freeReg = base + 1
	nargs := 0
	if selfObj != nil {
		reg := fs.reserveReg()
		fs.emit(Instruction{Op: OpMove, A: reg, B: base}) // placeholder, overwritten by caller
		nargs++
	}
	for _, a := range args {
		reg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, a, reg); err != nil {
			return dst, err
		}
		nargs++
	}
	fs.emit(Instruction{Op: OpCall, A: base, B: nargs + 1, C: 2})
	fs.freeReg = base + 1
	return dst, nil
}

func (c *compilerCtx) compileMethodCall(fs *funcState, ex *MethodCallExpr, dst int) (int, error) {
	base := dst
	objReg := fs.reserveReg()
	if _, err := c.compileExprTo(fs, ex.Obj, objReg); err != nil {
		return dst, err
	}
	k := fs.constIndex(Const{Kind: ConstString, Str: ex.Method})
	fs.emit(Instruction{Op: OpSelf, A: base, B: objReg, C: k})
	fs.freeReg = base + 2
	nargs := 1
	for _, a := range ex.Args {
		reg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, a, reg); err != nil {
			return dst, err
		}
		nargs++
	}
	fs.emit(Instruction{Op: OpCall, A: base, B: nargs + 1, C: 2})
	fs.freeReg = base + 1
	return dst, nil
}

var binOps = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "^": OpPow,
	"==": OpEq, "<": OpLt, "<=": OpLe,
}

func (c *compilerCtx) compileBinExpr(fs *funcState, ex *BinExpr, dst int) error {
	switch ex.Op {
	case "and":
		if _, err := c.compileExprTo(fs, ex.L, dst); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpTest, A: dst, C: 0})
		skip := fs.emit(Instruction{Op: OpJmp})
		if _, err := c.compileExprTo(fs, ex.R, dst); err != nil {
			return err
		}
		fs.patchJump(skip)
		return nil
	case "or":
		if _, err := c.compileExprTo(fs, ex.L, dst); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpTest, A: dst, C: 1})
		skip := fs.emit(Instruction{Op: OpJmp})
		if _, err := c.compileExprTo(fs, ex.R, dst); err != nil {
			return err
		}
		fs.patchJump(skip)
		return nil
	case "..":
		lReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.L, lReg); err != nil {
			return err
		}
		rReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.R, rReg); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpConcat, A: dst, B: lReg, C: rReg})
		fs.freeReg -= 2
		return nil
	case "~=":
		lReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.L, lReg); err != nil {
			return err
		}
		rReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.R, rReg); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpEq, A: dst, B: lReg, C: rReg})
		fs.emit(Instruction{Op: OpNot, A: dst, B: dst})
		fs.freeReg -= 2
		return nil
	case ">":
		return c.compileBinExpr(fs, &BinExpr{Op: "<", L: ex.R, R: ex.L}, dst)
	case ">=":
		return c.compileBinExpr(fs, &BinExpr{Op: "<=", L: ex.R, R: ex.L}, dst)
	default:
		op, ok := binOps[ex.Op]
		if !ok {
			return fmt.Errorf("unsupported operator %q", ex.Op)
		}
		lReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.L, lReg); err != nil {
			return err
		}
		rReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, ex.R, rReg); err != nil {
			return err
		}
		fs.emit(Instruction{Op: op, A: dst, B: lReg, C: rReg})
		fs.freeReg -= 2
		return nil
	}
}

func (c *compilerCtx) compileUnExpr(fs *funcState, ex *UnExpr, dst int) error {
	if _, err := c.compileExprTo(fs, ex.E, dst); err != nil {
		return err
	}
	switch ex.Op {
	case "-":
		fs.emit(Instruction{Op: OpUnm, A: dst, B: dst})
	case "not":
		fs.emit(Instruction{Op: OpNot, A: dst, B: dst})
	case "#":
		fs.emit(Instruction{Op: OpLen, A: dst, B: dst})
	default:
		return fmt.Errorf("unsupported unary operator %q", ex.Op)
	}
	return nil
}

func (c *compilerCtx) compileTableExpr(fs *funcState, ex *TableExpr, dst int) error {
	fs.emit(Instruction{Op: OpNewTable, A: dst})
	arrayIdx := 1
	for i, key := range ex.AKeys {
		val := ex.AVals[i]
		if key == nil {
			valReg := fs.reserveReg()
			if _, err := c.compileExprTo(fs, val, valReg); err != nil {
				return err
			}
			keyReg := fs.reserveReg()
			fs.emit(Instruction{Op: OpLoadK, A: keyReg, B: fs.constIndex(Const{Kind: ConstNumber, Num: float64(arrayIdx)})})
			fs.emit(Instruction{Op: OpSetTable, A: dst, B: keyReg, C: valReg})
			fs.freeReg -= 2
			arrayIdx++
			continue
		}
		keyReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, key, keyReg); err != nil {
			return err
		}
		valReg := fs.reserveReg()
		if _, err := c.compileExprTo(fs, val, valReg); err != nil {
			return err
		}
		fs.emit(Instruction{Op: OpSetTable, A: dst, B: keyReg, C: valReg})
		fs.freeReg -= 2
	}
	return nil
}
