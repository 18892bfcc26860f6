package compiler

// Op is a register-machine instruction opcode, modeled on the
// Lua 5.1 instruction set.
type Op int

const (
	OpMove Op = iota
	OpLoadK
	OpLoadBool
	OpLoadNil
	OpGetGlobal
	OpSetGlobal
	OpGetUpval
	OpSetUpval
	OpGetTable
	OpSetTable
	OpNewTable
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpUnm
	OpNot
	OpLen
	OpConcat
	OpJmp
	OpEq
	OpLt
	OpLe
	OpTest
	OpCall
	OpTailCall
	OpReturn
	OpForPrep
	OpForLoop
	OpTForLoop
	OpClosure
	OpVararg
	OpSelf
)

// Instruction is one register-machine operation. Not every field is
// meaningful for every Op; A/B/C follow the Lua 5.1 convention of
// destination-then-operands, and most operand registers are relative
// to the executing call frame's register window.
type Instruction struct {
	Op Op
	A  int
	B  int
	C  int
	// Sbx carries a signed jump offset for OpJmp/OpForPrep/OpForLoop.
	Sbx int
}

// UpvalDesc says where a closure's upvalue comes from: a register in
// the immediately enclosing function (FromStack=true) or an upvalue
// index already captured by the enclosing function.
type UpvalDesc struct {
	Name      string
	FromStack bool
	Index     int
}

// FunctionProto is the compiled form of one Lua function body: its
// constant pool, instruction list, nested prototypes for closures it
// creates, and the upvalues it itself captures from its enclosing
// scope.
type FunctionProto struct {
	Params     []string
	IsVararg   bool
	NumRegs    int
	Constants  []Const
	Code       []Instruction
	Protos     []*FunctionProto
	Upvalues   []UpvalDesc
	Source     string
	LineDefined int
}

// ConstKind distinguishes the constant-pool entry kinds a LOADK
// instruction can reference.
type ConstKind int

const (
	ConstNil ConstKind = iota
	ConstTrue
	ConstFalse
	ConstNumber
	ConstString
)

type Const struct {
	Kind ConstKind
	Num  float64
	Str  string
}
