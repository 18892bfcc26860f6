package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/lua/compiler"
	"github.com/dreamware/redcore/internal/lua/heap"
	"github.com/dreamware/redcore/internal/lua/vm"
)

func run(t *testing.T, src string) ([]heap.Value, *vm.VM) {
	t.Helper()
	block, err := compiler.ParseChunk(src)
	require.NoError(t, err)
	proto, err := compiler.Compile(block, "test")
	require.NoError(t, err)
	h := heap.New()
	machine := vm.New(h)
	results, err := machine.Run(proto, nil)
	require.NoError(t, err)
	return results, machine
}

func TestArithmeticReturn(t *testing.T) {
	results, _ := run(t, `return 1 + 2 * 3`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(7), results[0].Number)
}

func TestStringConcat(t *testing.T) {
	results, _ := run(t, `return "a" .. "b" .. 1`)
	require.Len(t, results, 1)
	assert.Equal(t, heap.KindString, results[0].Kind)
}

func TestWhileLoopAccumulates(t *testing.T) {
	results, _ := run(t, `
		local i = 0
		local sum = 0
		while i < 5 do
			i = i + 1
			sum = sum + i
		end
		return sum
	`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(15), results[0].Number)
}

func TestNumericForLoop(t *testing.T) {
	results, _ := run(t, `
		local sum = 0
		for i = 1, 5 do
			sum = sum + i
		end
		return sum
	`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(15), results[0].Number)
}

func TestNumericForLoopSkipsWhenOutOfRange(t *testing.T) {
	results, _ := run(t, `
		local sum = 0
		for i = 5, 1 do
			sum = sum + 1
		end
		return sum
	`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(0), results[0].Number)
}

func TestFunctionCallAndReturn(t *testing.T) {
	results, _ := run(t, `
		local function add(a, b)
			return a + b
		end
		return add(3, 4)
	`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(7), results[0].Number)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	results, _ := run(t, `
		local function counter()
			local n = 0
			return function()
				n = n + 1
				return n
			end
		end
		local c = counter()
		c()
		c()
		return c()
	`)
	require.Len(t, results, 1)
	assert.Equal(t, float64(3), results[0].Number)
}

func TestIfElseBranching(t *testing.T) {
	results, _ := run(t, `
		local x = 10
		if x > 5 then
			return "big"
		else
			return "small"
		end
	`)
	require.Len(t, results, 1)
	assert.Equal(t, heap.KindString, results[0].Kind)
}

func TestTableIndexAndLength(t *testing.T) {
	results, _ := run(t, `
		local t = {1, 2, 3}
		t.x = "y"
		return #t, t.x
	`)
	require.Len(t, results, 2)
	assert.Equal(t, float64(3), results[0].Number)
}

func TestComparisonOperators(t *testing.T) {
	results, _ := run(t, `
		return 1 < 2, 2 <= 2, 1 == 1, 1 ~= 2
	`)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Bool)
	}
}

func TestNativeFunctionCall(t *testing.T) {
	h := heap.New()
	machine := vm.New(h)
	nh := h.RegisterNative(func(ctx heap.CallContext, args []heap.Value) ([]heap.Value, error) {
		return []heap.Value{heap.Number(args[0].Number * 2)}, nil
	})
	tbl, _ := h.Table(machine.Globals)
	tbl.Set(heap.StringVal(h.InternString("double")), heap.NativeVal(nh))

	block, err := compiler.ParseChunk(`return double(21)`)
	require.NoError(t, err)
	proto, err := compiler.Compile(block, "test")
	require.NoError(t, err)
	results, err := machine.Run(proto, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float64(42), results[0].Number)
}

func TestKillFlagAbortsLoop(t *testing.T) {
	block, err := compiler.ParseChunk(`
		while true do
		end
	`)
	require.NoError(t, err)
	proto, err := compiler.Compile(block, "test")
	require.NoError(t, err)
	h := heap.New()
	machine := vm.New(h)
	machine.Kill()
	_, err = machine.Run(proto, nil)
	assert.ErrorIs(t, err, vm.ScriptKilled{})
}
