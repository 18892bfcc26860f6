package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/lua/compiler"
)

func mustCompile(t *testing.T, src string) *compiler.FunctionProto {
	t.Helper()
	block, err := compiler.ParseChunk(src)
	require.NoError(t, err)
	proto, err := compiler.Compile(block, "test")
	require.NoError(t, err)
	return proto
}

func TestParseSimpleAssignment(t *testing.T) {
	block, err := compiler.ParseChunk(`local x = 1 + 2`)
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)
	local, ok := block.Stmts[0].(*compiler.LocalStmt)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, local.Names)
}

func TestParseIfElseif(t *testing.T) {
	_, err := compiler.ParseChunk(`
		if a then
			b = 1
		elseif c then
			b = 2
		else
			b = 3
		end
	`)
	require.NoError(t, err)
}

func TestParseNumericFor(t *testing.T) {
	_, err := compiler.ParseChunk(`
		local sum = 0
		for i = 1, 10, 2 do
			sum = sum + i
		end
	`)
	require.NoError(t, err)
}

func TestParseGenericFor(t *testing.T) {
	_, err := compiler.ParseChunk(`
		for k, v in pairs(t) do
			print(k, v)
		end
	`)
	require.NoError(t, err)
}

func TestParseFunctionAndCall(t *testing.T) {
	_, err := compiler.ParseChunk(`
		local function add(a, b)
			return a + b
		end
		return add(1, 2)
	`)
	require.NoError(t, err)
}

func TestParseMethodCallAndTable(t *testing.T) {
	_, err := compiler.ParseChunk(`
		local t = { 1, 2, x = "y" }
		return t:method(1, 2)
	`)
	require.NoError(t, err)
}

func TestCompileProducesInstructions(t *testing.T) {
	proto := mustCompile(t, `local x = 1 + 2 return x`)
	assert.NotEmpty(t, proto.Code)
	assert.NotEmpty(t, proto.Constants)
}

func TestCompileNestedClosureCapturesUpvalue(t *testing.T) {
	proto := mustCompile(t, `
		local x = 10
		local function f()
			return x
		end
		return f()
	`)
	require.Len(t, proto.Protos, 1)
	inner := proto.Protos[0]
	require.Len(t, inner.Upvalues, 1)
	assert.Equal(t, "x", inner.Upvalues[0].Name)
	assert.True(t, inner.Upvalues[0].FromStack)
}

func TestCompileWhileLoopEmitsBackwardJump(t *testing.T) {
	proto := mustCompile(t, `
		local i = 0
		while i < 10 do
			i = i + 1
		end
	`)
	foundBackward := false
	for idx, in := range proto.Code {
		if in.Op == compiler.OpJmp && in.Sbx < 0 {
			_ = idx
			foundBackward = true
		}
	}
	assert.True(t, foundBackward)
}

func TestCompileGlobalAssignmentUsesSetGlobal(t *testing.T) {
	proto := mustCompile(t, `answer = 42`)
	found := false
	for _, in := range proto.Code {
		if in.Op == compiler.OpSetGlobal {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompileReturnMultipleValues(t *testing.T) {
	proto := mustCompile(t, `return 1, 2, 3`)
	// the explicit return precedes the implicit trailing RETURN 0 1
	ret := proto.Code[len(proto.Code)-2]
	assert.Equal(t, compiler.OpReturn, ret.Op)
	assert.Equal(t, 4, ret.B)
}

func TestParseBreakOutsideLoopIsRejectedAtCompile(t *testing.T) {
	block, err := compiler.ParseChunk(`break`)
	require.NoError(t, err)
	_, err = compiler.Compile(block, "test")
	assert.Error(t, err)
}

func TestParseLongComment(t *testing.T) {
	_, err := compiler.ParseChunk(`
		--[[ this is
		a long comment ]]
		local x = 1
	`)
	require.NoError(t, err)
}
