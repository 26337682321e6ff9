package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
	"github.com/rahmanazhar/Kilat-Lang/internal/parser"
)

func compileSrc(t *testing.T, src string) *CodeObject {
	t.Helper()
	prog, lexErrs, parseErrs := parser.Parse(src, "<ujian>")
	require.Empty(t, lexErrs)
	require.Empty(t, parseErrs)
	code, err := Compile(prog, "<modul>")
	require.NoError(t, err)
	return code
}

// collectCode walks the nested CodeObject tree, root first.
func collectCode(code *CodeObject) []*CodeObject {
	out := []*CodeObject{code}
	for _, c := range code.Constants {
		if nested, ok := c.(*CodeObject); ok {
			out = append(out, collectCode(nested)...)
		}
	}
	return out
}

func isJump(op Opcode) bool {
	switch op {
	case JUMP_ABSOLUTE, JUMP_IF_FALSE, JUMP_IF_TRUE,
		JUMP_IF_FALSE_OR_POP, JUMP_IF_TRUE_OR_POP, FOR_ITER, SETUP_TRY, CONTINUE_LOOP:
		return true
	}
	return false
}

func TestJumpTargetsInRange(t *testing.T) {
	src := `jika 1 < 2:
    cetak("a")
ataujika 2 < 3:
    cetak("b")
atau:
    cetak("c")
selagi salah:
    jika benar:
        berhenti
    teruskan
untuk diulang i, v dalam [(1, 2)]:
    jika i == 1:
        berhenti
cuba:
    bangkit "x"
tangkap RalatNilai sebagai e:
    cetak(e)
tangkap:
    lulus
akhirnya:
    cetak("akhir")
fungsi f(a, b=2):
    kembali a dan b atau_logik tiada
cetak([x untuk diulang x dalam julat(3) jika x > 0])
`
	for _, code := range collectCode(compileSrc(t, src)) {
		for i, instr := range code.Instructions {
			if isJump(instr.Op) {
				assert.GreaterOrEqual(t, int(instr.Arg), 0,
					"%s: arahan %d sasaran negatif", code.Name, i)
				assert.LessOrEqual(t, int(instr.Arg), len(code.Instructions),
					"%s: arahan %d sasaran luar julat", code.Name, i)
			}
		}
	}
}

func TestFunctionCodeEndsWithReturn(t *testing.T) {
	code := compileSrc(t, "fungsi f():\n    x = 1\n")
	all := collectCode(code)
	require.Len(t, all, 2)
	fn := all[1]
	n := len(fn.Instructions)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, RETURN_VALUE, fn.Instructions[n-1].Op)
	assert.Equal(t, LOAD_CONST, fn.Instructions[n-2].Op)
}

func TestExpressionStatementPopsValue(t *testing.T) {
	code := compileSrc(t, "1 + 2\n")
	n := len(code.Instructions)
	require.GreaterOrEqual(t, n, 1)
	assert.Equal(t, POP_TOP, code.Instructions[n-1].Op)
}

func TestScalarConstantsDeduplicate(t *testing.T) {
	code := compileSrc(t, "x = 7\ny = 7\nz = 7.5\n")
	ints := 0
	for _, c := range code.Constants {
		if iv, ok := c.(*object.Int); ok && iv.V.Int64() == 7 {
			ints++
		}
	}
	assert.Equal(t, 1, ints)
}

func TestBreakOutsideLoopFails(t *testing.T) {
	prog, _, parseErrs := parser.Parse("berhenti\n", "<ujian>")
	require.Empty(t, parseErrs)
	_, err := Compile(prog, "<modul>")
	require.Error(t, err)
}

func TestYieldRejectedInBytecode(t *testing.T) {
	prog, _, parseErrs := parser.Parse("fungsi g():\n    berikan 1\n", "<ujian>")
	require.Empty(t, parseErrs)
	_, err := Compile(prog, "<modul>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "berikan")
}

func TestLateGlobalRejected(t *testing.T) {
	prog, _, parseErrs := parser.Parse("fungsi f():\n    x = 1\n    global y\n", "<ujian>")
	require.Empty(t, parseErrs)
	_, err := Compile(prog, "<modul>")
	require.Error(t, err)
}

func TestBareExceptMatchArgIsMinusOne(t *testing.T) {
	code := compileSrc(t, "cuba:\n    lulus\ntangkap:\n    lulus\n")
	found := false
	for _, instr := range code.Instructions {
		if instr.Op == MATCH_EXCEPTION {
			assert.Equal(t, int16(-1), instr.Arg)
			found = true
		}
	}
	assert.True(t, found)
}

func TestNamesDeduplicate(t *testing.T) {
	code := compileSrc(t, "x = 1\nx = 2\ncetak(x)\n")
	seen := map[string]int{}
	for _, n := range code.Names {
		seen[n]++
	}
	assert.Equal(t, 1, seen["x"])
}

func TestNonlocalAssignEmitsStoreName(t *testing.T) {
	src := `fungsi luar():
    n = 1
    fungsi dalam_():
        nonlokal n
        n = 2
    dalam_()
    kembali n
`
	all := collectCode(compileSrc(t, src))
	require.Len(t, all, 3)
	inner := all[2]
	var stores []Opcode
	for _, instr := range inner.Instructions {
		if instr.Op == STORE_NAME || instr.Op == STORE_NAME_DEFINE {
			stores = append(stores, instr.Op)
		}
	}
	require.NotEmpty(t, stores)
	assert.Equal(t, STORE_NAME, stores[0])
}

func TestDecoratedFunctionCallsDecorator(t *testing.T) {
	src := "@hias\nfungsi f():\n    lulus\n"
	code := compileSrc(t, src)
	var ops []Opcode
	for _, instr := range code.Instructions {
		ops = append(ops, instr.Op)
	}
	assert.Contains(t, ops, MAKE_FUNCTION)
	assert.Contains(t, ops, ROT_TWO)
	assert.Contains(t, ops, CALL_FUNCTION)
}

func TestParseDeterminism(t *testing.T) {
	src := "fungsi f(a, b=1):\n    kembali [x untuk diulang x dalam julat(a) jika x != b]\n"
	first := compileSrc(t, src)
	for i := 0; i < 3; i++ {
		again := compileSrc(t, src)
		assertCodeEqual(t, first, again)
	}
}

func assertCodeEqual(t *testing.T, want, got *CodeObject) {
	t.Helper()
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.ParamCount, got.ParamCount)
	require.Equal(t, want.ParamNames, got.ParamNames)
	require.Equal(t, want.VarArgs, got.VarArgs)
	require.Equal(t, want.KwArgs, got.KwArgs)
	require.Equal(t, want.Names, got.Names)
	require.Equal(t, want.Instructions, got.Instructions)
	require.Equal(t, len(want.Constants), len(got.Constants))
	for i := range want.Constants {
		assertConstEqual(t, want.Constants[i], got.Constants[i])
	}
}

func assertConstEqual(t *testing.T, want, got object.Value) {
	t.Helper()
	if wc, ok := want.(*CodeObject); ok {
		gc, ok := got.(*CodeObject)
		require.True(t, ok)
		assertCodeEqual(t, wc, gc)
		return
	}
	if wl, ok := want.(*object.List); ok {
		gl, ok := got.(*object.List)
		require.True(t, ok)
		require.Equal(t, len(wl.Elems), len(gl.Elems))
		for i := range wl.Elems {
			assertConstEqual(t, wl.Elems[i], gl.Elems[i])
		}
		return
	}
	require.True(t, object.Equal(want, got), "pemalar %s != %s", object.Repr(want), object.Repr(got))
}
