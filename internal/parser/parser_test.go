package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, lexErrs, parseErrs := Parse(src, "test.klt")
	require.Empty(t, lexErrs)
	require.Empty(t, parseErrs)
	return prog
}

func TestSimpleAssignAndExprStmt(t *testing.T) {
	prog := parseOK(t, "x = 1 + 2 * 3\ncetak(x)\n")
	require.Len(t, prog.Stmts, 2)

	assign, ok := prog.Stmts[0].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
	bin, ok := assign.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	exprStmt, ok := prog.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	call, ok := exprStmt.Expr.(*ast.Call)
	require.True(t, ok)
	callee := call.Callee.(*ast.Identifier)
	assert.Equal(t, "cetak", callee.Name)
}

func TestPowerRightAssociative(t *testing.T) {
	prog := parseOK(t, "r = 2 ** 3 ** 2\n")
	assign := prog.Stmts[0].(*ast.Assign)
	outer := assign.Expr.(*ast.Binary)
	assert.Equal(t, "**", outer.Op)
	inner, ok := outer.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "**", inner.Op)
	_, leftIsNumber := outer.Left.(*ast.Number)
	assert.True(t, leftIsNumber)
}

func TestTernaryExpression(t *testing.T) {
	prog := parseOK(t, "r = 1 jika benar atau 2\n")
	assign := prog.Stmts[0].(*ast.Assign)
	tern, ok := assign.Expr.(*ast.Ternary)
	require.True(t, ok)
	_, trueIsNumber := tern.TrueVal.(*ast.Number)
	_, condIsBool := tern.Cond.(*ast.Bool)
	assert.True(t, trueIsNumber)
	assert.True(t, condIsBool)
}

func TestMultiAssign(t *testing.T) {
	prog := parseOK(t, "a, b = 1, 2\n")
	m, ok := prog.Stmts[0].(*ast.MultiAssign)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Names)
	tup, ok := m.Expr.(*ast.Tuple)
	require.True(t, ok)
	assert.Len(t, tup.Elems, 2)
}

func TestAugAssignOnAttribute(t *testing.T) {
	prog := parseOK(t, "obj.n += 1\n")
	attrAssign, ok := prog.Stmts[0].(*ast.AttrAssign)
	require.True(t, ok)
	assert.Equal(t, "n", attrAssign.Name)
	bin, ok := attrAssign.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	_, leftIsAttr := bin.Left.(*ast.Attribute)
	assert.True(t, leftIsAttr)
}

func TestIfElifElse(t *testing.T) {
	src := "jika a:\n    b = 1\nataujika c:\n    b = 2\natau:\n    b = 3\n"
	prog := parseOK(t, src)
	ifNode, ok := prog.Stmts[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, ifNode.Elifs, 1)
	require.NotNil(t, ifNode.Else)
}

func TestForWithTupleUnpack(t *testing.T) {
	prog := parseOK(t, "untuk diulang i, v dalam a:\n    cetak(i, v)\n")
	forNode, ok := prog.Stmts[0].(*ast.For)
	require.True(t, ok)
	assert.Equal(t, []string{"i", "v"}, forNode.Vars)
}

func TestListComprehensionWithCondition(t *testing.T) {
	prog := parseOK(t, "r = [x*x untuk diulang x dalam julat(4) jika x % 2 == 0]\n")
	assign := prog.Stmts[0].(*ast.Assign)
	comp, ok := assign.Expr.(*ast.ListComp)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, comp.Vars)
	require.NotNil(t, comp.Cond)
}

func TestFunctionDefParamOrdering(t *testing.T) {
	src := "fungsi f(a, b=1, *args, **kwargs):\n    kembali a\n"
	prog := parseOK(t, src)
	fn, ok := prog.Stmts[0].(*ast.FunctionDef)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	assert.Len(t, fn.Defaults, 1)
	assert.Equal(t, "args", fn.VarArgs)
	assert.Equal(t, "kwargs", fn.KwArgs)
}

func TestFunctionDefRequiredAfterDefaultIsError(t *testing.T) {
	_, _, errs := Parse("fungsi f(a=1, b):\n    kembali a\n", "test.klt")
	assert.NotEmpty(t, errs)
}

func TestSingleLineMethodBody(t *testing.T) {
	src := "kelas A:\n    fungsi bagi(self): kembali self.x\n"
	prog := parseOK(t, src)
	class := prog.Stmts[0].(*ast.ClassDef)
	method := class.Body[0].(*ast.FunctionDef)
	require.Len(t, method.Body, 1)
	_, ok := method.Body[0].(*ast.Return)
	assert.True(t, ok)
}

func TestClassWithBase(t *testing.T) {
	src := "kelas B(A):\n    fungsi bagi(self): kembali self.x * 2\n"
	prog := parseOK(t, src)
	class := prog.Stmts[0].(*ast.ClassDef)
	assert.Equal(t, "A", class.BaseClass)
}

func TestTryExceptFinally(t *testing.T) {
	src := "cuba:\n    bangkit \"ralat\"\ntangkap sebagai e:\n    cetak(e)\nakhirnya:\n    cetak(\"akhir\")\n"
	prog := parseOK(t, src)
	tryNode, ok := prog.Stmts[0].(*ast.Try)
	require.True(t, ok)
	require.Len(t, tryNode.Handlers, 1)
	assert.Equal(t, "", tryNode.Handlers[0].TypeName)
	assert.Equal(t, "e", tryNode.Handlers[0].Alias)
	require.NotNil(t, tryNode.Finally)
}

func TestFStringSplitsLiteralAndExpressionParts(t *testing.T) {
	prog := parseOK(t, "r = f\"hello {nama}!\"\n")
	assign := prog.Stmts[0].(*ast.Assign)
	fs, ok := assign.Expr.(*ast.FString)
	require.True(t, ok)
	require.Len(t, fs.Parts, 3)
	lit1, ok := fs.Parts[0].(*ast.String)
	require.True(t, ok)
	assert.Equal(t, "hello ", lit1.Value)
	ident, ok := fs.Parts[1].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "nama", ident.Name)
	lit2, ok := fs.Parts[2].(*ast.String)
	require.True(t, ok)
	assert.Equal(t, "!", lit2.Value)
}

func TestConsecutiveStringConcatenation(t *testing.T) {
	prog := parseOK(t, "r = \"a\" \"b\"\n")
	assign := prog.Stmts[0].(*ast.Assign)
	str, ok := assign.Expr.(*ast.String)
	require.True(t, ok)
	assert.Equal(t, "ab", str.Value)
}

func TestDecoratorAppliedToFunction(t *testing.T) {
	src := "@pendaftar\nfungsi f():\n    lulus\n"
	prog := parseOK(t, src)
	fn := prog.Stmts[0].(*ast.FunctionDef)
	require.Len(t, fn.Decorators, 1)
	_, ok := fn.Decorators[0].(*ast.Identifier)
	assert.True(t, ok)
}

func TestLambdaExpression(t *testing.T) {
	prog := parseOK(t, "f = lambda x, y=1: x + y\n")
	assign := prog.Stmts[0].(*ast.Assign)
	lam, ok := assign.Expr.(*ast.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lam.Params)
	assert.Len(t, lam.Defaults, 1)
}

func TestSliceExpression(t *testing.T) {
	prog := parseOK(t, "r = a[1:2:3]\n")
	assign := prog.Stmts[0].(*ast.Assign)
	idx, ok := assign.Expr.(*ast.Index)
	require.True(t, ok)
	slice, ok := idx.Idx.(*ast.Slice)
	require.True(t, ok)
	require.NotNil(t, slice.Start)
	require.NotNil(t, slice.Stop)
	require.NotNil(t, slice.Step)
}
