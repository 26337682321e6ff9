package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
	"github.com/rahmanazhar/Kilat-Lang/internal/parser"
)

// run executes src and returns captured stdout.
func run(t *testing.T, src string) string {
	t.Helper()
	prog, lexErrs, parseErrs := parser.Parse(src, "<ujian>")
	require.Empty(t, lexErrs)
	require.Empty(t, parseErrs)
	var out bytes.Buffer
	i := NewWithIO(&out, strings.NewReader(""))
	require.NoError(t, i.Run(prog))
	return out.String()
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	prog, lexErrs, parseErrs := parser.Parse(src, "<ujian>")
	require.Empty(t, lexErrs)
	require.Empty(t, parseErrs)
	var out bytes.Buffer
	i := NewWithIO(&out, strings.NewReader(""))
	return i.Run(prog)
}

func TestHello(t *testing.T) {
	assert.Equal(t, "Salam, Dunia!\n", run(t, `cetak("Salam, Dunia!")`))
}

func TestArithmeticPrecedence(t *testing.T) {
	out := run(t, "cetak(2 + 3 * 4)\ncetak(2 ** 3 ** 2)\n")
	assert.Equal(t, "14\n512\n", out)
}

func TestForUnpackAndListComp(t *testing.T) {
	src := `a = [(1,"a"),(2,"b")]
untuk diulang i, v dalam a:
    cetak(i, v)
cetak([x*x untuk diulang x dalam julat(4) jika x % 2 == 0])
`
	assert.Equal(t, "1 a\n2 b\n[0, 4]\n", run(t, src))
}

func TestDefaultAndClosure(t *testing.T) {
	src := `fungsi buat(n=10):
    fungsi dalaman(x):
        kembali x + n
    kembali dalaman
f = buat()
cetak(f(5))
`
	assert.Equal(t, "15\n", run(t, src))
}

func TestExceptionHandlerAndFinally(t *testing.T) {
	src := `cuba:
    bangkit "ralat"
tangkap sebagai e:
    cetak("tangkap:", e)
akhirnya:
    cetak("akhir")
`
	assert.Equal(t, "tangkap: ralat\nakhir\n", run(t, src))
}

func TestClassInheritance(t *testing.T) {
	src := `kelas A:
    fungsi __init__(self, x): self.x = x
    fungsi bagi(self): kembali self.x
kelas B(A):
    fungsi bagi(self): kembali self.x * 2
cetak(B(7).bagi())
`
	assert.Equal(t, "14\n", run(t, src))
}

func TestClosureObservesLaterMutation(t *testing.T) {
	// A returned closure sees mutations made in the enclosing scope after
	// the closure was created.
	src := `fungsi luar():
    n = 1
    fungsi dalam_():
        kembali n
    n = 2
    kembali dalam_
cetak(luar()())
`
	assert.Equal(t, "2\n", run(t, src))
}

func TestTruthinessTable(t *testing.T) {
	cases := []struct {
		value object.Value
		want  bool
	}{
		{object.None, false},
		{object.False, false},
		{object.True, true},
		{object.NewInt(0), false},
		{object.NewInt(3), true},
		{&object.Float{V: 0}, false},
		{&object.Float{V: 0.5}, true},
		{&object.Str{V: ""}, false},
		{&object.Str{V: "x"}, true},
		{&object.List{}, false},
		{&object.List{Elems: []object.Value{object.None}}, true},
		{&object.Tuple{}, false},
		{object.NewDict(), false},
		{object.NewSet(), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, object.Truthy(tc.value), "truthy(%s)", tc.value)
	}
}

func TestWhileBreakContinue(t *testing.T) {
	src := `i = 0
selagi benar:
    i += 1
    jika i == 3:
        teruskan
    jika i > 5:
        berhenti
    cetak(i)
`
	assert.Equal(t, "1\n2\n4\n5\n", run(t, src))
}

func TestGlobalDeclaration(t *testing.T) {
	src := `x = 1
fungsi ubah():
    global x
    x = 5
ubah()
cetak(x)
`
	assert.Equal(t, "5\n", run(t, src))
}

func TestNonlocalResolvesToEnclosingScope(t *testing.T) {
	src := `fungsi luar():
    n = 1
    fungsi naikkan():
        nonlokal n
        n = n + 10
    naikkan()
    kembali n
cetak(luar())
`
	assert.Equal(t, "11\n", run(t, src))
}

func TestVarArgsAndKwArgs(t *testing.T) {
	src := `fungsi f(a, *lebihan, **kk):
    cetak(a, lebihan, panjang(kk))
f(1, 2, 3, nama="x")
`
	assert.Equal(t, "1 (2, 3) 1\n", run(t, src))
}

func TestLazyDefaultSeesCurrentBinding(t *testing.T) {
	// Defaults evaluate at call time in the defining scope, so a later
	// rebinding of the referenced name is observed.
	src := `asas = 1
fungsi f(x=asas):
    kembali x
asas = 9
cetak(f())
`
	assert.Equal(t, "9\n", run(t, src))
}

func TestDecoratorOrder(t *testing.T) {
	src := `fungsi gandakan(f):
    fungsi balut(x):
        kembali f(x) * 2
    kembali balut
fungsi tambah_satu(f):
    fungsi balut(x):
        kembali f(x) + 1
    kembali balut
@gandakan
@tambah_satu
fungsi asal(x):
    kembali x
cetak(asal(5))
`
	// Innermost decorator applies first: gandakan(tambah_satu(asal)).
	assert.Equal(t, "12\n", run(t, src))
}

func TestNamedHandlerMatchesKind(t *testing.T) {
	src := `cuba:
    x = 1 / 0
tangkap RalatPembahagian sebagai e:
    cetak("bahagi:", e)
`
	assert.Equal(t, "bahagi: Pembahagian dengan sifar\n", run(t, src))
}

func TestUnmatchedHandlerPropagates(t *testing.T) {
	src := `cuba:
    x = 1 / 0
tangkap RalatIndeks:
    cetak("salah")
`
	err := runErr(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pembahagian dengan sifar")
}

func TestUncaughtRaiseCarriesValue(t *testing.T) {
	err := runErr(t, `bangkit 42`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	err := runErr(t, "berhenti\n")
	require.Error(t, err)
}

func TestTernary(t *testing.T) {
	out := run(t, `cetak("ya" jika 1 < 2 atau "tidak")`)
	assert.Equal(t, "ya\n", out)
}

func TestLambdaAndPeta(t *testing.T) {
	out := run(t, "cetak(peta(lambda x: x * 3, [1, 2]))\n")
	assert.Equal(t, "[3, 6]\n", out)
}

func TestFStringInterpolation(t *testing.T) {
	src := `nama = "Dunia"
cetak(f"Salam, {nama}! {1 + 2}")
`
	assert.Equal(t, "Salam, Dunia! 3\n", run(t, src))
}

func TestMultiAssign(t *testing.T) {
	out := run(t, "a, b = 1, 2\ncetak(a + b)\n")
	assert.Equal(t, "3\n", out)
}

func TestSliceAndNegativeIndex(t *testing.T) {
	src := `s = [1, 2, 3, 4, 5]
cetak(s[1:3])
cetak(s[-1])
cetak(s[::-1])
`
	assert.Equal(t, "[2, 3]\n5\n[5, 4, 3, 2, 1]\n", run(t, src))
}

func TestArbitraryPrecisionIntegers(t *testing.T) {
	out := run(t, "cetak(2 ** 100)\n")
	assert.Equal(t, "1267650600228229401496703205376\n", out)
}

func TestLateGlobalRejected(t *testing.T) {
	src := `fungsi f():
    x = 1
    global y
f()
`
	err := runErr(t, src)
	require.Error(t, err)
}

func TestAugAssignWalksToBindingScope(t *testing.T) {
	src := `jum = 0
fungsi kumpul():
    jum += 5
kumpul()
cetak(jum)
`
	assert.Equal(t, "5\n", run(t, src))
}

func TestClassLevelConstantVisibleInMethod(t *testing.T) {
	src := `kelas Bulatan:
    PI = 3
    fungsi luas(self, r):
        kembali PI * r * r
cetak(Bulatan().luas(2))
`
	assert.Equal(t, "12\n", run(t, src))
}
