package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/compiler"
	"github.com/rahmanazhar/Kilat-Lang/internal/interp"
	"github.com/rahmanazhar/Kilat-Lang/internal/parser"
)

func compileSrc(t *testing.T, src string) *compiler.CodeObject {
	t.Helper()
	prog, lexErrs, parseErrs := parser.Parse(src, "<ujian>")
	require.Empty(t, lexErrs)
	require.Empty(t, parseErrs)
	code, err := compiler.Compile(prog, "<modul>")
	require.NoError(t, err)
	return code
}

func runVM(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	vm := NewWithIO(&out, strings.NewReader(""))
	require.NoError(t, vm.Run(compileSrc(t, src)))
	return out.String()
}

func runVMErr(t *testing.T, src string) error {
	t.Helper()
	var out bytes.Buffer
	vm := NewWithIO(&out, strings.NewReader(""))
	return vm.Run(compileSrc(t, src))
}

// The designated end-to-end suite: native interpretation and bytecode
// execution must agree byte for byte on standard output.
var agreementPrograms = []struct {
	name string
	src  string
}{
	{"hello", `cetak("Salam, Dunia!")` + "\n"},
	{"arithmetic", "cetak(2 + 3 * 4)\ncetak(2 ** 3 ** 2)\n"},
	{"for_unpack_listcomp", `a = [(1,"a"),(2,"b")]
untuk diulang i, v dalam a:
    cetak(i, v)
cetak([x*x untuk diulang x dalam julat(4) jika x % 2 == 0])
`},
	{"default_closure", `fungsi buat(n=10):
    fungsi dalaman(x):
        kembali x + n
    kembali dalaman
f = buat()
cetak(f(5))
`},
	{"exception", `cuba:
    bangkit "ralat"
tangkap sebagai e:
    cetak("tangkap:", e)
akhirnya:
    cetak("akhir")
`},
	{"class_inheritance", `kelas A:
    fungsi __init__(self, x): self.x = x
    fungsi bagi(self): kembali self.x
kelas B(A):
    fungsi bagi(self): kembali self.x * 2
cetak(B(7).bagi())
`},
	{"while_break_continue", `i = 0
selagi benar:
    i += 1
    jika i == 3:
        teruskan
    jika i > 5:
        berhenti
    cetak(i)
`},
	{"short_circuit", `fungsi jerit(x):
    cetak("nilai", x)
    kembali x
cetak(jerit(0) dan jerit(1))
cetak(jerit(2) atau_logik jerit(3))
`},
	{"fstring", `nama = "Dunia"
cetak(f"Salam, {nama}! {1 + 2}")
`},
	{"ternary_lambda", `cetak("ya" jika 1 < 2 atau "tidak")
cetak(peta(lambda x: x * 3, [1, 2]))
`},
	{"dict_slices", `d = {"a": 1, "b": 2}
d["c"] = 3
cetak(d["a"] + d["c"])
s = [1, 2, 3, 4, 5]
cetak(s[1:3])
cetak(s[-1])
`},
	{"varargs_kwargs", `fungsi f(a, *lebihan, **kk):
    cetak(a, lebihan, panjang(kk))
f(1, 2, 3, nama="x")
`},
	{"globals", `x = 1
fungsi ubah():
    global x
    x = 5
ubah()
cetak(x)
`},
	{"bigint", "cetak(2 ** 100)\n"},
	{"named_handler", `cuba:
    x = 1 / 0
tangkap RalatPembahagian sebagai e:
    cetak("bahagi:", e)
`},
	{"decorators", `fungsi gandakan(f):
    fungsi balut(x):
        kembali f(x) * 2
    kembali balut
@gandakan
fungsi asal(x):
    kembali x
cetak(asal(5))
`},
	{"multi_assign", "a, b = 1, 2\ncetak(a + b)\n"},
	{"class_constant", `kelas Bulatan:
    PI = 3
    fungsi luas(self, r):
        kembali PI * r * r
cetak(Bulatan().luas(2))
`},
}

func TestInterpreterVMAgreement(t *testing.T) {
	for _, tc := range agreementPrograms {
		t.Run(tc.name, func(t *testing.T) {
			prog, lexErrs, parseErrs := parser.Parse(tc.src, "<ujian>")
			require.Empty(t, lexErrs)
			require.Empty(t, parseErrs)

			var nativeOut bytes.Buffer
			i := interp.NewWithIO(&nativeOut, strings.NewReader(""))
			require.NoError(t, i.Run(prog))

			vmOut := runVM(t, tc.src)
			assert.Equal(t, nativeOut.String(), vmOut)
		})
	}
}

func TestExceptionCrossesFrames(t *testing.T) {
	src := `fungsi dalam_():
    bangkit "masalah"
fungsi luar():
    dalam_()
cuba:
    luar()
tangkap sebagai e:
    cetak("dapat:", e)
`
	assert.Equal(t, "dapat: masalah\n", runVM(t, src))
}

func TestOperandStackRewindsOnException(t *testing.T) {
	// The failing division sits mid-expression, so operands are on the
	// stack when the exception fires; the handler must see a clean stack.
	src := `cuba:
    x = 1 + (2 / 0) + 3
tangkap RalatPembahagian:
    cetak("pulih")
cetak("selepas")
`
	assert.Equal(t, "pulih\nselepas\n", runVM(t, src))
}

func TestUnmatchedHandlerReRaises(t *testing.T) {
	src := `cuba:
    x = 1 / 0
tangkap RalatIndeks:
    cetak("salah")
`
	err := runVMErr(t, src)
	require.Error(t, err)
}

func TestNestedTryInnerCatches(t *testing.T) {
	src := `cuba:
    cuba:
        bangkit "dalam"
    tangkap sebagai e:
        cetak("dalam:", e)
    bangkit "luar"
tangkap sebagai e:
    cetak("luar:", e)
`
	assert.Equal(t, "dalam: dalam\nluar: luar\n", runVM(t, src))
}

func TestRecursionDepthGuard(t *testing.T) {
	src := `fungsi ulang():
    ulang()
ulang()
`
	var out bytes.Buffer
	vm := NewWithIO(&out, strings.NewReader(""))
	vm.MaxFrameDepth = 50
	err := vm.Run(compileSrc(t, src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rekursi")
}

func TestRunKLCBytes(t *testing.T) {
	code := compileSrc(t, `cetak("dari klc")`+"\n")
	data, err := compiler.Serialize(code)
	require.NoError(t, err)
	back, err := compiler.Deserialize(data)
	require.NoError(t, err)

	var out bytes.Buffer
	vm := NewWithIO(&out, strings.NewReader(""))
	require.NoError(t, vm.Run(back))
	assert.Equal(t, "dari klc\n", out.String())
}

func TestBreakDiscardsIterator(t *testing.T) {
	src := `untuk diulang x dalam [1, 2, 3]:
    jika x == 2:
        berhenti
    cetak(x)
cetak("tamat")
`
	assert.Equal(t, "1\ntamat\n", runVM(t, src))
}

func TestNonlocalStoreUpdatesEnclosing(t *testing.T) {
	src := `fungsi luar():
    n = 1
    fungsi naikkan():
        nonlokal n
        n = n + 10
    naikkan()
    kembali n
cetak(luar())
`
	assert.Equal(t, "11\n", runVM(t, src))
}

func TestVMDefaultsEvaluateAtDefinition(t *testing.T) {
	// Bytecode functions capture default values when MAKE_FUNCTION runs,
	// unlike the tree interpreter's lazy call-time evaluation.
	src := `asas = 1
fungsi f(x=asas):
    kembali x
asas = 9
cetak(f())
`
	assert.Equal(t, "1\n", runVM(t, src))
}
