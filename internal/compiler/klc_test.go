package compiler

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

func TestSerializeRoundTrip(t *testing.T) {
	src := `fungsi kira(a, b=2, *lebihan, **kk):
    jumlah_kecil = a + b
    untuk diulang x dalam lebihan:
        jumlah_kecil += x
    kembali jumlah_kecil
kelas Pekerja:
    GAJI_ASAS = 1500
    fungsi __init__(self, nama):
        self.nama = nama
    fungsi gaji(self):
        kembali GAJI_ASAS
cuba:
    cetak(kira(1, 2, 3), f"nilai {kira(0)}")
tangkap RalatNilai sebagai e:
    cetak(e)
`
	code := compileSrc(t, src)
	data, err := Serialize(code)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	assertCodeEqual(t, code, back)
}

func TestSerializeRoundTripScalars(t *testing.T) {
	code := NewCodeObject("<modul>")
	for _, c := range []object.Value{
		object.None, object.True, object.False,
		object.NewInt(-42), object.NewInt(1 << 40),
		&object.Float{V: 3.5}, &object.Str{V: "salam"},
		&object.List{Elems: []object.Value{&object.Str{V: "a"}, object.NewInt(1)}},
	} {
		code.Constants = append(code.Constants, c)
	}
	code.Emit(LOAD_CONST, 0, 1)
	code.Emit(MATCH_EXCEPTION, -1, 2)
	code.Emit(RETURN_VALUE, 0, 3)

	data, err := Serialize(code)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	assertCodeEqual(t, code, back)

	// The signed arg survives the i16 encoding.
	assert.Equal(t, int16(-1), back.Instructions[1].Arg)
}

func TestMagicAndVersionChecks(t *testing.T) {
	code := NewCodeObject("<modul>")
	data, err := Serialize(code)
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	_, err = Deserialize(bad)
	require.Error(t, err)

	newer := append([]byte(nil), data...)
	newer[4] = 2 // major
	_, err = Deserialize(newer)
	require.Error(t, err)
}

func TestInstructionFixedWidth(t *testing.T) {
	code := NewCodeObject("x")
	base, err := Serialize(code)
	require.NoError(t, err)
	code.Emit(NOP, 0, 0)
	one, err := Serialize(code)
	require.NoError(t, err)
	assert.Equal(t, 5, len(one)-len(base))
}

func TestHugeIntConstantRejected(t *testing.T) {
	code := NewCodeObject("x")
	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	code.Constants = append(code.Constants, object.NewBigInt(huge))
	_, err := Serialize(code)
	require.Error(t, err)
}

func TestTruncatedDataRejected(t *testing.T) {
	code := compileSrc(t, "x = 1\n")
	data, err := Serialize(code)
	require.NoError(t, err)
	_, err = Deserialize(data[:len(data)-3])
	require.Error(t, err)
}
