package kilat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

func TestRunWithIO(t *testing.T) {
	var out bytes.Buffer
	err := RunWithIO(`cetak("Salam dari API")`, "<ujian>", &out, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "Salam dari API\n", out.String())
}

func TestRunNativeMatchesVM(t *testing.T) {
	src := `jum = 0
untuk diulang x dalam julat(5):
    jum += x
cetak(jum)
`
	var nativeOut, vmOut bytes.Buffer
	require.NoError(t, RunNativeWithIO(src, "<ujian>", &nativeOut, strings.NewReader("")))
	require.NoError(t, RunWithIO(src, "<ujian>", &vmOut, strings.NewReader("")))
	assert.Equal(t, nativeOut.String(), vmOut.String())
	assert.Equal(t, "10\n", vmOut.String())
}

func TestCompileToKLCAndRun(t *testing.T) {
	data, err := CompileToKLC(`cetak(6 * 7)`, "<ujian>")
	require.NoError(t, err)
	assert.Equal(t, []byte("KLC\x00"), data[:4])

	var out bytes.Buffer
	require.NoError(t, RunKLC(data, &out, strings.NewReader("")))
	assert.Equal(t, "42\n", out.String())
}

func TestSyntaxErrorIsCategorised(t *testing.T) {
	err := RunWithIO("jika :\n", "<ujian>", &bytes.Buffer{}, strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ralat Sintaks")
}

func TestStatePersistsAcrossEvals(t *testing.T) {
	var out bytes.Buffer
	state := NewStateWithIO(&out, strings.NewReader(""))

	_, err := state.Eval("x = 40")
	require.NoError(t, err)
	_, err = state.Eval("fungsi tambah(n):\n    kembali x + n\n")
	require.NoError(t, err)

	result, err := state.Eval("tambah(2)")
	require.NoError(t, err)
	iv, ok := result.(*object.Int)
	require.True(t, ok)
	assert.Equal(t, int64(42), iv.V.Int64())
}

func TestIsComplete(t *testing.T) {
	assert.True(t, IsComplete("x = 1"))
	assert.False(t, IsComplete("jika x:"))
	assert.False(t, IsComplete("jika x:\n    y = 1\natau:"))
	assert.True(t, IsComplete("jika x:\n    y = 1"))
	assert.False(t, IsComplete(`s = "belum habis`))
	assert.True(t, IsComplete(""))
}
