package lexer

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanazhar/Kilat-Lang/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestSimpleAssignment(t *testing.T) {
	toks, errs := New("x = 1\n").Tokenize()
	require.Empty(t, errs)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE, token.EOF,
	}, kinds(toks))
}

func TestIndentDedent(t *testing.T) {
	src := "jika benar:\n    x = 1\n    y = 2\natau:\n    x = 3\n"
	toks, errs := New(src).Tokenize()
	require.Empty(t, errs)
	got := kinds(toks)
	assert.Contains(t, got, token.INDENT)
	assert.Contains(t, got, token.DEDENT)

	// One INDENT/DEDENT pair per block (both lines of the first block sit at
	// the same depth), so two of each for the jika and atau blocks.
	indentCount, dedentCount := 0, 0
	for _, k := range got {
		if k == token.INDENT {
			indentCount++
		}
		if k == token.DEDENT {
			dedentCount++
		}
	}
	assert.Equal(t, 2, indentCount)
	assert.Equal(t, 2, dedentCount)
}

func TestTabWidthIsFour(t *testing.T) {
	// One tab should match four leading spaces' indent depth, not eight.
	withTab, errs1 := New("jika benar:\n\tx = 1\n").Tokenize()
	withSpaces, errs2 := New("jika benar:\n    x = 1\n").Tokenize()
	require.Empty(t, errs1)
	require.Empty(t, errs2)
	assert.Equal(t, kinds(withSpaces), kinds(withTab))
}

func TestFusedForInToken(t *testing.T) {
	toks, errs := New("untuk diulang x dalam senarai:\n    lulus\n").Tokenize()
	require.Empty(t, errs)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.UNTUK_DIULANG, toks[0].Kind)
	assert.Equal(t, "untuk diulang", toks[0].Literal)
}

func TestStringEscapes(t *testing.T) {
	toks, errs := New(`"a\nb"` + "\n").Tokenize()
	require.Empty(t, errs)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "a\nb", toks[0].Literal)
}

func TestFStringRawBody(t *testing.T) {
	toks, errs := New("f\"hello {nama}\"\n").Tokenize()
	require.Empty(t, errs)
	require.Equal(t, token.FSTRING, toks[0].Kind)
	assert.Equal(t, "hello {nama}", toks[0].Literal)
}

func TestOperatorLongestMatch(t *testing.T) {
	toks, errs := New("a //= 2\nb **= 3\n").Tokenize()
	require.Empty(t, errs)
	got := kinds(toks)
	assert.Contains(t, got, token.DSLASH_ASSIGN)
	assert.Contains(t, got, token.DSTAR_ASSIGN)
}

func TestSemicolonActsAsNewline(t *testing.T) {
	toks, errs := New("x = 1; y = 2\n").Tokenize()
	require.Empty(t, errs)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE, token.EOF,
	}, kinds(toks))
}

func TestBracketsSuppressNewline(t *testing.T) {
	toks, errs := New("x = [1,\n2,\n3]\n").Tokenize()
	require.Empty(t, errs)
	newlineCount := 0
	for _, k := range kinds(toks) {
		if k == token.NEWLINE {
			newlineCount++
		}
	}
	assert.Equal(t, 1, newlineCount)
}

func TestInconsistentDedentIsAnError(t *testing.T) {
	src := "jika benar:\n   x = 1\n  y = 2\n"
	_, errs := New(src).Tokenize()
	assert.NotEmpty(t, errs)
}

func TestTrailingDedentsAtEOF(t *testing.T) {
	src := "jika benar:\n    x = 1\n"
	toks, errs := New(src).Tokenize()
	require.Empty(t, errs)
	last := toks[len(toks)-1]
	assert.Equal(t, token.EOF, last.Kind)
	assert.Equal(t, token.DEDENT, toks[len(toks)-2].Kind)
}

// rejoin renders tokens back to source with canonical single-space
// separation, dropping the synthetic layout tokens.
func rejoin(toks []token.Token) string {
	var parts []string
	for _, tok := range toks {
		switch tok.Kind {
		case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF, token.COMMENT:
			continue
		case token.STRING:
			parts = append(parts, strconv.Quote(tok.Literal))
		case token.FSTRING:
			parts = append(parts, "f"+strconv.Quote(tok.Literal))
		case token.IDENT, token.INT, token.FLOAT:
			parts = append(parts, tok.Literal)
		default:
			parts = append(parts, tok.Kind.String())
		}
	}
	return strings.Join(parts, " ")
}

func contentKinds(toks []token.Token) []token.Kind {
	var out []token.Kind
	for _, tok := range toks {
		switch tok.Kind {
		case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF, token.COMMENT:
			continue
		}
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexRoundTrip(t *testing.T) {
	// Rejoining tokens with canonical whitespace must re-lex to the same
	// content-token sequence (layout tokens ignored).
	srcs := []string{
		"x = 1 + 2 * 3\n",
		"untuk diulang a, b dalam xs: cetak(a)\n",
		"f = lambda n: n ** 2\n",
		"hasil = nilai jika syarat atau lain\n",
	}
	for _, src := range srcs {
		first, errs := New(src).Tokenize()
		require.Empty(t, errs)
		again, errs := New(rejoin(first) + "\n").Tokenize()
		require.Empty(t, errs)
		assert.Equal(t, contentKinds(first), contentKinds(again), "sumber: %q", src)
	}
}

func TestIndentInvariant(t *testing.T) {
	// Every INDENT pairs with exactly one DEDENT once the trailing EOF
	// dedents are counted; the simulated depth never goes negative.
	src := `fungsi f(x):
    jika x:
        kembali 1
    atau:
        selagi x:
            x -= 1
    kembali 0
cetak(f(3))
`
	toks, errs := New(src).Tokenize()
	require.Empty(t, errs)
	depth := 0
	for _, tok := range toks {
		switch tok.Kind {
		case token.INDENT:
			depth++
		case token.DEDENT:
			depth--
		}
		require.GreaterOrEqual(t, depth, 0)
	}
	assert.Equal(t, 0, depth)
}
