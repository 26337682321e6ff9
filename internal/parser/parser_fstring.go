package parser

import (
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/lexer"
	"github.com/rahmanazhar/Kilat-Lang/internal/token"
)

// parseFStringBody implements spec §4.2's f-string sub-parse: raw is the
// lexer's unescaped body text; `{{`/`}}` are literal braces, brace nesting
// inside an expression region is tracked by depth, and a colon at depth 0
// within an expression region starts a format spec that is stripped
// (format effect is plain str coercion, applied at evaluation).
func (p *Parser) parseFStringBody(raw string, pos token.Position) ast.Node {
	fs := &ast.FString{Base: baseAt(pos)}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			fs.Parts = append(fs.Parts, &ast.String{Base: baseAt(pos), Value: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		switch {
		case raw[i] == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case raw[i] == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case raw[i] == '{':
			flush()
			depth := 1
			start := i + 1
			j := start
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto found
					}
				}
				j++
			}
		found:
			exprSrc := raw[start:j]
			if k := findFormatSpecColon(exprSrc); k >= 0 {
				exprSrc = exprSrc[:k]
			}
			fs.Parts = append(fs.Parts, p.parseSubExpression(exprSrc, pos))
			if j < len(raw) {
				i = j + 1
			} else {
				p.errorf(pos, "kurungan '{' dalam f-string tidak ditutup")
				i = j
			}
		default:
			lit.WriteByte(raw[i])
			i++
		}
	}
	flush()
	return fs
}

// parseSubExpression re-lexes and re-parses an f-string expression region
// with a fresh Lexer/Parser pair, per spec §4.2.
func (p *Parser) parseSubExpression(src string, pos token.Position) ast.Node {
	toks, lexErrs := lexer.NewWithFilename(src, p.filename).Tokenize()
	for _, e := range lexErrs {
		p.errorf(pos, "f-string: %s", e.Message)
	}
	sub := New(toks, p.filename)
	expr := sub.parseExpression()
	for _, e := range sub.errors {
		p.errorf(pos, "f-string: %s", e.Message)
	}
	return expr
}

// findFormatSpecColon finds the first top-level (bracket-depth-0) colon in
// an f-string expression region, or -1 if there is none.
func findFormatSpecColon(src string) int {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
