// Package parser implements Kilat's recursive-descent parser: tokens to
// abstract syntax tree, grounded on the precedence table and statement
// dispatch of spec §4.2 and on the teacher's own function-per-production
// parser shape.
package parser

import (
	"fmt"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/lexer"
	"github.com/rahmanazhar/Kilat-Lang/internal/token"
)

// Error is a syntax error: an unexpected token, an invalid assignment
// target, a required parameter following a default, or a decorator not
// followed by a definition.
type Error struct {
	Pos     token.Position
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser consumes a pre-lexed, comment-stripped token slice.
type Parser struct {
	filename string
	toks     []token.Token
	pos      int
	errors   []Error
}

// New builds a Parser directly over a token slice (used for f-string
// sub-expression re-parsing, where the tokens come from a fresh Lexer over
// a substring rather than from Parse's own entry point).
func New(toks []token.Token, filename string) *Parser {
	filtered := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != token.COMMENT {
			filtered = append(filtered, t)
		}
	}
	return &Parser{filename: filename, toks: filtered}
}

// Parse lexes src with filename and parses it into a Program.
func Parse(src, filename string) (*ast.Program, []lexer.Error, []Error) {
	toks, lexErrs := lexer.NewWithFilename(src, filename).Tokenize()
	p := New(toks, filename)
	prog := p.ParseProgram()
	return prog, lexErrs, p.errors
}

func (p *Parser) Errors() []Error { return p.errors }

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.check(k) {
		return p.advance()
	}
	t := p.cur()
	p.errorf(t.Pos, "dijangka %s tetapi dapat %s", k, t.Kind)
	return t
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	p.errors = append(p.errors, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) atLineEnd() bool {
	k := p.cur().Kind
	return k == token.NEWLINE || k == token.EOF || k == token.SEMICOLON ||
		k == token.RPAREN || k == token.RBRACKET || k == token.RBRACE || k == token.COLON
}

// ParseProgram parses the whole token stream into a module-level Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.Position = p.cur().Pos
	prog.Stmts = p.parseStatements(func() bool { return p.check(token.EOF) })
	return prog
}

// ---- Expression grammar, lowest to highest precedence --------------------
//
// lambda < ternary < or < and < not < comparison < additive <
// multiplicative < power (right-assoc) < unary < postfix < primary

func (p *Parser) parseExpression() ast.Node { return p.parseLambda() }

func (p *Parser) parseLambda() ast.Node {
	if !p.check(token.LAMBDA) {
		return p.parseTernary()
	}
	pos := p.advance().Pos
	params, defaults := p.parseLambdaParams()
	p.expect(token.COLON)
	body := p.parseLambda()
	return &ast.Lambda{Base: baseAt(pos), Params: params, Defaults: defaults, Body: body}
}

func (p *Parser) parseLambdaParams() ([]string, []ast.Node) {
	var params []string
	var defaults []ast.Node
	for !p.check(token.COLON) && !p.check(token.EOF) {
		name := p.expect(token.IDENT).Literal
		params = append(params, name)
		if p.match(token.ASSIGN) {
			defaults = append(defaults, p.parseTernary())
		} else if len(defaults) > 0 {
			p.errorf(p.cur().Pos, "parameter diperlukan tidak boleh selepas parameter lalai")
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return params, defaults
}

// parseTernary is `true_val jika condition atau false_value`.
func (p *Parser) parseTernary() ast.Node {
	left := p.parseOr()
	if !p.check(token.JIKA) {
		return left
	}
	pos := p.advance().Pos
	cond := p.parseOr()
	p.expect(token.ATAU)
	elseVal := p.parseTernary()
	return &ast.Ternary{Base: baseAt(pos), TrueVal: left, Cond: cond, FalseVal: elseVal}
}

func (p *Parser) parseOr() ast.Node {
	left := p.parseAnd()
	for p.check(token.ATAU_LOGIK) {
		pos := p.advance().Pos
		right := p.parseAnd()
		left = &ast.Binary{Base: baseAt(pos), Op: "atau_logik", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Node {
	left := p.parseNot()
	for p.check(token.DAN) {
		pos := p.advance().Pos
		right := p.parseNot()
		left = &ast.Binary{Base: baseAt(pos), Op: "dan", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() ast.Node {
	if p.check(token.BUKAN) {
		pos := p.advance().Pos
		operand := p.parseNot()
		return &ast.Unary{Base: baseAt(pos), Op: "bukan", Operand: operand}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]string{
	token.EQ: "==", token.NEQ: "!=", token.LT: "<", token.GT: ">",
	token.LE: "<=", token.GE: ">=", token.DALAM: "dalam", token.ADALAH: "adalah",
}

func (p *Parser) parseComparison() ast.Node {
	left := p.parseAdditive()
	for {
		op, ok := comparisonOps[p.cur().Kind]
		if !ok {
			return left
		}
		pos := p.advance().Pos
		right := p.parseAdditive()
		left = &ast.Binary{Base: baseAt(pos), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Node {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.Binary{Base: baseAt(op.Pos), Op: op.Kind.String(), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Node {
	left := p.parsePower()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.DSLASH) || p.check(token.PERCENT) {
		op := p.advance()
		right := p.parsePower()
		left = &ast.Binary{Base: baseAt(op.Pos), Op: op.Kind.String(), Left: left, Right: right}
	}
	return left
}

// parsePower is right-associative: 2 ** 3 ** 2 == 2 ** (3 ** 2).
func (p *Parser) parsePower() ast.Node {
	left := p.parseUnary()
	if p.check(token.DSTAR) {
		pos := p.advance().Pos
		right := p.parsePower()
		return &ast.Binary{Base: baseAt(pos), Op: "**", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Node {
	if p.check(token.MINUS) || p.check(token.PLUS) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.Unary{Base: baseAt(op.Pos), Op: op.Kind.String(), Operand: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Node {
	expr := p.parsePrimary()
	for {
		switch {
		case p.check(token.DOT):
			pos := p.advance().Pos
			name := p.expect(token.IDENT).Literal
			expr = &ast.Attribute{Base: baseAt(pos), Obj: expr, Name: name}
		case p.check(token.LPAREN):
			expr = p.parseCall(expr)
		case p.check(token.LBRACKET):
			expr = p.parseIndexOrSlice(expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(callee ast.Node) ast.Node {
	pos := p.expect(token.LPAREN).Pos
	call := &ast.Call{Base: baseAt(pos), Callee: callee}
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		if p.check(token.IDENT) && p.peekAt(1).Kind == token.ASSIGN {
			name := p.advance().Literal
			p.advance() // =
			call.KwNames = append(call.KwNames, name)
			call.KwValues = append(call.KwValues, p.parseTernary())
		} else {
			call.Args = append(call.Args, p.parseTernary())
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return call
}

func (p *Parser) parseIndexOrSlice(obj ast.Node) ast.Node {
	pos := p.expect(token.LBRACKET).Pos
	var start, stop, step ast.Node
	isSlice := false
	if !p.check(token.COLON) && !p.check(token.RBRACKET) {
		start = p.parseExpression()
	}
	if p.match(token.COLON) {
		isSlice = true
		if !p.check(token.COLON) && !p.check(token.RBRACKET) {
			stop = p.parseExpression()
		}
		if p.match(token.COLON) {
			if !p.check(token.RBRACKET) {
				step = p.parseExpression()
			}
		}
	}
	p.expect(token.RBRACKET)
	if isSlice {
		return &ast.Index{Base: baseAt(pos), Obj: obj, Idx: &ast.Slice{Base: baseAt(pos), Start: start, Stop: stop, Step: step}}
	}
	return &ast.Index{Base: baseAt(pos), Obj: obj, Idx: start}
}

func (p *Parser) parsePrimary() ast.Node {
	t := p.cur()
	switch t.Kind {
	case token.INT:
		p.advance()
		return &ast.Number{Base: baseAt(t.Pos), IsFloat: false, Int: t.Literal}
	case token.FLOAT:
		p.advance()
		var f float64
		fmt.Sscanf(t.Literal, "%g", &f)
		return &ast.Number{Base: baseAt(t.Pos), IsFloat: true, Float: f}
	case token.STRING:
		return p.parseConcatenatedString()
	case token.FSTRING:
		p.advance()
		return p.parseFStringBody(t.Literal, t.Pos)
	case token.TRUE:
		p.advance()
		return &ast.Bool{Base: baseAt(t.Pos), Value: true}
	case token.FALSE:
		p.advance()
		return &ast.Bool{Base: baseAt(t.Pos), Value: false}
	case token.NONE:
		p.advance()
		return &ast.NoneLit{Base: baseAt(t.Pos)}
	case token.IDENT:
		p.advance()
		return &ast.Identifier{Base: baseAt(t.Pos), Name: t.Literal}
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseListOrComprehension()
	case token.LBRACE:
		return p.parseDict()
	case token.LAMBDA:
		return p.parseLambda()
	default:
		p.advance()
		p.errorf(t.Pos, "token luar jangkaan %s dalam ungkapan", t.Kind)
		return &ast.NoneLit{Base: baseAt(t.Pos)}
	}
}

// parseConcatenatedString implements spec §4.1's "consecutive string
// literals are concatenated at parse time".
func (p *Parser) parseConcatenatedString() ast.Node {
	t := p.advance()
	value := t.Literal
	for p.check(token.STRING) {
		value += p.advance().Literal
	}
	return &ast.String{Base: baseAt(t.Pos), Value: value}
}

func (p *Parser) parseParenOrTuple() ast.Node {
	pos := p.expect(token.LPAREN).Pos
	if p.check(token.RPAREN) {
		p.advance()
		return &ast.Tuple{Base: baseAt(pos)}
	}
	first := p.parseExpression()
	if !p.check(token.COMMA) {
		p.expect(token.RPAREN)
		return first
	}
	elems := []ast.Node{first}
	for p.match(token.COMMA) {
		if p.check(token.RPAREN) {
			break
		}
		elems = append(elems, p.parseExpression())
	}
	p.expect(token.RPAREN)
	return &ast.Tuple{Base: baseAt(pos), Elems: elems}
}

// parseListOrComprehension handles both `[e1, e2, ...]` and
// `[expr untuk diulang v dalam it (jika cond)?]`, with trailing commas
// tolerated and newlines inside brackets already suppressed by the lexer.
func (p *Parser) parseListOrComprehension() ast.Node {
	pos := p.expect(token.LBRACKET).Pos
	if p.check(token.RBRACKET) {
		p.advance()
		return &ast.List{Base: baseAt(pos)}
	}
	first := p.parseExpression()
	if p.check(token.UNTUK_DIULANG) {
		p.advance()
		vars := p.parseForTargets()
		p.expect(token.DALAM)
		iter := p.parseOr()
		var cond ast.Node
		if p.match(token.JIKA) {
			cond = p.parseExpression()
		}
		p.expect(token.RBRACKET)
		return &ast.ListComp{Base: baseAt(pos), Expr: first, Vars: vars, Iter: iter, Cond: cond}
	}
	elems := []ast.Node{first}
	for p.match(token.COMMA) {
		if p.check(token.RBRACKET) {
			break
		}
		elems = append(elems, p.parseExpression())
	}
	p.expect(token.RBRACKET)
	return &ast.List{Base: baseAt(pos), Elems: elems}
}

func (p *Parser) parseForTargets() []string {
	names := []string{p.expect(token.IDENT).Literal}
	for p.match(token.COMMA) {
		names = append(names, p.expect(token.IDENT).Literal)
	}
	return names
}

func (p *Parser) parseDict() ast.Node {
	pos := p.expect(token.LBRACE).Pos
	d := &ast.Dict{Base: baseAt(pos)}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		key := p.parseExpression()
		p.expect(token.COLON)
		val := p.parseExpression()
		d.Pairs = append(d.Pairs, ast.DictPair{Key: key, Value: val})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return d
}

func baseAt(pos token.Position) ast.Base { return ast.Base{Position: pos} }
