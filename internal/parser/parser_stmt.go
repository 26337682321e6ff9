package parser

import (
	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/token"
)

// parseStatements collects logical lines until stop() holds or EOF.
func (p *Parser) parseStatements(stop func() bool) []ast.Node {
	var stmts []ast.Node
	for !stop() && !p.check(token.EOF) {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		stmts = append(stmts, p.parseLine()...)
	}
	return stmts
}

// parseBlock parses `:` followed either by NEWLINE INDENT stmts... DEDENT,
// or (spec §8 S6's single-line method bodies) a bare simple-statement line.
func (p *Parser) parseBlock() []ast.Node {
	p.expect(token.COLON)
	if p.match(token.NEWLINE) {
		p.expect(token.INDENT)
		body := p.parseStatements(func() bool { return p.check(token.DEDENT) })
		p.expect(token.DEDENT)
		return body
	}
	return p.parseSimpleLine()
}

// parseLine parses one logical line: a compound statement (its own block),
// or one-or-more semicolon-separated simple statements.
func (p *Parser) parseLine() []ast.Node {
	switch p.cur().Kind {
	case token.AT:
		return p.parseDecorated()
	case token.JIKA:
		return []ast.Node{p.parseIf()}
	case token.SELAGI:
		return []ast.Node{p.parseWhile()}
	case token.UNTUK_DIULANG:
		return []ast.Node{p.parseFor()}
	case token.FUNGSI:
		return []ast.Node{p.parseFunctionDef(nil)}
	case token.KELAS:
		return []ast.Node{p.parseClassDef(nil)}
	case token.CUBA:
		return []ast.Node{p.parseTry()}
	case token.DENGAN:
		return []ast.Node{p.parseWith()}
	default:
		return p.parseSimpleLine()
	}
}

func (p *Parser) parseDecorated() []ast.Node {
	var decorators []ast.Node
	for p.check(token.AT) {
		p.advance()
		decorators = append(decorators, p.parseExpression())
		p.match(token.NEWLINE)
	}
	switch p.cur().Kind {
	case token.FUNGSI:
		return []ast.Node{p.parseFunctionDef(decorators)}
	case token.KELAS:
		return []ast.Node{p.parseClassDef(decorators)}
	default:
		p.errorf(p.cur().Pos, "penghias mesti diikuti oleh definisi fungsi atau kelas")
		return nil
	}
}

func (p *Parser) parseIf() ast.Node {
	pos := p.expect(token.JIKA).Pos
	cond := p.parseExpression()
	then := p.parseBlock()
	node := &ast.If{Base: baseAt(pos), Cond: cond, Then: then}
	for p.check(token.ATAUJIKA) {
		p.advance()
		c := p.parseExpression()
		b := p.parseBlock()
		node.Elifs = append(node.Elifs, ast.ElifArm{Cond: c, Body: b})
	}
	if p.check(token.ATAU) {
		p.advance()
		node.Else = p.parseBlock()
	}
	return node
}

func (p *Parser) parseWhile() ast.Node {
	pos := p.expect(token.SELAGI).Pos
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.While{Base: baseAt(pos), Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Node {
	pos := p.expect(token.UNTUK_DIULANG).Pos
	vars := p.parseForTargets()
	p.expect(token.DALAM)
	iter := p.parseExpression()
	body := p.parseBlock()
	return &ast.For{Base: baseAt(pos), Vars: vars, Iter: iter, Body: body}
}

func (p *Parser) parseFunctionDef(decorators []ast.Node) ast.Node {
	pos := p.expect(token.FUNGSI).Pos
	name := p.expect(token.IDENT).Literal
	p.expect(token.LPAREN)
	params, defaults, varArgs, kwArgs := p.parseFuncParams()
	p.expect(token.RPAREN)
	if p.match(token.ARROW) {
		p.parseTernary() // return annotation: consumed and ignored
	}
	body := p.parseBlock()
	return &ast.FunctionDef{
		Base: baseAt(pos), Name: name, Params: params, Defaults: defaults,
		VarArgs: varArgs, KwArgs: kwArgs, Decorators: decorators, Body: body,
	}
}

// parseFuncParams enforces spec §4.2's ordering: regular, then
// default-bearing, then *args, then **kwargs; a required parameter after a
// default is a syntax error.
func (p *Parser) parseFuncParams() ([]string, []ast.Node, string, string) {
	var params []string
	var defaults []ast.Node
	varArgs, kwArgs := "", ""
	sawDefault := false
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		switch {
		case p.check(token.DSTAR):
			p.advance()
			kwArgs = p.expect(token.IDENT).Literal
		case p.check(token.STAR):
			p.advance()
			varArgs = p.expect(token.IDENT).Literal
		default:
			name := p.expect(token.IDENT).Literal
			if p.match(token.ASSIGN) {
				defaults = append(defaults, p.parseTernary())
				sawDefault = true
			} else if sawDefault {
				p.errorf(p.cur().Pos, "parameter diperlukan tidak boleh selepas parameter lalai")
			}
			params = append(params, name)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return params, defaults, varArgs, kwArgs
}

func (p *Parser) parseClassDef(decorators []ast.Node) ast.Node {
	pos := p.expect(token.KELAS).Pos
	name := p.expect(token.IDENT).Literal
	baseClass := ""
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			baseClass = p.expect(token.IDENT).Literal
		}
		p.expect(token.RPAREN)
	}
	body := p.parseBlock()
	return &ast.ClassDef{Base: baseAt(pos), Name: name, BaseClass: baseClass, Decorators: decorators, Body: body}
}

// parseTry supports both `tangkap TypeName (sebagai alias)?:` and the bare
// alias-binding form `tangkap sebagai alias:` seen in spec §8 S5.
func (p *Parser) parseTry() ast.Node {
	pos := p.expect(token.CUBA).Pos
	body := p.parseBlock()
	node := &ast.Try{Base: baseAt(pos), Body: body}
	for p.check(token.TANGKAP) {
		p.advance()
		var h ast.ExceptHandler
		switch {
		case p.check(token.IDENT):
			h.TypeName = p.advance().Literal
			if p.match(token.SEBAGAI) {
				h.Alias = p.expect(token.IDENT).Literal
			}
		case p.check(token.SEBAGAI):
			p.advance()
			h.Alias = p.expect(token.IDENT).Literal
		}
		h.Body = p.parseBlock()
		node.Handlers = append(node.Handlers, h)
	}
	if p.match(token.AKHIRNYA) {
		node.Finally = p.parseBlock()
	}
	return node
}

func (p *Parser) parseWith() ast.Node {
	pos := p.expect(token.DENGAN).Pos
	ctx := p.parseExpression()
	alias := ""
	if p.match(token.SEBAGAI) {
		alias = p.expect(token.IDENT).Literal
	}
	body := p.parseBlock()
	return &ast.With{Base: baseAt(pos), Ctx: ctx, Alias: alias, Body: body}
}

// ---- Simple (non-block) statements ----------------------------------------

func (p *Parser) parseSimpleLine() []ast.Node {
	var stmts []ast.Node
	for {
		stmts = append(stmts, p.parseSimpleStmt())
		if p.match(token.SEMICOLON) {
			if p.check(token.NEWLINE) || p.check(token.EOF) {
				break
			}
			continue
		}
		break
	}
	if p.check(token.NEWLINE) {
		p.advance()
	} else if !p.check(token.EOF) && !p.check(token.DEDENT) {
		p.errorf(p.cur().Pos, "dijangka penamat baris tetapi dapat %s", p.cur().Kind)
	}
	return stmts
}

func (p *Parser) parseSimpleStmt() ast.Node {
	switch p.cur().Kind {
	case token.KEMBALI:
		return p.parseReturn()
	case token.BERHENTI:
		pos := p.advance().Pos
		return &ast.Break{Base: baseAt(pos)}
	case token.TERUSKAN:
		pos := p.advance().Pos
		return &ast.Continue{Base: baseAt(pos)}
	case token.LULUS:
		pos := p.advance().Pos
		return &ast.Pass{Base: baseAt(pos)}
	case token.BANGKIT:
		return p.parseRaise()
	case token.IMPORT:
		return p.parseImport()
	case token.DARI:
		return p.parseFromImport()
	case token.GLOBAL:
		return p.parseGlobal()
	case token.NONLOKAL:
		return p.parseNonlocal()
	case token.PADAM:
		return p.parseDelete()
	case token.BERIKAN:
		return p.parseYield()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseReturn() ast.Node {
	pos := p.expect(token.KEMBALI).Pos
	var expr ast.Node
	if !p.atLineEnd() {
		expr = p.parseAssignRHS()
	}
	return &ast.Return{Base: baseAt(pos), Expr: expr}
}

func (p *Parser) parseRaise() ast.Node {
	pos := p.expect(token.BANGKIT).Pos
	var expr ast.Node
	if !p.atLineEnd() {
		expr = p.parseExpression()
	}
	return &ast.Raise{Base: baseAt(pos), Expr: expr}
}

func (p *Parser) parseDottedName() string {
	name := p.expect(token.IDENT).Literal
	for p.check(token.DOT) {
		p.advance()
		name += "." + p.expect(token.IDENT).Literal
	}
	return name
}

func (p *Parser) parseImport() ast.Node {
	pos := p.expect(token.IMPORT).Pos
	module := p.parseDottedName()
	alias := ""
	if p.match(token.SEBAGAI) {
		alias = p.expect(token.IDENT).Literal
	}
	return &ast.Import{Base: baseAt(pos), Module: module, Alias: alias}
}

func (p *Parser) parseFromImport() ast.Node {
	pos := p.expect(token.DARI).Pos
	module := p.parseDottedName()
	p.expect(token.IMPORT)
	var names, aliases []string
	for {
		names = append(names, p.expect(token.IDENT).Literal)
		alias := ""
		if p.match(token.SEBAGAI) {
			alias = p.expect(token.IDENT).Literal
		}
		aliases = append(aliases, alias)
		if !p.match(token.COMMA) {
			break
		}
	}
	return &ast.FromImport{Base: baseAt(pos), Module: module, Names: names, Aliases: aliases}
}

func (p *Parser) parseGlobal() ast.Node {
	pos := p.expect(token.GLOBAL).Pos
	names := []string{p.expect(token.IDENT).Literal}
	for p.match(token.COMMA) {
		names = append(names, p.expect(token.IDENT).Literal)
	}
	return &ast.Global{Base: baseAt(pos), Names: names}
}

func (p *Parser) parseNonlocal() ast.Node {
	pos := p.expect(token.NONLOKAL).Pos
	names := []string{p.expect(token.IDENT).Literal}
	for p.match(token.COMMA) {
		names = append(names, p.expect(token.IDENT).Literal)
	}
	return &ast.Nonlocal{Base: baseAt(pos), Names: names}
}

func (p *Parser) parseDelete() ast.Node {
	pos := p.expect(token.PADAM).Pos
	target := p.parsePostfix()
	return &ast.Delete{Base: baseAt(pos), Target: target}
}

func (p *Parser) parseYield() ast.Node {
	pos := p.expect(token.BERIKAN).Pos
	var expr ast.Node
	if !p.atLineEnd() {
		expr = p.parseExpression()
	}
	return &ast.Yield{Base: baseAt(pos), Expr: expr}
}

// ---- Expression statements and assignment target dispatch -----------------

var augAssignOps = map[token.Kind]string{
	token.PLUS_ASSIGN: "+", token.MINUS_ASSIGN: "-", token.STAR_ASSIGN: "*",
	token.SLASH_ASSIGN: "/", token.DSLASH_ASSIGN: "//", token.PERCENT_ASSIGN: "%",
	token.DSTAR_ASSIGN: "**",
}

func (p *Parser) parseExprList() []ast.Node {
	exprs := []ast.Node{p.parseExpression()}
	for p.check(token.COMMA) {
		save := p.pos
		p.advance()
		if p.atLineEnd() {
			p.pos = save
			break
		}
		exprs = append(exprs, p.parseExpression())
	}
	return exprs
}

func (p *Parser) parseAssignRHS() ast.Node {
	exprs := p.parseExprList()
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.Tuple{Elems: exprs}
}

// parseExprOrAssignStmt implements spec §4.2's assignment parsing: parse an
// expression (or comma-list), then dispatch on the LHS shape and the
// following operator.
func (p *Parser) parseExprOrAssignStmt() ast.Node {
	startPos := p.cur().Pos
	exprs := p.parseExprList()

	if p.check(token.ASSIGN) {
		p.advance()
		rhs := p.parseAssignRHS()
		if len(exprs) == 1 {
			return p.buildAssign(exprs[0], rhs, startPos)
		}
		names := make([]string, len(exprs))
		for i, e := range exprs {
			id, ok := e.(*ast.Identifier)
			if !ok {
				p.errorf(startPos, "sasaran tugasan berbilang mesti pembolehubah")
				continue
			}
			names[i] = id.Name
		}
		return &ast.MultiAssign{Base: baseAt(startPos), Names: names, Expr: rhs}
	}

	if op, ok := augAssignOps[p.cur().Kind]; ok {
		p.advance()
		rhs := p.parseExpression()
		if len(exprs) != 1 {
			p.errorf(startPos, "tugasan terimbuh memerlukan satu sasaran")
		}
		return p.buildAugAssign(exprs[0], op, rhs, startPos)
	}

	if len(exprs) == 1 {
		return &ast.ExprStmt{Base: baseAt(startPos), Expr: exprs[0]}
	}
	return &ast.ExprStmt{Base: baseAt(startPos), Expr: &ast.Tuple{Base: baseAt(startPos), Elems: exprs}}
}

func (p *Parser) buildAssign(target, rhs ast.Node, pos token.Position) ast.Node {
	switch t := target.(type) {
	case *ast.Identifier:
		return &ast.Assign{Base: baseAt(pos), Name: t.Name, Expr: rhs}
	case *ast.Attribute:
		return &ast.AttrAssign{Base: baseAt(pos), Obj: t.Obj, Name: t.Name, Expr: rhs}
	case *ast.Index:
		return &ast.IndexAssign{Base: baseAt(pos), Obj: t.Obj, Idx: t.Idx, Expr: rhs}
	default:
		p.errorf(pos, "sasaran tugasan tidak sah")
		return &ast.ExprStmt{Base: baseAt(pos), Expr: rhs}
	}
}

// buildAugAssign desugars attribute/index augmented assignment into
// `obj.a = obj.a op rhs` / `obj[i] = obj[i] op rhs` per spec §4.2.
func (p *Parser) buildAugAssign(target ast.Node, op string, rhs ast.Node, pos token.Position) ast.Node {
	switch t := target.(type) {
	case *ast.Identifier:
		return &ast.AugAssign{Base: baseAt(pos), Name: t.Name, Op: op, Expr: rhs}
	case *ast.Attribute:
		combined := &ast.Binary{Base: baseAt(pos), Op: op, Left: t, Right: rhs}
		return &ast.AttrAssign{Base: baseAt(pos), Obj: t.Obj, Name: t.Name, Expr: combined}
	case *ast.Index:
		combined := &ast.Binary{Base: baseAt(pos), Op: op, Left: t, Right: rhs}
		return &ast.IndexAssign{Base: baseAt(pos), Obj: t.Obj, Idx: t.Idx, Expr: combined}
	default:
		p.errorf(pos, "sasaran tugasan terimbuh tidak sah")
		return &ast.ExprStmt{Base: baseAt(pos), Expr: rhs}
	}
}
