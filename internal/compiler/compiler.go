package compiler

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// Compiler lowers one code unit (module, function, method, lambda) into a
// CodeObject. Nested definitions get their own Compiler whose result is
// stored as a constant in the enclosing unit.
type Compiler struct {
	code      *CodeObject
	loops     []loopCtx
	globals   map[string]bool
	nonlocals map[string]bool
	sealed    bool
	err       *kilaterr.CompileError
}

// loopCtx tracks an enclosing loop for break/continue resolution.
type loopCtx struct {
	kind   string // "while" or "for"
	start  int
	breaks []int
}

func newCompiler(name string) *Compiler {
	return &Compiler{
		code:      NewCodeObject(name),
		globals:   make(map[string]bool),
		nonlocals: make(map[string]bool),
	}
}

// Compile lowers a parsed program into a module-level CodeObject.
func Compile(prog *ast.Program, name string) (*CodeObject, error) {
	c := newCompiler(name)
	for _, stmt := range prog.Stmts {
		c.compileStmt(stmt)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.code, nil
}

func (c *Compiler) fail(node ast.Node, format string, args ...any) {
	if c.err != nil {
		return
	}
	pos := node.Pos()
	c.err = &kilaterr.CompileError{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

// emit bounds-checks the instruction arg against its on-disk i16 encoding.
func (c *Compiler) emit(node ast.Node, op Opcode, arg, line int) int {
	if arg < -32768 || arg > 32767 {
		c.fail(node, "argumen arahan melebihi had i16: %d", arg)
		arg = 0
	}
	return c.code.Emit(op, arg, line)
}

func (c *Compiler) line(node ast.Node) int { return node.Pos().Line }

// storeName emits the store op matching the plain-assignment semantics of
// name in the current scope: global-declared names go to the root scope,
// nonlocal-declared names update their enclosing binding, everything else
// defines in the current scope.
func (c *Compiler) storeName(node ast.Node, name string) {
	idx := c.code.AddName(name)
	switch {
	case c.globals[name]:
		c.emit(node, STORE_GLOBAL, idx, c.line(node))
	case c.nonlocals[name]:
		c.emit(node, STORE_NAME, idx, c.line(node))
	default:
		c.emit(node, STORE_NAME_DEFINE, idx, c.line(node))
	}
}

func (c *Compiler) loadConstNone(node ast.Node) {
	c.emit(node, LOAD_CONST, c.code.AddConstant(object.None), c.line(node))
}

// ---- Statements -----------------------------------------------------------

func (c *Compiler) compileStmt(node ast.Node) {
	if c.err != nil {
		return
	}
	switch node.(type) {
	case *ast.Global, *ast.Nonlocal:
		// declarations do not seal the global set
	default:
		c.sealed = true
	}

	switch n := node.(type) {
	case *ast.ExprStmt:
		c.compileExpr(n.Expr)
		c.emit(n, POP_TOP, 0, c.line(n))

	case *ast.Assign:
		c.compileExpr(n.Expr)
		c.storeName(n, n.Name)

	case *ast.AugAssign:
		c.compileExpr(n.Expr)
		idx := c.code.AddName(n.Name)
		augOps := map[string]Opcode{
			"+": AUG_ADD, "-": AUG_SUB, "*": AUG_MUL, "/": AUG_DIV,
			"//": AUG_FLOOR_DIV, "**": AUG_POW, "%": AUG_MOD,
		}
		op, ok := augOps[n.Op]
		if !ok {
			c.fail(n, "operator terimbuh tidak dikenali: %s", n.Op)
			return
		}
		c.emit(n, op, idx, c.line(n))

	case *ast.AttrAssign:
		c.compileExpr(n.Obj)
		c.compileExpr(n.Expr)
		c.emit(n, STORE_ATTR, c.code.AddName(n.Name), c.line(n))

	case *ast.IndexAssign:
		c.compileExpr(n.Obj)
		c.compileExpr(n.Idx)
		c.compileExpr(n.Expr)
		c.emit(n, STORE_INDEX, 0, c.line(n))

	case *ast.MultiAssign:
		c.compileExpr(n.Expr)
		c.emit(n, UNPACK_SEQUENCE, len(n.Names), c.line(n))
		for _, name := range n.Names {
			c.storeName(n, name)
		}

	case *ast.If:
		c.compileIf(n)

	case *ast.While:
		c.compileWhile(n)

	case *ast.For:
		c.compileFor(n)

	case *ast.Break:
		if len(c.loops) == 0 {
			c.fail(n, "'berhenti' di luar gelung")
			return
		}
		loop := &c.loops[len(c.loops)-1]
		if loop.kind == "for" {
			// Discard the iterator before leaving the loop.
			c.emit(n, POP_TOP, 0, c.line(n))
		}
		loop.breaks = append(loop.breaks, c.emit(n, JUMP_ABSOLUTE, 0, c.line(n)))

	case *ast.Continue:
		if len(c.loops) == 0 {
			c.fail(n, "'teruskan' di luar gelung")
			return
		}
		c.emit(n, JUMP_ABSOLUTE, c.loops[len(c.loops)-1].start, c.line(n))

	case *ast.Return:
		if n.Expr != nil {
			c.compileExpr(n.Expr)
		} else {
			c.loadConstNone(n)
		}
		c.emit(n, RETURN_VALUE, 0, c.line(n))

	case *ast.Pass:
		c.emit(n, NOP, 0, c.line(n))

	case *ast.FunctionDef:
		c.compileFunctionDef(n)

	case *ast.ClassDef:
		c.compileClassDef(n)

	case *ast.Try:
		c.compileTry(n)

	case *ast.Raise:
		if n.Expr != nil {
			c.compileExpr(n.Expr)
		} else {
			c.loadConstNone(n)
		}
		c.emit(n, RAISE, 0, c.line(n))

	case *ast.Import:
		c.emit(n, IMPORT_MODULE, c.code.AddName(n.Module), c.line(n))
		alias := n.Alias
		if alias == "" {
			parts := strings.Split(n.Module, ".")
			alias = parts[len(parts)-1]
		}
		c.emit(n, STORE_NAME_DEFINE, c.code.AddName(alias), c.line(n))

	case *ast.FromImport:
		c.emit(n, IMPORT_MODULE, c.code.AddName(n.Module), c.line(n))
		for j, name := range n.Names {
			c.emit(n, DUP_TOP, 0, c.line(n))
			c.emit(n, IMPORT_FROM, c.code.AddName(name), c.line(n))
			bindAs := n.Aliases[j]
			if bindAs == "" {
				bindAs = name
			}
			c.emit(n, STORE_NAME_DEFINE, c.code.AddName(bindAs), c.line(n))
		}
		c.emit(n, POP_TOP, 0, c.line(n))

	case *ast.Global:
		if c.sealed {
			c.fail(n, "pengisytiharan 'global' mesti sebelum penyata pertama")
			return
		}
		for _, name := range n.Names {
			c.globals[name] = true
			c.emit(n, DECLARE_GLOBAL, c.code.AddName(name), c.line(n))
		}

	case *ast.Nonlocal:
		// Recorded at compile time: assignments to these names emit
		// STORE_NAME, which updates the nearest enclosing binding instead of
		// defining in the current scope.
		for _, name := range n.Names {
			c.nonlocals[name] = true
		}

	case *ast.Delete:
		switch target := n.Target.(type) {
		case *ast.Identifier:
			c.emit(n, DELETE_NAME, c.code.AddName(target.Name), c.line(n))
		case *ast.Index:
			c.compileExpr(target.Obj)
			c.compileExpr(target.Idx)
			c.emit(n, DELETE_INDEX, 0, c.line(n))
		default:
			c.fail(n, "sasaran padam tidak sah")
		}

	case *ast.With:
		c.compileWith(n)

	case *ast.Yield:
		c.fail(n, "berikan (yield) tidak disokong dalam mod kod bait")

	default:
		// A bare expression in statement position (single-line blocks).
		c.compileExpr(node)
		c.emit(node, POP_TOP, 0, c.line(node))
	}
}

func (c *Compiler) compileBlock(stmts []ast.Node) {
	for _, stmt := range stmts {
		c.compileStmt(stmt)
	}
}

func (c *Compiler) compileIf(n *ast.If) {
	var endJumps []int

	c.compileExpr(n.Cond)
	falseJump := c.emit(n, JUMP_IF_FALSE, 0, c.line(n))
	c.compileBlock(n.Then)
	endJumps = append(endJumps, c.emit(n, JUMP_ABSOLUTE, 0, c.line(n)))
	c.code.PatchJump(falseJump, c.code.CurrentOffset())

	for _, arm := range n.Elifs {
		c.compileExpr(arm.Cond)
		elifFalse := c.emit(n, JUMP_IF_FALSE, 0, c.line(arm.Cond))
		c.compileBlock(arm.Body)
		endJumps = append(endJumps, c.emit(n, JUMP_ABSOLUTE, 0, c.line(n)))
		c.code.PatchJump(elifFalse, c.code.CurrentOffset())
	}

	if n.Else != nil {
		c.compileBlock(n.Else)
	}

	end := c.code.CurrentOffset()
	for _, j := range endJumps {
		c.code.PatchJump(j, end)
	}
}

func (c *Compiler) compileWhile(n *ast.While) {
	start := c.code.CurrentOffset()
	c.loops = append(c.loops, loopCtx{kind: "while", start: start})

	c.compileExpr(n.Cond)
	exitJump := c.emit(n, JUMP_IF_FALSE, 0, c.line(n))
	c.compileBlock(n.Body)
	c.emit(n, JUMP_ABSOLUTE, start, c.line(n))
	c.code.PatchJump(exitJump, c.code.CurrentOffset())

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	end := c.code.CurrentOffset()
	for _, b := range loop.breaks {
		c.code.PatchJump(b, end)
	}
}

func (c *Compiler) compileFor(n *ast.For) {
	c.compileExpr(n.Iter)
	c.emit(n, GET_ITER, 0, c.line(n))

	start := c.code.CurrentOffset()
	c.loops = append(c.loops, loopCtx{kind: "for", start: start})

	iterJump := c.emit(n, FOR_ITER, 0, c.line(n))
	c.compileLoopVarStores(n, n.Vars)
	c.compileBlock(n.Body)
	c.emit(n, JUMP_ABSOLUTE, start, c.line(n))
	c.code.PatchJump(iterJump, c.code.CurrentOffset())

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	end := c.code.CurrentOffset()
	for _, b := range loop.breaks {
		c.code.PatchJump(b, end)
	}
}

func (c *Compiler) compileLoopVarStores(n ast.Node, vars []string) {
	if len(vars) > 1 {
		c.emit(n, UNPACK_SEQUENCE, len(vars), c.line(n))
	}
	for _, name := range vars {
		c.emit(n, STORE_NAME, c.code.AddName(name), c.line(n))
	}
}

// compileTry emits SETUP_TRY/POP_TRY bracketing with the handler chain per
// the layout in the data model: handlers test MATCH_EXCEPTION in order, the
// unmatched path reaches END_FINALLY which re-raises, and the finally body
// sits between the last handler and the end label. At handler entry the VM
// leaves the exception value on the operand stack; a handler either binds
// it to its alias or discards it.
func (c *Compiler) compileTry(n *ast.Try) {
	setupIdx := c.emit(n, SETUP_TRY, 0, c.line(n))

	c.compileBlock(n.Body)
	c.emit(n, POP_TRY, 0, c.line(n))
	endJump := c.emit(n, JUMP_ABSOLUTE, 0, c.line(n))

	c.code.PatchJump(setupIdx, c.code.CurrentOffset())

	var handlerEndJumps []int
	for _, h := range n.Handlers {
		if h.TypeName != "" {
			c.emit(n, MATCH_EXCEPTION, c.code.AddName(h.TypeName), c.line(n))
		} else {
			c.emit(n, MATCH_EXCEPTION, -1, c.line(n))
		}
		noMatch := c.emit(n, JUMP_IF_FALSE, 0, c.line(n))

		if h.Alias != "" {
			c.emit(n, STORE_NAME_DEFINE, c.code.AddName(h.Alias), c.line(n))
		} else {
			c.emit(n, POP_TOP, 0, c.line(n))
		}

		c.compileBlock(h.Body)
		handlerEndJumps = append(handlerEndJumps, c.emit(n, JUMP_ABSOLUTE, 0, c.line(n)))
		c.code.PatchJump(noMatch, c.code.CurrentOffset())
	}

	c.emit(n, END_FINALLY, 0, c.line(n))

	finallyStart := c.code.CurrentOffset()
	if n.Finally != nil {
		c.compileBlock(n.Finally)
	}

	c.code.PatchJump(endJump, finallyStart)
	for _, j := range handlerEndJumps {
		c.code.PatchJump(j, finallyStart)
	}
}

func (c *Compiler) compileWith(n *ast.With) {
	ctxName := fmt.Sprintf("__ctx_%d__", c.code.CurrentOffset())
	ctxIdx := c.code.AddName(ctxName)

	c.compileExpr(n.Ctx)
	c.emit(n, DUP_TOP, 0, c.line(n))
	c.emit(n, STORE_NAME, ctxIdx, c.line(n))

	c.emit(n, LOAD_ATTR, c.code.AddName("__enter__"), c.line(n))
	c.emit(n, CALL_FUNCTION, 0, c.line(n))

	if n.Alias != "" {
		c.emit(n, STORE_NAME_DEFINE, c.code.AddName(n.Alias), c.line(n))
	} else {
		c.emit(n, POP_TOP, 0, c.line(n))
	}

	c.compileBlock(n.Body)

	c.emit(n, LOAD_NAME, ctxIdx, c.line(n))
	c.emit(n, LOAD_ATTR, c.code.AddName("__exit__"), c.line(n))
	c.loadConstNone(n)
	c.loadConstNone(n)
	c.loadConstNone(n)
	c.emit(n, CALL_FUNCTION, 3, c.line(n))
	c.emit(n, POP_TOP, 0, c.line(n))
}

// compileFunctionBody compiles a nested definition into its own CodeObject
// that always terminates with LOAD_CONST None; RETURN_VALUE.
func (c *Compiler) compileFunctionBody(name string, params []string, varArgs, kwArgs string, body []ast.Node) *CodeObject {
	sub := newCompiler(name)
	sub.code.ParamCount = len(params)
	sub.code.ParamNames = append([]string(nil), params...)
	sub.code.VarArgs = varArgs
	sub.code.KwArgs = kwArgs

	sub.compileBlock(body)

	sub.code.Emit(LOAD_CONST, sub.code.AddConstant(object.None), 0)
	sub.code.Emit(RETURN_VALUE, 0, 0)

	if sub.err != nil && c.err == nil {
		c.err = sub.err
	}
	return sub.code
}

func (c *Compiler) compileFunctionDef(n *ast.FunctionDef) {
	code := c.compileFunctionBody(n.Name, n.Params, n.VarArgs, n.KwArgs, n.Body)

	for _, d := range n.Defaults {
		c.compileExpr(d)
	}
	c.emit(n, LOAD_CONST, c.code.AddConstant(code), c.line(n))
	c.emit(n, MAKE_FUNCTION, len(n.Defaults), c.line(n))

	for j := len(n.Decorators) - 1; j >= 0; j-- {
		c.compileExpr(n.Decorators[j])
		c.emit(n, ROT_TWO, 0, c.line(n))
		c.emit(n, CALL_FUNCTION, 1, c.line(n))
	}

	c.storeName(n, n.Name)
}

func (c *Compiler) compileClassDef(n *ast.ClassDef) {
	if n.BaseClass != "" {
		c.emit(n, LOAD_NAME, c.code.AddName(n.BaseClass), c.line(n))
	} else {
		c.loadConstNone(n)
	}

	var memberNames []object.Value
	for _, stmt := range n.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			code := c.compileFunctionBody(s.Name, s.Params, s.VarArgs, s.KwArgs, s.Body)
			for _, d := range s.Defaults {
				c.compileExpr(d)
			}
			c.emit(s, LOAD_CONST, c.code.AddConstant(code), c.line(s))
			c.emit(s, MAKE_FUNCTION, len(s.Defaults), c.line(s))
			memberNames = append(memberNames, &object.Str{V: s.Name})
		case *ast.Assign:
			c.compileExpr(s.Expr)
			memberNames = append(memberNames, &object.Str{V: "__classvar__" + s.Name})
		case *ast.Pass:
			// empty class body
		default:
			c.fail(stmt, "penyata tidak dibenarkan dalam badan kelas")
		}
	}

	c.emit(n, LOAD_CONST, c.code.AddConstant(&object.Str{V: n.Name}), c.line(n))
	c.emit(n, LOAD_CONST, c.code.AddConstant(&object.List{Elems: memberNames}), c.line(n))
	c.emit(n, MAKE_CLASS, len(memberNames), c.line(n))

	for j := len(n.Decorators) - 1; j >= 0; j-- {
		c.compileExpr(n.Decorators[j])
		c.emit(n, ROT_TWO, 0, c.line(n))
		c.emit(n, CALL_FUNCTION, 1, c.line(n))
	}

	c.storeName(n, n.Name)
}

// ---- Expressions ----------------------------------------------------------

var binaryOps = map[string]Opcode{
	"+": BINARY_ADD, "-": BINARY_SUB, "*": BINARY_MUL, "/": BINARY_DIV,
	"//": BINARY_FLOOR_DIV, "%": BINARY_MOD, "**": BINARY_POW,
	"==": COMPARE_EQ, "!=": COMPARE_NE, "<": COMPARE_LT, ">": COMPARE_GT,
	"<=": COMPARE_LE, ">=": COMPARE_GE, "dalam": COMPARE_IN, "adalah": COMPARE_IS,
}

func (c *Compiler) compileExpr(node ast.Node) {
	if c.err != nil {
		return
	}
	switch n := node.(type) {
	case *ast.Number:
		var v object.Value
		if n.IsFloat {
			v = &object.Float{V: n.Float}
		} else {
			b, ok := new(big.Int).SetString(n.Int, 10)
			if !ok {
				c.fail(n, "nombor tidak sah: %s", n.Int)
				return
			}
			v = object.NewBigInt(b)
		}
		c.emit(n, LOAD_CONST, c.code.AddConstant(v), c.line(n))

	case *ast.String:
		c.emit(n, LOAD_CONST, c.code.AddConstant(&object.Str{V: n.Value}), c.line(n))

	case *ast.Bool:
		c.emit(n, LOAD_CONST, c.code.AddConstant(object.BoolOf(n.Value)), c.line(n))

	case *ast.NoneLit:
		c.loadConstNone(n)

	case *ast.Identifier:
		idx := c.code.AddName(n.Name)
		if c.globals[n.Name] {
			c.emit(n, LOAD_GLOBAL, idx, c.line(n))
		} else {
			c.emit(n, LOAD_NAME, idx, c.line(n))
		}

	case *ast.FString:
		for _, part := range n.Parts {
			c.compileExpr(part)
		}
		c.emit(n, BUILD_FSTRING, len(n.Parts), c.line(n))

	case *ast.List:
		for _, e := range n.Elems {
			c.compileExpr(e)
		}
		c.emit(n, BUILD_LIST, len(n.Elems), c.line(n))

	case *ast.Tuple:
		for _, e := range n.Elems {
			c.compileExpr(e)
		}
		c.emit(n, BUILD_TUPLE, len(n.Elems), c.line(n))

	case *ast.Dict:
		for _, pair := range n.Pairs {
			c.compileExpr(pair.Key)
			c.compileExpr(pair.Value)
		}
		c.emit(n, BUILD_DICT, len(n.Pairs), c.line(n))

	case *ast.Slice:
		for _, part := range []ast.Node{n.Start, n.Stop, n.Step} {
			if part != nil {
				c.compileExpr(part)
			} else {
				c.loadConstNone(n)
			}
		}
		c.emit(n, BUILD_SLICE, 3, c.line(n))

	case *ast.Binary:
		c.compileBinary(n)

	case *ast.Unary:
		c.compileExpr(n.Operand)
		switch n.Op {
		case "-":
			c.emit(n, UNARY_NEG, 0, c.line(n))
		case "+":
			c.emit(n, UNARY_POS, 0, c.line(n))
		case "bukan":
			c.emit(n, UNARY_NOT, 0, c.line(n))
		default:
			c.fail(n, "operator unary tidak dikenali: %s", n.Op)
		}

	case *ast.Ternary:
		c.compileExpr(n.Cond)
		falseJump := c.emit(n, JUMP_IF_FALSE, 0, c.line(n))
		c.compileExpr(n.TrueVal)
		endJump := c.emit(n, JUMP_ABSOLUTE, 0, c.line(n))
		c.code.PatchJump(falseJump, c.code.CurrentOffset())
		c.compileExpr(n.FalseVal)
		c.code.PatchJump(endJump, c.code.CurrentOffset())

	case *ast.Lambda:
		body := []ast.Node{&ast.Return{Base: ast.Base{Position: n.Pos()}, Expr: n.Body}}
		code := c.compileFunctionBody("<lambda>", n.Params, "", "", body)
		for _, d := range n.Defaults {
			c.compileExpr(d)
		}
		c.emit(n, LOAD_CONST, c.code.AddConstant(code), c.line(n))
		c.emit(n, MAKE_FUNCTION, len(n.Defaults), c.line(n))

	case *ast.Call:
		c.compileCall(n)

	case *ast.Attribute:
		c.compileExpr(n.Obj)
		c.emit(n, LOAD_ATTR, c.code.AddName(n.Name), c.line(n))

	case *ast.Index:
		c.compileExpr(n.Obj)
		c.compileExpr(n.Idx)
		c.emit(n, LOAD_INDEX, 0, c.line(n))

	case *ast.ListComp:
		c.compileListComp(n)

	default:
		c.fail(node, "tidak dapat mengkompil nod jenis ini")
	}
}

func (c *Compiler) compileBinary(n *ast.Binary) {
	switch n.Op {
	case "dan":
		c.compileExpr(n.Left)
		jump := c.emit(n, JUMP_IF_FALSE_OR_POP, 0, c.line(n))
		c.compileExpr(n.Right)
		c.code.PatchJump(jump, c.code.CurrentOffset())
		return
	case "atau_logik":
		c.compileExpr(n.Left)
		jump := c.emit(n, JUMP_IF_TRUE_OR_POP, 0, c.line(n))
		c.compileExpr(n.Right)
		c.code.PatchJump(jump, c.code.CurrentOffset())
		return
	}

	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	op, ok := binaryOps[n.Op]
	if !ok {
		c.fail(n, "operator tidak dikenali: %s", n.Op)
		return
	}
	c.emit(n, op, 0, c.line(n))
}

func (c *Compiler) compileCall(n *ast.Call) {
	c.compileExpr(n.Callee)
	for _, a := range n.Args {
		c.compileExpr(a)
	}

	if len(n.KwNames) > 0 {
		for _, v := range n.KwValues {
			c.compileExpr(v)
		}
		names := make([]object.Value, len(n.KwNames))
		for j, name := range n.KwNames {
			names[j] = &object.Str{V: name}
		}
		c.emit(n, LOAD_CONST, c.code.AddConstant(&object.List{Elems: names}), c.line(n))
		c.emit(n, CALL_FUNCTION_KW, len(n.Args), c.line(n))
		return
	}
	c.emit(n, CALL_FUNCTION, len(n.Args), c.line(n))
}

// compileListComp accumulates into a compiler-generated temporary, loops
// like a for statement, and finally loads the temporary back as the
// expression value.
func (c *Compiler) compileListComp(n *ast.ListComp) {
	tempName := fmt.Sprintf("__lc_%d__", c.code.CurrentOffset())
	tempIdx := c.code.AddName(tempName)

	c.emit(n, BUILD_LIST, 0, c.line(n))
	c.emit(n, STORE_NAME, tempIdx, c.line(n))

	c.compileExpr(n.Iter)
	c.emit(n, GET_ITER, 0, c.line(n))

	start := c.code.CurrentOffset()
	iterJump := c.emit(n, FOR_ITER, 0, c.line(n))

	c.compileLoopVarStores(n, n.Vars)

	skipJump := -1
	if n.Cond != nil {
		c.compileExpr(n.Cond)
		skipJump = c.emit(n, JUMP_IF_FALSE, 0, c.line(n))
	}

	c.emit(n, LOAD_NAME, tempIdx, c.line(n))
	c.compileExpr(n.Expr)
	c.emit(n, ROT_TWO, 0, c.line(n))
	c.emit(n, LOAD_ATTR, c.code.AddName("append"), c.line(n))
	c.emit(n, ROT_TWO, 0, c.line(n))
	c.emit(n, CALL_FUNCTION, 1, c.line(n))
	c.emit(n, POP_TOP, 0, c.line(n))

	if skipJump >= 0 {
		c.code.PatchJump(skipJump, c.code.CurrentOffset())
	}

	c.emit(n, JUMP_ABSOLUTE, start, c.line(n))
	c.code.PatchJump(iterJump, c.code.CurrentOffset())

	c.emit(n, LOAD_NAME, tempIdx, c.line(n))
}
