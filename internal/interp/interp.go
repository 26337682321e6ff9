// Package interp is Kilat's tree-walking interpreter: it evaluates the AST
// directly over a lexically scoped environment chain. Statement execution
// and expression evaluation are two mutually recursive routines, and
// break/continue/return propagate as sentinel errors out of loops and
// function bodies.
package interp

import (
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/builtins"
	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// ModuleLoader resolves `import` statements to module handles. The core
// defines only this interface; the CLI wires a file-based loader.
type ModuleLoader interface {
	Load(name string) (*object.Module, error)
}

// Interpreter executes Kilat ASTs against a persistent global environment.
type Interpreter struct {
	Globals *object.Environment
	Out     io.Writer
	Loader  ModuleLoader
}

// New creates an interpreter writing to stdout and reading from stdin.
func New() *Interpreter { return NewWithIO(os.Stdout, os.Stdin) }

// NewWithIO creates an interpreter with explicit streams, used by tests and
// by the interpreter/VM agreement suite.
func NewWithIO(out io.Writer, in io.Reader) *Interpreter {
	i := &Interpreter{Globals: object.NewEnvironment(nil), Out: out}
	builtins.Install(i.Globals, out, in, i)
	return i
}

// Run executes a whole program in the global environment.
func (i *Interpreter) Run(prog *ast.Program) error {
	for _, stmt := range prog.Stmts {
		if _, err := i.Execute(stmt, i.Globals); err != nil {
			return err
		}
	}
	return nil
}

// Control-flow sentinels; they satisfy error but never escape to user code.
type breakSignal struct{ line int }
type continueSignal struct{ line int }
type returnSignal struct {
	value object.Value
	line  int
}

func (breakSignal) Error() string    { return "'berhenti' di luar gelung" }
func (continueSignal) Error() string { return "'teruskan' di luar gelung" }
func (returnSignal) Error() string   { return "'kembali' di luar fungsi" }

// isException reports whether err is a catchable Kilat exception rather
// than a control-flow sentinel.
func isException(err error) bool {
	switch err.(type) {
	case *kilaterr.RuntimeError, *kilaterr.RaisedError:
		return true
	}
	return false
}

// at attaches the node's position to a runtime error that has none yet.
func at(err error, node ast.Node) error {
	if re, ok := err.(*kilaterr.RuntimeError); ok {
		re.At(node.Pos().Line, node.Pos().Column)
	}
	if re, ok := err.(*kilaterr.RaisedError); ok && re.Line == 0 {
		re.Line = node.Pos().Line
	}
	return err
}

// Execute runs one statement. The returned value is non-nil only for a bare
// expression statement; the REPL uses it to echo results.
func (i *Interpreter) Execute(node ast.Node, env *object.Environment) (object.Value, error) {
	switch n := node.(type) {
	case *ast.Global:
		if env.GlobalsSealed() {
			return nil, at(kilaterr.Newf(kilaterr.KindNilai,
				"pengisytiharan 'global' mesti sebelum penyata pertama"), n)
		}
		for _, name := range n.Names {
			env.DeclareGlobal(name)
		}
		return nil, nil
	case *ast.Nonlocal:
		for _, name := range n.Names {
			if !env.DeclareNonlocal(name) {
				return nil, at(kilaterr.Newf(kilaterr.KindNama,
					"tiada pengikatan luar untuk 'nonlokal %s'", name), n)
			}
		}
		return nil, nil
	}

	env.SealGlobals()

	switch n := node.(type) {
	case *ast.Assign:
		v, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		env.Define(n.Name, v)
		return nil, nil

	case *ast.AugAssign:
		current, ok := env.Get(n.Name)
		if !ok {
			return nil, at(kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", n.Name), n)
		}
		operand, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		result, err := object.BinaryOp(n.Op, current, operand)
		if err != nil {
			return nil, at(err, n)
		}
		env.Set(n.Name, result)
		return nil, nil

	case *ast.AttrAssign:
		obj, err := i.Eval(n.Obj, env)
		if err != nil {
			return nil, err
		}
		v, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		if err := object.SetAttr(obj, n.Name, v); err != nil {
			return nil, at(err, n)
		}
		return nil, nil

	case *ast.IndexAssign:
		obj, err := i.Eval(n.Obj, env)
		if err != nil {
			return nil, err
		}
		idx, err := i.Eval(n.Idx, env)
		if err != nil {
			return nil, err
		}
		v, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		if err := object.SetIndex(obj, idx, v); err != nil {
			return nil, at(err, n)
		}
		return nil, nil

	case *ast.MultiAssign:
		v, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		values, err := unpack(v, len(n.Names))
		if err != nil {
			return nil, at(err, n)
		}
		for j, name := range n.Names {
			env.Define(name, values[j])
		}
		return nil, nil

	case *ast.If:
		cond, err := i.Eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(cond) {
			return nil, i.execBlock(n.Then, env)
		}
		for _, arm := range n.Elifs {
			c, err := i.Eval(arm.Cond, env)
			if err != nil {
				return nil, err
			}
			if object.Truthy(c) {
				return nil, i.execBlock(arm.Body, env)
			}
		}
		if n.Else != nil {
			return nil, i.execBlock(n.Else, env)
		}
		return nil, nil

	case *ast.While:
		for {
			cond, err := i.Eval(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !object.Truthy(cond) {
				return nil, nil
			}
			if err := i.execBlock(n.Body, env); err != nil {
				switch err.(type) {
				case breakSignal:
					return nil, nil
				case continueSignal:
					continue
				}
				return nil, err
			}
		}

	case *ast.For:
		iterable, err := i.Eval(n.Iter, env)
		if err != nil {
			return nil, err
		}
		it, err := object.GetIter(iterable)
		if err != nil {
			return nil, at(err, n)
		}
		for {
			item, ok := it.Next()
			if !ok {
				return nil, nil
			}
			if err := bindLoopVars(env, n.Vars, item); err != nil {
				return nil, at(err, n)
			}
			if err := i.execBlock(n.Body, env); err != nil {
				switch err.(type) {
				case breakSignal:
					return nil, nil
				case continueSignal:
					continue
				}
				return nil, err
			}
		}

	case *ast.Break:
		return nil, breakSignal{line: n.Pos().Line}
	case *ast.Continue:
		return nil, continueSignal{line: n.Pos().Line}

	case *ast.Return:
		var v object.Value = object.None
		if n.Expr != nil {
			var err error
			v, err = i.Eval(n.Expr, env)
			if err != nil {
				return nil, err
			}
		}
		return nil, returnSignal{value: v, line: n.Pos().Line}

	case *ast.Pass:
		return nil, nil

	case *ast.FunctionDef:
		return nil, i.execFunctionDef(n, env)

	case *ast.ClassDef:
		return nil, i.execClassDef(n, env)

	case *ast.Try:
		return nil, i.execTry(n, env)

	case *ast.Raise:
		var v object.Value = object.None
		if n.Expr != nil {
			var err error
			v, err = i.Eval(n.Expr, env)
			if err != nil {
				return nil, err
			}
		}
		return nil, &kilaterr.RaisedError{Value: v, Display: v.String(), Line: n.Pos().Line}

	case *ast.Import:
		mod, err := i.loadModule(n.Module, n)
		if err != nil {
			return nil, err
		}
		alias := n.Alias
		if alias == "" {
			parts := strings.Split(n.Module, ".")
			alias = parts[len(parts)-1]
		}
		env.Define(alias, mod)
		return nil, nil

	case *ast.FromImport:
		mod, err := i.loadModule(n.Module, n)
		if err != nil {
			return nil, err
		}
		for j, name := range n.Names {
			v, ok := mod.Attrs[name]
			if !ok {
				return nil, at(kilaterr.Newf(kilaterr.KindImport,
					"Import gagal: modul '%s' tiada nama '%s'", n.Module, name), n)
			}
			bindAs := n.Aliases[j]
			if bindAs == "" {
				bindAs = name
			}
			env.Define(bindAs, v)
		}
		return nil, nil

	case *ast.Delete:
		switch target := n.Target.(type) {
		case *ast.Identifier:
			if !env.Delete(target.Name) {
				return nil, at(kilaterr.Newf(kilaterr.KindNama,
					"Pembolehubah tidak ditakrifkan: '%s'", target.Name), n)
			}
			return nil, nil
		case *ast.Index:
			obj, err := i.Eval(target.Obj, env)
			if err != nil {
				return nil, err
			}
			idx, err := i.Eval(target.Idx, env)
			if err != nil {
				return nil, err
			}
			if err := object.DelIndex(obj, idx); err != nil {
				return nil, at(err, n)
			}
			return nil, nil
		}
		return nil, at(kilaterr.Newf(kilaterr.KindJenis, "Sasaran padam tidak sah"), n)

	case *ast.With:
		return nil, i.execWith(n, env)

	case *ast.Yield:
		return nil, at(kilaterr.Newf(kilaterr.KindJenis,
			"berikan hanya boleh digunakan dalam fungsi penjana"), n)

	case *ast.ExprStmt:
		return i.Eval(n.Expr, env)
	}

	// A bare expression node used in statement position (single-line blocks
	// route simple statements here).
	return i.Eval(node, env)
}

func (i *Interpreter) execBlock(stmts []ast.Node, env *object.Environment) error {
	for _, stmt := range stmts {
		if _, err := i.Execute(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

// bindLoopVars binds one iteration item to the loop variable(s), unpacking
// tuples when the loop declares more than one.
func bindLoopVars(env *object.Environment, vars []string, item object.Value) error {
	if len(vars) == 1 {
		env.Set(vars[0], item)
		return nil
	}
	values, err := unpack(item, len(vars))
	if err != nil {
		return err
	}
	for j, name := range vars {
		env.Set(name, values[j])
	}
	return nil
}

func unpack(v object.Value, want int) ([]object.Value, error) {
	var values []object.Value
	switch tv := v.(type) {
	case *object.Tuple:
		values = tv.Elems
	case *object.List:
		values = tv.Elems
	default:
		it, err := object.GetIter(v)
		if err != nil {
			return nil, err
		}
		for {
			e, ok := it.Next()
			if !ok {
				break
			}
			values = append(values, e)
		}
	}
	if len(values) != want {
		return nil, kilaterr.Newf(kilaterr.KindNilai,
			"Dijangka %d nilai, dapat %d", want, len(values))
	}
	return values, nil
}

func (i *Interpreter) execTry(n *ast.Try, env *object.Environment) error {
	err := i.execBlock(n.Body, env)
	if err != nil && isException(err) {
		for _, h := range n.Handlers {
			if !matchHandler(h.TypeName, err) {
				continue
			}
			henv := object.NewEnvironment(env)
			if h.Alias != "" {
				henv.Define(h.Alias, exceptionValue(err))
			}
			err = i.execBlock(h.Body, henv)
			break
		}
	}
	if n.Finally != nil {
		if ferr := i.execBlock(n.Finally, env); ferr != nil {
			return ferr
		}
	}
	return err
}

// matchHandler implements the closed matching rule: a bare handler matches
// anything; a named handler matches every user-raised value and any
// runtime error whose kind equals the name.
func matchHandler(typeName string, err error) bool {
	if typeName == "" {
		return true
	}
	switch e := err.(type) {
	case *kilaterr.RaisedError:
		return true
	case *kilaterr.RuntimeError:
		return e.Kind == typeName
	}
	return false
}

func exceptionValue(err error) object.Value {
	switch e := err.(type) {
	case *kilaterr.RaisedError:
		if v, ok := e.Value.(object.Value); ok {
			return v
		}
	case *kilaterr.RuntimeError:
		return &object.Str{V: e.Message}
	}
	return object.None
}

func (i *Interpreter) execWith(n *ast.With, env *object.Environment) error {
	ctx, err := i.Eval(n.Ctx, env)
	if err != nil {
		return err
	}
	enter, enterErr := object.GetAttr(ctx, "__enter__")
	exit, exitErr := object.GetAttr(ctx, "__exit__")
	if enterErr == nil && exitErr == nil {
		v, err := i.CallValue(enter, nil, nil)
		if err != nil {
			return at(err, n)
		}
		if n.Alias != "" {
			env.Define(n.Alias, v)
		}
		bodyErr := i.execBlock(n.Body, env)
		noneArgs := []object.Value{object.None, object.None, object.None}
		if _, err := i.CallValue(exit, noneArgs, nil); err != nil {
			return at(err, n)
		}
		return bodyErr
	}
	// Plain context: bind and execute.
	if n.Alias != "" {
		env.Define(n.Alias, ctx)
	}
	return i.execBlock(n.Body, env)
}

func (i *Interpreter) loadModule(name string, node ast.Node) (*object.Module, error) {
	if i.Loader == nil {
		return nil, at(kilaterr.Newf(kilaterr.KindImport,
			"Tidak dapat import '%s': tiada pemuat modul", name), node)
	}
	mod, err := i.Loader.Load(name)
	if err != nil {
		return nil, at(kilaterr.Newf(kilaterr.KindImport,
			"Tidak dapat import '%s': %v", name, err), node)
	}
	return mod, nil
}

// Eval evaluates an expression node.
func (i *Interpreter) Eval(node ast.Node, env *object.Environment) (object.Value, error) {
	switch n := node.(type) {
	case *ast.Number:
		if n.IsFloat {
			return &object.Float{V: n.Float}, nil
		}
		v, ok := new(big.Int).SetString(n.Int, 10)
		if !ok {
			return nil, at(kilaterr.Newf(kilaterr.KindNilai, "Nombor tidak sah: %s", n.Int), n)
		}
		return object.NewBigInt(v), nil

	case *ast.String:
		return &object.Str{V: n.Value}, nil

	case *ast.Bool:
		return object.BoolOf(n.Value), nil

	case *ast.NoneLit:
		return object.None, nil

	case *ast.FString:
		var b strings.Builder
		for _, part := range n.Parts {
			v, err := i.Eval(part, env)
			if err != nil {
				return nil, err
			}
			b.WriteString(v.String())
		}
		return &object.Str{V: b.String()}, nil

	case *ast.Identifier:
		v, ok := env.Get(n.Name)
		if !ok {
			return nil, at(kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", n.Name), n)
		}
		return v, nil

	case *ast.List:
		elems := make([]object.Value, len(n.Elems))
		for j, e := range n.Elems {
			v, err := i.Eval(e, env)
			if err != nil {
				return nil, err
			}
			elems[j] = v
		}
		return &object.List{Elems: elems}, nil

	case *ast.Tuple:
		elems := make([]object.Value, len(n.Elems))
		for j, e := range n.Elems {
			v, err := i.Eval(e, env)
			if err != nil {
				return nil, err
			}
			elems[j] = v
		}
		return &object.Tuple{Elems: elems}, nil

	case *ast.Dict:
		d := object.NewDict()
		for _, pair := range n.Pairs {
			k, err := i.Eval(pair.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := i.Eval(pair.Value, env)
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil

	case *ast.Slice:
		sl := &object.Slice{}
		if n.Start != nil {
			v, err := i.Eval(n.Start, env)
			if err != nil {
				return nil, err
			}
			sl.Start = v
		}
		if n.Stop != nil {
			v, err := i.Eval(n.Stop, env)
			if err != nil {
				return nil, err
			}
			sl.Stop = v
		}
		if n.Step != nil {
			v, err := i.Eval(n.Step, env)
			if err != nil {
				return nil, err
			}
			sl.Step = v
		}
		return sl, nil

	case *ast.ListComp:
		return i.evalListComp(n, env)

	case *ast.Binary:
		return i.evalBinary(n, env)

	case *ast.Unary:
		v, err := i.Eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		r, err := object.UnaryOp(n.Op, v)
		if err != nil {
			return nil, at(err, n)
		}
		return r, nil

	case *ast.Ternary:
		cond, err := i.Eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(cond) {
			return i.Eval(n.TrueVal, env)
		}
		return i.Eval(n.FalseVal, env)

	case *ast.Lambda:
		body := []ast.Node{&ast.Return{Base: ast.Base{Position: n.Pos()}, Expr: n.Body}}
		defaults := make([]any, len(n.Defaults))
		for j, d := range n.Defaults {
			defaults[j] = d
		}
		return &object.Function{
			Name: "<lambda>", Params: n.Params, Defaults: defaults,
			Body: body, Closure: env,
		}, nil

	case *ast.Call:
		return i.evalCall(n, env)

	case *ast.Attribute:
		obj, err := i.Eval(n.Obj, env)
		if err != nil {
			return nil, err
		}
		v, err := object.GetAttr(obj, n.Name)
		if err != nil {
			return nil, at(err, n)
		}
		return v, nil

	case *ast.Index:
		obj, err := i.Eval(n.Obj, env)
		if err != nil {
			return nil, err
		}
		idx, err := i.Eval(n.Idx, env)
		if err != nil {
			return nil, err
		}
		v, err := object.GetIndex(obj, idx)
		if err != nil {
			return nil, at(err, n)
		}
		return v, nil
	}

	return nil, at(kilaterr.Newf(kilaterr.KindJenis,
		"Tidak dapat menilai nod jenis ini"), node)
}

func (i *Interpreter) evalBinary(n *ast.Binary, env *object.Environment) (object.Value, error) {
	// Short-circuit logical operators yield the deciding operand itself.
	switch n.Op {
	case "dan":
		left, err := i.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !object.Truthy(left) {
			return left, nil
		}
		return i.Eval(n.Right, env)
	case "atau_logik":
		left, err := i.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(left) {
			return left, nil
		}
		return i.Eval(n.Right, env)
	}

	left, err := i.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	r, err := object.BinaryOp(n.Op, left, right)
	if err != nil {
		return nil, at(err, n)
	}
	return r, nil
}

func (i *Interpreter) evalListComp(n *ast.ListComp, env *object.Environment) (object.Value, error) {
	iterable, err := i.Eval(n.Iter, env)
	if err != nil {
		return nil, err
	}
	it, err := object.GetIter(iterable)
	if err != nil {
		return nil, at(err, n)
	}
	result := &object.List{}
	for {
		item, ok := it.Next()
		if !ok {
			return result, nil
		}
		if err := bindLoopVars(env, n.Vars, item); err != nil {
			return nil, at(err, n)
		}
		if n.Cond != nil {
			c, err := i.Eval(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !object.Truthy(c) {
				continue
			}
		}
		v, err := i.Eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		result.Elems = append(result.Elems, v)
	}
}
