// Package vm is Kilat's stack-based virtual machine. It executes compiled
// CodeObjects over the same runtime values and environment chain the tree
// interpreter uses; only the execution strategy differs.
package vm

import (
	"io"
	"os"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/builtins"
	"github.com/rahmanazhar/Kilat-Lang/internal/compiler"
	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// ModuleLoader resolves IMPORT_MODULE to module handles.
type ModuleLoader interface {
	Load(name string) (*object.Module, error)
}

// DefaultMaxFrameDepth guards against unbounded recursion.
const DefaultMaxFrameDepth = 1000

// VM executes bytecode against a persistent global environment.
type VM struct {
	Globals       *object.Environment
	Out           io.Writer
	Loader        ModuleLoader
	MaxFrameDepth int

	depth int
}

// New creates a VM writing to stdout and reading from stdin.
func New() *VM { return NewWithIO(os.Stdout, os.Stdin) }

// NewWithIO creates a VM with explicit streams.
func NewWithIO(out io.Writer, in io.Reader) *VM {
	vm := &VM{
		Globals:       object.NewEnvironment(nil),
		Out:           out,
		MaxFrameDepth: DefaultMaxFrameDepth,
	}
	builtins.Install(vm.Globals, out, in, vm)
	return vm
}

// tryHandler is one SETUP_TRY record: the handler address plus the operand
// stack depth to rewind to when an exception transfers control there.
type tryHandler struct {
	Handler int
	Depth   int
}

// Frame is one activation record.
type Frame struct {
	Code             *compiler.CodeObject
	Stack            []object.Value
	Env              *object.Environment
	IP               int
	TryStack         []tryHandler
	CurrentException error
}

func newFrame(code *compiler.CodeObject, env *object.Environment) *Frame {
	return &Frame{Code: code, Env: env}
}

func (f *Frame) push(v object.Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) pop() object.Value {
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}

func (f *Frame) peek() object.Value { return f.Stack[len(f.Stack)-1] }

// Run executes a top-level CodeObject in the global environment.
func (vm *VM) Run(code *compiler.CodeObject) error {
	_, err := vm.runFrame(newFrame(code, vm.Globals))
	return err
}

func isException(err error) bool {
	switch err.(type) {
	case *kilaterr.RuntimeError, *kilaterr.RaisedError:
		return true
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

var binaryOps = map[compiler.Opcode]string{
	compiler.BINARY_ADD: "+", compiler.BINARY_SUB: "-", compiler.BINARY_MUL: "*",
	compiler.BINARY_DIV: "/", compiler.BINARY_FLOOR_DIV: "//", compiler.BINARY_MOD: "%",
	compiler.BINARY_POW: "**",
	compiler.COMPARE_EQ: "==", compiler.COMPARE_NE: "!=", compiler.COMPARE_LT: "<",
	compiler.COMPARE_GT: ">", compiler.COMPARE_LE: "<=", compiler.COMPARE_GE: ">=",
	compiler.COMPARE_IN: "dalam", compiler.COMPARE_IS: "adalah",
}

var augOps = map[compiler.Opcode]string{
	compiler.AUG_ADD: "+", compiler.AUG_SUB: "-", compiler.AUG_MUL: "*",
	compiler.AUG_DIV: "/", compiler.AUG_FLOOR_DIV: "//", compiler.AUG_POW: "**",
	compiler.AUG_MOD: "%",
}

// runFrame is the dispatch loop. On an exception it walks the frame's
// try-stack: the operand stack is truncated to its depth at the most recent
// SETUP_TRY, the exception value is pushed for the handler's alias binding,
// and execution resumes at the handler address; with no handler pending the
// exception propagates to the calling frame.
func (vm *VM) runFrame(frame *Frame) (object.Value, error) {
	instrs := frame.Code.Instructions

	for frame.IP < len(instrs) {
		instr := instrs[frame.IP]
		frame.IP++

		ret, done, err := vm.execInstr(frame, instr)
		if done {
			return ret, nil
		}
		if err == nil {
			continue
		}
		if re, ok := err.(*kilaterr.RuntimeError); ok {
			re.At(int(instr.Line), 0)
		}
		if re, ok := err.(*kilaterr.RaisedError); ok && re.Line == 0 {
			re.Line = int(instr.Line)
		}
		if isException(err) && len(frame.TryStack) > 0 {
			h := frame.TryStack[len(frame.TryStack)-1]
			frame.TryStack = frame.TryStack[:len(frame.TryStack)-1]
			frame.Stack = frame.Stack[:h.Depth]
			frame.CurrentException = err
			frame.push(exceptionValue(err))
			frame.IP = h.Handler
			continue
		}
		return nil, err
	}
	return object.None, nil
}

func (vm *VM) execInstr(frame *Frame, instr compiler.Instruction) (object.Value, bool, error) {
	code := frame.Code
	arg := int(instr.Arg)

	switch instr.Op {
	case compiler.NOP:

	case compiler.POP_TOP:
		if len(frame.Stack) > 0 {
			frame.pop()
		}

	case compiler.DUP_TOP:
		frame.push(frame.peek())

	case compiler.ROT_TWO:
		a := frame.pop()
		b := frame.pop()
		frame.push(a)
		frame.push(b)

	case compiler.LOAD_CONST:
		frame.push(code.Constants[arg])

	case compiler.LOAD_NAME:
		name := code.Names[arg]
		v, ok := frame.Env.Get(name)
		if !ok {
			return nil, false, kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", name)
		}
		frame.push(v)

	case compiler.STORE_NAME:
		frame.Env.Set(code.Names[arg], frame.pop())

	case compiler.STORE_NAME_DEFINE:
		frame.Env.Define(code.Names[arg], frame.pop())

	case compiler.LOAD_GLOBAL:
		name := code.Names[arg]
		root := frame.Env.Root()
		if v, ok := root.Get(name); ok {
			frame.push(v)
		} else if v, ok := frame.Env.Get(name); ok {
			frame.push(v)
		} else {
			return nil, false, kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", name)
		}

	case compiler.STORE_GLOBAL:
		frame.Env.Root().SetLocal(code.Names[arg], frame.pop())

	case compiler.DELETE_NAME:
		frame.Env.Delete(code.Names[arg])

	case compiler.DECLARE_GLOBAL:
		frame.Env.DeclareGlobal(code.Names[arg])

	case compiler.LOAD_ATTR:
		obj := frame.pop()
		v, err := object.GetAttr(obj, code.Names[arg])
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.STORE_ATTR:
		value := frame.pop()
		obj := frame.pop()
		if err := object.SetAttr(obj, code.Names[arg], value); err != nil {
			return nil, false, err
		}

	case compiler.LOAD_INDEX:
		idx := frame.pop()
		obj := frame.pop()
		v, err := object.GetIndex(obj, idx)
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.STORE_INDEX:
		value := frame.pop()
		idx := frame.pop()
		obj := frame.pop()
		if err := object.SetIndex(obj, idx, value); err != nil {
			return nil, false, err
		}

	case compiler.DELETE_INDEX:
		idx := frame.pop()
		obj := frame.pop()
		if err := object.DelIndex(obj, idx); err != nil {
			return nil, false, err
		}

	case compiler.BINARY_ADD, compiler.BINARY_SUB, compiler.BINARY_MUL,
		compiler.BINARY_DIV, compiler.BINARY_FLOOR_DIV, compiler.BINARY_MOD,
		compiler.BINARY_POW,
		compiler.COMPARE_EQ, compiler.COMPARE_NE, compiler.COMPARE_LT,
		compiler.COMPARE_GT, compiler.COMPARE_LE, compiler.COMPARE_GE,
		compiler.COMPARE_IN, compiler.COMPARE_IS:
		right := frame.pop()
		left := frame.pop()
		v, err := object.BinaryOp(binaryOps[instr.Op], left, right)
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.AUG_ADD, compiler.AUG_SUB, compiler.AUG_MUL, compiler.AUG_DIV,
		compiler.AUG_FLOOR_DIV, compiler.AUG_POW, compiler.AUG_MOD:
		name := code.Names[arg]
		operand := frame.pop()
		current, ok := frame.Env.Get(name)
		if !ok {
			return nil, false, kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", name)
		}
		v, err := object.BinaryOp(augOps[instr.Op], current, operand)
		if err != nil {
			return nil, false, err
		}
		frame.Env.Set(name, v)

	case compiler.UNARY_NEG:
		v, err := object.UnaryOp("-", frame.pop())
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.UNARY_POS:
		v, err := object.UnaryOp("+", frame.pop())
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.UNARY_NOT:
		frame.push(object.BoolOf(!object.Truthy(frame.pop())))

	case compiler.JUMP_ABSOLUTE:
		frame.IP = arg

	case compiler.JUMP_IF_FALSE:
		if !object.Truthy(frame.pop()) {
			frame.IP = arg
		}

	case compiler.JUMP_IF_TRUE:
		if object.Truthy(frame.pop()) {
			frame.IP = arg
		}

	case compiler.JUMP_IF_FALSE_OR_POP:
		if !object.Truthy(frame.peek()) {
			frame.IP = arg
		} else {
			frame.pop()
		}

	case compiler.JUMP_IF_TRUE_OR_POP:
		if object.Truthy(frame.peek()) {
			frame.IP = arg
		} else {
			frame.pop()
		}

	case compiler.GET_ITER:
		it, err := object.GetIter(frame.pop())
		if err != nil {
			return nil, false, err
		}
		frame.push(it)

	case compiler.FOR_ITER:
		it, ok := frame.peek().(object.Iterator)
		if !ok {
			return nil, false, kilaterr.Newf(kilaterr.KindJenis,
				"FOR_ITER memerlukan iterator, dapat %s", object.TypeName(frame.peek()))
		}
		if v, more := it.Next(); more {
			frame.push(v)
		} else {
			frame.pop()
			frame.IP = arg
		}

	case compiler.CONTINUE_LOOP:
		frame.IP = arg

	case compiler.BREAK_LOOP:
		return nil, false, kilaterr.Newf(kilaterr.KindHenti, "BREAK_LOOP tidak diselesaikan")

	case compiler.MAKE_FUNCTION:
		fnCode, ok := frame.pop().(*compiler.CodeObject)
		if !ok {
			return nil, false, kilaterr.Newf(kilaterr.KindJenis,
				"MAKE_FUNCTION memerlukan objek kod")
		}
		defaults := make([]any, arg)
		for j := arg - 1; j >= 0; j-- {
			defaults[j] = frame.pop()
		}
		frame.push(&object.Function{
			Name: fnCode.Name, Params: fnCode.ParamNames, Defaults: defaults,
			VarArgs: fnCode.VarArgs, KwArgs: fnCode.KwArgs,
			Body: fnCode, Closure: frame.Env,
		})

	case compiler.CALL_FUNCTION:
		args := make([]object.Value, arg)
		for j := arg - 1; j >= 0; j-- {
			args[j] = frame.pop()
		}
		callee := frame.pop()
		v, err := vm.CallValue(callee, args, nil)
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.CALL_FUNCTION_KW:
		nameList, ok := frame.pop().(*object.List)
		if !ok {
			return nil, false, kilaterr.Newf(kilaterr.KindJenis,
				"CALL_FUNCTION_KW memerlukan senarai nama")
		}
		kwargs := make(map[string]object.Value, len(nameList.Elems))
		kwValues := make([]object.Value, len(nameList.Elems))
		for j := len(nameList.Elems) - 1; j >= 0; j-- {
			kwValues[j] = frame.pop()
		}
		for j, nv := range nameList.Elems {
			name, ok := nv.(*object.Str)
			if !ok {
				return nil, false, kilaterr.Newf(kilaterr.KindJenis,
					"nama kata kunci mesti rentetan")
			}
			kwargs[name.V] = kwValues[j]
		}
		args := make([]object.Value, arg)
		for j := arg - 1; j >= 0; j-- {
			args[j] = frame.pop()
		}
		callee := frame.pop()
		v, err := vm.CallValue(callee, args, kwargs)
		if err != nil {
			return nil, false, err
		}
		frame.push(v)

	case compiler.RETURN_VALUE:
		return frame.pop(), true, nil

	case compiler.MAKE_CLASS:
		return nil, false, vm.makeClass(frame, arg)

	case compiler.BUILD_LIST:
		elems := make([]object.Value, arg)
		for j := arg - 1; j >= 0; j-- {
			elems[j] = frame.pop()
		}
		frame.push(&object.List{Elems: elems})

	case compiler.BUILD_TUPLE:
		elems := make([]object.Value, arg)
		for j := arg - 1; j >= 0; j-- {
			elems[j] = frame.pop()
		}
		frame.push(&object.Tuple{Elems: elems})

	case compiler.BUILD_DICT:
		d := object.NewDict()
		pairs := make([][2]object.Value, arg)
		for j := arg - 1; j >= 0; j-- {
			v := frame.pop()
			k := frame.pop()
			pairs[j] = [2]object.Value{k, v}
		}
		for _, kv := range pairs {
			d.Set(kv[0], kv[1])
		}
		frame.push(d)

	case compiler.BUILD_FSTRING:
		parts := make([]string, arg)
		for j := arg - 1; j >= 0; j-- {
			parts[j] = frame.pop().String()
		}
		frame.push(&object.Str{V: strings.Join(parts, "")})

	case compiler.BUILD_SLICE:
		step := frame.pop()
		stop := frame.pop()
		start := frame.pop()
		frame.push(&object.Slice{Start: start, Stop: stop, Step: step})

	case compiler.UNPACK_SEQUENCE:
		v := frame.pop()
		var elems []object.Value
		switch tv := v.(type) {
		case *object.Tuple:
			elems = tv.Elems
		case *object.List:
			elems = tv.Elems
		default:
			return nil, false, kilaterr.Newf(kilaterr.KindJenis,
				"Objek jenis '%s' tidak boleh dibuka", object.TypeName(v))
		}
		if len(elems) != arg {
			return nil, false, kilaterr.Newf(kilaterr.KindNilai,
				"Dijangka %d nilai, dapat %d", arg, len(elems))
		}
		// Push in reverse so the first target's store pops first.
		for j := len(elems) - 1; j >= 0; j-- {
			frame.push(elems[j])
		}

	case compiler.SETUP_TRY:
		frame.TryStack = append(frame.TryStack, tryHandler{Handler: arg, Depth: len(frame.Stack)})

	case compiler.POP_TRY:
		if len(frame.TryStack) > 0 {
			frame.TryStack = frame.TryStack[:len(frame.TryStack)-1]
		}

	case compiler.RAISE:
		v := frame.pop()
		return nil, false, &kilaterr.RaisedError{Value: v, Display: v.String(), Line: int(instr.Line)}

	case compiler.MATCH_EXCEPTION:
		matched := false
		if arg == -1 {
			matched = true
		} else {
			name := code.Names[arg]
			switch e := frame.CurrentException.(type) {
			case *kilaterr.RaisedError:
				matched = true
			case *kilaterr.RuntimeError:
				matched = e.Kind == name
			}
		}
		if matched {
			frame.CurrentException = nil
		}
		frame.push(object.BoolOf(matched))

	case compiler.END_FINALLY:
		if frame.CurrentException != nil {
			err := frame.CurrentException
			frame.CurrentException = nil
			return nil, false, err
		}

	case compiler.IMPORT_MODULE:
		name := code.Names[arg]
		if vm.Loader == nil {
			return nil, false, kilaterr.Newf(kilaterr.KindImport,
				"Tidak dapat import '%s': tiada pemuat modul", name)
		}
		mod, err := vm.Loader.Load(name)
		if err != nil {
			return nil, false, kilaterr.Newf(kilaterr.KindImport,
				"Tidak dapat import '%s': %v", name, err)
		}
		frame.push(mod)

	case compiler.IMPORT_FROM:
		v, err := object.GetAttr(frame.peek(), code.Names[arg])
		if err != nil {
			return nil, false, kilaterr.Newf(kilaterr.KindImport,
				"Import gagal: %v", err)
		}
		frame.push(v)

	default:
		return nil, false, kilaterr.Newf(kilaterr.KindJenis,
			"Arahan tidak dikenali: %s", instr.Op)
	}

	return nil, false, nil
}

// makeClass pops the member values, member-name list, class name, and base
// from the stack, building a class whose methods close over a dedicated
// class scope carrying the class-level data attributes.
func (vm *VM) makeClass(frame *Frame, count int) error {
	nameList, ok := frame.pop().(*object.List)
	if !ok {
		return kilaterr.Newf(kilaterr.KindJenis, "MAKE_CLASS memerlukan senarai nama")
	}
	className, ok := frame.pop().(*object.Str)
	if !ok {
		return kilaterr.Newf(kilaterr.KindJenis, "MAKE_CLASS memerlukan nama kelas")
	}

	members := make([]object.Value, count)
	for j := count - 1; j >= 0; j-- {
		members[j] = frame.pop()
	}

	var base *object.Class
	baseVal := frame.pop()
	if b, ok := baseVal.(*object.Class); ok {
		base = b
	}

	klass := object.NewClass(className.V, base)
	classEnv := object.NewEnvironment(frame.Env)

	for j, nv := range nameList.Elems {
		name, ok := nv.(*object.Str)
		if !ok || j >= len(members) {
			return kilaterr.Newf(kilaterr.KindJenis, "MAKE_CLASS senarai nama rosak")
		}
		if varName, isVar := strings.CutPrefix(name.V, "__classvar__"); isVar {
			classEnv.Define(varName, members[j])
			klass.ClassVars[varName] = members[j]
			continue
		}
		fn, ok := members[j].(*object.Function)
		if !ok {
			return kilaterr.Newf(kilaterr.KindJenis,
				"Kaedah '%s' bukan fungsi", name.V)
		}
		// Rebind the method closure to the class scope so class-level
		// constants are visible from method bodies.
		klass.Methods[name.V] = &object.Function{
			Name: fn.Name, Params: fn.Params, Defaults: fn.Defaults,
			VarArgs: fn.VarArgs, KwArgs: fn.KwArgs,
			Body: fn.Body, Closure: classEnv,
		}
	}

	frame.push(klass)
	return nil
}
