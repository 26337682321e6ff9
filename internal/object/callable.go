package object

import "fmt"

// Function is the shared function value shape spec §3 mandates: name,
// parameter names, defaults, optional *args/**kwargs names, a body, and a
// captured-scope reference. Body holds either []ast.Node (tree-interpreter
// functions, built by internal/interp) or *compiler.CodeObject (bytecode
// functions, built by internal/vm on MAKE_FUNCTION) — kept as `any` here so
// this package needs neither internal/ast nor internal/compiler, breaking
// what would otherwise be an import cycle (compiler already imports
// object for constant-pool Values).
//
// Defaults are evaluated lazily at call time in the defining (closure)
// scope for tree-interpreter functions (spec §4.3, §9); for bytecode
// functions the compiler instead emits default-value code ahead of
// MAKE_FUNCTION, so Defaults there holds already-evaluated Values captured
// when the enclosing `fungsi`/`kelas` statement executed. See DESIGN.md for
// the resulting interpreter/VM edge-case note.
type Function struct {
	Name     string
	Params   []string
	Defaults []any
	VarArgs  string
	KwArgs   string
	Body     any
	Closure  *Environment
}

func (f *Function) Type() string   { return "function" }
func (f *Function) String() string { return fmt.Sprintf("<fungsi %s>", f.Name) }

// BoundMethod prepends Instance as the first argument at call time.
type BoundMethod struct {
	Func     *Function
	Instance Value
}

func (m *BoundMethod) Type() string   { return "method" }
func (m *BoundMethod) String() string { return fmt.Sprintf("<kaedah terikat %s>", m.Func.Name) }

// BuiltinFunc is the call signature every builtin implements.
type BuiltinFunc func(args []Value, kwargs map[string]Value) (Value, error)

// Builtin wraps a host-implemented callable (the `cetak`/`panjang`/...
// table seeded into the global scope per spec §4.3).
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

func (b *Builtin) Type() string   { return "builtin_function" }
func (b *Builtin) String() string { return fmt.Sprintf("<fungsi terbina %s>", b.Name) }

// Class is {name, optional base, method table}, per spec §3. ClassVars
// holds class-level data attributes (the bytecode compiler's
// __classvar__-prefixed names resolve to entries here, not name-mangled
// method-table slots — see spec §9's redesign note on MAKE_CLASS).
type Class struct {
	Name      string
	Base      *Class
	Methods   map[string]*Function
	ClassVars map[string]Value
}

func NewClass(name string, base *Class) *Class {
	return &Class{Name: name, Base: base, Methods: make(map[string]*Function), ClassVars: make(map[string]Value)}
}

func (c *Class) Type() string   { return "type" }
func (c *Class) String() string { return fmt.Sprintf("<kelas %s>", c.Name) }

// FindMethod walks the (single-inheritance) base chain depth-first.
func (c *Class) FindMethod(name string) (*Function, *Class) {
	for k := c; k != nil; k = k.Base {
		if m, ok := k.Methods[name]; ok {
			return m, k
		}
	}
	return nil, nil
}

func (c *Class) FindClassVar(name string) (Value, bool) {
	for k := c; k != nil; k = k.Base {
		if v, ok := k.ClassVars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.Base {
		if k == other {
			return true
		}
	}
	return false
}

// Instance is {class reference, attribute mapping}, per spec §3.
type Instance struct {
	Class *Class
	Attrs map[string]Value
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Attrs: make(map[string]Value)}
}

func (i *Instance) Type() string   { return i.Class.Name }
func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// Module is a host-runtime module handle bound by Import/FromImport.
type Module struct {
	Name  string
	Attrs map[string]Value
}

func (m *Module) Type() string   { return "module" }
func (m *Module) String() string { return fmt.Sprintf("<modul %s>", m.Name) }

// Iterator is an exhaustible sequence handle, produced by GET_ITER and by
// the tree interpreter's for-loop evaluation.
type Iterator interface {
	Value
	Next() (Value, bool)
}

// SeqIterator iterates a pre-materialised slice of values (lists, tuples,
// strings-as-chars, dict keys, range results).
type SeqIterator struct {
	Items []Value
	idx   int
}

func (it *SeqIterator) Type() string   { return "iterator" }
func (it *SeqIterator) String() string { return "<iterator>" }

func (it *SeqIterator) Next() (Value, bool) {
	if it.idx >= len(it.Items) {
		return nil, false
	}
	v := it.Items[it.idx]
	it.idx++
	return v, true
}
