package object

// Environment is a lexical scope frame, grounded on spec §3's Environment
// data model and on original_source/kilat_interpreter.py's Environment
// class: a variable map, an optional parent, and a set of names declared
// global in this scope.
type Environment struct {
	vars      map[string]Value
	parent    *Environment
	globals   map[string]bool
	nonlocals map[string]bool
	sealed    bool
}

// NewEnvironment creates a child scope of parent (nil for a module's root
// environment).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]Value), parent: parent, globals: make(map[string]bool)}
}

func (e *Environment) Parent() *Environment { return e.parent }

func (e *Environment) Root() *Environment {
	s := e
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// DeclareGlobal marks name so that Define/Set in this scope target the
// root scope instead. Per spec §3, a scope's global set is closed-write
// after the first executable statement; callers (interpreter/compiler)
// enforce that ordering, not Environment itself.
func (e *Environment) DeclareGlobal(name string) { e.globals[name] = true }

func (e *Environment) IsDeclaredGlobal(name string) bool { return e.globals[name] }

// SealGlobals marks that this scope has executed its first statement; any
// later DeclareGlobal must be rejected by the caller via GlobalsSealed.
func (e *Environment) SealGlobals()        { e.sealed = true }
func (e *Environment) GlobalsSealed() bool { return e.sealed }

// DeclareNonlocal marks name so that Define in this scope updates the
// nearest enclosing (non-root, unless the root is the only binder) scope
// that already binds it. Returns false when no enclosing scope binds name.
func (e *Environment) DeclareNonlocal(name string) bool {
	for s := e.parent; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			if e.nonlocals == nil {
				e.nonlocals = make(map[string]bool)
			}
			e.nonlocals[name] = true
			return true
		}
	}
	return false
}

func (e *Environment) IsDeclaredNonlocal(name string) bool { return e.nonlocals[name] }

// Get walks the parent chain for the nearest binding of name.
func (e *Environment) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// HasLocal reports whether name is bound in exactly this scope.
func (e *Environment) HasLocal(name string) bool {
	_, ok := e.vars[name]
	return ok
}

func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Define implements a plain `Assign`: bind in the current scope unless name
// is declared global here, in which case the root scope is written.
func (e *Environment) Define(name string, v Value) {
	if e.globals[name] {
		e.Root().vars[name] = v
		return
	}
	if e.nonlocals[name] {
		for s := e.parent; s != nil; s = s.parent {
			if _, ok := s.vars[name]; ok {
				s.vars[name] = v
				return
			}
		}
	}
	e.vars[name] = v
}

// Set implements the assignment dual semantic used by augmented
// assignment and by compiled STORE ops: global-declared names always
// target the root scope; otherwise, if the name is already bound anywhere
// in the chain, that binding is updated in place; otherwise it is defined
// fresh in the current scope.
func (e *Environment) Set(name string, v Value) {
	if e.globals[name] {
		e.Root().vars[name] = v
		return
	}
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

// SetLocal binds name in exactly this scope, bypassing the global-set and
// walk-the-chain rules. Used for parameter binding on function entry.
func (e *Environment) SetLocal(name string, v Value) { e.vars[name] = v }

// Snapshot copies this scope's own bindings (not the parent chain's); the
// import machinery uses it to expose a executed module's globals.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

func (e *Environment) Delete(name string) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			delete(s.vars, name)
			return true
		}
	}
	return false
}
