// Package ast defines the Kilat abstract syntax tree.
//
// The node set is closed and mirrors the families in the teacher's
// internal/model/ast.go: literals and collections, operators, assignment
// targets, statements, and definitions all implement Node.
package ast

import "github.com/rahmanazhar/Kilat-Lang/internal/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
	node()
}

type Base struct {
	Position token.Position
}

func (b Base) Pos() token.Position { return b.Position }
func (Base) node()                 {}

// ---- Literals ----------------------------------------------------------

type Number struct {
	Base
	IsFloat bool
	Int     string // decimal digits, base-10, arbitrary width
	Float   float64
}

type String struct {
	Base
	Value string
}

type Bool struct {
	Base
	Value bool
}

type NoneLit struct{ Base }

// FString holds alternating literal String and expression Parts, in order.
type FString struct {
	Base
	Parts []Node
}

type Identifier struct {
	Base
	Name string
}

// ---- Collections --------------------------------------------------------

type List struct {
	Base
	Elems []Node
}

type Tuple struct {
	Base
	Elems []Node
}

type DictPair struct {
	Key   Node
	Value Node
}

type Dict struct {
	Base
	Pairs []DictPair
}

// Slice represents a[start:stop:step]; any component may be nil.
type Slice struct {
	Base
	Start, Stop, Step Node
}

// ---- Operators -----------------------------------------------------------

type Binary struct {
	Base
	Op          string
	Left, Right Node
}

type Unary struct {
	Base
	Op      string
	Operand Node
}

// Ternary is `TrueVal jika Cond atau FalseVal`.
type Ternary struct {
	Base
	TrueVal, Cond, FalseVal Node
}

type Lambda struct {
	Base
	Params   []string
	Defaults []Node
	Body     Node
}

// ---- Targets --------------------------------------------------------------

type Attribute struct {
	Base
	Obj  Node
	Name string
}

type Index struct {
	Base
	Obj Node
	Idx Node
}

type Call struct {
	Base
	Callee   Node
	Args     []Node
	KwNames  []string
	KwValues []Node
}

// ListComp is `[Expr untuk diulang Vars dalam Iter (jika Cond)?]`.
type ListComp struct {
	Base
	Expr Node
	Vars []string
	Iter Node
	Cond Node // nil if absent
}

// Program is the root node for a module.
type Program struct {
	Base
	Stmts []Node
}
