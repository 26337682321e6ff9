package compiler

import (
	"fmt"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// Instruction is one bytecode instruction: a fixed 5-byte record on disk
// (op, arg, line); in memory the Go struct is padded to 6 bytes. Arg is
// signed so MATCH_EXCEPTION -1 (bare except) fits.
type Instruction struct {
	Op   Opcode
	Arg  int16
	Line uint16
}

func (i Instruction) String() string {
	if i.Arg != 0 {
		return fmt.Sprintf("%s(%d)", i.Op, i.Arg)
	}
	return i.Op.String()
}

// CodeObject is a compiled unit: a module, function, method, or lambda.
// Constants may themselves be nested CodeObjects; CodeObject implements
// object.Value so the constant pool is a uniform []object.Value.
type CodeObject struct {
	Name         string
	Constants    []object.Value
	Names        []string
	ParamCount   int
	ParamNames   []string
	VarArgs      string // "" means no *args parameter
	KwArgs       string // "" means no **kwargs parameter
	Instructions []Instruction
}

func NewCodeObject(name string) *CodeObject { return &CodeObject{Name: name} }

func (c *CodeObject) Type() string   { return "code" }
func (c *CodeObject) String() string { return fmt.Sprintf("<kod %s>", c.Name) }

// AddConstant appends a constant, deduplicating scalars by (concrete type,
// equality). Code objects and lists are never deduplicated.
func (c *CodeObject) AddConstant(v object.Value) int {
	if isScalarConst(v) {
		for i, existing := range c.Constants {
			if sameConcreteType(existing, v) && object.Equal(existing, v) {
				return i
			}
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func isScalarConst(v object.Value) bool {
	switch v.(type) {
	case object.NoneVal, *object.Bool, *object.Int, *object.Float, *object.Str:
		return true
	}
	return false
}

func sameConcreteType(a, b object.Value) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

// AddName appends a name, reusing an existing entry.
func (c *CodeObject) AddName(name string) int {
	for i, n := range c.Names {
		if n == name {
			return i
		}
	}
	c.Names = append(c.Names, name)
	return len(c.Names) - 1
}

// Emit appends an instruction and returns its index.
func (c *CodeObject) Emit(op Opcode, arg int, line int) int {
	c.Instructions = append(c.Instructions, Instruction{Op: op, Arg: int16(arg), Line: uint16(line)})
	return len(c.Instructions) - 1
}

// CurrentOffset is the index the next emitted instruction will occupy.
func (c *CodeObject) CurrentOffset() int { return len(c.Instructions) }

// PatchJump points the jump at index to target.
func (c *CodeObject) PatchJump(index, target int) {
	c.Instructions[index].Arg = int16(target)
}

// Disassemble renders a human-readable listing, including name and constant
// annotations, for debugging.
func (c *CodeObject) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== CodeObject '%s' ===\n", c.Name)
	fmt.Fprintf(&b, "  params: %v (count=%d)\n", c.ParamNames, c.ParamCount)
	fmt.Fprintf(&b, "  names: %v\n", c.Names)
	b.WriteString("  instructions:\n")
	for i, instr := range c.Instructions {
		extra := ""
		switch instr.Op {
		case LOAD_CONST:
			if int(instr.Arg) < len(c.Constants) {
				extra = "  ; " + object.Repr(c.Constants[instr.Arg])
			}
		case LOAD_NAME, STORE_NAME, STORE_NAME_DEFINE, LOAD_GLOBAL, STORE_GLOBAL,
			LOAD_ATTR, STORE_ATTR, DELETE_NAME, DECLARE_GLOBAL,
			AUG_ADD, AUG_SUB, AUG_MUL, AUG_DIV, AUG_FLOOR_DIV, AUG_POW, AUG_MOD,
			IMPORT_MODULE, IMPORT_FROM:
			if int(instr.Arg) >= 0 && int(instr.Arg) < len(c.Names) {
				extra = fmt.Sprintf("  ; '%s'", c.Names[instr.Arg])
			}
		}
		fmt.Fprintf(&b, "    %4d  %-22s %-6d%s [L%d]\n", i, instr.Op, instr.Arg, extra, instr.Line)
	}
	return b.String()
}
