// Package compiler lowers the Kilat AST into stack-machine bytecode: a
// CodeObject carrying a constant pool, a name table, and a fixed-layout
// instruction stream, plus the binary .klc serialisation of that form.
package compiler

import "fmt"

// Opcode identifies one VM instruction. The numeric assignment is grouped
// into bands by family and is part of the .klc format.
type Opcode uint8

const (
	// Stack manipulation
	NOP     Opcode = 0
	POP_TOP Opcode = 1
	DUP_TOP Opcode = 2
	ROT_TWO Opcode = 3

	// Constants
	LOAD_CONST Opcode = 10 // arg: index into constant pool

	// Names
	LOAD_NAME         Opcode = 20 // arg: index into names
	STORE_NAME        Opcode = 21 // nearest-binding store (nonlocal/loop vars)
	LOAD_GLOBAL       Opcode = 22
	STORE_GLOBAL      Opcode = 23
	DELETE_NAME       Opcode = 24
	STORE_NAME_DEFINE Opcode = 25 // always define in current scope (plain =)

	// Attributes
	LOAD_ATTR  Opcode = 30 // arg: attribute name index
	STORE_ATTR Opcode = 31

	// Indexing
	LOAD_INDEX   Opcode = 35
	STORE_INDEX  Opcode = 36
	DELETE_INDEX Opcode = 37

	// Arithmetic
	BINARY_ADD       Opcode = 40
	BINARY_SUB       Opcode = 41
	BINARY_MUL       Opcode = 42
	BINARY_DIV       Opcode = 43
	BINARY_FLOOR_DIV Opcode = 44
	BINARY_MOD       Opcode = 45
	BINARY_POW       Opcode = 46

	// Augmented assignment: value on top of stack, name at arg
	AUG_ADD       Opcode = 50
	AUG_SUB       Opcode = 51
	AUG_MUL       Opcode = 52
	AUG_DIV       Opcode = 53
	AUG_FLOOR_DIV Opcode = 54
	AUG_POW       Opcode = 55
	AUG_MOD       Opcode = 56

	// Unary
	UNARY_NEG Opcode = 60
	UNARY_POS Opcode = 61
	UNARY_NOT Opcode = 62

	// Comparison
	COMPARE_EQ Opcode = 70
	COMPARE_NE Opcode = 71
	COMPARE_LT Opcode = 72
	COMPARE_GT Opcode = 73
	COMPARE_LE Opcode = 74
	COMPARE_GE Opcode = 75
	COMPARE_IN Opcode = 76
	COMPARE_IS Opcode = 77

	// Jumps
	JUMP_ABSOLUTE        Opcode = 80 // arg: target instruction index
	JUMP_IF_FALSE        Opcode = 81 // pops condition
	JUMP_IF_TRUE         Opcode = 82
	JUMP_IF_FALSE_OR_POP Opcode = 83 // short-circuit dan
	JUMP_IF_TRUE_OR_POP  Opcode = 84 // short-circuit atau_logik

	// Loops
	GET_ITER      Opcode = 90
	FOR_ITER      Opcode = 91 // arg: exit target when exhausted
	BREAK_LOOP    Opcode = 92
	CONTINUE_LOOP Opcode = 93

	// Functions
	MAKE_FUNCTION    Opcode = 100 // arg: number of defaults on stack
	CALL_FUNCTION    Opcode = 101 // arg: number of positional args
	CALL_FUNCTION_KW Opcode = 102 // kw-name list on top of stack
	RETURN_VALUE     Opcode = 103

	// Classes
	MAKE_CLASS Opcode = 110 // arg: number of methods/class vars

	// Collections
	BUILD_LIST    Opcode = 120
	BUILD_DICT    Opcode = 121
	BUILD_FSTRING Opcode = 125
	BUILD_TUPLE   Opcode = 126
	BUILD_SLICE   Opcode = 127

	// Exception handling
	SETUP_TRY       Opcode = 130 // arg: handler address
	POP_TRY         Opcode = 131
	RAISE           Opcode = 132
	END_FINALLY     Opcode = 133
	MATCH_EXCEPTION Opcode = 134 // arg: type name index, -1 for bare except

	// Imports
	IMPORT_MODULE Opcode = 140
	IMPORT_FROM   Opcode = 141

	// Scope
	DECLARE_GLOBAL Opcode = 150

	// Unpacking
	UNPACK_SEQUENCE Opcode = 160
)

var opNames = map[Opcode]string{
	NOP: "NOP", POP_TOP: "POP_TOP", DUP_TOP: "DUP_TOP", ROT_TWO: "ROT_TWO",
	LOAD_CONST: "LOAD_CONST",
	LOAD_NAME:  "LOAD_NAME", STORE_NAME: "STORE_NAME", LOAD_GLOBAL: "LOAD_GLOBAL",
	STORE_GLOBAL: "STORE_GLOBAL", DELETE_NAME: "DELETE_NAME", STORE_NAME_DEFINE: "STORE_NAME_DEFINE",
	LOAD_ATTR: "LOAD_ATTR", STORE_ATTR: "STORE_ATTR",
	LOAD_INDEX: "LOAD_INDEX", STORE_INDEX: "STORE_INDEX", DELETE_INDEX: "DELETE_INDEX",
	BINARY_ADD: "BINARY_ADD", BINARY_SUB: "BINARY_SUB", BINARY_MUL: "BINARY_MUL",
	BINARY_DIV: "BINARY_DIV", BINARY_FLOOR_DIV: "BINARY_FLOOR_DIV", BINARY_MOD: "BINARY_MOD",
	BINARY_POW: "BINARY_POW",
	AUG_ADD:    "AUG_ADD", AUG_SUB: "AUG_SUB", AUG_MUL: "AUG_MUL", AUG_DIV: "AUG_DIV",
	AUG_FLOOR_DIV: "AUG_FLOOR_DIV", AUG_POW: "AUG_POW", AUG_MOD: "AUG_MOD",
	UNARY_NEG: "UNARY_NEG", UNARY_POS: "UNARY_POS", UNARY_NOT: "UNARY_NOT",
	COMPARE_EQ: "COMPARE_EQ", COMPARE_NE: "COMPARE_NE", COMPARE_LT: "COMPARE_LT",
	COMPARE_GT: "COMPARE_GT", COMPARE_LE: "COMPARE_LE", COMPARE_GE: "COMPARE_GE",
	COMPARE_IN: "COMPARE_IN", COMPARE_IS: "COMPARE_IS",
	JUMP_ABSOLUTE: "JUMP_ABSOLUTE", JUMP_IF_FALSE: "JUMP_IF_FALSE", JUMP_IF_TRUE: "JUMP_IF_TRUE",
	JUMP_IF_FALSE_OR_POP: "JUMP_IF_FALSE_OR_POP", JUMP_IF_TRUE_OR_POP: "JUMP_IF_TRUE_OR_POP",
	GET_ITER: "GET_ITER", FOR_ITER: "FOR_ITER", BREAK_LOOP: "BREAK_LOOP", CONTINUE_LOOP: "CONTINUE_LOOP",
	MAKE_FUNCTION: "MAKE_FUNCTION", CALL_FUNCTION: "CALL_FUNCTION",
	CALL_FUNCTION_KW: "CALL_FUNCTION_KW", RETURN_VALUE: "RETURN_VALUE",
	MAKE_CLASS: "MAKE_CLASS",
	BUILD_LIST: "BUILD_LIST", BUILD_DICT: "BUILD_DICT", BUILD_FSTRING: "BUILD_FSTRING",
	BUILD_TUPLE: "BUILD_TUPLE", BUILD_SLICE: "BUILD_SLICE",
	SETUP_TRY: "SETUP_TRY", POP_TRY: "POP_TRY", RAISE: "RAISE", END_FINALLY: "END_FINALLY",
	MATCH_EXCEPTION: "MATCH_EXCEPTION",
	IMPORT_MODULE:   "IMPORT_MODULE", IMPORT_FROM: "IMPORT_FROM",
	DECLARE_GLOBAL:  "DECLARE_GLOBAL",
	UNPACK_SEQUENCE: "UNPACK_SEQUENCE",
}

func (op Opcode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}
