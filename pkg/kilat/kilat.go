// Package kilat provides a public API for embedding the Kilat runtime in Go
// applications.
//
// Basic usage:
//
//	// Compile and run a source snippet on the VM
//	err := kilat.Run(`cetak("Salam, Dunia!")`)
//
//	// Create a state for a persistent environment (the REPL does this)
//	state := kilat.NewState()
//	result, err := state.Eval(`1 + 2`)
package kilat

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/compiler"
	"github.com/rahmanazhar/Kilat-Lang/internal/interp"
	"github.com/rahmanazhar/Kilat-Lang/internal/lexer"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
	"github.com/rahmanazhar/Kilat-Lang/internal/parser"
	"github.com/rahmanazhar/Kilat-Lang/internal/vm"
)

// Version is the toolchain version reported by --version and embedded as
// the .klc format's (major, minor) pair.
const Version = "1.0"

// ParseSource lexes and parses source, folding lexical and syntax errors
// into a single categorised error.
func ParseSource(source, filename string) (*ast.Program, error) {
	prog, lexErrs, parseErrs := parser.Parse(source, filename)
	if len(lexErrs) > 0 {
		e := lexErrs[0]
		return nil, fmt.Errorf("Ralat Leksikal (baris %d): %s", e.Pos.Line, e.Message)
	}
	if len(parseErrs) > 0 {
		e := parseErrs[0]
		return nil, fmt.Errorf("Ralat Sintaks (baris %d): %s", e.Pos.Line, e.Message)
	}
	return prog, nil
}

// Compile parses and compiles source to a CodeObject.
func Compile(source, filename string) (*compiler.CodeObject, error) {
	prog, err := ParseSource(source, filename)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog, filename)
}

// CompileToKLC parses, compiles, and serialises source to .klc bytes.
func CompileToKLC(source, filename string) ([]byte, error) {
	code, err := Compile(source, filename)
	if err != nil {
		return nil, err
	}
	return compiler.Serialize(code)
}

// Run compiles source and executes it on the VM (the default CLI path).
func Run(source string) error { return RunWithIO(source, "<kilat>", os.Stdout, os.Stdin) }

// RunWithIO is Run with explicit streams and filename.
func RunWithIO(source, filename string, out io.Writer, in io.Reader) error {
	code, err := Compile(source, filename)
	if err != nil {
		return err
	}
	m := vm.NewWithIO(out, in)
	m.Loader = NewVMFileLoader(searchDirFor(filename), out, in)
	return m.Run(code)
}

// RunNative parses source and executes it on the tree interpreter.
func RunNative(source string) error {
	return RunNativeWithIO(source, "<kilat>", os.Stdout, os.Stdin)
}

// RunNativeWithIO is RunNative with explicit streams and filename.
func RunNativeWithIO(source, filename string, out io.Writer, in io.Reader) error {
	prog, err := ParseSource(source, filename)
	if err != nil {
		return err
	}
	i := interp.NewWithIO(out, in)
	i.Loader = NewNativeFileLoader(searchDirFor(filename), out, in)
	return i.Run(prog)
}

// RunKLC deserialises .klc bytes and executes them on the VM.
func RunKLC(data []byte, out io.Writer, in io.Reader) error {
	code, err := compiler.Deserialize(data)
	if err != nil {
		return err
	}
	m := vm.NewWithIO(out, in)
	return m.Run(code)
}

func searchDirFor(filename string) string {
	if strings.HasPrefix(filename, "<") {
		return "."
	}
	if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
		return filename[:idx]
	}
	return "."
}

// State is a persistent interpreter environment; the REPL keeps one across
// prompts so definitions survive between snippets.
type State struct {
	interp *interp.Interpreter
}

// NewState creates a State attached to stdout/stdin.
func NewState() *State { return NewStateWithIO(os.Stdout, os.Stdin) }

// NewStateWithIO creates a State with explicit streams.
func NewStateWithIO(out io.Writer, in io.Reader) *State {
	i := interp.NewWithIO(out, in)
	i.Loader = NewNativeFileLoader(".", out, in)
	return &State{interp: i}
}

// Eval parses and executes a snippet against the persistent environment.
// The returned value is the result of the final bare-expression statement,
// or nil when the snippet ends with a non-expression statement.
func (s *State) Eval(source string) (object.Value, error) {
	prog, err := ParseSource(source, "<repl>")
	if err != nil {
		return nil, err
	}
	var last object.Value
	for _, stmt := range prog.Stmts {
		v, err := s.interp.Execute(stmt, s.interp.Globals)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// IsComplete reports whether source forms a complete snippet: its last
// non-empty, non-comment line does not open a block and it lexes without an
// unterminated string.
func IsComplete(source string) bool {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return true
	}
	var last string
	for _, line := range strings.Split(source, "\n") {
		t := strings.TrimSpace(line)
		if t != "" && !strings.HasPrefix(t, "#") {
			last = t
		}
	}
	if strings.HasSuffix(last, ":") {
		return false
	}
	_, lexErrs := lexer.New(source + "\n").Tokenize()
	for _, e := range lexErrs {
		if strings.Contains(e.Message, "tidak ditutup") {
			return false
		}
	}
	return true
}
