package kilat

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/builtins"
	"github.com/rahmanazhar/Kilat-Lang/internal/interp"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
	"github.com/rahmanazhar/Kilat-Lang/internal/vm"
)

// fileLoader resolves imports to .klt files under a search directory,
// executes them, and exposes their globals as a module handle. Dotted
// module paths map to nested directories.
type fileLoader struct {
	dir  string
	exec func(source, path string) (map[string]object.Value, error)
}

func (l *fileLoader) Load(name string) (*object.Module, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".klt"
	path := filepath.Join(l.dir, rel)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail modul tidak ditemui: %s", path)
	}
	globals, err := l.exec(string(src), path)
	if err != nil {
		return nil, err
	}
	mod := &object.Module{Name: name, Attrs: make(map[string]object.Value)}
	base := builtinNames()
	for k, v := range globals {
		if !base[k] {
			mod.Attrs[k] = v
		}
	}
	return mod, nil
}

// builtinNames is the baseline binding set filtered out of module exports.
func builtinNames() map[string]bool {
	env := object.NewEnvironment(nil)
	builtins.Install(env, io.Discard, strings.NewReader(""), nil)
	out := make(map[string]bool)
	for k := range env.Snapshot() {
		out[k] = true
	}
	return out
}

// NewNativeFileLoader executes imported modules on the tree interpreter.
func NewNativeFileLoader(dir string, out io.Writer, in io.Reader) interp.ModuleLoader {
	return &fileLoader{dir: dir, exec: func(source, path string) (map[string]object.Value, error) {
		prog, err := ParseSource(source, path)
		if err != nil {
			return nil, err
		}
		i := interp.NewWithIO(out, in)
		i.Loader = NewNativeFileLoader(filepath.Dir(path), out, in)
		if err := i.Run(prog); err != nil {
			return nil, err
		}
		return i.Globals.Snapshot(), nil
	}}
}

// NewVMFileLoader compiles imported modules and executes them on the VM, so
// functions they export are bytecode functions callable from compiled code.
func NewVMFileLoader(dir string, out io.Writer, in io.Reader) vm.ModuleLoader {
	return &fileLoader{dir: dir, exec: func(source, path string) (map[string]object.Value, error) {
		code, err := Compile(source, path)
		if err != nil {
			return nil, err
		}
		m := vm.NewWithIO(out, in)
		m.Loader = NewVMFileLoader(filepath.Dir(path), out, in)
		if err := m.Run(code); err != nil {
			return nil, err
		}
		return m.Globals.Snapshot(), nil
	}}
}
