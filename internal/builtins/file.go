package builtins

import (
	"bufio"
	"os"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// buka opens a file and returns a module-shaped handle whose attributes are
// the file operations: baca (read all), baris (read lines), tulis (write),
// tutup (close). Modes follow the original's open(): "r", "w", "a".
func (b *builtins) buka(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongValue("buka memerlukan satu atau dua argumen")
	}
	path, ok := args[0].(*object.Str)
	if !ok {
		return nil, wrongType("buka memerlukan laluan rentetan")
	}
	mode := "r"
	if len(args) == 2 {
		m, ok := args[1].(*object.Str)
		if !ok {
			return nil, wrongType("mod buka mesti rentetan")
		}
		mode = m.V
	}

	var f *os.File
	var err error
	switch mode {
	case "r":
		f, err = os.Open(path.V)
	case "w":
		f, err = os.Create(path.V)
	case "a":
		f, err = os.OpenFile(path.V, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	default:
		return nil, wrongValue("mod buka tidak dikenali: '%s'", mode)
	}
	if err != nil {
		return nil, kilaterr.Newf(kilaterr.KindNilai, "Tidak dapat membuka '%s': %v", path.V, err)
	}

	handle := &object.Module{Name: "fail", Attrs: map[string]object.Value{}}
	handle.Attrs["baca"] = &object.Builtin{Name: "baca", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		data, err := os.ReadFile(path.V)
		if err != nil {
			return nil, kilaterr.Newf(kilaterr.KindNilai, "Tidak dapat membaca '%s': %v", path.V, err)
		}
		return &object.Str{V: string(data)}, nil
	}}
	handle.Attrs["baris"] = &object.Builtin{Name: "baris", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		data, err := os.ReadFile(path.V)
		if err != nil {
			return nil, kilaterr.Newf(kilaterr.KindNilai, "Tidak dapat membaca '%s': %v", path.V, err)
		}
		var elems []object.Value
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			elems = append(elems, &object.Str{V: line})
		}
		return &object.List{Elems: elems}, nil
	}}
	w := bufio.NewWriter(f)
	handle.Attrs["tulis"] = &object.Builtin{Name: "tulis", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		if len(args) != 1 {
			return nil, wrongValue("tulis memerlukan satu argumen")
		}
		s, ok := args[0].(*object.Str)
		if !ok {
			return nil, wrongType("tulis memerlukan rentetan")
		}
		if _, err := w.WriteString(s.V); err != nil {
			return nil, kilaterr.Newf(kilaterr.KindNilai, "Tidak dapat menulis ke '%s': %v", path.V, err)
		}
		return object.NewInt(int64(len(s.V))), nil
	}}
	handle.Attrs["tutup"] = &object.Builtin{Name: "tutup", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		w.Flush()
		f.Close()
		return object.None, nil
	}}
	// __enter__/__exit__ so `dengan buka(...) sebagai f:` works in both
	// engines' with-statement protocols.
	handle.Attrs["__enter__"] = &object.Builtin{Name: "__enter__", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		return handle, nil
	}}
	handle.Attrs["__exit__"] = &object.Builtin{Name: "__exit__", Fn: func(args []object.Value, _ map[string]object.Value) (object.Value, error) {
		w.Flush()
		f.Close()
		return object.None, nil
	}}
	return handle, nil
}
