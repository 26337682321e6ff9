package object

import (
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
)

// GetAttr resolves attribute access for every value kind, shared by the
// tree interpreter's Attribute evaluation and the VM's LOAD_ATTR. Instance
// lookup order is: instance attributes, then the method table along the
// base chain (bound on access), then class-level data attributes.
func GetAttr(obj Value, name string) (Value, error) {
	switch ov := obj.(type) {
	case *Instance:
		if v, ok := ov.Attrs[name]; ok {
			return v, nil
		}
		if m, _ := ov.Class.FindMethod(name); m != nil {
			return &BoundMethod{Func: m, Instance: ov}, nil
		}
		if v, ok := ov.Class.FindClassVar(name); ok {
			return v, nil
		}
		return nil, kilaterr.Newf(kilaterr.KindAtribut,
			"Atribut '%s' tidak ditemui pada %s", name, ov.Class.Name)
	case *Class:
		// Unbound method: the caller supplies self explicitly, as in
		// ParentClass.__init__(self, ...).
		if m, _ := ov.FindMethod(name); m != nil {
			return m, nil
		}
		if v, ok := ov.FindClassVar(name); ok {
			return v, nil
		}
		return nil, kilaterr.Newf(kilaterr.KindAtribut,
			"Kelas '%s' tidak mempunyai atribut '%s'", ov.Name, name)
	case *Module:
		if v, ok := ov.Attrs[name]; ok {
			return v, nil
		}
		return nil, kilaterr.Newf(kilaterr.KindAtribut,
			"Modul '%s' tidak mempunyai atribut '%s'", ov.Name, name)
	case *List:
		if m := listMethod(ov, name); m != nil {
			return m, nil
		}
	case *Dict:
		if m := dictMethod(ov, name); m != nil {
			return m, nil
		}
	case *Str:
		if m := strMethod(ov, name); m != nil {
			return m, nil
		}
	}
	return nil, kilaterr.Newf(kilaterr.KindAtribut,
		"Atribut '%s' tidak ditemui pada %s", name, TypeName(obj))
}

// SetAttr implements attribute assignment; only instances and modules have
// assignable attributes.
func SetAttr(obj Value, name string, value Value) error {
	switch ov := obj.(type) {
	case *Instance:
		ov.Attrs[name] = value
		return nil
	case *Module:
		ov.Attrs[name] = value
		return nil
	}
	return kilaterr.Newf(kilaterr.KindAtribut,
		"Tidak dapat menetapkan atribut '%s' pada %s", name, TypeName(obj))
}

func listMethod(l *List, name string) Value {
	switch name {
	case "append", "tambah":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 1 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "%s memerlukan satu argumen", name)
			}
			l.Elems = append(l.Elems, args[0])
			return None, nil
		}}
	case "pop", "keluar":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(l.Elems) == 0 {
				return nil, kilaterr.Newf(kilaterr.KindIndeks, "%s daripada senarai kosong", name)
			}
			idx := len(l.Elems) - 1
			if len(args) == 1 {
				i, err := seqIndex(args[0], len(l.Elems))
				if err != nil {
					return nil, err
				}
				idx = i
			}
			v := l.Elems[idx]
			l.Elems = append(l.Elems[:idx], l.Elems[idx+1:]...)
			return v, nil
		}}
	case "buang":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 1 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "buang memerlukan satu argumen")
			}
			for i, e := range l.Elems {
				if Equal(e, args[0]) {
					l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
					return None, nil
				}
			}
			return nil, kilaterr.Newf(kilaterr.KindNilai, "Nilai tidak ditemui dalam senarai")
		}}
	}
	return nil
}

func dictMethod(d *Dict, name string) Value {
	switch name {
	case "kunci":
		return &Builtin{Name: name, Fn: func(_ []Value, _ map[string]Value) (Value, error) {
			keys := d.Keys()
			elems := make([]Value, len(keys))
			copy(elems, keys)
			return &List{Elems: elems}, nil
		}}
	case "nilai":
		return &Builtin{Name: name, Fn: func(_ []Value, _ map[string]Value) (Value, error) {
			var elems []Value
			for _, k := range d.Keys() {
				v, _ := d.Get(k)
				elems = append(elems, v)
			}
			return &List{Elems: elems}, nil
		}}
	case "dapat":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "dapat memerlukan satu atau dua argumen")
			}
			if v, ok := d.Get(args[0]); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return None, nil
		}}
	}
	return nil
}

func strMethod(s *Str, name string) Value {
	switch name {
	case "huruf_besar":
		return strFn(name, func() Value { return &Str{V: strings.ToUpper(s.V)} })
	case "huruf_kecil":
		return strFn(name, func() Value { return &Str{V: strings.ToLower(s.V)} })
	case "potong":
		return strFn(name, func() Value { return &Str{V: strings.TrimSpace(s.V)} })
	case "pisah":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			sep := " "
			if len(args) == 1 {
				sv, ok := args[0].(*Str)
				if !ok {
					return nil, kilaterr.Newf(kilaterr.KindJenis, "pemisah mesti rentetan")
				}
				sep = sv.V
			}
			var elems []Value
			for _, part := range strings.Split(s.V, sep) {
				elems = append(elems, &Str{V: part})
			}
			return &List{Elems: elems}, nil
		}}
	case "ganti":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 2 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "ganti memerlukan dua argumen")
			}
			from, ok1 := args[0].(*Str)
			to, ok2 := args[1].(*Str)
			if !ok1 || !ok2 {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "ganti memerlukan rentetan")
			}
			return &Str{V: strings.ReplaceAll(s.V, from.V, to.V)}, nil
		}}
	case "cantum":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 1 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "cantum memerlukan satu argumen")
			}
			it, err := GetIter(args[0])
			if err != nil {
				return nil, err
			}
			var parts []string
			for {
				v, ok := it.Next()
				if !ok {
					break
				}
				sv, ok := v.(*Str)
				if !ok {
					return nil, kilaterr.Newf(kilaterr.KindJenis, "cantum memerlukan rentetan sahaja")
				}
				parts = append(parts, sv.V)
			}
			return &Str{V: strings.Join(parts, s.V)}, nil
		}}
	case "mula_dengan":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			p, ok := argStr(args)
			if !ok {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "mula_dengan memerlukan satu rentetan")
			}
			return BoolOf(strings.HasPrefix(s.V, p)), nil
		}}
	case "akhir_dengan":
		return &Builtin{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) {
			p, ok := argStr(args)
			if !ok {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "akhir_dengan memerlukan satu rentetan")
			}
			return BoolOf(strings.HasSuffix(s.V, p)), nil
		}}
	}
	return nil
}

func strFn(name string, fn func() Value) Value {
	return &Builtin{Name: name, Fn: func(_ []Value, _ map[string]Value) (Value, error) {
		return fn(), nil
	}}
}

func argStr(args []Value) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	s, ok := args[0].(*Str)
	if !ok {
		return "", false
	}
	return s.V, true
}
