package object

// Truthy implements spec §4.3: none/false/numeric-zero/empty-collection are
// false, everything else is true.
func Truthy(v Value) bool {
	switch tv := v.(type) {
	case NoneVal:
		return false
	case *Bool:
		return tv.Value
	case *Int:
		return tv.V.Sign() != 0
	case *Float:
		return tv.V != 0
	case *Str:
		return tv.V != ""
	case *List:
		return len(tv.Elems) != 0
	case *Tuple:
		return len(tv.Elems) != 0
	case *Dict:
		return tv.Len() != 0
	case *Set:
		return tv.Len() != 0
	default:
		return true
	}
}

// TypeName returns the Kilat-facing type name used by `jenis`/`adalah_jenis`.
func TypeName(v Value) string {
	if v == nil {
		return "tiada"
	}
	return v.Type()
}
