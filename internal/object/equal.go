package object

import (
	"hash/fnv"
	"math/big"
)

// Equal implements value equality for Kilat's built-in kinds: numeric
// cross-type comparison (int/float compare by numeric value), structural
// comparison for strings/bools/none, and pointer identity for everything
// else (lists/dicts/sets/instances use identity unless a language-level
// __eq__ hook is added later).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *Int:
		switch bv := b.(type) {
		case *Int:
			return av.V.Cmp(bv.V) == 0
		case *Float:
			f, _ := new(big.Float).SetInt(av.V).Float64()
			return f == bv.V
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Float:
			return av.V == bv.V
		case *Int:
			f, _ := new(big.Float).SetInt(bv.V).Float64()
			return f == av.V
		}
		return false
	case *Str:
		bv, ok := b.(*Str)
		return ok && av.V == bv.V
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case NoneVal:
		_, ok := b.(NoneVal)
		return ok
	case *Tuple:
		bv, ok := b.(*Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// HashValue computes a hash for use as a Dict/Set bucket key. Only
// immutable, naturally-hashable kinds (str, int, float, bool, none, tuple)
// are expected as dict keys; anything else hashes to a fixed sentinel so
// lookups degrade to the bucket's linear Equal scan rather than panicking.
func HashValue(v Value) uint64 {
	h := fnv.New64a()
	switch tv := v.(type) {
	case *Str:
		h.Write([]byte{'s'})
		h.Write([]byte(tv.V))
	case *Int:
		h.Write([]byte{'i'})
		h.Write([]byte(tv.V.String()))
	case *Float:
		h.Write([]byte{'f'})
		h.Write([]byte(formatFloat(tv.V)))
	case *Bool:
		h.Write([]byte{'b'})
		if tv.Value {
			h.Write([]byte{1})
		}
	case NoneVal:
		h.Write([]byte{'n'})
	case *Tuple:
		h.Write([]byte{'t'})
		for _, e := range tv.Elems {
			sub := HashValue(e)
			var b [8]byte
			for i := 0; i < 8; i++ {
				b[i] = byte(sub >> (8 * i))
			}
			h.Write(b[:])
		}
	default:
		h.Write([]byte{'?'})
	}
	return h.Sum64()
}
