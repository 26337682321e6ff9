package object

import "fmt"

// dictEntry is one bucket slot; collisions are resolved with a short linear
// scan, the same tradeoff the teacher's PyDict.DictGet/DictSet makes.
type dictEntry struct {
	key   Value
	value Value
}

// Dict is an insertion-ordered mapping, per spec §3. Grounded on the
// teacher's PyDict: hash buckets for lookup, a parallel orderedKeys slice
// for iteration and String() in insertion order.
type Dict struct {
	buckets     map[uint64][]dictEntry
	orderedKeys []Value
}

func NewDict() *Dict {
	return &Dict{buckets: make(map[uint64][]dictEntry)}
}

func (d *Dict) Type() string { return "dict" }

func (d *Dict) String() string {
	s := "{"
	for i, k := range d.orderedKeys {
		if i > 0 {
			s += ", "
		}
		v, _ := d.Get(k)
		s += fmt.Sprintf("%s: %s", Repr(k), Repr(v))
	}
	return s + "}"
}

func (d *Dict) Len() int { return len(d.orderedKeys) }

func (d *Dict) Keys() []Value { return d.orderedKeys }

func (d *Dict) Get(key Value) (Value, bool) {
	h := HashValue(key)
	for _, e := range d.buckets[h] {
		if Equal(e.key, key) {
			return e.value, true
		}
	}
	return nil, false
}

func (d *Dict) Set(key, value Value) {
	h := HashValue(key)
	entries := d.buckets[h]
	for i, e := range entries {
		if Equal(e.key, key) {
			entries[i].value = value
			return
		}
	}
	d.buckets[h] = append(entries, dictEntry{key: key, value: value})
	d.orderedKeys = append(d.orderedKeys, key)
}

func (d *Dict) Delete(key Value) bool {
	h := HashValue(key)
	entries := d.buckets[h]
	for i, e := range entries {
		if Equal(e.key, key) {
			d.buckets[h] = append(entries[:i], entries[i+1:]...)
			for j, k := range d.orderedKeys {
				if Equal(k, key) {
					d.orderedKeys = append(d.orderedKeys[:j], d.orderedKeys[j+1:]...)
					break
				}
			}
			return true
		}
	}
	return false
}

// Set is an unordered collection of unique values, reusing Dict's hash
// bucket machinery with a True-valued entry per key.
type Set struct {
	inner *Dict
}

func NewSet() *Set { return &Set{inner: NewDict()} }

func (s *Set) Type() string { return "set" }

func (s *Set) String() string {
	if len(s.inner.orderedKeys) == 0 {
		return "set()"
	}
	out := "{"
	for i, k := range s.inner.orderedKeys {
		if i > 0 {
			out += ", "
		}
		out += Repr(k)
	}
	return out + "}"
}

func (s *Set) Len() int               { return s.inner.Len() }
func (s *Set) Has(v Value) bool       { _, ok := s.inner.Get(v); return ok }
func (s *Set) Add(v Value)            { s.inner.Set(v, True) }
func (s *Set) Remove(v Value) bool    { return s.inner.Delete(v) }
func (s *Set) Items() []Value         { return s.inner.Keys() }

// Slice is a[start:stop:step]; any component may be nil (absent).
type Slice struct {
	Start, Stop, Step Value
}

func (s *Slice) Type() string   { return "slice" }
func (s *Slice) String() string { return "slice(...)" }
