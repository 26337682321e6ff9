package object

import (
	"math"
	"math/big"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
)

// BinaryOp applies a non-short-circuit binary operator to two values. The
// short-circuiting `dan`/`atau_logik` forms are handled by the interpreter
// and compiler directly and never reach here.
func BinaryOp(op string, left, right Value) (Value, error) {
	switch op {
	case "+":
		return add(left, right)
	case "-", "*", "/", "//", "%", "**":
		return arith(op, left, right)
	case "==":
		return BoolOf(Equal(left, right)), nil
	case "!=":
		return BoolOf(!Equal(left, right)), nil
	case "<", ">", "<=", ">=":
		return compare(op, left, right)
	case "dalam":
		ok, err := Contains(left, right)
		if err != nil {
			return nil, err
		}
		return BoolOf(ok), nil
	case "adalah":
		return BoolOf(is(left, right)), nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis, "Operator tidak dikenali: %s", op)
}

// UnaryOp applies `-`, `+`, or `bukan`.
func UnaryOp(op string, v Value) (Value, error) {
	switch op {
	case "-":
		switch tv := v.(type) {
		case *Int:
			return NewBigInt(new(big.Int).Neg(tv.V)), nil
		case *Float:
			return &Float{V: -tv.V}, nil
		case *Bool:
			if tv.Value {
				return NewInt(-1), nil
			}
			return NewInt(0), nil
		}
	case "+":
		switch v.(type) {
		case *Int, *Float:
			return v, nil
		}
	case "bukan":
		return BoolOf(!Truthy(v)), nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Operan tidak sah untuk operator unary '%s': %s", op, TypeName(v))
}

func is(a, b Value) bool {
	if _, ok := a.(NoneVal); ok {
		_, ok2 := b.(NoneVal)
		return ok2
	}
	return a == b
}

func add(left, right Value) (Value, error) {
	switch lv := left.(type) {
	case *Str:
		if rv, ok := right.(*Str); ok {
			return &Str{V: lv.V + rv.V}, nil
		}
	case *List:
		if rv, ok := right.(*List); ok {
			elems := make([]Value, 0, len(lv.Elems)+len(rv.Elems))
			elems = append(elems, lv.Elems...)
			elems = append(elems, rv.Elems...)
			return &List{Elems: elems}, nil
		}
	case *Tuple:
		if rv, ok := right.(*Tuple); ok {
			elems := make([]Value, 0, len(lv.Elems)+len(rv.Elems))
			elems = append(elems, lv.Elems...)
			elems = append(elems, rv.Elems...)
			return &Tuple{Elems: elems}, nil
		}
	}
	return arith("+", left, right)
}

// arith applies a numeric operator, promoting to float when either operand
// is a float and staying in arbitrary-precision integers otherwise.
func arith(op string, left, right Value) (Value, error) {
	if op == "*" {
		if v, ok, err := repeat(left, right); ok {
			return v, err
		}
	}

	li, lIsInt := asInt(left)
	ri, rIsInt := asInt(right)
	if lIsInt && rIsInt {
		return intArith(op, li, ri)
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		return floatArith(op, lf, rf)
	}

	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Operan tidak sah untuk '%s': %s dan %s", op, TypeName(left), TypeName(right))
}

// repeat handles sequence repetition: "ab" * 3, [x] * n, (x,) * n.
func repeat(left, right Value) (Value, bool, error) {
	seq, n := left, right
	if _, ok := nAsSmallInt(left); ok {
		switch right.(type) {
		case *Str, *List, *Tuple:
			seq, n = right, left
		}
	}
	count, ok := nAsSmallInt(n)
	if !ok {
		return nil, false, nil
	}
	if count < 0 {
		count = 0
	}
	switch sv := seq.(type) {
	case *Str:
		return &Str{V: strings.Repeat(sv.V, count)}, true, nil
	case *List:
		elems := make([]Value, 0, len(sv.Elems)*count)
		for i := 0; i < count; i++ {
			elems = append(elems, sv.Elems...)
		}
		return &List{Elems: elems}, true, nil
	case *Tuple:
		elems := make([]Value, 0, len(sv.Elems)*count)
		for i := 0; i < count; i++ {
			elems = append(elems, sv.Elems...)
		}
		return &Tuple{Elems: elems}, true, nil
	}
	return nil, false, nil
}

func nAsSmallInt(v Value) (int, bool) {
	iv, ok := v.(*Int)
	if !ok || !iv.V.IsInt64() {
		return 0, false
	}
	return int(iv.V.Int64()), true
}

func asInt(v Value) (*big.Int, bool) {
	switch tv := v.(type) {
	case *Int:
		return tv.V, true
	case *Bool:
		if tv.Value {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	}
	return nil, false
}

func asFloat(v Value) (float64, bool) {
	switch tv := v.(type) {
	case *Int:
		f, _ := new(big.Float).SetInt(tv.V).Float64()
		return f, true
	case *Float:
		return tv.V, true
	case *Bool:
		if tv.Value {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func intArith(op string, a, b *big.Int) (Value, error) {
	switch op {
	case "+":
		return NewBigInt(new(big.Int).Add(a, b)), nil
	case "-":
		return NewBigInt(new(big.Int).Sub(a, b)), nil
	case "*":
		return NewBigInt(new(big.Int).Mul(a, b)), nil
	case "/":
		if b.Sign() == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian dengan sifar")
		}
		af, _ := new(big.Float).SetInt(a).Float64()
		bf, _ := new(big.Float).SetInt(b).Float64()
		return &Float{V: af / bf}, nil
	case "//":
		if b.Sign() == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian lantai dengan sifar")
		}
		q, _ := floorDivMod(a, b)
		return NewBigInt(q), nil
	case "%":
		if b.Sign() == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian dengan sifar")
		}
		_, r := floorDivMod(a, b)
		return NewBigInt(r), nil
	case "**":
		if b.Sign() < 0 {
			af, _ := new(big.Float).SetInt(a).Float64()
			bf, _ := new(big.Float).SetInt(b).Float64()
			return &Float{V: math.Pow(af, bf)}, nil
		}
		return NewBigInt(new(big.Int).Exp(a, b, nil)), nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis, "Operator tidak dikenali: %s", op)
}

// floorDivMod computes floored division and its remainder, matching the
// sign conventions of the source language (remainder takes the divisor's
// sign) rather than Go's truncating Quo/Rem.
func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q := new(big.Int)
	r := new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		r.Add(r, b)
	}
	return q, r
}

func floatArith(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return &Float{V: a + b}, nil
	case "-":
		return &Float{V: a - b}, nil
	case "*":
		return &Float{V: a * b}, nil
	case "/":
		if b == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian dengan sifar")
		}
		return &Float{V: a / b}, nil
	case "//":
		if b == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian lantai dengan sifar")
		}
		return &Float{V: math.Floor(a / b)}, nil
	case "%":
		if b == 0 {
			return nil, kilaterr.Newf(kilaterr.KindPembahagian, "Pembahagian dengan sifar")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return &Float{V: m}, nil
	case "**":
		return &Float{V: math.Pow(a, b)}, nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis, "Operator tidak dikenali: %s", op)
}

func compare(op string, left, right Value) (Value, error) {
	if ls, ok := left.(*Str); ok {
		if rs, ok := right.(*Str); ok {
			return orderResult(op, strings.Compare(ls.V, rs.V)), nil
		}
	}

	li, lIsInt := asInt(left)
	ri, rIsInt := asInt(right)
	if lIsInt && rIsInt {
		return orderResult(op, li.Cmp(ri)), nil
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch {
		case lf < rf:
			return orderResult(op, -1), nil
		case lf > rf:
			return orderResult(op, 1), nil
		default:
			return orderResult(op, 0), nil
		}
	}

	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Tidak boleh membandingkan %s dengan %s", TypeName(left), TypeName(right))
}

func orderResult(op string, cmp int) Value {
	switch op {
	case "<":
		return BoolOf(cmp < 0)
	case ">":
		return BoolOf(cmp > 0)
	case "<=":
		return BoolOf(cmp <= 0)
	case ">=":
		return BoolOf(cmp >= 0)
	}
	return False
}

// Contains implements the `dalam` membership test.
func Contains(item, container Value) (bool, error) {
	switch cv := container.(type) {
	case *Str:
		iv, ok := item.(*Str)
		if !ok {
			return false, kilaterr.Newf(kilaterr.KindJenis,
				"'dalam' memerlukan rentetan di kiri apabila kanan adalah rentetan")
		}
		return strings.Contains(cv.V, iv.V), nil
	case *List:
		for _, e := range cv.Elems {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case *Tuple:
		for _, e := range cv.Elems {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case *Dict:
		_, ok := cv.Get(item)
		return ok, nil
	case *Set:
		return cv.Has(item), nil
	}
	return false, kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak menyokong 'dalam'", TypeName(container))
}

// Length implements `panjang` for every sized kind.
func Length(v Value) (int, error) {
	switch tv := v.(type) {
	case *Str:
		return len([]rune(tv.V)), nil
	case *List:
		return len(tv.Elems), nil
	case *Tuple:
		return len(tv.Elems), nil
	case *Dict:
		return tv.Len(), nil
	case *Set:
		return tv.Len(), nil
	}
	return 0, kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak mempunyai panjang", TypeName(v))
}

// GetIter produces an iterator over any iterable value: lists and tuples
// by element, strings by character, dicts by key, sets by member.
func GetIter(v Value) (Iterator, error) {
	switch tv := v.(type) {
	case Iterator:
		return tv, nil
	case *List:
		items := make([]Value, len(tv.Elems))
		copy(items, tv.Elems)
		return &SeqIterator{Items: items}, nil
	case *Tuple:
		items := make([]Value, len(tv.Elems))
		copy(items, tv.Elems)
		return &SeqIterator{Items: items}, nil
	case *Str:
		runes := []rune(tv.V)
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = &Str{V: string(r)}
		}
		return &SeqIterator{Items: items}, nil
	case *Dict:
		keys := tv.Keys()
		items := make([]Value, len(keys))
		copy(items, keys)
		return &SeqIterator{Items: items}, nil
	case *Set:
		members := tv.Items()
		items := make([]Value, len(members))
		copy(items, members)
		return &SeqIterator{Items: items}, nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Objek tidak boleh diulang: '%s'", TypeName(v))
}

// GetIndex implements subscripting, including slice objects as indices.
func GetIndex(obj, idx Value) (Value, error) {
	if sl, ok := idx.(*Slice); ok {
		return getSlice(obj, sl)
	}
	switch ov := obj.(type) {
	case *List:
		i, err := seqIndex(idx, len(ov.Elems))
		if err != nil {
			return nil, err
		}
		return ov.Elems[i], nil
	case *Tuple:
		i, err := seqIndex(idx, len(ov.Elems))
		if err != nil {
			return nil, err
		}
		return ov.Elems[i], nil
	case *Str:
		runes := []rune(ov.V)
		i, err := seqIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return &Str{V: string(runes[i])}, nil
	case *Dict:
		v, ok := ov.Get(idx)
		if !ok {
			return nil, kilaterr.Newf(kilaterr.KindKunci, "Kunci tidak ditemui: %s", Repr(idx))
		}
		return v, nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak boleh diindeks", TypeName(obj))
}

// SetIndex implements subscript assignment on lists and dicts.
func SetIndex(obj, idx, value Value) error {
	switch ov := obj.(type) {
	case *List:
		i, err := seqIndex(idx, len(ov.Elems))
		if err != nil {
			return err
		}
		ov.Elems[i] = value
		return nil
	case *Dict:
		ov.Set(idx, value)
		return nil
	}
	return kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak menyokong tugasan indeks", TypeName(obj))
}

// DelIndex implements `padam obj[idx]`.
func DelIndex(obj, idx Value) error {
	switch ov := obj.(type) {
	case *List:
		i, err := seqIndex(idx, len(ov.Elems))
		if err != nil {
			return err
		}
		ov.Elems = append(ov.Elems[:i], ov.Elems[i+1:]...)
		return nil
	case *Dict:
		if !ov.Delete(idx) {
			return kilaterr.Newf(kilaterr.KindKunci, "Kunci tidak ditemui: %s", Repr(idx))
		}
		return nil
	}
	return kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak menyokong padam indeks", TypeName(obj))
}

// seqIndex validates an index against a sequence length, resolving
// negative indices from the end.
func seqIndex(idx Value, length int) (int, error) {
	i, ok := nAsSmallInt(idx)
	if !ok {
		if b, isBool := idx.(*Bool); isBool {
			if b.Value {
				i = 1
			}
			ok = true
		}
	}
	if !ok {
		return 0, kilaterr.Newf(kilaterr.KindJenis,
			"Indeks mesti integer, bukan %s", TypeName(idx))
	}
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, kilaterr.Newf(kilaterr.KindIndeks, "Indeks di luar julat: %d", i)
	}
	return i, nil
}

func getSlice(obj Value, sl *Slice) (Value, error) {
	switch ov := obj.(type) {
	case *List:
		elems, err := sliceSeq(ov.Elems, sl)
		if err != nil {
			return nil, err
		}
		return &List{Elems: elems}, nil
	case *Tuple:
		elems, err := sliceSeq(ov.Elems, sl)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elems: elems}, nil
	case *Str:
		runes := []rune(ov.V)
		elems := make([]Value, len(runes))
		for i, r := range runes {
			elems[i] = &Str{V: string(r)}
		}
		sliced, err := sliceSeq(elems, sl)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, e := range sliced {
			b.WriteString(e.(*Str).V)
		}
		return &Str{V: b.String()}, nil
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis,
		"Objek jenis '%s' tidak boleh dihiris", TypeName(obj))
}

func sliceSeq(elems []Value, sl *Slice) ([]Value, error) {
	length := len(elems)
	step := 1
	if sl.Step != nil {
		if _, isNone := sl.Step.(NoneVal); !isNone {
			s, ok := nAsSmallInt(sl.Step)
			if !ok {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "Langkah hirisan mesti integer")
			}
			if s == 0 {
				return nil, kilaterr.Newf(kilaterr.KindNilai, "Langkah hirisan tidak boleh sifar")
			}
			step = s
		}
	}

	start, stop := 0, length
	if step < 0 {
		start, stop = length-1, -1
	}
	if sl.Start != nil {
		if _, isNone := sl.Start.(NoneVal); !isNone {
			s, ok := nAsSmallInt(sl.Start)
			if !ok {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "Sempadan hirisan mesti integer")
			}
			start = clampSliceBound(s, length, step)
		}
	}
	if sl.Stop != nil {
		if _, isNone := sl.Stop.(NoneVal); !isNone {
			s, ok := nAsSmallInt(sl.Stop)
			if !ok {
				return nil, kilaterr.Newf(kilaterr.KindJenis, "Sempadan hirisan mesti integer")
			}
			stop = clampSliceBound(s, length, step)
		}
	}

	var out []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, elems[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, elems[i])
		}
	}
	return out, nil
}

func clampSliceBound(i, length, step int) int {
	if i < 0 {
		i += length
		if i < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
	}
	if i > length {
		return length
	}
	if step < 0 && i >= length {
		return length - 1
	}
	return i
}
