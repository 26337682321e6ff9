// Package builtins seeds the fixed builtin-function table into a global
// scope. The same table backs both the tree interpreter and the VM; callers
// that need to invoke user-defined Kilat functions (peta, tapis,
// decorator-style helpers) go through the Caller hook so this package
// depends on neither execution engine. disusun takes no key function: it
// orders items with `<` and honours only the reverse keyword.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// Caller invokes any Kilat callable value (function, bound method, class,
// builtin). Both internal/interp and internal/vm implement it.
type Caller interface {
	CallValue(fn object.Value, args []object.Value, kwargs map[string]object.Value) (object.Value, error)
}

// Install registers every builtin into env. Output from cetak goes to out;
// input reads lines from in.
func Install(env *object.Environment, out io.Writer, in io.Reader, caller Caller) {
	b := &builtins{out: out, in: bufio.NewReader(in), caller: caller}

	table := map[string]object.BuiltinFunc{
		"cetak":          b.cetak,
		"input":          b.input,
		"panjang":        b.panjang,
		"julat":          b.julat,
		"jenis":          b.jenis,
		"abs":            b.abs,
		"mutlak":         b.abs,
		"maks":           b.maks,
		"maksimum":       b.maks,
		"min":            b.min,
		"minimum":        b.min,
		"jumlah":         b.jumlah,
		"disusun":        b.disusun,
		"susun":          b.disusun,
		"terbalik":       b.terbalik,
		"nombor_senarai": b.nomborSenarai,
		"cantum":         b.cantum,
		"int":            b.toInt,
		"nombor":         b.toInt,
		"float":          b.toFloat,
		"perpuluhan":     b.toFloat,
		"str":            b.toStr,
		"teks":           b.toStr,
		"list":           b.toList,
		"dict":           b.toDict,
		"set":            b.toSet,
		"tuple":          b.toTuple,
		"bool":           b.toBool,
		"punca":          b.punca,
		"kuasa":          b.kuasa,
		"bulat":          b.bulat,
		"aksara":         b.aksara,
		"kod":            b.kod,
		"ada_atribut":    b.adaAtribut,
		"adalah_jenis":   b.adalahJenis,
		"peta":           b.peta,
		"tapis":          b.tapis,
		"semua":          b.semua,
		"mana":           b.mana,
		"buka":           b.buka,
	}

	for name, fn := range table {
		env.Define(name, &object.Builtin{Name: name, Fn: fn})
	}
}

type builtins struct {
	out    io.Writer
	in     *bufio.Reader
	caller Caller
}

func wrongType(format string, args ...any) error {
	return kilaterr.Newf(kilaterr.KindJenis, format, args...)
}

func wrongValue(format string, args ...any) error {
	return kilaterr.Newf(kilaterr.KindNilai, format, args...)
}

// ---- I/O ------------------------------------------------------------------

func (b *builtins) cetak(args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	sep, end := " ", "\n"
	if v, ok := kwargs["sep"]; ok {
		if s, ok := v.(*object.Str); ok {
			sep = s.V
		}
	}
	if v, ok := kwargs["end"]; ok {
		if s, ok := v.(*object.Str); ok {
			end = s.V
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Fprint(b.out, strings.Join(parts, sep)+end)
	return object.None, nil
}

func (b *builtins) input(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) > 0 {
		fmt.Fprint(b.out, args[0].String())
	}
	line, err := b.in.ReadString('\n')
	if err != nil && line == "" {
		return nil, kilaterr.Newf(kilaterr.KindHenti, "Input tamat")
	}
	line = strings.TrimRight(line, "\r\n")
	return &object.Str{V: line}, nil
}

// ---- Sequences ------------------------------------------------------------

func (b *builtins) panjang(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("panjang memerlukan satu argumen, diberi %d", len(args))
	}
	n, err := object.Length(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewInt(int64(n)), nil
}

// julat returns a materialised list so it works directly in for loops.
func (b *builtins) julat(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := intArg("julat", a)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}
	var start, stop, step int64 = 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return nil, wrongValue("langkah julat tidak boleh sifar")
		}
	default:
		return nil, wrongValue("julat memerlukan 1 hingga 3 argumen, diberi %d", len(bounds))
	}
	var elems []object.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			elems = append(elems, object.NewInt(i))
		}
	} else {
		for i := start; i > stop; i += step {
			elems = append(elems, object.NewInt(i))
		}
	}
	return &object.List{Elems: elems}, nil
}

func intArg(fn string, v object.Value) (int64, error) {
	switch tv := v.(type) {
	case *object.Int:
		if !tv.V.IsInt64() {
			return 0, wrongValue("%s: nilai terlalu besar", fn)
		}
		return tv.V.Int64(), nil
	case *object.Float:
		return int64(tv.V), nil
	case *object.Bool:
		if tv.Value {
			return 1, nil
		}
		return 0, nil
	}
	return 0, wrongType("%s memerlukan nombor, diberi %s", fn, object.TypeName(v))
}

func (b *builtins) jenis(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("jenis memerlukan satu argumen")
	}
	switch tv := args[0].(type) {
	case *object.Instance:
		return &object.Str{V: tv.Class.Name}, nil
	case *object.Class:
		return &object.Str{V: fmt.Sprintf("kelas '%s'", tv.Name)}, nil
	}
	return &object.Str{V: object.TypeName(args[0])}, nil
}

// ---- Numeric helpers ------------------------------------------------------

func (b *builtins) abs(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("abs memerlukan satu argumen")
	}
	switch tv := args[0].(type) {
	case *object.Int:
		return object.NewBigInt(new(big.Int).Abs(tv.V)), nil
	case *object.Float:
		return &object.Float{V: math.Abs(tv.V)}, nil
	}
	return nil, wrongType("abs memerlukan nombor, diberi %s", object.TypeName(args[0]))
}

func (b *builtins) maks(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	return b.extreme("maks", ">", args)
}

func (b *builtins) min(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	return b.extreme("min", "<", args)
}

func (b *builtins) extreme(fn, op string, args []object.Value) (object.Value, error) {
	items := args
	if len(args) == 1 {
		it, err := object.GetIter(args[0])
		if err != nil {
			return nil, err
		}
		items = drain(it)
	}
	if len(items) == 0 {
		return nil, wrongValue("%s memerlukan sekurang-kurangnya satu nilai", fn)
	}
	best := items[0]
	for _, v := range items[1:] {
		r, err := object.BinaryOp(op, v, best)
		if err != nil {
			return nil, err
		}
		if object.Truthy(r) {
			best = v
		}
	}
	return best, nil
}

func (b *builtins) jumlah(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongValue("jumlah memerlukan satu atau dua argumen")
	}
	var total object.Value = object.NewInt(0)
	if len(args) == 2 {
		total = args[1]
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		total, err = object.BinaryOp("+", total, v)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

func (b *builtins) punca(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("punca memerlukan satu argumen")
	}
	f, err := floatArg("punca", args[0])
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, wrongValue("punca nombor negatif")
	}
	return &object.Float{V: math.Sqrt(f)}, nil
}

func (b *builtins) kuasa(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 2 {
		return nil, wrongValue("kuasa memerlukan dua argumen")
	}
	return object.BinaryOp("**", args[0], args[1])
}

func (b *builtins) bulat(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongValue("bulat memerlukan satu atau dua argumen")
	}
	f, err := floatArg("bulat", args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		nd, err := intArg("bulat", args[1])
		if err != nil {
			return nil, err
		}
		scale := math.Pow(10, float64(nd))
		return &object.Float{V: math.Round(f*scale) / scale}, nil
	}
	return object.NewInt(int64(math.Round(f))), nil
}

func floatArg(fn string, v object.Value) (float64, error) {
	switch tv := v.(type) {
	case *object.Int:
		f, _ := new(big.Float).SetInt(tv.V).Float64()
		return f, nil
	case *object.Float:
		return tv.V, nil
	case *object.Bool:
		if tv.Value {
			return 1, nil
		}
		return 0, nil
	}
	return 0, wrongType("%s memerlukan nombor, diberi %s", fn, object.TypeName(v))
}

// ---- Sequence helpers -----------------------------------------------------

func drain(it object.Iterator) []object.Value {
	var items []object.Value
	for {
		v, ok := it.Next()
		if !ok {
			return items
		}
		items = append(items, v)
	}
}

func (b *builtins) disusun(args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("disusun memerlukan satu argumen")
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	items := drain(it)
	reverse := false
	if v, ok := kwargs["reverse"]; ok {
		reverse = object.Truthy(v)
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		r, err := object.BinaryOp("<", items[i], items[j])
		if err != nil {
			sortErr = err
			return false
		}
		return object.Truthy(r)
	})
	if sortErr != nil {
		return nil, sortErr
	}
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return &object.List{Elems: items}, nil
}

func (b *builtins) terbalik(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("terbalik memerlukan satu argumen")
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	items := drain(it)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return &object.List{Elems: items}, nil
}

func (b *builtins) nomborSenarai(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongValue("nombor_senarai memerlukan satu atau dua argumen")
	}
	start := int64(0)
	if len(args) == 2 {
		var err error
		start, err = intArg("nombor_senarai", args[1])
		if err != nil {
			return nil, err
		}
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	var elems []object.Value
	for i := start; ; i++ {
		v, ok := it.Next()
		if !ok {
			break
		}
		elems = append(elems, &object.Tuple{Elems: []object.Value{object.NewInt(i), v}})
	}
	return &object.List{Elems: elems}, nil
}

func (b *builtins) cantum(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	iters := make([]object.Iterator, len(args))
	for i, a := range args {
		it, err := object.GetIter(a)
		if err != nil {
			return nil, err
		}
		iters[i] = it
	}
	var elems []object.Value
	for len(iters) > 0 {
		row := make([]object.Value, len(iters))
		for i, it := range iters {
			v, ok := it.Next()
			if !ok {
				return &object.List{Elems: elems}, nil
			}
			row[i] = v
		}
		elems = append(elems, &object.Tuple{Elems: row})
	}
	return &object.List{Elems: elems}, nil
}

func (b *builtins) peta(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 2 {
		return nil, wrongValue("peta memerlukan dua argumen")
	}
	it, err := object.GetIter(args[1])
	if err != nil {
		return nil, err
	}
	var elems []object.Value
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		r, err := b.caller.CallValue(args[0], []object.Value{v}, nil)
		if err != nil {
			return nil, err
		}
		elems = append(elems, r)
	}
	return &object.List{Elems: elems}, nil
}

func (b *builtins) tapis(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 2 {
		return nil, wrongValue("tapis memerlukan dua argumen")
	}
	it, err := object.GetIter(args[1])
	if err != nil {
		return nil, err
	}
	var elems []object.Value
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		keep := object.Truthy(v)
		if _, isNone := args[0].(object.NoneVal); !isNone {
			r, err := b.caller.CallValue(args[0], []object.Value{v}, nil)
			if err != nil {
				return nil, err
			}
			keep = object.Truthy(r)
		}
		if keep {
			elems = append(elems, v)
		}
	}
	return &object.List{Elems: elems}, nil
}

func (b *builtins) semua(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("semua memerlukan satu argumen")
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok := it.Next()
		if !ok {
			return object.True, nil
		}
		if !object.Truthy(v) {
			return object.False, nil
		}
	}
}

func (b *builtins) mana(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("mana memerlukan satu argumen")
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok := it.Next()
		if !ok {
			return object.False, nil
		}
		if object.Truthy(v) {
			return object.True, nil
		}
	}
}

// ---- Type coercions -------------------------------------------------------

func (b *builtins) toInt(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongValue("int memerlukan satu atau dua argumen")
	}
	base := 10
	if len(args) == 2 {
		n, err := intArg("int", args[1])
		if err != nil {
			return nil, err
		}
		base = int(n)
	}
	switch tv := args[0].(type) {
	case *object.Int:
		return tv, nil
	case *object.Float:
		return object.NewInt(int64(tv.V)), nil
	case *object.Bool:
		if tv.Value {
			return object.NewInt(1), nil
		}
		return object.NewInt(0), nil
	case *object.Str:
		v, ok := new(big.Int).SetString(strings.TrimSpace(tv.V), base)
		if !ok {
			return nil, wrongValue("Tidak dapat menukar '%s' kepada int", tv.V)
		}
		return object.NewBigInt(v), nil
	}
	return nil, wrongType("Tidak dapat menukar %s kepada int", object.TypeName(args[0]))
}

func (b *builtins) toFloat(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("float memerlukan satu argumen")
	}
	switch tv := args[0].(type) {
	case *object.Float:
		return tv, nil
	case *object.Int:
		f, _ := new(big.Float).SetInt(tv.V).Float64()
		return &object.Float{V: f}, nil
	case *object.Bool:
		if tv.Value {
			return &object.Float{V: 1}, nil
		}
		return &object.Float{V: 0}, nil
	case *object.Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv.V), 64)
		if err != nil {
			return nil, wrongValue("Tidak dapat menukar '%s' kepada float", tv.V)
		}
		return &object.Float{V: f}, nil
	}
	return nil, wrongType("Tidak dapat menukar %s kepada float", object.TypeName(args[0]))
}

func (b *builtins) toStr(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) == 0 {
		return &object.Str{V: ""}, nil
	}
	return &object.Str{V: args[0].String()}, nil
}

func (b *builtins) toList(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) == 0 {
		return &object.List{}, nil
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	return &object.List{Elems: drain(it)}, nil
}

func (b *builtins) toTuple(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) == 0 {
		return &object.Tuple{}, nil
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	return &object.Tuple{Elems: drain(it)}, nil
}

func (b *builtins) toSet(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	s := object.NewSet()
	if len(args) == 0 {
		return s, nil
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok := it.Next()
		if !ok {
			return s, nil
		}
		s.Add(v)
	}
}

func (b *builtins) toDict(args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	d := object.NewDict()
	if len(args) == 1 {
		if src, ok := args[0].(*object.Dict); ok {
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				d.Set(k, v)
			}
		} else {
			return nil, wrongType("dict memerlukan dict atau argumen kata kunci")
		}
	}
	for name, v := range kwargs {
		d.Set(&object.Str{V: name}, v)
	}
	return d, nil
}

func (b *builtins) toBool(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) == 0 {
		return object.False, nil
	}
	return object.BoolOf(object.Truthy(args[0])), nil
}

// ---- Characters -----------------------------------------------------------

func (b *builtins) aksara(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("aksara memerlukan satu argumen")
	}
	n, err := intArg("aksara", args[0])
	if err != nil {
		return nil, err
	}
	return &object.Str{V: string(rune(n))}, nil
}

func (b *builtins) kod(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 1 {
		return nil, wrongValue("kod memerlukan satu argumen")
	}
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, wrongType("kod memerlukan rentetan satu aksara")
	}
	runes := []rune(s.V)
	if len(runes) != 1 {
		return nil, wrongValue("kod memerlukan rentetan satu aksara, diberi %d", len(runes))
	}
	return object.NewInt(int64(runes[0])), nil
}

// ---- Reflection -----------------------------------------------------------

func (b *builtins) adaAtribut(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 2 {
		return nil, wrongValue("ada_atribut memerlukan dua argumen")
	}
	name, ok := args[1].(*object.Str)
	if !ok {
		return nil, wrongType("nama atribut mesti rentetan")
	}
	switch tv := args[0].(type) {
	case *object.Instance:
		if _, ok := tv.Attrs[name.V]; ok {
			return object.True, nil
		}
		m, _ := tv.Class.FindMethod(name.V)
		return object.BoolOf(m != nil), nil
	case *object.Class:
		m, _ := tv.FindMethod(name.V)
		if m != nil {
			return object.True, nil
		}
		_, ok := tv.FindClassVar(name.V)
		return object.BoolOf(ok), nil
	case *object.Module:
		_, ok := tv.Attrs[name.V]
		return object.BoolOf(ok), nil
	}
	return object.False, nil
}

func (b *builtins) adalahJenis(args []object.Value, _ map[string]object.Value) (object.Value, error) {
	if len(args) != 2 {
		return nil, wrongValue("adalah_jenis memerlukan dua argumen")
	}
	switch want := args[1].(type) {
	case *object.Class:
		inst, ok := args[0].(*object.Instance)
		return object.BoolOf(ok && inst.Class.IsSubclassOf(want)), nil
	case *object.Str:
		return object.BoolOf(object.TypeName(args[0]) == want.V), nil
	}
	return nil, wrongType("adalah_jenis memerlukan kelas atau nama jenis")
}
