package vm

import (
	"github.com/rahmanazhar/Kilat-Lang/internal/compiler"
	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// CallValue dispatches any callable: bytecode functions enter a new frame,
// classes instantiate, builtins call straight through. It also satisfies
// the builtins Caller hook.
func (vm *VM) CallValue(fn object.Value, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	switch f := fn.(type) {
	case *object.Function:
		return vm.callCompiled(f, args, kwargs)
	case *object.BoundMethod:
		bound := make([]object.Value, 0, len(args)+1)
		bound = append(bound, f.Instance)
		bound = append(bound, args...)
		return vm.callCompiled(f.Func, bound, kwargs)
	case *object.Builtin:
		return f.Fn(args, kwargs)
	case *object.Class:
		return vm.instantiate(f, args, kwargs)
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis, "Tidak boleh dipanggil: %s", object.TypeName(fn))
}

// callCompiled binds arguments into a fresh scope under the function's
// closure and executes its CodeObject in a new frame. Defaults were already
// evaluated when MAKE_FUNCTION ran.
func (vm *VM) callCompiled(fn *object.Function, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	code, ok := fn.Body.(*compiler.CodeObject)
	if !ok {
		return nil, kilaterr.Newf(kilaterr.KindJenis,
			"Fungsi '%s' bukan fungsi kod bait", fn.Name)
	}

	if vm.depth >= vm.MaxFrameDepth {
		return nil, kilaterr.Newf(kilaterr.KindHenti,
			"Kedalaman rekursi melebihi had %d", vm.MaxFrameDepth)
	}

	funcEnv := object.NewEnvironment(fn.Closure)

	bound := len(args)
	if bound > len(fn.Params) {
		bound = len(fn.Params)
	}
	for j := 0; j < bound; j++ {
		funcEnv.SetLocal(fn.Params[j], args[j])
	}

	if fn.VarArgs != "" {
		extra := args[bound:]
		elems := make([]object.Value, len(extra))
		copy(elems, extra)
		funcEnv.SetLocal(fn.VarArgs, &object.Tuple{Elems: elems})
	} else if len(args) > len(fn.Params) {
		return nil, kilaterr.Newf(kilaterr.KindNilai,
			"Fungsi '%s' menerima paling banyak %d argumen, diberi %d",
			fn.Name, len(fn.Params), len(args))
	}

	var extraKw map[string]object.Value
	if fn.KwArgs != "" {
		extraKw = make(map[string]object.Value)
	}
	for name, v := range kwargs {
		if hasParam(fn.Params, name) {
			funcEnv.SetLocal(name, v)
		} else if extraKw != nil {
			extraKw[name] = v
		} else {
			return nil, kilaterr.Newf(kilaterr.KindNilai,
				"Fungsi '%s' tidak ada parameter '%s'", fn.Name, name)
		}
	}
	if fn.KwArgs != "" {
		d := object.NewDict()
		for name, v := range extraKw {
			d.Set(&object.Str{V: name}, v)
		}
		funcEnv.SetLocal(fn.KwArgs, d)
	}

	requiredCount := len(fn.Params) - len(fn.Defaults)
	for j, param := range fn.Params {
		if funcEnv.HasLocal(param) {
			continue
		}
		di := j - requiredCount
		if di < 0 || di >= len(fn.Defaults) {
			return nil, kilaterr.Newf(kilaterr.KindNilai,
				"Fungsi '%s' memerlukan argumen untuk '%s'", fn.Name, param)
		}
		v, ok := fn.Defaults[di].(object.Value)
		if !ok {
			return nil, kilaterr.Newf(kilaterr.KindJenis,
				"Nilai lalai rosak untuk '%s'", param)
		}
		funcEnv.SetLocal(param, v)
	}

	vm.depth++
	defer func() { vm.depth-- }()
	return vm.runFrame(newFrame(code, funcEnv))
}

func hasParam(params []string, name string) bool {
	for _, p := range params {
		if p == name {
			return true
		}
	}
	return false
}

func (vm *VM) instantiate(klass *object.Class, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	inst := object.NewInstance(klass)
	if init, _ := klass.FindMethod("__init__"); init != nil {
		bound := make([]object.Value, 0, len(args)+1)
		bound = append(bound, inst)
		bound = append(bound, args...)
		if _, err := vm.callCompiled(init, bound, kwargs); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, kilaterr.Newf(kilaterr.KindNilai,
			"Kelas '%s' tidak menerima argumen", klass.Name)
	}
	return inst, nil
}
