package interp

import (
	"github.com/rahmanazhar/Kilat-Lang/internal/ast"
	"github.com/rahmanazhar/Kilat-Lang/internal/kilaterr"
	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

func (i *Interpreter) evalCall(n *ast.Call, env *object.Environment) (object.Value, error) {
	callee, err := i.Eval(n.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]object.Value, len(n.Args))
	for j, a := range n.Args {
		v, err := i.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[j] = v
	}
	var kwargs map[string]object.Value
	if len(n.KwNames) > 0 {
		kwargs = make(map[string]object.Value, len(n.KwNames))
		for j, name := range n.KwNames {
			v, err := i.Eval(n.KwValues[j], env)
			if err != nil {
				return nil, err
			}
			kwargs[name] = v
		}
	}
	result, err := i.CallValue(callee, args, kwargs)
	if err != nil {
		return nil, at(err, n)
	}
	return result, nil
}

// CallValue dispatches any callable value; it also satisfies the builtins
// Caller hook so peta/tapis can call back into user functions.
func (i *Interpreter) CallValue(fn object.Value, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	switch f := fn.(type) {
	case *object.Function:
		return i.callFunction(f, args, kwargs)
	case *object.BoundMethod:
		bound := make([]object.Value, 0, len(args)+1)
		bound = append(bound, f.Instance)
		bound = append(bound, args...)
		return i.callFunction(f.Func, bound, kwargs)
	case *object.Builtin:
		return f.Fn(args, kwargs)
	case *object.Class:
		return i.instantiate(f, args, kwargs)
	}
	return nil, kilaterr.Newf(kilaterr.KindJenis, "Tidak boleh dipanggil: %s", object.TypeName(fn))
}

// callFunction binds arguments per the call contract: positionals left to
// right, overflow into *args, keywords by name with overflow into **kwargs,
// then defaults evaluated lazily in the defining scope.
func (i *Interpreter) callFunction(fn *object.Function, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	body, ok := fn.Body.([]ast.Node)
	if !ok {
		return nil, kilaterr.Newf(kilaterr.KindJenis,
			"Fungsi '%s' bukan fungsi pentafsir", fn.Name)
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
		if paramIndex(fn.Params, name) >= 0 {
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
		defNode, ok := fn.Defaults[di].(ast.Node)
		if !ok {
			return nil, kilaterr.Newf(kilaterr.KindJenis,
				"Nilai lalai rosak untuk '%s'", param)
		}
		v, err := i.Eval(defNode, fn.Closure)
		if err != nil {
			return nil, err
		}
		funcEnv.SetLocal(param, v)
	}

	if err := i.execBlock(body, funcEnv); err != nil {
		if ret, ok := err.(returnSignal); ok {
			return ret.value, nil
		}
		return nil, err
	}
	return object.None, nil
}

func paramIndex(params []string, name string) int {
	for j, p := range params {
		if p == name {
			return j
		}
	}
	return -1
}

func (i *Interpreter) execFunctionDef(n *ast.FunctionDef, env *object.Environment) error {
	defaults := make([]any, len(n.Defaults))
	for j, d := range n.Defaults {
		defaults[j] = d
	}
	var fn object.Value = &object.Function{
		Name: n.Name, Params: n.Params, Defaults: defaults,
		VarArgs: n.VarArgs, KwArgs: n.KwArgs,
		Body: n.Body, Closure: env,
	}

	// Decorators apply innermost first (reverse source order).
	for j := len(n.Decorators) - 1; j >= 0; j-- {
		dec, err := i.Eval(n.Decorators[j], env)
		if err != nil {
			return err
		}
		fn, err = i.CallValue(dec, []object.Value{fn}, nil)
		if err != nil {
			return at(err, n)
		}
	}

	env.Define(n.Name, fn)
	return nil
}

// execClassDef runs the class body in a dedicated child scope: methods
// capture that scope as their closure so class-level constants are visible
// from method bodies.
func (i *Interpreter) execClassDef(n *ast.ClassDef, env *object.Environment) error {
	var base *object.Class
	if n.BaseClass != "" {
		baseVal, ok := env.Get(n.BaseClass)
		if !ok {
			return at(kilaterr.Newf(kilaterr.KindNama,
				"Pembolehubah tidak ditakrifkan: '%s'", n.BaseClass), n)
		}
		base, _ = baseVal.(*object.Class)
	}

	classEnv := object.NewEnvironment(env)
	klass := object.NewClass(n.Name, base)

	for _, stmt := range n.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			defaults := make([]any, len(s.Defaults))
			for j, d := range s.Defaults {
				defaults[j] = d
			}
			klass.Methods[s.Name] = &object.Function{
				Name: s.Name, Params: s.Params, Defaults: defaults,
				VarArgs: s.VarArgs, KwArgs: s.KwArgs,
				Body: s.Body, Closure: classEnv,
			}
		case *ast.Assign:
			v, err := i.Eval(s.Expr, env)
			if err != nil {
				return err
			}
			classEnv.Define(s.Name, v)
			klass.ClassVars[s.Name] = v
		case *ast.Pass:
			// empty class body
		}
	}

	var result object.Value = klass
	for j := len(n.Decorators) - 1; j >= 0; j-- {
		dec, err := i.Eval(n.Decorators[j], env)
		if err != nil {
			return err
		}
		result, err = i.CallValue(dec, []object.Value{result}, nil)
		if err != nil {
			return at(err, n)
		}
	}

	env.Define(n.Name, result)
	return nil
}

func (i *Interpreter) instantiate(klass *object.Class, args []object.Value, kwargs map[string]object.Value) (object.Value, error) {
	inst := object.NewInstance(klass)
	if init, _ := klass.FindMethod("__init__"); init != nil {
		bound := make([]object.Value, 0, len(args)+1)
		bound = append(bound, inst)
		bound = append(bound, args...)
		if _, err := i.callFunction(init, bound, kwargs); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, kilaterr.Newf(kilaterr.KindNilai,
			"Kelas '%s' tidak menerima argumen", klass.Name)
	}
	return inst, nil
}
