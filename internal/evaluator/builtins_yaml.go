package evaluator

import (
	"os"

	"gopkg.in/yaml.v3"
)

func registerYAMLBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "yaml/parse", Fn: biYAMLParse},
		{Name: "yaml/stringify", Fn: biYAMLStringify},
		{Name: "yaml/read", Fn: biYAMLRead},
		{Name: "yaml/write", Fn: biYAMLWrite},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biYAMLParse(e *Evaluator, args []Value) Value {
	s, err := oneString("yaml/parse", args)
	if err != nil {
		return err
	}
	var data interface{}
	if uerr := yaml.Unmarshal([]byte(s), &data); uerr != nil {
		return newKindError(ErrIO, "yaml/parse: %s", uerr.Error())
	}
	v, cerr := goToValue(e, data)
	if cerr != nil {
		return newKindError(ErrIO, "yaml/parse: %s", cerr.Error())
	}
	return v
}

func biYAMLStringify(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "yaml/stringify needs exactly one value")
	}
	data, cerr := valueToGo(args[0])
	if cerr != nil {
		return newKindError(ErrType, "yaml/stringify: %s", cerr.Error())
	}
	out, merr := yaml.Marshal(data)
	if merr != nil {
		return newKindError(ErrIO, "yaml/stringify: %s", merr.Error())
	}
	return &String{Value: string(out)}
}

func biYAMLRead(e *Evaluator, args []Value) Value {
	path, err := oneString("yaml/read", args)
	if err != nil {
		return err
	}
	content, rerr := os.ReadFile(path)
	if rerr != nil {
		return newKindError(ErrIO, "yaml/read: %s", rerr.Error())
	}
	return biYAMLParse(e, []Value{&String{Value: string(content)}})
}

func biYAMLWrite(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "yaml/write needs a path and a value")
	}
	path, ok := args[0].(*String)
	if !ok {
		return newKindError(ErrType, "yaml/write needs a string path, got %s", args[0].Type())
	}
	out := biYAMLStringify(e, args[1:])
	if isError(out) {
		return out
	}
	if werr := os.WriteFile(path.Value, []byte(out.(*String).Value), 0o644); werr != nil {
		return newKindError(ErrIO, "yaml/write: %s", werr.Error())
	}
	return NIL
}
