package evaluator

import (
	"encoding/json"
	"os"
)

func registerJSONBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "json/parse", Fn: biJSONParse},
		{Name: "json/stringify", Fn: biJSONStringify},
		{Name: "json/read", Fn: biJSONRead},
		{Name: "json/write", Fn: biJSONWrite},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biJSONParse(e *Evaluator, args []Value) Value {
	s, err := oneString("json/parse", args)
	if err != nil {
		return err
	}
	var data interface{}
	if uerr := json.Unmarshal([]byte(s), &data); uerr != nil {
		return newKindError(ErrIO, "json/parse: %s", uerr.Error())
	}
	v, cerr := goToValue(e, data)
	if cerr != nil {
		return newKindError(ErrIO, "json/parse: %s", cerr.Error())
	}
	return v
}

func biJSONStringify(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "json/stringify needs exactly one value")
	}
	data, cerr := valueToGo(args[0])
	if cerr != nil {
		return newKindError(ErrType, "json/stringify: %s", cerr.Error())
	}
	out, merr := json.Marshal(data)
	if merr != nil {
		return newKindError(ErrIO, "json/stringify: %s", merr.Error())
	}
	return &String{Value: string(out)}
}

func biJSONRead(e *Evaluator, args []Value) Value {
	path, err := oneString("json/read", args)
	if err != nil {
		return err
	}
	content, rerr := os.ReadFile(path)
	if rerr != nil {
		return newKindError(ErrIO, "json/read: %s", rerr.Error())
	}
	return biJSONParse(e, []Value{&String{Value: string(content)}})
}

func biJSONWrite(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "json/write needs a path and a value")
	}
	path, ok := args[0].(*String)
	if !ok {
		return newKindError(ErrType, "json/write needs a string path, got %s", args[0].Type())
	}
	out := biJSONStringify(e, args[1:])
	if isError(out) {
		return out
	}
	if werr := os.WriteFile(path.Value, []byte(out.(*String).Value), 0o644); werr != nil {
		return newKindError(ErrIO, "json/write: %s", werr.Error())
	}
	return NIL
}
