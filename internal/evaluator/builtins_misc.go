package evaluator

import (
	"os"
	"time"

	"github.com/google/uuid"
)

func registerMiscBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "uuid", Fn: biUUID},
		{Name: "time/now", Fn: biTimeNow},
		{Name: "time/now-str", Fn: biTimeNowStr},
		{Name: "slurp", Fn: biSlurp},
		{Name: "spit", Fn: biSpit},
		{Name: "bytes", Fn: biBytes},
		{Name: "bytes->str", Fn: biBytesToStr},
		{Name: "str->bytes", Fn: biStrToBytes},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biUUID(e *Evaluator, args []Value) Value {
	if len(args) != 0 {
		return newKindError(ErrArgCount, "uuid takes no arguments")
	}
	return &String{Value: uuid.NewString()}
}

// time/now is milliseconds since the Unix epoch.
func biTimeNow(e *Evaluator, args []Value) Value {
	if len(args) != 0 {
		return newKindError(ErrArgCount, "time/now takes no arguments")
	}
	return &Integer{Value: time.Now().UnixMilli()}
}

func biTimeNowStr(e *Evaluator, args []Value) Value {
	if len(args) != 0 {
		return newKindError(ErrArgCount, "time/now-str takes no arguments")
	}
	return &String{Value: time.Now().Format(time.RFC3339)}
}

func biSlurp(e *Evaluator, args []Value) Value {
	path, err := oneString("slurp", args)
	if err != nil {
		return err
	}
	content, rerr := os.ReadFile(path)
	if rerr != nil {
		return newKindError(ErrIO, "slurp: %s", rerr.Error())
	}
	return &String{Value: string(content)}
}

func biSpit(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "spit needs a path and a value")
	}
	path, ok := args[0].(*String)
	if !ok {
		return newKindError(ErrType, "spit needs a string path, got %s", args[0].Type())
	}
	if werr := os.WriteFile(path.Value, []byte(displayString(args[1])), 0o644); werr != nil {
		return newKindError(ErrIO, "spit: %s", werr.Error())
	}
	return NIL
}

func biBytes(e *Evaluator, args []Value) Value {
	out := make([]byte, len(args))
	for i, arg := range args {
		n, ok := arg.(*Integer)
		if !ok || n.Value < 0 || n.Value > 255 {
			return newKindError(ErrType, "bytes needs integers in 0..255")
		}
		out[i] = byte(n.Value)
	}
	return &Bytes{Value: out}
}

func biBytesToStr(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "bytes->str needs exactly one argument")
	}
	b, ok := args[0].(*Bytes)
	if !ok {
		return newKindError(ErrType, "bytes->str needs bytes, got %s", args[0].Type())
	}
	return &String{Value: string(b.Value)}
}

func biStrToBytes(e *Evaluator, args []Value) Value {
	s, err := oneString("str->bytes", args)
	if err != nil {
		return err
	}
	return &Bytes{Value: []byte(s)}
}
