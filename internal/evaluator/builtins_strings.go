package evaluator

import (
	"strconv"
	"strings"
)

func registerStringBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "str-split", Fn: biStrSplit},
		{Name: "str-join", Fn: biStrJoin},
		{Name: "str-upper", Fn: biStrUpper},
		{Name: "str-lower", Fn: biStrLower},
		{Name: "str-trim", Fn: biStrTrim},
		{Name: "str-replace", Fn: biStrReplace},
		{Name: "substring", Fn: biSubstring},
		{Name: "starts-with?", Fn: biStartsWithP},
		{Name: "ends-with?", Fn: biEndsWithP},
		{Name: "str-contains?", Fn: biStrContainsP},
		{Name: "str-index-of", Fn: biStrIndexOf},
		{Name: "parse-int", Fn: biParseInt},
		{Name: "parse-float", Fn: biParseFloat},
		{Name: "keyword", Fn: biKeyword},
		{Name: "symbol", Fn: biSymbol},
		{Name: "name", Fn: biName},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func twoStrings(name string, args []Value) (string, string, *Error) {
	if len(args) != 2 {
		return "", "", newKindError(ErrArgCount, "%s needs exactly two strings", name)
	}
	a, aok := args[0].(*String)
	b, bok := args[1].(*String)
	if !aok || !bok {
		return "", "", newKindError(ErrType, "%s needs strings, got %s and %s", name, args[0].Type(), args[1].Type())
	}
	return a.Value, b.Value, nil
}

func oneString(name string, args []Value) (string, *Error) {
	if len(args) != 1 {
		return "", newKindError(ErrArgCount, "%s needs exactly one string", name)
	}
	s, ok := args[0].(*String)
	if !ok {
		return "", newKindError(ErrType, "%s needs a string, got %s", name, args[0].Type())
	}
	return s.Value, nil
}

func biStrSplit(e *Evaluator, args []Value) Value {
	s, sep, err := twoStrings("str-split", args)
	if err != nil {
		return err
	}
	parts := strings.Split(s, sep)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = &String{Value: p}
	}
	return NewList(out...)
}

func biStrJoin(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "str-join needs a sequence and a separator")
	}
	seqArg, sepArg := args[0], args[1]
	if _, ok := seqArg.(*String); ok {
		if _, isSeq := seqItems(sepArg); isSeq {
			seqArg, sepArg = sepArg, seqArg
		}
	}
	items, ok := seqItems(seqArg)
	if !ok {
		return newKindError(ErrType, "str-join needs a sequence, got %s", seqArg.Type())
	}
	sep, ok := sepArg.(*String)
	if !ok {
		return newKindError(ErrType, "str-join needs a string separator, got %s", sepArg.Type())
	}
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = displayString(v)
	}
	return &String{Value: strings.Join(parts, sep.Value)}
}

func biStrUpper(e *Evaluator, args []Value) Value {
	s, err := oneString("str-upper", args)
	if err != nil {
		return err
	}
	return &String{Value: strings.ToUpper(s)}
}

func biStrLower(e *Evaluator, args []Value) Value {
	s, err := oneString("str-lower", args)
	if err != nil {
		return err
	}
	return &String{Value: strings.ToLower(s)}
}

func biStrTrim(e *Evaluator, args []Value) Value {
	s, err := oneString("str-trim", args)
	if err != nil {
		return err
	}
	return &String{Value: strings.TrimSpace(s)}
}

func biStrReplace(e *Evaluator, args []Value) Value {
	if len(args) != 3 {
		return newKindError(ErrArgCount, "str-replace needs a string, an old substring and a new substring")
	}
	var parts [3]string
	for i, arg := range args {
		s, ok := arg.(*String)
		if !ok {
			return newKindError(ErrType, "str-replace needs strings, got %s", arg.Type())
		}
		parts[i] = s.Value
	}
	return &String{Value: strings.ReplaceAll(parts[0], parts[1], parts[2])}
}

func biSubstring(e *Evaluator, args []Value) Value {
	if len(args) < 2 || len(args) > 3 {
		return newKindError(ErrArgCount, "substring needs a string, a start and an optional end")
	}
	s, ok := args[0].(*String)
	if !ok {
		return newKindError(ErrType, "substring needs a string, got %s", args[0].Type())
	}
	runes := []rune(s.Value)
	start, ok := args[1].(*Integer)
	if !ok {
		return newKindError(ErrType, "substring needs integer bounds, got %s", args[1].Type())
	}
	from := int(start.Value)
	to := len(runes)
	if len(args) == 3 {
		end, ok := args[2].(*Integer)
		if !ok {
			return newKindError(ErrType, "substring needs integer bounds, got %s", args[2].Type())
		}
		to = int(end.Value)
	}
	if from < 0 || to > len(runes) || from > to {
		return newKindError(ErrIndexOutOfRange, "substring bounds %d..%d out of range for length %d", from, to, len(runes))
	}
	return &String{Value: string(runes[from:to])}
}

func biStartsWithP(e *Evaluator, args []Value) Value {
	s, prefix, err := twoStrings("starts-with?", args)
	if err != nil {
		return err
	}
	return nativeBool(strings.HasPrefix(s, prefix))
}

func biEndsWithP(e *Evaluator, args []Value) Value {
	s, suffix, err := twoStrings("ends-with?", args)
	if err != nil {
		return err
	}
	return nativeBool(strings.HasSuffix(s, suffix))
}

func biStrContainsP(e *Evaluator, args []Value) Value {
	s, sub, err := twoStrings("str-contains?", args)
	if err != nil {
		return err
	}
	return nativeBool(strings.Contains(s, sub))
}

func biStrIndexOf(e *Evaluator, args []Value) Value {
	s, sub, err := twoStrings("str-index-of", args)
	if err != nil {
		return err
	}
	idx := strings.Index(s, sub)
	if idx < 0 {
		return NIL
	}
	// Byte offsets would surprise scripts indexing multi-byte text.
	return &Integer{Value: int64(len([]rune(s[:idx])))}
}

func biParseInt(e *Evaluator, args []Value) Value {
	s, err := oneString("parse-int", args)
	if err != nil {
		return err
	}
	n, perr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if perr != nil {
		return NIL
	}
	return &Integer{Value: n}
}

func biParseFloat(e *Evaluator, args []Value) Value {
	s, err := oneString("parse-float", args)
	if err != nil {
		return err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return NIL
	}
	return &Float{Value: f}
}

func biKeyword(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "keyword needs exactly one argument")
	}
	switch v := args[0].(type) {
	case *Keyword:
		return v
	case *String:
		if v.Value == "" {
			return newKindError(ErrType, "keyword name cannot be empty")
		}
		return e.KeywordVal(v.Value)
	case *Symbol:
		return e.KeywordVal(v.Name())
	}
	return newKindError(ErrType, "keyword needs a string or symbol, got %s", args[0].Type())
}

func biSymbol(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "symbol needs exactly one argument")
	}
	switch v := args[0].(type) {
	case *Symbol:
		return v
	case *String:
		if v.Value == "" {
			return newKindError(ErrType, "symbol name cannot be empty")
		}
		return e.Symbol(v.Value)
	case *Keyword:
		return e.Symbol(v.Name())
	}
	return newKindError(ErrType, "symbol needs a string or keyword, got %s", args[0].Type())
}

func biName(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "name needs exactly one argument")
	}
	switch v := args[0].(type) {
	case *Keyword:
		return &String{Value: v.Name()}
	case *Symbol:
		return &String{Value: v.Name()}
	case *String:
		return v
	}
	return newKindError(ErrType, "name needs a keyword, symbol or string, got %s", args[0].Type())
}
