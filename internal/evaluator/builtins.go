package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/config"
)

// registerBuiltins installs every native function group into the
// global environment. Called once from New; clones share the result.
func registerBuiltins(e *Evaluator) {
	registerCoreBuiltins(e)
	registerCollectionBuiltins(e)
	registerStringBuiltins(e)
	registerAtomBuiltins(e)
	registerConcurrencyBuiltins(e)
	registerJSONBuiltins(e)
	registerYAMLBuiltins(e)
	registerSQLBuiltins(e)
	registerMiscBuiltins(e)
}

func registerCoreBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "+", Fn: biAdd},
		{Name: "-", Fn: biSub},
		{Name: "*", Fn: biMul},
		{Name: "/", Fn: biDiv},
		{Name: "mod", Fn: biMod},
		{Name: "inc", Fn: biInc},
		{Name: "dec", Fn: biDec},
		{Name: "abs", Fn: biAbs},
		{Name: "min", Fn: biMin},
		{Name: "max", Fn: biMax},
		{Name: "=", Fn: biEq},
		{Name: "not=", Fn: biNotEq},
		{Name: "<", Fn: compareNative("<", func(c int) bool { return c < 0 })},
		{Name: "<=", Fn: compareNative("<=", func(c int) bool { return c <= 0 })},
		{Name: ">", Fn: compareNative(">", func(c int) bool { return c > 0 })},
		{Name: ">=", Fn: compareNative(">=", func(c int) bool { return c >= 0 })},
		{Name: "not", Fn: biNot},
		{Name: config.PrintFuncName, Fn: biPrint},
		{Name: config.PrintlnFuncName, Fn: biPrintln},
		{Name: config.StrFuncName, Fn: biStr},
		{Name: "type-of", Fn: biTypeOf},
		{Name: "error", Fn: biError},
		{Name: "error?", Fn: biErrorP},
		{Name: "complement", Fn: biComplement},
		{Name: "partial", Fn: biPartial},
		{Name: "juxt", Fn: biJuxt},
		{Name: "identity", Fn: biIdentity},
		{Name: "apply", Fn: biApply},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
	registerTypePredicates(e)
	registerSpecialForm(config.DocFuncName, evalDocForm)
}

// Numbers. Mixed integer/float arithmetic widens to float; pure
// integer arithmetic checks for overflow.

func numericPair(op string, a, b Value) (int64, int64, float64, float64, bool, *Error) {
	switch x := a.(type) {
	case *Integer:
		switch y := b.(type) {
		case *Integer:
			return x.Value, y.Value, 0, 0, true, nil
		case *Float:
			return 0, 0, float64(x.Value), y.Value, false, nil
		}
	case *Float:
		switch y := b.(type) {
		case *Integer:
			return 0, 0, x.Value, float64(y.Value), false, nil
		case *Float:
			return 0, 0, x.Value, y.Value, false, nil
		}
	}
	return 0, 0, 0, 0, false, newKindError(ErrType, "%s needs numbers, got %s and %s", op, a.Type(), b.Type())
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func subInt(a, b int64) (int64, bool) {
	s := a - b
	if (b < 0 && s < a) || (b > 0 && s > a) {
		return 0, false
	}
	return s, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	if a == -1 && b == math.MinInt64 || b == -1 && a == math.MinInt64 {
		return 0, false
	}
	return p, true
}

func foldNumeric(op string, args []Value, unit int64, intOp func(int64, int64) (int64, bool), floatOp func(float64, float64) float64) Value {
	if len(args) == 0 {
		return &Integer{Value: unit}
	}
	acc := args[0]
	if _, ok := acc.(*Integer); !ok {
		if _, ok := acc.(*Float); !ok {
			return newKindError(ErrType, "%s needs numbers, got %s", op, acc.Type())
		}
	}
	for _, arg := range args[1:] {
		ai, bi, af, bf, isInt, err := numericPair(op, acc, arg)
		if err != nil {
			return err
		}
		if isInt {
			r, ok := intOp(ai, bi)
			if !ok {
				return newError("integer overflow in %s", op)
			}
			acc = &Integer{Value: r}
		} else {
			acc = &Float{Value: floatOp(af, bf)}
		}
	}
	return acc
}

func biAdd(e *Evaluator, args []Value) Value {
	return foldNumeric("+", args, 0, addInt, func(a, b float64) float64 { return a + b })
}

func biSub(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return newKindError(ErrArgCount, "- needs at least one argument")
	}
	if len(args) == 1 {
		switch v := args[0].(type) {
		case *Integer:
			if v.Value == math.MinInt64 {
				return newError("integer overflow in -")
			}
			return &Integer{Value: -v.Value}
		case *Float:
			return &Float{Value: -v.Value}
		}
		return newKindError(ErrType, "- needs numbers, got %s", args[0].Type())
	}
	return foldNumeric("-", args, 0, subInt, func(a, b float64) float64 { return a - b })
}

func biMul(e *Evaluator, args []Value) Value {
	return foldNumeric("*", args, 1, mulInt, func(a, b float64) float64 { return a * b })
}

func biDiv(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "/ needs at least two arguments")
	}
	acc := args[0]
	for _, arg := range args[1:] {
		ai, bi, af, bf, isInt, err := numericPair("/", acc, arg)
		if err != nil {
			return err
		}
		if isInt {
			if bi == 0 {
				return newKindError(ErrDivisionByZero, "division by zero")
			}
			if ai == math.MinInt64 && bi == -1 {
				return newError("integer overflow in /")
			}
			acc = &Integer{Value: ai / bi}
		} else {
			if bf == 0 {
				return newKindError(ErrDivisionByZero, "division by zero")
			}
			acc = &Float{Value: af / bf}
		}
	}
	return acc
}

func biMod(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "mod needs exactly two arguments")
	}
	a, aok := args[0].(*Integer)
	b, bok := args[1].(*Integer)
	if !aok || !bok {
		return newKindError(ErrType, "mod needs integers, got %s and %s", args[0].Type(), args[1].Type())
	}
	if b.Value == 0 {
		return newKindError(ErrDivisionByZero, "division by zero")
	}
	// Floored modulo: result carries the divisor's sign.
	r := a.Value % b.Value
	if r != 0 && (r < 0) != (b.Value < 0) {
		r += b.Value
	}
	return &Integer{Value: r}
}

func biInc(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "inc needs exactly one argument")
	}
	return biAdd(e, []Value{args[0], &Integer{Value: 1}})
}

func biDec(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "dec needs exactly one argument")
	}
	return biSub(e, []Value{args[0], &Integer{Value: 1}})
}

func biAbs(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "abs needs exactly one argument")
	}
	switch v := args[0].(type) {
	case *Integer:
		if v.Value == math.MinInt64 {
			return newError("integer overflow in abs")
		}
		if v.Value < 0 {
			return &Integer{Value: -v.Value}
		}
		return v
	case *Float:
		return &Float{Value: math.Abs(v.Value)}
	}
	return newKindError(ErrType, "abs needs a number, got %s", args[0].Type())
}

func extremum(name string, keep func(c int) bool) nativeFn {
	return func(e *Evaluator, args []Value) Value {
		if len(args) == 0 {
			return newKindError(ErrArgCount, "%s needs at least one argument", name)
		}
		best := args[0]
		for _, arg := range args[1:] {
			c, err := compareValues(arg, best)
			if err != nil {
				return err
			}
			if keep(c) {
				best = arg
			}
		}
		return best
	}
}

func biMin(e *Evaluator, args []Value) Value {
	return extremum("min", func(c int) bool { return c < 0 })(e, args)
}

func biMax(e *Evaluator, args []Value) Value {
	return extremum("max", func(c int) bool { return c > 0 })(e, args)
}

type nativeFn = func(*Evaluator, []Value) Value

// compareValues orders two values of the same comparable family:
// numbers (integers and floats compare cross-type), strings, or
// keywords and symbols by name.
func compareValues(a, b Value) (int, *Error) {
	switch x := a.(type) {
	case *Integer, *Float:
		ai, bi, af, bf, isInt, err := numericPair("compare", a, b)
		if err != nil {
			return 0, err
		}
		if isInt {
			switch {
			case ai < bi:
				return -1, nil
			case ai > bi:
				return 1, nil
			}
			return 0, nil
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	case *String:
		y, ok := b.(*String)
		if !ok {
			break
		}
		return strings.Compare(x.Value, y.Value), nil
	case *Keyword:
		y, ok := b.(*Keyword)
		if !ok {
			break
		}
		return strings.Compare(x.Name(), y.Name()), nil
	case *Symbol:
		y, ok := b.(*Symbol)
		if !ok {
			break
		}
		return strings.Compare(x.Name(), y.Name()), nil
	}
	return 0, newKindError(ErrType, "cannot compare %s with %s", a.Type(), b.Type())
}

func compareNative(name string, keep func(c int) bool) nativeFn {
	return func(e *Evaluator, args []Value) Value {
		if len(args) < 2 {
			return newKindError(ErrArgCount, "%s needs at least two arguments", name)
		}
		for i := 0; i < len(args)-1; i++ {
			c, err := compareValues(args[i], args[i+1])
			if err != nil {
				return err
			}
			if !keep(c) {
				return FALSE
			}
		}
		return TRUE
	}
}

func biEq(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "= needs at least two arguments")
	}
	for i := 0; i < len(args)-1; i++ {
		if !valuesEqual(args[i], args[i+1]) {
			return FALSE
		}
	}
	return TRUE
}

func biNotEq(e *Evaluator, args []Value) Value {
	r := biEq(e, args)
	if isError(r) {
		return r
	}
	return nativeBool(r == FALSE)
}

func biNot(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "not needs exactly one argument")
	}
	return nativeBool(!isTruthy(args[0]))
}

func biPrint(e *Evaluator, args []Value) Value {
	for i, arg := range args {
		if i > 0 {
			fmt.Fprint(e.Out, " ")
		}
		fmt.Fprint(e.Out, displayString(arg))
	}
	return NIL
}

func biPrintln(e *Evaluator, args []Value) Value {
	biPrint(e, args)
	fmt.Fprintln(e.Out)
	return NIL
}

func biStr(e *Evaluator, args []Value) Value {
	var sb strings.Builder
	for _, arg := range args {
		if arg == NIL {
			continue
		}
		sb.WriteString(displayString(arg))
	}
	return &String{Value: sb.String()}
}

func biTypeOf(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "type-of needs exactly one argument")
	}
	var name string
	switch args[0].(type) {
	case *Nil:
		name = "nil"
	case *Boolean:
		name = "bool"
	case *Integer:
		name = "integer"
	case *Float:
		name = "float"
	case *String:
		name = "string"
	case *Bytes:
		name = "bytes"
	case *Symbol:
		name = "symbol"
	case *Keyword:
		name = "keyword"
	case *List:
		name = "list"
	case *Vector:
		name = "vector"
	case *Map:
		name = "map"
	case *Function, *NativeFunc:
		name = "function"
	case *Macro:
		name = "macro"
	case *Atom:
		name = "atom"
	case *Channel:
		name = "channel"
	case *Scope:
		name = "scope"
	case *Stream:
		name = "stream"
	case *Uvar:
		name = "uvar"
	case *moduleValue:
		name = "module"
	default:
		name = "unknown"
	}
	return e.KeywordVal(name)
}

// error builds the {:error message} map that try and the railway pipe
// recognize.
func biError(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "error needs exactly one argument")
	}
	m := EmptyMap().Put(e.KeywordVal("error"), &String{Value: displayString(args[0])})
	return &Map{Entries: m}
}

func biErrorP(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "error? needs exactly one argument")
	}
	if m, ok := args[0].(*Map); ok {
		return nativeBool(m.Entries.Get(e.KeywordVal("error")) != nil)
	}
	return FALSE
}

func registerTypePredicates(e *Evaluator) {
	preds := map[string]func(Value) bool{
		"nil?":     func(v Value) bool { return v == NIL },
		"true?":    func(v Value) bool { return v == TRUE },
		"false?":   func(v Value) bool { return v == FALSE },
		"bool?":    func(v Value) bool { _, ok := v.(*Boolean); return ok },
		"int?":     func(v Value) bool { _, ok := v.(*Integer); return ok },
		"float?":   func(v Value) bool { _, ok := v.(*Float); return ok },
		"string?":  func(v Value) bool { _, ok := v.(*String); return ok },
		"bytes?":   func(v Value) bool { _, ok := v.(*Bytes); return ok },
		"symbol?":  func(v Value) bool { _, ok := v.(*Symbol); return ok },
		"keyword?": func(v Value) bool { _, ok := v.(*Keyword); return ok },
		"list?":    func(v Value) bool { _, ok := v.(*List); return ok },
		"vector?":  func(v Value) bool { _, ok := v.(*Vector); return ok },
		"map?":     func(v Value) bool { _, ok := v.(*Map); return ok },
		"atom?":    func(v Value) bool { _, ok := v.(*Atom); return ok },
		"chan?":    func(v Value) bool { _, ok := v.(*Channel); return ok },
		"number?": func(v Value) bool {
			switch v.(type) {
			case *Integer, *Float:
				return true
			}
			return false
		},
		"fn?": func(v Value) bool {
			switch v.(type) {
			case *Function, *NativeFunc:
				return true
			}
			return false
		},
		"zero?": func(v Value) bool {
			switch n := v.(type) {
			case *Integer:
				return n.Value == 0
			case *Float:
				return n.Value == 0
			}
			return false
		},
		"pos?": func(v Value) bool {
			switch n := v.(type) {
			case *Integer:
				return n.Value > 0
			case *Float:
				return n.Value > 0
			}
			return false
		},
		"neg?": func(v Value) bool {
			switch n := v.(type) {
			case *Integer:
				return n.Value < 0
			case *Float:
				return n.Value < 0
			}
			return false
		},
		"even?": func(v Value) bool {
			n, ok := v.(*Integer)
			return ok && n.Value%2 == 0
		},
		"odd?": func(v Value) bool {
			n, ok := v.(*Integer)
			return ok && n.Value%2 != 0
		},
	}
	for name, pred := range preds {
		name, pred := name, pred
		e.Global.Set(name, &NativeFunc{Name: name, Fn: func(_ *Evaluator, args []Value) Value {
			if len(args) != 1 {
				return newKindError(ErrArgCount, "%s needs exactly one argument", name)
			}
			return nativeBool(pred(args[0]))
		}})
	}
}

// Synthesized higher-order functions. These return Function values
// whose SpecialProcessing hook does the actual work, so they print as
// <function> and compose like user closures.

func biComplement(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "complement needs exactly one function")
	}
	fn := args[0]
	if !callable(fn) {
		return newKindError(ErrType, "complement needs a function, got %s", fn.Type())
	}
	return &Function{
		Name: "complement",
		SpecialProcessing: func(ev *Evaluator, callArgs []Value) Value {
			r := ev.callValue(fn, callArgs, tokenless)
			if isAbort(r) {
				return r
			}
			return nativeBool(!isTruthy(r))
		},
	}
}

func biPartial(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return newKindError(ErrArgCount, "partial needs at least one function")
	}
	fn := args[0]
	if !callable(fn) {
		return newKindError(ErrType, "partial needs a function, got %s", fn.Type())
	}
	fixed := append([]Value(nil), args[1:]...)
	return &Function{
		Name: "partial",
		SpecialProcessing: func(ev *Evaluator, callArgs []Value) Value {
			return ev.callValue(fn, append(append([]Value(nil), fixed...), callArgs...), tokenless)
		},
	}
}

func biJuxt(e *Evaluator, args []Value) Value {
	if len(args) == 0 {
		return newKindError(ErrArgCount, "juxt needs at least one function")
	}
	fns := append([]Value(nil), args...)
	for _, fn := range fns {
		if !callable(fn) {
			return newKindError(ErrType, "juxt needs functions, got %s", fn.Type())
		}
	}
	return &Function{
		Name: "juxt",
		SpecialProcessing: func(ev *Evaluator, callArgs []Value) Value {
			out := make([]Value, 0, len(fns))
			for _, fn := range fns {
				r := ev.callValue(fn, callArgs, tokenless)
				if isAbort(r) {
					return r
				}
				out = append(out, r)
			}
			return NewVector(out...)
		},
	}
}

func biIdentity(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "identity needs exactly one argument")
	}
	return args[0]
}

func biApply(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "apply needs a function and an argument sequence")
	}
	fn := args[0]
	items, ok := seqItems(args[len(args)-1])
	if !ok {
		return newKindError(ErrType, "apply needs a sequence as its last argument, got %s", args[len(args)-1].Type())
	}
	call := append([]Value(nil), args[1:len(args)-1]...)
	call = append(call, items...)
	return e.callValue(fn, call, tokenless)
}

// doc looks up the doc string recorded by def for a name. The name is
// taken unevaluated so (doc println) works without quoting.
func evalDocForm(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	if len(call.Args) != 1 {
		return newKindError(ErrArgCount, "doc needs exactly one name").withPos(call.Token)
	}
	sym, ok := call.Args[0].(*ast.SymbolExpr)
	if !ok {
		return newKindError(ErrType, "doc needs a symbol").withPos(call.Args[0].GetToken())
	}
	for scope := env; scope != nil; scope = scope.outer {
		if d, found := scope.GetDoc(sym.Name); found {
			return &String{Value: d}
		}
	}
	if _, bound := env.Get(sym.Name); bound {
		return NIL
	}
	return newKindError(ErrUndefinedVar, "undefined variable: %s", sym.Name).withPos(call.Args[0].GetToken())
}
