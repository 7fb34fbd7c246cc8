package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// specialFormFn receives its arguments unevaluated. The table is
// closed: entries are registered from init functions in this package
// only, before any evaluation happens.
type specialFormFn func(e *Evaluator, call *ast.CallExpr, env *Environment) Value

var specialForms = map[string]specialFormFn{}

// tokenless marks values produced outside any source position.
var tokenless = token.Token{}

func registerSpecialForm(name string, fn specialFormFn) {
	specialForms[name] = fn
}

func init() {
	registerSpecialForm("quote", evalQuoteForm)
	registerSpecialForm("and", evalAndForm)
	registerSpecialForm("or", evalOrForm)
}

func (e *Evaluator) evalCall(node *ast.CallExpr, env *Environment) Value {
	if sym, ok := node.Func.(*ast.SymbolExpr); ok {
		if handler, ok := specialForms[sym.Name]; ok {
			return handler(e, node, env)
		}
		if v, bound := env.Get(sym.Name); bound {
			if mac, ok := v.(*Macro); ok {
				return e.expandAndEval(mac, node, env)
			}
		}
	}

	fn := e.Eval(node.Func, env)
	if isAbort(fn) {
		return fn
	}
	if mac, ok := fn.(*Macro); ok {
		return e.expandAndEval(mac, node, env)
	}

	args := make([]Value, 0, len(node.Args))
	for _, a := range node.Args {
		v := e.Eval(a, env)
		if isAbort(v) {
			return v
		}
		args = append(args, v)
	}
	result := e.callValue(fn, args, node.Token)
	if err, ok := result.(*Error); ok {
		return err.withPos(node.Token)
	}
	return result
}

// callValue applies an already-evaluated callable. Keywords, maps,
// vectors and strings are callable as lookups.
func (e *Evaluator) callValue(fn Value, args []Value, tok token.Token) Value {
	switch fn := fn.(type) {
	case *NativeFunc:
		return fn.Fn(e, args)
	case *Function:
		return e.applyFunction(fn, args, tok)
	case *Keyword:
		if len(args) < 1 || len(args) > 2 {
			return newKindError(ErrArgCount, "keyword lookup takes a map and an optional default")
		}
		m, ok := args[0].(*Map)
		if !ok {
			if len(args) == 2 {
				return args[1]
			}
			return newKindError(ErrType, "keyword lookup needs a map, got %s", args[0].Type())
		}
		if v := m.Entries.Get(fn); v != nil {
			return v
		}
		if len(args) == 2 {
			return args[1]
		}
		return newKindError(ErrRuntime, "key %s not found", fn.Inspect())
	case *Map:
		if len(args) < 1 || len(args) > 2 {
			return newKindError(ErrArgCount, "map lookup takes a key and an optional default")
		}
		if ValidMapKey(args[0]) {
			if v := fn.Entries.Get(args[0]); v != nil {
				return v
			}
		}
		if len(args) == 2 {
			return args[1]
		}
		return NIL
	case *Vector:
		if len(args) != 1 {
			return newKindError(ErrArgCount, "vector lookup takes exactly one index")
		}
		i, ok := args[0].(*Integer)
		if !ok {
			return newKindError(ErrType, "vector index must be an integer, got %s", args[0].Type())
		}
		if i.Value < 0 || int(i.Value) >= fn.Items.Len() {
			return newKindError(ErrIndexOutOfRange, "index %d out of range for vector of %d", i.Value, fn.Items.Len())
		}
		return fn.Items.Nth(int(i.Value))
	case *String:
		if len(args) != 1 {
			return newKindError(ErrArgCount, "string lookup takes exactly one index")
		}
		if m, ok := args[0].(*Map); ok {
			if v := m.Entries.Get(fn); v != nil {
				return v
			}
			return newKindError(ErrRuntime, "key %s not found", fn.Inspect())
		}
		i, ok := args[0].(*Integer)
		if !ok {
			return newKindError(ErrType, "string index must be an integer, got %s", args[0].Type())
		}
		runes := []rune(fn.Value)
		if i.Value < 0 || int(i.Value) >= len(runes) {
			return newKindError(ErrIndexOutOfRange, "index %d out of range for string of %d", i.Value, len(runes))
		}
		return &String{Value: string(runes[i.Value])}
	default:
		return newKindError(ErrNotCallable, "%s is not callable", fn.Type())
	}
}

func (e *Evaluator) applyFunction(fn *Function, args []Value, tok token.Token) Value {
	if fn.SpecialProcessing != nil {
		return fn.SpecialProcessing(e, args)
	}
	env := NewEnclosedEnvironment(fn.Env)
	if err := e.bindParams(fn.Name, fn.Params, fn.IsVariadic, args, env); err != nil {
		return err.withPos(tok)
	}
	result := e.Eval(fn.Body, env)
	if rs, ok := result.(*RecurSignal); ok {
		return newKindError(ErrControl, "recur outside loop").withPos(rs.Tok)
	}
	return result
}

func (e *Evaluator) bindParams(name string, params []ast.Pattern, variadic bool, args []Value, env *Environment) *Error {
	display := name
	if display == "" {
		display = "anonymous function"
	}

	if variadic {
		fixed := len(params) - 1
		if len(args) < fixed {
			return newKindError(ErrArgCount, "%s needs at least %d arguments, got %d", display, fixed, len(args))
		}
		for i := 0; i < fixed; i++ {
			if err := e.bindOne(params[i], args[i], env); err != nil {
				return err
			}
		}
		rest := NewList(args[fixed:]...)
		return e.bindOne(params[fixed], rest, env)
	}

	if len(args) != len(params) {
		return newKindError(ErrArgCount, "%s takes %d arguments, got %d", display, len(params), len(args))
	}
	for i, p := range params {
		if err := e.bindOne(p, args[i], env); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) bindOne(p ast.Pattern, v Value, env *Environment) *Error {
	if err := bindingPatternAllowed(p); err != nil {
		return err
	}
	matched, err := e.matchPattern(p, v, env)
	if err != nil {
		return err
	}
	if !matched {
		return newKindError(ErrMatchFailed, "argument %s did not match the parameter pattern", v.Inspect())
	}
	return nil
}

func (e *Evaluator) expandAndEval(mac *Macro, call *ast.CallExpr, env *Environment) Value {
	expanded := e.expandMacro(mac, call)
	if err, ok := expanded.(*Error); ok {
		return err
	}
	return e.Eval(expanded.(*exprBox).expr, env)
}

// exprBox smuggles an Expr through Value-typed returns during macro
// expansion.
type exprBox struct {
	expr ast.Expr
}

func (b *exprBox) Type() ValueType { return "EXPR" }
func (b *exprBox) Inspect() string { return "<expr>" }

// expandMacro converts call arguments to data, runs the macro body,
// and converts the resulting value back into code.
func (e *Evaluator) expandMacro(mac *Macro, call *ast.CallExpr) Value {
	args := make([]Value, 0, len(call.Args))
	for _, a := range call.Args {
		v := e.exprToValue(a)
		if isError(v) {
			return v
		}
		args = append(args, v)
	}

	env := NewEnclosedEnvironment(mac.Env)
	if err := e.bindParams(mac.Name, mac.Params, mac.IsVariadic, args, env); err != nil {
		return err.withPos(call.Token)
	}

	result := e.Eval(mac.Body, env)
	if isAbort(result) {
		return result
	}
	expr, err := e.valueToExpr(result, call.Token)
	if err != nil {
		return err
	}
	return &exprBox{expr: expr}
}

func evalQuoteForm(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	if len(call.Args) != 1 {
		return newKindError(ErrArgCount, "quote takes exactly one form").withPos(call.Token)
	}
	return e.exprToValue(call.Args[0])
}

func evalAndForm(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	var result Value = TRUE
	for _, a := range call.Args {
		result = e.Eval(a, env)
		if isAbort(result) {
			return result
		}
		if !isTruthy(result) {
			return result
		}
	}
	return result
}

func evalOrForm(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	var result Value = NIL
	for _, a := range call.Args {
		result = e.Eval(a, env)
		if isAbort(result) {
			return result
		}
		if isTruthy(result) {
			return result
		}
	}
	return result
}
