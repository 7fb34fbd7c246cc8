package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// valueToExpr converts a macro's result back into code. List shapes
// headed by a core form name rebuild the typed node; every other list
// becomes a call.
func (e *Evaluator) valueToExpr(v Value, tok token.Token) (ast.Expr, *Error) {
	switch v := v.(type) {
	case *Nil:
		return &ast.NilLit{Token: tok}, nil
	case *Boolean:
		return &ast.BoolLit{Token: tok, Value: v.Value}, nil
	case *Integer:
		return &ast.IntegerLit{Token: tok, Value: v.Value}, nil
	case *Float:
		return &ast.FloatLit{Token: tok, Value: v.Value}, nil
	case *String:
		return &ast.StringLit{Token: tok, Value: v.Value}, nil
	case *Symbol:
		return &ast.SymbolExpr{Token: tok, Name: v.Name()}, nil
	case *Keyword:
		return &ast.KeywordExpr{Token: tok, Name: v.Name()}, nil
	case *Vector:
		items, err := e.valuesToExprs(v.Items.ToSlice(), tok)
		if err != nil {
			return nil, err
		}
		return &ast.VectorExpr{Token: tok, Items: items}, nil
	case *Map:
		return e.mapToExpr(v, tok, e.valueToExpr)
	case *List:
		return e.listToExpr(v, tok)
	default:
		return nil, newKindError(ErrType, "%s cannot be converted to code", v.Type())
	}
}

func (e *Evaluator) valuesToExprs(vals []Value, tok token.Token) ([]ast.Expr, *Error) {
	out := make([]ast.Expr, 0, len(vals))
	for _, v := range vals {
		ex, err := e.valueToExpr(v, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

type convertFn func(v Value, tok token.Token) (ast.Expr, *Error)

func (e *Evaluator) mapToExpr(m *Map, tok token.Token, conv convertFn) (ast.Expr, *Error) {
	node := &ast.MapExpr{Token: tok}
	var convErr *Error
	m.Entries.Each(func(k, v Value) {
		if convErr != nil {
			return
		}
		ke, err := conv(k, tok)
		if err != nil {
			convErr = err
			return
		}
		ve, err := conv(v, tok)
		if err != nil {
			convErr = err
			return
		}
		node.Pairs = append(node.Pairs, ast.MapPair{Key: ke, Value: ve})
	})
	if convErr != nil {
		return nil, convErr
	}
	return node, nil
}

func (e *Evaluator) listToExpr(l *List, tok token.Token) (ast.Expr, *Error) {
	items := l.Items.ToSlice()
	if len(items) == 0 {
		return &ast.ListExpr{Token: tok}, nil
	}

	if head, ok := items[0].(*Symbol); ok {
		args := items[1:]
		switch head.Name() {
		case "if":
			return e.ifFromValues(args, tok)
		case "do":
			exprs, err := e.valuesToExprs(args, tok)
			if err != nil {
				return nil, err
			}
			return &ast.DoExpr{Token: tok, Exprs: exprs}, nil
		case "def", "def-":
			return e.defFromValues(args, head.Name() == "def-", tok)
		case "defn", "defn-":
			return e.defnFromValues(args, head.Name() == "defn-", tok)
		case "fn":
			return e.fnFromValues(args, tok)
		case "let":
			return e.letFromValues(args, tok)
		case "loop":
			return e.loopFromValues(args, tok)
		case "recur":
			exprs, err := e.valuesToExprs(args, tok)
			if err != nil {
				return nil, err
			}
			return &ast.RecurExpr{Token: tok, Args: exprs}, nil
		case "try":
			if len(args) == 0 {
				return nil, newKindError(ErrArgCount, "try needs a body")
			}
			body, err := e.bodyFromValues(args, tok)
			if err != nil {
				return nil, err
			}
			return &ast.TryExpr{Token: tok, Expr: body}, nil
		case "defer":
			if len(args) == 0 {
				return nil, newKindError(ErrArgCount, "defer needs a body")
			}
			body, err := e.bodyFromValues(args, tok)
			if err != nil {
				return nil, err
			}
			return &ast.DeferExpr{Token: tok, Expr: body}, nil
		case "when", "while", "until":
			if len(args) < 1 {
				return nil, newKindError(ErrArgCount, "%s needs a test", head.Name())
			}
			test, err := e.valueToExpr(args[0], tok)
			if err != nil {
				return nil, err
			}
			body, err := e.valuesToExprs(args[1:], tok)
			if err != nil {
				return nil, err
			}
			switch head.Name() {
			case "when":
				return &ast.WhenExpr{Token: tok, Test: test, Body: body}, nil
			case "while":
				return &ast.WhileExpr{Token: tok, Test: test, Body: body}, nil
			default:
				return &ast.UntilExpr{Token: tok, Test: test, Body: body}, nil
			}
		case "match":
			return e.matchFromValues(args, tok)
		case "mac":
			return e.macFromValues(args, tok)
		case "quote":
			if len(args) != 1 {
				return nil, newKindError(ErrArgCount, "quote takes exactly one form")
			}
			inner, err := e.dataExpr(args[0], tok)
			if err != nil {
				return nil, err
			}
			return &ast.CallExpr{Token: tok, Func: &ast.SymbolExpr{Token: tok, Name: "quote"}, Args: []ast.Expr{inner}}, nil
		case "quasiquote":
			if len(args) != 1 {
				return nil, newKindError(ErrArgCount, "quasiquote takes exactly one form")
			}
			inner, err := e.dataExpr(args[0], tok)
			if err != nil {
				return nil, err
			}
			return &ast.QuasiquoteExpr{Token: tok, Expr: inner}, nil
		case "unquote", "unquote-splice":
			if len(args) != 1 {
				return nil, newKindError(ErrArgCount, "%s takes exactly one form", head.Name())
			}
			inner, err := e.valueToExpr(args[0], tok)
			if err != nil {
				return nil, err
			}
			if head.Name() == "unquote" {
				return &ast.UnquoteExpr{Token: tok, Expr: inner}, nil
			}
			return &ast.UnquoteSpliceExpr{Token: tok, Expr: inner}, nil
		}
	}

	fn, err := e.valueToExpr(items[0], tok)
	if err != nil {
		return nil, err
	}
	args, err := e.valuesToExprs(items[1:], tok)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Token: tok, Func: fn, Args: args}, nil
}

func (e *Evaluator) ifFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, newKindError(ErrArgCount, "if takes a test, a then and an optional else")
	}
	test, err := e.valueToExpr(args[0], tok)
	if err != nil {
		return nil, err
	}
	then, err := e.valueToExpr(args[1], tok)
	if err != nil {
		return nil, err
	}
	node := &ast.IfExpr{Token: tok, Test: test, Then: then}
	if len(args) == 3 {
		node.Else, err = e.valueToExpr(args[2], tok)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (e *Evaluator) defFromValues(args []Value, private bool, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, newKindError(ErrArgCount, "def takes a name, an optional doc string and a value")
	}
	name, ok := args[0].(*Symbol)
	if !ok {
		return nil, newKindError(ErrType, "def needs a symbol name, got %s", args[0].Type())
	}
	node := &ast.DefExpr{Token: tok, Name: name.Name(), IsPrivate: private}
	valIdx := 1
	if len(args) == 3 {
		doc, ok := args[1].(*String)
		if !ok {
			return nil, newKindError(ErrType, "def doc must be a string")
		}
		node.Doc = doc.Value
		valIdx = 2
	}
	var err *Error
	node.Value, err = e.valueToExpr(args[valIdx], tok)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (e *Evaluator) defnFromValues(args []Value, private bool, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 2 {
		return nil, newKindError(ErrArgCount, "defn takes a name, a parameter vector and a body")
	}
	name, ok := args[0].(*Symbol)
	if !ok {
		return nil, newKindError(ErrType, "defn needs a symbol name, got %s", args[0].Type())
	}
	rest := args[1:]
	doc := ""
	if s, ok := rest[0].(*String); ok && len(rest) > 1 {
		doc = s.Value
		rest = rest[1:]
	}
	fn, err := e.fnFromValues(append([]Value{e.Symbol(name.Name())}, rest...), tok)
	if err != nil {
		return nil, err
	}
	return &ast.DefExpr{Token: tok, Name: name.Name(), Doc: doc, Value: fn, IsPrivate: private}, nil
}

func (e *Evaluator) fnFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	name := ""
	if len(args) > 0 {
		if sym, ok := args[0].(*Symbol); ok {
			name = sym.Name()
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return nil, newKindError(ErrArgCount, "fn needs a parameter vector")
	}
	paramsVec, ok := args[0].(*Vector)
	if !ok {
		return nil, newKindError(ErrType, "fn parameters must be a vector, got %s", args[0].Type())
	}
	params, variadic, convErr := e.valueToParams(paramsVec, tok)
	if convErr != nil {
		return nil, convErr
	}
	body, err := e.bodyFromValues(args[1:], tok)
	if err != nil {
		return nil, err
	}
	return &ast.FnExpr{Token: tok, Name: name, Params: params, Body: body, IsVariadic: variadic}, nil
}

func (e *Evaluator) valueToParams(vec *Vector, tok token.Token) ([]ast.Pattern, bool, *Error) {
	items := vec.Items.ToSlice()
	var params []ast.Pattern
	variadic := false
	for i := 0; i < len(items); i++ {
		if sym, ok := items[i].(*Symbol); ok && sym.Name() == "&" {
			if i != len(items)-2 {
				return nil, false, newError("'&' must be followed by exactly one rest parameter")
			}
			rest, err := e.valueToPattern(items[i+1], tok)
			if err != nil {
				return nil, false, err
			}
			params = append(params, rest)
			variadic = true
			return params, variadic, nil
		}
		p, err := e.valueToPattern(items[i], tok)
		if err != nil {
			return nil, false, err
		}
		params = append(params, p)
	}
	return params, variadic, nil
}

func (e *Evaluator) valueToPattern(v Value, tok token.Token) (ast.Pattern, *Error) {
	expr, err := e.valueToExpr(v, tok)
	if err != nil {
		return nil, err
	}
	pat, cerr := ast.PatternFromExpr(expr)
	if cerr != nil {
		return nil, newError("%s", cerr.Error())
	}
	return pat, nil
}

func (e *Evaluator) letFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 1 {
		return nil, newKindError(ErrArgCount, "let needs a binding vector")
	}
	vec, ok := args[0].(*Vector)
	if !ok {
		return nil, newKindError(ErrType, "let bindings must be a vector, got %s", args[0].Type())
	}
	items := vec.Items.ToSlice()
	if len(items)%2 != 0 {
		return nil, newError("let bindings need an even number of forms")
	}
	node := &ast.LetExpr{Token: tok}
	for i := 0; i < len(items); i += 2 {
		pat, err := e.valueToPattern(items[i], tok)
		if err != nil {
			return nil, err
		}
		val, err := e.valueToExpr(items[i+1], tok)
		if err != nil {
			return nil, err
		}
		node.Bindings = append(node.Bindings, ast.LetBinding{Pattern: pat, Value: val})
	}
	var err *Error
	node.Body, err = e.valuesToExprs(args[1:], tok)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (e *Evaluator) loopFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 1 {
		return nil, newKindError(ErrArgCount, "loop needs a binding vector")
	}
	vec, ok := args[0].(*Vector)
	if !ok {
		return nil, newKindError(ErrType, "loop bindings must be a vector, got %s", args[0].Type())
	}
	items := vec.Items.ToSlice()
	if len(items)%2 != 0 {
		return nil, newError("loop bindings need an even number of forms")
	}
	node := &ast.LoopExpr{Token: tok}
	for i := 0; i < len(items); i += 2 {
		sym, ok := items[i].(*Symbol)
		if !ok {
			return nil, newKindError(ErrType, "loop binds plain names, got %s", items[i].Type())
		}
		val, err := e.valueToExpr(items[i+1], tok)
		if err != nil {
			return nil, err
		}
		node.Bindings = append(node.Bindings, ast.LoopBinding{Name: sym.Name(), Value: val})
	}
	var err *Error
	node.Body, err = e.valuesToExprs(args[1:], tok)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (e *Evaluator) matchFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 3 {
		return nil, newKindError(ErrArgCount, "match needs a subject and at least one arm")
	}
	subject, err := e.valueToExpr(args[0], tok)
	if err != nil {
		return nil, err
	}
	node := &ast.MatchExpr{Token: tok, Expr: subject}
	rest := args[1:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, newError("match arm needs a pattern and a body")
		}
		pat, err := e.valueToPattern(rest[0], tok)
		if err != nil {
			return nil, err
		}
		arm := ast.MatchArm{Pattern: pat}
		rest = rest[1:]
		if kw, ok := rest[0].(*Keyword); ok && kw.Name() == "when" {
			if len(rest) < 3 {
				return nil, newError("match guard needs a test and a body")
			}
			arm.Guard, err = e.valueToExpr(rest[1], tok)
			if err != nil {
				return nil, err
			}
			rest = rest[2:]
		}
		arm.Body, err = e.valueToExpr(rest[0], tok)
		if err != nil {
			return nil, err
		}
		rest = rest[1:]
		node.Arms = append(node.Arms, arm)
	}
	return node, nil
}

func (e *Evaluator) macFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	if len(args) < 3 {
		return nil, newKindError(ErrArgCount, "mac takes a name, a parameter vector and a body")
	}
	name, ok := args[0].(*Symbol)
	if !ok {
		return nil, newKindError(ErrType, "mac needs a symbol name, got %s", args[0].Type())
	}
	paramsVec, ok := args[1].(*Vector)
	if !ok {
		return nil, newKindError(ErrType, "mac parameters must be a vector, got %s", args[1].Type())
	}
	params, variadic, convErr := e.valueToParams(paramsVec, tok)
	if convErr != nil {
		return nil, convErr
	}
	body, err := e.bodyFromValues(args[2:], tok)
	if err != nil {
		return nil, err
	}
	return &ast.MacExpr{Token: tok, Name: name.Name(), Params: params, Body: body, IsVariadic: variadic}, nil
}

func (e *Evaluator) bodyFromValues(args []Value, tok token.Token) (ast.Expr, *Error) {
	exprs, err := e.valuesToExprs(args, tok)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &ast.DoExpr{Token: tok, Exprs: exprs}, nil
}

// dataExpr converts a value into a data-position expression: lists
// stay lists, except the quasiquote hole shapes which become their
// typed nodes so a rebuilt template still evaluates its holes.
func (e *Evaluator) dataExpr(v Value, tok token.Token) (ast.Expr, *Error) {
	switch v := v.(type) {
	case *List:
		items := v.Items.ToSlice()
		if len(items) == 2 {
			if head, ok := items[0].(*Symbol); ok {
				switch head.Name() {
				case "unquote":
					inner, err := e.valueToExpr(items[1], tok)
					if err != nil {
						return nil, err
					}
					return &ast.UnquoteExpr{Token: tok, Expr: inner}, nil
				case "unquote-splice":
					inner, err := e.valueToExpr(items[1], tok)
					if err != nil {
						return nil, err
					}
					return &ast.UnquoteSpliceExpr{Token: tok, Expr: inner}, nil
				case "quasiquote":
					inner, err := e.dataExpr(items[1], tok)
					if err != nil {
						return nil, err
					}
					return &ast.QuasiquoteExpr{Token: tok, Expr: inner}, nil
				}
			}
		}
		node := &ast.ListExpr{Token: tok}
		for _, it := range items {
			ex, err := e.dataExpr(it, tok)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, ex)
		}
		return node, nil
	case *Vector:
		node := &ast.VectorExpr{Token: tok}
		for _, it := range v.Items.ToSlice() {
			ex, err := e.dataExpr(it, tok)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, ex)
		}
		return node, nil
	case *Map:
		return e.mapToExpr(v, tok, e.dataExpr)
	default:
		return e.valueToExpr(v, tok)
	}
}
