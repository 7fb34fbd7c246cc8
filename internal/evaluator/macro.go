package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

// exprToValue converts code to the data a macro manipulates. Typed
// nodes are rendered back into their surface list shape so a macro
// sees exactly what was written.
func (e *Evaluator) exprToValue(node ast.Expr) Value {
	switch node := node.(type) {
	case *ast.NilLit:
		return NIL
	case *ast.BoolLit:
		return nativeBool(node.Value)
	case *ast.IntegerLit:
		return &Integer{Value: node.Value}
	case *ast.FloatLit:
		return &Float{Value: node.Value}
	case *ast.StringLit:
		return &String{Value: node.Value}
	case *ast.SymbolExpr:
		return e.Symbol(node.Name)
	case *ast.KeywordExpr:
		return e.KeywordVal(node.Name)
	case *ast.ListExpr:
		return e.exprsToList(nil, node.Items)
	case *ast.VectorExpr:
		items := make([]Value, 0, len(node.Items))
		for _, it := range node.Items {
			v := e.exprToValue(it)
			if isError(v) {
				return v
			}
			items = append(items, v)
		}
		return NewVector(items...)
	case *ast.MapExpr:
		m := EmptyMap()
		for _, pair := range node.Pairs {
			k := e.exprToValue(pair.Key)
			if isError(k) {
				return k
			}
			if !ValidMapKey(k) {
				return newKindError(ErrInvalidMapKey, "%s cannot be a map key", k.Type()).withPos(pair.Key.GetToken())
			}
			v := e.exprToValue(pair.Value)
			if isError(v) {
				return v
			}
			m = m.Put(k, v)
		}
		return &Map{Entries: m}
	case *ast.CallExpr:
		head := e.exprToValue(node.Func)
		if isError(head) {
			return head
		}
		return e.exprsToList([]Value{head}, node.Args)
	case *ast.IfExpr:
		parts := []Value{e.Symbol("if")}
		exprs := []ast.Expr{node.Test, node.Then}
		if node.Else != nil {
			exprs = append(exprs, node.Else)
		}
		return e.exprsToList(parts, exprs)
	case *ast.DoExpr:
		return e.exprsToList([]Value{e.Symbol("do")}, node.Exprs)
	case *ast.DefExpr:
		parts := []Value{e.Symbol("def"), e.Symbol(node.Name)}
		if node.Doc != "" {
			parts = append(parts, &String{Value: node.Doc})
		}
		return e.exprsToList(parts, []ast.Expr{node.Value})
	case *ast.FnExpr:
		parts := []Value{e.Symbol("fn")}
		if node.Name != "" {
			parts = append(parts, e.Symbol(node.Name))
		}
		params := e.paramsToValue(node.Params, node.IsVariadic)
		if isError(params) {
			return params
		}
		parts = append(parts, params)
		return e.exprsToList(parts, bodyExprs(node.Body))
	case *ast.LetExpr:
		bindings := make([]Value, 0, len(node.Bindings)*2)
		for _, b := range node.Bindings {
			p := e.patternToValue(b.Pattern)
			if isError(p) {
				return p
			}
			v := e.exprToValue(b.Value)
			if isError(v) {
				return v
			}
			bindings = append(bindings, p, v)
		}
		parts := []Value{e.Symbol("let"), NewVector(bindings...)}
		return e.exprsToList(parts, node.Body)
	case *ast.LoopExpr:
		bindings := make([]Value, 0, len(node.Bindings)*2)
		for _, b := range node.Bindings {
			v := e.exprToValue(b.Value)
			if isError(v) {
				return v
			}
			bindings = append(bindings, e.Symbol(b.Name), v)
		}
		parts := []Value{e.Symbol("loop"), NewVector(bindings...)}
		return e.exprsToList(parts, node.Body)
	case *ast.RecurExpr:
		return e.exprsToList([]Value{e.Symbol("recur")}, node.Args)
	case *ast.WhenExpr:
		return e.exprsToList([]Value{e.Symbol("when"), e.exprToValue(node.Test)}, node.Body)
	case *ast.WhileExpr:
		return e.exprsToList([]Value{e.Symbol("while"), e.exprToValue(node.Test)}, node.Body)
	case *ast.UntilExpr:
		return e.exprsToList([]Value{e.Symbol("until"), e.exprToValue(node.Test)}, node.Body)
	case *ast.TryExpr:
		return e.exprsToList([]Value{e.Symbol("try")}, []ast.Expr{node.Expr})
	case *ast.DeferExpr:
		return e.exprsToList([]Value{e.Symbol("defer")}, []ast.Expr{node.Expr})
	case *ast.MatchExpr:
		parts := []Value{e.Symbol("match"), e.exprToValue(node.Expr)}
		for _, arm := range node.Arms {
			p := e.patternToValue(arm.Pattern)
			if isError(p) {
				return p
			}
			parts = append(parts, p)
			if arm.Guard != nil {
				g := e.exprToValue(arm.Guard)
				if isError(g) {
					return g
				}
				parts = append(parts, e.KeywordVal("when"), g)
			}
			b := e.exprToValue(arm.Body)
			if isError(b) {
				return b
			}
			parts = append(parts, b)
		}
		return NewList(parts...)
	case *ast.QuasiquoteExpr:
		return e.exprsToList([]Value{e.Symbol("quasiquote")}, []ast.Expr{node.Expr})
	case *ast.UnquoteExpr:
		return e.exprsToList([]Value{e.Symbol("unquote")}, []ast.Expr{node.Expr})
	case *ast.UnquoteSpliceExpr:
		return e.exprsToList([]Value{e.Symbol("unquote-splice")}, []ast.Expr{node.Expr})
	default:
		return newError("%T has no data representation", node).withPos(node.GetToken())
	}
}

func bodyExprs(body ast.Expr) []ast.Expr {
	if do, ok := body.(*ast.DoExpr); ok {
		return do.Exprs
	}
	return []ast.Expr{body}
}

func (e *Evaluator) exprsToList(head []Value, exprs []ast.Expr) Value {
	for _, h := range head {
		if isError(h) {
			return h
		}
	}
	items := head
	for _, ex := range exprs {
		v := e.exprToValue(ex)
		if isError(v) {
			return v
		}
		items = append(items, v)
	}
	return NewList(items...)
}

func (e *Evaluator) paramsToValue(params []ast.Pattern, variadic bool) Value {
	items := make([]Value, 0, len(params)+1)
	for i, p := range params {
		if variadic && i == len(params)-1 {
			items = append(items, e.Symbol("&"))
		}
		v := e.patternToValue(p)
		if isError(v) {
			return v
		}
		items = append(items, v)
	}
	return NewVector(items...)
}

func (e *Evaluator) patternToValue(p ast.Pattern) Value {
	switch p := p.(type) {
	case *ast.WildcardPat:
		return e.Symbol("_")
	case *ast.NilPat:
		return NIL
	case *ast.BoolPat:
		return nativeBool(p.Value)
	case *ast.IntegerPat:
		return &Integer{Value: p.Value}
	case *ast.FloatPat:
		return &Float{Value: p.Value}
	case *ast.StringPat:
		return &String{Value: p.Value}
	case *ast.KeywordPat:
		return e.KeywordVal(p.Name)
	case *ast.VarPat:
		return e.Symbol(p.Name)
	case *ast.ListPat:
		return e.seqPatternToValue(p.Items, p.Rest, false)
	case *ast.VectorPat:
		return e.seqPatternToValue(p.Items, p.Rest, true)
	case *ast.MapPat:
		m := EmptyMap()
		for _, pair := range p.Pairs {
			k := e.exprToValue(pair.Key)
			if isError(k) {
				return k
			}
			v := e.patternToValue(pair.Pattern)
			if isError(v) {
				return v
			}
			m = m.Put(k, v)
		}
		if p.As != "" {
			m = m.Put(e.KeywordVal("as"), e.Symbol(p.As))
		}
		return &Map{Entries: m}
	case *ast.AsPat:
		inner := e.patternToValue(p.Inner)
		if isError(inner) {
			return inner
		}
		return NewList(e.Symbol("as"), inner, e.Symbol(p.Name))
	case *ast.OrPat:
		items := []Value{e.Symbol("or")}
		for _, alt := range p.Alts {
			v := e.patternToValue(alt)
			if isError(v) {
				return v
			}
			items = append(items, v)
		}
		return NewList(items...)
	case *ast.TransformPat:
		inner := e.patternToValue(p.Inner)
		if isError(inner) {
			return inner
		}
		return NewList(e.Symbol("transform"), e.Symbol(p.FnName), inner)
	}
	return newError("unhandled pattern %T", p)
}

func (e *Evaluator) seqPatternToValue(items []ast.Pattern, rest ast.Pattern, vector bool) Value {
	vals := make([]Value, 0, len(items)+2)
	for _, it := range items {
		v := e.patternToValue(it)
		if isError(v) {
			return v
		}
		vals = append(vals, v)
	}
	if rest != nil {
		r := e.patternToValue(rest)
		if isError(r) {
			return r
		}
		vals = append(vals, e.Symbol("&"), r)
	}
	if vector {
		return NewVector(vals...)
	}
	return NewList(vals...)
}
