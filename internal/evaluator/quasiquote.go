package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

// evalQuasiquote walks a template, leaving it as data except at the
// holes. Nesting raises the depth; only depth-1 holes evaluate.
func (e *Evaluator) evalQuasiquote(node ast.Expr, env *Environment, depth int) Value {
	switch node := node.(type) {
	case *ast.UnquoteExpr:
		if depth == 1 {
			return e.Eval(node.Expr, env)
		}
		inner := e.evalQuasiquote(node.Expr, env, depth-1)
		if isAbort(inner) {
			return inner
		}
		return NewList(e.Symbol("unquote"), inner)
	case *ast.UnquoteSpliceExpr:
		if depth == 1 {
			return newKindError(ErrControl, "unquote-splice outside a sequence").withPos(node.Token)
		}
		inner := e.evalQuasiquote(node.Expr, env, depth-1)
		if isAbort(inner) {
			return inner
		}
		return NewList(e.Symbol("unquote-splice"), inner)
	case *ast.QuasiquoteExpr:
		inner := e.evalQuasiquote(node.Expr, env, depth+1)
		if isAbort(inner) {
			return inner
		}
		return NewList(e.Symbol("quasiquote"), inner)
	case *ast.ListExpr:
		items, err := e.quasiItems(node.Items, env, depth)
		if err != nil {
			return err
		}
		return NewList(items...)
	case *ast.VectorExpr:
		items, err := e.quasiItems(node.Items, env, depth)
		if err != nil {
			return err
		}
		return NewVector(items...)
	case *ast.MapExpr:
		m := EmptyMap()
		for _, pair := range node.Pairs {
			k := e.evalQuasiquote(pair.Key, env, depth)
			if isAbort(k) {
				return k
			}
			if !ValidMapKey(k) {
				return newKindError(ErrInvalidMapKey, "%s cannot be a map key", k.Type()).withPos(pair.Key.GetToken())
			}
			v := e.evalQuasiquote(pair.Value, env, depth)
			if isAbort(v) {
				return v
			}
			m = m.Put(k, v)
		}
		return &Map{Entries: m}
	default:
		return e.exprToValue(node)
	}
}

func (e *Evaluator) quasiItems(exprs []ast.Expr, env *Environment, depth int) ([]Value, Value) {
	var items []Value
	for _, it := range exprs {
		if splice, ok := it.(*ast.UnquoteSpliceExpr); ok && depth == 1 {
			v := e.Eval(splice.Expr, env)
			if isAbort(v) {
				return nil, v
			}
			switch v := v.(type) {
			case *List:
				items = append(items, v.Items.ToSlice()...)
			case *Vector:
				items = append(items, v.Items.ToSlice()...)
			default:
				return nil, newKindError(ErrType, "unquote-splice needs a list or vector, got %s", v.Type()).withPos(splice.Token)
			}
			continue
		}
		v := e.evalQuasiquote(it, env, depth)
		if isAbort(v) {
			return nil, v
		}
		items = append(items, v)
	}
	return items, nil
}
