package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

func (e *Evaluator) evalMatch(node *ast.MatchExpr, env *Environment) Value {
	subject := e.Eval(node.Expr, env)
	if isAbort(subject) {
		return subject
	}

	for _, arm := range node.Arms {
		child := NewEnclosedEnvironment(env)
		matched, err := e.matchPattern(arm.Pattern, subject, child)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if arm.Guard != nil {
			guard := e.Eval(arm.Guard, child)
			if isAbort(guard) {
				return guard
			}
			if !isTruthy(guard) {
				continue
			}
		}
		return e.Eval(arm.Body, child)
	}
	return newKindError(ErrMatchFailed, "no pattern matched %s", subject.Inspect()).withPos(node.Token)
}

// matchPattern matches v against pat, binding names into env. A false
// return with nil error means the pattern simply did not match.
func (e *Evaluator) matchPattern(pat ast.Pattern, v Value, env *Environment) (bool, *Error) {
	switch pat := pat.(type) {
	case *ast.WildcardPat:
		return true, nil
	case *ast.NilPat:
		return v.Type() == NIL_OBJ, nil
	case *ast.BoolPat:
		b, ok := v.(*Boolean)
		return ok && b.Value == pat.Value, nil
	case *ast.IntegerPat:
		i, ok := v.(*Integer)
		return ok && i.Value == pat.Value, nil
	case *ast.FloatPat:
		// Exact bit equality; NaN patterns never match.
		f, ok := v.(*Float)
		return ok && f.Value == pat.Value, nil
	case *ast.StringPat:
		s, ok := v.(*String)
		return ok && s.Value == pat.Value, nil
	case *ast.KeywordPat:
		k, ok := v.(*Keyword)
		return ok && k.Handle == e.Keywords.Intern(pat.Name), nil
	case *ast.VarPat:
		env.Set(pat.Name, v)
		return true, nil
	case *ast.ListPat:
		return e.matchSeq(pat.Items, pat.Rest, v, env)
	case *ast.VectorPat:
		return e.matchSeq(pat.Items, pat.Rest, v, env)
	case *ast.MapPat:
		return e.matchMap(pat, v, env)
	case *ast.AsPat:
		matched, err := e.matchPattern(pat.Inner, v, env)
		if err != nil || !matched {
			return matched, err
		}
		env.Set(pat.Name, v)
		return true, nil
	case *ast.OrPat:
		for _, alt := range pat.Alts {
			matched, err := e.matchPattern(alt, v, env)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	case *ast.TransformPat:
		fn, ok := env.Get(pat.FnName)
		if !ok {
			return false, newKindError(ErrUndefinedVar, "undefined variable: %s", pat.FnName).withPos(pat.Token)
		}
		transformed := e.callValue(fn, []Value{v}, pat.Token)
		if err, ok := transformed.(*Error); ok {
			return false, err
		}
		return e.matchPattern(pat.Inner, transformed, env)
	}
	return false, newError("unhandled pattern %T", pat)
}

func (e *Evaluator) matchSeq(pats []ast.Pattern, rest ast.Pattern, v Value, env *Environment) (bool, *Error) {
	var items *Seq
	switch v := v.(type) {
	case *List:
		items = v.Items
	case *Vector:
		items = v.Items
	default:
		return false, nil
	}

	if rest == nil {
		if items.Len() != len(pats) {
			return false, nil
		}
	} else if items.Len() < len(pats) {
		return false, nil
	}

	for i, sub := range pats {
		matched, err := e.matchPattern(sub, items.Nth(i), env)
		if err != nil || !matched {
			return matched, err
		}
	}
	if rest != nil {
		trailing := make([]Value, 0, items.Len()-len(pats))
		for i := len(pats); i < items.Len(); i++ {
			trailing = append(trailing, items.Nth(i))
		}
		return e.matchPattern(rest, NewList(trailing...), env)
	}
	return true, nil
}

func (e *Evaluator) matchMap(pat *ast.MapPat, v Value, env *Environment) (bool, *Error) {
	m, ok := v.(*Map)
	if !ok {
		return false, nil
	}
	for _, pair := range pat.Pairs {
		key := e.Eval(pair.Key, env)
		if err, ok := key.(*Error); ok {
			return false, err
		}
		if !ValidMapKey(key) {
			return false, newKindError(ErrInvalidMapKey, "%s cannot be a map key", key.Type()).withPos(pair.Key.GetToken())
		}
		entry := m.Entries.Get(key)
		if entry == nil {
			return false, nil
		}
		matched, err := e.matchPattern(pair.Pattern, entry, env)
		if err != nil || !matched {
			return matched, err
		}
	}
	if pat.As != "" {
		env.Set(pat.As, v)
	}
	return true, nil
}
