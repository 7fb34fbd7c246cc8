package ast

import (
	"fmt"

	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// ConvertError reports an expression that cannot become a pattern.
type ConvertError struct {
	Msg  string
	Span token.Span
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Line, e.Span.Column, e.Msg)
}

func convErr(tok token.Token, format string, args ...interface{}) error {
	return &ConvertError{Msg: fmt.Sprintf(format, args...), Span: tok.Span()}
}

// PatternFromExpr converts an expression into a pattern. List shapes
// headed by as / or / transform become combinator patterns; any other
// list is a positional list pattern. Binding-site legality (fn/let vs
// match) is the evaluator's concern.
func PatternFromExpr(e Expr) (Pattern, error) {
	switch e := e.(type) {
	case *NilLit:
		return &NilPat{Token: e.Token}, nil
	case *BoolLit:
		return &BoolPat{Token: e.Token, Value: e.Value}, nil
	case *IntegerLit:
		return &IntegerPat{Token: e.Token, Value: e.Value}, nil
	case *FloatLit:
		return &FloatPat{Token: e.Token, Value: e.Value}, nil
	case *StringLit:
		return &StringPat{Token: e.Token, Value: e.Value}, nil
	case *KeywordExpr:
		return &KeywordPat{Token: e.Token, Name: e.Name}, nil
	case *SymbolExpr:
		if e.Name == "_" {
			return &WildcardPat{Token: e.Token}, nil
		}
		return &VarPat{Token: e.Token, Name: e.Name}, nil
	case *VectorExpr:
		items, rest, err := seqPatterns(e.Items)
		if err != nil {
			return nil, err
		}
		return &VectorPat{Token: e.Token, Items: items, Rest: rest}, nil
	case *ListExpr:
		items, rest, err := seqPatterns(e.Items)
		if err != nil {
			return nil, err
		}
		return &ListPat{Token: e.Token, Items: items, Rest: rest}, nil
	case *MapExpr:
		return mapPattern(e)
	case *CallExpr:
		return callPattern(e)
	default:
		return nil, convErr(e.GetToken(), "this form cannot be used as a pattern")
	}
}

func seqPatterns(items []Expr) ([]Pattern, Pattern, error) {
	var pats []Pattern
	for i := 0; i < len(items); i++ {
		if sym, ok := items[i].(*SymbolExpr); ok && sym.Name == "&" {
			if i != len(items)-2 {
				return nil, nil, convErr(sym.Token, "'&' in a pattern must be followed by exactly one rest pattern")
			}
			rest, err := PatternFromExpr(items[i+1])
			if err != nil {
				return nil, nil, err
			}
			switch rest.(type) {
			case *VarPat, *WildcardPat:
			default:
				return nil, nil, convErr(items[i+1].GetToken(), "rest pattern must be a name or '_'")
			}
			return pats, rest, nil
		}
		pat, err := PatternFromExpr(items[i])
		if err != nil {
			return nil, nil, err
		}
		pats = append(pats, pat)
	}
	return pats, nil, nil
}

func mapPattern(e *MapExpr) (Pattern, error) {
	mp := &MapPat{Token: e.Token}
	for _, pair := range e.Pairs {
		if kw, ok := pair.Key.(*KeywordExpr); ok && kw.Name == "as" {
			sym, ok := pair.Value.(*SymbolExpr)
			if !ok {
				return nil, convErr(pair.Value.GetToken(), ":as in a map pattern needs a name")
			}
			mp.As = sym.Name
			continue
		}
		switch pair.Key.(type) {
		case *KeywordExpr, *StringLit, *IntegerLit, *BoolLit:
		default:
			return nil, convErr(pair.Key.GetToken(), "map pattern keys must be keywords, strings, integers or booleans")
		}
		sub, err := PatternFromExpr(pair.Value)
		if err != nil {
			return nil, err
		}
		mp.Pairs = append(mp.Pairs, MapPatPair{Key: pair.Key, Pattern: sub})
	}
	return mp, nil
}

func callPattern(e *CallExpr) (Pattern, error) {
	if head, ok := e.Func.(*SymbolExpr); ok {
		switch head.Name {
		case "as":
			if len(e.Args) != 2 {
				return nil, convErr(e.Token, "(as pattern name) takes exactly two arguments")
			}
			inner, err := PatternFromExpr(e.Args[0])
			if err != nil {
				return nil, err
			}
			sym, ok := e.Args[1].(*SymbolExpr)
			if !ok {
				return nil, convErr(e.Args[1].GetToken(), "as needs a name to bind")
			}
			return &AsPat{Token: e.Token, Inner: inner, Name: sym.Name}, nil
		case "or":
			if len(e.Args) < 2 {
				return nil, convErr(e.Token, "(or …) pattern needs at least two alternatives")
			}
			var alts []Pattern
			for _, a := range e.Args {
				alt, err := PatternFromExpr(a)
				if err != nil {
					return nil, err
				}
				alts = append(alts, alt)
			}
			return &OrPat{Token: e.Token, Alts: alts}, nil
		case "transform":
			if len(e.Args) != 2 {
				return nil, convErr(e.Token, "(transform f pattern) takes exactly two arguments")
			}
			fnSym, ok := e.Args[0].(*SymbolExpr)
			if !ok {
				return nil, convErr(e.Args[0].GetToken(), "transform needs a function name")
			}
			inner, err := PatternFromExpr(e.Args[1])
			if err != nil {
				return nil, err
			}
			return &TransformPat{Token: e.Token, FnName: fnSym.Name, Inner: inner}, nil
		}
	}
	// A list pattern written with parens: (1 2 & r)
	items := make([]Expr, 0, len(e.Args)+1)
	items = append(items, e.Func)
	items = append(items, e.Args...)
	pats, rest, err := seqPatterns(items)
	if err != nil {
		return nil, err
	}
	return &ListPat{Token: e.Token, Items: pats, Rest: rest}, nil
}
