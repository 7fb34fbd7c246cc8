package parser

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

// patternFromExpr converts a parsed expression into a pattern,
// reporting conversion failures as parse errors. Whether a pattern
// kind is legal at its binding site (fn/let vs match) is checked by
// the evaluator, not here.
func (p *Parser) patternFromExpr(e ast.Expr) ast.Pattern {
	pat, err := ast.PatternFromExpr(e)
	if err != nil {
		if ce, ok := err.(*ast.ConvertError); ok {
			p.errors = append(p.errors, &ParseError{Msg: ce.Msg, Span: ce.Span})
		} else {
			p.errors = append(p.errors, &ParseError{Msg: err.Error(), Span: e.GetToken().Span()})
		}
		return &ast.WildcardPat{Token: e.GetToken()}
	}
	return pat
}
