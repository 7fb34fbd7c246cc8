package evaluator

import (
	"strings"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

// evalFString renders an f-string. Each code region is parsed fresh
// and evaluated in the current environment.
func (e *Evaluator) evalFString(node *ast.FStringLit, env *Environment) Value {
	var sb strings.Builder
	for _, part := range node.Parts {
		if !part.IsCode {
			sb.WriteString(part.Text)
			continue
		}
		exprs, errs := pipeline.Parse(part.Code, "<f-string>")
		if len(errs) > 0 {
			return newError("f-string: %s", errs[0].Error()).withPos(node.Token)
		}
		var result Value = NIL
		for _, ex := range exprs {
			result = e.Eval(ex, env)
			if isAbort(result) {
				return result
			}
		}
		sb.WriteString(displayString(result))
	}
	return &String{Value: sb.String()}
}
