package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

func (e *Evaluator) evalLoop(node *ast.LoopExpr, env *Environment) Value {
	child := NewEnclosedEnvironment(env)
	for _, b := range node.Bindings {
		val := e.Eval(b.Value, child)
		if isAbort(val) {
			return val
		}
		child.Set(b.Name, val)
	}

	for {
		result := e.evalBody(node.Body, child)
		rs, ok := result.(*RecurSignal)
		if !ok {
			return result
		}
		if len(rs.Args) != len(node.Bindings) {
			return newKindError(ErrArgCount, "recur expects %d values, got %d",
				len(node.Bindings), len(rs.Args)).withPos(rs.Tok)
		}
		// Rebind in a fresh frame so closures made in earlier
		// iterations keep the values they captured.
		child = NewEnclosedEnvironment(env)
		for i, b := range node.Bindings {
			child.Set(b.Name, rs.Args[i])
		}
	}
}

func (e *Evaluator) evalRecur(node *ast.RecurExpr, env *Environment) Value {
	args := make([]Value, 0, len(node.Args))
	for _, a := range node.Args {
		v := e.Eval(a, env)
		if isAbort(v) {
			return v
		}
		args = append(args, v)
	}
	return &RecurSignal{Args: args, Tok: node.Token}
}

func (e *Evaluator) evalWhen(node *ast.WhenExpr, env *Environment) Value {
	test := e.Eval(node.Test, env)
	if isAbort(test) {
		return test
	}
	if !isTruthy(test) {
		return NIL
	}
	return e.evalBody(node.Body, env)
}

func (e *Evaluator) evalWhile(node *ast.WhileExpr, env *Environment) Value {
	var result Value = NIL
	for {
		test := e.Eval(node.Test, env)
		if isAbort(test) {
			return test
		}
		if !isTruthy(test) {
			return result
		}
		result = e.evalBody(node.Body, env)
		if isAbort(result) {
			return result
		}
	}
}

func (e *Evaluator) evalUntil(node *ast.UntilExpr, env *Environment) Value {
	var result Value = NIL
	for {
		test := e.Eval(node.Test, env)
		if isAbort(test) {
			return test
		}
		if isTruthy(test) {
			return result
		}
		result = e.evalBody(node.Body, env)
		if isAbort(result) {
			return result
		}
	}
}

// evalWhileSome rebinds the name each round and stops on the first
// nil, which makes it the natural drain loop for channels.
func (e *Evaluator) evalWhileSome(node *ast.WhileSomeExpr, env *Environment) Value {
	var result Value = NIL
	for {
		v := e.Eval(node.Test, env)
		if isAbort(v) {
			return v
		}
		if v == NIL || v.Type() == NIL_OBJ {
			return result
		}
		child := NewEnclosedEnvironment(env)
		child.Set(node.Name, v)
		result = e.evalBody(node.Body, child)
		if isAbort(result) {
			return result
		}
	}
}

func (e *Evaluator) evalUntilError(node *ast.UntilErrorExpr, env *Environment) Value {
	for {
		result := e.evalBody(node.Body, env)
		if isAbort(result) {
			return result
		}
		if m, ok := result.(*Map); ok {
			if m.Entries.Get(e.KeywordVal("error")) != nil {
				return result
			}
		}
	}
}
