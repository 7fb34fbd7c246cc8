package evaluator

import (
	"fmt"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

type deferEntry struct {
	expr ast.Expr
	env  *Environment
}

type deferFrame struct {
	entries []deferEntry
}

func (e *Evaluator) pushDeferFrame() *deferFrame {
	frame := &deferFrame{}
	e.deferStack = append(e.deferStack, frame)
	return frame
}

// popDeferFrame runs the frame's deferred expressions in LIFO order.
// Errors raised inside a deferred expression are suppressed.
func (e *Evaluator) popDeferFrame(frame *deferFrame) {
	n := len(e.deferStack)
	if n == 0 || e.deferStack[n-1] != frame {
		panic("defer stack corrupted")
	}
	e.deferStack = e.deferStack[:n-1]
	for i := len(frame.entries) - 1; i >= 0; i-- {
		entry := frame.entries[i]
		e.Eval(entry.expr, entry.env)
	}
}

func (e *Evaluator) evalDo(node *ast.DoExpr, env *Environment) Value {
	frame := e.pushDeferFrame()
	defer e.popDeferFrame(frame)

	var result Value = NIL
	for _, expr := range node.Exprs {
		result = e.Eval(expr, env)
		if isAbort(result) {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalDefer(node *ast.DeferExpr, env *Environment) Value {
	if len(e.deferStack) == 0 {
		return newKindError(ErrControl, "defer outside do or try").withPos(node.Token)
	}
	frame := e.deferStack[len(e.deferStack)-1]
	frame.entries = append(frame.entries, deferEntry{expr: node.Expr, env: env})
	return NIL
}

func (e *Evaluator) evalTry(node *ast.TryExpr, env *Environment) Value {
	frame := e.pushDeferFrame()
	defer e.popDeferFrame(frame)

	result := e.Eval(node.Expr, env)
	if err, ok := result.(*Error); ok {
		m := EmptyMap().Put(e.KeywordVal("error"), &String{Value: err.Message})
		return &Map{Entries: m}
	}
	return result
}

func (e *Evaluator) evalDef(node *ast.DefExpr, env *Environment) Value {
	val := e.Eval(node.Value, env)
	if isAbort(val) {
		return val
	}

	switch v := val.(type) {
	case *Function:
		if v.Name == "" {
			v.Name = node.Name
		}
	case *Macro:
		if v.Name == "" {
			v.Name = node.Name
		}
	}

	if env.Has(node.Name) || (env != e.Global && e.Global.Has(node.Name)) {
		fmt.Fprintf(e.Warn, "warning: redefining %s\n", node.Name)
	}

	if node.IsPrivate {
		env.SetPrivate(node.Name, val)
	} else {
		env.Set(node.Name, val)
	}

	doc := node.Doc
	if doc == "" && node.Meta != nil {
		doc = e.docFromMeta(node.Meta, env)
	}
	if doc != "" {
		env.SetDoc(node.Name, doc)
	}
	return val
}

func (e *Evaluator) docFromMeta(meta ast.Expr, env *Environment) string {
	v := e.Eval(meta, env)
	m, ok := v.(*Map)
	if !ok {
		return ""
	}
	d := m.Entries.Get(e.KeywordVal("desc"))
	if d == nil {
		d = m.Entries.Get(e.KeywordVal("doc"))
	}
	if s, ok := d.(*String); ok {
		return s.Value
	}
	return ""
}

func (e *Evaluator) evalFn(node *ast.FnExpr, env *Environment) Value {
	for _, p := range node.Params {
		if err := bindingPatternAllowed(p); err != nil {
			return err
		}
	}
	fn := &Function{
		Name:       node.Name,
		Params:     node.Params,
		Body:       node.Body,
		Env:        env,
		IsVariadic: node.IsVariadic,
	}
	if node.Name != "" {
		// Self-recursive reference without touching the outer scope.
		selfEnv := NewEnclosedEnvironment(env)
		selfEnv.Set(node.Name, fn)
		fn.Env = selfEnv
	}
	return fn
}

func (e *Evaluator) evalLet(node *ast.LetExpr, env *Environment) Value {
	child := NewEnclosedEnvironment(env)
	for _, b := range node.Bindings {
		if err := bindingPatternAllowed(b.Pattern); err != nil {
			return err
		}
		val := e.Eval(b.Value, child)
		if isAbort(val) {
			return val
		}
		matched, err := e.matchPattern(b.Pattern, val, child)
		if err != nil {
			return err
		}
		if !matched {
			return newKindError(ErrMatchFailed, "let binding did not match value %s", val.Inspect()).withPos(b.Pattern.GetToken())
		}
	}
	return e.evalBody(node.Body, child)
}

// evalBody evaluates a body sequence without opening a defer frame;
// only do and try own defer scopes.
func (e *Evaluator) evalBody(exprs []ast.Expr, env *Environment) Value {
	var result Value = NIL
	for _, expr := range exprs {
		result = e.Eval(expr, env)
		if isAbort(result) {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalMac(node *ast.MacExpr, env *Environment) Value {
	mac := &Macro{
		Name:       node.Name,
		Params:     node.Params,
		Body:       node.Body,
		Env:        env,
		IsVariadic: node.IsVariadic,
	}
	env.Set(node.Name, mac)
	return mac
}

// bindingPatternAllowed enforces the fn/let restriction: literal,
// wildcard, or and transform patterns only make sense under match.
func bindingPatternAllowed(p ast.Pattern) *Error {
	switch p := p.(type) {
	case *ast.VarPat:
		return nil
	case *ast.ListPat:
		for _, sub := range p.Items {
			if err := bindingPatternAllowed(sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.VectorPat:
		for _, sub := range p.Items {
			if err := bindingPatternAllowed(sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.MapPat:
		for _, pair := range p.Pairs {
			if err := bindingPatternAllowed(pair.Pattern); err != nil {
				return err
			}
		}
		return nil
	case *ast.AsPat:
		return bindingPatternAllowed(p.Inner)
	default:
		return newKindError(ErrPatternNotAllowed, "this pattern is only allowed in match").withPos(p.GetToken())
	}
}
