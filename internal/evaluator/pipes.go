package evaluator

import (
	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

// The parser desugars x |>? f, x ||> f and x ~> f into calls to these
// internal forms with the function expression first and the piped
// value second. Plain |> is rewritten structurally and never reaches
// the evaluator as a distinct form.

func init() {
	registerSpecialForm("_railway-pipe", pipeRailway)
	registerSpecialForm("_par-pipe", pipeParallel)
	registerSpecialForm("_async-pipe", pipeAsync)
}

// insertFirst applies the pipe's right-hand side to the piped value,
// inserting it as the first argument when the rhs is a call form.
func (e *Evaluator) insertFirst(rhs ast.Expr, piped Value, env *Environment) Value {
	if call, ok := rhs.(*ast.CallExpr); ok {
		if sym, isSym := call.Func.(*ast.SymbolExpr); isSym {
			if _, special := specialForms[sym.Name]; special {
				inj := &ast.Injected{Token: call.Token, Value: piped}
				wrapped := &ast.CallExpr{
					Token: call.Token,
					Func:  call.Func,
					Args:  append([]ast.Expr{inj}, call.Args...),
				}
				return e.Eval(wrapped, env)
			}
		}
		fn := e.Eval(call.Func, env)
		if isAbort(fn) {
			return fn
		}
		if _, isMac := fn.(*Macro); !isMac {
			args := []Value{piped}
			for _, a := range call.Args {
				av := e.Eval(a, env)
				if isAbort(av) {
					return av
				}
				args = append(args, av)
			}
			return e.callValue(fn, args, call.Token)
		}
	}
	fn := e.Eval(rhs, env)
	if isAbort(fn) {
		return fn
	}
	return e.callValue(fn, []Value{piped}, rhs.GetToken())
}

func pipeArgs(e *Evaluator, call *ast.CallExpr, env *Environment) (ast.Expr, Value, Value) {
	if len(call.Args) != 2 {
		return nil, nil, newKindError(ErrArgCount, "pipe needs a function and a value").withPos(call.Token)
	}
	piped := e.Eval(call.Args[1], env)
	if isAbort(piped) {
		return nil, nil, piped
	}
	return call.Args[0], piped, nil
}

// pipeRailway short-circuits on an {:error …} map without invoking
// the next stage.
func pipeRailway(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	rhs, piped, abort := pipeArgs(e, call, env)
	if abort != nil {
		return abort
	}
	if m, ok := piped.(*Map); ok {
		if m.Entries.Get(e.KeywordVal("error")) != nil {
			return piped
		}
	}
	return e.insertFirst(rhs, piped, env)
}

// pipeParallel runs the stage on the worker pool and waits for it.
func pipeParallel(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	rhs, piped, abort := pipeArgs(e, call, env)
	if abort != nil {
		return abort
	}
	done := make(chan Value, 1)
	clone := e.Clone()
	e.pool.submit(func() {
		done <- clone.insertFirst(rhs, piped, env)
	})
	return <-done
}

// pipeAsync starts the stage on its own goroutine and returns a
// promise channel carrying the eventual result.
func pipeAsync(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	rhs, piped, abort := pipeArgs(e, call, env)
	if abort != nil {
		return abort
	}
	ch := newChannel(1)
	clone := e.Clone()
	go func() {
		ch.Send(clone.insertFirst(rhs, piped, env))
		ch.Close()
	}()
	return ch
}
