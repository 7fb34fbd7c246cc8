package evaluator

import (
	"io"
	"os"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/interner"
	"github.com/sanohiro/qi-lang-sub000/internal/modules"
)

const maxEvalDepth = 10000

// Evaluator executes expressions against an environment. The global
// environment, intern pools, module registry and worker pool are
// shared between clones; defer and module-loading stacks are per
// clone so spawned tasks never see each other's control state.
type Evaluator struct {
	Out  io.Writer
	Warn io.Writer

	Global   *Environment
	Symbols  *interner.Pool
	Keywords *interner.Pool
	Resolver *modules.Resolver

	registry *ModuleRegistry
	pool     *workerPool
	handles  *handleTable

	scope         *Scope
	currentModule string
	baseDir       string
	loadingStack  []string
	buildStack    []*moduleBuild
	deferStack    []*deferFrame
	depth         int
}

func New() *Evaluator {
	e := &Evaluator{
		Out:      os.Stdout,
		Warn:     os.Stderr,
		Global:   NewEnvironment(),
		Symbols:  interner.NewPool(),
		Keywords: interner.NewPool(),
		Resolver: modules.NewResolver(),
		registry: newModuleRegistry(),
		pool:     newWorkerPool(0),
		handles:  newHandleTable(),
		baseDir:  ".",
	}
	registerBuiltins(e)
	return e
}

// Clone returns an evaluator for a spawned task. Shared state stays
// shared; per-task stacks start empty.
func (e *Evaluator) Clone() *Evaluator {
	return &Evaluator{
		Out:           e.Out,
		Warn:          e.Warn,
		Global:        e.Global,
		Symbols:       e.Symbols,
		Keywords:      e.Keywords,
		Resolver:      e.Resolver,
		registry:      e.registry,
		pool:          e.pool,
		handles:       e.handles,
		scope:         e.scope,
		currentModule: e.currentModule,
		baseDir:       e.baseDir,
	}
}

// SetBaseDir sets the directory relative module paths resolve against.
func (e *Evaluator) SetBaseDir(dir string) {
	if dir != "" {
		e.baseDir = dir
	}
}

// Register installs a native function into the global environment.
// This is the embedding API: fn receives evaluated arguments and
// reports failure through the error return.
func (e *Evaluator) Register(name string, fn func(args []Value) (Value, error)) {
	e.Global.Set(name, &NativeFunc{
		Name: name,
		Fn: func(_ *Evaluator, args []Value) Value {
			v, err := fn(args)
			if err != nil {
				return newError("%s: %s", name, err.Error())
			}
			if v == nil {
				return NIL
			}
			return v
		},
	})
}

// Symbol interns name and returns its symbol value.
func (e *Evaluator) Symbol(name string) *Symbol {
	return &Symbol{Handle: e.Symbols.Intern(name)}
}

// KeywordVal interns name and returns its keyword value.
func (e *Evaluator) KeywordVal(name string) *Keyword {
	return &Keyword{Handle: e.Keywords.Intern(name)}
}

// EvalProgram evaluates top-level expressions in order, stopping at
// the first error. A recur escaping to the top level is an error.
func (e *Evaluator) EvalProgram(exprs []ast.Expr, env *Environment) Value {
	var result Value = NIL
	for _, expr := range exprs {
		result = e.Eval(expr, env)
		if isError(result) {
			return result
		}
		if rs, ok := result.(*RecurSignal); ok {
			return newKindError(ErrControl, "recur outside loop").withPos(rs.Tok)
		}
	}
	return result
}

func (e *Evaluator) Eval(node ast.Expr, env *Environment) Value {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxEvalDepth {
		return newError("evaluation depth limit exceeded")
	}

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
	case *ast.FStringLit:
		return e.evalFString(node, env)
	case *ast.SymbolExpr:
		return e.evalSymbol(node, env)
	case *ast.KeywordExpr:
		return e.KeywordVal(node.Name)
	case *ast.ListExpr:
		return e.evalListLit(node, env)
	case *ast.VectorExpr:
		return e.evalVectorLit(node, env)
	case *ast.MapExpr:
		return e.evalMapLit(node, env)
	case *ast.CallExpr:
		return e.evalCall(node, env)
	case *ast.IfExpr:
		return e.evalIf(node, env)
	case *ast.DoExpr:
		return e.evalDo(node, env)
	case *ast.DefExpr:
		return e.evalDef(node, env)
	case *ast.FnExpr:
		return e.evalFn(node, env)
	case *ast.LetExpr:
		return e.evalLet(node, env)
	case *ast.MatchExpr:
		return e.evalMatch(node, env)
	case *ast.TryExpr:
		return e.evalTry(node, env)
	case *ast.DeferExpr:
		return e.evalDefer(node, env)
	case *ast.LoopExpr:
		return e.evalLoop(node, env)
	case *ast.RecurExpr:
		return e.evalRecur(node, env)
	case *ast.WhenExpr:
		return e.evalWhen(node, env)
	case *ast.WhileExpr:
		return e.evalWhile(node, env)
	case *ast.UntilExpr:
		return e.evalUntil(node, env)
	case *ast.WhileSomeExpr:
		return e.evalWhileSome(node, env)
	case *ast.UntilErrorExpr:
		return e.evalUntilError(node, env)
	case *ast.MacExpr:
		return e.evalMac(node, env)
	case *ast.ModuleExpr:
		return e.evalModuleDecl(node, env)
	case *ast.ExportExpr:
		return e.evalExport(node, env)
	case *ast.UseExpr:
		return e.evalUse(node, env)
	case *ast.QuasiquoteExpr:
		return e.evalQuasiquote(node.Expr, env, 1)
	case *ast.UnquoteExpr:
		return newKindError(ErrControl, "unquote outside quasiquote").withPos(node.Token)
	case *ast.UnquoteSpliceExpr:
		return newKindError(ErrControl, "unquote-splice outside quasiquote").withPos(node.Token)
	case *ast.Injected:
		return node.Value.(Value)
	}
	return newError("unhandled expression %T", node)
}

func (e *Evaluator) evalSymbol(node *ast.SymbolExpr, env *Environment) Value {
	if v, ok := env.Get(node.Name); ok {
		return v
	}
	msg := "undefined variable: " + node.Name
	if s := suggestName(node.Name, env); s != "" {
		msg += ", did you mean '" + s + "'?"
	}
	return newKindError(ErrUndefinedVar, "%s", msg).withPos(node.Token)
}

// evalListLit evaluates a list in data position (inside quote output
// re-evaluation this does not occur; lists only reach here through
// quasiquote-free data or macro results).
func (e *Evaluator) evalListLit(node *ast.ListExpr, env *Environment) Value {
	items := make([]Value, 0, len(node.Items))
	for _, it := range node.Items {
		v := e.Eval(it, env)
		if isAbort(v) {
			return v
		}
		items = append(items, v)
	}
	return NewList(items...)
}

func (e *Evaluator) evalVectorLit(node *ast.VectorExpr, env *Environment) Value {
	items := make([]Value, 0, len(node.Items))
	for _, it := range node.Items {
		v := e.Eval(it, env)
		if isAbort(v) {
			return v
		}
		items = append(items, v)
	}
	return NewVector(items...)
}

func (e *Evaluator) evalMapLit(node *ast.MapExpr, env *Environment) Value {
	m := EmptyMap()
	for _, pair := range node.Pairs {
		k := e.Eval(pair.Key, env)
		if isAbort(k) {
			return k
		}
		if !ValidMapKey(k) {
			return newKindError(ErrInvalidMapKey, "%s cannot be a map key", k.Type()).withPos(pair.Key.GetToken())
		}
		v := e.Eval(pair.Value, env)
		if isAbort(v) {
			return v
		}
		m = m.Put(k, v)
	}
	return &Map{Entries: m}
}

func (e *Evaluator) evalIf(node *ast.IfExpr, env *Environment) Value {
	test := e.Eval(node.Test, env)
	if isAbort(test) {
		return test
	}
	if isTruthy(test) {
		return e.Eval(node.Then, env)
	}
	if node.Else != nil {
		return e.Eval(node.Else, env)
	}
	return NIL
}
