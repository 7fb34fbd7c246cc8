package evaluator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/config"
	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

// Module is a loaded source file plus its export table. A nil Exports
// slice means "everything non-private".
type Module struct {
	Name    string
	Path    string
	Env     *Environment
	Exports []string
}

// ModuleRegistry is the process-wide module cache. The loading set
// backs circular-dependency detection; the per-evaluator loading
// stack provides the human-readable cycle path.
type ModuleRegistry struct {
	mu      sync.Mutex
	loading map[string]bool
	loaded  map[string]*Module
}

func newModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		loading: make(map[string]bool),
		loaded:  make(map[string]*Module),
	}
}

// moduleBuild accumulates module/export declarations while a file is
// being evaluated.
type moduleBuild struct {
	name     string
	exports  []string
	declared bool
}

func (e *Evaluator) evalModuleDecl(node *ast.ModuleExpr, env *Environment) Value {
	if b := e.currentBuild(); b != nil {
		b.name = node.Name
		b.declared = true
	}
	e.currentModule = node.Name
	return NIL
}

func (e *Evaluator) evalExport(node *ast.ExportExpr, env *Environment) Value {
	b := e.currentBuild()
	if b == nil {
		return newKindError(ErrControl, "export outside a module file").withPos(node.Token)
	}
	b.declared = true
	b.exports = append(b.exports, node.Names...)
	return NIL
}

func (e *Evaluator) currentBuild() *moduleBuild {
	if len(e.buildStack) == 0 {
		return nil
	}
	return e.buildStack[len(e.buildStack)-1]
}

func (e *Evaluator) pushBuild(b *moduleBuild) {
	e.buildStack = append(e.buildStack, b)
}

func (e *Evaluator) popBuild() {
	e.buildStack = e.buildStack[:len(e.buildStack)-1]
}

func (e *Evaluator) evalUse(node *ast.UseExpr, env *Environment) Value {
	mod := e.loadModule(node.Path)
	if err, ok := mod.(*Error); ok {
		return err.withPos(node.Token)
	}
	m := mod.(*moduleValue).m

	exports, err := e.exportedBindings(m)
	if err != nil {
		return err.withPos(node.Token)
	}

	switch node.Mode {
	case ast.UseAll:
		for name, v := range exports {
			env.Set(name, v)
		}
	case ast.UseOnly:
		for _, name := range node.Names {
			v, ok := exports[name]
			if !ok {
				return newKindError(ErrNotExported, "module %s does not export %s", m.Name, name).withPos(node.Token)
			}
			env.Set(name, v)
		}
	case ast.UseAs:
		for name, v := range exports {
			env.Set(node.Alias+"/"+name, v)
		}
	}
	return NIL
}

// moduleValue lets loadModule return a module through the Value plumbing.
type moduleValue struct {
	m *Module
}

func (m *moduleValue) Type() ValueType { return "MODULE" }
func (m *moduleValue) Inspect() string { return "<module:" + m.m.Name + ">" }

func displayName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), config.SourceFileExt)
	return name
}

// loadModule resolves, parses and evaluates a module exactly once per
// resolved path. Failed loads are evicted so a later load can retry.
func (e *Evaluator) loadModule(path string) Value {
	resolved, rerr := e.Resolver.Resolve(path, e.baseDir)
	if rerr != nil {
		return newKindError(ErrModuleNotFound, "%s", rerr.Error())
	}

	name := displayName(path)

	e.registry.mu.Lock()
	if m, ok := e.registry.loaded[resolved]; ok {
		e.registry.mu.Unlock()
		return &moduleValue{m: m}
	}
	if e.registry.loading[resolved] {
		cycle := strings.Join(append(append([]string{}, e.loadingStack...), name), " -> ")
		e.registry.mu.Unlock()
		return newKindError(ErrCircularDependency, "circular module dependency: %s", cycle)
	}
	e.registry.loading[resolved] = true
	e.registry.mu.Unlock()

	prevModule := e.currentModule
	prevBase := e.baseDir
	e.loadingStack = append(e.loadingStack, name)
	build := &moduleBuild{name: name}
	e.pushBuild(build)

	var result *Module
	defer func() {
		if n := len(e.loadingStack); n == 0 || e.loadingStack[n-1] != name {
			panic("module loading stack corrupted")
		}
		e.loadingStack = e.loadingStack[:len(e.loadingStack)-1]
		e.popBuild()
		e.currentModule = prevModule
		e.baseDir = prevBase

		e.registry.mu.Lock()
		delete(e.registry.loading, resolved)
		if result != nil {
			e.registry.loaded[resolved] = result
		}
		e.registry.mu.Unlock()
	}()

	source, ioErr := os.ReadFile(resolved)
	if ioErr != nil {
		return newKindError(ErrIO, "cannot read module %s: %s", path, ioErr.Error())
	}

	exprs, parseErrs := pipeline.Parse(string(source), resolved)
	if len(parseErrs) > 0 {
		return newKindError(ErrModuleNotFound, "parse error in module %s: %s", path, parseErrs[0].Error())
	}

	env := NewEnclosedEnvironment(e.Global)
	e.currentModule = name
	e.baseDir = filepath.Dir(resolved)

	if v := e.EvalProgram(exprs, env); isError(v) {
		return v
	}

	m := &Module{Name: build.name, Path: resolved, Env: env}
	if build.declared && len(build.exports) > 0 {
		m.Exports = build.exports
	}
	result = m
	return &moduleValue{m: m}
}

func (e *Evaluator) exportedBindings(m *Module) (map[string]Value, *Error) {
	out := make(map[string]Value)
	if m.Exports == nil {
		for _, name := range m.Env.Names() {
			if m.Env.IsPrivate(name) {
				continue
			}
			if v, ok := m.Env.Get(name); ok {
				out[name] = v
			}
		}
		return out, nil
	}
	for _, name := range m.Exports {
		v, ok := m.Env.Get(name)
		if !ok {
			return nil, newKindError(ErrNotExported, "module %s exports %s but never defines it", m.Name, name)
		}
		out[name] = v
	}
	return out, nil
}
