package evaluator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

// writeModules lays out .qi files in a temp dir and returns an
// evaluator whose relative imports resolve against it.
func writeModules(t *testing.T, files map[string]string) *Evaluator {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	e := New()
	e.Out = &bytes.Buffer{}
	e.Warn = &bytes.Buffer{}
	e.SetBaseDir(dir)
	return e
}

func evalWith(t *testing.T, e *Evaluator, src string) Value {
	t.Helper()
	exprs, errs := pipeline.Parse(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	return e.EvalProgram(exprs, e.Global)
}

func TestUseImportsAllExports(t *testing.T) {
	e := writeModules(t, map[string]string{
		"math.qi": `(module math)
(export [square cube])
(defn square [x] (* x x))
(defn cube [x] (* x x x))`,
	})
	got := evalWith(t, e, `(use "math") (cube (square 2))`)
	if got.Inspect() != "64" {
		t.Fatalf("got %s, want 64", got.Inspect())
	}
}

func TestUseOnly(t *testing.T) {
	e := writeModules(t, map[string]string{
		"math.qi": `(module math)
(export [square cube])
(defn square [x] (* x x))
(defn cube [x] (* x x x))`,
	})
	got := evalWith(t, e, `(use "math" :only [square]) (square 5)`)
	if got.Inspect() != "25" {
		t.Fatalf("got %s, want 25", got.Inspect())
	}
	got = evalWith(t, e, `(use "math" :only [square]) cube`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrUndefinedVar {
		t.Fatalf("cube after :only import => %s, want undefined variable error", got.Inspect())
	}
}

func TestUseOnlyUnknownName(t *testing.T) {
	e := writeModules(t, map[string]string{
		"math.qi": `(module math)
(export [square])
(defn square [x] (* x x))`,
	})
	got := evalWith(t, e, `(use "math" :only [sqrt])`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrNotExported {
		t.Fatalf("got %s, want not-exported error", got.Inspect())
	}
	if !strings.Contains(err.Message, "does not export sqrt") {
		t.Fatalf("error %q, want it to name sqrt", err.Message)
	}
}

func TestUseAs(t *testing.T) {
	e := writeModules(t, map[string]string{
		"math.qi": `(module math)
(export [square])
(defn square [x] (* x x))`,
	})
	got := evalWith(t, e, `(use "math" :as m) (m/square 6)`)
	if got.Inspect() != "36" {
		t.Fatalf("got %s, want 36", got.Inspect())
	}
}

func TestModuleWithoutExportListSharesPublicDefs(t *testing.T) {
	e := writeModules(t, map[string]string{
		"util.qi": `(defn pub [x] (helper x))
(defn- helper [x] (+ x 1))`,
	})
	got := evalWith(t, e, `(use "util") (pub 1)`)
	if got.Inspect() != "2" {
		t.Fatalf("pub 1 => %s, want 2", got.Inspect())
	}
	got = evalWith(t, e, `(use "util") (helper 1)`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrUndefinedVar {
		t.Fatalf("private helper should not be imported, got %s", got.Inspect())
	}
}

func TestExportedNameNeverDefined(t *testing.T) {
	e := writeModules(t, map[string]string{
		"bad.qi": `(module bad)
(export [ghost])`,
	})
	got := evalWith(t, e, `(use "bad")`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrNotExported {
		t.Fatalf("got %s, want not-exported error", got.Inspect())
	}
	if !strings.Contains(err.Message, "never defines it") {
		t.Fatalf("error %q, want it to mention the missing definition", err.Message)
	}
}

func TestModuleLoadedOnce(t *testing.T) {
	e := writeModules(t, map[string]string{
		"counter.qi": `(module counter)
(export [state bump])
(def state (atom 0))
(defn bump [] (swap! state inc))`,
	})
	got := evalWith(t, e, `(use "counter")
(bump)
(use "counter")
(deref state)`)
	if got.Inspect() != "1" {
		t.Fatalf("got %s, want 1: a second use must reuse the cached module", got.Inspect())
	}
}

func TestTransitiveUse(t *testing.T) {
	e := writeModules(t, map[string]string{
		"inner.qi": `(module inner)
(export [base])
(def base 10)`,
		"outer.qi": `(module outer)
(export [total])
(use "inner")
(def total (+ base 5))`,
	})
	got := evalWith(t, e, `(use "outer") (+ total 1)`)
	if got.Inspect() != "16" {
		t.Fatalf("got %s, want 16", got.Inspect())
	}
}

func TestCircularDependency(t *testing.T) {
	e := writeModules(t, map[string]string{
		"a.qi": `(module a)
(use "b")`,
		"b.qi": `(module b)
(use "a")`,
	})
	got := evalWith(t, e, `(use "a")`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrCircularDependency {
		t.Fatalf("got %s, want circular dependency error", got.Inspect())
	}
	if !strings.Contains(err.Message, "a -> b -> a") {
		t.Fatalf("error %q, want the cycle a -> b -> a spelled out", err.Message)
	}
}

func TestUseMissingModule(t *testing.T) {
	e := writeModules(t, nil)
	got := evalWith(t, e, `(use "nowhere")`)
	err, ok := got.(*Error)
	if !ok || err.Kind != ErrModuleNotFound {
		t.Fatalf("got %s, want module-not-found error", got.Inspect())
	}
}

func TestFailedLoadCanRetry(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Out = &bytes.Buffer{}
	e.Warn = &bytes.Buffer{}
	e.SetBaseDir(dir)

	path := filepath.Join(dir, "flaky.qi")
	if err := os.WriteFile(path, []byte(`(def value (undefined-thing))`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := evalWith(t, e, `(use "flaky")`); !isError(got) {
		t.Fatalf("first load should fail, got %s", got.Inspect())
	}

	if err := os.WriteFile(path, []byte(`(def value 7)`), 0o644); err != nil {
		t.Fatal(err)
	}
	got := evalWith(t, e, `(use "flaky") value`)
	if got.Inspect() != "7" {
		t.Fatalf("retry after fix => %s, want 7", got.Inspect())
	}
}

func TestModuleSiblingImports(t *testing.T) {
	// A module's own relative imports resolve against its directory,
	// not the top-level script's.
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(sub, "dep.qi"): `(module dep)
(export [n])
(def n 3)`,
		filepath.Join(sub, "entry.qi"): `(module entry)
(export [doubled])
(use "dep")
(def doubled (* n 2))`,
	}
	for p, src := range files {
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e := New()
	e.Out = &bytes.Buffer{}
	e.Warn = &bytes.Buffer{}
	e.SetBaseDir(dir)
	got := evalWith(t, e, `(use "lib/entry") doubled`)
	if got.Inspect() != "6" {
		t.Fatalf("got %s, want 6", got.Inspect())
	}
}
