package parser_test

import (
	"fmt"
	"testing"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

func parseOne(t *testing.T, src string) ast.Expr {
	t.Helper()
	exprs, errs := pipeline.Parse(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse %q failed: %v", src, errs)
	}
	if len(exprs) != 1 {
		t.Fatalf("parse %q: got %d expressions, want 1", src, len(exprs))
	}
	return exprs[0]
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		node ast.Expr
	}{
		{"nil", "nil", &ast.NilLit{}},
		{"true", "true", &ast.BoolLit{}},
		{"integer", "42", &ast.IntegerLit{}},
		{"float", "3.14", &ast.FloatLit{}},
		{"string", `"hi"`, &ast.StringLit{}},
		{"symbol", "abc", &ast.SymbolExpr{}},
		{"keyword", ":k", &ast.KeywordExpr{}},
		{"vector", "[1 2]", &ast.VectorExpr{}},
		{"map", "{:a 1}", &ast.MapExpr{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOne(t, tt.src)
			gotType, wantType := fmt.Sprintf("%T", got), fmt.Sprintf("%T", tt.node)
			if gotType != wantType {
				t.Errorf("node type = %s, want %s", gotType, wantType)
			}
		})
	}
}

func TestSpecialForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ok   func(ast.Expr) bool
	}{
		{"if", "(if true 1 2)", func(e ast.Expr) bool { _, ok := e.(*ast.IfExpr); return ok }},
		{"do", "(do 1 2)", func(e ast.Expr) bool { _, ok := e.(*ast.DoExpr); return ok }},
		{"def", "(def x 1)", func(e ast.Expr) bool { _, ok := e.(*ast.DefExpr); return ok }},
		{"fn", "(fn [x] x)", func(e ast.Expr) bool { _, ok := e.(*ast.FnExpr); return ok }},
		{"let", "(let [x 1] x)", func(e ast.Expr) bool { _, ok := e.(*ast.LetExpr); return ok }},
		{"match", "(match x 1 :one _ :other)", func(e ast.Expr) bool { _, ok := e.(*ast.MatchExpr); return ok }},
		{"try", "(try (f))", func(e ast.Expr) bool { _, ok := e.(*ast.TryExpr); return ok }},
		{"defer", "(defer (f))", func(e ast.Expr) bool { _, ok := e.(*ast.DeferExpr); return ok }},
		{"loop", "(loop [i 0] (recur (+ i 1)))", func(e ast.Expr) bool { _, ok := e.(*ast.LoopExpr); return ok }},
		{"when", "(when true 1)", func(e ast.Expr) bool { _, ok := e.(*ast.WhenExpr); return ok }},
		{"while", "(while true 1)", func(e ast.Expr) bool { _, ok := e.(*ast.WhileExpr); return ok }},
		{"until", "(until false 1)", func(e ast.Expr) bool { _, ok := e.(*ast.UntilExpr); return ok }},
		{"mac", "(mac m [x] x)", func(e ast.Expr) bool { _, ok := e.(*ast.MacExpr); return ok }},
		{"module", "(module foo)", func(e ast.Expr) bool { _, ok := e.(*ast.ModuleExpr); return ok }},
		{"export", "(export [a b])", func(e ast.Expr) bool { _, ok := e.(*ast.ExportExpr); return ok }},
		{"use", `(use "lib" :all)`, func(e ast.Expr) bool { _, ok := e.(*ast.UseExpr); return ok }},
		{"call", "(f 1 2)", func(e ast.Expr) bool { _, ok := e.(*ast.CallExpr); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOne(t, tt.src)
			if !tt.ok(got) {
				t.Errorf("parse %q: unexpected node %T", tt.src, got)
			}
		})
	}
}

func TestDefnDesugarsToDefFn(t *testing.T) {
	got := parseOne(t, "(defn add [a b] (+ a b))")
	def, ok := got.(*ast.DefExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.DefExpr", got)
	}
	if def.Name != "add" {
		t.Errorf("name = %q, want %q", def.Name, "add")
	}
	fn, ok := def.Value.(*ast.FnExpr)
	if !ok {
		t.Fatalf("value = %T, want *ast.FnExpr", def.Value)
	}
	if len(fn.Params) != 2 {
		t.Errorf("params = %d, want 2", len(fn.Params))
	}
}

func TestPrivateDefn(t *testing.T) {
	got := parseOne(t, "(defn- helper [x] x)")
	def, ok := got.(*ast.DefExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.DefExpr", got)
	}
	if !def.IsPrivate {
		t.Error("IsPrivate = false, want true")
	}
}

func TestVariadicParams(t *testing.T) {
	got := parseOne(t, "(fn [a & rest] rest)")
	fn := got.(*ast.FnExpr)
	if !fn.IsVariadic {
		t.Error("IsVariadic = false, want true")
	}
	if len(fn.Params) != 2 {
		t.Errorf("params = %d, want 2", len(fn.Params))
	}
}

func TestPipeDesugaring(t *testing.T) {
	got := parseOne(t, "x |> (f a b)")
	call, ok := got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	fn, ok := call.Func.(*ast.SymbolExpr)
	if !ok || fn.Name != "f" {
		t.Fatalf("func = %#v, want symbol f", call.Func)
	}
	if len(call.Args) != 3 {
		t.Fatalf("args = %d, want 3", len(call.Args))
	}
	if first, ok := call.Args[0].(*ast.SymbolExpr); !ok || first.Name != "x" {
		t.Errorf("first arg = %#v, want symbol x", call.Args[0])
	}
}

func TestPipeBareFunction(t *testing.T) {
	got := parseOne(t, "x |> f")
	call, ok := got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	if len(call.Args) != 1 {
		t.Fatalf("args = %d, want 1", len(call.Args))
	}
}

func TestRailwayPipeDesugaring(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		helper string
	}{
		{"railway", "x |>? f", "_railway-pipe"},
		{"parallel", "x ||> f", "_par-pipe"},
		{"async", "x ~> f", "_async-pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOne(t, tt.src)
			call, ok := got.(*ast.CallExpr)
			if !ok {
				t.Fatalf("node = %T, want *ast.CallExpr", got)
			}
			fn, ok := call.Func.(*ast.SymbolExpr)
			if !ok || fn.Name != tt.helper {
				t.Fatalf("func = %#v, want symbol %s", call.Func, tt.helper)
			}
			if len(call.Args) != 2 {
				t.Fatalf("args = %d, want 2", len(call.Args))
			}
		})
	}
}

func TestChainedPipes(t *testing.T) {
	got := parseOne(t, "x |> f |> g")
	call, ok := got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	fn, ok := call.Func.(*ast.SymbolExpr)
	if !ok || fn.Name != "g" {
		t.Fatalf("outer func = %#v, want symbol g", call.Func)
	}
}

func TestParenthesizedPipeGroups(t *testing.T) {
	// (5 |> inc) is a grouped pipe chain, not a call with 5 as the
	// callee.
	got := parseOne(t, "(5 |> inc)")
	call, ok := got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	fn, ok := call.Func.(*ast.SymbolExpr)
	if !ok || fn.Name != "inc" {
		t.Fatalf("func = %#v, want symbol inc", call.Func)
	}
	if len(call.Args) != 1 {
		t.Fatalf("args = %d, want the piped value alone", len(call.Args))
	}

	got = parseOne(t, "(x |> f |> g)")
	call, ok = got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	if fn, ok := call.Func.(*ast.SymbolExpr); !ok || fn.Name != "g" {
		t.Fatalf("outer func = %#v, want symbol g", call.Func)
	}
}

func TestQuoteForms(t *testing.T) {
	got := parseOne(t, "'(1 2)")
	call, ok := got.(*ast.CallExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.CallExpr", got)
	}
	fn, ok := call.Func.(*ast.SymbolExpr)
	if !ok || fn.Name != "quote" {
		t.Fatalf("func = %#v, want symbol quote", call.Func)
	}

	if _, ok := parseOne(t, "`(a ,b)").(*ast.QuasiquoteExpr); !ok {
		t.Error("backquote did not parse to QuasiquoteExpr")
	}
	// ~x and ~@xs are the tilde spellings of unquote and splice.
	if _, ok := parseOne(t, "`(a ~b ~@c)").(*ast.QuasiquoteExpr); !ok {
		t.Error("tilde unquote did not parse to QuasiquoteExpr")
	}
}

func TestMatchGuard(t *testing.T) {
	got := parseOne(t, "(match x n :when (> n 0) :pos _ :other)")
	m, ok := got.(*ast.MatchExpr)
	if !ok {
		t.Fatalf("node = %T, want *ast.MatchExpr", got)
	}
	if len(m.Arms) != 2 {
		t.Fatalf("arms = %d, want 2", len(m.Arms))
	}
	if m.Arms[0].Guard == nil {
		t.Error("first arm guard = nil, want guard expression")
	}
	if m.Arms[1].Guard != nil {
		t.Error("second arm guard != nil, want nil")
	}
}

func TestUseModes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		mode ast.UseMode
	}{
		{"all", `(use "m" :all)`, ast.UseAll},
		{"only", `(use "m" :only [a b])`, ast.UseOnly},
		{"as", `(use "m" :as alias)`, ast.UseAs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOne(t, tt.src)
			use, ok := got.(*ast.UseExpr)
			if !ok {
				t.Fatalf("node = %T, want *ast.UseExpr", got)
			}
			if use.Mode != tt.mode {
				t.Errorf("mode = %v, want %v", use.Mode, tt.mode)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed list", "(f 1"},
		{"unclosed vector", "[1 2"},
		{"stray close", ")"},
		{"odd map literal", "{:a}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := pipeline.Parse(tt.src, "<test>")
			if len(errs) == 0 {
				t.Fatalf("parse %q: expected errors, got none", tt.src)
			}
		})
	}
}

func TestFString(t *testing.T) {
	got := parseOne(t, `f"sum is {(+ 1 2)}"`)
	fs, ok := got.(*ast.FStringLit)
	if !ok {
		t.Fatalf("node = %T, want *ast.FStringLit", got)
	}
	var codeParts int
	for _, part := range fs.Parts {
		if part.IsCode {
			codeParts++
		}
	}
	if codeParts != 1 {
		t.Errorf("code parts = %d, want 1", codeParts)
	}
}
