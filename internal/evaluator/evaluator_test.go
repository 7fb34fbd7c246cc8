package evaluator

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	exprs, errs := pipeline.Parse(src, "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	e := New()
	e.Out = &bytes.Buffer{}
	e.Warn = &bytes.Buffer{}
	return e.EvalProgram(exprs, e.Global)
}

func wantInspect(t *testing.T, src, want string) {
	t.Helper()
	got := evalSrc(t, src)
	if got.Inspect() != want {
		t.Errorf("%s => %s, want %s", src, got.Inspect(), want)
	}
}

func wantErrorContaining(t *testing.T, src, fragment string) {
	t.Helper()
	got := evalSrc(t, src)
	err, ok := got.(*Error)
	if !ok {
		t.Fatalf("%s => %s, want error containing %q", src, got.Inspect(), fragment)
	}
	if !strings.Contains(err.Message, fragment) {
		t.Errorf("%s => error %q, want it to contain %q", src, err.Message, fragment)
	}
}

func TestLiteralEvaluation(t *testing.T) {
	tests := []struct{ src, want string }{
		{"nil", "nil"},
		{"true", "true"},
		{"false", "false"},
		{"42", "42"},
		{"-7", "-7"},
		{"3.14", "3.14"},
		{"2.0", "2.0"},
		{`"hi"`, `"hi"`},
		{":key", ":key"},
		{"[1 2 3]", "[1 2 3]"},
		{"{:a 1}", "{:a 1}"},
		{"'(1 2 3)", "(1 2 3)"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(+ 1 2)", "3"},
		{"(+ 1 2 3 4)", "10"},
		{"(+)", "0"},
		{"(- 10 3)", "7"},
		{"(- 5)", "-5"},
		{"(* 2 3 4)", "24"},
		{"(/ 10 2)", "5"},
		{"(/ 7 2)", "3"},
		{"(/ 1.0 2)", "0.5"},
		{"(+ 1 2.5)", "3.5"},
		{"(mod 7 3)", "1"},
		{"(mod -7 3)", "2"},
		{"(inc 4)", "5"},
		{"(dec 4)", "3"},
		{"(abs -3)", "3"},
		{"(min 3 1 2)", "1"},
		{"(max 3 1 2)", "3"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestDivisionByZero(t *testing.T) {
	wantErrorContaining(t, "(/ 1 0)", "division by zero")
	wantErrorContaining(t, "(mod 1 0)", "division by zero")
}

func TestIntegerOverflow(t *testing.T) {
	wantErrorContaining(t, "(* 9223372036854775807 2)", "overflow")
	wantErrorContaining(t, "(+ 9223372036854775807 1)", "overflow")
}

func TestComparisons(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(= 1 1)", "true"},
		{"(= 1 2)", "false"},
		{"(= [1 2] [1 2])", "true"},
		{"(= {:a 1} {:a 1})", "true"},
		{"(= :a :a)", "true"},
		{"(not= 1 2)", "true"},
		{"(< 1 2 3)", "true"},
		{"(< 1 3 2)", "false"},
		{"(<= 1 1 2)", "true"},
		{"(> 3 2 1)", "true"},
		{"(>= 2 2 1)", "true"},
		{"(< 1 2.5)", "true"},
		{`(< "a" "b")`, "true"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestIfAndTruthiness(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(if true 1 2)", "1"},
		{"(if false 1 2)", "2"},
		{"(if nil 1 2)", "2"},
		{"(if 0 1 2)", "1"},
		{`(if "" 1 2)`, "1"},
		{"(if [] 1 2)", "1"},
		{"(if false 1)", "nil"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(and 1 2 3)", "3"},
		{"(and 1 nil 3)", "nil"},
		{"(and)", "true"},
		{"(or nil false 3)", "3"},
		{"(or nil false)", "false"},
		{"(or)", "nil"},
		{"(do (def hits (atom 0)) (or 1 (swap! hits inc)) (deref hits))", "0"},
		{"(do (def hits (atom 0)) (and nil (swap! hits inc)) (deref hits))", "0"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestDefAndClosures(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(def x 10) x", "10"},
		{"(defn double [n] (* n 2)) (double 21)", "42"},
		{"(def add (fn [a b] (+ a b))) (add 1 2)", "3"},
		{"(defn make-adder [n] (fn [x] (+ x n))) ((make-adder 5) 3)", "8"},
		{"(defn f [& rest] rest) (f 1 2 3)", "(1 2 3)"},
		{"(defn f [a & rest] [a rest]) (f 1)", "[1 ()]"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestUndefinedVariableSuggestion(t *testing.T) {
	src := "(def counter 1) countr"
	wantErrorContaining(t, src, "counter")
}

func TestArityErrors(t *testing.T) {
	wantErrorContaining(t, "(defn f [a b] a) (f 1)", "argument")
}

func TestLetDestructuring(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(let [x 1 y 2] (+ x y))", "3"},
		{"(let [[a b] [1 2]] (+ a b))", "3"},
		{"(let [[a & rest] [1 2 3]] rest)", "(2 3)"},
		{"(let [{:x a :y b} {:x 1 :y 2}] (+ a b))", "3"},
		{"(let [x 1] (let [x 2] x))", "2"},
		{"(let [x 1] (let [x 2] nil) x)", "1"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestFnPatternRestriction(t *testing.T) {
	wantErrorContaining(t, "(fn [1] :nope)", "pattern")
	wantErrorContaining(t, "(let [1 1] :nope)", "pattern")
}

func TestMatch(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(match 1 1 :one 2 :two _ :other)", ":one"},
		{"(match 3 1 :one 2 :two _ :other)", ":other"},
		{"(match {:x 1 :y 2} {:x a :y b} (+ a b) _ :none)", "3"},
		{"(match [1 2 3] [a b c] (+ a b c) _ :none)", "6"},
		{"(match [1 2 3] [a & rest] rest _ :none)", "(2 3)"},
		{"(match :k :k :hit _ :miss)", ":hit"},
		{`(match "s" "s" :hit _ :miss)`, ":hit"},
		{"(match 5 n :when (> n 3) :big _ :small)", ":big"},
		{"(match 2 n :when (> n 3) :big _ :small)", ":small"},
		{"(match [1 2] (as [x y] whole) whole _ :no)", "[1 2]"},
		{"(match 2 (or 1 2 3) :small _ :big)", ":small"},
		{"(match \"5\" (transform parse-int n) n _ :no)", "5"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestMatchNoArm(t *testing.T) {
	wantErrorContaining(t, "(match 3 1 :one 2 :two)", "match")
}

func TestLoopRecur(t *testing.T) {
	factorial := "(defn fact [n] (loop [i n acc 1] (if (<= i 1) acc (recur (- i 1) (* acc i))))) (fact 10)"
	wantInspect(t, factorial, "3628800")

	wantInspect(t, "(loop [i 0 acc []] (if (= i 3) acc (recur (+ i 1) (conj acc i))))", "[0 1 2]")
	wantErrorContaining(t, "(recur 1)", "recur")
	wantErrorContaining(t, "(loop [i 0] (recur 1 2))", "recur expects")
}

func TestStructuralSharing(t *testing.T) {
	wantInspect(t, "(def a [1 2 3]) (def b (conj a 4)) [a b]", "[[1 2 3] [1 2 3 4]]")
	wantInspect(t, "(def m {:a 1}) (def m2 (assoc m :b 2)) [(count m) (count m2)]", "[1 2]")
}

func TestWhenWhileUntil(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(when true 1 2)", "2"},
		{"(when false 1 2)", "nil"},
		{"(def n (atom 0)) (while (< (deref n) 3) (swap! n inc)) (deref n)", "3"},
		{"(def n (atom 0)) (until (= (deref n) 3) (swap! n inc)) (deref n)", "3"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestWhileSome(t *testing.T) {
	src := `
(def items (atom [1 2 3]))
(def seen (atom []))
(while-some [x (first (deref items))]
  (swap! seen conj x)
  (swap! items rest))
(deref seen)`
	wantInspect(t, src, "[1 2 3]")
}

func TestUntilError(t *testing.T) {
	src := `
(def n (atom 0))
(until-error
  (do
    (swap! n inc)
    (if (= (deref n) 3) {:error "stop"} (deref n))))
(deref n)`
	wantInspect(t, src, "3")
}

func TestTryConvertsErrors(t *testing.T) {
	wantInspect(t, "(try (+ 1 2))", "3")
	got := evalSrc(t, "(try (/ 1 0))")
	m, ok := got.(*Map)
	if !ok {
		t.Fatalf("try => %T, want *Map", got)
	}
	if !strings.Contains(m.Inspect(), ":error") {
		t.Errorf("try => %s, want an :error map", m.Inspect())
	}
}

func TestDeferOrdering(t *testing.T) {
	src := `
(def log (atom []))
(try (do (defer (swap! log conj :a)) (defer (swap! log conj :b)) (/ 1 0)))
(deref log)`
	wantInspect(t, src, "[:b :a]")

	success := `
(def log (atom []))
(do (defer (swap! log conj :a)) (defer (swap! log conj :b)) :done)
(deref log)`
	wantInspect(t, success, "[:b :a]")
}

func TestDeferOutsideDoOrTry(t *testing.T) {
	wantErrorContaining(t, "(defer 1)", "defer")
}

func TestAtoms(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(def a (atom 1)) (deref a)", "1"},
		{"(def a (atom 1)) (reset! a 9) (deref a)", "9"},
		{"(def a (atom 1)) (swap! a + 5) (deref a)", "6"},
		{"(def a (atom [])) (swap! a conj 1) (deref a)", "[1]"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestHigherOrderForms(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(map (fn [x] (* x 2)) [1 2 3])", "[2 4 6]"},
		{"(map (fn [x] (* x 2)) '(1 2 3))", "(2 4 6)"},
		{"(filter (fn [x] (> x 1)) [1 2 3])", "[2 3]"},
		{"(reduce + 0 [1 2 3 4])", "10"},
		{"(find (fn [x] (> x 1)) [1 2 3])", "2"},
		{"(every? pos? [1 2 3])", "true"},
		{"(every? pos? [1 -2 3])", "false"},
		{"(some? pos? [-1 -2 3])", "true"},
		{"(take-while pos? [1 2 -1 3])", "[1 2]"},
		{"(drop-while pos? [1 2 -1 3])", "[-1 3]"},
		{"(keep (fn [x] (if (pos? x) (* x 10) nil)) [1 -2 3])", "[10 30]"},
		{"(group-by odd? [1 2 3 4])", "{false [2 4] true [1 3]}"},
		{"(sort-by identity [3 1 2])", "[1 2 3]"},
		{"(max-by identity [3 1 2])", "3"},
		{"(min-by identity [3 1 2])", "1"},
		{"(count-by odd? [1 2 3])", "{false 1 true 2}"},
		{"(update-in {:a {:b 1}} [:a :b] inc)", "{:a {:b 2}}"},
		{"((comp inc inc) 1)", "3"},
		{"(branch 5 pos? inc dec)", "6"},
		{"(branch -5 pos? inc dec)", "-6"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestHigherOrderPipedArgumentOrder(t *testing.T) {
	tests := []struct{ src, want string }{
		{"([1 2 3] |> (map inc))", "[2 3 4]"},
		{"([1 2 3] |> (filter odd?))", "[1 3]"},
		{"([1 2 3 4] |> (reduce + 0))", "10"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestEachSideEffects(t *testing.T) {
	src := "(def log (atom [])) (each (fn [x] (swap! log conj x)) [1 2]) (deref log)"
	wantInspect(t, src, "[1 2]")
}

func TestPipes(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(5 |> inc)", "6"},
		{"(5 |> (+ 10))", "15"},
		{"(5 |> inc |> (* 2))", "12"},
		{"(5 |>? inc)", "6"},
		{"({:error \"boom\"} |>? inc)", `{:error "boom"}`},
		{"(5 ||> inc)", "6"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestAsyncPipeReturnsPromise(t *testing.T) {
	wantInspect(t, "(recv! (5 ~> inc))", "6")
}

func TestPipeDesugarEquivalence(t *testing.T) {
	left := evalSrc(t, "(defn f [a b c] [a b c]) (1 |> (f 2 3))")
	right := evalSrc(t, "(defn f [a b c] [a b c]) (f 1 2 3)")
	if left.Inspect() != right.Inspect() {
		t.Errorf("piped %s != direct %s", left.Inspect(), right.Inspect())
	}
}

func TestKeywordLookup(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(:a {:a 1})", "1"},
		{"(:b {:a 1} :missing)", ":missing"},
		{"(:b {:a 1 :b nil} :missing)", "nil"},
		{"({:a 1} :a)", "1"},
		{"([10 20 30] 1)", "20"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
	wantErrorContaining(t, "(:b {:a 1})", "key :b not found")
	wantErrorContaining(t, "(:a 5)", "needs a map")
	wantInspect(t, "(:a 5 :fallback)", ":fallback")
}

func TestStringLookup(t *testing.T) {
	wantInspect(t, `("héllo" 1)`, `"é"`)
	wantErrorContaining(t, `("ab" 5)`, "range")
	// A string applied to a map looks itself up as the key.
	wantInspect(t, `("a" {"a" 1})`, "1")
	wantErrorContaining(t, `("b" {"a" 1})`, `key "b" not found`)
}

func TestNotCallable(t *testing.T) {
	wantErrorContaining(t, "(1 2 3)", "callable")
}

func TestMapKeyRestrictions(t *testing.T) {
	wantErrorContaining(t, "{1.5 :x}", "key")
	wantInspect(t, "{1 :a true :b \"s\" :c :k :d}", `{"s" :c 1 :a :k :d true :b}`)
}

func TestMacros(t *testing.T) {
	unless := "(mac unless [test body] `(if ~test nil ~body)) (unless false :ran)"
	wantInspect(t, unless, ":ran")

	unlessTrue := "(mac unless [test body] `(if ~test nil ~body)) (unless true :ran)"
	wantInspect(t, unlessTrue, "nil")

	twice := "(mac twice [e] `(do ~e ~e)) (def n (atom 0)) (twice (swap! n inc)) (deref n)"
	wantInspect(t, twice, "2")
}

func TestQuasiquote(t *testing.T) {
	tests := []struct{ src, want string }{
		{"`(1 2 3)", "(1 2 3)"},
		{"(def x 5) `(a ~x)", "(a 5)"},
		{"(def xs '(1 2)) `(a ,@xs b)", "(a 1 2 b)"},
		{"(def x 5) `[1 ~x]", "[1 5]"},
		{"`(a `(b ~c))", "(a (quasiquote (b (unquote c))))"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestUnquoteOutsideQuasiquote(t *testing.T) {
	wantErrorContaining(t, ",x", "unquote")
}

func TestFStrings(t *testing.T) {
	tests := []struct{ src, want string }{
		{`(def name "qi") f"hello {name}"`, `"hello qi"`},
		{`f"sum is {(+ 1 2)}"`, `"sum is 3"`},
		{`f"plain"`, `"plain"`},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestStrAndPrint(t *testing.T) {
	wantInspect(t, `(str "a" 1 :k nil)`, `"a1:k"`)

	exprs, errs := pipeline.Parse(`(println "hi" 42)`, "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	e := New()
	var out bytes.Buffer
	e.Out = &out
	e.EvalProgram(exprs, e.Global)
	if out.String() != "hi 42\n" {
		t.Errorf("println wrote %q, want %q", out.String(), "hi 42\n")
	}
}

func TestRedefinitionWarning(t *testing.T) {
	exprs, errs := pipeline.Parse("(def x 1) (def x 2)", "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	e := New()
	e.Out = &bytes.Buffer{}
	var warn bytes.Buffer
	e.Warn = &warn
	e.EvalProgram(exprs, e.Global)
	if !strings.Contains(warn.String(), "redefining x") {
		t.Errorf("warn output %q, want redefinition warning", warn.String())
	}
}

func TestDocStrings(t *testing.T) {
	wantInspect(t, `(def x "the answer" 42) (doc x)`, `"the answer"`)
	wantInspect(t, "(def x 42) (doc x)", "nil")
}

func TestCollectionBuiltins(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(first [1 2 3])", "1"},
		{"(first [])", "nil"},
		{"(rest [1 2 3])", "[2 3]"},
		{"(last [1 2 3])", "3"},
		{"(nth [10 20] 1)", "20"},
		{"(count [1 2 3])", "3"},
		{"(count {:a 1})", "1"},
		{`(count "héllo")`, "5"},
		{"(empty? [])", "true"},
		{"(empty? [1])", "false"},
		{"(get {:a 1} :a)", "1"},
		{"(get {:a 1} :b :default)", ":default"},
		{"(get-in {:a {:b 2}} [:a :b])", "2"},
		{"(assoc {:a 1} :b 2)", "{:a 1 :b 2}"},
		{"(assoc [1 2 3] 1 9)", "[1 9 3]"},
		{"(dissoc {:a 1 :b 2} :a)", "{:b 2}"},
		{"(contains? {:a 1} :a)", "true"},
		{"(contains? {:a 1} :b)", "false"},
		{"(keys {:a 1})", "(:a)"},
		{"(vals {:a 1})", "(1)"},
		{"(merge {:a 1} {:b 2})", "{:a 1 :b 2}"},
		{"(range 4)", "(0 1 2 3)"},
		{"(range 1 4)", "(1 2 3)"},
		{"(range 0 10 3)", "(0 3 6 9)"},
		{"(take 2 [1 2 3])", "[1 2]"},
		{"(drop 2 [1 2 3])", "[3]"},
		{"(concat [1] [2 3])", "[1 2 3]"},
		{"(reverse [1 2 3])", "[3 2 1]"},
		{"(into [] '(1 2))", "[1 2]"},
		{"(into {} [[:a 1]])", "{:a 1}"},
		{"(sort [3 1 2])", "[1 2 3]"},
		{"(zip [1 2] [:a :b])", "([1 :a] [2 :b])"},
		{"(flatten [1 [2 [3]]])", "[1 2 3]"},
		{"(repeat 3 :x)", "(:x :x :x)"},
		{"(distinct [1 2 1 3])", "[1 2 3]"},
		{"(frequencies [:a :b :a])", "{:a 2 :b 1}"},
		{"(cons 0 [1 2])", "(0 1 2)"},
		{"(apply + [1 2 3])", "6"},
		{"(apply + 1 [2 3])", "6"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestNthOutOfRange(t *testing.T) {
	wantErrorContaining(t, "(nth [1 2] 5)", "range")
}

func TestStringBuiltins(t *testing.T) {
	tests := []struct{ src, want string }{
		{`(str-split "a,b,c" ",")`, `("a" "b" "c")`},
		{`(str-join ["a" "b"] "-")`, `"a-b"`},
		{`(str-upper "abc")`, `"ABC"`},
		{`(str-lower "ABC")`, `"abc"`},
		{`(str-trim "  x  ")`, `"x"`},
		{`(str-replace "aaa" "a" "b")`, `"bbb"`},
		{`(substring "hello" 1 3)`, `"el"`},
		{`(starts-with? "hello" "he")`, "true"},
		{`(ends-with? "hello" "lo")`, "true"},
		{`(str-contains? "hello" "ell")`, "true"},
		{`(parse-int "42")`, "42"},
		{`(parse-int "nope")`, "nil"},
		{`(parse-float "2.5")`, "2.5"},
		{`(keyword "k")`, ":k"},
		{`(name :k)`, `"k"`},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct{ src, want string }{
		{"(nil? nil)", "true"},
		{"(nil? 1)", "false"},
		{"(int? 1)", "true"},
		{"(float? 1.5)", "true"},
		{"(number? 1.5)", "true"},
		{"(string? \"s\")", "true"},
		{"(keyword? :k)", "true"},
		{"(list? '(1))", "true"},
		{"(vector? [1])", "true"},
		{"(map? {})", "true"},
		{"(fn? inc)", "true"},
		{"(fn? (fn [x] x))", "true"},
		{"(error? {:error \"x\"})", "true"},
		{"(error? {:ok 1})", "false"},
		{"(type-of 1)", ":integer"},
		{"(type-of [1])", ":vector"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestSynthesizedFunctions(t *testing.T) {
	tests := []struct{ src, want string }{
		{"((complement pos?) -1)", "true"},
		{"((partial + 10) 5)", "15"},
		{"((juxt inc dec) 5)", "[6 4]"},
		{"(identity :x)", ":x"},
	}
	for _, tt := range tests {
		wantInspect(t, tt.src, tt.want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	wantInspect(t, `(json/parse "{\"a\": 1, \"b\": [true, null]}")`, "{:a 1 :b [true nil]}")
	wantInspect(t, `(json/stringify {:a 1})`, `"{\"a\":1}"`)
	wantErrorContaining(t, `(json/parse "{nope")`, "json/parse")
}

func TestYAMLRoundTrip(t *testing.T) {
	wantInspect(t, `(yaml/parse "a: 1")`, "{:a 1}")
	got := evalSrc(t, `(yaml/stringify {:a 1})`)
	s, ok := got.(*String)
	if !ok {
		t.Fatalf("yaml/stringify => %T, want *String", got)
	}
	if strings.TrimSpace(s.Value) != "a: 1" {
		t.Errorf("yaml/stringify => %q, want a: 1", s.Value)
	}
}

func TestUUIDBuiltin(t *testing.T) {
	got := evalSrc(t, "(uuid)")
	s, ok := got.(*String)
	if !ok {
		t.Fatalf("uuid => %T, want *String", got)
	}
	if len(s.Value) != 36 {
		t.Errorf("uuid length = %d, want 36", len(s.Value))
	}
}

func TestEnvironmentIsolation(t *testing.T) {
	src := "(def x 1) (defn f [] (let [x 2] x)) (f) x"
	wantInspect(t, src, "1")
}

func TestTapPassesThrough(t *testing.T) {
	src := "(def log (atom [])) (tap [1 2] (fn [v] (swap! log conj v)))"
	wantInspect(t, src, "[1 2]")
}

func TestRegisterEmbeddingAPI(t *testing.T) {
	exprs, errs := pipeline.Parse("(triple 7)", "<test>")
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	e := New()
	e.Out = &bytes.Buffer{}
	e.Warn = &bytes.Buffer{}
	e.Register("triple", func(args []Value) (Value, error) {
		n, ok := args[0].(*Integer)
		if !ok {
			return nil, fmt.Errorf("want an integer")
		}
		return &Integer{Value: n.Value * 3}, nil
	})
	got := e.EvalProgram(exprs, e.Global)
	if got.Inspect() != "21" {
		t.Fatalf("got %s, want 21", got.Inspect())
	}

	exprs, _ = pipeline.Parse(`(triple "x")`, "<test>")
	got = e.EvalProgram(exprs, e.Global)
	err, ok := got.(*Error)
	if !ok || !strings.Contains(err.Message, "want an integer") {
		t.Fatalf("got %s, want the registered function's error", got.Inspect())
	}
}
