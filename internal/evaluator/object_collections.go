package evaluator

import (
	"sort"
	"strings"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
)

type List struct {
	Items *Seq
}

func (l *List) Type() ValueType { return LIST_OBJ }
func (l *List) Inspect() string { return inspectSeq(l.Items, "(", ")") }

type Vector struct {
	Items *Seq
}

func (v *Vector) Type() ValueType { return VECTOR_OBJ }
func (v *Vector) Inspect() string { return inspectSeq(v.Items, "[", "]") }

func inspectSeq(s *Seq, open, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	first := true
	s.Each(func(v Value) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(v.Inspect())
	})
	sb.WriteString(close)
	return sb.String()
}

func NewList(items ...Value) *List {
	return &List{Items: SeqFromSlice(items)}
}

func NewVector(items ...Value) *Vector {
	return &Vector{Items: SeqFromSlice(items)}
}

type Map struct {
	Entries *PersistentMap
}

func (m *Map) Type() ValueType { return MAP_OBJ }
func (m *Map) Inspect() string {
	type pair struct{ k, v Value }
	pairs := make([]pair, 0, m.Entries.Len())
	m.Entries.Each(func(k, v Value) {
		pairs = append(pairs, pair{k, v})
	})
	// Hash order is arbitrary; sort on the printed key so output is
	// stable across runs.
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].k.Inspect() < pairs[j].k.Inspect()
	})
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.k.Inspect())
		sb.WriteByte(' ')
		sb.WriteString(p.v.Inspect())
	}
	sb.WriteByte('}')
	return sb.String()
}

// Function is a user-defined closure. SpecialProcessing marks
// synthesized wrappers (complement, partial, comp results) that
// carry pre-bound values instead of a source body.
type Function struct {
	Name              string
	Params            []ast.Pattern
	Body              ast.Expr
	Env               *Environment
	IsVariadic        bool
	SpecialProcessing func(e *Evaluator, args []Value) Value
}

func (f *Function) Type() ValueType { return FUNC_OBJ }
func (f *Function) Inspect() string { return "<function>" }

type Macro struct {
	Name       string
	Params     []ast.Pattern
	Body       ast.Expr
	Env        *Environment
	IsVariadic bool
}

func (m *Macro) Type() ValueType { return MACRO_OBJ }
func (m *Macro) Inspect() string { return "<macro>" }

type NativeFunc struct {
	Name string
	Fn   func(e *Evaluator, args []Value) Value
}

func (n *NativeFunc) Type() ValueType { return NATIVE_OBJ }
func (n *NativeFunc) Inspect() string { return "<native-function:" + n.Name + ">" }
