package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sanohiro/qi-lang-sub000/internal/interner"
)

type ValueType string

const (
	NIL_OBJ     = "NIL"
	BOOL_OBJ    = "BOOL"
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	STRING_OBJ  = "STRING"
	BYTES_OBJ   = "BYTES"
	SYMBOL_OBJ  = "SYMBOL"
	KEYWORD_OBJ = "KEYWORD"
	LIST_OBJ    = "LIST"
	VECTOR_OBJ  = "VECTOR"
	MAP_OBJ     = "MAP"
	FUNC_OBJ    = "FUNCTION"
	MACRO_OBJ   = "MACRO"
	NATIVE_OBJ  = "NATIVE_FUNCTION"
	ATOM_OBJ    = "ATOM"
	CHANNEL_OBJ = "CHANNEL"
	SCOPE_OBJ   = "SCOPE"
	STREAM_OBJ  = "STREAM"
	UVAR_OBJ    = "UVAR"
	ERROR_OBJ   = "ERROR"
	RECUR_OBJ   = "RECUR"
)

// Value is the runtime representation of every Qi datum. Inspect
// renders the readable form used by the printer and the REPL.
type Value interface {
	Type() ValueType
	Inspect() string
}

type Nil struct{}

func (n *Nil) Type() ValueType { return NIL_OBJ }
func (n *Nil) Inspect() string { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BOOL_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType { return INTEGER_OBJ }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ValueType { return FLOAT_OBJ }
func (f *Float) Inspect() string { return formatFloat(f.Value) }

// formatFloat keeps a decimal point so floats stay distinguishable
// from integers when printed back.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_OBJ }
func (s *String) Inspect() string { return strconv.Quote(s.Value) }

type Bytes struct {
	Value []byte
}

func (b *Bytes) Type() ValueType { return BYTES_OBJ }
func (b *Bytes) Inspect() string {
	var sb strings.Builder
	sb.WriteString("#bytes[")
	for i, c := range b.Value {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(c)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Symbol wraps an interned handle; two symbols with the same text
// share the same handle, so identity comparison is pointer equality.
type Symbol struct {
	Handle *interner.Handle
}

func (s *Symbol) Type() ValueType { return SYMBOL_OBJ }
func (s *Symbol) Inspect() string { return s.Handle.Text() }
func (s *Symbol) Name() string    { return s.Handle.Text() }

type Keyword struct {
	Handle *interner.Handle
}

func (k *Keyword) Type() ValueType { return KEYWORD_OBJ }
func (k *Keyword) Inspect() string { return ":" + k.Handle.Text() }
func (k *Keyword) Name() string    { return k.Handle.Text() }

// Uvar is an opaque handle that associates a Qi value with an
// external resource (database connections, prepared statements).
type Uvar struct {
	ID uint64
}

func (u *Uvar) Type() ValueType { return UVAR_OBJ }
func (u *Uvar) Inspect() string { return fmt.Sprintf("<uvar:%d>", u.ID) }

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// isTruthy: only nil and false are falsy.
func isTruthy(v Value) bool {
	switch v {
	case NIL:
		return false
	case FALSE:
		return false
	}
	if b, ok := v.(*Boolean); ok {
		return b.Value
	}
	if _, ok := v.(*Nil); ok {
		return false
	}
	return true
}
