package evaluator

import (
	"fmt"

	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// ErrorKind classifies runtime failures so callers and tests can
// branch on cause without parsing messages.
type ErrorKind string

const (
	ErrRuntime            ErrorKind = "runtime"
	ErrType               ErrorKind = "type"
	ErrUndefinedVar       ErrorKind = "undefined-var"
	ErrArgCount           ErrorKind = "arg-count"
	ErrNotCallable        ErrorKind = "not-callable"
	ErrPatternNotAllowed  ErrorKind = "pattern-not-allowed"
	ErrMatchFailed        ErrorKind = "match-failed"
	ErrInvalidMapKey      ErrorKind = "invalid-map-key"
	ErrCircularDependency ErrorKind = "circular-dependency"
	ErrModuleNotFound     ErrorKind = "module-not-found"
	ErrNotExported        ErrorKind = "not-exported"
	ErrIndexOutOfRange    ErrorKind = "index-out-of-range"
	ErrDivisionByZero     ErrorKind = "division-by-zero"
	ErrChannelClosed      ErrorKind = "channel-closed"
	ErrControl            ErrorKind = "control"
	ErrIO                 ErrorKind = "io"
)

// Error is a runtime error travelling as a value. Propagation is by
// the isError check at every evaluation step.
type Error struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
}

func (e *Error) Type() ValueType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("error[%s] at %d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("error[%s]: %s", e.Kind, e.Message)
}

func newError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrRuntime, Message: fmt.Sprintf(format, args...)}
}

func newKindError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// withPos stamps a source position onto an error that has none yet.
func (e *Error) withPos(tok token.Token) *Error {
	if e.Line == 0 {
		e.Line = tok.Line
		e.Column = tok.Column
	}
	return e
}

func isError(v Value) bool {
	if v == nil {
		return false
	}
	return v.Type() == ERROR_OBJ
}

// RecurSignal carries loop re-entry arguments up to the innermost
// loop form. It aborts ordinary evaluation the way an Error does.
type RecurSignal struct {
	Args []Value
	Tok  token.Token
}

func (r *RecurSignal) Type() ValueType { return RECUR_OBJ }
func (r *RecurSignal) Inspect() string { return "<recur>" }

// isAbort reports whether evaluation of the current form must stop
// and hand v upward unchanged.
func isAbort(v Value) bool {
	if v == nil {
		return false
	}
	t := v.Type()
	return t == ERROR_OBJ || t == RECUR_OBJ
}
