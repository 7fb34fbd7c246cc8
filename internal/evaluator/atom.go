package evaluator

import "sync"

// Atom is the sole mutable cell. swap! applies its function under the
// lock so concurrent updates serialize.
type Atom struct {
	mu    sync.RWMutex
	value Value
}

func (a *Atom) Type() ValueType { return ATOM_OBJ }
func (a *Atom) Inspect() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return "<atom:" + a.value.Inspect() + ">"
}

func (a *Atom) Deref() Value {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

func registerAtomBuiltins(e *Evaluator) {
	e.Global.Set("atom", &NativeFunc{Name: "atom", Fn: func(e *Evaluator, args []Value) Value {
		if len(args) != 1 {
			return newKindError(ErrArgCount, "atom takes exactly one initial value")
		}
		return &Atom{value: args[0]}
	}})

	e.Global.Set("deref", &NativeFunc{Name: "deref", Fn: func(e *Evaluator, args []Value) Value {
		if len(args) != 1 {
			return newKindError(ErrArgCount, "deref takes exactly one atom")
		}
		a, ok := args[0].(*Atom)
		if !ok {
			return newKindError(ErrType, "deref needs an atom, got %s", args[0].Type())
		}
		return a.Deref()
	}})

	e.Global.Set("reset!", &NativeFunc{Name: "reset!", Fn: func(e *Evaluator, args []Value) Value {
		if len(args) != 2 {
			return newKindError(ErrArgCount, "reset! takes an atom and a value")
		}
		a, ok := args[0].(*Atom)
		if !ok {
			return newKindError(ErrType, "reset! needs an atom, got %s", args[0].Type())
		}
		a.mu.Lock()
		a.value = args[1]
		a.mu.Unlock()
		return args[1]
	}})

	e.Global.Set("swap!", &NativeFunc{Name: "swap!", Fn: func(e *Evaluator, args []Value) Value {
		if len(args) < 2 {
			return newKindError(ErrArgCount, "swap! takes an atom, a function and optional extra arguments")
		}
		a, ok := args[0].(*Atom)
		if !ok {
			return newKindError(ErrType, "swap! needs an atom, got %s", args[0].Type())
		}
		fn := args[1]
		a.mu.Lock()
		defer a.mu.Unlock()
		callArgs := append([]Value{a.value}, args[2:]...)
		next := e.callValue(fn, callArgs, tokenless)
		if isError(next) {
			return next
		}
		a.value = next
		return next
	}})
}
