package evaluator

import (
	"sync"

	"github.com/sanohiro/qi-lang-sub000/internal/config"
)

type binding struct {
	value   Value
	private bool
}

// Environment is a lexical scope. Lookups walk the outer chain; the
// lock makes concurrent reads from spawned tasks safe.
type Environment struct {
	mu    sync.RWMutex
	store map[string]binding
	outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: make(map[string]binding), outer: outer}
}

func (e *Environment) Get(name string) (Value, bool) {
	e.mu.RLock()
	b, ok := e.store[name]
	e.mu.RUnlock()
	if ok {
		return b.value, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Has reports whether name is bound in this scope only.
func (e *Environment) Has(name string) bool {
	e.mu.RLock()
	_, ok := e.store[name]
	e.mu.RUnlock()
	return ok
}

func (e *Environment) Set(name string, val Value) Value {
	e.mu.Lock()
	prev := e.store[name]
	e.store[name] = binding{value: val, private: prev.private}
	e.mu.Unlock()
	return val
}

func (e *Environment) SetPrivate(name string, val Value) Value {
	e.mu.Lock()
	e.store[name] = binding{value: val, private: true}
	e.mu.Unlock()
	return val
}

// IsPrivate reports the visibility of a binding in this scope only.
func (e *Environment) IsPrivate(name string) bool {
	e.mu.RLock()
	b, ok := e.store[name]
	e.mu.RUnlock()
	return ok && b.private
}

// SetDoc stores a binding's doc string under a shadow key.
func (e *Environment) SetDoc(name, doc string) {
	e.SetPrivate(config.DocPrefix+name, &String{Value: doc})
}

func (e *Environment) GetDoc(name string) (string, bool) {
	v, ok := e.Get(config.DocPrefix + name)
	if !ok {
		return "", false
	}
	s, ok := v.(*String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Names returns the names bound in this scope, without docs keys.
// Used for export filtering and did-you-mean suggestions.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		if len(name) >= len(config.DocPrefix) && name[:len(config.DocPrefix)] == config.DocPrefix {
			continue
		}
		names = append(names, name)
	}
	return names
}

// AllNames walks the whole chain, innermost first.
func (e *Environment) AllNames() []string {
	var names []string
	for env := e; env != nil; env = env.outer {
		names = append(names, env.Names()...)
	}
	return names
}
