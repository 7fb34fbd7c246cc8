package interner

import "sync"

// Handle is a shared immutable handle for an interned identifier. Two
// handles obtained from the same pool for the same text are the same
// pointer, so comparison is pointer equality.
type Handle struct {
	text string
}

func (h *Handle) Text() string { return h.text }

// Pool deduplicates identifier text into shared handles. Symbols and
// keywords use two distinct pools.
type Pool struct {
	mu    sync.RWMutex
	table map[string]*Handle
}

func NewPool() *Pool {
	return &Pool{table: make(map[string]*Handle)}
}

// Intern returns the shared handle for text, creating it on first use.
func (p *Pool) Intern(text string) *Handle {
	p.mu.RLock()
	h, ok := p.table[text]
	p.mu.RUnlock()
	if ok {
		return h
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.table[text]; ok {
		return h
	}
	h = &Handle{text: text}
	p.table[text] = h
	return h
}

// Lookup returns the handle for text without creating one.
func (p *Pool) Lookup(text string) (*Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.table[text]
	return h, ok
}

// Len returns the number of interned identifiers.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.table)
}
