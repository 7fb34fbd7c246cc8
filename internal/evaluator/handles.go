package evaluator

import (
	"sync"
	"sync/atomic"
)

// handleTable maps Uvar IDs to live external resources. Natives that
// hold host objects (database connections, prepared statements) park
// them here and hand the script an opaque Uvar.
type handleTable struct {
	mu      sync.RWMutex
	nextID  uint64
	entries map[uint64]interface{}
}

func newHandleTable() *handleTable {
	return &handleTable{entries: make(map[uint64]interface{})}
}

func (t *handleTable) put(resource interface{}) *Uvar {
	id := atomic.AddUint64(&t.nextID, 1)
	t.mu.Lock()
	t.entries[id] = resource
	t.mu.Unlock()
	return &Uvar{ID: id}
}

func (t *handleTable) get(u *Uvar) (interface{}, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.entries[u.ID]
	return r, ok
}

func (t *handleTable) drop(u *Uvar) (interface{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.entries[u.ID]
	if ok {
		delete(t.entries, u.ID)
	}
	return r, ok
}
