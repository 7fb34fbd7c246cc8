package evaluator

import (
	"hash/fnv"
	"math/bits"
)

// Persistent hash array mapped trie. Backs the Map value: every update
// returns a new map sharing unchanged subtrees with the original.

const (
	hamtBits = 5
	hamtSize = 1 << hamtBits
	hamtMask = hamtSize - 1
)

type PersistentMap struct {
	root  *hamtNode
	count int
}

type hamtNode struct {
	bitmap uint32
	// hamtEntry or *hamtNode, one per set bit; past the hash bits a
	// node degenerates into a collision bucket.
	slots []interface{}
}

type hamtEntry struct {
	hash  uint32
	key   Value
	value Value
}

func EmptyMap() *PersistentMap {
	return &PersistentMap{}
}

func (m *PersistentMap) Len() int { return m.count }

// Get returns the value for key, or nil (the Go nil, not the Qi nil)
// when absent. Callers must have validated key with ValidMapKey.
func (m *PersistentMap) Get(key Value) Value {
	if m.root == nil {
		return nil
	}
	return m.root.get(hashKey(key), key, 0)
}

func (m *PersistentMap) Contains(key Value) bool {
	return m.Get(key) != nil
}

func (m *PersistentMap) Put(key, value Value) *PersistentMap {
	h := hashKey(key)
	root := m.root
	if root == nil {
		root = &hamtNode{}
	}
	newRoot, added := root.put(h, key, value, 0)
	count := m.count
	if added {
		count++
	}
	return &PersistentMap{root: newRoot, count: count}
}

func (m *PersistentMap) Remove(key Value) *PersistentMap {
	if m.root == nil {
		return m
	}
	newRoot, removed := m.root.remove(hashKey(key), key, 0)
	if !removed {
		return m
	}
	return &PersistentMap{root: newRoot, count: m.count - 1}
}

func (m *PersistentMap) Merge(other *PersistentMap) *PersistentMap {
	result := m
	other.Each(func(k, v Value) {
		result = result.Put(k, v)
	})
	return result
}

// Each visits every entry. Iteration order is hash order, stable for a
// given set of keys within one process.
func (m *PersistentMap) Each(fn func(k, v Value)) {
	if m.root != nil {
		m.root.each(fn)
	}
}

func (m *PersistentMap) Keys() []Value {
	keys := make([]Value, 0, m.count)
	m.Each(func(k, _ Value) { keys = append(keys, k) })
	return keys
}

func (m *PersistentMap) Values() []Value {
	vals := make([]Value, 0, m.count)
	m.Each(func(_, v Value) { vals = append(vals, v) })
	return vals
}

// ValidMapKey reports whether a value may serve as a map key. Floats
// and reference-identity values are excluded.
func ValidMapKey(key Value) bool {
	switch key.Type() {
	case KEYWORD_OBJ, SYMBOL_OBJ, STRING_OBJ, INTEGER_OBJ, BOOL_OBJ:
		return true
	}
	return false
}

func hashKey(key Value) uint32 {
	h := fnv.New32a()
	switch k := key.(type) {
	case *Keyword:
		h.Write([]byte{'k'})
		h.Write([]byte(k.Name()))
	case *Symbol:
		h.Write([]byte{'s'})
		h.Write([]byte(k.Name()))
	case *String:
		h.Write([]byte{'"'})
		h.Write([]byte(k.Value))
	case *Integer:
		h.Write([]byte{'i'})
		v := uint64(k.Value)
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	case *Boolean:
		if k.Value {
			h.Write([]byte{'t'})
		} else {
			h.Write([]byte{'f'})
		}
	}
	return h.Sum32()
}

func keysEqual(a, b Value) bool {
	switch a := a.(type) {
	case *Keyword:
		b, ok := b.(*Keyword)
		return ok && a.Handle == b.Handle
	case *Symbol:
		b, ok := b.(*Symbol)
		return ok && a.Handle == b.Handle
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	case *Integer:
		b, ok := b.(*Integer)
		return ok && a.Value == b.Value
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	}
	return false
}

func (n *hamtNode) get(hash uint32, key Value, shift uint) Value {
	if shift >= 32 {
		for _, slot := range n.slots {
			if e, ok := slot.(hamtEntry); ok && keysEqual(e.key, key) {
				return e.value
			}
		}
		return nil
	}

	bit := uint32(1) << ((hash >> shift) & hamtMask)
	if n.bitmap&bit == 0 {
		return nil
	}
	pos := bits.OnesCount32(n.bitmap & (bit - 1))
	switch s := n.slots[pos].(type) {
	case hamtEntry:
		if s.hash == hash && keysEqual(s.key, key) {
			return s.value
		}
		return nil
	case *hamtNode:
		return s.get(hash, key, shift+hamtBits)
	}
	return nil
}

func (n *hamtNode) clone() *hamtNode {
	c := &hamtNode{bitmap: n.bitmap, slots: make([]interface{}, len(n.slots))}
	copy(c.slots, n.slots)
	return c
}

func (n *hamtNode) put(hash uint32, key, value Value, shift uint) (*hamtNode, bool) {
	if shift >= 32 {
		c := n.clone()
		for i, slot := range c.slots {
			if e, ok := slot.(hamtEntry); ok && keysEqual(e.key, key) {
				c.slots[i] = hamtEntry{hash: hash, key: key, value: value}
				return c, false
			}
		}
		c.slots = append(c.slots, hamtEntry{hash: hash, key: key, value: value})
		return c, true
	}

	bit := uint32(1) << ((hash >> shift) & hamtMask)
	c := n.clone()

	if n.bitmap&bit == 0 {
		c.bitmap |= bit
		pos := bits.OnesCount32(c.bitmap & (bit - 1))
		c.slots = append(c.slots, nil)
		copy(c.slots[pos+1:], c.slots[pos:])
		c.slots[pos] = hamtEntry{hash: hash, key: key, value: value}
		return c, true
	}

	pos := bits.OnesCount32(n.bitmap & (bit - 1))
	switch s := c.slots[pos].(type) {
	case hamtEntry:
		if s.hash == hash && keysEqual(s.key, key) {
			c.slots[pos] = hamtEntry{hash: hash, key: key, value: value}
			return c, false
		}
		// Two keys landed on the same slot: push both one level down.
		child := &hamtNode{}
		child, _ = child.put(s.hash, s.key, s.value, shift+hamtBits)
		child, _ = child.put(hash, key, value, shift+hamtBits)
		c.slots[pos] = child
		return c, true
	case *hamtNode:
		newChild, added := s.put(hash, key, value, shift+hamtBits)
		c.slots[pos] = newChild
		return c, added
	}
	return c, false
}

func (n *hamtNode) remove(hash uint32, key Value, shift uint) (*hamtNode, bool) {
	if shift >= 32 {
		for i, slot := range n.slots {
			if e, ok := slot.(hamtEntry); ok && keysEqual(e.key, key) {
				c := &hamtNode{bitmap: n.bitmap, slots: make([]interface{}, len(n.slots)-1)}
				copy(c.slots[:i], n.slots[:i])
				copy(c.slots[i:], n.slots[i+1:])
				return c, true
			}
		}
		return n, false
	}

	bit := uint32(1) << ((hash >> shift) & hamtMask)
	if n.bitmap&bit == 0 {
		return n, false
	}
	pos := bits.OnesCount32(n.bitmap & (bit - 1))

	switch s := n.slots[pos].(type) {
	case hamtEntry:
		if s.hash != hash || !keysEqual(s.key, key) {
			return n, false
		}
		c := &hamtNode{bitmap: n.bitmap &^ bit, slots: make([]interface{}, len(n.slots)-1)}
		copy(c.slots[:pos], n.slots[:pos])
		copy(c.slots[pos:], n.slots[pos+1:])
		return c, true
	case *hamtNode:
		newChild, removed := s.remove(hash, key, shift+hamtBits)
		if !removed {
			return n, false
		}
		if len(newChild.slots) == 0 {
			c := &hamtNode{bitmap: n.bitmap &^ bit, slots: make([]interface{}, len(n.slots)-1)}
			copy(c.slots[:pos], n.slots[:pos])
			copy(c.slots[pos:], n.slots[pos+1:])
			return c, true
		}
		// Collapse a single-entry child back into this level.
		if len(newChild.slots) == 1 {
			if e, ok := newChild.slots[0].(hamtEntry); ok {
				c := n.clone()
				c.slots[pos] = e
				return c, true
			}
		}
		c := n.clone()
		c.slots[pos] = newChild
		return c, true
	}
	return n, false
}

func (n *hamtNode) each(fn func(k, v Value)) {
	for _, slot := range n.slots {
		switch s := slot.(type) {
		case hamtEntry:
			fn(s.key, s.value)
		case *hamtNode:
			s.each(fn)
		}
	}
}
