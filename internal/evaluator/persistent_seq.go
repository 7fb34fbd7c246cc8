package evaluator

// Persistent sequence backing List and Vector. A bit-partitioned trie
// with a tail buffer gives O(log32 n) index, update and push/pop at
// the back; the deque below pairs two of them so both ends are cheap.

const (
	seqBits  = 5
	seqWidth = 1 << seqBits
	seqMask  = seqWidth - 1
)

type pvecNode struct {
	children []interface{} // *pvecNode or nothing below shift 0
	values   []Value       // leaf payload
}

type pvec struct {
	count int
	shift uint
	root  *pvecNode
	tail  []Value
}

var emptyPvec = &pvec{shift: seqBits}

func (v *pvec) len() int { return v.count }

func (v *pvec) tailOffset() int {
	if v.count < seqWidth {
		return 0
	}
	return ((v.count - 1) >> seqBits) << seqBits
}

func (v *pvec) leafFor(i int) []Value {
	if i >= v.tailOffset() {
		return v.tail
	}
	node := v.root
	for level := v.shift; level > 0; level -= seqBits {
		node = node.children[(i>>level)&seqMask].(*pvecNode)
	}
	return node.values
}

func (v *pvec) nth(i int) Value {
	return v.leafFor(i)[i&seqMask]
}

func (v *pvec) push(val Value) *pvec {
	if v.count-v.tailOffset() < seqWidth {
		newTail := make([]Value, len(v.tail)+1)
		copy(newTail, v.tail)
		newTail[len(v.tail)] = val
		return &pvec{count: v.count + 1, shift: v.shift, root: v.root, tail: newTail}
	}

	// Tail is full; move it into the trie.
	tailNode := &pvecNode{values: v.tail}
	newShift := v.shift
	var newRoot *pvecNode

	if (v.count >> seqBits) > (1 << v.shift) {
		newRoot = &pvecNode{children: []interface{}{v.root, newPath(v.shift, tailNode)}}
		newShift += seqBits
	} else {
		newRoot = v.pushTail(v.shift, v.root, tailNode)
	}
	return &pvec{count: v.count + 1, shift: newShift, root: newRoot, tail: []Value{val}}
}

func newPath(level uint, node *pvecNode) *pvecNode {
	if level == 0 {
		return node
	}
	return &pvecNode{children: []interface{}{newPath(level-seqBits, node)}}
}

func (v *pvec) pushTail(level uint, parent *pvecNode, tailNode *pvecNode) *pvecNode {
	idx := ((v.count - 1) >> level) & seqMask
	var ret *pvecNode
	if parent == nil {
		ret = &pvecNode{}
	} else {
		ret = &pvecNode{children: make([]interface{}, len(parent.children))}
		copy(ret.children, parent.children)
	}

	var insert interface{}
	if level == seqBits {
		insert = tailNode
	} else {
		var child *pvecNode
		if idx < len(ret.children) {
			child = ret.children[idx].(*pvecNode)
		}
		if child != nil {
			insert = v.pushTail(level-seqBits, child, tailNode)
		} else {
			insert = newPath(level-seqBits, tailNode)
		}
	}
	if idx < len(ret.children) {
		ret.children[idx] = insert
	} else {
		ret.children = append(ret.children, insert)
	}
	return ret
}

func (v *pvec) pop() *pvec {
	if v.count == 0 {
		return v
	}
	if v.count == 1 {
		return emptyPvec
	}
	if v.count-v.tailOffset() > 1 {
		newTail := make([]Value, len(v.tail)-1)
		copy(newTail, v.tail[:len(v.tail)-1])
		return &pvec{count: v.count - 1, shift: v.shift, root: v.root, tail: newTail}
	}

	newTail := v.leafFor(v.count - 2)
	newRoot := v.popTail(v.shift, v.root)
	newShift := v.shift
	if newRoot != nil && newShift > seqBits && len(newRoot.children) == 1 {
		newRoot = newRoot.children[0].(*pvecNode)
		newShift -= seqBits
	}
	return &pvec{count: v.count - 1, shift: newShift, root: newRoot, tail: newTail}
}

func (v *pvec) popTail(level uint, node *pvecNode) *pvecNode {
	idx := ((v.count - 2) >> level) & seqMask
	if level > seqBits {
		newChild := v.popTail(level-seqBits, node.children[idx].(*pvecNode))
		if newChild == nil && idx == 0 {
			return nil
		}
		ret := &pvecNode{children: make([]interface{}, len(node.children))}
		copy(ret.children, node.children)
		if newChild == nil {
			ret.children = ret.children[:idx]
		} else {
			ret.children[idx] = newChild
		}
		return ret
	}
	if idx == 0 {
		return nil
	}
	ret := &pvecNode{children: make([]interface{}, idx)}
	copy(ret.children, node.children[:idx])
	return ret
}

func (v *pvec) set(i int, val Value) *pvec {
	if i >= v.tailOffset() {
		newTail := make([]Value, len(v.tail))
		copy(newTail, v.tail)
		newTail[i&seqMask] = val
		return &pvec{count: v.count, shift: v.shift, root: v.root, tail: newTail}
	}
	return &pvec{count: v.count, shift: v.shift, root: setInNode(v.shift, v.root, i, val), tail: v.tail}
}

func setInNode(level uint, node *pvecNode, i int, val Value) *pvecNode {
	if level == 0 {
		ret := &pvecNode{values: make([]Value, len(node.values))}
		copy(ret.values, node.values)
		ret.values[i&seqMask] = val
		return ret
	}
	ret := &pvecNode{children: make([]interface{}, len(node.children))}
	copy(ret.children, node.children)
	idx := (i >> level) & seqMask
	ret.children[idx] = setInNode(level-seqBits, node.children[idx].(*pvecNode), i, val)
	return ret
}

func (v *pvec) each(fn func(Value)) {
	for i := 0; i < v.count; i += seqWidth {
		leaf := v.leafFor(i)
		for _, val := range leaf {
			fn(val)
		}
	}
}

// Seq is a persistent deque: a front trie stored in reverse order plus
// a back trie. Pushing or popping either end touches only one trie;
// when a pop empties a side the other side is split to rebalance.
type Seq struct {
	front *pvec // element 0 is front.nth(front.count-1)
	back  *pvec
}

var emptySeq = &Seq{front: emptyPvec, back: emptyPvec}

func EmptySeq() *Seq { return emptySeq }

func SeqFromSlice(items []Value) *Seq {
	back := emptyPvec
	for _, it := range items {
		back = back.push(it)
	}
	return &Seq{front: emptyPvec, back: back}
}

func (s *Seq) Len() int { return s.front.len() + s.back.len() }

func (s *Seq) Nth(i int) Value {
	if i < s.front.len() {
		return s.front.nth(s.front.len() - 1 - i)
	}
	return s.back.nth(i - s.front.len())
}

func (s *Seq) Set(i int, val Value) *Seq {
	if i < s.front.len() {
		return &Seq{front: s.front.set(s.front.len()-1-i, val), back: s.back}
	}
	return &Seq{front: s.front, back: s.back.set(i-s.front.len(), val)}
}

func (s *Seq) PushBack(val Value) *Seq {
	return &Seq{front: s.front, back: s.back.push(val)}
}

func (s *Seq) PushFront(val Value) *Seq {
	return &Seq{front: s.front.push(val), back: s.back}
}

func (s *Seq) PopBack() *Seq {
	if s.back.len() > 0 {
		return &Seq{front: s.front, back: s.back.pop()}
	}
	if s.front.len() == 0 {
		return s
	}
	return splitFront(s.front, s.front.len()-1)
}

func (s *Seq) PopFront() *Seq {
	if s.front.len() > 0 {
		return &Seq{front: s.front.pop(), back: s.back}
	}
	if s.back.len() == 0 {
		return s
	}
	return splitBack(s.back, 1)
}

// splitFront rebuilds a deque from a front-only trie minus its last
// logical element (the back of the deque).
func splitFront(front *pvec, keep int) *Seq {
	items := make([]Value, 0, front.len())
	front.each(func(v Value) { items = append(items, v) })
	// items is reversed deque order; drop the first stored item (deque back).
	ordered := make([]Value, 0, keep)
	for i := len(items) - 1; i >= len(items)-keep; i-- {
		ordered = append(ordered, items[i])
	}
	return SeqFromSlice(ordered)
}

func splitBack(back *pvec, drop int) *Seq {
	items := make([]Value, 0, back.len())
	back.each(func(v Value) { items = append(items, v) })
	return SeqFromSlice(items[drop:])
}

func (s *Seq) Each(fn func(Value)) {
	for i := s.front.len() - 1; i >= 0; i-- {
		fn(s.front.nth(i))
	}
	s.back.each(fn)
}

func (s *Seq) ToSlice() []Value {
	out := make([]Value, 0, s.Len())
	s.Each(func(v Value) { out = append(out, v) })
	return out
}

func (s *Seq) First() Value {
	if s.Len() == 0 {
		return nil
	}
	return s.Nth(0)
}

func (s *Seq) Last() Value {
	if s.Len() == 0 {
		return nil
	}
	return s.Nth(s.Len() - 1)
}
