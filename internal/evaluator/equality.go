package evaluator

// valuesEqual is structural for immutable values and identity for
// functions, macros, natives, atoms, channels, scopes and streams.
// Integer and Float never compare equal to each other; Float equality
// is exact bit equality, so NaN != NaN holds here too.
func valuesEqual(a, b Value) bool {
	switch a := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value
	case *Integer:
		bb, ok := b.(*Integer)
		return ok && a.Value == bb.Value
	case *Float:
		bb, ok := b.(*Float)
		return ok && a.Value == bb.Value
	case *String:
		bb, ok := b.(*String)
		return ok && a.Value == bb.Value
	case *Bytes:
		bb, ok := b.(*Bytes)
		if !ok || len(a.Value) != len(bb.Value) {
			return false
		}
		for i := range a.Value {
			if a.Value[i] != bb.Value[i] {
				return false
			}
		}
		return true
	case *Symbol:
		bb, ok := b.(*Symbol)
		return ok && a.Handle == bb.Handle
	case *Keyword:
		bb, ok := b.(*Keyword)
		return ok && a.Handle == bb.Handle
	case *List:
		bb, ok := b.(*List)
		return ok && seqsEqual(a.Items, bb.Items)
	case *Vector:
		bb, ok := b.(*Vector)
		return ok && seqsEqual(a.Items, bb.Items)
	case *Map:
		bb, ok := b.(*Map)
		return ok && mapsEqual(a.Entries, bb.Entries)
	case *Uvar:
		bb, ok := b.(*Uvar)
		return ok && a.ID == bb.ID
	default:
		return a == b
	}
}

func seqsEqual(a, b *Seq) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !valuesEqual(a.Nth(i), b.Nth(i)) {
			return false
		}
	}
	return true
}

func mapsEqual(a, b *PersistentMap) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Each(func(k, v Value) {
		if !equal {
			return
		}
		other := b.Get(k)
		if other == nil || !valuesEqual(v, other) {
			equal = false
		}
	})
	return equal
}
