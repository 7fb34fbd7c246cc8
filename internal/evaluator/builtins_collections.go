package evaluator

import "sort"

func registerCollectionBuiltins(e *Evaluator) {
	natives := []*NativeFunc{
		{Name: "list", Fn: biList},
		{Name: "vector", Fn: biVector},
		{Name: "hash-map", Fn: biHashMap},
		{Name: "conj", Fn: biConj},
		{Name: "cons", Fn: biCons},
		{Name: "first", Fn: biFirst},
		{Name: "rest", Fn: biRest},
		{Name: "last", Fn: biLast},
		{Name: "nth", Fn: biNth},
		{Name: "count", Fn: biCount},
		{Name: "empty?", Fn: biEmptyP},
		{Name: "get", Fn: biGet},
		{Name: "get-in", Fn: biGetIn},
		{Name: "assoc", Fn: biAssoc},
		{Name: "dissoc", Fn: biDissoc},
		{Name: "contains?", Fn: biContainsP},
		{Name: "keys", Fn: biKeys},
		{Name: "vals", Fn: biVals},
		{Name: "merge", Fn: biMerge},
		{Name: "range", Fn: biRange},
		{Name: "take", Fn: biTake},
		{Name: "drop", Fn: biDrop},
		{Name: "concat", Fn: biConcat},
		{Name: "reverse", Fn: biReverse},
		{Name: "into", Fn: biInto},
		{Name: "sort", Fn: biSort},
		{Name: "zip", Fn: biZip},
		{Name: "flatten", Fn: biFlatten},
		{Name: "repeat", Fn: biRepeat},
		{Name: "interpose", Fn: biInterpose},
		{Name: "frequencies", Fn: biFrequencies},
		{Name: "distinct", Fn: biDistinct},
	}
	for _, n := range natives {
		e.Global.Set(n.Name, n)
	}
}

func biList(e *Evaluator, args []Value) Value {
	return NewList(args...)
}

func biVector(e *Evaluator, args []Value) Value {
	return NewVector(args...)
}

func biHashMap(e *Evaluator, args []Value) Value {
	if len(args)%2 != 0 {
		return newKindError(ErrArgCount, "hash-map needs an even number of arguments")
	}
	m := EmptyMap()
	for i := 0; i < len(args); i += 2 {
		if !ValidMapKey(args[i]) {
			return newKindError(ErrInvalidMapKey, "%s cannot be a map key", args[i].Type())
		}
		m = m.Put(args[i], args[i+1])
	}
	return &Map{Entries: m}
}

// conj appends to a vector and prepends to a list, matching each
// collection's cheap end.
func biConj(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "conj needs a collection and at least one value")
	}
	switch coll := args[0].(type) {
	case *Vector:
		s := coll.Items
		for _, v := range args[1:] {
			s = s.PushBack(v)
		}
		return &Vector{Items: s}
	case *List:
		s := coll.Items
		for _, v := range args[1:] {
			s = s.PushFront(v)
		}
		return &List{Items: s}
	case *Map:
		m := coll.Entries
		for _, v := range args[1:] {
			pair, ok := v.(*Vector)
			if !ok || pair.Items.Len() != 2 {
				return newKindError(ErrType, "conj onto a map needs [key value] pairs")
			}
			k := pair.Items.Nth(0)
			if !ValidMapKey(k) {
				return newKindError(ErrInvalidMapKey, "%s cannot be a map key", k.Type())
			}
			m = m.Put(k, pair.Items.Nth(1))
		}
		return &Map{Entries: m}
	case *Nil:
		return NewList(args[1:]...)
	}
	return newKindError(ErrType, "conj needs a collection, got %s", args[0].Type())
}

func biCons(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "cons needs a value and a sequence")
	}
	items, ok := seqItems(args[1])
	if !ok {
		if args[1] == NIL {
			return NewList(args[0])
		}
		return newKindError(ErrType, "cons needs a sequence, got %s", args[1].Type())
	}
	return NewList(append([]Value{args[0]}, items...)...)
}

func biFirst(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "first needs exactly one argument")
	}
	switch coll := args[0].(type) {
	case *List:
		return coll.Items.First()
	case *Vector:
		return coll.Items.First()
	case *String:
		runes := []rune(coll.Value)
		if len(runes) == 0 {
			return NIL
		}
		return &String{Value: string(runes[0])}
	case *Nil:
		return NIL
	}
	return newKindError(ErrType, "first needs a sequence, got %s", args[0].Type())
}

func biRest(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "rest needs exactly one argument")
	}
	switch coll := args[0].(type) {
	case *List:
		if coll.Items.Len() == 0 {
			return coll
		}
		return &List{Items: coll.Items.PopFront()}
	case *Vector:
		if coll.Items.Len() == 0 {
			return coll
		}
		return &Vector{Items: coll.Items.PopFront()}
	case *String:
		runes := []rune(coll.Value)
		if len(runes) == 0 {
			return coll
		}
		return &String{Value: string(runes[1:])}
	case *Nil:
		return NewList()
	}
	return newKindError(ErrType, "rest needs a sequence, got %s", args[0].Type())
}

func biLast(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "last needs exactly one argument")
	}
	switch coll := args[0].(type) {
	case *List:
		return coll.Items.Last()
	case *Vector:
		return coll.Items.Last()
	case *String:
		runes := []rune(coll.Value)
		if len(runes) == 0 {
			return NIL
		}
		return &String{Value: string(runes[len(runes)-1])}
	case *Nil:
		return NIL
	}
	return newKindError(ErrType, "last needs a sequence, got %s", args[0].Type())
}

func biNth(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "nth needs a sequence and an index")
	}
	idx, ok := args[1].(*Integer)
	if !ok {
		return newKindError(ErrType, "nth needs an integer index, got %s", args[1].Type())
	}
	i := int(idx.Value)
	switch coll := args[0].(type) {
	case *List:
		if i < 0 || i >= coll.Items.Len() {
			return newKindError(ErrIndexOutOfRange, "index %d out of range for length %d", i, coll.Items.Len())
		}
		return coll.Items.Nth(i)
	case *Vector:
		if i < 0 || i >= coll.Items.Len() {
			return newKindError(ErrIndexOutOfRange, "index %d out of range for length %d", i, coll.Items.Len())
		}
		return coll.Items.Nth(i)
	case *String:
		runes := []rune(coll.Value)
		if i < 0 || i >= len(runes) {
			return newKindError(ErrIndexOutOfRange, "index %d out of range for length %d", i, len(runes))
		}
		return &String{Value: string(runes[i])}
	}
	return newKindError(ErrType, "nth needs a sequence, got %s", args[0].Type())
}

func biCount(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "count needs exactly one argument")
	}
	switch coll := args[0].(type) {
	case *List:
		return &Integer{Value: int64(coll.Items.Len())}
	case *Vector:
		return &Integer{Value: int64(coll.Items.Len())}
	case *Map:
		return &Integer{Value: int64(coll.Entries.Len())}
	case *String:
		return &Integer{Value: int64(len([]rune(coll.Value)))}
	case *Bytes:
		return &Integer{Value: int64(len(coll.Value))}
	case *Nil:
		return &Integer{Value: 0}
	}
	return newKindError(ErrType, "count needs a collection, got %s", args[0].Type())
}

func biEmptyP(e *Evaluator, args []Value) Value {
	n := biCount(e, args)
	if isError(n) {
		return n
	}
	return nativeBool(n.(*Integer).Value == 0)
}

func biGet(e *Evaluator, args []Value) Value {
	if len(args) < 2 || len(args) > 3 {
		return newKindError(ErrArgCount, "get needs a collection, a key and an optional default")
	}
	var missing Value = NIL
	if len(args) == 3 {
		missing = args[2]
	}
	switch coll := args[0].(type) {
	case *Map:
		if v := coll.Entries.Get(args[1]); v != nil {
			return v
		}
		return missing
	case *Vector:
		idx, ok := args[1].(*Integer)
		if !ok {
			return missing
		}
		i := int(idx.Value)
		if i < 0 || i >= coll.Items.Len() {
			return missing
		}
		return coll.Items.Nth(i)
	case *String:
		idx, ok := args[1].(*Integer)
		if !ok {
			return missing
		}
		runes := []rune(coll.Value)
		i := int(idx.Value)
		if i < 0 || i >= len(runes) {
			return missing
		}
		return &String{Value: string(runes[i])}
	case *Nil:
		return missing
	}
	return newKindError(ErrType, "get needs a map, vector or string, got %s", args[0].Type())
}

func biGetIn(e *Evaluator, args []Value) Value {
	if len(args) < 2 || len(args) > 3 {
		return newKindError(ErrArgCount, "get-in needs a collection, a key path and an optional default")
	}
	path, ok := seqItems(args[1])
	if !ok {
		return newKindError(ErrType, "get-in needs a sequence of keys, got %s", args[1].Type())
	}
	var missing Value = NIL
	if len(args) == 3 {
		missing = args[2]
	}
	cur := args[0]
	for _, key := range path {
		r := biGet(e, []Value{cur, key, missing})
		if isError(r) {
			return r
		}
		cur = r
	}
	return cur
}

func biAssoc(e *Evaluator, args []Value) Value {
	if len(args) < 3 {
		return newKindError(ErrArgCount, "assoc needs a collection and key/value pairs")
	}
	if (len(args)-1)%2 != 0 {
		return newKindError(ErrArgCount, "assoc needs an even number of key/value arguments")
	}
	switch coll := args[0].(type) {
	case *Map:
		m := coll.Entries
		for i := 1; i < len(args); i += 2 {
			if !ValidMapKey(args[i]) {
				return newKindError(ErrInvalidMapKey, "%s cannot be a map key", args[i].Type())
			}
			m = m.Put(args[i], args[i+1])
		}
		return &Map{Entries: m}
	case *Vector:
		s := coll.Items
		for i := 1; i < len(args); i += 2 {
			idx, ok := args[i].(*Integer)
			if !ok {
				return newKindError(ErrType, "assoc on a vector needs integer indices, got %s", args[i].Type())
			}
			j := int(idx.Value)
			switch {
			case j >= 0 && j < s.Len():
				s = s.Set(j, args[i+1])
			case j == s.Len():
				s = s.PushBack(args[i+1])
			default:
				return newKindError(ErrIndexOutOfRange, "index %d out of range for length %d", j, s.Len())
			}
		}
		return &Vector{Items: s}
	case *Nil:
		return biAssoc(e, append([]Value{&Map{Entries: EmptyMap()}}, args[1:]...))
	}
	return newKindError(ErrType, "assoc needs a map or vector, got %s", args[0].Type())
}

func biDissoc(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "dissoc needs a map and at least one key")
	}
	coll, ok := args[0].(*Map)
	if !ok {
		return newKindError(ErrType, "dissoc needs a map, got %s", args[0].Type())
	}
	m := coll.Entries
	for _, k := range args[1:] {
		m = m.Remove(k)
	}
	return &Map{Entries: m}
}

func biContainsP(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "contains? needs a collection and a key")
	}
	switch coll := args[0].(type) {
	case *Map:
		return nativeBool(coll.Entries.Contains(args[1]))
	case *Vector:
		idx, ok := args[1].(*Integer)
		return nativeBool(ok && idx.Value >= 0 && int(idx.Value) < coll.Items.Len())
	case *Nil:
		return FALSE
	}
	return newKindError(ErrType, "contains? needs a map or vector, got %s", args[0].Type())
}

func biKeys(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "keys needs exactly one map")
	}
	coll, ok := args[0].(*Map)
	if !ok {
		return newKindError(ErrType, "keys needs a map, got %s", args[0].Type())
	}
	return NewList(coll.Entries.Keys()...)
}

func biVals(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "vals needs exactly one map")
	}
	coll, ok := args[0].(*Map)
	if !ok {
		return newKindError(ErrType, "vals needs a map, got %s", args[0].Type())
	}
	return NewList(coll.Entries.Values()...)
}

func biMerge(e *Evaluator, args []Value) Value {
	m := EmptyMap()
	for _, arg := range args {
		if arg == NIL {
			continue
		}
		coll, ok := arg.(*Map)
		if !ok {
			return newKindError(ErrType, "merge needs maps, got %s", arg.Type())
		}
		m = m.Merge(coll.Entries)
	}
	return &Map{Entries: m}
}

func biRange(e *Evaluator, args []Value) Value {
	if len(args) < 1 || len(args) > 3 {
		return newKindError(ErrArgCount, "range needs one to three integer arguments")
	}
	nums := make([]int64, len(args))
	for i, arg := range args {
		n, ok := arg.(*Integer)
		if !ok {
			return newKindError(ErrType, "range needs integers, got %s", arg.Type())
		}
		nums[i] = n.Value
	}
	start, end, step := int64(0), int64(0), int64(1)
	switch len(nums) {
	case 1:
		end = nums[0]
	case 2:
		start, end = nums[0], nums[1]
	case 3:
		start, end, step = nums[0], nums[1], nums[2]
	}
	if step == 0 {
		return newKindError(ErrType, "range step cannot be zero")
	}
	var items []Value
	if step > 0 {
		for i := start; i < end; i += step {
			items = append(items, &Integer{Value: i})
		}
	} else {
		for i := start; i > end; i += step {
			items = append(items, &Integer{Value: i})
		}
	}
	return NewList(items...)
}

func biTake(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "take needs a count and a sequence")
	}
	n, items, src, err := countAndSeq("take", args)
	if err != nil {
		return err
	}
	if n > len(items) {
		n = len(items)
	}
	return rebuild(src, items[:n])
}

func biDrop(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "drop needs a count and a sequence")
	}
	n, items, src, err := countAndSeq("drop", args)
	if err != nil {
		return err
	}
	if n > len(items) {
		n = len(items)
	}
	return rebuild(src, items[n:])
}

// countAndSeq accepts the count in either position so both (take 2 xs)
// and the piped (take xs 2) work.
func countAndSeq(name string, args []Value) (int, []Value, Value, *Error) {
	a, b := args[0], args[1]
	if _, ok := b.(*Integer); ok {
		a, b = b, a
	}
	n, ok := a.(*Integer)
	if !ok {
		return 0, nil, nil, newKindError(ErrType, "%s needs an integer count, got %s", name, a.Type())
	}
	items, ok := seqItems(b)
	if !ok {
		return 0, nil, nil, newKindError(ErrType, "%s needs a sequence, got %s", name, b.Type())
	}
	c := int(n.Value)
	if c < 0 {
		c = 0
	}
	return c, items, b, nil
}

func biConcat(e *Evaluator, args []Value) Value {
	var out []Value
	for _, arg := range args {
		if arg == NIL {
			continue
		}
		items, ok := seqItems(arg)
		if !ok {
			return newKindError(ErrType, "concat needs sequences, got %s", arg.Type())
		}
		out = append(out, items...)
	}
	if len(args) > 0 {
		return rebuild(args[0], out)
	}
	return NewList()
}

func biReverse(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "reverse needs exactly one sequence")
	}
	items, ok := seqItems(args[0])
	if !ok {
		return newKindError(ErrType, "reverse needs a sequence, got %s", args[0].Type())
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return rebuild(args[0], out)
}

func biInto(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "into needs a target and a source")
	}
	items, err := e.iterable(args[1])
	if err != nil {
		return err
	}
	switch target := args[0].(type) {
	case *Vector:
		s := target.Items
		for _, v := range items {
			s = s.PushBack(v)
		}
		return &Vector{Items: s}
	case *List:
		s := target.Items
		for _, v := range items {
			s = s.PushFront(v)
		}
		return &List{Items: s}
	case *Map:
		m := target.Entries
		for _, v := range items {
			pair, ok := v.(*Vector)
			if !ok || pair.Items.Len() != 2 {
				return newKindError(ErrType, "into a map needs [key value] pairs")
			}
			k := pair.Items.Nth(0)
			if !ValidMapKey(k) {
				return newKindError(ErrInvalidMapKey, "%s cannot be a map key", k.Type())
			}
			m = m.Put(k, pair.Items.Nth(1))
		}
		return &Map{Entries: m}
	}
	return newKindError(ErrType, "into needs a collection target, got %s", args[0].Type())
}

func biSort(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "sort needs exactly one sequence")
	}
	items, ok := seqItems(args[0])
	if !ok {
		return newKindError(ErrType, "sort needs a sequence, got %s", args[0].Type())
	}
	out := append([]Value(nil), items...)
	var sortErr *Error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compareValues(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return sortErr
	}
	return rebuild(args[0], out)
}

func biZip(e *Evaluator, args []Value) Value {
	if len(args) < 2 {
		return newKindError(ErrArgCount, "zip needs at least two sequences")
	}
	seqs := make([][]Value, len(args))
	shortest := -1
	for i, arg := range args {
		items, ok := seqItems(arg)
		if !ok {
			return newKindError(ErrType, "zip needs sequences, got %s", arg.Type())
		}
		seqs[i] = items
		if shortest < 0 || len(items) < shortest {
			shortest = len(items)
		}
	}
	out := make([]Value, 0, shortest)
	for i := 0; i < shortest; i++ {
		row := make([]Value, len(seqs))
		for j, s := range seqs {
			row[j] = s[i]
		}
		out = append(out, NewVector(row...))
	}
	return NewList(out...)
}

func biFlatten(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "flatten needs exactly one sequence")
	}
	items, ok := seqItems(args[0])
	if !ok {
		return newKindError(ErrType, "flatten needs a sequence, got %s", args[0].Type())
	}
	var out []Value
	var walk func([]Value)
	walk = func(vs []Value) {
		for _, v := range vs {
			if nested, ok := seqItems(v); ok {
				walk(nested)
			} else {
				out = append(out, v)
			}
		}
	}
	walk(items)
	return rebuild(args[0], out)
}

func biRepeat(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "repeat needs a count and a value")
	}
	n, ok := args[0].(*Integer)
	if !ok {
		return newKindError(ErrType, "repeat needs an integer count, got %s", args[0].Type())
	}
	c := int(n.Value)
	if c < 0 {
		c = 0
	}
	out := make([]Value, c)
	for i := range out {
		out[i] = args[1]
	}
	return NewList(out...)
}

func biInterpose(e *Evaluator, args []Value) Value {
	if len(args) != 2 {
		return newKindError(ErrArgCount, "interpose needs a separator and a sequence")
	}
	sep, seqArg := args[0], args[1]
	if _, ok := seqItems(sep); ok {
		if _, isSeq := seqItems(seqArg); !isSeq {
			sep, seqArg = seqArg, sep
		}
	}
	items, ok := seqItems(seqArg)
	if !ok {
		return newKindError(ErrType, "interpose needs a sequence, got %s", seqArg.Type())
	}
	var out []Value
	for i, v := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, v)
	}
	return rebuild(seqArg, out)
}

func biFrequencies(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "frequencies needs exactly one sequence")
	}
	items, err := e.iterable(args[0])
	if err != nil {
		return err
	}
	m := EmptyMap()
	for _, v := range items {
		if !ValidMapKey(v) {
			return newKindError(ErrInvalidMapKey, "%s cannot be a map key", v.Type())
		}
		n := int64(0)
		if prev := m.Get(v); prev != nil {
			n = prev.(*Integer).Value
		}
		m = m.Put(v, &Integer{Value: n + 1})
	}
	return &Map{Entries: m}
}

func biDistinct(e *Evaluator, args []Value) Value {
	if len(args) != 1 {
		return newKindError(ErrArgCount, "distinct needs exactly one sequence")
	}
	items, ok := seqItems(args[0])
	if !ok {
		return newKindError(ErrType, "distinct needs a sequence, got %s", args[0].Type())
	}
	var out []Value
	for _, v := range items {
		dup := false
		for _, seen := range out {
			if valuesEqual(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return rebuild(args[0], out)
}
