package evaluator

import (
	"sort"

	"github.com/sanohiro/qi-lang-sub000/internal/ast"
	"github.com/sanohiro/qi-lang-sub000/internal/token"
)

// The sequence combinators are special forms: they receive their
// arguments as code, which lets the evaluator run the loops without
// building an intermediate closure per element.

func init() {
	registerSpecialForm("map", hoMap)
	registerSpecialForm("filter", hoFilter)
	registerSpecialForm("reduce", hoReduce)
	registerSpecialForm("pmap", hoPmap)
	registerSpecialForm("each", hoEach)
	registerSpecialForm("find", hoFind)
	registerSpecialForm("every?", hoEvery)
	registerSpecialForm("some?", hoSome)
	registerSpecialForm("take-while", hoTakeWhile)
	registerSpecialForm("drop-while", hoDropWhile)
	registerSpecialForm("keep", hoKeep)
	registerSpecialForm("group-by", hoGroupBy)
	registerSpecialForm("sort-by", hoSortBy)
	registerSpecialForm("max-by", hoMaxBy)
	registerSpecialForm("min-by", hoMinBy)
	registerSpecialForm("count-by", hoCountBy)
	registerSpecialForm("partition-by", hoPartitionBy)
	registerSpecialForm("update-in", hoUpdateIn)
	registerSpecialForm("comp", hoComp)
	registerSpecialForm("branch", hoBranch)
	registerSpecialForm("tap", hoTap)
}

func (e *Evaluator) evalArgs(call *ast.CallExpr, env *Environment) ([]Value, Value) {
	args := make([]Value, 0, len(call.Args))
	for _, a := range call.Args {
		v := e.Eval(a, env)
		if isAbort(v) {
			return nil, v
		}
		args = append(args, v)
	}
	return args, nil
}

// iterable flattens any sequence-like value for the combinators. Maps
// iterate as [k v] vectors; streams are drained.
func (e *Evaluator) iterable(v Value) ([]Value, *Error) {
	switch v := v.(type) {
	case *List:
		return v.Items.ToSlice(), nil
	case *Vector:
		return v.Items.ToSlice(), nil
	case *Map:
		items := make([]Value, 0, v.Entries.Len())
		v.Entries.Each(func(k, val Value) {
			items = append(items, NewVector(k, val))
		})
		return items, nil
	case *String:
		runes := []rune(v.Value)
		items := make([]Value, 0, len(runes))
		for _, r := range runes {
			items = append(items, &String{Value: string(r)})
		}
		return items, nil
	case *Stream:
		var items []Value
		for {
			next := v.Next()
			if err, ok := next.(*Error); ok {
				return nil, err
			}
			if next.Type() == NIL_OBJ {
				return items, nil
			}
			items = append(items, next)
		}
	case *Nil:
		return nil, nil
	}
	return nil, newKindError(ErrType, "%s is not a sequence", v.Type())
}

// rebuild returns the mapped elements in the same genre as the input:
// vectors stay vectors, everything else becomes a list.
func rebuild(src Value, items []Value) Value {
	if _, ok := src.(*Vector); ok {
		return NewVector(items...)
	}
	return NewList(items...)
}

func callable(v Value) bool {
	switch v.(type) {
	case *Function, *NativeFunc, *Keyword:
		return true
	}
	return false
}

// seqForm accepts the function and the sequence in either order, so
// both (map f xs) and the pipe-produced (map xs f) work.
func (e *Evaluator) seqForm(name string, call *ast.CallExpr, env *Environment) (Value, Value, []Value, Value) {
	args, abort := e.evalArgs(call, env)
	if abort != nil {
		return nil, nil, nil, abort
	}
	if len(args) != 2 {
		return nil, nil, nil, newKindError(ErrArgCount, "%s takes a function and a sequence", name).withPos(call.Token)
	}
	fn, src := args[0], args[1]
	if !callable(fn) && callable(src) {
		fn, src = src, fn
	}
	items, err := e.iterable(src)
	if err != nil {
		return nil, nil, nil, err.withPos(call.Token)
	}
	return fn, src, items, nil
}

func hoMap(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("map", call, env)
	if abort != nil {
		return abort
	}
	out := make([]Value, 0, len(items))
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		out = append(out, v)
	}
	return rebuild(src, out)
}

func hoFilter(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("filter", call, env)
	if abort != nil {
		return abort
	}
	var out []Value
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if isTruthy(v) {
			out = append(out, item)
		}
	}
	return rebuild(src, out)
}

func hoReduce(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	args, abort := e.evalArgs(call, env)
	if abort != nil {
		return abort
	}
	if len(args) < 2 || len(args) > 3 {
		return newKindError(ErrArgCount, "reduce takes a function, an optional seed and a sequence").withPos(call.Token)
	}
	// The pipe form arrives as (reduce xs f init…); rotate it back.
	if !callable(args[0]) && callable(args[1]) {
		rotated := append(args[1:], args[0])
		args = rotated
	}
	fn := args[0]
	var acc Value
	var seqArg Value
	if len(args) == 3 {
		acc = args[1]
		seqArg = args[2]
	} else {
		seqArg = args[1]
	}
	items, err := e.iterable(seqArg)
	if err != nil {
		return err.withPos(call.Token)
	}
	start := 0
	if acc == nil {
		if len(items) == 0 {
			return NIL
		}
		acc = items[0]
		start = 1
	}
	for _, item := range items[start:] {
		acc = e.callValue(fn, []Value{acc, item}, call.Token)
		if isAbort(acc) {
			return acc
		}
	}
	return acc
}

func hoPmap(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("pmap", call, env)
	if abort != nil {
		return abort
	}
	result := e.pmapValues(fn, items)
	if isError(result) {
		return result
	}
	return rebuild(src, result.(*List).Items.ToSlice())
}

func hoEach(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("each", call, env)
	if abort != nil {
		return abort
	}
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
	}
	return NIL
}

func hoFind(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("find", call, env)
	if abort != nil {
		return abort
	}
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if isTruthy(v) {
			return item
		}
	}
	return NIL
}

func hoEvery(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("every?", call, env)
	if abort != nil {
		return abort
	}
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if !isTruthy(v) {
			return FALSE
		}
	}
	return TRUE
}

func hoSome(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("some?", call, env)
	if abort != nil {
		return abort
	}
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if isTruthy(v) {
			return TRUE
		}
	}
	return FALSE
}

func hoTakeWhile(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("take-while", call, env)
	if abort != nil {
		return abort
	}
	var out []Value
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if !isTruthy(v) {
			break
		}
		out = append(out, item)
	}
	return rebuild(src, out)
}

func hoDropWhile(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("drop-while", call, env)
	if abort != nil {
		return abort
	}
	dropping := true
	var out []Value
	for _, item := range items {
		if dropping {
			v := e.callValue(fn, []Value{item}, call.Token)
			if isAbort(v) {
				return v
			}
			if isTruthy(v) {
				continue
			}
			dropping = false
		}
		out = append(out, item)
	}
	return rebuild(src, out)
}

// hoKeep maps and drops nil results in one pass.
func hoKeep(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("keep", call, env)
	if abort != nil {
		return abort
	}
	var out []Value
	for _, item := range items {
		v := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(v) {
			return v
		}
		if v.Type() != NIL_OBJ {
			out = append(out, v)
		}
	}
	return rebuild(src, out)
}

func hoGroupBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("group-by", call, env)
	if abort != nil {
		return abort
	}
	m := EmptyMap()
	for _, item := range items {
		k := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(k) {
			return k
		}
		if !ValidMapKey(k) {
			return newKindError(ErrInvalidMapKey, "group-by key %s cannot be a map key", k.Type()).withPos(call.Token)
		}
		existing := m.Get(k)
		if existing == nil {
			m = m.Put(k, NewVector(item))
		} else {
			vec := existing.(*Vector)
			m = m.Put(k, &Vector{Items: vec.Items.PushBack(item)})
		}
	}
	return &Map{Entries: m}
}

func hoSortBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, src, items, abort := e.seqForm("sort-by", call, env)
	if abort != nil {
		return abort
	}
	type keyed struct {
		key  Value
		item Value
	}
	keys := make([]keyed, 0, len(items))
	for _, item := range items {
		k := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(k) {
			return k
		}
		keys = append(keys, keyed{key: k, item: item})
	}
	var sortErr *Error
	sort.SliceStable(keys, func(i, j int) bool {
		c, err := compareValues(keys[i].key, keys[j].key)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return sortErr.withPos(call.Token)
	}
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = k.item
	}
	return rebuild(src, out)
}

func hoMaxBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	return e.extremeBy("max-by", call, env, 1)
}

func hoMinBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	return e.extremeBy("min-by", call, env, -1)
}

func (e *Evaluator) extremeBy(name string, call *ast.CallExpr, env *Environment, direction int) Value {
	fn, _, items, abort := e.seqForm(name, call, env)
	if abort != nil {
		return abort
	}
	if len(items) == 0 {
		return NIL
	}
	best := items[0]
	bestKey := e.callValue(fn, []Value{best}, call.Token)
	if isAbort(bestKey) {
		return bestKey
	}
	for _, item := range items[1:] {
		k := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(k) {
			return k
		}
		c, err := compareValues(k, bestKey)
		if err != nil {
			return err.withPos(call.Token)
		}
		if c*direction > 0 {
			best = item
			bestKey = k
		}
	}
	return best
}

func hoCountBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("count-by", call, env)
	if abort != nil {
		return abort
	}
	m := EmptyMap()
	for _, item := range items {
		k := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(k) {
			return k
		}
		if !ValidMapKey(k) {
			return newKindError(ErrInvalidMapKey, "count-by key %s cannot be a map key", k.Type()).withPos(call.Token)
		}
		if existing := m.Get(k); existing != nil {
			m = m.Put(k, &Integer{Value: existing.(*Integer).Value + 1})
		} else {
			m = m.Put(k, &Integer{Value: 1})
		}
	}
	return &Map{Entries: m}
}

func hoPartitionBy(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fn, _, items, abort := e.seqForm("partition-by", call, env)
	if abort != nil {
		return abort
	}
	var out []Value
	var current []Value
	var lastKey Value
	for _, item := range items {
		k := e.callValue(fn, []Value{item}, call.Token)
		if isAbort(k) {
			return k
		}
		if lastKey != nil && !valuesEqual(k, lastKey) {
			out = append(out, NewVector(current...))
			current = nil
		}
		current = append(current, item)
		lastKey = k
	}
	if len(current) > 0 {
		out = append(out, NewVector(current...))
	}
	return NewList(out...)
}

// hoUpdateIn rewrites a nested map/vector path functionally.
func hoUpdateIn(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	args, abort := e.evalArgs(call, env)
	if abort != nil {
		return abort
	}
	if len(args) < 3 {
		return newKindError(ErrArgCount, "update-in takes a collection, a key path and a function").withPos(call.Token)
	}
	path, ok := seqItems(args[1])
	if !ok {
		return newKindError(ErrType, "update-in path must be a vector, got %s", args[1].Type()).withPos(call.Token)
	}
	result := e.updateIn(args[0], path, args[2], args[3:], call.Token)
	if err, ok := result.(*Error); ok {
		return err.withPos(call.Token)
	}
	return result
}

func (e *Evaluator) updateIn(coll Value, path []Value, fn Value, extra []Value, tok token.Token) Value {
	if len(path) == 0 {
		return e.callValue(fn, append([]Value{coll}, extra...), tok)
	}
	key := path[0]
	switch coll := coll.(type) {
	case *Map:
		if !ValidMapKey(key) {
			return newKindError(ErrInvalidMapKey, "%s cannot be a map key", key.Type())
		}
		child := coll.Entries.Get(key)
		if child == nil {
			child = NIL
		}
		updated := e.updateIn(child, path[1:], fn, extra, tok)
		if isAbort(updated) {
			return updated
		}
		return &Map{Entries: coll.Entries.Put(key, updated)}
	case *Vector:
		idx, ok := key.(*Integer)
		if !ok {
			return newKindError(ErrType, "vector index must be an integer, got %s", key.Type())
		}
		if idx.Value < 0 || int(idx.Value) >= coll.Items.Len() {
			return newKindError(ErrIndexOutOfRange, "index %d out of range", idx.Value)
		}
		updated := e.updateIn(coll.Items.Nth(int(idx.Value)), path[1:], fn, extra, tok)
		if isAbort(updated) {
			return updated
		}
		return &Vector{Items: coll.Items.Set(int(idx.Value), updated)}
	default:
		return newKindError(ErrType, "update-in cannot descend into %s", coll.Type())
	}
}

// hoComp builds the right-to-left composition as a synthesized
// function so the result is a first-class value.
func hoComp(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	fns, abort := e.evalArgs(call, env)
	if abort != nil {
		return abort
	}
	return &Function{
		Name: "comp",
		SpecialProcessing: func(e *Evaluator, args []Value) Value {
			if len(fns) == 0 {
				if len(args) == 1 {
					return args[0]
				}
				return NIL
			}
			result := e.callValue(fns[len(fns)-1], args, tokenless)
			if isAbort(result) {
				return result
			}
			for i := len(fns) - 2; i >= 0; i-- {
				result = e.callValue(fns[i], []Value{result}, tokenless)
				if isAbort(result) {
					return result
				}
			}
			return result
		},
	}
}

// hoBranch routes a value through one of two functions based on a
// predicate.
func hoBranch(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	args, abort := e.evalArgs(call, env)
	if abort != nil {
		return abort
	}
	if len(args) != 4 {
		return newKindError(ErrArgCount, "branch takes a value, a predicate and two functions").withPos(call.Token)
	}
	test := e.callValue(args[1], []Value{args[0]}, call.Token)
	if isAbort(test) {
		return test
	}
	if isTruthy(test) {
		return e.callValue(args[2], []Value{args[0]}, call.Token)
	}
	return e.callValue(args[3], []Value{args[0]}, call.Token)
}

// hoTap runs a function for effect and returns the original value, so
// it slots into pipe chains.
func hoTap(e *Evaluator, call *ast.CallExpr, env *Environment) Value {
	args, abort := e.evalArgs(call, env)
	if abort != nil {
		return abort
	}
	if len(args) != 2 {
		return newKindError(ErrArgCount, "tap takes a value and a function").withPos(call.Token)
	}
	v := e.callValue(args[1], []Value{args[0]}, call.Token)
	if isAbort(v) {
		return v
	}
	return args[0]
}
