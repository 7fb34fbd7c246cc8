package evaluator

import (
	"fmt"
	"testing"

	"github.com/sanohiro/qi-lang-sub000/internal/interner"
)

func TestMapPutGet(t *testing.T) {
	m := EmptyMap()
	for i := int64(0); i < 200; i++ {
		m = m.Put(&Integer{Value: i}, &String{Value: fmt.Sprintf("v%d", i)})
	}
	if m.Len() != 200 {
		t.Fatalf("len = %d, want 200", m.Len())
	}
	for i := int64(0); i < 200; i++ {
		got := m.Get(&Integer{Value: i})
		want := fmt.Sprintf("v%d", i)
		if s, ok := got.(*String); !ok || s.Value != want {
			t.Fatalf("get %d = %v, want %q", i, got, want)
		}
	}
	if m.Get(&Integer{Value: 999}) != nil {
		t.Fatal("missing key should yield nil")
	}
}

func TestMapPutReplacesExisting(t *testing.T) {
	k := &String{Value: "k"}
	m := EmptyMap().Put(k, &Integer{Value: 1}).Put(&String{Value: "k"}, &Integer{Value: 2})
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
	if m.Get(k).(*Integer).Value != 2 {
		t.Fatalf("get = %s", m.Get(k).Inspect())
	}
}

func TestMapKeysCompareByValue(t *testing.T) {
	// Two distinct String allocations with the same text are the same
	// key.
	m := EmptyMap().Put(&String{Value: "x"}, TRUE)
	if !m.Contains(&String{Value: "x"}) {
		t.Fatal("equal string keys should hit")
	}
	m = m.Put(&Integer{Value: 3}, TRUE)
	if m.Contains(&Float{Value: 3.0}) {
		t.Fatal("integer and float keys must stay distinct")
	}
}

func TestMapRemove(t *testing.T) {
	m := EmptyMap()
	for i := int64(0); i < 50; i++ {
		m = m.Put(&Integer{Value: i}, TRUE)
	}
	m2 := m.Remove(&Integer{Value: 25})
	if m2.Len() != 49 || m2.Contains(&Integer{Value: 25}) {
		t.Fatalf("remove failed: len=%d", m2.Len())
	}
	if m.Len() != 50 || !m.Contains(&Integer{Value: 25}) {
		t.Fatal("remove mutated the original")
	}
	if m2.Remove(&Integer{Value: 999}).Len() != 49 {
		t.Fatal("removing a missing key should be a no-op")
	}
}

func TestMapMerge(t *testing.T) {
	a := EmptyMap().
		Put(&String{Value: "a"}, &Integer{Value: 1}).
		Put(&String{Value: "b"}, &Integer{Value: 2})
	b := EmptyMap().
		Put(&String{Value: "b"}, &Integer{Value: 20}).
		Put(&String{Value: "c"}, &Integer{Value: 30})
	m := a.Merge(b)
	if m.Len() != 3 {
		t.Fatalf("len = %d, want 3", m.Len())
	}
	if m.Get(&String{Value: "b"}).(*Integer).Value != 20 {
		t.Fatal("right-hand value should win on merge")
	}
	if a.Len() != 2 || a.Get(&String{Value: "b"}).(*Integer).Value != 2 {
		t.Fatal("merge mutated the left operand")
	}
}

func TestMapEachVisitsEverything(t *testing.T) {
	m := EmptyMap()
	for i := int64(0); i < 100; i++ {
		m = m.Put(&Integer{Value: i}, &Integer{Value: i * 2})
	}
	seen := map[int64]int64{}
	m.Each(func(k, v Value) {
		seen[k.(*Integer).Value] = v.(*Integer).Value
	})
	if len(seen) != 100 {
		t.Fatalf("visited %d entries, want 100", len(seen))
	}
	for k, v := range seen {
		if v != k*2 {
			t.Fatalf("entry %d = %d", k, v)
		}
	}
}

func TestMapKeysAndValuesAgree(t *testing.T) {
	m := EmptyMap().
		Put(e2kw("a"), &Integer{Value: 1}).
		Put(e2kw("b"), &Integer{Value: 2})
	if len(m.Keys()) != 2 || len(m.Values()) != 2 {
		t.Fatalf("keys/values = %d/%d", len(m.Keys()), len(m.Values()))
	}
}

func TestValidMapKey(t *testing.T) {
	valid := []Value{
		&String{Value: "s"},
		&Integer{Value: 1},
		e2kw("k"),
		TRUE,
	}
	for _, k := range valid {
		if !ValidMapKey(k) {
			t.Errorf("%s should be a valid key", k.Inspect())
		}
	}
	invalid := []Value{
		NewVector(&Integer{Value: 1}),
		NewList(),
		&Float{Value: 1.5},
		NIL,
	}
	for _, k := range invalid {
		if ValidMapKey(k) {
			t.Errorf("%s should not be a valid key", k.Inspect())
		}
	}
}

var testKeywords = interner.NewPool()

// e2kw makes a keyword without spinning up an evaluator.
func e2kw(name string) *Keyword {
	return &Keyword{Handle: testKeywords.Intern(name)}
}
