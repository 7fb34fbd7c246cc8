package evaluator

import (
	"fmt"
	"testing"
)

func intSeq(n int) *Seq {
	items := make([]Value, n)
	for i := range items {
		items[i] = &Integer{Value: int64(i)}
	}
	return SeqFromSlice(items)
}

func checkSeq(t *testing.T, s *Seq, want []int64) {
	t.Helper()
	if s.Len() != len(want) {
		t.Fatalf("len = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		got, ok := s.Nth(i).(*Integer)
		if !ok || got.Value != w {
			t.Fatalf("nth(%d) = %s, want %d", i, s.Nth(i).Inspect(), w)
		}
	}
}

func TestSeqPushBack(t *testing.T) {
	s := EmptySeq()
	for i := int64(0); i < 100; i++ {
		s = s.PushBack(&Integer{Value: i})
	}
	if s.Len() != 100 {
		t.Fatalf("len = %d, want 100", s.Len())
	}
	for i := 0; i < 100; i++ {
		if s.Nth(i).(*Integer).Value != int64(i) {
			t.Fatalf("nth(%d) = %s", i, s.Nth(i).Inspect())
		}
	}
}

func TestSeqPushFront(t *testing.T) {
	s := EmptySeq()
	for i := int64(2); i >= 0; i-- {
		s = s.PushFront(&Integer{Value: i})
	}
	checkSeq(t, s, []int64{0, 1, 2})
}

func TestSeqPopBothEnds(t *testing.T) {
	s := intSeq(5)
	checkSeq(t, s.PopFront(), []int64{1, 2, 3, 4})
	checkSeq(t, s.PopBack(), []int64{0, 1, 2, 3})
	// The original is untouched.
	checkSeq(t, s, []int64{0, 1, 2, 3, 4})
}

func TestSeqPopFrontDrainsIntoBack(t *testing.T) {
	// Popping the front past the front vector must keep serving from
	// the back one.
	s := intSeq(40)
	for i := 0; i < 39; i++ {
		s = s.PopFront()
	}
	checkSeq(t, s, []int64{39})
	if s.PopFront().Len() != 0 {
		t.Fatal("draining the last element should leave an empty seq")
	}
}

func TestSeqPopBackDrainsIntoFront(t *testing.T) {
	s := EmptySeq()
	for i := int64(4); i >= 0; i-- {
		s = s.PushFront(&Integer{Value: i})
	}
	for i := 0; i < 4; i++ {
		s = s.PopBack()
	}
	checkSeq(t, s, []int64{0})
}

func TestSeqSet(t *testing.T) {
	s := intSeq(64)
	s2 := s.Set(40, &Integer{Value: -1})
	if s2.Nth(40).(*Integer).Value != -1 {
		t.Fatalf("set did not stick: %s", s2.Nth(40).Inspect())
	}
	if s.Nth(40).(*Integer).Value != 40 {
		t.Fatalf("set mutated the original: %s", s.Nth(40).Inspect())
	}
}

func TestSeqPersistence(t *testing.T) {
	s := intSeq(1000)
	s2 := s.PushBack(&Integer{Value: 1000})
	if s.Len() != 1000 || s2.Len() != 1001 {
		t.Fatalf("lens = %d/%d", s.Len(), s2.Len())
	}
	if s2.Last().(*Integer).Value != 1000 {
		t.Fatalf("last = %s", s2.Last().Inspect())
	}
	for i := 0; i < 1000; i += 97 {
		if s.Nth(i) != s2.Nth(i) {
			t.Fatalf("element at %d differs between versions", i)
		}
	}
}

func TestSeqEachOrder(t *testing.T) {
	s := EmptySeq().PushFront(&Integer{Value: 1}).PushBack(&Integer{Value: 2}).PushFront(&Integer{Value: 0})
	var got []string
	s.Each(func(v Value) { got = append(got, v.Inspect()) })
	want := fmt.Sprint([]string{"0", "1", "2"})
	if fmt.Sprint(got) != want {
		t.Fatalf("each visited %v, want %v", got, want)
	}
}

func TestSeqFirstLast(t *testing.T) {
	s := intSeq(3)
	if s.First().(*Integer).Value != 0 || s.Last().(*Integer).Value != 2 {
		t.Fatalf("first/last = %s/%s", s.First().Inspect(), s.Last().Inspect())
	}
	if EmptySeq().First() != nil || EmptySeq().Last() != nil {
		t.Fatal("first/last of empty seq should be nil")
	}
}

func TestSeqToSliceRoundTrip(t *testing.T) {
	s := intSeq(33)
	out := s.ToSlice()
	if len(out) != 33 {
		t.Fatalf("len = %d", len(out))
	}
	checkSeq(t, SeqFromSlice(out), []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32})
}

func TestSeqDeepTree(t *testing.T) {
	// Enough elements to force a second level in the tree.
	const n = 40_000
	s := EmptySeq()
	for i := int64(0); i < n; i++ {
		s = s.PushBack(&Integer{Value: i})
	}
	for _, i := range []int{0, 31, 32, 1023, 1024, n - 1} {
		if s.Nth(i).(*Integer).Value != int64(i) {
			t.Fatalf("nth(%d) = %s", i, s.Nth(i).Inspect())
		}
	}
	for i := int64(0); i < n/2; i++ {
		s = s.PopBack()
	}
	if s.Len() != n/2 || s.Last().(*Integer).Value != n/2-1 {
		t.Fatalf("after pops len=%d last=%s", s.Len(), s.Last().Inspect())
	}
}
