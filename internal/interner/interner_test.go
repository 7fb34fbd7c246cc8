package interner

import (
	"sync"
	"testing"
)

func TestInternReturnsSameHandle(t *testing.T) {
	p := NewPool()
	a := p.Intern("foo")
	b := p.Intern("foo")
	if a != b {
		t.Fatal("interning the same text twice must return one handle")
	}
	if a.Text() != "foo" {
		t.Fatalf("text = %q", a.Text())
	}
}

func TestDistinctTextsDistinctHandles(t *testing.T) {
	p := NewPool()
	if p.Intern("foo") == p.Intern("bar") {
		t.Fatal("different texts must not share a handle")
	}
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func TestLookup(t *testing.T) {
	p := NewPool()
	if _, ok := p.Lookup("missing"); ok {
		t.Fatal("lookup before intern should miss")
	}
	h := p.Intern("present")
	got, ok := p.Lookup("present")
	if !ok || got != h {
		t.Fatal("lookup should return the interned handle")
	}
}

func TestPoolsAreIndependent(t *testing.T) {
	a := NewPool()
	b := NewPool()
	if a.Intern("x") == b.Intern("x") {
		t.Fatal("separate pools must not share handles")
	}
}

func TestConcurrentIntern(t *testing.T) {
	p := NewPool()
	const workers = 8
	handles := make([]*Handle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				handles[i] = p.Intern("shared")
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if handles[i] != handles[0] {
			t.Fatal("concurrent interns of one text must converge on one handle")
		}
	}
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}
}
