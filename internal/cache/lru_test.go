package cache

import (
	"sync"
	"testing"
)

func TestLRU_EvictsOldest(t *testing.T) {
	c := New(2)
	var evicted []any
	c.OnEvict(func(k, _ any) { evicted = append(evicted, k) })

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestLRU_UpdateAndRemove(t *testing.T) {
	c := New(3)
	var evictions int
	c.OnEvict(func(_, _ any) { evictions++ })

	c.Add("k", 1)
	c.Add("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Fatalf("Get = %v, want 2", v)
	}
	if evictions != 0 {
		t.Fatal("update must not fire the eviction hook")
	}
	if !c.Remove("k") || c.Remove("k") {
		t.Fatal("Remove should succeed exactly once")
	}
	if evictions != 1 {
		t.Fatalf("evictions = %d, want 1", evictions)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New(64)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Add(n*1000+j, j)
				c.Get(n*1000 + j/2)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 64 {
		t.Fatalf("Len = %d, want 64", c.Len())
	}
}

func TestNew_PanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(0)
}
