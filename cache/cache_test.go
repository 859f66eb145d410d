package cache

import "testing"

func TestCacheBasic(t *testing.T) {
	c := New[int, string](2, nil)
	c.Put(1, "a")
	c.Put(2, "b")

	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q,%v want a,true", v, ok)
	}

	// 1 is now most-recently-used; inserting 3 should evict 2.
	c.Put(3, "c")
	if _, ok := c.Get(2); ok {
		t.Fatal("expected key 2 to be evicted")
	}
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("expected key 1 to survive eviction, got %q,%v", v, ok)
	}
	if v, ok := c.Get(3); !ok || v != "c" {
		t.Fatalf("Get(3) = %q,%v want c,true", v, ok)
	}
}

func TestCacheEvictCallback(t *testing.T) {
	var evicted []int
	c := New[int, int](1, func(k int, v int) { evicted = append(evicted, k) })
	c.Put(1, 10)
	c.Put(2, 20)
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("evicted = %v, want [1]", evicted)
	}
}

func TestCacheRemoveSkipsCallback(t *testing.T) {
	called := false
	c := New[int, int](2, func(k, v int) { called = true })
	c.Put(1, 1)
	c.Remove(1)
	if called {
		t.Fatal("Remove must not invoke onEvict")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestCacheUpdateExistingNoEviction(t *testing.T) {
	c := New[int, string](1, nil)
	c.Put(1, "a")
	c.Put(1, "b")
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if v, _ := c.Get(1); v != "b" {
		t.Fatalf("Get(1) = %q, want b", v)
	}
}
