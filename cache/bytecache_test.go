package cache

import (
	"testing"
	"time"
)

func TestByteCachePutAndGet(t *testing.T) {
	c := NewByteCache[int](2, 64, time.Second)

	if err := c.Put(1, []byte("field-one")); err != nil {
		t.Fatalf("Put(1): %v", err)
	}
	if err := c.Put(2, []byte("field-two")); err != nil {
		t.Fatalf("Put(2): %v", err)
	}

	got, ok := c.Get(1)
	if !ok || string(got) != "field-one" {
		t.Fatalf("Get(1) = %q,%v want field-one,true", got, ok)
	}
}

func TestByteCacheEvictionRecyclesChunk(t *testing.T) {
	c := NewByteCache[int](1, 64, time.Second)

	if err := c.Put(1, []byte("first")); err != nil {
		t.Fatalf("Put(1): %v", err)
	}
	// Over capacity: evicts key 1, closing (recycling) its chunk.
	if err := c.Put(2, []byte("second")); err != nil {
		t.Fatalf("Put(2): %v", err)
	}

	if _, ok := c.Get(1); ok {
		t.Fatal("expected key 1 to be evicted")
	}
	got, ok := c.Get(2)
	if !ok || string(got) != "second" {
		t.Fatalf("Get(2) = %q,%v want second,true", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}
