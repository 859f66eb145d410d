/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cache

import (
	"fmt"
	"time"

	"github.com/ausocean/utils/pool"
)

// ByteCache is a bounded, keyed store of field-sized byte buffers, the
// byte-storage counterpart to Cache[K,V] for holding raw field samples.
// Backing arrays come from a github.com/ausocean/utils/pool.Buffer ring
// rather than a fresh allocation per Put: each eviction closes its chunk,
// returning the backing array to the pool so a later Put can reuse it
// instead of growing the heap, the same way revid's MPEGTS/RTMP senders
// recycle pool.Buffer chunks across writes.
//
// A ByteCache must be the only reader of its pool.Buffer: Put drains the
// chunk it just wrote with an immediate Next, so the pool's FIFO streaming
// contract stays addressable from the outside as an ordinary keyed cache.
type ByteCache[K comparable] struct {
	inner   *Cache[K, *pool.Chunk]
	pool    *pool.Buffer
	timeout time.Duration
}

// NewByteCache builds a ByteCache holding at most capacity entries of up to
// elementSize bytes each, backed by a pool.Buffer of capacity chunks.
func NewByteCache[K comparable](capacity, elementSize int, timeout time.Duration) *ByteCache[K] {
	c := &ByteCache[K]{
		pool:    pool.NewBuffer(capacity, elementSize, timeout),
		timeout: timeout,
	}
	c.inner = New[K, *pool.Chunk](capacity, func(_ K, chunk *pool.Chunk) {
		if chunk != nil {
			chunk.Close()
		}
	})
	return c
}

// Put copies data into a pool-backed buffer and caches it under key,
// recycling the least-recently-used entry's backing array if the cache is
// at capacity.
func (c *ByteCache[K]) Put(key K, data []byte) error {
	if _, err := c.pool.Write(data); err != nil {
		return fmt.Errorf("cache: writing %d bytes to pool: %w", len(data), err)
	}
	c.pool.Flush()

	chunk, err := c.pool.Next(c.timeout)
	if err != nil {
		return fmt.Errorf("cache: draining written chunk: %w", err)
	}
	c.inner.Put(key, chunk)
	return nil
}

// Get returns the bytes cached under key and marks it most-recently-used.
func (c *ByteCache[K]) Get(key K) ([]byte, bool) {
	chunk, ok := c.inner.Get(key)
	if !ok {
		return nil, false
	}
	return chunk.Bytes(), true
}

// Len returns the number of entries currently cached.
func (c *ByteCache[K]) Len() int { return c.inner.Len() }
