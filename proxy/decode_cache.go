package proxy

import (
	"bytes"
	"hash/fnv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// decodeShards must be a power of 2 for shard selection by mask.
	decodeShards = 16

	// DecodeCacheCapacity is the number of generators kept per shard.
	DecodeCacheCapacity = 16
)

type decodeKey struct {
	hash uint64
	size int
}

// DecodeCache shares EncodedGenerators between identical encoded images so
// each distinct image is decoded once. It is sharded to keep recording
// goroutines from contending on one lock.
//
// DecodeCache is safe for concurrent use.
type DecodeCache struct {
	shards [decodeShards]*lru.Cache[decodeKey, *EncodedGenerator]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// DecodeCacheStats reports DecodeCache activity.
type DecodeCacheStats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewDecodeCache creates a cache holding up to capacity generators per
// shard. A capacity <= 0 selects DecodeCacheCapacity.
func NewDecodeCache(capacity int) *DecodeCache {
	if capacity <= 0 {
		capacity = DecodeCacheCapacity
	}
	c := &DecodeCache{}
	for i := range c.shards {
		// NewWithEvict only fails for a non-positive size.
		c.shards[i], _ = lru.NewWithEvict(capacity, func(decodeKey, *EncodedGenerator) {
			c.evictions.Add(1)
		})
	}
	return c
}

// Generator returns the shared generator for data, creating and caching
// one on a miss. A hash collision with different bytes yields an uncached
// generator.
func (c *DecodeCache) Generator(data []byte) (*EncodedGenerator, error) {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	key := decodeKey{hash: h.Sum64(), size: len(data)}
	shard := c.shards[key.hash&(decodeShards-1)]

	if g, ok := shard.Get(key); ok {
		if bytes.Equal(g.data, data) {
			c.hits.Add(1)
			return g, nil
		}
		c.misses.Add(1)
		return NewEncodedGenerator(data)
	}
	c.misses.Add(1)

	g, err := NewEncodedGenerator(data)
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := shard.PeekOrAdd(key, g); ok && bytes.Equal(prev.data, data) {
		return prev, nil
	}
	return g, nil
}

// Len returns the number of cached generators.
func (c *DecodeCache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// Purge drops every cached generator.
func (c *DecodeCache) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// Stats returns current statistics.
func (c *DecodeCache) Stats() DecodeCacheStats {
	return DecodeCacheStats{
		Len:       c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
