package assets

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// shardCount must be a power of 2 for fast modulo via bitwise AND.
	shardCount = 16
	shardMask  = shardCount - 1

	// DefaultCacheCapacity is the default number of decoded images kept
	// per shard.
	DefaultCacheCapacity = 8
)

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}

// cache is a thread-safe, sharded LRU cache keyed by URL.
type cache[V any] struct {
	shards   [shardCount]*cacheShard[V]
	capacity int // per shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheShard[V any] struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recent
}

type cacheEntry[V any] struct {
	key   string
	value V
}

// newCache creates a cache holding up to capacity entries per shard.
// If capacity <= 0, DefaultCacheCapacity is used.
func newCache[V any](capacity int) *cache[V] {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &cache[V]{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &cacheShard[V]{
			entries: make(map[string]*list.Element),
			lru:     list.New(),
		}
	}
	return c
}

func (c *cache[V]) shard(key string) *cacheShard[V] {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key)) // fnv.Write never returns an error
	return c.shards[h.Sum64()&shardMask]
}

// get returns the cached value and marks it most recently used.
func (c *cache[V]) get(key string) (V, bool) {
	s := c.shard(key)
	s.mu.Lock()
	el, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.MoveToFront(el)
	v := el.Value.(*cacheEntry[V]).value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// set stores a value, evicting the least recently used entries of the
// shard when it is full.
func (c *cache[V]) set(key string, value V) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		el.Value.(*cacheEntry[V]).value = value
		s.lru.MoveToFront(el)
		return
	}
	for s.lru.Len() >= c.capacity {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*cacheEntry[V]).key)
		c.evictions.Add(1)
	}
	s.entries[key] = s.lru.PushFront(&cacheEntry[V]{key: key, value: value})
}

// purge removes all entries.
func (c *cache[V]) purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		clear(s.entries)
		s.lru.Init()
		s.mu.Unlock()
	}
}

func (c *cache[V]) len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

func (c *cache[V]) stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{
		Len:       c.len(),
		Capacity:  c.capacity * shardCount,
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Evictions: c.evictions.Load(),
	}
}
