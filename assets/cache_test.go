package assets

import (
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := newCache[int](10)
	c.set("key1", 42)

	val, ok := c.get("key1")
	if !ok || val != 42 {
		t.Errorf("get(key1) = %d, %v, want 42, true", val, ok)
	}
	if _, ok := c.get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}

	c.set("key1", 7)
	if val, _ := c.get("key1"); val != 7 {
		t.Errorf("updated value = %d, want 7", val)
	}
}

func TestCacheEviction(t *testing.T) {
	c := newCache[int](2)
	for i := 0; i < 200; i++ {
		c.set(strconv.Itoa(i), i)
	}
	st := c.stats()
	if st.Len > 2*shardCount {
		t.Errorf("Len = %d, exceeds capacity %d", st.Len, 2*shardCount)
	}
	if st.Evictions == 0 {
		t.Error("expected evictions")
	}
	if st.Evictions+uint64(st.Len) != 200 {
		t.Errorf("evictions %d + len %d != 200", st.Evictions, st.Len)
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := newCache[int](1)
	// With capacity 1 per shard, a key survives only until another key
	// lands in its shard.
	c.set("a", 1)
	if _, ok := c.get("a"); !ok {
		t.Fatal("a missing")
	}
	for i := 0; i < 100; i++ {
		c.set(strconv.Itoa(i), i)
	}
	if c.len() > shardCount {
		t.Errorf("len = %d, want <= %d", c.len(), shardCount)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := newCache[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := strconv.Itoa(i % 50)
				c.set(k, i)
				c.get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.len() != 50 {
		t.Errorf("len = %d, want 50", c.len())
	}
}

func TestCacheStatsHitRate(t *testing.T) {
	c := newCache[string](4)
	c.set("x", "y")
	c.get("x")
	c.get("x")
	c.get("z")
	c.get("w")

	st := c.stats()
	if st.Hits != 2 || st.Misses != 2 || st.HitRate != 0.5 {
		t.Errorf("stats = %+v, want 2 hits, 2 misses, rate 0.5", st)
	}
}
