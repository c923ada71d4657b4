package script

import (
	"crypto/sha256"
	"sync"
	"sync/atomic"
)

// DefaultCacheEntries is the LoadCache capacity used when none is given.
const DefaultCacheEntries = 128

// cacheEntry is a doubly-linked list node holding a loaded script.
type cacheEntry struct {
	key    [sha256.Size]byte
	script *Script
	prev   *cacheEntry
	next   *cacheEntry
}

// LoadCache memoizes Load by document content with LRU eviction, so a
// script submitted repeatedly is validated once. Only successful loads are
// kept. Cached scripts are shared: callers must not modify them. Safe for
// concurrent use.
type LoadCache struct {
	mu         sync.Mutex
	entries    map[[sha256.Size]byte]*cacheEntry
	head       *cacheEntry // Most recently used.
	tail       *cacheEntry // Least recently used.
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats holds cache performance counters.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewLoadCache creates a cache holding at most maxEntries scripts. A
// non-positive maxEntries uses DefaultCacheEntries.
func NewLoadCache(maxEntries int) *LoadCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}

	return &LoadCache{
		entries:    make(map[[sha256.Size]byte]*cacheEntry, maxEntries),
		maxEntries: maxEntries,
	}
}

// Load returns the cached script for data, or validates and parses it.
func (c *LoadCache) Load(data []byte) (*Script, error) {
	key := sha256.Sum256(data)

	c.mu.Lock()

	if ent, ok := c.entries[key]; ok {
		c.moveToFront(ent)
		c.mu.Unlock()
		c.hits.Add(1)

		return ent.script, nil
	}

	c.mu.Unlock()
	c.misses.Add(1)

	script, err := Load(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.moveToFront(ent)

		return ent.script, nil
	}

	for len(c.entries) >= c.maxEntries && c.tail != nil {
		c.evict(c.tail)
	}

	ent := &cacheEntry{key: key, script: script}
	c.entries[key] = ent
	c.pushFront(ent)

	return script, nil
}

// Stats returns current cache statistics.
func (c *LoadCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: len(c.entries),
	}
}

func (c *LoadCache) pushFront(ent *cacheEntry) {
	ent.prev = nil
	ent.next = c.head

	if c.head != nil {
		c.head.prev = ent
	}

	c.head = ent

	if c.tail == nil {
		c.tail = ent
	}
}

func (c *LoadCache) unlink(ent *cacheEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.head = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.tail = ent.prev
	}

	ent.prev, ent.next = nil, nil
}

func (c *LoadCache) moveToFront(ent *cacheEntry) {
	if c.head == ent {
		return
	}

	c.unlink(ent)
	c.pushFront(ent)
}

func (c *LoadCache) evict(ent *cacheEntry) {
	c.unlink(ent)
	delete(c.entries, ent.key)
}
