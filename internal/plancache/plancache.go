// Package plancache caches a normalized operation's planning result, keyed
// by a hash of its canonical string form: the only process-wide mutable
// state this router carries, everything else being request-local or
// atomically swapped per supergraph version.
package plancache

import (
	"hash/maphash"
	"sync"
)

// Key is a normalized (and, where applicable, authorization-filtered)
// operation's cache key: its canonicalized text, already sorted and
// deduplicated by internal/normalize, so that two requests differing only
// in field order or whitespace hash identically.
type Key string

// entry pairs a cached value with its raw key, so eviction can find and
// remove it from the map by its original string key without re-hashing.
type entry[V any] struct {
	key   Key
	value V
}

// Cache is a bounded, generic operation cache. Reads are lock-free;
// inserts take a short-lived mutex only to keep the eviction ring and the
// map in sync. Eviction is size-based FIFO: the pack carries no LRU
// library for this domain, and FIFO is the simplest correct policy that
// needs none. V is typically a router-level planning result (the
// serialized plan plus any authorization errors baked into it), not bare
// planserialize.Plan, since both are a deterministic function of the same
// cache key.
type Cache[V any] struct {
	seed    maphash.Seed
	entries sync.Map // uint64 -> *entry[V]

	mu       sync.Mutex
	order    []uint64
	maxItems int
}

// New returns an empty cache that holds at most maxItems entries. A
// non-positive maxItems disables eviction (unbounded growth); callers
// should always pass a positive size in production.
func New[V any](maxItems int) *Cache[V] {
	return &Cache[V]{seed: maphash.MakeSeed(), maxItems: maxItems}
}

// Hash returns key's cache hash. Exposed so callers (the router pipeline,
// metrics) can report cache keys without re-deriving the hash themselves.
func (c *Cache[V]) Hash(key Key) uint64 {
	var h maphash.Hash
	h.SetSeed(c.seed)
	h.WriteString(string(key))
	return h.Sum64()
}

// Get returns the cached value for key, if present.
func (c *Cache[V]) Get(key Key) (V, bool) {
	var zero V
	v, ok := c.entries.Load(c.Hash(key))
	if !ok {
		recordCacheLookup(false)
		return zero, false
	}
	e := v.(*entry[V])
	if e.key != key {
		// Hash collision between two distinct keys: treat as a miss rather
		// than returning the wrong value.
		recordCacheLookup(false)
		return zero, false
	}
	recordCacheLookup(true)
	return e.value, true
}

// Put inserts value under key, evicting the oldest entry first if the
// cache is at capacity.
func (c *Cache[V]) Put(key Key, value V) {
	h := c.Hash(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries.Load(h); !exists {
		c.order = append(c.order, h)
	}
	c.entries.Store(h, &entry[V]{key: key, value: value})

	if c.maxItems <= 0 {
		return
	}
	for len(c.order) > c.maxItems {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.entries.Delete(oldest)
	}
}

// Len reports the number of entries currently tracked for eviction. It
// takes the insertion lock, so it is for diagnostics/tests, not hot-path
// use.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
