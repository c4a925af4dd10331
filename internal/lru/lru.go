// Package lru wraps hashicorp/golang-lru/v2 with the promote/peek/evict
// semantics the persistent ElementStore uses to bound its open file-handle
// count (spec.md §4.11): Get promotes an entry to most-recently-used, Peek
// does not, and an entry's eviction runs a caller-supplied close callback
// before the slot is reused.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/foss-geo/tileindex/internal/geo"
)

// DefaultCapacity is the default number of open QuadKeyData handles kept
// resident, per spec.md §4.11.
const DefaultCapacity = 12

// Cache bounds the number of resident values of type V keyed by QuadKey,
// evicting the least-recently-used entry via onEvict when capacity is
// exceeded.
type Cache[V any] struct {
	inner *lru.Cache[geo.QuadKey, V]
}

// New builds a Cache holding at most capacity entries. onEvict, if non-nil,
// runs synchronously whenever an entry is evicted (including via Purge),
// receiving the evicted key and value.
func New[V any](capacity int, onEvict func(geo.QuadKey, V)) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var evictCB func(geo.QuadKey, V)
	if onEvict != nil {
		evictCB = onEvict
	}
	inner, err := lru.NewWithEvict(capacity, evictCB)
	if err != nil {
		// Only returned for capacity <= 0, which we've already guarded.
		panic(err)
	}
	return &Cache[V]{inner: inner}
}

// Put inserts or updates the value for key, promoting it to most-recently-
// used. May trigger eviction of the current least-recently-used entry.
func (c *Cache[V]) Put(key geo.QuadKey, value V) {
	c.inner.Add(key, value)
}

// Get returns the value for key, promoting it to most-recently-used.
func (c *Cache[V]) Get(key geo.QuadKey) (V, bool) {
	return c.inner.Get(key)
}

// Peek returns the value for key without affecting recency.
func (c *Cache[V]) Peek(key geo.QuadKey) (V, bool) {
	return c.inner.Peek(key)
}

// Promote moves an already-resident key to most-recently-used without
// changing its value.
func (c *Cache[V]) Promote(key geo.QuadKey) {
	if v, ok := c.inner.Peek(key); ok {
		c.inner.Add(key, v)
	}
}

// Exists reports whether key is resident, without affecting recency.
func (c *Cache[V]) Exists(key geo.QuadKey) bool {
	return c.inner.Contains(key)
}

// Remove evicts key if present, running onEvict.
func (c *Cache[V]) Remove(key geo.QuadKey) {
	c.inner.Remove(key)
}

// Size returns the number of resident entries.
func (c *Cache[V]) Size() int {
	return c.inner.Len()
}

// Clear evicts every resident entry, running onEvict for each.
func (c *Cache[V]) Clear() {
	c.inner.Purge()
}
