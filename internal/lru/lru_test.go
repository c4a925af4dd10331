package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/internal/geo"
)

func qk(x uint32) geo.QuadKey { return geo.QuadKey{Lod: 4, X: x, Y: 0} }

func TestPutGetPeek(t *testing.T) {
	c := New[string](2, nil)
	c.Put(qk(1), "a")

	v, ok := c.Get(qk(1))
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = c.Peek(qk(1))
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.Peek(qk(99))
	assert.False(t, ok)
}

func TestEvictionClosesHandle(t *testing.T) {
	var evicted []geo.QuadKey
	c := New[string](2, func(k geo.QuadKey, v string) {
		evicted = append(evicted, k)
	})

	c.Put(qk(1), "a")
	c.Put(qk(2), "b")
	c.Put(qk(3), "c") // capacity 2: evicts least-recently-used, qk(1)

	assert.Equal(t, []geo.QuadKey{qk(1)}, evicted)
	assert.False(t, c.Exists(qk(1)))
	assert.True(t, c.Exists(qk(2)))
	assert.True(t, c.Exists(qk(3)))
}

func TestGetPromotesButPeekDoesNot(t *testing.T) {
	var evicted []geo.QuadKey
	c := New[string](2, func(k geo.QuadKey, v string) {
		evicted = append(evicted, k)
	})

	c.Put(qk(1), "a")
	c.Put(qk(2), "b")
	c.Peek(qk(1)) // must not promote
	c.Put(qk(3), "c")
	assert.Equal(t, []geo.QuadKey{qk(1)}, evicted)

	evicted = nil
	c2 := New[string](2, func(k geo.QuadKey, v string) {
		evicted = append(evicted, k)
	})
	c2.Put(qk(1), "a")
	c2.Put(qk(2), "b")
	c2.Get(qk(1)) // promotes qk(1)
	c2.Put(qk(3), "c")
	assert.Equal(t, []geo.QuadKey{qk(2)}, evicted)
}

func TestClearRunsEvictForEveryEntry(t *testing.T) {
	var evicted []geo.QuadKey
	c := New[string](4, func(k geo.QuadKey, v string) {
		evicted = append(evicted, k)
	})
	c.Put(qk(1), "a")
	c.Put(qk(2), "b")
	c.Clear()
	assert.ElementsMatch(t, []geo.QuadKey{qk(1), qk(2)}, evicted)
	assert.Equal(t, 0, c.Size())
}
