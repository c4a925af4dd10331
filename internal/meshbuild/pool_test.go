package meshbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foss-geo/tileindex/api"
)

func meshWithVertexCap(capacity int) *api.Mesh {
	return &api.Mesh{Vertices: make([]float64, 0, capacity)}
}

func TestGetSmallAllocatesFreshWhenEmpty(t *testing.T) {
	p := NewPool()
	m := p.GetSmall("a")
	assert.Equal(t, "a", m.Name)
	assert.Equal(t, 0, m.Capacity())
}

func TestReleaseAndGetSmallReusesSmallestCapacity(t *testing.T) {
	p := NewPool()
	p.Release(meshWithVertexCap(100))
	p.Release(meshWithVertexCap(4))

	got := p.GetSmall("reused")
	assert.Equal(t, 4, got.Capacity())
	assert.Equal(t, "reused", got.Name)
}

func TestGetLargeRequiresCapacityAboveThreshold(t *testing.T) {
	p := NewPool()
	p.Release(meshWithVertexCap(ThresholdSize)) // not strictly above: doesn't qualify
	p.Release(meshWithVertexCap(ThresholdSize + 1))

	got := p.GetLarge("big")
	assert.Equal(t, ThresholdSize+1, got.Capacity())
}

func TestGetLargeAllocatesFreshWhenNoneQualify(t *testing.T) {
	p := NewPool()
	p.Release(meshWithVertexCap(10))
	got := p.GetLarge("fresh")
	assert.Equal(t, 0, got.Capacity())
}

func TestReleaseClearsBuffersButRetainsCapacity(t *testing.T) {
	p := NewPool()
	m := meshWithVertexCap(8)
	m.Name = "x"
	m.Vertices = append(m.Vertices, 1, 2, 3)
	m.Triangles = append(m.Triangles, 0, 1, 2)

	p.Release(m)
	assert.Equal(t, "", m.Name)
	assert.Equal(t, 0, len(m.Vertices))
	assert.GreaterOrEqual(t, cap(m.Vertices), 8)
	assert.Equal(t, 0, len(m.Triangles))
}
