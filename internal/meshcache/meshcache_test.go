package meshcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/buildctx"
	"github.com/foss-geo/tileindex/internal/geo"
)

func baseCtx(tile geo.QuadKey, cancel api.CancellationToken) buildctx.Context {
	return buildctx.Context{Tile: tile, StyleTag: "S", CancelToken: cancel}
}

// TestMeshCacheRoundTrip covers S6: wrap, emit Node/Way/Area/Mesh, unwrap,
// then fetch with a fresh context replays the same records in order.
func TestMeshCacheRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	c.SetEnabled(true)
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}

	var elementIDs []uint64
	ctx := baseCtx(tile, api.NeverCancelled).WithCallbacks(
		func(m *api.Mesh) {},
		func(e *api.Element) { elementIDs = append(elementIDs, e.ID) },
	)
	wrapped := c.Wrap(ctx)

	wrapped.ElementCallback(&api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}})
	wrapped.ElementCallback(&api.Element{Kind: api.KindWay, ID: 7, Coords: []api.Coord{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}})
	wrapped.ElementCallback(&api.Element{Kind: api.KindArea, ID: 7, Coords: []api.Coord{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}})
	wrapped.MeshCallback(&api.Mesh{Name: "M", Vertices: []float64{1, 2, 3}, Triangles: []int32{0, 1, 2}})

	c.Unwrap(wrapped)

	assert.Equal(t, []uint64{1, 7, 7}, elementIDs)

	var fetchedIDs []uint64
	var fetchedMesh *api.Mesh
	fresh := baseCtx(tile, api.NeverCancelled).WithCallbacks(
		func(m *api.Mesh) { fetchedMesh = m },
		func(e *api.Element) { fetchedIDs = append(fetchedIDs, e.ID) },
	)
	served, err := c.Fetch(fresh)
	require.NoError(t, err)
	assert.True(t, served)
	assert.Equal(t, []uint64{1, 7, 7}, fetchedIDs)
	require.NotNil(t, fetchedMesh)
	assert.Equal(t, "M", fetchedMesh.Name)
	assert.Equal(t, []int32{0, 1, 2}, fetchedMesh.Triangles)
}

// TestSingleWriterPerTile covers testable property 8.
func TestSingleWriterPerTile(t *testing.T) {
	c := New(t.TempDir())
	c.SetEnabled(true)
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}

	ctx1 := baseCtx(tile, api.NeverCancelled)
	wrapped1 := c.Wrap(ctx1)
	assert.NotNil(t, wrapped1.MeshCallback) // first caller becomes the writer (tee installed)

	ctx2 := baseCtx(tile, api.NeverCancelled)
	wrapped2 := c.Wrap(ctx2)
	assert.Equal(t, ctx2, wrapped2) // second caller sees "no cache": ctx unchanged

	c.Unwrap(wrapped1)
}

func TestDisabledCacheIsIdentity(t *testing.T) {
	c := New(t.TempDir()) // enabled defaults to false
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	ctx := baseCtx(tile, api.NeverCancelled)

	wrapped := c.Wrap(ctx)
	assert.Equal(t, ctx, wrapped)

	served, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.False(t, served)

	c.Unwrap(wrapped) // no-op, must not panic
}

func TestCancelledUnwrapDeletesPartialFile(t *testing.T) {
	c := New(t.TempDir())
	c.SetEnabled(true)
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	token := api.NewCancellationToken()

	ctx := baseCtx(tile, token)
	wrapped := c.Wrap(ctx)
	wrapped.ElementCallback(&api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}})
	token.Cancel()
	c.Unwrap(wrapped)

	served, err := c.Fetch(baseCtx(tile, api.NeverCancelled))
	require.NoError(t, err)
	assert.False(t, served) // file was deleted, nothing to serve
}
