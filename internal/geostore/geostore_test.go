package geostore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/store"
	"github.com/foss-geo/tileindex/internal/stringtable"
)

// sliceSource is a test ElementSource that replays a fixed element slice,
// ignoring the path argument.
type sliceSource struct {
	elements []*api.Element
}

func (s sliceSource) Parse(_ string, visit func(*api.Element) error) error {
	for _, e := range s.elements {
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

func newMemStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st, err := stringtable.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return store.NewMemoryStore(st)
}

func TestAddFromTileAndSearchTile(t *testing.T) {
	g := New(sliceSource{elements: []*api.Element{
		{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}},
		{Kind: api.KindNode, ID: 2, Coord: api.Coord{Lat: 2, Lon: 2}},
	}})
	s := newMemStore(t)
	require.NoError(t, g.RegisterStore("mem", s))

	tile := geo.QuadKey{Lod: 1, X: 1, Y: 0} // lat 0..85, lon 0..180: holds both nodes
	require.NoError(t, g.AddFromTile("mem", "ignored", tile, nil, api.NeverCancelled))

	assert.True(t, g.HasData(tile))
	var ids []uint64
	require.NoError(t, g.SearchTile(tile, func(e *api.Element) error {
		ids = append(ids, e.ID)
		return nil
	}, api.NeverCancelled))
	assert.Equal(t, []uint64{1, 2}, ids)
}

func TestAddFromTileDuplicateKeyIsConfigError(t *testing.T) {
	g := New(sliceSource{})
	require.NoError(t, g.RegisterStore("mem", newMemStore(t)))
	err := g.RegisterStore("mem", newMemStore(t))
	require.Error(t, err)
}

func TestAddFromTileUnknownKey(t *testing.T) {
	g := New(sliceSource{})
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	err := g.AddFromTile("nope", "ignored", tile, nil, api.NeverCancelled)
	require.Error(t, err)
}

// TestCancelMidIngestRollsBack covers testable property 7: a cancelled add
// leaves hasData false for every touched tile, with no partial state.
func TestCancelMidIngestRollsBack(t *testing.T) {
	token := api.NewCancellationToken()
	source := sliceSource{elements: []*api.Element{
		{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}},
		{Kind: api.KindNode, ID: 2, Coord: api.Coord{Lat: 2, Lon: 2}},
		{Kind: api.KindNode, ID: 3, Coord: api.Coord{Lat: 3, Lon: 3}},
	}}
	// cancel after the first element is visited, wrapping the source to
	// fire the token mid-stream.
	wrapped := wrapCancelAfter{inner: source, after: 1, token: token}

	g := New(wrapped)
	s := newMemStore(t)
	require.NoError(t, g.RegisterStore("mem", s))

	tile := geo.QuadKey{Lod: 1, X: 1, Y: 0} // holds the nodes, so the first one is saved before the cancel
	err := g.AddFromTile("mem", "ignored", tile, nil, token)
	require.NoError(t, err)

	assert.False(t, g.HasData(tile))
}

type wrapCancelAfter struct {
	inner ElementSource
	after int
	token api.CancellationToken
}

func (w wrapCancelAfter) Parse(path string, visit func(*api.Element) error) error {
	count := 0
	return w.inner.Parse(path, func(e *api.Element) error {
		count++
		if count > w.after {
			w.token.Cancel()
		}
		return visit(e)
	})
}

func TestSearchFansOutAcrossStores(t *testing.T) {
	g := New(sliceSource{})
	s1 := newMemStore(t)
	s2 := newMemStore(t)
	require.NoError(t, g.RegisterStore("a", s1))
	require.NoError(t, g.RegisterStore("b", s2))

	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	require.NoError(t, s1.Save(&api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}}, tile))
	require.NoError(t, s2.Save(&api.Element{Kind: api.KindNode, ID: 2, Coord: api.Coord{Lat: 1, Lon: 1}}, tile))

	var ids []uint64
	require.NoError(t, g.SearchTile(tile, func(e *api.Element) error {
		ids = append(ids, e.ID)
		return nil
	}, api.NeverCancelled))
	assert.ElementsMatch(t, []uint64{1, 2}, ids)
}

func TestSearchVisitorErrorPropagates(t *testing.T) {
	g := New(sliceSource{})
	s := newMemStore(t)
	require.NoError(t, g.RegisterStore("a", s))
	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	require.NoError(t, s.Save(&api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}}, tile))

	boom := errors.New("boom")
	err := g.SearchTile(tile, func(e *api.Element) error { return boom }, api.NeverCancelled)
	assert.ErrorIs(t, err, boom)
}
