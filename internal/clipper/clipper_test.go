package clipper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

var tileBBox = geo.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}

func TestClipNode(t *testing.T) {
	c := New(tileBBox)

	inside := &api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 5, Lon: 5}}
	assert.NotNil(t, c.Clip(inside))

	outside := &api.Element{Kind: api.KindNode, ID: 2, Coord: api.Coord{Lat: 50, Lon: 50}}
	assert.Nil(t, c.Clip(outside))
}

func TestClipWayAllInsideAllOutside(t *testing.T) {
	c := New(tileBBox)

	inside := &api.Element{Kind: api.KindWay, ID: 1, Coords: []api.Coord{
		{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 1},
	}}
	got := c.Clip(inside)
	require.NotNil(t, got)
	assert.Equal(t, inside.Coords, got.Coords)

	outside := &api.Element{Kind: api.KindWay, ID: 2, Coords: []api.Coord{
		{Lat: 50, Lon: 50}, {Lat: 51, Lon: 51},
	}}
	assert.Nil(t, c.Clip(outside))
}

func TestClipWayMixedSingleSegment(t *testing.T) {
	c := New(tileBBox)
	way := &api.Element{Kind: api.KindWay, ID: 7, Coords: []api.Coord{
		{Lat: 5, Lon: -5}, {Lat: 5, Lon: 5}, {Lat: 5, Lon: 15},
	}}
	got := c.Clip(way)
	require.NotNil(t, got)
	assert.Equal(t, api.KindWay, got.Kind)
	assert.Equal(t, uint64(7), got.ID)
	assert.NotEmpty(t, got.Coords)
}

func TestClipAreaEnclosingTileAllVerticesOutside(t *testing.T) {
	c := New(tileBBox)
	// A huge ring around the whole tile: every vertex is outside the tile
	// bbox, but the area fully covers it and must not be dropped.
	area := &api.Element{Kind: api.KindArea, ID: 9, Coords: []api.Coord{
		{Lat: -100, Lon: -100}, {Lat: -100, Lon: 100}, {Lat: 100, Lon: 100}, {Lat: 100, Lon: -100},
	}}
	got := c.Clip(area)
	require.NotNil(t, got)
	assert.Equal(t, api.KindArea, got.Kind)
}

func TestClipAreaDisjointAllVerticesOutside(t *testing.T) {
	c := New(tileBBox)
	area := &api.Element{Kind: api.KindArea, ID: 10, Coords: []api.Coord{
		{Lat: 50, Lon: 50}, {Lat: 51, Lon: 50}, {Lat: 51, Lon: 51},
	}}
	assert.Nil(t, c.Clip(area))
}

// TestClipAreaSplitIntoDisjointPiecesBecomesRelation covers S5: a single
// concave Area ("staple" shape, two legs joined only by a bridge that lies
// entirely below the tile) clips into two disjoint pieces inside the tile
// bound, which must surface as a Relation of Areas with id=0 members.
func TestClipAreaSplitIntoDisjointPiecesBecomesRelation(t *testing.T) {
	c := New(tileBBox)
	staple := &api.Element{Kind: api.KindArea, ID: 11, Tags: []api.Tag{{KeyID: 1, ValueID: 2}}, Coords: []api.Coord{
		{Lat: 12, Lon: 1},
		{Lat: 12, Lon: 2},
		{Lat: -5, Lon: 2},
		{Lat: -5, Lon: 8},
		{Lat: 12, Lon: 8},
		{Lat: 12, Lon: 9},
		{Lat: -8, Lon: 9},
		{Lat: -8, Lon: 1},
	}}

	got := c.Clip(staple)
	require.NotNil(t, got)
	assert.Equal(t, api.KindRelation, got.Kind)
	assert.Equal(t, uint64(11), got.ID)
	assert.Equal(t, staple.Tags, got.Tags)
	require.Len(t, got.Members, 2)
	for _, m := range got.Members {
		assert.Equal(t, api.KindArea, m.Kind)
		assert.Equal(t, uint64(0), m.ID)
		assert.Equal(t, staple.Tags, m.Tags)
		assert.NotEmpty(t, m.Coords)
	}
}

func TestClipRelationUnwrapSingleSurvivor(t *testing.T) {
	c := New(tileBBox)
	rel := &api.Element{Kind: api.KindRelation, ID: 42, Tags: []api.Tag{{KeyID: 1, ValueID: 2}}, Members: []*api.Element{
		{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 5, Lon: 5}},
		{Kind: api.KindNode, ID: 2, Coord: api.Coord{Lat: 50, Lon: 50}},
	}}
	got := c.Clip(rel)
	require.NotNil(t, got)
	assert.Equal(t, uint64(42), got.ID)
	assert.Equal(t, rel.Tags, got.Tags)
	assert.Equal(t, api.KindNode, got.Kind)
}

func TestClipRelationAllMembersDropped(t *testing.T) {
	c := New(tileBBox)
	rel := &api.Element{Kind: api.KindRelation, ID: 42, Members: []*api.Element{
		{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 50, Lon: 50}},
	}}
	assert.Nil(t, c.Clip(rel))
}
