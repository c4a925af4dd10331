// Package clipper intersects element geometry against a tile's bounding box
// (spec.md §4.1). Coordinates are scaled to fixed-point integers before
// clipping and descaled on the way out, matching the wire codecs' own
// 1e7 convention so results round-trip cleanly through internal/wire.
package clipper

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

// location classifies a vertex set against a clip bound.
type location int

const (
	allInside location = iota
	allOutside
	mixed
)

// Clipper clips elements against one fixed tile bounding box.
type Clipper struct {
	bound orb.Bound
}

// New builds a Clipper for the given tile's geographic bounding box.
func New(bbox geo.BoundingBox) *Clipper {
	return &Clipper{bound: bboxToBound(bbox)}
}

func classify(bound orb.Bound, pts []orb.Point) location {
	allIn, allOut := true, true
	for _, p := range pts {
		if bound.Contains(p) {
			allOut = false
		} else {
			allIn = false
		}
	}
	switch {
	case allIn:
		return allInside
	case allOut:
		return allOutside
	default:
		return mixed
	}
}

// Clip intersects e against the tile bound, returning nil if nothing
// survives. The returned element may be a Relation synthesized to hold
// multiple clipped sub-paths/sub-rings; its members carry id 0 while the
// returned element itself keeps e's id and tags.
func (c *Clipper) Clip(e *api.Element) *api.Element {
	switch e.Kind {
	case api.KindNode:
		return c.clipNode(e)
	case api.KindWay:
		return c.clipWay(e)
	case api.KindArea:
		return c.clipArea(e)
	case api.KindRelation:
		return c.clipRelation(e)
	default:
		return nil
	}
}

func (c *Clipper) clipNode(e *api.Element) *api.Element {
	if !c.bound.Contains(coordToPoint(e.Coord)) {
		return nil
	}
	return e.Clone()
}

func (c *Clipper) clipWay(e *api.Element) *api.Element {
	pts := coordsToPoints(e.Coords)
	if len(pts) == 0 {
		return nil
	}

	switch classify(c.bound, pts) {
	case allInside:
		return e.Clone()
	case allOutside:
		return nil
	}

	ls := orb.LineString(pts)
	segments := clip.LineString(c.bound, ls)
	switch len(segments) {
	case 0:
		return nil
	case 1:
		return wayFrom(e.ID, e.Tags, segments[0])
	default:
		rel := &api.Element{Kind: api.KindRelation, ID: e.ID, Tags: e.Tags}
		for _, seg := range segments {
			rel.Members = append(rel.Members, wayFrom(0, e.Tags, seg))
		}
		return rel
	}
}

func wayFrom(id uint64, tags []api.Tag, ls orb.LineString) *api.Element {
	return &api.Element{
		Kind:   api.KindWay,
		ID:     id,
		Tags:   tags,
		Coords: pointsToCoords([]orb.Point(ls)),
	}
}

func (c *Clipper) clipArea(e *api.Element) *api.Element {
	pts := coordsToPoints(e.Coords)
	if len(pts) == 0 {
		return nil
	}

	loc := classify(c.bound, pts)
	if loc == allOutside {
		// A fully-enclosing polygon has every vertex outside the tile yet
		// still covers it entirely; fall through to clipping whenever the
		// element's own bbox intersects the tile's.
		elemBound := orb.MultiPoint(pts).Bound()
		if !c.bound.Intersects(elemBound) {
			return nil
		}
		loc = mixed
	}
	if loc == allInside {
		return e.Clone()
	}

	poly := orb.Polygon{closedRing(pts)}
	// Clip as a MultiPolygon of one member rather than clip.Polygon directly:
	// a single orb.Polygon clip only ever returns one polygon (outer ring +
	// holes, never disjoint pieces), which would otherwise turn holes into
	// separate Areas and could never detect a polygon legitimately splitting
	// into disjoint pieces against the tile bound.
	clipped := clip.MultiPolygon(c.bound, orb.MultiPolygon{poly})
	switch len(clipped) {
	case 0:
		return nil
	case 1:
		return areaFrom(e.ID, e.Tags, clipped[0])
	default:
		rel := &api.Element{Kind: api.KindRelation, ID: e.ID, Tags: e.Tags}
		for _, p := range clipped {
			rel.Members = append(rel.Members, areaFrom(0, e.Tags, p))
		}
		return rel
	}
}

func areaFrom(id uint64, tags []api.Tag, poly orb.Polygon) *api.Element {
	return &api.Element{
		Kind:   api.KindArea,
		ID:     id,
		Tags:   tags,
		Coords: ringToCoords(poly[0]),
	}
}

func (c *Clipper) clipRelation(e *api.Element) *api.Element {
	var survivors []*api.Element
	for _, m := range e.Members {
		if clipped := c.Clip(m); clipped != nil {
			survivors = append(survivors, clipped)
		}
	}
	switch len(survivors) {
	case 0:
		return nil
	case 1:
		child := survivors[0].Clone()
		child.ID = e.ID
		child.Tags = e.Tags
		return child
	default:
		return &api.Element{Kind: api.KindRelation, ID: e.ID, Tags: e.Tags, Members: survivors}
	}
}
