// Package api holds the types the core exposes across every internal
// package boundary: the tagged-variant Element, tiles, meshes, tags, and
// the cancellation primitive threaded through every long-running call.
package api

import "github.com/foss-geo/tileindex/internal/geo"

// ElementKind discriminates the Element tagged variant.
type ElementKind uint8

const (
	KindNode ElementKind = iota
	KindWay
	KindArea
	KindRelation
)

func (k ElementKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindArea:
		return "area"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Coord is a (lat, lon) pair in WGS84 degrees.
type Coord = geo.Coord

// Tag is a (keyId, valueId) pair of StringTable ids.
type Tag struct {
	KeyID   uint32
	ValueID uint32
}

// Element is the tagged-variant map primitive. Kind selects which fields
// are meaningful: Node uses Coord; Way/Area use Coords; Relation uses
// Members. An id of 0 denotes a synthetic element produced by clipping.
type Element struct {
	Kind    ElementKind
	ID      uint64
	Tags    []Tag
	Coord   Coord
	Coords  []Coord
	Members []*Element
}

// Clone returns a deep copy of e. Used whenever an element is emitted
// as-is (e.g. an all-inside clip result) so callers never alias the
// original's slices.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{Kind: e.Kind, ID: e.ID, Coord: e.Coord}
	if e.Tags != nil {
		out.Tags = append([]Tag(nil), e.Tags...)
	}
	if e.Coords != nil {
		out.Coords = append([]Coord(nil), e.Coords...)
	}
	if e.Members != nil {
		out.Members = make([]*Element, len(e.Members))
		for i, m := range e.Members {
			out.Members[i] = m.Clone()
		}
	}
	return out
}
