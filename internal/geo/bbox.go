package geo

import "math"

// BoundingBox is an axis-aligned lat/lon rectangle.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// World is the full-extent bounding box, used for unconstrained searches.
var World = BoundingBox{MinLat: -85.05112878, MinLon: -180, MaxLat: 85.05112878, MaxLon: 180}

// Empty reports whether the box has not yet been expanded by any point.
func (b BoundingBox) Empty() bool {
	return b.MinLat > b.MaxLat || b.MinLon > b.MaxLon
}

// EmptyBox returns a box in the "not yet expanded" state, ready for Union.
func EmptyBox() BoundingBox {
	return BoundingBox{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
}

// UnionPoint returns the smallest box containing both b and p.
func (b BoundingBox) UnionPoint(p Coord) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(b.MinLat, p.Lat),
		MinLon: math.Min(b.MinLon, p.Lon),
		MaxLat: math.Max(b.MaxLat, p.Lat),
		MaxLon: math.Max(b.MaxLon, p.Lon),
	}
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return BoundingBox{
		MinLat: math.Min(b.MinLat, o.MinLat),
		MinLon: math.Min(b.MinLon, o.MinLon),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
	}
}

// Contains reports whether p lies within b, inclusive of the boundary.
func (b BoundingBox) Contains(p Coord) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Intersects reports whether b and o share any area, inclusive of touching
// boundaries.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat && b.MinLon <= o.MaxLon && b.MaxLon >= o.MinLon
}

// Coord mirrors api.Coord without importing the api package, keeping geo
// dependency-free at the bottom of the stack. The two are structurally
// identical and interchangeable.
type Coord struct {
	Lat float64
	Lon float64
}
