package clipper

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

// coordScale matches the fixed-point contract in spec.md §4.1: coordinates
// are scaled by 1e7 before clipping and descaled on output.
const coordScale = 1e7

func scale(v float64) float64 { return math.Round(v * coordScale) }
func descale(v float64) float64 { return v / coordScale }

func coordToPoint(c api.Coord) orb.Point {
	return orb.Point{scale(c.Lon), scale(c.Lat)}
}

func pointToCoord(p orb.Point) api.Coord {
	return api.Coord{Lat: descale(p[1]), Lon: descale(p[0])}
}

func coordsToPoints(coords []api.Coord) []orb.Point {
	pts := make([]orb.Point, len(coords))
	for i, c := range coords {
		pts[i] = coordToPoint(c)
	}
	return pts
}

func pointsToCoords(pts []orb.Point) []api.Coord {
	coords := make([]api.Coord, len(pts))
	for i, p := range pts {
		coords[i] = pointToCoord(p)
	}
	return coords
}

func bboxToBound(b geo.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{scale(b.MinLon), scale(b.MinLat)},
		Max: orb.Point{scale(b.MaxLon), scale(b.MaxLat)},
	}
}

// closedRing appends the first point to the end if the caller's points
// aren't already explicitly closed — Area elements store the closure
// implicitly (spec.md §3), orb.Ring requires it explicit.
func closedRing(pts []orb.Point) orb.Ring {
	if len(pts) == 0 {
		return nil
	}
	if pts[0] == pts[len(pts)-1] {
		return orb.Ring(pts)
	}
	ring := make(orb.Ring, len(pts)+1)
	copy(ring, pts)
	ring[len(pts)] = pts[0]
	return ring
}

// ringToCoords drops the ring's explicit closing point, restoring the
// implicit-closure convention Area.Coords uses.
func ringToCoords(r orb.Ring) []api.Coord {
	pts := []orb.Point(r)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pointsToCoords(pts)
}
