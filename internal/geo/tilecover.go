package geo

import "math"

// LatLonToTile converts a WGS84 coordinate to the tile containing it at
// lod, using the standard spherical-Mercator slippy-map projection.
func LatLonToTile(c Coord, lod uint8) QuadKey {
	n := float64(uint32(1) << lod)
	lat := clampLat(c.Lat)
	x := (c.Lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y := (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n

	return QuadKey{Lod: lod, X: clampTileCoord(x, n), Y: clampTileCoord(y, n)}
}

// TileBBox returns the bounding box covered by a tile.
func TileBBox(q QuadKey) BoundingBox {
	n := float64(uint32(1) << q.Lod)
	minLon := float64(q.X)/n*360.0 - 180.0
	maxLon := float64(q.X+1)/n*360.0 - 180.0
	maxLat := mercatorLat(float64(q.Y), n)
	minLat := mercatorLat(float64(q.Y+1), n)
	return BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

func mercatorLat(y, n float64) float64 {
	yFrac := 1.0 - 2.0*y/n
	return 180.0 / math.Pi * math.Atan(math.Sinh(math.Pi*yFrac))
}

func clampLat(lat float64) float64 {
	if lat > World.MaxLat {
		return World.MaxLat
	}
	if lat < World.MinLat {
		return World.MinLat
	}
	return lat
}

func clampTileCoord(v, n float64) uint32 {
	if v < 0 {
		return 0
	}
	if v >= n {
		return uint32(n) - 1
	}
	return uint32(v)
}

// CoverBBox returns every tile at lod that intersects bbox, in row-major
// (y, x) order — the order tile-scan visitors rely on.
func CoverBBox(bbox BoundingBox, lod uint8) []QuadKey {
	topLeft := LatLonToTile(Coord{Lat: bbox.MaxLat, Lon: bbox.MinLon}, lod)
	bottomRight := LatLonToTile(Coord{Lat: bbox.MinLat, Lon: bbox.MaxLon}, lod)

	minX, maxX := topLeft.X, bottomRight.X
	minY, maxY := topLeft.Y, bottomRight.Y
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	out := make([]QuadKey, 0, (maxY-minY+1)*(maxX-minX+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, QuadKey{Lod: lod, X: x, Y: y})
		}
	}
	return out
}

// CoverElementBBox returns, for each lod in lodRange, every tile at that
// lod that the element's bounding box touches, used by GeoStore's
// bbox-less ingest overloads.
func CoverElementBBox(b BoundingBox, lodRange LodRange) map[uint8][]QuadKey {
	out := make(map[uint8][]QuadKey, int(lodRange.End)-int(lodRange.Start)+1)
	for _, lod := range lodRange.Lods() {
		out[lod] = CoverBBox(b, lod)
	}
	return out
}
