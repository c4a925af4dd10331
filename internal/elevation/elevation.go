// Package elevation provides the narrow height-lookup interface
// QuadKeyBuilder and Session.GetElevationByQuadKey consume (spec.md §1
// out-of-scope list: "elevation providers yield a height for a (tile,
// coordinate) pair"). The three selectable variants are spec.md §6's
// Flat/Grid/Srtm, chosen by an integer in {0,1,2}.
package elevation

import (
	"fmt"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

// Provider yields a height in meters for a coordinate within tile.
type Provider interface {
	Elevation(tile geo.QuadKey, c api.Coord) float64
}

// DataType selects a Provider variant. Unknown values map to Flat per
// spec.md §9.
type DataType int

const (
	Flat DataType = iota
	Grid
	Srtm
)

// FlatProvider always returns 0, the degenerate no-terrain case.
type FlatProvider struct{}

func (FlatProvider) Elevation(geo.QuadKey, api.Coord) float64 { return 0 }

// GridSource supplies a regular DEM sample for a coordinate; GridProvider
// is the adapter consumed by QuadKeyBuilder.
type GridSource interface {
	SampleAt(lat, lon float64) (float64, bool)
}

// GridProvider looks up a regular digital-elevation-model grid, falling
// back to 0 where the grid has no sample.
type GridProvider struct {
	Source GridSource
}

func (p GridProvider) Elevation(_ geo.QuadKey, c api.Coord) float64 {
	if p.Source == nil {
		return 0
	}
	h, ok := p.Source.SampleAt(c.Lat, c.Lon)
	if !ok {
		return 0
	}
	return h
}

// SrtmTileSource resolves an SRTM tile name for a coordinate and samples
// its height, mirroring the one-tile-per-1x1-degree SRTM convention.
type SrtmTileSource interface {
	Sample(tileName string, lat, lon float64) (float64, bool)
}

// SrtmProvider looks up height in the SRTM tile covering c, named by the
// standard N/S-lat E/W-lon convention (e.g. "N48E011").
type SrtmProvider struct {
	Source SrtmTileSource
}

func (p SrtmProvider) Elevation(_ geo.QuadKey, c api.Coord) float64 {
	if p.Source == nil {
		return 0
	}
	name := srtmTileName(c)
	h, ok := p.Source.Sample(name, c.Lat, c.Lon)
	if !ok {
		return 0
	}
	return h
}

func srtmTileName(c api.Coord) string {
	latDeg := int(c.Lat)
	if float64(latDeg) > c.Lat {
		latDeg--
	}
	lonDeg := int(c.Lon)
	if float64(lonDeg) > c.Lon {
		lonDeg--
	}

	ns := byte('N')
	if latDeg < 0 {
		ns = 'S'
		latDeg = -latDeg
	}
	ew := byte('E')
	if lonDeg < 0 {
		ew = 'W'
		lonDeg = -lonDeg
	}
	return fmt.Sprintf("%c%02d%c%03d", ns, latDeg, ew, lonDeg)
}

// Select returns the Provider for dt, mapping any value outside
// {Flat,Grid,Srtm} to FlatProvider.
func Select(dt DataType, grid GridProvider, srtm SrtmProvider) Provider {
	switch dt {
	case Grid:
		return grid
	case Srtm:
		return srtm
	default:
		return FlatProvider{}
	}
}
