// Package store implements the two ElementStore variants (spec.md §4.4,
// §4.5): per-tile persistence of clipped elements plus the tile-scan and
// tokenized-text search dispatch shared by both.
package store

import (
	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
)

// Visitor receives one element during a tile-scan or text search.
type Visitor func(e *api.Element) error

// TextQuery is the parameter set for a tokenized boolean search, spec.md
// §4.3 step 1-2.
type TextQuery struct {
	Not, And, Or string
	BBox         geo.BoundingBox
	LodRange     geo.LodRange
}

// ElementStore is the per-store persistence + search contract both the
// in-memory and persistent variants satisfy, and the unit GeoStore fans
// its operations out over.
type ElementStore interface {
	Save(e *api.Element, tile geo.QuadKey) error
	SearchTile(tile geo.QuadKey, visit Visitor, cancel api.CancellationToken) error
	SearchText(q TextQuery, visit Visitor, cancel api.CancellationToken) error
	Erase(tile geo.QuadKey) error
	HasData(tile geo.QuadKey) bool
	Flush() error
}
