// Package geostore implements GeoStore (spec.md §4.7): a registry of keyed
// ElementStores, ingest orchestration (clipping + per-tile save) with
// cancellation and best-effort rollback, and fan-out search across every
// registered store.
package geostore

import (
	"fmt"
	"io"
	"os"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/clipper"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/store"
	"github.com/foss-geo/tileindex/internal/style"
	"github.com/foss-geo/tileindex/internal/wire"
)

// ElementSource parses an ingest source, invoking visit once per
// top-level decoded Element. The real OSM/PBF/XML front-end is an
// external collaborator out of this package's scope (spec.md §1);
// DefaultSource below decodes the ElementStream wire format so ingest
// is exercisable end to end without that front-end.
type ElementSource interface {
	Parse(path string, visit func(*api.Element) error) error
}

// DefaultSource reads a flat stream of ElementStream-encoded records.
type DefaultSource struct{}

func (DefaultSource) Parse(path string, visit func(*api.Element) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.IoError("open source", err)
	}
	defer func() { _ = f.Close() }()

	for {
		e, err := wire.ReadElement(f)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errs.IoError("decode source element", err)
		}
		if err := visit(e); err != nil {
			return err
		}
	}
}

// GeoStore fans out ingest and search over a set of keyed ElementStores.
type GeoStore struct {
	source ElementSource
	stores map[string]store.ElementStore
}

// New builds a GeoStore parsing ingest sources with source.
func New(source ElementSource) *GeoStore {
	if source == nil {
		source = DefaultSource{}
	}
	return &GeoStore{source: source, stores: make(map[string]store.ElementStore)}
}

// RegisterStore associates key with an ElementStore. Re-registering an
// existing key is a configuration error.
func (g *GeoStore) RegisterStore(key string, s store.ElementStore) error {
	if _, exists := g.stores[key]; exists {
		return errs.ConfigError(fmt.Sprintf("store key %q already registered", key), nil)
	}
	g.stores[key] = s
	return nil
}

func (g *GeoStore) get(key string) (store.ElementStore, error) {
	s, ok := g.stores[key]
	if !ok {
		return nil, errs.ConfigError(fmt.Sprintf("unknown store key %q", key), nil)
	}
	return s, nil
}

// rollback erases every touched tile, best-effort (spec.md §5 cancellation
// guarantee: a cancelled add leaves hasData false for every touched tile).
func rollback(s store.ElementStore, touched map[geo.QuadKey]bool) {
	for tile := range touched {
		_ = s.Erase(tile)
	}
}

func shouldInclude(sp style.Provider, e *api.Element, lod uint8) bool {
	if sp == nil {
		return true
	}
	d, ok := sp.Resolve(e, lod)
	if !ok {
		return true
	}
	return d.Include
}

func (g *GeoStore) saveClipped(s store.ElementStore, e *api.Element, tile geo.QuadKey, touched map[geo.QuadKey]bool) error {
	c := clipper.New(geo.TileBBox(tile))
	clipped := c.Clip(e)
	if clipped == nil {
		return nil
	}
	if err := s.Save(clipped, tile); err != nil {
		return err
	}
	touched[tile] = true
	return nil
}

// AddFromTile ingests every element of sourcePath into exactly tile (the
// single-tile GeoStore.add overload, spec.md §4.7).
func (g *GeoStore) AddFromTile(storeKey, sourcePath string, tile geo.QuadKey, sp style.Provider, cancel api.CancellationToken) error {
	s, err := g.get(storeKey)
	if err != nil {
		return err
	}
	touched := make(map[geo.QuadKey]bool)

	err = g.source.Parse(sourcePath, func(e *api.Element) error {
		if cancel != nil && cancel.IsCancelled() {
			return errs.Cancelled
		}
		if !shouldInclude(sp, e, tile.Lod) {
			return nil
		}
		return g.saveClipped(s, e, tile, touched)
	})
	return g.finishAdd(s, touched, cancel, err)
}

// AddFromBBox ingests sourcePath, assigning each element to every tile in
// lodRange that bbox covers and that the element intersects.
func (g *GeoStore) AddFromBBox(storeKey, sourcePath string, bbox geo.BoundingBox, lodRange geo.LodRange, sp style.Provider, cancel api.CancellationToken) error {
	s, err := g.get(storeKey)
	if err != nil {
		return err
	}
	touched := make(map[geo.QuadKey]bool)

	err = g.source.Parse(sourcePath, func(e *api.Element) error {
		if cancel != nil && cancel.IsCancelled() {
			return errs.Cancelled
		}
		for _, lod := range lodRange.Lods() {
			if !shouldInclude(sp, e, lod) {
				continue
			}
			for _, tile := range geo.CoverBBox(bbox, lod) {
				if cancel != nil && cancel.IsCancelled() {
					return errs.Cancelled
				}
				if err := g.saveClipped(s, e, tile, touched); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return g.finishAdd(s, touched, cancel, err)
}

// AddFromRange ingests sourcePath with no bbox constraint: each element is
// assigned to every tile, at every lod in lodRange, that its own bounding
// box touches.
func (g *GeoStore) AddFromRange(storeKey, sourcePath string, lodRange geo.LodRange, sp style.Provider, cancel api.CancellationToken) error {
	s, err := g.get(storeKey)
	if err != nil {
		return err
	}
	touched := make(map[geo.QuadKey]bool)

	err = g.source.Parse(sourcePath, func(e *api.Element) error {
		if cancel != nil && cancel.IsCancelled() {
			return errs.Cancelled
		}
		cover := geo.CoverElementBBox(elementBBox(e), lodRange)
		for lod, tiles := range cover {
			if !shouldInclude(sp, e, lod) {
				continue
			}
			for _, tile := range tiles {
				if cancel != nil && cancel.IsCancelled() {
					return errs.Cancelled
				}
				if err := g.saveClipped(s, e, tile, touched); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return g.finishAdd(s, touched, cancel, err)
}

// AddElement is the single-element ingest overload.
func (g *GeoStore) AddElement(storeKey string, e *api.Element, lodRange geo.LodRange, sp style.Provider, cancel api.CancellationToken) error {
	s, err := g.get(storeKey)
	if err != nil {
		return err
	}
	touched := make(map[geo.QuadKey]bool)

	cover := geo.CoverElementBBox(elementBBox(e), lodRange)
	var addErr error
loop:
	for lod, tiles := range cover {
		if !shouldInclude(sp, e, lod) {
			continue
		}
		for _, tile := range tiles {
			if cancel != nil && cancel.IsCancelled() {
				addErr = errs.Cancelled
				break loop
			}
			if err := g.saveClipped(s, e, tile, touched); err != nil {
				addErr = err
				break loop
			}
		}
	}
	return g.finishAdd(s, touched, cancel, addErr)
}

func (g *GeoStore) finishAdd(s store.ElementStore, touched map[geo.QuadKey]bool, cancel api.CancellationToken, err error) error {
	if err == errs.Cancelled || (cancel != nil && cancel.IsCancelled()) {
		rollback(s, touched)
		return nil
	}
	return err
}

func elementBBox(e *api.Element) geo.BoundingBox {
	b := geo.EmptyBox()
	switch e.Kind {
	case api.KindNode:
		b = b.UnionPoint(e.Coord)
	case api.KindWay, api.KindArea:
		for _, c := range e.Coords {
			b = b.UnionPoint(c)
		}
	case api.KindRelation:
		for _, m := range e.Members {
			b = b.Union(elementBBox(m))
		}
	}
	return b
}

// Search fans a tokenized text query out to every registered store.
func (g *GeoStore) Search(q store.TextQuery, visit store.Visitor, cancel api.CancellationToken) error {
	for _, s := range g.stores {
		if cancel != nil && cancel.IsCancelled() {
			return nil
		}
		if err := s.SearchText(q, visit, cancel); err != nil {
			return err
		}
	}
	return nil
}

// SearchTile fans a tile-scan out to every registered store.
func (g *GeoStore) SearchTile(tile geo.QuadKey, visit store.Visitor, cancel api.CancellationToken) error {
	for _, s := range g.stores {
		if cancel != nil && cancel.IsCancelled() {
			return nil
		}
		if err := s.SearchTile(tile, visit, cancel); err != nil {
			return err
		}
	}
	return nil
}

// HasData reports whether any registered store has data for tile.
func (g *GeoStore) HasData(tile geo.QuadKey) bool {
	for _, s := range g.stores {
		if s.HasData(tile) {
			return true
		}
	}
	return false
}
