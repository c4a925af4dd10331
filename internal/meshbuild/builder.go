// Package meshbuild implements QuadKeyBuilder (spec.md §4.9): dispatching
// a tile's elements to named builders driven by a style's `builders`
// directive, and the capacity-tiered Pool (§4.10) builders draw meshes
// from.
package meshbuild

import (
	"sync"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/buildctx"
	"github.com/foss-geo/tileindex/internal/elevation"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/meshcache"
	"github.com/foss-geo/tileindex/internal/store"
	"github.com/foss-geo/tileindex/internal/stringtable"
	"github.com/foss-geo/tileindex/internal/style"
)

// Builder is a visitor over an element's worth of a tile's elements that
// appends to meshes via the Context it was prepared with (spec.md §1
// out-of-scope: "the mesh-geometry builders themselves... each is a
// visitor over elements that appends to a mesh").
type Builder interface {
	Prepare(ctx buildctx.Context)
	VisitElement(e *api.Element)
	Complete()
}

// Factory constructs a fresh Builder instance for one Build call.
type Factory func() Builder

// ElementScanner is the narrow interface QuadKeyBuilder scans a tile's
// elements through; satisfied by both store.ElementStore and geostore's
// fan-out GeoStore.
type ElementScanner interface {
	SearchTile(tile geo.QuadKey, visit store.Visitor, cancel api.CancellationToken) error
}

// noopBuilder is installed for a name on a cache hit: the cached records
// were already replayed straight to the Context's callbacks, so further
// VisitElement/Complete calls for this name in this build do nothing.
type noopBuilder struct{}

func (noopBuilder) Prepare(buildctx.Context) {}
func (noopBuilder) VisitElement(*api.Element) {}
func (noopBuilder) Complete()                 {}

// externalBuilder is the fallback used when a style's `builders` entry
// names a builder with no registered factory (spec.md §4.9 tie-break).
type externalBuilder struct{}

func (externalBuilder) Prepare(buildctx.Context)  {}
func (externalBuilder) VisitElement(*api.Element) {}
func (externalBuilder) Complete()                 {}

func externalBuilderFactory() Builder { return externalBuilder{} }

type registration struct {
	factory  Factory
	useCache bool
}

// QuadKeyBuilder dispatches a tile's elements to named builders and
// memoizes instances per build, per spec.md §4.9.
type QuadKeyBuilder struct {
	mu       sync.Mutex
	registry map[string]registration
	scanner  ElementScanner
	pool     *Pool
	cache    *meshcache.Cache
}

// New builds a QuadKeyBuilder scanning elements via scanner, pooling
// meshes via pool, and consulting cache for useCache-registered builders.
func New(scanner ElementScanner, pool *Pool, cache *meshcache.Cache) *QuadKeyBuilder {
	return &QuadKeyBuilder{
		registry: make(map[string]registration),
		scanner:  scanner,
		pool:     pool,
		cache:    cache,
	}
}

// RegisterElementBuilder records factory under name. If useCache is true,
// a Build invocation for a style resolving to this name first consults
// the mesh cache; a hit installs a no-op builder, a miss wraps the
// builder's context so its emissions tee into the cache file.
func (b *QuadKeyBuilder) RegisterElementBuilder(name string, factory Factory, useCache bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry[name] = registration{factory: factory, useCache: useCache}
}

func (b *QuadKeyBuilder) lookup(name string) (registration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.registry[name]
	return reg, ok
}

// Build scans tile's elements from scanner, resolving each element's
// style at tile's lod and dispatching it to every named builder in that
// style's `builders` directive. Builders are created at most once per
// call; Prepare runs on creation, Complete runs at the end in insertion
// order, skipped entirely once cancellation has fired.
func (b *QuadKeyBuilder) Build(
	tile geo.QuadKey,
	sp style.Provider,
	st *stringtable.StringTable,
	ep elevation.Provider,
	meshCB buildctx.MeshCallback,
	elementCB buildctx.ElementCallback,
	cancel api.CancellationToken,
) error {
	baseCtx := buildctx.Context{
		Tile:              tile,
		StyleTag:          sp.Tag(),
		StyleProvider:     sp,
		StringTable:       st,
		ElevationProvider: ep,
		MeshCallback:      meshCB,
		ElementCallback:   elementCB,
		CancelToken:       cancel,
	}

	instances := make(map[string]Builder)
	var order []string
	var wrapped []buildctx.Context
	seenIDs := make(map[uint64]bool)

	getOrCreate := func(name string) Builder {
		if bld, ok := instances[name]; ok {
			return bld
		}

		reg, known := b.lookup(name)
		factory := externalBuilderFactory
		if known {
			factory = reg.factory
		}

		var bld Builder
		if known && reg.useCache {
			if served, err := b.cache.Fetch(baseCtx); err == nil && served {
				bld = noopBuilder{}
			}
		}
		if bld == nil {
			ctx := baseCtx
			if known && reg.useCache {
				ctx = b.cache.Wrap(baseCtx)
				wrapped = append(wrapped, ctx)
			}
			bld = factory()
			bld.Prepare(ctx)
		}

		instances[name] = bld
		order = append(order, name)
		return bld
	}

	err := b.scanner.SearchTile(tile, func(e *api.Element) error {
		if cancel != nil && cancel.IsCancelled() {
			return nil
		}
		if e.ID != 0 {
			if seenIDs[e.ID] {
				return nil
			}
			seenIDs[e.ID] = true
		}

		decl, ok := sp.Resolve(e, tile.Lod)
		if !ok || len(decl.Builders) == 0 {
			return nil
		}
		dispatched := make(map[string]bool, len(decl.Builders))
		for _, name := range decl.Builders {
			if dispatched[name] {
				continue
			}
			dispatched[name] = true
			getOrCreate(name).VisitElement(e)
		}
		return nil
	}, cancel)
	if err != nil {
		return err
	}

	if cancel == nil || !cancel.IsCancelled() {
		for _, name := range order {
			instances[name].Complete()
		}
	}
	for _, ctx := range wrapped {
		b.cache.Unwrap(ctx)
	}
	return nil
}
