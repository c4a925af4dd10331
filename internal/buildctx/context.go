// Package buildctx holds BuilderContext, the immutable value threaded
// through one QuadKeyBuilder.Build call and the type MeshCache wraps to
// tee emitted records through its cache file (spec.md §9 "Cyclic callbacks
// and contexts": modeled as borrowed references plus a higher-order
// combinator over the callbacks, not as implicit context decoration).
package buildctx

import (
	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/elevation"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/stringtable"
	"github.com/foss-geo/tileindex/internal/style"
)

// MeshCallback receives one mesh emitted during a build.
type MeshCallback func(*api.Mesh)

// ElementCallback receives one element emitted during a build (an element
// a builder consulted, re-surfaced to the caller per spec.md §4.9).
type ElementCallback func(*api.Element)

// Context is the per-build value passed to every builder. Its two
// callbacks are plain function values with a non-owning capture of the
// caller's collector; MeshCache.Wrap returns a new Context whose
// callbacks tee through a cache file before delegating to the originals.
type Context struct {
	Tile             geo.QuadKey
	StyleTag         string
	StyleProvider    style.Provider
	StringTable      *stringtable.StringTable
	ElevationProvider elevation.Provider
	MeshCallback     MeshCallback
	ElementCallback  ElementCallback
	CancelToken      api.CancellationToken
}

// WithCallbacks returns a shallow copy of c with its callbacks replaced,
// the combinator MeshCache.Wrap uses to tee writes.
func (c Context) WithCallbacks(mesh MeshCallback, element ElementCallback) Context {
	c.MeshCallback = mesh
	c.ElementCallback = element
	return c
}
