// Package meshcache implements the on-disk per-tile build-output cache
// (spec.md §4.8): single-writer-per-tile coordination via an in-progress
// map, and cancel-safe cleanup of partial writes.
package meshcache

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/buildctx"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
)

type entry struct {
	file *os.File
	path string
}

// key identifies one cache file: a style tag namespaces the tile by
// stylesheet so different stylesheets don't collide on the same tile.
type key struct {
	styleTag string
	tile     geo.QuadKey
}

// Cache is the mesh cache. root is the index root; files live at
// <root>/cache/<styleTag>/<lod>/<quadKeyString>.cache.
type Cache struct {
	root string

	mu       sync.Mutex
	enabled  bool
	inFlight map[key]*entry
}

// New builds a disabled Cache rooted at root. Call SetEnabled(true) to
// turn it on.
func New(root string) *Cache {
	return &Cache{root: root, inFlight: make(map[key]*entry)}
}

// SetEnabled toggles the cache. While disabled, Wrap is identity, Fetch
// always reports false, and Unwrap is a no-op.
func (c *Cache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *Cache) path(styleTag string, tile geo.QuadKey) string {
	return filepath.Join(c.root, "cache", styleTag, tile.DirName(), tile.String()+".cache")
}

// Wrap inserts tile into the in-progress map (if the cache isn't already
// serving it from disk) and returns a Context whose callbacks tee every
// emitted mesh/element through the cache file before calling the
// original callbacks. If the tile's cache file already exists and no
// write is in progress, ctx is returned unchanged — a later Fetch will
// serve it from disk.
func (c *Cache) Wrap(ctx buildctx.Context) buildctx.Context {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return ctx
	}

	k := key{styleTag: ctx.StyleTag, tile: ctx.Tile}
	if _, inFlight := c.inFlight[k]; inFlight {
		c.mu.Unlock()
		return ctx // another build owns this tile's cache write
	}

	path := c.path(ctx.StyleTag, ctx.Tile)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		c.mu.Unlock()
		return ctx // already cached on disk; Fetch will serve it
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		c.mu.Unlock()
		return ctx
	}
	f, err := os.Create(path)
	if err != nil {
		c.mu.Unlock()
		return ctx
	}
	c.inFlight[k] = &entry{file: f, path: path}
	c.mu.Unlock()

	origMesh := ctx.MeshCallback
	origElement := ctx.ElementCallback
	return ctx.WithCallbacks(
		func(m *api.Mesh) {
			_ = writeMeshRecord(f, m) // best-effort; a tee failure must not abort the build
			if origMesh != nil {
				origMesh(m)
			}
		},
		func(e *api.Element) {
			_ = writeElementRecord(f, e)
			if origElement != nil {
				origElement(e)
			}
		},
	)
}

// Fetch serves a previously cached build from disk, if present and not
// currently being written. Returns true iff it served from disk.
func (c *Cache) Fetch(ctx buildctx.Context) (bool, error) {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false, nil
	}
	k := key{styleTag: ctx.StyleTag, tile: ctx.Tile}
	if _, inFlight := c.inFlight[k]; inFlight {
		c.mu.Unlock()
		return false, nil
	}
	path := c.path(ctx.StyleTag, ctx.Tile)
	c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, errs.IoError("open mesh cache file", err)
	}
	defer func() { _ = f.Close() }()

	for {
		if ctx.CancelToken != nil && ctx.CancelToken.IsCancelled() {
			return true, nil
		}
		err := readRecord(f, func(e *api.Element) {
			if ctx.ElementCallback != nil {
				ctx.ElementCallback(e)
			}
		}, func(m *api.Mesh) {
			if ctx.MeshCallback != nil {
				ctx.MeshCallback(m)
			}
		})
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return true, errs.IoError("decode mesh cache record", err)
		}
	}
}

// Unwrap flushes and closes tile's in-progress write stream, if any,
// deleting the partial file if ctx's cancellation token fired.
func (c *Cache) Unwrap(ctx buildctx.Context) {
	c.mu.Lock()
	k := key{styleTag: ctx.StyleTag, tile: ctx.Tile}
	e, ok := c.inFlight[k]
	if ok {
		delete(c.inFlight, k)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	_ = e.file.Sync()
	_ = e.file.Close()
	if ctx.CancelToken != nil && ctx.CancelToken.IsCancelled() {
		_ = os.Remove(e.path)
	}
}
