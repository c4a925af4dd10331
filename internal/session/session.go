// Package session implements Session (spec.md §6): the host-facing entry
// point wiring a StringTable, a GeoStore of registered ElementStores, a
// style provider cache, the mesh cache, and QuadKeyBuilder into the
// operations a host program actually calls.
package session

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/elevation"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/geostore"
	"github.com/foss-geo/tileindex/internal/meshbuild"
	"github.com/foss-geo/tileindex/internal/meshcache"
	"github.com/foss-geo/tileindex/internal/store"
	"github.com/foss-geo/tileindex/internal/stringtable"
	"github.com/foss-geo/tileindex/internal/style"
)

// StylesheetParser parses a stylesheet file into a Provider tagged tag.
// The real MapCSS grammar is an external collaborator out of scope (spec.md
// §1); DefaultStylesheetParser below is the demo stand-in.
type StylesheetParser func(path, tag string) (style.Provider, error)

// Session is the Go realization of spec.md §6's host-facing API.
type Session struct {
	root string
	dirs DirCreator

	mu      sync.Mutex
	nextTag int

	st      *stringtable.StringTable
	geo     *geostore.GeoStore
	styles  *style.Cache
	mesh    *meshcache.Cache
	pool    *meshbuild.Pool
	builder *meshbuild.QuadKeyBuilder
	cat     *catalog
	parser  StylesheetParser

	grid elevation.GridProvider
	srtm elevation.SrtmProvider
}

type sessionConfig struct {
	dirs   DirCreator
	parser StylesheetParser
	source geostore.ElementSource
	grid   elevation.GridProvider
	srtm   elevation.SrtmProvider
}

// Option configures Connect.
type Option func(*sessionConfig)

// WithDirCreator overrides the directory-creation callback used when
// registering a stylesheet's mesh-cache directories.
func WithDirCreator(d DirCreator) Option { return func(c *sessionConfig) { c.dirs = d } }

// WithStylesheetParser overrides the stylesheet parser, for hosts with a
// real MapCSS implementation to plug in.
func WithStylesheetParser(p StylesheetParser) Option { return func(c *sessionConfig) { c.parser = p } }

// WithElementSource overrides the ingest source parser consulted by every
// AddData* operation.
func WithElementSource(src geostore.ElementSource) Option {
	return func(c *sessionConfig) { c.source = src }
}

// WithGridElevation supplies the Grid elevation provider selectable by
// GetDataByQuadKey/GetElevationByQuadKey's elevationType.
func WithGridElevation(g elevation.GridProvider) Option { return func(c *sessionConfig) { c.grid = g } }

// WithSrtmElevation supplies the Srtm elevation provider.
func WithSrtmElevation(s elevation.SrtmProvider) Option { return func(c *sessionConfig) { c.srtm = s } }

func defaultConfig() sessionConfig {
	return sessionConfig{dirs: osDirCreator{}, parser: DefaultStylesheetParser}
}

// Connect opens the StringTable and catalog sidecar at indexPath, preparing
// empty registries of stores and style providers (or recovering them from
// a prior session's catalog, for stores — see internal/session/catalog.go).
func Connect(indexPath string, opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.dirs.MkdirAll(indexPath); err != nil {
		return nil, errs.IoError("mkdir index root", err)
	}

	st, err := stringtable.Open(indexPath)
	if err != nil {
		return nil, errs.IoError("open string table", err)
	}

	cat, err := openCatalog(indexPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	tagSeq, err := cat.countStylesheets()
	if err != nil {
		_ = st.Close()
		_ = cat.close()
		return nil, err
	}

	mesh := meshcache.New(indexPath)
	gs := geostore.New(cfg.source)
	pool := meshbuild.NewPool()

	s := &Session{
		root:    indexPath,
		dirs:    cfg.dirs,
		nextTag: tagSeq,
		st:      st,
		geo:     gs,
		styles:  style.NewCache(),
		mesh:    mesh,
		pool:    pool,
		builder: meshbuild.New(gs, pool, mesh),
		cat:     cat,
		parser:  cfg.parser,
		grid:    cfg.grid,
		srtm:    cfg.srtm,
	}

	if err := s.restoreStores(); err != nil {
		_ = st.Close()
		_ = cat.close()
		return nil, err
	}
	return s, nil
}

func (s *Session) restoreStores() error {
	records, err := s.cat.listStores()
	if err != nil {
		return err
	}
	for _, r := range records {
		var es store.ElementStore
		switch r.kind {
		case storeKindMemory:
			es = store.NewMemoryStore(s.st)
		case storeKindPersistent:
			es = store.NewPersistentStore(r.dataPath, s.st)
		default:
			return unknownStoreKind(r.kind)
		}
		if err := s.geo.RegisterStore(r.key, es); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the StringTable and catalog's open file handles.
func (s *Session) Close() error {
	if err := s.st.Close(); err != nil {
		return err
	}
	return s.cat.close()
}

// RegisterStylesheet parses path (delegated to the configured
// StylesheetParser), returns its stable tag, and ensures
// R/cache/<tag>/1..16/ exist. Re-registering the same path returns the tag
// assigned the first time, whether that was earlier in this process or in
// a previous one (recovered via the catalog).
func (s *Session) RegisterStylesheet(path string) (string, error) {
	p, err := s.ensureStyleProvider(path)
	if err != nil {
		return "", err
	}
	for lod := geo.MinLod; lod <= geo.MaxLod; lod++ {
		dir := filepath.Join(s.root, "cache", p.Tag(), strconv.Itoa(int(lod)))
		if err := s.dirs.MkdirAll(dir); err != nil {
			return "", errs.IoError("mkdir style cache dir", err)
		}
	}
	return p.Tag(), nil
}

func (s *Session) ensureStyleProvider(path string) (style.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, known, err := s.cat.lookupStylesheetTag(path)
	if err != nil {
		return nil, err
	}
	if !known {
		tag = fmt.Sprintf("s%d", s.nextTag)
	}

	p, err := s.styles.GetOrParseTagged(path, tag, s.parser)
	if err != nil {
		return nil, err
	}
	if !known {
		if err := s.cat.recordStylesheet(path, tag); err != nil {
			return nil, err
		}
		s.nextTag++
	}
	return p, nil
}

func (s *Session) resolveStyle(styleFile string) (style.Provider, error) {
	return s.ensureStyleProvider(styleFile)
}

// RegisterInMemoryStore registers an in-memory ElementStore under key.
func (s *Session) RegisterInMemoryStore(key string) error {
	if err := s.geo.RegisterStore(key, store.NewMemoryStore(s.st)); err != nil {
		return err
	}
	return s.cat.recordStore(key, storeKindMemory, "")
}

// RegisterPersistentStore registers a persistent ElementStore under key,
// rooted at dataPath.
func (s *Session) RegisterPersistentStore(key, dataPath string) error {
	if err := s.geo.RegisterStore(key, store.NewPersistentStore(dataPath, s.st)); err != nil {
		return err
	}
	return s.cat.recordStore(key, storeKindPersistent, dataPath)
}

// RegisterElementBuilder makes a named mesh builder available to
// GetDataByQuadKey (spec.md §4.9 registerElementBuilder).
func (s *Session) RegisterElementBuilder(name string, factory meshbuild.Factory, useCache bool) {
	s.builder.RegisterElementBuilder(name, factory, useCache)
}

// EnableMeshCache toggles the on-disk mesh build cache.
func (s *Session) EnableMeshCache(enabled bool) {
	s.mesh.SetEnabled(enabled)
}

// AddDataByTile ingests every element of sourcePath into exactly tile.
func (s *Session) AddDataByTile(storeKey, styleFile, sourcePath string, tile geo.QuadKey, cancel api.CancellationToken) error {
	sp, err := s.resolveStyle(styleFile)
	if err != nil {
		return err
	}
	return s.geo.AddFromTile(storeKey, sourcePath, tile, sp, cancel)
}

// AddDataByBBox ingests sourcePath, assigning elements to every tile in
// lodRange that bbox covers and that the element intersects.
func (s *Session) AddDataByBBox(storeKey, styleFile, sourcePath string, bbox geo.BoundingBox, lodRange geo.LodRange, cancel api.CancellationToken) error {
	sp, err := s.resolveStyle(styleFile)
	if err != nil {
		return err
	}
	return s.geo.AddFromBBox(storeKey, sourcePath, bbox, lodRange, sp, cancel)
}

// AddDataByRange ingests sourcePath with no bbox constraint.
func (s *Session) AddDataByRange(storeKey, styleFile, sourcePath string, lodRange geo.LodRange, cancel api.CancellationToken) error {
	sp, err := s.resolveStyle(styleFile)
	if err != nil {
		return err
	}
	return s.geo.AddFromRange(storeKey, sourcePath, lodRange, sp, cancel)
}

// AddElement is the single-element ingest overload.
func (s *Session) AddElement(storeKey, styleFile string, e *api.Element, lodRange geo.LodRange, cancel api.CancellationToken) error {
	sp, err := s.resolveStyle(styleFile)
	if err != nil {
		return err
	}
	return s.geo.AddElement(storeKey, e, lodRange, sp, cancel)
}

// HasData reports whether any registered store has data for tile.
func (s *Session) HasData(tile geo.QuadKey) bool {
	return s.geo.HasData(tile)
}

// GetDataByText runs a tokenized boolean search and streams matches to
// elementCB, reporting any failure to errorCB instead of returning it
// (spec.md §7 propagation policy). tag is accepted for signature parity
// with GetDataByQuadKey but has no effect: text search has no notion of
// style, and GeoStore.search (spec.md §4.7) fans out over every registered
// store regardless of tag.
func (s *Session) GetDataByText(tag, not, and, or string, bbox geo.BoundingBox, lodRange geo.LodRange, elementCB func(*api.Element), errorCB func(string), cancel api.CancellationToken) {
	_ = tag
	safeExecute(errorCB, func() error {
		q := store.TextQuery{Not: not, And: and, Or: or, BBox: bbox, LodRange: lodRange}
		return s.geo.Search(q, func(e *api.Element) error {
			elementCB(e)
			return nil
		}, cancel)
	})
}

// GetDataByQuadKey builds tile's meshes and element notifications via
// QuadKeyBuilder, streaming results to meshCB/elementCB and reporting any
// failure to errorCB. tag, if non-empty, must match styleFile's own
// registered tag; a mismatch is a ConfigError, catching a caller that
// passed a tag from a different stylesheet than styleFile names.
func (s *Session) GetDataByQuadKey(tag, styleFile string, tile geo.QuadKey, elevationType int, meshCB func(*api.Mesh), elementCB func(*api.Element), errorCB func(string), cancel api.CancellationToken) {
	safeExecute(errorCB, func() error {
		sp, err := s.resolveStyle(styleFile)
		if err != nil {
			return err
		}
		if tag != "" && tag != sp.Tag() {
			return errs.ConfigError(fmt.Sprintf("tag %q does not match stylesheet %q's registered tag %q", tag, styleFile, sp.Tag()), nil)
		}
		ep := elevation.Select(elevation.DataType(elevationType), s.grid, s.srtm)
		return s.builder.Build(tile, sp, s.st, ep, meshCB, elementCB, cancel)
	})
}

// GetElevationByQuadKey samples the elevation provider selected by
// elevationType at coordinate c within tile.
func (s *Session) GetElevationByQuadKey(tile geo.QuadKey, elevationType int, c api.Coord) float64 {
	ep := elevation.Select(elevation.DataType(elevationType), s.grid, s.srtm)
	return ep.Elevation(tile, c)
}

// safeExecute runs fn under the propagation policy of spec.md §7: any
// error other than cancellation becomes a string passed to errorCB: the
// operation itself never returns an error across this boundary.
func safeExecute(errorCB func(string), fn func() error) {
	err := fn()
	if err == nil || err == errs.Cancelled {
		return
	}
	if errorCB != nil {
		errorCB(err.Error())
	}
}
