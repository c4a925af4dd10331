// Package style stands in for the MapCSS parser and style provider the
// core consumes through a narrow interface (spec.md §1 out-of-scope list,
// §9 "Style provider cache"): stylesheets are parsed once, indexed by
// path, and produce per-element, per-lod style declarations plus a
// stable tag used to namespace the mesh cache on disk.
package style

import (
	"fmt"
	"strings"
	"sync"

	"github.com/foss-geo/tileindex/api"
)

// Declaration is the resolved style for one element at one lod: whether
// the element should be ingested at all (the "per-element clip policy"
// GeoStore.add consults), and which named builders (spec.md §4.9) should
// render it.
type Declaration struct {
	Include  bool
	Builders []string
}

// Provider is the narrow interface QuadKeyBuilder and GeoStore consume.
// A real MapCSS implementation is out of scope; Provider is the seam a
// host-supplied parser plugs into.
type Provider interface {
	// Tag is the stable identifier used to namespace this provider's mesh
	// cache directory (cache/<tag>/...).
	Tag() string
	// Resolve returns the style declaration for e at lod, or ok=false if
	// no rule matches (absent `builders` key, per spec.md §4.9 tie-breaks).
	Resolve(e *api.Element, lod uint8) (Declaration, bool)
}

// StaticProvider is a minimal Provider driven by an in-memory rule table,
// keyed by element kind, with one fallback rule. It is enough to exercise
// QuadKeyBuilder and GeoStore end-to-end without a real MapCSS parser.
type StaticProvider struct {
	tag     string
	byKind  map[api.ElementKind]Declaration
	fallback Declaration
}

// NewStaticProvider builds a provider tagged tag. byKind maps an element
// kind to its declaration; kinds absent from the map use fallback.
func NewStaticProvider(tag string, byKind map[api.ElementKind]Declaration, fallback Declaration) *StaticProvider {
	return &StaticProvider{tag: tag, byKind: byKind, fallback: fallback}
}

func (p *StaticProvider) Tag() string { return p.tag }

func (p *StaticProvider) Resolve(e *api.Element, _ uint8) (Declaration, bool) {
	if d, ok := p.byKind[e.Kind]; ok {
		return d, len(d.Builders) > 0 || d.Include
	}
	return p.fallback, len(p.fallback.Builders) > 0 || p.fallback.Include
}

// ParseBuilders splits a MapCSS `builders` directive's comma-separated
// value into builder names, trimming whitespace and dropping duplicates
// while preserving first-seen order (spec.md §4.9 tie-break: "duplicate
// names in the CSV dispatched once per unique name").
func ParseBuilders(csv string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Cache indexes parsed providers by stylesheet path so that registering
// the same path twice returns the same provider instance (spec.md §9
// "Style provider cache").
type Cache struct {
	mu        sync.Mutex
	byPath    map[string]Provider
	nextTagID int
}

func NewCache() *Cache {
	return &Cache{byPath: make(map[string]Provider)}
}

// GetOrParse returns the cached provider for path, or calls parse to
// build one and caches it under path.
func (c *Cache) GetOrParse(path string, parse func(path, tag string) (Provider, error)) (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byPath[path]; ok {
		return p, nil
	}
	tag := fmt.Sprintf("s%d", c.nextTagID)
	c.nextTagID++
	p, err := parse(path, tag)
	if err != nil {
		return nil, err
	}
	c.byPath[path] = p
	return p, nil
}

// GetOrParseTagged is GetOrParse for a caller that already owns tag
// allocation (internal/session's catalog, recovering a tag assigned in a
// prior process or minting a fresh one from its own counter). It never
// consults or advances nextTagID.
func (c *Cache) GetOrParseTagged(path, tag string, parse func(path, tag string) (Provider, error)) (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.byPath[path]; ok {
		return p, nil
	}
	p, err := parse(path, tag)
	if err != nil {
		return nil, err
	}
	c.byPath[path] = p
	return p, nil
}
