package store

import (
	"sync"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/bitmapindex"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/stringtable"
)

// MemoryStore is the in-memory ElementStore variant (spec.md §4.4): per
// tile, an owned element sequence plus a bitmapindex.Index whose bits are
// positions (orders) into that sequence. Erase drops both together.
type MemoryStore struct {
	mu       sync.RWMutex
	st       *stringtable.StringTable
	idx      *bitmapindex.Index
	elements map[geo.QuadKey][]*api.Element
}

// NewMemoryStore builds an empty in-memory store backed by st for token
// interning.
func NewMemoryStore(st *stringtable.StringTable) *MemoryStore {
	return &MemoryStore{
		st:       st,
		idx:      bitmapindex.New(),
		elements: make(map[geo.QuadKey][]*api.Element),
	}
}

func (s *MemoryStore) Save(e *api.Element, tile geo.QuadKey) error {
	tokens, err := bitmapindex.TagTokenIDs(s.st, e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := uint32(len(s.elements[tile]))
	s.elements[tile] = append(s.elements[tile], e)
	s.idx.Add(tile, tokens, order)
	return nil
}

func (s *MemoryStore) SearchTile(tile geo.QuadKey, visit Visitor, cancel api.CancellationToken) error {
	s.mu.RLock()
	elems := append([]*api.Element(nil), s.elements[tile]...)
	s.mu.RUnlock()

	for _, e := range elems {
		if cancel != nil && cancel.IsCancelled() {
			return nil
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) SearchText(q TextQuery, visit Visitor, cancel api.CancellationToken) error {
	rq := bitmapindex.ResolveQuery(s.st, q.Not, q.And, q.Or)

	for _, lod := range q.LodRange.Lods() {
		for _, tile := range geo.CoverBBox(q.BBox, lod) {
			if cancel != nil && cancel.IsCancelled() {
				return nil
			}

			s.mu.RLock()
			bm, ok := s.idx.Bitmap(tile)
			elems := s.elements[tile]
			s.mu.RUnlock()
			if !ok {
				continue
			}

			result := bitmapindex.Evaluate(bm, rq)
			it := result.Iterator()
			for it.HasNext() {
				order := it.Next()
				if int(order) >= len(elems) {
					return errs.DomainError("search: order not present in tile", nil)
				}
				if err := visit(elems[order]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *MemoryStore) Erase(tile geo.QuadKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, tile)
	s.idx.Erase(tile)
	return nil
}

func (s *MemoryStore) HasData(tile geo.QuadKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements[tile]) > 0
}

// Flush is a no-op: an in-memory store has no file handles to release.
func (s *MemoryStore) Flush() error { return nil }
