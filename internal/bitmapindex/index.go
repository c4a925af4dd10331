// Package bitmapindex implements the tokenized tag-text index: turning an
// element's tags into token ids, setting per-tile bitmap bits, and
// evaluating the three-phase OR -> AND -> NOT boolean query over a single
// tile's bitmap (spec.md §4.3). The two ElementStore variants each own
// their own per-tile bitmap storage (in-memory map vs on-disk .bmp file);
// this package supplies the pure tokenization and algebra they share.
package bitmapindex

import (
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/stringtable"
)

// TagTokenIDs computes the multiset union of tokenizations of every tag
// key and value string on e, interning each token in st.
func TagTokenIDs(st *stringtable.StringTable, e *api.Element) ([]uint32, error) {
	var ids []uint32
	for _, tag := range e.Tags {
		keyStr, ok := st.GetString(tag.KeyID)
		if !ok {
			continue
		}
		valStr, ok := st.GetString(tag.ValueID)
		if !ok {
			continue
		}
		for _, tok := range Tokenize(keyStr) {
			id, err := st.GetID(tok)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		for _, tok := range Tokenize(valStr) {
			id, err := st.GetID(tok)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ResolvedQuery holds a text query already tokenized to StringTable ids,
// ready for Evaluate. Unknown tokens (never interned anywhere) have no id
// and can never match any tile's bitmap: an unknown NOT or OR token is
// dropped, while an unknown AND token sets AndUnknown, which empties the
// result for every tile.
type ResolvedQuery struct {
	Not        []uint32
	And        []uint32
	Or         []uint32
	AndUnknown bool
}

// ResolveQuery tokenizes the three raw query term strings (space-delimited,
// per spec.md §4.3 step 1) and resolves each token to its existing id.
func ResolveQuery(st *stringtable.StringTable, not, and, or string) ResolvedQuery {
	andTokens := TokenizeQuery(and)
	andIDs := lookupAll(st, andTokens)
	return ResolvedQuery{
		Not:        lookupAll(st, TokenizeQuery(not)),
		And:        andIDs,
		Or:         lookupAll(st, TokenizeQuery(or)),
		AndUnknown: len(andIDs) < len(andTokens),
	}
}

func lookupAll(st *stringtable.StringTable, tokens []string) []uint32 {
	var ids []uint32
	for _, tok := range tokens {
		if id, ok := st.LookupID(tok); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Evaluate runs the OR -> AND -> NOT algebra against one tile's bitmap
// map, returning the resulting bitset of orders. A nil result (vs. an
// empty-but-non-nil one) is never returned; check IsEmpty.
func Evaluate(bitmaps map[uint32]*roaring.Bitmap, q ResolvedQuery) *roaring.Bitmap {
	r := roaring.New()
	if q.AndUnknown {
		return r // an AND term no element carries eliminates the tile
	}

	for _, id := range q.Or {
		if b, ok := bitmaps[id]; ok {
			r.Or(b)
		}
	}

	for _, id := range q.And {
		b, ok := bitmaps[id]
		if !ok {
			return roaring.New() // missing AND term eliminates the tile
		}
		if r.IsEmpty() {
			r = b.Clone()
		} else {
			r.And(b)
		}
	}

	for _, id := range q.Not {
		// (R xor N) and R == R andnot N; written via AndNot directly.
		if b, ok := bitmaps[id]; ok {
			r.AndNot(b)
		}
	}

	return r
}

// Index is the in-memory per-tile term bitmap used by the InMemory
// ElementStore variant. Safe for concurrent use on distinct tiles; same-
// tile concurrent writes must be serialized by the caller per spec.md §5.
type Index struct {
	mu    sync.RWMutex
	tiles map[geo.QuadKey]map[uint32]*roaring.Bitmap
}

func New() *Index {
	return &Index{tiles: make(map[geo.QuadKey]map[uint32]*roaring.Bitmap)}
}

// Add sets bit order for every token id in the given tile's bitmap.
func (idx *Index) Add(tile geo.QuadKey, tokenIDs []uint32, order uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bm, ok := idx.tiles[tile]
	if !ok {
		bm = make(map[uint32]*roaring.Bitmap)
		idx.tiles[tile] = bm
	}
	for _, id := range tokenIDs {
		b, ok := bm[id]
		if !ok {
			b = roaring.New()
			bm[id] = b
		}
		b.Add(order)
	}
}

// Bitmap returns the tile's term bitmap map, or false if the tile has no
// data.
func (idx *Index) Bitmap(tile geo.QuadKey) (map[uint32]*roaring.Bitmap, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bm, ok := idx.tiles[tile]
	return bm, ok
}

// Erase drops a tile's bitmap entirely.
func (idx *Index) Erase(tile geo.QuadKey) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.tiles, tile)
}
