package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/RoaringBitmap/roaring"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/bitmapindex"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/lru"
	"github.com/foss-geo/tileindex/internal/stringtable"
	"github.com/foss-geo/tileindex/internal/wire"
)

const idfRecSize = 12 // u64 id + u32 offset

// quadKeyData is the (dat, idf, bmp) triple for one tile, cached in a
// PersistentStore's LRU (spec.md §4.5). File access goes through a
// billy.Filesystem rather than raw *os.File so the store is exercisable
// against an in-memory filesystem in tests as well as disk in production.
type quadKeyData struct {
	fs      billy.Filesystem
	datPath string
	idfPath string
	bmpPath string
	dat     billy.File
	idf     billy.File
	bitmaps map[uint32]*roaring.Bitmap
}

func (qd *quadKeyData) close() {
	_ = qd.dat.Close()
	_ = qd.idf.Close()
}

func (qd *quadKeyData) size(path string) (int64, error) {
	info, err := qd.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (qd *quadKeyData) rewriteBitmaps() error {
	f, err := qd.fs.Create(qd.bmpPath) // open-truncate
	if err != nil {
		return errs.IoError("open bmp for rewrite", err)
	}
	if err := wire.WriteBitmaps(f, qd.bitmaps); err != nil {
		_ = f.Close()
		return errs.IoError("write bmp", err)
	}
	return f.Close()
}

// elementAt decodes the element whose order (idf record index) is order.
func (qd *quadKeyData) elementAt(order uint32) (*api.Element, error) {
	var rec [idfRecSize]byte
	if _, err := qd.idf.ReadAt(rec[:], int64(order)*idfRecSize); err != nil {
		return nil, errs.IoError("read idf record", err)
	}
	offset := int64(binary.LittleEndian.Uint32(rec[8:12]))

	size, err := qd.size(qd.datPath)
	if err != nil {
		return nil, errs.IoError("stat dat", err)
	}
	sr := io.NewSectionReader(qd.dat, offset, size-offset)
	e, err := wire.ReadElement(sr)
	if err != nil {
		return nil, errs.IoError("decode element", err)
	}
	return e, nil
}

// PersistentStore is the on-disk ElementStore variant (spec.md §4.5): per-
// tile files under fs, an LRU of per-tile state (open dat and idf handles
// plus the parsed .bmp bitmaps, which are rewritten to disk on each save),
// and process-wide persistent token interning via st.
type PersistentStore struct {
	fs    billy.Filesystem
	st    *stringtable.StringTable
	mu    sync.Mutex
	cache *lru.Cache[*quadKeyData]
}

// NewPersistentStore builds a store rooted at root on the local disk (the
// store's own dataPath, distinct from the index root) with the default LRU
// capacity.
func NewPersistentStore(root string, st *stringtable.StringTable) *PersistentStore {
	return NewPersistentStoreFS(osfs.New(root), st)
}

// NewPersistentStoreFS builds a store backed by an arbitrary billy.Filesystem,
// letting tests exercise the store's file layout against an in-memory
// filesystem instead of disk.
func NewPersistentStoreFS(fs billy.Filesystem, st *stringtable.StringTable) *PersistentStore {
	ps := &PersistentStore{fs: fs, st: st}
	ps.cache = lru.New[*quadKeyData](lru.DefaultCapacity, func(_ geo.QuadKey, qd *quadKeyData) {
		qd.close()
	})
	return ps
}

func (ps *PersistentStore) tileDir(tile geo.QuadKey) string {
	return filepath.Join("data", tile.DirName())
}

func (ps *PersistentStore) tilePath(tile geo.QuadKey, ext string) string {
	return filepath.Join(ps.tileDir(tile), tile.String()+"."+ext)
}

// open returns the cached handle triple for tile, opening and parsing the
// .bmp on first use. Guarded by ps.mu per spec.md §5 ("the LRU of open
// handles is guarded by one mutex").
func (ps *PersistentStore) open(tile geo.QuadKey) (*quadKeyData, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if qd, ok := ps.cache.Get(tile); ok {
		return qd, nil
	}

	dir := ps.tileDir(tile)
	if err := ps.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IoError("mkdir tile dir", err)
	}

	datPath := ps.tilePath(tile, "dat")
	idfPath := ps.tilePath(tile, "idf")
	bmpPath := ps.tilePath(tile, "bmp")

	dat, err := ps.fs.OpenFile(datPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.IoError("open dat", err)
	}
	idf, err := ps.fs.OpenFile(idfPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = dat.Close()
		return nil, errs.IoError("open idf", err)
	}

	bitmaps, err := loadBitmaps(ps.fs, bmpPath)
	if err != nil {
		_ = dat.Close()
		_ = idf.Close()
		return nil, err
	}

	qd := &quadKeyData{fs: ps.fs, datPath: datPath, idfPath: idfPath, bmpPath: bmpPath, dat: dat, idf: idf, bitmaps: bitmaps}
	ps.cache.Put(tile, qd)
	return qd, nil
}

func loadBitmaps(fs billy.Filesystem, path string) (map[uint32]*roaring.Bitmap, error) {
	f, err := fs.Open(path)
	if os.IsNotExist(err) {
		return make(map[uint32]*roaring.Bitmap), nil
	}
	if err != nil {
		return nil, errs.IoError("open bmp", err)
	}
	defer func() { _ = f.Close() }()

	bitmaps, err := wire.ReadBitmaps(f)
	if err != nil {
		return nil, errs.IoError("decode bmp", err)
	}
	return bitmaps, nil
}

func (ps *PersistentStore) Save(e *api.Element, tile geo.QuadKey) error {
	qd, err := ps.open(tile)
	if err != nil {
		return err
	}

	idfSize, err := qd.size(qd.idfPath)
	if err != nil {
		return errs.IoError("stat idf", err)
	}
	order := uint32(idfSize / idfRecSize)

	offset, err := qd.size(qd.datPath)
	if err != nil {
		return errs.IoError("stat dat", err)
	}

	var buf bytes.Buffer
	if err := wire.WriteElement(&buf, e); err != nil {
		return errs.IoError("encode element", err)
	}
	if _, err := qd.dat.Seek(offset, io.SeekStart); err != nil {
		return errs.IoError("seek dat", err)
	}
	if _, err := qd.dat.Write(buf.Bytes()); err != nil {
		return errs.IoError("append dat", err)
	}

	var rec [idfRecSize]byte
	binary.LittleEndian.PutUint64(rec[0:8], e.ID)
	binary.LittleEndian.PutUint32(rec[8:12], uint32(offset))
	if _, err := qd.idf.Seek(int64(order)*idfRecSize, io.SeekStart); err != nil {
		return errs.IoError("seek idf", err)
	}
	if _, err := qd.idf.Write(rec[:]); err != nil {
		return errs.IoError("append idf", err)
	}

	tokens, err := bitmapindex.TagTokenIDs(ps.st, e)
	if err != nil {
		return err
	}
	for _, id := range tokens {
		bm, ok := qd.bitmaps[id]
		if !ok {
			bm = roaring.New()
			qd.bitmaps[id] = bm
		}
		bm.Add(order)
	}
	return qd.rewriteBitmaps()
}

func (ps *PersistentStore) SearchTile(tile geo.QuadKey, visit Visitor, cancel api.CancellationToken) error {
	if !ps.HasData(tile) {
		return nil
	}
	qd, err := ps.open(tile)
	if err != nil {
		return err
	}

	idfSize, err := qd.size(qd.idfPath)
	if err != nil {
		return errs.IoError("stat idf", err)
	}
	count := uint32(idfSize / idfRecSize)

	for order := uint32(0); order < count; order++ {
		if cancel != nil && cancel.IsCancelled() {
			return nil
		}
		e, err := qd.elementAt(order)
		if err != nil {
			return err
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PersistentStore) SearchText(q TextQuery, visit Visitor, cancel api.CancellationToken) error {
	rq := bitmapindex.ResolveQuery(ps.st, q.Not, q.And, q.Or)

	for _, lod := range q.LodRange.Lods() {
		for _, tile := range geo.CoverBBox(q.BBox, lod) {
			if cancel != nil && cancel.IsCancelled() {
				return nil
			}
			if !ps.HasData(tile) {
				continue
			}

			qd, err := ps.open(tile)
			if err != nil {
				return err
			}

			result := bitmapindex.Evaluate(qd.bitmaps, rq)
			it := result.Iterator()
			for it.HasNext() {
				order := it.Next()
				e, err := qd.elementAt(order)
				if err != nil {
					return err
				}
				if err := visit(e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// HasData reports whether tile's .dat file exists and is non-empty,
// without disturbing the LRU.
func (ps *PersistentStore) HasData(tile geo.QuadKey) bool {
	info, err := ps.fs.Stat(ps.tilePath(tile, "dat"))
	return err == nil && info.Size() > 0
}

func (ps *PersistentStore) Erase(tile geo.QuadKey) error {
	ps.mu.Lock()
	ps.cache.Remove(tile) // runs the evict callback, closing open handles
	ps.mu.Unlock()

	var firstErr error
	for _, ext := range []string{"dat", "idf", "bmp"} {
		if err := ps.fs.Remove(ps.tilePath(tile, ext)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", ext, err)
		}
	}
	if firstErr != nil {
		return errs.IoError("erase tile", firstErr)
	}
	return nil
}

// Flush clears the LRU, forcing close of every open handle.
func (ps *PersistentStore) Flush() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.cache.Clear()
	return nil
}
