package wire

import (
	"io"

	"github.com/RoaringBitmap/roaring"
)

// WriteBitmaps serializes a termId -> bitmap mapping as repeated
// {u32 termId; bitmap.WriteTo} records until the map is exhausted. Roaring's
// own wire format is self-delimiting, so a stream of them concatenates
// cleanly and ReadBitmaps can loop until EOF.
func WriteBitmaps(w io.Writer, bitmaps map[uint32]*roaring.Bitmap) error {
	for termID, bm := range bitmaps {
		if err := writeU32(w, termID); err != nil {
			return err
		}
		if _, err := bm.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadBitmaps reads a {u32 termId; bitmap} stream until EOF.
func ReadBitmaps(r io.Reader) (map[uint32]*roaring.Bitmap, error) {
	out := make(map[uint32]*roaring.Bitmap)
	for {
		termID, err := readU32(r)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		bm := roaring.New()
		if _, err := bm.ReadFrom(r); err != nil {
			return nil, err
		}
		out[termID] = bm
	}
}
