package wire

import (
	"bytes"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapStreamRoundTrip(t *testing.T) {
	bitmaps := map[uint32]*roaring.Bitmap{
		1: roaring.BitmapOf(1, 3, 5),
		2: roaring.BitmapOf(2, 4, 6, 8),
		3: roaring.New(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBitmaps(&buf, bitmaps))

	got, err := ReadBitmaps(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(bitmaps))
	for k, bm := range bitmaps {
		gotBM, ok := got[k]
		require.True(t, ok)
		assert.Equal(t, bm.ToArray(), gotBM.ToArray())
	}
}

func TestBitmapStreamEmpty(t *testing.T) {
	got, err := ReadBitmaps(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
