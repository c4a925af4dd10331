package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/buildctx"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/geo"
	"github.com/foss-geo/tileindex/internal/meshbuild"
	"github.com/foss-geo/tileindex/internal/wire"
)

func writeElementStream(t *testing.T, elements ...*api.Element) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	for _, e := range elements {
		require.NoError(t, wire.WriteElement(f, e))
	}
	return path
}

func writeStylesheet(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "style.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// recordingBuilder logs its lifecycle and re-emits every visited element
// through its context's ElementCallback, as a builder surfaces elements.
type recordingBuilder struct {
	log *[]string
	ctx buildctx.Context
}

func (b *recordingBuilder) Prepare(ctx buildctx.Context) {
	b.ctx = ctx
	*b.log = append(*b.log, "prepare")
}
func (b *recordingBuilder) VisitElement(e *api.Element) {
	*b.log = append(*b.log, "visit")
	if b.ctx.ElementCallback != nil {
		b.ctx.ElementCallback(e)
	}
}
func (b *recordingBuilder) Complete() { *b.log = append(*b.log, "complete") }

func TestSessionIngestAndSearchRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "index")
	s, err := Connect(root)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.RegisterInMemoryStore("main"))
	stylePath := writeStylesheet(t, "node: roads\n*: \n")
	tag, err := s.RegisterStylesheet(stylePath)
	require.NoError(t, err)
	assert.Equal(t, "s0", tag)

	tile := geo.QuadKey{Lod: 1, X: 1, Y: 0} // lat 0..85, lon 0..180: holds the node
	src := writeElementStream(t,
		&api.Element{Kind: api.KindNode, ID: 1, Coord: api.Coord{Lat: 1, Lon: 1}},
	)
	require.NoError(t, s.AddDataByTile("main", stylePath, src, tile, api.NeverCancelled))
	assert.True(t, s.HasData(tile))

	var log []string
	s.RegisterElementBuilder("roads", func() meshbuild.Builder { return &recordingBuilder{log: &log} }, false)

	var elements []*api.Element
	var calledErr string
	s.GetDataByQuadKey("", stylePath, tile, 0, func(*api.Mesh) {}, func(e *api.Element) {
		elements = append(elements, e)
	}, func(msg string) { calledErr = msg }, api.NeverCancelled)

	assert.Empty(t, calledErr)
	require.Len(t, elements, 1)
	assert.Equal(t, uint64(1), elements[0].ID)
	assert.Contains(t, log, "visit")
}

func TestSessionCatalogRecoversRegistrationsAcrossReconnect(t *testing.T) {
	root := filepath.Join(t.TempDir(), "index")

	s1, err := Connect(root)
	require.NoError(t, err)

	dataRoot := filepath.Join(t.TempDir(), "persisted")
	require.NoError(t, s1.RegisterPersistentStore("p", dataRoot))
	stylePath := writeStylesheet(t, "*: roads\n")
	tag1, err := s1.RegisterStylesheet(stylePath)
	require.NoError(t, err)

	tile := geo.QuadKey{Lod: 1, X: 1, Y: 0} // lat 0..85, lon 0..180: holds the node
	src := writeElementStream(t, &api.Element{Kind: api.KindNode, ID: 7, Coord: api.Coord{Lat: 3, Lon: 3}})
	require.NoError(t, s1.AddDataByTile("p", stylePath, src, tile, api.NeverCancelled))
	require.NoError(t, s1.Close())

	s2, err := Connect(root)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	assert.True(t, s2.HasData(tile))

	tag2, err := s2.RegisterStylesheet(stylePath)
	require.NoError(t, err)
	assert.Equal(t, tag1, tag2)
}

func TestSessionGetDataByQuadKeyRejectsMismatchedTag(t *testing.T) {
	root := filepath.Join(t.TempDir(), "index")
	s, err := Connect(root)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.RegisterInMemoryStore("main"))
	stylePath := writeStylesheet(t, "*: roads\n")
	_, err = s.RegisterStylesheet(stylePath)
	require.NoError(t, err)

	tile := geo.QuadKey{Lod: 1, X: 0, Y: 0}
	var calledErr string
	s.GetDataByQuadKey("not-the-real-tag", stylePath, tile, 0, func(*api.Mesh) {}, func(*api.Element) {},
		func(msg string) { calledErr = msg }, api.NeverCancelled)

	assert.Contains(t, calledErr, "does not match")
}

func TestSafeExecuteSwallowsCancellationButReportsOtherErrors(t *testing.T) {
	var got string
	safeExecute(func(msg string) { got = msg }, func() error { return errs.Cancelled })
	assert.Empty(t, got)

	safeExecute(func(msg string) { got = msg }, func() error { return errors.New("boom") })
	assert.Equal(t, "boom", got)
}
