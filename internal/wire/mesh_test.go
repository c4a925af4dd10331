package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
)

func TestMeshStreamRoundTrip(t *testing.T) {
	m := &api.Mesh{
		Name:      "M",
		Vertices:  []float64{13.4, 52.5, 34.2, 13.41, 52.51, 34.5},
		Triangles: []int32{0, 1, 2},
		Colors:    []int32{-1, 0x000000FF}, // -1 is rgba 0xFFFFFFFF
		UVs:       []float64{0, 0, 1, 0, 1, 1},
		UVMap:     []int32{0, 1, 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMesh(&buf, m))
	got, err := ReadMesh(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.Triangles, got.Triangles)
	assert.Equal(t, m.Colors, got.Colors)
	assert.Equal(t, m.UVs, got.UVs)
	assert.Equal(t, m.UVMap, got.UVMap)
	require.Len(t, got.Vertices, len(m.Vertices))
	for i := range m.Vertices {
		assert.InDelta(t, m.Vertices[i], got.Vertices[i], 1e-6)
	}
}

func TestMeshStreamEmpty(t *testing.T) {
	m := &api.Mesh{Name: ""}
	var buf bytes.Buffer
	require.NoError(t, WriteMesh(&buf, m))
	got, err := ReadMesh(&buf)
	require.NoError(t, err)
	assert.Equal(t, "", got.Name)
	assert.Empty(t, got.Vertices)
}
