package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/foss-geo/tileindex/api"
)

const coordScale = 1e7

// WriteMesh serializes m: name as a \0-terminated string, then vertices
// packed as (lon:i32*1e7, lat:i32*1e7, elev:f32) triples, then triangles,
// colors, uvs, and uvMap each as a u32 count followed by raw elements.
// The vertex packing discards sub-1e7 coordinate precision and stores
// elevation as f32 — a deliberate precision tradeoff, not a bug.
func WriteMesh(w io.Writer, m *api.Mesh) error {
	if _, err := io.WriteString(w, m.Name); err != nil {
		return err
	}
	if err := writeU8(w, 0); err != nil {
		return err
	}

	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("mesh %q: vertex buffer length %d not a multiple of 3", m.Name, len(m.Vertices))
	}
	triples := len(m.Vertices) / 3
	if err := writeU32(w, uint32(triples)); err != nil {
		return err
	}
	for i := 0; i < triples; i++ {
		lon, lat, elev := m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]
		if err := writeI32(w, int32(math.Round(lon*coordScale))); err != nil {
			return err
		}
		if err := writeI32(w, int32(math.Round(lat*coordScale))); err != nil {
			return err
		}
		if err := writeF32(w, float32(elev)); err != nil {
			return err
		}
	}

	if err := writeI32Slice(w, m.Triangles); err != nil {
		return err
	}
	if err := writeI32Slice(w, m.Colors); err != nil {
		return err
	}
	if err := writeF64SliceAsRaw(w, m.UVs); err != nil {
		return err
	}
	return writeI32Slice(w, m.UVMap)
}

// ReadMesh deserializes a mesh, the inverse of WriteMesh.
func ReadMesh(r io.Reader) (*api.Mesh, error) {
	name, err := readCString(r)
	if err != nil {
		return nil, err
	}

	triples, err := readU32(r)
	if err != nil {
		return nil, err
	}
	vertices := make([]float64, 0, int(triples)*3)
	for i := uint32(0); i < triples; i++ {
		lon, err := readI32(r)
		if err != nil {
			return nil, err
		}
		lat, err := readI32(r)
		if err != nil {
			return nil, err
		}
		elev, err := readF32(r)
		if err != nil {
			return nil, err
		}
		vertices = append(vertices, float64(lon)/coordScale, float64(lat)/coordScale, float64(elev))
	}

	triangles, err := readI32Slice(r)
	if err != nil {
		return nil, err
	}
	colors, err := readI32Slice(r)
	if err != nil {
		return nil, err
	}
	uvs, err := readF64SliceFromRaw(r)
	if err != nil {
		return nil, err
	}
	uvMap, err := readI32Slice(r)
	if err != nil {
		return nil, err
	}

	return &api.Mesh{
		Name:      name,
		Vertices:  vertices,
		Triangles: triangles,
		Colors:    colors,
		UVs:       uvs,
		UVMap:     uvMap,
	}, nil
}

func readCString(r io.Reader) (string, error) {
	var buf []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}

func writeI32(w io.Writer, v int32) error  { return writeU32(w, uint32(v)) }
func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func writeF32(w io.Writer, v float32) error { return writeU32(w, math.Float32bits(v)) }
func readF32(r io.Reader) (float32, error) {
	v, err := readU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func writeI32Slice(w io.Writer, s []int32) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	for _, v := range s {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readI32Slice(r io.Reader) ([]int32, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	for i := range out {
		v, err := readI32(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// writeF64SliceAsRaw writes the uv buffer as a u32 count of float64
// elements followed by their raw little-endian bytes, per the MeshStream
// "raw little-endian elements" contract in spec.md §4.6 (uvs are the one
// buffer the spec does not mandate lossy i32/f32 packing for).
func writeF64SliceAsRaw(w io.Writer, s []float64) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	for _, v := range s {
		if err := writeF64(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readF64SliceFromRaw(r io.Reader) ([]float64, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := range out {
		v, err := readF64(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
