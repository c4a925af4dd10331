// Package wire holds the binary codecs for elements, meshes, and bitmaps:
// ElementStream, MeshStream, BitmapStream. All three are pure io.Reader/
// io.Writer codecs so they compose with a tile file, a mesh-cache append
// stream, or an in-memory buffer alike.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/foss-geo/tileindex/api"
)

var byteOrder = binary.LittleEndian

// WriteElement serializes e: a 1-byte kind tag, id (u64), tag count (u16)
// and (keyId,valueId) pairs (u32,u32), then kind-specific geometry.
func WriteElement(w io.Writer, e *api.Element) error {
	if err := writeU8(w, uint8(e.Kind)); err != nil {
		return err
	}
	if err := writeU64(w, e.ID); err != nil {
		return err
	}
	if len(e.Tags) > 0xFFFF {
		return fmt.Errorf("element %d: %d tags exceeds u16 limit", e.ID, len(e.Tags))
	}
	if err := writeU16(w, uint16(len(e.Tags))); err != nil {
		return err
	}
	for _, t := range e.Tags {
		if err := writeU32(w, t.KeyID); err != nil {
			return err
		}
		if err := writeU32(w, t.ValueID); err != nil {
			return err
		}
	}

	switch e.Kind {
	case api.KindNode:
		if err := writeF64(w, e.Coord.Lat); err != nil {
			return err
		}
		return writeF64(w, e.Coord.Lon)
	case api.KindWay, api.KindArea:
		if len(e.Coords) > 0xFFFF {
			return fmt.Errorf("element %d: %d coords exceeds u16 limit", e.ID, len(e.Coords))
		}
		if err := writeU16(w, uint16(len(e.Coords))); err != nil {
			return err
		}
		for _, c := range e.Coords {
			if err := writeF64(w, c.Lat); err != nil {
				return err
			}
			if err := writeF64(w, c.Lon); err != nil {
				return err
			}
		}
		return nil
	case api.KindRelation:
		if len(e.Members) > 0xFFFF {
			return fmt.Errorf("element %d: %d members exceeds u16 limit", e.ID, len(e.Members))
		}
		if err := writeU16(w, uint16(len(e.Members))); err != nil {
			return err
		}
		for _, m := range e.Members {
			if err := WriteElement(w, m); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("element %d: unknown kind %d", e.ID, e.Kind)
	}
}

// ReadElement deserializes one element, the inverse of WriteElement.
func ReadElement(r io.Reader) (*api.Element, error) {
	kindByte, err := readU8(r)
	if err != nil {
		return nil, err
	}
	kind := api.ElementKind(kindByte)

	id, err := readU64(r)
	if err != nil {
		return nil, err
	}

	tagCount, err := readU16(r)
	if err != nil {
		return nil, err
	}
	var tags []api.Tag
	if tagCount > 0 {
		tags = make([]api.Tag, tagCount)
		for i := range tags {
			keyID, err := readU32(r)
			if err != nil {
				return nil, err
			}
			valueID, err := readU32(r)
			if err != nil {
				return nil, err
			}
			tags[i] = api.Tag{KeyID: keyID, ValueID: valueID}
		}
	}

	e := &api.Element{Kind: kind, ID: id, Tags: tags}

	switch kind {
	case api.KindNode:
		lat, err := readF64(r)
		if err != nil {
			return nil, err
		}
		lon, err := readF64(r)
		if err != nil {
			return nil, err
		}
		e.Coord = api.Coord{Lat: lat, Lon: lon}
	case api.KindWay, api.KindArea:
		count, err := readU16(r)
		if err != nil {
			return nil, err
		}
		coords := make([]api.Coord, count)
		for i := range coords {
			lat, err := readF64(r)
			if err != nil {
				return nil, err
			}
			lon, err := readF64(r)
			if err != nil {
				return nil, err
			}
			coords[i] = api.Coord{Lat: lat, Lon: lon}
		}
		e.Coords = coords
	case api.KindRelation:
		count, err := readU16(r)
		if err != nil {
			return nil, err
		}
		members := make([]*api.Element, count)
		for i := range members {
			m, err := ReadElement(r)
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		e.Members = members
	default:
		return nil, fmt.Errorf("element %d: unknown kind byte %d", id, kindByte)
	}

	return e, nil
}

func writeU8(w io.Writer, v uint8) error  { _, err := w.Write([]byte{v}); return err }
func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	byteOrder.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}
func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}
func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	byteOrder.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}
func writeF64(w io.Writer, v float64) error {
	return writeU64(w, math.Float64bits(v))
}

func readU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b[:]), nil
}
func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b[:]), nil
}
func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b[:]), nil
}
func readF64(r io.Reader) (float64, error) {
	bits, err := readU64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}
