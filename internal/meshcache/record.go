package meshcache

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/wire"
)

const (
	recordElement byte = 0
	recordMesh    byte = 1
)

func writeElementRecord(w io.Writer, e *api.Element) error {
	if _, err := w.Write([]byte{recordElement}); err != nil {
		return err
	}
	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], e.ID)
	if _, err := w.Write(idBuf[:]); err != nil {
		return err
	}
	return wire.WriteElement(w, e)
}

func writeMeshRecord(w io.Writer, m *api.Mesh) error {
	if _, err := w.Write([]byte{recordMesh}); err != nil {
		return err
	}
	return wire.WriteMesh(w, m)
}

// readRecord reads one typed record, invoking onElement/onMesh as
// appropriate. Returns io.EOF when the stream is exhausted cleanly.
func readRecord(r io.Reader, onElement func(*api.Element), onMesh func(*api.Mesh)) error {
	var typeBuf [1]byte
	if _, err := io.ReadFull(r, typeBuf[:]); err != nil {
		return err // propagates io.EOF
	}

	switch typeBuf[0] {
	case recordElement:
		var idBuf [8]byte
		if _, err := io.ReadFull(r, idBuf[:]); err != nil {
			return err
		}
		e, err := wire.ReadElement(r)
		if err != nil {
			return err
		}
		onElement(e)
		return nil
	case recordMesh:
		m, err := wire.ReadMesh(r)
		if err != nil {
			return err
		}
		onMesh(m)
		return nil
	default:
		return fmt.Errorf("mesh cache: unrecognized record type byte %d", typeBuf[0])
	}
}
