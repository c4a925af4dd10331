package session

import "os"

// DirCreator creates directories. spec.md §6 frames stylesheet-registration
// directory creation as "delegated to a host callback" across the
// language boundary; osDirCreator is the real, default implementation and
// the seam a host embedding this package across an FFI boundary would
// substitute its own callback for.
type DirCreator interface {
	MkdirAll(path string) error
}

type osDirCreator struct{}

func (osDirCreator) MkdirAll(path string) error { return os.MkdirAll(path, 0o755) }
