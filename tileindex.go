// Package tileindex re-exports internal/session's Session at the module
// root, the host-facing entry point for connecting to a tile index.
package tileindex

import (
	"github.com/foss-geo/tileindex/internal/elevation"
	"github.com/foss-geo/tileindex/internal/geostore"
	"github.com/foss-geo/tileindex/internal/session"
)

// Session is the host-facing tile index handle: connect, register stores
// and stylesheets, ingest, and query.
type Session = session.Session

// Option configures Connect.
type Option = session.Option

// Connect opens (or creates) the tile index rooted at indexPath.
func Connect(indexPath string, opts ...Option) (*Session, error) {
	return session.Connect(indexPath, opts...)
}

// WithDirCreator overrides the directory-creation callback used when
// registering a stylesheet's mesh-cache directories.
func WithDirCreator(d session.DirCreator) Option { return session.WithDirCreator(d) }

// WithStylesheetParser overrides the stylesheet parser.
func WithStylesheetParser(p session.StylesheetParser) Option {
	return session.WithStylesheetParser(p)
}

// WithElementSource overrides the ingest source parser consulted by every
// AddData* operation.
func WithElementSource(src geostore.ElementSource) Option {
	return session.WithElementSource(src)
}

// WithGridElevation supplies the Grid elevation provider.
func WithGridElevation(g elevation.GridProvider) Option { return session.WithGridElevation(g) }

// WithSrtmElevation supplies the Srtm elevation provider.
func WithSrtmElevation(s elevation.SrtmProvider) Option { return session.WithSrtmElevation(s) }
