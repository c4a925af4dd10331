package session

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/foss-geo/tileindex/internal/errs"
)

// catalog is a small bookkeeping sidecar recording what a Session has
// registered, so a later Connect against the same index root recovers
// prior registrations instead of requiring the host to replay them. It
// never stores elements, tokens, or geometry — those stay on the flat-file
// layout under the index root. Same temp-file-free, WAL-mode sqlite
// sidecar pattern as the teacher's MemoryStore.InitRefsDB, minus the
// virtual table (there is nothing here for a vtab to project).
type catalog struct {
	db *sql.DB
}

func openCatalog(root string) (*catalog, error) {
	path := filepath.Join(root, "catalog.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.IoError("open catalog", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errs.IoError("set WAL mode on catalog", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS stores (
			key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			data_path TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS stylesheets (
			path TEXT PRIMARY KEY,
			tag TEXT NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, errs.IoError("create catalog tables", err)
	}
	return &catalog{db: db}, nil
}

func (c *catalog) close() error { return c.db.Close() }

func (c *catalog) recordStore(key, kind, dataPath string) error {
	_, err := c.db.Exec(
		`INSERT INTO stores(key, kind, data_path) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET kind=excluded.kind, data_path=excluded.data_path`,
		key, kind, dataPath,
	)
	if err != nil {
		return errs.IoError("record store in catalog", err)
	}
	return nil
}

func (c *catalog) recordStylesheet(path, tag string) error {
	_, err := c.db.Exec(
		`INSERT INTO stylesheets(path, tag) VALUES(?, ?)
		 ON CONFLICT(path) DO UPDATE SET tag=excluded.tag`,
		path, tag,
	)
	if err != nil {
		return errs.IoError("record stylesheet in catalog", err)
	}
	return nil
}

type storeRecord struct {
	key, kind, dataPath string
}

func (c *catalog) listStores() ([]storeRecord, error) {
	rows, err := c.db.Query(`SELECT key, kind, data_path FROM stores`)
	if err != nil {
		return nil, errs.IoError("list stores from catalog", err)
	}
	defer func() { _ = rows.Close() }()

	var out []storeRecord
	for rows.Next() {
		var r storeRecord
		if err := rows.Scan(&r.key, &r.kind, &r.dataPath); err != nil {
			return nil, errs.IoError("scan store record", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.IoError("iterate store records", err)
	}
	return out, nil
}

func (c *catalog) countStylesheets() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM stylesheets`).Scan(&n); err != nil {
		return 0, errs.IoError("count stylesheets", err)
	}
	return n, nil
}

func (c *catalog) lookupStylesheetTag(path string) (string, bool, error) {
	var tag string
	err := c.db.QueryRow(`SELECT tag FROM stylesheets WHERE path = ?`, path).Scan(&tag)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.IoError("lookup stylesheet tag", err)
	}
	return tag, true, nil
}

const (
	storeKindMemory     = "memory"
	storeKindPersistent = "persistent"
)

func unknownStoreKind(kind string) error {
	return errs.ConfigError(fmt.Sprintf("catalog: unknown store kind %q", kind), nil)
}
