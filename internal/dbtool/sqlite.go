package dbtool

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// NewSQLiteBackend opens a project's sqlite database file read-write.
// The file must already exist; the browser never creates databases.
func NewSQLiteBackend(path string) (Backend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dbtool: sqlite database %q: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbtool: open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return &sqlBackend{
		db:         db,
		quote:      quoteDouble,
		listTables: `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	}, nil
}

func quoteDouble(ident string) string {
	return `"` + ident + `"`
}
