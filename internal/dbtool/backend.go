package dbtool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ColumnDetail describes one column of a result set.
type ColumnDetail struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row maps column name to value; nil means SQL NULL. All values are
// stringified for transport, the browser panel renders text only.
type Row map[string]*string

// TableData is a page of rows plus column metadata.
type TableData struct {
	Columns  []ColumnDetail `json:"columns"`
	Rows     []Row          `json:"rows"`
	Affected uint64         `json:"affected,omitempty"`
}

// TableQuery are the browse parameters for one table page.
type TableQuery struct {
	Table   string
	Page    uint
	PerPage uint
	Where   string
	SortCol string
	SortDir string
}

// Backend executes queries against one project database. Implementations
// exist for sqlite and mysql; which one a project gets is resolved from its
// saved credentials or its .env.
type Backend interface {
	Tables(ctx context.Context) ([]string, error)
	TableData(ctx context.Context, q TableQuery) (*TableData, error)
	TotalRows(ctx context.Context, table, where string) (uint64, error)
	ExecuteQuery(ctx context.Context, query string) (*TableData, error)
	UpdateRow(ctx context.Context, table, pkColumn, pkValue string, data map[string]*string) (uint64, error)
	DeleteRow(ctx context.Context, table, pkColumn, pkValue string) (uint64, error)
	Close() error
}

// Credentials select and parameterize a backend.
type Credentials struct {
	Connection string `json:"connection"`
	Host       string `json:"host,omitempty"`
	Port       string `json:"port,omitempty"`
	Database   string `json:"database"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

var errBadIdentifier = errors.New("dbtool: invalid identifier")

// checkIdentifier rejects table/column names that would escape quoting.
// Values are the user's own databases, but a stray quote must not produce
// runaway SQL.
func checkIdentifier(name string) error {
	if name == "" {
		return errBadIdentifier
	}
	if strings.ContainsAny(name, "`\"'\x00;") {
		return fmt.Errorf("%w: %q", errBadIdentifier, name)
	}
	return nil
}

func normalizeSortDir(dir string) string {
	if strings.EqualFold(dir, "desc") {
		return "DESC"
	}
	return "ASC"
}
