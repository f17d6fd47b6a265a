package dbtool

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// sqlBackend implements Backend over database/sql with per-dialect quoting
// and table listing supplied by the concrete sqlite/mysql types.
type sqlBackend struct {
	db         *sql.DB
	quote      func(ident string) string
	listTables string
}

func (b *sqlBackend) Tables(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, b.listTables)
	if err != nil {
		return nil, fmt.Errorf("dbtool: list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("dbtool: scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (b *sqlBackend) TableData(ctx context.Context, q TableQuery) (*TableData, error) {
	if err := checkIdentifier(q.Table); err != nil {
		return nil, err
	}

	perPage := q.PerPage
	if perPage == 0 {
		perPage = 50
	}
	page := q.Page
	if page == 0 {
		page = 1
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.quote(q.Table))
	// The where clause is a raw filter typed by the developer into their
	// own database browser; it is passed through as-is like a SQL console.
	if strings.TrimSpace(q.Where) != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Where)
	}
	if q.SortCol != "" {
		if err := checkIdentifier(q.SortCol); err != nil {
			return nil, err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.quote(q.SortCol))
		sb.WriteString(" ")
		sb.WriteString(normalizeSortDir(q.SortDir))
	}
	if !containsLimit(q.Where) {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(uint64(perPage), 10))
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatUint(uint64((page-1)*perPage), 10))
	}

	return b.query(ctx, sb.String())
}

func (b *sqlBackend) TotalRows(ctx context.Context, table, where string) (uint64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + b.quote(table)
	if w := strings.TrimSpace(stripLimit(where)); w != "" {
		query += " WHERE " + w
	}

	var count uint64
	if err := b.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("dbtool: count rows: %w", err)
	}
	return count, nil
}

// ExecuteQuery runs an arbitrary statement typed into the SQL panel.
// Row-returning statements come back as a result set; anything else
// reports affected rows.
func (b *sqlBackend) ExecuteQuery(ctx context.Context, query string) (*TableData, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("dbtool: empty query")
	}

	if isRowReturning(trimmed) {
		return b.query(ctx, trimmed)
	}

	res, err := b.db.ExecContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("dbtool: execute: %w", err)
	}
	affected, _ := res.RowsAffected()
	return &TableData{Columns: []ColumnDetail{}, Rows: []Row{}, Affected: uint64(affected)}, nil
}

func (b *sqlBackend) UpdateRow(ctx context.Context, table, pkColumn, pkValue string, data map[string]*string) (uint64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}
	if err := checkIdentifier(pkColumn); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("dbtool: no columns to update")
	}

	assignments := make([]string, 0, len(data))
	args := make([]any, 0, len(data)+1)
	for column, value := range data {
		if err := checkIdentifier(column); err != nil {
			return 0, err
		}
		assignments = append(assignments, b.quote(column)+" = ?")
		if value == nil {
			args = append(args, nil)
		} else {
			args = append(args, *value)
		}
	}
	args = append(args, pkValue)

	query := "UPDATE " + b.quote(table) + " SET " + strings.Join(assignments, ", ") +
		" WHERE " + b.quote(pkColumn) + " = ?"
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("dbtool: update row: %w", err)
	}
	affected, _ := res.RowsAffected()
	return uint64(affected), nil
}

func (b *sqlBackend) DeleteRow(ctx context.Context, table, pkColumn, pkValue string) (uint64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}
	if err := checkIdentifier(pkColumn); err != nil {
		return 0, err
	}

	query := "DELETE FROM " + b.quote(table) + " WHERE " + b.quote(pkColumn) + " = ?"
	res, err := b.db.ExecContext(ctx, query, pkValue)
	if err != nil {
		return 0, fmt.Errorf("dbtool: delete row: %w", err)
	}
	affected, _ := res.RowsAffected()
	return uint64(affected), nil
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

func (b *sqlBackend) query(ctx context.Context, query string) (*TableData, error) {
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dbtool: query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dbtool: columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("dbtool: column types: %w", err)
	}

	columns := make([]ColumnDetail, len(columnNames))
	for i, name := range columnNames {
		columns[i] = ColumnDetail{Name: name, Type: columnTypes[i].DatabaseTypeName()}
	}

	result := &TableData{Columns: columns, Rows: make([]Row, 0)}
	values := make([]any, len(columnNames))
	ptrs := make([]any, len(columnNames))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dbtool: scan row: %w", err)
		}
		row := make(Row, len(columnNames))
		for i, name := range columnNames {
			row[name] = stringifyValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func stringifyValue(v any) *string {
	if v == nil {
		return nil
	}
	var s string
	switch val := v.(type) {
	case []byte:
		s = string(val)
	case string:
		s = val
	default:
		s = fmt.Sprintf("%v", val)
	}
	return &s
}

func isRowReturning(query string) bool {
	head := strings.ToUpper(query)
	for _, prefix := range []string{"SELECT", "PRAGMA", "SHOW", "EXPLAIN", "WITH", "DESCRIBE"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

func containsLimit(where string) bool {
	return strings.Contains(strings.ToUpper(where), "LIMIT")
}

// stripLimit removes a trailing LIMIT from a filter so COUNT queries stay
// valid; the browse path honors the user's LIMIT instead of paging.
func stripLimit(where string) string {
	upper := strings.ToUpper(where)
	if idx := strings.LastIndex(upper, "LIMIT"); idx >= 0 {
		return strings.TrimSpace(where[:idx])
	}
	return where
}
