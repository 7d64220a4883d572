package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite reads an embedded SQLite store, typically the edge-side plant
// snapshot. Strictly read-only: the source only ever issues SELECTs.
type SQLite struct {
	id string
	db *sql.DB
}

// OpenSQLite opens a SQLite source for the given DSN.
func OpenSQLite(id, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &ConnectionError{SourceID: id, Err: err}
	}
	return &SQLite{id: id, db: db}, nil
}

// NewSQLiteFromDB wraps an existing handle. The caller keeps ownership of
// the handle's lifecycle when using this constructor for tests.
func NewSQLiteFromDB(id string, db *sql.DB) *SQLite {
	return &SQLite{id: id, db: db}
}

// Name returns the source identifier.
func (s *SQLite) Name() string {
	return s.id
}

// Query executes a parameterized SELECT assembled from the query spec.
func (s *SQLite) Query(ctx context.Context, q Query) (*Result, error) {
	stmt, args, err := buildSelect(q)
	if err != nil {
		return nil, &QueryError{SourceID: s.id, Table: q.Table, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(s.id, q.Table, err)
	}

	mapped, err := scanRows(rows)
	if err != nil {
		return nil, classify(s.id, q.Table, err)
	}

	return &Result{
		Rows: mapped,
		Provenance: Provenance{
			SourceID:  s.id,
			Table:     q.Table,
			QueriedAt: time.Now(),
			RowCount:  len(mapped),
		},
	}, nil
}

// ResolveName fuzzily matches name against the distinct values of
// table.column.
func (s *SQLite) ResolveName(ctx context.Context, table, column, name string) (*Match, error) {
	if !validIdent(table) || !validIdent(column) {
		return nil, &QueryError{SourceID: s.id, Table: table, Err: fmt.Errorf("invalid identifier %s.%s", table, column)}
	}

	stmt := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		column, table, column, resolveScanLimit)
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, classify(s.id, table, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, classify(s.id, table, err)
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(s.id, table, err)
	}

	return Rank(name, values), nil
}

// Ping verifies the store file is readable.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &ConnectionError{SourceID: s.id, Err: err}
	}
	return nil
}

// Close releases the underlying handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ensure SQLite implements Source
var _ Source = (*SQLite)(nil)
