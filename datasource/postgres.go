package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Postgres reads the plant historian or ERP-side store over bun.
// Strictly read-only: the source only ever builds SELECTs.
type Postgres struct {
	id string
	db *bun.DB
}

// OpenPostgres opens a Postgres source for the given DSN. The connection
// is lazy; use Ping to verify reachability at startup.
func OpenPostgres(id, dsn string) *Postgres {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &Postgres{id: id, db: bun.NewDB(sqldb, pgdialect.New())}
}

// Name returns the source identifier.
func (p *Postgres) Name() string {
	return p.id
}

// Query builds and executes a SELECT from the query spec.
func (p *Postgres) Query(ctx context.Context, q Query) (*Result, error) {
	if !validIdent(q.Table) {
		return nil, &QueryError{SourceID: p.id, Table: q.Table, Err: fmt.Errorf("invalid table %q", q.Table)}
	}

	sel := p.db.NewSelect().Table(q.Table)
	if len(q.Columns) > 0 {
		sel = sel.Column(q.Columns...)
	}
	for _, col := range sortedKeys(q.Filter) {
		sel = sel.Where("? = ?", bun.Ident(col), q.Filter[col])
	}
	if q.OrderBy != "" {
		col, dir := q.OrderBy, "ASC"
		if col[0] == '-' {
			col, dir = col[1:], "DESC"
		}
		sel = sel.OrderExpr("? ?", bun.Ident(col), bun.Safe(dir))
	}
	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}

	rows, err := sel.Rows(ctx)
	if err != nil {
		return nil, classify(p.id, q.Table, err)
	}

	mapped, err := scanRows(rows)
	if err != nil {
		return nil, classify(p.id, q.Table, err)
	}

	return &Result{
		Rows: mapped,
		Provenance: Provenance{
			SourceID:  p.id,
			Table:     q.Table,
			QueriedAt: time.Now(),
			RowCount:  len(mapped),
		},
	}, nil
}

// ResolveName fuzzily matches name against the distinct values of
// table.column.
func (p *Postgres) ResolveName(ctx context.Context, table, column, name string) (*Match, error) {
	if !validIdent(table) || !validIdent(column) {
		return nil, &QueryError{SourceID: p.id, Table: table, Err: fmt.Errorf("invalid identifier %s.%s", table, column)}
	}

	rows, err := p.db.NewSelect().
		Table(table).
		ColumnExpr("DISTINCT ?", bun.Ident(column)).
		Where("? IS NOT NULL", bun.Ident(column)).
		Limit(resolveScanLimit).
		Rows(ctx)
	if err != nil {
		return nil, classify(p.id, table, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, classify(p.id, table, err)
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(p.id, table, err)
	}

	return Rank(name, values), nil
}

// Ping verifies the store is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return &ConnectionError{SourceID: p.id, Err: err}
	}
	return nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ensure Postgres implements Source
var _ Source = (*Postgres)(nil)
