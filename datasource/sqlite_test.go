package datasource

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func newSQLiteFixture(t *testing.T) *SQLite {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// In-memory SQLite is per-connection; keep a single one.
	db.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE assets (name TEXT, line TEXT, status TEXT)`,
		`INSERT INTO assets VALUES ('Grinder 5', 'L3', 'running')`,
		`INSERT INTO assets VALUES ('Grinder 7', 'L3', 'down')`,
		`INSERT INTO assets VALUES ('Press 1', 'L1', 'running')`,
		`CREATE TABLE downtime_events (line TEXT, reason TEXT)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}

	return NewSQLiteFromDB("edge-db", db)
}

func TestSQLite_Query(t *testing.T) {
	src := newSQLiteFixture(t)

	res, err := src.Query(context.Background(), Query{
		Table:   "assets",
		Filter:  map[string]any{"line": "L3"},
		OrderBy: "name",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if res.Provenance.RowCount != 2 {
		t.Errorf("row count = %d, want 2", res.Provenance.RowCount)
	}
	if res.Provenance.SourceID != "edge-db" || res.Provenance.Table != "assets" {
		t.Errorf("provenance = %+v", res.Provenance)
	}
	if res.Rows[0]["name"] != "Grinder 5" {
		t.Errorf("rows[0] = %v", res.Rows[0])
	}
}

func TestSQLite_ZeroRows(t *testing.T) {
	src := newSQLiteFixture(t)

	res, err := src.Query(context.Background(), Query{Table: "downtime_events"})
	if err != nil {
		t.Fatalf("zero rows must not error, got %v", err)
	}
	if res.Provenance.RowCount != 0 || len(res.Rows) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSQLite_BadQueryClassified(t *testing.T) {
	src := newSQLiteFixture(t)

	_, err := src.Query(context.Background(), Query{Table: "missing_table"})
	if !IsQuery(err) {
		t.Fatalf("expected QueryError, got %v", err)
	}
}

func TestSQLite_TimeoutIsQueryError(t *testing.T) {
	src := newSQLiteFixture(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := src.Query(ctx, Query{Table: "assets"})
	if err == nil {
		t.Fatal("expected error for expired deadline")
	}
	if !IsQuery(err) {
		t.Fatalf("deadline must classify as QueryError, got %v", err)
	}
}

func TestSQLite_ResolveName(t *testing.T) {
	src := newSQLiteFixture(t)
	ctx := context.Background()

	match, err := src.ResolveName(ctx, "assets", "name", "grindr 5")
	if err != nil {
		t.Fatalf("ResolveName() error = %v", err)
	}
	if match.Best == nil || match.Best.Value != "Grinder 5" {
		t.Errorf("best = %+v, want Grinder 5", match.Best)
	}

	match, err = src.ResolveName(ctx, "assets", "name", "qqqq")
	if err != nil {
		t.Fatal(err)
	}
	if match.Best != nil || len(match.Alternates) != 0 {
		t.Errorf("no-match = %+v, want empty", match)
	}
}

func TestSQLite_Ping(t *testing.T) {
	src := newSQLiteFixture(t)
	if err := src.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
