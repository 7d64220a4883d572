package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process fixture source. It backs tests and bootstrap
// environments where no real store is configured.
type Memory struct {
	id string

	mu     sync.RWMutex
	tables map[string][]map[string]any

	// now is replaceable so tests can pin the freshness timestamp.
	now func() time.Time
}

// NewMemory creates a memory source over the given fixture tables.
func NewMemory(id string, tables map[string][]map[string]any) *Memory {
	if tables == nil {
		tables = make(map[string][]map[string]any)
	}
	return &Memory{id: id, tables: tables, now: time.Now}
}

// Name returns the source identifier.
func (m *Memory) Name() string {
	return m.id
}

// Query filters the fixture table by equality predicates.
func (m *Memory) Query(ctx context.Context, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &QueryError{SourceID: m.id, Table: q.Table, Timeout: true, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[q.Table]
	if !ok {
		return nil, &QueryError{SourceID: m.id, Table: q.Table, Err: fmt.Errorf("unknown table %q", q.Table)}
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if !matchesFilter(row, q.Filter) {
			continue
		}
		out = append(out, projectRow(row, q.Columns))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}

	return &Result{
		Rows: out,
		Provenance: Provenance{
			SourceID:  m.id,
			Table:     q.Table,
			QueriedAt: m.now(),
			RowCount:  len(out),
		},
	}, nil
}

// ResolveName fuzzily matches name against the distinct values of
// table.column.
func (m *Memory) ResolveName(ctx context.Context, table, column, name string) (*Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, &QueryError{SourceID: m.id, Table: table, Timeout: true, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, &QueryError{SourceID: m.id, Table: table, Err: fmt.Errorf("unknown table %q", table)}
	}

	seen := make(map[string]bool)
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		s, ok := row[column].(string)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}

	return Rank(name, values), nil
}

// Ping always succeeds; the fixture store is the process itself.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// SetTable replaces one fixture table. Test setup only.
func (m *Memory) SetTable(name string, rows []map[string]any) {
	m.mu.Lock()
	m.tables[name] = rows
	m.mu.Unlock()
}

func matchesFilter(row map[string]any, filter map[string]any) bool {
	for col, want := range filter {
		if row[col] != want {
			return false
		}
	}
	return true
}

func projectRow(row map[string]any, columns []string) map[string]any {
	out := make(map[string]any, len(row))
	if len(columns) == 0 {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

// Ensure Memory implements Source
var _ Source = (*Memory)(nil)
