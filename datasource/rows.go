package datasource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// resolveScanLimit caps the distinct values fetched for fuzzy resolution.
const resolveScanLimit = 500

// validIdent accepts plain SQL identifiers only. Queries assembled from
// tool parameters never interpolate anything else.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// buildSelect assembles a parameterized SELECT for stores driven through
// database/sql placeholders.
func buildSelect(q Query) (string, []any, error) {
	if !validIdent(q.Table) {
		return "", nil, fmt.Errorf("invalid table %q", q.Table)
	}

	cols := "*"
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if !validIdent(c) {
				return "", nil, fmt.Errorf("invalid column %q", c)
			}
		}
		cols = strings.Join(q.Columns, ", ")
	}

	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, q.Table)

	if len(q.Filter) > 0 {
		preds := make([]string, 0, len(q.Filter))
		for _, col := range sortedKeys(q.Filter) {
			if !validIdent(col) {
				return "", nil, fmt.Errorf("invalid filter column %q", col)
			}
			preds = append(preds, col+" = ?")
			args = append(args, q.Filter[col])
		}
		b.WriteString(" WHERE " + strings.Join(preds, " AND "))
	}

	if q.OrderBy != "" {
		col, dir := strings.TrimPrefix(q.OrderBy, "-"), "ASC"
		if strings.HasPrefix(q.OrderBy, "-") {
			dir = "DESC"
		}
		if !validIdent(col) {
			return "", nil, fmt.Errorf("invalid order column %q", col)
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", col, dir)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

// sortedKeys keeps predicate order deterministic for logging and tests.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// scanRows reads every row into a generic column map.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// classify maps a database/sql error into the package taxonomy.
func classify(sourceID, table string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &QueryError{SourceID: sourceID, Table: table, Timeout: true, Err: err}
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return &ConnectionError{SourceID: sourceID, Err: err}
	default:
		return &QueryError{SourceID: sourceID, Table: table, Err: err}
	}
}
