package datasource

import (
	"context"
	"time"
)

// Category classifies a read operation for composite routing.
type Category string

const (
	// CategoryProduction covers live and historical production records.
	CategoryProduction Category = "production"
	// CategoryMaintenance covers work orders and downtime events.
	CategoryMaintenance Category = "maintenance"
	// CategoryQuality covers defect and scrap records.
	CategoryQuality Category = "quality"
	// CategoryMaster covers slow-moving master data (assets, lines, shifts).
	CategoryMaster Category = "master"
)

// Query describes a single read operation.
type Query struct {
	// Category routes the query when a composite source is in play.
	Category Category
	// Table is the table or collection to read.
	Table string
	// Columns restricts the projection. Empty means all columns.
	Columns []string
	// Filter holds equality predicates, column name to required value.
	Filter map[string]any
	// OrderBy is an optional column to sort by, descending when prefixed
	// with "-".
	OrderBy string
	// Limit caps the number of rows returned. Zero means no cap.
	Limit int
}

// Provenance identifies which store and timestamp produced a record set.
type Provenance struct {
	SourceID  string    `json:"source_id"`
	Table     string    `json:"table"`
	QueriedAt time.Time `json:"queried_at"`
	RowCount  int       `json:"row_count"`
}

// Result is a data-source response annotated with provenance.
// A Result with zero rows is valid and citable; it is never fabricated
// and never an error.
type Result struct {
	Rows       []map[string]any `json:"rows"`
	Provenance Provenance       `json:"provenance"`
}

// Source is a read-only view over one backing store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: unreachable stores return *ConnectionError without retrying;
//   malformed queries and timeouts return *QueryError; an empty record set
//   is a Result with RowCount=0, not an error.
type Source interface {
	// Name returns the stable source identifier used in provenance.
	Name() string

	// Query executes a read and returns the annotated result.
	Query(ctx context.Context, q Query) (*Result, error)

	// ResolveName fuzzily resolves a free-text name against the distinct
	// values of table.column. A no-match returns a Match with nil Best
	// and empty Alternates, not an error.
	ResolveName(ctx context.Context, table, column, name string) (*Match, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
