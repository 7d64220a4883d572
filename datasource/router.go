package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Router is a composite Source dispatching reads by operation category.
// Categories without a dedicated source fall back to the default source,
// so a single-store deployment needs no category map at all.
type Router struct {
	def        Source
	byCategory map[Category]Source
	logger     *zap.Logger
}

// NewRouter creates a composite source. def may be nil only if every
// category used at runtime has a dedicated source.
func NewRouter(def Source, byCategory map[Category]Source, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		def:        def,
		byCategory: byCategory,
		logger:     logger.With(zap.String("component", "datasource")),
	}
}

// Name identifies the composite in logs. Provenance always carries the
// concrete source id, never the router's.
func (r *Router) Name() string {
	return "router"
}

func (r *Router) route(c Category) Source {
	if src, ok := r.byCategory[c]; ok {
		return src
	}
	return r.def
}

// Query dispatches to the source configured for the query's category.
func (r *Router) Query(ctx context.Context, q Query) (*Result, error) {
	src := r.route(q.Category)
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, q.Category)
	}
	r.logger.Debug("routing query",
		zap.String("category", string(q.Category)),
		zap.String("source", src.Name()),
		zap.String("table", q.Table),
	)
	return src.Query(ctx, q)
}

// ResolveName resolves against the master-data source.
func (r *Router) ResolveName(ctx context.Context, table, column, name string) (*Match, error) {
	src := r.route(CategoryMaster)
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, CategoryMaster)
	}
	return src.ResolveName(ctx, table, column, name)
}

// Ping fans out to every distinct source concurrently and returns the
// first failure.
func (r *Router) Ping(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range r.Sources() {
		src := src
		g.Go(func() error {
			return src.Ping(ctx)
		})
	}
	return g.Wait()
}

// Sources returns the distinct sources behind the router.
func (r *Router) Sources() []Source {
	seen := make(map[string]bool)
	out := make([]Source, 0, len(r.byCategory)+1)
	if r.def != nil {
		seen[r.def.Name()] = true
		out = append(out, r.def)
	}
	for _, src := range r.byCategory {
		if seen[src.Name()] {
			continue
		}
		seen[src.Name()] = true
		out = append(out, src)
	}
	return out
}

// Ensure Router implements Source
var _ Source = (*Router)(nil)
