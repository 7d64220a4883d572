package cache

import "context"

// Context keys for per-call cache directives.
type contextKey int

const forceRefreshKey contextKey = iota

// WithForceRefresh returns a new context carrying the force-refresh
// directive. The directive is ambient by design: the layer invoking
// handlers cannot be relied on to forward extra parameters through to the
// wrapped function, and the flag must never appear in a tool's declared
// input schema.
func WithForceRefresh(ctx context.Context, force bool) context.Context {
	return context.WithValue(ctx, forceRefreshKey, force)
}

// ForceRefresh reports whether the context requests a cache bypass.
// Returns false if no directive is present.
func ForceRefresh(ctx context.Context) bool {
	force, _ := ctx.Value(forceRefreshKey).(bool)
	return force
}
