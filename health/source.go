package health

import (
	"context"
	"time"

	"github.com/rotationalphysics495/plantops/datasource"
)

// DefaultPingTimeout bounds a single source reachability probe.
const DefaultPingTimeout = 3 * time.Second

// SourceChecker probes a data source for reachability.
type SourceChecker struct {
	source  datasource.Source
	timeout time.Duration
}

var _ Checker = (*SourceChecker)(nil)

// NewSourceChecker creates a checker over the given source. A
// non-positive timeout falls back to DefaultPingTimeout.
func NewSourceChecker(src datasource.Source, timeout time.Duration) *SourceChecker {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &SourceChecker{source: src, timeout: timeout}
}

// Name returns the checker name, derived from the source identifier.
func (c *SourceChecker) Name() string {
	return "source:" + c.source.Name()
}

// Check pings the source within the configured timeout. An unreachable
// source is unhealthy; everything else is healthy.
func (c *SourceChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.source.Ping(ctx); err != nil {
		return Unhealthy("source unreachable", err).WithDetails(map[string]any{
			"source": c.source.Name(),
		})
	}
	return Healthy("source reachable").WithDetails(map[string]any{
		"source": c.source.Name(),
	})
}
