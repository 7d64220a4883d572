package health

import (
	"context"
	"fmt"

	"github.com/rotationalphysics495/plantops/cache"
)

// DefaultPressureThreshold is the tier fill ratio above which the cache
// is reported degraded.
const DefaultPressureThreshold = 0.9

// CacheChecker inspects the response cache for capacity pressure.
// A full tier still works, it just evicts aggressively, so pressure is
// degraded rather than unhealthy.
type CacheChecker struct {
	store     *cache.Store
	threshold float64
}

var _ Checker = (*CacheChecker)(nil)

// NewCacheChecker creates a checker over the given store. A threshold
// outside (0, 1] falls back to DefaultPressureThreshold.
func NewCacheChecker(store *cache.Store, threshold float64) *CacheChecker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultPressureThreshold
	}
	return &CacheChecker{store: store, threshold: threshold}
}

// Name returns the checker name.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check reports tier occupancy and flags tiers under capacity pressure.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if !c.store.Enabled() {
		return Healthy("cache disabled")
	}

	details := make(map[string]any, len(cache.Tiers))
	var pressured []string
	for _, tier := range cache.Tiers {
		length, capacity := c.store.Len(tier), c.store.Cap(tier)
		details[tier.String()] = fmt.Sprintf("%d/%d", length, capacity)
		if capacity > 0 && float64(length) >= c.threshold*float64(capacity) {
			pressured = append(pressured, tier.String())
		}
	}

	if len(pressured) > 0 {
		return Degraded(fmt.Sprintf("tiers near capacity: %v", pressured)).WithDetails(details)
	}
	return Healthy("cache within capacity").WithDetails(details)
}
