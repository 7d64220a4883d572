package cache

import "time"

// DefaultMaxEntries is the per-tier entry cap applied when none is configured.
const DefaultMaxEntries = 1024

// Config configures the cache store.
type Config struct {
	// Enabled globally enables or disables caching. When false every
	// lookup is a miss and writes are dropped.
	Enabled bool

	// MaxEntries caps the number of entries per tier. Each tier evicts
	// least-recently-used entries independently once its cap is reached.
	// Tiers absent from the map use DefaultMaxEntries.
	MaxEntries map[Tier]int

	// TTLOverrides replaces the fixed TTL of a tier. Tiers absent from
	// the map keep Tier.TTL. A tool's tier itself is never overridable.
	TTLOverrides map[Tier]time.Duration
}

// DefaultConfig returns the default cache configuration.
// Enabled, DefaultMaxEntries per tier, fixed tier TTLs.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// maxFor returns the entry cap for the tier.
func (c Config) maxFor(t Tier) int {
	if n, ok := c.MaxEntries[t]; ok && n > 0 {
		return n
	}
	return DefaultMaxEntries
}

// ttlFor returns the effective TTL for the tier, applying overrides.
func (c Config) ttlFor(t Tier) time.Duration {
	if ttl, ok := c.TTLOverrides[t]; ok && ttl > 0 {
		return ttl
	}
	return t.TTL()
}
