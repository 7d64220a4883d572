package cache

import (
	"fmt"
	"time"
)

// Tier is a named caching policy class with a fixed TTL.
//
// A tool declares its tier once at registration; every cached result for
// that tool is stored under exactly that tier.
type Tier int

const (
	// TierNone disables caching for the tool.
	TierNone Tier = iota
	// TierLive holds fast-moving operational data (current line status).
	TierLive
	// TierDaily holds data that changes over a shift (daily counts, trends).
	TierDaily
	// TierStatic holds master data that rarely changes (asset registry).
	TierStatic
)

// TTLs fixed per tier. Overridable only through Config, never per entry.
const (
	liveTTL   = 60 * time.Second
	dailyTTL  = 15 * time.Minute
	staticTTL = time.Hour
)

// Tiers lists the cacheable tiers in ascending TTL order.
var Tiers = []Tier{TierLive, TierDaily, TierStatic}

// TTL returns the fixed time-to-live for the tier. TierNone returns zero.
func (t Tier) TTL() time.Duration {
	switch t {
	case TierLive:
		return liveTTL
	case TierDaily:
		return dailyTTL
	case TierStatic:
		return staticTTL
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierLive:
		return "live"
	case TierDaily:
		return "daily"
	case TierStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name as used in configuration and tool metadata.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "none", "":
		return TierNone, nil
	case "live":
		return TierLive, nil
	case "daily":
		return TierDaily, nil
	case "static":
		return TierStatic, nil
	default:
		return TierNone, fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}
