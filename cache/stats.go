package cache

// Stats holds cache performance counters.
type Stats struct {
	Entries       int            `json:"entries"`
	EntriesByTier map[string]int `json:"entries_by_tier"`
	Hits          int64          `json:"hits"`
	Misses        int64          `json:"misses"`
	Invalidations int64          `json:"invalidations"`
	// HitRate is hits/(hits+misses) as a percentage, 0 when no lookups
	// have happened yet.
	HitRate float64 `json:"hit_rate"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
