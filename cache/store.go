package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Entry is a single cached result. Entries are never mutated after Set;
// they are destroyed by TTL expiry, explicit invalidation, or LRU eviction.
type Entry struct {
	Key       string    `json:"key"`
	Tier      Tier      `json:"tier"`
	Payload   any       `json:"payload"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is a process-wide, tier-partitioned TTL cache.
//
// Each tier is an independent LRU partition with its own entry cap, so no
// tier can exhaust memory. Expiry is checked lazily on Get; an expired
// entry behaves exactly like a nonexistent one.
//
// Known race: population per key is not atomic. Two concurrent misses for
// the same key may both execute their handler and both write back, last
// write wins. Accepted given short TTLs and idempotent read-only handlers;
// callers must not rely on the store for single-flight de-duplication.
type Store struct {
	tiers  map[Tier]*lru.Cache[string, *Entry]
	config Config
	logger *zap.Logger

	// now is replaceable for TTL boundary tests.
	now func() time.Time

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

// NewStore creates a cache store partitioned per tier.
func NewStore(config Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tiers := make(map[Tier]*lru.Cache[string, *Entry], len(Tiers))
	for _, t := range Tiers {
		c, err := lru.New[string, *Entry](config.maxFor(t))
		if err != nil {
			return nil, fmt.Errorf("cache: tier %s: %w", t, err)
		}
		tiers[t] = c
	}

	logger = logger.With(zap.String("component", "cache"))
	logger.Info("cache store initialized",
		zap.Bool("enabled", config.Enabled),
		zap.Int("live_max", config.maxFor(TierLive)),
		zap.Int("daily_max", config.maxFor(TierDaily)),
		zap.Int("static_max", config.maxFor(TierStatic)),
	)

	return &Store{
		tiers:  tiers,
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get returns the entry stored under key if present and unexpired.
// Always a miss when the tier is TierNone or caching is disabled.
// Every call increments the hit or miss counter.
func (s *Store) Get(key string, tier Tier) (*Entry, bool) {
	part, ok := s.tiers[tier]
	if !s.config.Enabled || !ok {
		s.misses.Add(1)
		return nil, false
	}

	entry, ok := part.Get(key)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}

	if s.now().After(entry.ExpiresAt) {
		// Expired - clean up lazily, indistinguishable from nonexistent
		part.Remove(key)
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return entry, true
}

// Set stores payload under key, stamped with tier, stored-at and expiry.
// Overwrites any existing entry under the same key. A no-op when the tier
// is TierNone or caching is disabled.
func (s *Store) Set(key string, tier Tier, payload any) {
	part, ok := s.tiers[tier]
	if !s.config.Enabled || !ok {
		return
	}

	stored := s.now()
	part.Add(key, &Entry{
		Key:       key,
		Tier:      tier,
		Payload:   payload,
		StoredAt:  stored,
		ExpiresAt: stored.Add(s.config.ttlFor(tier)),
	})
}

// Selector picks cache entries for invalidation. Exactly one of Tier,
// Pattern or Tool must be set. Trigger is free text carried into the
// invalidation log line.
type Selector struct {
	// Tier clears an entire tier.
	Tier Tier
	// Pattern clears entries whose key contains the substring, all tiers.
	Pattern string
	// Tool clears every entry belonging to one tool name, all tiers.
	Tool string
	// Trigger names what caused the invalidation, for the audit log.
	Trigger string
}

func (sel Selector) validate() error {
	modes := 0
	if sel.Tier != TierNone {
		modes++
	}
	if sel.Pattern != "" {
		modes++
	}
	if sel.Tool != "" {
		modes++
	}
	if modes != 1 {
		return ErrInvalidSelector
	}
	return nil
}

// Invalidate removes every entry matched by the selector and returns the
// count removed. Idempotent: a second identical call reports 0.
func (s *Store) Invalidate(sel Selector) (int, error) {
	if err := sel.validate(); err != nil {
		return 0, err
	}

	count := 0
	switch {
	case sel.Tier != TierNone:
		if part, ok := s.tiers[sel.Tier]; ok {
			count = part.Len()
			part.Purge()
		}
	case sel.Pattern != "":
		count = s.removeMatching(func(key string) bool {
			return strings.Contains(key, sel.Pattern)
		})
	case sel.Tool != "":
		prefix := ToolPrefix(sel.Tool)
		count = s.removeMatching(func(key string) bool {
			return strings.HasPrefix(key, prefix)
		})
	}

	s.invalidations.Add(int64(count))
	s.logger.Info("cache invalidated",
		zap.Int("count", count),
		zap.String("tier", sel.Tier.String()),
		zap.String("pattern", sel.Pattern),
		zap.String("tool", sel.Tool),
		zap.String("trigger", sel.Trigger),
	)
	return count, nil
}

func (s *Store) removeMatching(match func(key string) bool) int {
	count := 0
	for _, part := range s.tiers {
		for _, key := range part.Keys() {
			if match(key) && part.Remove(key) {
				count++
			}
		}
	}
	return count
}

// Reset purges all tiers and zeroes the counters. Test/bootstrap only.
func (s *Store) Reset() {
	for _, part := range s.tiers {
		part.Purge()
	}
	s.hits.Store(0)
	s.misses.Store(0)
	s.invalidations.Store(0)
}

// Len returns the number of live entries in the tier. Expired entries not
// yet lazily evicted are included.
func (s *Store) Len(tier Tier) int {
	part, ok := s.tiers[tier]
	if !ok {
		return 0
	}
	return part.Len()
}

// Cap returns the configured entry cap for the tier.
func (s *Store) Cap(tier Tier) int {
	if _, ok := s.tiers[tier]; !ok {
		return 0
	}
	return s.config.maxFor(tier)
}

// Enabled reports whether caching is globally enabled.
func (s *Store) Enabled() bool {
	return s.config.Enabled
}

// Stats returns a point-in-time snapshot of cache statistics.
func (s *Store) Stats() Stats {
	byTier := make(map[string]int, len(s.tiers))
	total := 0
	for t, part := range s.tiers {
		n := part.Len()
		byTier[t.String()] = n
		total += n
	}

	hits := s.hits.Load()
	misses := s.misses.Load()
	return Stats{
		Entries:       total,
		EntriesByTier: byTier,
		Hits:          hits,
		Misses:        misses,
		Invalidations: s.invalidations.Load(),
		HitRate:       hitRate(hits, misses),
	}
}
