// Package cache provides tier-partitioned, deterministic caching for tool
// executions.
//
// It provides a TTL Store partitioned into fixed tiers (live, daily, static)
// with per-tier LRU eviction, SHA-256-based key derivation scoped to caller
// identity, hit/miss statistics, selector-based invalidation, and a
// context-carried force-refresh bypass.
package cache
