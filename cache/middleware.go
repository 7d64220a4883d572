package cache

import "context"

// ExecFunc produces a fresh payload on a cache miss or bypass.
type ExecFunc func(ctx context.Context) (any, error)

// Middleware wraps tool execution with the tiered store.
type Middleware struct {
	store *Store
	keyer Keyer
}

// NewMiddleware creates a cache middleware over the given store.
// If keyer is nil, DefaultKeyer is used.
func NewMiddleware(store *Store, keyer Keyer) *Middleware {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Middleware{store: store, keyer: keyer}
}

// Keyer returns the keyer used by the middleware.
func (m *Middleware) Keyer() Keyer {
	return m.keyer
}

// Do runs exec through the cache under the given key and tier.
//
// If the context carries a force-refresh directive, exec always runs and
// its result rewrites the cache so the entry stays warm. Otherwise a hit
// short-circuits execution entirely. Errors are never cached.
//
// The returned Entry is nil on the execute path and non-nil on a hit,
// carrying the stored-at metadata captured at write time.
func (m *Middleware) Do(ctx context.Context, key string, tier Tier, exec ExecFunc) (any, *Entry, error) {
	if ForceRefresh(ctx) {
		payload, err := exec(ctx)
		if err != nil {
			return nil, nil, err
		}
		m.store.Set(key, tier, payload)
		return payload, nil, nil
	}

	if entry, ok := m.store.Get(key, tier); ok {
		return entry.Payload, entry, nil
	}

	payload, err := exec(ctx)
	if err != nil {
		return nil, nil, err
	}
	m.store.Set(key, tier, payload)
	return payload, nil, nil
}

// DoNamed derives the key from (tool, caller, params) and runs Do.
func (m *Middleware) DoNamed(ctx context.Context, tool, caller string, params map[string]any, tier Tier, exec ExecFunc) (any, *Entry, error) {
	key, err := m.keyer.Key(tool, caller, params)
	if err != nil {
		// Key derivation failed - execute without caching
		payload, execErr := exec(ctx)
		if execErr != nil {
			return nil, nil, execErr
		}
		return payload, nil, nil
	}
	return m.Do(ctx, key, tier, exec)
}
