package registry

import "sync"

// ProviderFunc contributes one descriptor to discovery. Providers run
// only when Discover is called, never at init time, so contributing a
// broken descriptor cannot take down unrelated package initialization.
type ProviderFunc func() Descriptor

var (
	providersMu sync.Mutex
	providers   []ProviderFunc
)

// Provide registers a descriptor provider for discovery. Tool packages
// call this from init; the compile-time wiring replaces any runtime
// scanning of handler sources.
func Provide(p ProviderFunc) {
	if p == nil {
		return
	}
	providersMu.Lock()
	providers = append(providers, p)
	providersMu.Unlock()
}

// Discover registers every provided descriptor that is not already
// present and returns the count newly added. Idempotent: re-running skips
// names the registry already holds and never creates duplicates.
func (r *Registry) Discover() (int, error) {
	providersMu.Lock()
	snapshot := make([]ProviderFunc, len(providers))
	copy(snapshot, providers)
	providersMu.Unlock()

	added := 0
	for _, p := range snapshot {
		d := p()
		if _, exists := r.Get(d.Name); exists {
			continue
		}
		if err := r.Register(d); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// clearProviders drops all contributed providers. Test isolation only.
func clearProviders() {
	providersMu.Lock()
	providers = nil
	providersMu.Unlock()
}
