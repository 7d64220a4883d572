package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rotationalphysics495/plantops/cache"
	"github.com/rotationalphysics495/plantops/datasource"
)

// Handler executes one named query against the data-source abstraction.
// Handlers are strictly read-only and must tolerate re-execution: the
// cache layer may run two identical calls concurrently.
type Handler func(ctx context.Context, params map[string]any, src datasource.Source) (*datasource.Result, error)

// Descriptor declares one tool. Immutable after registration; it lives
// for the process lifetime.
type Descriptor struct {
	// Name uniquely identifies the tool.
	Name string
	// Description is surfaced to upstream routing layers.
	Description string
	// InputSchema is the JSON schema of the declared parameters. Control
	// directives such as force-refresh are never part of it.
	InputSchema json.RawMessage
	// Tier fixes the cache tier for every result of this tool.
	Tier cache.Tier
	// RequiresCitation marks tools whose responses must carry provenance.
	RequiresCitation bool
	// Handler runs the query.
	Handler Handler
}

func (d Descriptor) validate() error {
	if d.Name == "" || d.Handler == nil {
		return ErrInvalidDescriptor
	}
	return nil
}

// Registry holds the process's tool descriptors.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Immutability: descriptors are never modified after Register.
// - Lookup: Get never fabricates a handler for an unknown name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Descriptor
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Descriptor)}
}

// Register adds a descriptor. A duplicate name fails with
// ErrDuplicateTool; callers treat that as fatal at startup.
func (r *Registry) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]
	return d, ok
}

// List returns all descriptors in registration/discovery order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Reset clears all registrations. Test/bootstrap only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]Descriptor)
	r.order = nil
}
