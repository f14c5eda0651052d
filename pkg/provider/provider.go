// Package provider defines the search provider abstraction and the
// concrete clients for the upstream search APIs.
package provider

import "context"

// Item is one raw search result as returned by a provider, before
// aggregation and markup stripping.
type Item struct {
	Title   string
	Link    string
	Snippet string
	Extra   map[string]string
}

// Provider is a single upstream search source.
type Provider interface {
	// Name returns the stable provider identifier used in stream events
	// and source attribution.
	Name() string
	// Search runs one query against the upstream API. Implementations
	// must honor ctx cancellation and return their raw items untrimmed;
	// per-provider caps are applied during aggregation.
	Search(ctx context.Context, query string) ([]Item, error)
}

// Result is the outcome of one provider call during fan-out.
type Result struct {
	Source string
	Items  []Item
	Err    error
}

// Registry holds the configured providers in registration order.
type Registry struct {
	order     []string
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering the same name twice keeps the
// latest provider but not a duplicate order slot.
func (r *Registry) Register(p Provider) {
	name := p.Name()
	if _, ok := r.providers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	return len(r.providers)
}
