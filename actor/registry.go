package actor

import "sync"

// MainDomain is the reserved domain name for the process's primary
// isolation context. It is registered when a registry is created, so
// work funneled through it always lands on the same single goroutine.
const MainDomain = "main"

// DomainState is the payload of registry-managed actors: default-
// constructible keyed storage, since domains are created without
// initializer arguments.
type DomainState = map[string]any

// Registry maps domain names to process-lifetime actors, created
// lazily and idempotently on first lookup.
type Registry struct {
	mu      sync.Mutex
	domains map[string]*Actor[DomainState]
}

// NewRegistry creates a registry with the main domain pre-registered.
func NewRegistry() *Registry {
	r := &Registry{domains: make(map[string]*Actor[DomainState])}
	r.Domain(MainDomain)
	return r
}

// Domain returns the actor for name, creating it on the first call.
// Repeated calls return the same instance for the registry's lifetime.
func (r *Registry) Domain(name string) *Actor[DomainState] {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.domains[name]
	if !ok {
		a = New(make(DomainState))
		r.domains[name] = a
	}
	return a
}

// Close stops every registered actor. The default registry is never
// closed; this exists for tests and embedded lifecycles that need a
// clean shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	domains := make([]*Actor[DomainState], 0, len(r.domains))
	for _, a := range r.domains {
		domains = append(domains, a)
	}
	r.mu.Unlock()
	for _, a := range domains {
		a.Close()
	}
}

// defaultRegistry is built on first use; domains held in it live for
// the rest of the process.
var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry() }

// Domain looks up a domain in the default registry.
func Domain(name string) *Actor[DomainState] { return Default().Domain(name) }

// Main returns the default registry's main domain.
func Main() *Actor[DomainState] { return Domain(MainDomain) }
