package papersources

import (
	"fmt"
	"sort"
	"sync"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// Registry is the lookup table of source adapters, keyed by source name.
// Concrete sources register here once at startup; the aggregator resolves
// names at call time. Thread-safe.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]PaperSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]PaperSource),
	}
}

// Register adds a source, replacing any existing source with the same name.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.Name()] = source
}

// Get returns a source by name.
func (r *Registry) Get(name string) (PaperSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, name)
	}
	return source, nil
}

// Names returns all registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledNames returns the names of enabled sources in sorted order.
func (r *Registry) EnabledNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name, source := range r.sources {
		if source.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// All returns every registered source. The slice is a snapshot; it is safe
// to iterate while sources are registered concurrently.
func (r *Registry) All() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}
	return sources
}
