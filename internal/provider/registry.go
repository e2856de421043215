// Package provider manages external compressor CLI processes. Each
// provider is a command invoked once per compression attempt: the full
// prompt goes to stdin, the candidate artifact comes back on stdout, and
// success is inferred solely from the exit status.
package provider

import (
	"sort"
	"sync"

	"github.com/stylebook/tiermill/internal/domain"
)

// Spec describes a compressor provider's command and environment.
type Spec struct {
	Name    domain.Provider
	Command string
	Args    []string
	Env     map[string]string
}

// Registry is a thread-safe registry of provider specifications.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.Provider]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.Provider]Spec),
	}
}

// Register adds a provider spec to the registry.
// Returns ErrProviderUnavailable if a provider with the same name is already registered.
func (r *Registry) Register(spec Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[spec.Name]; exists {
		return domain.WrapPipelineError(
			domain.ErrProviderUnavailable.Code,
			"provider already registered",
			nil,
		)
	}
	r.providers[spec.Name] = spec
	return nil
}

// Override replaces the command of an existing provider, keeping its
// args and env. Used by the --claude-cmd flag.
func (r *Registry) Override(name domain.Provider, command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	spec, ok := r.providers[name]
	if !ok {
		return domain.ErrProviderUnavailable
	}
	spec.Command = command
	r.providers[name] = spec
	return nil
}

// Get returns the spec for the named provider, or ErrProviderUnavailable if not found.
func (r *Registry) Get(name domain.Provider) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.providers[name]
	if !ok {
		return Spec{}, domain.ErrProviderUnavailable
	}
	return spec, nil
}

// List returns all registered provider names in sorted order.
func (r *Registry) List() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]domain.Provider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return string(names[i]) < string(names[j])
	})
	return names
}
