// Package model defines the Model value and the registry that resolves
// (model id, provider) pairs. The registry is an explicit, passed-in object:
// construct one per process (or per test), register models during start-up,
// and treat it as read-only once concurrent traffic begins.
package model

import (
	"fmt"
	"sync"

	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

// Model describes one provider model: identity, supported capabilities, and
// the constraint attached to each supported parameter. Models are immutable
// once registered.
type Model struct {
	ID           string
	Provider     types.Provider
	DisplayName  string
	Capabilities []types.Capability
	Streaming    bool
	Constraints  map[types.Parameter]constraint.Constraint
}

// Supports reports whether the model declares the given capability.
func (m Model) Supports(capability types.Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Constraint returns the constraint declared for a parameter, or nil when the
// parameter has none (unconstrained parameters pass through unvalidated).
func (m Model) Constraint(parameter types.Parameter) constraint.Constraint {
	return m.Constraints[parameter]
}

// SupportedParameters returns the parameter names that carry a constraint.
func (m Model) SupportedParameters() []types.Parameter {
	params := make([]types.Parameter, 0, len(m.Constraints))
	for p := range m.Constraints {
		params = append(params, p)
	}
	return params
}

// Registry indexes models by (id, provider). Registration is expected to
// finish before lookups run concurrently; lookups afterwards are safe from
// any goroutine.
type Registry struct {
	mu     sync.RWMutex
	models map[registryKey]Model
}

type registryKey struct {
	id       string
	provider types.Provider
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[registryKey]Model)}
}

// Register adds models to the registry. Registering the same (id, provider)
// twice is a configuration error.
func (r *Registry) Register(models ...Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range models {
		key := registryKey{id: m.ID, provider: m.Provider}
		if _, exists := r.models[key]; exists {
			return fmt.Errorf("model %q for provider %s is already registered", m.ID, m.Provider)
		}
		r.models[key] = m
	}
	return nil
}

// Get resolves a model by id and provider.
func (r *Registry) Get(id string, provider types.Provider) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[registryKey{id: id, provider: provider}]
	if !ok {
		return Model{}, errs.NewModelNotFound(id, provider)
	}
	return m, nil
}

// List returns all registered models, optionally filtered by provider and/or
// capability. Zero-valued filters match everything.
func (r *Registry) List(provider types.Provider, capability types.Capability) []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Model
	for _, m := range r.models {
		if provider != "" && m.Provider != provider {
			continue
		}
		if capability != "" && !m.Supports(capability) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len reports the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
