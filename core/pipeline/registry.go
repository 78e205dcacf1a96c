package pipeline

import (
	"sync"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

type registryKey struct {
	capability types.Capability
	provider   types.Provider
}

// Registry routes calls to the pipeline registered for a
// (capability, provider) pair. It is an explicit object: construct one with
// NewRegistry and pass it where needed.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[registryKey]*Pipeline
}

// NewRegistry creates an empty pipeline registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[registryKey]*Pipeline)}
}

// Register installs pipelines, replacing any previous registration for the
// same (capability, provider) pair.
func (r *Registry) Register(pipelines ...*Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		r.pipelines[registryKey{capability: p.capability, provider: p.provider}] = p
	}
}

// Get returns the pipeline for a (capability, provider) pair, or
// ClientNotFoundError when none is registered.
func (r *Registry) Get(capability types.Capability, provider types.Provider) (*Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[registryKey{capability: capability, provider: provider}]
	if !ok {
		return nil, errs.NewClientNotFound(capability, provider)
	}
	return p, nil
}

// Len reports the number of registered pipelines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines)
}
