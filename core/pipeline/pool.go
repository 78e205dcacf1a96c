package pipeline

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/withceleste/celeste-go/core/types"
)

// ClientFactory builds the *http.Client used for one provider. It runs at
// most once per provider per Pool.
type ClientFactory func(provider types.Provider) *http.Client

// Pool hands out one shared *http.Client per provider so connection reuse
// works across pipelines. Construction is deduplicated with singleflight:
// concurrent first requests for the same provider build a single client.
//
// Close releases idle connections; the Pool is unusable afterwards only by
// convention, Client still works but defeats the point of closing.
type Pool struct {
	group   singleflight.Group
	factory ClientFactory

	mu      sync.RWMutex
	clients map[types.Provider]*http.Client
}

// NewPool creates a Pool. The default factory sets connection-level timeouts
// but no overall request timeout: streams and polling loops outlive any fixed
// bound, so call lifetimes are governed by per-call contexts instead.
func NewPool(factory ClientFactory) *Pool {
	if factory == nil {
		factory = func(types.Provider) *http.Client {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.ResponseHeaderTimeout = 60 * time.Second
			return &http.Client{Transport: transport}
		}
	}
	return &Pool{factory: factory, clients: make(map[types.Provider]*http.Client)}
}

// Client returns the shared client for a provider, building it on first use.
func (p *Pool) Client(provider types.Provider) *http.Client {
	p.mu.RLock()
	client, ok := p.clients[provider]
	p.mu.RUnlock()
	if ok {
		return client
	}

	built, _, _ := p.group.Do(string(provider), func() (any, error) {
		p.mu.RLock()
		existing, ok := p.clients[provider]
		p.mu.RUnlock()
		if ok {
			return existing, nil
		}

		client := p.factory(provider)
		p.mu.Lock()
		p.clients[provider] = client
		p.mu.Unlock()
		return client, nil
	})
	return built.(*http.Client)
}

// Close drops all pooled clients and closes their idle connections.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, client := range p.clients {
		client.CloseIdleConnections()
	}
	p.clients = make(map[types.Provider]*http.Client)
}
