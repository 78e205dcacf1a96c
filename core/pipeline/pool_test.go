package pipeline

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withceleste/celeste-go/core/types"
)

func TestPool_OneClientPerProvider(t *testing.T) {
	var builds int
	pool := NewPool(func(types.Provider) *http.Client {
		builds++
		return &http.Client{}
	})

	a := pool.Client(types.ProviderOpenAI)
	b := pool.Client(types.ProviderOpenAI)
	c := pool.Client(types.ProviderBFL)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, builds)
}

func TestPool_DefaultFactory(t *testing.T) {
	pool := NewPool(nil)
	client := pool.Client(types.ProviderOpenAI)
	require.NotNil(t, client)

	// No overall timeout: streaming and polling calls are bounded by their
	// contexts, not by the client.
	assert.Zero(t, client.Timeout)
}

func TestPool_ConcurrentFirstUse(t *testing.T) {
	var mu sync.Mutex
	var builds int
	pool := NewPool(func(types.Provider) *http.Client {
		mu.Lock()
		builds++
		mu.Unlock()
		return &http.Client{}
	})

	var wg sync.WaitGroup
	clients := make([]*http.Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i] = pool.Client(types.ProviderOpenAI)
		}(i)
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
	assert.Equal(t, 1, builds)
}

func TestPool_Close(t *testing.T) {
	var builds int
	pool := NewPool(func(types.Provider) *http.Client {
		builds++
		return &http.Client{}
	})

	pool.Client(types.ProviderOpenAI)
	pool.Close()

	// A new client is built after Close.
	pool.Client(types.ProviderOpenAI)
	assert.Equal(t, 2, builds)
}
