// Package credentials resolves provider API keys and builds authentication
// headers. Keys come from explicit configuration or from the environment,
// with an optional .env file loaded via godotenv for local development.
package credentials

import (
	"net/http"
	"os"
	"sync"

	"github.com/joho/godotenv"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

// Authentication applies provider credentials to an outbound request's
// headers. Implementations are immutable and safe to share.
type Authentication interface {
	Apply(header http.Header)
}

// BearerAuth sends "Authorization: Bearer <key>" (OpenAI, Mistral, Mureka).
type BearerAuth struct {
	Key string
}

// Apply implements Authentication.
func (a BearerAuth) Apply(header http.Header) {
	header.Set("Authorization", "Bearer "+a.Key)
}

// HeaderAuth sends the key in a provider-specific header
// (x-api-key for Anthropic, xi-api-key for ElevenLabs, x-key for BFL).
type HeaderAuth struct {
	Name string
	Key  string
}

// Apply implements Authentication.
func (a HeaderAuth) Apply(header http.Header) {
	header.Set(a.Name, a.Key)
}

// envVars maps each provider to the environment variable holding its key.
var envVars = map[types.Provider]string{
	types.ProviderOpenAI:     "OPENAI_API_KEY",
	types.ProviderAnthropic:  "ANTHROPIC_API_KEY",
	types.ProviderGoogle:     "GOOGLE_API_KEY",
	types.ProviderMistral:    "MISTRAL_API_KEY",
	types.ProviderCohere:     "COHERE_API_KEY",
	types.ProviderXAI:        "XAI_API_KEY",
	types.ProviderBFL:        "BFL_API_KEY",
	types.ProviderElevenLabs: "ELEVENLABS_API_KEY",
	types.ProviderMureka:     "MUREKA_API_KEY",
	types.ProviderLuma:       "LUMA_API_KEY",
	types.ProviderBytePlus:   "BYTEPLUS_API_KEY",
}

// headerStyles lists providers that authenticate with a custom header rather
// than a bearer token.
var headerStyles = map[types.Provider]string{
	types.ProviderAnthropic:  "x-api-key",
	types.ProviderElevenLabs: "xi-api-key",
	types.ProviderBFL:        "x-key",
	types.ProviderGoogle:     "x-goog-api-key",
}

// Resolver resolves provider credentials. Construct one per process; explicit
// keys override the environment.
type Resolver struct {
	mu   sync.RWMutex
	keys map[types.Provider]string
}

// NewResolver creates a Resolver. When loadDotenv is true, a .env file in the
// working directory is loaded first (missing files are fine).
func NewResolver(loadDotenv bool) *Resolver {
	if loadDotenv {
		_ = godotenv.Load()
	}
	return &Resolver{keys: make(map[types.Provider]string)}
}

// SetKey installs an explicit API key for a provider, overriding the
// environment.
func (r *Resolver) SetKey(provider types.Provider, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[provider] = key
}

// Resolve returns the Authentication for a provider, or
// MissingCredentialsError when no key can be found.
func (r *Resolver) Resolve(provider types.Provider) (Authentication, error) {
	r.mu.RLock()
	key := r.keys[provider]
	r.mu.RUnlock()

	envVar := envVars[provider]
	if key == "" && envVar != "" {
		key = os.Getenv(envVar)
	}
	if key == "" {
		return nil, errs.NewMissingCredentials(provider, envVar)
	}

	if headerName, custom := headerStyles[provider]; custom {
		return HeaderAuth{Name: headerName, Key: key}, nil
	}
	return BearerAuth{Key: key}, nil
}
