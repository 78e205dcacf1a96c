// Package celeste is one programmatic interface to many independent
// generation services: text, image, speech, and music today. It normalizes
// three completion models (single response, streamed events, submit/poll)
// behind one consumption contract and translates capability-level parameters
// into each provider's request shape under per-model constraints.
package celeste

import (
	"context"
	"sync"
	"time"

	"github.com/withceleste/celeste-go/core/cost"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/pipeline/middleware"
	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/credentials"
	"github.com/withceleste/celeste-go/observability"
	"github.com/withceleste/celeste-go/providers/bfl"
	"github.com/withceleste/celeste-go/providers/elevenlabs"
	"github.com/withceleste/celeste-go/providers/mureka"
	"github.com/withceleste/celeste-go/providers/openai"
)

// Client is the top-level entry point. It owns the model catalogue, the
// per-provider HTTP pool, credential resolution, and one pipeline per
// (capability, provider) pair, built lazily on first use.
type Client struct {
	models    *model.Registry
	pipelines *pipeline.Registry
	pool      *pipeline.Pool
	resolver  *credentials.Resolver
	logger    observability.Logger

	callTimeout time.Duration
	pricing     *cost.Table
	tracker     *cost.Tracker

	mu sync.Mutex
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger        observability.Logger
	loadDotenv    bool
	apiKeys       map[types.Provider]string
	clientFactory pipeline.ClientFactory
	callTimeout   time.Duration
	extraModels   []model.Model
	pricing       *cost.Table
	tracker       *cost.Tracker
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithDotenv loads a .env file from the working directory before resolving
// credentials from the environment.
func WithDotenv() Option {
	return func(o *clientOptions) { o.loadDotenv = true }
}

// WithAPIKey installs an explicit API key for a provider, overriding the
// environment.
func WithAPIKey(provider types.Provider, key string) Option {
	return func(o *clientOptions) {
		if o.apiKeys == nil {
			o.apiKeys = make(map[types.Provider]string)
		}
		o.apiKeys[provider] = key
	}
}

// WithHTTPClientFactory overrides how per-provider HTTP clients are built.
func WithHTTPClientFactory(factory pipeline.ClientFactory) Option {
	return func(o *clientOptions) { o.clientFactory = factory }
}

// WithCallTimeout adds a timeout middleware bounding every generation call,
// including the full lifetime of streams.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.callTimeout = timeout }
}

// WithModels registers additional models beyond the built-in catalogue.
func WithModels(models ...model.Model) Option {
	return func(o *clientOptions) { o.extraModels = append(o.extraModels, models...) }
}

// WithPricing enables cost calculation: priced calls carry a "cost" entry in
// the Output metadata.
func WithPricing(table *cost.Table) Option {
	return func(o *clientOptions) { o.pricing = table }
}

// WithCostTracker accumulates every priced call into the tracker. Implies
// nothing without WithPricing.
func WithCostTracker(tracker *cost.Tracker) Option {
	return func(o *clientOptions) { o.tracker = tracker }
}

// New creates a Client with the built-in model catalogue.
func New(opts ...Option) (*Client, error) {
	options := &clientOptions{logger: observability.Nop()}
	for _, opt := range opts {
		opt(options)
	}

	models := model.NewRegistry()
	catalogue := openai.Models()
	catalogue = append(catalogue, bfl.Models()...)
	catalogue = append(catalogue, mureka.Models()...)
	catalogue = append(catalogue, elevenlabs.Models()...)
	catalogue = append(catalogue, options.extraModels...)
	if err := models.Register(catalogue...); err != nil {
		return nil, err
	}

	resolver := credentials.NewResolver(options.loadDotenv)
	for provider, key := range options.apiKeys {
		resolver.SetKey(provider, key)
	}

	return &Client{
		models:      models,
		pipelines:   pipeline.NewRegistry(),
		pool:        pipeline.NewPool(options.clientFactory),
		resolver:    resolver,
		logger:      options.logger,
		callTimeout: options.callTimeout,
		pricing:     options.pricing,
		tracker:     options.tracker,
	}, nil
}

// Models returns the model catalogue.
func (c *Client) Models() *model.Registry { return c.models }

// Close releases pooled HTTP connections.
func (c *Client) Close() { c.pool.Close() }

// Generate performs one synchronous generation call.
func (c *Client) Generate(ctx context.Context, capability types.Capability, provider types.Provider, modelID string, prompt any, p params.Params) (*types.Output, error) {
	m, err := c.models.Get(modelID, provider)
	if err != nil {
		return nil, err
	}
	pl, err := c.pipelineFor(capability, provider)
	if err != nil {
		return nil, err
	}

	output, err := pl.Generate(observability.ContextWith(ctx, c.logger), m, prompt, p)
	if err != nil {
		return nil, err
	}
	c.price(m, output)
	return output, nil
}

// price attaches the calculated call cost to the output metadata and feeds
// the session tracker, when pricing is configured.
func (c *Client) price(m model.Model, output *types.Output) {
	if c.pricing == nil || output == nil {
		return
	}
	calculated, ok := c.pricing.Calculate(m.ID, m.Provider, output.Usage)
	if !ok {
		return
	}
	if output.Metadata == nil {
		output.Metadata = make(map[string]any)
	}
	output.Metadata["cost"] = calculated
	if c.tracker != nil {
		c.tracker.Add(calculated)
	}
}

// Stream performs one streaming generation call. The returned aggregator
// yields chunks in arrival order and produces the final Output once drained.
func (c *Client) Stream(ctx context.Context, capability types.Capability, provider types.Provider, modelID string, prompt any, p params.Params) (*stream.Aggregator, error) {
	m, err := c.models.Get(modelID, provider)
	if err != nil {
		return nil, err
	}
	pl, err := c.pipelineFor(capability, provider)
	if err != nil {
		return nil, err
	}
	return pl.Stream(observability.ContextWith(ctx, c.logger), m, prompt, p)
}

// GenerateText is shorthand for Generate with the text capability.
func (c *Client) GenerateText(ctx context.Context, provider types.Provider, modelID string, prompt any, p params.Params) (*types.Output, error) {
	return c.Generate(ctx, types.CapabilityTextGeneration, provider, modelID, prompt, p)
}

// StreamText is shorthand for Stream with the text capability.
func (c *Client) StreamText(ctx context.Context, provider types.Provider, modelID string, prompt any, p params.Params) (*stream.Aggregator, error) {
	return c.Stream(ctx, types.CapabilityTextGeneration, provider, modelID, prompt, p)
}

// GenerateImage is shorthand for Generate with the image capability.
func (c *Client) GenerateImage(ctx context.Context, provider types.Provider, modelID string, prompt string, p params.Params) (*types.Output, error) {
	return c.Generate(ctx, types.CapabilityImageGeneration, provider, modelID, prompt, p)
}

// GenerateSpeech is shorthand for Generate with the speech capability.
func (c *Client) GenerateSpeech(ctx context.Context, provider types.Provider, modelID string, text string, p params.Params) (*types.Output, error) {
	return c.Generate(ctx, types.CapabilitySpeechGeneration, provider, modelID, text, p)
}

// GenerateMusic is shorthand for Generate with the music capability.
func (c *Client) GenerateMusic(ctx context.Context, provider types.Provider, modelID string, prompt string, p params.Params) (*types.Output, error) {
	return c.Generate(ctx, types.CapabilityMusicGeneration, provider, modelID, prompt, p)
}

// pipelineFor returns the pipeline for a (capability, provider) pair,
// building and caching it on first use. Credential resolution happens here,
// so a missing key surfaces as MissingCredentialsError on the first call
// rather than at client construction.
func (c *Client) pipelineFor(capability types.Capability, provider types.Provider) (*pipeline.Pipeline, error) {
	if pl, err := c.pipelines.Get(capability, provider); err == nil {
		return pl, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have built it while we waited.
	if pl, err := c.pipelines.Get(capability, provider); err == nil {
		return pl, nil
	}

	pl, err := c.buildPipeline(capability, provider)
	if err != nil {
		return nil, err
	}
	c.pipelines.Register(pl)
	return pl, nil
}

func (c *Client) buildPipeline(capability types.Capability, provider types.Provider) (*pipeline.Pipeline, error) {
	auth, err := c.resolver.Resolve(provider)
	if err != nil {
		return nil, err
	}

	httpClient := c.pool.Client(provider)
	middlewares := []pipeline.MiddlewareConfig{
		middleware.NewLoggingMiddleware(c.logger),
	}
	if c.callTimeout > 0 {
		middlewares = append([]pipeline.MiddlewareConfig{
			middleware.NewTimeoutMiddleware(c.callTimeout),
		}, middlewares...)
	}

	switch {
	case capability == types.CapabilityTextGeneration && provider == types.ProviderOpenAI:
		return openai.NewPipeline(openai.Config{
			Client: httpClient, Auth: auth, Logger: c.logger, Middlewares: middlewares,
		})
	case capability == types.CapabilityImageGeneration && provider == types.ProviderBFL:
		return bfl.NewPipeline(bfl.Config{
			Client: httpClient, Auth: auth, Logger: c.logger, Middlewares: middlewares,
		})
	case capability == types.CapabilityMusicGeneration && provider == types.ProviderMureka:
		return mureka.NewPipeline(mureka.Config{
			Client: httpClient, Auth: auth, Logger: c.logger, Middlewares: middlewares,
		})
	case capability == types.CapabilitySpeechGeneration && provider == types.ProviderElevenLabs:
		return elevenlabs.NewPipeline(elevenlabs.Config{
			Client: httpClient, Auth: auth, Logger: c.logger, Middlewares: middlewares,
		})
	}

	// No adapter exists for the pair; report through the registry's error.
	_, err = c.pipelines.Get(capability, provider)
	return nil, err
}
