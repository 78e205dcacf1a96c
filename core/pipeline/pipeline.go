// Package pipeline composes a parameter builder, a protocol adapter, and a
// response parser into one capability client. A Pipeline handles exactly one
// (provider, capability) pair; the Registry routes calls to the right one.
package pipeline

import (
	"context"
	"fmt"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/observability"
)

// Request is the fully built provider invocation threaded through the
// middleware chain to the protocol adapter.
type Request struct {
	Model  model.Model
	Body   params.Request
	Params params.Params

	// Transform is applied by streaming adapters to the aggregated content
	// once the stream exhausts. Synchronous adapters ignore it; the pipeline
	// applies the same transforms itself after Send returns.
	Transform stream.Transform
}

// ProtocolAdapter sends one built request over a concrete wire protocol and
// returns the parsed Output. One implementation exists per protocol: a plain
// JSON round-trip, an SSE stream, or a submit/poll task loop.
type ProtocolAdapter interface {
	Send(ctx context.Context, req Request) (*types.Output, error)
}

// StreamProtocolAdapter is implemented by adapters whose protocol supports
// incremental delivery. Adapters without it fall back to a one-chunk stream
// wrapped around the synchronous Send.
type StreamProtocolAdapter interface {
	ProtocolAdapter
	SendStream(ctx context.Context, req Request) (*stream.Aggregator, error)
}

// PromptFunc folds the user prompt into the provider's base request body,
// before parameter mapping runs. The model is passed because some providers
// shape the base body differently per model family.
type PromptFunc func(prompt any, m model.Model) params.Request

// Config assembles a Pipeline.
type Config struct {
	Provider   types.Provider
	Capability types.Capability

	// Prompt folds the call's prompt into the base request body. Required.
	Prompt PromptFunc

	// Builder maps capability parameters onto the base body. Required.
	Builder *params.Builder

	// Adapter performs the wire call. Required.
	Adapter ProtocolAdapter

	// Middlewares wrap the adapter, outermost first.
	Middlewares []MiddlewareConfig

	// Logger defaults to observability.Nop.
	Logger observability.Logger
}

// Pipeline is a single-capability generation client for one provider.
type Pipeline struct {
	provider   types.Provider
	capability types.Capability
	prompt     PromptFunc
	builder    *params.Builder
	logger     observability.Logger

	send       SendFunc
	sendStream StreamFunc
}

// New validates the config and builds the middleware chains.
func New(config Config) (*Pipeline, error) {
	if config.Prompt == nil {
		return nil, fmt.Errorf("pipeline %s/%s: Prompt is required", config.Provider, config.Capability)
	}
	if config.Builder == nil {
		return nil, fmt.Errorf("pipeline %s/%s: Builder is required", config.Provider, config.Capability)
	}
	if config.Adapter == nil {
		return nil, fmt.Errorf("pipeline %s/%s: Adapter is required", config.Provider, config.Capability)
	}
	for i, mw := range config.Middlewares {
		if mw.Send == nil {
			return nil, fmt.Errorf("pipeline %s/%s: middleware %d has nil Send", config.Provider, config.Capability, i)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	return &Pipeline{
		provider:   config.Provider,
		capability: config.Capability,
		prompt:     config.Prompt,
		builder:    config.Builder,
		logger:     logger,
		send:       buildSendChain(config.Adapter, config.Middlewares),
		sendStream: buildStreamChain(config.Adapter, config.Middlewares),
	}, nil
}

// Provider returns the provider this pipeline talks to.
func (p *Pipeline) Provider() types.Provider { return p.provider }

// Capability returns the capability this pipeline serves.
func (p *Pipeline) Capability() types.Capability { return p.capability }

// Generate performs one synchronous generation call: validate the model and
// parameters, build the wire request, send it, and apply the mappers' output
// transforms to the returned content.
func (p *Pipeline) Generate(ctx context.Context, m model.Model, prompt any, callParams params.Params) (*types.Output, error) {
	req, err := p.buildRequest(m, prompt, callParams)
	if err != nil {
		return nil, err
	}

	p.logger.Debug(ctx, "generation call",
		observability.String(observability.AttrProvider, string(p.provider)),
		observability.String(observability.AttrCapability, string(p.capability)),
		observability.String(observability.AttrModel, m.ID),
		observability.Bool(observability.AttrStreaming, false),
	)

	output, err := p.send(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed, err := p.builder.ParseOutput(output.Content, callParams)
	if err != nil {
		return nil, err
	}
	output.Content = parsed
	return output, nil
}

// Stream performs one streaming generation call. Models that do not support
// streaming return StreamingNotSupportedError. Adapters without native
// streaming deliver the synchronous result as a one-chunk stream.
func (p *Pipeline) Stream(ctx context.Context, m model.Model, prompt any, callParams params.Params) (*stream.Aggregator, error) {
	if !m.Streaming {
		return nil, errs.NewStreamingNotSupported(m.ID)
	}

	req, err := p.buildRequest(m, prompt, callParams)
	if err != nil {
		return nil, err
	}
	req.Transform = func(content any) (any, error) {
		return p.builder.ParseOutput(content, callParams)
	}

	p.logger.Debug(ctx, "generation call",
		observability.String(observability.AttrProvider, string(p.provider)),
		observability.String(observability.AttrCapability, string(p.capability)),
		observability.String(observability.AttrModel, m.ID),
		observability.Bool(observability.AttrStreaming, true),
	)

	return p.sendStream(ctx, req)
}

func (p *Pipeline) buildRequest(m model.Model, prompt any, callParams params.Params) (Request, error) {
	if !m.Supports(p.capability) {
		return Request{}, errs.NewUnsupportedCapability(m.ID, p.capability)
	}
	if m.Provider != p.provider {
		return Request{}, errs.NewModelNotFound(m.ID, p.provider)
	}

	body, err := p.builder.Build(p.prompt(prompt, m), m, callParams)
	if err != nil {
		return Request{}, err
	}

	return Request{Model: m, Body: body, Params: callParams}, nil
}
