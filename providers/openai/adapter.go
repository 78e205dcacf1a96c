package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
)

const defaultBaseURL = "https://api.openai.com"

// Adapter speaks the OpenAI HTTP API, dispatching on the model's Strategy.
// It implements both the synchronous and the streaming protocol contracts.
type Adapter struct {
	client  *http.Client
	auth    utils.Authenticator
	baseURL string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithBaseURL overrides the API base URL, for proxies and tests.
func WithBaseURL(baseURL string) AdapterOption {
	return func(a *Adapter) { a.baseURL = baseURL }
}

// NewAdapter creates an Adapter. A nil client falls back to
// http.DefaultClient inside the transport helpers.
func NewAdapter(client *http.Client, auth utils.Authenticator, opts ...AdapterOption) *Adapter {
	a := &Adapter{client: client, auth: auth, baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send implements pipeline.ProtocolAdapter.
func (a *Adapter) Send(ctx context.Context, req pipeline.Request) (*types.Output, error) {
	strategy := StrategyFor(req.Model.ID)

	body := req.Body.Clone()
	body["model"] = req.Model.ID

	_, raw, err := utils.DoPostSync[map[string]any](ctx, a.client, types.ProviderOpenAI, a.baseURL+strategy.endpoint(), a.auth, body)
	if err != nil {
		return nil, err
	}

	if strategy == StrategyChatCompletions {
		return parseChatResponse(*raw)
	}
	return parseResponsesResponse(*raw)
}

// SendStream implements pipeline.StreamProtocolAdapter.
func (a *Adapter) SendStream(ctx context.Context, req pipeline.Request) (*stream.Aggregator, error) {
	strategy := StrategyFor(req.Model.ID)

	body := req.Body.Clone()
	body["model"] = req.Model.ID
	body["stream"] = true
	if strategy == StrategyChatCompletions {
		// Usage arrives in a final chunk only when asked for.
		body["stream_options"] = map[string]any{"include_usage": true}
	}

	response, err := utils.DoPostStream(ctx, a.client, types.ProviderOpenAI, a.baseURL+strategy.endpoint(), a.auth, body)
	if err != nil {
		return nil, err
	}

	parser := stream.ChunkParserFunc(parseResponsesChunk)
	if strategy == StrategyChatCompletions {
		parser = chatStreamParser()
	}

	opts := []stream.Option{
		stream.WithMetadata(map[string]any{
			"model":    req.Model.ID,
			"provider": string(types.ProviderOpenAI),
		}),
	}
	if req.Transform != nil {
		opts = append(opts, stream.WithTransform(req.Transform))
	}

	aggregator := stream.New(stream.SSE(response.Body), parser, opts...)
	aggregator.OnDone(func() { utils.CloseWithLog(response.Body) })
	return aggregator, nil
}

// parseResponsesResponse extracts content, usage and finish reason from a
// Responses API payload.
func parseResponsesResponse(raw map[string]any) (*types.Output, error) {
	output, _ := raw["output"].([]any)
	if len(output) == 0 {
		return nil, fmt.Errorf("no output in response")
	}

	var content string
	for _, item := range output {
		message, ok := item.(map[string]any)
		if !ok || message["type"] != "message" {
			continue
		}
		parts, _ := message["content"].([]any)
		for _, p := range parts {
			part, ok := p.(map[string]any)
			if !ok || part["type"] != "output_text" {
				continue
			}
			text, _ := part["text"].(string)
			content += text
		}
	}

	result := &types.Output{
		Content:  content,
		Usage:    parseResponsesUsage(raw["usage"]),
		Metadata: metadataExcluding(raw, "output"),
	}
	if status, _ := raw["status"].(string); status == "completed" {
		result.FinishReason = &types.FinishReason{Reason: "completed"}
	}
	return result, nil
}

// parseChatResponse extracts content, usage and finish reason from a Chat
// Completions payload.
func parseChatResponse(raw map[string]any) (*types.Output, error) {
	choices, _ := raw["choices"].([]any)
	if len(choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	choice, _ := choices[0].(map[string]any)
	message, _ := choice["message"].(map[string]any)
	content, _ := message["content"].(string)

	result := &types.Output{
		Content:  content,
		Usage:    parseChatUsage(raw["usage"]),
		Metadata: metadataExcluding(raw, "choices"),
	}
	if reason, _ := choice["finish_reason"].(string); reason != "" {
		result.FinishReason = &types.FinishReason{Reason: reason}
	}
	return result, nil
}

// parseResponsesChunk handles Responses API SSE events. Only text deltas and
// the completion event produce chunks; everything else is control noise.
func parseResponsesChunk(event stream.RawEvent) (*types.Chunk, error) {
	eventType, _ := event["type"].(string)
	switch eventType {
	case "response.output_text.delta":
		delta, ok := event["delta"].(string)
		if !ok {
			return nil, nil
		}
		return &types.Chunk{Content: delta, Metadata: event}, nil

	case "response.completed":
		response, _ := event["response"].(map[string]any)
		chunk := &types.Chunk{Content: "", Metadata: event}
		if usage := parseResponsesUsage(response["usage"]); !usage.IsZero() {
			chunk.Usage = utils.Ptr(usage)
		}
		if status, _ := response["status"].(string); status == "completed" {
			chunk.FinishReason = &types.FinishReason{Reason: "completed"}
		}
		return chunk, nil

	case "response.failed":
		response, _ := event["response"].(map[string]any)
		errObj, _ := response["error"].(map[string]any)
		message, _ := errObj["message"].(string)
		if message == "" {
			message = "response failed"
		}
		return nil, fmt.Errorf("openai stream: %s", message)
	}
	return nil, nil
}

// chatStreamParser adapts parseChatChunk to the include_usage protocol: the
// usage chunk arrives after the finish_reason chunk, so the finish reason is
// withheld and re-attached to that trailing chunk. The aggregator stops at
// the first finish reason it sees; surfacing it before usage would leave the
// usage event unread.
func chatStreamParser() stream.ChunkParserFunc {
	var pending *types.FinishReason
	return func(event stream.RawEvent) (*types.Chunk, error) {
		chunk, err := parseChatChunk(event)
		if err != nil || chunk == nil {
			return nil, err
		}
		if chunk.Usage != nil {
			if pending != nil {
				chunk.FinishReason = pending
				pending = nil
			}
			return chunk, nil
		}
		if chunk.FinishReason != nil {
			pending = chunk.FinishReason
			chunk.FinishReason = nil
			if content, _ := chunk.Content.(string); content == "" {
				return nil, nil
			}
		}
		return chunk, nil
	}
}

// parseChatChunk handles Chat Completions SSE events.
func parseChatChunk(event stream.RawEvent) (*types.Chunk, error) {
	choices, _ := event["choices"].([]any)
	if len(choices) == 0 {
		// The include_usage final chunk has no choices.
		if usage := parseChatUsage(event["usage"]); !usage.IsZero() {
			return &types.Chunk{Content: "", Usage: utils.Ptr(usage), Metadata: event}, nil
		}
		return nil, nil
	}

	choice, _ := choices[0].(map[string]any)
	delta, _ := choice["delta"].(map[string]any)
	content, _ := delta["content"].(string)

	chunk := &types.Chunk{Content: content, Metadata: event}
	if reason, _ := choice["finish_reason"].(string); reason != "" {
		chunk.FinishReason = &types.FinishReason{Reason: reason}
	}
	if chunk.Content == "" && chunk.FinishReason == nil {
		return nil, nil // role-only or empty delta
	}
	return chunk, nil
}

func parseResponsesUsage(raw any) types.Usage {
	usage, _ := raw.(map[string]any)
	if usage == nil {
		return types.Usage{}
	}
	inputDetails, _ := usage["input_tokens_details"].(map[string]any)
	outputDetails, _ := usage["output_tokens_details"].(map[string]any)
	return types.Usage{
		InputTokens:     intField(usage, "input_tokens"),
		OutputTokens:    intField(usage, "output_tokens"),
		TotalTokens:     intField(usage, "total_tokens"),
		CachedTokens:    intField(inputDetails, "cached_tokens"),
		ReasoningTokens: intField(outputDetails, "reasoning_tokens"),
	}
}

func parseChatUsage(raw any) types.Usage {
	usage, _ := raw.(map[string]any)
	if usage == nil {
		return types.Usage{}
	}
	return types.Usage{
		InputTokens:  intField(usage, "prompt_tokens"),
		OutputTokens: intField(usage, "completion_tokens"),
		TotalTokens:  intField(usage, "total_tokens"),
	}
}

// intField reads a numeric JSON field, tolerating the float64 decoding of
// encoding/json.
func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// metadataExcluding copies the payload minus its content-bearing fields.
func metadataExcluding(raw map[string]any, exclude ...string) map[string]any {
	metadata := make(map[string]any, len(raw))
	for k, v := range raw {
		metadata[k] = v
	}
	for _, key := range exclude {
		delete(metadata, key)
	}
	return metadata
}
