// Package openai implements text generation against the OpenAI HTTP API.
// Two API surfaces are supported, selected per model id by [StrategyFor]:
// the Responses API and the legacy Chat Completions API.
package openai

import (
	"net/http"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

// Config assembles the OpenAI text pipeline.
type Config struct {
	Client      *http.Client
	Auth        utils.Authenticator
	BaseURL     string
	Logger      observability.Logger
	Middlewares []pipeline.MiddlewareConfig
}

// NewPipeline builds the text-generation pipeline for OpenAI.
func NewPipeline(config Config) (*pipeline.Pipeline, error) {
	var adapterOpts []AdapterOption
	if config.BaseURL != "" {
		adapterOpts = append(adapterOpts, WithBaseURL(config.BaseURL))
	}

	return pipeline.New(pipeline.Config{
		Provider:    types.ProviderOpenAI,
		Capability:  types.CapabilityTextGeneration,
		Prompt:      foldPrompt,
		Builder:     params.NewBuilder(Mappers()),
		Adapter:     NewAdapter(config.Client, config.Auth, adapterOpts...),
		Middlewares: config.Middlewares,
		Logger:      config.Logger,
	})
}

// foldPrompt shapes the base request body for the model's API surface. A
// plain string becomes a single user turn; a []types.Message conversation is
// carried over turn by turn.
func foldPrompt(prompt any, m model.Model) params.Request {
	chat := StrategyFor(m.ID) == StrategyChatCompletions
	key := "input"
	if chat {
		key = "messages"
	}

	switch p := prompt.(type) {
	case []types.Message:
		turns := make([]any, 0, len(p))
		for _, message := range p {
			turns = append(turns, map[string]any{
				"role":    string(message.Role),
				"content": message.Content,
			})
		}
		return params.Request{key: turns}
	case string:
		return params.Request{key: []any{
			map[string]any{"role": "user", "content": p},
		}}
	default:
		return params.Request{key: prompt}
	}
}
