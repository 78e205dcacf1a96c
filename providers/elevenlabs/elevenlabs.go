// Package elevenlabs implements speech generation against the ElevenLabs
// text-to-speech API. The endpoint answers with raw audio bytes rather than
// JSON, and the voice travels in the URL path rather than the request body.
package elevenlabs

import (
	"net/http"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

// Config assembles the ElevenLabs speech pipeline.
type Config struct {
	Client      *http.Client
	Auth        utils.Authenticator
	BaseURL     string
	Logger      observability.Logger
	Middlewares []pipeline.MiddlewareConfig
}

// NewPipeline builds the speech-generation pipeline for ElevenLabs.
func NewPipeline(config Config) (*pipeline.Pipeline, error) {
	var adapterOpts []AdapterOption
	if config.BaseURL != "" {
		adapterOpts = append(adapterOpts, WithBaseURL(config.BaseURL))
	}

	return pipeline.New(pipeline.Config{
		Provider:   types.ProviderElevenLabs,
		Capability: types.CapabilitySpeechGeneration,
		Prompt: func(prompt any, _ model.Model) params.Request {
			return params.Request{"text": prompt}
		},
		Builder:     params.NewBuilder(Mappers()),
		Adapter:     NewAdapter(config.Client, config.Auth, adapterOpts...),
		Middlewares: config.Middlewares,
		Logger:      config.Logger,
	})
}
