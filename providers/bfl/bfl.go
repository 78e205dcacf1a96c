// Package bfl implements image generation against the Black Forest Labs
// FLUX API. The API is server-side async: a POST submits the job and returns
// a polling URL, then status polls run until the image is ready.
package bfl

import (
	"net/http"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

// Config assembles the BFL image pipeline.
type Config struct {
	Client      *http.Client
	Auth        utils.Authenticator
	BaseURL     string
	Logger      observability.Logger
	Middlewares []pipeline.MiddlewareConfig
}

// NewPipeline builds the image-generation pipeline for BFL.
func NewPipeline(config Config) (*pipeline.Pipeline, error) {
	var adapterOpts []AdapterOption
	if config.BaseURL != "" {
		adapterOpts = append(adapterOpts, WithBaseURL(config.BaseURL))
	}
	if config.Logger != nil {
		adapterOpts = append(adapterOpts, WithLogger(config.Logger))
	}

	return pipeline.New(pipeline.Config{
		Provider:   types.ProviderBFL,
		Capability: types.CapabilityImageGeneration,
		Prompt: func(prompt any, _ model.Model) params.Request {
			return params.Request{"prompt": prompt}
		},
		Builder:     params.NewBuilder(Mappers(), Exclusions()...),
		Adapter:     NewAdapter(config.Client, config.Auth, adapterOpts...),
		Middlewares: config.Middlewares,
		Logger:      config.Logger,
	})
}
