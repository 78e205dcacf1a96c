// Package mureka implements music generation against the Mureka song API.
// Generation is server-side async: POST /v1/song/generate submits the job,
// GET /v1/song/query/{id} reports status until the track is rendered. Billing
// credits appear only in the submission response, so submit-time usage is
// merged into the final result.
package mureka

import (
	"net/http"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

// Config assembles the Mureka music pipeline.
type Config struct {
	Client      *http.Client
	Auth        utils.Authenticator
	BaseURL     string
	Logger      observability.Logger
	Middlewares []pipeline.MiddlewareConfig
}

// NewPipeline builds the music-generation pipeline for Mureka.
func NewPipeline(config Config) (*pipeline.Pipeline, error) {
	var adapterOpts []AdapterOption
	if config.BaseURL != "" {
		adapterOpts = append(adapterOpts, WithBaseURL(config.BaseURL))
	}
	if config.Logger != nil {
		adapterOpts = append(adapterOpts, WithLogger(config.Logger))
	}

	return pipeline.New(pipeline.Config{
		Provider:   types.ProviderMureka,
		Capability: types.CapabilityMusicGeneration,
		Prompt: func(prompt any, _ model.Model) params.Request {
			// The prompt is the style description; lyrics arrive as a
			// parameter.
			return params.Request{"prompt": prompt}
		},
		Builder:     params.NewBuilder(Mappers()),
		Adapter:     NewAdapter(config.Client, config.Auth, adapterOpts...),
		Middlewares: config.Middlewares,
		Logger:      config.Logger,
	})
}

// Mappers returns the music-generation mapper chain.
func Mappers() []params.Mapper {
	return []params.Mapper{
		params.FieldMapper{Name: types.ParamLyrics, Field: "lyrics"},
		params.FieldMapper{Name: types.ParamReferenceID, Field: "reference_id"},
		params.FieldMapper{Name: types.ParamSeed, Field: "seed"},
		params.FieldMapper{Name: types.ParamDurationSecs, Field: "duration"},
	}
}
