package openai

import (
	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/types"
)

// Models returns the built-in OpenAI text model catalogue. Callers register
// these with a model.Registry; the list is a fresh slice on every call.
func Models() []model.Model {
	textConstraints := map[types.Parameter]constraint.Constraint{
		types.ParamTemperature:  constraint.Range{Min: 0, Max: 2},
		types.ParamTopP:         constraint.Range{Min: 0, Max: 1},
		types.ParamMaxTokens:    constraint.Int{},
		types.ParamSeed:         constraint.Int{},
		types.ParamSystemPrompt: constraint.Str{},
		types.ParamOutputFormat: constraint.Choice{Options: []string{"text", "markdown"}},
		types.ParamOutputSchema: constraint.Schema{},
	}

	return []model.Model{
		{
			ID:          "gpt-5",
			Provider:    types.ProviderOpenAI,
			DisplayName: "GPT-5",
			Capabilities: []types.Capability{
				types.CapabilityTextGeneration,
			},
			Streaming:   true,
			Constraints: textConstraints,
		},
		{
			ID:          "gpt-5-mini",
			Provider:    types.ProviderOpenAI,
			DisplayName: "GPT-5 Mini",
			Capabilities: []types.Capability{
				types.CapabilityTextGeneration,
			},
			Streaming:   true,
			Constraints: textConstraints,
		},
		{
			ID:          "gpt-4o",
			Provider:    types.ProviderOpenAI,
			DisplayName: "GPT-4o",
			Capabilities: []types.Capability{
				types.CapabilityTextGeneration,
			},
			Streaming:   true,
			Constraints: textConstraints,
		},
		{
			ID:          "gpt-4o-mini",
			Provider:    types.ProviderOpenAI,
			DisplayName: "GPT-4o Mini",
			Capabilities: []types.Capability{
				types.CapabilityTextGeneration,
			},
			Streaming:   true,
			Constraints: textConstraints,
		},
	}
}
