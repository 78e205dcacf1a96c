package bfl

import (
	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/types"
)

// Models returns the built-in FLUX model catalogue.
func Models() []model.Model {
	imageConstraints := map[types.Parameter]constraint.Constraint{
		types.ParamAspectRatio: constraint.Pattern{Pattern: `\d{1,2}:\d{1,2}`},
		types.ParamSize: constraint.Dimensions{
			MinPixels: 256 * 256,
			MaxPixels: 1440 * 1440,
			Presets: map[string]string{
				"square":    "1024x1024",
				"landscape": "1344x768",
				"portrait":  "768x1344",
			},
		},
		types.ParamQuality:  constraint.Choice{Options: []string{"draft", "standard", "high"}},
		types.ParamSeed:     constraint.Int{},
		"steps":             constraint.Range{Min: 1, Max: 50},
		"guidance":          constraint.Range{Min: 1.5, Max: 5},
		"prompt_upsampling": constraint.Bool{},
		"safety_tolerance":  constraint.Range{Min: 0, Max: 6},
		types.ParamOutputFormat: constraint.Choice{
			Options: []string{"jpeg", "png"},
		},
	}

	return []model.Model{
		{
			ID:           "flux-pro-1.1",
			Provider:     types.ProviderBFL,
			DisplayName:  "FLUX 1.1 Pro",
			Capabilities: []types.Capability{types.CapabilityImageGeneration},
			Constraints:  imageConstraints,
		},
		{
			ID:           "flux-pro-1.1-ultra",
			Provider:     types.ProviderBFL,
			DisplayName:  "FLUX 1.1 Pro Ultra",
			Capabilities: []types.Capability{types.CapabilityImageGeneration},
			Constraints:  imageConstraints,
		},
		{
			ID:           "flux-dev",
			Provider:     types.ProviderBFL,
			DisplayName:  "FLUX Dev",
			Capabilities: []types.Capability{types.CapabilityImageGeneration},
			Constraints:  imageConstraints,
		},
	}
}
