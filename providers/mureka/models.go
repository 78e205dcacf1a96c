package mureka

import (
	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/types"
)

// Models returns the built-in Mureka model catalogue.
func Models() []model.Model {
	musicConstraints := map[types.Parameter]constraint.Constraint{
		types.ParamLyrics:       constraint.Str{MaxLength: 3000},
		types.ParamReferenceID:  constraint.Str{},
		types.ParamSeed:         constraint.Int{},
		types.ParamDurationSecs: constraint.Range{Min: 10, Max: 300},
	}

	return []model.Model{
		{
			ID:           "mureka-7",
			Provider:     types.ProviderMureka,
			DisplayName:  "Mureka V7",
			Capabilities: []types.Capability{types.CapabilityMusicGeneration},
			Constraints:  musicConstraints,
		},
		{
			ID:           "mureka-6",
			Provider:     types.ProviderMureka,
			DisplayName:  "Mureka V6",
			Capabilities: []types.Capability{types.CapabilityMusicGeneration},
			Constraints:  musicConstraints,
		},
	}
}
