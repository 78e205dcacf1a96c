package elevenlabs

import (
	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/types"
)

// Models returns the built-in ElevenLabs model catalogue.
func Models() []model.Model {
	speechConstraints := map[types.Parameter]constraint.Constraint{
		types.ParamVoice: constraint.Str{MinLength: 1},
		types.ParamSpeed: constraint.Range{Min: 0.7, Max: 1.2},
		types.ParamAudioFormat: constraint.Choice{Options: []string{
			"mp3_22050_32", "mp3_44100_64", "mp3_44100_128", "mp3_44100_192",
			"pcm_16000", "pcm_22050", "pcm_44100", "ulaw_8000",
		}},
		"language": constraint.Pattern{Pattern: `[a-z]{2}`},
	}

	return []model.Model{
		{
			ID:           "eleven_multilingual_v2",
			Provider:     types.ProviderElevenLabs,
			DisplayName:  "Eleven Multilingual v2",
			Capabilities: []types.Capability{types.CapabilitySpeechGeneration},
			Constraints:  speechConstraints,
		},
		{
			ID:           "eleven_turbo_v2_5",
			Provider:     types.ProviderElevenLabs,
			DisplayName:  "Eleven Turbo v2.5",
			Capabilities: []types.Capability{types.CapabilitySpeechGeneration},
			Constraints:  speechConstraints,
		},
	}
}
