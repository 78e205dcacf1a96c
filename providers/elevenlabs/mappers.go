package elevenlabs

import (
	"strings"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/types"
)

// voiceKey is the staging field the voice mapper writes. The adapter pops it
// from the body and moves it into the URL path.
const voiceKey = "voice_id"

// defaultAudioFormat is used when the caller sets no audio_format.
const defaultAudioFormat = "mp3_44100_128"

// Mappers returns the speech-generation mapper chain in its declared order.
func Mappers() []params.Mapper {
	return []params.Mapper{
		params.FieldMapper{Name: types.ParamVoice, Field: voiceKey},
		params.FieldMapper{Name: types.ParamAudioFormat, Field: "output_format"},
		speedMapper{},
		params.FieldMapper{Name: "language", Field: "language_code"},
	}
}

// speedMapper maps speed into the nested voice_settings object.
type speedMapper struct{}

func (speedMapper) Parameter() types.Parameter { return types.ParamSpeed }

func (speedMapper) Map(req params.Request, value any, _ model.Model) error {
	settings, ok := req["voice_settings"].(map[string]any)
	if !ok {
		settings = map[string]any{}
		req["voice_settings"] = settings
	}
	settings["speed"] = value
	return nil
}

func (speedMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}

// mimeTypeFor maps an ElevenLabs output format name to its MIME type.
func mimeTypeFor(format string) string {
	switch {
	case format == "", strings.HasPrefix(format, "mp3"):
		return "audio/mpeg"
	case strings.HasPrefix(format, "pcm"):
		return "audio/pcm"
	case strings.HasPrefix(format, "ulaw"):
		return "audio/basic"
	case strings.HasPrefix(format, "opus"):
		return "audio/ogg"
	}
	return "application/octet-stream"
}
