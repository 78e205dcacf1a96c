package elevenlabs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/types"
)

type staticAuth struct{ key string }

func (a staticAuth) Apply(header http.Header) {
	header.Set("xi-api-key", a.key)
}

func speechModel() model.Model {
	for _, m := range Models() {
		if m.ID == "eleven_multilingual_v2" {
			return m
		}
	}
	panic("model missing from catalogue")
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "audio/mpeg", mimeTypeFor(""))
	assert.Equal(t, "audio/mpeg", mimeTypeFor("mp3_44100_128"))
	assert.Equal(t, "audio/pcm", mimeTypeFor("pcm_22050"))
	assert.Equal(t, "audio/basic", mimeTypeFor("ulaw_8000"))
	assert.Equal(t, "audio/ogg", mimeTypeFor("opus_48000_64"))
	assert.Equal(t, "application/octet-stream", mimeTypeFor("flac_44100"))
}

func TestSpeedMapper_NestsUnderVoiceSettings(t *testing.T) {
	req := params.Request{}
	require.NoError(t, speedMapper{}.Map(req, 1.1, model.Model{}))

	settings, ok := req["voice_settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.1, settings["speed"])

	// A second write reuses the existing settings object.
	require.NoError(t, speedMapper{}.Map(req, 0.9, model.Model{}))
	assert.Equal(t, 0.9, settings["speed"])
}

func TestBuild_SpeechParams(t *testing.T) {
	b := params.NewBuilder(Mappers())

	req, err := b.Build(params.Request{"text": "hello"}, speechModel(), params.Params{
		types.ParamVoice:       "Rachel",
		types.ParamAudioFormat: "pcm_22050",
		types.ParamSpeed:       1.1,
		"language":             "de",
	})
	require.NoError(t, err)

	assert.Equal(t, "Rachel", req[voiceKey])
	assert.Equal(t, "pcm_22050", req["output_format"])
	assert.Equal(t, "de", req["language_code"])
	settings := req["voice_settings"].(map[string]any)
	assert.Equal(t, 1.1, settings["speed"])
}

func TestBuild_RejectsUnknownFormat(t *testing.T) {
	b := params.NewBuilder(Mappers())

	_, err := b.Build(params.Request{"text": "hello"}, speechModel(), params.Params{
		types.ParamAudioFormat: "wav_44100",
	})
	assert.Error(t, err)
}

func TestAdapter_Send(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x90, 0x64, 0x01, 0x02}
	var gotPath, gotKey string
	var body map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	p, err := NewPipeline(Config{
		Client:  server.Client(),
		Auth:    staticAuth{key: "xi-key"},
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	output, err := p.Generate(context.Background(), speechModel(), "Guten Tag", params.Params{
		types.ParamVoice: "Rachel",
		types.ParamSpeed: 1.1,
	})
	require.NoError(t, err)

	// The voice moves from the body into the URL path.
	assert.Equal(t, "/v1/text-to-speech/Rachel", gotPath)
	assert.Equal(t, "xi-key", gotKey)
	assert.Equal(t, "Guten Tag", body["text"])
	assert.Equal(t, "eleven_multilingual_v2", body["model_id"])
	assert.Equal(t, defaultAudioFormat, body["output_format"])
	assert.NotContains(t, body, voiceKey)

	artifact, ok := output.Content.(types.Artifact)
	require.True(t, ok)
	assert.Equal(t, audio, artifact.Data)
	assert.Equal(t, "audio/mpeg", artifact.MimeType)
	require.NotNil(t, output.FinishReason)
	assert.Equal(t, "completed", output.FinishReason.Reason)
	assert.Equal(t, "Rachel", output.Metadata["voice_id"])
}

func TestAdapter_DefaultVoiceAndMime(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		// Suppress the sniffed Content-Type so the MIME type falls back
		// to the requested format.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte{0x01})
	}))
	defer server.Close()

	p, err := NewPipeline(Config{Client: server.Client(), Auth: staticAuth{}, BaseURL: server.URL})
	require.NoError(t, err)

	output, err := p.Generate(context.Background(), speechModel(), "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "/v1/text-to-speech/"+defaultVoiceID, gotPath)
	artifact := output.Content.(types.Artifact)
	assert.Equal(t, "audio/mpeg", artifact.MimeType)
}

func TestAdapter_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	}))
	defer server.Close()

	p, err := NewPipeline(Config{Client: server.Client(), Auth: staticAuth{}, BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), speechModel(), "hello", nil)
	assert.ErrorContains(t, err, "invalid_api_key")
}

func TestModels_Catalogue(t *testing.T) {
	models := Models()
	require.Len(t, models, 2)
	for _, m := range models {
		assert.Equal(t, types.ProviderElevenLabs, m.Provider)
		assert.True(t, m.Supports(types.CapabilitySpeechGeneration))
		assert.NotNil(t, m.Constraint(types.ParamAudioFormat))
	}
}
