package elevenlabs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultVoiceID = "JBFqnCBsd6RMkjVDRZzb"
)

// Adapter speaks the ElevenLabs text-to-speech endpoint. The response body
// is raw audio; the Output content is a single audio Artifact.
type Adapter struct {
	client  *http.Client
	auth    utils.Authenticator
	baseURL string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithBaseURL overrides the API base URL, for proxies and tests.
func WithBaseURL(baseURL string) AdapterOption {
	return func(a *Adapter) { a.baseURL = baseURL }
}

// NewAdapter creates an Adapter.
func NewAdapter(client *http.Client, auth utils.Authenticator, opts ...AdapterOption) *Adapter {
	a := &Adapter{client: client, auth: auth, baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send implements pipeline.ProtocolAdapter.
func (a *Adapter) Send(ctx context.Context, req pipeline.Request) (*types.Output, error) {
	body := req.Body.Clone()
	body["model_id"] = req.Model.ID

	// The voice mapper stages the voice in the body; it belongs in the path.
	voiceID := defaultVoiceID
	if v, ok := body[voiceKey].(string); ok && v != "" {
		voiceID = v
	}
	delete(body, voiceKey)

	format, _ := body["output_format"].(string)
	if format == "" {
		format = defaultAudioFormat
		body["output_format"] = format
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", a.baseURL, voiceID)
	audio, contentType, err := utils.DoPostBinary(ctx, a.client, types.ProviderElevenLabs, url, a.auth, body)
	if err != nil {
		return nil, err
	}

	mimeType := contentType
	if mimeType == "" {
		mimeType = mimeTypeFor(format)
	}

	return &types.Output{
		Content:      types.Artifact{Data: audio, MimeType: mimeType},
		FinishReason: &types.FinishReason{Reason: "completed"},
		Metadata: map[string]any{
			"model":    req.Model.ID,
			"provider": string(types.ProviderElevenLabs),
			"voice_id": voiceID,
		},
	}, nil
}
