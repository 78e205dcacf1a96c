package mureka

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/polling"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

const defaultBaseURL = "https://api.mureka.ai"

// Song rendering takes tens of seconds; poll sparsely with a generous budget.
const (
	pollInterval = 5 * time.Second
	pollTimeout  = 10 * time.Minute
)

// Adapter submits song generation jobs and polls them to completion.
type Adapter struct {
	client  *http.Client
	auth    utils.Authenticator
	baseURL string
	logger  observability.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithBaseURL overrides the API base URL, for proxies and tests.
func WithBaseURL(baseURL string) AdapterOption {
	return func(a *Adapter) { a.baseURL = baseURL }
}

// WithLogger sets the logger passed to the polling loop.
func WithLogger(logger observability.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter creates an Adapter.
func NewAdapter(client *http.Client, auth utils.Authenticator, opts ...AdapterOption) *Adapter {
	a := &Adapter{client: client, auth: auth, baseURL: defaultBaseURL, logger: observability.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send implements pipeline.ProtocolAdapter.
func (a *Adapter) Send(ctx context.Context, req pipeline.Request) (*types.Output, error) {
	protocol := &songProtocol{adapter: a, modelID: req.Model.ID}

	op := polling.New(protocol, polling.Config{
		Provider:          types.ProviderMureka,
		Interval:          pollInterval,
		Timeout:           pollTimeout,
		SucceededStatuses: []string{"succeeded"},
		FailedStatuses:    []string{"failed", "timeouted"},
		CancelledStatuses: []string{"cancelled"},
	},
		polling.WithLogger(a.logger),
		polling.WithResultParser(parseResult),
	)

	return op.Run(ctx, req.Body)
}

type songProtocol struct {
	adapter *Adapter
	modelID string
}

func (p *songProtocol) Submit(ctx context.Context, req map[string]any) (polling.SubmitResult, error) {
	body := make(map[string]any, len(req)+1)
	for k, v := range req {
		body[k] = v
	}
	body["model"] = p.modelID

	url := p.adapter.baseURL + "/v1/song/generate"
	_, raw, err := utils.DoPostSync[map[string]any](ctx, p.adapter.client, types.ProviderMureka, url, p.adapter.auth, body)
	if err != nil {
		return polling.SubmitResult{}, err
	}
	submitted := *raw

	taskID := stringOrNumber(submitted["id"])
	if taskID == "" {
		return polling.SubmitResult{}, fmt.Errorf("no task id in submission response")
	}
	status, _ := submitted["status"].(string)

	// Credits are only reported here, never in poll responses.
	var usage types.Usage
	if credits, ok := submitted["credits_used"].(float64); ok {
		usage.BilledUnits = credits
	}

	return polling.SubmitResult{
		TaskID:   taskID,
		Status:   status,
		Usage:    usage,
		Metadata: map[string]any{"model": submitted["model"]},
	}, nil
}

func (p *songProtocol) Poll(ctx context.Context, taskID string) (polling.PollResult, error) {
	url := p.adapter.baseURL + "/v1/song/query/" + taskID
	_, raw, err := utils.DoGetSync[map[string]any](ctx, p.adapter.client, types.ProviderMureka, url, p.adapter.auth)
	if err != nil {
		return polling.PollResult{}, err
	}
	payload := *raw

	status, _ := payload["status"].(string)
	message, _ := payload["failed_reason"].(string)

	return polling.PollResult{
		Status:  status,
		Payload: payload,
		Message: message,
	}, nil
}

// parseResult extracts the rendered tracks from a succeeded payload. Each
// choice becomes one audio artifact; total duration feeds usage.
func parseResult(payload map[string]any) (any, types.Usage, error) {
	choices, _ := payload["choices"].([]any)
	if len(choices) == 0 {
		return nil, types.Usage{}, fmt.Errorf("no choices in terminal payload")
	}

	var usage types.Usage
	artifacts := make([]types.Artifact, 0, len(choices))
	for _, c := range choices {
		choice, ok := c.(map[string]any)
		if !ok {
			continue
		}
		url, _ := choice["url"].(string)
		if url == "" {
			url, _ = choice["mp3_url"].(string)
		}
		if url == "" {
			continue
		}
		artifacts = append(artifacts, types.Artifact{URL: url, MimeType: "audio/mpeg"})

		// Durations arrive in milliseconds.
		if ms, ok := choice["duration"].(float64); ok {
			usage.AudioSeconds += ms / 1000
		}
	}
	if len(artifacts) == 0 {
		return nil, types.Usage{}, fmt.Errorf("no playable tracks in terminal payload")
	}

	return artifacts, usage, nil
}

// stringOrNumber renders a JSON id that may arrive as string or number.
func stringOrNumber(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	}
	return ""
}
