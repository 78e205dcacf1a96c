package bfl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/polling"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

const defaultBaseURL = "https://api.bfl.ai"

// Polling behavior per the API's published generation SLAs.
const (
	pollInterval = 500 * time.Millisecond
	pollTimeout  = 5 * time.Minute
)

// Adapter submits FLUX generation jobs and polls them to completion. The
// generation endpoint is a pure function of the model id: POST /v1/{model}.
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

// Send implements pipeline.ProtocolAdapter. Each call runs one fresh
// submit-and-poll lifecycle.
func (a *Adapter) Send(ctx context.Context, req pipeline.Request) (*types.Output, error) {
	protocol := &fluxProtocol{
		adapter: a,
		modelID: req.Model.ID,
	}

	op := polling.New(protocol, polling.Config{
		Provider:          types.ProviderBFL,
		Interval:          pollInterval,
		Timeout:           pollTimeout,
		SucceededStatuses: []string{"Ready"},
		FailedStatuses:    []string{"Error", "Failed", "Content Moderated", "Request Moderated"},
	},
		polling.WithLogger(a.logger),
		polling.WithResultParser(parseResult),
	)

	return op.Run(ctx, req.Body)
}

// fluxProtocol is the per-call polling protocol. Submit remembers the
// polling URL the API hands back; Poll reuses it.
type fluxProtocol struct {
	adapter    *Adapter
	modelID    string
	pollingURL string
}

func (p *fluxProtocol) Submit(ctx context.Context, req map[string]any) (polling.SubmitResult, error) {
	url := fmt.Sprintf("%s/v1/%s", p.adapter.baseURL, p.modelID)
	_, raw, err := utils.DoPostSync[map[string]any](ctx, p.adapter.client, types.ProviderBFL, url, p.adapter.auth, req)
	if err != nil {
		return polling.SubmitResult{}, err
	}
	submitted := *raw

	taskID, _ := submitted["id"].(string)
	pollingURL, _ := submitted["polling_url"].(string)
	if pollingURL == "" {
		return polling.SubmitResult{}, fmt.Errorf("no polling_url in submission response")
	}
	p.pollingURL = pollingURL

	status, _ := submitted["status"].(string)
	if status == "" {
		status = "Pending"
	}

	return polling.SubmitResult{
		TaskID: taskID,
		Status: status,
		Usage:  parseUsage(submitted),
		Metadata: map[string]any{
			"polling_url": pollingURL,
		},
	}, nil
}

func (p *fluxProtocol) Poll(ctx context.Context, taskID string) (polling.PollResult, error) {
	_, raw, err := utils.DoGetSync[map[string]any](ctx, p.adapter.client, types.ProviderBFL, p.pollingURL, p.adapter.auth)
	if err != nil {
		return polling.PollResult{}, err
	}
	payload := *raw

	status, _ := payload["status"].(string)
	message, _ := payload["error"].(string)

	return polling.PollResult{
		Status:  status,
		Payload: payload,
		Usage:   parseUsage(payload),
		Message: message,
	}, nil
}

// parseResult extracts the generated image from a Ready payload.
func parseResult(payload map[string]any) (any, types.Usage, error) {
	result, _ := payload["result"].(map[string]any)
	if result == nil {
		return nil, types.Usage{}, fmt.Errorf("no result in terminal payload")
	}
	sample, _ := result["sample"].(string)
	if sample == "" {
		return nil, types.Usage{}, fmt.Errorf("no sample URL in result")
	}

	artifact := types.Artifact{URL: sample, MimeType: "image/jpeg"}
	return artifact, parseUsage(payload), nil
}

// parseUsage reads the billing fields the API reports at submission time.
func parseUsage(payload map[string]any) types.Usage {
	usage := types.Usage{}
	if cost, ok := payload["cost"].(float64); ok {
		usage.BilledUnits = cost
	}
	if inputMP, ok := payload["input_mp"].(float64); ok {
		usage.InputMegapixels = inputMP
	}
	if outputMP, ok := payload["output_mp"].(float64); ok {
		usage.OutputMegapixels = outputMP
	}
	return usage
}
