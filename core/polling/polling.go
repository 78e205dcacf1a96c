// Package polling implements the generic submit -> poll-until-terminal ->
// result primitive used by server-side-async providers (video, music, some
// image services).
//
// The state machine is SUBMITTING -> POLLING -> SUCCEEDED | FAILED |
// TIMED_OUT. The poll interval is fixed per provider, not exponential
// backoff: provider SLAs are known in advance and the budget is a hard
// timeout, not a retry budget. One submission maps to exactly one polling
// loop with no shared mutable state.
package polling

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/observability"
)

// SubmitResult is what a provider returns from job submission: the task
// identifier used for status polling, the initial job status when the
// provider reports one in the submission response, plus any usage or metadata
// only reported at submission time.
type SubmitResult struct {
	TaskID   string
	Status   string
	Usage    types.Usage
	Metadata map[string]any
}

// PollResult is one status observation for a submitted task. Payload carries
// the provider's full status document; on terminal success it contains the
// final result.
type PollResult struct {
	Status  string
	Payload map[string]any
	Usage   types.Usage
	Message string
}

// Protocol is the provider-side contract: submit once, then fetch status by
// identifier until a terminal status appears.
type Protocol interface {
	Submit(ctx context.Context, req map[string]any) (SubmitResult, error)
	Poll(ctx context.Context, taskID string) (PollResult, error)
}

// Config declares the provider's polling behavior: the fixed interval, the
// hard timeout, and the terminal status sets.
type Config struct {
	Provider types.Provider

	Interval time.Duration
	Timeout  time.Duration

	SucceededStatuses []string
	FailedStatuses    []string
	CancelledStatuses []string
}

// terminal reports whether the status belongs to any terminal set.
func (c Config) terminal(status string) bool {
	return slices.Contains(c.SucceededStatuses, status) ||
		slices.Contains(c.FailedStatuses, status) ||
		slices.Contains(c.CancelledStatuses, status)
}

// Operation runs one submit-and-poll lifecycle. Construct a fresh Operation
// per call; it holds per-call state and must not be reused.
type Operation struct {
	protocol Protocol
	config   Config
	logger   observability.Logger

	// parse turns the terminal success payload into output content.
	parse func(payload map[string]any) (any, types.Usage, error)
}

// Option configures an Operation.
type Option func(*Operation)

// WithLogger sets the structured logger for poll progress.
func WithLogger(logger observability.Logger) Option {
	return func(op *Operation) { op.logger = logger }
}

// WithResultParser sets the function that extracts final content and usage
// from a terminal success payload. Without one, the payload itself is the
// content.
func WithResultParser(parse func(payload map[string]any) (any, types.Usage, error)) Option {
	return func(op *Operation) { op.parse = parse }
}

// New creates an Operation over a provider protocol.
func New(protocol Protocol, config Config, opts ...Option) *Operation {
	op := &Operation{protocol: protocol, config: config, logger: observability.Nop()}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// Run submits the request and polls until a terminal status, a timeout, or
// context cancellation. Cancelling the context stops further polling but
// cannot cancel the provider's server-side job.
//
// On success the final payload is parsed into the Output; usage captured at
// submission time is merged in, since some providers report certain fields
// only then. A provider-side failure surfaces the provider message; exceeding
// the timeout returns a TimeoutError and makes no further calls.
func (op *Operation) Run(ctx context.Context, req map[string]any) (*types.Output, error) {
	submitted, err := op.protocol.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submitting %s job: %w", op.config.Provider, err)
	}

	op.logger.Debug(ctx, "job submitted",
		observability.String("provider", string(op.config.Provider)),
		observability.String("task_id", submitted.TaskID),
		observability.String("status", submitted.Status),
	)

	// Some providers report a terminal status directly in the submission
	// response; no polling loop is needed then.
	if op.config.terminal(submitted.Status) {
		return op.resolveTerminal(ctx, submitted, PollResult{Status: submitted.Status})
	}

	deadline := time.Now().Add(op.config.Timeout)
	ticker := time.NewTicker(op.config.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return nil, errs.NewPollTimeout(op.config.Provider, submitted.TaskID,
				fmt.Sprintf("task %q did not reach a terminal status within %s",
					submitted.TaskID, op.config.Timeout))
		}

		result, err := op.protocol.Poll(ctx, submitted.TaskID)
		if err != nil {
			return nil, fmt.Errorf("polling task %q: %w", submitted.TaskID, err)
		}

		op.logger.Debug(ctx, "poll status",
			observability.String("task_id", submitted.TaskID),
			observability.String("status", result.Status),
			observability.Int("attempt", attempt),
		)

		if !op.config.terminal(result.Status) {
			continue
		}
		return op.resolveTerminal(ctx, submitted, result)
	}
}

// resolveTerminal maps a terminal status observation to the final Output or
// the provider failure. A success observed at submission time still needs one
// status fetch to obtain the result payload.
func (op *Operation) resolveTerminal(ctx context.Context, submitted SubmitResult, result PollResult) (*types.Output, error) {
	if slices.Contains(op.config.SucceededStatuses, result.Status) {
		if result.Payload == nil {
			fetched, err := op.protocol.Poll(ctx, submitted.TaskID)
			if err != nil {
				return nil, fmt.Errorf("fetching result for task %q: %w", submitted.TaskID, err)
			}
			result = fetched
		}
		return op.succeed(submitted, result)
	}

	message := result.Message
	if message == "" {
		message = fmt.Sprintf("task %q ended with status %q", submitted.TaskID, result.Status)
	}
	return nil, errs.NewTransportError(op.config.Provider, 0, []byte(message), nil)
}

func (op *Operation) succeed(submitted SubmitResult, result PollResult) (*types.Output, error) {
	content := any(result.Payload)
	usage := result.Usage
	if op.parse != nil {
		parsed, parsedUsage, err := op.parse(result.Payload)
		if err != nil {
			return nil, err
		}
		content = parsed
		if !parsedUsage.IsZero() {
			usage = parsedUsage
		}
	}

	metadata := map[string]any{"task_id": submitted.TaskID}
	for k, v := range submitted.Metadata {
		metadata[k] = v
	}

	return &types.Output{
		Content:  content,
		Usage:    usage.Merge(submitted.Usage),
		Metadata: metadata,
	}, nil
}
