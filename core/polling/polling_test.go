package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProtocol scripts the submit response and the sequence of poll results.
type fakeProtocol struct {
	submit      SubmitResult
	submitErr   error
	polls       []PollResult
	pollErr     error
	pollCount   int
	submitCount int
}

func (f *fakeProtocol) Submit(ctx context.Context, req map[string]any) (SubmitResult, error) {
	f.submitCount++
	return f.submit, f.submitErr
}

func (f *fakeProtocol) Poll(ctx context.Context, taskID string) (PollResult, error) {
	if f.pollErr != nil {
		return PollResult{}, f.pollErr
	}
	i := f.pollCount
	if i >= len(f.polls) {
		i = len(f.polls) - 1
	}
	f.pollCount++
	return f.polls[i], nil
}

func testConfig() Config {
	return Config{
		Provider:          types.ProviderBFL,
		Interval:          time.Millisecond,
		Timeout:           time.Second,
		SucceededStatuses: []string{"succeeded"},
		FailedStatuses:    []string{"failed"},
		CancelledStatuses: []string{"cancelled"},
	}
}

func TestRun_PollsUntilSuccess(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls: []PollResult{
			{Status: "pending"},
			{Status: "succeeded", Payload: map[string]any{"url": "https://example.com/out.png"}},
		},
	}

	output, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	require.NoError(t, err)

	// One pending observation then the terminal one: exactly two polls.
	assert.Equal(t, 2, protocol.pollCount)
	assert.Equal(t, 1, protocol.submitCount)

	payload, ok := output.Content.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/out.png", payload["url"])
	assert.Equal(t, "t1", output.Metadata["task_id"])
}

// A terminal success already present in the submission response skips the
// wait loop; one status fetch still runs to obtain the result payload.
func TestRun_TerminalAtSubmission(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "succeeded"},
		polls: []PollResult{
			{Status: "succeeded", Payload: map[string]any{"ok": true}},
		},
	}

	output, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, protocol.pollCount)
	assert.Equal(t, map[string]any{"ok": true}, output.Content)
}

func TestRun_ProviderFailure(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls: []PollResult{
			{Status: "failed", Message: "content moderated"},
		},
	}

	_, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "content moderated")

	var transportErr *errs.TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestRun_FailureWithoutMessage(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t9", Status: "pending"},
		polls:  []PollResult{{Status: "cancelled"}},
	}

	_, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, `task "t9" ended with status "cancelled"`)
}

func TestRun_Timeout(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls:  []PollResult{{Status: "pending"}},
	}
	config := testConfig()
	config.Interval = 10 * time.Millisecond
	config.Timeout = time.Millisecond

	_, err := New(protocol, config).Run(context.Background(), map[string]any{})
	require.Error(t, err)

	var timeout *errs.TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "t1", timeout.TaskID)

	// The deadline is checked before each poll, so an expired budget makes
	// no further provider calls.
	assert.Equal(t, 0, protocol.pollCount)
}

func TestRun_ContextCancellation(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls:  []PollResult{{Status: "pending"}},
	}
	config := testConfig()
	config.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(protocol, config).Run(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, protocol.pollCount)
}

func TestRun_SubmitError(t *testing.T) {
	protocol := &fakeProtocol{submitErr: errors.New("quota exceeded")}

	_, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, 0, protocol.pollCount)
}

func TestRun_PollError(t *testing.T) {
	protocol := &fakeProtocol{
		submit:  SubmitResult{TaskID: "t1", Status: "pending"},
		pollErr: errors.New("server error"),
	}

	_, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, `polling task "t1"`)
}

func TestRun_ResultParser(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls: []PollResult{
			{Status: "succeeded", Payload: map[string]any{"sample": "https://img"}},
		},
	}

	op := New(protocol, testConfig(), WithResultParser(func(payload map[string]any) (any, types.Usage, error) {
		url, _ := payload["sample"].(string)
		return types.Artifact{URL: url, MimeType: "image/jpeg"}, types.Usage{NumImages: 1}, nil
	}))

	output, err := op.Run(context.Background(), map[string]any{})
	require.NoError(t, err)

	artifact, ok := output.Content.(types.Artifact)
	require.True(t, ok)
	assert.Equal(t, "https://img", artifact.URL)
	assert.Equal(t, 1, output.Usage.NumImages)
}

func TestRun_ResultParserError(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{TaskID: "t1", Status: "pending"},
		polls:  []PollResult{{Status: "succeeded", Payload: map[string]any{}}},
	}

	op := New(protocol, testConfig(), WithResultParser(func(map[string]any) (any, types.Usage, error) {
		return nil, types.Usage{}, errors.New("no sample in payload")
	}))

	_, err := op.Run(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "no sample in payload")
}

// Submission-time usage fills the fields the poll result leaves zero; polled
// fields always win.
func TestRun_SubmitUsageMerged(t *testing.T) {
	protocol := &fakeProtocol{
		submit: SubmitResult{
			TaskID:   "t1",
			Status:   "pending",
			Usage:    types.Usage{BilledUnits: 0.04, AudioSeconds: 99},
			Metadata: map[string]any{"trace": "abc"},
		},
		polls: []PollResult{
			{Status: "succeeded", Payload: map[string]any{"x": 1}, Usage: types.Usage{AudioSeconds: 30}},
		},
	}

	output, err := New(protocol, testConfig()).Run(context.Background(), map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 0.04, output.Usage.BilledUnits)
	assert.Equal(t, 30.0, output.Usage.AudioSeconds)
	assert.Equal(t, "abc", output.Metadata["trace"])
}
