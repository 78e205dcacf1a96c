package stream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// eventsOf builds an event sequence from fixed payloads.
func eventsOf(payloads ...RawEvent) func(yield func(RawEvent, error) bool) {
	return func(yield func(RawEvent, error) bool) {
		for _, p := range payloads {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// textParser yields the "text" field as content, finishing on "done" events.
var textParser = ChunkParserFunc(func(event RawEvent) (*types.Chunk, error) {
	if _, done := event["done"]; done {
		chunk := &types.Chunk{Content: "", FinishReason: &types.FinishReason{Reason: "stop"}}
		if u, ok := event["usage"].(types.Usage); ok {
			chunk.Usage = &u
		}
		return chunk, nil
	}
	if text, ok := event["text"].(string); ok {
		return &types.Chunk{Content: text}, nil
	}
	return nil, nil // keepalive
})

func TestAggregator_ArrivalOrder(t *testing.T) {
	a := New(eventsOf(
		RawEvent{"text": "Hel"},
		RawEvent{"text": "lo "},
		RawEvent{"text": "world"},
		RawEvent{"done": true},
	), textParser)

	var got []string
	for chunk, err := range a.Chunks() {
		require.NoError(t, err)
		if s, ok := chunk.Content.(string); ok {
			got = append(got, s)
		}
	}
	assert.Equal(t, []string{"Hel", "lo ", "world"}, got)

	output, err := a.Output()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", output.Content)
	assert.Equal(t, "stop", output.FinishReason.Reason)
}

func TestAggregator_KeepaliveEventsSkipped(t *testing.T) {
	a := New(eventsOf(
		RawEvent{"ping": true},
		RawEvent{"text": "a"},
		RawEvent{"ping": true},
		RawEvent{"done": true},
	), textParser)

	output, err := a.Collect()
	require.NoError(t, err)
	assert.Equal(t, "a", output.Content)
}

// Usage is cumulative per event, so the last reported value wins.
func TestAggregator_LastUsageWins(t *testing.T) {
	parser := ChunkParserFunc(func(event RawEvent) (*types.Chunk, error) {
		chunk := &types.Chunk{Content: event["text"]}
		if u, ok := event["usage"].(types.Usage); ok {
			chunk.Usage = &u
		}
		if _, done := event["done"]; done {
			chunk.Content = ""
			chunk.FinishReason = &types.FinishReason{Reason: "stop"}
		}
		return chunk, nil
	})

	a := New(eventsOf(
		RawEvent{"text": "a", "usage": types.Usage{OutputTokens: 1}},
		RawEvent{"text": "b", "usage": types.Usage{OutputTokens: 2}},
		RawEvent{"done": true, "usage": types.Usage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12}},
	), parser)

	output, err := a.Collect()
	require.NoError(t, err)
	assert.Equal(t, types.Usage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12}, output.Usage)
}

func TestAggregator_OutputBeforeExhaustion(t *testing.T) {
	a := New(eventsOf(RawEvent{"text": "a"}, RawEvent{"done": true}), textParser)

	_, err := a.Output()
	var notExhausted *errs.StreamNotExhaustedError
	assert.True(t, errors.As(err, &notExhausted))
}

func TestAggregator_AbandonedStream(t *testing.T) {
	a := New(eventsOf(
		RawEvent{"text": "a"},
		RawEvent{"text": "b"},
		RawEvent{"done": true},
	), textParser)

	for range a.Chunks() {
		break // consumer walks away mid-stream
	}

	_, err := a.Output()
	var notExhausted *errs.StreamNotExhaustedError
	assert.True(t, errors.As(err, &notExhausted))
}

func TestAggregator_EmptyStream(t *testing.T) {
	a := New(eventsOf(), textParser)

	_, err := a.Collect()
	var empty *errs.StreamEmptyError
	require.True(t, errors.As(err, &empty))

	// The empty error is stable across accesses.
	_, err2 := a.Output()
	assert.Same(t, err, err2)
}

func TestAggregator_TransportFailure(t *testing.T) {
	transportErr := errors.New("connection reset")
	events := func(yield func(RawEvent, error) bool) {
		if !yield(RawEvent{"text": "partial"}, nil) {
			return
		}
		yield(nil, transportErr)
	}

	a := New(events, textParser)

	var yielded error
	for _, err := range a.Chunks() {
		if err != nil {
			yielded = err
		}
	}
	assert.Equal(t, transportErr, yielded)

	// A failed stream never produces a partial Output.
	_, err := a.Output()
	assert.Equal(t, transportErr, err)
}

func TestAggregator_ParserFailure(t *testing.T) {
	parser := ChunkParserFunc(func(event RawEvent) (*types.Chunk, error) {
		return nil, fmt.Errorf("malformed event")
	})
	a := New(eventsOf(RawEvent{"text": "x"}), parser)

	_, err := a.Collect()
	assert.ErrorContains(t, err, "malformed event")
}

func TestAggregator_Transform(t *testing.T) {
	a := New(eventsOf(
		RawEvent{"text": `{"answer":`},
		RawEvent{"text": ` 42}`},
		RawEvent{"done": true},
	), textParser, WithTransform(func(content any) (any, error) {
		return "transformed:" + content.(string), nil
	}))

	output, err := a.Collect()
	require.NoError(t, err)
	assert.Equal(t, `transformed:{"answer": 42}`, output.Content)
}

func TestAggregator_TransformFailureFailsStream(t *testing.T) {
	transformErr := errors.New("bad content")
	a := New(eventsOf(
		RawEvent{"text": "x"},
		RawEvent{"done": true},
	), textParser, WithTransform(func(any) (any, error) { return nil, transformErr }))

	for _, err := range a.Chunks() {
		require.NoError(t, err)
	}

	_, err := a.Output()
	assert.Equal(t, transformErr, err)
}

func TestAggregator_Metadata(t *testing.T) {
	meta := map[string]any{"model": "m1"}
	a := New(eventsOf(RawEvent{"text": "x"}, RawEvent{"done": true}), textParser, WithMetadata(meta))

	output, err := a.Collect()
	require.NoError(t, err)
	assert.Equal(t, meta, output.Metadata)
}

func TestAggregator_ByteContent(t *testing.T) {
	parser := ChunkParserFunc(func(event RawEvent) (*types.Chunk, error) {
		if _, done := event["done"]; done {
			return &types.Chunk{Content: []byte{}, FinishReason: &types.FinishReason{Reason: "stop"}}, nil
		}
		return &types.Chunk{Content: event["frame"].([]byte)}, nil
	})
	a := New(eventsOf(
		RawEvent{"frame": []byte{1, 2}},
		RawEvent{"frame": []byte{3}},
		RawEvent{"done": true},
	), parser)

	output, err := a.Collect()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, output.Content)
}

func TestFromChunks(t *testing.T) {
	chunks := []types.Chunk{{
		Content:      "full response",
		FinishReason: &types.FinishReason{Reason: "stop"},
		Usage:        &types.Usage{TotalTokens: 7},
	}}

	a := FromChunks(chunks)

	var seen int
	for chunk, err := range a.Chunks() {
		require.NoError(t, err)
		assert.Equal(t, "full response", chunk.Content)
		seen++
	}
	assert.Equal(t, 1, seen)

	output, err := a.Output()
	require.NoError(t, err)
	assert.Equal(t, "full response", output.Content)
	assert.Equal(t, 7, output.Usage.TotalTokens)
}

// ---- OnDone -----------------------------------------------------------------

func TestAggregator_OnDone_RunsOnExhaustion(t *testing.T) {
	a := New(eventsOf(RawEvent{"text": "x"}, RawEvent{"done": true}), textParser)

	var ran bool
	a.OnDone(func() { ran = true })
	assert.False(t, ran)

	_, err := a.Collect()
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestAggregator_OnDone_RunsOnAbandon(t *testing.T) {
	a := New(eventsOf(RawEvent{"text": "x"}, RawEvent{"done": true}), textParser)

	var ran bool
	a.OnDone(func() { ran = true })

	for range a.Chunks() {
		break
	}
	assert.True(t, ran)
}

func TestAggregator_OnDone_RunsOnFailure(t *testing.T) {
	events := func(yield func(RawEvent, error) bool) {
		yield(nil, errors.New("boom"))
	}
	a := New(events, textParser)

	var ran bool
	a.OnDone(func() { ran = true })

	for _, err := range a.Chunks() {
		assert.Error(t, err)
	}
	assert.True(t, ran)
}

func TestAggregator_OnDone_AfterCompletionRunsImmediately(t *testing.T) {
	a := New(eventsOf(RawEvent{"done": true}), textParser)
	_, _ = a.Collect()

	var ran bool
	a.OnDone(func() { ran = true })
	assert.True(t, ran)
}
