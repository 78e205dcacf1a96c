// Package stream implements the streaming aggregation state machine. An
// Aggregator consumes raw transport events through a provider-specific chunk
// parser, yields typed chunks in strict arrival order, and produces the final
// aggregate Output once the stream reaches a terminal state.
//
// The state machine is STREAMING -> EXHAUSTED or STREAMING -> FAILED; both are
// terminal and there is no resumption. A failed stream never produces a
// partial Output.
package stream

import (
	"iter"
	"strings"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

// RawEvent is one decoded transport event (an SSE data payload, a WebSocket
// frame) before provider-specific chunk parsing.
type RawEvent map[string]any

// ChunkParser turns one raw transport event into a typed Chunk. Returning a
// nil Chunk with a nil error skips the event (pure control or keepalive
// frames). Returning an error fails the stream.
type ChunkParser interface {
	ParseChunk(event RawEvent) (*types.Chunk, error)
}

// ChunkParserFunc adapts a function to the ChunkParser interface.
type ChunkParserFunc func(event RawEvent) (*types.Chunk, error)

// ParseChunk implements ChunkParser.
func (f ChunkParserFunc) ParseChunk(event RawEvent) (*types.Chunk, error) {
	return f(event)
}

// Transform post-processes the concatenated stream content before it becomes
// the Output content (structured-output decoding, format conversion).
type Transform func(content any) (any, error)

type state int

const (
	stateStreaming state = iota
	stateExhausted
	stateFailed
)

// Aggregator consumes an event sequence and accumulates the terminal Output.
// An Aggregator belongs to exactly one logical call; it is not safe for
// concurrent use and does not need to be.
type Aggregator struct {
	events    iter.Seq2[RawEvent, error]
	parser    ChunkParser
	transform Transform
	metadata  map[string]any

	state    state
	chunks   []types.Chunk
	failure  error
	output   *types.Output
	emptyErr error

	done     bool
	cleanups []func()
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTransform registers the output transform applied to the concatenated
// content when the stream exhausts.
func WithTransform(t Transform) Option {
	return func(a *Aggregator) { a.transform = t }
}

// WithMetadata attaches call-level metadata (model id, provider) to the final
// Output.
func WithMetadata(metadata map[string]any) Option {
	return func(a *Aggregator) { a.metadata = metadata }
}

// New creates an Aggregator over a raw event sequence. The sequence is pulled
// lazily: nothing is read until Chunks or Collect runs.
func New(events iter.Seq2[RawEvent, error], parser ChunkParser, opts ...Option) *Aggregator {
	a := &Aggregator{events: events, parser: parser}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromChunks creates an already-parsed single-pass stream from pre-built
// chunks. It backs the non-streaming fallback, where a synchronous Output is
// delivered as one content chunk carrying the finish reason and usage.
func FromChunks(chunks []types.Chunk, opts ...Option) *Aggregator {
	events := func(yield func(RawEvent, error) bool) {
		for range chunks {
			if !yield(RawEvent{}, nil) {
				return
			}
		}
	}
	next := 0
	parser := ChunkParserFunc(func(RawEvent) (*types.Chunk, error) {
		chunk := chunks[next]
		next++
		return &chunk, nil
	})
	return New(events, parser, opts...)
}

// Chunks returns the chunk iterator. Chunks are observed strictly in
// transport arrival order with no look-ahead buffering. The iterator ends
// when the stream reaches a terminal state; a mid-stream failure is yielded
// as the final element's error.
//
// Breaking out of the loop abandons the stream without reaching a terminal
// state; Output then reports StreamNotExhaustedError.
func (a *Aggregator) Chunks() iter.Seq2[types.Chunk, error] {
	return func(yield func(types.Chunk, error) bool) {
		if a.state != stateStreaming {
			return
		}
		defer a.finish()

		for event, err := range a.events {
			if err != nil {
				a.fail(err)
				yield(types.Chunk{}, err)
				return
			}

			chunk, parseErr := a.parser.ParseChunk(event)
			if parseErr != nil {
				a.fail(parseErr)
				yield(types.Chunk{}, parseErr)
				return
			}
			if chunk == nil {
				continue // keepalive or control event
			}

			a.chunks = append(a.chunks, *chunk)
			if !yield(*chunk, nil) {
				return
			}

			// The first finish reason is terminal; stop pulling.
			if chunk.FinishReason != nil {
				a.exhaust()
				return
			}
		}

		if a.state == stateStreaming {
			a.exhaust()
		}
	}
}

// Collect drains the stream and returns the final Output.
func (a *Aggregator) Collect() (*types.Output, error) {
	for _, err := range a.Chunks() {
		if err != nil {
			return nil, err
		}
	}
	return a.Output()
}

// Output returns the terminal aggregate. Calling it before the stream reaches
// a terminal state returns StreamNotExhaustedError; an exhausted stream that
// produced zero chunks returns StreamEmptyError, created on first access.
func (a *Aggregator) Output() (*types.Output, error) {
	switch a.state {
	case stateStreaming:
		return nil, errs.NewStreamNotExhausted()
	case stateFailed:
		return nil, a.failure
	}

	if a.output == nil {
		if a.emptyErr == nil {
			a.emptyErr = errs.NewStreamEmpty()
		}
		return nil, a.emptyErr
	}
	return a.output, nil
}

// OnDone registers a cleanup function invoked once the chunk iteration ends,
// whether the stream exhausted, failed, or was abandoned by the consumer.
// Adapters use it to close response bodies; middleware uses it to release
// per-stream contexts. If iteration has already ended, fn runs immediately.
func (a *Aggregator) OnDone(fn func()) {
	if a.done {
		fn()
		return
	}
	a.cleanups = append(a.cleanups, fn)
}

func (a *Aggregator) finish() {
	if a.done {
		return
	}
	a.done = true
	for _, fn := range a.cleanups {
		fn()
	}
	a.cleanups = nil
}

func (a *Aggregator) fail(err error) {
	a.state = stateFailed
	a.failure = err
}

// exhaust finalizes the aggregate: content concatenated in arrival order,
// usage and finish reason taken from the last chunk that carries them.
// Providers report cumulative usage totals, not deltas, so last-wins is the
// only correct aggregation; summing would double-count.
func (a *Aggregator) exhaust() {
	a.state = stateExhausted
	if len(a.chunks) == 0 {
		return
	}

	content := concatContent(a.chunks)
	if a.transform != nil {
		transformed, err := a.transform(content)
		if err != nil {
			a.fail(err)
			return
		}
		content = transformed
	}

	output := &types.Output{Content: content, Metadata: a.metadata}
	for i := len(a.chunks) - 1; i >= 0; i-- {
		if a.chunks[i].Usage != nil {
			output.Usage = *a.chunks[i].Usage
			break
		}
	}
	for i := len(a.chunks) - 1; i >= 0; i-- {
		if a.chunks[i].FinishReason != nil {
			output.FinishReason = a.chunks[i].FinishReason
			break
		}
	}
	a.output = output
}

// concatContent joins chunk contents in arrival order. Homogeneous string
// streams concatenate to one string, byte streams to one byte slice; anything
// else is collected as a slice of the raw contents.
func concatContent(chunks []types.Chunk) any {
	allStrings := true
	allBytes := true
	for _, c := range chunks {
		if _, ok := c.Content.(string); !ok {
			allStrings = false
		}
		if _, ok := c.Content.([]byte); !ok {
			allBytes = false
		}
	}

	switch {
	case allStrings:
		var b strings.Builder
		for _, c := range chunks {
			b.WriteString(c.Content.(string))
		}
		return b.String()
	case allBytes:
		var out []byte
		for _, c := range chunks {
			out = append(out, c.Content.([]byte)...)
		}
		return out
	default:
		contents := make([]any, 0, len(chunks))
		for _, c := range chunks {
			contents = append(contents, c.Content)
		}
		return contents
	}
}
