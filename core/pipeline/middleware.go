package pipeline

import (
	"context"

	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
)

// SendFunc sends a built request to the provider and returns the completed
// Output. It is the base unit threaded through the send middleware chain.
type SendFunc func(ctx context.Context, req Request) (*types.Output, error)

// StreamFunc sends a built request and returns a stream Aggregator for
// incremental delivery. It is the base unit threaded through the stream
// middleware chain.
type StreamFunc func(ctx context.Context, req Request) (*stream.Aggregator, error)

// Middleware intercepts and optionally transforms synchronous calls. Each
// Middleware receives the next SendFunc in the chain and returns a new
// SendFunc that wraps it. Middlewares are applied outermost-first: the first
// middleware in the slice is the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware is the streaming counterpart of Middleware. It may wrap
// the returned Aggregator to observe the event sequence or tie resources to
// its lifetime.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its optional streaming
// counterpart. Send is required. A nil Stream means streaming calls bypass
// this entry entirely.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

// buildSendChain constructs the linear send chain. The base function calls
// the adapter directly. Middlewares are applied in reverse order so that the
// first entry in the slice becomes the outermost wrapper.
func buildSendChain(adapter ProtocolAdapter, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, req Request) (*types.Output, error) {
		return adapter.Send(ctx, req)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}

	return chain
}

// buildStreamChain constructs the linear stream chain. The base function uses
// native streaming when the adapter supports it; otherwise the synchronous
// result is delivered as a one-chunk stream. Entries with a nil Stream field
// are skipped.
func buildStreamChain(adapter ProtocolAdapter, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, req Request) (*stream.Aggregator, error) {
		if streamAdapter, ok := adapter.(StreamProtocolAdapter); ok {
			return streamAdapter.SendStream(ctx, req)
		}

		output, err := adapter.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		return singleChunkStream(output, req.Transform), nil
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}

	return chain
}

// singleChunkStream wraps a completed Output as a stream with one content
// chunk carrying the finish reason and usage.
func singleChunkStream(output *types.Output, transform stream.Transform) *stream.Aggregator {
	finish := output.FinishReason
	if finish == nil {
		finish = &types.FinishReason{Reason: "stop"}
	}
	chunk := types.Chunk{
		Content:      output.Content,
		FinishReason: finish,
		Usage:        &output.Usage,
		Metadata:     output.Metadata,
	}

	opts := []stream.Option{stream.WithMetadata(output.Metadata)}
	if transform != nil {
		opts = append(opts, stream.WithTransform(transform))
	}
	return stream.FromChunks([]types.Chunk{chunk}, opts...)
}
