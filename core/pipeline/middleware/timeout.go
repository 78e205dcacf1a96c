package middleware

import (
	"context"
	"time"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a per-request
// deadline on both synchronous and streaming calls.
//
// For synchronous calls the context is wrapped with context.WithTimeout and
// cancel is deferred: the context is released once the adapter returns.
//
// For streaming calls the cancel function is NOT deferred immediately.
// Instead it is registered with the aggregator's OnDone hook, so it fires
// once the stream exhausts, fails, or is abandoned. The timeout therefore
// governs the complete lifetime of the stream, not just the time to the
// first byte.
//
// If the caller supplies a context that already has a shorter deadline, that
// shorter deadline wins as per normal context semantics.
func NewTimeoutMiddleware(timeout time.Duration) pipeline.MiddlewareConfig {
	return pipeline.MiddlewareConfig{
		Send:   buildSendTimeout(timeout),
		Stream: buildStreamTimeout(timeout),
	}
}

func buildSendTimeout(timeout time.Duration) pipeline.Middleware {
	return func(next pipeline.SendFunc) pipeline.SendFunc {
		return func(ctx context.Context, req pipeline.Request) (*types.Output, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, req)
		}
	}
}

func buildStreamTimeout(timeout time.Duration) pipeline.StreamMiddleware {
	return func(next pipeline.StreamFunc) pipeline.StreamFunc {
		return func(ctx context.Context, req pipeline.Request) (*stream.Aggregator, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			aggregator, err := next(ctx, req)
			if err != nil {
				// Pre-stream error, release the context immediately.
				cancel()
				return nil, err
			}

			aggregator.OnDone(cancel)
			return aggregator, nil
		}
	}
}
