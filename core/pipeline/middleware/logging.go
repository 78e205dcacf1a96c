package middleware

import (
	"context"

	"github.com/withceleste/celeste-go/core/pipeline"
	"github.com/withceleste/celeste-go/core/stream"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/internal/utils"
	"github.com/withceleste/celeste-go/observability"
)

// NewLoggingMiddleware creates a MiddlewareConfig that emits structured log
// entries before and after every provider call. Both synchronous and
// streaming calls are covered: for streams the completion entry is emitted
// once the stream reaches its end.
//
// The logger must not be nil; use observability.Nop to disable output.
func NewLoggingMiddleware(logger observability.Logger) pipeline.MiddlewareConfig {
	return pipeline.MiddlewareConfig{
		Send:   buildSendLogging(logger),
		Stream: buildStreamLogging(logger),
	}
}

func buildSendLogging(logger observability.Logger) pipeline.Middleware {
	return func(next pipeline.SendFunc) pipeline.SendFunc {
		return func(ctx context.Context, req pipeline.Request) (*types.Output, error) {
			logger.Info(ctx, "provider call",
				observability.String(observability.AttrProvider, string(req.Model.Provider)),
				observability.String(observability.AttrModel, req.Model.ID),
			)

			timer := utils.NewTimer()
			output, err := next(ctx, req)
			timer.Stop()

			if err != nil {
				logger.Error(ctx, "provider call failed",
					observability.String(observability.AttrModel, req.Model.ID),
					observability.Duration("duration", timer.GetDuration()),
					observability.Error(err),
				)
				return nil, err
			}

			attrs := []observability.Attribute{
				observability.String(observability.AttrModel, req.Model.ID),
				observability.Duration("duration", timer.GetDuration()),
			}
			if !output.Usage.IsZero() {
				attrs = append(attrs,
					observability.Int("usage.input_tokens", output.Usage.InputTokens),
					observability.Int("usage.output_tokens", output.Usage.OutputTokens),
				)
			}
			logger.Info(ctx, "provider call completed", attrs...)

			return output, nil
		}
	}
}

func buildStreamLogging(logger observability.Logger) pipeline.StreamMiddleware {
	return func(next pipeline.StreamFunc) pipeline.StreamFunc {
		return func(ctx context.Context, req pipeline.Request) (*stream.Aggregator, error) {
			logger.Info(ctx, "provider stream",
				observability.String(observability.AttrProvider, string(req.Model.Provider)),
				observability.String(observability.AttrModel, req.Model.ID),
			)

			timer := utils.NewTimer()
			aggregator, err := next(ctx, req)
			if err != nil {
				timer.Stop()
				logger.Error(ctx, "provider stream failed",
					observability.String(observability.AttrModel, req.Model.ID),
					observability.Duration("duration", timer.GetDuration()),
					observability.Error(err),
				)
				return nil, err
			}

			aggregator.OnDone(func() {
				timer.Stop()
				logger.Info(ctx, "provider stream ended",
					observability.String(observability.AttrModel, req.Model.ID),
					observability.Duration("duration", timer.GetDuration()),
				)
			})
			return aggregator, nil
		}
	}
}
