package observability

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var loggerContextKey = contextKey{}

// FromContext extracts the Logger from the context, or a no-op Logger when
// none is attached.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Nop()
	}
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}
	return Nop()
}

// ContextWith returns a new context carrying the given logger.
func ContextWith(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}
