// Package middleware provides built-in middleware implementations for
// generation pipelines. Each middleware is constructed via a New* function
// that returns a [pipeline.MiddlewareConfig] ready to be passed in
// [pipeline.Config.Middlewares].
//
// # Available Middleware
//
//   - [NewTimeoutMiddleware]: Adds a per-request deadline via
//     context.WithTimeout, ensuring that a stalled provider call does not
//     block the caller indefinitely. For streams the deadline covers the
//     full lifetime of the stream, not just the first byte.
//
//   - [NewLoggingMiddleware]: Emits structured log entries before and after
//     every provider call through the observability Logger.
//
// Retry is deliberately absent: callers own their retry policy and apply it
// around the pipeline.
//
// Middlewares execute outermost-first: the first entry in Middlewares is the
// outermost wrapper, meaning it runs first on the way in and last on the way
// out.
package middleware
