// Package observability defines the structured logging contract used across
// the generation pipeline, with a slog-backed implementation and context
// plumbing so concurrent calls carry their own observer.
package observability

import (
	"context"
	"fmt"
	"time"
)

// Logger provides leveled structured logging. Implementations must be safe
// for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key-value pair of log metadata.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Int creates an int attribute.
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Bool creates a bool attribute.
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

// Duration creates a duration attribute.
func Duration(key string, value time.Duration) Attribute { return Attribute{Key: key, Value: value} }

// Error creates an error attribute.
func Error(err error) Attribute { return Attribute{Key: "error", Value: fmt.Sprint(err)} }

// Common attribute keys for generation calls.
const (
	AttrProvider   = "gen.provider"
	AttrCapability = "gen.capability"
	AttrModel      = "gen.model"
	AttrStreaming  = "gen.streaming"

	AttrHTTPMethod           = "http.method"
	AttrHTTPURL              = "http.url"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPDuration         = "http.duration"
	AttrHTTPRequestBodySize  = "http.request_body_size"
	AttrHTTPResponseBodySize = "http.response_body_size"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Attribute) {}
func (nopLogger) Info(context.Context, string, ...Attribute)  {}
func (nopLogger) Warn(context.Context, string, ...Attribute)  {}
func (nopLogger) Error(context.Context, string, ...Attribute) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }
