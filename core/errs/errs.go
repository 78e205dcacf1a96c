// Package errs defines the shared error taxonomy raised by the generation
// pipeline. Every error kind embeds the root Error type, so callers can catch
// broadly with errors.As(&*errs.Error) or narrowly with a concrete kind.
//
// Constraint and schema errors are detected before any network call and are
// never auto-retried. Transport errors surface immediately; retry policy is an
// external concern.
package errs

import (
	"fmt"
	"strings"

	"github.com/withceleste/celeste-go/core/types"
)

// Error is the root type shared by every pipeline error. It carries the
// context needed for a human-readable message: the offending parameter, the
// model id, the provider, or the provider status.
type Error struct {
	Message  string
	Provider types.Provider
	Model    string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is / errors.As
// traversal through the chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// rootError is an alias used for embedding the root Error into concrete
// kinds. Embedding through the alias keeps the field name from shadowing the
// promoted Error method, so every kind satisfies the error interface.
type rootError = Error

// ValidationError reports malformed or missing content, for example a
// structured-output payload that cannot be decoded into the requested schema.
type ValidationError struct {
	rootError
}

// NewValidationError creates a ValidationError with the given details.
func NewValidationError(message string, provider types.Provider, err error) *ValidationError {
	return &ValidationError{rootError: Error{Message: message, Provider: provider, Err: err}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *ValidationError) Unwrap() error { return &e.rootError }

// ConstraintViolationError reports a parameter value that fails its declared
// Constraint, or two mutually exclusive parameters set on the same call.
// Parameters names every offending parameter.
type ConstraintViolationError struct {
	rootError
	Parameters []types.Parameter
}

// NewConstraintViolation creates a ConstraintViolationError for a single
// parameter whose value failed validation.
func NewConstraintViolation(parameter types.Parameter, message string) *ConstraintViolationError {
	return &ConstraintViolationError{
		rootError:  Error{Message: fmt.Sprintf("parameter %q: %s", parameter, message)},
		Parameters: []types.Parameter{parameter},
	}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *ConstraintViolationError) Unwrap() error { return &e.rootError }

// NewParameterConflict creates a ConstraintViolationError naming two mutually
// exclusive parameters that were both set.
func NewParameterConflict(first, second types.Parameter) *ConstraintViolationError {
	return &ConstraintViolationError{
		rootError: Error{Message: fmt.Sprintf(
			"parameters %q and %q are mutually exclusive; set at most one", first, second)},
		Parameters: []types.Parameter{first, second},
	}
}

// ModelNotFoundError reports a (model id, provider) pair absent from the
// registry.
type ModelNotFoundError struct {
	rootError
}

// NewModelNotFound creates a ModelNotFoundError.
func NewModelNotFound(modelID string, provider types.Provider) *ModelNotFoundError {
	return &ModelNotFoundError{rootError: Error{
		Message:  fmt.Sprintf("model %q not found for provider %s", modelID, provider),
		Provider: provider,
		Model:    modelID,
	}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *ModelNotFoundError) Unwrap() error { return &e.rootError }

// UnsupportedCapabilityError reports a model asked to serve a capability it
// does not declare.
type UnsupportedCapabilityError struct {
	rootError
	Capability types.Capability
}

// NewUnsupportedCapability creates an UnsupportedCapabilityError.
func NewUnsupportedCapability(modelID string, capability types.Capability) *UnsupportedCapabilityError {
	return &UnsupportedCapabilityError{
		rootError: Error{
			Message: fmt.Sprintf("model %q does not support capability %q", modelID, capability),
			Model:   modelID,
		},
		Capability: capability,
	}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *UnsupportedCapabilityError) Unwrap() error { return &e.rootError }

// ClientNotFoundError reports that no pipeline is registered for a
// (capability, provider) combination.
type ClientNotFoundError struct {
	rootError
	Capability types.Capability
}

// NewClientNotFound creates a ClientNotFoundError.
func NewClientNotFound(capability types.Capability, provider types.Provider) *ClientNotFoundError {
	return &ClientNotFoundError{
		rootError: Error{
			Message:  fmt.Sprintf("no client registered for %s with provider %s", capability, provider),
			Provider: provider,
		},
		Capability: capability,
	}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *ClientNotFoundError) Unwrap() error { return &e.rootError }

// MissingCredentialsError reports a provider with no resolvable credentials.
type MissingCredentialsError struct {
	rootError
}

// NewMissingCredentials creates a MissingCredentialsError naming the
// environment variable that would satisfy it.
func NewMissingCredentials(provider types.Provider, envVar string) *MissingCredentialsError {
	return &MissingCredentialsError{rootError: Error{
		Message: fmt.Sprintf(
			"provider %s has no credentials configured; set %s or pass an API key", provider, envVar),
		Provider: provider,
	}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *MissingCredentialsError) Unwrap() error { return &e.rootError }

// StreamingNotSupportedError reports a streaming request against a model that
// only supports single-shot or polled completion.
type StreamingNotSupportedError struct {
	rootError
}

// NewStreamingNotSupported creates a StreamingNotSupportedError.
func NewStreamingNotSupported(modelID string) *StreamingNotSupportedError {
	return &StreamingNotSupportedError{rootError: Error{
		Message: fmt.Sprintf("streaming not supported for model %q", modelID),
		Model:   modelID,
	}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *StreamingNotSupportedError) Unwrap() error { return &e.rootError }

// StreamNotExhaustedError reports access to a stream's Output before the
// stream reached a terminal state.
type StreamNotExhaustedError struct {
	rootError
}

// NewStreamNotExhausted creates a StreamNotExhaustedError.
func NewStreamNotExhausted() *StreamNotExhaustedError {
	return &StreamNotExhaustedError{rootError: Error{
		Message: "stream not exhausted; consume all chunks before accessing Output",
	}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *StreamNotExhaustedError) Unwrap() error { return &e.rootError }

// StreamEmptyError reports a stream that reached its end without producing a
// single chunk.
type StreamEmptyError struct {
	rootError
}

// NewStreamEmpty creates a StreamEmptyError.
func NewStreamEmpty() *StreamEmptyError {
	return &StreamEmptyError{rootError: Error{
		Message: "stream completed but no chunks were produced",
	}}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *StreamEmptyError) Unwrap() error { return &e.rootError }

// TimeoutError reports an async polling operation that exceeded its configured
// timeout before reaching a terminal status. Distinct from a polling failure:
// the provider-side job may still complete.
type TimeoutError struct {
	rootError
	TaskID string
}

// NewPollTimeout creates a TimeoutError for a polled task.
func NewPollTimeout(provider types.Provider, taskID string, message string) *TimeoutError {
	return &TimeoutError{
		rootError: Error{Message: message, Provider: provider},
		TaskID:    taskID,
	}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *TimeoutError) Unwrap() error { return &e.rootError }

// TransportError wraps a provider HTTP failure with its status code and raw
// body. It is the generic kind for 4xx/5xx responses and malformed payloads
// at the transport boundary.
type TransportError struct {
	rootError
	StatusCode int
	Body       string
}

// NewTransportError creates a TransportError from a provider response.
func NewTransportError(provider types.Provider, statusCode int, body []byte, err error) *TransportError {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = fmt.Sprintf("HTTP %d error", statusCode)
	}
	return &TransportError{
		rootError:  Error{Message: message, Provider: provider, Err: err},
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// Unwrap exposes the embedded root, keeping the cause reachable through it.
func (e *TransportError) Unwrap() error { return &e.rootError }
