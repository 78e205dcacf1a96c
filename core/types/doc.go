// Package types defines the shared vocabulary of the generation pipeline:
// provider and capability identifiers, logical parameter names, and the
// capability-agnostic request/response value types (Chunk, Output, Usage,
// FinishReason) exchanged between builders, aggregators and parsers.
//
// Everything in this package is a plain value type. Chunks and Outputs are
// produced once and never mutated afterwards; sharing them across goroutines
// is safe without synchronization.
package types
