// Package parse decodes model-produced text into typed Go values. Generation
// services frequently emit JSON that is almost well-formed (single quotes,
// trailing commas, unquoted keys); the decoder repairs such payloads with
// jsonrepair before giving up.
package parse
