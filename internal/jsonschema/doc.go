// Package jsonschema generates canonical JSON Schema documents from Go types
// via reflection. The canonical form may contain $defs and $ref nodes for
// recursive types; provider dialect rewriting (ref inlining, array wrapping,
// strict mode) lives in core/schema.
package jsonschema
