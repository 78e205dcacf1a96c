// Package schema converts structured-output schema descriptors to and from
// provider JSON Schema dialects. Providers differ in what they accept: some
// cannot resolve $ref/$defs, some cannot express a bare top-level array, and
// some demand "strict" schemas with additionalProperties: false on every
// object node. Normalize rewrites the canonical schema into the requested
// dialect and remembers enough to invert the rewriting at parse time.
package schema

import (
	"fmt"
	"strings"

	"github.com/withceleste/celeste-go/internal/jsonschema"
)

// Kind is the logical output shape of a structured-output request.
type Kind int

const (
	// KindObject requests a single object of the described type.
	KindObject Kind = iota
	// KindList requests a homogeneous list of the described type.
	KindList
)

// Descriptor is the immutable input to the normalizer: a logical output type
// (single object or homogeneous list) with its canonical item schema.
type Descriptor struct {
	Kind Kind
	Item *jsonschema.Schema
}

// Object builds a Descriptor for a single object of type T.
func Object[T any]() *Descriptor {
	return &Descriptor{Kind: KindObject, Item: jsonschema.For[T]()}
}

// List builds a Descriptor for a homogeneous list of T.
func List[T any]() *Descriptor {
	return &Descriptor{Kind: KindList, Item: jsonschema.For[T]()}
}

// Dialect declares what a provider's schema flavor requires.
type Dialect struct {
	// InlineRefs replaces every $ref with its resolved definition and drops
	// the $defs table (providers that cannot resolve references).
	InlineRefs bool
	// WrapTopLevelArrays wraps a bare top-level array schema in
	// {type: object, properties: {items: ...}, required: [items]}.
	WrapTopLevelArrays bool
	// Strict sets additionalProperties: false on every object node.
	Strict bool
}

// wrapperKey is the property name used when a top-level array must be wrapped.
const wrapperKey = "items"

// Normalized is the dialect-rewritten schema plus the state needed to invert
// the rewriting when parsing provider output.
type Normalized struct {
	Schema  *jsonschema.Schema
	kind    Kind
	wrapped bool
}

// Wrapped reports whether the top-level array was wrapped in an object.
func (n *Normalized) Wrapped() bool { return n.wrapped }

// Normalize rewrites the descriptor's canonical schema into the given dialect.
// The descriptor is never mutated; the result owns a private copy.
func Normalize(desc *Descriptor, dialect Dialect) (*Normalized, error) {
	root := desc.Item.Clone()
	if desc.Kind == KindList {
		// Hoist item-level definitions to the new array root so reference
		// resolution sees one flat symbol table.
		defs := root.Defs
		root.Defs = nil
		root = &jsonschema.Schema{Type: "array", Items: root, Defs: defs}
	}

	if dialect.InlineRefs {
		resolved, err := inlineRefs(root)
		if err != nil {
			return nil, err
		}
		root = resolved
	}

	n := &Normalized{Schema: root, kind: desc.Kind}

	if dialect.WrapTopLevelArrays && root.Type == "array" {
		n.Schema = &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{wrapperKey: root},
			Required:   []string{wrapperKey},
		}
		n.wrapped = true
	}

	if dialect.Strict {
		applyStrict(n.Schema)
	}

	return n, nil
}

// inlineRefs collects the root's definitions into a flat symbol table and
// recursively replaces every reference with its resolved definition. Sibling
// keys at the reference site win over the referenced definition's own keys.
// A second reference to an already-resolved name reuses the resolved value
// rather than re-expanding, which bounds recursion for diamond-shaped graphs;
// truly cyclic schemas are out of scope and fail with an error.
func inlineRefs(root *jsonschema.Schema) (*jsonschema.Schema, error) {
	defs := root.Defs
	root.Defs = nil
	if len(defs) == 0 && !hasRef(root) {
		return root, nil
	}

	r := &resolver{defs: defs, resolved: make(map[string]*jsonschema.Schema)}
	out, err := r.resolve(root, nil)
	if err != nil {
		return nil, err
	}
	out.Defs = nil
	return out, nil
}

type resolver struct {
	defs     map[string]*jsonschema.Schema
	resolved map[string]*jsonschema.Schema
}

func (r *resolver) resolve(node *jsonschema.Schema, path []string) (*jsonschema.Schema, error) {
	if node == nil {
		return nil, nil
	}

	if node.Ref != "" {
		name, ok := strings.CutPrefix(node.Ref, "#/$defs/")
		if !ok {
			return nil, fmt.Errorf("unsupported schema reference %q", node.Ref)
		}
		resolved, err := r.resolveName(name, path)
		if err != nil {
			return nil, err
		}
		return mergeRefSite(resolved, node), nil
	}

	out := &jsonschema.Schema{
		Type:                 node.Type,
		Description:          node.Description,
		Required:             node.Required,
		Enum:                 node.Enum,
		AdditionalProperties: node.AdditionalProperties,
	}
	if node.Properties != nil {
		out.Properties = make(map[string]*jsonschema.Schema, len(node.Properties))
		for name, prop := range node.Properties {
			resolved, err := r.resolve(prop, path)
			if err != nil {
				return nil, err
			}
			out.Properties[name] = resolved
		}
	}
	if node.Items != nil {
		items, err := r.resolve(node.Items, path)
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	if ap, ok := node.AdditionalProperties.(*jsonschema.Schema); ok {
		resolved, err := r.resolve(ap, path)
		if err != nil {
			return nil, err
		}
		out.AdditionalProperties = resolved
	}
	return out, nil
}

func (r *resolver) resolveName(name string, path []string) (*jsonschema.Schema, error) {
	if done, ok := r.resolved[name]; ok {
		return done, nil
	}
	for _, ancestor := range path {
		if ancestor == name {
			return nil, fmt.Errorf("cyclic schema reference through %q cannot be inlined", name)
		}
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("unresolved schema reference %q", name)
	}
	resolved, err := r.resolve(def, append(path, name))
	if err != nil {
		return nil, err
	}
	r.resolved[name] = resolved
	return resolved, nil
}

// mergeRefSite overlays non-zero sibling keys of the reference site onto a
// copy of the resolved definition; the site's keys win.
func mergeRefSite(resolved *jsonschema.Schema, site *jsonschema.Schema) *jsonschema.Schema {
	out := resolved.Clone()
	if site.Description != "" {
		out.Description = site.Description
	}
	if site.Type != "" {
		out.Type = site.Type
	}
	if len(site.Enum) > 0 {
		out.Enum = site.Enum
	}
	if len(site.Required) > 0 {
		out.Required = site.Required
	}
	return out
}

// applyStrict sets additionalProperties: false on every object node that does
// not already declare a policy.
func applyStrict(node *jsonschema.Schema) {
	if node == nil {
		return
	}
	if node.Type == "object" && node.AdditionalProperties == nil {
		node.AdditionalProperties = false
	}
	for _, prop := range node.Properties {
		applyStrict(prop)
	}
	applyStrict(node.Items)
	for _, def := range node.Defs {
		applyStrict(def)
	}
	if ap, ok := node.AdditionalProperties.(*jsonschema.Schema); ok {
		applyStrict(ap)
	}
}

func hasRef(node *jsonschema.Schema) bool {
	if node == nil {
		return false
	}
	if node.Ref != "" {
		return true
	}
	for _, prop := range node.Properties {
		if hasRef(prop) {
			return true
		}
	}
	if hasRef(node.Items) {
		return true
	}
	if ap, ok := node.AdditionalProperties.(*jsonschema.Schema); ok {
		return hasRef(ap)
	}
	return false
}
