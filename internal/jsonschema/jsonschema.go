package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Schema represents one node of a JSON Schema document. It follows the JSON
// Schema standard, supporting object/array/primitive types, nested properties,
// enum restrictions, and $ref/$defs for recursive definitions.
type Schema struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object node, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items defines the element schema of an array node.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether undeclared object keys are allowed.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Enum lists the allowed values for this node.
	Enum []any `json:"enum,omitempty"`
	// Ref points into Defs; used to express recursive types.
	Ref string `json:"$ref,omitempty"`
	// Defs holds reusable definitions referenced via $ref.
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// For generates the canonical JSON Schema for type T. Recursive struct types
// are expressed with a $defs table and $ref nodes; everything else is inlined.
func For[T any]() *Schema {
	g := &generator{
		visited: make(map[reflect.Type]string),
		defs:    make(map[string]*Schema),
	}
	schema := g.typeSchema(reflect.TypeFor[T]())
	if len(g.defs) > 0 {
		schema.Defs = g.defs
	}
	return schema
}

type generator struct {
	visited map[reflect.Type]string // struct type -> definition name
	defs    map[string]*Schema
}

func (g *generator) typeSchema(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Pointer:
		return g.typeSchema(t.Elem())
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: g.typeSchema(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: g.typeSchema(t.Elem())}
	case reflect.Struct:
		return g.structSchema(t)
	default:
		return &Schema{Type: "object"}
	}
}

func (g *generator) structSchema(t reflect.Type) *Schema {
	if name, seen := g.visited[t]; seen {
		return &Schema{Ref: "#/$defs/" + name}
	}

	recursive := referencesSelf(t, t, map[reflect.Type]bool{})
	if recursive {
		// Reserve the definition name before descending so nested
		// occurrences resolve to a $ref instead of recursing forever.
		name := defName(t)
		g.visited[t] = name
		g.defs[name] = g.objectSchema(t)
		return &Schema{Ref: "#/$defs/" + name}
	}

	return g.objectSchema(t)
}

func (g *generator) objectSchema(t reflect.Type) *Schema {
	schema := &Schema{Type: "object", Properties: map[string]*Schema{}}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		// On $ref nodes the tag attrs become sibling keys; consumers that
		// inline refs overlay them onto the resolved definition.
		fieldSchema := g.typeSchema(field.Type)
		applyTag(field.Tag.Get("jsonschema"), fieldSchema)
		schema.Properties[name] = fieldSchema

		if field.Type.Kind() != reflect.Pointer && !omitEmpty {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// jsonName resolves the property name of a struct field from its json tag.
func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				omitEmpty = true
			}
		}
	}
	return name, omitEmpty, false
}

// applyTag parses a jsonschema struct tag and folds its settings into the
// schema. Supported entries: "description=...", repeated "enum=...".
func applyTag(tag string, schema *Schema) {
	if tag == "" {
		return
	}
	for _, item := range strings.Split(tag, ",") {
		key, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		switch key {
		case "description":
			schema.Description = value
		case "enum":
			schema.Enum = append(schema.Enum, value)
		}
	}
}

// referencesSelf reports whether target appears in the field graph of current.
func referencesSelf(target, current reflect.Type, seen map[reflect.Type]bool) bool {
	for current.Kind() == reflect.Pointer || current.Kind() == reflect.Slice || current.Kind() == reflect.Array {
		current = current.Elem()
	}
	if current.Kind() != reflect.Struct || seen[current] {
		return false
	}
	seen[current] = true

	for i := 0; i < current.NumField(); i++ {
		field := current.Field(i)
		if !field.IsExported() {
			continue
		}
		ft := field.Type
		for ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array {
			ft = ft.Elem()
		}
		if ft == target {
			return true
		}
		if ft.Kind() == reflect.Struct && referencesSelf(target, ft, seen) {
			return true
		}
	}
	return false
}

func defName(t reflect.Type) string {
	if t.Name() != "" {
		return strings.ToLower(t.Name())
	}
	return "anonymousstruct"
}

// Clone returns a deep copy of the schema. Dialect rewriting mutates schema
// trees in place, so callers clone before normalizing a shared canonical form.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		Type:        s.Type,
		Description: s.Description,
		Ref:         s.Ref,
		Items:       s.Items.Clone(),
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		out.Enum = append([]any(nil), s.Enum...)
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.Clone()
		}
	}
	if s.Defs != nil {
		out.Defs = make(map[string]*Schema, len(s.Defs))
		for name, def := range s.Defs {
			out.Defs[name] = def.Clone()
		}
	}
	switch ap := s.AdditionalProperties.(type) {
	case *Schema:
		out.AdditionalProperties = ap.Clone()
	default:
		out.AdditionalProperties = s.AdditionalProperties
	}
	return out
}

// JSONString renders the schema as compact JSON.
func (s *Schema) JSONString() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(raw), nil
}

// String returns the JSON representation, or an error message if marshalling
// fails.
func (s *Schema) String() string {
	raw, err := s.JSONString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return raw
}
