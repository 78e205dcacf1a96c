package model

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/withceleste/celeste-go/core/constraint"
	"github.com/withceleste/celeste-go/core/types"
)

// manifest is the YAML document shape for declaring model catalogues outside
// of code. Constraint kinds mirror the constraint package; unknown kinds are
// rejected at load time.
type manifest struct {
	Models []manifestModel `yaml:"models"`
}

type manifestModel struct {
	ID           string                        `yaml:"id"`
	Provider     string                        `yaml:"provider"`
	DisplayName  string                        `yaml:"display_name"`
	Capabilities []string                      `yaml:"capabilities"`
	Streaming    bool                          `yaml:"streaming"`
	Parameters   map[string]manifestConstraint `yaml:"parameters"`
}

type manifestConstraint struct {
	Kind          string            `yaml:"kind"`
	Options       []string          `yaml:"options,omitempty"`
	Min           float64           `yaml:"min,omitempty"`
	Max           float64           `yaml:"max,omitempty"`
	Step          float64           `yaml:"step,omitempty"`
	SpecialValues []float64         `yaml:"special_values,omitempty"`
	Pattern       string            `yaml:"pattern,omitempty"`
	MinPixels     int               `yaml:"min_pixels,omitempty"`
	MaxPixels     int               `yaml:"max_pixels,omitempty"`
	MinAspect     float64           `yaml:"min_aspect_ratio,omitempty"`
	MaxAspect     float64           `yaml:"max_aspect_ratio,omitempty"`
	Presets       map[string]string `yaml:"presets,omitempty"`
	MinLength     int               `yaml:"min_length,omitempty"`
	MaxLength     int               `yaml:"max_length,omitempty"`
	MimeTypes     []string          `yaml:"mime_types,omitempty"`
	MaxCount      int               `yaml:"max_count,omitempty"`
}

// LoadManifest reads a YAML model manifest and registers every declared model.
//
// Example document:
//
//	models:
//	  - id: gpt-4o-mini
//	    provider: openai
//	    capabilities: [text-generation]
//	    streaming: true
//	    parameters:
//	      temperature: {kind: range, min: 0.0, max: 2.0}
//	      output_format: {kind: choice, options: [text, markdown, json]}
func (r *Registry) LoadManifest(reader io.Reader) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc manifest
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	for _, entry := range doc.Models {
		m, err := entry.toModel()
		if err != nil {
			return fmt.Errorf("manifest model %q: %w", entry.ID, err)
		}
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (e manifestModel) toModel() (Model, error) {
	if e.ID == "" || e.Provider == "" {
		return Model{}, fmt.Errorf("id and provider are required")
	}

	m := Model{
		ID:          e.ID,
		Provider:    types.Provider(e.Provider),
		DisplayName: e.DisplayName,
		Streaming:   e.Streaming,
		Constraints: make(map[types.Parameter]constraint.Constraint, len(e.Parameters)),
	}
	for _, c := range e.Capabilities {
		m.Capabilities = append(m.Capabilities, types.Capability(c))
	}
	for name, mc := range e.Parameters {
		c, err := mc.toConstraint()
		if err != nil {
			return Model{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		m.Constraints[types.Parameter(name)] = c
	}
	return m, nil
}

func (mc manifestConstraint) toConstraint() (constraint.Constraint, error) {
	switch mc.Kind {
	case "choice":
		return constraint.Choice{Options: mc.Options}, nil
	case "range":
		return constraint.Range{Min: mc.Min, Max: mc.Max, Step: mc.Step, SpecialValues: mc.SpecialValues}, nil
	case "pattern":
		return constraint.Pattern{Pattern: mc.Pattern}, nil
	case "dimensions":
		return constraint.Dimensions{
			MinPixels: mc.MinPixels, MaxPixels: mc.MaxPixels,
			MinAspectRatio: mc.MinAspect, MaxAspectRatio: mc.MaxAspect,
			Presets: mc.Presets,
		}, nil
	case "string":
		return constraint.Str{MinLength: mc.MinLength, MaxLength: mc.MaxLength}, nil
	case "int":
		return constraint.Int{}, nil
	case "float":
		return constraint.Float{}, nil
	case "bool":
		return constraint.Bool{}, nil
	case "media":
		return constraint.MediaList{SupportedMimeTypes: mc.MimeTypes, MaxCount: mc.MaxCount}, nil
	default:
		return nil, fmt.Errorf("unknown constraint kind %q", mc.Kind)
	}
}
