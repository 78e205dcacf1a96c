package bfl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/params"
	"github.com/withceleste/celeste-go/core/types"
)

// qualitySteps maps the logical quality parameter to diffusion step counts.
var qualitySteps = map[string]int{
	"draft":    15,
	"standard": 28,
	"high":     50,
}

// Mappers returns the image-generation mapper chain in its declared order.
// stepsMapper precedes qualityMapper: an explicit steps value wins over the
// step count a quality tier implies.
func Mappers() []params.Mapper {
	return []params.Mapper{
		params.FieldMapper{Name: types.ParamAspectRatio, Field: "aspect_ratio"},
		sizeMapper{},
		params.FieldMapper{Name: "steps", Field: "steps"},
		qualityMapper{},
		params.FieldMapper{Name: types.ParamSeed, Field: "seed"},
		params.FieldMapper{Name: "guidance", Field: "guidance"},
		params.FieldMapper{Name: "prompt_upsampling", Field: "prompt_upsampling"},
		params.FieldMapper{Name: "safety_tolerance", Field: "safety_tolerance"},
		params.FieldMapper{Name: types.ParamOutputFormat, Field: "output_format"},
	}
}

// Exclusions declares the parameter pairs that cannot be combined on one
// call. aspect_ratio and size both dictate output geometry.
func Exclusions() []params.Exclusion {
	return []params.Exclusion{
		{First: types.ParamAspectRatio, Second: types.ParamSize},
	}
}

// sizeMapper splits a normalized "WIDTHxHEIGHT" size into the separate width
// and height fields the API expects.
type sizeMapper struct{}

func (sizeMapper) Parameter() types.Parameter { return types.ParamSize }

func (sizeMapper) Map(req params.Request, value any, _ model.Model) error {
	size, ok := value.(string)
	if !ok {
		return fmt.Errorf("size must be a string, got %T", value)
	}
	width, height, ok := strings.Cut(size, "x")
	if !ok {
		return fmt.Errorf("size must be WIDTHxHEIGHT, got %q", size)
	}

	w, err := strconv.Atoi(width)
	if err != nil {
		return fmt.Errorf("size width %q is not an integer", width)
	}
	h, err := strconv.Atoi(height)
	if err != nil {
		return fmt.Errorf("size height %q is not an integer", height)
	}

	req["width"] = w
	req["height"] = h
	return nil
}

func (sizeMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}

// qualityMapper translates the logical quality tier into a step count. It
// writes through SetDefault so a steps value produced earlier in the chain is
// never clobbered.
type qualityMapper struct{}

func (qualityMapper) Parameter() types.Parameter { return types.ParamQuality }

func (qualityMapper) Map(req params.Request, value any, _ model.Model) error {
	tier, ok := value.(string)
	if !ok {
		return fmt.Errorf("quality must be a string, got %T", value)
	}
	steps, known := qualitySteps[tier]
	if !known {
		return fmt.Errorf("unknown quality tier %q", tier)
	}

	req.SetDefault("steps", steps)
	return nil
}

func (qualityMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}
