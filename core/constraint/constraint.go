// Package constraint implements validation rules attached to model parameters.
// A Constraint validates a logical parameter value and returns its normalized
// form (presets resolved, numerics coerced) before any request mutation
// happens. Violation errors carry only the rule description; the request
// builder wraps them with the offending parameter name.
package constraint

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/withceleste/celeste-go/core/schema"
	"github.com/withceleste/celeste-go/core/types"
)

// Constraint validates a parameter value and returns the validated (possibly
// normalized) value. Implementations never mutate their input.
type Constraint interface {
	Validate(value any) (any, error)
}

// Choice restricts a value to a fixed option set.
type Choice struct {
	Options []string
}

// Validate checks membership in Options.
func (c Choice) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("must be a string, got %T", value)
	}
	if !slices.Contains(c.Options, s) {
		return nil, fmt.Errorf("must be one of %v, got %q", c.Options, s)
	}
	return s, nil
}

// Range bounds a numeric value to [Min, Max]. If Step is non-zero the value
// must sit at Min + n*Step. SpecialValues bypass the bounds check entirely.
type Range struct {
	Min, Max      float64
	Step          float64
	SpecialValues []float64
}

// Validate checks bounds and step alignment; the value comes back as float64.
func (r Range) Validate(value any) (any, error) {
	v, err := toFloat(value)
	if err != nil {
		return nil, err
	}

	if slices.Contains(r.SpecialValues, v) {
		return v, nil
	}

	if v < r.Min || v > r.Max {
		special := ""
		if len(r.SpecialValues) > 0 {
			special = fmt.Sprintf(" or one of %v", r.SpecialValues)
		}
		return nil, fmt.Errorf("must be between %v and %v%s, got %v", r.Min, r.Max, special, v)
	}

	if r.Step != 0 {
		remainder := math.Mod(v-r.Min, r.Step)
		const epsilon = 1e-9
		if math.Abs(remainder) > epsilon && math.Abs(remainder-r.Step) > epsilon {
			below := r.Min + math.Floor((v-r.Min)/r.Step)*r.Step
			return nil, fmt.Errorf("must match step %v; nearest valid: %v or %v, got %v",
				r.Step, below, below+r.Step, v)
		}
	}

	return v, nil
}

// Pattern requires a string to fully match a regular expression.
type Pattern struct {
	Pattern string
}

// patternCache holds the compiled form of every Pattern seen so far. Patterns
// come from fixed model catalogues, so the cache stays small and compilation
// happens once per distinct expression.
var patternCache sync.Map // pattern string -> *regexp.Regexp

func (p Pattern) compiled() (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(p.Pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("^(?:" + p.Pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", p.Pattern, err)
	}
	patternCache.Store(p.Pattern, re)
	return re, nil
}

// Validate checks the full-string match.
func (p Pattern) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("must be a string, got %T", value)
	}
	re, err := p.compiled()
	if err != nil {
		return nil, err
	}
	if !re.MatchString(s) {
		return nil, fmt.Errorf("must match pattern %q, got %q", p.Pattern, s)
	}
	return s, nil
}

// Dimensions validates a "WIDTHxHEIGHT" string against pixel-count and aspect
// ratio bounds. Presets maps friendly names ("square_hd") to dimension
// strings; a preset key validates as its expansion. The validated value is the
// normalized "WxH" form.
type Dimensions struct {
	MinPixels, MaxPixels           int
	MinAspectRatio, MaxAspectRatio float64
	Presets                        map[string]string
}

// Validate parses, bounds-checks and normalizes the dimension string.
func (d Dimensions) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("must be a string, got %T", value)
	}

	actual := s
	if preset, found := d.Presets[s]; found {
		actual = preset
	}

	width, height, err := parseDimensions(actual)
	if err != nil {
		return nil, err
	}

	pixels := width * height
	if pixels < d.MinPixels || (d.MaxPixels > 0 && pixels > d.MaxPixels) {
		return nil, fmt.Errorf("total pixels %d outside valid range [%d, %d]",
			pixels, d.MinPixels, d.MaxPixels)
	}

	ratio := float64(width) / float64(height)
	if ratio < d.MinAspectRatio || (d.MaxAspectRatio > 0 && ratio > d.MaxAspectRatio) {
		return nil, fmt.Errorf("aspect ratio %.3f outside valid range [%.3f, %.3f]",
			ratio, d.MinAspectRatio, d.MaxAspectRatio)
	}

	return fmt.Sprintf("%dx%d", width, height), nil
}

func parseDimensions(s string) (width, height int, err error) {
	w, h, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return 0, 0, fmt.Errorf("invalid dimension format %q, expected \"WIDTHxHEIGHT\"", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid dimension format %q: width and height must be positive integers", s)
	}
	return width, height, nil
}

// Str requires a string value with optional length bounds. Zero bounds are
// not enforced.
type Str struct {
	MinLength, MaxLength int
}

// Validate checks type and length.
func (c Str) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("must be a string, got %T", value)
	}
	if c.MinLength > 0 && len(s) < c.MinLength {
		return nil, fmt.Errorf("string too short (min %d), got length %d", c.MinLength, len(s))
	}
	if c.MaxLength > 0 && len(s) > c.MaxLength {
		return nil, fmt.Errorf("string too long (max %d), got length %d", c.MaxLength, len(s))
	}
	return s, nil
}

// Int requires an integral value; float64 inputs (as produced by JSON
// decoding) are accepted when they carry no fractional part. The validated
// value is an int.
type Int struct{}

// Validate coerces to int.
func (Int) Validate(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("must be an integer, got %v", v)
		}
		return int(v), nil
	default:
		return nil, fmt.Errorf("must be an integer, got %T", value)
	}
}

// Float requires a numeric value; ints are accepted. The validated value is a
// float64.
type Float struct{}

// Validate coerces to float64.
func (Float) Validate(value any) (any, error) {
	v, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Bool requires a boolean value.
type Bool struct{}

// Validate checks the type.
func (Bool) Validate(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("must be a bool, got %T", value)
	}
	return b, nil
}

// Schema requires a structured-output schema descriptor. Validation is a
// shape check only; the provider mapper rewrites the schema into its wire
// dialect.
type Schema struct{}

// Validate checks for a *schema.Descriptor carrying an item schema.
func (Schema) Validate(value any) (any, error) {
	desc, ok := value.(*schema.Descriptor)
	if !ok {
		return nil, fmt.Errorf("must be a structured-output schema descriptor, got %T", value)
	}
	if desc.Item == nil {
		return nil, fmt.Errorf("schema descriptor has no item schema")
	}
	return desc, nil
}

// MediaList validates one artifact or a homogeneous artifact list against MIME
// type and count limits. The validated value is always a []types.Artifact.
type MediaList struct {
	SupportedMimeTypes []string
	MaxCount           int
}

// Validate normalizes to a list and checks every element.
func (m MediaList) Validate(value any) (any, error) {
	var items []types.Artifact
	switch v := value.(type) {
	case types.Artifact:
		items = []types.Artifact{v}
	case []types.Artifact:
		items = v
	default:
		return nil, fmt.Errorf("must be an Artifact or []Artifact, got %T", value)
	}

	if m.MaxCount > 0 && len(items) > m.MaxCount {
		return nil, fmt.Errorf("must have at most %d artifact(s), got %d", m.MaxCount, len(items))
	}
	if len(m.SupportedMimeTypes) > 0 {
		for i, item := range items {
			if !slices.Contains(m.SupportedMimeTypes, item.MimeType) {
				return nil, fmt.Errorf("artifact %d: mime type must be one of %v, got %q",
					i+1, m.SupportedMimeTypes, item.MimeType)
			}
		}
	}
	return items, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		return 0, fmt.Errorf("must be numeric, got bool")
	default:
		return 0, fmt.Errorf("must be numeric, got %T", value)
	}
}
