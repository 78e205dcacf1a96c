// Package params implements the parameter-mapping pipeline: logical,
// provider-agnostic parameters are validated against a model's constraints and
// folded into a provider-shaped request by an ordered list of mappers.
//
// The builder is strictly validate-then-mutate: every supplied value is
// checked against its constraint (and every declared mutual exclusion) before
// a single mapper runs, so a violation never leaves a partially-built request.
package params

import (
	"fmt"
	"maps"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/model"
	"github.com/withceleste/celeste-go/core/types"
)

// Request is an evolving provider-shaped request body. It is owned exclusively
// by one call: built by exactly one Builder pass, read by exactly one
// transport call, never shared across calls.
type Request map[string]any

// SetDefault writes value under key only when the key is absent, and reports
// whether the write happened. Mappers whose provider semantics force
// ordering-dependent conflict resolution (a later mapper must not clobber a
// field an earlier mapper already produced) use this instead of direct
// assignment.
func (r Request) SetDefault(key string, value any) bool {
	if _, exists := r[key]; exists {
		return false
	}
	r[key] = value
	return true
}

// Clone returns a shallow copy of the request. The builder clones the base
// request so shared base templates are never mutated.
func (r Request) Clone() Request {
	if r == nil {
		return Request{}
	}
	return Request(maps.Clone(map[string]any(r)))
}

// Params carries the logical parameter values supplied for one call. A nil or
// missing value means "omit the field", never an error.
type Params map[types.Parameter]any

// Mapper translates one logical parameter into a provider request fragment.
// Map receives an already-validated value (the constraint's normalized form)
// and MUST NOT alter keys it does not own; use Request.SetDefault where
// provider semantics require last-writer-skips conflict resolution.
type Mapper interface {
	// Parameter names the logical parameter this mapper owns.
	Parameter() types.Parameter

	// Map folds the validated value into the request.
	Map(req Request, value any, m model.Model) error

	// ParseOutput is the inverse direction: it reconstructs a typed result
	// from response content based on the originally supplied value. It MUST
	// be idempotent when content is already typed. Mappers with no output
	// transformation return content unchanged.
	ParseOutput(content any, value any) (any, error)
}

// FieldMapper maps a parameter directly to one flat request field. When
// SkipIfSet is true the mapper yields to whichever earlier mapper already
// produced the field.
type FieldMapper struct {
	Name      types.Parameter
	Field     string
	SkipIfSet bool
}

// Parameter implements Mapper.
func (fm FieldMapper) Parameter() types.Parameter { return fm.Name }

// Map writes the validated value to the declared field.
func (fm FieldMapper) Map(req Request, value any, _ model.Model) error {
	if fm.SkipIfSet {
		req.SetDefault(fm.Field, value)
		return nil
	}
	req[fm.Field] = value
	return nil
}

// ParseOutput returns content unchanged.
func (fm FieldMapper) ParseOutput(content any, _ any) (any, error) {
	return content, nil
}

// Exclusion declares a pair of mutually exclusive parameters. Setting both on
// the same call is a constraint violation naming both parameters.
type Exclusion struct {
	First, Second types.Parameter
}

// Builder folds an ordered list of mappers over a base request. The mapper
// order is fixed at construction and is the tie-breaker for field conflicts.
type Builder struct {
	mappers    []Mapper
	exclusions []Exclusion
	byName     map[types.Parameter]Mapper
}

// NewBuilder creates a Builder with the given mapper order and mutual
// exclusion declarations.
func NewBuilder(mappers []Mapper, exclusions ...Exclusion) *Builder {
	byName := make(map[types.Parameter]Mapper, len(mappers))
	for _, m := range mappers {
		byName[m.Parameter()] = m
	}
	return &Builder{mappers: mappers, exclusions: exclusions, byName: byName}
}

// Mappers returns the declared mapper order.
func (b *Builder) Mappers() []Mapper { return b.mappers }

// Build validates all supplied parameters and folds them into a copy of the
// base request. With no parameters set the result equals the base request.
func (b *Builder) Build(base Request, m model.Model, params Params) (Request, error) {
	validated, err := b.validate(m, params)
	if err != nil {
		return nil, err
	}

	req := base.Clone()
	for _, mapper := range b.mappers {
		value, ok := validated[mapper.Parameter()]
		if !ok {
			continue
		}
		if err := mapper.Map(req, value, m); err != nil {
			return nil, fmt.Errorf("mapping parameter %q for model %q: %w",
				mapper.Parameter(), m.ID, err)
		}
	}
	return req, nil
}

// validate runs every check that can fail before any mutation: mutual
// exclusions, ownership (a parameter with no mapper is unsupported), and
// per-parameter constraints. It returns the normalized values.
func (b *Builder) validate(m model.Model, params Params) (map[types.Parameter]any, error) {
	for _, ex := range b.exclusions {
		if isSet(params, ex.First) && isSet(params, ex.Second) {
			return nil, errs.NewParameterConflict(ex.First, ex.Second)
		}
	}

	validated := make(map[types.Parameter]any, len(params))
	for name, value := range params {
		if value == nil {
			continue // unset optional parameter: omit the field
		}
		if _, owned := b.byName[name]; !owned {
			return nil, errs.NewValidationError(
				fmt.Sprintf("parameter %q is not supported by model %q", name, m.ID),
				m.Provider, nil)
		}

		c := m.Constraint(name)
		if c == nil {
			validated[name] = value
			continue
		}
		normalized, err := c.Validate(value)
		if err != nil {
			violation := errs.NewConstraintViolation(name, err.Error())
			violation.Model = m.ID
			violation.Provider = m.Provider
			return nil, violation
		}
		validated[name] = normalized
	}
	return validated, nil
}

// ParseOutput applies the inverse transform of every mapper whose parameter
// was set, in declared order. Providers use it to turn raw response content
// into the caller's requested type (for example deserializing JSON into the
// requested schema).
func (b *Builder) ParseOutput(content any, params Params) (any, error) {
	var err error
	for _, mapper := range b.mappers {
		value, ok := params[mapper.Parameter()]
		if !ok || value == nil {
			continue
		}
		content, err = mapper.ParseOutput(content, value)
		if err != nil {
			return nil, fmt.Errorf("parsing output for parameter %q: %w", mapper.Parameter(), err)
		}
	}
	return content, nil
}

func isSet(params Params, name types.Parameter) bool {
	v, ok := params[name]
	return ok && v != nil
}
