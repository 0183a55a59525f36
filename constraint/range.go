package constraint

import (
	"fmt"
	"math"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Range constrains a numeric value to an optional [Min, Max] interval with
// an optional Step. Either bound may be nil for unbounded on that side.
//
// When Step is set, candidates are silently canonicalized by rounding to the
// nearest multiple of Step anchored at Min (or 0 when Min is nil), with ties
// rounded to the even multiple. Bounds are checked on the raw value first;
// a snap that then lands one step outside the interval is clamped back
// inside.
type Range struct {
	Min  *float64
	Max  *float64
	Step *float64
}

// NewRange creates an inclusive numeric range constraint
func NewRange(min, max float64) *Range {
	return &Range{Min: &min, Max: &max}
}

// NewSteppedRange creates a numeric range constraint with step rounding
func NewSteppedRange(min, max, step float64) *Range {
	return &Range{Min: &min, Max: &max, Step: &step}
}

// NewMinimum creates a range bounded only from below
func NewMinimum(min float64) *Range {
	return &Range{Min: &min}
}

// Validate implements Constraint
func (r *Range) Validate(raw any) (any, error) {
	v, ok := asFloat(raw)
	if !ok {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: expected number, got %T", errors.ErrTypeMismatch, raw),
			"Range", "Validate", "numeric coercion")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: value must be finite", errors.ErrTypeMismatch),
			"Range", "Validate", "numeric coercion")
	}

	if r.Min != nil && v < *r.Min {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: %v < minimum %v", errors.ErrOutOfRange, v, *r.Min),
			"Range", "Validate", "bounds check")
	}
	if r.Max != nil && v > *r.Max {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: %v > maximum %v", errors.ErrOutOfRange, v, *r.Max),
			"Range", "Validate", "bounds check")
	}

	if r.Step != nil && *r.Step > 0 {
		v = r.snap(v)
	}

	return v, nil
}

// snap rounds v to the nearest step multiple from the anchor, ties to even,
// then clamps back inside the bounds.
func (r *Range) snap(v float64) float64 {
	anchor := 0.0
	if r.Min != nil {
		anchor = *r.Min
	}
	step := *r.Step

	snapped := anchor + math.RoundToEven((v-anchor)/step)*step
	if r.Min != nil && snapped < *r.Min {
		snapped += step
	}
	if r.Max != nil && snapped > *r.Max {
		snapped -= step
	}
	return snapped
}

// Describe implements Constraint
func (r *Range) Describe() Descriptor {
	return Descriptor{
		Kind:    KindRange,
		Minimum: r.Min,
		Maximum: r.Max,
		Step:    r.Step,
	}
}
