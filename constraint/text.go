package constraint

import (
	"fmt"
	"regexp"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// String constrains a value to a string, optionally matching a regular
// expression pattern.
type String struct {
	pattern *regexp.Regexp
}

// NewString creates an unrestricted string constraint
func NewString() *String {
	return &String{}
}

// NewPatternString creates a string constraint whose values must match the
// given regular expression. A malformed pattern is a declaration error,
// surfaced at construction time so the offending pipeline type can be
// excluded during discovery.
func NewPatternString(pattern string) (*String, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WrapSchema(
			fmt.Errorf("%w: %v", errors.ErrInvalidSchema, err),
			"String", "NewPatternString", "pattern compilation")
	}
	return &String{pattern: re}, nil
}

// Validate implements Constraint
func (s *String) Validate(raw any) (any, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: expected string, got %T", errors.ErrTypeMismatch, raw),
			"String", "Validate", "string coercion")
	}
	if s.pattern != nil && !s.pattern.MatchString(v) {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: %q does not match %q", errors.ErrPatternMismatch, v, s.pattern.String()),
			"String", "Validate", "pattern check")
	}
	return v, nil
}

// Describe implements Constraint
func (s *String) Describe() Descriptor {
	d := Descriptor{Kind: KindString}
	if s.pattern != nil {
		d.Pattern = s.pattern.String()
	}
	return d
}
