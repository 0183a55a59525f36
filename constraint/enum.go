package constraint

import (
	"fmt"
	"reflect"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Enumerated constrains a value to an ordered set of options. Identity is
// compared by value (numerics normalized so 1 and 1.0 match), never by label.
// The canonical value is the stored option value, so a client submitting a
// JSON float gets back the exact value the pipeline author declared.
type Enumerated struct {
	options []Option
}

// NewEnumerated creates an enumerated constraint over the given options.
// Option order is preserved for UI display.
func NewEnumerated(options ...Option) *Enumerated {
	opts := make([]Option, len(options))
	copy(opts, options)
	return &Enumerated{options: opts}
}

// Validate implements Constraint
func (e *Enumerated) Validate(raw any) (any, error) {
	candidate := normalize(raw)
	for _, opt := range e.options {
		if optionEqual(normalize(opt.Value), candidate) {
			return opt.Value, nil
		}
	}
	return nil, errors.WrapConstraint(
		fmt.Errorf("%w: %v", errors.ErrNotAnOption, raw),
		"Enumerated", "Validate", "option check")
}

// optionEqual compares normalized option values. Comparable primitives use
// ==; anything else falls back to deep equality.
func optionEqual(a, b any) bool {
	switch a.(type) {
	case float64, string, bool, nil:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Describe implements Constraint
func (e *Enumerated) Describe() Descriptor {
	opts := make([]Option, len(e.options))
	copy(opts, e.options)
	return Descriptor{
		Kind:    KindEnumerated,
		Options: opts,
	}
}
