package constraint

import (
	"fmt"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Boolean constrains a value to true/false. RenderAsButton hints the UI to
// draw a momentary button instead of a toggle switch.
type Boolean struct {
	RenderAsButton bool
}

// NewBoolean creates a boolean constraint rendered as a toggle
func NewBoolean() *Boolean {
	return &Boolean{}
}

// NewButton creates a boolean constraint rendered as a momentary button
func NewButton() *Boolean {
	return &Boolean{RenderAsButton: true}
}

// Validate implements Constraint. Bools pass through; numeric 0/1 coerce,
// matching what loosely-typed dashboard clients send. Anything else is a
// type mismatch.
func (b *Boolean) Validate(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	default:
		if f, ok := asFloat(raw); ok {
			switch f {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
		}
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: expected boolean, got %T(%v)", errors.ErrTypeMismatch, raw, v),
			"Boolean", "Validate", "boolean coercion")
	}
}

// Describe implements Constraint
func (b *Boolean) Describe() Descriptor {
	return Descriptor{
		Kind:           KindBoolean,
		RenderAsButton: b.RenderAsButton,
	}
}
