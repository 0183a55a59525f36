package constraint

import (
	"fmt"
	"reflect"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// ListOf constrains a value to a sequence whose every element satisfies the
// inner constraint. Validation fails on the first invalid element, reporting
// its index. The canonical value is a []any of element canonical values.
type ListOf struct {
	inner Constraint
}

// NewListOf creates a list constraint over the given element constraint
func NewListOf(inner Constraint) *ListOf {
	return &ListOf{inner: inner}
}

// Validate implements Constraint
func (l *ListOf) Validate(raw any) (any, error) {
	rv := reflect.ValueOf(raw)
	if raw == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: expected sequence, got %T", errors.ErrTypeMismatch, raw),
			"ListOf", "Validate", "sequence coercion")
	}

	canonical := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := l.inner.Validate(rv.Index(i).Interface())
		if err != nil {
			return nil, errors.WrapConstraint(
				fmt.Errorf("element %d: %w", i, err),
				"ListOf", "Validate", "element validation")
		}
		canonical[i] = elem
	}
	return canonical, nil
}

// Describe implements Constraint
func (l *ListOf) Describe() Descriptor {
	element := l.inner.Describe()
	return Descriptor{
		Kind:    KindList,
		Element: &element,
	}
}
