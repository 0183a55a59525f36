package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"out of range", ErrOutOfRange, ErrorConstraint},
		{"type mismatch", ErrTypeMismatch, ErrorConstraint},
		{"not an option", ErrNotAnOption, ErrorConstraint},
		{"unknown setting", ErrUnknownSetting, ErrorConstraint},
		{"invalid default", ErrInvalidDefault, ErrorSchema},
		{"duplicate field", ErrDuplicateField, ErrorSchema},
		{"duplicate type", ErrDuplicateType, ErrorRegistry},
		{"unknown type", ErrUnknownType, ErrorRegistry},
		{"scanning", ErrRegistryScanning, ErrorRegistry},
		{"unsupported primitive", ErrUnsupportedPrimitive, ErrorSerialization},
		{"unencodable field", ErrUnencodableField, ErrorSerialization},
		{"connection lost", ErrConnectionLost, ErrorTransient},
		{"unknown error", errors.New("something else"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	// Classification survives fmt.Errorf wrapping
	err := fmt.Errorf("while applying: %w", ErrOutOfRange)
	assert.Equal(t, ErrorConstraint, Classify(err))
	assert.True(t, IsConstraint(err))
	assert.False(t, IsRegistry(err))
}

func TestWrapConstraint(t *testing.T) {
	err := WrapConstraint(ErrOutOfRange, "Collection", "ValidateAndApply", "brightness validation")
	require.Error(t, err)

	assert.True(t, IsConstraint(err))
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "Collection.ValidateAndApply")
	assert.Contains(t, err.Error(), "brightness validation failed")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "c", "m", "a"))
	assert.NoError(t, WrapConstraint(nil, "c", "m", "a"))
	assert.NoError(t, WrapSchema(nil, "c", "m", "a"))
	assert.NoError(t, WrapSerialization(nil, "c", "m", "a"))
	assert.NoError(t, WrapRegistry(nil, "c", "m", "a"))
	assert.NoError(t, WrapTransient(nil, "c", "m", "a"))
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("element 3: %w", ErrTypeMismatch)
	err := WrapConstraint(inner, "ListOf", "Validate", "element validation")

	var ce *ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorConstraint, ce.Class)
	assert.Equal(t, "ListOf", ce.Component)
	assert.ErrorIs(t, ce.Unwrap(), ErrTypeMismatch)
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "constraint", ErrorConstraint.String())
	assert.Equal(t, "schema", ErrorSchema.String())
	assert.Equal(t, "serialization", ErrorSerialization.String())
	assert.Equal(t, "registry", ErrorRegistry.String())
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}
