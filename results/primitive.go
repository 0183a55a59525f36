package results

import (
	"fmt"
	"reflect"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// ValidatePrimitive checks that a value is transportable verbatim on the
// substrate: int, float, bool, string, byte-sequence, or a homogeneous array
// thereof. Anything else fails with ErrUnsupportedPrimitive.
func ValidatePrimitive(v any) error {
	if v == nil {
		return unsupported("nil value")
	}

	rv := reflect.ValueOf(v)
	if isScalarKind(rv.Kind()) {
		return nil
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		// []byte is a scalar byte-sequence, not an array of numbers
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}

		elemKind := rv.Type().Elem().Kind()
		if isScalarKind(elemKind) {
			return nil // typed slices are homogeneous by construction
		}
		if elemKind == reflect.Interface {
			return validateAnySlice(rv)
		}
		return unsupported(fmt.Sprintf("array of %v", rv.Type().Elem()))
	}

	return unsupported(fmt.Sprintf("%T", v))
}

// validateAnySlice requires every element of an []any to be a scalar of the
// same normalized kind.
func validateAnySlice(rv reflect.Value) error {
	var kind reflect.Kind
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if elem == nil {
			return unsupported(fmt.Sprintf("nil element at index %d", i))
		}
		k := normalizedKind(reflect.ValueOf(elem).Kind())
		if !isScalarKind(k) {
			return unsupported(fmt.Sprintf("element %d has type %T", i, elem))
		}
		if i == 0 {
			kind = k
			continue
		}
		if k != kind {
			return unsupported(fmt.Sprintf("mixed element types (%v and %v)", kind, k))
		}
	}
	return nil
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// normalizedKind folds the numeric kinds together so an []any mixing ints
// and floats still counts as a homogeneous numeric array.
func normalizedKind(k reflect.Kind) reflect.Kind {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return reflect.Float64
	}
	return k
}

func unsupported(detail string) error {
	return errors.WrapSerialization(
		fmt.Errorf("%w: %s", errors.ErrUnsupportedPrimitive, detail),
		"Channel", "SetPrimitive", "primitive validation")
}
