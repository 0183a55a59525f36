package results

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Envelope is the tagged binary form of a final result as published on the
// substrate's data/results leaf: the registered type name plus the CBOR
// encoding of the result object.
type Envelope struct {
	Type string `cbor:"type" json:"type"`
	Data []byte `cbor:"data" json:"data"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxNestedLevels: 32,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// maxWalkDepth bounds the encodability walk; matches the decoder's nesting limit
const maxWalkDepth = 32

// Encode walks a result object and encodes it into an envelope tagged with
// the given type name. Fields the codec cannot represent fail with
// ErrUnencodableField naming the field path rather than being dropped.
func Encode(typeName string, v any) (*Envelope, error) {
	if v == nil {
		return nil, errors.WrapSerialization(
			fmt.Errorf("%w: nil result", errors.ErrUnencodableField),
			"Envelope", "Encode", "result validation")
	}
	if err := checkEncodable(reflect.ValueOf(v), typeName, 0); err != nil {
		return nil, err
	}

	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, errors.WrapSerialization(
			fmt.Errorf("%w: %v", errors.ErrUnencodableField, err),
			"Envelope", "Encode", "cbor marshal")
	}
	return &Envelope{Type: typeName, Data: data}, nil
}

// Bytes serializes the whole envelope for substrate publication
func (e *Envelope) Bytes() ([]byte, error) {
	b, err := encMode.Marshal(e)
	if err != nil {
		return nil, errors.WrapSerialization(err, "Envelope", "Bytes", "cbor marshal")
	}
	return b, nil
}

// EnvelopeFromBytes deserializes a substrate-published envelope. Malformed
// bytes yield ok=false rather than an error so a client reading a partially
// written leaf degrades gracefully.
func EnvelopeFromBytes(b []byte) (*Envelope, bool) {
	if len(b) == 0 {
		return nil, false
	}
	var e Envelope
	if err := decMode.Unmarshal(b, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// As decodes an envelope into T only when the envelope's type tag matches
// expectedType. A tag mismatch or decode failure yields the zero value and
// false, never an error: a client momentarily looking at the wrong
// pipeline's data degrades gracefully instead of crashing.
func As[T any](e *Envelope, expectedType string) (T, bool) {
	var zero T
	if e == nil || e.Type != expectedType {
		return zero, false
	}
	var out T
	if err := decMode.Unmarshal(e.Data, &out); err != nil {
		return zero, false
	}
	return out, true
}

// DecodeInto is the non-generic form of As for callers holding a factory
// instance from the result registry.
func DecodeInto(e *Envelope, expectedType string, out any) bool {
	if e == nil || out == nil || e.Type != expectedType {
		return false
	}
	return decMode.Unmarshal(e.Data, out) == nil
}

// checkEncodable recursively verifies a result value only contains shapes
// the binary codec can represent: scalars, strings, byte sequences, structs,
// fixed/variable arrays, maps with string keys, and pointers thereto.
func checkEncodable(v reflect.Value, path string, depth int) error {
	if depth > maxWalkDepth {
		return unencodable(path, "nesting too deep")
	}
	if !v.IsValid() {
		return nil // nil interface value encodes as null
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkEncodable(v.Elem(), path, depth+1)

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue // unexported fields are skipped by the codec, not dropped data
			}
			fieldPath := path + "." + t.Field(i).Name
			if err := checkEncodable(v.Field(i), fieldPath, depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := checkEncodable(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return unencodable(path, fmt.Sprintf("map key type %v", v.Type().Key()))
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := checkEncodable(iter.Value(), path+"["+iter.Key().String()+"]", depth+1); err != nil {
				return err
			}
		}
		return nil

	default:
		return unencodable(path, v.Kind().String())
	}
}

func unencodable(path, detail string) error {
	return errors.WrapSerialization(
		fmt.Errorf("%w: %s (%s)", errors.ErrUnencodableField, path, detail),
		"Envelope", "Encode", "field walk")
}
