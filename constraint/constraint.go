// Package constraint provides self-contained validators for setting value
// domains. Each constraint validates candidate values into canonical form and
// describes itself as a schema fragment so a generic UI can render the
// correct control without any pipeline-specific code.
//
// Constraints are pure functions over their input plus their own fixed
// configuration, and are immutable once attached to a setting field.
package constraint

// Kind identifies the constraint variant for UI widget selection
type Kind string

// Constraint kinds and the widget each maps to in the dashboard
const (
	KindRange      Kind = "range"   // slider / number box
	KindBoolean    Kind = "boolean" // toggle or button
	KindEnumerated Kind = "enum"    // dropdown
	KindList       Kind = "list"    // list editor
	KindString     Kind = "string"  // text input
	KindColor      Kind = "color"   // HSV range editor
)

// Option is a single enumerated choice. Identity is compared by Value,
// never by Label.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Descriptor is the serializable schema fragment for one constraint.
// It carries everything a remote UI needs to render a type-appropriate
// widget for the value domain.
type Descriptor struct {
	Kind           Kind        `json:"kind"`
	Minimum        *float64    `json:"minimum,omitempty"`
	Maximum        *float64    `json:"maximum,omitempty"`
	Step           *float64    `json:"step,omitempty"`
	Options        []Option    `json:"options,omitempty"`
	Element        *Descriptor `json:"element,omitempty"`
	Pattern        string      `json:"pattern,omitempty"`
	RenderAsButton bool        `json:"renderAsButton,omitempty"`
}

// Constraint validates candidate values into canonical form and describes
// its value domain for UI generation.
//
// Validate returns the canonical value on success. Canonicalization is
// idempotent: validating a canonical value yields the same value.
type Constraint interface {
	Validate(raw any) (any, error)
	Describe() Descriptor
}

// asFloat coerces the numeric types a substrate or JSON decode can produce
// into float64. Returns false for anything non-numeric.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// normalize maps a value to its canonical comparison form: all numerics
// become float64 so option identity survives a JSON round-trip.
func normalize(v any) any {
	if f, ok := asFloat(v); ok {
		return f
	}
	return v
}
