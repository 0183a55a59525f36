// Package setting provides the validated, schema-backed value store for
// pipeline instances and the process-wide device configuration. Every value
// a collection holds has passed its field's constraint; every external write
// goes through ValidateAndApply regardless of origin.
package setting

import (
	"fmt"

	"github.com/DanPeled/Synapse-sub001/constraint"
	"github.com/DanPeled/Synapse-sub001/errors"
)

// Field binds a constraint, a default, and UI metadata to a named slot
// inside a Collection. The default is stored in canonical form; a default
// that fails its own constraint is a construction-time error.
type Field struct {
	Name        string
	Constraint  constraint.Constraint
	Default     any
	Description string
	Category    string
}

// FieldConfig provides the declaration API for a setting field. It maps 1:1
// to Field; NewField validates it.
type FieldConfig struct {
	Name        string
	Constraint  constraint.Constraint
	Default     any
	Description string
	Category    string
}

// NewField creates a Field from its declaration, canonicalizing the default.
// Declaration mistakes (empty name, nil constraint, invalid default) are
// schema errors so discovery can exclude the offending pipeline type.
func NewField(cfg FieldConfig) (*Field, error) {
	if cfg.Name == "" {
		return nil, errors.WrapSchema(errors.ErrInvalidSchema, "Field", "NewField", "name validation")
	}
	if cfg.Constraint == nil {
		return nil, errors.WrapSchema(
			fmt.Errorf("%w: field %q has no constraint", errors.ErrInvalidSchema, cfg.Name),
			"Field", "NewField", "constraint validation")
	}

	canonical, err := cfg.Constraint.Validate(cfg.Default)
	if err != nil {
		return nil, errors.WrapSchema(
			fmt.Errorf("%w: field %q: %v", errors.ErrInvalidDefault, cfg.Name, err),
			"Field", "NewField", "default validation")
	}

	return &Field{
		Name:        cfg.Name,
		Constraint:  cfg.Constraint,
		Default:     canonical,
		Description: cfg.Description,
		Category:    cfg.Category,
	}, nil
}

// MustField is NewField for statically-declared fields whose validity is a
// programming invariant, such as the camera built-ins.
func MustField(cfg FieldConfig) *Field {
	f, err := NewField(cfg)
	if err != nil {
		panic(err)
	}
	return f
}

// FieldSchema is the published description of one field: the sole
// information a remote UI needs to render a correct control for it.
type FieldSchema struct {
	Name        string                `json:"name"`
	Constraint  constraint.Descriptor `json:"constraint"`
	Default     any                   `json:"default"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category,omitempty"`
}

// Schema returns the field's published description
func (f *Field) Schema() FieldSchema {
	return FieldSchema{
		Name:        f.Name,
		Constraint:  f.Constraint.Describe(),
		Default:     f.Default,
		Description: f.Description,
		Category:    f.Category,
	}
}
