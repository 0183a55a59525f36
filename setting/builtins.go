package setting

import (
	"github.com/DanPeled/Synapse-sub001/constraint"
)

// CategoryCamera is the schema category for the built-in camera fields
const CategoryCamera = "camera"

// CameraFields returns the built-in camera control fields merged into every
// pipeline settings collection. A fresh slice is returned per call so each
// collection owns its fields.
func CameraFields() []*Field {
	return []*Field{
		MustField(FieldConfig{
			Name:        "brightness",
			Constraint:  constraint.NewRange(0, 100),
			Default:     50,
			Description: "Camera brightness",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:        "exposure",
			Constraint:  constraint.NewRange(0, 100),
			Default:     50,
			Description: "Camera exposure",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:        "saturation",
			Constraint:  constraint.NewRange(0, 100),
			Default:     50,
			Description: "Camera saturation",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:        "sharpness",
			Constraint:  constraint.NewRange(0, 100),
			Default:     50,
			Description: "Camera sharpness",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:        "gain",
			Constraint:  constraint.NewRange(0, 100),
			Default:     50,
			Description: "Camera gain",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:       "orientation",
			Constraint: constraint.NewEnumerated(
				constraint.Option{Label: "Normal", Value: 0},
				constraint.Option{Label: "90 CW", Value: 90},
				constraint.Option{Label: "180", Value: 180},
				constraint.Option{Label: "90 CCW", Value: 270},
			),
			Default:     0,
			Description: "Image rotation in degrees",
			Category:    CategoryCamera,
		}),
		MustField(FieldConfig{
			Name:       "resolution",
			Constraint: constraint.NewEnumerated(
				constraint.Option{Label: "320x240", Value: "320x240"},
				constraint.Option{Label: "640x480", Value: "640x480"},
				constraint.Option{Label: "1280x720", Value: "1280x720"},
				constraint.Option{Label: "1920x1080", Value: "1920x1080"},
			),
			Default:     "640x480",
			Description: "Capture resolution",
			Category:    CategoryCamera,
		}),
	}
}

// NewPipelineCollection builds the settings collection for a pipeline
// instance: the camera built-ins merged with the pipeline's own fields.
// Built-in names take precedence on collision; a colliding pipeline field is
// dropped rather than shadowing the camera control.
func NewPipelineCollection(pipelineFields ...*Field) (*Collection, error) {
	builtins := CameraFields()
	reserved := make(map[string]bool, len(builtins))

	b := NewBuilder()
	for _, f := range builtins {
		reserved[f.Name] = true
		b.AddField(f)
	}
	for _, f := range pipelineFields {
		if f != nil && reserved[f.Name] {
			continue
		}
		b.AddField(f)
	}
	return b.Build()
}
