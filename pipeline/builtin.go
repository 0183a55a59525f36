package pipeline

import (
	"github.com/DanPeled/Synapse-sub001/constraint"
	"github.com/DanPeled/Synapse-sub001/results"
	"github.com/DanPeled/Synapse-sub001/setting"
)

// Pose is a six-degree-of-freedom camera-relative target pose
type Pose struct {
	X     float64 `cbor:"x"`
	Y     float64 `cbor:"y"`
	Z     float64 `cbor:"z"`
	Roll  float64 `cbor:"roll"`
	Pitch float64 `cbor:"pitch"`
	Yaw   float64 `cbor:"yaw"`
}

// AprilTagDetection is one decoded fiducial marker in a frame
type AprilTagDetection struct {
	TagID          int           `cbor:"tagId"`
	Corners        [4][2]float64 `cbor:"corners"`
	DecisionMargin float64       `cbor:"decisionMargin"`
	Pose           Pose          `cbor:"pose"`
}

// AprilTagResult is the apriltag pipeline's final result
type AprilTagResult struct {
	HasTargets bool                `cbor:"hasTargets"`
	Detections []AprilTagDetection `cbor:"detections"`
}

// ShapeDetection is one thresholded contour match in a frame
type ShapeDetection struct {
	CenterX  float64 `cbor:"centerX"`
	CenterY  float64 `cbor:"centerY"`
	Area     float64 `cbor:"area"`
	Fullness float64 `cbor:"fullness"`
}

// ColoredShapeResult is the coloredshape pipeline's final result
type ColoredShapeResult struct {
	HasTargets bool             `cbor:"hasTargets"`
	Shapes     []ShapeDetection `cbor:"shapes"`
}

// Wire type tags for the built-in final result types
const (
	AprilTagResultType     = "apriltag-result"
	ColoredShapeResultType = "coloredshape-result"
)

// RegisterBuiltinResults registers the built-in final result types with a
// result registry. Called once at startup before discovery.
func RegisterBuiltinResults(rr *results.Registry) error {
	if _, err := rr.Register(&results.Registration{
		Name:        AprilTagResultType,
		Factory:     func() any { return &AprilTagResult{} },
		Description: "Fiducial marker detections with camera-relative poses",
	}); err != nil {
		return err
	}
	if _, err := rr.Register(&results.Registration{
		Name:        ColoredShapeResultType,
		Factory:     func() any { return &ColoredShapeResult{} },
		Description: "HSV-thresholded contour detections",
	}); err != nil {
		return err
	}
	return nil
}

// BuiltinTypes returns the candidate descriptors for the pipeline types
// shipped with the runtime. The host passes them to Registry.Discover at
// startup.
func BuiltinTypes() []*TypeDescriptor {
	return []*TypeDescriptor{
		{
			TypeID:      "apriltag",
			Description: "AprilTag fiducial marker detector",
			ResultTypes: []string{AprilTagResultType},
			Settings:    aprilTagSettings,
		},
		{
			TypeID:      "coloredshape",
			Description: "HSV-thresholded colored shape detector",
			ResultTypes: []string{ColoredShapeResultType},
			Settings:    coloredShapeSettings,
		},
	}
}

func aprilTagSettings() ([]*setting.Field, error) {
	b := []setting.FieldConfig{
		{
			Name: "tag_family",
			Constraint: constraint.NewEnumerated(
				constraint.Option{Label: "16h5", Value: "tag16h5"},
				constraint.Option{Label: "36h11", Value: "tag36h11"},
			),
			Default:     "tag36h11",
			Description: "Fiducial family to decode",
		},
		{
			Name:        "decimate",
			Constraint:  constraint.NewSteppedRange(1, 8, 1),
			Default:     2,
			Description: "Input decimation factor",
		},
		{
			Name:        "circle_size",
			Constraint:  constraint.NewMinimum(0),
			Default:     20,
			Description: "Overlay marker circle radius",
		},
		{
			Name:        "min_decision_margin",
			Constraint:  constraint.NewRange(0, 250),
			Default:     35,
			Description: "Reject detections below this margin",
		},
	}
	return buildFields(b)
}

func coloredShapeSettings() ([]*setting.Field, error) {
	b := []setting.FieldConfig{
		{
			Name:        "hsv_range",
			Constraint:  constraint.NewColor(),
			Default:     [][]float64{{50, 100, 100}, {90, 255, 255}},
			Description: "HSV threshold pair for the target color",
		},
		{
			Name:        "min_area",
			Constraint:  constraint.NewMinimum(0),
			Default:     100,
			Description: "Minimum contour area in pixels",
		},
		{
			Name: "shape",
			Constraint: constraint.NewEnumerated(
				constraint.Option{Label: "Circle", Value: "circle"},
				constraint.Option{Label: "Rectangle", Value: "rectangle"},
				constraint.Option{Label: "Any", Value: "any"},
			),
			Default:     "any",
			Description: "Contour shape filter",
		},
		{
			Name:        "draw_contours",
			Constraint:  constraint.NewBoolean(),
			Default:     true,
			Description: "Draw matched contours on the stream overlay",
		},
	}
	return buildFields(b)
}

func buildFields(configs []setting.FieldConfig) ([]*setting.Field, error) {
	fields := make([]*setting.Field, 0, len(configs))
	for _, cfg := range configs {
		f, err := setting.NewField(cfg)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
