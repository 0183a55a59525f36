package constraint

import (
	"fmt"
	"reflect"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// HSV channel bounds, OpenCV convention: hue 0-180, saturation and value 0-255.
var hsvMax = [3]float64{180, 255, 255}

// Color constrains a value to an HSV threshold pair: a lower and an upper
// [h, s, v] triple. Accepted shapes are a nested [[h,s,v],[h,s,v]] sequence
// or a flat six-element sequence; the canonical form is always the nested
// [][]float64 pair.
type Color struct{}

// NewColor creates an HSV threshold-pair constraint
func NewColor() *Color {
	return &Color{}
}

// Validate implements Constraint
func (c *Color) Validate(raw any) (any, error) {
	flat, err := c.flatten(raw)
	if err != nil {
		return nil, err
	}

	for i, v := range flat {
		limit := hsvMax[i%3]
		if v < 0 || v > limit {
			return nil, errors.WrapConstraint(
				fmt.Errorf("%w: channel %d value %v outside [0, %v]", errors.ErrOutOfRange, i%3, v, limit),
				"Color", "Validate", "channel bounds check")
		}
	}

	return [][]float64{
		{flat[0], flat[1], flat[2]},
		{flat[3], flat[4], flat[5]},
	}, nil
}

// flatten coerces the accepted input shapes into six channel values
func (c *Color) flatten(raw any) ([6]float64, error) {
	var flat [6]float64

	rv := reflect.ValueOf(raw)
	if raw == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return flat, errors.WrapConstraint(
			fmt.Errorf("%w: expected HSV threshold pair, got %T", errors.ErrTypeMismatch, raw),
			"Color", "Validate", "shape coercion")
	}

	switch rv.Len() {
	case 2:
		// Nested [[h,s,v],[h,s,v]]
		for i := 0; i < 2; i++ {
			triple := reflect.ValueOf(rv.Index(i).Interface())
			if triple.Kind() != reflect.Slice && triple.Kind() != reflect.Array {
				return flat, c.shapeError(raw)
			}
			if triple.Len() != 3 {
				return flat, c.shapeError(raw)
			}
			for j := 0; j < 3; j++ {
				f, ok := asFloat(triple.Index(j).Interface())
				if !ok {
					return flat, c.shapeError(raw)
				}
				flat[i*3+j] = f
			}
		}
	case 6:
		// Flat [hL,sL,vL,hU,sU,vU]
		for i := 0; i < 6; i++ {
			f, ok := asFloat(rv.Index(i).Interface())
			if !ok {
				return flat, c.shapeError(raw)
			}
			flat[i] = f
		}
	default:
		return flat, c.shapeError(raw)
	}

	return flat, nil
}

func (c *Color) shapeError(raw any) error {
	return errors.WrapConstraint(
		fmt.Errorf("%w: expected [[h,s,v],[h,s,v]] or six numbers, got %v", errors.ErrTypeMismatch, raw),
		"Color", "Validate", "shape coercion")
}

// Describe implements Constraint
func (c *Color) Describe() Descriptor {
	return Descriptor{Kind: KindColor}
}
