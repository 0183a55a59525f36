package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanPeled/Synapse-sub001/errors"
)

func TestRangeValidate(t *testing.T) {
	r := NewRange(0, 1920)

	tests := []struct {
		name    string
		raw     any
		want    float64
		wantErr error
	}{
		{"in range", 960, 960, nil},
		{"at minimum", 0, 0, nil},
		{"at maximum", 1920, 1920, nil},
		{"above maximum", 2000, 0, errors.ErrOutOfRange},
		{"below minimum", -5, 0, errors.ErrOutOfRange},
		{"float input", 959.5, 959.5, nil},
		{"non-numeric", "hello", 0, errors.ErrTypeMismatch},
		{"nil", nil, 0, errors.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Validate(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, errors.IsConstraint(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeStepRounding(t *testing.T) {
	r := NewSteppedRange(0, 1920, 10)

	tests := []struct {
		raw  any
		want float64
	}{
		{955, 960}, // tie rounds to even multiple
		{954, 950},
		{956, 960},
		{945, 940}, // tie rounds to even multiple
		{960, 960},
		{0, 0},
	}

	for _, tt := range tests {
		got, err := r.Validate(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "validate(%v)", tt.raw)
	}
}

func TestRangeStepAnchoredAtMin(t *testing.T) {
	r := NewSteppedRange(5, 50, 10)

	got, err := r.Validate(12)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got) // multiples are 5, 15, 25, ...
}

func TestRangeStepClampsInsideBounds(t *testing.T) {
	// 8 rounds to the multiple 10, which is outside the interval; the
	// canonical value steps back to 5.
	r := NewSteppedRange(0, 8, 5)

	got, err := r.Validate(8)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestRangeUnbounded(t *testing.T) {
	r := NewMinimum(0)

	_, err := r.Validate(-5)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)

	got, err := r.Validate(1e9)
	require.NoError(t, err)
	assert.Equal(t, 1e9, got)
}

func TestBooleanValidate(t *testing.T) {
	b := NewBoolean()

	got, err := b.Validate(true)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = b.Validate(0)
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = b.Validate(1.0)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = b.Validate("yes")
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)

	_, err = b.Validate(2)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestEnumeratedValidate(t *testing.T) {
	e := NewEnumerated(
		Option{Label: "Off", Value: 0},
		Option{Label: "On", Value: 1},
	)

	got, err := e.Validate(1)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// JSON-decoded float matches the declared int option
	got, err = e.Validate(1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = e.Validate(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotAnOption)

	// labels are not identity
	_, err = e.Validate("On")
	assert.ErrorIs(t, err, errors.ErrNotAnOption)
}

func TestEnumeratedStringOptions(t *testing.T) {
	e := NewEnumerated(
		Option{Label: "VGA", Value: "640x480"},
		Option{Label: "HD", Value: "1280x720"},
	)

	got, err := e.Validate("1280x720")
	require.NoError(t, err)
	assert.Equal(t, "1280x720", got)

	_, err = e.Validate("4K")
	assert.ErrorIs(t, err, errors.ErrNotAnOption)
}

func TestListOfValidate(t *testing.T) {
	l := NewListOf(NewRange(0, 100))

	got, err := l.Validate([]any{1, 2.5, 99})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5, 99.0}, got)

	// typed slices work too
	got, err = l.Validate([]int{10, 20})
	require.NoError(t, err)
	assert.Equal(t, []any{10.0, 20.0}, got)

	// first invalid element reported by index
	_, err = l.Validate([]any{1, 2, 500, 600})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
	assert.Contains(t, err.Error(), "element 2")

	_, err = l.Validate("not a list")
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestStringValidate(t *testing.T) {
	s := NewString()

	got, err := s.Validate("anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", got)

	_, err = s.Validate(42)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestPatternStringValidate(t *testing.T) {
	s, err := NewPatternString(`^[a-z]+\d+$`)
	require.NoError(t, err)

	got, err := s.Validate("cam0")
	require.NoError(t, err)
	assert.Equal(t, "cam0", got)

	_, err = s.Validate("0cam")
	assert.ErrorIs(t, err, errors.ErrPatternMismatch)
}

func TestPatternStringBadPattern(t *testing.T) {
	_, err := NewPatternString(`([`)
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
}

func TestColorValidate(t *testing.T) {
	c := NewColor()

	got, err := c.Validate([]any{
		[]any{0, 100, 100},
		[]any{30, 255, 255},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 100, 100}, {30, 255, 255}}, got)

	// flat shape
	got, err = c.Validate([]float64{0, 100, 100, 30, 255, 255})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 100, 100}, {30, 255, 255}}, got)

	// hue above the OpenCV limit
	_, err = c.Validate([]float64{200, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, errors.ErrOutOfRange)

	_, err = c.Validate([]float64{1, 2, 3})
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

// Canonicalization is idempotent: re-validating a canonical value yields the
// same value for every variant.
func TestCanonicalizationIdempotence(t *testing.T) {
	patterned, err := NewPatternString(`^\w+$`)
	require.NoError(t, err)

	tests := []struct {
		name string
		c    Constraint
		raw  any
	}{
		{"range", NewRange(0, 1920), 960},
		{"stepped range", NewSteppedRange(0, 1920, 10), 955},
		{"boolean", NewBoolean(), 1},
		{"enum", NewEnumerated(Option{Label: "On", Value: 1}), 1.0},
		{"list", NewListOf(NewSteppedRange(0, 100, 5)), []any{12, 99}},
		{"string", patterned, "cam0"},
		{"color", NewColor(), []float64{0, 0, 0, 180, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.c.Validate(tt.raw)
			require.NoError(t, err)
			second, err := tt.c.Validate(first)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestDescribe(t *testing.T) {
	r := NewSteppedRange(0, 1920, 10)
	d := r.Describe()
	assert.Equal(t, KindRange, d.Kind)
	require.NotNil(t, d.Minimum)
	assert.Equal(t, 0.0, *d.Minimum)
	require.NotNil(t, d.Maximum)
	assert.Equal(t, 1920.0, *d.Maximum)
	require.NotNil(t, d.Step)
	assert.Equal(t, 10.0, *d.Step)

	e := NewEnumerated(Option{Label: "Off", Value: 0}, Option{Label: "On", Value: 1})
	de := e.Describe()
	assert.Equal(t, KindEnumerated, de.Kind)
	require.Len(t, de.Options, 2)
	assert.Equal(t, "Off", de.Options[0].Label)

	l := NewListOf(NewBoolean())
	dl := l.Describe()
	assert.Equal(t, KindList, dl.Kind)
	require.NotNil(t, dl.Element)
	assert.Equal(t, KindBoolean, dl.Element.Kind)

	assert.True(t, NewButton().Describe().RenderAsButton)
	assert.Equal(t, KindColor, NewColor().Describe().Kind)
}
