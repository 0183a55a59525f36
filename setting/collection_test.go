package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanPeled/Synapse-sub001/constraint"
	"github.com/DanPeled/Synapse-sub001/errors"
)

func buildCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := NewBuilder().
		Add(FieldConfig{
			Name:        "circle_size",
			Constraint:  constraint.NewMinimum(0),
			Default:     20,
			Description: "Marker circle radius",
		}).
		Add(FieldConfig{
			Name:       "draw_overlay",
			Constraint: constraint.NewBoolean(),
			Default:    true,
		}).
		Add(FieldConfig{
			Name: "threshold_mode",
			Constraint: constraint.NewEnumerated(
				constraint.Option{Label: "Off", Value: 0},
				constraint.Option{Label: "On", Value: 1},
			),
			Default: 0,
		}).
		Build()
	require.NoError(t, err)
	return c
}

func TestNewFieldRejectsInvalidDefault(t *testing.T) {
	_, err := NewField(FieldConfig{
		Name:       "bad",
		Constraint: constraint.NewRange(0, 10),
		Default:    99,
	})
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
	assert.ErrorIs(t, err, errors.ErrInvalidDefault)
}

func TestNewFieldCanonicalizesDefault(t *testing.T) {
	f, err := NewField(FieldConfig{
		Name:       "snap",
		Constraint: constraint.NewSteppedRange(0, 100, 10),
		Default:    42,
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, f.Default)
}

func TestNewFieldRequiresNameAndConstraint(t *testing.T) {
	_, err := NewField(FieldConfig{Constraint: constraint.NewBoolean(), Default: false})
	assert.True(t, errors.IsSchema(err))

	_, err = NewField(FieldConfig{Name: "x", Default: false})
	assert.True(t, errors.IsSchema(err))
}

func TestBuilderRejectsDuplicateNames(t *testing.T) {
	_, err := NewBuilder().
		Add(FieldConfig{Name: "x", Constraint: constraint.NewBoolean(), Default: false}).
		Add(FieldConfig{Name: "x", Constraint: constraint.NewBoolean(), Default: true}).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateField)
}

func TestValidateAndApply(t *testing.T) {
	c := buildCollection(t)

	// accepted write stores and returns the canonical value
	got, err := c.ValidateAndApply("circle_size", 35)
	require.NoError(t, err)
	assert.Equal(t, 35.0, got)

	v, ok := c.Get("circle_size")
	require.True(t, ok)
	assert.Equal(t, 35.0, v)

	// rejected write leaves the previous value authoritative
	_, err = c.ValidateAndApply("circle_size", -5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)

	v, ok = c.Get("circle_size")
	require.True(t, ok)
	assert.Equal(t, 35.0, v)
}

func TestValidateAndApplyUnknownSetting(t *testing.T) {
	c := buildCollection(t)
	before := c.Snapshot()

	_, err := c.ValidateAndApply("nonexistent", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownSetting)
	assert.True(t, errors.IsConstraint(err))

	assert.Equal(t, before, c.Snapshot())
}

func TestSnapshotIsIsolated(t *testing.T) {
	c, err := NewBuilder().
		Add(FieldConfig{
			Name:       "points",
			Constraint: constraint.NewListOf(constraint.NewRange(0, 100)),
			Default:    []any{1, 2},
		}).
		Build()
	require.NoError(t, err)

	snap := c.Snapshot()
	list, ok := snap["points"].([]any)
	require.True(t, ok)
	list[0] = 999.0 // mutating the snapshot must not touch canonical state

	v, ok := c.Get("points")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, v)
}

func TestSnapshotKeysMatchFields(t *testing.T) {
	c := buildCollection(t)
	snap := c.Snapshot()

	assert.Len(t, snap, c.Len())
	for _, name := range c.Names() {
		assert.Contains(t, snap, name)
	}
}

func TestSchemaPreservesDeclaredOrder(t *testing.T) {
	c := buildCollection(t)

	schema := c.Schema()
	require.Len(t, schema, 3)
	assert.Equal(t, "circle_size", schema[0].Name)
	assert.Equal(t, "draw_overlay", schema[1].Name)
	assert.Equal(t, "threshold_mode", schema[2].Name)

	assert.Equal(t, constraint.KindRange, schema[0].Constraint.Kind)
	assert.Equal(t, 20.0, schema[0].Default)
	assert.Equal(t, "Marker circle radius", schema[0].Description)
	assert.Equal(t, constraint.KindBoolean, schema[1].Constraint.Kind)
	assert.Equal(t, constraint.KindEnumerated, schema[2].Constraint.Kind)
}

func TestReset(t *testing.T) {
	c := buildCollection(t)

	_, err := c.ValidateAndApply("circle_size", 80)
	require.NoError(t, err)

	got, err := c.Reset("circle_size")
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	_, err = c.Reset("nonexistent")
	assert.ErrorIs(t, err, errors.ErrUnknownSetting)
}

func TestNewPipelineCollectionMergesBuiltins(t *testing.T) {
	custom, err := NewField(FieldConfig{
		Name:       "circle_size",
		Constraint: constraint.NewMinimum(0),
		Default:    20,
	})
	require.NoError(t, err)

	c, err := NewPipelineCollection(custom)
	require.NoError(t, err)

	// builtins present with pipeline fields after them
	assert.True(t, c.Has("brightness"))
	assert.True(t, c.Has("exposure"))
	assert.True(t, c.Has("orientation"))
	assert.True(t, c.Has("resolution"))
	assert.True(t, c.Has("circle_size"))

	names := c.Names()
	assert.Equal(t, "brightness", names[0])
	assert.Equal(t, "circle_size", names[len(names)-1])
}

func TestNewPipelineCollectionBuiltinPrecedence(t *testing.T) {
	// a pipeline field colliding with a builtin name is dropped
	shadow, err := NewField(FieldConfig{
		Name:       "brightness",
		Constraint: constraint.NewRange(-1000, 1000),
		Default:    -500,
	})
	require.NoError(t, err)

	c, err := NewPipelineCollection(shadow)
	require.NoError(t, err)

	v, ok := c.Get("brightness")
	require.True(t, ok)
	assert.Equal(t, 50.0, v) // builtin default, not the shadowing field's

	_, err = c.ValidateAndApply("brightness", -500)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	c := buildCollection(t)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, _ = c.ValidateAndApply("circle_size", i)
		}
	}()

	for i := 0; i < 500; i++ {
		_ = c.Snapshot()
		_, _ = c.Get("circle_size")
	}
	<-done
}
