package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanPeled/Synapse-sub001/constraint"
	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/results"
	"github.com/DanPeled/Synapse-sub001/setting"
)

func noSettings() ([]*setting.Field, error) {
	return nil, nil
}

func circleSizeSettings() ([]*setting.Field, error) {
	f, err := setting.NewField(setting.FieldConfig{
		Name:       "circle_size",
		Constraint: constraint.NewMinimum(0),
		Default:    20,
	})
	if err != nil {
		return nil, err
	}
	return []*setting.Field{f}, nil
}

func badSettings() ([]*setting.Field, error) {
	// default violates its own constraint
	_, err := setting.NewField(setting.FieldConfig{
		Name:       "broken",
		Constraint: constraint.NewRange(0, 10),
		Default:    999,
	})
	return nil, err
}

func populatedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil)
	skipped := r.Discover([]*TypeDescriptor{
		{TypeID: "apriltag", Settings: circleSizeSettings},
		{TypeID: "coloredshape", Settings: noSettings},
	})
	require.Empty(t, skipped)
	return r
}

func TestRegistryPhases(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, PhaseEmpty, r.Phase())

	require.NoError(t, r.BeginDiscovery())
	assert.Equal(t, PhaseScanning, r.Phase())

	// a second concurrent pass is refused
	err := r.BeginDiscovery()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRegistryScanning)

	r.CompleteDiscovery()
	assert.Equal(t, PhasePopulated, r.Phase())
}

func TestResolveRefusedWhileScanning(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.BeginDiscovery())
	require.NoError(t, r.Register(&TypeDescriptor{TypeID: "apriltag", Settings: noSettings}))

	_, err := r.Resolve("apriltag")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRegistryScanning)

	r.CompleteDiscovery()
	td, err := r.Resolve("apriltag")
	require.NoError(t, err)
	assert.Equal(t, "apriltag", td.TypeID)
}

func TestRegisterDuplicateTypeID(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.BeginDiscovery())
	require.NoError(t, r.Register(&TypeDescriptor{TypeID: "apriltag", Settings: noSettings}))

	err := r.Register(&TypeDescriptor{TypeID: "apriltag", Settings: noSettings})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateType)
}

func TestRegisterOutsideDiscoveryPass(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(&TypeDescriptor{TypeID: "apriltag", Settings: noSettings})
	require.Error(t, err)
	assert.True(t, errors.IsRegistry(err))
}

func TestResolveUnknownType(t *testing.T) {
	r := populatedRegistry(t)

	_, err := r.Resolve("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestDiscoverSkipsBadCandidate(t *testing.T) {
	r := NewRegistry(nil)
	skipped := r.Discover([]*TypeDescriptor{
		{TypeID: "good", Settings: noSettings},
		{TypeID: "malformed", Settings: badSettings},
		{TypeID: "also-good", Settings: circleSizeSettings},
	})

	// the bad candidate is reported, not fatal; the others registered
	require.Len(t, skipped, 1)
	assert.True(t, errors.IsSchema(skipped[0]))

	assert.Equal(t, PhasePopulated, r.Phase())
	assert.Equal(t, []string{"good", "also-good"}, r.TypeIDs())
}

func TestRediscoveryReplacesWholesale(t *testing.T) {
	r := populatedRegistry(t)
	require.Equal(t, 2, r.Len())

	skipped := r.Discover([]*TypeDescriptor{
		{TypeID: "reflective", Settings: noSettings},
	})
	require.Empty(t, skipped)

	assert.Equal(t, []string{"reflective"}, r.TypeIDs())
	_, err := r.Resolve("apriltag")
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestIndexLookups(t *testing.T) {
	r := populatedRegistry(t)

	assert.Equal(t, 0, r.IndexOf("apriltag"))
	assert.Equal(t, 1, r.IndexOf("coloredshape"))
	assert.Equal(t, -1, r.IndexOf("nope"))

	id, err := r.TypeAt(1)
	require.NoError(t, err)
	assert.Equal(t, "coloredshape", id)

	_, err = r.TypeAt(5)
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestNewInstance(t *testing.T) {
	r := populatedRegistry(t)
	rr := results.NewRegistry()

	inst, err := r.NewInstance("apriltag", "cam0", rr, nil)
	require.NoError(t, err)

	assert.Equal(t, "cam0", inst.Camera)
	assert.Equal(t, "apriltag", inst.TypeID)
	assert.Equal(t, 0, inst.PipelineIndex())
	assert.NotEqual(t, inst.ID.String(), "")

	// camera built-ins merged alongside the pipeline's own fields
	assert.True(t, inst.Settings.Has("brightness"))
	assert.True(t, inst.Settings.Has("circle_size"))

	_, err = r.NewInstance("nonexistent", "cam0", rr, nil)
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestInstancesDoNotShareState(t *testing.T) {
	r := populatedRegistry(t)
	rr := results.NewRegistry()

	a, err := r.NewInstance("apriltag", "cam0", rr, nil)
	require.NoError(t, err)
	b, err := r.NewInstance("apriltag", "cam1", rr, nil)
	require.NoError(t, err)

	_, err = a.Settings.ValidateAndApply("circle_size", 35)
	require.NoError(t, err)

	v, ok := b.Settings.Get("circle_size")
	require.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestInstanceLatencies(t *testing.T) {
	r := populatedRegistry(t)
	inst, err := r.NewInstance("apriltag", "cam0", results.NewRegistry(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, inst.ProcessLatency())

	inst.RecordLatency(12.5, 3.25)
	assert.Equal(t, 12.5, inst.ProcessLatency())
	assert.Equal(t, 3.25, inst.CaptureLatency())
}

func TestInstanceClose(t *testing.T) {
	r := populatedRegistry(t)
	rr := results.NewRegistry()
	require.NoError(t, RegisterBuiltinResults(rr))

	inst, err := r.NewInstance("apriltag", "cam0", rr, nil)
	require.NoError(t, err)
	require.NoError(t, inst.Results.SetPrimitive("hasResults", true))

	inst.Close()
	assert.True(t, inst.Closed())
	assert.Empty(t, inst.Results.Primitives())

	// idempotent
	inst.Close()
}

func TestBuiltinTypesDiscover(t *testing.T) {
	rr := results.NewRegistry()
	require.NoError(t, RegisterBuiltinResults(rr))

	r := NewRegistry(nil)
	skipped := r.Discover(BuiltinTypes())
	require.Empty(t, skipped)
	assert.Equal(t, []string{"apriltag", "coloredshape"}, r.TypeIDs())

	inst, err := r.NewInstance("apriltag", "cam0", rr, nil)
	require.NoError(t, err)

	// apriltag declares its result type; a full scenario write works
	require.NoError(t, inst.Results.SetFinalResult(&AprilTagResult{
		HasTargets: true,
		Detections: []AprilTagDetection{{TagID: 3, DecisionMargin: 55}},
	}))
	env, ok := inst.Results.FinalResult()
	require.True(t, ok)

	decoded, ok := results.As[AprilTagResult](env, AprilTagResultType)
	require.True(t, ok)
	assert.Equal(t, 3, decoded.Detections[0].TagID)

	// but not the colored shape result
	err = inst.Results.SetFinalResult(&ColoredShapeResult{})
	assert.ErrorIs(t, err, errors.ErrUnregisteredResultType)
}
