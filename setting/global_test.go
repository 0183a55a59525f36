package setting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGlobalMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yaml")

	g, err := LoadGlobal(path, nil)
	require.NoError(t, err)
	assert.Empty(t, g.Cameras())
	assert.Equal(t, 0, g.DefaultPipeline("cam0"))
}

func TestGlobalPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yaml")

	g, err := LoadGlobal(path, nil)
	require.NoError(t, err)

	cfg := CameraConfig{
		Device: "/dev/video0",
		Width:  1280,
		Height: 720,
		FPS:    30,
		Transform: CameraTransform{
			X: 0.2, Z: 0.5, Pitch: 15,
		},
	}
	require.NoError(t, g.SetCamera("cam0", cfg))
	require.NoError(t, g.SetDefaultPipeline("cam0", 2))
	require.NoError(t, g.SetCalibration("cam0", Calibration{
		CameraMatrix: []float64{900, 0, 640, 0, 900, 360, 0, 0, 1},
		DistCoeffs:   []float64{0.1, -0.05, 0, 0, 0},
	}))

	// reload from disk and verify everything survived
	g2, err := LoadGlobal(path, nil)
	require.NoError(t, err)

	got, ok := g2.Camera("cam0")
	require.True(t, ok)
	assert.Equal(t, cfg, got)

	assert.Equal(t, 2, g2.DefaultPipeline("cam0"))

	cal, ok := g2.Calibration("cam0")
	require.True(t, ok)
	assert.Len(t, cal.CameraMatrix, 9)
	assert.Equal(t, 0.1, cal.DistCoeffs[0])
}

func TestGlobalRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cameras: [not a map"), 0o644))

	_, err := LoadGlobal(path, nil)
	require.Error(t, err)
}

func TestGlobalValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yaml")
	g, err := LoadGlobal(path, nil)
	require.NoError(t, err)

	assert.Error(t, g.SetCamera("", CameraConfig{}))
	assert.Error(t, g.SetDefaultPipeline("cam0", -1))
}

func TestGlobalCamerasCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yaml")
	g, err := LoadGlobal(path, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetCamera("cam0", CameraConfig{Device: "/dev/video0"}))

	m := g.Cameras()
	m["cam0"] = CameraConfig{Device: "tampered"}

	got, _ := g.Camera("cam0")
	assert.Equal(t, "/dev/video0", got.Device)
}
