package setting

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// CameraTransform is the camera-to-robot pose offset
type CameraTransform struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Roll  float64 `yaml:"roll"`
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
}

// CameraConfig describes one physical camera known to the runtime
type CameraConfig struct {
	Device    string          `yaml:"device"` // e.g. /dev/video0
	Width     int             `yaml:"width"`
	Height    int             `yaml:"height"`
	FPS       int             `yaml:"fps"`
	Transform CameraTransform `yaml:"transform,omitempty"`
}

// Calibration holds intrinsic calibration data for one camera
type Calibration struct {
	CameraMatrix []float64 `yaml:"camera_matrix,flow"` // row-major 3x3
	DistCoeffs   []float64 `yaml:"dist_coeffs,flow"`
}

// globalState is the persisted shape of the global settings file
type globalState struct {
	Cameras          map[string]CameraConfig `yaml:"cameras"`
	DefaultPipelines map[string]int          `yaml:"default_pipelines"`
	Calibrations     map[string]Calibration  `yaml:"calibrations"`
}

// Global is the single process-wide settings collection: camera
// configuration, calibration data, camera-to-robot transforms, and each
// camera's default pipeline index. It is loaded at process start and
// persisted to its YAML file on every mutation.
type Global struct {
	mu     sync.RWMutex
	path   string
	state  globalState
	logger *slog.Logger
}

// LoadGlobal loads the global settings from path. A missing file yields an
// empty state that will be created on first mutation; a malformed file is an
// error, not silently discarded state.
func LoadGlobal(path string, logger *slog.Logger) (*Global, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Global{
		path:   path,
		logger: logger.With("component", "global-settings"),
		state: globalState{
			Cameras:          make(map[string]CameraConfig),
			DefaultPipelines: make(map[string]int),
			Calibrations:     make(map[string]Calibration),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.logger.Info("no global settings file, starting empty", "path", path)
			return g, nil
		}
		return nil, errors.Wrap(err, "Global", "LoadGlobal", "file read")
	}

	if err := yaml.Unmarshal(data, &g.state); err != nil {
		return nil, errors.WrapSchema(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Global", "LoadGlobal", "yaml parse")
	}
	if g.state.Cameras == nil {
		g.state.Cameras = make(map[string]CameraConfig)
	}
	if g.state.DefaultPipelines == nil {
		g.state.DefaultPipelines = make(map[string]int)
	}
	if g.state.Calibrations == nil {
		g.state.Calibrations = make(map[string]Calibration)
	}

	g.logger.Info("loaded global settings", "path", path, "cameras", len(g.state.Cameras))
	return g, nil
}

// Camera returns the configuration for one camera
func (g *Global) Camera(id string) (CameraConfig, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cfg, ok := g.state.Cameras[id]
	return cfg, ok
}

// Cameras returns a copy of all camera configurations
func (g *Global) Cameras() map[string]CameraConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]CameraConfig, len(g.state.Cameras))
	maps.Copy(out, g.state.Cameras)
	return out
}

// SetCamera stores a camera configuration and persists
func (g *Global) SetCamera(id string, cfg CameraConfig) error {
	if id == "" {
		return errors.WrapSchema(errors.ErrInvalidConfig, "Global", "SetCamera", "camera id validation")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Cameras[id] = cfg
	return g.persistLocked("SetCamera")
}

// DefaultPipeline returns the default pipeline index for a camera (0 when unset)
func (g *Global) DefaultPipeline(camera string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.state.DefaultPipelines[camera]
}

// SetDefaultPipeline stores a camera's default pipeline index and persists
func (g *Global) SetDefaultPipeline(camera string, index int) error {
	if index < 0 {
		return errors.WrapConstraint(
			fmt.Errorf("%w: pipeline index %d", errors.ErrOutOfRange, index),
			"Global", "SetDefaultPipeline", "index validation")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.DefaultPipelines[camera] = index
	return g.persistLocked("SetDefaultPipeline")
}

// Calibration returns the calibration data for one camera
func (g *Global) Calibration(camera string) (Calibration, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cal, ok := g.state.Calibrations[camera]
	return cal, ok
}

// SetCalibration stores calibration data for a camera and persists
func (g *Global) SetCalibration(camera string, cal Calibration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Calibrations[camera] = cal
	return g.persistLocked("SetCalibration")
}

// persistLocked writes the state to disk via temp-file rename so a crash
// mid-write never truncates the settings file. Caller holds g.mu.
func (g *Global) persistLocked(op string) error {
	data, err := yaml.Marshal(&g.state)
	if err != nil {
		return errors.Wrap(err, "Global", op, "yaml marshal")
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Global", op, "settings dir create")
	}

	tmp, err := os.CreateTemp(dir, ".global-*.yaml")
	if err != nil {
		return errors.Wrap(err, "Global", op, "temp file create")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "Global", op, "settings write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "Global", op, "settings write")
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "Global", op, "settings rename")
	}

	g.logger.Debug("persisted global settings", "path", g.path)
	return nil
}
