package pipeline

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/results"
	"github.com/DanPeled/Synapse-sub001/setting"
)

// Instance is one live pipeline bound to a camera: a fresh settings
// collection (camera built-ins merged) plus a results channel. Instances on
// different cameras share no settings or results state.
type Instance struct {
	ID       uuid.UUID
	Camera   string
	TypeID   string
	Settings *setting.Collection
	Results  *results.Channel

	index          int
	processLatency atomic.Uint64 // float64 bits, milliseconds
	captureLatency atomic.Uint64
	closed         atomic.Bool
	logger         *slog.Logger
}

// NewInstance constructs a pipeline instance for a camera: resolve the type,
// build its settings collection from the schema factory with the camera
// built-ins merged (built-in names win on collision), and bind a results
// channel restricted to the type's declared final result types.
func (r *Registry) NewInstance(typeID, camera string, resultReg *results.Registry, logger *slog.Logger) (*Instance, error) {
	if logger == nil {
		logger = slog.Default()
	}

	td, err := r.Resolve(typeID)
	if err != nil {
		return nil, err
	}

	fields, err := td.Settings()
	if err != nil {
		return nil, errors.WrapSchema(err, "Registry", "NewInstance", "settings factory")
	}
	collection, err := setting.NewPipelineCollection(fields...)
	if err != nil {
		return nil, errors.WrapSchema(err, "Registry", "NewInstance", "settings collection")
	}

	inst := &Instance{
		ID:       uuid.New(),
		Camera:   camera,
		TypeID:   typeID,
		Settings: collection,
		Results:  results.NewChannel(resultReg, td.ResultTypes...),
		index:    r.IndexOf(typeID),
		logger:   logger.With("component", "pipeline", "type", typeID, "camera", camera),
	}

	inst.logger.Info("pipeline instance created", "id", inst.ID, "settings", collection.Len())
	return inst, nil
}

// PipelineIndex returns the type's selector index for the substrate's
// pipeline leaf.
func (i *Instance) PipelineIndex() int {
	return i.index
}

// RecordLatency stores the most recent per-frame latencies in milliseconds.
// Called from the camera worker each frame; read by the reconciliation loop.
func (i *Instance) RecordLatency(processMs, captureMs float64) {
	i.processLatency.Store(math.Float64bits(processMs))
	i.captureLatency.Store(math.Float64bits(captureMs))
}

// ProcessLatency returns the last recorded processing latency in milliseconds
func (i *Instance) ProcessLatency() float64 {
	return math.Float64frombits(i.processLatency.Load())
}

// CaptureLatency returns the last recorded capture latency in milliseconds
func (i *Instance) CaptureLatency() float64 {
	return math.Float64frombits(i.captureLatency.Load())
}

// Close tears the instance down, wiping its results channel. After Close
// the synchronization adapter removes the instance's published state from
// the next reconciliation tick.
func (i *Instance) Close() {
	if i.closed.Swap(true) {
		return
	}
	i.Results.Clear()
	i.logger.Info("pipeline instance closed", "id", i.ID)
}

// Closed reports whether the instance has been torn down
func (i *Instance) Closed() bool {
	return i.closed.Load()
}
