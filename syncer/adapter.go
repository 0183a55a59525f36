package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/metric"
	"github.com/DanPeled/Synapse-sub001/pipeline"
	"github.com/DanPeled/Synapse-sub001/pkg/worker"
)

// Adapter reconciles live pipeline instances against the substrate. It is
// the single writer of canonical keys: every other process proposes writes
// on the proposed sub-table and observes the validated echo.
type Adapter struct {
	substrate Substrate
	logger    *slog.Logger
	registry  *metric.MetricsRegistry
	metrics   *metric.Metrics
	interval  time.Duration
	workers   int

	pool *worker.Pool[publishJob]

	mu           sync.RWMutex
	instances    map[string]*pipeline.Instance
	schemaHashes map[string]uint64
	inflight     map[string]*sync.WaitGroup

	pendingMu sync.Mutex
	pending   []Entry

	watchHealthy atomic.Bool
	stopWatch    func()
}

type publishJob struct {
	camera string
	inst   *pipeline.Instance
	done   func()
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter's logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics wires the adapter and its publish pool to the runtime
// metrics registry
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(a *Adapter) {
		if registry != nil {
			a.registry = registry
			a.metrics = registry.CoreMetrics()
		}
	}
}

// WithInterval sets the reconciliation tick interval
func WithInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithWorkers sets the number of parallel camera publish workers
func WithWorkers(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.workers = n
		}
	}
}

// NewAdapter creates a synchronization adapter over the given substrate
func NewAdapter(substrate Substrate, opts ...Option) *Adapter {
	a := &Adapter{
		substrate:    substrate,
		logger:       slog.Default(),
		interval:     100 * time.Millisecond,
		workers:      4,
		instances:    make(map[string]*pipeline.Instance),
		schemaHashes: make(map[string]uint64),
		inflight:     make(map[string]*sync.WaitGroup),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "syncer")

	var poolOpts []worker.Option[publishJob]
	if a.registry != nil {
		poolOpts = append(poolOpts,
			worker.WithMetrics[publishJob](a.registry, "synapse_sync_publish"))
	}
	a.pool = worker.NewPool(a.workers, 64, a.processPublishJob, poolOpts...)
	return a
}

// Attach registers a pipeline instance for a camera. An existing instance
// on the same camera is closed and its published settings and telemetry
// are removed before the replacement publishes; the schema republishes on
// the next tick.
func (a *Adapter) Attach(ctx context.Context, camera string, inst *pipeline.Instance) {
	a.mu.Lock()
	previous := a.instances[camera]
	a.instances[camera] = inst
	delete(a.schemaHashes, camera)
	a.mu.Unlock()

	if previous != nil {
		previous.Close()
		a.waitInflight(camera)
		if err := a.purgeInstanceState(ctx, camera); err != nil {
			a.logger.Warn("replaced instance cleanup failed", "camera", camera, "error", err)
		}
	}

	a.logger.Info("camera attached", "camera", camera, "type", inst.TypeID)
}

// Detach tears down a camera: the instance is closed, in-flight publish
// jobs drain, and every key in its sub-table is removed before Detach
// returns, so the next tick publishes nothing stale for it.
func (a *Adapter) Detach(ctx context.Context, camera string) error {
	a.mu.Lock()
	inst, ok := a.instances[camera]
	delete(a.instances, camera)
	delete(a.schemaHashes, camera)
	a.mu.Unlock()

	if !ok {
		return errors.WrapRegistry(
			fmt.Errorf("camera %s not attached", camera),
			"Adapter", "Detach", "find camera")
	}

	inst.Close()
	a.waitInflight(camera)

	if err := a.purgeCamera(ctx, camera); err != nil {
		return err
	}

	a.logger.Info("camera detached", "camera", camera)
	return nil
}

// Instance returns the live instance for a camera, if any
func (a *Adapter) Instance(camera string) (*pipeline.Instance, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inst, ok := a.instances[camera]
	return inst, ok
}

// Run drives the reconciliation loop until the context is cancelled.
// Proposals already sitting on the substrate are picked up before the
// first tick.
func (a *Adapter) Run(ctx context.Context) error {
	// The pool runs on its own context so jobs submitted by a tick racing
	// shutdown still drain; Stop closes the queue and waits for them.
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()

	if err := a.pool.Start(poolCtx); err != nil {
		return err
	}

	if err := a.startWatch(ctx); err != nil {
		a.logger.Warn("proposal watch unavailable, rescanning every tick", "error", err)
	}

	if err := a.ScanProposals(ctx); err != nil {
		a.logger.Warn("initial proposal scan failed", "error", err)
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("reconciliation loop started", "interval", a.interval)

	for {
		select {
		case <-ctx.Done():
			if a.stopWatch != nil {
				a.stopWatch()
			}
			if err := a.pool.Stop(5 * time.Second); err != nil {
				a.logger.Warn("publish pool stop", "error", err)
			}
			a.logger.Info("reconciliation loop stopped")
			return nil
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				a.logger.Error("reconciliation tick failed", "error", err)
			}
		}
	}
}

// startWatch subscribes to the proposed settings sub-tables of all cameras
func (a *Adapter) startWatch(ctx context.Context) error {
	updates, stop, err := a.substrate.Watch(ctx, proposalPattern)
	if err != nil {
		return err
	}
	a.stopWatch = stop
	a.watchHealthy.Store(true)

	go func() {
		defer a.watchHealthy.Store(false)
		for entry := range updates {
			if entry.Deleted {
				continue
			}
			a.enqueue(entry)
		}
	}()

	return nil
}

// enqueue queues a proposal for the next tick. The watch and the scan can
// both observe the same key; the later value replaces the earlier one so a
// proposal is applied once.
func (a *Adapter) enqueue(entry Entry) {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()

	for i := range a.pending {
		if a.pending[i].Key == entry.Key {
			a.pending[i] = entry
			return
		}
	}
	a.pending = append(a.pending, entry)
}

// ScanProposals lists proposal keys currently on the substrate and queues
// them for the next tick. Run performs one scan at startup to catch writes
// made while the runtime was down, and RunOnce rescans every tick while
// the watch is unavailable.
func (a *Adapter) ScanProposals(ctx context.Context) error {
	keys, err := a.substrate.Keys(ctx)
	if err != nil {
		return err
	}

	marker := "." + segProposed + "." + segSettings + "."
	for _, key := range keys {
		if !strings.Contains(key, marker) {
			continue
		}
		entry, err := a.substrate.Get(ctx, key)
		if err != nil {
			continue
		}
		a.enqueue(entry)
	}
	return nil
}

// RunOnce performs a single reconciliation tick: drain pending proposals
// through validation, then publish every attached camera's sub-table.
func (a *Adapter) RunOnce(ctx context.Context) error {
	start := time.Now()
	if a.metrics != nil {
		a.metrics.ReconcileTicks.Inc()
	}

	// Without a live watch, external writes only surface through scans.
	if !a.watchHealthy.Load() {
		if err := a.ScanProposals(ctx); err != nil {
			a.logger.Warn("proposal scan failed", "error", err)
		}
	}

	a.drainProposals(ctx)

	a.mu.Lock()
	cameras := make(map[string]*pipeline.Instance, len(a.instances))
	for camera, inst := range a.instances {
		if inst.Closed() {
			delete(a.instances, camera)
			delete(a.schemaHashes, camera)
			continue
		}
		cameras[camera] = inst
	}
	a.mu.Unlock()

	var wg sync.WaitGroup
	for camera, inst := range cameras {
		wg.Add(1)
		flight := a.flightGroup(camera)
		flight.Add(1)
		job := publishJob{camera: camera, inst: inst, done: func() {
			flight.Done()
			wg.Done()
		}}
		if err := a.pool.Submit(job); err != nil {
			// Pool unavailable or saturated: publish on the tick goroutine
			// so the camera is never skipped.
			a.publishCamera(ctx, job.camera, job.inst)
			job.done()
		}
	}
	wg.Wait()

	if a.metrics != nil {
		a.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (a *Adapter) processPublishJob(ctx context.Context, job publishJob) error {
	defer job.done()
	a.publishCamera(ctx, job.camera, job.inst)
	return nil
}

// flightGroup returns the wait group tracking a camera's in-flight
// publish jobs. Detach and instance replacement wait on it so teardown
// never races a publish that already passed its liveness check.
func (a *Adapter) flightGroup(camera string) *sync.WaitGroup {
	a.mu.Lock()
	defer a.mu.Unlock()
	flight, ok := a.inflight[camera]
	if !ok {
		flight = &sync.WaitGroup{}
		a.inflight[camera] = flight
	}
	return flight
}

func (a *Adapter) waitInflight(camera string) {
	a.mu.RLock()
	flight := a.inflight[camera]
	a.mu.RUnlock()
	if flight != nil {
		flight.Wait()
	}
}

// drainProposals applies every queued proposed write
func (a *Adapter) drainProposals(ctx context.Context) {
	a.pendingMu.Lock()
	pending := a.pending
	a.pending = nil
	a.pendingMu.Unlock()

	for _, entry := range pending {
		a.applyProposal(ctx, entry)
	}
}

// applyProposal validates one proposed write and echoes the outcome: the
// canonical value on the settings key, or a rejection record on the
// rejected key. The proposal key is consumed either way.
func (a *Adapter) applyProposal(ctx context.Context, entry Entry) {
	camera, name, ok := parseProposalKey(entry.Key)
	if !ok {
		a.logger.Warn("malformed proposal key", "key", entry.Key)
		return
	}

	defer func() {
		if err := a.substrate.Delete(ctx, entry.Key); err != nil {
			a.logger.Warn("proposal key cleanup failed", "key", entry.Key, "error", err)
		}
	}()

	raw, err := decodeLeaf(entry.Value)
	if err != nil {
		a.reject(ctx, camera, name, string(entry.Value), err)
		return
	}

	a.mu.RLock()
	inst, attached := a.instances[camera]
	a.mu.RUnlock()

	if !attached || inst.Closed() {
		a.reject(ctx, camera, name, raw, errors.WrapRegistry(
			fmt.Errorf("no active pipeline for camera %s", camera),
			"Adapter", "applyProposal", "resolve camera"))
		return
	}

	canonical, err := inst.Settings.ValidateAndApply(name, raw)
	if err != nil {
		a.reject(ctx, camera, name, raw, err)
		return
	}

	value, err := encodeLeaf(canonical)
	if err != nil {
		a.reject(ctx, camera, name, raw, err)
		return
	}
	if err := a.substrate.Put(ctx, settingKey(camera, name), value); err != nil {
		a.logger.Warn("canonical echo failed", "camera", camera, "setting", name, "error", err)
		return
	}

	// A previous rejection for this setting is stale once a write lands.
	if err := a.substrate.Delete(ctx, rejectionKey(camera, name)); err != nil {
		a.logger.Debug("rejection cleanup failed", "camera", camera, "setting", name, "error", err)
	}

	if a.metrics != nil {
		a.metrics.SettingsApplied.WithLabelValues(camera).Inc()
	}

	a.logger.Debug("setting applied", "camera", camera, "setting", name, "value", canonical)
}

func (a *Adapter) reject(ctx context.Context, camera, name string, raw any, cause error) {
	record := newRejection(raw, cause)
	value, err := json.Marshal(record)
	if err != nil {
		a.logger.Error("rejection record marshal failed", "camera", camera, "setting", name, "error", err)
		return
	}
	if err := a.substrate.Put(ctx, rejectionKey(camera, name), value); err != nil {
		a.logger.Warn("rejection publish failed", "camera", camera, "setting", name, "error", err)
	}

	if a.metrics != nil {
		a.metrics.SettingsRejected.WithLabelValues(camera, record.Class).Inc()
	}

	a.logger.Info("setting rejected",
		"camera", camera, "setting", name, "class", record.Class, "error", cause)
}

// publishCamera mirrors one camera's sub-table: selector, latencies,
// schema (when changed), settings snapshot and results channel state.
func (a *Adapter) publishCamera(ctx context.Context, camera string, inst *pipeline.Instance) {
	if inst.Closed() {
		return
	}

	a.putLeaf(ctx, pipelineKey(camera), inst.PipelineIndex())
	a.putLeaf(ctx, processLatencyKey(camera), inst.ProcessLatency())
	a.putLeaf(ctx, captureLatencyKey(camera), inst.CaptureLatency())

	a.publishSchema(ctx, camera, inst)

	for name, value := range inst.Settings.Snapshot() {
		a.putLeaf(ctx, settingKey(camera, name), value)
	}

	for key, value := range inst.Results.Primitives() {
		a.putLeaf(ctx, dataKey(camera, key), value)
		if a.metrics != nil {
			a.metrics.ResultsPublished.WithLabelValues(camera, "primitive").Inc()
		}
	}

	if envelope, ok := inst.Results.FinalResult(); ok {
		payload, err := envelope.Bytes()
		if err != nil {
			a.logger.Error("final result marshal failed", "camera", camera, "error", err)
			if a.metrics != nil {
				a.metrics.EncodeFailures.WithLabelValues(camera).Inc()
			}
		} else if err := a.substrate.Put(ctx, resultsKey(camera), payload); err != nil {
			a.logger.Warn("final result publish failed", "camera", camera, "error", err)
		} else if a.metrics != nil {
			a.metrics.ResultsPublished.WithLabelValues(camera, "final").Inc()
		}
	}
}

// publishSchema writes the settings schema when its content hash differs
// from the last published one. Schemas are stable after construction, so
// this lands once per attach in practice.
func (a *Adapter) publishSchema(ctx context.Context, camera string, inst *pipeline.Instance) {
	payload, err := json.Marshal(inst.Settings.Schema())
	if err != nil {
		a.logger.Error("schema marshal failed", "camera", camera, "error", err)
		return
	}

	h := fnv.New64a()
	h.Write(payload)
	sum := h.Sum64()

	a.mu.Lock()
	previous, seen := a.schemaHashes[camera]
	if seen && previous == sum {
		a.mu.Unlock()
		return
	}
	a.schemaHashes[camera] = sum
	a.mu.Unlock()

	if err := a.substrate.Put(ctx, schemaKey(camera), payload); err != nil {
		a.logger.Warn("schema publish failed", "camera", camera, "error", err)
		a.mu.Lock()
		delete(a.schemaHashes, camera)
		a.mu.Unlock()
	}
}

func (a *Adapter) putLeaf(ctx context.Context, key string, value any) {
	payload, err := encodeLeaf(value)
	if err != nil {
		a.logger.Error("leaf encode failed", "key", key, "error", err)
		return
	}
	if err := a.substrate.Put(ctx, key, payload); err != nil {
		a.logger.Warn("leaf publish failed", "key", key, "error", err)
	}
}

// purgeCamera removes every key in a camera's sub-table
func (a *Adapter) purgeCamera(ctx context.Context, camera string) error {
	return a.purgePrefixes(ctx, cameraPrefix(camera))
}

// purgeInstanceState removes the keys owned by a camera's pipeline
// instance: settings, telemetry and rejection records. The selector,
// latency and schema keys stay; the replacement overwrites them on the
// next tick.
func (a *Adapter) purgeInstanceState(ctx context.Context, camera string) error {
	return a.purgePrefixes(ctx,
		camera+"."+segSettings+".",
		camera+"."+segData+".",
		camera+"."+segRejected+".")
}

func (a *Adapter) purgePrefixes(ctx context.Context, prefixes ...string) error {
	keys, err := a.substrate.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		for _, prefix := range prefixes {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if err := a.substrate.Delete(ctx, key); err != nil {
				a.logger.Warn("sub-table cleanup failed", "key", key, "error", err)
			}
			break
		}
	}
	return nil
}
