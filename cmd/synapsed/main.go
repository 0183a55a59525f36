// Package main implements the entry point for the Synapse daemon: the
// vision runtime's settings validation and results synchronization core.
// It connects to the NATS-backed network table, discovers the built-in
// pipeline types, constructs a pipeline instance per configured camera and
// runs the reconciliation loop until shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/DanPeled/Synapse-sub001/config"
	"github.com/DanPeled/Synapse-sub001/health"
	"github.com/DanPeled/Synapse-sub001/metric"
	"github.com/DanPeled/Synapse-sub001/natsclient"
	"github.com/DanPeled/Synapse-sub001/pipeline"
	"github.com/DanPeled/Synapse-sub001/pkg/retry"
	"github.com/DanPeled/Synapse-sub001/results"
	"github.com/DanPeled/Synapse-sub001/setting"
	"github.com/DanPeled/Synapse-sub001/syncer"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "synapsed"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags override the file's logging section.
	if cliCfg.LogLevel != "" {
		cfg.Log.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Log.Format = cliCfg.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		fmt.Println("configuration is valid")
		return nil
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	slog.Info("starting synapse daemon",
		"version", Version,
		"config_path", cliCfg.ConfigPath,
		"nats_url", cfg.NATS.URL,
		"bucket", cfg.NATS.Bucket)

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	client, substrate, err := connectSubstrate(signalCtx, cfg, logger, metricsRegistry, monitor)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			slog.Warn("NATS close", "error", err)
		}
	}()

	global, err := setting.LoadGlobal(cfg.SettingsPath, logger)
	if err != nil {
		return fmt.Errorf("load global settings: %w", err)
	}

	typeReg, resultReg, err := discoverPipelines(logger)
	if err != nil {
		return err
	}

	adapter := syncer.NewAdapter(substrate,
		syncer.WithLogger(logger),
		syncer.WithMetrics(metricsRegistry),
		syncer.WithInterval(cfg.Sync.TickInterval),
		syncer.WithWorkers(cfg.Sync.Workers),
	)

	if err := attachCameras(signalCtx, global, typeReg, resultReg, adapter, logger); err != nil {
		return err
	}

	metricsServer := startMetricsServer(cfg, metricsRegistry, monitor)

	monitor.UpdateHealthy("syncer", "reconciliation loop running")
	runDone := make(chan error, 1)
	go func() {
		runDone <- adapter.Run(signalCtx)
		monitor.UpdateUnhealthy("syncer", "reconciliation loop stopped")
	}()

	<-signalCtx.Done()
	slog.Info("received shutdown signal")

	select {
	case err := <-runDone:
		if err != nil {
			slog.Warn("reconciliation loop", "error", err)
		}
	case <-time.After(cliCfg.ShutdownTimeout):
		slog.Warn("reconciliation loop did not stop in time")
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}

	slog.Info("synapse daemon shutdown complete")
	return nil
}

// connectSubstrate dials NATS with startup retries and opens the KV bucket
func connectSubstrate(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metricsRegistry *metric.MetricsRegistry,
	monitor *health.Monitor,
) (*natsclient.Client, syncer.Substrate, error) {
	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithTimeout(cfg.NATS.Timeout),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(metricsRegistry),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			if healthy {
				monitor.UpdateHealthy("nats", "connected")
			} else {
				monitor.UpdateUnhealthy("nats", "connection lost")
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create NATS client: %w", err)
	}

	err = retry.Do(ctx, retry.Startup(), func() error {
		return client.Connect(ctx)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, nil, fmt.Errorf("NATS connection timeout: %w", err)
	}

	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.NATS.Bucket,
		Description: "Synapse network table",
		History:     1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open KV bucket %s: %w", cfg.NATS.Bucket, err)
	}

	return client, syncer.NewNATSSubstrate(client.NewKVStore(bucket)), nil
}

// discoverPipelines registers built-in result types and runs the discovery
// pass over the built-in pipeline descriptors.
func discoverPipelines(logger *slog.Logger) (*pipeline.Registry, *results.Registry, error) {
	resultReg := results.NewRegistry()
	if err := pipeline.RegisterBuiltinResults(resultReg); err != nil {
		return nil, nil, fmt.Errorf("register result types: %w", err)
	}

	typeReg := pipeline.NewRegistry(logger)
	skipped := typeReg.Discover(pipeline.BuiltinTypes())
	for _, err := range skipped {
		slog.Warn("pipeline type skipped during discovery", "error", err)
	}
	if typeReg.Len() == 0 {
		return nil, nil, fmt.Errorf("no pipeline types survived discovery")
	}

	slog.Info("pipeline discovery complete", "types", typeReg.TypeIDs())
	return typeReg, resultReg, nil
}

// attachCameras builds one pipeline instance per configured camera, using
// each camera's persisted default pipeline selector.
func attachCameras(
	ctx context.Context,
	global *setting.Global,
	typeReg *pipeline.Registry,
	resultReg *results.Registry,
	adapter *syncer.Adapter,
	logger *slog.Logger,
) error {
	cameras := global.Cameras()
	if len(cameras) == 0 {
		slog.Info("no cameras configured, waiting for configuration")
		return nil
	}

	for camera := range cameras {
		index := global.DefaultPipeline(camera)
		typeID, err := typeReg.TypeAt(index)
		if err != nil {
			slog.Warn("persisted pipeline selector out of range, using first type",
				"camera", camera, "index", index)
			if typeID, err = typeReg.TypeAt(0); err != nil {
				return fmt.Errorf("resolve pipeline for camera %s: %w", camera, err)
			}
		}

		inst, err := typeReg.NewInstance(typeID, camera, resultReg, logger)
		if err != nil {
			// One bad camera must not take the runtime down.
			slog.Error("pipeline instance construction failed",
				"camera", camera, "type", typeID, "error", err)
			continue
		}
		adapter.Attach(ctx, camera, inst)
	}

	return nil
}

// startMetricsServer serves Prometheus metrics and the health report
func startMetricsServer(cfg *config.Config, registry *metric.MetricsRegistry, monitor *health.Monitor) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.Handle("/healthz", monitor.Handler(appName))

	server := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	return server
}
