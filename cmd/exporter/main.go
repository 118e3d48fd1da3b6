package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	temporaladapter "github.com/samirrijal/mapart/internal/adapters/temporal"
	"github.com/samirrijal/mapart/internal/bootstrap"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/config"
	"github.com/samirrijal/mapart/internal/pkg/logging"
	"github.com/samirrijal/mapart/internal/pkg/telemetry"
	"github.com/samirrijal/mapart/internal/workflows"
)

func main() {
	cfg, err := config.Load("mapart-exporter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Jobs and documents must be visible to the API process.
	if cfg.Valkey.Addr == "" {
		log.Fatalf("config: valkey.addr is required for the export worker (set MAPART_VALKEY_ADDR)")
	}
	hostPort := cfg.Temporal.HostPort
	if hostPort == "" {
		hostPort = "localhost:7233"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	backends, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer backends.Close()
	if backends.NATS == nil {
		slog.Warn("nats.url not set: export notifications will not reach API clients")
	}

	gm, err := bootstrap.Places(cfg)
	if err != nil {
		log.Fatalf("google maps: %v", err)
	}
	exports := usecases.NewExportService(backends.Sessions, backends.Jobs, bootstrap.Sampler(cfg, gm),
		backends.Notifier, backends.Events, nil, bootstrap.ExportConfig(cfg))

	c, err := temporaladapter.Dial(hostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ExportWorkflow)
	w.RegisterActivity(&workflows.ExportActivities{Exports: exports})

	slog.Info("export worker started", "task_queue", cfg.Temporal.TaskQueue, "temporal", hostPort)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
