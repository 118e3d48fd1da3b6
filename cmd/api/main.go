package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/mapart/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapart/internal/adapters/nats"
	temporaladapter "github.com/samirrijal/mapart/internal/adapters/temporal"
	"github.com/samirrijal/mapart/internal/bootstrap"
	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/auth"
	"github.com/samirrijal/mapart/internal/pkg/config"
	"github.com/samirrijal/mapart/internal/pkg/logging"
	"github.com/samirrijal/mapart/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("mapart-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Stores and messaging
	backends, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer backends.Close()

	// Places, geocoding and positioning
	gm, err := bootstrap.Places(cfg)
	if err != nil {
		log.Fatalf("google maps: %v", err)
	}
	var locator ports.Locator
	if cfg.Maps.Geolocation {
		locator = gm
	}

	// Async exports
	var starter ports.JobStarter
	if cfg.Temporal.HostPort != "" {
		if !backends.Shared {
			slog.Warn("async exports need valkey.addr so the worker can see jobs; disabled")
		} else if tc, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace); err != nil {
			slog.Warn("temporal unavailable, async exports disabled", "error", err)
		} else {
			defer tc.Close()
			starter = temporaladapter.NewStarter(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Use cases
	sampler := bootstrap.Sampler(cfg, gm)
	surfaceSvc := usecases.NewSurfaceService(backends.Sessions, backends.Notifier, usecases.SurfaceConfig{
		Center:     domain.GeoPoint{Lat: cfg.Maps.CenterLat, Lon: cfg.Maps.CenterLon},
		Zoom:       cfg.Maps.Zoom,
		BrowserKey: cfg.Maps.BrowserKey,
		Canvas:     bootstrap.Canvas(cfg),
	})
	locationSvc := usecases.NewLocationService(locator, gm, backends.Notifier, cfg.Maps.AddressSearch)
	exportSvc := usecases.NewExportService(backends.Sessions, backends.Jobs, sampler, backends.Notifier,
		backends.Events, starter, bootstrap.ExportConfig(cfg))

	// Audit log of completed exports, from this and every other instance
	if backends.NATS != nil {
		sub, err := natsadapter.NewSubscriber(backends.NATS.Conn())
		if err != nil {
			slog.Warn("export audit unavailable", "error", err)
		} else {
			defer sub.Close()
			err := sub.SubscribeExportCompleted(ctx, "mapart-api-audit", func(ctx context.Context, job *domain.ExportJob) error {
				slog.Info("export completed",
					"job_id", job.ID,
					"session_id", job.SessionID,
					"status", job.Status,
					"streets", job.Streets,
					"bytes", job.Bytes,
				)
				return nil
			})
			if err != nil {
				slog.Warn("export audit subscribe failed", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Surface:        surfaceSvc,
		Location:       locationSvc,
		Exports:        exportSvc,
		Sampler:        sampler,
		Tokens:         auth.New(cfg.Session.Secret, cfg.Session.TTL),
		Feed:           backends.Feed,
		Checks:         backends.Checks,
		Canvas:         bootstrap.Canvas(cfg),
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		Version:        version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Map Art API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Disposition, Location, X-Street-Count",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// In-flight exports get the request timeout to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()

	slog.Info("server stopped")
}
