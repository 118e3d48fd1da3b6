// Package bootstrap opens the stores and messaging shared by the API server
// and the export worker. Unset addresses fall back to in-process adapters.
package bootstrap

import (
	"context"
	"log/slog"

	"github.com/samirrijal/mapart/internal/adapters/googlemaps"
	"github.com/samirrijal/mapart/internal/adapters/memory"
	natsadapter "github.com/samirrijal/mapart/internal/adapters/nats"
	"github.com/samirrijal/mapart/internal/adapters/valkey"
	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/sampling"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/config"
)

// Backends holds the opened adapters. Events is nil without NATS.
type Backends struct {
	Sessions ports.SessionStore
	Jobs     ports.JobStore
	Notifier ports.Notifier
	Feed     ports.NotificationFeed
	Events   ports.EventPublisher
	NATS     *natsadapter.Publisher
	Checks   map[string]ports.Pinger

	// Shared reports whether sessions and jobs live outside the process.
	Shared bool

	closers []func()
}

// Open connects to the configured services.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{Checks: make(map[string]ports.Pinger)}

	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, cache.Close)
		b.Sessions = valkey.NewSessionStore(cache, cfg.Session.TTL, cfg.Export.LockTTL)
		b.Jobs = valkey.NewJobStore(cache, cfg.Export.DocumentTTL)
		b.Checks["valkey"] = cache
		b.Shared = true
		slog.Info("session store: valkey", "addr", cfg.Valkey.Addr)
	} else {
		b.Sessions = memory.NewSessionStore(cfg.Session.TTL)
		b.Jobs = memory.NewJobStore()
		slog.Info("session store: in memory")
	}

	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pub.Close)
		b.NATS = pub
		b.Notifier = pub
		b.Feed = pub
		b.Events = pub
		b.Checks["nats"] = pub
		slog.Info("notifications: nats", "url", cfg.NATS.URL)
	} else {
		hub := memory.NewHub()
		b.Notifier = hub
		b.Feed = hub
		slog.Info("notifications: in memory")
	}

	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// Places creates the Google Maps client used for places, geocoding and
// positioning.
func Places(cfg *config.Config) (*googlemaps.Client, error) {
	return googlemaps.New(googlemaps.Config{
		APIKey:  cfg.Maps.APIKey,
		QPS:     cfg.Maps.QPS,
		BaseURL: cfg.Maps.BaseURL,
	})
}

// Sampler creates the street sampler from the sampler section.
func Sampler(cfg *config.Config, places ports.PlacesService) *sampling.Sampler {
	return sampling.New(places, sampling.Config{
		GridSize:     cfg.Sampler.GridSize,
		SearchRadius: cfg.Sampler.SearchRadius,
		Concurrency:  cfg.Sampler.Concurrency,
	})
}

// Canvas returns the configured output size.
func Canvas(cfg *config.Config) domain.Canvas {
	return domain.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}
}

// ExportConfig maps the export section onto the exporter's settings.
func ExportConfig(cfg *config.Config) usecases.ExportConfig {
	return usecases.ExportConfig{
		Canvas:      Canvas(cfg),
		Title:       cfg.Export.Title,
		PNGWidth:    cfg.Export.PNGWidth,
		DocumentTTL: cfg.Export.DocumentTTL,
	}
}
