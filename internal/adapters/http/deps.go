package http

import (
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/core/usecases"
	"github.com/samirrijal/mapart/internal/pkg/auth"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Surface  *usecases.SurfaceService
	Location *usecases.LocationService
	Exports  *usecases.ExportService
	Sampler  ports.StreetSampler
	Tokens   *auth.Tokens
	Feed     ports.NotificationFeed

	// Readiness checks by name, e.g. "valkey", "nats".
	Checks map[string]ports.Pinger

	Canvas         domain.Canvas
	RequestTimeout time.Duration
	RateLimit      int // requests per minute per IP
	Version        string
	DocsPath       string // OpenAPI document served at /docs/openapi.yaml
}

func (d *Dependencies) canvas() domain.Canvas {
	if d.Canvas == (domain.Canvas{}) {
		return domain.DefaultCanvas
	}
	return d.Canvas
}
