package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapart/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	reqTimeout := deps.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = 60 * time.Second
	}
	rateLimit := deps.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, reqTimeout)
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Each export fans out into many places queries; limit per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	session := RequireSession(deps.Tokens)
	optional := OptionalSession(deps.Tokens)

	v1 := app.Group("/v1")
	v1.Get("/map/config", MapConfigHandler(deps))
	v1.Post("/location/geolocate", optional, withTimeout(GeolocateHandler(deps)))
	v1.Post("/location/search", optional, withTimeout(SearchAddressHandler(deps)))
	v1.Post("/project", ProjectHandler(deps))

	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Get("/sessions/:id", session, GetSessionHandler(deps))
	v1.Delete("/sessions/:id", session, DeleteSessionHandler(deps))
	v1.Post("/sessions/:id/draw/start", session, StartDrawingHandler(deps))
	v1.Post("/sessions/:id/draw/stop", session, StopDrawingHandler(deps))
	v1.Put("/sessions/:id/polygon", session, CompletePolygonHandler(deps))
	v1.Post("/sessions/:id/recenter", session, RecenterHandler(deps))
	v1.Post("/sessions/:id/export", session, withTimeout(ExportHandler(deps)))
	v1.Post("/sessions/:id/export/async", session, withTimeout(ExportAsyncHandler(deps)))

	// Job ids are not session ids; ownership is checked against the job.
	jobs := OptionalSession(deps.Tokens)
	v1.Get("/exports/:id", requireBearer, jobs, withTimeout(ExportJobHandler(deps)))
	v1.Get("/exports/:id/document", requireBearer, jobs, withTimeout(ExportDocumentHandler(deps)))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.DocsPath)

	// WebSocket notification relay
	app.Use("/ws", WebSocketUpgrade(deps.Tokens))
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

// requireBearer rejects requests without an Authorization bearer token.
func requireBearer(c *fiber.Ctx) error {
	if bearerToken(c) == "" {
		return errUnauthorized(c, "missing bearer token")
	}
	return c.Next()
}
