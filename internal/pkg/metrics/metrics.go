package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapart",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapart",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapart",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Street sampling
	PlacesQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapart",
		Subsystem: "sampler",
		Name:      "places_queries_total",
		Help:      "Places lookups by outcome (hit, miss, error)",
	}, []string{"result"})

	SamplePoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapart",
		Subsystem: "sampler",
		Name:      "sample_points",
		Help:      "Grid points inside the polygon per sampling pass",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	StreetsFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapart",
		Subsystem: "sampler",
		Name:      "streets_found",
		Help:      "Street segments produced per sampling pass",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	SamplingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapart",
		Subsystem: "sampler",
		Name:      "duration_seconds",
		Help:      "Duration of a full sampling pass",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// Exports and sessions
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapart",
		Subsystem: "export",
		Name:      "total",
		Help:      "Exports by mode (sync, async) and result",
	}, []string{"mode", "result"})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapart",
		Subsystem: "surface",
		Name:      "sessions_created_total",
		Help:      "Map Surface sessions created",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapart",
		Subsystem: "surface",
		Name:      "notifications_total",
		Help:      "User-visible notifications by level",
	}, []string{"level"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapart",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
