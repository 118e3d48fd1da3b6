package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapart/internal/pkg/logging"
)

// AccessLogMiddleware writes one structured line per request through the
// request-scoped logger. Probe and scrape traffic is logged at debug.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		path := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if sid := sessionFromCtx(c); sid != "" {
			attrs = append(attrs, slog.String("session_id", sid))
		}
		if n := c.GetRespHeader("X-Street-Count"); n != "" {
			attrs = append(attrs, slog.String("streets", n))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case isProbe(path):
			level = slog.LevelDebug
		}

		logging.LoggerFromContext(c.UserContext()).LogAttrs(c.UserContext(), level, "request", attrs...)
		return err
	}
}

func isProbe(path string) bool {
	switch path {
	case "/v1/health", "/v1/ready", "/metrics":
		return true
	}
	return false
}
