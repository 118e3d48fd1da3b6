package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/pkg/auth"
	"github.com/samirrijal/mapart/internal/pkg/metrics"
)

// WebSocketUpgrade accepts upgrades that carry a valid session token in the
// token query parameter.
func WebSocketUpgrade(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		sid, err := tokens.Verify(c.Query("token"))
		if err != nil {
			return errUnauthorized(c, "invalid or expired session token")
		}
		c.Locals(sessionLocal, sid)
		return c.Next()
	}
}

// WebSocketHandler relays the session's notifications to the client as JSON
// text frames until either side closes.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sid, _ := c.Locals(sessionLocal).(string)
		log := slog.Default().With("session_id", sid, "remote", c.RemoteAddr().String())

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		cancel, err := deps.Feed.Subscribe(context.Background(), sid, func(n domain.Notification) {
			if err := writeJSON(n); err != nil {
				log.Debug("ws write failed", "error", err)
			}
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer cancel()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// The relay is one-way; reads only detect the close.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws client disconnected")
	}
}
