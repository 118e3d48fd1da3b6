package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapart/internal/pkg/auth"
)

const sessionLocal = "session_id"

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession verifies the bearer token. On routes with an :id param the
// token subject must be that session.
func RequireSession(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		sid, err := tokens.Verify(tok)
		if err != nil {
			return errUnauthorized(c, "invalid or expired session token")
		}
		if id := c.Params("id"); id != "" && id != sid {
			return errForbidden(c, "token does not grant access to this session")
		}
		c.Locals(sessionLocal, sid)
		return c.Next()
	}
}

// OptionalSession attaches the session when a bearer token is sent. A token
// that does not verify is still rejected.
func OptionalSession(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return c.Next()
		}
		sid, err := tokens.Verify(tok)
		if err != nil {
			return errUnauthorized(c, "invalid or expired session token")
		}
		c.Locals(sessionLocal, sid)
		return c.Next()
	}
}

func sessionFromCtx(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionLocal).(string)
	return sid
}
