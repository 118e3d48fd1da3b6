package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

// errPreconditionFailed returns a 409 error for operations attempted in the wrong state.
func errPreconditionFailed(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "precondition_failed", msg)
}

// errUnprocessable returns a 422 error for well-formed but unusable geometry.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errNotImplemented returns a 501 error for capabilities that are absent or disabled.
func errNotImplemented(c *fiber.Ctx, msg string) error {
	return newError(c, 501, "not_implemented", msg)
}

// errBadGateway returns a 502 error for failures of an external service.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errTimeout returns a 504 error.
func errTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, 504, "timeout", msg)
}

// mapDomainError writes the response for a known domain error and reports
// whether err was one.
func mapDomainError(c *fiber.Ctx, err error) (error, bool) {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrAddressNotFound):
		return errNotFound(c, msg), true
	case errors.Is(err, domain.ErrNoPolygon),
		errors.Is(err, domain.ErrNotDrawing),
		errors.Is(err, domain.ErrExportInProgress),
		errors.Is(err, domain.ErrJobNotFinished):
		return errPreconditionFailed(c, msg), true
	case errors.Is(err, domain.ErrInvalidPoint),
		errors.Is(err, domain.ErrPolygonTooSmall),
		errors.Is(err, domain.ErrDegenerateArea):
		return errUnprocessable(c, msg), true
	case errors.Is(err, domain.ErrPositioningUnavailable),
		errors.Is(err, domain.ErrAddressSearchUnavailable),
		errors.Is(err, domain.ErrAsyncExportUnavailable):
		return errNotImplemented(c, msg), true
	case errors.Is(err, domain.ErrEmptyAddress),
		errors.Is(err, domain.ErrInvalidGeoJSON):
		return errBadRequest(c, msg), true
	case errors.Is(err, context.DeadlineExceeded):
		return errTimeout(c, "request timed out"), true
	}
	return nil, false
}

// errFromDomain maps err to a response, falling back to 500.
func errFromDomain(c *fiber.Ctx, err error) error {
	if resp, ok := mapDomainError(c, err); ok {
		return resp
	}
	return errInternal(c, err.Error())
}

// errFromUpstream maps err to a response, falling back to 502. Used where
// the remaining failures come from the places or positioning service.
func errFromUpstream(c *fiber.Ctx, err error) error {
	if resp, ok := mapDomainError(c, err); ok {
		return resp
	}
	return errBadGateway(c, err.Error())
}
