package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/safestreets/safestreets/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, out_of_region, etc.
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

// errOutOfRegion returns a 422 error for coordinates outside the region.
func errOutOfRegion(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "out_of_region", msg)
}

// errRateLimited returns a 429 error for exhausted upstream throttling.
func errRateLimited(c *fiber.Ctx, msg string) error {
	return newError(c, 429, "rate_limited", msg)
}

// errUpstream returns a 502 error for terminal upstream failures.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "upstream_error", msg)
}

// mapDomainError translates pipeline error sentinels into HTTP responses so
// every handler reports "no data", "outside region", and "could not fetch"
// distinctly.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrOutOfRegion):
		return errOutOfRegion(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "no matching location; try a different query")
	case errors.Is(err, domain.ErrRateLimited):
		return errRateLimited(c, "upstream is throttling; retry later")
	case errors.Is(err, domain.ErrFetchFailed):
		return errUpstream(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
