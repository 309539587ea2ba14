// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"errors"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// requireIdentity extracts the signed-in identity set by AuthRequired.
// On missing identity it writes a 401 JSON response and returns
// errResponseWritten; callers should check: if err != nil { return nil }
func (s *Server) requireIdentity(c *fiber.Ctx) (*models.Identity, error) {
	ident := middleware.Identity(c)
	if ident == nil {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return nil, errResponseWritten
	}
	return ident, nil
}

// requireParam extracts a non-empty route parameter.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) requireParam(c *fiber.Ctx, param string) (string, error) {
	v := strings.TrimSpace(c.Params(param))
	if v == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return "", errResponseWritten
	}
	return v, nil
}

// mapServiceError converts service-layer AppError codes to HTTP status codes.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return fiber.StatusNotFound
		case "VALIDATION_ERROR":
			return fiber.StatusBadRequest
		case "UNAUTHORIZED":
			return fiber.StatusUnauthorized
		case "FORBIDDEN":
			return fiber.StatusForbidden
		}
	}
	return fiber.StatusInternalServerError
}
