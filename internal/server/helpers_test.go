package server

import (
	"errors"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", models.NewNotFoundError("writer", "ghost"), fiber.StatusNotFound},
		{"validation", models.NewValidationError("bad handle"), fiber.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no token"), fiber.StatusUnauthorized},
		{"forbidden", models.NewForbiddenError("not yours"), fiber.StatusForbidden},
		{"internal", models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapServiceError(tt.err))
		})
	}
}
