// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetWriterProfile handles GET /api/writers/:handle
// The viewer is optional; a signed-in viewer looking at their own page
// gets drafts and owner stats.
func (s *Server) GetWriterProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	handle, err := s.requireParam(c, "handle")
	if err != nil {
		return nil
	}

	viewer := middleware.Identity(c)

	resp, err := s.profileService.GetProfile(ctx, handle, viewer)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(resp)
}

// GetMyProfile handles GET /api/me/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	ident, err := s.requireIdentity(c)
	if err != nil {
		return nil
	}

	resp, err := s.profileService.GetProfile(ctx, ident.DisplayHandle(), ident)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(resp)
}

// GetSavedItems handles GET /api/me/saved
func (s *Server) GetSavedItems(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	ident, err := s.requireIdentity(c)
	if err != nil {
		return nil
	}

	marks, err := s.profileService.SavedItems(ctx, *ident)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"items": marks})
}

// MoveWritingToDraft handles POST /api/writings/:id/draft
func (s *Server) MoveWritingToDraft(c *fiber.Ctx) error {
	ctx := c.Context()

	ident, err := s.requireIdentity(c)
	if err != nil {
		return nil
	}

	writingID, err := s.requireParam(c, "id")
	if err != nil {
		return nil
	}

	w, err := s.profileService.MoveToDraft(ctx, *ident, writingID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Writing moved to drafts", "writing": w})
}
