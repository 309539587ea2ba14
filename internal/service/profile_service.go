package service

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/profile"
	"inkwell/internal/store"
)

// ProfileServiceInterface defines the profile operations exposed to
// transport handlers.
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, handle string, viewer *models.Identity) (*ProfileResponse, error)
	SavedItems(ctx context.Context, viewer models.Identity) ([]models.Bookmark, error)
	MoveToDraft(ctx context.Context, viewer models.Identity, writingID string) (*models.Writing, error)
}

// ProfileResponse is the one-shot REST shape of a writer profile.
type ProfileResponse struct {
	Writer models.Identity  `json:"writer"`
	IsOwn  bool             `json:"isOwn"`
	Items  []models.Writing `json:"items"`
	Stats  models.Stats     `json:"stats"`
}

type ProfileService struct {
	store      store.Store
	resolver   *profile.Resolver
	aggregator *profile.Aggregator
}

func NewProfileService(st store.Store, r *profile.Resolver, a *profile.Aggregator) *ProfileService {
	return &ProfileService{store: st, resolver: r, aggregator: a}
}

// GetProfile resolves a handle and returns the viewer-appropriate
// content set and stats in a single read.
func (s *ProfileService) GetProfile(ctx context.Context, handle string, viewer *models.Identity) (*ProfileResponse, error) {
	resolved, err := s.resolver.Resolve(ctx, handle, viewer)
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrNotFound):
			return nil, models.NewNotFoundError("writer", handle)
		case errors.Is(err, profile.ErrNotAuthenticated):
			return nil, models.NewUnauthorizedError("authentication required")
		default:
			return nil, models.NewInternalError(err)
		}
	}

	snap, err := s.aggregator.FetchOnce(ctx, *resolved, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &ProfileResponse{
		Writer: resolved.Identity,
		IsOwn:  resolved.IsOwn,
		Items:  snap.Items,
		Stats:  snap.Stats,
	}, nil
}

// SavedItems returns the viewer's bookmarks, newest first.
func (s *ProfileService) SavedItems(ctx context.Context, viewer models.Identity) ([]models.Bookmark, error) {
	marks, err := s.aggregator.FetchSaved(ctx, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return marks, nil
}

// MoveToDraft unpublishes a writing. Only the author may do this; the
// change propagates to open live views through the store subscription,
// so visitor views drop the item and owner views reclassify it.
func (s *ProfileService) MoveToDraft(ctx context.Context, viewer models.Identity, writingID string) (*models.Writing, error) {
	docs, err := s.store.QueryEqual(ctx, store.CollectionWritings, "id", writingID, 1)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(docs) == 0 {
		return nil, models.NewNotFoundError("writing", writingID)
	}

	w := models.WritingFromDoc(docs[0])
	if w.AuthorID != viewer.ID {
		return nil, models.NewForbiddenError("only the author can move this to drafts")
	}
	if w.Status == models.StatusDraft {
		return &w, nil
	}

	w.Status = models.StatusDraft
	if err := s.store.Update(ctx, store.CollectionWritings, w.ID, w.Fields()); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &w, nil
}
