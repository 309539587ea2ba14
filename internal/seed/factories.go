// Package seed provides helpers to create test and demo data for the
// application document store. These helpers are intended for development
// and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Factory builds domain entities and persists them to the document store.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	store store.Store
	rng   *rand.Rand
}

// NewFactory creates a new Factory bound to the provided store.
func NewFactory(st store.Store) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		store: st,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateWriter constructs and persists a writer identity.
// Optional override functions may modify the generated writer before saving.
func (f *Factory) CreateWriter(ctx context.Context, overrides ...func(*models.Identity)) (*models.Identity, error) {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	email := fmt.Sprintf("%s.%s@%s",
		lower(first), lower(last), gofakeit.DomainName())

	writer := &models.Identity{
		Handle:    models.EmailLocalPart(email),
		Name:      first + " " + last,
		Email:     email,
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", uuid.NewString()),
	}

	for _, override := range overrides {
		override(writer)
	}

	id, err := f.store.Insert(ctx, store.CollectionIdentities, writer.Fields())
	if err != nil {
		return nil, err
	}
	writer.ID = id
	return writer, nil
}

// CreateWriting constructs and persists a writing for the given author.
func (f *Factory) CreateWriting(ctx context.Context, author *models.Identity, kind, status string, overrides ...func(*models.Writing)) (*models.Writing, error) {
	w := &models.Writing{
		Title:        gofakeit.Sentence(4),
		Kind:         kind,
		Status:       status,
		AuthorID:     author.ID,
		AuthorHandle: author.Handle,
		AuthorName:   author.Name,
		AuthorEmail:  author.Email,
		AuthorAvatar: author.AvatarURL,
	}
	if status == models.StatusPublished {
		w.LikeCount = f.rng.Intn(40)
	}

	for _, override := range overrides {
		override(w)
	}

	id, err := f.store.Insert(ctx, store.CollectionWritings, w.Fields())
	if err != nil {
		return nil, err
	}
	w.ID = id
	return w, nil
}

// CreateBookmark persists a saved-item entry pointing at the given writing.
func (f *Factory) CreateBookmark(ctx context.Context, owner *models.Identity, w *models.Writing) (*models.Bookmark, error) {
	b := &models.Bookmark{
		OwnerID:    owner.ID,
		ContentID:  w.ID,
		Title:      w.Title,
		AuthorName: w.AuthorName,
		SavedAt:    time.Now().Add(-time.Duration(f.rng.Intn(72)) * time.Hour),
	}

	id, err := f.store.Insert(ctx, store.CollectionBookmarks, b.Fields())
	if err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}

// CreateDanglingBookmark persists a bookmark whose content reference does
// not exist. Saved-item lists keep these, rendering from the denormalized
// fields.
func (f *Factory) CreateDanglingBookmark(ctx context.Context, owner *models.Identity) (*models.Bookmark, error) {
	b := &models.Bookmark{
		OwnerID:    owner.ID,
		ContentID:  uuid.NewString(),
		Title:      gofakeit.Sentence(3),
		AuthorName: gofakeit.Name(),
		SavedAt:    time.Now().Add(-time.Duration(f.rng.Intn(2000)) * time.Hour),
	}

	id, err := f.store.Insert(ctx, store.CollectionBookmarks, b.Fields())
	if err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}
