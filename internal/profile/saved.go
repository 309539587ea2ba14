package profile

import (
	"context"
	"sort"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/store"
)

// FetchSaved returns the viewer's bookmarks, newest first. This is a
// one-shot read, not a subscription. Bookmarks whose underlying content
// has since been deleted are returned as-is; the caller renders them
// from the denormalized title and author fields.
func (a *Aggregator) FetchSaved(ctx context.Context, viewer models.Identity) ([]models.Bookmark, error) {
	docs, err := a.store.QueryEqual(ctx, store.CollectionBookmarks, "owner_id", viewer.ID, 0)
	if err != nil {
		observability.StoreErrors.WithLabelValues(store.CollectionBookmarks, "query").Inc()
		a.log.LogError(ctx, viewer.ID, err)
		return nil, err
	}

	marks := make([]models.Bookmark, 0, len(docs))
	for _, d := range docs {
		marks = append(marks, models.BookmarkFromDoc(d))
	}
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].SavedAt.After(marks[j].SavedAt)
	})
	return marks, nil
}
