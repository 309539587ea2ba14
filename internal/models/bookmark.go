package models

import (
	"time"

	"inkwell/internal/store"
)

// Bookmark is a viewer's saved reference to a writing. It has its own
// lifecycle: the referenced writing may have been deleted or unpublished
// since, and such entries are still listed rather than filtered out.
type Bookmark struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	ContentID  string    `json:"content_id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	SavedAt    time.Time `json:"saved_at"`
}

// BookmarkFromDoc decodes a bookmarks-collection document.
func BookmarkFromDoc(d store.Doc) Bookmark {
	b := Bookmark{
		ID:         d.ID,
		OwnerID:    d.Str("owner_id"),
		ContentID:  d.Str("content_id"),
		Title:      d.Str("title"),
		AuthorName: d.Str("author_name"),
		SavedAt:    d.Time("saved_at"),
	}
	if b.SavedAt.IsZero() {
		b.SavedAt = d.UpdatedAt
	}
	return b
}

// Fields returns the document representation for writes.
func (b Bookmark) Fields() map[string]any {
	return map[string]any{
		"owner_id":    b.OwnerID,
		"content_id":  b.ContentID,
		"title":       b.Title,
		"author_name": b.AuthorName,
		"saved_at":    b.SavedAt.Format(time.RFC3339Nano),
	}
}
