package models

import (
	"time"

	"inkwell/internal/store"
)

// Writing kinds. Legacy records carry no kind at all; those count as
// stories everywhere a kind matters.
const (
	KindStory       = "story"
	KindPoem        = "poem"
	KindUnspecified = ""
)

// Writing statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Writing is a single authored work. The Author* fields are a denormalized
// snapshot taken at write time; they may drift from the live Identity when
// the author later edits their profile, and callers must tolerate that.
type Writing struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	AuthorEmail  string    `json:"-"`
	Title        string    `json:"title"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	LikeCount    int       `json:"like_count"`
	UpdatedAt    time.Time `json:"updated_at"`

	// DateLabel is derived from UpdatedAt for display; never persisted.
	DateLabel string `json:"date_label"`
}

// Published reports whether the writing is publicly visible.
func (w Writing) Published() bool {
	return w.Status == StatusPublished
}

// CountsAsStory reports whether the writing counts toward the story stat.
// Records without a kind predate the story/poem split.
func (w Writing) CountsAsStory() bool {
	return w.Kind == KindStory || w.Kind == KindUnspecified
}

// WritingFromDoc decodes a writings-collection document.
func WritingFromDoc(d store.Doc) Writing {
	return Writing{
		ID:           d.ID,
		AuthorID:     d.Str("author_id"),
		AuthorHandle: d.Str("author_handle"),
		AuthorName:   d.Str("author_name"),
		AuthorAvatar: d.Str("author_avatar"),
		AuthorEmail:  d.Str("author_email"),
		Title:        d.Str("title"),
		Kind:         d.Str("kind"),
		Status:       d.Str("status"),
		LikeCount:    d.Int("like_count"),
		UpdatedAt:    d.UpdatedAt,
	}
}

// Fields returns the document representation for writes.
func (w Writing) Fields() map[string]any {
	return map[string]any{
		"author_id":     w.AuthorID,
		"author_handle": w.AuthorHandle,
		"author_name":   w.AuthorName,
		"author_avatar": w.AuthorAvatar,
		"author_email":  w.AuthorEmail,
		"title":         w.Title,
		"kind":          w.Kind,
		"status":        w.Status,
		"like_count":    w.LikeCount,
	}
}
