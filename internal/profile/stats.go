package profile

import (
	"sort"
	"time"

	"inkwell/internal/models"
)

// ComputeStats derives summary stats from the full visible writing set.
// It is a pure function and the only way stats are ever produced: no
// counter is carried over or patched between emissions, so stats always
// agree exactly with the item list they accompany.
func ComputeStats(items []models.Writing, owner bool) models.Stats {
	if owner {
		stats := models.Stats{Role: models.RoleOwner}
		for _, w := range items {
			switch {
			case w.Status == models.StatusDraft:
				stats.Drafts++
			case w.Published() && w.CountsAsStory():
				stats.Stories++
			case w.Published() && w.Kind == models.KindPoem:
				stats.Poems++
			}
		}
		return stats
	}

	stats := models.Stats{Role: models.RoleVisitor}
	for _, w := range items {
		if !w.Published() {
			continue
		}
		stats.Published++
		stats.Hearts += w.LikeCount
	}
	return stats
}

// Visible reports whether a writing may be shown to the viewer: owners
// see everything of their own, everyone else sees published work only.
func Visible(w models.Writing, authorID string, owner bool) bool {
	if w.AuthorID != authorID {
		return false
	}
	return owner || w.Published()
}

// sortWritings orders by UpdatedAt descending, in place. Items without a
// server-assigned timestamp sort last, and the stable sort preserves the
// incoming batch order among equals so repeated deliveries of the same
// set keep a deterministic order.
func sortWritings(items []models.Writing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}

// dateLabel renders a compact display date. Records whose timestamp has
// not yet been assigned by the store read "Just now".
func dateLabel(now, t time.Time) string {
	if t.IsZero() {
		return "Just now"
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}
