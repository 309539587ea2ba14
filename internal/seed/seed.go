// Package seed provides document store seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// Options configuration for the seeder
type Options struct {
	NumWriters        int
	WritingsPerWriter int
}

var poemTitles = []string{
	"Ink at Midnight", "The Unsent Letter", "October Light",
	"What the River Keeps", "Small Hours", "Paper Boats",
	"The Weight of Rain", "Margins", "A Field Guide to Leaving",
}

// Seed populates the store with demo writers, writings and saved items.
// Every writer gets a mix of published stories, poems and drafts so both
// owner and visitor profile views have something to show.
func Seed(ctx context.Context, st store.Store, opts Options) error {
	log.Printf("Seeding %d writers with ~%d writings each...", opts.NumWriters, opts.WritingsPerWriter)

	f := NewFactory(st)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	writers := make([]*models.Identity, 0, opts.NumWriters)
	for i := 0; i < opts.NumWriters; i++ {
		w, err := f.CreateWriter(ctx)
		if err != nil {
			return fmt.Errorf("failed to create writer: %w", err)
		}
		writers = append(writers, w)
	}
	log.Printf("created %d writers", len(writers))

	total := 0
	for _, writer := range writers {
		n := opts.WritingsPerWriter
		if n <= 0 {
			n = 4
		}
		for i := 0; i < n; i++ {
			kind := models.KindStory
			if i%3 == 1 {
				kind = models.KindPoem
			} else if i%5 == 4 {
				// legacy records carry no kind
				kind = models.KindUnspecified
			}

			status := models.StatusPublished
			if i%4 == 3 {
				status = models.StatusDraft
			}

			overrides := []func(*models.Writing){}
			if kind == models.KindPoem {
				title := poemTitles[r.Intn(len(poemTitles))]
				overrides = append(overrides, func(w *models.Writing) { w.Title = title })
			}

			if _, err := f.CreateWriting(ctx, writer, kind, status, overrides...); err != nil {
				return fmt.Errorf("failed to create writing: %w", err)
			}
			total++
		}
	}
	log.Printf("created %d writings", total)

	// Cross-save some published work, plus one dangling reference per
	// store so the saved view exercises deleted-content rendering.
	saved := 0
	for i, owner := range writers {
		other := writers[(i+1)%len(writers)]
		docs, err := st.QueryCompound(ctx, store.CollectionWritings, []store.Filter{
			store.Eq("author_id", other.ID),
			store.Eq("status", models.StatusPublished),
		}, 2)
		if err != nil {
			return fmt.Errorf("failed to list writings to save: %w", err)
		}
		for _, d := range docs {
			w := models.WritingFromDoc(d)
			if _, err := f.CreateBookmark(ctx, owner, &w); err != nil {
				return fmt.Errorf("failed to create bookmark: %w", err)
			}
			saved++
		}
	}
	if len(writers) > 0 {
		if _, err := f.CreateDanglingBookmark(ctx, writers[0]); err != nil {
			return fmt.Errorf("failed to create dangling bookmark: %w", err)
		}
		saved++
	}
	log.Printf("created %d saved items", saved)

	log.Println("Seeding completed successfully")
	return nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
