// Package profile implements profile identity resolution and live content
// aggregation: turning an ambiguous handle/session pair into exactly one
// author, and keeping that author's visible writings and derived stats in
// sync with the document store.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/store"
)

// Resolution outcomes surfaced to callers.
var (
	// ErrNotFound means the fallback chain was exhausted without a hit.
	// Store failures during resolution fold into this same outcome.
	ErrNotFound = errors.New("writer not found")

	// ErrNotAuthenticated means no handle was requested and no session is
	// present; the caller should redirect to authentication.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// DefaultScanLimit bounds the step-3 content scan when no explicit limit
// is configured.
const DefaultScanLimit = 50

// ResolvedIdentity is an Identity plus ownership relative to the viewer.
type ResolvedIdentity struct {
	models.Identity
	IsOwn bool `json:"is_own"`
}

// Resolver turns a (requested handle, session identity) pair into one
// canonical author identity via an ordered fallback chain:
//
//  1. the identities collection by handle,
//  2. a published writing carrying the handle denormalized,
//  3. a bounded scan of recent published writings matched on normalized
//     email local part or whitespace-stripped name.
//
// Step 3 exists only for legacy records that never got a canonical
// identity document; it is best-effort and can mismatch when two authors
// share a derived handle.
type Resolver struct {
	store     store.Store
	scanLimit int
	log       *observability.Logger
}

// NewResolver creates a Resolver. A scanLimit of 0 selects DefaultScanLimit.
func NewResolver(st store.Store, scanLimit int) *Resolver {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Resolver{
		store:     st,
		scanLimit: scanLimit,
		log:       observability.GlobalLogger,
	}
}

// Resolve executes the fallback chain. It is read-only and never retries;
// store failures are logged and the chain moves on, so an exhausted chain
// reports ErrNotFound whether records were absent or unreachable.
func (r *Resolver) Resolve(ctx context.Context, handle string, session *models.Identity) (*ResolvedIdentity, error) {
	span, ctx := observability.NewSpan(ctx, "profile.resolve")
	defer span.End()
	span.AddAttributes(attribute.String("profile.handle", handle))

	handle = strings.TrimSpace(handle)

	if handle == "" {
		if session == nil {
			return nil, ErrNotAuthenticated
		}
		observability.ResolverFallbackHits.WithLabelValues("session").Inc()
		return &ResolvedIdentity{Identity: *session, IsOwn: true}, nil
	}

	if session != nil && session.DisplayHandle() == handle {
		observability.ResolverFallbackHits.WithLabelValues("own_handle").Inc()
		return &ResolvedIdentity{Identity: *session, IsOwn: true}, nil
	}

	if id, ok := r.fromIdentities(ctx, handle); ok {
		observability.ResolverFallbackHits.WithLabelValues("identities").Inc()
		return r.withOwnership(id, session), nil
	}

	if id, ok := r.fromPublishedContent(ctx, handle); ok {
		observability.ResolverFallbackHits.WithLabelValues("published_content").Inc()
		return r.withOwnership(id, session), nil
	}

	if id, ok := r.fromScan(ctx, handle); ok {
		observability.ResolverFallbackHits.WithLabelValues("scan").Inc()
		return r.withOwnership(id, session), nil
	}

	observability.ResolverFallbackHits.WithLabelValues("miss").Inc()
	return nil, ErrNotFound
}

// fromIdentities is step 1: the canonical identity collection is
// authoritative whenever a record exists.
func (r *Resolver) fromIdentities(ctx context.Context, handle string) (models.Identity, bool) {
	docs, err := r.store.QueryEqual(ctx, store.CollectionIdentities, "handle", handle, 1)
	if err != nil {
		r.logStepError(ctx, "identities", handle, err)
		return models.Identity{}, false
	}
	if len(docs) == 0 {
		return models.Identity{}, false
	}
	return models.IdentityFromDoc(docs[0]), true
}

// fromPublishedContent is step 2: reconstruct the identity from the
// denormalized author snapshot on any published writing with this handle.
func (r *Resolver) fromPublishedContent(ctx context.Context, handle string) (models.Identity, bool) {
	docs, err := r.store.QueryCompound(ctx, store.CollectionWritings, []store.Filter{
		store.Eq("status", models.StatusPublished),
		store.Eq("author_handle", handle),
	}, 1)
	if err != nil {
		r.logStepError(ctx, "published_content", handle, err)
		return models.Identity{}, false
	}
	if len(docs) == 0 {
		return models.Identity{}, false
	}
	return identityFromWriting(models.WritingFromDoc(docs[0]), handle), true
}

// fromScan is step 3: a bounded scan of recent published writings with
// in-memory normalized matching. The cap is a hard cost ceiling; this
// step never scans the whole collection.
func (r *Resolver) fromScan(ctx context.Context, handle string) (models.Identity, bool) {
	docs, err := r.store.QueryEqual(ctx, store.CollectionWritings, "status", models.StatusPublished, r.scanLimit)
	if err != nil {
		r.logStepError(ctx, "scan", handle, err)
		return models.Identity{}, false
	}
	for _, d := range docs {
		w := models.WritingFromDoc(d)
		if matchesHandle(w, handle) {
			return identityFromWriting(w, handle), true
		}
	}
	return models.Identity{}, false
}

func (r *Resolver) withOwnership(id models.Identity, session *models.Identity) *ResolvedIdentity {
	return &ResolvedIdentity{
		Identity: id,
		IsOwn:    session != nil && session.ID == id.ID,
	}
}

func (r *Resolver) logStepError(ctx context.Context, step, handle string, err error) {
	observability.ResolverErrors.WithLabelValues(step).Inc()
	r.log.ErrorContext(ctx, "resolver step failed",
		"step", step,
		"handle", handle,
		"error", err.Error(),
	)
}

// matchesHandle applies the legacy normalized match: email local part
// equality, or case-insensitive name equality with whitespace stripped.
func matchesHandle(w models.Writing, handle string) bool {
	if w.AuthorEmail != "" && models.EmailLocalPart(w.AuthorEmail) == handle {
		return true
	}
	return w.AuthorName != "" && normalizeName(w.AuthorName) == normalizeName(handle)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// identityFromWriting synthesizes an Identity from a writing's
// denormalized author fields. The snapshot may be stale relative to the
// author's live profile; callers display it as-is.
func identityFromWriting(w models.Writing, handle string) models.Identity {
	avatar := w.AuthorAvatar
	if avatar == "" {
		avatar = fallbackAvatarURL(w.AuthorName)
	}
	return models.Identity{
		ID:        w.AuthorID,
		Handle:    handle,
		Name:      w.AuthorName,
		Email:     w.AuthorEmail,
		AvatarURL: avatar,
	}
}

func fallbackAvatarURL(name string) string {
	if name == "" {
		name = "Writer"
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=2C2C2C&color=F9F8F4", url.QueryEscape(name))
}
