package profile

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeStub is a stub for store.Store.
type storeStub struct {
	queryEqualFn    func(ctx context.Context, collection, field string, value any, limit int) ([]store.Doc, error)
	queryCompoundFn func(ctx context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error)
	subscribeFn     func(ctx context.Context, collection string, filters []store.Filter, onSnapshot func([]store.Doc), onError func(error)) (store.CancelFunc, error)
	insertFn        func(ctx context.Context, collection string, fields map[string]any) (string, error)
	updateFn        func(ctx context.Context, collection, id string, fields map[string]any) error
}

func (s *storeStub) QueryEqual(ctx context.Context, collection, field string, value any, limit int) ([]store.Doc, error) {
	return s.queryEqualFn(ctx, collection, field, value, limit)
}
func (s *storeStub) QueryCompound(ctx context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error) {
	return s.queryCompoundFn(ctx, collection, filters, limit)
}
func (s *storeStub) Subscribe(ctx context.Context, collection string, filters []store.Filter, onSnapshot func([]store.Doc), onError func(error)) (store.CancelFunc, error) {
	return s.subscribeFn(ctx, collection, filters, onSnapshot, onError)
}
func (s *storeStub) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return s.insertFn(ctx, collection, fields)
}
func (s *storeStub) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.updateFn(ctx, collection, id, fields)
}

func emptyStore() *storeStub {
	return &storeStub{
		queryEqualFn: func(_ context.Context, _, _ string, _ any, _ int) ([]store.Doc, error) {
			return nil, nil
		},
		queryCompoundFn: func(_ context.Context, _ string, _ []store.Filter, _ int) ([]store.Doc, error) {
			return nil, nil
		},
		subscribeFn: func(_ context.Context, _ string, _ []store.Filter, _ func([]store.Doc), _ func(error)) (store.CancelFunc, error) {
			return func() {}, nil
		},
		insertFn: func(_ context.Context, _ string, _ map[string]any) (string, error) { return "", nil },
		updateFn: func(_ context.Context, _, _ string, _ map[string]any) error { return nil },
	}
}

func identityDoc(id, handle, name, email string) store.Doc {
	return store.Doc{ID: id, Fields: map[string]any{
		"handle":     handle,
		"name":       name,
		"email":      email,
		"avatar_url": "https://cdn.example.com/" + id + ".png",
	}}
}

func writingDoc(id string, fields map[string]any) store.Doc {
	return store.Doc{ID: id, Fields: fields}
}

func TestResolve_NoHandleNoSession(t *testing.T) {
	r := NewResolver(emptyStore(), 0)

	_, err := r.Resolve(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestResolve_NoHandle_SessionFallback(t *testing.T) {
	st := emptyStore()
	queried := false
	st.queryEqualFn = func(_ context.Context, _, _ string, _ any, _ int) ([]store.Doc, error) {
		queried = true
		return nil, nil
	}

	session := &models.Identity{ID: "u1", Handle: "maia", Name: "Maia Ortiz"}
	r := NewResolver(st, 0)

	got, err := r.Resolve(context.Background(), "", session)
	require.NoError(t, err)
	assert.True(t, got.IsOwn)
	assert.Equal(t, "u1", got.ID)
	assert.False(t, queried, "session fallback must not touch the store")
}

func TestResolve_OwnHandleShortcut(t *testing.T) {
	st := emptyStore()
	queries := 0
	st.queryEqualFn = func(_ context.Context, _, _ string, _ any, _ int) ([]store.Doc, error) {
		queries++
		return nil, nil
	}

	// Session without an explicit handle falls back to the email local part.
	session := &models.Identity{ID: "u1", Name: "Maia Ortiz", Email: "maia@example.com"}
	r := NewResolver(st, 0)

	got, err := r.Resolve(context.Background(), "maia", session)
	require.NoError(t, err)
	assert.True(t, got.IsOwn)
	assert.Equal(t, "u1", got.ID)
	assert.Zero(t, queries, "own-handle shortcut must not touch the store")
}

func TestResolve_IdentitiesHit_StopsChain(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, collection, field string, value any, limit int) ([]store.Doc, error) {
		require.Equal(t, store.CollectionIdentities, collection)
		require.Equal(t, "handle", field)
		require.Equal(t, 1, limit)
		return []store.Doc{identityDoc("u7", "jules", "Jules Fern", "jules@example.com")}, nil
	}
	compoundCalls := 0
	st.queryCompoundFn = func(_ context.Context, _ string, _ []store.Filter, _ int) ([]store.Doc, error) {
		compoundCalls++
		return nil, nil
	}

	r := NewResolver(st, 0)
	got, err := r.Resolve(context.Background(), "jules", nil)
	require.NoError(t, err)
	assert.Equal(t, "u7", got.ID)
	assert.Equal(t, "jules", got.Handle)
	assert.False(t, got.IsOwn)
	assert.Zero(t, compoundCalls, "later steps must not run after a hit")
}

func TestResolve_PublishedContentFallback(t *testing.T) {
	st := emptyStore()
	st.queryCompoundFn = func(_ context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error) {
		require.Equal(t, store.CollectionWritings, collection)
		require.Equal(t, 1, limit)
		return []store.Doc{writingDoc("w1", map[string]any{
			"author_id":     "u9",
			"author_handle": "rowan",
			"author_name":   "Rowan Hale",
			"author_email":  "rowan@example.com",
			"status":        "published",
		})}, nil
	}

	r := NewResolver(st, 0)
	got, err := r.Resolve(context.Background(), "rowan", nil)
	require.NoError(t, err)
	assert.Equal(t, "u9", got.ID)
	assert.Equal(t, "rowan", got.Handle)
	assert.Equal(t, "Rowan Hale", got.Name)
	// No avatar on the writing: a deterministic fallback is synthesized.
	assert.Contains(t, got.AvatarURL, "ui-avatars.com")
	assert.Contains(t, got.AvatarURL, "Rowan+Hale")
}

func TestResolve_ScanMatchesEmailLocalPart(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, collection, field string, value any, limit int) ([]store.Doc, error) {
		if collection == store.CollectionIdentities {
			return nil, nil
		}
		// Step 3 scans published writings with the configured cap.
		require.Equal(t, "status", field)
		require.Equal(t, models.StatusPublished, value)
		require.Equal(t, 25, limit)
		return []store.Doc{
			writingDoc("w1", map[string]any{
				"author_id":    "other",
				"author_name":  "Sam Pine",
				"author_email": "sam@example.com",
				"status":       "published",
			}),
			writingDoc("w2", map[string]any{
				"author_id":    "u3",
				"author_name":  "Vaibhav Mehta",
				"author_email": "vaibhav@example.com",
				"status":       "published",
			}),
		}, nil
	}

	r := NewResolver(st, 25)
	got, err := r.Resolve(context.Background(), "vaibhav", nil)
	require.NoError(t, err)
	assert.Equal(t, "u3", got.ID)
	assert.Equal(t, "vaibhav", got.Handle)
}

func TestResolve_ScanMatchesNormalizedName(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, collection, _ string, _ any, _ int) ([]store.Doc, error) {
		if collection == store.CollectionIdentities {
			return nil, nil
		}
		return []store.Doc{
			writingDoc("w1", map[string]any{
				"author_id":   "u4",
				"author_name": "Asha  N. Rao",
				"status":      "published",
			}),
		}, nil
	}

	r := NewResolver(st, 0)
	got, err := r.Resolve(context.Background(), "asha n. rao", nil)
	require.NoError(t, err)
	assert.Equal(t, "u4", got.ID)
}

func TestResolve_Exhausted(t *testing.T) {
	r := NewResolver(emptyStore(), 0)

	_, err := r.Resolve(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_StoreErrorsFoldIntoNotFound(t *testing.T) {
	st := emptyStore()
	boom := errors.New("store unreachable")
	st.queryEqualFn = func(_ context.Context, _, _ string, _ any, _ int) ([]store.Doc, error) {
		return nil, boom
	}
	st.queryCompoundFn = func(_ context.Context, _ string, _ []store.Filter, _ int) ([]store.Doc, error) {
		return nil, boom
	}

	r := NewResolver(st, 0)
	_, err := r.Resolve(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, boom)
}

func TestResolve_ErroredStepContinuesChain(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, collection, _ string, _ any, _ int) ([]store.Doc, error) {
		if collection == store.CollectionIdentities {
			return nil, errors.New("identities unavailable")
		}
		return nil, nil
	}
	st.queryCompoundFn = func(_ context.Context, _ string, _ []store.Filter, _ int) ([]store.Doc, error) {
		return []store.Doc{writingDoc("w1", map[string]any{
			"author_id":     "u2",
			"author_handle": "ira",
			"status":        "published",
		})}, nil
	}

	r := NewResolver(st, 0)
	got, err := r.Resolve(context.Background(), "ira", nil)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)
}

func TestResolve_StepErrorsUseResolverCounter(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, collection, _ string, _ any, _ int) ([]store.Doc, error) {
		if collection == store.CollectionIdentities {
			return nil, errors.New("identities unavailable")
		}
		return nil, nil
	}
	st.queryCompoundFn = func(_ context.Context, _ string, _ []store.Filter, _ int) ([]store.Doc, error) {
		return nil, nil
	}

	before := testutil.ToFloat64(observability.ResolverErrors.WithLabelValues("identities"))

	r := NewResolver(st, 0)
	_, err := r.Resolve(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	after := testutil.ToFloat64(observability.ResolverErrors.WithLabelValues("identities"))
	assert.Equal(t, before+1, after)

	// Resolver step names must not leak into the store error collection label.
	assert.Zero(t, testutil.ToFloat64(observability.StoreErrors.WithLabelValues("identities", "resolve")))
}

func TestResolve_OwnershipFromStoreHit(t *testing.T) {
	st := emptyStore()
	st.queryEqualFn = func(_ context.Context, _, _ string, _ any, _ int) ([]store.Doc, error) {
		return []store.Doc{identityDoc("u1", "maia-writes", "Maia Ortiz", "maia@example.com")}, nil
	}

	// Viewer arrives via a non-canonical handle that still resolves to them.
	session := &models.Identity{ID: "u1", Handle: "maia"}
	r := NewResolver(st, 0)

	got, err := r.Resolve(context.Background(), "maia-writes", session)
	require.NoError(t, err)
	assert.True(t, got.IsOwn)
	assert.Equal(t, "maia-writes", got.Handle)
}
