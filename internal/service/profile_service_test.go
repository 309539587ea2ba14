package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/profile"
	"inkwell/internal/store"
	"inkwell/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(st *memstore.Store) *ProfileService {
	return NewProfileService(st, profile.NewResolver(st, 0), profile.NewAggregator(st))
}

func seedWriter(t *testing.T, st *memstore.Store, handle, name, email string) string {
	t.Helper()
	id, err := st.Insert(context.Background(), store.CollectionIdentities,
		models.Identity{Handle: handle, Name: name, Email: email}.Fields())
	require.NoError(t, err)
	return id
}

func seedWriting(t *testing.T, st *memstore.Store, authorID, kind, status string, hearts int) string {
	t.Helper()
	id, err := st.Insert(context.Background(), store.CollectionWritings, map[string]any{
		"author_id":  authorID,
		"title":      "Untitled",
		"kind":       kind,
		"status":     status,
		"like_count": hearts,
	})
	require.NoError(t, err)
	return id
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestGetProfile_Visitor(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, "rowan", "Rowan Hale", "rowan@example.com")
	seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 7)
	seedWriting(t, st, authorID, models.KindStory, models.StatusDraft, 0)

	svc := newTestService(st)
	resp, err := svc.GetProfile(context.Background(), "rowan", nil)
	require.NoError(t, err)

	assert.Equal(t, "rowan", resp.Writer.Handle)
	assert.False(t, resp.IsOwn)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, models.RoleVisitor, resp.Stats.Role)
	assert.Equal(t, 7, resp.Stats.Hearts)
}

func TestGetProfile_Owner(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, "rowan", "Rowan Hale", "rowan@example.com")
	seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 2)
	seedWriting(t, st, authorID, models.KindPoem, models.StatusDraft, 0)

	svc := newTestService(st)
	viewer := &models.Identity{ID: authorID, Handle: "rowan"}
	resp, err := svc.GetProfile(context.Background(), "rowan", viewer)
	require.NoError(t, err)

	assert.True(t, resp.IsOwn)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, models.RoleOwner, resp.Stats.Role)
	assert.Equal(t, 1, resp.Stats.Drafts)
}

func TestGetProfile_UnknownHandle(t *testing.T) {
	svc := newTestService(memstore.New())
	_, err := svc.GetProfile(context.Background(), "ghost", nil)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestGetProfile_NoHandleNoSession(t *testing.T) {
	svc := newTestService(memstore.New())
	_, err := svc.GetProfile(context.Background(), "", nil)
	assert.Equal(t, "UNAUTHORIZED", appErrCode(t, err))
}

func TestSavedItems(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	viewer := models.Identity{ID: "u1"}

	_, err := st.Insert(ctx, store.CollectionBookmarks, models.Bookmark{
		OwnerID: "u1", ContentID: "w1", Title: "Harbor Lights", AuthorName: "Rowan Hale",
		SavedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}.Fields())
	require.NoError(t, err)

	svc := newTestService(st)
	marks, err := svc.SavedItems(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "Harbor Lights", marks[0].Title)
}

func TestMoveToDraft(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, "rowan", "Rowan Hale", "rowan@example.com")
	writingID := seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 3)

	svc := newTestService(st)
	w, err := svc.MoveToDraft(context.Background(), models.Identity{ID: authorID}, writingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, w.Status)

	docs, err := st.QueryEqual(context.Background(), store.CollectionWritings, "id", writingID, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.StatusDraft, docs[0].Str("status"))
}

func TestMoveToDraft_AlreadyDraft(t *testing.T) {
	st := memstore.New()
	writingID := seedWriting(t, st, "u1", models.KindStory, models.StatusDraft, 0)

	svc := newTestService(st)
	w, err := svc.MoveToDraft(context.Background(), models.Identity{ID: "u1"}, writingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, w.Status)
}

func TestMoveToDraft_NotAuthor(t *testing.T) {
	st := memstore.New()
	writingID := seedWriting(t, st, "u1", models.KindStory, models.StatusPublished, 0)

	svc := newTestService(st)
	_, err := svc.MoveToDraft(context.Background(), models.Identity{ID: "intruder"}, writingID)
	assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
}

func TestMoveToDraft_UnknownWriting(t *testing.T) {
	svc := newTestService(memstore.New())
	_, err := svc.MoveToDraft(context.Background(), models.Identity{ID: "u1"}, "nope")
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestMoveToDraft_PropagatesToVisitorLiveView(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, "rowan", "Rowan Hale", "rowan@example.com")
	writingID := seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 0)

	agg := profile.NewAggregator(st)
	lv, err := agg.OpenLiveView(context.Background(),
		profile.ResolvedIdentity{Identity: models.Identity{ID: authorID, Handle: "rowan"}}, nil)
	require.NoError(t, err)
	defer lv.Close()

	snap := <-lv.Updates()
	require.Len(t, snap.Items, 1)

	svc := newTestService(st)
	_, err = svc.MoveToDraft(context.Background(), models.Identity{ID: authorID}, writingID)
	require.NoError(t, err)

	snap = <-lv.Updates()
	assert.Empty(t, snap.Items, "unpublished writing must leave visitor views")
}
