package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/profile"
	"inkwell/internal/service"
	"inkwell/internal/session"
	"inkwell/internal/store"
	"inkwell/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// newTestApp wires a Server around an in-memory store, skipping the
// Prometheus middleware so repeated setups do not re-register collectors.
func newTestApp(t *testing.T, st store.Store) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:         testSecret,
		Port:              "0",
		DBDriver:          "sqlite",
		ResolverScanLimit: 50,
		Env:               "test",
	}
	middleware.InitMiddleware(cfg)

	s := &Server{config: cfg, store: st}
	s.resolver = profile.NewResolver(st, cfg.ResolverScanLimit)
	s.aggregator = profile.NewAggregator(st)
	s.profileService = service.NewProfileService(st, s.resolver, s.aggregator)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupRoutes(app)
	return app
}

func seedWriter(t *testing.T, st store.Store, ident models.Identity) string {
	t.Helper()
	id, err := st.Insert(context.Background(), store.CollectionIdentities, ident.Fields())
	require.NoError(t, err)
	return id
}

func seedWriting(t *testing.T, st store.Store, authorID, kind, status string, hearts int) string {
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

func authHeader(t *testing.T, ident models.Identity) string {
	t.Helper()
	token, err := session.IssueToken(testSecret, ident, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetWriterProfile_Visitor(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, models.Identity{Handle: "rowan", Name: "Rowan Hale", Email: "rowan@example.com"})
	seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 7)
	seedWriting(t, st, authorID, models.KindStory, models.StatusDraft, 0)

	app := newTestApp(t, st)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/writers/rowan", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	writer := body["writer"].(map[string]any)
	assert.Equal(t, "rowan", writer["handle"])
	assert.Equal(t, false, body["isOwn"])
	assert.Len(t, body["items"], 1)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, "visitor", stats["role"])
	assert.Equal(t, float64(7), stats["hearts"])
}

func TestGetWriterProfile_OwnerSeesDrafts(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, models.Identity{Handle: "rowan", Name: "Rowan Hale", Email: "rowan@example.com"})
	seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 2)
	seedWriting(t, st, authorID, models.KindPoem, models.StatusDraft, 0)

	app := newTestApp(t, st)
	req := httptest.NewRequest(http.MethodGet, "/api/writers/rowan", nil)
	req.Header.Set("Authorization", authHeader(t, models.Identity{ID: authorID, Handle: "rowan"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["isOwn"])
	assert.Len(t, body["items"], 2)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, "owner", stats["role"])
	assert.Equal(t, float64(1), stats["drafts"])
}

func TestGetWriterProfile_NotFound(t *testing.T) {
	app := newTestApp(t, memstore.New())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/writers/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMyProfile(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, models.Identity{Handle: "maia", Name: "Maia Ortiz", Email: "maia@example.com"})
	seedWriting(t, st, authorID, models.KindPoem, models.StatusDraft, 0)

	app := newTestApp(t, st)

	t.Run("requires auth", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/me/profile", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("returns own profile with drafts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me/profile", nil)
		req.Header.Set("Authorization", authHeader(t, models.Identity{ID: authorID, Handle: "maia"}))

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["isOwn"])
		assert.Len(t, body["items"], 1)
	})
}

func TestGetSavedItems(t *testing.T) {
	st := memstore.New()
	_, err := st.Insert(context.Background(), store.CollectionBookmarks, models.Bookmark{
		OwnerID: "u1", ContentID: "w1", Title: "Harbor Lights", AuthorName: "Rowan Hale",
		SavedAt: time.Now(),
	}.Fields())
	require.NoError(t, err)

	app := newTestApp(t, st)
	req := httptest.NewRequest(http.MethodGet, "/api/me/saved", nil)
	req.Header.Set("Authorization", authHeader(t, models.Identity{ID: "u1"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Harbor Lights", items[0].(map[string]any)["title"])
}

func TestMoveWritingToDraft(t *testing.T) {
	st := memstore.New()
	authorID := seedWriter(t, st, models.Identity{Handle: "rowan", Name: "Rowan Hale", Email: "rowan@example.com"})
	writingID := seedWriting(t, st, authorID, models.KindStory, models.StatusPublished, 0)

	app := newTestApp(t, st)

	t.Run("requires auth", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/writings/"+writingID+"/draft", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects non-author", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/writings/"+writingID+"/draft", nil)
		req.Header.Set("Authorization", authHeader(t, models.Identity{ID: "intruder"}))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown writing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/writings/nope/draft", nil)
		req.Header.Set("Authorization", authHeader(t, models.Identity{ID: authorID}))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("author unpublishes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/writings/"+writingID+"/draft", nil)
		req.Header.Set("Authorization", authHeader(t, models.Identity{ID: authorID}))
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		writing := body["writing"].(map[string]any)
		assert.Equal(t, models.StatusDraft, writing["status"])

		docs, err := st.QueryEqual(context.Background(), store.CollectionWritings, "id", writingID, 1)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, models.StatusDraft, docs[0].Str("status"))
	})
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t, memstore.New())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
