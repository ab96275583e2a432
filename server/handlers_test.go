package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/model"
)

type stubRepo struct {
	items     []*model.TrackItem
	counts    map[model.Status]int64
	countsErr error

	lastStatus model.Status
	lastPage   int
	lastLimit  int
}

func (r *stubRepo) Upsert(ctx context.Context, item *model.TrackItem) error { return nil }
func (r *stubRepo) GetByID(ctx context.Context, itemID string) (*model.TrackItem, error) {
	return nil, nil
}

func (r *stubRepo) ListByStatus(ctx context.Context, status model.Status, page, limit int) ([]*model.TrackItem, error) {
	r.lastStatus, r.lastPage, r.lastLimit = status, page, limit
	return r.items, nil
}

func (r *stubRepo) List(ctx context.Context, page, limit int) ([]*model.TrackItem, error) {
	r.lastPage, r.lastLimit = page, limit
	return r.items, nil
}

func (r *stubRepo) CountsByStatus(ctx context.Context) (map[model.Status]int64, error) {
	return r.counts, r.countsErr
}

func newTestServer(repo *stubRepo) *Server {
	return New(":0", repo, cache.NewProgressCache(nil))
}

func do(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStatsHandler(t *testing.T) {
	repo := &stubRepo{counts: map[model.Status]int64{
		model.StatusSynced: 40,
		model.StatusFailed: 2,
	}}

	rec := do(t, newTestServer(repo), http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total    int64            `json:"total"`
		ByStatus map[string]int64 `json:"by_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.Total)
	assert.Equal(t, int64(40), body.ByStatus["synced"])
	assert.Equal(t, int64(2), body.ByStatus["failed"])
}

func TestStatsHandler_RepoError(t *testing.T) {
	repo := &stubRepo{countsErr: errors.New("db gone")}

	rec := do(t, newTestServer(repo), http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTracksHandler(t *testing.T) {
	repo := &stubRepo{items: []*model.TrackItem{
		{ItemID: "1", Title: "Begadang", Status: model.StatusSynced},
	}}
	srv := newTestServer(repo)

	t.Run("defaults", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/tracks")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, repo.lastPage)
		assert.Equal(t, defaultPageLimit, repo.lastLimit)

		var body struct {
			Count  int               `json:"count"`
			Tracks []model.TrackItem `json:"tracks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "Begadang", body.Tracks[0].Title)
	})

	t.Run("status filter", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/tracks?status=failed&page=2&limit=10")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.StatusFailed, repo.lastStatus)
		assert.Equal(t, 2, repo.lastPage)
		assert.Equal(t, 10, repo.lastLimit)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/tracks?status=bogus")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out-of-range paging falls back to defaults", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/tracks?page=-1&limit=9999")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, repo.lastPage)
		assert.Equal(t, defaultPageLimit, repo.lastLimit)
	})
}

func TestProgressHandler_NoScan(t *testing.T) {
	rec := do(t, newTestServer(&stubRepo{}), http.MethodGet, "/api/progress")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	rec := do(t, newTestServer(&stubRepo{}), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIndexServesDashboard(t *testing.T) {
	rec := do(t, newTestServer(&stubRepo{}), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Music Archive Dashboard")
}
