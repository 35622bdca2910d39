package favourites

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/check"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/list"
	"github.com/magabrotheeeer/trip-companion/internal/http/handlers/favourites/toggle"
	favstore "github.com/magabrotheeeer/trip-companion/internal/services/favourites"
)

func newRouter() chi.Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := favstore.New()

	r := chi.NewRouter()
	r.Get("/favourites", list.New(log, store).ServeHTTP)
	r.Post("/favourites/{planID}/toggle", toggle.New(log, store).ServeHTTP)
	r.Get("/favourites/{planID}", check.New(log, store).ServeHTTP)
	return r
}

type envelope struct {
	Status string         `json:"status"`
	Error  string         `json:"error"`
	Data   map[string]any `json:"data"`
}

func call(t *testing.T, r http.Handler, method, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestFavouritesHandlers(t *testing.T) {
	r := newRouter()

	steps := []struct {
		method        string
		path          string
		wantCode      int
		wantFavourite any
		wantList      []any
	}{
		{method: http.MethodPost, path: "/favourites/7/toggle", wantCode: http.StatusOK, wantFavourite: true},
		{method: http.MethodPost, path: "/favourites/3/toggle", wantCode: http.StatusOK, wantFavourite: true},
		{method: http.MethodGet, path: "/favourites/7", wantCode: http.StatusOK, wantFavourite: true},
		{method: http.MethodGet, path: "/favourites", wantCode: http.StatusOK, wantList: []any{3.0, 7.0}},
		{method: http.MethodPost, path: "/favourites/7/toggle", wantCode: http.StatusOK, wantFavourite: false},
		{method: http.MethodGet, path: "/favourites/7", wantCode: http.StatusOK, wantFavourite: false},
		{method: http.MethodGet, path: "/favourites", wantCode: http.StatusOK, wantList: []any{3.0}},
	}

	for _, s := range steps {
		code, resp := call(t, r, s.method, s.path)
		require.Equal(t, s.wantCode, code, s.path)
		if s.wantFavourite != nil {
			assert.Equal(t, s.wantFavourite, resp.Data["favourite"], s.method+" "+s.path)
		}
		if s.wantList != nil {
			assert.Equal(t, s.wantList, resp.Data["favourites"])
		}
	}
}

func TestFavouritesHandlers_InvalidPlanID(t *testing.T) {
	r := newRouter()

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/favourites/abc/toggle"},
		{http.MethodGet, "/favourites/abc"},
	} {
		code, resp := call(t, r, tc.method, tc.path)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid plan id", resp.Error)
	}
}
