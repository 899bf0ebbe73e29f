package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/model"
	"tiny-dp-go/internal/runner"
	"tiny-dp-go/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	defaults, err := runner.FromConfig(config.Defaults())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Config{
		BaseURL:     "/api",
		Controllers: []Controller{NewEvaluationServer(store, defaults, logger)},
	})
	return router.Handler(), store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateClassicWithEmptyBody(t *testing.T) {
	h, store := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/v1/evaluations", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 9, run.Sweeps)
	assert.True(t, run.Converged)
	assert.InDelta(t, 2.0538, run.Values[3][3], 1e-4)

	_, ok, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateCustomMap(t *testing.T) {
	h, _ := newTestRouter(t)

	body := `{"map":["WWWWW","WSPGW","WWWWW"],"order":"reverse","gamma":0.9,"rewards":{"G":{"mean":1}}}`
	rec := do(h, http.MethodPost, "/api/v1/evaluations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "reverse", run.Settings.Order)
	assert.Equal(t, 0.9, run.Settings.Gamma)
	assert.Equal(t, []string{"WWWWW", "WSPGW", "WWWWW"}, run.Settings.Map)
	assert.Greater(t, run.Values[1][2], run.Values[1][1])
}

func TestEvaluateRejectsBadRequests(t *testing.T) {
	h, _ := newTestRouter(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"gamma":`, http.StatusBadRequest},
		{"unknown order", `{"order":"sideways"}`, http.StatusBadRequest},
		{"bad map", `{"map":["WWW","WXW","WWW"]}`, http.StatusBadRequest},
		{"open perimeter", `{"map":["PPP","PSP","PPP"]}`, http.StatusBadRequest},
		{"no path cells", `{"map":["WWWW","WGGW","WWWW"]}`, http.StatusBadRequest},
		{"gamma out of range", `{"gamma":1.5}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/v1/evaluations", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestEvaluateSweepCapReturnsPartialRun(t *testing.T) {
	h, store := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/v1/evaluations", `{"maxSweeps":2,"threshold":1e-12}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var body struct {
		Error string    `json:"error"`
		Run   model.Run `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "did not converge")
	assert.Equal(t, 2, body.Run.Sweeps)
	assert.False(t, body.Run.Converged)

	_, ok, err := store.GetRun(context.Background(), body.Run.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/v1/evaluations", `{"seed":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(h, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Runs []model.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Runs, 1)
	assert.Equal(t, created.ID, listed.Runs[0].ID)

	rec = do(h, http.MethodGet, "/api/v1/runs/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(h, http.MethodGet, "/api/v1/runs/"+created.ID+"/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "sweep deltas")

	rec = do(h, http.MethodDelete, "/api/v1/runs/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/runs/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(h, http.MethodGet, "/api/v1/runs/missing/chart", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
