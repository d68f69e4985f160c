package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	reasons []string
}

func (f *fakeEnqueuer) EnqueueCatalogRefresh(_ context.Context, reason string) (string, error) {
	f.reasons = append(f.reasons, reason)
	return "task-1", nil
}

func serve(t *testing.T, h *Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestHandlerDefaultsAndRates(t *testing.T) {
	api := newFakeAPI(t, `[{"key":"SELL_GST","value":"3","active":true}]`)
	lookup, _ := newTestLookup(t, api)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lookup, nil)

	rr := serve(t, h, http.MethodGet, "/catalog/")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Len(t, snap.Categories, 2)
	assert.Len(t, snap.MetalPrices, 2)
	assert.Len(t, snap.Settings, 1)

	rr = serve(t, h, http.MethodGet, "/catalog/rates/p-22k")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"purity_id":"p-22k","rate":"6000","active":true}`, rr.Body.String())

	rr = serve(t, h, http.MethodGet, "/catalog/rates/p-14k")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerRefresh(t *testing.T) {
	api := newFakeAPI(t, `[]`)
	lookup, _ := newTestLookup(t, api)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	enqueuer := &fakeEnqueuer{}
	rr := serve(t, NewHandler(logger, lookup, enqueuer), http.MethodPost, "/catalog/refresh")
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, []string{"manual"}, enqueuer.reasons)

	rr = serve(t, NewHandler(logger, lookup, nil), http.MethodPost, "/catalog/refresh")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int32(1), api.count("/categories"))
}

func TestHandlerSurfacesUpstreamMessage(t *testing.T) {
	api := newFakeAPI(t, "fail")
	lookup, _ := newTestLookup(t, api)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lookup, nil)

	rr := serve(t, h, http.MethodGet, "/catalog/")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	var problem struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, "settings offline", problem.Detail)
}
