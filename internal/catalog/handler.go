package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kanak-erp/kanak/internal/platform/httpx"
	"github.com/kanak-erp/kanak/internal/platform/remote"
)

// RefreshEnqueuer schedules an asynchronous catalog refresh.
type RefreshEnqueuer interface {
	EnqueueCatalogRefresh(ctx context.Context, reason string) (string, error)
}

// Handler exposes the lookup snapshot the pricing forms start from.
type Handler struct {
	logger   *slog.Logger
	lookup   *Lookup
	enqueuer RefreshEnqueuer
}

// NewHandler constructs the HTTP handler. Without an enqueuer, refresh runs
// inline.
func NewHandler(logger *slog.Logger, lookup *Lookup, enqueuer RefreshEnqueuer) *Handler {
	return &Handler{logger: logger, lookup: lookup, enqueuer: enqueuer}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.handleDefaults)
		r.Get("/rates/{purityID}", h.handleRate)
		r.Post("/refresh", h.handleRefresh)
	})
}

func (h *Handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	snap, err := h.lookup.Defaults(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

type rateResponse struct {
	PurityID string `json:"purity_id"`
	Rate     string `json:"rate"`
	Active   bool   `json:"active"`
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	purityID := chi.URLParam(r, "purityID")
	rate, ok, err := h.lookup.ActiveRate(r.Context(), purityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Rate Not Found", "no active metal price for "+purityID)
		return
	}
	httpx.JSON(w, http.StatusOK, rateResponse{PurityID: purityID, Rate: rate.String(), Active: true})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer != nil {
		id, err := h.enqueuer.EnqueueCatalogRefresh(r.Context(), "manual")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": id})
		return
	}
	snap, err := h.lookup.Refresh(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("catalog request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		httpx.Problem(w, http.StatusBadGateway, "Catalog Unavailable", remoteErr.Message)
		return
	}
	httpx.RespondError(w, err, httpx.Mapping{Err: ErrCategoryNotFound, Status: http.StatusNotFound, Title: "Category Not Found"})
}
