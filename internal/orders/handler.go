package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kanak-erp/kanak/internal/platform/httpx"
	"github.com/kanak-erp/kanak/internal/pricing"
)

// Handler exposes the item builder of one order kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

var errorMappings = []httpx.Mapping{
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Draft Not Found"},
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrLineIndex, Status: http.StatusBadRequest, Title: "Line Not Found"},
	{Err: ErrNotSupported, Status: http.StatusBadRequest, Title: "Not Supported"},
	{Err: ErrEmptyOrder, Status: http.StatusUnprocessableEntity, Title: "Order Has No Items"},
	{Err: ErrLineBlocked, Status: http.StatusUnprocessableEntity, Title: "Line Blocked"},
	{Err: ErrSubmitInFlight, Status: http.StatusConflict, Title: "Submission In Progress"},
	{Err: ErrInvalidState, Status: http.StatusConflict, Title: "Invalid Draft State"},
	{Err: ErrStaleDraft, Status: http.StatusConflict, Title: "Draft Changed"},
}

// MountRoutes registers the draft routes under /{slug}/drafts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/"+h.service.Profile().Slug+"/drafts", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDiscard)
		r.Patch("/{id}/header", h.handleHeader)
		r.Post("/{id}/category", h.handleCategory)
		r.Patch("/{id}/line", h.handleEditLine)
		r.Delete("/{id}/line", h.handleResetLine)
		r.Post("/{id}/line/commit", h.handleCommit)
		r.Delete("/{id}/lines/{index}", h.handleRemoveLine)
		r.Patch("/{id}/totals", h.handleTotals)
		r.Post("/{id}/submit", h.handleSubmit)
	})
}

type categoryRequest struct {
	CategoryID string `json:"category_id"`
}

type lineRequest struct {
	Edits []pricing.Edit `json:"edits"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var header Header
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &header); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	view, err := h.service.Create(r.Context(), header)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, view, err)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHeader(w http.ResponseWriter, r *http.Request) {
	var header Header
	if err := httpx.DecodeJSON(r, &header); err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.service.EditHeader(r.Context(), chi.URLParam(r, "id"), header)
	h.respond(w, r, view, err)
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CategoryID == "" {
		h.fail(w, r, fmt.Errorf("%w: category_id is required", ErrValidation))
		return
	}
	view, err := h.service.SelectCategory(r.Context(), chi.URLParam(r, "id"), req.CategoryID)
	h.respond(w, r, view, err)
}

func (h *Handler) handleEditLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.service.EditLine(r.Context(), chi.URLParam(r, "id"), req.Edits)
	h.respond(w, r, view, err)
}

func (h *Handler) handleResetLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ResetLine(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, view, err)
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CommitLine(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, view, err)
}

func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", ErrLineIndex, err))
		return
	}
	view, err := h.service.RemoveLine(r.Context(), chi.URLParam(r, "id"), index)
	h.respond(w, r, view, err)
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	var edit TotalsEdit
	if err := httpx.DecodeJSON(r, &edit); err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.service.EditTotals(r.Context(), chi.URLParam(r, "id"), edit)
	h.respond(w, r, view, err)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, outcome)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, view View, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("draft request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	var collab *CollaboratorError
	if errors.As(err, &collab) {
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Upstream Rejected Request",
			Status: http.StatusBadGateway,
			Detail: collab.Reason,
		})
		return
	}
	httpx.RespondError(w, err, errorMappings...)
}
