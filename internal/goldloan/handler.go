package goldloan

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kanak-erp/kanak/internal/platform/httpx"
)

// Handler exposes gold loan endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

const idempotencyHeader = "Idempotency-Key"

var errorMappings = []httpx.Mapping{
	{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Loan Not Found"},
	{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrPrincipalExceedsLimit, Status: http.StatusUnprocessableEntity, Title: "Principal Exceeds Limit"},
	{Err: ErrInvalidState, Status: http.StatusConflict, Title: "Invalid Loan State"},
	{Err: ErrDuplicateRequest, Status: http.StatusConflict, Title: "Duplicate Request"},
}

// MountRoutes registers gold loan routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/gold-loans", func(r chi.Router) {
		r.Post("/valuation", h.handleValue)
		r.Get("/", h.handleList)
		r.Post("/", h.handleOriginate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/payments", h.handlePayment)
	})
}

func (h *Handler) handleValue(w http.ResponseWriter, r *http.Request) {
	var input ValuationInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.service.Value(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleOriginate(w http.ResponseWriter, r *http.Request) {
	var input OriginateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.IdempotencyKey = r.Header.Get(idempotencyHeader)
	loan, err := h.service.Originate(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}
	loans, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if loans == nil {
		loans = []Loan{}
	}
	httpx.JSON(w, http.StatusOK, loans)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	stmt, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stmt)
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.IdempotencyKey = r.Header.Get(idempotencyHeader)
	stmt, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stmt)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("gold loan request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err, errorMappings...)
}
