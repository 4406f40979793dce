package receiving

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmadesk/pharmadesk/internal/platform/httpx"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// Handler manages physical receiving endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers receiving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/physical-receiving", h.handleList)
	r.Post("/physical-receiving", h.handleCreate)
	r.Get("/physical-receiving/{id}", h.handleGet)
	r.Put("/physical-receiving/{id}/validate", h.handleValidate)
	r.Put("/physical-receiving/{id}/grn-status", h.handleGRNStatus)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var input CreateEntryInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), shop.ID, input)
	if err != nil {
		h.logger.Error("create receiving entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	entry, err := h.service.Resolve(r.Context(), shop.ID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filters := ListFilters{
		Status:              ValidationStatus(q.Get("status")),
		GRNStatus:           GRNStatus(q.Get("grnStatus")),
		Supplier:            q.Get("supplier"),
		InvoiceNumber:       q.Get("invoiceNumber"),
		PhysicalReceivingID: q.Get("physicalReceivingId"),
	}
	if raw := q.Get("startDate"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.StartDate = &t
		}
	}
	if raw := q.Get("endDate"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.EndDate = &t
		}
	}
	entries, total, err := h.service.List(r.Context(), shop.ID, limit, offset, filters)
	if err != nil {
		h.logger.Error("list receiving entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var body struct {
		ValidatedBy string `json:"validatedBy"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Validate(r.Context(), shop.ID, id, body.ValidatedBy)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleGRNStatus(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var body struct {
		GRNID           int64  `json:"grnId"`
		InvoiceImageURL string `json:"invoiceImageUrl"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if body.GRNID <= 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	entry, err := h.service.LinkGRN(r.Context(), shop.ID, id, body.GRNID, body.InvoiceImageURL)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}
