package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmadesk/pharmadesk/internal/platform/httpx"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

// Handler manages inventory adjustment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory/logs", h.handleList)
	r.Post("/inventory/adjustments", h.handleAdjust)
	r.Put("/inventory/adjustments/{id}/putaway", h.handleCompletePutaway)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var input AdjustInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	log, err := h.service.Adjust(r.Context(), shop.ID, input)
	if err != nil {
		h.logger.Error("inventory adjust", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, log)
}

func (h *Handler) handleCompletePutaway(w http.ResponseWriter, r *http.Request) {
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
	log, err := h.service.CompletePutaway(r.Context(), shop.ID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, log)
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
	productID, _ := strconv.ParseInt(q.Get("productId"), 10, 64)
	filters := ListFilters{
		ProductID: productID,
		Type:      LogType(q.Get("type")),
		Status:    LogStatus(q.Get("status")),
	}
	logs, total, err := h.service.List(r.Context(), shop.ID, limit, offset, filters)
	if err != nil {
		h.logger.Error("list inventory logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"total": total,
	})
}
