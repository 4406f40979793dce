package purchase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmadesk/pharmadesk/internal/platform/httpx"
	"github.com/pharmadesk/pharmadesk/internal/shared"
)

const maxInvoiceUploadBytes = 10 << 20

// InvoiceStore persists uploaded invoice images and returns a serving URL.
type InvoiceStore interface {
	Save(ctx context.Context, shopID int64, filename string, r io.Reader) (string, error)
}

// Handler manages purchase endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	uploads InvoiceStore
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, uploads InvoiceStore) *Handler {
	return &Handler{logger: logger, service: service, uploads: uploads}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchases", h.handleList)
	r.Post("/purchases", h.handleCreate)
	r.Get("/purchases/{id}", h.handleGet)
	r.Put("/purchases/{id}/putaway", h.handlePutAway)
	r.Put("/purchases/{id}/cancel", h.handleCancel)
	r.Post("/purchases/bulk-putaway-upload", h.handleBulkPutaway)
}

// handleCreate accepts either a JSON body or a multipart form carrying a
// "payload" JSON field plus an optional "invoiceImage" file.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var input CreatePurchaseInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxInvoiceUploadBytes); err != nil {
			httpx.RespondError(w, fmt.Errorf("purchase: parse multipart: %w", shared.ErrValidation))
			return
		}
		payload := r.FormValue("payload")
		if payload == "" {
			httpx.RespondError(w, fmt.Errorf("purchase: missing payload field: %w", shared.ErrValidation))
			return
		}
		if err := json.Unmarshal([]byte(payload), &input); err != nil {
			httpx.RespondError(w, fmt.Errorf("purchase: malformed payload: %w", shared.ErrValidation))
			return
		}
		file, header, err := r.FormFile("invoiceImage")
		if err == nil {
			defer file.Close()
			if h.uploads == nil {
				httpx.RespondError(w, fmt.Errorf("purchase: uploads disabled: %w", shared.ErrValidation))
				return
			}
			url, err := h.uploads.Save(r.Context(), shop.ID, header.Filename, file)
			if err != nil {
				h.logger.Error("save invoice image", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			input.InvoiceImageURL = url
		}
	} else {
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	p, err := h.service.Create(r.Context(), shop.ID, input)
	if err != nil {
		h.logger.Error("create purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
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
	p, err := h.service.Get(r.Context(), shop.ID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
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
	supplierID, _ := strconv.ParseInt(q.Get("supplierId"), 10, 64)
	filters := ListFilters{
		Status:     Status(q.Get("status")),
		Priority:   Priority(q.Get("priority")),
		SupplierID: supplierID,
		Search:     q.Get("search"),
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
	purchases, total, stats, err := h.service.List(r.Context(), shop.ID, limit, offset, filters)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"purchases": purchases,
		"total":     total,
		"stats":     stats,
	})
}

func (h *Handler) handlePutAway(w http.ResponseWriter, r *http.Request) {
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
		VerifiedItems []VerifiedItem `json:"verifiedItems"`
	}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	p, err := h.service.ProcessPutAway(r.Context(), shop.ID, id, body.VerifiedItems)
	if err != nil {
		h.logger.Error("process put-away", slog.Int64("purchase_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
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
	p, err := h.service.Cancel(r.Context(), shop.ID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleBulkPutaway(w http.ResponseWriter, r *http.Request) {
	shop, ok := shared.ShopFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var body struct {
		Rows []BulkPutawayRow `json:"rows"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.BulkPutawayUpload(r.Context(), shop.ID, body.Rows)
	if err != nil {
		h.logger.Error("bulk put-away upload", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
