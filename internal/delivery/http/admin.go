package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/validation"
)

func queryLimit(r *http.Request, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 500 {
		return n
	}
	return fallback
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.GetRecentOrders(r.Context(), queryLimit(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.svc.Orders.ExportOrders(r.Context(), w, queryLimit(r, 500)); err != nil {
		writeError(w, r, err)
	}
}

func (h *Handler) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.ConfirmOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleGetInquiries(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.svc.Inquiries.List(r.Context(), r.URL.Query().Get("status"), queryLimit(r, 100))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}

type updateInquiryRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleUpdateInquiry(w http.ResponseWriter, r *http.Request) {
	var req updateInquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Inquiries.UpdateStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjustInventoryRequest carries either a restock quantity or an absolute
// level, never both.
type adjustInventoryRequest struct {
	VariantKey string `json:"variant_key"`
	Quantity   *int   `json:"quantity" validate:"required_without=Level,excluded_with=Level"`
	Level      *int   `json:"level" validate:"required_without=Quantity"`
}

func (h *Handler) handleAdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustInventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		level entity.InventoryLevel
		err   error
	)
	slug := r.PathValue("slug")
	if req.Quantity != nil {
		level, err = h.svc.Inventory.Restock(r.Context(), slug, req.VariantKey, *req.Quantity)
	} else {
		level, err = h.svc.Inventory.SetLevel(r.Context(), slug, req.VariantKey, *req.Level)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}
