package http

import (
	"net/http"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/money"
	"github.com/egannguyen/jewellery-storefront/internal/validation"
)

type wishlistRequest struct {
	ProductSlug string `json:"product_slug" validate:"required"`
}

func (h *Handler) summaries(products []entity.Product) []productSummary {
	out := make([]productSummary, 0, len(products))
	for _, p := range products {
		out = append(out, productSummary{Product: p, Price: money.New(p.BasePrice, h.opts.Currency)})
	}
	return out
}

func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Shopper.Wishlist(r.Context(), h.sessionID(w, r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.summaries(products))
}

func (h *Handler) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	sid := h.sessionID(w, r)
	if err := h.svc.Shopper.AddToWishlist(r.Context(), sid, req.ProductSlug); err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.svc.Shopper.Wishlist(r.Context(), sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.summaries(products))
}

func (h *Handler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Shopper.RemoveFromWishlist(r.Context(), h.sessionID(w, r), r.PathValue("slug")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Shopper.RecentlyViewed(r.Context(), h.sessionID(w, r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.summaries(products))
}
