package http

import (
	"net/http"
	"net/url"

	"github.com/egannguyen/jewellery-storefront/internal/buildstate"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/money"
	"github.com/egannguyen/jewellery-storefront/internal/validation"
)

type addToCartRequest struct {
	ProductSlug string            `json:"product_slug" validate:"required"`
	Options     map[string]string `json:"options"`
	Engraving   *entity.Engraving `json:"engraving"`
	// BuildQuery is the product page query string; its keys override Options.
	BuildQuery string `json:"build_query"`
	Quantity   *int   `json:"quantity"`
}

func (req addToCartRequest) selection() (entity.Selection, error) {
	sel := entity.Selection{Options: make(map[string]string, len(req.Options))}
	for k, v := range req.Options {
		if v != "" {
			sel.Options[k] = v
		}
	}
	if req.Engraving != nil {
		sel.Engraving = *req.Engraving
	}
	if req.BuildQuery == "" {
		return sel, nil
	}
	q, err := url.ParseQuery(req.BuildQuery)
	if err != nil {
		return entity.Selection{}, entity.NewValidationError(entity.ErrInvalidRequest, "build_query", "%v", err)
	}
	state := buildstate.Parse(q)
	for group, v := range state.Selection().Options {
		sel.Options[group] = v
	}
	if state.Engraving != "" {
		sel.Engraving.Text = state.Engraving
	}
	if state.EngravingOn != nil {
		sel.Engraving.On = *state.EngravingOn
	}
	return sel, nil
}

type cartLine struct {
	entity.LineItem
	Price    money.Amount `json:"price"`
	Subtotal money.Amount `json:"subtotal"`
}

type cartResponse struct {
	ID        string       `json:"id"`
	Lines     []cartLine   `json:"lines"`
	ItemCount int          `json:"item_count"`
	Total     money.Amount `json:"total"`
}

func (h *Handler) cartResponse(cart *entity.CartAggregate) cartResponse {
	lines := make([]cartLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, cartLine{
			LineItem: l,
			Price:    money.New(l.UnitPrice, h.opts.Currency),
			Subtotal: money.New(l.Subtotal(), h.opts.Currency),
		})
	}
	return cartResponse{
		ID:        cart.GetAggregateID(),
		Lines:     lines,
		ItemCount: cart.ItemCount(),
		Total:     money.New(cart.Total(), h.opts.Currency),
	}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.GetCart(r.Context(), h.sessionID(w, r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(cart))
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	sel, err := req.selection()
	if err != nil {
		writeError(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	line, cart, err := h.svc.Carts.AddToCart(r.Context(), h.sessionID(w, r), req.ProductSlug, sel, qty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"line": cartLine{LineItem: line, Price: money.New(line.UnitPrice, h.opts.Currency), Subtotal: money.New(line.Subtotal(), h.opts.Currency)},
		"cart": h.cartResponse(cart),
	})
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.RemoveFromCart(r.Context(), h.sessionID(w, r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(cart))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Carts.ClearCart(r.Context(), h.sessionID(w, r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	base := h.opts.PublicBaseURL
	res, err := h.svc.Checkout.Checkout(r.Context(), h.sessionID(w, r), base+"/checkout/success", base+"/cart")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":     res.OrderID,
		"redirect_url": res.RedirectURL,
		"total":        money.New(res.Total, res.Currency),
	})
}
