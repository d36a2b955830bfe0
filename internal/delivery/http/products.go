package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/egannguyen/jewellery-storefront/internal/buildstate"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/money"
	"github.com/egannguyen/jewellery-storefront/internal/service"
)

type productSummary struct {
	entity.Product
	Price money.Amount `json:"price"`
}

type quoteResponse struct {
	service.Quote
	Price money.Amount `json:"price"`
}

type productDetail struct {
	Product    productSummary   `json:"product"`
	BuildState buildstate.State `json:"build_state"`
	Quote      quoteResponse    `json:"quote"`
	ShareQuery string           `json:"share_query"`
}

// selectionFromQuery reads the shareable build state plus the option groups
// the URL codec does not own.
func selectionFromQuery(q url.Values) (buildstate.State, entity.Selection) {
	state := buildstate.Parse(q)
	sel := state.Selection()
	for _, group := range []string{entity.GroupStone, entity.GroupCut} {
		if v := q.Get(group); v != "" {
			sel.Options[group] = v
		}
	}
	return state, sel
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.GetProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.summaries(products))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("slug")

	p, err := h.svc.Catalog.GetProduct(ctx, slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	state, sel := selectionFromQuery(q)
	quote, err := h.svc.Carts.Quote(ctx, slug, sel)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Shopper.RecordView(ctx, h.sessionID(w, r), slug); err != nil {
		slog.Warn("Failed to record product view", "product", slug, "err", err)
	}

	writeJSON(w, http.StatusOK, productDetail{
		Product:    productSummary{Product: *p, Price: money.New(p.BasePrice, h.opts.Currency)},
		BuildState: state,
		Quote:      quoteResponse{Quote: quote, Price: money.New(quote.UnitPrice, h.opts.Currency)},
		ShareQuery: buildstate.Serialize(buildstate.FromSelection(quote.Selection), q),
	})
}

func (h *Handler) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	_, sel := selectionFromQuery(r.URL.Query())
	quote, err := h.svc.Carts.Quote(r.Context(), r.PathValue("slug"), sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Quote: quote, Price: money.New(quote.UnitPrice, h.opts.Currency)})
}

func (h *Handler) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.Gate.ListInventory(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}
