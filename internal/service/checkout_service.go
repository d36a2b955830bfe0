package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/payment"
	"github.com/egannguyen/jewellery-storefront/internal/pricing"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

// CheckoutService turns a cart into a pending order and a hosted payment page.
type CheckoutService struct {
	carts    *CartService
	catalog  repository.ProductRepository
	resolver *pricing.Resolver
	gate     *availability.Gate
	gateway  payment.Gateway
	orders   *OrderService
	currency string
	now      func() time.Time
}

func NewCheckoutService(
	carts *CartService,
	catalog repository.ProductRepository,
	resolver *pricing.Resolver,
	gate *availability.Gate,
	gateway payment.Gateway,
	orders *OrderService,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		catalog:  catalog,
		resolver: resolver,
		gate:     gate,
		gateway:  gateway,
		orders:   orders,
		currency: currency,
		now:      time.Now,
	}
}

// CheckoutResult is what the shopper needs to continue to payment.
type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

// Checkout prices the session's cart from the current catalog, re-checks
// stock per variant, opens a payment session and records the order as
// pending payment. The cart is left as it is.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID, successURL, cancelURL string) (*CheckoutResult, error) {
	slog.Info("Service: Checkout", "session_id", sessionID)

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, entity.ErrEmptyCart
	}

	orderID := uuid.NewString()
	items := make([]entity.OrderItem, 0, len(cart.Lines))
	lines := make([]payment.LineItem, 0, len(cart.Lines))
	wanted := make(map[[2]string]int)
	var total int64

	for _, l := range cart.Lines {
		p, err := s.catalog.FindBySlug(ctx, l.ProductSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product %s: %w", l.ProductSlug, err)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: %s is no longer sold", entity.ErrProductNotFound, l.ProductSlug)
		}

		// Re-resolved against the current catalog.
		eff := s.resolver.EffectiveSelection(*p, l.Selection)
		key := pricing.VariantKey(eff)
		unit := s.resolver.ResolvePrice(*p, eff)
		if unit != l.UnitPrice {
			slog.Info("Cart line repriced", "order_id", orderID, "line_id", l.ID, "was", l.UnitPrice, "now", unit)
		}
		total += unit * int64(l.Quantity)
		wanted[[2]string{l.ProductSlug, key}] += l.Quantity

		label := p.Title
		if vl := pricing.VariantLabel(*p, eff); vl != "" {
			label = fmt.Sprintf("%s (%s)", p.Title, vl)
		}
		var engraving string
		if eff.Engraving.On {
			engraving = eff.Engraving.Text
		}
		items = append(items, entity.OrderItem{
			LineID:      l.ID,
			ProductSlug: l.ProductSlug,
			VariantKey:  key,
			Label:       label,
			UnitPrice:   unit,
			Quantity:    l.Quantity,
			Engraving:   engraving,
		})
		lines = append(lines, payment.LineItem{Label: label, UnitAmount: unit, Quantity: l.Quantity})
	}

	if err := s.checkStock(ctx, wanted); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		Reference:  orderID,
		Currency:   s.currency,
		Items:      lines,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment session: %w", err)
	}

	placed := entity.OrderPlaced{
		OrderID:          orderID,
		SessionID:        sessionID,
		Items:            items,
		TotalPrice:       total,
		Currency:         s.currency,
		PaymentSessionID: session.ID,
		PlacedAt:         s.now().UTC(),
	}
	if err := s.orders.PlaceOrder(ctx, placed); err != nil {
		return nil, err
	}

	return &CheckoutResult{OrderID: orderID, RedirectURL: session.URL, Total: total, Currency: s.currency}, nil
}

// checkStock checks each variant once for the summed quantity of every line
// that shares it.
func (s *CheckoutService) checkStock(ctx context.Context, wanted map[[2]string]int) error {
	keys := make([][2]string, 0, len(wanted))
	for k := range wanted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, k := range keys {
		avail, err := s.gate.CheckAvailability(ctx, k[0], k[1], wanted[k])
		if err != nil {
			return err
		}
		if !avail.Available {
			return outOfStock(k[0], k[1], avail.Remaining, wanted[k])
		}
	}
	return nil
}
