package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/pricing"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/egannguyen/jewellery-storefront/internal/storage"
)

// CartService owns the server-held bag of each shopper session. Every
// mutation is a read-modify-write under the session lock.
type CartService struct {
	catalog  repository.ProductRepository
	resolver *pricing.Resolver
	gate     *availability.Gate
	store    storage.Store
	locker   storage.Locker
	ttl      time.Duration
}

func NewCartService(
	catalog repository.ProductRepository,
	resolver *pricing.Resolver,
	gate *availability.Gate,
	store storage.Store,
	locker storage.Locker,
	ttl time.Duration,
) *CartService {
	return &CartService{
		catalog:  catalog,
		resolver: resolver,
		gate:     gate,
		store:    store,
		locker:   locker,
		ttl:      ttl,
	}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Quote is the live configuration of a product page.
type Quote struct {
	ProductSlug  string                    `json:"product_slug"`
	Selection    entity.Selection          `json:"selection"`
	UnitPrice    int64                     `json:"unit_price"`
	VariantLabel string                    `json:"variant_label"`
	VariantKey   string                    `json:"variant_key"`
	Availability availability.Availability `json:"availability"`
}

// GetCart returns the shopper's cart; a new session gets an empty one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*entity.CartAggregate, error) {
	return s.load(ctx, sessionID)
}

// AddToCart resolves sel against the current product, checks that the
// variant can cover what is already in the bag plus quantity, and appends a
// new line. Identical configurations are kept as separate lines.
func (s *CartService) AddToCart(ctx context.Context, sessionID, slug string, sel entity.Selection, quantity int) (entity.LineItem, *entity.CartAggregate, error) {
	slog.Info("Service: Adding item to cart", "session_id", sessionID, "product", slug, "quantity", quantity)

	p, err := s.product(ctx, slug)
	if err != nil {
		return entity.LineItem{}, nil, err
	}
	line, err := s.resolver.BuildLineItem(*p, sel, quantity)
	if err != nil {
		return entity.LineItem{}, nil, err
	}

	cart, err := s.update(ctx, sessionID, func(cart *entity.CartAggregate) error {
		inBag := cart.QuantityFor(line.ProductSlug, line.VariantKey)
		avail, err := s.gate.CheckAvailability(ctx, line.ProductSlug, line.VariantKey, inBag+line.Quantity)
		if err != nil {
			return err
		}
		if !avail.Available {
			return outOfStock(line.ProductSlug, line.VariantKey, avail.Remaining, inBag+line.Quantity)
		}
		cart.AddItem(line)
		return nil
	})
	if err != nil {
		return entity.LineItem{}, nil, err
	}
	return line, cart, nil
}

// RemoveFromCart drops a line. Unknown ids leave the cart unchanged.
func (s *CartService) RemoveFromCart(ctx context.Context, sessionID, lineID string) (*entity.CartAggregate, error) {
	return s.update(ctx, sessionID, func(cart *entity.CartAggregate) error {
		if !cart.RemoveItem(lineID) {
			slog.Debug("Remove of unknown cart line ignored", "session_id", sessionID, "line_id", lineID)
		}
		return nil
	})
}

// ClearCart empties the shopper's cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	release, err := s.locker.Lock(ctx, cartKey(sessionID))
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	defer release()
	return s.store.Clear(ctx, cartKey(sessionID))
}

// Quote prices a product page configuration without touching the cart. A
// missing ring size is not an error here.
func (s *CartService) Quote(ctx context.Context, slug string, sel entity.Selection) (Quote, error) {
	p, err := s.product(ctx, slug)
	if err != nil {
		return Quote{}, err
	}
	eff := s.resolver.EffectiveSelection(*p, sel)
	key := pricing.VariantKey(eff)
	avail, err := s.gate.CheckAvailability(ctx, p.Slug, key, 1)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		ProductSlug:  p.Slug,
		Selection:    eff,
		UnitPrice:    s.resolver.ResolvePrice(*p, eff),
		VariantLabel: pricing.VariantLabel(*p, eff),
		VariantKey:   key,
		Availability: avail,
	}, nil
}

func (s *CartService) product(ctx context.Context, slug string) (*entity.Product, error) {
	p, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %s: %w", slug, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrProductNotFound, slug)
	}
	return p, nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*entity.CartAggregate, error) {
	cart := entity.NewCartAggregate(sessionID)
	if _, err := storage.GetJSON(ctx, s.store, cartKey(sessionID), cart); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = []entity.LineItem{}
	}
	return cart, nil
}

// update runs fn on the current cart under the session lock and saves the
// result when fn succeeds and changed something.
func (s *CartService) update(ctx context.Context, sessionID string, fn func(*entity.CartAggregate) error) (*entity.CartAggregate, error) {
	release, err := s.locker.Lock(ctx, cartKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer release()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before := cart.GetVersion()
	if err := fn(cart); err != nil {
		return nil, err
	}
	if cart.GetVersion() == before {
		return cart, nil
	}
	if err := storage.SetJSON(ctx, s.store, cartKey(sessionID), cart, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func outOfStock(slug, variantKey string, remaining, wanted int) error {
	return fmt.Errorf("%w: %s (%s) has %d left, %d requested", entity.ErrOutOfStock, slug, variantKey, remaining, wanted)
}
