package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/egannguyen/jewellery-storefront/internal/storage"
)

// ShopperService keeps the wishlist and recently-viewed list of a session.
type ShopperService struct {
	catalog repository.ProductRepository
	store   storage.Store
	locker  storage.Locker
	ttl     time.Duration
}

func NewShopperService(catalog repository.ProductRepository, store storage.Store, locker storage.Locker, ttl time.Duration) *ShopperService {
	return &ShopperService{catalog: catalog, store: store, locker: locker, ttl: ttl}
}

func wishlistKey(sessionID string) string { return "wishlist:" + sessionID }
func viewedKey(sessionID string) string   { return "viewed:" + sessionID }

// Wishlist returns the saved products, newest first. Products that left the
// catalog are skipped.
func (s *ShopperService) Wishlist(ctx context.Context, sessionID string) ([]entity.Product, error) {
	var w entity.Wishlist
	if _, err := storage.GetJSON(ctx, s.store, wishlistKey(sessionID), &w); err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return s.products(ctx, w.Slugs)
}

// AddToWishlist saves a product. Saving it twice is a no-op.
func (s *ShopperService) AddToWishlist(ctx context.Context, sessionID, slug string) error {
	p, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to look up product %s: %w", slug, err)
	}
	if p == nil {
		return fmt.Errorf("%w: %s", entity.ErrProductNotFound, slug)
	}
	return s.updateWishlist(ctx, sessionID, func(w *entity.Wishlist) { w.Add(slug) })
}

// RemoveFromWishlist filters slug out of the wishlist.
func (s *ShopperService) RemoveFromWishlist(ctx context.Context, sessionID, slug string) error {
	return s.updateWishlist(ctx, sessionID, func(w *entity.Wishlist) { w.Remove(slug) })
}

// RecordView puts slug at the front of the recently-viewed list.
func (s *ShopperService) RecordView(ctx context.Context, sessionID, slug string) error {
	key := viewedKey(sessionID)
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to lock recently viewed: %w", err)
	}
	defer release()

	var rv entity.RecentlyViewed
	if _, err := storage.GetJSON(ctx, s.store, key, &rv); err != nil {
		return fmt.Errorf("failed to load recently viewed: %w", err)
	}
	rv.Record(slug)
	return storage.SetJSON(ctx, s.store, key, rv, s.ttl)
}

// RecentlyViewed returns up to entity.RecentlyViewedLimit products, most
// recent first.
func (s *ShopperService) RecentlyViewed(ctx context.Context, sessionID string) ([]entity.Product, error) {
	var rv entity.RecentlyViewed
	if _, err := storage.GetJSON(ctx, s.store, viewedKey(sessionID), &rv); err != nil {
		return nil, fmt.Errorf("failed to load recently viewed: %w", err)
	}
	return s.products(ctx, rv.Slugs)
}

func (s *ShopperService) updateWishlist(ctx context.Context, sessionID string, fn func(*entity.Wishlist)) error {
	key := wishlistKey(sessionID)
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to lock wishlist: %w", err)
	}
	defer release()

	var w entity.Wishlist
	if _, err := storage.GetJSON(ctx, s.store, key, &w); err != nil {
		return fmt.Errorf("failed to load wishlist: %w", err)
	}
	fn(&w)
	if err := storage.SetJSON(ctx, s.store, key, w, s.ttl); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

func (s *ShopperService) products(ctx context.Context, slugs []string) ([]entity.Product, error) {
	out := make([]entity.Product, 0, len(slugs))
	for _, slug := range slugs {
		p, err := s.catalog.FindBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product %s: %w", slug, err)
		}
		if p == nil {
			slog.Debug("Skipping product no longer in catalog", "product", slug)
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}
