package entity

// RecentlyViewedLimit caps the recently-viewed list.
const RecentlyViewedLimit = 12

// Wishlist is the set of product slugs a shopper saved, newest first.
type Wishlist struct {
	Slugs []string `json:"slugs"`
}

// Contains reports whether slug is on the wishlist.
func (w *Wishlist) Contains(slug string) bool {
	for _, s := range w.Slugs {
		if s == slug {
			return true
		}
	}
	return false
}

// Add puts slug at the front of the wishlist. Adding a saved slug is a no-op.
func (w *Wishlist) Add(slug string) {
	if w.Contains(slug) {
		return
	}
	w.Slugs = append([]string{slug}, w.Slugs...)
}

// Remove filters slug out of the wishlist.
func (w *Wishlist) Remove(slug string) {
	kept := w.Slugs[:0]
	for _, s := range w.Slugs {
		if s != slug {
			kept = append(kept, s)
		}
	}
	w.Slugs = kept
}

// RecentlyViewed is a bounded, most-recent-first list of product slugs.
type RecentlyViewed struct {
	Slugs []string `json:"slugs"`
}

// Record moves slug to the front, dropping older duplicates and anything
// beyond RecentlyViewedLimit.
func (r *RecentlyViewed) Record(slug string) {
	out := make([]string, 0, RecentlyViewedLimit)
	out = append(out, slug)
	for _, s := range r.Slugs {
		if s == slug {
			continue
		}
		if len(out) == RecentlyViewedLimit {
			break
		}
		out = append(out, s)
	}
	r.Slugs = out
}
