package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWishlist_AddRemove(t *testing.T) {
	var w Wishlist
	w.Add("ring-a")
	w.Add("ring-b")
	w.Add("ring-a")

	assert.Equal(t, []string{"ring-b", "ring-a"}, w.Slugs)

	w.Remove("ring-a")
	assert.Equal(t, []string{"ring-b"}, w.Slugs)

	w.Remove("ring-a")
	assert.Equal(t, []string{"ring-b"}, w.Slugs)
	assert.False(t, w.Contains("ring-a"))
}

func TestRecentlyViewed_Record(t *testing.T) {
	var r RecentlyViewed
	r.Record("a")
	r.Record("b")
	r.Record("a")

	assert.Equal(t, []string{"a", "b"}, r.Slugs)
}

func TestRecentlyViewed_Capped(t *testing.T) {
	var r RecentlyViewed
	for i := 0; i < RecentlyViewedLimit+5; i++ {
		r.Record(fmt.Sprintf("p%d", i))
	}

	assert.Len(t, r.Slugs, RecentlyViewedLimit)
	assert.Equal(t, fmt.Sprintf("p%d", RecentlyViewedLimit+4), r.Slugs[0])
}
