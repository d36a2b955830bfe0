package entity

// CartAggregate is one shopper's bag: an ordered list of resolved line items.
// Identical configurations are never merged; every add appends a new line.
type CartAggregate struct {
	AggregateBase
	Lines []LineItem `json:"lines"`
}

// NewCartAggregate creates an empty cart for a shopper session.
func NewCartAggregate(sessionID string) *CartAggregate {
	return &CartAggregate{
		AggregateBase: AggregateBase{ID: sessionID, Version: 0},
		Lines:         []LineItem{},
	}
}

// AddItem appends item unconditionally.
func (a *CartAggregate) AddItem(item LineItem) {
	a.Lines = append(a.Lines, item)
	a.Version++
}

// RemoveItem drops the line with the given id. Unknown ids are a no-op and
// report false.
func (a *CartAggregate) RemoveItem(lineID string) bool {
	for i, l := range a.Lines {
		if l.ID == lineID {
			a.Lines = append(a.Lines[:i:i], a.Lines[i+1:]...)
			a.Version++
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (a *CartAggregate) Clear() {
	if len(a.Lines) == 0 {
		return
	}
	a.Lines = []LineItem{}
	a.Version++
}

// Total sums unit price times quantity over every line. It is computed on
// each call and never cached.
func (a *CartAggregate) Total() int64 {
	var total int64
	for _, l := range a.Lines {
		total += l.Subtotal()
	}
	return total
}

// ItemCount is the number of units across all lines.
func (a *CartAggregate) ItemCount() int {
	n := 0
	for _, l := range a.Lines {
		n += l.Quantity
	}
	return n
}

// QuantityFor returns how many units of a product variant are already in the cart.
func (a *CartAggregate) QuantityFor(productSlug, variantKey string) int {
	n := 0
	for _, l := range a.Lines {
		if l.ProductSlug == productSlug && l.VariantKey == variantKey {
			n += l.Quantity
		}
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (a *CartAggregate) IsEmpty() bool {
	return len(a.Lines) == 0
}
