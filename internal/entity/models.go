package entity

import (
	"time"
)

// Option group names understood by the storefront. Products may declare any
// subset of them; the diamond builder axes (origin..certificate) are priced
// the same way as metal or stone.
const (
	GroupMetal       = "metal"
	GroupStone       = "stone"
	GroupCut         = "cut"
	GroupRingSize    = "ringSize"
	GroupOrigin      = "origin"
	GroupCarat       = "carat"
	GroupColour      = "colour"
	GroupClarity     = "clarity"
	GroupCertificate = "certificate"
)

// DefaultVariantKey is the inventory key of a product without distinguishing options.
const DefaultVariantKey = "default"

// OptionValue is one selectable value of an option group.
type OptionValue struct {
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta"` // minor units, may be negative
}

// OptionGroup is a named axis of product configuration.
type OptionGroup struct {
	Name     string        `json:"name"`
	Required bool          `json:"required"`
	Values   []OptionValue `json:"values"`
}

// Find returns the value named name, if the group offers it.
func (g OptionGroup) Find(name string) (OptionValue, bool) {
	for _, v := range g.Values {
		if v.Name == name {
			return v, true
		}
	}
	return OptionValue{}, false
}

// Product is an immutable catalog entry.
type Product struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Description  string        `json:"description"`
	BasePrice    int64         `json:"base_price"` // minor units
	OptionGroups []OptionGroup `json:"option_groups"`
	RingSizes    []string      `json:"ring_sizes,omitempty"`
	InStock      *bool         `json:"in_stock,omitempty"` // nil means not declared
	ImageURL     string        `json:"image_url"`
	Category     string        `json:"category"`
}

// Group returns the option group named name.
func (p Product) Group(name string) (OptionGroup, bool) {
	for _, g := range p.OptionGroups {
		if g.Name == name {
			return g, true
		}
	}
	return OptionGroup{}, false
}

// RequiresRingSize reports whether a ring size must be chosen before purchase.
func (p Product) RequiresRingSize() bool {
	return len(p.RingSizes) > 0
}

// HasRingSize reports whether size is one of the product's allowed ring sizes.
func (p Product) HasRingSize(size string) bool {
	for _, s := range p.RingSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ExplicitlyOutOfStock is true only when the catalog marked the product out of stock.
func (p Product) ExplicitlyOutOfStock() bool {
	return p.InStock != nil && !*p.InStock
}

// Engraving is the free-text engraving a shopper may request.
type Engraving struct {
	Text string `json:"text,omitempty"`
	On   bool   `json:"on"`
}

// Selection maps option-group names to chosen value names. It is partial.
type Selection struct {
	Options   map[string]string `json:"options,omitempty"`
	Engraving Engraving         `json:"engraving"`
}

// Get returns the chosen value for group, or "".
func (s Selection) Get(group string) string {
	if s.Options == nil {
		return ""
	}
	return s.Options[group]
}

// With returns a copy of s with group set to value. An empty value clears the group.
func (s Selection) With(group, value string) Selection {
	out := s.Clone()
	if value == "" {
		delete(out.Options, group)
		return out
	}
	out.Options[group] = value
	return out
}

// Clone returns a deep copy of the selection.
func (s Selection) Clone() Selection {
	out := Selection{Options: make(map[string]string, len(s.Options)), Engraving: s.Engraving}
	for k, v := range s.Options {
		out.Options[k] = v
	}
	return out
}

// LineItem is a resolved, priced product configuration inside a cart.
type LineItem struct {
	ID           string    `json:"id"`
	ProductSlug  string    `json:"product_slug"`
	ProductTitle string    `json:"product_title"`
	VariantLabel string    `json:"variant_label"`
	VariantKey   string    `json:"variant_key"`
	UnitPrice    int64     `json:"unit_price"`
	Quantity     int       `json:"quantity"`
	Selection    Selection `json:"selection"`
}

// Subtotal is unit price times quantity.
func (l LineItem) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// InventoryLevel is the recorded stock of one product variant.
type InventoryLevel struct {
	ProductSlug string `json:"product_slug"`
	VariantKey  string `json:"variant_key"`
	Remaining   int    `json:"remaining"`
}

// OrderItem is a line item within an order.
type OrderItem struct {
	LineID      string `json:"line_id"`
	ProductSlug string `json:"product_slug"`
	VariantKey  string `json:"variant_key"`
	Label       string `json:"label"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Engraving   string `json:"engraving,omitempty"`
}

// Order statuses.
const (
	OrderStatusPending   = "pending_payment"
	OrderStatusConfirmed = "confirmed"
)

// Order represents a customer order as shown on the admin dashboard.
type Order struct {
	ID               string      `json:"id"`
	SessionID        string      `json:"session_id"`
	Items            []OrderItem `json:"items"`
	TotalPrice       int64       `json:"total_price"`
	Currency         string      `json:"currency"`
	Status           string      `json:"status"`
	PaymentSessionID string      `json:"payment_session_id"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Inquiry statuses.
const (
	InquiryStatusNew       = "new"
	InquiryStatusContacted = "contacted"
	InquiryStatusQuoted    = "quoted"
	InquiryStatusClosed    = "closed"
)

// ValidInquiryStatus reports whether s is a known inquiry status.
func ValidInquiryStatus(s string) bool {
	switch s {
	case InquiryStatusNew, InquiryStatusContacted, InquiryStatusQuoted, InquiryStatusClosed:
		return true
	}
	return false
}

// Inquiry is a bespoke-order lead.
type Inquiry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"` // E.164
	Budget      int64     `json:"budget,omitempty"`
	PieceType   string    `json:"piece_type,omitempty"`
	Message     string    `json:"message"`
	Attachments []string  `json:"attachments,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Events ---

// OrderPlaced is emitted when checkout hands an order to the payment provider.
type OrderPlaced struct {
	OrderID          string      `json:"order_id"`
	SessionID        string      `json:"session_id"`
	Items            []OrderItem `json:"items"`
	TotalPrice       int64       `json:"total_price"`
	Currency         string      `json:"currency"`
	PaymentSessionID string      `json:"payment_session_id"`
	PlacedAt         time.Time   `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderConfirmed is emitted when an order is confirmed (e.g., payment verified).
type OrderConfirmed struct {
	OrderID     string      `json:"order_id"`
	Items       []OrderItem `json:"items"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
}

func (e OrderConfirmed) EventType() string { return "OrderConfirmed" }

// StockLevelSet records an absolute stock count for a variant (stock take).
type StockLevelSet struct {
	ProductSlug string `json:"product_slug"`
	VariantKey  string `json:"variant_key"`
	Level       int    `json:"level"`
}

func (e StockLevelSet) EventType() string { return "StockLevelSet" }

// StockReceived records a restock delivery.
type StockReceived struct {
	ProductSlug string `json:"product_slug"`
	VariantKey  string `json:"variant_key"`
	Quantity    int    `json:"quantity"`
}

func (e StockReceived) EventType() string { return "StockReceived" }

// StockCommitted is emitted when a confirmed order takes units out of stock.
type StockCommitted struct {
	OrderID     string `json:"order_id"`
	ProductSlug string `json:"product_slug"`
	VariantKey  string `json:"variant_key"`
	Quantity    int    `json:"quantity"`
}

func (e StockCommitted) EventType() string { return "StockCommitted" }

// InquiryReceived is published after a bespoke inquiry is stored.
type InquiryReceived struct {
	InquiryID  string    `json:"inquiry_id"`
	Email      string    `json:"email"`
	ReceivedAt time.Time `json:"received_at"`
}

func (e InquiryReceived) EventType() string { return "InquiryReceived" }
