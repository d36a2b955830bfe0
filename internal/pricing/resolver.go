// Package pricing turns a product plus a shopper's option selection into a
// priced, labelled line item. All arithmetic is on integer minor units.
package pricing

import (
	"log/slog"
	"strings"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/google/uuid"
)

// LabelSeparator joins the parts of a variant label.
const LabelSeparator = " / "

// labelGroups is the fixed order in which selections appear in a variant label.
var labelGroups = []string{entity.GroupMetal, entity.GroupStone, entity.GroupRingSize}

// Resolver prices selections and builds line items.
type Resolver struct {
	maxPerAdd int
	report    func(Diagnostic)
	newID     func() string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxPerAdd caps the quantity of a single add-to-bag. Zero means unbounded.
func WithMaxPerAdd(n int) Option {
	return func(r *Resolver) { r.maxPerAdd = n }
}

// WithDiagnostics replaces the default slog diagnostic sink.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(r *Resolver) { r.report = fn }
}

// WithIDGenerator replaces uuid generation for line item ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		report: LogDiagnostic,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolvePrice returns the unit price of product configured with sel: the
// base price plus every matched option delta. Required groups without a
// selection price at their first value. Values the product does not offer
// contribute nothing and are reported as UnresolvableOption. The result is
// clamped at zero.
func (r *Resolver) ResolvePrice(p entity.Product, sel entity.Selection) int64 {
	price := p.BasePrice
	for _, g := range p.OptionGroups {
		chosen := sel.Get(g.Name)
		if chosen == "" {
			if g.Required && len(g.Values) > 0 {
				price += g.Values[0].PriceDelta
			}
			continue
		}
		v, ok := g.Find(chosen)
		if !ok {
			r.report(Diagnostic{Kind: UnresolvableOption, ProductSlug: p.Slug, Group: g.Name, Value: chosen})
			continue
		}
		price += v.PriceDelta
	}

	if price < 0 {
		r.report(Diagnostic{Kind: NegativePrice, ProductSlug: p.Slug, Price: price})
		return 0
	}
	return price
}

// EffectiveSelection is the selection a product actually resolves to:
// values the product does not offer are dropped, and every required group
// left empty is filled with its first value. Price, label and variant key
// are all derived from it.
func EffectiveSelection(p entity.Product, sel entity.Selection) entity.Selection {
	return effectiveSelection(p, sel, nil)
}

// EffectiveSelection is the package function of the same name, reporting
// every dropped value as an UnresolvableOption.
func (r *Resolver) EffectiveSelection(p entity.Product, sel entity.Selection) entity.Selection {
	return effectiveSelection(p, sel, r.report)
}

func effectiveSelection(p entity.Product, sel entity.Selection, report func(Diagnostic)) entity.Selection {
	out := sel.Clone()
	for group, chosen := range out.Options {
		if offered(p, group, chosen) {
			continue
		}
		delete(out.Options, group)
		if report != nil && chosen != "" {
			report(Diagnostic{Kind: UnresolvableOption, ProductSlug: p.Slug, Group: group, Value: chosen})
		}
	}
	for _, g := range p.OptionGroups {
		if g.Required && out.Get(g.Name) == "" && len(g.Values) > 0 {
			out.Options[g.Name] = g.Values[0].Name
		}
	}
	return out
}

func offered(p entity.Product, group, value string) bool {
	if g, ok := p.Group(group); ok {
		_, found := g.Find(value)
		return found
	}
	return group == entity.GroupRingSize && p.HasRingSize(value)
}

// BuildLineItem validates sel and quantity against product and returns a
// fresh line item. Failures are *entity.ValidationError values.
func (r *Resolver) BuildLineItem(p entity.Product, sel entity.Selection, quantity int) (entity.LineItem, error) {
	if quantity <= 0 {
		return entity.LineItem{}, entity.NewValidationError(entity.ErrInvalidQuantity, "quantity", "got %d", quantity)
	}
	if r.maxPerAdd > 0 && quantity > r.maxPerAdd {
		return entity.LineItem{}, entity.NewValidationError(entity.ErrQuantityLimit, "quantity", "%d exceeds limit of %d", quantity, r.maxPerAdd)
	}
	if p.RequiresRingSize() {
		size := sel.Get(entity.GroupRingSize)
		if size == "" {
			return entity.LineItem{}, entity.NewValidationError(entity.ErrMissingRequiredOption, entity.GroupRingSize, "%s needs a ring size", p.Slug)
		}
		if !p.HasRingSize(size) {
			return entity.LineItem{}, entity.NewValidationError(entity.ErrMissingRequiredOption, entity.GroupRingSize, "size %q is not offered for %s", size, p.Slug)
		}
	}

	eff := r.EffectiveSelection(p, sel)
	if !eff.Engraving.On {
		eff.Engraving.Text = ""
	}

	return entity.LineItem{
		ID:           r.newID(),
		ProductSlug:  p.Slug,
		ProductTitle: p.Title,
		VariantLabel: VariantLabel(p, eff),
		VariantKey:   VariantKey(eff),
		UnitPrice:    r.ResolvePrice(p, eff),
		Quantity:     quantity,
		Selection:    eff,
	}, nil
}

// VariantLabel joins the display names of the selected metal, stone and ring
// size, in that order, skipping groups with nothing selected. Values the
// product does not offer are left out.
func VariantLabel(p entity.Product, sel entity.Selection) string {
	parts := make([]string, 0, len(labelGroups))
	for _, group := range labelGroups {
		chosen := sel.Get(group)
		if chosen == "" {
			continue
		}
		if group == entity.GroupRingSize {
			if p.HasRingSize(chosen) {
				parts = append(parts, "Size "+chosen)
			}
			continue
		}
		g, ok := p.Group(group)
		if !ok {
			continue
		}
		if v, ok := g.Find(chosen); ok {
			parts = append(parts, v.Name)
		}
	}
	return strings.Join(parts, LabelSeparator)
}

// VariantKey is the canonical inventory key for a selection: slugified metal
// and ring size ("gold-size-7"), either one alone, or "default".
func VariantKey(sel entity.Selection) string {
	var parts []string
	if metal := slugify(sel.Get(entity.GroupMetal)); metal != "" {
		parts = append(parts, metal)
	}
	if size := slugify(sel.Get(entity.GroupRingSize)); size != "" {
		parts = append(parts, "size-"+size)
	}
	if len(parts) == 0 {
		return entity.DefaultVariantKey
	}
	return strings.Join(parts, "-")
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default: // "7.5" -> "7-5"
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// LogDiagnostic is the default diagnostic sink.
func LogDiagnostic(d Diagnostic) {
	slog.Warn("Pricing diagnostic", "kind", d.Kind, "product", d.ProductSlug, "group", d.Group, "value", d.Value, "price", d.Price)
}
