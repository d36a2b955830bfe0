// Package money renders integer minor-unit amounts for display. Nothing here
// feeds back into pricing.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"gbp": "£",
	"eur": "€",
	"usd": "$",
}

// Amount is a price as it appears in API responses.
type Amount struct {
	Minor    int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// New builds an Amount with its display string.
func New(minor int64, currency string) Amount {
	return Amount{Minor: minor, Currency: strings.ToLower(currency), Display: Format(minor, currency)}
}

// Format renders minor units as "£1,234.50". Unknown currencies are
// prefixed with their upper-cased code.
func Format(minor int64, currency string) string {
	d := decimal.New(minor, -2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		b.WriteString(sym)
	} else {
		b.WriteString(strings.ToUpper(currency) + " ")
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
