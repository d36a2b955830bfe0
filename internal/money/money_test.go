package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{0, "gbp", "£0.00"},
		{5, "gbp", "£0.05"},
		{129900, "gbp", "£1,299.00"},
		{123456789, "GBP", "£1,234,567.89"},
		{-2550, "gbp", "-£25.50"},
		{100000, "eur", "€1,000.00"},
		{999, "chf", "CHF 9.99"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.minor, tt.currency))
		})
	}
}

func TestNew(t *testing.T) {
	a := New(45000, "GBP")
	assert.Equal(t, int64(45000), a.Minor)
	assert.Equal(t, "gbp", a.Currency)
	assert.Equal(t, "£450.00", a.Display)
}
