package application

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShippingCost(t *testing.T) {
	calc := NewShippingCalculator(
		decimal.RequireFromString("299"),
		decimal.RequireFromString("19.90"),
	)

	tests := []struct {
		name     string
		subtotal string
		want     string
	}{
		{"below threshold", "298.99", "19.90"},
		{"exactly at threshold", "299", "0"},
		{"above threshold", "500.00", "0"},
		{"small order", "10.00", "19.90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Cost(decimal.RequireFromString(tt.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"subtotal %s: got %s, want %s", tt.subtotal, got, tt.want)
		})
	}
}
