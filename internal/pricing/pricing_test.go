package pricing

import (
	"testing"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.OrderLine
		want  string
	}{
		{
			name: "No lines",
			want: "0",
		},
		{
			name: "Single line",
			lines: []domain.OrderLine{
				{UnitPrice: decimal.RequireFromString("2.50"), Quantity: 4},
			},
			want: "10",
		},
		{
			name: "Mixed sources",
			lines: []domain.OrderLine{
				{Source: domain.SourceInventory, UnitPrice: decimal.RequireFromString("0.10"), Quantity: 3},
				{Source: domain.SourceStock, UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2},
			},
			want: "40.28",
		},
		{
			name: "Free item",
			lines: []domain.OrderLine{
				{UnitPrice: decimal.Zero, Quantity: 10},
				{UnitPrice: decimal.RequireFromString("1.01"), Quantity: 1},
			},
			want: "1.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Total(tt.lines).String())
		})
	}
}

func TestLineTotal(t *testing.T) {
	line := domain.OrderLine{UnitPrice: decimal.RequireFromString("0.333"), Quantity: 3}
	assert.True(t, LineTotal(line).Equal(decimal.RequireFromString("0.999")))
}
