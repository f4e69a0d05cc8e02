// Package pricing computes order totals from priced lines.
package pricing

import (
	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
)

func LineTotal(line domain.OrderLine) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Total is the sum of unit price times quantity over all lines.
func Total(lines []domain.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line))
	}
	return total
}
