// Package receipt prepares settled-check lines for the customer receipt.
package receipt

import (
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/units"
	"github.com/shopspring/decimal"
)

// UnknownName is printed for lines that arrive without a product name.
const UnknownName = "Unknown"

// MergedLine is every check line for one product and unit, summed.
type MergedLine struct {
	Name     string
	Unit     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Total    decimal.Decimal
}

type lineKey struct {
	name string
	unit string
}

// Merge collapses lines that share product name and unit. Quantities and
// totals are summed; the unit price of the first line seen for a key is kept.
// Keys appear in the order they were first seen.
func Merge(lines []order.CheckLine) []MergedLine {
	var merged []MergedLine
	index := make(map[lineKey]int)

	for _, line := range lines {
		key := lineKey{name: line.ProductName, unit: units.Code(line.UnitType)}
		qty := quantityOf(line)
		total := line.Total.Decimal // zero when missing

		i, ok := index[key]
		if !ok {
			name := line.ProductName
			if name == "" {
				name = UnknownName
			}
			index[key] = len(merged)
			merged = append(merged, MergedLine{
				Name:     name,
				Unit:     key.unit,
				Price:    unitPrice(line, qty),
				Quantity: qty,
				Total:    total,
			})
			continue
		}

		merged[i].Quantity = merged[i].Quantity.Add(qty)
		merged[i].Total = merged[i].Total.Add(total)
	}

	return merged
}

// quantityOf treats a missing or zero quantity as one.
func quantityOf(line order.CheckLine) decimal.Decimal {
	if !line.Quantity.Valid || line.Quantity.Decimal.IsZero() {
		return decimal.NewFromInt(1)
	}
	return line.Quantity.Decimal
}

// unitPrice falls back to total/quantity when the line carries no price.
func unitPrice(line order.CheckLine, qty decimal.Decimal) decimal.Decimal {
	if line.Price.Valid && !line.Price.Decimal.IsZero() {
		return line.Price.Decimal
	}
	return line.Total.Decimal.Div(qty)
}
