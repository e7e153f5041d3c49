// Package units turns raw unit codes and quantities into the short text
// printed on tickets and receipts. Every function here is total: unknown
// input falls back to something printable instead of an error.
package units

import (
	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/shopspring/decimal"
)

var labels = map[string]string{
	enum.UnitPiece: "pcs",
	enum.UnitKg:    "kg",
	enum.UnitGr:    "gr",
	enum.UnitLiter: "l",
}

// Code returns the unit code, defaulting an empty code to piece.
func Code(raw string) string {
	if raw == "" {
		return enum.UnitPiece
	}
	return raw
}

// Label returns the display label for a unit code. Unknown codes are
// returned unchanged; an empty code is treated as piece.
func Label(code string) string {
	code = Code(code)
	if l, ok := labels[code]; ok {
		return l
	}
	return code
}

// FormatQuantity formats a raw quantity: whole numbers without decimals,
// everything else with two. Text that is not a number is returned as is.
func FormatQuantity(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return FormatDecimal(d)
}

// FormatDecimal applies the FormatQuantity rule to a parsed value.
func FormatDecimal(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}
