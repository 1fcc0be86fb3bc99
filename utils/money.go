package utils

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to 2 decimal places, half away from zero (currency display).
func Round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// Round4 rounds x to 4 decimal places. Used for tax factors derived from
// a configured percentage.
func Round4(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(4).Float64()
	return f
}

// Format2 renders a money amount with exactly 2 fractional digits and a
// '.' separator, e.g. 262.5 -> "262.50".
func Format2(x float64) string {
	return strconv.FormatFloat(Round2(x), 'f', 2, 64)
}
