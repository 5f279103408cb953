package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// ToFixed formats v with exactly digits decimals, rounding half away from zero.
func ToFixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return decimal.NewFromFloat(v).StringFixed(int32(digits))
}

// ToFixedPtr is ToFixed with nil rendered as N/A.
func ToFixedPtr(v *float64, digits int) string {
	if v == nil {
		return "N/A"
	}
	return ToFixed(*v, digits)
}

// Percent scales a fraction to a percentage string, e.g. 0.4213 -> "42.1%".
func Percent(fraction float64, digits int) string {
	scaled := decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100))
	return scaled.StringFixed(int32(digits)) + "%"
}
