// Package money wraps shopspring/decimal with the rounding conventions of
// euro-denominated invoices (two decimal places).
package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// FromFloat creates a decimal from a float, rounded to cents
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// FromString parses a decimal from a string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal from a string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Mul multiplies two decimals, rounds to cents
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// LineNet computes quantity * unit price, rounded to cents
func LineNet(quantity, unitPrice float64) decimal.Decimal {
	return Mul(decimal.NewFromFloat(quantity), decimal.NewFromFloat(unitPrice))
}

// TaxAmount computes basis * (ratePercent/100), rounded to cents
func TaxAmount(basis decimal.Decimal, ratePercent float64) decimal.Decimal {
	if ratePercent == 0 {
		return Zero
	}
	rate := decimal.NewFromFloat(ratePercent)
	hundred := decimal.NewFromInt(100)
	return basis.Mul(rate).Div(hundred).Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// WithinTolerance reports whether a and b differ by at most tol
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
