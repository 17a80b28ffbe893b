// Package money provides decimal currency helpers shared across the engine.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/bfinch/debt-optimizer/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.MoneyPlaces)
}

// FromFloat converts a float64 (e.g. a config value) into a currency amount
// rounded to two decimals.
func FromFloat(val float64) decimal.Decimal {
	return decimal.NewFromFloat(val).Round(constants.MoneyPlaces)
}

// MustParse parses a decimal string and panics on error. Intended for tests
// and constants where the value is known to be valid.
func MustParse(val string) decimal.Decimal {
	return decimal.RequireFromString(val)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MonthlyRate converts an annual rate expressed as a fraction (0.24 for 24%)
// into its monthly equivalent.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(decimal.NewFromInt(constants.MonthsPerYear))
}
