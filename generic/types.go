/*
Package generic provides the domain-agnostic primitives the projection
engine is built on.

KEY CONCEPTS:
  - TimePoint: a calendar day, the simulation clock tick
  - YearMonth: month granularity for payout eligibility
  - HolidayCalendar: market closures; IsMarketDay / MarketDayCount
  - Rate and money helpers over decimal.Decimal

DESIGN PRINCIPLES:
  1. Precision: uses decimal.Decimal so fractional progress floors exactly
  2. Purity: nothing here reads the clock except Today()
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATES AND MONEY
// =============================================================================

var hundred = decimal.NewFromInt(100)

// RateFromPercent converts a 0-100 percentage into a 0.0-1.0 rate.
// Out-of-range input is passed through unchanged; callers validate.
func RateFromPercent(percent float64) decimal.Decimal {
	return decimal.NewFromFloat(percent).Div(hundred)
}

// FloorInt returns floor(d) as an int.
func FloorInt(d decimal.Decimal) int {
	return int(d.Floor().IntPart())
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ToFloat converts a decimal for JSON output.
func ToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
