/*
rounding.go - Monetary rounding modes

PURPOSE:
  Applies one of four rounding policies at a configurable precision. Every
  monetary rounding in the engine goes through Round so a payroll run is
  reproducible to the cent against an audit.

MODES:
  nearest: round half away from zero (the everyday "commercial" rounding)
  floor:   always toward negative infinity
  ceil:    always toward positive infinity
  banker:  round half to even; only the exact .5 tie-break differs from nearest

PRECISION:
  The rounding unit in cents, not a digit count:
    1   = nearest cent
    5   = nearest 5 cents
    100 = nearest dollar

  Round scales the amount by the unit, rounds the quotient per mode, and
  scales back. decimal.Decimal keeps the quotient exact for the precisions
  jurisdictions actually use, so banker ties engage only on a true .5.

EXAMPLE:
  engine.Round(decimal.NewFromInt(54167), engine.RoundNearest, 1)   // 54167
  engine.Round(decimal.NewFromFloat(250), engine.RoundBanker, 100)  // 200
  engine.RoundMoney(engine.Money(1234), engine.RoundCeil, 5)        // 1235

SEE ALSO:
  - rules.go: RoundingMode/RoundingPrecision on rule records
  - paye.go, nis.go: The callers
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// ROUNDING MODE
// =============================================================================

// RoundingMode selects the rounding policy a jurisdiction mandates.
type RoundingMode string

const (
	RoundNearest RoundingMode = "nearest"
	RoundFloor   RoundingMode = "floor"
	RoundCeil    RoundingMode = "ceil"
	RoundBanker  RoundingMode = "banker"
)

// =============================================================================
// ROUND - Pure, total for finite input
// =============================================================================

// Round applies mode at the given precision (rounding unit in cents) and
// returns a whole multiple of that unit. A precision below 1 is treated as 1.
// An unrecognized mode falls back to nearest; rounding never fails.
func Round(amount decimal.Decimal, mode RoundingMode, precision int64) decimal.Decimal {
	if precision < 1 {
		precision = 1
	}
	unit := decimal.NewFromInt(precision)
	scaled := amount.Div(unit)

	var rounded decimal.Decimal
	switch mode {
	case RoundFloor:
		rounded = scaled.Floor()
	case RoundCeil:
		rounded = scaled.Ceil()
	case RoundBanker:
		rounded = scaled.RoundBank(0)
	case RoundNearest:
		rounded = scaled.Round(0)
	default:
		rounded = scaled.Round(0)
	}
	return rounded.Mul(unit)
}

// RoundMoney rounds an integer-cent amount onto the precision grid.
func RoundMoney(amount Money, mode RoundingMode, precision int64) Money {
	return Money(Round(amount.Decimal(), mode, precision).IntPart())
}

// RoundToMoney rounds a decimal intermediate down to integer cents per the
// rule's mode and precision. This is the step that restores the integer
// invariant after fractional arithmetic.
func RoundToMoney(amount decimal.Decimal, mode RoundingMode, precision int64) Money {
	return Money(Round(amount, mode, precision).IntPart())
}
