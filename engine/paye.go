/*
paye.go - Progressive income-tax (PAYE) calculator

PURPOSE:
  Given an annualized gross salary and a jurisdiction's IncomeTaxRule,
  computes the annual and monthly withholding: personal deduction, taxable
  income, a walk over the progressive bands, and the rounded totals.

ALGORITHM:
  1. Compute the personal deduction per the rule's discriminated shape
     (fixed | percentage | formula), clamp to [min, max], annualize a
     monthly-basis result, then add any custom deduction (already annual).
  2. taxable = max(0, annualGross - personalDeduction)
  3. Walk the bands in order, allocating income slice by slice; each band
     contributes its slice times its rate (plus any flat amount). The full
     per-band breakdown is kept for audit trails and retroactive diffs.
  4. Round the summed annual tax per the rule's rounding policy, then derive
     the monthly figure from the rounded annual amount.

FAILURE SEMANTICS:
  No rule lookup happens here - a missing rule is the caller's precondition
  (see jurisdiction.RuleSet). The calculator never fails for well-typed
  numeric input; malformed band coverage yields partially-correct tax and is
  caught by ValidateIncomeTaxRule at ingestion, not defended against here.

SEE ALSO:
  - rules.go: IncomeTaxRule, PersonalDeduction
  - formula.go: Formula-typed personal deductions
  - payslip.go: The in-engine caller
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// BandTax records one band's contribution to the annual tax, kept for audit
// transparency. Tax is the unrounded band contribution; only the summed
// annual total is rounded.
type BandTax struct {
	Name   string
	Amount Money
	Rate   decimal.Decimal
	Tax    decimal.Decimal
}

// PayeResult is the complete output of a PAYE calculation, carrying enough
// detail to reproduce the figure in an audit or build a retroactive diff.
type PayeResult struct {
	JurisdictionID    string
	TaxYear           int
	AnnualGross       Money
	PersonalDeduction Money
	TaxableIncome     Money
	Bands             []BandTax
	AnnualTax         Money
	MonthlyTax        Money

	// EffectiveRate is annual tax over annual gross, in percent.
	EffectiveRate decimal.Decimal

	// MarginalRate is the rate of the highest band that received any
	// allocation, as a fraction. Zero when taxable income is zero.
	MarginalRate decimal.Decimal
}

// =============================================================================
// CALCULATOR
// =============================================================================

var monthsPerYear = decimal.NewFromInt(12)

// PayeCalculator computes income-tax withholding. Eval handles formula-typed
// personal deductions; a nil Eval falls back to a silent evaluator.
type PayeCalculator struct {
	Eval *Evaluator
}

// NewPayeCalculator creates a calculator whose formula failures are reported
// through the given hook.
func NewPayeCalculator(onFormulaError FormulaDiagnostic) *PayeCalculator {
	return &PayeCalculator{Eval: NewEvaluator(onFormulaError)}
}

// Calculate computes annual and monthly PAYE for an annualized gross salary.
// customDeduction is an additional annual deduction granted to this employee
// on top of the rule's personal deduction; pass 0 for none.
func (c *PayeCalculator) Calculate(annualGross Money, rule IncomeTaxRule, dependents int, customDeduction Money) PayeResult {
	deduction := c.personalDeduction(annualGross, rule.Deduction, dependents) + customDeduction

	taxable := annualGross - deduction
	if taxable < 0 {
		taxable = 0
	}

	bands := append([]TaxBand(nil), rule.Bands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Order < bands[j].Order })

	var (
		breakdown []BandTax
		annualTax decimal.Decimal
		marginal  decimal.Decimal
		remaining = taxable
	)
	for _, band := range bands {
		if remaining <= 0 {
			break
		}
		amount := remaining
		if width := band.Width(); width != nil && amount > *width {
			amount = *width
		}
		bandTax := amount.Decimal().Mul(band.Rate).Add(band.Flat.Decimal())
		breakdown = append(breakdown, BandTax{
			Name:   band.Name,
			Amount: amount,
			Rate:   band.Rate,
			Tax:    bandTax,
		})
		annualTax = annualTax.Add(bandTax)
		marginal = band.Rate
		remaining -= amount
	}

	annual := RoundToMoney(annualTax, rule.RoundingMode, rule.RoundingPrecision)
	monthly := RoundToMoney(annual.Decimal().Div(monthsPerYear), rule.RoundingMode, rule.RoundingPrecision)

	effective := decimal.Zero
	if annualGross > 0 {
		effective = annual.Decimal().Div(annualGross.Decimal()).Mul(decimal.NewFromInt(100))
	}

	return PayeResult{
		JurisdictionID:    rule.JurisdictionID,
		TaxYear:           rule.TaxYear,
		AnnualGross:       annualGross,
		PersonalDeduction: deduction,
		TaxableIncome:     taxable,
		Bands:             breakdown,
		AnnualTax:         annual,
		MonthlyTax:        monthly,
		EffectiveRate:     effective,
		MarginalRate:      marginal,
	}
}

// personalDeduction computes the annualized personal deduction in cents.
func (c *PayeCalculator) personalDeduction(annualGross Money, d PersonalDeduction, dependents int) Money {
	var value decimal.Decimal
	switch d.Type {
	case DeductionFixed:
		value = d.FixedAmount.Decimal()
	case DeductionPercentage:
		value = annualGross.Decimal().Mul(d.Percentage)
	case DeductionFormula:
		eval := c.Eval
		if eval == nil {
			eval = &Evaluator{}
		}
		annual, _ := annualGross.Decimal().Float64()
		value = decimal.NewFromFloat(eval.Evaluate(d.Formula, map[string]float64{
			"gross":       annual / 12,
			"annualGross": annual,
			"dependents":  float64(dependents),
		}))
	}

	// Clamp before basis conversion.
	if d.MinAmount != nil && value.LessThan(d.MinAmount.Decimal()) {
		value = d.MinAmount.Decimal()
	}
	if d.MaxAmount != nil && value.GreaterThan(d.MaxAmount.Decimal()) {
		value = d.MaxAmount.Decimal()
	}

	if d.Basis == BasisMonthly {
		value = value.Mul(monthsPerYear)
	}
	return MoneyFromDecimal(value)
}
