package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(m int64) *engine.Money {
	v := engine.Money(m)
	return &v
}

func rate(s string) decimal.Decimal { return dec(s) }

// twoBandRule: [0, 100000) @ 10%, [100000, inf) @ 20%, no personal deduction.
func twoBandRule() engine.IncomeTaxRule {
	return engine.IncomeTaxRule{
		JurisdictionID: "XX",
		TaxYear:        2025,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Basic", Min: 0, Max: money(100000), Rate: rate("0.10")},
			{Order: 2, Name: "Upper", Min: 100000, Rate: rate("0.20")},
		},
		Deduction:         engine.PersonalDeduction{Type: engine.DeductionFixed, Basis: engine.BasisAnnual},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
		Periodization:     engine.PeriodizationAnnualized,
	}
}

func newPaye() *engine.PayeCalculator { return engine.NewPayeCalculator(nil) }

// =============================================================================
// BAND WALK
// =============================================================================

func TestPAYE_BandsTileCorrectly(t *testing.T) {
	// GIVEN: Bands [0-100000 @10%, 100000-inf @20%] and no deduction
	// WHEN: Calculating tax on 150000
	// THEN: tax = 100000*0.10 + 50000*0.20 = 20000, matching the breakdown sum

	result := newPaye().Calculate(150000, twoBandRule(), 0, 0)

	assert.Equal(t, engine.Money(150000), result.TaxableIncome)
	assert.Equal(t, engine.Money(20000), result.AnnualTax)

	require.Len(t, result.Bands, 2)
	assert.Equal(t, engine.Money(100000), result.Bands[0].Amount)
	assert.True(t, result.Bands[0].Tax.Equal(dec("10000")))
	assert.Equal(t, engine.Money(50000), result.Bands[1].Amount)
	assert.True(t, result.Bands[1].Tax.Equal(dec("10000")))

	sum := result.Bands[0].Tax.Add(result.Bands[1].Tax)
	assert.True(t, sum.Equal(result.AnnualTax.Decimal()), "per-band contributions must sum to the total")
}

func TestPAYE_StopsWhenIncomeExhausted(t *testing.T) {
	// Income that fits entirely in the first band never touches the second.
	result := newPaye().Calculate(80000, twoBandRule(), 0, 0)

	require.Len(t, result.Bands, 1)
	assert.Equal(t, engine.Money(8000), result.AnnualTax)
	assert.True(t, result.MarginalRate.Equal(rate("0.10")))
}

func TestPAYE_ZeroTaxable_NoBandsNoRates(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:        engine.DeductionFixed,
		Basis:       engine.BasisAnnual,
		FixedAmount: 200000,
	}

	result := newPaye().Calculate(150000, rule, 0, 0)

	assert.Equal(t, engine.Money(0), result.TaxableIncome)
	assert.Empty(t, result.Bands)
	assert.Equal(t, engine.Money(0), result.AnnualTax)
	assert.True(t, result.MarginalRate.IsZero())
	assert.True(t, result.EffectiveRate.IsZero())
}

func TestPAYE_ZeroGross_ZeroEffectiveRate(t *testing.T) {
	result := newPaye().Calculate(0, twoBandRule(), 0, 0)
	assert.True(t, result.EffectiveRate.IsZero())
	assert.Equal(t, engine.Money(0), result.AnnualTax)
}

func TestPAYE_RateMetrics(t *testing.T) {
	// 150000 gross, 20000 tax -> effective 13.33%, marginal 20%
	result := newPaye().Calculate(150000, twoBandRule(), 0, 0)

	assert.True(t, result.MarginalRate.Equal(rate("0.20")))
	expected := dec("20000").Div(dec("150000")).Mul(dec("100"))
	assert.True(t, result.EffectiveRate.Equal(expected), "effective rate %s", result.EffectiveRate)
}

func TestPAYE_FlatAmountBands(t *testing.T) {
	// Upper band expressed as "5000 flat plus 25% of excess".
	rule := twoBandRule()
	rule.Bands[1].Rate = rate("0.25")
	rule.Bands[1].Flat = 5000

	result := newPaye().Calculate(200000, rule, 0, 0)

	// 100000*0.10 + (5000 + 100000*0.25) = 10000 + 30000
	assert.Equal(t, engine.Money(40000), result.AnnualTax)
}

func TestPAYE_BandsSortedByOrder(t *testing.T) {
	rule := twoBandRule()
	rule.Bands[0], rule.Bands[1] = rule.Bands[1], rule.Bands[0]

	result := newPaye().Calculate(150000, rule, 0, 0)
	assert.Equal(t, engine.Money(20000), result.AnnualTax, "band order field governs the walk, not slice order")
}

// =============================================================================
// PERSONAL DEDUCTION SHAPES
// =============================================================================

func TestPAYE_FixedDeduction(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction.FixedAmount = 50000

	result := newPaye().Calculate(150000, rule, 0, 0)

	assert.Equal(t, engine.Money(50000), result.PersonalDeduction)
	assert.Equal(t, engine.Money(100000), result.TaxableIncome)
}

func TestPAYE_PercentageDeduction(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:       engine.DeductionPercentage,
		Basis:      engine.BasisAnnual,
		Percentage: rate("0.25"),
	}

	result := newPaye().Calculate(200000, rule, 0, 0)

	assert.Equal(t, engine.Money(50000), result.PersonalDeduction)
	assert.Equal(t, engine.Money(150000), result.TaxableIncome)
}

func TestPAYE_FormulaDeduction_VariableContract(t *testing.T) {
	// The formula sees gross (monthly), annualGross, and dependents.
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:    engine.DeductionFormula,
		Basis:   engine.BasisAnnual,
		Formula: "MAX(1560000, {annualGross} * 0.333)",
	}

	result := newPaye().Calculate(6000000, rule, 0, 0)
	assert.Equal(t, engine.Money(1998000), result.PersonalDeduction)

	result = newPaye().Calculate(1200000, rule, 0, 0)
	assert.Equal(t, engine.Money(1560000), result.PersonalDeduction)
}

func TestPAYE_FormulaDeduction_UsesDependents(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:    engine.DeductionFormula,
		Basis:   engine.BasisAnnual,
		Formula: "10000 * {dependents}",
	}

	result := newPaye().Calculate(150000, rule, 3, 0)
	assert.Equal(t, engine.Money(30000), result.PersonalDeduction)
}

func TestPAYE_FormulaFailure_DegradesToNoDeduction(t *testing.T) {
	// A malformed formula yields a 0 deduction, never an error; the
	// diagnostic hook observes the failure.
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:    engine.DeductionFormula,
		Basis:   engine.BasisAnnual,
		Formula: "{no_such_variable} * 2",
	}

	var reported string
	calc := engine.NewPayeCalculator(func(formula string, err error) { reported = formula })

	result := calc.Calculate(150000, rule, 0, 0)

	assert.Equal(t, engine.Money(0), result.PersonalDeduction)
	assert.Equal(t, engine.Money(20000), result.AnnualTax)
	assert.Equal(t, "{no_such_variable} * 2", reported)
}

func TestPAYE_DeductionClamp(t *testing.T) {
	// Clamp applies to the computed value before basis conversion.
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:       engine.DeductionPercentage,
		Basis:      engine.BasisAnnual,
		Percentage: rate("0.50"),
		MinAmount:  money(10000),
		MaxAmount:  money(60000),
	}

	// 50% of 200000 = 100000, clamped to 60000
	result := newPaye().Calculate(200000, rule, 0, 0)
	assert.Equal(t, engine.Money(60000), result.PersonalDeduction)

	// 50% of 10000 = 5000, raised to 10000
	result = newPaye().Calculate(10000, rule, 0, 0)
	assert.Equal(t, engine.Money(10000), result.PersonalDeduction)
}

func TestPAYE_MonthlyBasisAnnualizes(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:        engine.DeductionFixed,
		Basis:       engine.BasisMonthly,
		FixedAmount: 5000,
	}

	result := newPaye().Calculate(150000, rule, 0, 0)
	assert.Equal(t, engine.Money(60000), result.PersonalDeduction)
}

func TestPAYE_MonthlyBasisClampBeforeAnnualization(t *testing.T) {
	// Max 6000 clamps the monthly 10000 before the x12, not after.
	rule := twoBandRule()
	rule.Deduction = engine.PersonalDeduction{
		Type:        engine.DeductionFixed,
		Basis:       engine.BasisMonthly,
		FixedAmount: 10000,
		MaxAmount:   money(6000),
	}

	result := newPaye().Calculate(150000, rule, 0, 0)
	assert.Equal(t, engine.Money(72000), result.PersonalDeduction)
}

func TestPAYE_CustomDeductionAddsAnnual(t *testing.T) {
	rule := twoBandRule()
	rule.Deduction.FixedAmount = 50000

	result := newPaye().Calculate(150000, rule, 0, 25000)

	assert.Equal(t, engine.Money(75000), result.PersonalDeduction)
	assert.Equal(t, engine.Money(75000), result.TaxableIncome)
}

// =============================================================================
// ROUNDING POLICY
// =============================================================================

func TestPAYE_MonthlyTaxDerivedFromRoundedAnnual(t *testing.T) {
	// Flat 10% on 6500000 -> 650000 annual, 650000/12 -> 54167 monthly.
	rule := engine.IncomeTaxRule{
		JurisdictionID: "XX",
		TaxYear:        2025,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Flat", Min: 0, Rate: rate("0.10")},
		},
		Deduction:         engine.PersonalDeduction{Type: engine.DeductionFixed, Basis: engine.BasisAnnual, FixedAmount: 100000},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}

	result := newPaye().Calculate(6600000, rule, 0, 0)

	assert.Equal(t, engine.Money(6500000), result.TaxableIncome)
	assert.Equal(t, engine.Money(650000), result.AnnualTax)
	assert.Equal(t, engine.Money(54167), result.MonthlyTax)
}

func TestPAYE_RespectsRuleRoundingMode(t *testing.T) {
	rule := twoBandRule()
	rule.RoundingMode = engine.RoundFloor
	rule.RoundingPrecision = 100

	// 150000 -> 20000 annual; floor to dollar leaves 20000; monthly
	// 20000/12 = 1666.67 -> floor at dollar precision -> 1600
	result := newPaye().Calculate(150000, rule, 0, 0)

	assert.Equal(t, engine.Money(20000), result.AnnualTax)
	assert.Equal(t, engine.Money(1600), result.MonthlyTax)
}
