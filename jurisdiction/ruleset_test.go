package jurisdiction_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/jurisdiction"
)

func flatIncomeRule(jurisdictionID string, year int) engine.IncomeTaxRule {
	return engine.IncomeTaxRule{
		JurisdictionID: jurisdictionID,
		TaxYear:        year,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Flat", Min: 0, Rate: decimal.NewFromFloat(0.10)},
		},
		Deduction:         engine.PersonalDeduction{Type: engine.DeductionFixed, Basis: engine.BasisAnnual},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
}

func flatSocialRule(jurisdictionID string, year int) engine.SocialSecurityRule {
	return engine.SocialSecurityRule{
		JurisdictionID:    jurisdictionID,
		Year:              year,
		EmployeeRate:      decimal.NewFromFloat(0.056),
		EmployerRate:      decimal.NewFromFloat(0.084),
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
}

// =============================================================================
// RESOLUTION
// =============================================================================

func TestRuleSet_ResolvesExactKey(t *testing.T) {
	rs := jurisdiction.NewRuleSet()
	require.NoError(t, rs.RegisterIncomeTax(flatIncomeRule("GY", 2025)))
	require.NoError(t, rs.RegisterSocialSecurity(flatSocialRule("GY", 2025)))

	taxRule, nisRule, err := rs.Resolve("GY", 2025)
	require.NoError(t, err)
	assert.Equal(t, "GY", taxRule.JurisdictionID)
	assert.Equal(t, 2025, taxRule.TaxYear)
	assert.Equal(t, "GY", nisRule.JurisdictionID)
}

func TestRuleSet_NoYearFallback(t *testing.T) {
	// A 2024 rule never serves a 2025 run.
	rs := jurisdiction.NewRuleSet()
	require.NoError(t, rs.RegisterIncomeTax(flatIncomeRule("GY", 2024)))

	_, err := rs.IncomeTax("GY", 2025)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jurisdiction.ErrRuleNotConfigured))
}

func TestRuleSet_MissingRuleError(t *testing.T) {
	rs := jurisdiction.NewRuleSet()

	_, err := rs.SocialSecurity("BB", 2025)
	require.Error(t, err)

	var notConfigured *jurisdiction.RuleNotConfiguredError
	require.True(t, errors.As(err, &notConfigured))
	assert.Equal(t, "BB", notConfigured.JurisdictionID)
	assert.Equal(t, 2025, notConfigured.Year)
	assert.Equal(t, "social security rule not configured for jurisdiction BB, year 2025", err.Error())
}

func TestRuleSet_ResolveFailsOnEitherMissing(t *testing.T) {
	// Income tax configured, social security missing: Resolve must fail.
	rs := jurisdiction.NewRuleSet()
	require.NoError(t, rs.RegisterIncomeTax(flatIncomeRule("GY", 2025)))

	_, _, err := rs.Resolve("GY", 2025)
	assert.True(t, errors.Is(err, jurisdiction.ErrRuleNotConfigured))
}

func TestRuleSet_ReRegistrationReplaces(t *testing.T) {
	rs := jurisdiction.NewRuleSet()
	require.NoError(t, rs.RegisterIncomeTax(flatIncomeRule("GY", 2025)))

	amended := flatIncomeRule("GY", 2025)
	amended.Bands[0].Rate = decimal.NewFromFloat(0.15)
	require.NoError(t, rs.RegisterIncomeTax(amended))

	rule, err := rs.IncomeTax("GY", 2025)
	require.NoError(t, err)
	assert.True(t, rule.Bands[0].Rate.Equal(decimal.NewFromFloat(0.15)))
}

// =============================================================================
// REGISTRATION VALIDATION
// =============================================================================

func TestRuleSet_RejectsInvalidIncomeTaxRule(t *testing.T) {
	rs := jurisdiction.NewRuleSet()

	broken := flatIncomeRule("GY", 2025)
	broken.Bands = nil

	err := rs.RegisterIncomeTax(broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jurisdiction.ErrInvalidRule))

	var invalid *jurisdiction.InvalidRuleError
	require.True(t, errors.As(err, &invalid))
	assert.NotEmpty(t, invalid.Issues)

	// The broken rule was not stored.
	_, err = rs.IncomeTax("GY", 2025)
	assert.True(t, errors.Is(err, jurisdiction.ErrRuleNotConfigured))
}

func TestRuleSet_RejectsInvalidSocialSecurityRule(t *testing.T) {
	rs := jurisdiction.NewRuleSet()

	broken := flatSocialRule("GY", 2025)
	broken.EmployeeRate = decimal.NewFromFloat(1.5)

	assert.True(t, errors.Is(rs.RegisterSocialSecurity(broken), jurisdiction.ErrInvalidRule))
}

func TestRuleSet_WarningsDoNotBlockRegistration(t *testing.T) {
	rs := jurisdiction.NewRuleSet()

	rule := flatIncomeRule("GY", 2025)
	rule.Periodization = engine.PeriodizationCumulative // warning, not error

	assert.NoError(t, rs.RegisterIncomeTax(rule))
}

// =============================================================================
// PRESETS
// =============================================================================

func TestDefaultRuleSet_AllPresetsResolve(t *testing.T) {
	rs := jurisdiction.DefaultRuleSet()

	for _, id := range []string{"GY", "TT", "JM"} {
		_, _, err := rs.Resolve(id, 2025)
		assert.NoError(t, err, "jurisdiction %s", id)
	}
	assert.ElementsMatch(t, []string{"GY", "TT", "JM"}, rs.Jurisdictions())
}

func TestGuyanaPreset_PersonalAllowanceFormula(t *testing.T) {
	// GIVEN: The Guyana rule with its greater-of allowance formula
	// WHEN: Calculating on an annual gross of $6,000,000.00
	// THEN: The allowance is 1/3 of gross (exceeds the $1,560,000.00 minimum)

	income, _ := jurisdiction.Guyana2025()
	calc := engine.NewPayeCalculator(nil)

	result := calc.Calculate(600_000_000, income, 0, 0)
	assert.Equal(t, engine.Money(200_000_000), result.PersonalDeduction)

	// Below the floor the fixed minimum applies.
	result = calc.Calculate(300_000_000, income, 0, 0)
	assert.Equal(t, engine.Money(156_000_000), result.PersonalDeduction)
}

func TestGuyanaPreset_NISCeiling(t *testing.T) {
	_, social := jurisdiction.Guyana2025()

	// $400,000.00 monthly gross exceeds the $280,000.00 insurable ceiling.
	result := engine.CalculateNIS(40_000_000, social)
	assert.Equal(t, engine.Money(28_000_000), result.NisableEarnings)
	assert.True(t, result.CeilingApplied)
	assert.Equal(t, engine.Money(1_568_000), result.EmployeeContribution) // 280000.00 * 0.056
}
