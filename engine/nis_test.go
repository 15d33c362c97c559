package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/engine"
)

func nisRule() engine.SocialSecurityRule {
	return engine.SocialSecurityRule{
		JurisdictionID:    "XX",
		Year:              2025,
		EmployeeRate:      rate("0.056"),
		EmployerRate:      rate("0.084"),
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
}

func TestNIS_NoFloorNoCeiling(t *testing.T) {
	result := engine.CalculateNIS(550000, nisRule())

	assert.Equal(t, engine.Money(550000), result.NisableEarnings)
	assert.Equal(t, engine.Money(30800), result.EmployeeContribution)
	assert.Equal(t, engine.Money(46200), result.EmployerContribution)
	assert.Equal(t, engine.Money(77000), result.TotalContribution)
	assert.False(t, result.CeilingApplied)
}

func TestNIS_CeilingClampsEarnings(t *testing.T) {
	// GIVEN: Gross 500000 against a 400000 ceiling
	// THEN: Contributions are computed on 400000, and the clamp is reported

	rule := nisRule()
	rule.EarningsCeiling = money(400000)

	result := engine.CalculateNIS(500000, rule)

	assert.Equal(t, engine.Money(500000), result.GrossEarnings)
	assert.Equal(t, engine.Money(400000), result.NisableEarnings)
	assert.Equal(t, engine.Money(22400), result.EmployeeContribution) // 400000 * 0.056
	assert.True(t, result.CeilingApplied)
	assert.Equal(t, engine.Money(400000), *result.EarningsCeiling)
}

func TestNIS_AtCeiling_NotFlagged(t *testing.T) {
	rule := nisRule()
	rule.EarningsCeiling = money(400000)

	result := engine.CalculateNIS(400000, rule)

	assert.Equal(t, engine.Money(400000), result.NisableEarnings)
	assert.False(t, result.CeilingApplied)
}

func TestNIS_BelowFloor_ZeroContributions(t *testing.T) {
	// Below-minimum earners contribute nothing this period - not pro-rated.
	rule := nisRule()
	rule.EarningsFloor = money(100000)

	result := engine.CalculateNIS(99999, rule)

	assert.Equal(t, engine.Money(0), result.NisableEarnings)
	assert.Equal(t, engine.Money(0), result.EmployeeContribution)
	assert.Equal(t, engine.Money(0), result.EmployerContribution)
	assert.Equal(t, engine.Money(0), result.TotalContribution)
}

func TestNIS_AtFloor_FullContributions(t *testing.T) {
	rule := nisRule()
	rule.EarningsFloor = money(100000)

	result := engine.CalculateNIS(100000, rule)

	assert.Equal(t, engine.Money(100000), result.NisableEarnings)
	assert.Equal(t, engine.Money(5600), result.EmployeeContribution)
}

func TestNIS_TotalIsSumOfRoundedParts(t *testing.T) {
	// Each contribution is rounded independently; the total is the sum of
	// the rounded values, not a rounding of the raw sum.
	rule := nisRule()
	rule.EmployeeRate = rate("0.0555")
	rule.EmployerRate = rate("0.0555")

	result := engine.CalculateNIS(10001, rule) // 555.0555 each -> 555

	assert.Equal(t, engine.Money(555), result.EmployeeContribution)
	assert.Equal(t, engine.Money(555), result.EmployerContribution)
	assert.Equal(t, engine.Money(1110), result.TotalContribution)
}

func TestNIS_RespectsRoundingPolicy(t *testing.T) {
	rule := nisRule()
	rule.RoundingMode = engine.RoundCeil
	rule.RoundingPrecision = 5

	// 10000 * 0.056 = 560, already on the grid; 10003 * 0.056 = 560.168 -> 565
	result := engine.CalculateNIS(10003, rule)
	assert.Equal(t, engine.Money(565), result.EmployeeContribution)
}
