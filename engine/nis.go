/*
nis.go - Social-security (NIS) contribution calculator

PURPOSE:
  Computes employee and employer social-security contributions on a period's
  gross earnings, applying the jurisdiction's earnings ceiling and floor.

CEILING AND FLOOR:
  - Earnings above the ceiling contribute nothing on the excess: the NIS-able
    base is clamped down to the ceiling (CeilingApplied reports this).
  - Earnings below the floor contribute nothing at all for the period - the
    base becomes zero, not a pro-rated fraction.

SEE ALSO:
  - rules.go: SocialSecurityRule
  - payslip.go: The in-engine caller
*/
package engine

import "github.com/shopspring/decimal"

// NisResult reports both contributions plus the inputs that produced them,
// so a payslip can show exactly how the figure arose.
type NisResult struct {
	GrossEarnings        Money
	NisableEarnings      Money
	EmployeeContribution Money
	EmployerContribution Money
	TotalContribution    Money
	EmployeeRate         decimal.Decimal
	EmployerRate         decimal.Decimal
	CeilingApplied       bool
	EarningsCeiling      *Money
}

// CalculateNIS computes period contributions for the given gross earnings.
// Pure function of its inputs; a missing rule is the caller's precondition.
func CalculateNIS(grossEarnings Money, rule SocialSecurityRule) NisResult {
	nisable := grossEarnings
	ceilingApplied := false
	if rule.EarningsCeiling != nil && nisable > *rule.EarningsCeiling {
		nisable = *rule.EarningsCeiling
		ceilingApplied = true
	}
	if rule.EarningsFloor != nil && nisable < *rule.EarningsFloor {
		nisable = 0
	}

	employee := RoundToMoney(nisable.Decimal().Mul(rule.EmployeeRate), rule.RoundingMode, rule.RoundingPrecision)
	employer := RoundToMoney(nisable.Decimal().Mul(rule.EmployerRate), rule.RoundingMode, rule.RoundingPrecision)

	return NisResult{
		GrossEarnings:        grossEarnings,
		NisableEarnings:      nisable,
		EmployeeContribution: employee,
		EmployerContribution: employer,
		TotalContribution:    employee + employer,
		EmployeeRate:         rule.EmployeeRate,
		EmployerRate:         rule.EmployerRate,
		CeilingApplied:       ceilingApplied,
		EarningsCeiling:      rule.EarningsCeiling,
	}
}
