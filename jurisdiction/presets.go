/*
presets.go - Pre-built jurisdiction rule configurations

PURPOSE:
  Provides ready-to-register rule configurations for the Caribbean
  jurisdictions the engine ships with. These encode the published statutory
  parameters for the named tax year; amounts are integer cents of the
  jurisdiction's own currency.

AVAILABLE PRESETS:
  Guyana2025:            1/3-of-gross personal allowance (min $130k/month),
                         25%/35% bands, NIS 5.6%/8.4% with monthly ceiling
  TrinidadAndTobago2025: $90k/year personal allowance, 25%/30% bands,
                         simplified NIS rates with monthly ceiling
  Jamaica2025:           Annual threshold, 25%/30% bands, NIS 3%/3% with
                         insurable wage ceiling

CUSTOMIZATION:
  These are starting points. Real deployments load rules through factory/
  from authored JSON; presets exist for demos, tests, and as worked examples
  of the rule records.

EXAMPLE:
  rules := jurisdiction.DefaultRuleSet()
  taxRule, nisRule, err := rules.Resolve("GY", 2025)

SEE ALSO:
  - ruleset.go: Registration and resolution
  - factory/: JSON-based rule creation
*/
package jurisdiction

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// GUYANA
// =============================================================================

// Guyana2025 returns the Guyana PAYE and NIS rules for tax year 2025.
// The personal allowance is the greater of $1,560,000/year and one third of
// annual gross; chargeable income is taxed 25% on the first $2,400,000 and
// 35% on the remainder.
func Guyana2025() (engine.IncomeTaxRule, engine.SocialSecurityRule) {
	ceiling := engine.Money(28_000_000) // $280,000.00 monthly insurable earnings

	income := engine.IncomeTaxRule{
		JurisdictionID: "GY",
		TaxYear:        2025,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Standard", Min: 0, Max: moneyPtr(240_000_000), Rate: decimal.NewFromFloat(0.25)},
			{Order: 2, Name: "Higher", Min: 240_000_000, Rate: decimal.NewFromFloat(0.35)},
		},
		Deduction: engine.PersonalDeduction{
			Type:    engine.DeductionFormula,
			Basis:   engine.BasisAnnual,
			Formula: "MAX(156000000, {annualGross} / 3)",
		},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
		Periodization:     engine.PeriodizationAnnualized,
	}

	social := engine.SocialSecurityRule{
		JurisdictionID:    "GY",
		Year:              2025,
		EmployeeRate:      decimal.NewFromFloat(0.056),
		EmployerRate:      decimal.NewFromFloat(0.084),
		EarningsCeiling:   &ceiling,
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
	return income, social
}

// =============================================================================
// TRINIDAD AND TOBAGO
// =============================================================================

// TrinidadAndTobago2025 returns the T&T PAYE and NIS rules for 2025. The NIS
// contribution table is class-based in the statute; the preset approximates
// it with flat rates at the published employee/employer split.
func TrinidadAndTobago2025() (engine.IncomeTaxRule, engine.SocialSecurityRule) {
	ceiling := engine.Money(1_360_000) // $13,600.00 monthly insurable earnings

	income := engine.IncomeTaxRule{
		JurisdictionID: "TT",
		TaxYear:        2025,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Standard", Min: 0, Max: moneyPtr(100_000_000), Rate: decimal.NewFromFloat(0.25)},
			{Order: 2, Name: "Higher", Min: 100_000_000, Rate: decimal.NewFromFloat(0.30)},
		},
		Deduction: engine.PersonalDeduction{
			Type:        engine.DeductionFixed,
			Basis:       engine.BasisAnnual,
			FixedAmount: 9_000_000, // $90,000.00 personal allowance
		},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
		Periodization:     engine.PeriodizationAnnualized,
	}

	social := engine.SocialSecurityRule{
		JurisdictionID:    "TT",
		Year:              2025,
		EmployeeRate:      decimal.NewFromFloat(0.044),
		EmployerRate:      decimal.NewFromFloat(0.088),
		EarningsCeiling:   &ceiling,
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
	return income, social
}

// =============================================================================
// JAMAICA
// =============================================================================

// Jamaica2025 returns the Jamaica PAYE and NIS rules for 2025.
func Jamaica2025() (engine.IncomeTaxRule, engine.SocialSecurityRule) {
	ceiling := engine.Money(41_666_667) // 1/12 of the $5,000,000 insurable wage ceiling

	income := engine.IncomeTaxRule{
		JurisdictionID: "JM",
		TaxYear:        2025,
		Bands: []engine.TaxBand{
			{Order: 1, Name: "Standard", Min: 0, Max: moneyPtr(600_000_000), Rate: decimal.NewFromFloat(0.25)},
			{Order: 2, Name: "Higher", Min: 600_000_000, Rate: decimal.NewFromFloat(0.30)},
		},
		Deduction: engine.PersonalDeduction{
			Type:        engine.DeductionFixed,
			Basis:       engine.BasisAnnual,
			FixedAmount: 179_937_600, // annual income tax threshold
		},
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
		Periodization:     engine.PeriodizationAnnualized,
	}

	social := engine.SocialSecurityRule{
		JurisdictionID:    "JM",
		Year:              2025,
		EmployeeRate:      decimal.NewFromFloat(0.03),
		EmployerRate:      decimal.NewFromFloat(0.03),
		EarningsCeiling:   &ceiling,
		RoundingMode:      engine.RoundNearest,
		RoundingPrecision: 1,
	}
	return income, social
}

// =============================================================================
// DEFAULT RULE SET
// =============================================================================

// DefaultRuleSet returns a rule set with every shipped preset registered.
// Presets are maintained to pass validation; a failure here is a bug.
func DefaultRuleSet() *RuleSet {
	rs := NewRuleSet()
	for _, preset := range []func() (engine.IncomeTaxRule, engine.SocialSecurityRule){
		Guyana2025,
		TrinidadAndTobago2025,
		Jamaica2025,
	} {
		income, social := preset()
		if err := rs.RegisterIncomeTax(income); err != nil {
			panic(err)
		}
		if err := rs.RegisterSocialSecurity(social); err != nil {
			panic(err)
		}
	}
	return rs
}

func moneyPtr(m engine.Money) *engine.Money {
	return &m
}
