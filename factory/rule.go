/*
Package factory provides JSON to Go tax rule conversion.

PURPOSE:
  Converts JSON rule definitions into engine.IncomeTaxRule and
  engine.SocialSecurityRule records. This enables rule configuration without
  code changes - a payroll administrator can author next year's bands in
  JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can author annual rule updates
  - Easy integration with an admin UI
  - Version control for statutory parameters
  - Database storage of rule configs

JSON SCHEMA (income tax):
  {
    "jurisdiction_id": "GY",
    "tax_year": 2025,
    "bands": [
      {"order": 1, "name": "Standard", "min": 0, "max": 240000000, "rate": "0.25"},
      {"order": 2, "name": "Higher", "min": 240000000, "rate": "0.35"}
    ],
    "personal_deduction": {
      "type": "formula",
      "basis": "annual",
      "formula": "MAX(156000000, {annualGross} / 3)"
    },
    "rounding": {"mode": "nearest", "precision": 1},
    "periodization": "annualized"
  }

JSON SCHEMA (social security):
  {
    "jurisdiction_id": "GY",
    "year": 2025,
    "employee_rate": "0.056",
    "employer_rate": "0.084",
    "earnings_ceiling": 28000000,
    "rounding": {"mode": "nearest", "precision": 1}
  }

  All amounts are integer cents. Rates accept JSON numbers or strings;
  strings avoid float noise on hand-authored files.

VALIDATION:
  Every parse runs the engine's ingestion validation. Error-severity issues
  reject the rule; warnings are returned to the caller for logging.

USAGE:
  f := factory.NewRuleFactory()
  rule, warnings, err := f.ParseIncomeTaxRule(jsonStr)

SEE ALSO:
  - engine/rules.go: Rule record definitions and validation
  - jurisdiction/: Registration and resolution of parsed rules
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// IncomeTaxRuleJSON is the JSON representation of a PAYE rule.
type IncomeTaxRuleJSON struct {
	JurisdictionID    string                 `json:"jurisdiction_id"`
	TaxYear           int                    `json:"tax_year"`
	Bands             []TaxBandJSON          `json:"bands"`
	PersonalDeduction *PersonalDeductionJSON `json:"personal_deduction,omitempty"`
	Rounding          *RoundingJSON          `json:"rounding,omitempty"`
	Periodization     string                 `json:"periodization,omitempty"`
}

// TaxBandJSON represents one band of the progressive table.
type TaxBandJSON struct {
	Order int             `json:"order"`
	Name  string          `json:"name"`
	Min   int64           `json:"min"`
	Max   *int64          `json:"max,omitempty"` // omitted on the open-ended band
	Rate  decimal.Decimal `json:"rate"`
	Flat  int64           `json:"flat,omitempty"`
}

// PersonalDeductionJSON represents the personal deduction configuration.
type PersonalDeductionJSON struct {
	Type        string          `json:"type"` // fixed, percentage, formula
	Basis       string          `json:"basis,omitempty"`
	FixedAmount int64           `json:"fixed_amount,omitempty"`
	Percentage  decimal.Decimal `json:"percentage,omitempty"`
	Formula     string          `json:"formula,omitempty"`
	MinAmount   *int64          `json:"min_amount,omitempty"`
	MaxAmount   *int64          `json:"max_amount,omitempty"`
}

// RoundingJSON represents a rounding policy.
type RoundingJSON struct {
	Mode      string `json:"mode"` // nearest, floor, ceil, banker
	Precision int64  `json:"precision,omitempty"`
}

// SocialSecurityRuleJSON is the JSON representation of an NIS rule.
type SocialSecurityRuleJSON struct {
	JurisdictionID  string          `json:"jurisdiction_id"`
	Year            int             `json:"year"`
	EmployeeRate    decimal.Decimal `json:"employee_rate"`
	EmployerRate    decimal.Decimal `json:"employer_rate"`
	EarningsFloor   *int64          `json:"earnings_floor,omitempty"`
	EarningsCeiling *int64          `json:"earnings_ceiling,omitempty"`
	Rounding        *RoundingJSON   `json:"rounding,omitempty"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON tax rules to engine records.
type RuleFactory struct{}

// NewRuleFactory creates a new rule factory.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseIncomeTaxRule parses a JSON string into a validated IncomeTaxRule.
// The returned issues are warning-severity only; error-severity issues
// reject the rule.
func (f *RuleFactory) ParseIncomeTaxRule(jsonStr string) (engine.IncomeTaxRule, []engine.RuleIssue, error) {
	var rj IncomeTaxRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return engine.IncomeTaxRule{}, nil, fmt.Errorf("failed to parse income tax rule JSON: %w", err)
	}
	return f.IncomeTaxFromJSON(rj)
}

// IncomeTaxFromJSON converts IncomeTaxRuleJSON to an engine.IncomeTaxRule.
func (f *RuleFactory) IncomeTaxFromJSON(rj IncomeTaxRuleJSON) (engine.IncomeTaxRule, []engine.RuleIssue, error) {
	rule := engine.IncomeTaxRule{
		JurisdictionID: rj.JurisdictionID,
		TaxYear:        rj.TaxYear,
		Periodization:  parsePeriodization(rj.Periodization),
	}
	rule.RoundingMode, rule.RoundingPrecision = parseRounding(rj.Rounding)

	for _, bj := range rj.Bands {
		band := engine.TaxBand{
			Order: bj.Order,
			Name:  bj.Name,
			Min:   engine.Money(bj.Min),
			Rate:  bj.Rate,
			Flat:  engine.Money(bj.Flat),
		}
		if bj.Max != nil {
			max := engine.Money(*bj.Max)
			band.Max = &max
		}
		rule.Bands = append(rule.Bands, band)
	}

	if rj.PersonalDeduction != nil {
		rule.Deduction = parsePersonalDeduction(*rj.PersonalDeduction)
	} else {
		// No deduction block means a zero fixed deduction, not an error.
		rule.Deduction = engine.PersonalDeduction{Type: engine.DeductionFixed, Basis: engine.BasisAnnual}
	}

	issues := engine.ValidateIncomeTaxRule(rule)
	if engine.HasErrors(issues) {
		return engine.IncomeTaxRule{}, issues, fmt.Errorf(
			"income tax rule %s/%d failed validation: %v", rj.JurisdictionID, rj.TaxYear, issues)
	}
	return rule, issues, nil
}

// ParseSocialSecurityRule parses a JSON string into a validated
// SocialSecurityRule.
func (f *RuleFactory) ParseSocialSecurityRule(jsonStr string) (engine.SocialSecurityRule, []engine.RuleIssue, error) {
	var rj SocialSecurityRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return engine.SocialSecurityRule{}, nil, fmt.Errorf("failed to parse social security rule JSON: %w", err)
	}
	return f.SocialSecurityFromJSON(rj)
}

// SocialSecurityFromJSON converts SocialSecurityRuleJSON to an
// engine.SocialSecurityRule.
func (f *RuleFactory) SocialSecurityFromJSON(rj SocialSecurityRuleJSON) (engine.SocialSecurityRule, []engine.RuleIssue, error) {
	rule := engine.SocialSecurityRule{
		JurisdictionID: rj.JurisdictionID,
		Year:           rj.Year,
		EmployeeRate:   rj.EmployeeRate,
		EmployerRate:   rj.EmployerRate,
	}
	rule.RoundingMode, rule.RoundingPrecision = parseRounding(rj.Rounding)
	if rj.EarningsFloor != nil {
		floor := engine.Money(*rj.EarningsFloor)
		rule.EarningsFloor = &floor
	}
	if rj.EarningsCeiling != nil {
		ceiling := engine.Money(*rj.EarningsCeiling)
		rule.EarningsCeiling = &ceiling
	}

	issues := engine.ValidateSocialSecurityRule(rule)
	if engine.HasErrors(issues) {
		return engine.SocialSecurityRule{}, issues, fmt.Errorf(
			"social security rule %s/%d failed validation: %v", rj.JurisdictionID, rj.Year, issues)
	}
	return rule, issues, nil
}

// =============================================================================
// TO JSON
// =============================================================================

// IncomeTaxToJSON converts an engine.IncomeTaxRule to its JSON schema type.
func (f *RuleFactory) IncomeTaxToJSON(rule engine.IncomeTaxRule) IncomeTaxRuleJSON {
	rj := IncomeTaxRuleJSON{
		JurisdictionID: rule.JurisdictionID,
		TaxYear:        rule.TaxYear,
		Rounding: &RoundingJSON{
			Mode:      string(rule.RoundingMode),
			Precision: rule.RoundingPrecision,
		},
		Periodization: string(rule.Periodization),
	}

	for _, band := range rule.Bands {
		bj := TaxBandJSON{
			Order: band.Order,
			Name:  band.Name,
			Min:   int64(band.Min),
			Rate:  band.Rate,
			Flat:  int64(band.Flat),
		}
		if band.Max != nil {
			max := int64(*band.Max)
			bj.Max = &max
		}
		rj.Bands = append(rj.Bands, bj)
	}

	dj := PersonalDeductionJSON{
		Type:        string(rule.Deduction.Type),
		Basis:       string(rule.Deduction.Basis),
		FixedAmount: int64(rule.Deduction.FixedAmount),
		Percentage:  rule.Deduction.Percentage,
		Formula:     rule.Deduction.Formula,
	}
	if rule.Deduction.MinAmount != nil {
		min := int64(*rule.Deduction.MinAmount)
		dj.MinAmount = &min
	}
	if rule.Deduction.MaxAmount != nil {
		max := int64(*rule.Deduction.MaxAmount)
		dj.MaxAmount = &max
	}
	rj.PersonalDeduction = &dj

	return rj
}

// SocialSecurityToJSON converts an engine.SocialSecurityRule to its JSON
// schema type.
func (f *RuleFactory) SocialSecurityToJSON(rule engine.SocialSecurityRule) SocialSecurityRuleJSON {
	rj := SocialSecurityRuleJSON{
		JurisdictionID: rule.JurisdictionID,
		Year:           rule.Year,
		EmployeeRate:   rule.EmployeeRate,
		EmployerRate:   rule.EmployerRate,
		Rounding: &RoundingJSON{
			Mode:      string(rule.RoundingMode),
			Precision: rule.RoundingPrecision,
		},
	}
	if rule.EarningsFloor != nil {
		floor := int64(*rule.EarningsFloor)
		rj.EarningsFloor = &floor
	}
	if rule.EarningsCeiling != nil {
		ceiling := int64(*rule.EarningsCeiling)
		rj.EarningsCeiling = &ceiling
	}
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRounding(rj *RoundingJSON) (engine.RoundingMode, int64) {
	if rj == nil {
		return engine.RoundNearest, 1
	}
	precision := rj.Precision
	if precision < 1 {
		precision = 1
	}
	return parseRoundingMode(rj.Mode), precision
}

func parseRoundingMode(s string) engine.RoundingMode {
	switch s {
	case "floor":
		return engine.RoundFloor
	case "ceil":
		return engine.RoundCeil
	case "banker":
		return engine.RoundBanker
	default:
		return engine.RoundNearest
	}
}

func parsePeriodization(s string) engine.Periodization {
	switch s {
	case "true_period":
		return engine.PeriodizationTruePeriod
	case "cumulative":
		return engine.PeriodizationCumulative
	default:
		return engine.PeriodizationAnnualized
	}
}

func parsePersonalDeduction(dj PersonalDeductionJSON) engine.PersonalDeduction {
	d := engine.PersonalDeduction{
		Type:        parseDeductionType(dj.Type),
		Basis:       parseDeductionBasis(dj.Basis),
		FixedAmount: engine.Money(dj.FixedAmount),
		Percentage:  dj.Percentage,
		Formula:     dj.Formula,
	}
	if dj.MinAmount != nil {
		min := engine.Money(*dj.MinAmount)
		d.MinAmount = &min
	}
	if dj.MaxAmount != nil {
		max := engine.Money(*dj.MaxAmount)
		d.MaxAmount = &max
	}
	return d
}

func parseDeductionType(s string) engine.DeductionType {
	switch s {
	case "percentage":
		return engine.DeductionPercentage
	case "formula":
		return engine.DeductionFormula
	case "fixed", "":
		return engine.DeductionFixed
	default:
		// Preserved so validation reports the unknown value.
		return engine.DeductionType(s)
	}
}

func parseDeductionBasis(s string) engine.DeductionBasis {
	switch s {
	case "monthly":
		return engine.BasisMonthly
	case "annual", "":
		return engine.BasisAnnual
	default:
		return engine.DeductionBasis(s)
	}
}
