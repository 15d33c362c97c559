/*
rules.go - Jurisdiction tax rule records

PURPOSE:
  Defines the rule records a jurisdiction configures and the calculators
  consume: progressive tax bands, the personal deduction, rounding policy,
  and social-security rates. These records are resolved by the caller for a
  (jurisdiction, tax year) pair and are read-only for the duration of a run.

KEY CONCEPTS:
  - TaxBand: One slice of the progressive rate table. Bands tile the taxable
    income axis from 0 upward; a nil Max on the last band means "to infinity".
  - PersonalDeduction: Discriminated by Type (fixed | percentage | formula),
    with optional min/max clamps and an annual-or-monthly basis.
  - IncomeTaxRule / SocialSecurityRule: The complete per-jurisdiction records.

VALIDATION:
  The calculators assume pre-validated rules and never defend in the hot
  path: bands with gaps yield partially-correct tax, a data-quality concern.
  ValidateIncomeTaxRule / ValidateSocialSecurityRule are the ingestion-time
  pass that catches those problems where they belong - before a rule is
  stored. The factory package runs them on every parse.

SEE ALSO:
  - paye.go, nis.go: The consumers
  - factory/: JSON authoring of these records
  - jurisdiction/: (jurisdictionID, year) resolution and presets
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TAX BANDS
// =============================================================================

// TaxBand is one slice of a progressive income-tax rate table.
// Min is inclusive; Max is exclusive and nil on the final open-ended band.
type TaxBand struct {
	Order int
	Name  string
	Min   Money
	Max   *Money
	Rate  decimal.Decimal

	// Flat is an optional fixed amount added when the band is reached
	// (some jurisdictions express upper bands as "X plus r% of excess").
	Flat Money
}

// Width returns the band's span of taxable income, or nil for an
// open-ended band.
func (b TaxBand) Width() *Money {
	if b.Max == nil {
		return nil
	}
	w := *b.Max - b.Min
	return &w
}

// =============================================================================
// PERSONAL DEDUCTION - Discriminated union over Type
// =============================================================================

// DeductionType discriminates how the personal deduction is computed.
type DeductionType string

const (
	DeductionFixed      DeductionType = "fixed"
	DeductionPercentage DeductionType = "percentage"
	DeductionFormula    DeductionType = "formula"
)

// DeductionBasis tells the calculator whether the computed deduction is
// already annual or a monthly figure to annualize.
type DeductionBasis string

const (
	BasisAnnual  DeductionBasis = "annual"
	BasisMonthly DeductionBasis = "monthly"
)

// PersonalDeduction is the income amount shielded from tax before the band
// walk. Exactly one of FixedAmount / Percentage / Formula is meaningful,
// selected by Type. Min/Max clamp the computed value before basis conversion.
type PersonalDeduction struct {
	Type        DeductionType
	Basis       DeductionBasis
	FixedAmount Money
	Percentage  decimal.Decimal
	Formula     string
	MinAmount   *Money
	MaxAmount   *Money
}

// =============================================================================
// PERIODIZATION
// =============================================================================

// Periodization declares how the rule expects tax to be spread across
// periods. Only PeriodizationAnnualized has a distinct calculation path;
// the other values are recognized and currently computed identically
// (surfaced at ingestion by ValidateIncomeTaxRule).
type Periodization string

const (
	PeriodizationAnnualized Periodization = "annualized"
	PeriodizationTruePeriod Periodization = "true_period"
	PeriodizationCumulative Periodization = "cumulative"
)

// =============================================================================
// RULE RECORDS
// =============================================================================

// IncomeTaxRule is the complete PAYE configuration for one jurisdiction and
// tax year.
type IncomeTaxRule struct {
	JurisdictionID    string
	TaxYear           int
	Bands             []TaxBand
	Deduction         PersonalDeduction
	RoundingMode      RoundingMode
	RoundingPrecision int64
	Periodization     Periodization
}

// SocialSecurityRule is the NIS configuration for one jurisdiction and year.
// Rates are fractions (0.056 = 5.6%); floor and ceiling are integer cents.
type SocialSecurityRule struct {
	JurisdictionID    string
	Year              int
	EmployeeRate      decimal.Decimal
	EmployerRate      decimal.Decimal
	EarningsFloor     *Money
	EarningsCeiling   *Money
	RoundingMode      RoundingMode
	RoundingPrecision int64
}

// =============================================================================
// INGESTION VALIDATION
// =============================================================================

// RuleIssue is one finding from a validation pass.
type RuleIssue struct {
	Severity IssueSeverity
	Message  string
}

type IssueSeverity string

const (
	IssueError   IssueSeverity = "error"
	IssueWarning IssueSeverity = "warning"
)

func (i RuleIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

func errorf(format string, args ...any) RuleIssue {
	return RuleIssue{Severity: IssueError, Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...any) RuleIssue {
	return RuleIssue{Severity: IssueWarning, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any issue is error-severity.
func HasErrors(issues []RuleIssue) bool {
	for _, issue := range issues {
		if issue.Severity == IssueError {
			return true
		}
	}
	return false
}

var one = decimal.NewFromInt(1)

// ValidateIncomeTaxRule checks band tiling, rate ranges, and deduction shape.
// Errors mean the rule would compute wrong tax; warnings mean it relies on
// behavior that degrades (unimplemented periodization, unknown enum values).
func ValidateIncomeTaxRule(rule IncomeTaxRule) []RuleIssue {
	var issues []RuleIssue

	if len(rule.Bands) == 0 {
		issues = append(issues, errorf("rule has no tax bands"))
	}

	expectedMin := Money(0)
	for i, band := range rule.Bands {
		if band.Min != expectedMin {
			issues = append(issues, errorf(
				"band %d (%s) starts at %d, expected %d: bands must tile from 0 with no gaps",
				i, band.Name, band.Min, expectedMin))
		}
		if band.Rate.IsNegative() || band.Rate.GreaterThan(one) {
			issues = append(issues, errorf(
				"band %d (%s) rate %s outside [0,1]", i, band.Name, band.Rate))
		}
		if band.Max != nil {
			if *band.Max <= band.Min {
				issues = append(issues, errorf(
					"band %d (%s) max %d not above min %d", i, band.Name, *band.Max, band.Min))
			}
			expectedMin = *band.Max
		} else if i != len(rule.Bands)-1 {
			issues = append(issues, errorf(
				"band %d (%s) is open-ended but not the last band", i, band.Name))
		}
	}
	if len(rule.Bands) > 0 && rule.Bands[len(rule.Bands)-1].Max != nil {
		issues = append(issues, warnf(
			"last band is capped at %d: income above it is untaxed", *rule.Bands[len(rule.Bands)-1].Max))
	}

	switch rule.Deduction.Type {
	case DeductionFixed, DeductionPercentage:
	case DeductionFormula:
		if rule.Deduction.Formula == "" {
			issues = append(issues, errorf("formula deduction with empty formula"))
		}
	default:
		issues = append(issues, errorf("unknown deduction type %q", rule.Deduction.Type))
	}
	switch rule.Deduction.Basis {
	case BasisAnnual, BasisMonthly:
	default:
		issues = append(issues, errorf("unknown deduction basis %q", rule.Deduction.Basis))
	}
	if rule.Deduction.MinAmount != nil && rule.Deduction.MaxAmount != nil &&
		*rule.Deduction.MinAmount > *rule.Deduction.MaxAmount {
		issues = append(issues, errorf("deduction min %d above max %d",
			*rule.Deduction.MinAmount, *rule.Deduction.MaxAmount))
	}

	switch rule.Periodization {
	case PeriodizationAnnualized, "":
	case PeriodizationTruePeriod, PeriodizationCumulative:
		issues = append(issues, warnf(
			"periodization %q has no distinct calculation path; computed as annualized",
			rule.Periodization))
	default:
		issues = append(issues, errorf("unknown periodization %q", rule.Periodization))
	}

	if rule.RoundingPrecision < 1 {
		issues = append(issues, warnf("rounding precision %d treated as 1", rule.RoundingPrecision))
	}

	return issues
}

// ValidateSocialSecurityRule checks rates and floor/ceiling consistency.
func ValidateSocialSecurityRule(rule SocialSecurityRule) []RuleIssue {
	var issues []RuleIssue

	for _, r := range []struct {
		name string
		rate decimal.Decimal
	}{{"employee", rule.EmployeeRate}, {"employer", rule.EmployerRate}} {
		if r.rate.IsNegative() || r.rate.GreaterThan(one) {
			issues = append(issues, errorf("%s rate %s outside [0,1]", r.name, r.rate))
		}
	}
	if rule.EarningsFloor != nil && *rule.EarningsFloor < 0 {
		issues = append(issues, errorf("earnings floor %d is negative", *rule.EarningsFloor))
	}
	if rule.EarningsCeiling != nil && *rule.EarningsCeiling < 0 {
		issues = append(issues, errorf("earnings ceiling %d is negative", *rule.EarningsCeiling))
	}
	if rule.EarningsFloor != nil && rule.EarningsCeiling != nil &&
		*rule.EarningsFloor > *rule.EarningsCeiling {
		issues = append(issues, errorf("earnings floor %d above ceiling %d",
			*rule.EarningsFloor, *rule.EarningsCeiling))
	}
	if rule.RoundingPrecision < 1 {
		issues = append(issues, warnf("rounding precision %d treated as 1", rule.RoundingPrecision))
	}

	return issues
}
