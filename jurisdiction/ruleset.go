/*
ruleset.go - (jurisdiction, year) rule resolution

PURPOSE:
  Holds the configured tax rules and resolves them for a payroll run. A run
  declares its jurisdiction and tax year once; every employee in the run is
  calculated against the same resolved pair of rules.

RESOLUTION:
  Lookup is exact on the (jurisdictionID, year) key. There is no fallback to
  a previous year or a neighboring jurisdiction: paying people with last
  year's bands is a silent compliance failure, so a missing rule is a hard
  error (ErrRuleNotConfigured) the caller must surface.

CONCURRENCY:
  A RuleSet is populated at startup and read-only afterwards. Concurrent
  reads need no locking; registration is not safe to interleave with reads.

SEE ALSO:
  - presets.go: Ready-to-register rule configurations
  - factory/: JSON authoring of rules
*/
package jurisdiction

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrRuleNotConfigured is returned when no rule exists for the requested
// (jurisdiction, year) pair. Use with errors.Is().
var ErrRuleNotConfigured = errors.New("rule not configured")

// ErrInvalidRule is returned when a registration fails validation.
var ErrInvalidRule = errors.New("invalid rule")

// RuleNotConfiguredError carries the failed lookup key.
type RuleNotConfiguredError struct {
	Kind           string // "income tax" or "social security"
	JurisdictionID string
	Year           int
}

func (e *RuleNotConfiguredError) Error() string {
	return fmt.Sprintf("%s rule not configured for jurisdiction %s, year %d",
		e.Kind, e.JurisdictionID, e.Year)
}

func (e *RuleNotConfiguredError) Unwrap() error {
	return ErrRuleNotConfigured
}

// InvalidRuleError carries the validation findings of a rejected rule.
type InvalidRuleError struct {
	Kind           string
	JurisdictionID string
	Year           int
	Issues         []engine.RuleIssue
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("%s rule for jurisdiction %s, year %d failed validation: %v",
		e.Kind, e.JurisdictionID, e.Year, e.Issues)
}

func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}

// =============================================================================
// RULE SET
// =============================================================================

type ruleKey struct {
	jurisdictionID string
	year           int
}

// RuleSet resolves tax rules by (jurisdictionID, year). Populate it at
// startup with Register* calls, then share it freely across run workers.
type RuleSet struct {
	income map[ruleKey]engine.IncomeTaxRule
	social map[ruleKey]engine.SocialSecurityRule
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		income: make(map[ruleKey]engine.IncomeTaxRule),
		social: make(map[ruleKey]engine.SocialSecurityRule),
	}
}

// RegisterIncomeTax validates and stores a rule, replacing any existing rule
// for the same (jurisdiction, year). Validation warnings are tolerated;
// errors reject the rule.
func (rs *RuleSet) RegisterIncomeTax(rule engine.IncomeTaxRule) error {
	if issues := engine.ValidateIncomeTaxRule(rule); engine.HasErrors(issues) {
		return &InvalidRuleError{
			Kind:           "income tax",
			JurisdictionID: rule.JurisdictionID,
			Year:           rule.TaxYear,
			Issues:         issues,
		}
	}
	rs.income[ruleKey{rule.JurisdictionID, rule.TaxYear}] = rule
	return nil
}

// RegisterSocialSecurity validates and stores a rule, replacing any existing
// rule for the same (jurisdiction, year).
func (rs *RuleSet) RegisterSocialSecurity(rule engine.SocialSecurityRule) error {
	if issues := engine.ValidateSocialSecurityRule(rule); engine.HasErrors(issues) {
		return &InvalidRuleError{
			Kind:           "social security",
			JurisdictionID: rule.JurisdictionID,
			Year:           rule.Year,
			Issues:         issues,
		}
	}
	rs.social[ruleKey{rule.JurisdictionID, rule.Year}] = rule
	return nil
}

// IncomeTax resolves the PAYE rule for a jurisdiction and tax year.
func (rs *RuleSet) IncomeTax(jurisdictionID string, year int) (engine.IncomeTaxRule, error) {
	rule, ok := rs.income[ruleKey{jurisdictionID, year}]
	if !ok {
		return engine.IncomeTaxRule{}, &RuleNotConfiguredError{
			Kind:           "income tax",
			JurisdictionID: jurisdictionID,
			Year:           year,
		}
	}
	return rule, nil
}

// SocialSecurity resolves the NIS rule for a jurisdiction and year.
func (rs *RuleSet) SocialSecurity(jurisdictionID string, year int) (engine.SocialSecurityRule, error) {
	rule, ok := rs.social[ruleKey{jurisdictionID, year}]
	if !ok {
		return engine.SocialSecurityRule{}, &RuleNotConfiguredError{
			Kind:           "social security",
			JurisdictionID: jurisdictionID,
			Year:           year,
		}
	}
	return rule, nil
}

// Resolve fetches both rules for a run in one call.
func (rs *RuleSet) Resolve(jurisdictionID string, year int) (engine.IncomeTaxRule, engine.SocialSecurityRule, error) {
	taxRule, err := rs.IncomeTax(jurisdictionID, year)
	if err != nil {
		return engine.IncomeTaxRule{}, engine.SocialSecurityRule{}, err
	}
	nisRule, err := rs.SocialSecurity(jurisdictionID, year)
	if err != nil {
		return engine.IncomeTaxRule{}, engine.SocialSecurityRule{}, err
	}
	return taxRule, nisRule, nil
}

// Jurisdictions lists the distinct jurisdiction IDs with at least one rule.
func (rs *RuleSet) Jurisdictions() []string {
	seen := make(map[string]bool)
	var ids []string
	for key := range rs.income {
		if !seen[key.jurisdictionID] {
			seen[key.jurisdictionID] = true
			ids = append(ids, key.jurisdictionID)
		}
	}
	for key := range rs.social {
		if !seen[key.jurisdictionID] {
			seen[key.jurisdictionID] = true
			ids = append(ids, key.jurisdictionID)
		}
	}
	return ids
}
