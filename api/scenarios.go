/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario registers jurisdiction rules,
	creates employees, and opens a draft payroll run ready to calculate.

AVAILABLE SCENARIOS:

	guyana-monthly:     Guyana 2025 rules with a small monthly roster
	multi-jurisdiction: Guyana, Trinidad & Tobago, and Jamaica side by side
	high-earner:        Demonstrates the formula personal allowance and the
	                    NIS earnings ceiling on a large salary

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Register jurisdiction rules and persist their configs
 3. Create employees with allowances and deductions
 4. Create a draft run per jurisdiction

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "guyana-monthly"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Endpoint implementations
  - jurisdiction/presets.go: The rule parameters the scenarios register
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/jurisdiction"
	"github.com/warp/payroll-engine/payrollrun"
	"github.com/warp/payroll-engine/store/sqlite"
)

var jurisdictionPresets = map[string]func() (engine.IncomeTaxRule, engine.SocialSecurityRule){
	"GY": jurisdiction.Guyana2025,
	"TT": jurisdiction.TrinidadAndTobago2025,
	"JM": jurisdiction.Jamaica2025,
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "guyana-monthly",
		Name:        "Guyana Monthly Payroll",
		Description: "Guyana 2025 rules with a small monthly roster and a draft January run",
	},
	{
		ID:          "multi-jurisdiction",
		Name:        "Multi-Jurisdiction",
		Description: "Guyana, Trinidad & Tobago, and Jamaica rules with a draft run each",
	},
	{
		ID:          "high-earner",
		Name:        "High Earner",
		Description: "Formula personal allowance (1/3 of gross) and the NIS earnings ceiling",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "guyana-monthly":
		err = h.loadGuyanaMonthlyScenario(ctx)
	case "multi-jurisdiction":
		err = h.loadMultiJurisdictionScenario(ctx)
	case "high-earner":
		err = h.loadHighEarnerScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "unknown scenario",
			fmt.Errorf("no scenario with id %q", req.ScenarioID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data. Dev/demo use only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedRules registers a rule pair and persists both configs.
func (h *Handler) seedRules(ctx context.Context, taxRule engine.IncomeTaxRule, nisRule engine.SocialSecurityRule) error {
	if err := h.Rules.RegisterIncomeTax(taxRule); err != nil {
		return err
	}
	if err := h.Rules.RegisterSocialSecurity(nisRule); err != nil {
		return err
	}

	taxJSON, err := json.Marshal(h.Factory.IncomeTaxToJSON(taxRule))
	if err != nil {
		return err
	}
	if err := h.Store.SaveRule(ctx, sqlite.RuleRecord{
		JurisdictionID: taxRule.JurisdictionID,
		Year:           taxRule.TaxYear,
		Kind:           sqlite.RuleKindIncomeTax,
		ConfigJSON:     string(taxJSON),
	}); err != nil {
		return err
	}

	nisJSON, err := json.Marshal(h.Factory.SocialSecurityToJSON(nisRule))
	if err != nil {
		return err
	}
	return h.Store.SaveRule(ctx, sqlite.RuleRecord{
		JurisdictionID: nisRule.JurisdictionID,
		Year:           nisRule.Year,
		Kind:           sqlite.RuleKindSocialSecurity,
		ConfigJSON:     string(nisJSON),
	})
}

func (h *Handler) seedDraftRun(ctx context.Context, jurisdictionID string, year int, month time.Month) error {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	run := payrollrun.NewRun(jurisdictionID, year,
		start, start.AddDate(0, 1, -1), start.AddDate(0, 1, -4))
	return h.Store.CreateRun(ctx, run)
}

func (h *Handler) loadGuyanaMonthlyScenario(ctx context.Context) error {
	taxRule, nisRule := jurisdiction.Guyana2025()
	if err := h.seedRules(ctx, taxRule, nisRule); err != nil {
		return err
	}

	employees := []engine.Employee{
		{
			ID:              "emp-accountant",
			BaseSalary:      35_000_000, // $350,000.00 monthly
			SalaryFrequency: engine.FreqMonthly,
			Allowances: []engine.Allowance{
				{Code: "TRANSPORT", Name: "Transport Allowance", Amount: 2_500_000, Frequency: engine.FreqMonthly, Taxable: true},
			},
			TaxID:     "TIN-1001",
			NISNumber: "NIS-1001",
		},
		{
			ID:              "emp-engineer",
			BaseSalary:      60_000_000,
			SalaryFrequency: engine.FreqMonthly,
			Allowances: []engine.Allowance{
				{Code: "HOUSING", Name: "Housing Allowance", Amount: 10_000_000, Frequency: engine.FreqMonthly, Taxable: true},
				{Code: "MEAL", Name: "Meal Allowance", Amount: 1_500_000, Frequency: engine.FreqMonthly, Taxable: false},
			},
			Deductions: []engine.Deduction{
				{Code: "LOAN", Name: "Staff Loan Repayment", Amount: 5_000_000, Frequency: engine.FreqMonthly},
			},
			TaxID:     "TIN-1002",
			NISNumber: "NIS-1002",
		},
		{
			ID:              "emp-clerk",
			BaseSalary:      12_000_000,
			SalaryFrequency: engine.FreqMonthly,
			// Missing statutory IDs on purpose: the run reports warnings.
		},
	}
	for _, employee := range employees {
		if err := h.Store.PutEmployee(ctx, employee); err != nil {
			return err
		}
	}

	return h.seedDraftRun(ctx, "GY", 2025, time.January)
}

func (h *Handler) loadMultiJurisdictionScenario(ctx context.Context) error {
	for _, id := range []string{"GY", "TT", "JM"} {
		taxRule, nisRule := jurisdictionPresets[id]()
		if err := h.seedRules(ctx, taxRule, nisRule); err != nil {
			return err
		}
		if err := h.seedDraftRun(ctx, id, 2025, time.January); err != nil {
			return err
		}
	}

	for i, salary := range []engine.Money{25_000_000, 45_000_000, 80_000_000} {
		employee := engine.Employee{
			ID:              fmt.Sprintf("emp-%03d", i+1),
			BaseSalary:      salary,
			SalaryFrequency: engine.FreqMonthly,
			TaxID:           fmt.Sprintf("TIN-%03d", i+1),
			NISNumber:       fmt.Sprintf("NIS-%03d", i+1),
		}
		if err := h.Store.PutEmployee(ctx, employee); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadHighEarnerScenario(ctx context.Context) error {
	taxRule, nisRule := jurisdiction.Guyana2025()
	if err := h.seedRules(ctx, taxRule, nisRule); err != nil {
		return err
	}

	// Annual gross far above three times the fixed allowance, so the
	// MAX(fixed, gross/3) formula picks the gross/3 arm, and monthly
	// earnings above the NIS ceiling trigger the clamp.
	employee := engine.Employee{
		ID:              "emp-executive",
		BaseSalary:      2_400_000_000, // $24,000,000.00 annually
		SalaryFrequency: engine.FreqAnnual,
		Allowances: []engine.Allowance{
			{Code: "VEHICLE", Name: "Vehicle Allowance", Amount: 8_000_000, Frequency: engine.FreqMonthly, Taxable: true},
		},
		TaxID:     "TIN-9001",
		NISNumber: "NIS-9001",
	}
	if err := h.Store.PutEmployee(ctx, employee); err != nil {
		return err
	}

	return h.seedDraftRun(ctx, "GY", 2025, time.January)
}
