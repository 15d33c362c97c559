/*
handlers.go - HTTP endpoint implementations

PURPOSE:
  Implements the REST endpoints over the payroll engine: tax rule uploads,
  employee CRUD, run lifecycle (create -> calculate -> approve -> pay, with
  reset back to draft), payslip retrieval, and a stateless preview endpoint.

ERROR HANDLING:
  Every error path writes an ErrorResponse with an appropriate status:
  - 400: malformed JSON or invalid request fields
  - 404: unknown employee, run, or rule
  - 409: lifecycle conflicts (run not in the required status, missing rules,
         empty roster, rule config rejected by validation)
  - 500: storage failures

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Route table and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/jurisdiction"
	"github.com/warp/payroll-engine/payrollrun"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	Store     *sqlite.Store
	Rules     *jurisdiction.RuleSet
	Factory   *factory.RuleFactory
	Processor *payrollrun.Processor
	Logger    logrus.FieldLogger
}

// NewHandler wires a handler around a store and a rule set.
func NewHandler(store *sqlite.Store, rules *jurisdiction.RuleSet) *Handler {
	return &Handler{
		Store:     store,
		Rules:     rules,
		Factory:   factory.NewRuleFactory(),
		Processor: payrollrun.NewProcessor(rules, store),
		Logger:    logrus.StandardLogger(),
	}
}

// LoadRules hydrates the in-memory rule set from every rule config persisted
// in the store. Called once at startup; configs that fail validation are
// logged and skipped rather than aborting boot.
func (h *Handler) LoadRules(ctx context.Context) error {
	records, err := h.Store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("listing stored rules: %w", err)
	}
	for _, record := range records {
		logger := h.Logger.WithFields(logrus.Fields{
			"jurisdiction": record.JurisdictionID,
			"year":         record.Year,
			"kind":         record.Kind,
		})
		switch record.Kind {
		case sqlite.RuleKindIncomeTax:
			rule, _, parseErr := h.Factory.ParseIncomeTaxRule(record.ConfigJSON)
			if parseErr != nil {
				logger.WithError(parseErr).Warn("skipping stored income tax rule")
				continue
			}
			if regErr := h.Rules.RegisterIncomeTax(rule); regErr != nil {
				logger.WithError(regErr).Warn("skipping stored income tax rule")
			}
		case sqlite.RuleKindSocialSecurity:
			rule, _, parseErr := h.Factory.ParseSocialSecurityRule(record.ConfigJSON)
			if parseErr != nil {
				logger.WithError(parseErr).Warn("skipping stored social security rule")
				continue
			}
			if regErr := h.Rules.RegisterSocialSecurity(rule); regErr != nil {
				logger.WithError(regErr).Warn("skipping stored social security rule")
			}
		default:
			logger.Warn("skipping rule of unknown kind")
		}
	}
	return nil
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Jurisdictions lists every jurisdiction with at least one registered rule.
func (h *Handler) Jurisdictions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Rules.Jurisdictions())
}

// =============================================================================
// RULES
// =============================================================================

// RegisterIncomeTaxRule accepts an income tax rule config, validates it,
// registers it, and persists the raw config.
func (h *Handler) RegisterIncomeTaxRule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	rule, issues, err := h.Factory.ParseIncomeTaxRule(string(body))
	if err != nil {
		writeError(w, http.StatusConflict, "income tax rule rejected", err)
		return
	}
	if err := h.Rules.RegisterIncomeTax(rule); err != nil {
		writeError(w, http.StatusConflict, "income tax rule rejected", err)
		return
	}

	record := sqlite.RuleRecord{
		JurisdictionID: rule.JurisdictionID,
		Year:           rule.TaxYear,
		Kind:           sqlite.RuleKindIncomeTax,
		ConfigJSON:     string(body),
	}
	if err := h.Store.SaveRule(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist rule", err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterRuleResponse{
		JurisdictionID: rule.JurisdictionID,
		Year:           rule.TaxYear,
		Kind:           sqlite.RuleKindIncomeTax,
		Warnings:       toIssueDTOs(issues),
	})
}

// RegisterSocialSecurityRule is the social security counterpart of
// RegisterIncomeTaxRule.
func (h *Handler) RegisterSocialSecurityRule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	rule, issues, err := h.Factory.ParseSocialSecurityRule(string(body))
	if err != nil {
		writeError(w, http.StatusConflict, "social security rule rejected", err)
		return
	}
	if err := h.Rules.RegisterSocialSecurity(rule); err != nil {
		writeError(w, http.StatusConflict, "social security rule rejected", err)
		return
	}

	record := sqlite.RuleRecord{
		JurisdictionID: rule.JurisdictionID,
		Year:           rule.Year,
		Kind:           sqlite.RuleKindSocialSecurity,
		ConfigJSON:     string(body),
	}
	if err := h.Store.SaveRule(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist rule", err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterRuleResponse{
		JurisdictionID: rule.JurisdictionID,
		Year:           rule.Year,
		Kind:           sqlite.RuleKindSocialSecurity,
		Warnings:       toIssueDTOs(issues),
	})
}

// ListRules returns every stored rule config.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	dtos := make([]RuleDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toRuleDTO(record))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRule returns one stored rule config by (jurisdiction, year, kind).
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	jurisdictionID := chi.URLParam(r, "jurisdiction")
	kind := chi.URLParam(r, "kind")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return
	}
	if kind != sqlite.RuleKindIncomeTax && kind != sqlite.RuleKindSocialSecurity {
		writeError(w, http.StatusBadRequest, "invalid rule kind", fmt.Errorf("unknown kind %q", kind))
		return
	}

	record, err := h.Store.GetRule(r.Context(), jurisdictionID, year, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rule", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "rule not found",
			fmt.Errorf("%s rule for %s/%d", kind, jurisdictionID, year))
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(*record))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, employee := range employees {
		dtos = append(dtos, toEmployeeDTO(employee))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.BaseSalary < 0 {
		writeError(w, http.StatusBadRequest, "invalid employee",
			errors.New("base_salary cannot be negative"))
		return
	}

	employee := req.toEmployee()
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	if err := h.Store.PutEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(employee))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to load employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(employee))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "failed to load employee", err)
		return
	}

	var req UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.BaseSalary < 0 {
		writeError(w, http.StatusBadRequest, "invalid employee",
			errors.New("base_salary cannot be negative"))
		return
	}

	employee := req.toEmployee()
	employee.ID = id // the path wins over any body ID
	if err := h.Store.PutEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(employee))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmployeePayslips returns an employee's payslips for a year, ordered by
// period start. Year defaults to the current year.
func (h *Handler) EmployeePayslips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = parsed
	}

	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "failed to load employee", err)
		return
	}
	payslips, err := h.Store.PayslipsByEmployee(r.Context(), id, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payslips", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTOs(payslips))
}

// =============================================================================
// RUNS
// =============================================================================

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTOs(runs))
}

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.JurisdictionID == "" {
		writeError(w, http.StatusBadRequest, "invalid run", errors.New("jurisdiction_id is required"))
		return
	}
	if req.TaxYear == 0 {
		writeError(w, http.StatusBadRequest, "invalid run", errors.New("tax_year is required"))
		return
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		writeError(w, http.StatusBadRequest, "invalid run",
			errors.New("period_end must be after period_start"))
		return
	}

	run := payrollrun.NewRun(req.JurisdictionID, req.TaxYear, req.PeriodStart, req.PeriodEnd, req.PayDate)
	if err := h.Store.CreateRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create run", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// CalculateRun processes a draft run into payslips.
func (h *Handler) CalculateRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.Processor.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to calculate run", err)
		return
	}
	writeJSON(w, http.StatusOK, CalculateRunResponse{
		Run:      toRunDTO(result.Run),
		Payslips: toPayslipDTOs(result.Payslips),
	})
}

// ResetRun discards a calculated run's payslips and returns it to draft.
func (h *Handler) ResetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Processor.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reset run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// ApproveRun transitions a calculated run to approved.
func (h *Handler) ApproveRun(w http.ResponseWriter, r *http.Request) {
	h.transitionRun(w, r, payrollrun.StatusCalculated, payrollrun.StatusApproved)
}

// PayRun transitions an approved run to paid and marks its payslips paid.
func (h *Handler) PayRun(w http.ResponseWriter, r *http.Request) {
	h.transitionRun(w, r, payrollrun.StatusApproved, payrollrun.StatusPaid)
}

func (h *Handler) transitionRun(w http.ResponseWriter, r *http.Request, from, to payrollrun.Status) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to load run", err)
		return
	}
	if run.Status != from {
		writeError(w, http.StatusConflict, "invalid run status",
			fmt.Errorf("run %s is %s, expected %s", run.ID, run.Status, from))
		return
	}

	run.Status = to
	if err := h.Store.UpdateRun(r.Context(), run); err != nil {
		writeDomainError(w, "failed to update run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// RunPayslips returns the payslips of a run, ordered by employee ID.
func (h *Handler) RunPayslips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetRun(r.Context(), id); err != nil {
		writeDomainError(w, "failed to load run", err)
		return
	}
	payslips, err := h.Store.PayslipsByRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payslips", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTOs(payslips))
}

// =============================================================================
// PREVIEW
// =============================================================================

// Preview calculates a single payslip without touching the store. YTD
// accumulators start at zero, so the result reads as a first period.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	taxRule, nisRule, err := h.Rules.Resolve(req.JurisdictionID, req.TaxYear)
	if err != nil {
		writeDomainError(w, "failed to resolve rules", err)
		return
	}

	employee := req.Employee.toEmployee()
	if employee.ID == "" {
		employee.ID = "preview"
	}
	period := engine.PayrollRun{
		ID:          "preview",
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		PayDate:     req.PayDate,
	}

	calc := engine.NewPayslipCalculator(nil)
	payslip, warnings := calc.Calculate(employee, period, taxRule, nisRule, engine.YTD{})
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		Payslip:  toPayslipDTO(payslip),
		Warnings: warnings,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	writeJSON(w, status, response)
}

// writeDomainError maps well-known domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, payrollrun.ErrRunNotFound),
		errors.Is(err, payrollrun.ErrEmployeeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, payrollrun.ErrRunNotDraft),
		errors.Is(err, payrollrun.ErrNoEmployees),
		errors.Is(err, jurisdiction.ErrRuleNotConfigured):
		status = http.StatusConflict
	}
	writeError(w, status, message, err)
}
