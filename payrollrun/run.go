/*
run.go - Payroll run lifecycle

PURPOSE:
  Defines the payroll run record and its status lifecycle. A run names a pay
  period, a jurisdiction, and a tax year; processing it produces one payslip
  per employee plus run-level totals.

LIFECYCLE:
  draft -> calculated -> approved -> paid

  Only a draft run can be processed. Recalculation means discarding the
  run's payslips and returning it to draft first; totals are never patched
  in place.

SEE ALSO:
  - processor.go: draft -> calculated
  - store.go: Persistence interfaces
*/
package payrollrun

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the payroll run lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusPaid       Status = "paid"
)

// =============================================================================
// RUN
// =============================================================================

// Run is one payroll run: a pay period for a jurisdiction and tax year.
// Totals and warning counts are zero until the run is processed.
type Run struct {
	ID             string
	JurisdictionID string
	TaxYear        int
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PayDate        time.Time
	Status         Status

	// Populated by processing.
	EmployeeCount    int
	TotalGross       engine.Money
	TotalPAYE        engine.Money
	TotalNISEmployee engine.Money
	TotalNISEmployer engine.Money
	TotalNet         engine.Money
	WarningCounts    map[string]int
	CalculatedAt     *time.Time
}

// NewRun creates a draft run with a generated ID.
func NewRun(jurisdictionID string, taxYear int, periodStart, periodEnd, payDate time.Time) Run {
	return Run{
		ID:             uuid.NewString(),
		JurisdictionID: jurisdictionID,
		TaxYear:        taxYear,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		PayDate:        payDate,
		Status:         StatusDraft,
	}
}

// Period returns the run as the engine's period record.
func (r Run) Period() engine.PayrollRun {
	return engine.PayrollRun{
		ID:          r.ID,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		PayDate:     r.PayDate,
	}
}
