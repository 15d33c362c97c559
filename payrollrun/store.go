/*
store.go - Persistence interfaces for runs, employees, and payslips

PURPOSE:
  Defines the interface between run processing and the database. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  RunStore:      Run records and status transitions
  EmployeeStore: The employee roster a run fans out over
  PayslipStore:  Calculated payslips plus the year-to-date query

YTD CONTRACT:
  YearToDate sums the stored payslips of an employee for periods starting
  in the given tax year and strictly before the given date. The processor
  threads the result into the assembler, which adds the current period; a
  payslip therefore always carries its own period in its YTD figures.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - payrollrun/store: In-memory for testing

SEE ALSO:
  - processor.go: The consumer
*/
package payrollrun

import (
	"context"
	"errors"
	"time"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRunNotFound is returned when a referenced run doesn't exist.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRunNotDraft is returned when processing a run that already left
	// draft. Recalculation requires an explicit reset, never an overwrite.
	ErrRunNotDraft = errors.New("payroll run is not in draft status")

	// ErrNoEmployees is returned when processing a run with an empty roster.
	ErrNoEmployees = errors.New("no employees to process")
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// RunStore persists payroll runs.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	UpdateRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context) ([]Run, error)
}

// EmployeeStore persists the employee roster.
type EmployeeStore interface {
	PutEmployee(ctx context.Context, employee engine.Employee) error
	GetEmployee(ctx context.Context, id string) (engine.Employee, error)
	ListEmployees(ctx context.Context) ([]engine.Employee, error)
}

// PayslipStore persists calculated payslips.
type PayslipStore interface {
	// SavePayslips stores a run's payslips atomically.
	SavePayslips(ctx context.Context, payslips []engine.Payslip) error

	// DeletePayslipsByRun removes a run's payslips (reset to draft).
	DeletePayslipsByRun(ctx context.Context, runID string) error

	PayslipsByRun(ctx context.Context, runID string) ([]engine.Payslip, error)
	PayslipsByEmployee(ctx context.Context, employeeID string, year int) ([]engine.Payslip, error)

	// YearToDate sums the employee's stored payslips with a period start in
	// the given year and strictly before the given date.
	YearToDate(ctx context.Context, employeeID string, year int, before time.Time) (engine.YTD, error)
}

// Store bundles the three interfaces a processor needs.
type Store interface {
	RunStore
	EmployeeStore
	PayslipStore
}
