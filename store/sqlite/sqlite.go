/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements payrollrun.Store (runs, employees, payslips) plus tax rule
  config storage using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  payrollrun.RunStore:      Payroll run records and status transitions
  payrollrun.EmployeeStore: Employee roster
  payrollrun.PayslipStore:  Calculated payslips and the YTD query

KEY TABLES:
  tax_rules:    Authored rule configs, stored as the factory JSON schema
  employees:    Roster records; allowances/deductions as JSON arrays
  payroll_runs: Run lifecycle, totals, and warning counts
  payslips:     One row per (run, employee); full breakdown as JSON plus
                scalar money columns for the YTD aggregation

YTD QUERY:
  YearToDate is a SUM over the payslips table's scalar columns filtered by
  employee, period year, and period start - it never unmarshals breakdown
  JSON. This keeps run processing linear in roster size.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  processor := payrollrun.NewProcessor(rules, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payrollrun/store.go: Interface definitions
  - payrollrun/store/memory.go: In-memory implementation for testing
  - factory/rule.go: The JSON schema stored in tax_rules
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payrollrun"
)

// Store implements the payrollrun storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tax rules (authored configs, factory JSON schema)
	CREATE TABLE IF NOT EXISTS tax_rules (
		jurisdiction_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		kind TEXT NOT NULL, -- 'income_tax' | 'social_security'
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (jurisdiction_id, year, kind)
	);

	-- Employees (roster)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		base_salary INTEGER NOT NULL,
		salary_frequency TEXT NOT NULL,
		tax_id TEXT,
		nis_number TEXT,
		dependents INTEGER NOT NULL DEFAULT 0,
		allowances_json TEXT,
		deductions_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Payroll runs
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		jurisdiction_id TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		status TEXT NOT NULL,
		employee_count INTEGER NOT NULL DEFAULT 0,
		total_gross INTEGER NOT NULL DEFAULT 0,
		total_paye INTEGER NOT NULL DEFAULT 0,
		total_nis_employee INTEGER NOT NULL DEFAULT 0,
		total_nis_employer INTEGER NOT NULL DEFAULT 0,
		total_net INTEGER NOT NULL DEFAULT 0,
		warning_counts_json TEXT,
		calculated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_period_start
		ON payroll_runs(period_start);
	CREATE INDEX IF NOT EXISTS idx_runs_status
		ON payroll_runs(status);

	-- Payslips: scalar money columns for aggregation, JSON for the breakdown
	CREATE TABLE IF NOT EXISTS payslips (
		run_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		gross_earnings INTEGER NOT NULL,
		paye_amount INTEGER NOT NULL,
		nis_employee INTEGER NOT NULL,
		net_pay INTEGER NOT NULL,
		payslip_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (run_id, employee_id)
	);

	-- Hot path: the YTD aggregation per employee
	CREATE INDEX IF NOT EXISTS idx_payslips_employee_period
		ON payslips(employee_id, period_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TAX RULE STORE
// =============================================================================

// Rule kinds as stored in tax_rules.kind.
const (
	RuleKindIncomeTax      = "income_tax"
	RuleKindSocialSecurity = "social_security"
)

// RuleRecord is a stored tax rule config. ConfigJSON holds the factory
// package's JSON schema for the given kind.
type RuleRecord struct {
	JurisdictionID string
	Year           int
	Kind           string
	ConfigJSON     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaveRule upserts a rule config for a (jurisdiction, year, kind) key.
func (s *Store) SaveRule(ctx context.Context, record RuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO tax_rules (jurisdiction_id, year, kind, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(jurisdiction_id, year, kind) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		record.JurisdictionID, record.Year, record.Kind, record.ConfigJSON, now, now,
	)
	return err
}

// GetRule retrieves a rule config, or nil when absent.
func (s *Store) GetRule(ctx context.Context, jurisdictionID string, year int, kind string) (*RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var record RuleRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT jurisdiction_id, year, kind, config_json, created_at, updated_at
		 FROM tax_rules WHERE jurisdiction_id = ? AND year = ? AND kind = ?`,
		jurisdictionID, year, kind,
	).Scan(&record.JurisdictionID, &record.Year, &record.Kind, &record.ConfigJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	record.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &record, nil
}

// ListRules returns all stored rule configs.
func (s *Store) ListRules(ctx context.Context) ([]RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT jurisdiction_id, year, kind, config_json, created_at, updated_at
		 FROM tax_rules ORDER BY jurisdiction_id, year, kind`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RuleRecord
	for rows.Next() {
		var record RuleRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&record.JurisdictionID, &record.Year, &record.Kind,
			&record.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		record.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteRule removes a rule config.
func (s *Store) DeleteRule(ctx context.Context, jurisdictionID string, year int, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tax_rules WHERE jurisdiction_id = ? AND year = ? AND kind = ?",
		jurisdictionID, year, kind)
	return err
}

// =============================================================================
// EMPLOYEE STORE (payrollrun.EmployeeStore interface)
// =============================================================================

// PutEmployee upserts an employee.
func (s *Store) PutEmployee(ctx context.Context, employee engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowancesJSON, err := json.Marshal(employee.Allowances)
	if err != nil {
		return fmt.Errorf("failed to encode allowances: %w", err)
	}
	deductionsJSON, err := json.Marshal(employee.Deductions)
	if err != nil {
		return fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO employees
		(id, base_salary, salary_frequency, tax_id, nis_number, dependents,
		 allowances_json, deductions_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			base_salary = excluded.base_salary,
			salary_frequency = excluded.salary_frequency,
			tax_id = excluded.tax_id,
			nis_number = excluded.nis_number,
			dependents = excluded.dependents,
			allowances_json = excluded.allowances_json,
			deductions_json = excluded.deductions_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		employee.ID,
		int64(employee.BaseSalary),
		string(employee.SalaryFrequency),
		employee.TaxID,
		employee.NISNumber,
		employee.TaxSettings.NumberOfDependents,
		string(allowancesJSON),
		string(deductionsJSON),
		now, now,
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, base_salary, salary_frequency, tax_id, nis_number, dependents,
		        allowances_json, deductions_json
		 FROM employees WHERE id = ?`, id)

	employee, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return engine.Employee{}, payrollrun.ErrEmployeeNotFound
	}
	return employee, err
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, base_salary, salary_frequency, tax_id, nis_number, dependents,
		        allowances_json, deductions_json
		 FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (engine.Employee, error) {
	var employee engine.Employee
	var baseSalary int64
	var frequency string
	var taxID, nisNumber, allowancesJSON, deductionsJSON sql.NullString

	err := row.Scan(&employee.ID, &baseSalary, &frequency, &taxID, &nisNumber,
		&employee.TaxSettings.NumberOfDependents, &allowancesJSON, &deductionsJSON)
	if err != nil {
		return engine.Employee{}, err
	}

	employee.BaseSalary = engine.Money(baseSalary)
	employee.SalaryFrequency = engine.PayFrequency(frequency)
	employee.TaxID = taxID.String
	employee.NISNumber = nisNumber.String
	if allowancesJSON.Valid && allowancesJSON.String != "" {
		if err := json.Unmarshal([]byte(allowancesJSON.String), &employee.Allowances); err != nil {
			return engine.Employee{}, fmt.Errorf("failed to decode allowances for %s: %w", employee.ID, err)
		}
	}
	if deductionsJSON.Valid && deductionsJSON.String != "" {
		if err := json.Unmarshal([]byte(deductionsJSON.String), &employee.Deductions); err != nil {
			return engine.Employee{}, fmt.Errorf("failed to decode deductions for %s: %w", employee.ID, err)
		}
	}
	return employee, nil
}

// =============================================================================
// RUN STORE (payrollrun.RunStore interface)
// =============================================================================

// CreateRun inserts a new run.
func (s *Store) CreateRun(ctx context.Context, run payrollrun.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	warningJSON, err := json.Marshal(run.WarningCounts)
	if err != nil {
		return fmt.Errorf("failed to encode warning counts: %w", err)
	}

	query := `
		INSERT INTO payroll_runs
		(id, jurisdiction_id, tax_year, period_start, period_end, pay_date, status,
		 employee_count, total_gross, total_paye, total_nis_employee, total_nis_employer,
		 total_net, warning_counts_json, calculated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		run.ID, run.JurisdictionID, run.TaxYear,
		run.PeriodStart.Format(time.RFC3339),
		run.PeriodEnd.Format(time.RFC3339),
		run.PayDate.Format(time.RFC3339),
		string(run.Status),
		run.EmployeeCount,
		int64(run.TotalGross), int64(run.TotalPAYE),
		int64(run.TotalNISEmployee), int64(run.TotalNISEmployer), int64(run.TotalNet),
		string(warningJSON),
		nullTime(run.CalculatedAt),
		now, now,
	)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (payrollrun.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, runSelect+" WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return payrollrun.Run{}, payrollrun.ErrRunNotFound
	}
	return run, err
}

// UpdateRun persists run status, totals, and warning counts.
func (s *Store) UpdateRun(ctx context.Context, run payrollrun.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	warningJSON, err := json.Marshal(run.WarningCounts)
	if err != nil {
		return fmt.Errorf("failed to encode warning counts: %w", err)
	}

	query := `
		UPDATE payroll_runs SET
			status = ?, employee_count = ?,
			total_gross = ?, total_paye = ?, total_nis_employee = ?,
			total_nis_employer = ?, total_net = ?,
			warning_counts_json = ?, calculated_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		string(run.Status), run.EmployeeCount,
		int64(run.TotalGross), int64(run.TotalPAYE), int64(run.TotalNISEmployee),
		int64(run.TotalNISEmployer), int64(run.TotalNet),
		string(warningJSON),
		nullTime(run.CalculatedAt),
		time.Now().UTC().Format(time.RFC3339),
		run.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payrollrun.ErrRunNotFound
	}
	return nil
}

// ListRuns returns all runs ordered by period start.
func (s *Store) ListRuns(ctx context.Context) ([]payrollrun.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, runSelect+" ORDER BY period_start, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []payrollrun.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runSelect = `
	SELECT id, jurisdiction_id, tax_year, period_start, period_end, pay_date, status,
	       employee_count, total_gross, total_paye, total_nis_employee,
	       total_nis_employer, total_net, warning_counts_json, calculated_at
	FROM payroll_runs`

func scanRun(row rowScanner) (payrollrun.Run, error) {
	var run payrollrun.Run
	var periodStart, periodEnd, payDate, status string
	var totalGross, totalPAYE, totalNISEmployee, totalNISEmployer, totalNet int64
	var warningJSON, calculatedAt sql.NullString

	err := row.Scan(&run.ID, &run.JurisdictionID, &run.TaxYear,
		&periodStart, &periodEnd, &payDate, &status,
		&run.EmployeeCount, &totalGross, &totalPAYE, &totalNISEmployee,
		&totalNISEmployer, &totalNet, &warningJSON, &calculatedAt)
	if err != nil {
		return payrollrun.Run{}, err
	}

	run.PeriodStart, _ = time.Parse(time.RFC3339, periodStart)
	run.PeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
	run.PayDate, _ = time.Parse(time.RFC3339, payDate)
	run.Status = payrollrun.Status(status)
	run.TotalGross = engine.Money(totalGross)
	run.TotalPAYE = engine.Money(totalPAYE)
	run.TotalNISEmployee = engine.Money(totalNISEmployee)
	run.TotalNISEmployer = engine.Money(totalNISEmployer)
	run.TotalNet = engine.Money(totalNet)
	if warningJSON.Valid && warningJSON.String != "" && warningJSON.String != "null" {
		if err := json.Unmarshal([]byte(warningJSON.String), &run.WarningCounts); err != nil {
			return payrollrun.Run{}, fmt.Errorf("failed to decode warning counts for %s: %w", run.ID, err)
		}
	}
	if calculatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, calculatedAt.String)
		run.CalculatedAt = &t
	}
	return run, nil
}

// =============================================================================
// PAYSLIP STORE (payrollrun.PayslipStore interface)
// =============================================================================

// SavePayslips stores a run's payslips atomically.
func (s *Store) SavePayslips(ctx context.Context, payslips []engine.Payslip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO payslips
		(run_id, employee_id, period_start, gross_earnings, paye_amount,
		 nis_employee, net_pay, payslip_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)

	for _, payslip := range payslips {
		payslipJSON, err := json.Marshal(payslip)
		if err != nil {
			return fmt.Errorf("failed to encode payslip for %s: %w", payslip.EmployeeID, err)
		}
		if _, err := sqlTx.ExecContext(ctx, query,
			payslip.PayrollRunID, payslip.EmployeeID,
			payslip.PeriodStart.Format(time.RFC3339),
			int64(payslip.GrossEarnings), int64(payslip.PAYEAmount),
			int64(payslip.NISEmployee), int64(payslip.NetPay),
			string(payslipJSON), now,
		); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("payslip already exists for run %s, employee %s: %w",
					payslip.PayrollRunID, payslip.EmployeeID, err)
			}
			return fmt.Errorf("failed to insert payslip for %s: %w", payslip.EmployeeID, err)
		}
	}

	return sqlTx.Commit()
}

// DeletePayslipsByRun removes a run's payslips (reset to draft).
func (s *Store) DeletePayslipsByRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM payslips WHERE run_id = ?", runID)
	return err
}

// PayslipsByRun returns a run's payslips ordered by employee ID.
func (s *Store) PayslipsByRun(ctx context.Context, runID string) ([]engine.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayslips(ctx,
		"SELECT payslip_json FROM payslips WHERE run_id = ? ORDER BY employee_id", runID)
}

// PayslipsByEmployee returns an employee's payslips for a year, ordered by
// period start.
func (s *Store) PayslipsByEmployee(ctx context.Context, employeeID string, year int) ([]engine.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayslips(ctx,
		`SELECT payslip_json FROM payslips
		 WHERE employee_id = ? AND strftime('%Y', period_start) = ?
		 ORDER BY period_start`,
		employeeID, strconv.Itoa(year))
}

// YearToDate sums the employee's payslips with a period start in the given
// year and strictly before the given date.
func (s *Store) YearToDate(ctx context.Context, employeeID string, year int, before time.Time) (engine.YTD, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COALESCE(SUM(gross_earnings), 0),
		       COALESCE(SUM(paye_amount), 0),
		       COALESCE(SUM(nis_employee), 0)
		FROM payslips
		WHERE employee_id = ?
		  AND strftime('%Y', period_start) = ?
		  AND period_start < ?
	`

	var gross, paye, nis int64
	err := s.db.QueryRowContext(ctx, query,
		employeeID, strconv.Itoa(year), before.Format(time.RFC3339),
	).Scan(&gross, &paye, &nis)
	if err != nil {
		return engine.YTD{}, err
	}

	return engine.YTD{
		GrossEarnings: engine.Money(gross),
		PAYE:          engine.Money(paye),
		NIS:           engine.Money(nis),
	}, nil
}

func (s *Store) queryPayslips(ctx context.Context, query string, args ...any) ([]engine.Payslip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payslips []engine.Payslip
	for rows.Next() {
		var payslipJSON string
		if err := rows.Scan(&payslipJSON); err != nil {
			return nil, err
		}
		var payslip engine.Payslip
		if err := json.Unmarshal([]byte(payslipJSON), &payslip); err != nil {
			return nil, fmt.Errorf("failed to decode payslip: %w", err)
		}
		payslips = append(payslips, payslip)
	}
	return payslips, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payslips", "payroll_runs", "employees", "tax_rules"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
