package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payrollrun"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	employee := engine.Employee{
		ID:              "emp-1",
		BaseSalary:      500000,
		SalaryFrequency: engine.FreqMonthly,
		Allowances: []engine.Allowance{
			{Code: "TRANSPORT", Name: "Transport", Amount: 50000, Frequency: engine.FreqMonthly, Taxable: true},
		},
		Deductions: []engine.Deduction{
			{Code: "LOAN", Name: "Loan Repayment", Amount: 20000, Frequency: engine.FreqMonthly},
		},
		TaxSettings: engine.TaxSettings{NumberOfDependents: 2},
		TaxID:       "TAX-1",
		NISNumber:   "NIS-1",
	}
	require.NoError(t, store.PutEmployee(ctx, employee))

	loaded, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, employee, loaded)
}

func TestEmployee_UpsertReplaces(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	employee := engine.Employee{ID: "emp-1", BaseSalary: 500000, SalaryFrequency: engine.FreqMonthly}
	require.NoError(t, store.PutEmployee(ctx, employee))

	employee.BaseSalary = 600000
	require.NoError(t, store.PutEmployee(ctx, employee))

	loaded, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, engine.Money(600000), loaded.BaseSalary)

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEmployee_NotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.GetEmployee(context.Background(), "nobody")
	assert.True(t, errors.Is(err, payrollrun.ErrEmployeeNotFound))
}

// =============================================================================
// RUNS
// =============================================================================

func testRun(id string, month time.Month) payrollrun.Run {
	start := time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC)
	return payrollrun.Run{
		ID:             id,
		JurisdictionID: "GY",
		TaxYear:        2025,
		PeriodStart:    start,
		PeriodEnd:      start.AddDate(0, 1, -1),
		PayDate:        start.AddDate(0, 0, 27),
		Status:         payrollrun.StatusDraft,
	}
}

func TestRun_LifecycleRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	run := testRun("run-1", time.January)
	require.NoError(t, store.CreateRun(ctx, run))

	loaded, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payrollrun.StatusDraft, loaded.Status)
	assert.True(t, run.PeriodStart.Equal(loaded.PeriodStart))
	assert.Nil(t, loaded.CalculatedAt)

	now := time.Now().UTC().Truncate(time.Second)
	loaded.Status = payrollrun.StatusCalculated
	loaded.CalculatedAt = &now
	loaded.EmployeeCount = 3
	loaded.TotalGross = 1650000
	loaded.WarningCounts = map[string]int{engine.WarnMissingTaxID: 2}
	require.NoError(t, store.UpdateRun(ctx, loaded))

	updated, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payrollrun.StatusCalculated, updated.Status)
	require.NotNil(t, updated.CalculatedAt)
	assert.True(t, now.Equal(*updated.CalculatedAt))
	assert.Equal(t, engine.Money(1650000), updated.TotalGross)
	assert.Equal(t, 2, updated.WarningCounts[engine.WarnMissingTaxID])
}

func TestRun_NotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, payrollrun.ErrRunNotFound))

	err = store.UpdateRun(ctx, testRun("missing", time.January))
	assert.True(t, errors.Is(err, payrollrun.ErrRunNotFound))
}

func TestRun_ListOrderedByPeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("run-feb", time.February)))
	require.NoError(t, store.CreateRun(ctx, testRun("run-jan", time.January)))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-jan", runs[0].ID)
	assert.Equal(t, "run-feb", runs[1].ID)
}

// =============================================================================
// PAYSLIPS AND YTD
// =============================================================================

func testPayslip(runID, employeeID string, start time.Time, gross, paye, nis engine.Money) engine.Payslip {
	return engine.Payslip{
		PayrollRunID:  runID,
		EmployeeID:    employeeID,
		PeriodStart:   start,
		PeriodEnd:     start.AddDate(0, 1, -1),
		GrossEarnings: gross,
		PAYEAmount:    paye,
		NISEmployee:   nis,
		NetPay:        gross - paye - nis,
		PaymentMethod: engine.PaymentBankTransfer,
		PaymentStatus: engine.PaymentPending,
	}
}

func TestPayslips_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	slips := []engine.Payslip{
		testPayslip("run-1", "emp-1", jan, 550000, 54167, 30800),
		testPayslip("run-1", "emp-2", jan, 300000, 20000, 16800),
	}
	require.NoError(t, store.SavePayslips(ctx, slips))

	loaded, err := store.PayslipsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "emp-1", loaded[0].EmployeeID)
	assert.Equal(t, engine.Money(550000), loaded[0].GrossEarnings)
	assert.Equal(t, engine.Money(465033), loaded[0].NetPay)
}

func TestPayslips_DuplicateInsertFails(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	slip := testPayslip("run-1", "emp-1", jan, 550000, 54167, 30800)
	require.NoError(t, store.SavePayslips(ctx, []engine.Payslip{slip}))

	err := store.SavePayslips(ctx, []engine.Payslip{slip})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestPayslips_DeleteByRun(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePayslips(ctx, []engine.Payslip{
		testPayslip("run-1", "emp-1", jan, 550000, 54167, 30800),
	}))
	require.NoError(t, store.DeletePayslipsByRun(ctx, "run-1"))

	loaded, err := store.PayslipsByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestYearToDate_SumsPriorPeriodsOnly(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	mar := jan.AddDate(0, 2, 0)

	require.NoError(t, store.SavePayslips(ctx, []engine.Payslip{
		testPayslip("run-1", "emp-1", jan, 550000, 54167, 30800),
		testPayslip("run-2", "emp-1", feb, 550000, 54167, 30800),
		testPayslip("run-2", "emp-2", feb, 300000, 20000, 16800),
	}))

	ytd, err := store.YearToDate(ctx, "emp-1", 2025, mar)
	require.NoError(t, err)
	assert.Equal(t, engine.Money(1100000), ytd.GrossEarnings)
	assert.Equal(t, engine.Money(108334), ytd.PAYE)
	assert.Equal(t, engine.Money(61600), ytd.NIS)

	// The boundary is strict: a payslip starting exactly at 'before' is excluded.
	ytd, err = store.YearToDate(ctx, "emp-1", 2025, feb)
	require.NoError(t, err)
	assert.Equal(t, engine.Money(550000), ytd.GrossEarnings)
}

func TestYearToDate_IgnoresOtherYears(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	dec2024 := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePayslips(ctx, []engine.Payslip{
		testPayslip("run-0", "emp-1", dec2024, 550000, 54167, 30800),
	}))

	ytd, err := store.YearToDate(ctx, "emp-1", 2025, jan)
	require.NoError(t, err)
	assert.Equal(t, engine.YTD{}, ytd)
}

func TestYearToDate_EmptyIsZero(t *testing.T) {
	store := newStore(t)
	ytd, err := store.YearToDate(context.Background(), "emp-1", 2025,
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, engine.YTD{}, ytd)
}

// =============================================================================
// PayslipsByEmployee
// =============================================================================

func TestPayslipsByEmployee_FiltersYearAndSorts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	dec2024 := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePayslips(ctx, []engine.Payslip{
		testPayslip("run-2", "emp-1", feb, 550000, 54167, 30800),
		testPayslip("run-1", "emp-1", jan, 550000, 54167, 30800),
		testPayslip("run-0", "emp-1", dec2024, 550000, 54167, 30800),
	}))

	slips, err := store.PayslipsByEmployee(ctx, "emp-1", 2025)
	require.NoError(t, err)
	require.Len(t, slips, 2)
	assert.True(t, slips[0].PeriodStart.Before(slips[1].PeriodStart))
}

// =============================================================================
// TAX RULES
// =============================================================================

func TestRules_UpsertAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	record := sqlite.RuleRecord{
		JurisdictionID: "GY",
		Year:           2025,
		Kind:           sqlite.RuleKindIncomeTax,
		ConfigJSON:     `{"jurisdiction_id":"GY","tax_year":2025}`,
	}
	require.NoError(t, store.SaveRule(ctx, record))

	loaded, err := store.GetRule(ctx, "GY", 2025, sqlite.RuleKindIncomeTax)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record.ConfigJSON, loaded.ConfigJSON)

	record.ConfigJSON = `{"jurisdiction_id":"GY","tax_year":2025,"amended":true}`
	require.NoError(t, store.SaveRule(ctx, record))

	loaded, err = store.GetRule(ctx, "GY", 2025, sqlite.RuleKindIncomeTax)
	require.NoError(t, err)
	assert.Contains(t, loaded.ConfigJSON, "amended")

	all, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRules_MissingIsNil(t *testing.T) {
	store := newStore(t)
	loaded, err := store.GetRule(context.Background(), "ZZ", 2025, sqlite.RuleKindIncomeTax)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestReset_ClearsEverything(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutEmployee(ctx, engine.Employee{ID: "emp-1", BaseSalary: 1, SalaryFrequency: engine.FreqMonthly}))
	require.NoError(t, store.CreateRun(ctx, testRun("run-1", time.January)))
	require.NoError(t, store.Reset(ctx))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
