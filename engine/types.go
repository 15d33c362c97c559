/*
Package engine provides the core payroll calculation engine.

PURPOSE:
  This package contains the pure calculation pipeline that derives a payslip
  from an employee's compensation structure and a jurisdiction's tax rules:
  gross pay composition, progressive income-tax withholding (PAYE),
  social-security contributions (NIS), deductions, net pay, and year-to-date
  accumulation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An integer amount in the smallest currency unit (cents)
  - PayFrequency: How often a salary/allowance amount recurs
  - Employee: The compensation fields the engine consumes
  - PayrollRun: Period fields copied onto the payslip

DESIGN PRINCIPLES:
  1. Integer currency: Money is always whole cents; fractional intermediates
     use decimal.Decimal and are rounded back immediately
  2. Purity: No I/O, no clocks, no shared mutable state - every calculation
     is a function of its inputs
  3. Type Safety: String-typed enums for frequencies, rounding modes, and
     deduction shapes instead of bare strings
  4. Auditability: Calculators return full per-band breakdowns, not just totals

USAGE:
  calc := engine.NewPayslipCalculator(nil)
  payslip, warnings := calc.Calculate(employee, run, taxRule, nisRule, engine.YTD{})

SEE ALSO:
  - rules.go: Jurisdiction rule records (tax bands, personal deductions)
  - paye.go: Income-tax calculator
  - nis.go: Social-security calculator
  - payslip.go: Payslip assembly
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer cents, the only monetary representation at rest
// =============================================================================

// Money is an amount in the smallest currency unit (cents).
// Every monetary field that crosses a component boundary is Money; floating
// or decimal values exist only as intermediates inside a calculation step.
type Money int64

// Decimal returns the amount as a decimal for fractional arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// MoneyFromDecimal converts a decimal intermediate back to whole cents,
// rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(0).IntPart())
}

// =============================================================================
// PAY FREQUENCY
// =============================================================================

// PayFrequency describes how often a salary, allowance, or deduction amount
// recurs. The assembler normalizes everything onto a monthly period.
type PayFrequency string

const (
	FreqMonthly  PayFrequency = "monthly"
	FreqBiweekly PayFrequency = "biweekly"
	FreqWeekly   PayFrequency = "weekly"
	FreqAnnual   PayFrequency = "annual"
)

// =============================================================================
// EMPLOYEE - Compensation fields consumed by the engine
// =============================================================================

// Allowance is a recurring earnings component on top of base salary.
type Allowance struct {
	Code      string
	Name      string
	Amount    Money
	Frequency PayFrequency

	// Taxable feeds the PAYE base. NIS-able earnings deliberately include
	// every allowance regardless of this flag: the NIS base differs from
	// the PAYE base.
	Taxable bool
}

// Deduction is a recurring non-statutory deduction (loan repayment, union
// dues, etc.). Statutory withholding is computed, never configured here.
type Deduction struct {
	Code      string
	Name      string
	Amount    Money
	Frequency PayFrequency
}

// TaxSettings carries the per-employee inputs to personal-deduction formulas.
type TaxSettings struct {
	NumberOfDependents int
}

// Employee is the subset of an employee record the engine consumes.
// The caller owns the full record; the engine never mutates it.
type Employee struct {
	ID              string
	BaseSalary      Money
	SalaryFrequency PayFrequency
	Allowances      []Allowance
	Deductions      []Deduction
	TaxSettings     TaxSettings
	TaxID           string
	NISNumber       string
}

// =============================================================================
// PAYROLL RUN - Period pass-through fields
// =============================================================================

// PayrollRun identifies the pay period. The fields are copied onto the
// payslip for display and audit; none of them participate in arithmetic.
type PayrollRun struct {
	ID          string
	PeriodStart time.Time
	PeriodEnd   time.Time
	PayDate     time.Time
}

// =============================================================================
// YTD - Year-to-date accumulators threaded between periods
// =============================================================================

// YTD carries the accumulators from the employee's previous payslip of the
// tax year. Zero values mean "first period of the year".
type YTD struct {
	GrossEarnings Money
	PAYE          Money
	NIS           Money
}
