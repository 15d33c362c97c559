/*
payslip.go - Payslip assembly

PURPOSE:
  Orchestrates the per-employee calculation for one pay period: earnings
  composition (base pay, allowances, frequency normalization), the PAYE and
  NIS calculators, other deductions, totals, and year-to-date accumulation.
  Emits one immutable Payslip plus a list of advisory warnings.

PERIOD MODEL:
  The assembler computes a monthly-equivalent period. Annual amounts are
  divided by 12, biweekly base salary is doubled. A weekly base salary is
  passed through unconverted - an inherited ambiguity that is flagged with a
  warning rather than silently "corrected" (see WarnWeeklySalary).

WARNINGS:
  Warnings are advisory and never block payslip creation. They are stable
  codes so a run processor can count occurrences across employees.

PURITY:
  One call, one payslip. No storage access, no mutation after assembly, no
  coordination needed - a caller may fan Calculate out across the employees
  of a run with no ordering guarantees.

SEE ALSO:
  - paye.go, nis.go: The statutory calculators
  - payrollrun/: Fan-out across a run's employees
*/
package engine

import "time"

// =============================================================================
// WARNING CODES - Advisory, never fatal
// =============================================================================

const (
	WarnNegativeNetPay = "negative_net_pay"
	WarnMissingTaxID   = "missing_tax_id"
	WarnMissingNISNo   = "missing_nis_number"
	WarnWeeklySalary   = "weekly_salary_unconverted"
)

// =============================================================================
// PAYSLIP - The assembled output record
// =============================================================================

// EarningsLine is one row of the earnings breakdown. The base salary appears
// as a synthetic line with code "BASE".
type EarningsLine struct {
	Code    string
	Name    string
	Amount  Money
	Taxable bool
}

// DeductionLine is one row of the non-statutory deduction breakdown.
type DeductionLine struct {
	Code   string
	Name   string
	Amount Money
}

// TaxDetails is the audit sub-record: enough to reproduce the PAYE figure.
type TaxDetails struct {
	JurisdictionID    string
	TaxYear           int
	AnnualGross       Money
	PersonalDeduction Money
	Bands             []BandTax
	AnnualTax         Money
	MonthlyTax        Money
}

type PaymentMethod string

type PaymentStatus string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"

	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payslip is the complete per-employee, per-period output. It is immutable
// once assembled; persistence belongs to the caller.
type Payslip struct {
	PayrollRunID string
	EmployeeID   string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	PayDate      time.Time

	// Earnings
	BasePay         Money
	TotalAllowances Money
	GrossEarnings   Money
	Earnings        []EarningsLine

	// Statutory withholding
	TaxableIncome   Money
	PAYEAmount      Money
	NisableEarnings Money
	NISEmployee     Money
	NISEmployer     Money
	TaxDetails      TaxDetails

	// Other deductions
	OtherDeductions Money
	Deductions      []DeductionLine

	// Totals
	TotalDeductions Money
	NetPay          Money

	// Year to date
	YTDGross  Money
	YTDPAYE   Money
	YTDNIS    Money
	YTDNetPay Money

	// Static defaults; the run processor owns later transitions.
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	// Retroactive adjustment fields, zeroed at assembly.
	IsRetroactive   bool
	RetroAdjustment Money
}

// =============================================================================
// PAYSLIP CALCULATOR
// =============================================================================

// PayslipCalculator assembles payslips. Construct with NewPayslipCalculator
// to wire formula diagnostics through to the PAYE calculator.
type PayslipCalculator struct {
	PAYE *PayeCalculator
}

// NewPayslipCalculator creates an assembler. onFormulaError may be nil.
func NewPayslipCalculator(onFormulaError FormulaDiagnostic) *PayslipCalculator {
	return &PayslipCalculator{PAYE: NewPayeCalculator(onFormulaError)}
}

// Calculate computes one employee's payslip for one payroll run.
//
// The caller resolves both rules before calling; the assembler assumes they
// match the run's jurisdiction and tax year. ytd carries the accumulators
// from the employee's previous payslip of the year (zero for the first).
// The returned warnings are advisory and never block payslip creation.
func (c *PayslipCalculator) Calculate(
	employee Employee,
	run PayrollRun,
	taxRule IncomeTaxRule,
	nisRule SocialSecurityRule,
	ytd YTD,
) (Payslip, []string) {
	var warnings []string

	// 1. Base pay normalization onto the monthly period.
	basePay := employee.BaseSalary
	switch employee.SalaryFrequency {
	case FreqAnnual:
		basePay = MoneyFromDecimal(employee.BaseSalary.Decimal().Div(monthsPerYear))
	case FreqBiweekly:
		basePay = employee.BaseSalary * 2
	case FreqWeekly:
		// Passed through unconverted; flagged, not fixed.
		warnings = append(warnings, WarnWeeklySalary)
	}

	// 2. Allowances. Annual amounts become monthly; everything else passes
	// through. Every allowance counts toward the NIS base regardless of its
	// taxable flag.
	earnings := []EarningsLine{{Code: "BASE", Name: "Base Salary", Amount: basePay, Taxable: true}}
	var totalAllowances Money
	for _, allowance := range employee.Allowances {
		amount := normalizeToMonthly(allowance.Amount, allowance.Frequency)
		totalAllowances += amount
		earnings = append(earnings, EarningsLine{
			Code:    allowance.Code,
			Name:    allowance.Name,
			Amount:  amount,
			Taxable: allowance.Taxable,
		})
	}

	// 3. Gross earnings.
	grossEarnings := basePay + totalAllowances

	// 4. PAYE on the annualized gross.
	paye := c.PAYE.Calculate(grossEarnings*12, taxRule, employee.TaxSettings.NumberOfDependents, 0)
	taxableIncome := MoneyFromDecimal(paye.TaxableIncome.Decimal().Div(monthsPerYear))

	// 5. NIS on base pay plus all allowances.
	nis := CalculateNIS(basePay+totalAllowances, nisRule)

	// 6. Other deductions, normalized like allowances.
	var deductionLines []DeductionLine
	var otherDeductions Money
	for _, deduction := range employee.Deductions {
		amount := normalizeToMonthly(deduction.Amount, deduction.Frequency)
		otherDeductions += amount
		deductionLines = append(deductionLines, DeductionLine{
			Code:   deduction.Code,
			Name:   deduction.Name,
			Amount: amount,
		})
	}

	// 7. Totals.
	totalDeductions := paye.MonthlyTax + nis.EmployeeContribution + otherDeductions
	netPay := grossEarnings - totalDeductions

	// 8. Year to date. Net YTD is derived from the other three accumulators,
	// so mid-year adjustments must flow through gross/PAYE/NIS, never be
	// patched onto net directly.
	ytdGross := ytd.GrossEarnings + grossEarnings
	ytdPAYE := ytd.PAYE + paye.MonthlyTax
	ytdNIS := ytd.NIS + nis.EmployeeContribution

	// 9. Advisory warnings.
	if netPay < 0 {
		warnings = append(warnings, WarnNegativeNetPay)
	}
	if employee.TaxID == "" {
		warnings = append(warnings, WarnMissingTaxID)
	}
	if employee.NISNumber == "" {
		warnings = append(warnings, WarnMissingNISNo)
	}

	// 10. Assemble.
	payslip := Payslip{
		PayrollRunID: run.ID,
		EmployeeID:   employee.ID,
		PeriodStart:  run.PeriodStart,
		PeriodEnd:    run.PeriodEnd,
		PayDate:      run.PayDate,

		BasePay:         basePay,
		TotalAllowances: totalAllowances,
		GrossEarnings:   grossEarnings,
		Earnings:        earnings,

		TaxableIncome:   taxableIncome,
		PAYEAmount:      paye.MonthlyTax,
		NisableEarnings: nis.NisableEarnings,
		NISEmployee:     nis.EmployeeContribution,
		NISEmployer:     nis.EmployerContribution,
		TaxDetails: TaxDetails{
			JurisdictionID:    paye.JurisdictionID,
			TaxYear:           paye.TaxYear,
			AnnualGross:       paye.AnnualGross,
			PersonalDeduction: paye.PersonalDeduction,
			Bands:             paye.Bands,
			AnnualTax:         paye.AnnualTax,
			MonthlyTax:        paye.MonthlyTax,
		},

		OtherDeductions: otherDeductions,
		Deductions:      deductionLines,

		TotalDeductions: totalDeductions,
		NetPay:          netPay,

		YTDGross:  ytdGross,
		YTDPAYE:   ytdPAYE,
		YTDNIS:    ytdNIS,
		YTDNetPay: ytdGross - ytdPAYE - ytdNIS,

		PaymentMethod: PaymentBankTransfer,
		PaymentStatus: PaymentPending,
	}
	return payslip, warnings
}

// normalizeToMonthly converts an allowance or deduction amount onto the
// monthly period. Only annual amounts convert; other frequencies pass
// through as period amounts.
func normalizeToMonthly(amount Money, frequency PayFrequency) Money {
	if frequency == FreqAnnual {
		return MoneyFromDecimal(amount.Decimal().Div(monthsPerYear))
	}
	return amount
}
