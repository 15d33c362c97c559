/*
dto.go - API data transfer objects

PURPOSE:
  Defines the JSON shapes the HTTP API speaks and the conversions between
  them and the domain types. Handlers never hand domain structs to the
  encoder directly; every response goes through a DTO so the wire format is
  decoupled from internal field names.

CONVENTIONS:
  - All monetary amounts are integer cents (engine.Money)
  - Rates are decimal strings ("0.25"), never floats
  - Dates are RFC 3339 ("2025-01-01T00:00:00Z")
  - Rule configs travel as the factory package's JSON schema, embedded raw

SEE ALSO:
  - handlers.go: The endpoints that produce/consume these shapes
  - factory/rule.go: The rule config schema
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payrollrun"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// ERROR RESPONSE
// =============================================================================

// ErrorResponse is the uniform error body for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEE DTOs
// =============================================================================

type AllowanceDTO struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	Frequency string `json:"frequency"`
	Taxable   bool   `json:"taxable"`
}

type DeductionDTO struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	Frequency string `json:"frequency"`
}

type EmployeeDTO struct {
	ID                 string         `json:"id"`
	BaseSalary         int64          `json:"base_salary"`
	SalaryFrequency    string         `json:"salary_frequency"`
	Allowances         []AllowanceDTO `json:"allowances"`
	Deductions         []DeductionDTO `json:"deductions"`
	NumberOfDependents int            `json:"number_of_dependents"`
	TaxID              string         `json:"tax_id"`
	NISNumber          string         `json:"nis_number"`
}

// UpsertEmployeeRequest is the body for creating or replacing an employee.
// ID is optional on create; the server generates one when it is empty.
type UpsertEmployeeRequest struct {
	ID                 string         `json:"id"`
	BaseSalary         int64          `json:"base_salary"`
	SalaryFrequency    string         `json:"salary_frequency"`
	Allowances         []AllowanceDTO `json:"allowances"`
	Deductions         []DeductionDTO `json:"deductions"`
	NumberOfDependents int            `json:"number_of_dependents"`
	TaxID              string         `json:"tax_id"`
	NISNumber          string         `json:"nis_number"`
}

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:                 e.ID,
		BaseSalary:         int64(e.BaseSalary),
		SalaryFrequency:    string(e.SalaryFrequency),
		Allowances:         make([]AllowanceDTO, 0, len(e.Allowances)),
		Deductions:         make([]DeductionDTO, 0, len(e.Deductions)),
		NumberOfDependents: e.TaxSettings.NumberOfDependents,
		TaxID:              e.TaxID,
		NISNumber:          e.NISNumber,
	}
	for _, a := range e.Allowances {
		dto.Allowances = append(dto.Allowances, AllowanceDTO{
			Code: a.Code, Name: a.Name, Amount: int64(a.Amount),
			Frequency: string(a.Frequency), Taxable: a.Taxable,
		})
	}
	for _, d := range e.Deductions {
		dto.Deductions = append(dto.Deductions, DeductionDTO{
			Code: d.Code, Name: d.Name, Amount: int64(d.Amount),
			Frequency: string(d.Frequency),
		})
	}
	return dto
}

func (r UpsertEmployeeRequest) toEmployee() engine.Employee {
	e := engine.Employee{
		ID:              r.ID,
		BaseSalary:      engine.Money(r.BaseSalary),
		SalaryFrequency: engine.PayFrequency(r.SalaryFrequency),
		TaxSettings:     engine.TaxSettings{NumberOfDependents: r.NumberOfDependents},
		TaxID:           r.TaxID,
		NISNumber:       r.NISNumber,
	}
	if e.SalaryFrequency == "" {
		e.SalaryFrequency = engine.FreqMonthly
	}
	for _, a := range r.Allowances {
		frequency := engine.PayFrequency(a.Frequency)
		if frequency == "" {
			frequency = engine.FreqMonthly
		}
		e.Allowances = append(e.Allowances, engine.Allowance{
			Code: a.Code, Name: a.Name, Amount: engine.Money(a.Amount),
			Frequency: frequency, Taxable: a.Taxable,
		})
	}
	for _, d := range r.Deductions {
		frequency := engine.PayFrequency(d.Frequency)
		if frequency == "" {
			frequency = engine.FreqMonthly
		}
		e.Deductions = append(e.Deductions, engine.Deduction{
			Code: d.Code, Name: d.Name, Amount: engine.Money(d.Amount),
			Frequency: frequency,
		})
	}
	return e
}

// =============================================================================
// RULE DTOs
// =============================================================================

// RuleDTO wraps a stored rule config. Config is the factory JSON schema for
// the rule's kind, passed through untouched.
type RuleDTO struct {
	JurisdictionID string          `json:"jurisdiction_id"`
	Year           int             `json:"year"`
	Kind           string          `json:"kind"`
	Config         json.RawMessage `json:"config"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RuleIssueDTO surfaces a validation finding from rule registration.
type RuleIssueDTO struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// RegisterRuleResponse acknowledges a rule upload, carrying any non-fatal
// validation warnings.
type RegisterRuleResponse struct {
	JurisdictionID string         `json:"jurisdiction_id"`
	Year           int            `json:"year"`
	Kind           string         `json:"kind"`
	Warnings       []RuleIssueDTO `json:"warnings"`
}

func toRuleDTO(record sqlite.RuleRecord) RuleDTO {
	return RuleDTO{
		JurisdictionID: record.JurisdictionID,
		Year:           record.Year,
		Kind:           record.Kind,
		Config:         json.RawMessage(record.ConfigJSON),
		UpdatedAt:      record.UpdatedAt,
	}
}

func toIssueDTOs(issues []engine.RuleIssue) []RuleIssueDTO {
	dtos := make([]RuleIssueDTO, 0, len(issues))
	for _, issue := range issues {
		dtos = append(dtos, RuleIssueDTO{
			Severity: string(issue.Severity),
			Message:  issue.Message,
		})
	}
	return dtos
}

// =============================================================================
// RUN DTOs
// =============================================================================

// CreateRunRequest opens a new draft payroll run.
type CreateRunRequest struct {
	JurisdictionID string    `json:"jurisdiction_id"`
	TaxYear        int       `json:"tax_year"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	PayDate        time.Time `json:"pay_date"`
}

type RunDTO struct {
	ID               string         `json:"id"`
	JurisdictionID   string         `json:"jurisdiction_id"`
	TaxYear          int            `json:"tax_year"`
	PeriodStart      time.Time      `json:"period_start"`
	PeriodEnd        time.Time      `json:"period_end"`
	PayDate          time.Time      `json:"pay_date"`
	Status           string         `json:"status"`
	EmployeeCount    int            `json:"employee_count"`
	TotalGross       int64          `json:"total_gross"`
	TotalPAYE        int64          `json:"total_paye"`
	TotalNISEmployee int64          `json:"total_nis_employee"`
	TotalNISEmployer int64          `json:"total_nis_employer"`
	TotalNet         int64          `json:"total_net"`
	WarningCounts    map[string]int `json:"warning_counts,omitempty"`
	CalculatedAt     *time.Time     `json:"calculated_at,omitempty"`
}

func toRunDTO(run payrollrun.Run) RunDTO {
	return RunDTO{
		ID:               run.ID,
		JurisdictionID:   run.JurisdictionID,
		TaxYear:          run.TaxYear,
		PeriodStart:      run.PeriodStart,
		PeriodEnd:        run.PeriodEnd,
		PayDate:          run.PayDate,
		Status:           string(run.Status),
		EmployeeCount:    run.EmployeeCount,
		TotalGross:       int64(run.TotalGross),
		TotalPAYE:        int64(run.TotalPAYE),
		TotalNISEmployee: int64(run.TotalNISEmployee),
		TotalNISEmployer: int64(run.TotalNISEmployer),
		TotalNet:         int64(run.TotalNet),
		WarningCounts:    run.WarningCounts,
		CalculatedAt:     run.CalculatedAt,
	}
}

func toRunDTOs(runs []payrollrun.Run) []RunDTO {
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	return dtos
}

// CalculateRunResponse returns the calculated run and its payslips.
type CalculateRunResponse struct {
	Run      RunDTO       `json:"run"`
	Payslips []PayslipDTO `json:"payslips"`
}

// =============================================================================
// PAYSLIP DTOs
// =============================================================================

type EarningsLineDTO struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Amount  int64  `json:"amount"`
	Taxable bool   `json:"taxable"`
}

type DeductionLineDTO struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

type BandTaxDTO struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Rate   string `json:"rate"`
	Tax    string `json:"tax"`
}

type TaxDetailsDTO struct {
	JurisdictionID    string       `json:"jurisdiction_id"`
	TaxYear           int          `json:"tax_year"`
	AnnualGross       int64        `json:"annual_gross"`
	PersonalDeduction int64        `json:"personal_deduction"`
	Bands             []BandTaxDTO `json:"bands"`
	AnnualTax         int64        `json:"annual_tax"`
	MonthlyTax        int64        `json:"monthly_tax"`
}

type PayslipDTO struct {
	PayrollRunID string    `json:"payroll_run_id"`
	EmployeeID   string    `json:"employee_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	PayDate      time.Time `json:"pay_date"`

	BasePay         int64             `json:"base_pay"`
	TotalAllowances int64             `json:"total_allowances"`
	GrossEarnings   int64             `json:"gross_earnings"`
	Earnings        []EarningsLineDTO `json:"earnings"`

	TaxableIncome   int64         `json:"taxable_income"`
	PAYEAmount      int64         `json:"paye_amount"`
	NisableEarnings int64         `json:"nisable_earnings"`
	NISEmployee     int64         `json:"nis_employee"`
	NISEmployer     int64         `json:"nis_employer"`
	TaxDetails      TaxDetailsDTO `json:"tax_details"`

	OtherDeductions int64              `json:"other_deductions"`
	Deductions      []DeductionLineDTO `json:"deductions"`

	TotalDeductions int64 `json:"total_deductions"`
	NetPay          int64 `json:"net_pay"`

	YTDGross  int64 `json:"ytd_gross"`
	YTDPAYE   int64 `json:"ytd_paye"`
	YTDNIS    int64 `json:"ytd_nis"`
	YTDNetPay int64 `json:"ytd_net_pay"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
}

func toPayslipDTO(p engine.Payslip) PayslipDTO {
	dto := PayslipDTO{
		PayrollRunID:    p.PayrollRunID,
		EmployeeID:      p.EmployeeID,
		PeriodStart:     p.PeriodStart,
		PeriodEnd:       p.PeriodEnd,
		PayDate:         p.PayDate,
		BasePay:         int64(p.BasePay),
		TotalAllowances: int64(p.TotalAllowances),
		GrossEarnings:   int64(p.GrossEarnings),
		Earnings:        make([]EarningsLineDTO, 0, len(p.Earnings)),
		TaxableIncome:   int64(p.TaxableIncome),
		PAYEAmount:      int64(p.PAYEAmount),
		NisableEarnings: int64(p.NisableEarnings),
		NISEmployee:     int64(p.NISEmployee),
		NISEmployer:     int64(p.NISEmployer),
		TaxDetails:      toTaxDetailsDTO(p.TaxDetails),
		OtherDeductions: int64(p.OtherDeductions),
		Deductions:      make([]DeductionLineDTO, 0, len(p.Deductions)),
		TotalDeductions: int64(p.TotalDeductions),
		NetPay:          int64(p.NetPay),
		YTDGross:        int64(p.YTDGross),
		YTDPAYE:         int64(p.YTDPAYE),
		YTDNIS:          int64(p.YTDNIS),
		YTDNetPay:       int64(p.YTDNetPay),
		PaymentMethod:   string(p.PaymentMethod),
		PaymentStatus:   string(p.PaymentStatus),
	}
	for _, line := range p.Earnings {
		dto.Earnings = append(dto.Earnings, EarningsLineDTO{
			Code: line.Code, Name: line.Name, Amount: int64(line.Amount), Taxable: line.Taxable,
		})
	}
	for _, line := range p.Deductions {
		dto.Deductions = append(dto.Deductions, DeductionLineDTO{
			Code: line.Code, Name: line.Name, Amount: int64(line.Amount),
		})
	}
	return dto
}

func toTaxDetailsDTO(d engine.TaxDetails) TaxDetailsDTO {
	dto := TaxDetailsDTO{
		JurisdictionID:    d.JurisdictionID,
		TaxYear:           d.TaxYear,
		AnnualGross:       int64(d.AnnualGross),
		PersonalDeduction: int64(d.PersonalDeduction),
		Bands:             make([]BandTaxDTO, 0, len(d.Bands)),
		AnnualTax:         int64(d.AnnualTax),
		MonthlyTax:        int64(d.MonthlyTax),
	}
	for _, band := range d.Bands {
		dto.Bands = append(dto.Bands, BandTaxDTO{
			Name:   band.Name,
			Amount: int64(band.Amount),
			Rate:   band.Rate.String(),
			Tax:    band.Tax.String(),
		})
	}
	return dto
}

func toPayslipDTOs(payslips []engine.Payslip) []PayslipDTO {
	dtos := make([]PayslipDTO, 0, len(payslips))
	for _, payslip := range payslips {
		dtos = append(dtos, toPayslipDTO(payslip))
	}
	return dtos
}

// =============================================================================
// PREVIEW DTOs
// =============================================================================

// PreviewRequest computes a payslip without persisting anything. The employee
// is supplied inline and need not exist in the store.
type PreviewRequest struct {
	JurisdictionID string                `json:"jurisdiction_id"`
	TaxYear        int                   `json:"tax_year"`
	PeriodStart    time.Time             `json:"period_start"`
	PeriodEnd      time.Time             `json:"period_end"`
	PayDate        time.Time             `json:"pay_date"`
	Employee       UpsertEmployeeRequest `json:"employee"`
}

// PreviewResponse is the one-off payslip plus its calculation warnings.
type PreviewResponse struct {
	Payslip  PayslipDTO `json:"payslip"`
	Warnings []string   `json:"warnings"`
}
