/*
processor.go - Fan-out run processing

PURPOSE:
  Processes a draft payroll run: resolves the run's tax rules once, fans the
  payslip calculation out across the employee roster on a bounded worker
  pool, then persists the payslips and run totals atomically relative to the
  status transition.

PARALLELISM:
  The payslip assembler is pure, so workers share nothing but the resolved
  rules and the YTD reads. Output order is normalized by employee ID after
  the fan-in, so results are deterministic regardless of scheduling.

FAILURE MODEL:
  A calculation warning never fails a run - warnings are counted per code
  and stored on the run. A store or context error aborts the whole run and
  leaves it in draft; there are no partially-calculated runs.

SEE ALSO:
  - engine/payslip.go: The per-employee calculation
  - store.go: Persistence interfaces
*/
package payrollrun

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/jurisdiction"
)

const defaultWorkers = 4

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor turns draft runs into calculated runs.
type Processor struct {
	Rules   *jurisdiction.RuleSet
	Store   Store
	Workers int
	Logger  logrus.FieldLogger
}

// NewProcessor creates a processor with default worker count and logger.
func NewProcessor(rules *jurisdiction.RuleSet, store Store) *Processor {
	return &Processor{
		Rules:   rules,
		Store:   store,
		Workers: defaultWorkers,
		Logger:  logrus.StandardLogger(),
	}
}

// Result is the outcome of processing one run.
type Result struct {
	Run      Run
	Payslips []engine.Payslip
}

type workItem struct {
	employee engine.Employee
}

type workResult struct {
	payslip  engine.Payslip
	warnings []string
	err      error
}

// Process calculates every employee's payslip for the run and transitions it
// draft -> calculated. The run must exist and be in draft.
func (p *Processor) Process(ctx context.Context, runID string) (Result, error) {
	run, err := p.Store.GetRun(ctx, runID)
	if err != nil {
		return Result{}, err
	}
	if run.Status != StatusDraft {
		return Result{}, fmt.Errorf("run %s has status %s: %w", run.ID, run.Status, ErrRunNotDraft)
	}

	taxRule, nisRule, err := p.Rules.Resolve(run.JurisdictionID, run.TaxYear)
	if err != nil {
		return Result{}, err
	}

	employees, err := p.Store.ListEmployees(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(employees) == 0 {
		return Result{}, ErrNoEmployees
	}

	logger := p.logger().WithFields(logrus.Fields{
		"run_id":       run.ID,
		"jurisdiction": run.JurisdictionID,
		"tax_year":     run.TaxYear,
		"employees":    len(employees),
	})
	logger.Info("processing payroll run")

	calc := engine.NewPayslipCalculator(func(formula string, evalErr error) {
		logger.WithField("formula", formula).WithError(evalErr).
			Warn("deduction formula failed, treated as zero")
	})

	payslips, warningCounts, err := p.fanOut(ctx, run, employees, calc, taxRule, nisRule)
	if err != nil {
		return Result{}, err
	}

	if err := p.Store.SavePayslips(ctx, payslips); err != nil {
		return Result{}, fmt.Errorf("saving payslips for run %s: %w", run.ID, err)
	}

	now := time.Now().UTC()
	run.Status = StatusCalculated
	run.CalculatedAt = &now
	run.EmployeeCount = len(payslips)
	run.WarningCounts = warningCounts
	run.TotalGross, run.TotalPAYE = 0, 0
	run.TotalNISEmployee, run.TotalNISEmployer, run.TotalNet = 0, 0, 0
	for _, payslip := range payslips {
		run.TotalGross += payslip.GrossEarnings
		run.TotalPAYE += payslip.PAYEAmount
		run.TotalNISEmployee += payslip.NISEmployee
		run.TotalNISEmployer += payslip.NISEmployer
		run.TotalNet += payslip.NetPay
	}
	if err := p.Store.UpdateRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("updating run %s: %w", run.ID, err)
	}

	logger.WithFields(logrus.Fields{
		"total_gross": run.TotalGross,
		"total_net":   run.TotalNet,
		"warnings":    warningCounts,
	}).Info("payroll run calculated")

	return Result{Run: run, Payslips: payslips}, nil
}

// fanOut runs the per-employee calculation on a bounded worker pool and
// collects payslips ordered by employee ID.
func (p *Processor) fanOut(
	ctx context.Context,
	run Run,
	employees []engine.Employee,
	calc *engine.PayslipCalculator,
	taxRule engine.IncomeTaxRule,
	nisRule engine.SocialSecurityRule,
) ([]engine.Payslip, map[string]int, error) {
	workers := p.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	if workers > len(employees) {
		workers = len(employees)
	}

	jobs := make(chan workItem)
	results := make(chan workResult, len(employees))
	period := run.Period()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- p.calculateOne(ctx, item.employee, period, run, calc, taxRule, nisRule)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, employee := range employees {
			select {
			case jobs <- workItem{employee: employee}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var payslips []engine.Payslip
	warningCounts := make(map[string]int)
	for result := range results {
		if result.err != nil {
			// Drain remaining results so the workers can exit.
			for range results {
			}
			return nil, nil, result.err
		}
		payslips = append(payslips, result.payslip)
		for _, code := range result.warnings {
			warningCounts[code]++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(payslips, func(i, j int) bool {
		return payslips[i].EmployeeID < payslips[j].EmployeeID
	})
	return payslips, warningCounts, nil
}

func (p *Processor) calculateOne(
	ctx context.Context,
	employee engine.Employee,
	period engine.PayrollRun,
	run Run,
	calc *engine.PayslipCalculator,
	taxRule engine.IncomeTaxRule,
	nisRule engine.SocialSecurityRule,
) workResult {
	if err := ctx.Err(); err != nil {
		return workResult{err: err}
	}

	ytd, err := p.Store.YearToDate(ctx, employee.ID, run.TaxYear, run.PeriodStart)
	if err != nil {
		return workResult{err: fmt.Errorf("loading YTD for employee %s: %w", employee.ID, err)}
	}

	payslip, warnings := calc.Calculate(employee, period, taxRule, nisRule, ytd)
	return workResult{payslip: payslip, warnings: warnings}
}

// Reset discards a calculated run's payslips and returns it to draft so it
// can be processed again. Approved and paid runs cannot be reset.
func (p *Processor) Reset(ctx context.Context, runID string) (Run, error) {
	run, err := p.Store.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	switch run.Status {
	case StatusDraft:
		return run, nil
	case StatusCalculated:
	default:
		return Run{}, fmt.Errorf("run %s has status %s: %w", run.ID, run.Status, ErrRunNotDraft)
	}

	if err := p.Store.DeletePayslipsByRun(ctx, runID); err != nil {
		return Run{}, err
	}
	run.Status = StatusDraft
	run.CalculatedAt = nil
	run.EmployeeCount = 0
	run.WarningCounts = nil
	run.TotalGross, run.TotalPAYE = 0, 0
	run.TotalNISEmployee, run.TotalNISEmployer, run.TotalNet = 0, 0, 0
	if err := p.Store.UpdateRun(ctx, run); err != nil {
		return Run{}, err
	}

	p.logger().WithField("run_id", run.ID).Info("payroll run reset to draft")
	return run, nil
}

func (p *Processor) logger() logrus.FieldLogger {
	if p.Logger != nil {
		return p.Logger
	}
	return logrus.StandardLogger()
}
