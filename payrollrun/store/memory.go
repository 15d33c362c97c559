// Package store provides payrollrun.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payrollrun"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	runs      map[string]payrollrun.Run
	employees map[string]engine.Employee
	payslips  map[string][]engine.Payslip // keyed by run ID
}

func NewMemory() *Memory {
	return &Memory{
		runs:      make(map[string]payrollrun.Run),
		employees: make(map[string]engine.Employee),
		payslips:  make(map[string][]engine.Payslip),
	}
}

// =============================================================================
// RUN STORE
// =============================================================================

func (m *Memory) CreateRun(_ context.Context, run payrollrun.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (payrollrun.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return payrollrun.Run{}, payrollrun.ErrRunNotFound
	}
	return run, nil
}

func (m *Memory) UpdateRun(_ context.Context, run payrollrun.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return payrollrun.ErrRunNotFound
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) ListRuns(_ context.Context) ([]payrollrun.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]payrollrun.Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].PeriodStart.Before(runs[j].PeriodStart)
	})
	return runs, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (m *Memory) PutEmployee(_ context.Context, employee engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[employee.ID] = employee
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	employee, ok := m.employees[id]
	if !ok {
		return engine.Employee{}, payrollrun.ErrEmployeeNotFound
	}
	return employee, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	employees := make([]engine.Employee, 0, len(m.employees))
	for _, employee := range m.employees {
		employees = append(employees, employee)
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].ID < employees[j].ID
	})
	return employees, nil
}

// =============================================================================
// PAYSLIP STORE
// =============================================================================

func (m *Memory) SavePayslips(_ context.Context, payslips []engine.Payslip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, payslip := range payslips {
		m.payslips[payslip.PayrollRunID] = append(m.payslips[payslip.PayrollRunID], payslip)
	}
	return nil
}

func (m *Memory) DeletePayslipsByRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payslips, runID)
	return nil
}

func (m *Memory) PayslipsByRun(_ context.Context, runID string) ([]engine.Payslip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.Payslip, len(m.payslips[runID]))
	copy(result, m.payslips[runID])
	return result, nil
}

func (m *Memory) PayslipsByEmployee(_ context.Context, employeeID string, year int) ([]engine.Payslip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Payslip
	for _, slips := range m.payslips {
		for _, payslip := range slips {
			if payslip.EmployeeID == employeeID && payslip.PeriodStart.Year() == year {
				result = append(result, payslip)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})
	return result, nil
}

func (m *Memory) YearToDate(_ context.Context, employeeID string, year int, before time.Time) (engine.YTD, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ytd engine.YTD
	for _, slips := range m.payslips {
		for _, payslip := range slips {
			if payslip.EmployeeID != employeeID ||
				payslip.PeriodStart.Year() != year ||
				!payslip.PeriodStart.Before(before) {
				continue
			}
			ytd.GrossEarnings += payslip.GrossEarnings
			ytd.PAYE += payslip.PAYEAmount
			ytd.NIS += payslip.NISEmployee
		}
	}
	return ytd, nil
}
