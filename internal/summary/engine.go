// Package summary computes, stores and serves monthly financial summaries.
//
// A summary is derived data: the Engine rebuilds it from incomes, expenses,
// expense category buckets, active employees and payroll adjustments of one
// period, and the Service writes the result with an idempotent upsert keyed by
// (user, month, year). Mutations elsewhere report the periods they touched to
// the Recalculator, which recomputes exactly those summaries.
package summary

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// Source is the read side of the record store the engine aggregates from.
type Source interface {
	ListIncomes(ctx context.Context, f core.ListFilter) ([]core.Income, error)
	ListExpenses(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
	ListExpenseCategories(ctx context.Context, f core.PeriodFilter) ([]core.ExpenseCategory, error)
	ListEmployees(ctx context.Context, userID string, activeOnly bool) ([]core.Employee, error)
	ListEmployeeTransactions(ctx context.Context, f core.PeriodFilter) ([]core.EmployeeTransaction, error)
}

// Engine aggregates one user's records for one period. It holds no state
// between calls.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Compute returns the totals of userID for period p.
//
// Incomes and expenses are selected by the UTC range of the month, category
// buckets and payroll adjustments by their explicit month and year. Every
// currently active employee contributes a full base salary. Any read failure
// aborts the computation.
func (e *Engine) Compute(ctx context.Context, userID string, p core.Period) (core.SummaryResult, error) {
	if err := p.Validate(); err != nil {
		return core.SummaryResult{}, err
	}
	inRange := core.ListFilter{UserID: userID}.InPeriod(p)
	inPeriod := core.PeriodFilter{UserID: userID, Period: &p}

	var res core.SummaryResult

	incomes, err := e.source.ListIncomes(ctx, inRange)
	if err != nil {
		return core.SummaryResult{}, fmt.Errorf("list incomes: %w", err)
	}
	for _, in := range incomes {
		res.TotalIncome = res.TotalIncome.Add(in.Amount)
	}

	expenses, err := e.source.ListExpenses(ctx, inRange)
	if err != nil {
		return core.SummaryResult{}, fmt.Errorf("list expenses: %w", err)
	}
	var regular core.Money
	for _, ex := range expenses {
		regular = regular.Add(ex.Amount)
	}

	categories, err := e.source.ListExpenseCategories(ctx, inPeriod)
	if err != nil {
		return core.SummaryResult{}, fmt.Errorf("list expense categories: %w", err)
	}
	var bucketed core.Money
	for _, c := range categories {
		bucketed = bucketed.Add(c.Amount)
		res.ExpenseBreakdown.Add(c.Category, c.Amount)
	}
	res.ExpenseBreakdown.RegularExpenses = regular
	res.TotalExpenses = regular.Add(bucketed)

	employees, err := e.source.ListEmployees(ctx, userID, true)
	if err != nil {
		return core.SummaryResult{}, fmt.Errorf("list active employees: %w", err)
	}
	var salaries core.Money
	for _, emp := range employees {
		if emp.IsActive {
			salaries = salaries.Add(emp.Salary)
		}
	}

	adjustments, err := e.source.ListEmployeeTransactions(ctx, inPeriod)
	if err != nil {
		return core.SummaryResult{}, fmt.Errorf("list employee transactions: %w", err)
	}
	for _, t := range adjustments {
		salaries = salaries.Add(t.Signed())
	}
	res.TotalSalaries = salaries

	res.Profit = res.TotalIncome.Sub(res.TotalExpenses).Sub(res.TotalSalaries)
	res.IncomeBreakdown = core.IncomeBreakdown{MonthlyCollections: res.TotalIncome}
	return res, nil
}
