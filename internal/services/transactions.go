package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// CreateIncome stores a new income of userID and recalculates the period of
// its date.
func (s *LedgerService) CreateIncome(ctx context.Context, userID string, in core.Income) (core.Income, error) {
	in.ID = s.newID()
	in.UserID = userID
	in.Date = in.Date.UTC()
	in.CreatedAt = s.now().UTC()
	if strings.TrimSpace(in.Category) == "" {
		in.Category = core.DefaultIncomeCategory
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	p, err := s.datedPeriod(in.Date)
	if err != nil {
		return core.Income{}, err
	}

	if err := s.store.CreateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	logWrite(ctx, "Income created", userID, in.ID, p)

	return in, s.touch(ctx, userID, SourceIncome, p)
}

// DeleteIncome removes an income and recalculates the period of its stored date.
func (s *LedgerService) DeleteIncome(ctx context.Context, userID, id string) error {
	in, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return fmt.Errorf("get income: %w", err)
	}
	if err := core.CheckOwner(in.UserID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	p := s.resolver.PeriodOf(in.Date)
	logWrite(ctx, "Income deleted", userID, id, p)

	return s.touch(ctx, userID, SourceIncome, p)
}

// ListIncomes returns the incomes of userID matching f, newest first.
func (s *LedgerService) ListIncomes(ctx context.Context, userID string, f core.ListFilter) ([]core.Income, error) {
	f.UserID = userID
	items, err := s.store.ListIncomes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return items, nil
}

// CreateExpense stores a new expense of userID and recalculates the period of
// its date.
func (s *LedgerService) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.ID = s.newID()
	e.UserID = userID
	e.Date = e.Date.UTC()
	e.CreatedAt = s.now().UTC()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	p, err := s.datedPeriod(e.Date)
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	logWrite(ctx, "Expense created", userID, e.ID, p)

	return e, s.touch(ctx, userID, SourceExpense, p)
}

// DeleteExpense removes an expense and recalculates the period of its stored
// date.
func (s *LedgerService) DeleteExpense(ctx context.Context, userID, id string) error {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if err := core.CheckOwner(e.UserID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	p := s.resolver.PeriodOf(e.Date)
	logWrite(ctx, "Expense deleted", userID, id, p)

	return s.touch(ctx, userID, SourceExpense, p)
}

func (s *LedgerService) ListExpenses(ctx context.Context, userID string, f core.ListFilter) ([]core.Expense, error) {
	f.UserID = userID
	items, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}
