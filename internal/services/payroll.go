package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// CreateExpenseCategory stores a bucket and recalculates its own period.
func (s *LedgerService) CreateExpenseCategory(ctx context.Context, userID string, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	now := s.now().UTC()
	c.ID = s.newID()
	c.UserID = userID
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		return core.ExpenseCategory{}, err
	}

	if err := s.store.CreateExpenseCategory(ctx, c); err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("create expense category: %w", err)
	}
	logWrite(ctx, "Expense category created", userID, c.ID, c.Period())

	return c, s.touch(ctx, userID, SourceExpenseCategory, c.Period())
}

// UpdateExpenseCategory replaces the editable fields of a bucket. When the
// bucket moves to another month both the new and the old period are
// recalculated.
func (s *LedgerService) UpdateExpenseCategory(ctx context.Context, userID, id string, upd core.ExpenseCategory) (core.ExpenseCategory, error) {
	c, err := s.store.GetExpenseCategory(ctx, id)
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("get expense category: %w", err)
	}
	if err := core.CheckOwner(c.UserID, userID); err != nil {
		return core.ExpenseCategory{}, err
	}
	old := c.Period()

	c.Category = upd.Category
	c.Amount = upd.Amount
	c.Month = upd.Month
	c.Year = upd.Year
	c.Description = upd.Description
	c.UpdatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return core.ExpenseCategory{}, err
	}

	if err := s.store.UpdateExpenseCategory(ctx, c); err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("update expense category: %w", err)
	}
	logWrite(ctx, "Expense category updated", userID, id, c.Period())

	periods := []core.Period{c.Period()}
	if old != c.Period() {
		slog.InfoContext(ctx, "Expense category moved",
			"user_id", userID,
			"id", id,
			"from", old.String(),
			"to", c.Period().String())
		periods = append(periods, old)
	}
	return c, s.touch(ctx, userID, SourceExpenseCategory, periods...)
}

func (s *LedgerService) DeleteExpenseCategory(ctx context.Context, userID, id string) error {
	c, err := s.store.GetExpenseCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense category: %w", err)
	}
	if err := core.CheckOwner(c.UserID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteExpenseCategory(ctx, id); err != nil {
		return fmt.Errorf("delete expense category: %w", err)
	}
	logWrite(ctx, "Expense category deleted", userID, id, c.Period())

	return s.touch(ctx, userID, SourceExpenseCategory, c.Period())
}

// ListExpenseCategories returns the buckets of userID, of one period when p
// is not nil.
func (s *LedgerService) ListExpenseCategories(ctx context.Context, userID string, p *core.Period) ([]core.ExpenseCategory, error) {
	if p != nil {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	items, err := s.store.ListExpenseCategories(ctx, core.PeriodFilter{UserID: userID, Period: p})
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	return items, nil
}

// Employees change the salaries of every period, so each employee write
// recalculates all stored summaries of the user.

func (s *LedgerService) CreateEmployee(ctx context.Context, userID string, e core.Employee) (core.Employee, error) {
	now := s.now().UTC()
	e.ID = s.newID()
	e.UserID = userID
	e.IsActive = true
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.DateJoined.IsZero() {
		e.DateJoined = now
	}
	e.DateJoined = e.DateJoined.UTC()
	if err := e.Validate(); err != nil {
		return core.Employee{}, err
	}

	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return core.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	slog.InfoContext(ctx, "Employee created", "user_id", userID, "id", e.ID, "salary_cents", e.Salary.Cents)

	return e, s.touchAll(ctx, userID, SourceEmployee)
}

func (s *LedgerService) GetEmployee(ctx context.Context, userID, id string) (core.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return core.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	if err := core.CheckOwner(e.UserID, userID); err != nil {
		return core.Employee{}, err
	}
	return e, nil
}

// UpdateEmployee replaces the editable fields of an employee, including the
// active flag.
func (s *LedgerService) UpdateEmployee(ctx context.Context, userID, id string, upd core.Employee) (core.Employee, error) {
	e, err := s.GetEmployee(ctx, userID, id)
	if err != nil {
		return core.Employee{}, err
	}
	e.Name = upd.Name
	e.Salary = upd.Salary
	e.JobTitle = upd.JobTitle
	e.PhoneNumber = upd.PhoneNumber
	e.IsActive = upd.IsActive
	if !upd.DateJoined.IsZero() {
		e.DateJoined = upd.DateJoined.UTC()
	}
	e.UpdatedAt = s.now().UTC()
	if err := e.Validate(); err != nil {
		return core.Employee{}, err
	}

	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return core.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	slog.InfoContext(ctx, "Employee updated",
		"user_id", userID,
		"id", id,
		"salary_cents", e.Salary.Cents,
		"active", e.IsActive)

	return e, s.touchAll(ctx, userID, SourceEmployee)
}

// DeactivateEmployee soft-deletes an employee. Its salary no longer counts in
// any recalculated period.
func (s *LedgerService) DeactivateEmployee(ctx context.Context, userID, id string) error {
	e, err := s.GetEmployee(ctx, userID, id)
	if err != nil {
		return err
	}
	if !e.IsActive {
		return nil
	}
	e.IsActive = false
	e.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	slog.InfoContext(ctx, "Employee deactivated", "user_id", userID, "id", id)

	return s.touchAll(ctx, userID, SourceEmployee)
}

func (s *LedgerService) ListEmployees(ctx context.Context, userID string, activeOnly bool) ([]core.Employee, error) {
	items, err := s.store.ListEmployees(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return items, nil
}

// CreateEmployeeTransaction books a bonus or deduction for one of the user's
// employees and recalculates the transaction's own period.
func (s *LedgerService) CreateEmployeeTransaction(ctx context.Context, userID, employeeID string, t core.EmployeeTransaction) (core.EmployeeTransaction, error) {
	if _, err := s.GetEmployee(ctx, userID, employeeID); err != nil {
		return core.EmployeeTransaction{}, err
	}
	t.ID = s.newID()
	t.UserID = userID
	t.EmployeeID = employeeID
	t.CreatedAt = s.now().UTC()
	if err := t.Validate(); err != nil {
		return core.EmployeeTransaction{}, err
	}

	if err := s.store.CreateEmployeeTransaction(ctx, t); err != nil {
		return core.EmployeeTransaction{}, fmt.Errorf("create employee transaction: %w", err)
	}
	logWrite(ctx, "Employee transaction created", userID, t.ID, t.Period())

	return t, s.touch(ctx, userID, SourceTransaction, t.Period())
}

func (s *LedgerService) DeleteEmployeeTransaction(ctx context.Context, userID, id string) error {
	t, err := s.store.GetEmployeeTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get employee transaction: %w", err)
	}
	if err := core.CheckOwner(t.UserID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteEmployeeTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete employee transaction: %w", err)
	}
	logWrite(ctx, "Employee transaction deleted", userID, id, t.Period())

	return s.touch(ctx, userID, SourceTransaction, t.Period())
}

// ListEmployeeTransactions returns the adjustments of one employee, of one
// period when p is not nil.
func (s *LedgerService) ListEmployeeTransactions(ctx context.Context, userID, employeeID string, p *core.Period) ([]core.EmployeeTransaction, error) {
	if _, err := s.GetEmployee(ctx, userID, employeeID); err != nil {
		return nil, err
	}
	items, err := s.store.ListEmployeeTransactions(ctx, core.PeriodFilter{UserID: userID, Period: p, EmployeeID: employeeID})
	if err != nil {
		return nil, fmt.Errorf("list employee transactions: %w", err)
	}
	return items, nil
}
