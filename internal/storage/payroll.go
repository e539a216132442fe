package storage

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const categoryColumns = "id, user_id, category, amount_cents, month, year, description, created_at, updated_at"

func (r *SQLiteRepository) CreateExpenseCategory(ctx context.Context, c core.ExpenseCategory) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO expense_categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.UserID, c.Category, c.Amount.Cents, c.Month, c.Year, c.Description,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert expense category: %w", err)
	}
	slog.InfoContext(ctx, "Expense category saved to SQLite",
		"id", c.ID, "category", c.Category, "amount_cents", c.Amount.Cents,
		"month", c.Month, "year", c.Year)
	return nil
}

func (r *SQLiteRepository) GetExpenseCategory(ctx context.Context, id string) (core.ExpenseCategory, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM expense_categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if err != nil {
		return core.ExpenseCategory{}, wrapNoRows(err, "expense category", id)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateExpenseCategory(ctx context.Context, c core.ExpenseCategory) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expense_categories
		 SET category = ?, amount_cents = ?, month = ?, year = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		c.Category, c.Amount.Cents, c.Month, c.Year, c.Description, formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update expense category: %w", err)
	}
	return affectedOrNotFound(res, "expense category", c.ID)
}

func (r *SQLiteRepository) DeleteExpenseCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expense_categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense category: %w", err)
	}
	return affectedOrNotFound(res, "expense category", id)
}

func (r *SQLiteRepository) ListExpenseCategories(ctx context.Context, f core.PeriodFilter) ([]core.ExpenseCategory, error) {
	w := periodFilterWhere(f, false)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM expense_categories"+w.String()+
			" ORDER BY year DESC, month DESC, category ASC, id ASC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense categories: %w", err)
	}
	return out, nil
}

func scanCategory(s scanner) (core.ExpenseCategory, error) {
	var (
		c                 core.ExpenseCategory
		created, modified string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Category, &c.Amount.Cents, &c.Month, &c.Year,
		&c.Description, &created, &modified); err != nil {
		return core.ExpenseCategory{}, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return core.ExpenseCategory{}, err
	}
	if c.UpdatedAt, err = parseTime(modified); err != nil {
		return core.ExpenseCategory{}, err
	}
	return c, nil
}

const employeeColumns = "id, user_id, name, salary_cents, job_title, phone_number, date_joined, is_active, created_at, updated_at"

func (r *SQLiteRepository) CreateEmployee(ctx context.Context, e core.Employee) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO employees ("+employeeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Name, e.Salary.Cents, e.JobTitle, e.PhoneNumber,
		formatTime(e.DateJoined), boolToInt(e.IsActive), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	slog.InfoContext(ctx, "Employee saved to SQLite", "id", e.ID, "salary_cents", e.Salary.Cents)
	return nil
}

func (r *SQLiteRepository) GetEmployee(ctx context.Context, id string) (core.Employee, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if err != nil {
		return core.Employee{}, wrapNoRows(err, "employee", id)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateEmployee(ctx context.Context, e core.Employee) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE employees
		 SET name = ?, salary_cents = ?, job_title = ?, phone_number = ?, date_joined = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Salary.Cents, e.JobTitle, e.PhoneNumber, formatTime(e.DateJoined),
		boolToInt(e.IsActive), formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return affectedOrNotFound(res, "employee", e.ID)
}

func (r *SQLiteRepository) ListEmployees(ctx context.Context, userID string, activeOnly bool) ([]core.Employee, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", userID)
	if activeOnly {
		w.add("is_active = 1")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees"+w.String()+" ORDER BY name ASC, id ASC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []core.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

func scanEmployee(s scanner) (core.Employee, error) {
	var (
		e                         core.Employee
		joined, created, modified string
		active                    int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Salary.Cents, &e.JobTitle, &e.PhoneNumber,
		&joined, &active, &created, &modified); err != nil {
		return core.Employee{}, err
	}
	e.IsActive = active != 0
	var err error
	if e.DateJoined, err = parseTime(joined); err != nil {
		return core.Employee{}, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return core.Employee{}, err
	}
	if e.UpdatedAt, err = parseTime(modified); err != nil {
		return core.Employee{}, err
	}
	return e, nil
}

const transactionColumns = "id, user_id, employee_id, type, amount_cents, month, year, description, created_at"

func (r *SQLiteRepository) CreateEmployeeTransaction(ctx context.Context, t core.EmployeeTransaction) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO employee_transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.EmployeeID, string(t.Type), t.Amount.Cents, t.Month, t.Year,
		t.Description, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert employee transaction: %w", err)
	}
	slog.InfoContext(ctx, "Employee transaction saved to SQLite",
		"id", t.ID, "employee_id", t.EmployeeID, "type", t.Type,
		"amount_cents", t.Amount.Cents, "month", t.Month, "year", t.Year)
	return nil
}

func (r *SQLiteRepository) GetEmployeeTransaction(ctx context.Context, id string) (core.EmployeeTransaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM employee_transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.EmployeeTransaction{}, wrapNoRows(err, "employee transaction", id)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteEmployeeTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM employee_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete employee transaction: %w", err)
	}
	return affectedOrNotFound(res, "employee transaction", id)
}

func (r *SQLiteRepository) ListEmployeeTransactions(ctx context.Context, f core.PeriodFilter) ([]core.EmployeeTransaction, error) {
	w := periodFilterWhere(f, true)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM employee_transactions"+w.String()+
			" ORDER BY year DESC, month DESC, created_at ASC, id ASC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list employee transactions: %w", err)
	}
	defer rows.Close()

	var out []core.EmployeeTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(s scanner) (core.EmployeeTransaction, error) {
	var (
		t       core.EmployeeTransaction
		kind    string
		created string
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.EmployeeID, &kind, &t.Amount.Cents, &t.Month, &t.Year,
		&t.Description, &created); err != nil {
		return core.EmployeeTransaction{}, err
	}
	t.Type = core.TransactionType(kind)
	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.EmployeeTransaction{}, err
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
