package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const incomeColumns = "id, user_id, title, amount_cents, category, date, description, customer_id, created_at"

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO incomes ("+incomeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		in.ID, in.UserID, in.Title, in.Amount.Cents, in.Category, formatTime(in.Date),
		in.Description, nullString(in.CustomerID), formatTime(in.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", in.ID,
		"user_id", in.UserID,
		"amount_cents", in.Amount.Cents,
		"date", in.Date.Format("2006-01-02"))
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+incomeColumns+" FROM incomes WHERE id = ?", id)
	in, err := scanIncome(row)
	if err != nil {
		return core.Income{}, wrapNoRows(err, "income", id)
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM incomes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if err := affectedOrNotFound(res, "income", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Income deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, f core.ListFilter) ([]core.Income, error) {
	w := listFilterWhere(f, true)
	query := "SELECT " + incomeColumns + " FROM incomes" + w.String() +
		" ORDER BY date DESC, id ASC" + limitClause(f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

const expenseColumns = "id, user_id, title, amount_cents, category, date, description, created_at"

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Title, e.Amount.Cents, e.Category, formatTime(e.Date),
		e.Description, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date.Format("2006-01-02"))
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, wrapNoRows(err, "expense", id)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if err := affectedOrNotFound(res, "expense", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.ListFilter) ([]core.Expense, error) {
	w := listFilterWhere(f, false)
	query := "SELECT " + expenseColumns + " FROM expenses" + w.String() +
		" ORDER BY date DESC, id ASC" + limitClause(f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIncome(s scanner) (core.Income, error) {
	var (
		in         core.Income
		date, made string
		customer   sql.NullString
	)
	if err := s.Scan(&in.ID, &in.UserID, &in.Title, &in.Amount.Cents, &in.Category,
		&date, &in.Description, &customer, &made); err != nil {
		return core.Income{}, err
	}
	var err error
	if in.Date, err = parseTime(date); err != nil {
		return core.Income{}, err
	}
	if in.CreatedAt, err = parseTime(made); err != nil {
		return core.Income{}, err
	}
	in.CustomerID = customer.String
	return in, nil
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e          core.Expense
		date, made string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &e.Category,
		&date, &e.Description, &made); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.Date, err = parseTime(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(made); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
