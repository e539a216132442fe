package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const customerColumns = "id, user_id, name, brand_name, phone_number, monthly_amount_cents, last_paid_date, payment_deadline, created_at, updated_at"

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func (r *SQLiteRepository) CreateCustomer(ctx context.Context, c core.Customer) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO customers ("+customerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.UserID, c.Name, c.BrandName, c.PhoneNumber, c.MonthlyAmount.Cents,
		nullTime(c.LastPaidDate), c.PaymentDeadline, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	slog.InfoContext(ctx, "Customer saved to SQLite", "id", c.ID, "monthly_amount_cents", c.MonthlyAmount.Cents)
	return nil
}

func (r *SQLiteRepository) GetCustomer(ctx context.Context, id string) (core.Customer, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = ?", id)
	c, err := scanCustomer(row)
	if err != nil {
		return core.Customer{}, wrapNoRows(err, "customer", id)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCustomer(ctx context.Context, c core.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers
		 SET name = ?, brand_name = ?, phone_number = ?, monthly_amount_cents = ?, last_paid_date = ?,
		     payment_deadline = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.BrandName, c.PhoneNumber, c.MonthlyAmount.Cents, nullTime(c.LastPaidDate),
		c.PaymentDeadline, formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return affectedOrNotFound(res, "customer", c.ID)
}

func (r *SQLiteRepository) DeleteCustomer(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return affectedOrNotFound(res, "customer", id)
}

func (r *SQLiteRepository) ListCustomers(ctx context.Context, userID string) ([]core.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE user_id = ? ORDER BY name ASC, id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []core.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

func scanCustomer(s scanner) (core.Customer, error) {
	var (
		c                 core.Customer
		lastPaid          sql.NullString
		created, modified string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.BrandName, &c.PhoneNumber, &c.MonthlyAmount.Cents,
		&lastPaid, &c.PaymentDeadline, &created, &modified); err != nil {
		return core.Customer{}, err
	}
	var err error
	if lastPaid.Valid {
		t, err := parseTime(lastPaid.String)
		if err != nil {
			return core.Customer{}, err
		}
		c.LastPaidDate = &t
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return core.Customer{}, err
	}
	if c.UpdatedAt, err = parseTime(modified); err != nil {
		return core.Customer{}, err
	}
	return c, nil
}
