package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const summaryColumns = `user_id, month, year, total_income_cents, total_expenses_cents, total_salaries_cents,
	profit_cents, expense_breakdown, income_breakdown, created_at, updated_at`

// UpsertSummary inserts the summary or overwrites the row already stored for
// (user, month, year). The unique index makes concurrent writers collapse onto
// one row; the last one wins and the original created_at is kept.
func (r *SQLiteRepository) UpsertSummary(ctx context.Context, s core.MonthlySummary) (core.MonthlySummary, error) {
	expenseJSON, err := json.Marshal(s.ExpenseBreakdown)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("marshal expense breakdown: %w", err)
	}
	incomeJSON, err := json.Marshal(s.IncomeBreakdown)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("marshal income breakdown: %w", err)
	}

	now := formatTime(r.now())
	var created, updated string
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO monthly_summaries (`+summaryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month, year) DO UPDATE SET
			total_income_cents   = excluded.total_income_cents,
			total_expenses_cents = excluded.total_expenses_cents,
			total_salaries_cents = excluded.total_salaries_cents,
			profit_cents         = excluded.profit_cents,
			expense_breakdown    = excluded.expense_breakdown,
			income_breakdown     = excluded.income_breakdown,
			updated_at           = excluded.updated_at
		 RETURNING created_at, updated_at`,
		s.UserID, s.Month, s.Year, s.TotalIncome.Cents, s.TotalExpenses.Cents, s.TotalSalaries.Cents,
		s.Profit.Cents, string(expenseJSON), string(incomeJSON), now, now,
	).Scan(&created, &updated)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("upsert summary %s %s: %w", s.UserID, s.Period(), err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return core.MonthlySummary{}, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return core.MonthlySummary{}, err
	}

	slog.DebugContext(ctx, "Summary upserted in SQLite",
		"user_id", s.UserID, "month", s.Month, "year", s.Year, "profit_cents", s.Profit.Cents)
	return s, nil
}

func (r *SQLiteRepository) GetSummary(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+summaryColumns+" FROM monthly_summaries WHERE user_id = ? AND month = ? AND year = ?",
		userID, p.Month, p.Year)
	s, err := scanSummary(row)
	if err != nil {
		return core.MonthlySummary{}, wrapNoRows(err, "summary", userID+" "+p.String())
	}
	return s, nil
}

func (r *SQLiteRepository) ListSummaries(ctx context.Context, userID string) ([]core.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+summaryColumns+" FROM monthly_summaries WHERE user_id = ? ORDER BY year DESC, month DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListSummaryKeys(ctx context.Context) ([]core.SummaryKey, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, month, year FROM monthly_summaries ORDER BY user_id ASC, year DESC, month DESC")
	if err != nil {
		return nil, fmt.Errorf("list summary keys: %w", err)
	}
	defer rows.Close()

	var out []core.SummaryKey
	for rows.Next() {
		var k core.SummaryKey
		if err := rows.Scan(&k.UserID, &k.Period.Month, &k.Period.Year); err != nil {
			return nil, fmt.Errorf("scan summary key: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary keys: %w", err)
	}
	return out, nil
}

func scanSummary(s scanner) (core.MonthlySummary, error) {
	var (
		sum                     core.MonthlySummary
		expenseJSON, incomeJSON string
		created, modified       string
	)
	if err := s.Scan(&sum.UserID, &sum.Month, &sum.Year, &sum.TotalIncome.Cents, &sum.TotalExpenses.Cents,
		&sum.TotalSalaries.Cents, &sum.Profit.Cents, &expenseJSON, &incomeJSON, &created, &modified); err != nil {
		return core.MonthlySummary{}, err
	}
	if err := json.Unmarshal([]byte(expenseJSON), &sum.ExpenseBreakdown); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("decode expense breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(incomeJSON), &sum.IncomeBreakdown); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("decode income breakdown: %w", err)
	}
	var err error
	if sum.CreatedAt, err = parseTime(created); err != nil {
		return core.MonthlySummary{}, err
	}
	if sum.UpdatedAt, err = parseTime(modified); err != nil {
		return core.MonthlySummary{}, err
	}
	return sum, nil
}
