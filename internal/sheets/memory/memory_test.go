package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func summary(user string, month, year int, profit int64) core.MonthlySummary {
	s := core.MonthlySummary{UserID: user, Month: month, Year: year}
	s.Profit = core.Cents(profit)
	return s
}

func TestStoreWriteReplacesRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.WriteSummary(ctx, summary("u1", 3, 2024, 100))
	if err != nil || ref != "mem:u1:2024-03" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
	if _, err := s.WriteSummary(ctx, summary("u1", 3, 2024, 250)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteSummary(ctx, summary("u1", 1, 2024, 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteSummary(ctx, summary("u2", 3, 2024, 7)); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ReadYear(ctx, "u1", 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Month != 1 || rows[1].Month != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[1].Profit.Cents != 250 {
		t.Fatalf("row was not replaced: %v", rows[1].Profit)
	}
	if s.Writes() != 4 {
		t.Fatalf("Writes() = %d", s.Writes())
	}
}

func TestStoreWriteRejectsInvalidKey(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		sum  core.MonthlySummary
	}{
		{"no user", summary("", 3, 2024, 0)},
		{"bad month", summary("u1", 0, 2024, 0)},
		{"bad year", summary("u1", 3, 1999, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.WriteSummary(context.Background(), tt.sum)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
	if s.Writes() != 0 {
		t.Fatalf("Writes() = %d", s.Writes())
	}
}
