package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
	"fintrack/internal/summary"
)

var march2024 = core.Period{Month: 3, Year: 2024}

func newTestWorker(t *testing.T) (*memory.Store, *summary.Service, *sheetsmem.Store, *PeriodWorker) {
	t.Helper()
	store := memory.New()
	err := store.CreateIncome(context.Background(), core.Income{
		ID:       "in-1",
		UserID:   "u1",
		Title:    "Sale",
		Amount:   core.Cents(100000),
		Category: core.DefaultIncomeCategory,
		Date:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	svc := summary.NewService(summary.NewEngine(store), store)
	sheet := sheetsmem.New()
	return store, svc, sheet, NewPeriodWorker(svc, store, sheet, sheet)
}

func TestHandlePeriodTouched_ExportsStoredSummary(t *testing.T) {
	_, _, sheet, w := newTestWorker(t)
	ctx := context.Background()

	msg := amqp.NewPeriodTouchedMessage("u1", march2024, "income")
	if err := w.HandlePeriodTouched(ctx, msg); err != nil {
		t.Fatalf("HandlePeriodTouched() error = %v", err)
	}

	rows, _ := sheet.ReadYear(ctx, "u1", 2024)
	if len(rows) != 1 || rows[0].TotalIncome.Cents != 100000 || rows[0].Profit.Cents != 100000 {
		t.Fatalf("unexpected exported rows %+v", rows)
	}
}

type failingWriter struct{}

func (failingWriter) WriteSummary(context.Context, core.MonthlySummary) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandlePeriodTouched_WriterFailureIsReturned(t *testing.T) {
	store, svc, _, _ := newTestWorker(t)
	w := NewPeriodWorker(svc, store, failingWriter{}, nil)

	err := w.HandlePeriodTouched(context.Background(), amqp.NewPeriodTouchedMessage("u1", march2024, "income"))
	if err == nil {
		t.Fatal("expected an error so the message is requeued")
	}
}

func TestStartupExportCheck_ExportsMissingAndStaleRows(t *testing.T) {
	_, svc, sheet, w := newTestWorker(t)
	ctx := context.Background()

	// Two stored periods: March has income, April is empty.
	if _, err := svc.Get(ctx, "u1", march2024); err != nil {
		t.Fatal(err)
	}
	april := core.Period{Month: 4, Year: 2024}
	if _, err := svc.Get(ctx, "u1", april); err != nil {
		t.Fatal(err)
	}

	// April is already exported and current; March was exported before the
	// income existed.
	aprilRow, _ := svc.Get(ctx, "u1", april)
	if _, err := sheet.WriteSummary(ctx, aprilRow); err != nil {
		t.Fatal(err)
	}
	stale := core.MonthlySummary{UserID: "u1", Month: 3, Year: 2024}
	if _, err := sheet.WriteSummary(ctx, stale); err != nil {
		t.Fatal(err)
	}
	before := sheet.Writes()

	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck() error = %v", err)
	}

	if got := sheet.Writes() - before; got != 1 {
		t.Fatalf("expected only the stale row to be rewritten, got %d writes", got)
	}
	rows, _ := sheet.ReadYear(ctx, "u1", 2024)
	if len(rows) != 2 || rows[0].TotalIncome.Cents != 100000 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestStartupExportCheck_WithoutReaderExportsEverything(t *testing.T) {
	store, svc, sheet, _ := newTestWorker(t)
	ctx := context.Background()
	for m := 1; m <= 3; m++ {
		if _, err := svc.Get(ctx, "u1", core.Period{Month: m, Year: 2024}); err != nil {
			t.Fatal(err)
		}
	}

	w := NewPeriodWorker(svc, store, sheet, nil)
	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if sheet.Writes() != 3 {
		t.Fatalf("Writes() = %d, want 3", sheet.Writes())
	}
}

func TestStartupExportCheck_NoSummaries(t *testing.T) {
	_, _, sheet, w := newTestWorker(t)
	if err := w.StartupExportCheck(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sheet.Writes() != 0 {
		t.Fatalf("Writes() = %d", sheet.Writes())
	}
}

func TestHandlePeriodTouched_SkipsUnchangedRows(t *testing.T) {
	store, _, sheet, w := newTestWorker(t)
	ctx := context.Background()
	msg := amqp.NewPeriodTouchedMessage("u1", march2024, "income")

	for i := 0; i < 3; i++ {
		if err := w.HandlePeriodTouched(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}
	if sheet.Writes() != 1 {
		t.Fatalf("repeated events for an unchanged period wrote %d rows", sheet.Writes())
	}

	err := store.CreateIncome(ctx, core.Income{
		ID: "in-2", UserID: "u1", Title: "Sale", Amount: core.Cents(5000),
		Category: core.DefaultIncomeCategory, Date: time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	svc := summary.NewService(summary.NewEngine(store), store)
	if _, err := svc.Recalculate(ctx, "u1", march2024); err != nil {
		t.Fatal(err)
	}
	if err := w.HandlePeriodTouched(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if sheet.Writes() != 2 {
		t.Fatalf("a changed period must be exported again, got %d writes", sheet.Writes())
	}
}

func TestHandlePeriodTouched_WithoutRecentExports(t *testing.T) {
	store, svc, sheet, _ := newTestWorker(t)
	w := NewPeriodWorker(svc, store, sheet, sheet, WithRecentExports(0, 0))
	msg := amqp.NewPeriodTouchedMessage("u1", march2024, "income")

	for i := 0; i < 2; i++ {
		if err := w.HandlePeriodTouched(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}
	if sheet.Writes() != 2 {
		t.Fatalf("Writes() = %d, want 2", sheet.Writes())
	}
}
