package worker

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

const (
	defaultRecentSize = 1024
	defaultRecentTTL  = time.Hour
)

// SummaryReader returns the stored summary of a period, materializing it
// when missing.
type SummaryReader interface {
	Get(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error)
}

// KeyLister enumerates every stored summary.
type KeyLister interface {
	ListSummaryKeys(ctx context.Context) ([]core.SummaryKey, error)
}

// PeriodWorker exports touched summaries to the spreadsheet.
type PeriodWorker struct {
	summaries SummaryReader
	keys      KeyLister
	writer    sheets.SummaryWriter
	reader    sheets.SummaryReader

	// last exported row per key; repeated events for an unchanged period
	// skip the spreadsheet until the entry expires
	recent *cache.LRU[core.SummaryKey, core.MonthlySummary]
}

type Option func(*PeriodWorker)

// WithRecentExports sizes the cache of exported rows. A zero ttl disables it.
func WithRecentExports(size int, ttl time.Duration) Option {
	return func(w *PeriodWorker) {
		if ttl <= 0 {
			w.recent = nil
			return
		}
		w.recent = cache.NewLRU[core.SummaryKey, core.MonthlySummary](size, ttl)
	}
}

// NewPeriodWorker returns a worker. reader may be nil, in which case the
// startup check exports every stored summary.
func NewPeriodWorker(summaries SummaryReader, keys KeyLister, writer sheets.SummaryWriter, reader sheets.SummaryReader, opts ...Option) *PeriodWorker {
	w := &PeriodWorker{
		summaries: summaries,
		keys:      keys,
		writer:    writer,
		reader:    reader,
		recent:    cache.NewLRU[core.SummaryKey, core.MonthlySummary](defaultRecentSize, defaultRecentTTL),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandlePeriodTouched exports the current summary of the touched period.
// The message carries only the key, so the row written is always the
// latest stored state even when events arrive out of order.
func (w *PeriodWorker) HandlePeriodTouched(ctx context.Context, msg *amqp.PeriodTouchedMessage) error {
	slog.InfoContext(ctx, "Processing period touched message",
		"user_id", msg.UserID,
		"month", msg.Month,
		"year", msg.Year,
		"source", msg.Source)

	s, err := w.summaries.Get(ctx, msg.UserID, msg.Period())
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}

	key := core.SummaryKey{UserID: s.UserID, Period: s.Period()}
	if w.recent != nil {
		if last, ok := w.recent.Get(key); ok && sameRow(last, s) {
			slog.DebugContext(ctx, "Summary unchanged since last export, skipping",
				"user_id", s.UserID,
				"period", key.Period.String())
			return nil
		}
	}
	return w.export(ctx, s)
}

// StartupExportCheck re-exports every stored summary whose exported row is
// missing or differs, recovering from events lost while the worker was down.
func (w *PeriodWorker) StartupExportCheck(ctx context.Context) error {
	keys, err := w.keys.ListSummaryKeys(ctx)
	if err != nil {
		return fmt.Errorf("list summary keys: %w", err)
	}
	if len(keys) == 0 {
		slog.InfoContext(ctx, "No stored summaries found on startup")
		return nil
	}

	type userYear struct {
		userID string
		year   int
	}
	groups := make(map[userYear][]core.Period)
	for _, k := range keys {
		g := userYear{k.UserID, k.Period.Year}
		groups[g] = append(groups[g], k.Period)
	}
	order := make([]userYear, 0, len(groups))
	for g := range groups {
		order = append(order, g)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].userID != order[j].userID {
			return order[i].userID < order[j].userID
		}
		return order[i].year < order[j].year
	})

	exported, upToDate, errorCount := 0, 0, 0
	for _, g := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		exportedRows := map[int]core.MonthlySummary{}
		if w.reader != nil {
			rows, err := w.reader.ReadYear(ctx, g.userID, g.year)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to read exported summaries",
					"user_id", g.userID, "year", g.year, "error", err)
				errorCount += len(groups[g])
				continue
			}
			for _, r := range rows {
				exportedRows[r.Month] = r
			}
		}

		for _, p := range groups[g] {
			s, err := w.summaries.Get(ctx, g.userID, p)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to get summary for startup export",
					"user_id", g.userID, "period", p.String(), "error", err)
				errorCount++
				continue
			}
			if row, ok := exportedRows[p.Month]; ok && sameTotals(row, s) {
				upToDate++
				continue
			}
			if err := w.export(ctx, s); err != nil {
				slog.ErrorContext(ctx, "Failed to export summary during startup",
					"user_id", g.userID, "period", p.String(), "error", err)
				errorCount++
				continue
			}
			exported++
		}
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(keys),
		"exported", exported,
		"up_to_date", upToDate,
		"errors", errorCount)
	return nil
}

func (w *PeriodWorker) export(ctx context.Context, s core.MonthlySummary) error {
	ref, err := w.writer.WriteSummary(ctx, s)
	if err != nil {
		return fmt.Errorf("write summary to sheets: %w", err)
	}
	if w.recent != nil {
		w.recent.Set(core.SummaryKey{UserID: s.UserID, Period: s.Period()}, s)
	}
	slog.InfoContext(ctx, "Successfully exported summary",
		"user_id", s.UserID,
		"period", s.Period().String(),
		"sheets_ref", ref,
		"profit_cents", s.Profit.Cents)
	return nil
}

func sameTotals(a, b core.MonthlySummary) bool {
	return a.TotalIncome == b.TotalIncome &&
		a.TotalExpenses == b.TotalExpenses &&
		a.TotalSalaries == b.TotalSalaries &&
		a.Profit == b.Profit
}

// sameRow compares every exported column except the update time.
func sameRow(a, b core.MonthlySummary) bool {
	return sameTotals(a, b) &&
		a.ExpenseBreakdown.RegularExpenses == b.ExpenseBreakdown.RegularExpenses &&
		maps.Equal(a.ExpenseBreakdown.Categories, b.ExpenseBreakdown.Categories)
}
