package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

// SummaryKeyLister lists every stored summary across users.
type SummaryKeyLister interface {
	ListSummaryKeys(ctx context.Context) ([]core.SummaryKey, error)
}

// RefreshProcessor recomputes every stored summary. It heals rows left stale
// by failed recalculations or by writes that bypassed the ledger.
type RefreshProcessor struct {
	keys   SummaryKeyLister
	recalc *summary.Recalculator
}

func NewRefreshProcessor(keys SummaryKeyLister, recalc *summary.Recalculator) *RefreshProcessor {
	return &RefreshProcessor{keys: keys, recalc: recalc}
}

// RefreshAll recalculates each stored summary once and returns how many
// succeeded. A failing period is logged and skipped.
func (p *RefreshProcessor) RefreshAll(ctx context.Context) (int, error) {
	if p.keys == nil || p.recalc == nil {
		return 0, fmt.Errorf("refresh processor not properly initialized")
	}

	keys, err := p.keys.ListSummaryKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list summary keys: %w", err)
	}

	start := time.Now()
	slog.InfoContext(ctx, "Refreshing stored summaries", "total", len(keys))

	refreshed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "Summary refresh interrupted",
				"refreshed", refreshed,
				"total", len(keys))
			return refreshed, err
		}

		err := p.recalc.Touch(ctx, summary.Touch{UserID: key.UserID, Period: key.Period, Source: summary.SourceRefresh})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to refresh summary",
				"user_id", key.UserID,
				"month", key.Period.Month,
				"year", key.Period.Year,
				"error", err)
			continue
		}
		refreshed++
	}

	slog.InfoContext(ctx, "Summary refresh complete",
		"refreshed", refreshed,
		"total", len(keys),
		"duration_ms", time.Since(start).Milliseconds())

	return refreshed, nil
}
