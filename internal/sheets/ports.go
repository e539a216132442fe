package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter exports a monthly summary, replacing the row already
	// written for the same user and month.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, s core.MonthlySummary) (rowRef string, err error)
	}

	// SummaryReader returns the summaries exported for one user and year.
	SummaryReader interface {
		ReadYear(ctx context.Context, userID string, year int) ([]core.MonthlySummary, error)
	}

	SummaryExporter interface {
		SummaryWriter
		SummaryReader
	}
)
