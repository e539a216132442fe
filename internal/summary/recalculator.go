package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

// ErrRecalculation marks a failure to refresh a summary after the mutation
// that triggered it was already committed.
var ErrRecalculation = errors.New("summary recalculation failed")

// Touch reports that a mutation changed the inputs of one user's period.
type Touch struct {
	UserID string
	Period core.Period
	Source string
}

// Publisher fans period-touched events out to other processes.
type Publisher interface {
	PublishPeriodTouched(ctx context.Context, userID string, p core.Period, source string) error
}

// Recalculator is the single subscriber of period-touched events. It
// recomputes each touched summary synchronously and then publishes the event.
type Recalculator struct {
	service   *Service
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewRecalculator returns a recalculator; pub may be nil.
func NewRecalculator(service *Service, pub Publisher, m *metrics.Metrics) *Recalculator {
	return &Recalculator{service: service, publisher: pub, metrics: m}
}

// Touch recomputes every distinct period in touches. A failing period does not
// stop the others; the failures are joined and wrap ErrRecalculation. Events
// are published even for failed periods so that a consumer can retry them.
func (r *Recalculator) Touch(ctx context.Context, touches ...Touch) error {
	seen := make(map[core.SummaryKey]bool, len(touches))
	var errs []error
	for _, t := range touches {
		key := core.SummaryKey{UserID: t.UserID, Period: t.Period}
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, err := r.service.recalculate(ctx, t.UserID, t.Period, t.Source); err != nil {
			errs = append(errs, fmt.Errorf("%w for %s: %w", ErrRecalculation, t.Period, err))
		}
		r.publish(ctx, t)
	}
	return errors.Join(errs...)
}

// TouchAllCached recomputes every period of userID that already has a stored
// summary. Used for changes, such as employee salaries, that affect all
// periods at once; periods never materialized are computed on first read.
func (r *Recalculator) TouchAllCached(ctx context.Context, userID, source string) error {
	stored, err := r.service.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecalculation, err)
	}
	touches := make([]Touch, 0, len(stored))
	for _, s := range stored {
		touches = append(touches, Touch{UserID: userID, Period: s.Period(), Source: source})
	}
	slog.InfoContext(ctx, "Recalculating all cached summaries",
		"user_id", userID, "source", source, "periods", len(touches))
	return r.Touch(ctx, touches...)
}

func (r *Recalculator) publish(ctx context.Context, t Touch) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.PublishPeriodTouched(context.WithoutCancel(ctx), t.UserID, t.Period, t.Source)
	r.metrics.EventPublished(err)
	if err != nil {
		// The local summary is already up to date; only the export lags.
		slog.WarnContext(ctx, "Failed to publish period touched event",
			"user_id", t.UserID,
			"month", t.Period.Month,
			"year", t.Period.Year,
			"error", err)
	}
}
