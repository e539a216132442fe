package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

// Store persists summaries. UpsertSummary must be atomic per
// (user, month, year) and must never create a second row for the same key.
type Store interface {
	GetSummary(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error)
	UpsertSummary(ctx context.Context, s core.MonthlySummary) (core.MonthlySummary, error)
	ListSummaries(ctx context.Context, userID string) ([]core.MonthlySummary, error)
	ListSummaryKeys(ctx context.Context) ([]core.SummaryKey, error)
}

// Trigger sources, used in logs, metrics and published events.
const (
	SourceReadThrough = "read_through"
	SourceManual      = "manual"
	SourceRefresh     = "refresh"
	SourceWorker      = "worker"
)

// Service serves summaries with read-through materialization.
type Service struct {
	engine  *Engine
	store   Store
	metrics *metrics.Metrics
	timeout time.Duration

	// collapses concurrent misses for the same key into one computation
	misses singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records recalculations and lookups on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds a single recalculation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(engine *Engine, store Store, opts ...Option) *Service {
	s := &Service{engine: engine, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored summary, computing and storing it first when the
// period has never been materialized.
func (s *Service) Get(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}

	stored, err := s.store.GetSummary(ctx, userID, p)
	if err == nil {
		s.metrics.SummaryLookup(true)
		return stored, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.MonthlySummary{}, fmt.Errorf("get summary: %w", err)
	}
	s.metrics.SummaryLookup(false)

	key := userID + "|" + p.String()
	v, err, _ := s.misses.Do(key, func() (any, error) {
		return s.recalculate(ctx, userID, p, SourceReadThrough)
	})
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return v.(core.MonthlySummary), nil
}

// Recalculate recomputes the period and overwrites whatever is stored.
func (s *Service) Recalculate(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}
	return s.recalculate(ctx, userID, p, SourceManual)
}

// List returns the stored summaries of userID, newest period first. Missing
// periods are not computed.
func (s *Service) List(ctx context.Context, userID string) ([]core.MonthlySummary, error) {
	items, err := s.store.ListSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return items, nil
}

// recalculate computes and upserts one summary. It is detached from the
// caller's cancellation so that an aborted request still stores the result.
func (s *Service) recalculate(ctx context.Context, userID string, p core.Period, source string) (core.MonthlySummary, error) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	stored, err := s.computeAndStore(ctx, userID, p)
	s.metrics.ObserveRecalculation(source, time.Since(start), err)
	if err != nil {
		slog.ErrorContext(ctx, "Summary recalculation failed",
			"user_id", userID,
			"month", p.Month,
			"year", p.Year,
			"source", source,
			"error", err)
		return core.MonthlySummary{}, err
	}

	slog.InfoContext(ctx, "Summary recalculated",
		"user_id", userID,
		"month", p.Month,
		"year", p.Year,
		"source", source,
		"total_income_cents", stored.TotalIncome.Cents,
		"total_expenses_cents", stored.TotalExpenses.Cents,
		"total_salaries_cents", stored.TotalSalaries.Cents,
		"profit_cents", stored.Profit.Cents,
		"duration_ms", time.Since(start).Milliseconds())
	return stored, nil
}

func (s *Service) computeAndStore(ctx context.Context, userID string, p core.Period) (core.MonthlySummary, error) {
	result, err := s.engine.Compute(ctx, userID, p)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("compute summary %s: %w", p, err)
	}
	stored, err := s.store.UpsertSummary(ctx, core.MonthlySummary{
		UserID:        userID,
		Month:         p.Month,
		Year:          p.Year,
		SummaryResult: result,
	})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("store summary %s: %w", p, err)
	}
	return stored, nil
}
