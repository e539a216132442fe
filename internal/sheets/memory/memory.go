package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.SummaryExporter = (*Store)(nil)

// Store keeps exported summaries in memory, one row per (user, period).
type Store struct {
	mu     sync.Mutex
	rows   map[core.SummaryKey]core.MonthlySummary
	writes int
}

func New() *Store {
	return &Store{rows: make(map[core.SummaryKey]core.MonthlySummary)}
}

// WriteSummary replaces the row of the summary's user and period.
func (s *Store) WriteSummary(_ context.Context, sum core.MonthlySummary) (string, error) {
	if sum.UserID == "" {
		return "", core.ErrEmptyUser
	}
	if err := sum.Period().Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[core.SummaryKey{UserID: sum.UserID, Period: sum.Period()}] = sum
	s.writes++
	return fmt.Sprintf("mem:%s:%s", sum.UserID, sum.Period()), nil
}

// ReadYear returns the rows of userID in year, oldest month first.
func (s *Store) ReadYear(_ context.Context, userID string, year int) ([]core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlySummary
	for m := 1; m <= 12; m++ {
		if row, ok := s.rows[core.SummaryKey{UserID: userID, Period: core.Period{Month: m, Year: year}}]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// Writes reports how many times WriteSummary succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
