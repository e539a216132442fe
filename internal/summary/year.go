package summary

import (
	"context"

	"fintrack/internal/core"
)

// YearOverview lays a year's stored summaries out month by month.
type YearOverview struct {
	UserID        string                `json:"user"`
	Year          int                   `json:"year"`
	Months        []core.MonthlySummary `json:"months"`
	CachedMonths  int                   `json:"cachedMonths"`
	TotalIncome   core.Money            `json:"totalIncome"`
	TotalExpenses core.Money            `json:"totalExpenses"`
	TotalSalaries core.Money            `json:"totalSalaries"`
	Profit        core.Money            `json:"profit"`
}

// Year builds the overview of one year from stored summaries only. Months
// without a stored row are reported as zero and are not computed.
func (s *Service) Year(ctx context.Context, userID string, year int) (YearOverview, error) {
	if err := (core.Period{Month: 1, Year: year}).Validate(); err != nil {
		return YearOverview{}, err
	}
	stored, err := s.List(ctx, userID)
	if err != nil {
		return YearOverview{}, err
	}

	out := YearOverview{UserID: userID, Year: year, Months: make([]core.MonthlySummary, 12)}
	for i := range out.Months {
		out.Months[i] = core.MonthlySummary{UserID: userID, Month: i + 1, Year: year}
	}
	for _, sum := range stored {
		if sum.Year != year || sum.Month < 1 || sum.Month > 12 {
			continue
		}
		out.Months[sum.Month-1] = sum
		out.CachedMonths++
		out.TotalIncome = out.TotalIncome.Add(sum.TotalIncome)
		out.TotalExpenses = out.TotalExpenses.Add(sum.TotalExpenses)
		out.TotalSalaries = out.TotalSalaries.Add(sum.TotalSalaries)
		out.Profit = out.Profit.Add(sum.Profit)
	}
	return out, nil
}
