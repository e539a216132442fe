package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Summary sheet columns, A through lastColumn.
var summaryHeaders = []string{
	"User", "Month", "Income", "Expenses", "Salaries", "Profit",
	"Regular", core.CategoryTransportation, core.CategoryRepair, core.CategoryEquipment, "Other",
	"Updated",
}

const lastColumn = "L"

func headerRow() []any {
	row := make([]any, len(summaryHeaders))
	for i, h := range summaryHeaders {
		row[i] = h
	}
	return row
}

// summaryRow renders s in column order. Categories without a fixed column
// are summed under Other.
func summaryRow(s core.MonthlySummary) []any {
	b := s.ExpenseBreakdown
	other := b.CategoryTotal()
	for _, name := range core.LegacyBreakdownKeys {
		other = other.Sub(b.Amount(name))
	}
	return []any{
		s.UserID,
		s.Month,
		s.TotalIncome.String(),
		s.TotalExpenses.String(),
		s.TotalSalaries.String(),
		s.Profit.String(),
		b.RegularExpenses.String(),
		b.Amount(core.CategoryTransportation).String(),
		b.Amount(core.CategoryRepair).String(),
		b.Amount(core.CategoryEquipment).String(),
		other.String(),
		s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// findSummaryRow returns the 1-based sheet row holding (userID, month), or 0.
// The first row is the header.
func findSummaryRow(values [][]any, userID string, month int) int {
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if strings.TrimSpace(safeGet(row, 0)) != userID {
			continue
		}
		if m, err := strconv.Atoi(strings.TrimSpace(safeGet(row, 1))); err == nil && m == month {
			return i + 1
		}
	}
	return 0
}

// parseSummaryRow reads one data row back into a summary. Header and
// malformed rows report false.
func parseSummaryRow(values []any, year int) (core.MonthlySummary, bool) {
	row := toStrings(values)
	userID := strings.TrimSpace(safeGet(row, 0))
	month, err := strconv.Atoi(strings.TrimSpace(safeGet(row, 1)))
	if userID == "" || err != nil || month < 1 || month > 12 {
		return core.MonthlySummary{}, false
	}

	amounts := make([]core.Money, 9)
	for i := range amounts {
		cents, ok := parseEurosToCents(safeGet(row, i+2))
		if !ok {
			return core.MonthlySummary{}, false
		}
		amounts[i] = core.Cents(cents)
	}

	s := core.MonthlySummary{UserID: userID, Month: month, Year: year}
	s.TotalIncome = amounts[0]
	s.TotalExpenses = amounts[1]
	s.TotalSalaries = amounts[2]
	s.Profit = amounts[3]
	s.IncomeBreakdown.MonthlyCollections = amounts[0]
	s.ExpenseBreakdown.RegularExpenses = amounts[4]
	for i, name := range core.LegacyBreakdownKeys {
		if !amounts[5+i].IsZero() {
			s.ExpenseBreakdown.Add(name, amounts[5+i])
		}
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(safeGet(row, 11))); err == nil {
		s.UpdatedAt = ts
	}
	return s, true
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func safeGet(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// parseEurosToCents accepts the formatted values Sheets renders back,
// including a euro sign, a decimal comma and a sign. Blank cells are zero.
func parseEurosToCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "€"))
	if s == "" {
		return 0, true
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return core.MoneyFromDecimal(d).Cents, true
}
