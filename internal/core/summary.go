package core

import (
	"encoding/json"
	"sort"
	"time"
)

// Category names that the summary always renders, even when zero.
const (
	CategoryTransportation = "Transportation"
	CategoryRepair         = "Repair"
	CategoryEquipment      = "Equipment"
)

// LegacyBreakdownKeys lists the categories with a fixed slot in the
// serialized expense breakdown.
var LegacyBreakdownKeys = []string{CategoryTransportation, CategoryRepair, CategoryEquipment}

// ExpenseBreakdown splits a month's expenses by category bucket name, plus the
// sum of individually dated expenses.
type ExpenseBreakdown struct {
	Categories      map[string]Money
	RegularExpenses Money
}

// Add books amount under the category name.
func (b *ExpenseBreakdown) Add(category string, amount Money) {
	if b.Categories == nil {
		b.Categories = make(map[string]Money)
	}
	b.Categories[category] = b.Categories[category].Add(amount)
}

// Amount returns the total booked under the category name.
func (b ExpenseBreakdown) Amount(category string) Money {
	return b.Categories[category]
}

// CategoryTotal sums every category bucket.
func (b ExpenseBreakdown) CategoryTotal() Money {
	var total Money
	for _, m := range b.Categories {
		total = total.Add(m)
	}
	return total
}

// Names returns the category names in sorted order.
func (b ExpenseBreakdown) Names() []string {
	names := make([]string, 0, len(b.Categories))
	for name := range b.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type expenseBreakdownJSON struct {
	Transportation  Money            `json:"Transportation"`
	Repair          Money            `json:"Repair"`
	Equipment       Money            `json:"Equipment"`
	RegularExpenses Money            `json:"regularExpenses"`
	Categories      map[string]Money `json:"categories"`
}

func (b ExpenseBreakdown) MarshalJSON() ([]byte, error) {
	categories := b.Categories
	if categories == nil {
		categories = map[string]Money{}
	}
	return json.Marshal(expenseBreakdownJSON{
		Transportation:  b.Amount(CategoryTransportation),
		Repair:          b.Amount(CategoryRepair),
		Equipment:       b.Amount(CategoryEquipment),
		RegularExpenses: b.RegularExpenses,
		Categories:      categories,
	})
}

// UnmarshalJSON reads both the open form and rows written with only the
// legacy keys.
func (b *ExpenseBreakdown) UnmarshalJSON(data []byte) error {
	var w expenseBreakdownJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := ExpenseBreakdown{RegularExpenses: w.RegularExpenses}
	if w.Categories != nil {
		for name, amount := range w.Categories {
			out.Add(name, amount)
		}
	} else {
		for name, amount := range map[string]Money{
			CategoryTransportation: w.Transportation,
			CategoryRepair:         w.Repair,
			CategoryEquipment:      w.Equipment,
		} {
			if !amount.IsZero() {
				out.Add(name, amount)
			}
		}
	}
	*b = out
	return nil
}

type IncomeBreakdown struct {
	MonthlyCollections  Money `json:"monthlyCollections"`
	AdvertisingExpenses Money `json:"advertisingExpenses"` // reserved, always zero
}

// SummaryResult holds the computed totals for one user and period.
type SummaryResult struct {
	TotalIncome      Money            `json:"totalIncome"`
	TotalExpenses    Money            `json:"totalExpenses"`
	TotalSalaries    Money            `json:"totalSalaries"`
	Profit           Money            `json:"profit"`
	ExpenseBreakdown ExpenseBreakdown `json:"expenseBreakdown"`
	IncomeBreakdown  IncomeBreakdown  `json:"incomeBreakdown"`
}

// MonthlySummary is the stored rollup for one user and period. It is derived
// data and can always be rebuilt from the source records.
type MonthlySummary struct {
	UserID string `json:"user"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	SummaryResult
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s MonthlySummary) Period() Period {
	return Period{Month: s.Month, Year: s.Year}
}

// SummaryKey identifies a stored summary.
type SummaryKey struct {
	UserID string
	Period Period
}

// SortSummaries orders summaries by year then month, newest first.
func SortSummaries(items []MonthlySummary) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Period().After(items[j].Period())
	})
}
