// Package memory is an in-process record store used by tests and by the
// memory data backend. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

type Store struct {
	mu           sync.Mutex
	incomes      map[string]core.Income
	expenses     map[string]core.Expense
	categories   map[string]core.ExpenseCategory
	employees    map[string]core.Employee
	transactions map[string]core.EmployeeTransaction
	customers    map[string]core.Customer
	summaries    map[core.SummaryKey]core.MonthlySummary

	now func() time.Time
}

func New() *Store {
	return &Store{
		incomes:      make(map[string]core.Income),
		expenses:     make(map[string]core.Expense),
		categories:   make(map[string]core.ExpenseCategory),
		employees:    make(map[string]core.Employee),
		transactions: make(map[string]core.EmployeeTransaction),
		customers:    make(map[string]core.Customer),
		summaries:    make(map[core.SummaryKey]core.MonthlySummary),
		now:          time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

// Incomes

func (s *Store) CreateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[in.ID]; ok {
		return fmt.Errorf("income %s: %w", in.ID, core.ErrConflict)
	}
	s.incomes[in.ID] = in
	return nil
}

func (s *Store) GetIncome(_ context.Context, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, notFound("income", id)
	}
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return notFound("income", id)
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListIncomes(_ context.Context, f core.ListFilter) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Income
	for _, in := range s.incomes {
		if f.Match(in.UserID, in.Date, in.CustomerID) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	lo, hi := core.Page(len(out), f.Offset, f.Limit)
	return out[lo:hi], nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; ok {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrConflict)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, notFound("expense", id)
	}
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return notFound("expense", id)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, f core.ListFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if f.Match(e.UserID, e.Date, "") {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	lo, hi := core.Page(len(out), f.Offset, f.Limit)
	return out[lo:hi], nil
}

// Expense categories

func (s *Store) CreateExpenseCategory(_ context.Context, c core.ExpenseCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("expense category %s: %w", c.ID, core.ErrConflict)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) GetExpenseCategory(_ context.Context, id string) (core.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.ExpenseCategory{}, notFound("expense category", id)
	}
	return c, nil
}

func (s *Store) UpdateExpenseCategory(_ context.Context, c core.ExpenseCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return notFound("expense category", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteExpenseCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return notFound("expense category", id)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListExpenseCategories(_ context.Context, f core.PeriodFilter) ([]core.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExpenseCategory
	for _, c := range s.categories {
		if f.Match(c.UserID, c.Period(), "") {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period() != out[j].Period() {
			return out[i].Period().After(out[j].Period())
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Employees

func (s *Store) CreateEmployee(_ context.Context, e core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; ok {
		return fmt.Errorf("employee %s: %w", e.ID, core.ErrConflict)
	}
	s.employees[e.ID] = e
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return core.Employee{}, notFound("employee", id)
	}
	return e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return notFound("employee", e.ID)
	}
	s.employees[e.ID] = e
	return nil
}

func (s *Store) ListEmployees(_ context.Context, userID string, activeOnly bool) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Employee
	for _, e := range s.employees {
		if e.UserID != userID || (activeOnly && !e.IsActive) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Employee transactions

func (s *Store) CreateEmployeeTransaction(_ context.Context, t core.EmployeeTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; ok {
		return fmt.Errorf("employee transaction %s: %w", t.ID, core.ErrConflict)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetEmployeeTransaction(_ context.Context, id string) (core.EmployeeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.EmployeeTransaction{}, notFound("employee transaction", id)
	}
	return t, nil
}

func (s *Store) DeleteEmployeeTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return notFound("employee transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListEmployeeTransactions(_ context.Context, f core.PeriodFilter) ([]core.EmployeeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.EmployeeTransaction
	for _, t := range s.transactions {
		if f.Match(t.UserID, t.Period(), t.EmployeeID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period() != out[j].Period() {
			return out[i].Period().After(out[j].Period())
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Customers

func (s *Store) CreateCustomer(_ context.Context, c core.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return fmt.Errorf("customer %s: %w", c.ID, core.ErrConflict)
	}
	s.customers[c.ID] = c
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return core.Customer{}, notFound("customer", id)
	}
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c core.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return notFound("customer", c.ID)
	}
	s.customers[c.ID] = c
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return notFound("customer", id)
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) ListCustomers(_ context.Context, userID string) ([]core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Customer
	for _, c := range s.customers {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Summaries

func (s *Store) GetSummary(_ context.Context, userID string, p core.Period) (core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[core.SummaryKey{UserID: userID, Period: p}]
	if !ok {
		return core.MonthlySummary{}, fmt.Errorf("summary %s %s: %w", userID, p, core.ErrNotFound)
	}
	return sum, nil
}

// UpsertSummary creates or overwrites the summary of (user, month, year),
// keeping the original creation time.
func (s *Store) UpsertSummary(_ context.Context, sum core.MonthlySummary) (core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := core.SummaryKey{UserID: sum.UserID, Period: sum.Period()}
	now := s.now().UTC()
	sum.CreatedAt = now
	if prev, ok := s.summaries[key]; ok {
		sum.CreatedAt = prev.CreatedAt
	}
	sum.UpdatedAt = now
	s.summaries[key] = sum
	return sum, nil
}

func (s *Store) ListSummaries(_ context.Context, userID string) ([]core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlySummary
	for key, sum := range s.summaries {
		if key.UserID == userID {
			out = append(out, sum)
		}
	}
	core.SortSummaries(out)
	return out, nil
}

func (s *Store) ListSummaryKeys(_ context.Context) ([]core.SummaryKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SummaryKey, 0, len(s.summaries))
	for key := range s.summaries {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Period.After(out[j].Period)
	})
	return out, nil
}

// SummaryCount returns the number of stored summaries.
func (s *Store) SummaryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summaries)
}
