package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

// Store is the record store the ledger writes to.
type Store interface {
	summary.Source

	CreateIncome(ctx context.Context, in core.Income) error
	GetIncome(ctx context.Context, id string) (core.Income, error)
	DeleteIncome(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateExpenseCategory(ctx context.Context, c core.ExpenseCategory) error
	GetExpenseCategory(ctx context.Context, id string) (core.ExpenseCategory, error)
	UpdateExpenseCategory(ctx context.Context, c core.ExpenseCategory) error
	DeleteExpenseCategory(ctx context.Context, id string) error

	CreateEmployee(ctx context.Context, e core.Employee) error
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
	UpdateEmployee(ctx context.Context, e core.Employee) error

	CreateEmployeeTransaction(ctx context.Context, t core.EmployeeTransaction) error
	GetEmployeeTransaction(ctx context.Context, id string) (core.EmployeeTransaction, error)
	DeleteEmployeeTransaction(ctx context.Context, id string) error

	CreateCustomer(ctx context.Context, c core.Customer) error
	GetCustomer(ctx context.Context, id string) (core.Customer, error)
	UpdateCustomer(ctx context.Context, c core.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context, userID string) ([]core.Customer, error)
}

// Trigger sources reported with every touched period.
const (
	SourceIncome          = "income"
	SourceExpense         = "expense"
	SourceExpenseCategory = "expense_category"
	SourceEmployee        = "employee"
	SourceTransaction     = "employee_transaction"
	SourceCustomerPayment = "customer_payment"
)

// LedgerService orchestrates writes to the record store. Every mutation is
// persisted first and then reports the periods it touched to the
// recalculator; a failed recalculation never undoes the write.
type LedgerService struct {
	store    Store
	recalc   *summary.Recalculator
	resolver core.Resolver
	now      func() time.Time
	newID    func() string
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) { s.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(s *LedgerService) { s.newID = newID }
}

// WithResolver sets the location record dates are mapped to periods in.
func WithResolver(r core.Resolver) LedgerOption {
	return func(s *LedgerService) { s.resolver = r }
}

func NewLedgerService(store Store, recalc *summary.Recalculator, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:    store,
		recalc:   recalc,
		resolver: core.NewResolver(nil),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// touch recalculates the given periods of userID. The returned error wraps
// summary.ErrRecalculation; the caller's mutation is already committed.
func (s *LedgerService) touch(ctx context.Context, userID, source string, periods ...core.Period) error {
	if s.recalc == nil {
		return nil
	}
	touches := make([]summary.Touch, 0, len(periods))
	for _, p := range periods {
		touches = append(touches, summary.Touch{UserID: userID, Period: p, Source: source})
	}
	return s.recalc.Touch(ctx, touches...)
}

// datedPeriod returns the period a record dated t is recalculated in. The
// UTC month, which range queries use, must be summarizable as well.
func (s *LedgerService) datedPeriod(t time.Time) (core.Period, error) {
	p := s.resolver.PeriodOf(t)
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	utc := t.UTC()
	if _, err := core.NewPeriod(int(utc.Month()), utc.Year()); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

func (s *LedgerService) touchAll(ctx context.Context, userID, source string) error {
	if s.recalc == nil {
		return nil
	}
	return s.recalc.TouchAllCached(ctx, userID, source)
}

// IsRecalculationFailure reports whether err only means that the mutation
// was stored but its summary could not be refreshed.
func IsRecalculationFailure(err error) bool {
	return errors.Is(err, summary.ErrRecalculation)
}

func logWrite(ctx context.Context, msg, userID, id string, p core.Period) {
	slog.InfoContext(ctx, msg,
		"user_id", userID,
		"id", id,
		"month", p.Month,
		"year", p.Year)
}
