package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// CustomerPaymentCategory is the income category of customer payments.
const CustomerPaymentCategory = "Customer Payment"

func (s *LedgerService) CreateCustomer(ctx context.Context, userID string, c core.Customer) (core.Customer, error) {
	now := s.now().UTC()
	c.ID = s.newID()
	c.UserID = userID
	c.LastPaidDate = nil
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		return core.Customer{}, err
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return core.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	slog.InfoContext(ctx, "Customer created", "user_id", userID, "id", c.ID)
	return c, nil
}

func (s *LedgerService) GetCustomer(ctx context.Context, userID, id string) (core.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return core.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	if err := core.CheckOwner(c.UserID, userID); err != nil {
		return core.Customer{}, err
	}
	return c, nil
}

// UpdateCustomer replaces the editable fields of a customer. LastPaidDate is
// owned by the payment flow and is left unchanged.
func (s *LedgerService) UpdateCustomer(ctx context.Context, userID, id string, upd core.Customer) (core.Customer, error) {
	c, err := s.GetCustomer(ctx, userID, id)
	if err != nil {
		return core.Customer{}, err
	}
	c.Name = upd.Name
	c.BrandName = upd.BrandName
	c.PhoneNumber = upd.PhoneNumber
	c.MonthlyAmount = upd.MonthlyAmount
	c.PaymentDeadline = upd.PaymentDeadline
	c.UpdatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return core.Customer{}, err
	}
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return core.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	slog.InfoContext(ctx, "Customer updated", "user_id", userID, "id", id)
	return c, nil
}

// DeleteCustomer removes the customer. Incomes it generated stay in place.
func (s *LedgerService) DeleteCustomer(ctx context.Context, userID, id string) error {
	if _, err := s.GetCustomer(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	slog.InfoContext(ctx, "Customer deleted", "user_id", userID, "id", id)
	return nil
}

func (s *LedgerService) ListCustomers(ctx context.Context, userID string) ([]core.Customer, error) {
	items, err := s.store.ListCustomers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return items, nil
}

// OverdueCustomers returns the customers of userID that have not paid in the
// current month although their deadline day has passed.
func (s *LedgerService) OverdueCustomers(ctx context.Context, userID string) ([]core.Customer, error) {
	items, err := s.ListCustomers(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := s.resolver.Location
	if loc == nil {
		loc = time.Local
	}
	now := s.now().In(loc)
	out := make([]core.Customer, 0, len(items))
	for _, c := range items {
		if c.IsOverdue(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

// PayCustomer records the monthly payment of a customer for period p as an
// income and recalculates p.
//
// The payment is dated paidAt, which must fall inside p. Without paidAt it is
// dated now when now falls inside p, otherwise on the 15th of the month.
// LastPaidDate only moves forward. A second payment for the same month is a
// conflict.
func (s *LedgerService) PayCustomer(ctx context.Context, userID, customerID string, p core.Period, paidAt *time.Time) (core.Income, error) {
	if err := p.Validate(); err != nil {
		return core.Income{}, err
	}
	c, err := s.GetCustomer(ctx, userID, customerID)
	if err != nil {
		return core.Income{}, err
	}

	date, err := s.paymentDate(p, paidAt)
	if err != nil {
		return core.Income{}, err
	}

	existing, err := s.store.ListIncomes(ctx, core.ListFilter{UserID: userID, CustomerID: customerID, Limit: 1}.InPeriod(p))
	if err != nil {
		return core.Income{}, fmt.Errorf("find customer payment: %w", err)
	}
	if len(existing) > 0 {
		return core.Income{}, fmt.Errorf("customer %s already paid for %s: %w", customerID, p, core.ErrConflict)
	}

	in := core.Income{
		ID:          s.newID(),
		UserID:      userID,
		Title:       c.PaymentTitle(),
		Amount:      c.MonthlyAmount,
		Category:    CustomerPaymentCategory,
		Date:        date,
		Description: c.BrandName,
		CustomerID:  c.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := s.store.CreateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("create customer payment: %w", err)
	}

	// The income is committed, so the period is recalculated even when the
	// customer row cannot be updated.
	var updateErr error
	if c.AdvanceLastPaid(date) {
		c.UpdatedAt = s.now().UTC()
		if err := s.store.UpdateCustomer(ctx, c); err != nil {
			updateErr = fmt.Errorf("update last paid date: %w", err)
		}
	}
	slog.InfoContext(ctx, "Customer paid",
		"user_id", userID,
		"customer_id", customerID,
		"income_id", in.ID,
		"month", p.Month,
		"year", p.Year,
		"amount_cents", in.Amount.Cents)

	return in, errors.Join(updateErr, s.touch(ctx, userID, SourceCustomerPayment, p))
}

// UnpayCustomer deletes the customer's payment for period p, moves
// LastPaidDate back to the latest remaining payment and recalculates p.
func (s *LedgerService) UnpayCustomer(ctx context.Context, userID, customerID string, p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c, err := s.GetCustomer(ctx, userID, customerID)
	if err != nil {
		return err
	}

	found, err := s.store.ListIncomes(ctx, core.ListFilter{UserID: userID, CustomerID: customerID, Limit: 1}.InPeriod(p))
	if err != nil {
		return fmt.Errorf("find customer payment: %w", err)
	}
	if len(found) == 0 {
		return fmt.Errorf("payment of customer %s for %s: %w", customerID, p, core.ErrNotFound)
	}
	if err := s.store.DeleteIncome(ctx, found[0].ID); err != nil {
		return fmt.Errorf("delete customer payment: %w", err)
	}

	resetErr := s.resetLastPaid(ctx, c)
	slog.InfoContext(ctx, "Customer payment removed",
		"user_id", userID,
		"customer_id", customerID,
		"income_id", found[0].ID,
		"month", p.Month,
		"year", p.Year)

	return errors.Join(resetErr, s.touch(ctx, userID, SourceCustomerPayment, p))
}

// resetLastPaid moves LastPaidDate to the latest remaining payment of c, or
// clears it.
func (s *LedgerService) resetLastPaid(ctx context.Context, c core.Customer) error {
	latest, err := s.store.ListIncomes(ctx, core.ListFilter{UserID: c.UserID, CustomerID: c.ID, Limit: 1})
	if err != nil {
		return fmt.Errorf("find latest customer payment: %w", err)
	}
	c.LastPaidDate = nil
	if len(latest) > 0 {
		d := latest[0].Date.UTC()
		c.LastPaidDate = &d
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return fmt.Errorf("reset last paid date: %w", err)
	}
	return nil
}

func (s *LedgerService) paymentDate(p core.Period, paidAt *time.Time) (time.Time, error) {
	if paidAt != nil {
		if !p.Contains(*paidAt) {
			return time.Time{}, fmt.Errorf("%w: payment date %s is outside %s", core.ErrValidation, paidAt.Format(time.DateOnly), p)
		}
		return paidAt.UTC(), nil
	}
	now := s.now().UTC()
	if p.Contains(now) {
		return now, nil
	}
	return time.Date(p.Year, time.Month(p.Month), 15, 12, 0, 0, 0, time.UTC), nil
}
