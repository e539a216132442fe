package core

import (
	"time"
	"unicode/utf8"
)

// DeadlineIn returns the customer's payment deadline inside the month of now.
// Deadlines beyond the month's last day are clamped to it.
func (c Customer) DeadlineIn(now time.Time) time.Time {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	day := c.PaymentDeadline
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}
	return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
}

// PaidIn reports whether the last payment falls in the calendar month of now.
func (c Customer) PaidIn(now time.Time) bool {
	if c.LastPaidDate == nil {
		return false
	}
	paid := c.LastPaidDate.In(now.Location())
	return paid.Year() == now.Year() && paid.Month() == now.Month()
}

// IsOverdue reports whether the customer has not paid this month and the
// deadline day has passed.
func (c Customer) IsOverdue(now time.Time) bool {
	if c.PaidIn(now) {
		return false
	}
	return now.Day() > c.DeadlineIn(now).Day()
}

// AdvanceLastPaid moves LastPaidDate to paidAt only if it is strictly later.
// It reports whether the date changed.
func (c *Customer) AdvanceLastPaid(paidAt time.Time) bool {
	if c.LastPaidDate != nil && !paidAt.After(*c.LastPaidDate) {
		return false
	}
	t := paidAt.UTC()
	c.LastPaidDate = &t
	return true
}

const paymentTitlePrefix = "Payment from "

// PaymentTitle is the title of the income booked for a payment. Long names
// are cut so the title stays within the text limit.
func (c Customer) PaymentTitle() string {
	name := c.Name
	for len(paymentTitlePrefix)+len(name) > maxTextLength {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return paymentTitlePrefix + name
}
