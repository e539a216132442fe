package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultIncomeCategory is used when an income is created without a category.
const DefaultIncomeCategory = "Other"

const maxTextLength = 200

const (
	TransactionBonus     TransactionType = "BONUS"
	TransactionDeduction TransactionType = "DEDUCTION"
)

type (
	// TransactionType is the kind of a payroll adjustment.
	TransactionType string

	Income struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
		CustomerID  string    `json:"customer,omitempty"` // set only by customer payments
		CreatedAt   time.Time `json:"createdAt"`
	}

	Expense struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// ExpenseCategory is a manually entered expense amount for one period.
	ExpenseCategory struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user"`
		Category    string    `json:"category"`
		Amount      Money     `json:"amount"`
		Month       int       `json:"month"`
		Year        int       `json:"year"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Employee struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user"`
		Name        string    `json:"name"`
		Salary      Money     `json:"salary"`
		JobTitle    string    `json:"jobTitle,omitempty"`
		PhoneNumber string    `json:"phoneNumber,omitempty"`
		DateJoined  time.Time `json:"dateJoined"`
		IsActive    bool      `json:"isActive"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	EmployeeTransaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user"`
		EmployeeID  string          `json:"employee"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Month       int             `json:"month"`
		Year        int             `json:"year"`
		Description string          `json:"description,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Customer struct {
		ID              string     `json:"id"`
		UserID          string     `json:"user"`
		Name            string     `json:"name"`
		BrandName       string     `json:"brandName,omitempty"`
		PhoneNumber     string     `json:"phoneNumber,omitempty"`
		MonthlyAmount   Money      `json:"monthlyAmount"`
		LastPaidDate    *time.Time `json:"lastPaidDate"`
		PaymentDeadline int        `json:"paymentDeadline"` // day of month
		CreatedAt       time.Time  `json:"createdAt"`
		UpdatedAt       time.Time  `json:"updatedAt"`
	}
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("record belongs to another user")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrInvalidAmount          = fmt.Errorf("%w: amount must be a non-negative decimal", ErrValidation)
	ErrInvalidMonth           = fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	ErrInvalidYear            = fmt.Errorf("%w: year must be %d or later", ErrValidation, MinYear)
	ErrInvalidDate            = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidTransactionType = fmt.Errorf("%w: transaction type must be BONUS or DEDUCTION", ErrValidation)
	ErrInvalidDeadline        = fmt.Errorf("%w: payment deadline must be a day between 1 and 31", ErrValidation)
	ErrEmptyTitle             = fmt.Errorf("%w: empty title", ErrValidation)
	ErrEmptyName              = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyCategory          = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyUser              = fmt.Errorf("%w: missing user", ErrValidation)
	ErrTextTooLong            = fmt.Errorf("%w: text too long (max %d characters)", ErrValidation, maxTextLength)
)

// CheckOwner returns ErrForbidden when owner is not userID.
func CheckOwner(owner, userID string) error {
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == TransactionBonus || t == TransactionDeduction
}

func requireText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	return checkLength(s)
}

func checkLength(s string) error {
	if len(s) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

func (i Income) Validate() error {
	if i.UserID == "" {
		return ErrEmptyUser
	}
	if err := requireText(i.Title, ErrEmptyTitle); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if i.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := checkLength(i.Category); err != nil {
		return err
	}
	return checkLength(i.Description)
}

func (e Expense) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUser
	}
	if err := requireText(e.Title, ErrEmptyTitle); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := requireText(e.Category, ErrEmptyCategory); err != nil {
		return err
	}
	return checkLength(e.Description)
}

// Period returns the month the bucket is booked in.
func (c ExpenseCategory) Period() Period {
	return Period{Month: c.Month, Year: c.Year}
}

func (c ExpenseCategory) Validate() error {
	if c.UserID == "" {
		return ErrEmptyUser
	}
	if err := requireText(c.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if err := c.Period().Validate(); err != nil {
		return err
	}
	return checkLength(c.Description)
}

func (e Employee) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUser
	}
	if err := requireText(e.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := e.Salary.Validate(); err != nil {
		return err
	}
	if err := checkLength(e.JobTitle); err != nil {
		return err
	}
	return checkLength(e.PhoneNumber)
}

func (t EmployeeTransaction) Period() Period {
	return Period{Month: t.Month, Year: t.Year}
}

// Signed returns the amount with the sign it contributes to salaries.
func (t EmployeeTransaction) Signed() Money {
	if t.Type == TransactionDeduction {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (t EmployeeTransaction) Validate() error {
	if t.UserID == "" {
		return ErrEmptyUser
	}
	if t.EmployeeID == "" {
		return fmt.Errorf("%w: missing employee", ErrValidation)
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Period().Validate(); err != nil {
		return err
	}
	return checkLength(t.Description)
}

func (c Customer) Validate() error {
	if c.UserID == "" {
		return ErrEmptyUser
	}
	if err := requireText(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := c.MonthlyAmount.Validate(); err != nil {
		return err
	}
	if c.PaymentDeadline < 1 || c.PaymentDeadline > 31 {
		return ErrInvalidDeadline
	}
	if err := checkLength(c.BrandName); err != nil {
		return err
	}
	return checkLength(c.PhoneNumber)
}
