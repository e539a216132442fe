package core

import "time"

// ListFilter selects dated records (incomes, expenses) of one user.
// Zero From/To leave that side of the range open; both ends are inclusive.
// Results are ordered by date, newest first.
type ListFilter struct {
	UserID     string
	From       time.Time
	To         time.Time
	CustomerID string
	Limit      int // 0 means no limit
	Offset     int
}

// InPeriod restricts the filter to the UTC range of p.
func (f ListFilter) InPeriod(p Period) ListFilter {
	f.From, f.To = MonthRange(p)
	return f
}

// Match reports whether a record with the given owner, date and customer
// passes the filter, ignoring pagination.
func (f ListFilter) Match(userID string, date time.Time, customerID string) bool {
	if userID != f.UserID {
		return false
	}
	if !f.From.IsZero() && date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && date.After(f.To) {
		return false
	}
	if f.CustomerID != "" && customerID != f.CustomerID {
		return false
	}
	return true
}

// PeriodFilter selects period-scoped records of one user. A nil Period
// selects every period; EmployeeID is honoured only by transaction queries.
type PeriodFilter struct {
	UserID     string
	Period     *Period
	EmployeeID string
}

func (f PeriodFilter) Match(userID string, p Period, employeeID string) bool {
	if userID != f.UserID {
		return false
	}
	if f.Period != nil && *f.Period != p {
		return false
	}
	if f.EmployeeID != "" && employeeID != f.EmployeeID {
		return false
	}
	return true
}

// Page applies offset and limit to n items and returns the slice bounds.
func Page(n, offset, limit int) (lo, hi int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	hi = n
	if limit > 0 && offset+limit < n {
		hi = offset + limit
	}
	return offset, hi
}
