package core

import (
	"fmt"
	"time"
)

// MinYear is the earliest year a period may refer to.
const MinYear = 2000

// Period is a calendar month of a given year.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod builds a validated period.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < MinYear {
		return ErrInvalidYear
	}
	return nil
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// After reports whether p is a later month than o.
func (p Period) After(o Period) bool {
	if p.Year != o.Year {
		return p.Year > o.Year
	}
	return p.Month > o.Month
}

// MonthRange returns the first and last instant of the period in UTC.
// The end is 23:59:59.999 on the last day, found as day 0 of the next month,
// which also rolls December over into the next year.
func MonthRange(p Period) (start, end time.Time) {
	start = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(p.Year, time.Month(p.Month)+1, 0, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}

// Resolver maps record dates to the period whose summary they affect.
//
// Range queries use UTC month boundaries (see MonthRange) while PeriodOf reads
// the calendar fields in the resolver's location. A date close to midnight on
// a month edge can therefore be counted by the UTC range of one month and
// trigger the recalculation of the neighbouring one.
type Resolver struct {
	Location *time.Location
}

// NewResolver returns a resolver for loc; nil means the process local zone.
func NewResolver(loc *time.Location) Resolver {
	if loc == nil {
		loc = time.Local
	}
	return Resolver{Location: loc}
}

// PeriodOf returns the local calendar month and year of t.
func (r Resolver) PeriodOf(t time.Time) Period {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return Period{Month: int(local.Month()), Year: local.Year()}
}

// Contains reports whether t falls inside the UTC range of p.
func (p Period) Contains(t time.Time) bool {
	start, end := MonthRange(p)
	return !t.Before(start) && !t.After(end)
}
