// Package billing computes invoice billing periods and due dates.
package billing

import (
	"errors"
	"time"
)

// DueDay is the day of month invoices fall due.
const DueDay = 10

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("invalid billing period")

// Period is a billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the billing month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate checks month and year ranges.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 2000 || p.Year > 2100 {
		return ErrInvalidPeriod
	}
	return nil
}

// DueDate returns day 10 of the selected month. When the selection is the
// current month and today is already past the 10th, the due date moves to
// day 10 of the following month. Past months are returned as is.
func DueDate(selected, now time.Time) time.Time {
	y, m := selected.Year(), selected.Month()
	if y == now.Year() && m == now.Month() && now.Day() > DueDay {
		m++ // time.Date normalises month 13 into January of the next year
	}
	return time.Date(y, m, DueDay, 0, 0, 0, 0, selected.Location())
}

// DueDateFor is DueDate for a Period, evaluated in now's location.
func DueDateFor(p Period, now time.Time) time.Time {
	return DueDate(time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, now.Location()), now)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AddMonths adds n calendar months to t, clamping to the last day of the
// target month so that Jan 31 + 1 month is Feb 28/29.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
