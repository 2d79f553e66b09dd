package utils

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO date format used for every date that crosses a file boundary.
const DateLayout = "2006-01-02"

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// ParseDate converts YYYY-MM-DD to a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsEndOfMonth reports whether t is the last calendar day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

// AddMonth behaves like Excel's EDATE, avoiding Go's month normalization surprises:
// 2025-01-31 plus one month is 2025-02-28, not 2025-03-03.
func AddMonth(t time.Time, months int) time.Time {
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if target.Month() == t.AddDate(0, months, 0).Month() {
		return t.AddDate(0, months, 0)
	}
	// Overflowed into the following month: clamp to the target month's last day.
	return target.AddDate(0, 1, -1)
}

// AddMonthEOM is AddMonth that keeps month-end dates on month ends.
func AddMonthEOM(t time.Time, months int) time.Time {
	d := AddMonth(t, months)
	if IsEndOfMonth(t) {
		return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return d
}
