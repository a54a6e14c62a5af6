package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for storage, CSV and JSON.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DateRange returns every calendar day from start to end inclusive.
// It returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	dates := make([]time.Time, 0, DaysBetween(start, end)+1)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		dates = append(dates, date)
	}
	return dates
}
