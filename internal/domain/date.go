package domain

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var ErrMalformedDate = errors.New("date must be YYYY-MM-DD")

// ParseDate parses "YYYY-MM-DD" into a UTC midnight instant. Calendar dates
// are stored timezone-free; the facility timezone only matters when a date and
// a clock time are combined into an instant.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return d, nil
}

// DateOnly truncates t to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// At combines a calendar date and a clock time into an instant in loc.
func At(date time.Time, t ClockTime, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
