package model

import (
	"fmt"
	"strconv"
	"time"
)

// ISODate is the layout of strict date filters.
const ISODate = "2006-01-02"

// PartialDate is a date known to year, year+month or full day precision.
// A zero component is absent.
type PartialDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// IsZero reports whether no component is set.
func (d PartialDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Validate checks component ranges; a full date must exist on the calendar.
func (d PartialDate) Validate() error {
	if d.Year < 0 || d.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidValue, d.Year)
	}
	if d.Month < 0 || d.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidValue, d.Month)
	}
	if d.Day < 0 || d.Day > 31 {
		return fmt.Errorf("%w: day %d out of range", ErrInvalidValue, d.Day)
	}
	if d.Year != 0 && d.Month != 0 && d.Day != 0 {
		t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		if t.Day() != d.Day {
			return fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidValue, d.Year, d.Month, d.Day)
		}
	}
	return nil
}

// ParseDateComponent parses one year/month/day parameter value.
func ParseDateComponent(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: date component %q", ErrInvalidValue, s)
	}
	return n, nil
}

// ParseStrictDate validates an ISO yyyy-MM-dd string.
func ParseStrictDate(s string) (string, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q is not yyyy-MM-dd", ErrInvalidValue, s)
	}
	return t.Format(ISODate), nil
}
