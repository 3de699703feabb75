package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MaxStayNights caps the length of a single reservation's date range.
const MaxStayNights = 90

// NormalizeDate truncates a timestamp to midnight UTC. All inventory dates are
// stored and compared in this form.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in DateLayout, normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// NightsBetween expands the half-open range [start, end) into the list of
// nights it covers, in ascending order. The end date is the checkout date and
// is not included.
func NightsBetween(start, end time.Time) []time.Time {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	if !start.Before(end) {
		return nil
	}

	nights := make([]time.Time, 0, int(end.Sub(start).Hours()/24))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// SameDate reports whether two timestamps fall on the same calendar date (UTC).
func SameDate(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}
