package license

import "time"

// MaxLeaveDays is the longest span allowed between start and end date.
const MaxLeaveDays = 90

// DateOnly truncates t to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateWindow checks the leave period at creation time: start must not be
// after end and the span must not exceed MaxLeaveDays.
func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidDateRange
	}
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return ErrInvalidDateRange
	}
	if end.Sub(start) > MaxLeaveDays*24*time.Hour {
		return ErrInvalidDateRange
	}
	return nil
}
