package timeutil

import (
	"fmt"
	"time"
)

// PeriodLayout is the layout of payout period keys ("2025-03")
const PeriodLayout = "2006-01"

// DateLayout is the layout accepted for report windows ("2025-03-31")
const DateLayout = "2006-01-02"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ParseDate parses a date string and returns a UTC time
func ParseDate(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, time.UTC)
}

// PeriodKey returns the monthly period key containing t
func PeriodKey(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// ValidatePeriodKey checks that key is a well-formed "YYYY-MM" period
func ValidatePeriodKey(key string) error {
	if _, err := time.Parse(PeriodLayout, key); err != nil {
		return fmt.Errorf("invalid period key %q: expected YYYY-MM", key)
	}
	return nil
}

// PeriodBounds returns [start, end) of a monthly period key in UTC
func PeriodBounds(key string) (time.Time, time.Time, error) {
	start, err := time.Parse(PeriodLayout, key)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period key %q: expected YYYY-MM", key)
	}
	start = start.UTC()
	return start, start.AddDate(0, 1, 0), nil
}
