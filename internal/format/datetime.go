package format

import (
	"fmt"
	"strings"
	"time"
)

const DisplayLayout = "2006-01-02 15:04"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime accepts RFC3339 and the naive local forms providers send
// (e.g. Amadeus' 2025-09-10T08:45:00). Naive values are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}

// DateTime reformats a provider timestamp for display; anything it cannot
// parse is returned as is.
func DateTime(s string) string {
	t, err := ParseTime(s)
	if err != nil {
		return s
	}
	return t.Format(DisplayLayout)
}

// Amount renders a price with two decimals and its currency, e.g. "80.00 EUR".
func Amount(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}
