package providers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/you/go-flight-aggregator/internal/format"
)

const maxErrorBody = 512

var errNoSegments = errors.New("no segments")

func isIATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func iataOr(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if isIATA(code) {
		return code
	}
	return fallback
}

func stopsFor(segments int) int {
	if segments <= 1 {
		return 0
	}
	return segments - 1
}

// parsePrice treats a missing, unparsable, non-finite or negative amount
// as unknown.
func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

// durationFields prefers the provider's ISO duration and falls back to the
// gap between departure and arrival. An unparsable duration string is
// kept verbatim for display.
func durationFields(raw string, depart, arrive time.Time) (string, int) {
	if mins, ok := format.DurationMinutes(raw); ok {
		return format.Minutes(mins), mins
	}
	gap := 0
	if !depart.IsZero() && arrive.After(depart) {
		gap = int(arrive.Sub(depart).Minutes())
	}
	if strings.TrimSpace(raw) != "" {
		return raw, gap
	}
	return format.Minutes(gap), gap
}

func parseEndpoints(dep, arr string) (time.Time, time.Time, error) {
	depart, err := format.ParseTime(dep)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("departure: %w", err)
	}
	arrive, err := format.ParseTime(arr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("arrival: %w", err)
	}
	return depart, arrive, nil
}

func cabinOr(s string, fallback CabinClass) CabinClass {
	if c, err := ParseCabinClass(s); err == nil {
		return c
	}
	return fallback
}

// statusError reads a short excerpt of a failed response for the log.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return errors.New(msg)
}
