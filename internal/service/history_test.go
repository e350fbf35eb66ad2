package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/providers"
)

// YYYY-MM sorts lexicographically in chronological order.
func isMonotonicMonths(points []MonthPoint) bool {
	for i := 1; i < len(points); i++ {
		if points[i-1].Month >= points[i].Month {
			return false
		}
	}
	return true
}

var historyNow = time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)

func TestMonthlyAverages_LengthAndDefaults(t *testing.T) {
	h := NewHistoryService(cache.NewFakeClock(historyNow))

	out := h.MonthlyAverages("OTP", "LHR", "EUR", 3)
	if got, want := len(out), 3; got != want {
		t.Fatalf("length: got %d, want %d", got, want)
	}

	out2 := h.MonthlyAverages("OTP", "LHR", "EUR", 0)
	if got, want := len(out2), DefaultHistoryMonths; got != want {
		t.Fatalf("default length: got %d, want %d", got, want)
	}

	out3 := h.MonthlyAverages("OTP", "LHR", "EUR", -5)
	if got, want := len(out3), DefaultHistoryMonths; got != want {
		t.Fatalf("negative months -> default length: got %d, want %d", got, want)
	}
}

func TestMonthlyAverages_OrderFormatCurrency(t *testing.T) {
	h := NewHistoryService(cache.NewFakeClock(historyNow))

	out := h.MonthlyAverages("otp", "lhr", "usd", 6)

	if !isMonotonicMonths(out) {
		t.Fatalf("months are not strictly increasing: %v", out)
	}
	// end-of-month "now" must not skip February
	want := []string{"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}
	for i, mp := range out {
		if mp.Month != want[i] {
			t.Fatalf("month at idx %d: got %q, want %q", i, mp.Month, want[i])
		}
		if mp.Currency != "USD" {
			t.Fatalf("currency at idx %d: got %q, want USD", i, mp.Currency)
		}
	}

	if got := h.MonthlyAverages("OTP", "LHR", "", 1)[0].Currency; got != providers.DefaultCurrency {
		t.Fatalf("default currency: got %q", got)
	}
}

func TestMonthlyAverages_DeterministicValues(t *testing.T) {
	h := NewHistoryService(cache.NewFakeClock(historyNow))
	origin, dest := "OTP", "LHR"
	const months = 7

	out := h.MonthlyAverages(origin, dest, "EUR", months)
	base := providers.RouteBasePrice(origin, dest)

	for idx, mp := range out {
		i := months - 1 - idx

		mt, err := time.Parse("2006-01", mp.Month)
		if err != nil {
			t.Fatalf("bad month format at idx %d: %q: %v", idx, mp.Month, err)
		}
		season := 1.0
		switch mt.Month() {
		case time.July, time.August, time.December:
			season = 1.25
		case time.January, time.February, time.November:
			season = 0.9
		}

		expected := round2(base*season + float64((i%5)*6))
		if mp.AvgPrice != expected {
			t.Fatalf("price at idx %d (%s): got %.2f, want %.2f", idx, mp.Month, mp.AvgPrice, expected)
		}
	}
}

func TestMonthlyAverages_DeterministicAcrossCalls(t *testing.T) {
	h := NewHistoryService(cache.NewFakeClock(historyNow))

	out1 := h.MonthlyAverages("OTP", "LHR", "EUR", 9)
	out2 := h.MonthlyAverages("LHR", "OTP", "EUR", 9)

	if !reflect.DeepEqual(out1, out2) {
		t.Fatalf("trend should not depend on direction\nout1=%v\nout2=%v", out1, out2)
	}
}

func TestMonthlyAverages_SingleMonth(t *testing.T) {
	h := NewHistoryService(cache.NewFakeClock(historyNow))
	out := h.MonthlyAverages("AAA", "BBB", "EUR", 1)
	if len(out) != 1 {
		t.Fatalf("got %d points, want 1", len(out))
	}
	if out[0].Month != "2025-03" {
		t.Fatalf("month: got %q, want %q", out[0].Month, "2025-03")
	}
}
