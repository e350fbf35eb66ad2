package service

import (
	"math"
	"strings"
	"time"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/providers"
)

const DefaultHistoryMonths = 24

type MonthPoint struct {
	Month    string  `json:"month"` // YYYY-MM
	AvgPrice float64 `json:"avg_price"`
	Currency string  `json:"currency"`
}

// HistoryService returns a synthetic, deterministic monthly price trend for
// a route, anchored on the same base fare the offer generator uses.
type HistoryService struct {
	clock cache.Clock
}

func NewHistoryService(clock cache.Clock) *HistoryService {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &HistoryService{clock: clock}
}

// MonthlyAverages lists the last months months, oldest first, ending with
// the current one. months <= 0 means DefaultHistoryMonths.
func (h *HistoryService) MonthlyAverages(origin, dest, currency string, months int) []MonthPoint {
	if months <= 0 {
		months = DefaultHistoryMonths
	}
	origin, dest = strings.ToUpper(origin), strings.ToUpper(dest)
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = providers.DefaultCurrency
	}

	base := providers.RouteBasePrice(origin, dest)
	now := h.clock.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]MonthPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		season := 1.0
		switch m.Month() {
		case time.July, time.August, time.December:
			season = 1.25
		case time.January, time.February, time.November:
			season = 0.9
		}
		price := base*season + float64((i%5)*6)
		out = append(out, MonthPoint{Month: m.Format("2006-01"), AvgPrice: round2(price), Currency: currency})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
