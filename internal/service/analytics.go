package service

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/you/go-flight-aggregator/internal/providers"
)

const DefaultHistogramBins = 20

type Histogram struct {
	// Edges has len(Counts)+1 entries; bucket i covers [Edges[i], Edges[i+1]).
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

type AirlinePrice struct {
	Airline string  `json:"airline"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
}

// StopsPrice is the price spread for one stop count, box-plot style.
type StopsPrice struct {
	Stops  int     `json:"stops"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

type Analytics struct {
	Offers    int            `json:"offers"`
	Priced    int            `json:"priced"`
	Direct    int            `json:"direct"`
	Currency  string         `json:"currency,omitempty"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Mean      float64        `json:"mean"`
	Median    float64        `json:"median"`
	StdDev    float64        `json:"std_dev"`
	Histogram Histogram      `json:"histogram"`
	ByAirline []AirlinePrice `json:"by_airline"`
	ByStops   []StopsPrice   `json:"by_stops"`
}

// Analyze summarises the price distribution of offers. Offers without a
// price count towards Offers and Direct only. bins <= 0 uses
// DefaultHistogramBins.
func Analyze(offers []providers.FlightOffer, bins int) Analytics {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	a := Analytics{Offers: len(offers), ByAirline: []AirlinePrice{}, ByStops: []StopsPrice{}}

	var prices []float64
	byAirline := map[string][]float64{}
	byStops := map[int][]float64{}
	for _, o := range offers {
		if o.IsDirect() {
			a.Direct++
		}
		p, ok := o.PriceValue()
		if !ok {
			continue
		}
		if a.Currency == "" {
			a.Currency = o.Currency
		}
		prices = append(prices, p)
		airline := o.Airline
		if airline == "" {
			airline = o.AirlineCode
		}
		byAirline[airline] = append(byAirline[airline], p)
		byStops[o.Stops] = append(byStops[o.Stops], p)
	}
	a.Priced = len(prices)
	if len(prices) == 0 {
		return a
	}

	slices.Sort(prices)
	a.Min = prices[0]
	a.Max = prices[len(prices)-1]
	a.Mean = stat.Mean(prices, nil)
	a.Median = stat.Quantile(0.5, stat.Empirical, prices, nil)
	if len(prices) > 1 {
		a.StdDev = stat.StdDev(prices, nil)
	}
	a.Histogram = histogram(prices, bins)

	for name, ps := range byAirline {
		a.ByAirline = append(a.ByAirline, AirlinePrice{
			Airline: name,
			Count:   len(ps),
			Mean:    stat.Mean(ps, nil),
			Min:     floats.Min(ps),
		})
	}
	slices.SortFunc(a.ByAirline, func(x, y AirlinePrice) int {
		if c := cmp.Compare(x.Mean, y.Mean); c != 0 {
			return c
		}
		return cmp.Compare(x.Airline, y.Airline)
	})

	for stops, ps := range byStops {
		slices.Sort(ps)
		a.ByStops = append(a.ByStops, StopsPrice{
			Stops:  stops,
			Count:  len(ps),
			Min:    ps[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, ps, nil),
			Median: stat.Quantile(0.5, stat.Empirical, ps, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, ps, nil),
			Max:    ps[len(ps)-1],
		})
	}
	slices.SortFunc(a.ByStops, func(x, y StopsPrice) int { return cmp.Compare(x.Stops, y.Stops) })
	return a
}

// histogram buckets sorted prices into equal-width bins between the
// smallest and largest price.
func histogram(sorted []float64, bins int) Histogram {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		bins = 1
	}
	// stat.Histogram wants every value strictly below the last divider
	dividers := floats.Span(make([]float64, bins+1), lo, math.Nextafter(hi, math.Inf(1)))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	h := Histogram{Edges: dividers, Counts: make([]int, len(counts))}
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h
}
