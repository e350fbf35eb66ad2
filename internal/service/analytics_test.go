package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/go-flight-aggregator/internal/providers"
)

func TestAnalyze(t *testing.T) {
	mk := func(airline string, price *float64, stops int) providers.FlightOffer {
		return providers.FlightOffer{Airline: airline, Price: price, Stops: stops, Currency: "EUR"}
	}
	offers := []providers.FlightOffer{
		mk("TAROM", providers.Price(120), 1),
		mk("Wizz Air", providers.Price(80), 0),
		mk("TAROM", providers.Price(200), 2),
		mk("Wizz Air", providers.Price(100), 0),
		mk("Lufthansa", nil, 0),
	}

	a := Analyze(offers, 4)

	assert.Equal(t, 5, a.Offers)
	assert.Equal(t, 4, a.Priced)
	assert.Equal(t, 3, a.Direct)
	assert.Equal(t, "EUR", a.Currency)
	assert.Equal(t, 80.0, a.Min)
	assert.Equal(t, 200.0, a.Max)
	assert.InDelta(t, 125.0, a.Mean, 1e-9)
	assert.Equal(t, 100.0, a.Median)
	assert.Greater(t, a.StdDev, 0.0)

	require.Len(t, a.Histogram.Counts, 4)
	require.Len(t, a.Histogram.Edges, 5)
	assert.Equal(t, 80.0, a.Histogram.Edges[0])
	total := 0
	for _, c := range a.Histogram.Counts {
		total += c
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, a.Histogram.Counts[0], "80 and 100 share the first bucket")
	assert.Equal(t, 1, a.Histogram.Counts[3], "the maximum lands in the last bucket")

	require.Len(t, a.ByAirline, 2)
	assert.Equal(t, AirlinePrice{Airline: "Wizz Air", Count: 2, Mean: 90, Min: 80}, a.ByAirline[0])
	assert.Equal(t, "TAROM", a.ByAirline[1].Airline)

	require.Len(t, a.ByStops, 3)
	assert.Equal(t, 0, a.ByStops[0].Stops)
	assert.Equal(t, 2, a.ByStops[0].Count)
	assert.Equal(t, 80.0, a.ByStops[0].Min)
	assert.Equal(t, 100.0, a.ByStops[0].Max)
	assert.Equal(t, 2, a.ByStops[2].Stops)
}

func TestAnalyze_EdgeCases(t *testing.T) {
	empty := Analyze(nil, 0)
	assert.Zero(t, empty.Priced)
	assert.Empty(t, empty.ByAirline)
	assert.Empty(t, empty.Histogram.Counts)

	same := Analyze([]providers.FlightOffer{
		{Price: providers.Price(50)},
		{Price: providers.Price(50)},
	}, 0)
	assert.Equal(t, []int{2}, same.Histogram.Counts, "identical prices collapse to one bucket")
	assert.Zero(t, same.StdDev)

	one := Analyze([]providers.FlightOffer{{Price: providers.Price(70), AirlineCode: "RO"}}, 0)
	assert.Zero(t, one.StdDev)
	assert.Equal(t, "RO", one.ByAirline[0].Airline)
	assert.Len(t, one.Histogram.Counts, 1)
}
