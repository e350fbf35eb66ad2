package report

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/go-flight-aggregator/internal/providers"
)

func sample() []providers.FlightOffer {
	seats := 4
	return []providers.FlightOffer{
		{
			ID: "a", Source: "amadeus", Airline: "TAROM", AirlineCode: "RO", FlightNumber: "RO391",
			Origin: "OTP", Destination: "LHR",
			DepartAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			ArriveAt: time.Date(2025, 6, 1, 10, 10, 0, 0, time.UTC),
			Duration: "2h 10m", DurationMin: 130, Price: providers.Price(120.5), Currency: "EUR",
			Cabin: providers.CabinEconomy, SeatsAvailable: &seats,
		},
		{
			ID: "b", Source: "duffel", Airline: "Wizz Air", FlightNumber: "W63001",
			Origin: "OTP", Destination: "LHR", Stops: 1, Currency: "EUR",
			Cabin: providers.CabinEconomy,
		},
		{
			ID: "c", Source: "generator", Airline: "KLM", Price: providers.Price(80),
			Origin: "OTP", Destination: "LHR", Currency: "EUR",
		},
	}
}

func TestCheapest(t *testing.T) {
	in := sample()
	got := Cheapest(in, 5)
	require.Len(t, got, 2, "unpriced offers are not deals")
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "a", in[0].ID, "input order is preserved")

	assert.Len(t, Cheapest(in, 1), 1)
	assert.Empty(t, Cheapest(in, 0))
	assert.Empty(t, Cheapest(nil, 5))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns, rows[0])
	assert.Len(t, Columns, reflect.TypeOf(providers.FlightOffer{}).NumField(), "one column per offer field")

	col := func(name string) int {
		i := slices.Index(Columns, name)
		require.GreaterOrEqual(t, i, 0, name)
		return i
	}

	first := rows[1]
	assert.Equal(t, "RO", first[col("airline_code")])
	assert.Equal(t, "130", first[col("duration_min")])
	assert.Equal(t, "120.50", first[col("price")])
	assert.Equal(t, "4", first[col("seats_available")])
	assert.Equal(t, "2025-06-01 08:00", first[col("departure")])

	second := rows[2]
	assert.Equal(t, "", second[col("price")], "missing price stays empty")
	assert.Equal(t, "", second[col("duration_min")])
	assert.Equal(t, "N/A", second[col("seats_available")])
	assert.Equal(t, "", second[col("departure")])
	assert.Equal(t, "1", second[col("stops")])

	assert.Equal(t, "80.00", rows[3][col("price")])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sample()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "AIRLINE"))
	assert.Contains(t, lines[1], "120.50 EUR")
	assert.Contains(t, lines[1], "OTP-LHR")
	assert.Contains(t, lines[2], "n/a")
	assert.Contains(t, lines[2], "N/A")
}
