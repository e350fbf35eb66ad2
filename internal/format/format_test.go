package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	cases := map[string]string{
		"PT2H10M":    "2h 10m",
		"PT45M":      "0h 45m",
		"PT3H":       "3h 0m",
		"pt1h5m":     "1h 5m",
		"PT150M":     "2h 30m",
		"P1DT2H":     "26h 0m",
		"PT2H10M30S": "2h 10m",
		"":           "",
		"N/A":        "N/A",
		"PT":         "PT",
		"2H10M":      "2H10M",
		"PTxH":       "PTxH",
		"PT2H10":     "PT2H10",
		"PT2X":       "PT2X",
	}
	for in, want := range cases {
		assert.Equal(t, want, Duration(in), "input %q", in)
	}
}

func TestParseISODuration(t *testing.T) {
	h, m, ok := ParseISODuration("PT12H5M")
	require.True(t, ok)
	require.Equal(t, 12, h)
	require.Equal(t, 5, m)

	mins, ok := DurationMinutes("PT1H30M")
	require.True(t, ok)
	require.Equal(t, 90, mins)

	_, _, ok = ParseISODuration("P2H")
	require.False(t, ok, "hours require the T designator")
}

func TestMinutes(t *testing.T) {
	require.Equal(t, "0h 0m", Minutes(0))
	require.Equal(t, "2h 5m", Minutes(125))
	require.Equal(t, "0h 0m", Minutes(-3))
}

func TestParseTimeAndDateTime(t *testing.T) {
	ts, err := ParseTime("2025-06-01T08:45:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 1, 8, 45, 0, 0, time.UTC), ts)

	ts, err = ParseTime("2025-06-01T08:45:00+02:00")
	require.NoError(t, err)
	require.Equal(t, 6, ts.UTC().Hour())

	_, err = ParseTime("yesterday")
	require.Error(t, err)

	require.Equal(t, "2025-06-01 08:45", DateTime("2025-06-01T08:45:00Z"))
	require.Equal(t, "soon", DateTime("soon"))
}

func TestAmount(t *testing.T) {
	require.Equal(t, "80.00 EUR", Amount(80, "EUR"))
	require.Equal(t, "12.50", Amount(12.5, ""))
}
