package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/go-flight-aggregator/internal/providers"
)

var today = time.Date(2025, 5, 1, 15, 30, 0, 0, time.UTC)

func validCriteria() providers.SearchCriteria {
	return providers.SearchCriteria{
		Origin:        "OTP",
		Destination:   "LHR",
		DepartureDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}.Normalize()
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestIATA(t *testing.T) {
	assert.True(t, IATA("OTP"))
	assert.True(t, IATA("otp"))
	assert.False(t, IATA("OT"))
	assert.False(t, IATA("OTPX"))
	assert.False(t, IATA("O1P"))
	assert.False(t, IATA(""))
}

func TestCriteria_Valid(t *testing.T) {
	require.NoError(t, Criteria(validCriteria(), today))

	c := validCriteria()
	c.DepartureDate = today
	require.NoError(t, Criteria(c, today), "today is bookable")

	c.DepartureDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Criteria(c, today), "the last day of the horizon is bookable")
}

func TestCriteria_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *providers.SearchCriteria)
		field  string
		msg    string
	}{
		{"short origin", func(c *providers.SearchCriteria) { c.Origin = "OT" }, "origin", "airport code must be 3 characters"},
		{"digit in destination", func(c *providers.SearchCriteria) { c.Destination = "L1R" }, "destination", "airport code must contain only letters"},
		{"empty origin", func(c *providers.SearchCriteria) { c.Origin = "" }, "origin", "airport code cannot be empty"},
		{"same airports", func(c *providers.SearchCriteria) { c.Destination = "OTP" }, "destination", "destination must differ from origin"},
		{"no passengers", func(c *providers.SearchCriteria) { c.Adults = -1 }, "adults", "must have at least 1 passenger"},
		{"too many passengers", func(c *providers.SearchCriteria) { c.Adults = 10 }, "adults", "maximum 9 passengers allowed"},
		{"unknown cabin", func(c *providers.SearchCriteria) { c.Cabin = "COACH" }, "cabin", "must be one of ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST"},
		{"bad currency", func(c *providers.SearchCriteria) { c.Currency = "EURO" }, "currency", "must be a 3-letter currency code"},
		{"too few results", func(c *providers.SearchCriteria) { c.MaxResults = 5 }, "max_results", "must be between 10 and 100"},
		{"too many results", func(c *providers.SearchCriteria) { c.MaxResults = 101 }, "max_results", "must be between 10 and 100"},
		{"past date", func(c *providers.SearchCriteria) { c.DepartureDate = today.AddDate(0, 0, -1) }, "departure_date", "date cannot be in the past"},
		{"beyond horizon", func(c *providers.SearchCriteria) { c.DepartureDate = today.AddDate(0, 0, 366) }, "departure_date", "date cannot be more than 1 year in the future"},
		{"missing date", func(c *providers.SearchCriteria) { c.DepartureDate = time.Time{} }, "departure_date", "departure date is required"},
		{"return before departure", func(c *providers.SearchCriteria) {
			r := c.DepartureDate
			c.ReturnDate = &r
		}, "return_date", "return date must be after departure date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCriteria()
			tt.mutate(&c)
			got := fields(t, Criteria(c, today))
			assert.Equal(t, tt.msg, got[tt.field])
		})
	}
}

func TestCriteria_CollectsAllFields(t *testing.T) {
	c := validCriteria()
	c.Origin = "OT"
	c.Adults = 12
	err := Criteria(c, today)

	got := fields(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, err.Error(), "origin: airport code must be 3 characters")
	assert.Contains(t, err.Error(), "adults: maximum 9 passengers allowed")
}
