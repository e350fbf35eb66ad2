package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/go-flight-aggregator/internal/cache"
)

const duffelBody = `{"data": {"offers": [
  {
    "id": "off_1", "total_amount": "99.90", "total_currency": "GBP",
    "owner": {"iata_code": "BA", "name": "British Airways"},
    "slices": [{"duration": "PT3H5M", "segments": [
      {"origin": {"iata_code": "OTP"}, "destination": {"iata_code": "MUC"},
       "departing_at": "2025-06-01T06:00:00", "arriving_at": "2025-06-01T07:30:00",
       "marketing_carrier": {"iata_code": "BA", "name": "British Airways"},
       "marketing_carrier_flight_number": "881",
       "passengers": [{"cabin_class": "economy"}]},
      {"origin": {"iata_code": "MUC"}, "destination": {"iata_code": "LHR"},
       "departing_at": "2025-06-01T08:00:00", "arriving_at": "2025-06-01T09:05:00",
       "marketing_carrier": {"iata_code": "BA"}, "marketing_carrier_flight_number": "952"}
    ]}]
  },
  {
    "id": "off_2", "total_amount": "n/a",
    "slices": [{"segments": [
      {"origin": {"iata_code": "OTP"}, "destination": {"iata_code": "LHR"},
       "departing_at": "2025-06-01T12:00:00", "arriving_at": "2025-06-01T15:00:00",
       "marketing_carrier": {"iata_code": "W6", "name": "Wizz Air"},
       "marketing_carrier_flight_number": "3001"}
    ]}]
  },
  {"id": "off_3", "slices": []}
]}}`

func TestDuffel_OfferRequest(t *testing.T) {
	c := testCriteria("2025-06-01")
	ret := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	c.ReturnDate = &ret
	c.Adults = 2
	c.NonStop = true
	c.Cabin = CabinPremiumEconomy

	req := newDuffelOfferRequest(c).Data
	require.Len(t, req.Slices, 2)
	assert.Equal(t, duffelSlice{Origin: "LHR", Destination: "OTP", DepartureDate: "2025-06-08"}, req.Slices[1])
	assert.Len(t, req.Passengers, 2)
	assert.Equal(t, "premium_economy", req.CabinClass)
	require.NotNil(t, req.MaxConnections)
	assert.Equal(t, 0, *req.MaxConnections)

	oneWay := newDuffelOfferRequest(testCriteria("2025-06-01")).Data
	assert.Len(t, oneWay.Slices, 1)
	assert.Nil(t, oneWay.MaxConnections)
}

func TestDuffel_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/air/offer_requests", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("return_offers"))
		assert.Equal(t, "Bearer duffel_test", r.Header.Get("Authorization"))
		assert.Equal(t, "v2", r.Header.Get("Duffel-Version"))

		var body duffelOfferRequestEnvelope
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "OTP", body.Data.Slices[0].Origin)

		_, _ = w.Write([]byte(duffelBody))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.DuffelHost = srv.URL
	cfg.DuffelToken = "duffel_test"
	d := NewDuffel(cfg, cache.New(), zerolog.Nop())

	offers, err := d.Search(context.Background(), testCriteria("2025-06-01"))
	require.NoError(t, err)
	require.Len(t, offers, 2)

	first := offers[0]
	assert.Equal(t, "duffel-off_1", first.ID)
	assert.Equal(t, "British Airways", first.Airline)
	assert.Equal(t, "BA881", first.FlightNumber)
	assert.Equal(t, "LHR", first.Destination)
	assert.Equal(t, 1, first.Stops)
	assert.Equal(t, "3h 5m", first.Duration)
	assert.Equal(t, "GBP", first.Currency)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 99.90, *first.Price, 1e-9)

	second := offers[1]
	assert.Equal(t, "Wizz Air", second.Airline)
	assert.Nil(t, second.Price, "unparsable amount is unknown, not zero")
	assert.Equal(t, "EUR", second.Currency)
	assert.Equal(t, 180, second.DurationMin, "falls back to the timestamp gap")
	assert.Equal(t, "3h 0m", second.Duration)
	assert.True(t, second.IsDirect())
}

func TestDuffel_HTTPErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.DuffelHost = srv.URL
	cfg.DuffelToken = "duffel_test"
	store := cache.New()
	d := NewDuffel(cfg, store, zerolog.Nop())

	offers, err := d.Search(context.Background(), testCriteria("2025-06-01"))
	assert.Empty(t, offers)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, "duffel", te.Provider)
	assert.Empty(t, store.Stats()["duffel"], "failures are not cached")
}

func TestDuffel_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig()
	cfg.DuffelHost = url
	cfg.DuffelToken = "duffel_test"
	d := NewDuffel(cfg, cache.New(), zerolog.Nop())

	_, err := d.Search(context.Background(), testCriteria("2025-06-01"))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}
