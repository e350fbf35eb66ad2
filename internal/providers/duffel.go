package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
)

const duffelName = "duffel"

type Duffel struct {
	host   string
	token  string
	client *http.Client
	guard  *guard
	log    zerolog.Logger
}

func NewDuffel(cfg *config.Config, store *cache.Store, log zerolog.Logger) *Duffel {
	l := log.With().Str("provider", duffelName).Logger()
	return &Duffel{
		host:   strings.TrimRight(cfg.DuffelHost, "/"),
		token:  cfg.DuffelToken,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		guard: newGuard(duffelName, store,
			store.Limiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow), cfg.FlightCacheTTL, l),
		log: l,
	}
}

func (d *Duffel) Name() string { return duffelName }

func (d *Duffel) Configured() bool { return d.token != "" }

func (d *Duffel) Search(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	if !d.Configured() {
		return nil, fmt.Errorf("%s: %w", duffelName, ErrNotConfigured)
	}
	return d.guard.search(ctx, c, d.fetch)
}

type duffelSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassenger struct {
	Type string `json:"type"`
}

type duffelOfferRequest struct {
	Slices         []duffelSlice     `json:"slices"`
	Passengers     []duffelPassenger `json:"passengers"`
	CabinClass     string            `json:"cabin_class"`
	MaxConnections *int              `json:"max_connections,omitempty"`
}

type duffelOfferRequestEnvelope struct {
	Data duffelOfferRequest `json:"data"`
}

func newDuffelOfferRequest(c SearchCriteria) duffelOfferRequestEnvelope {
	req := duffelOfferRequest{
		Slices: []duffelSlice{
			{Origin: c.Origin, Destination: c.Destination, DepartureDate: c.Departure()},
		},
		CabinClass: strings.ToLower(string(c.Cabin)),
	}
	if r := c.Return(); r != "" {
		req.Slices = append(req.Slices, duffelSlice{Origin: c.Destination, Destination: c.Origin, DepartureDate: r})
	}
	for i := 0; i < c.Adults; i++ {
		req.Passengers = append(req.Passengers, duffelPassenger{Type: "adult"})
	}
	if c.NonStop {
		zero := 0
		req.MaxConnections = &zero
	}
	return duffelOfferRequestEnvelope{Data: req}
}

func (d *Duffel) fetch(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	b, err := json.Marshal(newDuffelOfferRequest(c))
	if err != nil {
		return nil, &TransportError{Provider: duffelName, Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.host+"/air/offer_requests?return_offers=true", bytes.NewReader(b))
	if err != nil {
		return nil, &TransportError{Provider: duffelName, Op: "search", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Duffel-Version", "v2")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: duffelName, Op: "search", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &TransportError{Provider: duffelName, Op: "search", StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: duffelName, Op: "read", Err: err}
	}
	offers, skipped, err := normalizeDuffel(body, c)
	if err != nil {
		return nil, &TransportError{Provider: duffelName, Op: "decode", Err: err}
	}
	for _, perr := range skipped {
		d.log.Warn().Err(perr).Msg("skipping malformed offer")
	}
	if len(offers) > c.MaxResults {
		offers = offers[:c.MaxResults]
	}
	return offers, nil
}

type duffelPlace struct {
	IataCode string `json:"iata_code"`
}

type duffelCarrier struct {
	IataCode string `json:"iata_code"`
	Name     string `json:"name"`
}

type duffelOffer struct {
	ID            string        `json:"id"`
	TotalAmount   string        `json:"total_amount"`
	TotalCurrency string        `json:"total_currency"`
	Owner         duffelCarrier `json:"owner"`
	Slices        []struct {
		Duration string `json:"duration"`
		Segments []struct {
			Origin                       duffelPlace   `json:"origin"`
			Destination                  duffelPlace   `json:"destination"`
			DepartingAt                  string        `json:"departing_at"`
			ArrivingAt                   string        `json:"arriving_at"`
			MarketingCarrier             duffelCarrier `json:"marketing_carrier"`
			MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
			Passengers                   []struct {
				CabinClass string `json:"cabin_class"`
			} `json:"passengers"`
		} `json:"segments"`
	} `json:"slices"`
}

func normalizeDuffel(body []byte, c SearchCriteria) (offers []FlightOffer, skipped []error, err error) {
	var env struct {
		Data struct {
			Offers []json.RawMessage `json:"offers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, err
	}

	offers = make([]FlightOffer, 0, len(env.Data.Offers))
	for i, raw := range env.Data.Offers {
		var do duffelOffer
		if err := json.Unmarshal(raw, &do); err != nil {
			skipped = append(skipped, &ParseError{Provider: duffelName, Index: i, Err: err})
			continue
		}
		o, err := do.toOffer(i, c)
		if err != nil {
			skipped = append(skipped, &ParseError{Provider: duffelName, Index: i, Err: err})
			continue
		}
		offers = append(offers, o)
	}
	return offers, skipped, nil
}

func (do duffelOffer) toOffer(idx int, c SearchCriteria) (FlightOffer, error) {
	if len(do.Slices) == 0 || len(do.Slices[0].Segments) == 0 {
		return FlightOffer{}, errNoSegments
	}
	slice := do.Slices[0]
	seg0 := slice.Segments[0]
	segn := slice.Segments[len(slice.Segments)-1]

	depart, arrive, err := parseEndpoints(seg0.DepartingAt, segn.ArrivingAt)
	if err != nil {
		return FlightOffer{}, err
	}
	duration, durationMin := durationFields(slice.Duration, depart, arrive)

	carrier := do.Owner
	if carrier.IataCode == "" {
		carrier = seg0.MarketingCarrier
	}
	if carrier.Name == "" {
		carrier.Name = carrier.IataCode
	}

	cabin := c.Cabin
	if len(seg0.Passengers) > 0 {
		cabin = cabinOr(seg0.Passengers[0].CabinClass, c.Cabin)
	}

	currency := do.TotalCurrency
	if currency == "" {
		currency = c.Currency
	}

	id := do.ID
	if id == "" {
		id = strconv.Itoa(idx + 1)
	}

	return FlightOffer{
		ID:           duffelName + "-" + id,
		Source:       duffelName,
		Airline:      carrier.Name,
		AirlineCode:  carrier.IataCode,
		FlightNumber: seg0.MarketingCarrier.IataCode + seg0.MarketingCarrierFlightNumber,
		Origin:       iataOr(seg0.Origin.IataCode, c.Origin),
		Destination:  iataOr(segn.Destination.IataCode, c.Destination),
		DepartAt:     depart,
		ArriveAt:     arrive,
		Duration:     duration,
		DurationMin:  durationMin,
		Price:        parsePrice(do.TotalAmount),
		Currency:     currency,
		Cabin:        cabin,
		Stops:        stopsFor(len(slice.Segments)),
	}, nil
}
