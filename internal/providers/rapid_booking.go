package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
)

const rapidBookingName = "rapid-booking"

type RapidBooking struct {
	baseURL     string
	apiHost     string
	path        string
	rapidApiKey string
	client      *http.Client
	guard       *guard
	log         zerolog.Logger
}

// NewRapidBooking accepts either a bare RapidAPI host
// (booking-com15.p.rapidapi.com) or a full base URL.
func NewRapidBooking(cfg *config.Config, store *cache.Store, log zerolog.Logger) *RapidBooking {
	l := log.With().Str("provider", rapidBookingName).Logger()
	base := strings.TrimRight(cfg.RapidBookingHost, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	apiHost := base
	if u, err := url.Parse(base); err == nil {
		apiHost = u.Host
	}
	return &RapidBooking{
		baseURL:     base,
		apiHost:     apiHost,
		path:        "/api/v1/flights/searchFlights",
		rapidApiKey: cfg.RapidBookingRapidApiKey,
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		guard: newGuard(rapidBookingName, store,
			store.Limiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow), cfg.FlightCacheTTL, l),
		log: l,
	}
}

func (r *RapidBooking) Name() string { return rapidBookingName }

func (r *RapidBooking) Configured() bool { return r.rapidApiKey != "" }

func (r *RapidBooking) Search(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	if !r.Configured() {
		return nil, fmt.Errorf("%s: %w", rapidBookingName, ErrNotConfigured)
	}
	return r.guard.search(ctx, c, r.fetch)
}

func (r *RapidBooking) fetch(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	q := url.Values{}
	// Rapid requires the ".AIRPORT" suffix
	q.Set("fromId", c.Origin+".AIRPORT")
	q.Set("toId", c.Destination+".AIRPORT")
	q.Set("departDate", c.Departure())
	if ret := c.Return(); ret != "" {
		q.Set("returnDate", ret)
	}
	if c.NonStop {
		q.Set("stops", "none")
	}
	q.Set("pageNo", "1")
	q.Set("adults", strconv.Itoa(c.Adults))
	q.Set("children", "0")
	q.Set("sort", "CHEAPEST")
	q.Set("cabinClass", string(c.Cabin))
	q.Set("currency_code", c.Currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+r.path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Provider: rapidBookingName, Op: "search", Err: err}
	}
	req.Header.Set("X-RapidAPI-Key", r.rapidApiKey)
	req.Header.Set("X-RapidAPI-Host", r.apiHost)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: rapidBookingName, Op: "search", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &TransportError{Provider: rapidBookingName, Op: "search", StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: rapidBookingName, Op: "read", Err: err}
	}
	offers, skipped, err := normalizeRapidBooking(body, c)
	if err != nil {
		return nil, &TransportError{Provider: rapidBookingName, Op: "decode", Err: err}
	}
	for _, perr := range skipped {
		r.log.Warn().Err(perr).Msg("skipping malformed offer")
	}
	if len(offers) > c.MaxResults {
		offers = offers[:c.MaxResults]
	}
	return offers, nil
}

type rapidCarrier struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type rapidFlightOffer struct {
	Token    string `json:"token"`
	Segments []struct {
		DepartureAirport struct {
			Code string `json:"code"`
		} `json:"departureAirport"`
		ArrivalAirport struct {
			Code string `json:"code"`
		} `json:"arrivalAirport"`
		DepartureTime string `json:"departureTime"`
		ArrivalTime   string `json:"arrivalTime"`
		TotalTime     int    `json:"totalTime"` // seconds
		Legs          []struct {
			CabinClass string `json:"cabinClass"`
			FlightInfo struct {
				FlightNumber int `json:"flightNumber"`
				CarrierInfo  struct {
					MarketingCarrier string `json:"marketingCarrier"`
				} `json:"carrierInfo"`
			} `json:"flightInfo"`
			CarriersData []rapidCarrier `json:"carriersData"`
		} `json:"legs"`
	} `json:"segments"`
	PriceBreakdown struct {
		Total *struct {
			CurrencyCode string `json:"currencyCode"`
			Units        int64  `json:"units"`
			Nanos        int64  `json:"nanos"`
		} `json:"total"`
	} `json:"priceBreakdown"`
	SeatAvailability *struct {
		NumberOfSeatsAvailable int `json:"numberOfSeatsAvailable"`
	} `json:"seatAvailability"`
}

func normalizeRapidBooking(body []byte, c SearchCriteria) (offers []FlightOffer, skipped []error, err error) {
	var env struct {
		Data struct {
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
		Status  bool `json:"status"`
		Message any  `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, err
	}
	if !env.Status {
		return nil, nil, fmt.Errorf("status false: %v", env.Message)
	}

	offers = make([]FlightOffer, 0, len(env.Data.FlightOffers))
	for i, raw := range env.Data.FlightOffers {
		var fo rapidFlightOffer
		if err := json.Unmarshal(raw, &fo); err != nil {
			skipped = append(skipped, &ParseError{Provider: rapidBookingName, Index: i, Err: err})
			continue
		}
		o, err := fo.toOffer(i, c)
		if err != nil {
			skipped = append(skipped, &ParseError{Provider: rapidBookingName, Index: i, Err: err})
			continue
		}
		offers = append(offers, o)
	}
	return offers, skipped, nil
}

func (fo rapidFlightOffer) toOffer(idx int, c SearchCriteria) (FlightOffer, error) {
	if len(fo.Segments) == 0 {
		return FlightOffer{}, errNoSegments
	}
	seg := fo.Segments[0]

	depart, arrive, err := parseEndpoints(seg.DepartureTime, seg.ArrivalTime)
	if err != nil {
		return FlightOffer{}, err
	}
	raw := ""
	if seg.TotalTime > 0 {
		raw = fmt.Sprintf("PT%dM", seg.TotalTime/60)
	}
	duration, durationMin := durationFields(raw, depart, arrive)

	var (
		carrier      rapidCarrier
		flightNumber string
		cabin        = c.Cabin
	)
	if len(seg.Legs) > 0 {
		leg := seg.Legs[0]
		if len(leg.CarriersData) > 0 {
			carrier = leg.CarriersData[0]
		}
		if carrier.Code == "" {
			carrier.Code = leg.FlightInfo.CarrierInfo.MarketingCarrier
		}
		if leg.FlightInfo.FlightNumber > 0 {
			flightNumber = carrier.Code + strconv.Itoa(leg.FlightInfo.FlightNumber)
		}
		cabin = cabinOr(leg.CabinClass, c.Cabin)
	}
	if carrier.Name == "" {
		carrier.Name = carrier.Code
	}

	var price *float64
	currency := c.Currency
	if t := fo.PriceBreakdown.Total; t != nil {
		if total := float64(t.Units) + float64(t.Nanos)/1e9; total >= 0 {
			price = &total
		}
		if t.CurrencyCode != "" {
			currency = t.CurrencyCode
		}
	}

	var seats *int
	if fo.SeatAvailability != nil {
		n := fo.SeatAvailability.NumberOfSeatsAvailable
		seats = &n
	}

	id := fo.Token
	if id == "" {
		id = strconv.Itoa(idx + 1)
	}

	return FlightOffer{
		ID:             rapidBookingName + "-" + id,
		Source:         rapidBookingName,
		Airline:        carrier.Name,
		AirlineCode:    carrier.Code,
		FlightNumber:   flightNumber,
		Origin:         iataOr(seg.DepartureAirport.Code, c.Origin),
		Destination:    iataOr(seg.ArrivalAirport.Code, c.Destination),
		DepartAt:       depart,
		ArriveAt:       arrive,
		Duration:       duration,
		DurationMin:    durationMin,
		Price:          price,
		Currency:       currency,
		Cabin:          cabin,
		Stops:          stopsFor(len(seg.Legs)),
		SeatsAvailable: seats,
	}, nil
}
