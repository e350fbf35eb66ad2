package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
)

const (
	amadeusName     = "amadeus"
	amadeusTokenKey = "token"
	amadeusMaxLimit = 250
)

type Amadeus struct {
	host       string
	authPath   string
	searchPath string
	client     *http.Client
	id         string
	secret     string
	tokenTTL   time.Duration
	store      *cache.Store
	guard      *guard
	log        zerolog.Logger
}

func NewAmadeus(cfg *config.Config, store *cache.Store, log zerolog.Logger) *Amadeus {
	l := log.With().Str("provider", amadeusName).Logger()
	return &Amadeus{
		host:       strings.TrimRight(cfg.AmadeusURL, "/"),
		authPath:   "/v1/security/oauth2/token",
		searchPath: "/v2/shopping/flight-offers",
		id:         cfg.AmadeusClientId,
		secret:     cfg.AmadeusClientSecret,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
		tokenTTL:   cfg.TokenTTL,
		store:      store,
		guard: newGuard(amadeusName, store,
			store.Limiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow), cfg.FlightCacheTTL, l),
		log: l,
	}
}

func (a *Amadeus) Name() string { return amadeusName }

func (a *Amadeus) Configured() bool { return a.id != "" && a.secret != "" }

func (a *Amadeus) Search(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("%s: %w", amadeusName, ErrNotConfigured)
	}
	return a.guard.search(ctx, c, a.fetch)
}

// token returns the cached bearer token or runs the client-credentials
// grant. The token lives in the shared store under its own TTL, capped by
// the expiry the server announces.
func (a *Amadeus) token(ctx context.Context) (string, error) {
	if v, ok := a.store.Get(amadeusName, amadeusTokenKey); ok {
		if tok, ok := v.(string); ok && tok != "" {
			return tok, nil
		}
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", a.id)
	data.Set("client_secret", a.secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+a.authPath, strings.NewReader(data.Encode()))
	if err != nil {
		return "", &AuthError{Provider: amadeusName, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &AuthError{Provider: amadeusName, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Provider: amadeusName, StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &AuthError{Provider: amadeusName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Provider: amadeusName, StatusCode: resp.StatusCode, Err: errors.New("empty access_token")}
	}

	ttl := a.tokenTTL
	if tr.ExpiresIn > 0 {
		if announced := time.Duration(tr.ExpiresIn)*time.Second - 10*time.Second; announced > 0 && announced < ttl {
			ttl = announced
		}
	}
	a.store.Set(amadeusName, amadeusTokenKey, tr.AccessToken, ttl)
	a.log.Debug().Dur("ttl", ttl).Msg("obtained access token")
	return tr.AccessToken, nil
}

func (a *Amadeus) fetch(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("originLocationCode", c.Origin)
	q.Set("destinationLocationCode", c.Destination)
	q.Set("departureDate", c.Departure())
	if r := c.Return(); r != "" {
		q.Set("returnDate", r)
	}
	q.Set("adults", strconv.Itoa(c.Adults))
	q.Set("travelClass", string(c.Cabin))
	q.Set("nonStop", strconv.FormatBool(c.NonStop))
	q.Set("currencyCode", c.Currency)
	q.Set("max", strconv.Itoa(min(c.MaxResults, amadeusMaxLimit)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.host+a.searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Provider: amadeusName, Op: "search", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: amadeusName, Op: "search", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		// token revoked or expired early; the next search re-authenticates
		a.store.Delete(amadeusName, amadeusTokenKey)
	}
	if resp.StatusCode >= 300 {
		return nil, &TransportError{Provider: amadeusName, Op: "search", StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: amadeusName, Op: "read", Err: err}
	}
	offers, skipped, err := normalizeAmadeus(body, c)
	if err != nil {
		return nil, &TransportError{Provider: amadeusName, Op: "decode", Err: err}
	}
	for _, perr := range skipped {
		a.log.Warn().Err(perr).Msg("skipping malformed offer")
	}
	return offers, nil
}

type amadeusSegment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type amadeusOffer struct {
	ID                     string   `json:"id"`
	NumberOfBookableSeats  *int     `json:"numberOfBookableSeats"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	Price                  struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string           `json:"duration"` // ISO8601 e.g. PT2H10M
		Segments []amadeusSegment `json:"segments"`
	} `json:"itineraries"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

// normalizeAmadeus maps a flight-offers response onto FlightOffer. Offers
// that fail to decode or lack segments/timestamps are reported in skipped;
// only an unreadable envelope fails the whole batch.
func normalizeAmadeus(body []byte, c SearchCriteria) (offers []FlightOffer, skipped []error, err error) {
	var env struct {
		Data         []json.RawMessage `json:"data"`
		Dictionaries struct {
			Carriers map[string]string `json:"carriers"`
		} `json:"dictionaries"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, err
	}

	offers = make([]FlightOffer, 0, len(env.Data))
	for i, raw := range env.Data {
		var ao amadeusOffer
		if err := json.Unmarshal(raw, &ao); err != nil {
			skipped = append(skipped, &ParseError{Provider: amadeusName, Index: i, Err: err})
			continue
		}
		o, err := ao.toOffer(i, env.Dictionaries.Carriers, c)
		if err != nil {
			skipped = append(skipped, &ParseError{Provider: amadeusName, Index: i, Err: err})
			continue
		}
		offers = append(offers, o)
	}
	return offers, skipped, nil
}

func (ao amadeusOffer) toOffer(idx int, carriers map[string]string, c SearchCriteria) (FlightOffer, error) {
	if len(ao.Itineraries) == 0 || len(ao.Itineraries[0].Segments) == 0 {
		return FlightOffer{}, errNoSegments
	}
	itin := ao.Itineraries[0]
	first := itin.Segments[0]
	last := itin.Segments[len(itin.Segments)-1]

	depart, arrive, err := parseEndpoints(first.Departure.At, last.Arrival.At)
	if err != nil {
		return FlightOffer{}, err
	}
	duration, durationMin := durationFields(itin.Duration, depart, arrive)

	code := first.CarrierCode
	if len(ao.ValidatingAirlineCodes) > 0 && ao.ValidatingAirlineCodes[0] != "" {
		code = ao.ValidatingAirlineCodes[0]
	}
	airline := carriers[code]
	if airline == "" {
		airline = code
	}

	cabin := c.Cabin
	if len(ao.TravelerPricings) > 0 && len(ao.TravelerPricings[0].FareDetailsBySegment) > 0 {
		cabin = cabinOr(ao.TravelerPricings[0].FareDetailsBySegment[0].Cabin, c.Cabin)
	}

	currency := ao.Price.Currency
	if currency == "" {
		currency = c.Currency
	}

	id := ao.ID
	if id == "" {
		id = strconv.Itoa(idx + 1)
	}

	return FlightOffer{
		ID:             amadeusName + "-" + id,
		Source:         amadeusName,
		Airline:        airline,
		AirlineCode:    code,
		FlightNumber:   first.CarrierCode + first.Number,
		Origin:         iataOr(first.Departure.IataCode, c.Origin),
		Destination:    iataOr(last.Arrival.IataCode, c.Destination),
		DepartAt:       depart,
		ArriveAt:       arrive,
		Duration:       duration,
		DurationMin:    durationMin,
		Price:          parsePrice(ao.Price.Total),
		Currency:       currency,
		Cabin:          cabin,
		Stops:          stopsFor(len(itin.Segments)),
		SeatsAvailable: ao.NumberOfBookableSeats,
	}, nil
}
