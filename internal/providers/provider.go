package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

var CabinClasses = []CabinClass{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

func (c CabinClass) Valid() bool {
	for _, v := range CabinClasses {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCabinClass accepts any casing and "premium economy" / "premium-economy".
func ParseCabinClass(s string) (CabinClass, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := CabinClass(norm)
	if !c.Valid() {
		return "", fmt.Errorf("unknown cabin class %q", s)
	}
	return c, nil
}

const (
	DefaultCurrency   = "EUR"
	DefaultMaxResults = 50
	dateLayout        = "2006-01-02"
)

type SearchCriteria struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate time.Time  `json:"departure_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	Adults        int        `json:"adults"`
	Cabin         CabinClass `json:"cabin"`
	NonStop       bool       `json:"non_stop"`
	Currency      string     `json:"currency"`
	MaxResults    int        `json:"max_results"`
}

// Normalize upper-cases codes and fills unset fields with defaults.
func (c SearchCriteria) Normalize() SearchCriteria {
	c.Origin = strings.ToUpper(strings.TrimSpace(c.Origin))
	c.Destination = strings.ToUpper(strings.TrimSpace(c.Destination))
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Cabin == "" {
		c.Cabin = CabinEconomy
	}
	if c.Adults == 0 {
		c.Adults = 1
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	return c
}

func (c SearchCriteria) Departure() string { return c.DepartureDate.Format(dateLayout) }

// Return is the return date as YYYY-MM-DD, or "" for one-way searches.
func (c SearchCriteria) Return() string {
	if c.ReturnDate == nil {
		return ""
	}
	return c.ReturnDate.Format(dateLayout)
}

// CacheKey renders the full normalized criteria tuple for one provider.
func (c SearchCriteria) CacheKey(provider string) string {
	return strings.Join([]string{
		provider,
		c.Origin,
		c.Destination,
		c.Departure(),
		c.Return(),
		fmt.Sprint(c.Adults),
		string(c.Cabin),
		fmt.Sprint(c.NonStop),
		c.Currency,
		fmt.Sprint(c.MaxResults),
	}, "|")
}

func (c SearchCriteria) String() string {
	s := fmt.Sprintf("%s-%s %s", c.Origin, c.Destination, c.Departure())
	if r := c.Return(); r != "" {
		s += "/" + r
	}
	return s
}

type FlightOffer struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Airline        string     `json:"airline"`
	AirlineCode    string     `json:"airline_code"`
	FlightNumber   string     `json:"flight_number"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	DepartAt       time.Time  `json:"depart_at"`
	ArriveAt       time.Time  `json:"arrive_at"`
	Duration       string     `json:"duration"`
	DurationMin    int        `json:"duration_min"`
	Price          *float64   `json:"price,omitempty"`
	Currency       string     `json:"currency"`
	Cabin          CabinClass `json:"cabin_class"`
	Stops          int        `json:"stops"`
	SeatsAvailable *int       `json:"seats_available,omitempty"`
	BookingLink    string     `json:"booking_link,omitempty"`
}

// PriceValue returns the price and whether the provider reported one.
func (o FlightOffer) PriceValue() (float64, bool) {
	if o.Price == nil {
		return 0, false
	}
	return *o.Price, true
}

func (o FlightOffer) IsDirect() bool { return o.Stops == 0 }

// Price is a convenience for building offers with a known price.
func Price(v float64) *float64 { return &v }

type FlightProvider interface {
	Name() string
	// Search never returns a raw transport error: failures come back as
	// *AuthError, *TransportError or ErrNotConfigured alongside an empty list.
	Search(ctx context.Context, criteria SearchCriteria) ([]FlightOffer, error)
}
