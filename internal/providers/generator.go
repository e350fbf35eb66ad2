package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/format"
)

const generatorName = "generator"

var generatorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("flight-aggregator/generator"))

type carrier struct {
	Code string
	Name string
}

var generatorCarriers = []carrier{
	{"RO", "TAROM"},
	{"W6", "Wizz Air"},
	{"FR", "Ryanair"},
	{"LH", "Lufthansa"},
	{"AF", "Air France"},
	{"KL", "KLM"},
	{"BA", "British Airways"},
	{"OS", "Austrian Airlines"},
	{"TK", "Turkish Airlines"},
	{"LO", "LOT Polish Airlines"},
}

var cabinMultiplier = map[CabinClass]float64{
	CabinEconomy:        1.0,
	CabinPremiumEconomy: 1.6,
	CabinBusiness:       3.2,
	CabinFirst:          5.5,
}

// Generator fabricates plausible offers without any network access. The
// same criteria always yield the same offers.
type Generator struct {
	log zerolog.Logger
}

func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{log: log.With().Str("provider", generatorName).Logger()}
}

func (g *Generator) Name() string { return generatorName }

func (g *Generator) Search(ctx context.Context, c SearchCriteria) ([]FlightOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Provider: generatorName, Op: "search", Err: err}
	}
	offers := generateOffers(c)
	g.log.Debug().Str("route", c.String()).Int("offers", len(offers)).Msg("generated offers")
	return offers, nil
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// RouteBasePrice is the one-way economy base fare for a route, between 60
// and 259. It does not depend on direction.
func RouteBasePrice(origin, dest string) float64 {
	if dest < origin {
		origin, dest = dest, origin
	}
	return 60 + float64(hash64(origin+"-"+dest)%200)
}

// routeMinutes is the non-stop block time for a route, 55 to 654 minutes.
func routeMinutes(origin, dest string) int {
	if dest < origin {
		origin, dest = dest, origin
	}
	return 55 + int(hash64(dest+"~"+origin)%600)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func generateOffers(c SearchCriteria) []FlightOffer {
	key := c.CacheKey(generatorName)
	seed := hash64(key)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := 8 + rng.IntN(23)
	if c.MaxResults > 0 && n > c.MaxResults {
		n = c.MaxResults
	}

	base := RouteBasePrice(c.Origin, c.Destination)
	mult, ok := cabinMultiplier[c.Cabin]
	if !ok {
		mult = 1
	}
	block := routeMinutes(c.Origin, c.Destination)
	adults := max(c.Adults, 1)
	day := time.Date(c.DepartureDate.Year(), c.DepartureDate.Month(), c.DepartureDate.Day(), 0, 0, 0, 0, time.UTC)

	offers := make([]FlightOffer, 0, n)
	for i := 0; i < n; i++ {
		cr := generatorCarriers[rng.IntN(len(generatorCarriers))]

		stops := 0
		if !c.NonStop {
			stops = rng.IntN(3)
		}
		minutes := block + rng.IntN(30)
		for s := 0; s < stops; s++ {
			// connection plus the extra leg
			minutes += 45 + rng.IntN(150) + block/3
		}

		depart := day.Add(time.Duration(5+rng.IntN(18))*time.Hour + time.Duration(rng.IntN(12)*5)*time.Minute)
		arrive := depart.Add(time.Duration(minutes) * time.Minute)

		// connections trade time for money
		fare := base * mult * (1 - 0.12*float64(stops)) * (0.8 + 0.6*rng.Float64())
		price := round2(fare * float64(adults))
		seats := 1 + rng.IntN(9)

		id := uuid.NewSHA1(generatorNamespace, []byte(fmt.Sprintf("%s|%d", key, i)))
		number := fmt.Sprintf("%s%d", cr.Code, 100+rng.IntN(9000))

		offers = append(offers, FlightOffer{
			ID:             generatorName + "-" + id.String(),
			Source:         generatorName,
			Airline:        cr.Name,
			AirlineCode:    cr.Code,
			FlightNumber:   number,
			Origin:         c.Origin,
			Destination:    c.Destination,
			DepartAt:       depart,
			ArriveAt:       arrive,
			Duration:       format.Minutes(minutes),
			DurationMin:    minutes,
			Price:          &price,
			Currency:       c.Currency,
			Cabin:          c.Cabin,
			Stops:          stops,
			SeatsAvailable: &seats,
			BookingLink:    bookingLink(c, number),
		})
	}
	return offers
}

func bookingLink(c SearchCriteria, flight string) string {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("Flights from %s to %s on %s %s", c.Origin, c.Destination, c.Departure(), flight))
	q.Set("curr", c.Currency)
	return "https://www.google.com/travel/flights?" + q.Encode()
}
