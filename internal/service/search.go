package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/providers"
	"github.com/you/go-flight-aggregator/internal/validate"
)

var errProviderPanic = errors.New("provider panicked")

type Stats struct {
	Total     int `json:"total"`
	Direct    int `json:"direct"`
	WithStops int `json:"with_stops"`
}

// ProviderFailure is a provider that contributed nothing to a search.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

type Result struct {
	Criteria         providers.SearchCriteria `json:"criteria"`
	Offers           []providers.FlightOffer  `json:"offers"`
	Stats            Stats                    `json:"stats"`
	Cheapest         *providers.FlightOffer   `json:"cheapest,omitempty"`
	Fastest          *providers.FlightOffer   `json:"fastest,omitempty"`
	RemovedByNonStop int                      `json:"removed_by_non_stop"`
	Notice           string                   `json:"notice,omitempty"`
	ProvidersQueried []string                 `json:"providers_queried"`
	Failures         []ProviderFailure        `json:"failures,omitempty"`
	SearchTime       time.Duration            `json:"search_time_ns"`
}

type Options struct {
	// Timeout bounds the whole fan-out. Zero leaves only the per-client
	// request timeouts in force.
	Timeout time.Duration
	// Concurrency caps concurrent provider calls. 1 queries providers one
	// at a time in declared order, 0 means no cap.
	Concurrency int
	Clock       cache.Clock
	Logger      zerolog.Logger
}

type SearchService struct {
	providers   []providers.FlightProvider
	timeout     time.Duration
	concurrency int
	clock       cache.Clock
	log         zerolog.Logger
}

func NewSearchService(prov []providers.FlightProvider, opts Options) *SearchService {
	if opts.Clock == nil {
		opts.Clock = cache.SystemClock{}
	}
	return &SearchService{
		providers:   prov,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		log:         opts.Logger.With().Str("component", "search").Logger(),
	}
}

func (s *SearchService) Providers() []string { return providers.Names(s.providers) }

// SearchAll validates the criteria, queries every provider and merges the
// offers: cheapest first with unpriced offers last, direct flights only when
// requested, at most MaxResults. Provider failures are recorded in the
// result and never returned; the only error is a *validate.ValidationError.
func (s *SearchService) SearchAll(ctx context.Context, c providers.SearchCriteria) (Result, error) {
	c = c.Normalize()
	if err := validate.Criteria(c, s.clock.Now()); err != nil {
		s.log.Debug().Err(err).Msg("rejected search")
		return Result{}, err
	}

	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// one slot per provider keeps the merge in declared order whatever
	// order the calls finish in
	slots := make([][]providers.FlightOffer, len(s.providers))
	errs := make([]error, len(s.providers))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, p := range s.providers {
		g.Go(func() error {
			slots[i], errs[i] = searchOne(ctx, p, c)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Criteria: c, ProvidersQueried: s.Providers()}
	var all []providers.FlightOffer
	for i, p := range s.providers {
		if errs[i] != nil {
			res.Failures = append(res.Failures, ProviderFailure{
				Provider: p.Name(),
				Kind:     failureKind(errs[i]),
				Error:    errs[i].Error(),
			})
			s.log.Warn().Err(errs[i]).Str("provider", p.Name()).Msg("provider contributed no offers")
			continue
		}
		all = append(all, slots[i]...)
	}

	slices.SortStableFunc(all, ComparePrice)

	if c.NonStop {
		before := len(all)
		all = slices.DeleteFunc(all, func(o providers.FlightOffer) bool { return !o.IsDirect() })
		res.RemovedByNonStop = before - len(all)
		if res.RemovedByNonStop > 0 {
			res.Notice = fmt.Sprintf("%d of %d removed by non-stop filter", res.RemovedByNonStop, before)
		}
	}

	if len(all) > c.MaxResults {
		all = all[:c.MaxResults]
	}
	if all == nil {
		all = []providers.FlightOffer{}
	}

	res.Offers = all
	res.Stats = statsOf(all)
	res.Cheapest = cheapest(all)
	res.Fastest = fastest(all)
	res.SearchTime = time.Since(start)

	s.log.Info().
		Str("route", c.String()).
		Int("offers", len(all)).
		Int("failures", len(res.Failures)).
		Dur("took", res.SearchTime).
		Msg("search complete")
	return res, nil
}

func searchOne(ctx context.Context, p providers.FlightProvider, c providers.SearchCriteria) (offers []providers.FlightOffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offers, err = nil, fmt.Errorf("%s: %w: %v", p.Name(), errProviderPanic, r)
		}
	}()
	offers, err = p.Search(ctx, c)
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func failureKind(err error) string {
	var (
		authErr      *providers.AuthError
		transportErr *providers.TransportError
		parseErr     *providers.ParseError
	)
	switch {
	case errors.Is(err, providers.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, errProviderPanic):
		return "panic"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "unknown"
}

// ComparePrice orders offers by ascending price with unpriced offers after
// every priced one.
func ComparePrice(a, b providers.FlightOffer) int {
	ap, aok := a.PriceValue()
	bp, bok := b.PriceValue()
	switch {
	case aok && bok:
		return cmp.Compare(ap, bp)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

func statsOf(offers []providers.FlightOffer) Stats {
	st := Stats{Total: len(offers)}
	for _, o := range offers {
		if o.IsDirect() {
			st.Direct++
		} else {
			st.WithStops++
		}
	}
	return st
}

// cheapest expects offers already sorted by ComparePrice.
func cheapest(offers []providers.FlightOffer) *providers.FlightOffer {
	if len(offers) == 0 || offers[0].Price == nil {
		return nil
	}
	o := offers[0]
	return &o
}

func fastest(offers []providers.FlightOffer) *providers.FlightOffer {
	var best *providers.FlightOffer
	for i := range offers {
		if offers[i].DurationMin <= 0 {
			continue
		}
		if best == nil || offers[i].DurationMin < best.DurationMin {
			best = &offers[i]
		}
	}
	if best == nil {
		return nil
	}
	o := *best
	return &o
}
