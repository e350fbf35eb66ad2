package providers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/cache"
)

type fetchFunc func(ctx context.Context, c SearchCriteria) ([]FlightOffer, error)

// guard applies the policy every remote provider shares: cache lookup on
// the full criteria key, rate-limit wait on a miss, then the call, then a
// cache fill on success.
type guard struct {
	name    string
	store   *cache.Store
	limiter cache.Limiter
	ttl     time.Duration
	log     zerolog.Logger
}

func newGuard(name string, store *cache.Store, limiter cache.Limiter, ttl time.Duration, log zerolog.Logger) *guard {
	return &guard{name: name, store: store, limiter: limiter, ttl: ttl, log: log}
}

func (g *guard) search(ctx context.Context, c SearchCriteria, fetch fetchFunc) ([]FlightOffer, error) {
	key := c.CacheKey(g.name)
	if v, ok := g.store.Get(g.name, key); ok {
		if offers, ok := v.([]FlightOffer); ok {
			g.log.Debug().Str("route", c.String()).Int("offers", len(offers)).Msg("cache hit")
			return append([]FlightOffer(nil), offers...), nil
		}
	}

	if err := g.limiter.Acquire(ctx, g.name); err != nil {
		return nil, &TransportError{Provider: g.name, Op: "rate limit wait", Err: err}
	}

	start := time.Now()
	offers, err := fetch(ctx, c)
	if err != nil {
		ev := g.log.Warn()
		var authErr *AuthError
		if errors.As(err, &authErr) {
			ev = g.log.Error().Int("status", authErr.StatusCode)
		}
		ev.Err(err).Str("route", c.String()).Msg("provider search failed")
		return nil, err
	}

	g.store.Set(g.name, key, append([]FlightOffer(nil), offers...), g.ttl)
	g.log.Info().
		Str("route", c.String()).
		Int("offers", len(offers)).
		Dur("took", time.Since(start)).
		Msg("provider search done")
	return offers, nil
}
