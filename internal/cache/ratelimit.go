package cache

import (
	"context"
	"time"
)

// CheckRateLimit prunes timestamps older than window from the provider's
// log, then records a call and returns true iff fewer than maxRequests
// remain. A denied call is not recorded.
func (s *Store) CheckRateLimit(provider string, maxRequests int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	kept := s.windows[provider][:0]
	for _, ts := range s.windows[provider] {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	if len(kept) < maxRequests {
		s.windows[provider] = append(kept, now)
		return true
	}
	s.windows[provider] = kept
	return false
}

// WaitForRateLimit polls CheckRateLimit at the store's fixed poll interval
// until a slot frees up. There is no backoff and no internal deadline: with
// a background context it blocks for as long as the quota stays exhausted.
// Cancelling ctx is the only way out early.
func (s *Store) WaitForRateLimit(ctx context.Context, provider string, maxRequests int, window time.Duration) error {
	waited := false
	for !s.CheckRateLimit(provider, maxRequests, window) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !waited {
			s.log.Debug().Str("provider", provider).Int("max_requests", maxRequests).
				Dur("window", window).Msg("rate limit reached, waiting")
			waited = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.pollInterval):
		}
	}
	return nil
}

// Limiter blocks until the named provider may issue another call.
type Limiter interface {
	Acquire(ctx context.Context, provider string) error
}

type windowLimiter struct {
	store       *Store
	maxRequests int
	window      time.Duration
}

// Limiter binds a max-requests-per-window policy to the store's windows.
func (s *Store) Limiter(maxRequests int, window time.Duration) Limiter {
	return &windowLimiter{store: s, maxRequests: maxRequests, window: window}
}

func (l *windowLimiter) Acquire(ctx context.Context, provider string) error {
	return l.store.WaitForRateLimit(ctx, provider, l.maxRequests, l.window)
}
