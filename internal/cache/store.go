// Package cache holds the process-wide response cache and the per-provider
// sliding-window rate limiter shared by every provider client.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxEntries   = 100
	DefaultPollInterval = time.Second
)

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// bucket is one provider's bounded map. order keeps keys oldest-inserted
// first so the cap can evict from the front.
type bucket struct {
	items map[string]*list.Element
	order *list.List
}

func newBucket() *bucket {
	return &bucket{items: make(map[string]*list.Element), order: list.New()}
}

func (b *bucket) remove(el *list.Element) {
	delete(b.items, el.Value.(*entry).key)
	b.order.Remove(el)
}

type Store struct {
	mu           sync.Mutex
	clock        Clock
	maxEntries   int
	pollInterval time.Duration
	log          zerolog.Logger

	buckets map[string]*bucket
	windows map[string][]time.Time
}

type Option func(*Store)

func WithClock(c Clock) Option { return func(s *Store) { s.clock = c } }

// WithMaxEntries caps entries per provider. Values <= 0 keep the default.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "cache").Logger() }
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:        SystemClock{},
		maxEntries:   DefaultMaxEntries,
		pollInterval: DefaultPollInterval,
		log:          zerolog.Nop(),
		buckets:      make(map[string]*bucket),
		windows:      make(map[string][]time.Time),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Clock returns the time source the store was built with.
func (s *Store) Clock() Clock { return s.clock }

// Get returns the cached value if present and not expired. Expired entries
// are dropped on the way out.
func (s *Store) Get(provider, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[provider]
	if !ok {
		return nil, false
	}
	el, ok := b.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if !s.clock.Now().Before(e.expiresAt) {
		b.remove(el)
		return nil, false
	}
	return e.value, true
}

// Set stores value until now+ttl. Overwriting a key moves it to the newest
// position. Once the provider holds more than maxEntries the oldest-inserted
// entries go.
func (s *Store) Set(provider, key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[provider]
	if !ok {
		b = newBucket()
		s.buckets[provider] = b
	}
	if el, ok := b.items[key]; ok {
		b.remove(el)
	}
	b.items[key] = b.order.PushBack(&entry{key: key, value: value, expiresAt: s.clock.Now().Add(ttl)})

	for b.order.Len() > s.maxEntries {
		evicted := b.order.Front()
		s.log.Debug().
			Str("provider", provider).
			Str("key", evicted.Value.(*entry).key).
			Msg("evicting oldest cache entry")
		b.remove(evicted)
	}
}

func (s *Store) Delete(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[provider]; ok {
		if el, ok := b.items[key]; ok {
			b.remove(el)
		}
	}
}

// Clear empties one provider's cache, or every cache when provider is "".
// Rate-limit windows are left alone.
func (s *Store) Clear(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider == "" {
		s.buckets = make(map[string]*bucket)
		return
	}
	delete(s.buckets, provider)
}

// PurgeExpired drops every expired entry and reports how many went.
func (s *Store) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	purged := 0
	for _, b := range s.buckets {
		for el := b.order.Front(); el != nil; {
			next := el.Next()
			if !now.Before(el.Value.(*entry).expiresAt) {
				b.remove(el)
				purged++
			}
			el = next
		}
	}
	return purged
}

// Stats reports the number of stored entries per provider, expired ones
// included until they are read or purged.
func (s *Store) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.buckets))
	for name, b := range s.buckets {
		out[name] = b.order.Len()
	}
	return out
}
