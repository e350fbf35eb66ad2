package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	GeneratorAuto   = "auto"
	GeneratorAlways = "always"
	GeneratorOff    = "off"
)

type Config struct {
	HTTPAddr    string
	TLSCertFile string
	TLSKeyFile  string
	LogLevel    string
	LogPretty   bool

	SearchTimeout       time.Duration
	ProviderConcurrency int
	HTTPTimeout         time.Duration

	TokenTTL           time.Duration
	FlightCacheTTL     time.Duration
	CacheMaxEntries    int
	CachePurgeSchedule string

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitPoll        time.Duration

	GeneratorMode    string
	ProvidersEnabled []string
	DefaultCurrency  string

	AmadeusURL              string
	AmadeusClientId         string
	AmadeusClientSecret     string
	DuffelHost              string
	DuffelToken             string
	RapidBookingHost        string
	RapidBookingRapidApiKey string
}

// Enabled reports whether the named provider is switched on.
func (c *Config) Enabled(name string) bool {
	for _, p := range c.ProvidersEnabled {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}

// New returns a viper instance carrying every default, ready for flags
// or a config file to be layered on top.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("tls_cert_file", "")
	v.SetDefault("tls_key_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	v.SetDefault("search_timeout", "0s")
	v.SetDefault("provider_concurrency", 1)
	v.SetDefault("http_timeout", "30s")

	v.SetDefault("token_ttl", "25m")
	v.SetDefault("flight_cache_ttl", "5m")
	v.SetDefault("cache_max_entries", 100)
	v.SetDefault("cache_purge_schedule", "@every 1m")

	v.SetDefault("rate_limit_max_requests", 10)
	v.SetDefault("rate_limit_window", "60s")
	v.SetDefault("rate_limit_poll", "1s")

	v.SetDefault("generator_mode", GeneratorAuto)
	v.SetDefault("providers_enabled", []string{"amadeus", "duffel", "rapid-booking"})
	v.SetDefault("default_currency", "EUR")

	v.SetDefault("amadeus_url", "https://test.api.amadeus.com")
	v.SetDefault("duffel_host", "https://api.duffel.com")
	v.SetDefault("rapid_booking_host", "booking-com15.p.rapidapi.com")

	v.AutomaticEnv()
	return v
}

// Load reads .env (if any), the optional config file and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := New()
	if path := os.Getenv("FLIGHTS_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/flights")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// splitList flattens list values that arrive as one comma separated
// string, as they do from the environment.
func splitList(in []string) []string {
	out := []string{}
	for _, s := range in {
		out = append(out, strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return out
}

func FromViper(v *viper.Viper) (*Config, error) {
	var err error
	dur := func(key string) time.Duration {
		if err != nil {
			return 0
		}
		d, perr := time.ParseDuration(v.GetString(key))
		if perr != nil {
			err = fmt.Errorf("bad %s: %w", key, perr)
		}
		return d
	}

	cfg := &Config{
		HTTPAddr:    v.GetString("http_addr"),
		TLSCertFile: v.GetString("tls_cert_file"),
		TLSKeyFile:  v.GetString("tls_key_file"),
		LogLevel:    v.GetString("log_level"),
		LogPretty:   v.GetBool("log_pretty"),

		SearchTimeout:       dur("search_timeout"),
		ProviderConcurrency: v.GetInt("provider_concurrency"),
		HTTPTimeout:         dur("http_timeout"),

		TokenTTL:           dur("token_ttl"),
		FlightCacheTTL:     dur("flight_cache_ttl"),
		CacheMaxEntries:    v.GetInt("cache_max_entries"),
		CachePurgeSchedule: v.GetString("cache_purge_schedule"),

		RateLimitMaxRequests: v.GetInt("rate_limit_max_requests"),
		RateLimitWindow:      dur("rate_limit_window"),
		RateLimitPoll:        dur("rate_limit_poll"),

		GeneratorMode:    strings.ToLower(v.GetString("generator_mode")),
		ProvidersEnabled: splitList(v.GetStringSlice("providers_enabled")),
		DefaultCurrency:  strings.ToUpper(v.GetString("default_currency")),

		AmadeusURL:              v.GetString("amadeus_url"),
		AmadeusClientId:         v.GetString("amadeus_clientid"),
		AmadeusClientSecret:     v.GetString("amadeus_clientsecret"),
		DuffelHost:              v.GetString("duffel_host"),
		DuffelToken:             v.GetString("duffel_token"),
		RapidBookingHost:        v.GetString("rapid_booking_host"),
		RapidBookingRapidApiKey: v.GetString("rapid_booking_rapidapikey"),
	}
	if err != nil {
		return nil, err
	}

	switch cfg.GeneratorMode {
	case GeneratorAuto, GeneratorAlways, GeneratorOff:
	default:
		return nil, fmt.Errorf("bad generator_mode %q: want auto, always or off", cfg.GeneratorMode)
	}
	if cfg.RateLimitMaxRequests < 1 {
		return nil, fmt.Errorf("bad rate_limit_max_requests %d: must be >= 1", cfg.RateLimitMaxRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, errors.New("bad rate_limit_window: must be positive")
	}
	if cfg.ProviderConcurrency < 0 {
		return nil, fmt.Errorf("bad provider_concurrency %d", cfg.ProviderConcurrency)
	}
	return cfg, nil
}
