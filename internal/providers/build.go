package providers

import (
	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
)

type remote interface {
	FlightProvider
	Configured() bool
}

// Build assembles the provider list in its fixed order: amadeus, duffel,
// rapid-booking, then the generator when the configured mode asks for it.
// Real providers are kept only when enabled and credentialed.
func Build(cfg *config.Config, store *cache.Store, log zerolog.Logger) []FlightProvider {
	candidates := []remote{
		NewAmadeus(cfg, store, log),
		NewDuffel(cfg, store, log),
		NewRapidBooking(cfg, store, log),
	}

	var out []FlightProvider
	for _, p := range candidates {
		switch {
		case !cfg.Enabled(p.Name()):
			log.Debug().Str("provider", p.Name()).Msg("provider disabled")
		case !p.Configured():
			log.Warn().Str("provider", p.Name()).Msg("provider credentials missing, skipping")
		default:
			out = append(out, p)
		}
	}

	switch cfg.GeneratorMode {
	case config.GeneratorAlways:
		out = append(out, NewGenerator(log))
	case config.GeneratorAuto:
		if len(out) == 0 {
			log.Info().Msg("no live provider configured, using generated offers")
			out = append(out, NewGenerator(log))
		}
	}
	return out
}

// Names lists provider names in order.
func Names(ps []FlightProvider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name()
	}
	return out
}
