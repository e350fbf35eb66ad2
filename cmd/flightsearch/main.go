// Command flightsearch runs one aggregated search and prints it as a
// table, a deals list, price analytics, CSV or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/you/go-flight-aggregator/internal/airports"
	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
	"github.com/you/go-flight-aggregator/internal/logger"
	"github.com/you/go-flight-aggregator/internal/providers"
	"github.com/you/go-flight-aggregator/internal/report"
	"github.com/you/go-flight-aggregator/internal/service"
	"github.com/you/go-flight-aggregator/internal/validate"
)

const (
	viewTable     = "table"
	viewDeals     = "deals"
	viewAnalytics = "analytics"
	viewCSV       = "csv"
	viewJSON      = "json"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "flightsearch:", err)
		var verr *validate.ValidationError
		if errors.As(err, &verr) || errors.Is(err, pflag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type options struct {
	origin, destination string
	date, returnDate    string
	adults              int
	cabin               string
	nonStop             bool
	currency            string
	maxResults          int
	view                string
	deals               int
	bins                int
	configFile          string
}

// flags maps config keys to the CLI flags that override them.
var flags = map[string]string{
	"generator_mode":       "generator-mode",
	"providers_enabled":    "providers",
	"log_level":            "log-level",
	"log_pretty":           "log-pretty",
	"search_timeout":       "timeout",
	"provider_concurrency": "concurrency",
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	v := config.New()

	var o options
	fs := pflag.NewFlagSet("flightsearch", pflag.ContinueOnError)
	fs.StringVarP(&o.origin, "origin", "o", "", "origin IATA code")
	fs.StringVarP(&o.destination, "destination", "d", "", "destination IATA code")
	fs.StringVar(&o.date, "date", "", "departure date, YYYY-MM-DD")
	fs.StringVar(&o.returnDate, "return-date", "", "return date for round trips, YYYY-MM-DD")
	fs.IntVarP(&o.adults, "adults", "a", 1, "number of adult passengers")
	fs.StringVar(&o.cabin, "cabin", string(providers.CabinEconomy), "cabin class")
	fs.BoolVar(&o.nonStop, "non-stop", false, "only direct flights")
	fs.StringVar(&o.currency, "currency", "", "price currency (default from config)")
	fs.IntVarP(&o.maxResults, "max-results", "n", providers.DefaultMaxResults, "maximum offers to keep")
	fs.StringVar(&o.view, "view", viewTable, "output: table, deals, analytics, csv or json")
	fs.IntVar(&o.deals, "deals", 5, "offers shown by the deals view")
	fs.IntVar(&o.bins, "bins", service.DefaultHistogramBins, "histogram bins for the analytics view")
	fs.StringVar(&o.configFile, "config", "", "config file")

	fs.String("generator-mode", v.GetString("generator_mode"), "generator mode: auto, always or off")
	fs.StringSlice("providers", v.GetStringSlice("providers_enabled"), "providers to query")
	fs.String("log-level", "warn", "log level")
	fs.Bool("log-pretty", true, "human readable logs")
	fs.String("timeout", v.GetString("search_timeout"), "overall search timeout, 0s for none")
	fs.Int("concurrency", v.GetInt("provider_concurrency"), "concurrent provider calls, 0 for no cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	for key, name := range flags {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	switch o.view {
	case viewTable, viewDeals, viewAnalytics, viewCSV, viewJSON:
	default:
		return fmt.Errorf("unknown view %q", o.view)
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	c, err := o.criteria(cfg.DefaultCurrency)
	if err != nil {
		return err
	}

	store := cache.New(
		cache.WithMaxEntries(cfg.CacheMaxEntries),
		cache.WithPollInterval(cfg.RateLimitPoll),
		cache.WithLogger(log),
	)
	svc := service.NewSearchService(providers.Build(cfg, store, log), service.Options{
		Timeout:     cfg.SearchTimeout,
		Concurrency: cfg.ProviderConcurrency,
		Logger:      log,
	})

	res, err := svc.SearchAll(ctx, c)
	if err != nil {
		return err
	}
	return render(stdout, o, res)
}

func (o options) criteria(defaultCurrency string) (providers.SearchCriteria, error) {
	verr := &validate.ValidationError{}
	c := providers.SearchCriteria{
		Origin:      o.origin,
		Destination: o.destination,
		Adults:      o.adults,
		NonStop:     o.nonStop,
		Currency:    o.currency,
		MaxResults:  o.maxResults,
	}
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}

	if d, err := time.Parse("2006-01-02", o.date); err != nil {
		verr.Fields = append(verr.Fields, validate.FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	} else {
		c.DepartureDate = d
	}
	if o.returnDate != "" {
		if d, err := time.Parse("2006-01-02", o.returnDate); err != nil {
			verr.Fields = append(verr.Fields, validate.FieldError{Field: "return-date", Message: "must be YYYY-MM-DD"})
		} else {
			c.ReturnDate = &d
		}
	}
	cabin, err := providers.ParseCabinClass(o.cabin)
	if err != nil {
		verr.Fields = append(verr.Fields, validate.FieldError{Field: "cabin", Message: err.Error()})
	}
	c.Cabin = cabin

	if len(verr.Fields) > 0 {
		return c, verr
	}
	return c, nil
}

func render(w io.Writer, o options, res service.Result) error {
	switch o.view {
	case viewCSV:
		return report.WriteCSV(w, res.Offers)
	case viewJSON:
		return writeJSON(w, res)
	case viewAnalytics:
		return writeJSON(w, service.Analyze(res.Offers, o.bins))
	}

	db := airports.Default()
	c := res.Criteria
	fmt.Fprintf(w, "%s to %s on %s\n", db.Name(c.Origin), db.Name(c.Destination), c.Departure())

	offers := res.Offers
	if o.view == viewDeals {
		offers = report.Cheapest(offers, o.deals)
	}
	if err := report.WriteTable(w, offers); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d offers (%d direct) from %s in %s\n",
		res.Stats.Total, res.Stats.Direct, strings.Join(res.ProvidersQueried, ", "), res.SearchTime.Round(time.Millisecond))
	if res.Notice != "" {
		fmt.Fprintln(w, res.Notice)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "%s failed (%s): %s\n", f.Provider, f.Kind, f.Error)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
