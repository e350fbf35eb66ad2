package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/you/go-flight-aggregator/internal/airports"
	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/report"
	"github.com/you/go-flight-aggregator/internal/service"
	"github.com/you/go-flight-aggregator/internal/validate"
)

const defaultDeals = 5

type Handler struct {
	search          *service.SearchService
	history         *service.HistoryService
	airports        *airports.DB
	store           *cache.Store
	defaultCurrency string
	log             zerolog.Logger
}

type Deps struct {
	Search          *service.SearchService
	History         *service.HistoryService
	Airports        *airports.DB
	Store           *cache.Store
	DefaultCurrency string
	Log             zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Airports == nil {
		d.Airports = airports.Default()
	}
	return &Handler{
		search:          d.Search,
		history:         d.History,
		airports:        d.Airports,
		store:           d.Store,
		defaultCurrency: d.DefaultCurrency,
		log:             d.Log.With().Str("component", "http").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// runSearch parses the request and runs the aggregate search. It has
// already answered the request when ok is false.
func (h *Handler) runSearch(w http.ResponseWriter, r *http.Request) (service.Result, bool) {
	c, err := ParseCriteria(r.URL.Query())
	if err == nil {
		if r.URL.Query().Get("currency") == "" && h.defaultCurrency != "" {
			c.Currency = h.defaultCurrency
		}
		var res service.Result
		res, err = h.search.SearchAll(r.Context(), c)
		if err == nil {
			return res, true
		}
	}

	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid search", "fields": verr.Fields})
		return service.Result{}, false
	}
	h.log.Error().Err(err).Msg("search failed")
	writeError(w, http.StatusInternalServerError, "search failed")
	return service.Result{}, false
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "providers": h.search.Providers()})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDeals(w http.ResponseWriter, r *http.Request) {
	n := defaultDeals
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive number")
			return
		}
		n = v
	}
	res, ok := h.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"criteria": res.Criteria,
		"deals":    report.Cheapest(res.Offers, n),
	})
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	bins := 0
	if s := r.URL.Query().Get("bins"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 100 {
			writeError(w, http.StatusBadRequest, "bins must be between 1 and 100")
			return
		}
		bins = v
	}
	res, ok := h.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"criteria":  res.Criteria,
		"stats":     res.Stats,
		"analytics": service.Analyze(res.Offers, bins),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runSearch(w, r)
	if !ok {
		return
	}
	c := res.Criteria
	name := fmt.Sprintf("flights_%s_%s_%s.csv", c.Origin, c.Destination, c.Departure())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := report.WriteCSV(w, res.Offers); err != nil {
		h.log.Warn().Err(err).Msg("csv export interrupted")
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := strings.ToUpper(q.Get("origin"))
	dest := strings.ToUpper(q.Get("destination"))
	if !validate.IATA(origin) || !validate.IATA(dest) {
		writeError(w, http.StatusBadRequest, "origin and destination must be 3-letter IATA codes")
		return
	}
	months := 0
	if s := q.Get("months"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 120 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 120")
			return
		}
		months = v
	}
	currency := q.Get("currency")
	if currency == "" {
		currency = h.defaultCurrency
	}
	writeJSON(w, http.StatusOK, h.history.MonthlyAverages(origin, dest, currency, months))
}

func (h *Handler) handleAirports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("q") != "":
		writeJSON(w, http.StatusOK, nonNil(h.airports.Search(q.Get("q"))))
	case q.Get("continent") != "" && q.Get("country") != "":
		writeJSON(w, http.StatusOK, nonNil(h.airports.ByCountry(q.Get("continent"), q.Get("country"))))
	case q.Get("continent") != "":
		countries := h.airports.Countries(q.Get("continent"))
		if countries == nil {
			writeError(w, http.StatusNotFound, "unknown continent")
			return
		}
		writeJSON(w, http.StatusOK, countries)
	default:
		writeJSON(w, http.StatusOK, h.airports.Continents())
	}
}

func nonNil(a []airports.Airport) []airports.Airport {
	if a == nil {
		return []airports.Airport{}
	}
	return a
}

func (h *Handler) handleAirport(w http.ResponseWriter, r *http.Request) {
	a, ok := h.airports.Lookup(chi.URLParam(r, "iata"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown airport")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"airport": a, "display_name": h.airports.Name(a.IATA)})
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.store.Stats()})
}

func (h *Handler) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	h.store.Clear(provider)
	h.log.Info().Str("provider", provider).Msg("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}
