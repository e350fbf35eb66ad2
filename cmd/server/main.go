package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/you/go-flight-aggregator/internal/airports"
	"github.com/you/go-flight-aggregator/internal/cache"
	"github.com/you/go-flight-aggregator/internal/config"
	"github.com/you/go-flight-aggregator/internal/httpx"
	"github.com/you/go-flight-aggregator/internal/logger"
	"github.com/you/go-flight-aggregator/internal/providers"
	"github.com/you/go-flight-aggregator/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	store := cache.New(
		cache.WithMaxEntries(cfg.CacheMaxEntries),
		cache.WithPollInterval(cfg.RateLimitPoll),
		cache.WithLogger(l),
	)
	janitor, err := cache.NewJanitor(store, cfg.CachePurgeSchedule, l)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to schedule cache janitor")
	}
	janitor.Start()

	prov := providers.Build(cfg, store, l)
	searchSvc := service.NewSearchService(prov, service.Options{
		Timeout:     cfg.SearchTimeout,
		Concurrency: cfg.ProviderConcurrency,
		Logger:      l,
	})
	l.Info().Strs("providers", searchSvc.Providers()).Msg("providers ready")

	h := httpx.NewHandler(httpx.Deps{
		Search:          searchSvc,
		History:         service.NewHistoryService(nil),
		Airports:        airports.Default(),
		Store:           store,
		DefaultCurrency: cfg.DefaultCurrency,
		Log:             l,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			l.Info().Str("addr", srv.Addr).Msg("server listening with TLS")
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			l.Info().Str("addr", srv.Addr).Msg("server listening")
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server failed")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("server shutdown")
	}
	janitor.Stop(ctx)
	l.Info().Msg("server stopped")
}
