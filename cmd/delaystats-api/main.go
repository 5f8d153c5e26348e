// Command delaystats-api serves public-transit delay statistics over HTTP.
//
// Configuration is read from the environment; see package config for the keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/trainmining/delaystats/delaystats"
	"github.com/trainmining/delaystats/delaystats/oteladapters"
	"github.com/trainmining/delaystats/delaystats/postgresengine"
	"github.com/trainmining/delaystats/internal/config"
	"github.com/trainmining/delaystats/internal/httpapi"
)

const (
	serviceVersion          = "1.0.0"
	instrumentationName     = "github.com/trainmining/delaystats"
	shutdownTimeout         = 15 * time.Second
	readHeaderTimeout       = 5 * time.Second
	idleTimeout             = time.Minute
	writeTimeoutQueryMargin = 5 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(); err != nil {
		logger.Error("delaystats-api failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeOptions := []postgresengine.Option{postgresengine.WithQueryTimeout(cfg.Database.QueryTimeout)}

	if cfg.Telemetry.Enabled {
		providers, otelErr := config.NewObservabilityProviders(ctx, cfg.Telemetry, serviceVersion)
		if otelErr != nil {
			return fmt.Errorf("setting up OpenTelemetry: %w", otelErr)
		}

		defer shutdownObservability(providers, logger)

		// the contextual logger replaces the plain one so store logs carry the span context
		storeOptions = append(storeOptions,
			postgresengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))),
			postgresengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))),
			postgresengine.WithContextualLogger(contextualLogger(cfg.Telemetry, handler)),
		)
	} else {
		storeOptions = append(storeOptions, postgresengine.WithLogger(logger))
	}

	pool, err := config.OpenPool(ctx, cfg.Database, postgresengine.WithPoolLogger(logger))
	if err != nil {
		return fmt.Errorf("opening connection pool: %w", err)
	}

	store, err := postgresengine.NewDelayStore(pool, storeOptions...)
	if err != nil {
		return errors.Join(err, pool.Shutdown(context.Background()))
	}

	api, err := httpapi.NewServer(store, httpapi.WithLogger(logger), httpapi.WithPoolStats(pool))
	if err != nil {
		return errors.Join(err, pool.Shutdown(context.Background()))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		WriteTimeout:      cfg.Database.AcquireTimeout + cfg.Database.QueryTimeout + writeTimeoutQueryMargin,
		ErrorLog:          slog.NewLogLogger(handler, slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", srv.Addr,
			"db_adapter", cfg.Database.Adapter,
			"db_host", cfg.Database.Host,
			"max_leases", pool.Stats().Capacity,
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(fmt.Errorf("serving http: %w", err), pool.Shutdown(context.Background()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	return shutdown(srv, pool, logger)
}

// shutdown stops accepting requests first and drains the lease pool after the in-flight requests are done.
func shutdown(srv *http.Server, pool *postgresengine.ConnectionPool, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down http server: %w", err))
	}

	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("draining connection pool: %w", err))
	}

	if len(errs) == 0 {
		logger.Info("shutdown complete")
	}

	return errors.Join(errs...)
}

func contextualLogger(t config.TelemetryConfig, handler slog.Handler) delaystats.ContextualLogger {
	if t.Logs {
		return oteladapters.NewSlogBridgeLogger(instrumentationName)
	}

	return oteladapters.NewSlogBridgeLoggerWithHandler(instrumentationName, handler)
}

func shutdownObservability(providers *config.ObservabilityProviders, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := providers.Shutdown(ctx); err != nil {
		logger.Warn("shutting down OpenTelemetry providers failed", "error", err)
	}
}
