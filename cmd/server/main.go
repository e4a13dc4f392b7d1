/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave registry server. Handles configuration,
  data source selection, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then LICENSES_* environment)
  2. Build the logger
  3. Open the configured data source (sqlite or fixture), exactly once
  4. Create registry and API handler
  5. Start server with graceful shutdown

DATA SOURCE:
  LICENSES_DATA_SOURCE=sqlite   opens LICENSES_DB_PATH (":memory:" allowed)
  LICENSES_DATA_SOURCE=fixture  seeds an in-memory store from LICENSES_FIXTURE_PATH
  A data source that fails to open stops the process. There is no
  fallback from one to the other.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  LICENSES_DB_PATH=./data/licenses.db ./server

  # Run offline from a fixture, English CSV headers
  LICENSES_DATA_SOURCE=fixture LICENSES_FIXTURE_PATH=./fixtures/demo.json LICENSES_LOCALE=en ./server

SEE ALSO:
  - config/config.go: Variables and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/license-registry/api"
	"github.com/warp/license-registry/config"
	"github.com/warp/license-registry/factory"
	"github.com/warp/license-registry/license"
	"github.com/warp/license-registry/store/memory"
	"github.com/warp/license-registry/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := cfg.Logger()

	store, health, closer, err := openDataSource(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).WithField("data_source", cfg.DataSource).Fatal("Failed to open data source")
	}
	defer closer.Close()

	registry := license.NewRegistry(store, cfg.Limits(), log)

	handler := api.NewHandler(registry, log)
	handler.Locale = cfg.Locale
	handler.RecentLimit = cfg.RecentLimit
	handler.Health = health

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"addr":        cfg.Addr,
			"data_source": cfg.DataSource,
			"locale":      cfg.Locale,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openDataSource builds the one store the process will use.
func openDataSource(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (license.TxStore, api.Pinger, io.Closer, error) {
	switch cfg.DataSource {
	case config.DataSourceSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		log.WithField("db_path", cfg.DBPath).Info("Opened sqlite data source")
		return store, store, store, nil

	case config.DataSourceFixture:
		fx, err := factory.NewFixtureFactory().LoadFile(cfg.FixturePath)
		if err != nil {
			return nil, nil, nil, err
		}
		store := memory.New()
		if err := store.Seed(ctx, fx.Employees, fx.Licenses); err != nil {
			return nil, nil, nil, err
		}
		log.WithFields(logrus.Fields{
			"fixture_path": cfg.FixturePath,
			"employees":    len(fx.Employees),
			"licenses":     len(fx.Licenses),
		}).Info("Loaded fixture data source")
		return store, nil, nopCloser{}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}
