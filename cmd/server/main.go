/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the EventFlow payment engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Initialize store (SQLite or PostgreSQL)
  3. Create API handler with domain services
  4. Start the sweep scheduler (if configured)
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # SQLite (default)
  DB_PATH=./data/payments.db ./server

  # PostgreSQL with nightly sweeps at 02:00
  DB_DRIVER=postgres DB_CONN="postgres://..." SWEEP_SCHEDULE="0 2 * * *" ./server

SEE ALSO:
  - internal/config/config.go: Environment variables
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/payment-engine/api"
	"github.com/eventflow/payment-engine/billing"
	"github.com/eventflow/payment-engine/internal/config"
	"github.com/eventflow/payment-engine/store/postgres"
	"github.com/eventflow/payment-engine/store/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer closeStore()

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	scheduler := api.NewSweepScheduler(handler, log, cfg.SweepSchedule)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("failed to start sweep scheduler")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Port,
			"driver": cfg.DBDriver,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	scheduler.Stop()

	log.Info("server stopped")
}

func openStore(cfg *config.Config) (billing.TxStore, func(), error) {
	switch cfg.DBDriver {
	case "postgres":
		s, err := postgres.New(cfg.DBConn)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}
