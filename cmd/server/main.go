package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	httpapi "github.com/LongshotAI/ride-my-wheels-home/internal/http"

	"github.com/LongshotAI/ride-my-wheels-home/internal/config"
	"github.com/LongshotAI/ride-my-wheels-home/internal/events"
	"github.com/LongshotAI/ride-my-wheels-home/internal/ingest"
	"github.com/LongshotAI/ride-my-wheels-home/internal/location"
	"github.com/LongshotAI/ride-my-wheels-home/internal/logging"
	"github.com/LongshotAI/ride-my-wheels-home/internal/matching"
	"github.com/LongshotAI/ride-my-wheels-home/internal/pricing"
	"github.com/LongshotAI/ride-my-wheels-home/internal/ride"
	"github.com/LongshotAI/ride-my-wheels-home/internal/sos"
	"github.com/LongshotAI/ride-my-wheels-home/internal/store"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logging.NewLogger("api", "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger("api", cfg.LogLevel)

	var st store.Store
	if cfg.PGDSN != "" {
		ps, err := store.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer ps.Close()
		if cfg.RunMigrations {
			if err := runMigrations(ps); err != nil {
				logger.Error("migrations failed", "error", err)
				os.Exit(1)
			}
			logger.Info("migrations applied")
		}
		st = ps
	} else {
		logger.Warn("PG_DSN not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	var producer *ingest.Producer
	var mirror events.Mirror
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewProducer(cfg.KafkaBrokers, cfg.LocationTopic, cfg.EventTopic)
		defer producer.Close()
		mirror = producer
	}

	broker := events.NewBroker(logger)
	log := events.NewLog(st, broker, mirror, logger)

	var index matching.CandidateIndex
	if cfg.RedisAddr != "" {
		ri := matching.NewRedisIndex(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		defer ri.Close()
		index = ri
	}

	eng := pricing.NewEngine(st)
	rides := ride.NewService(st, eng, log, logger)
	matcher := matching.NewMatcher(st, index, logger)
	matcher.MaxDistanceMi = cfg.MaxDistanceMi

	var pub location.Publisher
	if producer != nil {
		pub = producer
	}
	ingestor := location.NewIngestor(st, st, log, pub, logger)
	sosHandler := sos.NewHandler(st, log, logger)

	api := httpapi.NewServer(rides, eng, matcher, ingestor, sosHandler, log, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func runMigrations(ps *store.PostgresStore) error {
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := ps.DB().Exec(string(b)); err != nil {
			return err
		}
	}
	return nil
}
