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

	"github.com/example/liveshop-shipping/internal/api"
	"github.com/example/liveshop-shipping/internal/api/middleware"
	"github.com/example/liveshop-shipping/internal/auth"
	"github.com/example/liveshop-shipping/internal/bundle"
	"github.com/example/liveshop-shipping/internal/config"
	"github.com/example/liveshop-shipping/internal/events"
	"github.com/example/liveshop-shipping/internal/icona"
	"github.com/example/liveshop-shipping/internal/infrastructure/kafka"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/logging"
	"github.com/example/liveshop-shipping/internal/shipping"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup("api", cfg.Level())
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().
		Str("icona", cfg.Icona.BaseURL).
		Strs("kafka", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("liveshop shipping API starting")

	client := icona.NewClient(icona.Config{
		BaseURL:      cfg.Icona.BaseURL,
		Timeout:      cfg.Icona.Timeout,
		ServiceToken: cfg.Icona.ServiceToken,
	})

	// Events go to Kafka; without brokers they are kept in memory only
	var publisher events.Publisher
	if cfg.EventsEnabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn().Msg("KAFKA_BROKERS is empty, shipping events are not published")
		publisher = events.NewRecorder()
	}

	// The label ledger is optional; without it reconciliation answers 503
	var ledger store.LabelLedger
	if cfg.DatabaseURL != "" {
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		defer db.Close()
		if err := store.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate label ledger")
		}
		ledger = store.NewPostgresLabelLedger(db)
		log.Info().Msg("connected to PostgreSQL label ledger")
	} else {
		log.Warn().Msg("DATABASE_URL is empty, label reconciliation is disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	handlers := api.NewHandlers(
		client,
		bundle.NewManager(client, publisher),
		shipping.NewCoordinator(client, ledger, publisher),
	)
	router := api.NewRouter(api.RouterConfig{
		Handlers:    handlers,
		JWTService:  jwtService,
		RateLimiter: limiter,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Icona.Timeout * 3,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
