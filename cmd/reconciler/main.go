package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/config"
	"github.com/example/liveshop-shipping/internal/infrastructure/kafka"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/logging"
	"github.com/example/liveshop-shipping/internal/projection"
)

const consumerGroup = "label-reconciler"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup("reconciler", cfg.Level())
	if err := cfg.ValidateReconciler(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().
		Strs("kafka", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group", consumerGroup).
		Msg("label reconciler starting")

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate label ledger")
	}

	projector := projection.NewProjector(store.NewPostgresLabelLedger(db))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Msg("projecting label events into the ledger")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("consumer error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	log.Info().Msg("shutting down")
	cancel()
	<-done
}
