package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/config"
	"github.com/example/liveshop-shipping/internal/email"
	"github.com/example/liveshop-shipping/internal/infrastructure/kafka"
	"github.com/example/liveshop-shipping/internal/logging"
	"github.com/example/liveshop-shipping/internal/notification"
)

// Dedicated consumer group for shipment notifications
const consumerGroup = "shipment-notifier"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup("notifier", cfg.Level())
	if err := cfg.ValidateConsumer(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().
		Strs("kafka", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group", consumerGroup).
		Str("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port).
		Str("from", cfg.SMTP.From).
		Msg("shipment notification service starting")

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, consumerGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Msg("starting event consumer")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
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
