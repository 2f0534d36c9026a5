package kafka

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Consume blocks until ctx is done. Handler errors are logged and the message
// is still committed.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	logger := log.With().Str("component", "kafka").Str("topic", c.reader.Config().Topic).Logger()
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			logger.Error().Err(err).Msg("error reading message")
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			logger.Error().Err(err).
				Str("key", string(msg.Key)).
				Int64("offset", msg.Offset).
				Msg("error handling message")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
