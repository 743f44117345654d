package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads one topic within a consumer group. Handler errors are
// logged and the message is not committed, so the group redelivers it.
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

func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.WithError(err).Error("error reading message")
				continue
			}

			if err := handler(ctx, msg.Key, msg.Value); err != nil {
				log.WithError(err).Error("error handling message, leaving uncommitted")
				continue
			}
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				log.WithError(err).Error("error committing message")
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
