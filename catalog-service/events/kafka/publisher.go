package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/arunvm123/showcatalog/catalog-service/events"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
}

var _ events.Publisher = (*Publisher)(nil)

// batchTimeout bounds how long a synchronous publish waits for a batch to fill
const batchTimeout = 10 * time.Millisecond

func NewPublisher(cfg *config.Kafka) *Publisher {
	return NewPublisherWithWriter(newWriter(cfg))
}

func newWriter(cfg *config.Kafka) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewPublisherWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes the event keyed by product id so changes to one product stay ordered
func (p *Publisher) Publish(ctx context.Context, event events.ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProductID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
