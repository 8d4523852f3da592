package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/events"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the processor needs
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator drops every cached copy of the catalog
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// InvalidationProcessor clears the local catalog cache when another instance
// reports a write. Events this instance published itself are skipped.
type InvalidationProcessor struct {
	reader      MessageReader
	invalidator Invalidator
	origin      string
	logger      *slog.Logger
	retryDelay  time.Duration

	// Metrics
	processedCount int64
	skippedCount   int64
	failedCount    int64
}

func NewInvalidationProcessor(reader MessageReader, invalidator Invalidator, origin string, logger *slog.Logger) *InvalidationProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationProcessor{
		reader:      reader,
		invalidator: invalidator,
		origin:      origin,
		logger:      logger.With("component", "invalidation_processor"),
		retryDelay:  time.Second,
	}
}

// Start consumes change events until ctx is cancelled
func (p *InvalidationProcessor) Start(ctx context.Context) error {
	p.logger.Info("starting catalog invalidation processor", "origin", p.origin)

	for {
		msg, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("invalidation processor shutting down",
					"processed", atomic.LoadInt64(&p.processedCount),
					"skipped", atomic.LoadInt64(&p.skippedCount),
					"failed", atomic.LoadInt64(&p.failedCount))
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			p.logger.Error("error reading change event", "error", err)
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if err := p.process(ctx, msg); err != nil {
			atomic.AddInt64(&p.failedCount, 1)
			p.logger.Warn("failed to process change event", "offset", msg.Offset, "error", err)
		}
	}
}

func (p *InvalidationProcessor) process(ctx context.Context, msg kafka.Message) error {
	var event events.ChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to decode change event: %w", err)
	}

	if event.Origin == p.origin {
		atomic.AddInt64(&p.skippedCount, 1)
		return nil
	}

	if err := p.invalidator.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate after %s of %s: %w", event.Type, event.ProductID, err)
	}

	atomic.AddInt64(&p.processedCount, 1)
	p.logger.Debug("catalog cache invalidated by remote change",
		"type", event.Type, "product_id", event.ProductID, "origin", event.Origin)
	return nil
}

// Stats returns how many events were applied, skipped as our own and failed
func (p *InvalidationProcessor) Stats() (processed, skipped, failed int64) {
	return atomic.LoadInt64(&p.processedCount),
		atomic.LoadInt64(&p.skippedCount),
		atomic.LoadInt64(&p.failedCount)
}
