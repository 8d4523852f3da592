package events

import (
	"context"
	"time"
)

type ChangeType string

const (
	ProductCreated ChangeType = "product_created"
	ProductUpdated ChangeType = "product_updated"
	ProductDeleted ChangeType = "product_deleted"
)

// ChangeEvent announces a catalog write so other instances can drop their cached catalog
type ChangeEvent struct {
	Type       ChangeType `json:"type"`
	ProductID  string     `json:"product_id"`
	Origin     string     `json:"origin"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher delivers change events to other catalog instances
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Close() error
}

// NoopPublisher drops every event; used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
