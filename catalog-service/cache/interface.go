package cache

import (
	"context"
)

// Store is the persisted key/value store backing the durable catalog tier.
// A missing key is reported as (nil, false, nil), never as an error.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
