// Package catalog implements the tiered product catalog cache and the service built on it.
//
// Reads go memory tier, then durable tier, then the remote source. Writes go to the
// remote source and then clear both tiers before returning.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/model"
)

// ErrSerialization marks a durable entry that could not be encoded or decoded.
var ErrSerialization = errors.New("cache entry serialization failed")

// CacheEntry is the unit held by both cache tiers: the whole catalog at one point in time.
type CacheEntry struct {
	Payload   []model.Product
	Version   string
	FetchedAt time.Time
}

// Clock supplies the current time to freshness checks.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MemoryTier is the process-local tier.
type MemoryTier interface {
	Get() (CacheEntry, bool)
	Set(entry CacheEntry)
	Clear()
}

// DurableTier is the persisted tier. Load reports faults as a miss.
type DurableTier interface {
	Load(ctx context.Context) (CacheEntry, bool)
	Save(ctx context.Context, entry CacheEntry) error
	Clear(ctx context.Context) error
}

func cloneProducts(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	for i := range products {
		out[i] = products[i].Clone()
	}
	return out
}
