package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/cache"
	"github.com/arunvm123/showcatalog/catalog-service/model"
)

// durableEnvelope is the serialized form of a CacheEntry.
type durableEnvelope struct {
	Version   string          `json:"version"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   []model.Product `json:"payload"`
}

// DurableCache mirrors the catalog entry into a persisted store under a single key.
// Entries written under another version tag read back as absent.
type DurableCache struct {
	store   cache.Store
	key     string
	version string
	logger  *slog.Logger
}

func NewDurableCache(store cache.Store, key, version string, logger *slog.Logger) *DurableCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DurableCache{
		store:   store,
		key:     key,
		version: version,
		logger:  logger,
	}
}

func (d *DurableCache) Load(ctx context.Context) (CacheEntry, bool) {
	data, ok, err := d.store.Load(ctx, d.key)
	if err != nil {
		d.logger.Warn("durable cache load failed, treating as miss", "key", d.key, "error", err)
		return CacheEntry{}, false
	}
	if !ok {
		return CacheEntry{}, false
	}

	// Check the tag before decoding the payload: older schemas may not decode at all.
	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		d.logger.Warn("durable cache entry unreadable, treating as miss",
			"key", d.key, "error", fmt.Errorf("%w: %w", ErrSerialization, err))
		return CacheEntry{}, false
	}
	if head.Version != d.version {
		d.logger.Debug("durable cache entry has another version", "key", d.key, "stored", head.Version, "expected", d.version)
		return CacheEntry{}, false
	}

	var env durableEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		d.logger.Warn("durable cache entry unreadable, treating as miss",
			"key", d.key, "error", fmt.Errorf("%w: %w", ErrSerialization, err))
		return CacheEntry{}, false
	}

	payload := env.Payload
	if payload == nil {
		payload = []model.Product{}
	}

	return CacheEntry{
		Payload:   payload,
		Version:   env.Version,
		FetchedAt: env.FetchedAt,
	}, true
}

func (d *DurableCache) Save(ctx context.Context, entry CacheEntry) error {
	data, err := json.Marshal(durableEnvelope{
		Version:   entry.Version,
		FetchedAt: entry.FetchedAt.UTC(),
		Payload:   cloneProducts(entry.Payload),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if err := d.store.Save(ctx, d.key, data); err != nil {
		return fmt.Errorf("save durable entry: %w", err)
	}
	return nil
}

func (d *DurableCache) Clear(ctx context.Context) error {
	if err := d.store.Remove(ctx, d.key); err != nil {
		return fmt.Errorf("remove durable entry: %w", err)
	}
	return nil
}

// NoDurableCache is the durable tier used when persistence is disabled.
type NoDurableCache struct{}

func (NoDurableCache) Load(context.Context) (CacheEntry, bool) { return CacheEntry{}, false }

func (NoDurableCache) Save(context.Context, CacheEntry) error { return nil }

func (NoDurableCache) Clear(context.Context) error { return nil }
