package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
)

// Config is the freshness policy applied to both tiers.
type Config struct {
	TTL     time.Duration
	Version string
}

// Coordinator owns the cache tiers and decides where each read is answered from.
//
// Concurrent cold reads are not de-duplicated: each may fetch from the remote source
// and the last one to finish wins.
type Coordinator struct {
	cfg     Config
	memory  MemoryTier
	durable DurableTier
	remote  repository.ProductRepository
	clock   Clock
	logger  *slog.Logger

	// set when clearing the durable tier failed; fresh reads skip it until it is rewritten
	durableUntrusted atomic.Bool
}

func NewCoordinator(
	cfg Config,
	memory MemoryTier,
	durable DurableTier,
	remote repository.ProductRepository,
	clock Clock,
	logger *slog.Logger,
) (*Coordinator, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("cache version is required")
	}
	if memory == nil || remote == nil {
		return nil, fmt.Errorf("memory tier and remote source are required")
	}
	if durable == nil {
		durable = NoDurableCache{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		cfg:     cfg,
		memory:  memory,
		durable: durable,
		remote:  remote,
		clock:   clock,
		logger:  logger,
	}, nil
}

// Catalog returns the full catalog, newest first. forceRefresh skips both tiers.
func (c *Coordinator) Catalog(ctx context.Context, forceRefresh bool) ([]model.Product, error) {
	if !forceRefresh {
		if entry, ok := c.cached(ctx); ok {
			return cloneProducts(entry.Payload), nil
		}
	}

	products, err := c.remote.List(ctx)
	if err != nil {
		entry, ok := c.stale(ctx)
		if !ok {
			return nil, unavailable(err)
		}
		c.logger.Warn("remote catalog unavailable, serving stale catalog",
			"fetched_at", entry.FetchedAt, "products", len(entry.Payload), "error", err)
		return cloneProducts(entry.Payload), nil
	}

	products = cloneProducts(products)
	sortNewestFirst(products)

	entry := CacheEntry{
		Payload:   products,
		Version:   c.cfg.Version,
		FetchedAt: c.clock.Now(),
	}
	c.memory.Set(entry)
	if err := c.durable.Save(ctx, entry); err != nil {
		c.logger.Warn("failed to persist catalog to durable cache", "error", err)
	} else {
		c.durableUntrusted.Store(false)
	}

	return cloneProducts(products), nil
}

// ByCategory answers from a fresh cached catalog when there is one and otherwise
// asks the remote source for that category only. Scoped results are never cached.
func (c *Coordinator) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	if entry, ok := c.cached(ctx); ok {
		return filterCategory(entry.Payload, category), nil
	}

	products, err := c.remote.ListByCategory(ctx, category)
	if err != nil {
		entry, ok := c.stale(ctx)
		if !ok {
			return nil, unavailable(err)
		}
		c.logger.Warn("remote catalog unavailable, filtering stale catalog",
			"category", category, "fetched_at", entry.FetchedAt, "error", err)
		return filterCategory(entry.Payload, category), nil
	}

	products = cloneProducts(products)
	sortNewestFirst(products)
	return products, nil
}

// ByID answers from a fresh cached catalog when it holds the product. A product missing
// from the cached catalog is looked up remotely so NotFound always comes from the source.
func (c *Coordinator) ByID(ctx context.Context, id string) (model.Product, error) {
	if entry, ok := c.cached(ctx); ok {
		if product, found := findByID(entry.Payload, id); found {
			return product, nil
		}
	}

	product, err := c.remote.GetByID(ctx, id)
	if err == nil {
		return *product, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return model.Product{}, err
	}

	if entry, ok := c.stale(ctx); ok {
		if product, found := findByID(entry.Payload, id); found {
			c.logger.Warn("remote catalog unavailable, serving stale product",
				"id", id, "fetched_at", entry.FetchedAt, "error", err)
			return product, nil
		}
	}
	return model.Product{}, unavailable(err)
}

// Lookup returns the product from whatever catalog entry of the current version is held,
// regardless of age. It never calls the remote source.
func (c *Coordinator) Lookup(ctx context.Context, id string) (model.Product, bool) {
	entry, ok := c.stale(ctx)
	if !ok {
		return model.Product{}, false
	}
	return findByID(entry.Payload, id)
}

// InvalidateAll clears both tiers. The memory tier is always cleared; a durable failure
// is returned and leaves the durable tier ignored by fresh reads until it is rewritten.
func (c *Coordinator) InvalidateAll(ctx context.Context) error {
	c.memory.Clear()

	if err := c.durable.Clear(ctx); err != nil {
		c.durableUntrusted.Store(true)
		return err
	}
	c.durableUntrusted.Store(false)
	return nil
}

// cached returns a fresh entry from memory, or from the durable tier after promoting it.
func (c *Coordinator) cached(ctx context.Context) (CacheEntry, bool) {
	if entry, ok := c.memory.Get(); ok && c.fresh(entry) {
		return entry, true
	}

	if c.durableUntrusted.Load() {
		return CacheEntry{}, false
	}

	if entry, ok := c.durable.Load(ctx); ok && c.fresh(entry) {
		c.memory.Set(entry)
		return entry, true
	}

	return CacheEntry{}, false
}

// stale returns the most recent entry of the current version regardless of age.
func (c *Coordinator) stale(ctx context.Context) (CacheEntry, bool) {
	if entry, ok := c.memory.Get(); ok && entry.Version == c.cfg.Version {
		return entry, true
	}
	if entry, ok := c.durable.Load(ctx); ok && entry.Version == c.cfg.Version {
		return entry, true
	}
	return CacheEntry{}, false
}

func (c *Coordinator) fresh(entry CacheEntry) bool {
	return entry.Version == c.cfg.Version && c.clock.Now().Sub(entry.FetchedAt) < c.cfg.TTL
}

func unavailable(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}

// sortNewestFirst orders by CreatedAt descending; equal timestamps keep arrival order.
func sortNewestFirst(products []model.Product) {
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func filterCategory(products []model.Product, category string) []model.Product {
	filtered := make([]model.Product, 0)
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p.Clone())
		}
	}
	return filtered
}

func findByID(products []model.Product, id string) (model.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.Product{}, false
}
