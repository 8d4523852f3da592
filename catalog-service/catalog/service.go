package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/events"
	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
)

// Service is the catalog API used by handlers and tools. Reads go through the
// coordinator; writes go to the remote source and then invalidate every tier.
type Service struct {
	coordinator *Coordinator
	remote      repository.ProductRepository
	publisher   events.Publisher
	origin      string
	logger      *slog.Logger
}

// NewService wires the service. origin identifies this instance on published change events.
func NewService(
	coordinator *Coordinator,
	remote repository.ProductRepository,
	publisher events.Publisher,
	origin string,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		coordinator: coordinator,
		remote:      remote,
		publisher:   publisher,
		origin:      origin,
		logger:      logger,
	}
}

func (s *Service) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.coordinator.Catalog(ctx, false)
}

// Refresh reloads the catalog from the remote source regardless of cache state.
func (s *Service) Refresh(ctx context.Context) ([]model.Product, error) {
	return s.coordinator.Catalog(ctx, true)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.coordinator.ByCategory(ctx, category)
}

func (s *Service) GetByID(ctx context.Context, id string) (model.Product, error) {
	return s.coordinator.ByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, input model.ProductInput) (model.Product, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return model.Product{}, err
	}

	created, err := s.remote.Create(ctx, input)
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	product := input.ToProduct(created.ID, created.CreatedAt)
	s.afterWrite(ctx, events.ProductCreated, product.ID)

	return product, nil
}

func (s *Service) Update(ctx context.Context, id string, input model.ProductInput) (model.Product, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return model.Product{}, err
	}

	// the cached copy still holds the creation time the update does not carry
	var createdAt time.Time
	if previous, ok := s.coordinator.Lookup(ctx, id); ok {
		createdAt = previous.CreatedAt
	}

	if err := s.remote.Update(ctx, id, input); err != nil {
		return model.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	s.afterWrite(ctx, events.ProductUpdated, id)

	product, err := s.coordinator.ByID(ctx, id)
	if err != nil {
		// the write is acknowledged; answer with what was sent
		s.logger.Warn("failed to read back updated product", "id", id, "error", err)
		return input.ToProduct(id, createdAt), nil
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.afterWrite(ctx, events.ProductDeleted, id)
	return nil
}

// afterWrite invalidates the cache and announces the change. Neither step can fail
// a write the remote source already acknowledged.
func (s *Service) afterWrite(ctx context.Context, change events.ChangeType, id string) {
	ctx = context.WithoutCancel(ctx)

	if err := s.coordinator.InvalidateAll(ctx); err != nil {
		s.logger.Warn("durable cache invalidation failed", "change", change, "id", id, "error", err)
	}

	event := events.ChangeEvent{
		Type:       change,
		ProductID:  id,
		Origin:     s.origin,
		OccurredAt: s.coordinator.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish catalog change", "change", change, "id", id, "error", err)
	}
}
