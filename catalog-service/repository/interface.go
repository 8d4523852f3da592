package repository

import (
	"context"
	"errors"

	"github.com/arunvm123/showcatalog/catalog-service/model"
)

var (
	// ErrNotFound is returned when the requested product does not exist at the source.
	ErrNotFound = errors.New("product not found")

	// ErrUnavailable is returned when the source cannot be reached or fails to answer.
	ErrUnavailable = errors.New("catalog source unavailable")
)

// ProductRepository is the authoritative product store. List results carry no ordering guarantee.
type ProductRepository interface {
	// Read operations
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Write operations
	Create(ctx context.Context, input model.ProductInput) (model.Created, error)
	Update(ctx context.Context, id string, input model.ProductInput) error
	Delete(ctx context.Context, id string) error

	// Health check
	Ping(ctx context.Context) error
}
