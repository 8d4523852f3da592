package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProductRecord represents the product entity in the database
type ProductRecord struct {
	ID          string              `gorm:"type:text;primary_key"`
	Title       string              `gorm:"not null"`
	Type        string              `gorm:"not null;default:'show'"`
	Artist      string              `gorm:"not null"`
	Date        string              `gorm:"type:text;not null"`
	Venue       string              `gorm:"not null"`
	Category    string              `gorm:"not null;index"`
	Images      pq.StringArray      `gorm:"type:text[]"`
	Spaces      []model.Space       `gorm:"serializer:json;type:jsonb"`
	Merchandise []model.Merchandise `gorm:"serializer:json;type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductRecord) TableName() string {
	return "products"
}

func (r *ProductRecord) toProduct() model.Product {
	merch := r.Merchandise
	if merch == nil {
		merch = []model.Merchandise{}
	}
	return model.Product{
		ID:          r.ID,
		Title:       r.Title,
		Type:        r.Type,
		Artist:      r.Artist,
		Date:        r.Date,
		Venue:       r.Venue,
		Category:    r.Category,
		Images:      []string(r.Images),
		Spaces:      r.Spaces,
		Merchandise: merch,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r *ProductRecord) apply(input model.ProductInput) {
	input = input.Normalize()
	r.Title = input.Title
	r.Type = input.Type
	r.Artist = input.Artist
	r.Date = input.Date
	r.Venue = input.Venue
	r.Category = input.Category
	r.Images = pq.StringArray(input.Images)
	r.Spaces = input.Spaces
	r.Merchandise = input.Merchandise
}

type PostgresProductRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewProductRepository(cfg *config.Database, logger *slog.Logger) (*PostgresProductRepository, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := db.AutoMigrate(&ProductRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("database connected and products table migrated")

	return &PostgresProductRepository{db: db, logger: logger}, nil
}

// classify maps gorm failures onto the repository error taxonomy
func classify(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}

// Read operations
func (r *PostgresProductRepository) List(ctx context.Context) ([]model.Product, error) {
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, classify(err)
	}
	return r.toProducts(records), nil
}

func (r *PostgresProductRepository) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Where("category = ?", category).Find(&records).Error; err != nil {
		return nil, classify(err)
	}
	return r.toProducts(records), nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var record ProductRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, classify(err)
	}

	product := record.toProduct()
	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("malformed product %s: %w", id, err)
	}
	return &product, nil
}

// Write operations
func (r *PostgresProductRepository) Create(ctx context.Context, input model.ProductInput) (model.Created, error) {
	record := ProductRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	record.apply(input)

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return model.Created{}, classify(err)
	}

	return model.Created{ID: record.ID, CreatedAt: record.CreatedAt}, nil
}

func (r *PostgresProductRepository) Update(ctx context.Context, id string, input model.ProductInput) error {
	var record ProductRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return classify(err)
	}

	record.apply(input)

	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ProductRecord{})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ping checks the database connection for health checks
func (r *PostgresProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return classify(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the connection pool
func (r *PostgresProductRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toProducts converts records, dropping any that fail validation
func (r *PostgresProductRepository) toProducts(records []ProductRecord) []model.Product {
	products := make([]model.Product, 0, len(records))
	for i := range records {
		product := records[i].toProduct()
		if err := product.Validate(); err != nil {
			r.logger.Warn("skipping malformed product record", "id", records[i].ID, "error", err)
			continue
		}
		products = append(products, product)
	}
	return products
}
