package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidProduct is returned when product input fails validation.
var ErrInvalidProduct = errors.New("invalid product")

const (
	// DefaultProductType is stamped on entries created without an explicit type.
	DefaultProductType = "show"

	// DateLayout is the calendar date format used for Product.Date.
	DateLayout = "2006-01-02"

	MaxImages = 3
)

// ServiceSurchargeRate is the fixed service fee applied on top of a space base price.
var ServiceSurchargeRate = decimal.NewFromFloat(0.10)

// ===============================
// Domain Entities
// ===============================

// Product represents a catalog entry
type Product struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Type        string        `json:"type"`
	Artist      string        `json:"artist"`
	Date        string        `json:"date"`
	Venue       string        `json:"venue"`
	Category    string        `json:"category"`
	Images      []string      `json:"images"`
	Spaces      []Space       `json:"spaces"`
	Merchandise []Merchandise `json:"merchandise"`
	CreatedAt   time.Time     `json:"created_at,omitzero"`
}

// Space is a purchasable seating area of a show
type Space struct {
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Stock     int             `json:"stock"`
}

// Merchandise is an optional item sold alongside a show
type Merchandise struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// PriceWithService returns the base price plus the service surcharge, rounded to whole units.
func (s Space) PriceWithService() decimal.Decimal {
	return s.BasePrice.Mul(decimal.NewFromInt(1).Add(ServiceSurchargeRate)).Round(0)
}

// MinPriceWithService returns the cheapest space price including the surcharge.
func (p *Product) MinPriceWithService() decimal.Decimal {
	if len(p.Spaces) == 0 {
		return decimal.Zero
	}
	lowest := p.Spaces[0].PriceWithService()
	for _, s := range p.Spaces[1:] {
		if price := s.PriceWithService(); price.LessThan(lowest) {
			lowest = price
		}
	}
	return lowest
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	p.Images = slices.Clone(p.Images)
	p.Spaces = slices.Clone(p.Spaces)
	p.Merchandise = slices.Clone(p.Merchandise)
	return p
}

// Validate checks a product read back from a remote source.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	return p.Input().Validate()
}

// Input returns the caller-supplied fields of the product.
func (p *Product) Input() ProductInput {
	return ProductInput{
		Title:       p.Title,
		Type:        p.Type,
		Artist:      p.Artist,
		Date:        p.Date,
		Venue:       p.Venue,
		Category:    p.Category,
		Images:      p.Images,
		Spaces:      p.Spaces,
		Merchandise: p.Merchandise,
	}
}

// ===============================
// Repository DTOs
// ===============================

// ProductInput represents the fields supplied when creating or updating a product
type ProductInput struct {
	Title       string        `json:"title" binding:"required"`
	Type        string        `json:"type"`
	Artist      string        `json:"artist" binding:"required"`
	Date        string        `json:"date" binding:"required"`
	Venue       string        `json:"venue" binding:"required"`
	Category    string        `json:"category" binding:"required"`
	Images      []string      `json:"images" binding:"required"`
	Spaces      []Space       `json:"spaces" binding:"required"`
	Merchandise []Merchandise `json:"merchandise"`
}

// Normalize trims text fields and fills defaults.
func (in ProductInput) Normalize() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.TrimSpace(in.Type)
	in.Artist = strings.TrimSpace(in.Artist)
	in.Date = strings.TrimSpace(in.Date)
	in.Venue = strings.TrimSpace(in.Venue)
	in.Category = strings.TrimSpace(in.Category)
	if in.Type == "" {
		in.Type = DefaultProductType
	}
	if in.Merchandise == nil {
		in.Merchandise = []Merchandise{}
	}
	return in
}

// Validate reports the first problem found with the input.
func (in ProductInput) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"title", in.Title},
		{"artist", in.Artist},
		{"venue", in.Venue},
		{"category", in.Category},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidProduct, f.name)
		}
	}

	if _, err := time.Parse(DateLayout, strings.TrimSpace(in.Date)); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidProduct)
	}

	if len(in.Images) == 0 || len(in.Images) > MaxImages {
		return fmt.Errorf("%w: between 1 and %d images are required", ErrInvalidProduct, MaxImages)
	}
	for i, img := range in.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: image %d is empty", ErrInvalidProduct, i)
		}
	}

	if len(in.Spaces) == 0 {
		return fmt.Errorf("%w: at least one space is required", ErrInvalidProduct)
	}
	for _, s := range in.Spaces {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: space name is required", ErrInvalidProduct)
		}
		if s.BasePrice.IsNegative() {
			return fmt.Errorf("%w: space %q has a negative price", ErrInvalidProduct, s.Name)
		}
		if s.Stock < 0 {
			return fmt.Errorf("%w: space %q has negative stock", ErrInvalidProduct, s.Name)
		}
	}

	for _, m := range in.Merchandise {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: merchandise name is required", ErrInvalidProduct)
		}
		if m.Price.IsNegative() || m.Stock < 0 {
			return fmt.Errorf("%w: merchandise %q has a negative price or stock", ErrInvalidProduct, m.Name)
		}
	}

	return nil
}

// ToProduct builds the product a remote source returned identifiers for.
func (in ProductInput) ToProduct(id string, createdAt time.Time) Product {
	in = in.Normalize()
	return Product{
		ID:          id,
		Title:       in.Title,
		Type:        in.Type,
		Artist:      in.Artist,
		Date:        in.Date,
		Venue:       in.Venue,
		Category:    in.Category,
		Images:      in.Images,
		Spaces:      in.Spaces,
		Merchandise: in.Merchandise,
		CreatedAt:   createdAt,
	}
}

// Created carries the identifiers a remote source assigns on creation
type Created struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ===============================
// API DTOs
// ===============================

// ProductResponse represents product data in API responses
type ProductResponse struct {
	Product
	MinPriceWithService decimal.Decimal `json:"min_price_with_service"`
}

// ToProductResponse converts a product into its API representation
func (p *Product) ToProductResponse() ProductResponse {
	return ProductResponse{
		Product:             *p,
		MinPriceWithService: p.MinPriceWithService(),
	}
}

// ProductListResponse represents the response for listing products
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Cache     string    `json:"cache"`
	Timestamp time.Time `json:"timestamp"`
}
