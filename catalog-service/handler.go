package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
	"github.com/gin-gonic/gin"
)

// CatalogService is what the handlers need from catalog.Service
type CatalogService interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	Refresh(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (model.Product, error)
	Create(ctx context.Context, input model.ProductInput) (model.Product, error)
	Update(ctx context.Context, id string, input model.ProductInput) (model.Product, error)
	Delete(ctx context.Context, id string) error
}

// HealthSource reports on the remote source and the durable cache
type HealthSource interface {
	Ping(ctx context.Context) error
	CacheStatus(ctx context.Context) string
}

type ProductHandler struct {
	service CatalogService
	health  HealthSource
	logger  *slog.Logger
}

func NewProductHandler(service CatalogService, health HealthSource, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		health:  health,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products with optional category and refresh parameters
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Query("category")

	refresh, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_query",
			Message: "refresh must be a boolean",
		})
		return
	}

	var products []model.Product
	if refresh {
		products, err = h.service.Refresh(ctx)
		if err != nil {
			h.writeError(c, err, "Failed to refresh products")
			return
		}
	}

	switch {
	case category != "":
		products, err = h.service.ListByCategory(ctx, category)
	case !refresh:
		products, err = h.service.ListAll(ctx)
	}
	if err != nil {
		h.writeError(c, err, "Failed to retrieve products")
		return
	}

	response := model.ProductListResponse{
		Products: make([]model.ProductResponse, 0, len(products)),
		Total:    len(products),
	}
	for i := range products {
		response.Products = append(response.Products, products[i].ToProductResponse())
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, product.ToProductResponse())
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req model.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return
	}

	product, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product.ToProductResponse())
}

// UpdateProduct handles PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req model.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return
	}

	product, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product.ToProductResponse())
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "Failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthCheck handles health check endpoint
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := h.health.CacheStatus(ctx)

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn("health check: remote source unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, model.HealthResponse{
			Status:    "unhealthy",
			Service:   "catalog-service",
			Cache:     cacheStatus,
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Service:   "catalog-service",
		Cache:     cacheStatus,
		Timestamp: time.Now(),
	})
}

func (h *ProductHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, model.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Product not found",
		})
	case errors.Is(err, repository.ErrUnavailable):
		h.logger.Warn(message, "error", err)
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error:   "service_unavailable",
			Message: "Catalog source is unavailable",
		})
	default:
		h.logger.Error(message, "error", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "internal_error",
			Message: message,
		})
	}
}
