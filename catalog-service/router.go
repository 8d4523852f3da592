package main

import (
	"log/slog"

	"github.com/arunvm123/showcatalog/catalog-service/bootstrap"
	"github.com/gin-gonic/gin"
)

func SetupRouter(app *bootstrap.App) *gin.Engine {
	jwtService := NewJWTService(app.Config.JWTSecret)
	productHandler := NewProductHandler(app.Service, app, app.Logger)

	return NewRouter(productHandler, jwtService, app.Logger)
}

func NewRouter(productHandler *ProductHandler, jwtService *JWTService, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(logger))

	// Health check endpoint (no auth required)
	r.GET("/health", productHandler.HealthCheck)

	api := r.Group("/api")
	products := api.Group("/products")

	// Public endpoints
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)

	// Catalog management (admins only)
	admin := products.Group("")
	admin.Use(AuthMiddleware(jwtService), RequireRole(RoleAdmin))

	admin.POST("", productHandler.CreateProduct)
	admin.PUT("/:id", productHandler.UpdateProduct)
	admin.DELETE("/:id", productHandler.DeleteProduct)

	return r
}
