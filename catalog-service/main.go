package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/bootstrap"
	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run("config.yaml"); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	// Try to load from config.yaml first, fallback to environment variables
	cfg, err := config.Initialise(configPath, false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	logger := bootstrap.NewLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start catalog service: %w", err)
	}
	defer app.Close()

	// Other instances' writes reach this instance's memory tier through kafka
	if processor, reader := app.InvalidationProcessor(); processor != nil {
		defer reader.Close()
		go func() {
			if err := processor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("invalidation processor stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           SetupRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting catalog service API", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("received shutdown signal, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("catalog service stopped")
	return nil
}
