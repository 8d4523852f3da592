// Package bootstrap assembles the catalog service from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/arunvm123/showcatalog/catalog-service/cache"
	"github.com/arunvm123/showcatalog/catalog-service/cache/redis"
	"github.com/arunvm123/showcatalog/catalog-service/cache/sqlite"
	"github.com/arunvm123/showcatalog/catalog-service/catalog"
	"github.com/arunvm123/showcatalog/catalog-service/config"
	"github.com/arunvm123/showcatalog/catalog-service/events"
	kafkaevents "github.com/arunvm123/showcatalog/catalog-service/events/kafka"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
	"github.com/arunvm123/showcatalog/catalog-service/repository/http"
	"github.com/arunvm123/showcatalog/catalog-service/repository/postgres"
	"github.com/arunvm123/showcatalog/catalog-service/worker"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Origin      string
	Remote      repository.ProductRepository
	Store       cache.Store
	Publisher   events.Publisher
	Coordinator *catalog.Coordinator
	Service     *catalog.Service
}

// NewLogger returns a JSON logger at the given level; unknown levels mean info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Build connects the remote source, the durable store and the publisher and wires
// them into the catalog service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg.LogLevel)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Origin: newOrigin(),
	}

	remote, err := openRemote(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Remote = remote

	store, err := newStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	durable := catalog.DurableTier(catalog.NoDurableCache{})
	if store != nil {
		durable = catalog.NewDurableCache(store, cfg.Cache.Key, cfg.Cache.Version, logger)
	}

	app.Coordinator, err = catalog.NewCoordinator(
		catalog.Config{TTL: cfg.Cache.TTL, Version: cfg.Cache.Version},
		catalog.NewMemoryCache(),
		durable,
		remote,
		catalog.SystemClock{},
		logger,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize cache coordinator: %w", err)
	}

	app.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		app.Publisher = kafkaevents.NewPublisher(&cfg.Kafka)
	}

	app.Service = catalog.NewService(app.Coordinator, remote, app.Publisher, app.Origin, logger)

	logger.Info("catalog service assembled",
		"remote", cfg.Remote.Driver,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"cache_version", cfg.Cache.Version,
		"kafka", cfg.Kafka.Enabled,
		"origin", app.Origin)

	return app, nil
}

// InvalidationProcessor returns a consumer of other instances' change events, or nil
// when kafka is disabled. The caller owns the returned reader.
func (a *App) InvalidationProcessor() (*worker.InvalidationProcessor, *kafka.Reader) {
	if !a.Config.Kafka.Enabled {
		return nil, nil
	}

	// every instance needs every event, so each one gets its own group unless configured
	groupID := a.Config.Kafka.ConsumerGroup
	if groupID == "" {
		groupID = "catalog-cache-" + a.Origin
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     a.Config.Kafka.Brokers,
		Topic:       a.Config.Kafka.Topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
	})
	return worker.NewInvalidationProcessor(reader, a.Coordinator, a.Origin, a.Logger), reader
}

// CacheStatus reports whether the durable store is reachable.
func (a *App) CacheStatus(ctx context.Context) string {
	if a.Store == nil {
		return "disabled"
	}
	if err := a.Store.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (a *App) Close() {
	if closer, ok := a.Remote.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("failed to close remote source", "error", err)
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("failed to close publisher", "error", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close cache store", "error", err)
		}
	}
}

// openRemote is swapped in tests
var openRemote = newRemote

func newRemote(cfg *config.Config, logger *slog.Logger) (repository.ProductRepository, error) {
	switch cfg.Remote.Driver {
	case config.DriverHTTP:
		return http.NewHTTPProductRepositoryWithConfig(&cfg.Remote, logger), nil
	default:
		repo, err := postgres.NewProductRepository(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize repository: %w", err)
		}
		return repo, nil
	}
}

// newStore returns nil when the durable tier is disabled.
func newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendRedis:
		store, err := redis.NewRedisStore(ctx, cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite cache: %w", err)
		}
		return store, nil
	}
}

func newOrigin() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "catalog"
	}
	return host + "-" + uuid.NewString()[:8]
}

// Ping checks the remote source.
func (a *App) Ping(ctx context.Context) error {
	return a.Remote.Ping(ctx)
}
