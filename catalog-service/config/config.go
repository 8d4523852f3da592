package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"

	DriverPostgres = "postgres"
	DriverHTTP     = "http"
)

type Config struct {
	Port      string   `yaml:"port" env:"PORT" env-default:"8084"`
	JWTSecret string   `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	LogLevel  string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Cache     Cache    `yaml:"cache"`
	SQLite    SQLite   `yaml:"sqlite"`
	Redis     Redis    `yaml:"redis"`
	Remote    Remote   `yaml:"remote"`
	Database  Database `yaml:"database"`
	Kafka     Kafka    `yaml:"kafka"`
}

// Cache holds the freshness policy of the catalog cache and the durable tier backend
type Cache struct {
	TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"30m"`
	Version string        `yaml:"version" env:"CACHE_VERSION" env-default:"v2"`
	Key     string        `yaml:"key" env:"CACHE_KEY" env-default:"catalog:products"`
	Backend string        `yaml:"backend" env:"CACHE_BACKEND" env-default:"sqlite"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"catalog-cache.db"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

func (r *Redis) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Remote selects and configures the authoritative catalog source
type Remote struct {
	Driver       string `yaml:"driver" env:"REMOTE_DRIVER" env-default:"postgres"`
	BaseURL      string `yaml:"base_url" env:"REMOTE_BASE_URL" env-default:"http://document-store:8080"`
	ServiceToken string `yaml:"service_token" env:"REMOTE_SERVICE_TOKEN" env-default:""`

	// HTTP Connection Pool Settings
	MaxIdleConns        int `yaml:"max_idle_conns" env:"HTTP_MAX_IDLE_CONNS" env-default:"20"`
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" env:"HTTP_MAX_IDLE_CONNS_PER_HOST" env-default:"10"`
	MaxConnsPerHost     int `yaml:"max_conns_per_host" env:"HTTP_MAX_CONNS_PER_HOST" env-default:"20"`
	IdleConnTimeout     int `yaml:"idle_conn_timeout_seconds" env:"HTTP_IDLE_CONN_TIMEOUT" env-default:"90"`
	RequestTimeout      int `yaml:"request_timeout_seconds" env:"HTTP_REQUEST_TIMEOUT" env-default:"30"`
}

type Database struct {
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	DatabaseName string `yaml:"database_name" env:"DB_NAME" env-default:"showcatalog"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`

	// Connection Pool Settings
	MaxOpenConns    int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME" env-default:"30"`
}

func (d *Database) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DatabaseName, d.SSLMode)
}

type Kafka struct {
	Enabled       bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	Topic         string   `yaml:"topic" env:"KAFKA_CATALOG_TOPIC" env-default:"catalog-changes"`
	ConsumerGroup string   `yaml:"consumer_group" env:"KAFKA_CONSUMER_GROUP" env-default:""`
}

// Validate rejects settings the catalog service cannot run with
func (c *Config) Validate() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.Version == "" {
		return fmt.Errorf("cache version is required")
	}
	if c.Cache.Key == "" {
		return fmt.Errorf("cache key is required")
	}

	switch c.Cache.Backend {
	case BackendSQLite, BackendRedis, BackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Remote.Driver {
	case DriverPostgres:
	case DriverHTTP:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote base url is required for the http driver")
		}
	default:
		return fmt.Errorf("unknown remote driver %q", c.Remote.Driver)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	cfg := &Config{}

	if useEnv {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
		return validated(cfg)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			return validated(cfg)
		}
	}

	// Fallback to environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return validated(cfg)
}

func validated(cfg *Config) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
