package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8000"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Store settings
	Mongo MongoConfig
	Neo4j Neo4jConfig
	Redis RedisConfig

	// Consistency engine settings
	Sync SyncConfig

	// OpenTelemetry tracing
	Otel OtelConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig holds document store connection settings
type MongoConfig struct {
	URI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGODB_DB" envDefault:"insight_tracker"`

	MaxPoolSize uint64 `env:"MONGODB_MAX_POOL_SIZE" envDefault:"10"`
	MinPoolSize uint64 `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`

	// SelectionTimeout bounds server selection during connect and health checks.
	SelectionTimeout time.Duration `env:"MONGODB_SELECTION_TIMEOUT" envDefault:"5s"`

	MaxRetries int           `env:"MONGODB_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"MONGODB_RETRY_DELAY" envDefault:"500ms"`
}

// Neo4jConfig holds graph store connection settings
type Neo4jConfig struct {
	URI      string `env:"NEO4J_URI" envDefault:"bolt://localhost:7687"`
	Username string `env:"NEO4J_USER" envDefault:"neo4j"`
	Password string `env:"NEO4J_PASSWORD" envDefault:""`
	Database string `env:"NEO4J_DATABASE" envDefault:"neo4j"`

	MaxPoolSize           int           `env:"NEO4J_MAX_POOL_SIZE" envDefault:"50"`
	ConnectionTimeout     time.Duration `env:"NEO4J_CONNECTION_TIMEOUT" envDefault:"30s"`
	MaxConnectionLifetime time.Duration `env:"NEO4J_MAX_CONNECTION_LIFETIME" envDefault:"1h"`

	MaxRetries int           `env:"NEO4J_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"NEO4J_RETRY_DELAY" envDefault:"500ms"`
}

// RedisConfig holds key-value store connection settings
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	MaxRetries int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"REDIS_RETRY_DELAY" envDefault:"500ms"`

	// CacheTTL is the default expiry for cached entries.
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"1h"`
}

// SyncConfig holds consistency engine settings
type SyncConfig struct {
	// LockTTL bounds how long a crashed holder can keep an entity locked.
	LockTTL time.Duration `env:"SYNC_LOCK_TTL" envDefault:"10s"`

	// ReconcileEnabled turns the periodic sweep off entirely.
	ReconcileEnabled bool `env:"SYNC_RECONCILE_ENABLED" envDefault:"true"`

	// ReconcileInterval is how often the background sweep runs.
	ReconcileInterval time.Duration `env:"SYNC_RECONCILE_INTERVAL" envDefault:"5m"`

	// ReconcileSchedule is a cron expression (with seconds field) that
	// overrides ReconcileInterval when set.
	ReconcileSchedule string `env:"SYNC_RECONCILE_SCHEDULE" envDefault:""`

	// CheckOnStart runs one reconciliation sweep shortly after startup.
	CheckOnStart bool `env:"SYNC_CHECK_ON_START" envDefault:"true"`

	// ScanPageSize is the page size for the document store id scan.
	ScanPageSize int `env:"SYNC_SCAN_PAGE_SIZE" envDefault:"500"`
}

// IsProduction returns true when running in a production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("mongo_db", cfg.Mongo.Database),
		slog.String("neo4j_uri", cfg.Neo4j.URI),
		slog.String("redis_addr", cfg.Redis.Addr),
	)

	return cfg, nil
}
