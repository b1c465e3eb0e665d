package config

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(testLogger())
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerPort != 8000 {
		t.Errorf("ServerPort = %d, want 8000", cfg.ServerPort)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("Mongo.URI = %q, want mongodb://localhost:27017", cfg.Mongo.URI)
	}
	if cfg.Mongo.Database != "insight_tracker" {
		t.Errorf("Mongo.Database = %q, want insight_tracker", cfg.Mongo.Database)
	}
	if cfg.Mongo.MaxPoolSize != 10 || cfg.Mongo.MinPoolSize != 1 {
		t.Errorf("Mongo pool = %d/%d, want 10/1", cfg.Mongo.MaxPoolSize, cfg.Mongo.MinPoolSize)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("Neo4j.URI = %q, want bolt://localhost:7687", cfg.Neo4j.URI)
	}
	if cfg.Neo4j.Username != "neo4j" {
		t.Errorf("Neo4j.Username = %q, want neo4j", cfg.Neo4j.Username)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
	if cfg.Redis.CacheTTL != time.Hour {
		t.Errorf("Redis.CacheTTL = %v, want 1h", cfg.Redis.CacheTTL)
	}
}

func TestNewConfig_RetryDefaults(t *testing.T) {
	cfg, err := NewConfig(testLogger())
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	tests := []struct {
		name       string
		maxRetries int
		retryDelay time.Duration
	}{
		{"mongo", cfg.Mongo.MaxRetries, cfg.Mongo.RetryDelay},
		{"neo4j", cfg.Neo4j.MaxRetries, cfg.Neo4j.RetryDelay},
		{"redis", cfg.Redis.MaxRetries, cfg.Redis.RetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.maxRetries != 3 {
				t.Errorf("MaxRetries = %d, want 3", tt.maxRetries)
			}
			if tt.retryDelay != 500*time.Millisecond {
				t.Errorf("RetryDelay = %v, want 500ms", tt.retryDelay)
			}
		})
	}
}

func TestNewConfig_SyncDefaults(t *testing.T) {
	cfg, err := NewConfig(testLogger())
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.Sync.LockTTL != 10*time.Second {
		t.Errorf("Sync.LockTTL = %v, want 10s", cfg.Sync.LockTTL)
	}
	if !cfg.Sync.ReconcileEnabled {
		t.Error("Sync.ReconcileEnabled = false, want true")
	}
	if cfg.Sync.ReconcileInterval != 5*time.Minute {
		t.Errorf("Sync.ReconcileInterval = %v, want 5m", cfg.Sync.ReconcileInterval)
	}
	if cfg.Sync.ReconcileSchedule != "" {
		t.Errorf("Sync.ReconcileSchedule = %q, want empty", cfg.Sync.ReconcileSchedule)
	}
	if !cfg.Sync.CheckOnStart {
		t.Error("Sync.CheckOnStart = false, want true")
	}
	if cfg.Sync.ScanPageSize != 500 {
		t.Errorf("Sync.ScanPageSize = %d, want 500", cfg.Sync.ScanPageSize)
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONGODB_DB", "tracker_test")
	t.Setenv("NEO4J_PASSWORD", "s3cret")
	t.Setenv("SYNC_LOCK_TTL", "30s")
	t.Setenv("SYNC_CHECK_ON_START", "false")
	t.Setenv("SYNC_RECONCILE_SCHEDULE", "0 */10 * * * *")

	cfg, err := NewConfig(testLogger())
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.Mongo.Database != "tracker_test" {
		t.Errorf("Mongo.Database = %q, want tracker_test", cfg.Mongo.Database)
	}
	if cfg.Neo4j.Password != "s3cret" {
		t.Errorf("Neo4j.Password = %q, want s3cret", cfg.Neo4j.Password)
	}
	if cfg.Sync.LockTTL != 30*time.Second {
		t.Errorf("Sync.LockTTL = %v, want 30s", cfg.Sync.LockTTL)
	}
	if cfg.Sync.CheckOnStart {
		t.Error("Sync.CheckOnStart = true, want false")
	}
	if cfg.Sync.ReconcileSchedule != "0 */10 * * * *" {
		t.Errorf("Sync.ReconcileSchedule = %q", cfg.Sync.ReconcileSchedule)
	}
}

func TestNewConfig_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	if _, err := NewConfig(testLogger()); err == nil {
		t.Fatal("NewConfig() expected error for invalid SERVER_PORT")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"local", "local", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOtelConfig_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     bool
	}{
		{"enabled with endpoint", "http://localhost:4318", true},
		{"disabled without endpoint", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := OtelConfig{ExporterEndpoint: tt.endpoint}
			if got := cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
