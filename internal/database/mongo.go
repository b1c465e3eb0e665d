package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Mongo is the resilient client for the document store, the system of record
// for insights. All repository operations run through its retry policy.
type Mongo struct {
	cfg   config.MongoConfig
	log   *slog.Logger
	retry *Retryer

	client *mongo.Client
	db     *mongo.Database
}

// NewMongo builds an unconnected document store client.
func NewMongo(cfg *config.Config, log *slog.Logger) *Mongo {
	log = log.With(logger.Scope("mongodb"))
	return &Mongo{
		cfg:   cfg.Mongo,
		log:   log,
		retry: NewRetryer("mongodb", cfg.Mongo.MaxRetries, cfg.Mongo.RetryDelay, IsMongoTransient, log),
	}
}

// Connect establishes the connection and verifies it with a ping. The ping
// runs under the retry policy; exhausting it aborts startup.
func (m *Mongo) Connect(ctx context.Context) error {
	return m.retry.Do(ctx, "connect", func(ctx context.Context) error {
		opts := options.Client().
			ApplyURI(m.cfg.URI).
			SetMaxPoolSize(m.cfg.MaxPoolSize).
			SetMinPoolSize(m.cfg.MinPoolSize).
			SetServerSelectionTimeout(m.cfg.SelectionTimeout)

		client, err := mongo.Connect(opts)
		if err != nil {
			return fmt.Errorf("create mongodb client: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return err
		}

		m.client = client
		m.db = client.Database(m.cfg.Database)

		m.log.Info("mongodb connected",
			slog.String("database", m.cfg.Database),
			slog.Uint64("max_pool_size", m.cfg.MaxPoolSize),
		)
		return nil
	})
}

// Close disconnects from the document store.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	m.log.Info("closing mongodb connection")
	return m.client.Disconnect(ctx)
}

// HealthCheck reports whether the document store answers a ping. It never
// returns an error so health aggregation can report a degraded store instead
// of failing the whole probe.
func (m *Mongo) HealthCheck(ctx context.Context) bool {
	if m.client == nil {
		return false
	}
	if err := m.client.Ping(ctx, nil); err != nil {
		m.log.Warn("mongodb health check failed", logger.Error(err))
		return false
	}
	return true
}

// Collection returns a handle to a named collection in the configured database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Retry exposes the store's retry policy to repositories.
func (m *Mongo) Retry() *Retryer {
	return m.retry
}

// IsMongoTransient classifies document store errors for the retry policy.
// Missing documents and duplicate keys are query outcomes, not failures.
func IsMongoTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return false
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorLabel("RetryableWriteError") || srvErr.HasErrorLabel("RetryableReadError")
	}
	return false
}
