package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Graph is the resilient client for the graph store holding insight
// projections and the relationships between them.
type Graph struct {
	cfg   config.Neo4jConfig
	log   *slog.Logger
	retry *Retryer

	driver neo4j.DriverWithContext
}

// NewGraph builds an unconnected graph store client.
func NewGraph(cfg *config.Config, log *slog.Logger) *Graph {
	log = log.With(logger.Scope("neo4j"))
	return &Graph{
		cfg:   cfg.Neo4j,
		log:   log,
		retry: NewRetryer("neo4j", cfg.Neo4j.MaxRetries, cfg.Neo4j.RetryDelay, IsNeo4jTransient, log),
	}
}

// Connect creates the driver and verifies connectivity. The check runs under
// the retry policy; exhausting it aborts startup.
func (g *Graph) Connect(ctx context.Context) error {
	return g.retry.Do(ctx, "connect", func(ctx context.Context) error {
		driver, err := neo4j.NewDriverWithContext(
			g.cfg.URI,
			neo4j.BasicAuth(g.cfg.Username, g.cfg.Password, ""),
			func(c *neo4jconfig.Config) {
				c.MaxConnectionPoolSize = g.cfg.MaxPoolSize
				c.MaxConnectionLifetime = g.cfg.MaxConnectionLifetime
				c.SocketConnectTimeout = g.cfg.ConnectionTimeout
			},
		)
		if err != nil {
			return fmt.Errorf("create neo4j driver: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return err
		}

		g.driver = driver
		g.log.Info("neo4j connected",
			slog.String("uri", g.cfg.URI),
			slog.String("database", g.cfg.Database),
		)
		return nil
	})
}

// Close shuts down the driver and its connection pool.
func (g *Graph) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	g.log.Info("closing neo4j driver")
	return g.driver.Close(ctx)
}

// HealthCheck reports whether the graph store is reachable. It never returns
// an error so health aggregation can report a degraded store instead of
// failing the whole probe.
func (g *Graph) HealthCheck(ctx context.Context) bool {
	if g.driver == nil {
		return false
	}
	if err := g.driver.VerifyConnectivity(ctx); err != nil {
		g.log.Warn("neo4j health check failed", logger.Error(err))
		return false
	}
	return true
}

// Session opens a session against the configured database. Callers own the
// session and must close it with the same context.
func (g *Graph) Session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: g.cfg.Database,
	})
}

// Retry exposes the store's retry policy to repositories.
func (g *Graph) Retry() *Retryer {
	return g.retry
}

// IsNeo4jTransient classifies graph store errors for the retry policy using
// the driver's own retryability rules.
func IsNeo4jTransient(err error) bool {
	if err == nil {
		return false
	}
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return neoErr.IsRetriable()
	}
	return false
}
