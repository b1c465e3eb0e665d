package database

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/insight-tracker/server-go/internal/config"
)

var Module = fx.Module("database",
	fx.Provide(
		NewMongoClient,
		NewGraphClient,
		NewKVClient,
	),
)

// connectTimeout bounds each store's startup connection, retries included.
const connectTimeout = 30 * time.Second

// NewMongoClient connects the document store at startup and closes it on
// shutdown. A connection failure aborts application start.
func NewMongoClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*Mongo, error) {
	m := NewMongo(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return m.Close(ctx)
		},
	})
	return m, nil
}

// NewGraphClient connects the graph store at startup and closes it on
// shutdown. A connection failure aborts application start.
func NewGraphClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*Graph, error) {
	g := NewGraph(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := g.Connect(ctx); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return g.Close(ctx)
		},
	})
	return g, nil
}

// NewKVClient connects the cache store at startup and closes it on shutdown.
// A connection failure aborts application start.
func NewKVClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*KV, error) {
	k := NewKV(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := k.Connect(ctx); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return k.Close()
		},
	})
	return k, nil
}
