package sync

import (
	"go.uber.org/fx"

	"github.com/insight-tracker/server-go/domain/graph"
	"github.com/insight-tracker/server-go/internal/cache"
	"github.com/insight-tracker/server-go/internal/locks"
)

func provideGraphStore(repo *graph.Repository) GraphStore {
	return repo
}

func provideLockManager(m *locks.Manager) LockManager {
	return m
}

func provideInvalidator(c *cache.Cache) Invalidator {
	return c
}

// Module provides the consistency engine. The DocumentStore dependency is
// provided by the insights domain, which owns the document store schema.
var Module = fx.Module("sync",
	fx.Provide(
		provideGraphStore,
		provideLockManager,
		provideInvalidator,
		NewExecutor,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
