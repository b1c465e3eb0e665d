package insights

import (
	"context"

	"go.uber.org/fx"

	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/internal/cache"
)

func provideStore(repo *Repository) Store {
	return repo
}

func provideViewCache(c *cache.Cache) ViewCache {
	return c
}

func provideEntitySyncer(svc *enginesync.Service) EntitySyncer {
	return svc
}

func ensureIndexes(lc fx.Lifecycle, repo *Repository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.EnsureIndexes(ctx)
		},
	})
}

// Module provides the insight record API and the document-store adapter the
// sync engine reads from.
var Module = fx.Module("insights",
	fx.Provide(
		NewRepository,
		NewDocumentStore,
		provideStore,
		provideViewCache,
		provideEntitySyncer,
		NewService,
		NewHandler,
	),
	fx.Invoke(
		ensureIndexes,
		RegisterRoutes,
	),
)
