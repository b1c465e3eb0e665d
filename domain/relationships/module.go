package relationships

import (
	"context"

	"go.uber.org/fx"

	"github.com/insight-tracker/server-go/domain/graph"
	"github.com/insight-tracker/server-go/domain/insights"
	"github.com/insight-tracker/server-go/internal/cache"
)

func provideRecordStore(repo *Repository) RecordStore {
	return repo
}

func provideEdgeStore(repo *graph.Repository) EdgeStore {
	return repo
}

func provideMindmapSource(repo *graph.Repository) MindmapSource {
	return repo
}

func provideInsightReader(repo *insights.Repository) InsightReader {
	return repo
}

func provideViewCache(c *cache.Cache) ViewCache {
	return c
}

func ensureIndexes(lc fx.Lifecycle, repo *Repository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.EnsureIndexes(ctx)
		},
	})
}

// Module provides the relationship API, the system's compensated two-store
// write path.
var Module = fx.Module("relationships",
	fx.Provide(
		NewRepository,
		provideRecordStore,
		provideEdgeStore,
		provideMindmapSource,
		provideInsightReader,
		provideViewCache,
		NewService,
		NewHandler,
	),
	fx.Invoke(
		ensureIndexes,
		RegisterRoutes,
	),
)
